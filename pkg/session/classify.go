package session

import (
	"net/http"
	"strings"
)

// ClientKind tags what sort of client is on the other end of a request.
type ClientKind string

const (
	KindBrowser      ClientKind = "browser"
	KindInstalledApp ClientKind = "installed_app"
)

// ClientHeader is the explicit client self-identification header. Installed
// apps send "app"; anything else means browser.
const ClientHeader = "X-Client-Kind"

// PreferenceCookie remembers a client kind across requests, set when a
// client first identified itself explicitly.
const PreferenceCookie = "client_kind"

// Signals is the enumerated input to classification. Keeping it an explicit
// struct keeps the policy testable away from the transport layer.
type Signals struct {
	ClientHeader     string // value of ClientHeader, "" when absent
	PreferenceMarker string // recorded preference cookie value, "" when absent
	UserAgent        string // raw User-Agent, lowest-trust fallback
}

// SignalsFromRequest extracts classification signals from an HTTP request.
func SignalsFromRequest(r *http.Request) Signals {
	s := Signals{
		ClientHeader: r.Header.Get(ClientHeader),
		UserAgent:    r.UserAgent(),
	}
	if c, err := r.Cookie(PreferenceCookie); err == nil {
		s.PreferenceMarker = c.Value
	}
	return s
}

// Classify resolves the client kind from signals using a priority cascade:
// explicit header, then recorded preference, then user-agent heuristic.
//
// Every signal is client-reported, so the result is a convenience policy
// input (session duration), never an authentication factor.
func Classify(s Signals) ClientKind {
	if s.ClientHeader != "" {
		return kindFromMarker(s.ClientHeader)
	}

	if s.PreferenceMarker != "" {
		return kindFromMarker(s.PreferenceMarker)
	}

	if uaLooksInstalled(s.UserAgent) {
		return KindInstalledApp
	}

	return KindBrowser
}

func kindFromMarker(marker string) ClientKind {
	switch strings.ToLower(strings.TrimSpace(marker)) {
	case "app", "installed", string(KindInstalledApp):
		return KindInstalledApp
	default:
		return KindBrowser
	}
}

// uaLooksInstalled recognizes the embedded webview / standalone-app markers
// the mobile clients are known to send. Unknown agents default to browser,
// the shorter-lived and therefore safer choice.
func uaLooksInstalled(ua string) bool {
	ua = strings.ToLower(ua)
	for _, marker := range []string{"okhttp", "cfnetwork", "expo", "reactnative", "; wv)"} {
		if strings.Contains(ua, marker) {
			return true
		}
	}
	return false
}
