package verification

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/tutorbase/authkit/pkg/auth"
	"github.com/tutorbase/authkit/pkg/contact"
	"github.com/tutorbase/authkit/pkg/otp"
)

// sentMessage is the uniform reply for every code-request endpoint,
// registered contact or not.
const sentMessage = "If this contact is registered, a code has been sent."

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorBody struct {
	Error string `json:"error"`
}

// respondError maps domain errors to the HTTP taxonomy. Lockout and
// rate-limit replies stay generic: no remaining-attempt counts, no
// account-existence hints. Unknown errors become a plain 500 with the detail
// kept server-side.
func (s *Service) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, contact.ErrInvalidFormat),
		errors.Is(err, contact.ErrCountryCodeRequired),
		errors.Is(err, contact.ErrUnknownRegion):
		respondJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})

	case errors.Is(err, otp.ErrTokenNotFound),
		errors.Is(err, otp.ErrTokenExpired),
		errors.Is(err, auth.ErrTokenInvalid),
		errors.Is(err, auth.ErrTokenExpired):
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "code invalid or expired, request a new one"})

	case errors.Is(err, otp.ErrCodeMismatch):
		var mismatch *otp.CodeMismatchError
		body := map[string]any{"error": "incorrect code"}
		if errors.As(err, &mismatch) {
			body["remaining_attempts"] = mismatch.Remaining
		}
		respondJSON(w, http.StatusBadRequest, body)

	case errors.Is(err, otp.ErrTooManyAttempts):
		w.Header().Set("Retry-After", strconv.Itoa(int(s.codes.Config().CodeTTL.Seconds())))
		respondJSON(w, http.StatusTooManyRequests, errorBody{Error: "too many attempts, request a new code later"})

	default:
		s.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
