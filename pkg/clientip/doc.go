// Package clientip resolves the originating client address of an
// *http.Request behind one or more reverse proxies.
//
// Resolution examines headers in descending priority until the first valid
// IP is found:
//
//  1. CF-Connecting-IP – Cloudflare
//  2. X-Forwarded-For  – comma-separated list, first valid entry wins
//  3. X-Real-IP        – Nginx and similar reverse proxies
//  4. RemoteAddr       – TCP peer address as the fallback
//
// The resolved address feeds rate limit keys, so a malformed or spoofable
// value degrades to the TCP peer rather than an attacker-chosen string.
package clientip
