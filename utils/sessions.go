package utils

import "net/http"

const (
	SessionCookie = "session_token"
	CSRFCookie    = "csrf_token"
	CSRFHeader    = "X-CSRF-Token"
)

// SessionToken returns the session cookie value, or "" if there is none.
func SessionToken(r *http.Request) string {
	st, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return st.Value
}

// GetUserAgent returns the User-Agent string from the request
func GetUserAgent(r *http.Request) string {
	return r.Header.Get("User-Agent")
}

// GetIP returns the IP address of the client from the request
func GetIP(r *http.Request) string {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = r.RemoteAddr
	}
	return ip
}
