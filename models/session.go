package models

// Session is a browser login kept in redis under "session:<token>".
type Session struct {
	SessionToken string `json:"session_token"`
	UserID       string `json:"user_id"`
	CreatedAt    string `json:"created_at"`
	ExpiresAt    string `json:"expires_at"`
	LastActivity string `json:"last_activity"`
	CSRFToken    string `json:"csrf_token"`
	UserAgent    string `json:"user_agent"`
	IPAddress    string `json:"ip_address"`
}

// Principal returns the identity of the user the session belongs to.
func (s Session) Principal() Principal {
	return Principal(s.UserID)
}
