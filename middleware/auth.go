package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"

	"todolist/models"
	"todolist/utils"
)

// ContextKey is a custom type to avoid context key collisions.
type ContextKey string

const (
	principalKey    ContextKey = "principal"
	sessionTokenKey ContextKey = "session_token"
)

// Authenticator resolves the caller of a request, either from a bearer
// token or from a redis-backed browser session.
type Authenticator struct {
	JWTSecret []byte
	Redis     *redis.Client
}

// Authenticate rejects requests without a verified identity and stores the
// principal in the request context. Cookie sessions must echo their CSRF
// token on anything but GET/HEAD. Bearer tokens issued before the user's
// last password reset are refused when redis is configured.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if authHeader := r.Header.Get("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Println("Invalid Authorization header format")
				unauthorized(w, "invalid Authorization header format")
				return
			}
			principal, issuedAt, err := utils.ParseToken(a.JWTSecret, parts[1])
			if err != nil {
				log.Printf("Token parsing error: %v", err)
				unauthorized(w, "invalid token")
				return
			}
			if a.Redis != nil {
				revoked, err := utils.TokenRevoked(ctx, a.Redis, string(principal), issuedAt)
				if err != nil {
					log.Println("Error checking token revocation:", err)
					http.Error(w, "Internal server error", http.StatusInternalServerError)
					return
				}
				if revoked {
					unauthorized(w, "token revoked")
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, principal)))
			return
		}

		st := utils.SessionToken(r)
		if st == "" || a.Redis == nil {
			unauthorized(w, "authentication required")
			return
		}

		requireCSRF := r.Method != http.MethodGet && r.Method != http.MethodHead
		session, err := utils.ValidateSession(ctx, a.Redis, st, r.Header.Get(utils.CSRFHeader), requireCSRF)
		if err != nil {
			switch {
			case errors.Is(err, utils.ErrInvalidCSRF):
				log.Println("unauthorized: invalid CSRF token")
				unauthorized(w, "invalid csrf token")
			case errors.Is(err, utils.ErrSessionNotFound):
				unauthorized(w, "session expired or unknown")
			default:
				log.Println("Error validating session:", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		ctx = WithPrincipal(ctx, session.Principal())
		ctx = context.WithValue(ctx, sessionTokenKey, st)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithPrincipal returns a copy of ctx carrying the caller identity.
func WithPrincipal(ctx context.Context, principal models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// PrincipalFrom returns the caller identity stored by Authenticate.
func PrincipalFrom(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(models.Principal)
	return p, ok && p != ""
}

// SessionTokenFrom returns the session token when the caller came in with a
// browser session rather than a bearer token.
func SessionTokenFrom(ctx context.Context) (string, bool) {
	st, ok := ctx.Value(sessionTokenKey).(string)
	return st, ok && st != ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
