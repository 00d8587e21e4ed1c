package utils

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"todolist/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailInUse         = errors.New("email address is already registered")
	ErrInvalidOTP         = errors.New("invalid one time password")
)

const bcryptCost = 10

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func GenerateToken(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}
	return base64.URLEncoding.EncodeToString(bytes)
}

// RegisterUser creates an account with a fresh uuid. The caller validates
// email and password first.
func RegisterUser(ctx context.Context, email, password string, db *pgxpool.Pool) (models.User, error) {
	inUse, err := EmailInUse(ctx, email, db)
	if err != nil {
		return models.User{}, err
	}
	if inUse {
		return models.User{}, ErrEmailInUse
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return models.User{}, fmt.Errorf("hashing password: %w", err)
	}

	user := models.User{ID: uuid.New(), Email: email, PasswordHash: passwordHash}
	if err := InsertUser(ctx, user, db); err != nil {
		return models.User{}, err
	}
	log.Printf("Registered user %s", user.ID)
	return user, nil
}

// LoginUser checks the credentials and returns the matching user.
func LoginUser(ctx context.Context, email, password string, db *pgxpool.Pool) (models.User, error) {
	user, err := GetUserByEmail(ctx, email, db)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}
	if !CheckPasswordHash(password, user.PasswordHash) {
		log.Printf("Password verification failed for user: %s", user.ID)
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// NewSession builds a session for user with fresh session and CSRF tokens.
func NewSession(r *http.Request, user models.User, ttl time.Duration) models.Session {
	now := time.Now()
	return models.Session{
		SessionToken: GenerateToken(32),
		UserID:       user.ID.String(),
		CreatedAt:    now.Format(time.RFC3339),
		ExpiresAt:    now.Add(ttl).Format(time.RFC3339),
		LastActivity: now.Format(time.RFC3339),
		CSRFToken:    GenerateToken(32),
		UserAgent:    GetUserAgent(r),
		IPAddress:    GetIP(r),
	}
}

func SetSessionCookies(w http.ResponseWriter, session models.Session, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session.SessionToken,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
	})
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookie,
		Value:    session.CSRFToken,
		HttpOnly: false, // read by the frontend and echoed in X-CSRF-Token
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
	})
}

func ClearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{SessionCookie, CSRFCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			HttpOnly: name == SessionCookie,
			SameSite: http.SameSiteStrictMode,
			Path:     "/",
			MaxAge:   -1,
		})
	}
}

// IssueToken signs an HS256 bearer token whose subject is the principal.
func IssueToken(secret []byte, principal models.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   string(principal),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken validates a bearer token and returns its principal and the
// time it was issued.
func ParseToken(secret []byte, tokenString string) (models.Principal, time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", time.Time{}, err
	}
	if !token.Valid || claims.Subject == "" {
		return "", time.Time{}, errors.New("token has no subject")
	}
	if claims.IssuedAt == nil {
		return "", time.Time{}, errors.New("token has no issue time")
	}
	return models.Principal(claims.Subject), claims.IssuedAt.Time, nil
}

func GenerateOTP() string {
	return GenerateToken(32)
}

func SetOTP(ctx context.Context, email string, otp string, db *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	stmt := "UPDATE users SET one_time_password = $1 WHERE email = $2 RETURNING id;"

	var updatedID string
	if err := db.QueryRow(ctx, stmt, otp, email).Scan(&updatedID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("unable to set otp: %w", err)
	}
	return nil
}

// ResetPassword replaces the password of the account identified by email
// if otp matches the stored one time password, which is consumed. It
// returns the user so their existing sessions can be revoked.
func ResetPassword(ctx context.Context, email, otp, password string, db *pgxpool.Pool) (models.User, error) {
	passwordHash, err := HashPassword(password)
	if err != nil {
		return models.User{}, fmt.Errorf("hashing password: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tx, err := db.Begin(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		id     uuid.UUID
		stored *string
	)
	err = tx.QueryRow(ctx, "SELECT id, one_time_password FROM users WHERE email = $1 FOR UPDATE;", email).Scan(&id, &stored)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrInvalidOTP
		}
		return models.User{}, fmt.Errorf("unable to retrieve otp: %w", err)
	}
	if stored == nil || subtle.ConstantTimeCompare([]byte(*stored), []byte(otp)) != 1 {
		log.Printf("OTP mismatch for user: %s", id)
		return models.User{}, ErrInvalidOTP
	}

	stmt := "UPDATE users SET password_hash = $1, one_time_password = NULL WHERE id = $2;"
	if _, err := tx.Exec(ctx, stmt, passwordHash, id); err != nil {
		return models.User{}, fmt.Errorf("unable to update user password: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return models.User{}, fmt.Errorf("commit reset: %w", err)
	}
	return models.User{ID: id, Email: email, PasswordHash: passwordHash}, nil
}
