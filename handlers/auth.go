package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"todolist/utils"
)

// AuthConfig carries the token and session lifetimes the auth handlers hand out.
type AuthConfig struct {
	JWTSecret  []byte
	JWTTTL     time.Duration
	SessionTTL time.Duration
}

type credentials struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type loginResponse struct {
	UserID    string `json:"user_id"`
	Token     string `json:"token"`
	CSRFToken string `json:"csrf_token"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetConfirm struct {
	Email    string `json:"email"`
	OTP      string `json:"otp"`
	Password string `json:"password"`
}

func RegisterUserHandler(w http.ResponseWriter, r *http.Request, db *pgxpool.Pool) {
	var creds credentials
	if err := decodeJSON(r, &creds); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := utils.ValidateEmail(creds.Email); err != nil {
		log.Println("invalid email: ", err)
		respondWithError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if err := utils.ValidatePassword(creds.Password); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !utils.SamePassword(creds.Password, creds.ConfirmPassword) {
		respondWithError(w, http.StatusBadRequest, "passwords must match")
		return
	}

	user, err := utils.RegisterUser(r.Context(), creds.Email, creds.Password, db)
	if err != nil {
		if errors.Is(err, utils.ErrEmailInUse) {
			respondWithError(w, http.StatusConflict, "Email address is already registered")
			return
		}
		log.Println("add user error: ", err, " user: ", creds.Email)
		respondWithError(w, http.StatusInternalServerError, "error creating account")
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{"user_id": user.ID.String()})
}

// LoginHandler opens a redis session (cookies) and also returns a bearer
// token for API clients.
func LoginHandler(w http.ResponseWriter, r *http.Request, db *pgxpool.Pool, redisClient *redis.Client, cfg AuthConfig) {
	var creds credentials
	if err := decodeJSON(r, &creds); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if creds.Email == "" || creds.Password == "" {
		respondWithError(w, http.StatusBadRequest, "Missing credentials")
		return
	}

	user, err := utils.LoginUser(r.Context(), creds.Email, creds.Password, db)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidCredentials) {
			respondWithError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		log.Println("Login failed: ", err)
		respondWithError(w, http.StatusInternalServerError, "internal error. try again.")
		return
	}

	session := utils.NewSession(r, user, cfg.SessionTTL)
	if err := utils.StoreSession(r.Context(), redisClient, session, cfg.SessionTTL); err != nil {
		log.Printf("Failed to store session: %v", err)
		respondWithError(w, http.StatusInternalServerError, "internal error. try again.")
		return
	}

	token, err := utils.IssueToken(cfg.JWTSecret, user.Principal(), cfg.JWTTTL)
	if err != nil {
		log.Printf("Failed to sign token: %v", err)
		respondWithError(w, http.StatusInternalServerError, "internal error. try again.")
		return
	}

	if err := utils.UpdateLastActivityDB(r.Context(), db, session.UserID); err != nil {
		log.Println("Error updating last activity in database:", err)
	}

	utils.SetSessionCookies(w, session, cfg.SessionTTL)
	log.Printf("Login successful for user: %s", user.ID)
	respondWithJSON(w, http.StatusOK, loginResponse{
		UserID:    session.UserID,
		Token:     token,
		CSRFToken: session.CSRFToken,
	})
}

func LogOutHandler(w http.ResponseWriter, r *http.Request, redisClient *redis.Client) {
	if st := utils.SessionToken(r); st != "" && redisClient != nil {
		err := utils.DeleteSession(r.Context(), redisClient, st)
		if err != nil && !errors.Is(err, utils.ErrSessionNotFound) {
			log.Printf("Failed to delete session: %v", err)
		}
	}
	utils.ClearSessionCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

// ResetPasswordRequestHandler mails a one time password. It answers the
// same whether or not the address is registered.
func ResetPasswordRequestHandler(w http.ResponseWriter, r *http.Request, db *pgxpool.Pool, mailer utils.Mailer) {
	var req resetRequest
	if err := decodeJSON(r, &req); err != nil || req.Email == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	otp := utils.GenerateOTP()
	err := utils.SetOTP(r.Context(), req.Email, otp, db)
	switch {
	case errors.Is(err, utils.ErrUserNotFound):
		log.Println("password reset requested for unknown email")
	case err != nil:
		log.Println("error setting otp: ", err)
		respondWithError(w, http.StatusInternalServerError, "internal error. please try again")
		return
	default:
		if err := mailer.SendOTP(req.Email, otp); err != nil {
			log.Println("Error sending email:", err)
			respondWithError(w, http.StatusInternalServerError, "internal error. please try again")
			return
		}
	}

	w.WriteHeader(http.StatusAccepted)
}

// ResetPasswordConfirmHandler sets a new password and signs the user out
// everywhere.
func ResetPasswordConfirmHandler(w http.ResponseWriter, r *http.Request, db *pgxpool.Pool, redisClient *redis.Client, cfg AuthConfig) {
	var req resetConfirm
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := utils.ResetPassword(r.Context(), req.Email, req.OTP, req.Password, db)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidOTP) {
			respondWithError(w, http.StatusUnauthorized, "invalid email or reset code")
			return
		}
		log.Println("error resetting password: ", err)
		respondWithError(w, http.StatusInternalServerError, "internal error. please try again")
		return
	}

	if err := utils.DeleteAllUserSessions(r.Context(), redisClient, user.ID.String()); err != nil {
		log.Println("error revoking sessions after password reset: ", err)
	}
	if err := utils.RevokeTokens(r.Context(), redisClient, user.ID.String(), time.Now(), cfg.JWTTTL); err != nil {
		log.Println("error revoking tokens after password reset: ", err)
	}
	w.WriteHeader(http.StatusNoContent)
}
