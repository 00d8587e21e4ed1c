package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"todolist/middleware"
	"todolist/utils"
)

// Deps is everything the routes need. DB, Redis and Mailer may be nil in
// tests that only exercise the task routes.
type Deps struct {
	Tasks  TaskStore
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Mailer utils.Mailer
	Auth   AuthConfig
}

func NewRouter(d Deps) *mux.Router {
	authn := &middleware.Authenticator{JWTSecret: d.Auth.JWTSecret, Redis: d.Redis}

	router := mux.NewRouter()
	router.Use(middleware.Logging)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	// Every task call has a caller, even the ones that don't check it.
	tasks := router.PathPrefix("/tasks").Subrouter()
	tasks.Use(authn.Authenticate)
	tasks.HandleFunc("", func(w http.ResponseWriter, r *http.Request) {
		GetTasksHandler(w, r, d.Tasks)
	}).Methods(http.MethodGet)
	tasks.HandleFunc("", func(w http.ResponseWriter, r *http.Request) {
		AddTaskHandler(w, r, d.Tasks, d.Redis)
	}).Methods(http.MethodPost)
	tasks.HandleFunc("/{id}", func(w http.ResponseWriter, r *http.Request) {
		UpdateTaskHandler(w, r, d.Tasks, d.Redis)
	}).Methods(http.MethodPatch)
	tasks.HandleFunc("/{id}", func(w http.ResponseWriter, r *http.Request) {
		DeleteTaskHandler(w, r, d.Tasks, d.Redis)
	}).Methods(http.MethodDelete)

	router.HandleFunc("/register", func(w http.ResponseWriter, r *http.Request) {
		RegisterUserHandler(w, r, d.DB)
	}).Methods(http.MethodPost)
	router.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		LoginHandler(w, r, d.DB, d.Redis, d.Auth)
	}).Methods(http.MethodPost)
	router.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
		LogOutHandler(w, r, d.Redis)
	}).Methods(http.MethodPost)
	router.HandleFunc("/password-reset/request", func(w http.ResponseWriter, r *http.Request) {
		ResetPasswordRequestHandler(w, r, d.DB, d.Mailer)
	}).Methods(http.MethodPost)
	router.HandleFunc("/password-reset/confirm", func(w http.ResponseWriter, r *http.Request) {
		ResetPasswordConfirmHandler(w, r, d.DB, d.Redis, d.Auth)
	}).Methods(http.MethodPost)

	return router
}
