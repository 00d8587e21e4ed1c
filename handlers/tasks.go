package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"todolist/middleware"
	"todolist/models"
	"todolist/store"
	"todolist/utils"
)

// TaskStore is the registry the task handlers drive.
type TaskStore interface {
	AddTask(ctx context.Context, caller models.Principal, title string) (uint64, error)
	GetTasks(ctx context.Context) ([]models.Task, error)
	DeleteTask(ctx context.Context, id uint64) error
	UpdateTask(ctx context.Context, caller models.Principal, id uint64, update models.TaskUpdate) error
}

type addTaskRequest struct {
	Title string `json:"title"`
}

type addTaskResponse struct {
	ID uint64 `json:"id"`
}

// GetTasksHandler lists every task. The caller must be identified but
// the list is not filtered by owner.
func GetTasksHandler(w http.ResponseWriter, r *http.Request, tasks TaskStore) {
	all, err := tasks.GetTasks(r.Context())
	if err != nil {
		log.Println("Error listing tasks:", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to list tasks")
		return
	}
	respondWithJSON(w, http.StatusOK, all)
}

func AddTaskHandler(w http.ResponseWriter, r *http.Request, tasks TaskStore, redisClient *redis.Client) {
	caller, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req addTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Printf("JSON decode error in AddTaskHandler: %v", err)
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	id, err := tasks.AddTask(r.Context(), caller, req.Title)
	if err != nil {
		log.Println("Error adding task:", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to add task")
		return
	}

	touchSession(r, redisClient)
	respondWithJSON(w, http.StatusCreated, addTaskResponse{ID: id})
}

func UpdateTaskHandler(w http.ResponseWriter, r *http.Request, tasks TaskStore, redisClient *redis.Client) {
	caller, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := taskID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid task ID")
		return
	}

	// an empty body is an update with no fields
	var update models.TaskUpdate
	if err := decodeJSON(r, &update); err != nil && !errors.Is(err, io.EOF) {
		log.Printf("JSON decode error in UpdateTaskHandler: %v", err)
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := tasks.UpdateTask(r.Context(), caller, id, update); err != nil {
		respondWithTaskError(w, "update", id, err)
		return
	}

	touchSession(r, redisClient)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTaskHandler removes a task. Whoever is calling may delete any task.
func DeleteTaskHandler(w http.ResponseWriter, r *http.Request, tasks TaskStore, redisClient *redis.Client) {
	id, err := taskID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid task ID")
		return
	}

	if err := tasks.DeleteTask(r.Context(), id); err != nil {
		respondWithTaskError(w, "delete", id, err)
		return
	}

	touchSession(r, redisClient)
	w.WriteHeader(http.StatusNoContent)
}

func taskID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
}

func respondWithTaskError(w http.ResponseWriter, op string, id uint64, err error) {
	switch {
	case errors.Is(err, store.ErrTaskNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrNotOwner):
		respondWithError(w, http.StatusForbidden, err.Error())
	default:
		log.Printf("Error trying to %s task %d: %v", op, id, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to "+op+" task")
	}
}

// touchSession refreshes last_activity for browser sessions. Bearer token
// callers have nothing to refresh.
func touchSession(r *http.Request, redisClient *redis.Client) {
	st, ok := middleware.SessionTokenFrom(r.Context())
	if !ok || redisClient == nil {
		return
	}
	if err := utils.UpdateLastActivityRedis(r.Context(), redisClient, st); err != nil {
		log.Println("Error updating last activity in Redis:", err)
	}
}
