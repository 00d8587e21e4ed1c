package store

import (
	"context"
	"fmt"
	"sync"

	"todolist/models"
)

// Store is the task registry. Each operation holds mu for its whole
// duration, so counter and map are always seen in a consistent state.
type Store struct {
	mu      sync.Mutex
	backend Backend
}

func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// AddTask creates a task owned by caller and returns its id.
// The id is consumed once minted even if the insert fails.
func (s *Store) AddTask(ctx context.Context, caller models.Principal, title string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.backend.NextID(ctx)
	if err != nil {
		return 0, fmt.Errorf("minting task id: %w", err)
	}

	task := models.Task{
		ID:        id,
		Title:     title,
		Completed: false,
		Owner:     caller,
	}
	if err := s.backend.Insert(ctx, task); err != nil {
		return 0, fmt.Errorf("inserting task %d: %w", id, err)
	}
	return id, nil
}

// GetTasks returns every task in id order, whoever owns it.
func (s *Store) GetTasks(ctx context.Context) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := []models.Task{}
	err := s.backend.Ascend(ctx, func(t models.Task) bool {
		tasks = append(tasks, t)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}

// DeleteTask removes the task with the given id. Any caller may delete.
func (s *Store) DeleteTask(ctx context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.backend.Remove(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting task %d: %w", id, err)
	}
	if !removed {
		return ErrTaskNotFound
	}
	return nil
}

// UpdateTask applies the present fields of update to the task, provided
// caller owns it. Ownership is checked against the stored task before any
// field is touched.
func (s *Store) UpdateTask(ctx context.Context, caller models.Principal, id uint64, update models.TaskUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok, err := s.backend.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("loading task %d: %w", id, err)
	}
	if !ok {
		return ErrTaskNotFound
	}
	if task.Owner != caller {
		return ErrNotOwner
	}

	if update.Title != nil {
		task.Title = *update.Title
	}
	if update.Completed != nil {
		task.Completed = *update.Completed
	}

	replaced, err := s.backend.Replace(ctx, task)
	if err != nil {
		return fmt.Errorf("saving task %d: %w", id, err)
	}
	if !replaced {
		return ErrTaskNotFound
	}
	return nil
}
