package store

import (
	"context"

	"todolist/models"
)

// Backend is the durable ordered map tasks live in, plus the id counter.
// Store serializes every call, so implementations never see two operations
// at once from the same Store.
type Backend interface {
	// NextID advances the counter and returns the new value. The first id is 1.
	NextID(ctx context.Context) (uint64, error)
	Get(ctx context.Context, id uint64) (models.Task, bool, error)
	// Insert writes task under task.ID, replacing any existing entry.
	Insert(ctx context.Context, task models.Task) error
	// Replace overwrites the entry under task.ID only if one still exists,
	// and reports whether it did.
	Replace(ctx context.Context, task models.Task) (bool, error)
	// Remove deletes the entry and reports whether one existed.
	Remove(ctx context.Context, id uint64) (bool, error)
	// Ascend calls fn for each task in increasing id order until fn returns false.
	Ascend(ctx context.Context, fn func(models.Task) bool) error
}
