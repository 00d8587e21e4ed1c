//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todolist/models"
	"todolist/testutil"
)

func TestPostgresBackend_StoreOperations(t *testing.T) {
	pool := testutil.PostgresPool(t)

	ctx := context.Background()
	backend := NewPostgresBackend(pool)
	require.NoError(t, backend.EnsureSchema(ctx))
	s := New(backend)

	milk, err := s.AddTask(ctx, "alice", "buy milk")
	require.NoError(t, err)
	dog, err := s.AddTask(ctx, "bob", "walk dog")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), milk)
	assert.Equal(t, uint64(2), dog)

	done := true
	assert.ErrorIs(t, s.UpdateTask(ctx, "bob", milk, models.TaskUpdate{Completed: &done}), ErrNotOwner)
	require.NoError(t, s.UpdateTask(ctx, "alice", milk, models.TaskUpdate{Completed: &done}))
	require.NoError(t, s.DeleteTask(ctx, dog))
	assert.ErrorIs(t, s.DeleteTask(ctx, dog), ErrTaskNotFound)

	tasks, err := s.GetTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Task{{ID: 1, Title: "buy milk", Completed: true, Owner: "alice"}}, tasks)
}

func TestPostgresBackend_SurvivesRestart(t *testing.T) {
	pool := testutil.PostgresPool(t)

	ctx := context.Background()
	first := NewPostgresBackend(pool)
	require.NoError(t, first.EnsureSchema(ctx))

	s := New(first)
	for _, title := range []string{"a", "b", "c"} {
		_, err := s.AddTask(ctx, "alice", title)
		require.NoError(t, err)
	}
	require.NoError(t, s.DeleteTask(ctx, 3))

	// a fresh store over the same database picks up where the last one stopped
	second := NewPostgresBackend(pool)
	require.NoError(t, second.EnsureSchema(ctx))
	restarted := New(second)

	id, err := restarted.AddTask(ctx, "bob", "d")
	require.NoError(t, err)
	assert.Equal(t, uint64(4), id)

	tasks, err := restarted.GetTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, []uint64{1, 2, 4}, []uint64{tasks[0].ID, tasks[1].ID, tasks[2].ID})
}

func TestPostgresBackend_InsertKeepsOwner(t *testing.T) {
	pool := testutil.PostgresPool(t)

	ctx := context.Background()
	backend := NewPostgresBackend(pool)
	require.NoError(t, backend.EnsureSchema(ctx))

	require.NoError(t, backend.Insert(ctx, models.Task{ID: 1, Title: "x", Owner: "alice"}))
	require.NoError(t, backend.Insert(ctx, models.Task{ID: 1, Title: "y", Owner: "mallory"}))

	task, ok, err := backend.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "y", task.Title)
	assert.Equal(t, models.Principal("alice"), task.Owner)
}

func TestPostgresBackend_ReplaceSkipsDeletedRow(t *testing.T) {
	pool := testutil.PostgresPool(t)

	ctx := context.Background()
	backend := NewPostgresBackend(pool)
	require.NoError(t, backend.EnsureSchema(ctx))

	require.NoError(t, backend.Insert(ctx, models.Task{ID: 1, Title: "x", Owner: "alice"}))
	replaced, err := backend.Replace(ctx, models.Task{ID: 1, Title: "y", Completed: true, Owner: "alice"})
	require.NoError(t, err)
	assert.True(t, replaced)

	removed, err := backend.Remove(ctx, 1)
	require.NoError(t, err)
	require.True(t, removed)

	replaced, err = backend.Replace(ctx, models.Task{ID: 1, Title: "z", Owner: "alice"})
	require.NoError(t, err)
	assert.False(t, replaced)

	_, ok, err := backend.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}
