package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todolist/models"
	"todolist/store"
)

const (
	alice models.Principal = "alice"
	bob   models.Principal = "bob"
)

func ptr[T any](v T) *T { return &v }

func newTestStore() *store.Store {
	return store.New(store.NewMemoryBackend())
}

func TestStore_AddTask(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	id, err := s.AddTask(ctx, alice, "X")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	tasks, err := s.GetTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, models.Task{ID: id, Title: "X", Completed: false, Owner: alice}, tasks[0])
}

func TestStore_AddTask_EmptyTitle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	id, err := s.AddTask(ctx, alice, "")
	require.NoError(t, err)

	tasks, err := s.GetTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, id, tasks[0].ID)
	assert.Empty(t, tasks[0].Title)
}

func TestStore_IDsNeverReused(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	var last uint64
	for i := 0; i < 5; i++ {
		id, err := s.AddTask(ctx, alice, "task")
		require.NoError(t, err)
		assert.Greater(t, id, last)
		last = id

		// interleave deletes and updates, the counter must keep moving forward
		require.NoError(t, s.UpdateTask(ctx, alice, id, models.TaskUpdate{Completed: ptr(true)}))
		require.NoError(t, s.DeleteTask(ctx, id))
	}

	id, err := s.AddTask(ctx, bob, "after deletes")
	require.NoError(t, err)
	assert.Equal(t, uint64(6), id)
}

func TestStore_GetTasks_Empty(t *testing.T) {
	tasks, err := newTestStore().GetTasks(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestStore_GetTasks_IsSnapshot(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	id, err := s.AddTask(ctx, alice, "original")
	require.NoError(t, err)

	tasks, err := s.GetTasks(ctx)
	require.NoError(t, err)
	tasks[0].Title = "mutated by caller"

	again, err := s.GetTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, "original", again[0].Title)
	assert.Equal(t, id, again[0].ID)
}

func TestStore_UpdateTask(t *testing.T) {
	tests := []struct {
		name   string
		update models.TaskUpdate
		want   models.Task
	}{
		{
			name:   "title only",
			update: models.TaskUpdate{Title: ptr("Y")},
			want:   models.Task{ID: 1, Title: "Y", Completed: false, Owner: alice},
		},
		{
			name:   "completed only",
			update: models.TaskUpdate{Completed: ptr(true)},
			want:   models.Task{ID: 1, Title: "X", Completed: true, Owner: alice},
		},
		{
			name:   "both fields",
			update: models.TaskUpdate{Title: ptr("Y"), Completed: ptr(true)},
			want:   models.Task{ID: 1, Title: "Y", Completed: true, Owner: alice},
		},
		{
			name:   "no fields is a no-op",
			update: models.TaskUpdate{},
			want:   models.Task{ID: 1, Title: "X", Completed: false, Owner: alice},
		},
		{
			name:   "empty title is allowed",
			update: models.TaskUpdate{Title: ptr("")},
			want:   models.Task{ID: 1, Title: "", Completed: false, Owner: alice},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := newTestStore()
			id, err := s.AddTask(ctx, alice, "X")
			require.NoError(t, err)

			require.NoError(t, s.UpdateTask(ctx, alice, id, tt.update))

			tasks, err := s.GetTasks(ctx)
			require.NoError(t, err)
			require.Len(t, tasks, 1)
			assert.Equal(t, tt.want, tasks[0])
		})
	}
}

func TestStore_UpdateTask_MarkIncompleteAgain(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	id, err := s.AddTask(ctx, alice, "X")
	require.NoError(t, err)

	require.NoError(t, s.UpdateTask(ctx, alice, id, models.TaskUpdate{Completed: ptr(true)}))
	require.NoError(t, s.UpdateTask(ctx, alice, id, models.TaskUpdate{Completed: ptr(false)}))

	tasks, err := s.GetTasks(ctx)
	require.NoError(t, err)
	assert.False(t, tasks[0].Completed)
}

func TestStore_UpdateTask_NotOwner(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	id, err := s.AddTask(ctx, alice, "X")
	require.NoError(t, err)

	before, err := s.GetTasks(ctx)
	require.NoError(t, err)

	err = s.UpdateTask(ctx, bob, id, models.TaskUpdate{Title: ptr("stolen"), Completed: ptr(true)})
	require.ErrorIs(t, err, store.ErrNotOwner)
	assert.Equal(t, "You are not the owner of this task", err.Error())

	after, err := s.GetTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStore_NotFound(t *testing.T) {
	tests := []struct {
		name string
		id   uint64
	}{
		{name: "zero id", id: 0},
		{name: "id past the counter", id: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := newTestStore()
			_, err := s.AddTask(ctx, alice, "X")
			require.NoError(t, err)

			err = s.DeleteTask(ctx, tt.id)
			require.ErrorIs(t, err, store.ErrTaskNotFound)
			assert.Equal(t, "Task not found", err.Error())

			err = s.UpdateTask(ctx, alice, tt.id, models.TaskUpdate{Title: ptr("Y")})
			require.ErrorIs(t, err, store.ErrTaskNotFound)
		})
	}
}

func TestStore_DeleteTask(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	id, err := s.AddTask(ctx, alice, "X")
	require.NoError(t, err)

	// any caller may delete, there is no owner check
	require.NoError(t, s.DeleteTask(ctx, id))

	tasks, err := s.GetTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	assert.ErrorIs(t, s.DeleteTask(ctx, id), store.ErrTaskNotFound)
	assert.ErrorIs(t, s.DeleteTask(ctx, id), store.ErrTaskNotFound)
	assert.ErrorIs(t, s.UpdateTask(ctx, alice, id, models.TaskUpdate{}), store.ErrTaskNotFound)
}

func TestStore_EndToEnd(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	milk, err := s.AddTask(ctx, alice, "buy milk")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), milk)

	dog, err := s.AddTask(ctx, bob, "walk dog")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), dog)

	tasks, err := s.GetTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Task{
		{ID: 1, Title: "buy milk", Owner: alice},
		{ID: 2, Title: "walk dog", Owner: bob},
	}, tasks)

	err = s.UpdateTask(ctx, bob, milk, models.TaskUpdate{Completed: ptr(true)})
	require.ErrorIs(t, err, store.ErrNotOwner)
	tasks, err = s.GetTasks(ctx)
	require.NoError(t, err)
	assert.False(t, tasks[0].Completed)

	require.NoError(t, s.UpdateTask(ctx, alice, milk, models.TaskUpdate{Completed: ptr(true)}))
	require.NoError(t, s.DeleteTask(ctx, dog))

	tasks, err = s.GetTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Task{{ID: 1, Title: "buy milk", Completed: true, Owner: alice}}, tasks)
}

func TestStore_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	const n = 200
	ids := make(chan uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.AddTask(ctx, alice, "concurrent")
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint64]bool, n)
	for id := range ids {
		assert.False(t, seen[id], "id %d issued twice", id)
		seen[id] = true
	}
	for id := uint64(1); id <= n; id++ {
		assert.True(t, seen[id], "id %d never issued", id)
	}

	tasks, err := s.GetTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, n)
	for i, task := range tasks {
		assert.Equal(t, uint64(i+1), task.ID)
	}
}

type failingBackend struct {
	store.Backend
	err error
}

func (f failingBackend) Insert(context.Context, models.Task) error { return f.err }

func TestStore_SubstrateErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk on fire")
	mem := store.NewMemoryBackend()
	s := store.New(failingBackend{Backend: mem, err: boom})

	_, err := s.AddTask(ctx, alice, "X")
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, store.ErrTaskNotFound)

	// the minted id stays consumed
	next, err := mem.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next)
}

// deletedUnderneath simulates another writer removing the task right after
// it was loaded.
type deletedUnderneath struct {
	store.Backend
}

func (d deletedUnderneath) Get(ctx context.Context, id uint64) (models.Task, bool, error) {
	task, ok, err := d.Backend.Get(ctx, id)
	if ok {
		_, _ = d.Backend.Remove(ctx, id)
	}
	return task, ok, err
}

func TestStore_UpdateDoesNotResurrectDeletedTask(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryBackend()
	id, err := store.New(mem).AddTask(ctx, alice, "X")
	require.NoError(t, err)

	s := store.New(deletedUnderneath{Backend: mem})
	done := true
	err = s.UpdateTask(ctx, alice, id, models.TaskUpdate{Completed: &done})
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	tasks, err := s.GetTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}
