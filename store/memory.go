package store

import (
	"context"

	"github.com/google/btree"

	"todolist/models"
)

var _ Backend = (*MemoryBackend)(nil)

// MemoryBackend keeps tasks in an in-process B-tree. Nothing survives a
// restart; it backs tests and TASK_BACKEND=memory. It is not safe for
// concurrent use on its own; Store provides the locking.
type MemoryBackend struct {
	nextID uint64
	tasks  *btree.BTreeG[models.Task]
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		tasks: btree.NewG(16, func(a, b models.Task) bool { return a.ID < b.ID }),
	}
}

func (m *MemoryBackend) NextID(_ context.Context) (uint64, error) {
	m.nextID++
	return m.nextID, nil
}

func (m *MemoryBackend) Get(_ context.Context, id uint64) (models.Task, bool, error) {
	task, ok := m.tasks.Get(models.Task{ID: id})
	return task, ok, nil
}

func (m *MemoryBackend) Insert(_ context.Context, task models.Task) error {
	m.tasks.ReplaceOrInsert(task)
	return nil
}

func (m *MemoryBackend) Replace(_ context.Context, task models.Task) (bool, error) {
	if !m.tasks.Has(task) {
		return false, nil
	}
	m.tasks.ReplaceOrInsert(task)
	return true, nil
}

func (m *MemoryBackend) Remove(_ context.Context, id uint64) (bool, error) {
	_, ok := m.tasks.Delete(models.Task{ID: id})
	return ok, nil
}

func (m *MemoryBackend) Ascend(_ context.Context, fn func(models.Task) bool) error {
	m.tasks.Ascend(fn)
	return nil
}
