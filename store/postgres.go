package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"todolist/models"
)

const queryTimeout = 10 * time.Second

var _ Backend = (*PostgresBackend)(nil)

// PostgresBackend stores tasks in the tasks table and the id counter in a
// single row of task_counter.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// taskRow mirrors the tasks table. Ids are kept as BIGINT.
type taskRow struct {
	ID        int64  `db:"id"`
	Title     string `db:"title"`
	Completed bool   `db:"completed"`
	Owner     string `db:"owner"`
}

func (r taskRow) task() models.Task {
	return models.Task{
		ID:        uint64(r.ID),
		Title:     r.Title,
		Completed: r.Completed,
		Owner:     models.Principal(r.Owner),
	}
}

func NewPostgresBackend(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

// EnsureSchema creates the tables if they don't exist yet.
func (p *PostgresBackend) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
    id        BIGINT PRIMARY KEY,
    title     TEXT NOT NULL,
    completed BOOLEAN NOT NULL DEFAULT FALSE,
    owner     TEXT NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS task_counter (
    singleton BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
    value     BIGINT NOT NULL
)`,
	}
	for _, stmt := range statements {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure task schema: %w", err)
		}
	}
	return nil
}

func (p *PostgresBackend) NextID(ctx context.Context) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	stmt := `INSERT INTO task_counter (singleton, value) VALUES (TRUE, 1)
ON CONFLICT (singleton) DO UPDATE SET value = task_counter.value + 1
RETURNING value`

	var id int64
	if err := p.pool.QueryRow(ctx, stmt).Scan(&id); err != nil {
		return 0, fmt.Errorf("advance task counter: %w", err)
	}
	return uint64(id), nil
}

func (p *PostgresBackend) Get(ctx context.Context, id uint64) (models.Task, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := p.pool.Query(ctx, "SELECT id, title, completed, owner FROM tasks WHERE id = $1", int64(id))
	if err != nil {
		return models.Task{}, false, fmt.Errorf("query task: %w", err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[taskRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Task{}, false, nil
		}
		return models.Task{}, false, fmt.Errorf("scan task: %w", err)
	}
	return row.task(), true, nil
}

func (p *PostgresBackend) Insert(ctx context.Context, task models.Task) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	// owner is set by the first insert only
	stmt := `INSERT INTO tasks (id, title, completed, owner) VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, completed = EXCLUDED.completed`

	_, err := p.pool.Exec(ctx, stmt, int64(task.ID), task.Title, task.Completed, string(task.Owner))
	if err != nil {
		return fmt.Errorf("upsert task: %w", err)
	}
	return nil
}

// Replace writes back title and completed without recreating the row, so a
// task deleted by another instance between Get and Replace stays deleted.
func (p *PostgresBackend) Replace(ctx context.Context, task models.Task) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := p.pool.Exec(ctx, "UPDATE tasks SET title = $2, completed = $3 WHERE id = $1",
		int64(task.ID), task.Title, task.Completed)
	if err != nil {
		return false, fmt.Errorf("update task: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (p *PostgresBackend) Remove(ctx context.Context, id uint64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := p.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1", int64(id))
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (p *PostgresBackend) Ascend(ctx context.Context, fn func(models.Task) bool) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := p.pool.Query(ctx, "SELECT id, title, completed, owner FROM tasks ORDER BY id")
	if err != nil {
		return fmt.Errorf("query tasks: %w", err)
	}
	taskRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[taskRow])
	if err != nil {
		return fmt.Errorf("scan tasks: %w", err)
	}

	for _, r := range taskRows {
		if !fn(r.task()) {
			break
		}
	}
	return nil
}
