package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"todolist/models"
)

var ErrUserNotFound = errors.New("user not found")

func OpenDB(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	// Parse the connection string into a pgxpool.Config
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	config.MaxConns = 50
	config.MinConns = 2
	config.MaxConnIdleTime = 20 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// EnsureUserSchema creates the users table if it doesn't exist.
func EnsureUserSchema(ctx context.Context, db *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	stmt := `CREATE TABLE IF NOT EXISTS users (
    id                UUID PRIMARY KEY,
    email             TEXT NOT NULL UNIQUE,
    password_hash     TEXT NOT NULL,
    one_time_password TEXT,
    last_activity     TIMESTAMP WITHOUT TIME ZONE DEFAULT NOW()
)`
	if _, err := db.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("ensure user schema: %w", err)
	}
	return nil
}

func EmailInUse(ctx context.Context, email string, db *pgxpool.Pool) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var exists bool
	err := db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("database error checking email: %w", err)
	}
	return exists, nil
}

func InsertUser(ctx context.Context, user models.User, db *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	stmt := "INSERT INTO users (id, email, password_hash) VALUES ($1, $2, $3);"
	if _, err := db.Exec(ctx, stmt, user.ID, user.Email, user.PasswordHash); err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func GetUserByEmail(ctx context.Context, email string, db *pgxpool.Pool) (models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var (
		id   uuid.UUID
		hash string
	)
	err := db.QueryRow(ctx, "SELECT id, password_hash FROM users WHERE email = $1;", email).Scan(&id, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("looking up user: %w", err)
	}
	return models.User{ID: id, Email: email, PasswordHash: hash}, nil
}

func UpdateLastActivityDB(ctx context.Context, db *pgxpool.Pool, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	id, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	stmt := "UPDATE users SET last_activity = NOW() WHERE id = $1"
	if _, err := db.Exec(ctx, stmt, id); err != nil {
		return fmt.Errorf("error updating last activity: %w", err)
	}
	return nil
}
