package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"todolist/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidCSRF     = errors.New("invalid csrf token")
)

const redisTimeout = 5 * time.Second

// OpenRedisPool initializes a Redis connection pool
func OpenRedisPool(ctx context.Context, dsn string) (*redis.Client, error) {
	opt, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis DSN: %w", err)
	}

	opt.PoolSize = 100
	opt.MinIdleConns = 2
	opt.DialTimeout = 5 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func sessionKey(token string) string {
	return "session:" + token
}

func userSessionsKey(userID string) string {
	return "user_sessions:" + userID
}

func tokenCutoffKey(userID string) string {
	return "token_cutoff:" + userID
}

// StoreSession saves a session in Redis
func StoreSession(ctx context.Context, client *redis.Client, session models.Session, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	sessionMap := map[string]any{
		"user_id":       session.UserID,
		"created_at":    session.CreatedAt,
		"expires_at":    session.ExpiresAt,
		"last_activity": session.LastActivity,
		"csrf_token":    session.CSRFToken,
		"user_agent":    session.UserAgent,
		"ip_address":    session.IPAddress,
	}

	key := sessionKey(session.SessionToken)
	if err := client.HSet(ctx, key, sessionMap).Err(); err != nil {
		return err
	}
	if err := client.Expire(ctx, key, ttl).Err(); err != nil {
		return err
	}

	// Add to the user's session index
	return client.SAdd(ctx, userSessionsKey(session.UserID), key).Err()
}

// GetSession retrieves session details from Redis
func GetSession(ctx context.Context, client *redis.Client, sessionToken string) (*models.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	data, err := client.HGetAll(ctx, sessionKey(sessionToken)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrSessionNotFound
	}

	return &models.Session{
		SessionToken: sessionToken,
		UserID:       data["user_id"],
		CreatedAt:    data["created_at"],
		ExpiresAt:    data["expires_at"],
		LastActivity: data["last_activity"],
		CSRFToken:    data["csrf_token"],
		UserAgent:    data["user_agent"],
		IPAddress:    data["ip_address"],
	}, nil
}

// ValidateSession loads a session and checks that it has not expired.
// With requireCSRF set, csrfToken must equal the session's CSRF token.
func ValidateSession(ctx context.Context, client *redis.Client, sessionToken, csrfToken string, requireCSRF bool) (*models.Session, error) {
	session, err := GetSession(ctx, client, sessionToken)
	if err != nil {
		return nil, err
	}

	expiresAt, err := time.Parse(time.RFC3339, session.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("parsing session expiry: %w", err)
	}
	if !time.Now().Before(expiresAt) {
		return nil, ErrSessionNotFound
	}

	if requireCSRF && (csrfToken == "" || csrfToken != session.CSRFToken) {
		return nil, ErrInvalidCSRF
	}
	return session, nil
}

// DeleteSession removes a single session and its reference in the user index
func DeleteSession(ctx context.Context, client *redis.Client, sessionToken string) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	key := sessionKey(sessionToken)
	userID, err := client.HGet(ctx, key, "user_id").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		return err
	}

	if err := client.SRem(ctx, userSessionsKey(userID), key).Err(); err != nil {
		return err
	}
	return client.Del(ctx, key).Err()
}

// DeleteAllUserSessions removes all sessions associated with a specific user
func DeleteAllUserSessions(ctx context.Context, client *redis.Client, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	sessionKeys, err := client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return err
	}
	if len(sessionKeys) > 0 {
		if err := client.Del(ctx, sessionKeys...).Err(); err != nil {
			return err
		}
	}
	return client.Del(ctx, userSessionsKey(userID)).Err()
}

// UpdateLastActivityRedis updates the last activity timestamp of a session
func UpdateLastActivityRedis(ctx context.Context, client *redis.Client, sessionToken string) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	return client.HSet(ctx, sessionKey(sessionToken), "last_activity", time.Now().Format(time.RFC3339)).Err()
}

// RevokeTokens invalidates every bearer token of userID issued at or before
// at. The marker expires after ttl, by which time those tokens have too.
func RevokeTokens(ctx context.Context, client *redis.Client, userID string, at time.Time, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	return client.Set(ctx, tokenCutoffKey(userID), at.Unix(), ttl).Err()
}

// TokenRevoked reports whether a token of userID issued at issuedAt has been
// revoked by RevokeTokens.
func TokenRevoked(ctx context.Context, client *redis.Client, userID string, issuedAt time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	cutoff, err := client.Get(ctx, tokenCutoffKey(userID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("reading token cutoff: %w", err)
	}
	return !issuedAt.After(time.Unix(cutoff, 0)), nil
}
