package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist tracks revoked refresh tokens by their jti
type TokenBlacklist interface {
	Blacklist(ctx context.Context, jti string, userID int64, expiresAt time.Time) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

type tokenBlacklist struct {
	db DBTX
}

// NewTokenBlacklist creates a Postgres-backed TokenBlacklist
func NewTokenBlacklist(db DBTX) TokenBlacklist {
	return &tokenBlacklist{db: db}
}

// Blacklist records jti as revoked. Revoking twice is a no-op.
func (r *tokenBlacklist) Blacklist(ctx context.Context, jti string, userID int64, expiresAt time.Time) error {
	sql := `INSERT INTO token_blacklist (jti, user_id, expires_at) VALUES ($1, $2, $3)
            ON CONFLICT (jti) DO NOTHING`
	if _, err := r.db.Exec(ctx, sql, jti, userID, expiresAt); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

func (r *tokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	var exists bool
	sql := `SELECT EXISTS (SELECT 1 FROM token_blacklist WHERE jti = $1)`
	if err := r.db.QueryRow(ctx, sql, jti).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return exists, nil
}

// ResetTokenLedger remembers consumed password reset tokens. Consume returns
// true only for the first caller presenting a given token id. Release undoes
// a Consume whose password change did not go through.
type ResetTokenLedger interface {
	Consume(ctx context.Context, tokenID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, tokenID string) error
}

type pgResetLedger struct {
	db DBTX
}

// NewPostgresResetLedger keeps consumed reset tokens in password_reset_uses.
func NewPostgresResetLedger(db DBTX) ResetTokenLedger {
	return &pgResetLedger{db: db}
}

func (l *pgResetLedger) Consume(ctx context.Context, tokenID string, _ time.Duration) (bool, error) {
	sql := `INSERT INTO password_reset_uses (token_id) VALUES ($1) ON CONFLICT (token_id) DO NOTHING`
	cmdTag, err := l.db.Exec(ctx, sql, tokenID)
	if err != nil {
		return false, fmt.Errorf("failed to record reset token use: %w", err)
	}
	return cmdTag.RowsAffected() == 1, nil
}

func (l *pgResetLedger) Release(ctx context.Context, tokenID string) error {
	if _, err := l.db.Exec(ctx, `DELETE FROM password_reset_uses WHERE token_id = $1`, tokenID); err != nil {
		return fmt.Errorf("failed to release reset token: %w", err)
	}
	return nil
}

const resetKeyPrefix = "lms:reset-used:"

type redisResetLedger struct {
	rdb *redis.Client
}

// NewRedisResetLedger keeps consumed reset tokens in Redis; keys expire with the token.
func NewRedisResetLedger(rdb *redis.Client) ResetTokenLedger {
	return &redisResetLedger{rdb: rdb}
}

func (l *redisResetLedger) Consume(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, resetKeyPrefix+tokenID, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record reset token use: %w", err)
	}
	return ok, nil
}

func (l *redisResetLedger) Release(ctx context.Context, tokenID string) error {
	if err := l.rdb.Del(ctx, resetKeyPrefix+tokenID).Err(); err != nil {
		return fmt.Errorf("failed to release reset token: %w", err)
	}
	return nil
}
