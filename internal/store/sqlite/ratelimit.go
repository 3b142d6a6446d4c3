package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shivavenkatesh/webforge/pkg/types"
)

// HitWindow counts one request for ip inside a fixed window
func (s *Store) HitWindow(ctx context.Context, ip string, window time.Duration, now time.Time) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nowMs := now.UnixMilli()
	nextReset := now.Add(window).UnixMilli()

	var count int
	var resetMs int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO rate_limits (ip, count, reset_at) VALUES (?, 1, ?)
		ON CONFLICT(ip) DO UPDATE SET
			count = CASE WHEN rate_limits.reset_at <= ? THEN 1 ELSE rate_limits.count + 1 END,
			reset_at = CASE WHEN rate_limits.reset_at <= ? THEN excluded.reset_at ELSE rate_limits.reset_at END
		RETURNING count, reset_at
	`, ip, nextReset, nowMs, nowMs).Scan(&count, &resetMs)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to count request: %w", err)
	}

	return count, time.UnixMilli(resetMs).UTC(), nil
}

// IsBlocked reports whether ip has an unexpired block at now
func (s *Store) IsBlocked(ctx context.Context, ip string, now time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM ip_blocks
		WHERE ip = ? AND (expires_at IS NULL OR expires_at > ?)
	`, ip, now.UnixMilli()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check ip block: %w", err)
	}
	return n > 0, nil
}

// BlockIP records a block
func (s *Store) BlockIP(ctx context.Context, block *types.IPBlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if block.ID == "" {
		block.ID = newID()
	}
	if block.BlockedAt.IsZero() {
		block.BlockedAt = s.now()
	}

	var expires sql.NullInt64
	if block.ExpiresAt != nil {
		expires = sql.NullInt64{Int64: block.ExpiresAt.UnixMilli(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ip_blocks (id, ip, user_id, reason, blocked_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, block.ID, block.IP, nullString(block.UserID), block.Reason, block.BlockedAt, expires)
	if err != nil {
		return fmt.Errorf("failed to insert ip block: %w", err)
	}
	return nil
}
