package sqlite

import (
	"context"
	"fmt"

	"github.com/shivavenkatesh/webforge/internal/store"
	"github.com/shivavenkatesh/webforge/pkg/types"
)

// CreateReferral records that referee signed up with referrer's code
func (s *Store) CreateReferral(ctx context.Context, referral *types.Referral) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if referral.ID == "" {
		referral.ID = newID()
	}
	if referral.Status == "" {
		referral.Status = types.ReferralPending
	}
	if referral.CreatedAt.IsZero() {
		referral.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO referrals (id, referrer_id, referee_id, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, referral.ID, referral.ReferrerID, referral.RefereeID, string(referral.Status), referral.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("referral for %s: %w", referral.RefereeID, store.ErrConflict)
		}
		return fmt.Errorf("failed to insert referral: %w", err)
	}
	return nil
}

// ListReferrals returns the referrals made by a user, newest first
func (s *Store) ListReferrals(ctx context.Context, referrerID string) ([]*types.Referral, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, referrer_id, referee_id, status, created_at
		FROM referrals
		WHERE referrer_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, referrerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	defer rows.Close()

	var referrals []*types.Referral
	for rows.Next() {
		r, err := scanReferral(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan referral: %w", err)
		}
		referrals = append(referrals, r)
	}
	return referrals, rows.Err()
}

// GetReferralByReferee returns the referral that brought a user in
func (s *Store) GetReferralByReferee(ctx context.Context, refereeID string) (*types.Referral, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, referrer_id, referee_id, status, created_at
		FROM referrals WHERE referee_id = ?
	`, refereeID)
	r, err := scanReferral(row)
	if err != nil {
		return nil, notFound(err, "referral for", refereeID)
	}
	return r, nil
}

// UpdateReferralStatus sets the status of a referral
func (s *Store) UpdateReferralStatus(ctx context.Context, id string, status types.ReferralStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `UPDATE referrals SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update referral: %w", err)
	}
	return requireRow(result, "referral", id)
}

func scanReferral(row scanner) (*types.Referral, error) {
	var r types.Referral
	var status string
	if err := row.Scan(&r.ID, &r.ReferrerID, &r.RefereeID, &status, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Status = types.ReferralStatus(status)
	return &r, nil
}
