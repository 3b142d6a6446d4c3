package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shivavenkatesh/webforge/internal/store"
	"github.com/shivavenkatesh/webforge/pkg/types"
)

const userColumns = `id, email, name, avatar, credits, plan, api_key_enabled, referral_code, referred_by, created_at, updated_at`

// CreateUser inserts a new user
func (s *Store) CreateUser(ctx context.Context, user *types.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == "" {
		user.ID = newID()
	}
	now := s.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if user.Plan == "" {
		user.Plan = types.PlanFree
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		user.ID,
		user.Email,
		user.Name,
		nullString(user.Avatar),
		user.Credits,
		string(user.Plan),
		user.APIKeyEnabled,
		user.ReferralCode,
		nullString(user.ReferredBy),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", user.Email, store.ErrConflict)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID
func (s *Store) GetUser(ctx context.Context, id string) (*types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return u, nil
}

// GetUserByEmail retrieves a user by email address
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, "user", email)
	}
	return u, nil
}

// GetUserByReferralCode retrieves the owner of a referral code
func (s *Store) GetUserByReferralCode(ctx context.Context, code string) (*types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE referral_code = ?`, code)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, "referral code", code)
	}
	return u, nil
}

// UpdateUser writes the profile fields of an existing user. Credits are only
// changed through AdjustCredits.
func (s *Store) UpdateUser(ctx context.Context, user *types.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.UpdatedAt = s.now()
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET name = ?, avatar = ?, plan = ?, api_key_enabled = ?, updated_at = ?
		WHERE id = ?
	`,
		user.Name,
		nullString(user.Avatar),
		string(user.Plan),
		user.APIKeyEnabled,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return requireRow(result, "user", user.ID)
}

// AdjustCredits applies usage.Amount to the user's balance and records the entry
func (s *Store) AdjustCredits(ctx context.Context, usage *types.CreditUsage) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	result, err := tx.ExecContext(ctx, `
		UPDATE users SET credits = credits + ?, updated_at = ?
		WHERE id = ? AND credits + ? >= 0
	`, usage.Amount, now, usage.UserID, usage.Amount)
	if err != nil {
		return 0, fmt.Errorf("failed to adjust credits: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, usage.UserID).Scan(&exists)
		if err != nil {
			return 0, notFound(err, "user", usage.UserID)
		}
		return 0, fmt.Errorf("debit of %d for user %s: %w", -usage.Amount, usage.UserID, store.ErrInsufficientCredits)
	}

	var balance int
	if err := tx.QueryRowContext(ctx, `SELECT credits FROM users WHERE id = ?`, usage.UserID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}

	if usage.ID == "" {
		usage.ID = newID()
	}
	if usage.Type == "" {
		usage.Type = types.UsageOther
	}
	usage.CreatedAt = now
	_, err = tx.ExecContext(ctx, `
		INSERT INTO credit_usage (id, user_id, project_id, amount, type, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		usage.ID,
		usage.UserID,
		nullString(usage.ProjectID),
		usage.Amount,
		string(usage.Type),
		usage.Description,
		usage.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record credit usage: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit credit adjustment: %w", err)
	}
	return balance, nil
}

// ListCreditUsage returns ledger entries for a user, newest first
func (s *Store) ListCreditUsage(ctx context.Context, userID string, limit int) ([]*types.CreditUsage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, project_id, amount, type, description, created_at
		FROM credit_usage
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list credit usage: %w", err)
	}
	defer rows.Close()

	var usage []*types.CreditUsage
	for rows.Next() {
		var u types.CreditUsage
		var projectID sql.NullString
		var usageType string
		if err := rows.Scan(&u.ID, &u.UserID, &projectID, &u.Amount, &usageType, &u.Description, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan credit usage: %w", err)
		}
		u.ProjectID = projectID.String
		u.Type = types.UsageType(usageType)
		usage = append(usage, &u)
	}
	return usage, rows.Err()
}

func scanUser(row scanner) (*types.User, error) {
	var u types.User
	var avatar, referredBy sql.NullString
	var plan string

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&avatar,
		&u.Credits,
		&plan,
		&u.APIKeyEnabled,
		&u.ReferralCode,
		&referredBy,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.Avatar = avatar.String
	u.ReferredBy = referredBy.String
	u.Plan = types.Plan(plan)
	return &u, nil
}
