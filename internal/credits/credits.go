// Package credits manages user credit balances and the usage ledger.
package credits

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/shivavenkatesh/webforge/internal/store"
	"github.com/shivavenkatesh/webforge/pkg/types"
)

// ErrInsufficientCredits is returned when a debit exceeds the balance
var ErrInsufficientCredits = store.ErrInsufficientCredits

// ErrInvalidAmount is returned for non-positive debit or grant amounts
var ErrInvalidAmount = errors.New("amount must be positive")

const DefaultTurnCost = 1

// Service debits and grants credits
type Service struct {
	users    store.UserStore
	turnCost int
	logger   zerolog.Logger
}

// New creates a credits service. turnCost below 1 uses DefaultTurnCost.
func New(users store.UserStore, turnCost int, logger zerolog.Logger) *Service {
	if turnCost < 1 {
		turnCost = DefaultTurnCost
	}
	return &Service{users: users, turnCost: turnCost, logger: logger}
}

// TurnCost returns the price of one assistant turn
func (s *Service) TurnCost() int {
	return s.turnCost
}

// Balance returns the current balance of a user
func (s *Service) Balance(ctx context.Context, userID string) (int, error) {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return u.Credits, nil
}

// Debit removes amount from a user's balance and records it. The check and
// decrement are atomic; a balance that would go negative is left untouched.
func (s *Service) Debit(ctx context.Context, userID string, amount int, projectID string, kind types.UsageType, description string) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	balance, err := s.users.AdjustCredits(ctx, &types.CreditUsage{
		UserID:      userID,
		ProjectID:   projectID,
		Amount:      -amount,
		Type:        kind,
		Description: description,
	})
	if err != nil {
		return 0, err
	}

	s.logger.Debug().
		Str("user", userID).
		Str("type", string(kind)).
		Int("amount", amount).
		Int("balance", balance).
		Msg("credits debited")
	return balance, nil
}

// Grant adds amount to a user's balance and records it
func (s *Service) Grant(ctx context.Context, userID string, amount int, kind types.UsageType, description string) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	balance, err := s.users.AdjustCredits(ctx, &types.CreditUsage{
		UserID:      userID,
		Amount:      amount,
		Type:        kind,
		Description: description,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to grant credits: %w", err)
	}
	return balance, nil
}

// DebitTurn charges one assistant turn against userID
func (s *Service) DebitTurn(ctx context.Context, userID, projectID string) (int, error) {
	return s.Debit(ctx, userID, s.turnCost, projectID, types.UsageAIGeneration, "AI code generation")
}

// RefundTurn returns the price of a turn whose reply was never delivered.
// The refund is a separate ledger entry so history shows both sides.
func (s *Service) RefundTurn(ctx context.Context, userID, projectID string) (int, error) {
	balance, err := s.users.AdjustCredits(ctx, &types.CreditUsage{
		UserID:      userID,
		ProjectID:   projectID,
		Amount:      s.turnCost,
		Type:        types.UsageAIGeneration,
		Description: "Refund for discarded AI generation",
	})
	if err != nil {
		return 0, fmt.Errorf("failed to refund turn: %w", err)
	}

	s.logger.Debug().Str("user", userID).Str("project", projectID).Int("balance", balance).Msg("turn refunded")
	return balance, nil
}

// History returns the most recent ledger entries
func (s *Service) History(ctx context.Context, userID string, limit int) ([]*types.CreditUsage, error) {
	return s.users.ListCreditUsage(ctx, userID, limit)
}

// Summary returns the balance together with recent history
func (s *Service) Summary(ctx context.Context, userID string, limit int) (*types.CreditsResponse, error) {
	balance, err := s.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	usage, err := s.History(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if usage == nil {
		usage = []*types.CreditUsage{}
	}
	return &types.CreditsResponse{Balance: balance, Usage: usage}, nil
}
