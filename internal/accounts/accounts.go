// Package accounts handles sign-up, profiles and referrals.
package accounts

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"

	"github.com/shivavenkatesh/webforge/internal/credits"
	"github.com/shivavenkatesh/webforge/internal/store"
	"github.com/shivavenkatesh/webforge/pkg/types"
)

var (
	// ErrUserExists is returned when the email is already registered
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidEmail is returned for malformed email addresses
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrNameRequired is returned when the display name is blank
	ErrNameRequired = errors.New("name is required")
)

const (
	referralCodeLength   = 8
	referralCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxCodeAttempts      = 5
)

// Rewards holds the credit amounts granted around sign-up
type Rewards struct {
	SignUp       int // every new account
	Referrer     int // owner of the referral code
	Referee      int // new account that used a code
	PerCompleted int // reported by ReferralStats per completed referral
}

// DefaultRewards returns the standard credit grants
func DefaultRewards() Rewards {
	return Rewards{
		SignUp:       100,
		Referrer:     100,
		Referee:      200,
		PerCompleted: 100,
	}
}

// Service manages accounts
type Service struct {
	users     store.UserStore
	referrals store.ReferralStore
	credits   *credits.Service
	rewards   Rewards
	logger    zerolog.Logger
}

// New creates an accounts service
func New(users store.UserStore, referrals store.ReferralStore, cs *credits.Service, rewards Rewards, logger zerolog.Logger) *Service {
	return &Service{
		users:     users,
		referrals: referrals,
		credits:   cs,
		rewards:   rewards,
		logger:    logger,
	}
}

// SignUp creates an account, grants the sign-up credits and applies a
// referral code when it belongs to an existing user. Unknown codes are ignored.
func (s *Service) SignUp(ctx context.Context, req types.SignUpRequest) (*types.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)

	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, ErrInvalidEmail
	}
	if name == "" {
		return nil, ErrNameRequired
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	var referrer *types.User
	if code := strings.ToUpper(strings.TrimSpace(req.ReferralCode)); code != "" {
		u, err := s.users.GetUserByReferralCode(ctx, code)
		switch {
		case err == nil:
			referrer = u
		case errors.Is(err, store.ErrNotFound):
			s.logger.Debug().Str("code", code).Msg("ignoring unknown referral code")
		default:
			return nil, fmt.Errorf("failed to look up referral code: %w", err)
		}
	}

	user, err := s.createWithCode(ctx, email, name, referrer)
	if err != nil {
		return nil, err
	}

	if s.rewards.SignUp > 0 {
		if user.Credits, err = s.credits.Grant(ctx, user.ID, s.rewards.SignUp, types.UsageSignupBonus, "Welcome credits"); err != nil {
			return nil, err
		}
	}

	if referrer != nil {
		if err := s.applyReferral(ctx, referrer, user); err != nil {
			return nil, err
		}
	}

	s.logger.Info().Str("user", user.ID).Bool("referred", referrer != nil).Msg("account created")
	return user, nil
}

func (s *Service) createWithCode(ctx context.Context, email, name string, referrer *types.User) (*types.User, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := NewReferralCode()
		if err != nil {
			return nil, err
		}

		user := &types.User{
			Email:        email,
			Name:         name,
			Plan:         types.PlanFree,
			ReferralCode: code,
		}
		if referrer != nil {
			user.ReferredBy = referrer.ID
		}

		err = s.users.CreateUser(ctx, user)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		// Either the email raced with another sign-up or the code collided
		if _, lookupErr := s.users.GetUserByEmail(ctx, email); lookupErr == nil {
			return nil, ErrUserExists
		}
	}
	return nil, fmt.Errorf("failed to allocate a unique referral code after %d attempts", maxCodeAttempts)
}

func (s *Service) applyReferral(ctx context.Context, referrer, referee *types.User) error {
	if err := s.referrals.CreateReferral(ctx, &types.Referral{
		ReferrerID: referrer.ID,
		RefereeID:  referee.ID,
		Status:     types.ReferralPending,
	}); err != nil {
		return fmt.Errorf("failed to record referral: %w", err)
	}

	if s.rewards.Referrer > 0 {
		if _, err := s.credits.Grant(ctx, referrer.ID, s.rewards.Referrer, types.UsageReferralBonus,
			fmt.Sprintf("Referral bonus for inviting %s", referee.Name)); err != nil {
			return err
		}
	}
	if s.rewards.Referee > 0 {
		balance, err := s.credits.Grant(ctx, referee.ID, s.rewards.Referee, types.UsageReferralBonus, "Referral sign-up bonus")
		if err != nil {
			return err
		}
		referee.Credits = balance
	}
	return nil
}

// Get returns a user by ID
func (s *Service) Get(ctx context.Context, userID string) (*types.User, error) {
	return s.users.GetUser(ctx, userID)
}

// UpdateProfile applies the non-nil fields of req
func (s *Service) UpdateProfile(ctx context.Context, userID string, req types.UpdateProfileRequest) (*types.User, error) {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		u.Name = name
	}
	if req.Avatar != nil {
		u.Avatar = strings.TrimSpace(*req.Avatar)
	}

	if err := s.users.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Referrals lists the referrals made by userID, newest first
func (s *Service) Referrals(ctx context.Context, userID string) ([]*types.Referral, error) {
	refs, err := s.referrals.ListReferrals(ctx, userID)
	if err != nil {
		return nil, err
	}
	if refs == nil {
		refs = []*types.Referral{}
	}
	return refs, nil
}

// ReferralStats summarizes the referrals made by userID
func (s *Service) ReferralStats(ctx context.Context, userID string) (*types.ReferralStats, error) {
	refs, err := s.referrals.ListReferrals(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &types.ReferralStats{TotalReferrals: len(refs)}
	for _, r := range refs {
		if r.Status == types.ReferralCompleted {
			stats.SuccessfulReferrals++
		}
	}
	stats.TotalRewards = stats.SuccessfulReferrals * s.rewards.PerCompleted
	return stats, nil
}

// CompleteReferral marks the pending referral of refereeID as completed. It
// returns false when the user was not referred or it is already completed.
func (s *Service) CompleteReferral(ctx context.Context, refereeID string) (bool, error) {
	ref, err := s.referrals.GetReferralByReferee(ctx, refereeID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if ref.Status == types.ReferralCompleted {
		return false, nil
	}

	if err := s.referrals.UpdateReferralStatus(ctx, ref.ID, types.ReferralCompleted); err != nil {
		return false, err
	}
	s.logger.Info().Str("referrer", ref.ReferrerID).Str("referee", refereeID).Msg("referral completed")
	return true, nil
}

// ReferralLink builds the sign-up URL that carries a user's code
func ReferralLink(siteURL string, user *types.User) string {
	return strings.TrimRight(siteURL, "/") + "/auth/signup?ref=" + user.ReferralCode
}

// NewReferralCode returns a random upper-case alphanumeric code
func NewReferralCode() (string, error) {
	buf := make([]byte, referralCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate referral code: %w", err)
	}
	for i, b := range buf {
		buf[i] = referralCodeAlphabet[int(b)%len(referralCodeAlphabet)]
	}
	return string(buf), nil
}
