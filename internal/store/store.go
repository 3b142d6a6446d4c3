// Package store defines the persistence interfaces for webforge
package store

import (
	"context"
	"errors"
	"time"

	"github.com/shivavenkatesh/webforge/pkg/types"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a unique field is already taken
	ErrConflict = errors.New("already exists")

	// ErrInsufficientCredits is returned when a debit would take a balance below zero
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// UserStore persists users and their credit ledger
type UserStore interface {
	// CreateUser inserts a new user; duplicate email or referral code yields ErrConflict
	CreateUser(ctx context.Context, user *types.User) error

	// GetUser retrieves a user by ID
	GetUser(ctx context.Context, id string) (*types.User, error)

	// GetUserByEmail retrieves a user by email address
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)

	// GetUserByReferralCode retrieves the owner of a referral code
	GetUserByReferralCode(ctx context.Context, code string) (*types.User, error)

	// UpdateUser writes the profile fields of an existing user
	UpdateUser(ctx context.Context, user *types.User) error

	// AdjustCredits applies usage.Amount to the balance and records the usage row in
	// one transaction. A debit that would leave the balance below zero is rejected
	// with ErrInsufficientCredits. Returns the new balance.
	AdjustCredits(ctx context.Context, usage *types.CreditUsage) (int, error)

	// ListCreditUsage returns ledger entries, newest first
	ListCreditUsage(ctx context.Context, userID string, limit int) ([]*types.CreditUsage, error)
}

// ProjectStore persists projects
type ProjectStore interface {
	CreateProject(ctx context.Context, project *types.Project) error
	GetProject(ctx context.Context, id string) (*types.Project, error)

	// ListProjects returns a user's projects, most recently updated first
	ListProjects(ctx context.Context, userID string) ([]*types.Project, error)

	// CountProjects returns how many projects a user owns
	CountProjects(ctx context.Context, userID string) (int, error)

	// UpdateProject writes name and visibility
	UpdateProject(ctx context.Context, project *types.Project) error

	// UpdateProjectCode replaces the stored code of a project
	UpdateProjectCode(ctx context.Context, id, code string) error

	DeleteProject(ctx context.Context, id string) error
}

// ReferralStore persists referrals
type ReferralStore interface {
	CreateReferral(ctx context.Context, referral *types.Referral) error

	// ListReferrals returns the referrals made by a user, newest first
	ListReferrals(ctx context.Context, referrerID string) ([]*types.Referral, error)

	// GetReferralByReferee returns the referral that brought a user in
	GetReferralByReferee(ctx context.Context, refereeID string) (*types.Referral, error)

	UpdateReferralStatus(ctx context.Context, id string, status types.ReferralStatus) error
}

// TicketStore persists support tickets
type TicketStore interface {
	CreateTicket(ctx context.Context, ticket *types.SupportTicket) error
	GetTicket(ctx context.Context, id string) (*types.SupportTicket, error)

	// ListTickets returns a user's tickets, newest first
	ListTickets(ctx context.Context, userID string) ([]*types.SupportTicket, error)

	UpdateTicketStatus(ctx context.Context, id string, status types.TicketStatus) error
}

// RateLimitStore persists fixed-window counters and IP blocks
type RateLimitStore interface {
	// HitWindow counts one request for ip. When the stored window has ended at now
	// the counter restarts at 1 with a new window of the given length. The read,
	// compare and write happen in a single statement.
	HitWindow(ctx context.Context, ip string, window time.Duration, now time.Time) (count int, resetAt time.Time, err error)

	// IsBlocked reports whether ip has an unexpired block at now
	IsBlocked(ctx context.Context, ip string, now time.Time) (bool, error)

	// BlockIP records a block
	BlockIP(ctx context.Context, block *types.IPBlock) error
}

// Store is the full persistence surface
type Store interface {
	UserStore
	ProjectStore
	ReferralStore
	TicketStore
	RateLimitStore

	// Close releases resources
	Close() error
}
