// Package support manages user support tickets.
package support

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/shivavenkatesh/webforge/internal/store"
	"github.com/shivavenkatesh/webforge/pkg/types"
)

var (
	ErrSubjectRequired = errors.New("subject is required")
	ErrMessageRequired = errors.New("message is required")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidStatus   = errors.New("invalid status")

	// ErrForbidden is returned when a user reads another user's ticket
	ErrForbidden = errors.New("forbidden")
)

// Service manages tickets
type Service struct {
	store  store.TicketStore
	logger zerolog.Logger
}

// New creates a support service
func New(ts store.TicketStore, logger zerolog.Logger) *Service {
	return &Service{store: ts, logger: logger}
}

// Create opens a ticket. Priority defaults to medium.
func (s *Service) Create(ctx context.Context, userID string, req types.CreateTicketRequest) (*types.SupportTicket, error) {
	subject := strings.TrimSpace(req.Subject)
	message := strings.TrimSpace(req.Message)
	if subject == "" {
		return nil, ErrSubjectRequired
	}
	if message == "" {
		return nil, ErrMessageRequired
	}

	priority := req.Priority
	if priority == "" {
		priority = types.PriorityMedium
	}
	switch priority {
	case types.PriorityLow, types.PriorityMedium, types.PriorityHigh:
	default:
		return nil, ErrInvalidPriority
	}

	ticket := &types.SupportTicket{
		UserID:   userID,
		Subject:  subject,
		Message:  message,
		Status:   types.TicketOpen,
		Priority: priority,
	}
	if err := s.store.CreateTicket(ctx, ticket); err != nil {
		return nil, err
	}

	s.logger.Info().Str("ticket", ticket.ID).Str("user", userID).Str("priority", string(priority)).Msg("ticket opened")
	return ticket, nil
}

// List returns a user's tickets, newest first
func (s *Service) List(ctx context.Context, userID string) ([]*types.SupportTicket, error) {
	tickets, err := s.store.ListTickets(ctx, userID)
	if err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []*types.SupportTicket{}
	}
	return tickets, nil
}

// Get returns a ticket owned by userID
func (s *Service) Get(ctx context.Context, userID, id string) (*types.SupportTicket, error) {
	ticket, err := s.store.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.UserID != userID {
		return nil, ErrForbidden
	}
	return ticket, nil
}

// UpdateStatus moves a ticket owned by userID to status
func (s *Service) UpdateStatus(ctx context.Context, userID, id string, status types.TicketStatus) (*types.SupportTicket, error) {
	switch status {
	case types.TicketOpen, types.TicketInProgress, types.TicketResolved:
	default:
		return nil, ErrInvalidStatus
	}

	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	if err := s.store.UpdateTicketStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.store.GetTicket(ctx, id)
}
