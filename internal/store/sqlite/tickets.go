package sqlite

import (
	"context"
	"fmt"

	"github.com/shivavenkatesh/webforge/pkg/types"
)

const ticketColumns = `id, user_id, subject, message, status, priority, created_at, updated_at`

// CreateTicket inserts a new support ticket
func (s *Store) CreateTicket(ctx context.Context, ticket *types.SupportTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket.ID == "" {
		ticket.ID = newID()
	}
	now := s.now()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = now
	}
	ticket.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO support_tickets (`+ticketColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ticket.ID,
		ticket.UserID,
		ticket.Subject,
		ticket.Message,
		string(ticket.Status),
		string(ticket.Priority),
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ticket: %w", err)
	}
	return nil
}

// GetTicket retrieves a ticket by ID
func (s *Store) GetTicket(ctx context.Context, id string) (*types.SupportTicket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM support_tickets WHERE id = ?`, id)
	t, err := scanTicket(row)
	if err != nil {
		return nil, notFound(err, "ticket", id)
	}
	return t, nil
}

// ListTickets returns a user's tickets, newest first
func (s *Store) ListTickets(ctx context.Context, userID string) ([]*types.SupportTicket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+ticketColumns+`
		FROM support_tickets
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*types.SupportTicket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// UpdateTicketStatus sets the status of a ticket
func (s *Store) UpdateTicketStatus(ctx context.Context, id string, status types.TicketStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `
		UPDATE support_tickets SET status = ?, updated_at = ? WHERE id = ?
	`, string(status), s.now(), id)
	if err != nil {
		return fmt.Errorf("failed to update ticket: %w", err)
	}
	return requireRow(result, "ticket", id)
}

func scanTicket(row scanner) (*types.SupportTicket, error) {
	var t types.SupportTicket
	var status, priority string

	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Subject,
		&t.Message,
		&status,
		&priority,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Status = types.TicketStatus(status)
	t.Priority = types.TicketPriority(priority)
	return &t, nil
}
