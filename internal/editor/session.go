// Package editor runs the chat-driven editing sessions of open projects.
//
// A Session owns the code buffer, the conversation log and the autosave
// debouncer of one project. Submit is the only path through which the
// assistant changes the buffer.
package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/shivavenkatesh/webforge/internal/assistant"
	"github.com/shivavenkatesh/webforge/internal/autosave"
	"github.com/shivavenkatesh/webforge/internal/conversation"
	"github.com/shivavenkatesh/webforge/internal/credits"
	"github.com/shivavenkatesh/webforge/pkg/types"
)

var (
	// ErrEmptyUtterance is returned for blank messages; nothing is recorded
	ErrEmptyUtterance = errors.New("empty message")

	// ErrBusy is returned while another message of the session is in flight
	ErrBusy = errors.New("assistant is busy")

	// ErrInsufficientCredits is returned when the user cannot pay for a turn
	ErrInsufficientCredits = credits.ErrInsufficientCredits

	// ErrClosed is returned by a session after Close
	ErrClosed = errors.New("session closed")
)

// CreditDebiter charges assistant turns and refunds the ones never delivered
type CreditDebiter interface {
	DebitTurn(ctx context.Context, userID, projectID string) (int, error)
	RefundTurn(ctx context.Context, userID, projectID string) (int, error)
}

// CodeSaver persists a project's code
type CodeSaver interface {
	SaveCode(ctx context.Context, projectID, code string) error
}

// Exchange is the outcome of one Submit
type Exchange struct {
	User      types.ConversationTurn  `json:"user"`
	Assistant *types.ConversationTurn `json:"assistant,omitempty"`
	Rule      string                  `json:"rule,omitempty"`
	Applied   bool                    `json:"applied"`
	Code      string                  `json:"code"`
	Remaining int                     `json:"credits_remaining"`
	Discarded bool                    `json:"discarded"` // the session closed before the reply; the turn was refunded
}

// Session is one open editor
type Session struct {
	projectID string
	userID    string

	pipeline *assistant.Pipeline
	credits  CreditDebiter
	saver    CodeSaver
	latency  time.Duration
	log      *conversation.Log
	autosave *autosave.Debouncer
	logger   zerolog.Logger

	inFlight atomic.Bool
	done     chan struct{}

	// saveMu serializes writes to the store
	saveMu sync.Mutex

	mu        sync.Mutex
	code      string
	persisted string
	closed    bool
}

func newSession(project *types.Project, deps sessionDeps) *Session {
	s := &Session{
		projectID: project.ID,
		userID:    project.UserID,
		pipeline:  deps.pipeline,
		credits:   deps.credits,
		saver:     deps.saver,
		latency:   deps.latency,
		log:       conversation.NewLog(),
		logger:    deps.logger.With().Str("project", project.ID).Logger(),
		done:      make(chan struct{}),
		code:      project.Code,
		persisted: project.Code,
	}
	s.autosave = autosave.New(autosave.Config{
		QuietPeriod: deps.quiet,
		SaveTimeout: deps.saveTimeout,
		Clock:       deps.clock,
		Logger:      s.logger,
	}, s.Code, func(ctx context.Context, _ string) error { return s.save(ctx) })
	return s
}

// WelcomeMessage is the first assistant turn of every session
func WelcomeMessage(projectName string) string {
	return fmt.Sprintf("Welcome to %s! I'm your AI assistant. Describe what you want to build, and I'll help you create it.", projectName)
}

// ProjectID returns the project this session edits
func (s *Session) ProjectID() string {
	return s.projectID
}

// UserID returns the owner of the project
func (s *Session) UserID() string {
	return s.userID
}

// Code returns the current buffer
func (s *Session) Code() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}

// Busy reports whether a message is in flight
func (s *Session) Busy() bool {
	return s.inFlight.Load()
}

// Turns returns the conversation so far
func (s *Session) Turns() []types.ConversationTurn {
	return s.log.All()
}

// Snapshot returns the renderable state of the session
func (s *Session) Snapshot() types.EditorSnapshot {
	return types.EditorSnapshot{
		ProjectID: s.projectID,
		Code:      s.Code(),
		Turns:     s.log.All(),
		Busy:      s.Busy(),
		Pending:   s.autosave.Pending(),
	}
}

// Ready reports the error Submit would return right now for a closed or busy
// session, without charging or recording anything
func (s *Session) Ready() error {
	if s.isClosed() {
		return ErrClosed
	}
	if s.Busy() {
		return ErrBusy
	}
	return nil
}

// Submit sends one user message to the assistant. The turn is paid for
// before anything is recorded; the reply is computed against the buffer as
// it stands once the simulated latency has elapsed.
func (s *Session) Submit(ctx context.Context, text string) (*Exchange, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyUtterance
	}
	if s.isClosed() {
		return nil, ErrClosed
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.inFlight.Store(false)

	remaining, err := s.credits.DebitTurn(ctx, s.userID, s.projectID)
	if err != nil {
		if errors.Is(err, credits.ErrInsufficientCredits) {
			return nil, ErrInsufficientCredits
		}
		return nil, fmt.Errorf("failed to charge turn: %w", err)
	}

	userTurn, err := s.log.Append(types.ConversationTurn{Role: types.RoleUser, Content: text})
	if err != nil {
		return nil, err
	}
	ex := &Exchange{User: userTurn, Remaining: remaining}

	if !s.wait() {
		return s.discard(ctx, ex), nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return s.discard(ctx, ex), nil
	}
	res := s.pipeline.Respond(text, s.code)
	changed := res.Code != s.code
	s.code = res.Code
	replyTurn, err := s.log.Append(types.ConversationTurn{Role: types.RoleAssistant, Content: res.Reply})
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if changed {
		s.autosave.Trigger()
	}

	s.logger.Info().
		Str("rule", res.Rule).
		Bool("applied", res.Applied).
		Int("credits", remaining).
		Msg("assistant turn")

	ex.Assistant = &replyTurn
	ex.Rule = res.Rule
	ex.Applied = res.Applied
	ex.Code = res.Code
	return ex, nil
}

// discard marks ex as dropped and refunds its turn. A failed refund is logged;
// the reply is dropped either way.
func (s *Session) discard(ctx context.Context, ex *Exchange) *Exchange {
	ex.Discarded = true
	balance, err := s.credits.RefundTurn(context.WithoutCancel(ctx), s.userID, s.projectID)
	if err != nil {
		s.logger.Error().Err(err).Msg("refund of discarded turn failed")
		return ex
	}
	ex.Remaining = balance
	s.logger.Debug().Int("credits", balance).Msg("session closed before reply, turn refunded")
	return ex
}

// wait sleeps for the simulated latency and reports false if the session
// closed meanwhile
func (s *Session) wait() bool {
	if s.latency <= 0 {
		return !s.isClosed()
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-s.done:
		return false
	}
}

// Edit replaces the buffer with a direct user edit
func (s *Session) Edit(code string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	changed := code != s.code
	s.code = code
	s.mu.Unlock()

	if changed {
		s.autosave.Trigger()
	}
	return nil
}

// Persist writes the buffer now, bypassing the debouncer. It waits for a
// save already in progress, so the buffer it reads is the one stored last.
func (s *Session) Persist(ctx context.Context) error {
	return s.save(ctx)
}

// save writes the current buffer unless it matches the last stored one
func (s *Session) save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	code := s.code
	unchanged := code == s.persisted
	s.mu.Unlock()
	if unchanged {
		return nil
	}

	if err := s.saver.SaveCode(ctx, s.projectID, code); err != nil {
		return err
	}

	s.mu.Lock()
	s.persisted = code
	s.mu.Unlock()
	return nil
}

// Close ends the session. A pending autosave is dropped and an in-flight
// reply is discarded.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	s.mu.Unlock()

	s.autosave.Stop()
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
