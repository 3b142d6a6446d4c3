package editor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/shivavenkatesh/webforge/internal/assistant"
	"github.com/shivavenkatesh/webforge/internal/autosave"
	"github.com/shivavenkatesh/webforge/pkg/types"
)

// ErrNoSession is returned when a project has no open editor
var ErrNoSession = errors.New("no open editor session")

// ErrForbidden is returned when a user reaches a session they do not own
var ErrForbidden = errors.New("forbidden")

const DefaultLatency = 1500 * time.Millisecond

// ProjectService loads and saves projects for sessions
type ProjectService interface {
	CodeSaver
	GetOwned(ctx context.Context, userID, projectID string) (*types.Project, error)
}

// Config configures a Manager
type Config struct {
	Latency          time.Duration // simulated think time before each reply
	AutosaveQuiet    time.Duration
	SaveTimeout      time.Duration
	FlushConcurrency int
	Clock            autosave.Clock
}

type sessionDeps struct {
	pipeline    *assistant.Pipeline
	credits     CreditDebiter
	saver       CodeSaver
	latency     time.Duration
	quiet       time.Duration
	saveTimeout time.Duration
	clock       autosave.Clock
	logger      zerolog.Logger
}

// Manager keeps at most one session per project
type Manager struct {
	projects ProjectService
	deps     sessionDeps
	flushN   int
	logger   zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager
func NewManager(projects ProjectService, cd CreditDebiter, pipeline *assistant.Pipeline, cfg Config, logger zerolog.Logger) *Manager {
	if pipeline == nil {
		pipeline = assistant.Default()
	}
	if cfg.Latency < 0 {
		cfg.Latency = 0
	}
	if cfg.FlushConcurrency < 1 {
		cfg.FlushConcurrency = 4
	}

	return &Manager{
		projects: projects,
		deps: sessionDeps{
			pipeline:    pipeline,
			credits:     cd,
			saver:       projects,
			latency:     cfg.Latency,
			quiet:       cfg.AutosaveQuiet,
			saveTimeout: cfg.SaveTimeout,
			clock:       cfg.Clock,
			logger:      logger,
		},
		flushN:   cfg.FlushConcurrency,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Open returns the session of a project, starting one from the stored code
// if none is open. The project must belong to userID.
func (m *Manager) Open(ctx context.Context, userID, projectID string) (*Session, error) {
	if s, err := m.Get(userID, projectID); err == nil {
		return s, nil
	} else if !errors.Is(err, ErrNoSession) {
		return nil, err
	}

	project, err := m.projects.GetOwned(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another request may have opened it while the project loaded
	if s, ok := m.sessions[projectID]; ok {
		return s, nil
	}

	s := newSession(project, m.deps)
	if _, err := s.log.Append(types.ConversationTurn{
		Role:    types.RoleAssistant,
		Content: WelcomeMessage(project.Name),
	}); err != nil {
		return nil, err
	}
	m.sessions[projectID] = s

	m.logger.Info().Str("project", projectID).Str("user", userID).Msg("editor session opened")
	return s, nil
}

// Get returns an open session owned by userID
func (m *Manager) Get(userID, projectID string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[projectID]
	m.mu.Unlock()

	if !ok {
		return nil, ErrNoSession
	}
	if s.userID != userID {
		return nil, ErrForbidden
	}
	return s, nil
}

// Close ends the session of a project. It reports whether one was open.
func (m *Manager) Close(projectID string) bool {
	m.mu.Lock()
	s, ok := m.sessions[projectID]
	delete(m.sessions, projectID)
	m.mu.Unlock()

	if ok {
		s.Close()
		m.logger.Info().Str("project", projectID).Msg("editor session closed")
	}
	return ok
}

// Len returns the number of open sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown closes every session. With flush, each buffer is persisted first;
// the joined save errors are returned.
func (m *Manager) Shutdown(ctx context.Context, flush bool) error {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var err error
	if flush && len(sessions) > 0 {
		p := pool.New().WithMaxGoroutines(m.flushN).WithErrors().WithContext(ctx)
		for _, s := range sessions {
			p.Go(func(ctx context.Context) error {
				return s.Persist(ctx)
			})
		}
		err = p.Wait()
	}

	for _, s := range sessions {
		s.Close()
	}

	m.logger.Info().Int("sessions", len(sessions)).Bool("flush", flush).Msg("editor sessions shut down")
	return err
}
