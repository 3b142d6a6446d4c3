// Package projects manages user projects and their stored code.
package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/shivavenkatesh/webforge/internal/cache"
	"github.com/shivavenkatesh/webforge/internal/store"
	"github.com/shivavenkatesh/webforge/pkg/types"
)

var (
	// ErrForbidden is returned when a user touches a project they do not own
	ErrForbidden = errors.New("forbidden")

	// ErrNameRequired is returned when the project name is blank
	ErrNameRequired = errors.New("project name is required")

	// ErrUnsupportedType is returned for unknown or unavailable project types
	ErrUnsupportedType = errors.New("unsupported project type")

	// ErrUnknownTemplate is returned for templates outside the catalogue
	ErrUnknownTemplate = errors.New("unknown template")

	// ErrInvalidVisibility is returned for visibility values other than public or private
	ErrInvalidVisibility = errors.New("invalid visibility")
)

// DefaultCacheSize bounds the number of cached projects
const DefaultCacheSize = 256

// ReferralCompleter is notified when a user creates their first project
type ReferralCompleter interface {
	CompleteReferral(ctx context.Context, refereeID string) (bool, error)
}

// Service manages projects. Reads are served from a read-through cache that
// every successful write invalidates.
type Service struct {
	store     store.ProjectStore
	cache     *cache.ReadThrough[string, *types.Project]
	referrals ReferralCompleter
	logger    zerolog.Logger
}

// New creates a projects service. referrals may be nil.
func New(ps store.ProjectStore, cacheSize int, referrals ReferralCompleter, logger zerolog.Logger) *Service {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	s := &Service{
		store:     ps,
		referrals: referrals,
		logger:    logger,
	}
	s.cache = cache.NewReadThrough[string, *types.Project](cacheSize, ps.GetProject)
	return s
}

// Create validates req and stores a new project with starter code
func (s *Service) Create(ctx context.Context, userID string, req types.CreateProjectRequest) (*types.Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	info, ok := lookupType(req.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, req.Type)
	}
	if info.ComingSoon {
		return nil, fmt.Errorf("%w: %s is coming soon", ErrUnsupportedType, info.Name)
	}

	template := req.Template
	if template == "" {
		template = DefaultTemplate
	}
	if !knownTemplate(template) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, template)
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = types.VisibilityPrivate
	}
	if !validVisibility(visibility) {
		return nil, ErrInvalidVisibility
	}

	existing, err := s.store.CountProjects(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := &types.Project{
		UserID:     userID,
		Name:       name,
		Type:       req.Type,
		Code:       StarterCode(name),
		Visibility: visibility,
	}
	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("project", p.ID).
		Str("user", userID).
		Str("type", string(p.Type)).
		Str("template", template).
		Msg("project created")

	if existing == 0 && s.referrals != nil {
		if _, err := s.referrals.CompleteReferral(ctx, userID); err != nil {
			s.logger.Warn().Err(err).Str("user", userID).Msg("failed to complete referral")
		}
	}
	return p, nil
}

// Get returns a project by ID through the cache
func (s *Service) Get(ctx context.Context, id string) (*types.Project, error) {
	p, err := s.cache.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cp := *p
	return &cp, nil
}

// GetOwned returns a project only when userID owns it
func (s *Service) GetOwned(ctx context.Context, userID, id string) (*types.Project, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, ErrForbidden
	}
	return p, nil
}

// List returns a user's projects, most recently updated first
func (s *Service) List(ctx context.Context, userID string) ([]*types.Project, error) {
	projects, err := s.store.ListProjects(ctx, userID)
	if err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []*types.Project{}
	}
	return projects, nil
}

// Update applies the non-nil fields of req to a project owned by userID
func (s *Service) Update(ctx context.Context, userID, id string, req types.UpdateProjectRequest) (*types.Project, error) {
	p, err := s.GetOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		p.Name = name
	}
	if req.Visibility != nil {
		if !validVisibility(*req.Visibility) {
			return nil, ErrInvalidVisibility
		}
		p.Visibility = *req.Visibility
	}

	if err := s.store.UpdateProject(ctx, p); err != nil {
		return nil, err
	}
	s.cache.Invalidate(id)
	return p, nil
}

// SaveCode replaces the stored code of a project
func (s *Service) SaveCode(ctx context.Context, id, code string) error {
	if err := s.store.UpdateProjectCode(ctx, id, code); err != nil {
		return fmt.Errorf("failed to save project %s: %w", id, err)
	}
	s.cache.Invalidate(id)
	return nil
}

// Delete removes a project owned by userID
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.GetOwned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(id)
	return nil
}

// CacheHitRate reports the project cache hit rate as a percentage
func (s *Service) CacheHitRate() float64 {
	return s.cache.HitRate()
}

// CacheStats reports occupancy, evictions and invalidations of the project cache
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

func validVisibility(v types.Visibility) bool {
	return v == types.VisibilityPublic || v == types.VisibilityPrivate
}
