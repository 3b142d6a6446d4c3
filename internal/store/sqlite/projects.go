package sqlite

import (
	"context"
	"fmt"

	"github.com/shivavenkatesh/webforge/pkg/types"
)

const projectColumns = `id, user_id, name, type, code, visibility, created_at, updated_at`

// CreateProject inserts a new project
func (s *Store) CreateProject(ctx context.Context, project *types.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if project.ID == "" {
		project.ID = newID()
	}
	now := s.now()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now
	if project.Visibility == "" {
		project.Visibility = types.VisibilityPrivate
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		project.ID,
		project.UserID,
		project.Name,
		string(project.Type),
		project.Code,
		string(project.Visibility),
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

// GetProject retrieves a project by ID
func (s *Store) GetProject(ctx context.Context, id string) (*types.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if err != nil {
		return nil, notFound(err, "project", id)
	}
	return p, nil
}

// ListProjects returns a user's projects, most recently updated first
func (s *Store) ListProjects(ctx context.Context, userID string) ([]*types.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE user_id = ?
		ORDER BY updated_at DESC, rowid DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*types.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// CountProjects returns how many projects a user owns
func (s *Store) CountProjects(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects WHERE user_id = ?", userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return count, nil
}

// UpdateProject writes name and visibility
func (s *Store) UpdateProject(ctx context.Context, project *types.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	project.UpdatedAt = s.now()
	result, err := s.db.ExecContext(ctx, `
		UPDATE projects SET name = ?, visibility = ?, updated_at = ?
		WHERE id = ?
	`, project.Name, string(project.Visibility), project.UpdatedAt, project.ID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	return requireRow(result, "project", project.ID)
}

// UpdateProjectCode replaces the stored code of a project
func (s *Store) UpdateProjectCode(ctx context.Context, id, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `
		UPDATE projects SET code = ?, updated_at = ? WHERE id = ?
	`, code, s.now(), id)
	if err != nil {
		return fmt.Errorf("failed to update project code: %w", err)
	}
	return requireRow(result, "project", id)
}

// DeleteProject removes a project by ID
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return requireRow(result, "project", id)
}

func scanProject(row scanner) (*types.Project, error) {
	var p types.Project
	var projectType, visibility string

	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&projectType,
		&p.Code,
		&visibility,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Type = types.ProjectType(projectType)
	p.Visibility = types.Visibility(visibility)
	return &p, nil
}
