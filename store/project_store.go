package store

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/valstore/valstore/errors"
	"github.com/valstore/valstore/model"
)

const (
	projectInsertQuery = `
		INSERT INTO projects (id, title, description)
		VALUES (?, ?, ?)`

	projectUpdateQuery = `
		UPDATE projects SET title = ?, description = ? WHERE id = ?`

	projectSelectQuery = `
		SELECT id, title, description FROM projects WHERE id = ?`

	projectListQuery = `
		SELECT id, title, description FROM projects ORDER BY id`

	projectDeleteQuery = `
		DELETE FROM projects WHERE id = ?`
)

// ProjectStore persists Project entities.
type ProjectStore struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// Save inserts a new project. The ID is user-supplied; a duplicate ID
// fails with the already-exists kind.
func (s *ProjectStore) Save(ctx context.Context, p *model.Project) error {
	_, err := s.db.ExecContext(ctx, projectInsertQuery, p.ID, p.Title, p.Description)
	if err != nil {
		return errors.Wrapf(mapSQLiteErr(err), "failed to save project %s", p.ID)
	}
	return nil
}

// Update rewrites the mutable fields of an existing project.
func (s *ProjectStore) Update(ctx context.Context, p *model.Project) error {
	res, err := s.db.ExecContext(ctx, projectUpdateQuery, p.Title, p.Description, p.ID)
	if err != nil {
		return errors.Wrapf(err, "failed to update project %s", p.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("project %s was not found", p.ID)
	}
	return nil
}

// Get fetches a project by ID.
func (s *ProjectStore) Get(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	var title, description sql.NullString

	err := s.db.QueryRowContext(ctx, projectSelectQuery, id).Scan(&p.ID, &title, &description)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("project %s was not found", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get project %s", id)
	}

	p.Title = title.String
	p.Description = description.String
	return &p, nil
}

// List returns all projects.
func (s *ProjectStore) List(ctx context.Context) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx, projectListQuery)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list projects")
	}
	defer rows.Close()

	var out []model.Project
	for rows.Next() {
		var p model.Project
		var title, description sql.NullString
		if err := rows.Scan(&p.ID, &title, &description); err != nil {
			return nil, errors.Wrap(err, "failed to scan project row")
		}
		p.Title = title.String
		p.Description = description.String
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteByID removes a project record. Dependent documents are the
// catalog service's responsibility (children first).
func (s *ProjectStore) DeleteByID(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, projectDeleteQuery, id)
	if err != nil {
		return errors.Wrapf(err, "failed to delete project %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("project %s was not found", id)
	}
	return nil
}
