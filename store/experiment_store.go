package store

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/valstore/valstore/errors"
	"github.com/valstore/valstore/model"
)

const (
	experimentColumns = "id, project_id, name, title, description, tags, run_config_id"

	experimentInsertQuery = `
		INSERT INTO experiments (` + experimentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	// Insert-or-ignore backs the create-if-missing path: concurrent
	// callers race on the (project_id, name) unique index and the
	// loser's insert is silently dropped.
	experimentInsertIfAbsentQuery = `
		INSERT OR IGNORE INTO experiments (` + experimentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	experimentUpdateQuery = `
		UPDATE experiments SET title = ?, description = ?, tags = ?, run_config_id = ?
		WHERE id = ?`

	experimentSelectQuery = `
		SELECT ` + experimentColumns + ` FROM experiments WHERE id = ?`

	experimentSelectByNameQuery = `
		SELECT ` + experimentColumns + ` FROM experiments
		WHERE project_id = ? AND name = ?`

	experimentListByProjectQuery = `
		SELECT ` + experimentColumns + ` FROM experiments
		WHERE project_id = ? ORDER BY name`

	experimentDeleteQuery = `
		DELETE FROM experiments WHERE id = ?`
)

// ExperimentStore persists Experiment entities.
type ExperimentStore struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

func (s *ExperimentStore) insertArgs(e *model.Experiment) ([]interface{}, error) {
	tags, err := marshalJSON(e.Tags)
	if err != nil {
		return nil, err
	}
	return []interface{}{e.ID, e.ProjectID, e.Name, e.Title, e.Description, tags, e.RunConfigID}, nil
}

// Save inserts a new experiment. A duplicate ID or (projectId, name)
// fails with the already-exists kind.
func (s *ExperimentStore) Save(ctx context.Context, e *model.Experiment) error {
	args, err := s.insertArgs(e)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, experimentInsertQuery, args...); err != nil {
		return errors.Wrapf(mapSQLiteErr(err), "failed to save experiment %s/%s", e.ProjectID, e.Name)
	}
	return nil
}

// SaveIfAbsent atomically inserts the experiment unless one with the same
// (projectId, name) already exists. Returns true when the insert landed.
func (s *ExperimentStore) SaveIfAbsent(ctx context.Context, e *model.Experiment) (bool, error) {
	args, err := s.insertArgs(e)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, experimentInsertIfAbsentQuery, args...)
	if err != nil {
		return false, errors.Wrapf(err, "failed conditional insert of experiment %s/%s", e.ProjectID, e.Name)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to read conditional insert result")
	}
	return n > 0, nil
}

// Update rewrites the mutable fields of an existing experiment.
func (s *ExperimentStore) Update(ctx context.Context, e *model.Experiment) error {
	tags, err := marshalJSON(e.Tags)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, experimentUpdateQuery, e.Title, e.Description, tags, e.RunConfigID, e.ID)
	if err != nil {
		return errors.Wrapf(err, "failed to update experiment %s", e.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("experiment %s was not found", e.ID)
	}
	return nil
}

func (s *ExperimentStore) scan(row interface{ Scan(...interface{}) error }) (*model.Experiment, error) {
	var e model.Experiment
	var title, description, tags, runConfigID sql.NullString

	if err := row.Scan(&e.ID, &e.ProjectID, &e.Name, &title, &description, &tags, &runConfigID); err != nil {
		return nil, err
	}

	e.Title = title.String
	e.Description = description.String
	e.RunConfigID = runConfigID.String

	parsed, err := unmarshalStrings(tags)
	if err != nil {
		return nil, err
	}
	e.Tags = parsed
	return &e, nil
}

// Get fetches an experiment by ID.
func (s *ExperimentStore) Get(ctx context.Context, id string) (*model.Experiment, error) {
	e, err := s.scan(s.db.QueryRowContext(ctx, experimentSelectQuery, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("experiment %s was not found", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get experiment %s", id)
	}
	return e, nil
}

// GetByName fetches an experiment by its (projectId, name) pair.
func (s *ExperimentStore) GetByName(ctx context.Context, projectID, name string) (*model.Experiment, error) {
	e, err := s.scan(s.db.QueryRowContext(ctx, experimentSelectByNameQuery, projectID, name))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("experiment %s under project %s was not found", name, projectID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get experiment %s/%s", projectID, name)
	}
	return e, nil
}

// ListByProject returns all experiments under a project.
func (s *ExperimentStore) ListByProject(ctx context.Context, projectID string) ([]model.Experiment, error) {
	rows, err := s.db.QueryContext(ctx, experimentListByProjectQuery, projectID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list experiments for project %s", projectID)
	}
	defer rows.Close()

	var out []model.Experiment
	for rows.Next() {
		e, err := s.scan(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan experiment row")
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// DeleteByID removes an experiment record.
func (s *ExperimentStore) DeleteByID(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, experimentDeleteQuery, id)
	if err != nil {
		return errors.Wrapf(err, "failed to delete experiment %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("experiment %s was not found", id)
	}
	return nil
}
