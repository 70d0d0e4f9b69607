package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/valstore/valstore/errors"
	"github.com/valstore/valstore/model"
)

const (
	runColumns = "id, project_id, experiment_id, run_status, run_config, snapshot_result, profile_result, schema_result, validation_result"

	runInsertQuery = `
		INSERT INTO runs (` + runColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	runUpdateStatusQuery = `
		UPDATE runs SET run_status = ?, snapshot_result = ?, profile_result = ?, schema_result = ?, validation_result = ?
		WHERE id = ?`

	runSelectQuery = `
		SELECT ` + runColumns + ` FROM runs WHERE id = ?`

	runDeleteQuery = `
		DELETE FROM runs WHERE id = ?`
)

// RunStore persists Run entities. The run config copy is stored as a
// JSON column because it is immutable once the run exists.
type RunStore struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// Save inserts a new run.
func (s *RunStore) Save(ctx context.Context, r *model.Run) error {
	config, err := marshalJSON(r.Config)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, runInsertQuery,
		r.ID, r.ProjectID, r.ExperimentID, string(r.Status), config,
		string(r.SnapshotResult), string(r.ProfileResult), string(r.SchemaResult), string(r.ValidationResult))
	if err != nil {
		return errors.Wrapf(mapSQLiteErr(err), "failed to save run %s", r.ID)
	}
	return nil
}

// UpdateStatus rewrites the run's status fields.
func (s *RunStore) UpdateStatus(ctx context.Context, r *model.Run) error {
	res, err := s.db.ExecContext(ctx, runUpdateStatusQuery,
		string(r.Status), string(r.SnapshotResult), string(r.ProfileResult),
		string(r.SchemaResult), string(r.ValidationResult), r.ID)
	if err != nil {
		return errors.Wrapf(err, "failed to update run %s", r.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("run %s was not found", r.ID)
	}
	return nil
}

func (s *RunStore) scan(row interface{ Scan(...interface{}) error }) (*model.Run, error) {
	var r model.Run
	var status string
	var config, snapshot, profile, schema, validation sql.NullString

	if err := row.Scan(&r.ID, &r.ProjectID, &r.ExperimentID, &status,
		&config, &snapshot, &profile, &schema, &validation); err != nil {
		return nil, err
	}

	r.Status = model.RunStatus(status)
	r.SnapshotResult = model.RunStatus(snapshot.String)
	r.ProfileResult = model.RunStatus(profile.String)
	r.SchemaResult = model.RunStatus(schema.String)
	r.ValidationResult = model.RunStatus(validation.String)

	if config.Valid && config.String != "" {
		var c model.RunConfig
		if err := json.Unmarshal([]byte(config.String), &c); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal run config column")
		}
		r.Config = &c
	}
	return &r, nil
}

// Get fetches a run by ID.
func (s *RunStore) Get(ctx context.Context, id string) (*model.Run, error) {
	r, err := s.scan(s.db.QueryRowContext(ctx, runSelectQuery, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("run %s was not found", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get run %s", id)
	}
	return r, nil
}

// ListByFilter returns runs matching the key filter.
func (s *RunStore) ListByFilter(ctx context.Context, f Filter) ([]model.Run, error) {
	qb, err := filterQuery(f)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + runColumns + " FROM runs WHERE " + qb.build() + " ORDER BY id"
	rows, err := s.db.QueryContext(ctx, query, qb.args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}
	defer rows.Close()

	var out []model.Run
	for rows.Next() {
		r, err := s.scan(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan run row")
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// DeleteByID removes a run record.
func (s *RunStore) DeleteByID(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, runDeleteQuery, id)
	if err != nil {
		return errors.Wrapf(err, "failed to delete run %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("run %s was not found", id)
	}
	return nil
}

// DeleteByFilter removes every run matching the key filter.
func (s *RunStore) DeleteByFilter(ctx context.Context, f Filter) error {
	qb, err := filterQuery(f)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, "DELETE FROM runs WHERE "+qb.build(), qb.args...)
	if err != nil {
		return errors.Wrap(err, "failed to delete runs by filter")
	}
	return nil
}
