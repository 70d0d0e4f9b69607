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
	runConfigInsertQuery = `
		INSERT INTO run_configs (id, project_id, experiment_id, stages)
		VALUES (?, ?, ?, ?)`

	runConfigUpdateQuery = `
		UPDATE run_configs SET stages = ? WHERE id = ?`

	runConfigSelectQuery = `
		SELECT id, project_id, experiment_id, stages FROM run_configs WHERE id = ?`

	runConfigSelectByExperimentQuery = `
		SELECT id, project_id, experiment_id, stages FROM run_configs
		WHERE experiment_id = ?`

	runConfigDeleteQuery = `
		DELETE FROM run_configs WHERE id = ?`

	runConfigDeleteByExperimentQuery = `
		DELETE FROM run_configs WHERE experiment_id = ?`
)

// stagePayload is the JSON shape of the stages column.
type stagePayload struct {
	Snapshot        *model.StageConfig `json:"snapshot,omitempty"`
	Profiling       *model.StageConfig `json:"profiling,omitempty"`
	SchemaInference *model.StageConfig `json:"schemaInference,omitempty"`
	Validation      *model.StageConfig `json:"validation,omitempty"`
}

// RunConfigStore persists per-experiment run configurations. The unique
// index on experiment_id enforces the zero-or-one cardinality.
type RunConfigStore struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

func stagesJSON(c *model.RunConfig) (string, error) {
	return marshalJSON(stagePayload{
		Snapshot:        c.Snapshot,
		Profiling:       c.Profiling,
		SchemaInference: c.SchemaInference,
		Validation:      c.Validation,
	})
}

// Save inserts a run config. A second config for the same experiment
// fails with the already-exists kind.
func (s *RunConfigStore) Save(ctx context.Context, c *model.RunConfig) error {
	stages, err := stagesJSON(c)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, runConfigInsertQuery, c.ID, c.ProjectID, c.ExperimentID, stages); err != nil {
		return errors.Wrapf(mapSQLiteErr(err), "failed to save run config for experiment %s", c.ExperimentID)
	}
	return nil
}

// Update rewrites the stage configuration of an existing run config.
func (s *RunConfigStore) Update(ctx context.Context, c *model.RunConfig) error {
	stages, err := stagesJSON(c)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, runConfigUpdateQuery, stages, c.ID)
	if err != nil {
		return errors.Wrapf(err, "failed to update run config %s", c.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("run config %s was not found", c.ID)
	}
	return nil
}

func (s *RunConfigStore) scan(row interface{ Scan(...interface{}) error }) (*model.RunConfig, error) {
	var c model.RunConfig
	var stages sql.NullString

	if err := row.Scan(&c.ID, &c.ProjectID, &c.ExperimentID, &stages); err != nil {
		return nil, err
	}

	if stages.Valid && stages.String != "" {
		var p stagePayload
		if err := json.Unmarshal([]byte(stages.String), &p); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal stages column")
		}
		c.Snapshot = p.Snapshot
		c.Profiling = p.Profiling
		c.SchemaInference = p.SchemaInference
		c.Validation = p.Validation
	}
	return &c, nil
}

// Get fetches a run config by ID.
func (s *RunConfigStore) Get(ctx context.Context, id string) (*model.RunConfig, error) {
	c, err := s.scan(s.db.QueryRowContext(ctx, runConfigSelectQuery, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("run config %s was not found", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get run config %s", id)
	}
	return c, nil
}

// GetByExperiment fetches the experiment's run config, if any.
func (s *RunConfigStore) GetByExperiment(ctx context.Context, experimentID string) (*model.RunConfig, error) {
	c, err := s.scan(s.db.QueryRowContext(ctx, runConfigSelectByExperimentQuery, experimentID))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("run config for experiment %s was not found", experimentID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get run config for experiment %s", experimentID)
	}
	return c, nil
}

// DeleteByID removes a run config.
func (s *RunConfigStore) DeleteByID(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, runConfigDeleteQuery, id)
	if err != nil {
		return errors.Wrapf(err, "failed to delete run config %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("run config %s was not found", id)
	}
	return nil
}

// DeleteByExperiment removes the experiment's run config if present.
// Used by cascades; absence is not an error.
func (s *RunConfigStore) DeleteByExperiment(ctx context.Context, experimentID string) error {
	_, err := s.db.ExecContext(ctx, runConfigDeleteByExperimentQuery, experimentID)
	if err != nil {
		return errors.Wrapf(err, "failed to delete run config for experiment %s", experimentID)
	}
	return nil
}
