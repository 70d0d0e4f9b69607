package catalog

import (
	"context"

	"github.com/valstore/valstore/errors"
	"github.com/valstore/valstore/model"
	"github.com/valstore/valstore/store"
)

// CreateRun starts a new run under an experiment. The experiment's run
// config, if any, is copied onto the run so later config edits never
// change what a past run executed with.
func (s *Service) CreateRun(ctx context.Context, projectID, experimentID string) (*model.Run, error) {
	e, err := s.stores.Experiments.Get(ctx, experimentID)
	if err != nil {
		return nil, err
	}
	if e.ProjectID != projectID {
		return nil, errors.NewInvalidArgument("experiment %s belongs to project %s, not %s", experimentID, e.ProjectID, projectID)
	}

	r := &model.Run{
		ID:           newID(),
		ProjectID:    projectID,
		ExperimentID: experimentID,
		Status:       model.StatusPending,
	}

	cfg, err := s.stores.RunConfigs.GetByExperiment(ctx, experimentID)
	if err == nil {
		r.Config = cfg
	} else if !errors.IsNotFound(err) {
		return nil, err
	}

	if err := s.stores.Runs.Save(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// GetRun fetches a run by ID.
func (s *Service) GetRun(ctx context.Context, id string) (*model.Run, error) {
	return s.stores.Runs.Get(ctx, id)
}

// ListRuns returns the runs in scope of the filter.
func (s *Service) ListRuns(ctx context.Context, projectID, experimentID string) ([]model.Run, error) {
	return s.stores.Runs.ListByFilter(ctx, store.Filter{ProjectID: projectID, ExperimentID: experimentID})
}

// UpdateRunStatus moves a run to the next lifecycle state and records
// per-stage results. Only pending→running and running→{success, error}
// are legal.
func (s *Service) UpdateRunStatus(ctx context.Context, id string, next model.RunStatus, stages map[string]model.RunStatus) (*model.Run, error) {
	if !next.Valid() {
		return nil, errors.NewInvalidArgument("unknown run status %q", next)
	}

	r, err := s.stores.Runs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !r.Status.CanTransitionTo(next) {
		return nil, errors.NewInvalidArgument("run %s cannot move from %s to %s", id, r.Status, next)
	}

	r.Status = next
	for stage, result := range stages {
		switch stage {
		case "snapshot":
			r.SnapshotResult = result
		case "profiling":
			r.ProfileResult = result
		case "schemaInference":
			r.SchemaResult = result
		case "validation":
			r.ValidationResult = result
		default:
			return nil, errors.NewInvalidArgument("unknown pipeline stage %q", stage)
		}
	}

	if err := s.stores.Runs.UpdateStatus(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}
