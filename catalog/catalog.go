// Package catalog owns the lifecycle of projects, experiments, run
// configs, constraints and runs, and accepts the run-scoped documents
// the pipeline stages produce. Stores enforce uniqueness; this layer
// enforces the relationships between collections: create-if-missing
// experiments, run status transitions and children-first cascades.
package catalog

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/valstore/valstore/errors"
	"github.com/valstore/valstore/model"
	"github.com/valstore/valstore/store"
)

// Service is the lifecycle service over the full store set.
type Service struct {
	stores *store.Stores
	logger *zap.SugaredLogger
}

// New creates a catalog service.
func New(stores *store.Stores, logger *zap.SugaredLogger) *Service {
	return &Service{stores: stores, logger: logger}
}

func newID() string {
	return uuid.NewString()
}

// CreateProject stores a new project. The ID is caller-supplied.
func (s *Service) CreateProject(ctx context.Context, p *model.Project) error {
	if p.ID == "" {
		return errors.NewInvalidArgument("project ID is required")
	}
	if !model.ValidTitle(p.Title) {
		return errors.NewInvalidArgument("project title %q is not a valid title", p.Title)
	}
	return s.stores.Projects.Save(ctx, p)
}

// GetProject fetches a project by ID.
func (s *Service) GetProject(ctx context.Context, id string) (*model.Project, error) {
	return s.stores.Projects.Get(ctx, id)
}

// ListProjects returns all projects.
func (s *Service) ListProjects(ctx context.Context) ([]model.Project, error) {
	return s.stores.Projects.List(ctx)
}

// UpdateProject rewrites a project's mutable fields.
func (s *Service) UpdateProject(ctx context.Context, p *model.Project) error {
	if !model.ValidTitle(p.Title) {
		return errors.NewInvalidArgument("project title %q is not a valid title", p.Title)
	}
	return s.stores.Projects.Update(ctx, p)
}

// CreateExperiment stores a new experiment. The name must be unique
// within the project; the title defaults to the name.
func (s *Service) CreateExperiment(ctx context.Context, e *model.Experiment) error {
	if e.ProjectID == "" || e.Name == "" {
		return errors.NewInvalidArgument("experiment requires projectId and name")
	}
	if !model.ValidName(e.Name) {
		return errors.NewInvalidArgument("experiment name %q is not a valid name", e.Name)
	}
	if e.ID == "" {
		e.ID = newID()
	}
	if e.Title == "" {
		e.Title = e.Name
	}
	return s.stores.Experiments.Save(ctx, e)
}

// EnsureExperiment returns the experiment with the given name under the
// project, creating it when absent. Safe under concurrent callers: the
// insert is conditional on the unique (projectId, name) pair, and the
// loser reads back the winner's row.
func (s *Service) EnsureExperiment(ctx context.Context, projectID, name string) (*model.Experiment, error) {
	if projectID == "" || name == "" {
		return nil, errors.NewInvalidArgument("experiment requires projectId and name")
	}
	if !model.ValidName(name) {
		return nil, errors.NewInvalidArgument("experiment name %q is not a valid name", name)
	}

	existing, err := s.stores.Experiments.GetByName(ctx, projectID, name)
	if err == nil {
		return existing, nil
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}

	candidate := &model.Experiment{
		ID:        newID(),
		ProjectID: projectID,
		Name:      name,
		Title:     name,
	}
	inserted, err := s.stores.Experiments.SaveIfAbsent(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if inserted {
		s.logger.Infow("Created experiment on first reference",
			"project_id", projectID,
			"experiment", name,
		)
		return candidate, nil
	}
	// Lost the race; the winner's row exists now.
	return s.stores.Experiments.GetByName(ctx, projectID, name)
}

// GetExperiment fetches an experiment by ID.
func (s *Service) GetExperiment(ctx context.Context, id string) (*model.Experiment, error) {
	return s.stores.Experiments.Get(ctx, id)
}

// GetExperimentByName fetches an experiment by its (projectId, name) pair.
func (s *Service) GetExperimentByName(ctx context.Context, projectID, name string) (*model.Experiment, error) {
	return s.stores.Experiments.GetByName(ctx, projectID, name)
}

// ListExperiments returns all experiments under a project.
func (s *Service) ListExperiments(ctx context.Context, projectID string) ([]model.Experiment, error) {
	return s.stores.Experiments.ListByProject(ctx, projectID)
}

// UpdateExperiment rewrites an experiment's mutable fields.
func (s *Service) UpdateExperiment(ctx context.Context, e *model.Experiment) error {
	if !model.ValidTitle(e.Title) {
		return errors.NewInvalidArgument("experiment title %q is not a valid title", e.Title)
	}
	return s.stores.Experiments.Update(ctx, e)
}

// SetRunConfig stores the experiment's run config and points the
// experiment record at it. At most one config per experiment.
func (s *Service) SetRunConfig(ctx context.Context, c *model.RunConfig) error {
	if c.ProjectID == "" || c.ExperimentID == "" {
		return errors.NewInvalidArgument("run config requires projectId and experimentId")
	}
	e, err := s.stores.Experiments.Get(ctx, c.ExperimentID)
	if err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = newID()
	}
	if err := s.stores.RunConfigs.Save(ctx, c); err != nil {
		return err
	}
	e.RunConfigID = c.ID
	return s.stores.Experiments.Update(ctx, e)
}

// GetRunConfig fetches a run config by ID.
func (s *Service) GetRunConfig(ctx context.Context, id string) (*model.RunConfig, error) {
	return s.stores.RunConfigs.Get(ctx, id)
}

// GetRunConfigByExperiment fetches the experiment's run config, if any.
func (s *Service) GetRunConfigByExperiment(ctx context.Context, experimentID string) (*model.RunConfig, error) {
	return s.stores.RunConfigs.GetByExperiment(ctx, experimentID)
}

// UpdateRunConfig rewrites the stage configuration of a run config.
func (s *Service) UpdateRunConfig(ctx context.Context, c *model.RunConfig) error {
	return s.stores.RunConfigs.Update(ctx, c)
}

// CreateConstraint stores a new constraint. The name must be unique
// within the (project, experiment) pair; the stored type mirrors the
// typed body's discriminator.
func (s *Service) CreateConstraint(ctx context.Context, c *model.Constraint) error {
	if c.ProjectID == "" || c.ExperimentID == "" || c.Name == "" {
		return errors.NewInvalidArgument("constraint requires projectId, experimentId and name")
	}
	if !model.ValidName(c.Name) {
		return errors.NewInvalidArgument("constraint name %q is not a valid name", c.Name)
	}
	if c.Body == nil {
		return errors.NewInvalidArgument("constraint %s has no typed body", c.Name)
	}
	if c.ID == "" {
		c.ID = newID()
	}
	c.Type = c.Body.TypeLabel()
	return s.stores.Constraints.Save(ctx, c)
}

// GetConstraint fetches a constraint by ID.
func (s *Service) GetConstraint(ctx context.Context, id string) (*model.Constraint, error) {
	return s.stores.Constraints.Get(ctx, id)
}

// GetConstraintByName fetches a constraint by its scope and name.
func (s *Service) GetConstraintByName(ctx context.Context, projectID, experimentID, name string) (*model.Constraint, error) {
	return s.stores.Constraints.GetByName(ctx, projectID, experimentID, name)
}

// ListConstraints returns the constraints in scope of the filter.
func (s *Service) ListConstraints(ctx context.Context, f store.Filter) ([]model.Constraint, error) {
	return s.stores.Constraints.ListByFilter(ctx, f)
}

// UpdateConstraint rewrites a constraint's mutable fields.
func (s *Service) UpdateConstraint(ctx context.Context, c *model.Constraint) error {
	if c.Body == nil {
		return errors.NewInvalidArgument("constraint %s has no typed body", c.ID)
	}
	c.Type = c.Body.TypeLabel()
	return s.stores.Constraints.Update(ctx, c)
}

// DeleteConstraint removes a constraint.
func (s *Service) DeleteConstraint(ctx context.Context, id string) error {
	return s.stores.Constraints.DeleteByID(ctx, id)
}
