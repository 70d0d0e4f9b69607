package catalog

import (
	"context"

	"github.com/valstore/valstore/store"
)

// Cascade deletes remove children before parents and stop on the first
// failure, leaving the parent in place so a retry can resume. Document
// stores treat an empty match as success, so cascades tolerate absent
// children.

// deleteRunDocuments drops every run-scoped document matching the
// filter, across all six collections.
func (s *Service) deleteRunDocuments(ctx context.Context, f store.Filter) error {
	if err := s.stores.Environments.DeleteByFilter(ctx, f); err != nil {
		return err
	}
	if err := s.stores.Artifacts.DeleteByFilter(ctx, f); err != nil {
		return err
	}
	if err := s.stores.DataProfiles.DeleteByFilter(ctx, f); err != nil {
		return err
	}
	if err := s.stores.ValidationReports.DeleteByFilter(ctx, f); err != nil {
		return err
	}
	if err := s.stores.DataSchemas.DeleteByFilter(ctx, f); err != nil {
		return err
	}
	return s.stores.RunMetadata.DeleteByFilter(ctx, f)
}

// DeleteRun removes one run and its document set.
func (s *Service) DeleteRun(ctx context.Context, id string) error {
	r, err := s.stores.Runs.Get(ctx, id)
	if err != nil {
		return err
	}

	f := store.Filter{ProjectID: r.ProjectID, ExperimentID: r.ExperimentID, RunID: r.ID}
	if err := s.deleteRunDocuments(ctx, f); err != nil {
		return err
	}
	return s.stores.Runs.DeleteByID(ctx, id)
}

// DeleteExperiment removes an experiment with everything under it:
// constraints, run config, runs and all run-scoped documents.
func (s *Service) DeleteExperiment(ctx context.Context, id string) error {
	e, err := s.stores.Experiments.Get(ctx, id)
	if err != nil {
		return err
	}

	f := store.Filter{ProjectID: e.ProjectID, ExperimentID: e.ID}

	if err := s.stores.Constraints.DeleteByFilter(ctx, f); err != nil {
		return err
	}
	if err := s.stores.RunConfigs.DeleteByExperiment(ctx, e.ID); err != nil {
		return err
	}
	if err := s.deleteRunDocuments(ctx, f); err != nil {
		return err
	}
	if err := s.stores.Runs.DeleteByFilter(ctx, f); err != nil {
		return err
	}

	s.logger.Infow("Deleted experiment",
		"project_id", e.ProjectID,
		"experiment", e.Name,
	)
	return s.stores.Experiments.DeleteByID(ctx, id)
}

// DeleteProject removes a project and every experiment under it.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	if _, err := s.stores.Projects.Get(ctx, id); err != nil {
		return err
	}

	experiments, err := s.stores.Experiments.ListByProject(ctx, id)
	if err != nil {
		return err
	}
	for _, e := range experiments {
		if err := s.DeleteExperiment(ctx, e.ID); err != nil {
			return err
		}
	}

	// Registry documents are project-scoped; resources before the
	// packages and stores they reference.
	if err := s.stores.DataResources.DeleteByProject(ctx, id); err != nil {
		return err
	}
	if err := s.stores.DataPackages.DeleteByProject(ctx, id); err != nil {
		return err
	}
	if err := s.stores.DataStores.DeleteByProject(ctx, id); err != nil {
		return err
	}

	s.logger.Infow("Deleted project", "project_id", id)
	return s.stores.Projects.DeleteByID(ctx, id)
}
