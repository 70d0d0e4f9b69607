package catalog

import (
	"context"
	"time"

	"github.com/valstore/valstore/errors"
	"github.com/valstore/valstore/model"
	"github.com/valstore/valstore/store"
)

// SaveRunMetadata accepts the anchor document of a run's document set.
// The experiment is created on first reference. When overwrite is set,
// every document already recorded for the run is dropped first so the
// run's set restarts from this anchor.
func (s *Service) SaveRunMetadata(ctx context.Context, m *model.RunMetadata, overwrite bool) (*model.RunMetadata, error) {
	if m.ProjectID == "" || m.RunID == "" || m.ExperimentName == "" {
		return nil, errors.NewInvalidArgument("run metadata requires projectId, runId and experimentName")
	}

	e, err := s.EnsureExperiment(ctx, m.ProjectID, m.ExperimentName)
	if err != nil {
		return nil, err
	}
	m.ExperimentID = e.ID

	if m.ID == "" {
		m.ID = newID()
	}
	if m.Created.IsZero() {
		m.Created = createdFromContents(m.Contents)
	}

	if overwrite {
		if err := s.deleteRunDocuments(ctx, store.Filter{
			ProjectID:    m.ProjectID,
			ExperimentID: m.ExperimentID,
			RunID:        m.RunID,
		}); err != nil {
			return nil, err
		}
	}

	if err := s.stores.RunMetadata.Save(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// createdFromContents recovers the creation timestamp the producer put
// in the document body, falling back to the write time.
func createdFromContents(contents map[string]interface{}) time.Time {
	if raw, ok := contents["created"].(string); ok {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			return ts
		}
	}
	return time.Now().UTC()
}

func (s *Service) requireExperiment(ctx context.Context, projectID, experimentID string) error {
	if projectID == "" || experimentID == "" {
		return errors.NewInvalidArgument("document requires projectId and experimentId")
	}
	e, err := s.stores.Experiments.Get(ctx, experimentID)
	if err != nil {
		return err
	}
	if e.ProjectID != projectID {
		return errors.NewInvalidArgument("experiment %s belongs to project %s, not %s", experimentID, e.ProjectID, projectID)
	}
	return nil
}

// SaveRunEnvironment accepts a run's environment document.
func (s *Service) SaveRunEnvironment(ctx context.Context, d *model.RunEnvironment) (*model.RunEnvironment, error) {
	if err := s.requireExperiment(ctx, d.ProjectID, d.ExperimentID); err != nil {
		return nil, err
	}
	if d.ID == "" {
		d.ID = newID()
	}
	if err := s.stores.Environments.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// SaveArtifactMetadata accepts one artifact pointer. A run may record
// any number of artifacts.
func (s *Service) SaveArtifactMetadata(ctx context.Context, d *model.ArtifactMetadata) (*model.ArtifactMetadata, error) {
	if err := s.requireExperiment(ctx, d.ProjectID, d.ExperimentID); err != nil {
		return nil, err
	}
	if d.Name == "" || d.URI == "" {
		return nil, errors.NewInvalidArgument("artifact metadata requires name and uri")
	}
	if d.ID == "" {
		d.ID = newID()
	}
	if err := s.stores.Artifacts.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// SaveRunDataProfile accepts a run's data profile document.
func (s *Service) SaveRunDataProfile(ctx context.Context, d *model.RunDataProfile) (*model.RunDataProfile, error) {
	if err := s.requireExperiment(ctx, d.ProjectID, d.ExperimentID); err != nil {
		return nil, err
	}
	if d.ID == "" {
		d.ID = newID()
	}
	if err := s.stores.DataProfiles.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// SaveRunValidationReport accepts a run's validation report.
func (s *Service) SaveRunValidationReport(ctx context.Context, d *model.RunValidationReport) (*model.RunValidationReport, error) {
	if err := s.requireExperiment(ctx, d.ProjectID, d.ExperimentID); err != nil {
		return nil, err
	}
	if d.ID == "" {
		d.ID = newID()
	}
	if err := s.stores.ValidationReports.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// SaveRunDataSchema accepts a run's inferred data schema.
func (s *Service) SaveRunDataSchema(ctx context.Context, d *model.RunDataSchema) (*model.RunDataSchema, error) {
	if err := s.requireExperiment(ctx, d.ProjectID, d.ExperimentID); err != nil {
		return nil, err
	}
	if d.ID == "" {
		d.ID = newID()
	}
	if err := s.stores.DataSchemas.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// GetRunMetadata fetches a run metadata document by ID.
func (s *Service) GetRunMetadata(ctx context.Context, id string) (*model.RunMetadata, error) {
	return s.stores.RunMetadata.Get(ctx, id)
}

// ListRunMetadata returns the metadata documents in scope of the filter,
// newest first.
func (s *Service) ListRunMetadata(ctx context.Context, f store.Filter) ([]model.RunMetadata, error) {
	return s.stores.RunMetadata.ListByFilter(ctx, f)
}
