package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/valstore/valstore/catalog"
	"github.com/valstore/valstore/errors"
	"github.com/valstore/valstore/model"
	"github.com/valstore/valstore/store"
	"github.com/valstore/valstore/store/testutil"
	"github.com/valstore/valstore/typed"
)

type fixture struct {
	stores  *store.Stores
	service *catalog.Service
}

func setup(t *testing.T) *fixture {
	t.Helper()
	stores := store.New(testutil.SetupTestDB(t), zap.NewNop().Sugar())
	return &fixture{
		stores:  stores,
		service: catalog.New(stores, zap.NewNop().Sugar()),
	}
}

func (f *fixture) addProject(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, f.service.CreateProject(context.Background(), &model.Project{ID: id}))
}

func TestCreateProjectValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	err := f.service.CreateProject(ctx, &model.Project{})
	assert.True(t, errors.IsInvalidArgument(err))

	err = f.service.CreateProject(ctx, &model.Project{ID: "p1", Title: "bad/title"})
	assert.True(t, errors.IsInvalidArgument(err))

	require.NoError(t, f.service.CreateProject(ctx, &model.Project{ID: "p1", Title: "Good Title"}))
	err = f.service.CreateProject(ctx, &model.Project{ID: "p1"})
	assert.True(t, errors.IsAlreadyExists(err))
}

func TestCreateExperimentDefaultsAndUniqueness(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addProject(t, "p1")

	e := &model.Experiment{ProjectID: "p1", Name: "churn"}
	require.NoError(t, f.service.CreateExperiment(ctx, e))
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "churn", e.Title)

	err := f.service.CreateExperiment(ctx, &model.Experiment{ProjectID: "p1", Name: "churn"})
	assert.True(t, errors.IsAlreadyExists(err))

	err = f.service.CreateExperiment(ctx, &model.Experiment{ProjectID: "p1", Name: "has spaces"})
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestEnsureExperimentIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addProject(t, "p1")

	first, err := f.service.EnsureExperiment(ctx, "p1", "churn")
	require.NoError(t, err)
	assert.Equal(t, "churn", first.Title)

	second, err := f.service.EnsureExperiment(ctx, "p1", "churn")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	all, err := f.service.ListExperiments(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSetRunConfigLinksExperiment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addProject(t, "p1")

	e := &model.Experiment{ProjectID: "p1", Name: "churn"}
	require.NoError(t, f.service.CreateExperiment(ctx, e))

	c := &model.RunConfig{
		ProjectID: "p1", ExperimentID: e.ID,
		Validation: &model.StageConfig{Enable: true, Library: "frictionless"},
	}
	require.NoError(t, f.service.SetRunConfig(ctx, c))

	got, err := f.service.GetExperiment(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.RunConfigID)

	err = f.service.SetRunConfig(ctx, &model.RunConfig{ProjectID: "p1", ExperimentID: e.ID})
	assert.True(t, errors.IsAlreadyExists(err))
}

func TestCreateRunCopiesConfig(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addProject(t, "p1")

	e := &model.Experiment{ProjectID: "p1", Name: "churn"}
	require.NoError(t, f.service.CreateExperiment(ctx, e))
	require.NoError(t, f.service.SetRunConfig(ctx, &model.RunConfig{
		ProjectID: "p1", ExperimentID: e.ID,
		Profiling: &model.StageConfig{Enable: true},
	}))

	r, err := f.service.CreateRun(ctx, "p1", e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, r.Status)
	require.NotNil(t, r.Config)
	assert.True(t, r.Config.Profiling.Enable)

	_, err = f.service.CreateRun(ctx, "p-other", e.ID)
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestUpdateRunStatusTransitions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addProject(t, "p1")

	e := &model.Experiment{ProjectID: "p1", Name: "churn"}
	require.NoError(t, f.service.CreateExperiment(ctx, e))
	r, err := f.service.CreateRun(ctx, "p1", e.ID)
	require.NoError(t, err)

	// Runs cannot skip the running state.
	_, err = f.service.UpdateRunStatus(ctx, r.ID, model.StatusSuccess, nil)
	assert.True(t, errors.IsInvalidArgument(err))

	_, err = f.service.UpdateRunStatus(ctx, r.ID, model.StatusRunning, nil)
	require.NoError(t, err)

	got, err := f.service.UpdateRunStatus(ctx, r.ID, model.StatusSuccess, map[string]model.RunStatus{
		"profiling":  model.StatusSuccess,
		"validation": model.StatusError,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuccess, got.ProfileResult)
	assert.Equal(t, model.StatusError, got.ValidationResult)

	// Terminal states accept no further transitions.
	_, err = f.service.UpdateRunStatus(ctx, r.ID, model.StatusRunning, nil)
	assert.True(t, errors.IsInvalidArgument(err))

	_, err = f.service.UpdateRunStatus(ctx, r.ID, model.RunStatus("finished"), nil)
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestSaveRunMetadataCreatesExperiment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addProject(t, "p1")

	m, err := f.service.SaveRunMetadata(ctx, &model.RunMetadata{
		ProjectID:      "p1",
		RunID:          "run-1",
		ExperimentName: "churn",
		Contents:       map[string]interface{}{"created": "2026-03-01T12:00:00Z"},
	}, false)
	require.NoError(t, err)

	assert.NotEmpty(t, m.ID)
	assert.NotEmpty(t, m.ExperimentID)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), m.Created.UTC())

	e, err := f.service.GetExperimentByName(ctx, "p1", "churn")
	require.NoError(t, err)
	assert.Equal(t, e.ID, m.ExperimentID)
}

func TestSaveRunMetadataOverwrite(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addProject(t, "p1")

	m, err := f.service.SaveRunMetadata(ctx, &model.RunMetadata{
		ProjectID: "p1", RunID: "run-1", ExperimentName: "churn",
	}, false)
	require.NoError(t, err)

	_, err = f.service.SaveRunEnvironment(ctx, &model.RunEnvironment{
		ProjectID: "p1", ExperimentID: m.ExperimentID, RunID: "run-1",
		Contents: map[string]interface{}{"python": "3.12"},
	})
	require.NoError(t, err)

	// Without overwrite the anchor is unique per run.
	_, err = f.service.SaveRunMetadata(ctx, &model.RunMetadata{
		ProjectID: "p1", RunID: "run-1", ExperimentName: "churn",
	}, false)
	assert.True(t, errors.IsAlreadyExists(err))

	// Overwrite drops the whole document set first.
	replacement, err := f.service.SaveRunMetadata(ctx, &model.RunMetadata{
		ProjectID: "p1", RunID: "run-1", ExperimentName: "churn",
	}, true)
	require.NoError(t, err)
	assert.NotEqual(t, m.ID, replacement.ID)

	envs, err := f.stores.Environments.ListByFilter(ctx, store.Filter{
		ProjectID: "p1", ExperimentID: m.ExperimentID, RunID: "run-1",
	})
	require.NoError(t, err)
	assert.Empty(t, envs)
}

func TestSaveArtifactMetadataValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addProject(t, "p1")

	e := &model.Experiment{ProjectID: "p1", Name: "churn"}
	require.NoError(t, f.service.CreateExperiment(ctx, e))

	_, err := f.service.SaveArtifactMetadata(ctx, &model.ArtifactMetadata{
		ProjectID: "p1", ExperimentID: e.ID, RunID: "run-1", Name: "model.bin",
	})
	assert.True(t, errors.IsInvalidArgument(err))

	_, err = f.service.SaveArtifactMetadata(ctx, &model.ArtifactMetadata{
		ProjectID: "p1", ExperimentID: "nope", RunID: "run-1", Name: "model.bin", URI: "s3://b/m",
	})
	assert.True(t, errors.IsNotFound(err))
}

func TestDeleteExperimentCascades(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addProject(t, "p1")

	e := &model.Experiment{ProjectID: "p1", Name: "churn"}
	require.NoError(t, f.service.CreateExperiment(ctx, e))
	require.NoError(t, f.service.SetRunConfig(ctx, &model.RunConfig{ProjectID: "p1", ExperimentID: e.ID}))
	require.NoError(t, f.service.CreateConstraint(ctx, &model.Constraint{
		ProjectID: "p1", ExperimentID: e.ID, Name: "id-required",
		Body: &typed.FrictionlessConstraint{Type: typed.TypeFrictionless, Field: "id", Constraint: typed.ConstraintRequired},
	}))

	r, err := f.service.CreateRun(ctx, "p1", e.ID)
	require.NoError(t, err)

	m, err := f.service.SaveRunMetadata(ctx, &model.RunMetadata{
		ProjectID: "p1", RunID: r.ID, ExperimentName: "churn",
	}, false)
	require.NoError(t, err)
	_, err = f.service.SaveRunValidationReport(ctx, &model.RunValidationReport{
		ProjectID: "p1", ExperimentID: e.ID, RunID: r.ID, Valid: true,
	})
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteExperiment(ctx, e.ID))

	_, err = f.service.GetExperiment(ctx, e.ID)
	assert.True(t, errors.IsNotFound(err))
	_, err = f.service.GetRun(ctx, r.ID)
	assert.True(t, errors.IsNotFound(err))
	_, err = f.service.GetRunMetadata(ctx, m.ID)
	assert.True(t, errors.IsNotFound(err))
	_, err = f.service.GetRunConfigByExperiment(ctx, e.ID)
	assert.True(t, errors.IsNotFound(err))

	constraints, err := f.service.ListConstraints(ctx, store.Filter{ProjectID: "p1", ExperimentID: e.ID})
	require.NoError(t, err)
	assert.Empty(t, constraints)

	// The project survives.
	_, err = f.service.GetProject(ctx, "p1")
	require.NoError(t, err)
}

func TestDeleteProjectCascades(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addProject(t, "p1")

	for _, name := range []string{"churn", "retention"} {
		e := &model.Experiment{ProjectID: "p1", Name: name}
		require.NoError(t, f.service.CreateExperiment(ctx, e))
		_, err := f.service.SaveRunMetadata(ctx, &model.RunMetadata{
			ProjectID: "p1", RunID: "run-" + name, ExperimentName: name,
		}, false)
		require.NoError(t, err)
	}

	require.NoError(t, f.service.DeleteProject(ctx, "p1"))

	_, err := f.service.GetProject(ctx, "p1")
	assert.True(t, errors.IsNotFound(err))

	all, err := f.service.ListExperiments(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, all)

	metas, err := f.service.ListRunMetadata(ctx, store.Filter{ProjectID: "p1"})
	require.NoError(t, err)
	assert.Empty(t, metas)
}

func TestDeleteProjectUnknown(t *testing.T) {
	f := setup(t)
	err := f.service.DeleteProject(context.Background(), "nope")
	assert.True(t, errors.IsNotFound(err))
}
