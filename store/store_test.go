package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/valstore/valstore/errors"
	"github.com/valstore/valstore/model"
	"github.com/valstore/valstore/store"
	"github.com/valstore/valstore/store/testutil"
	"github.com/valstore/valstore/typed"
)

func setupStores(t *testing.T) *store.Stores {
	t.Helper()
	return store.New(testutil.SetupTestDB(t), zap.NewNop().Sugar())
}

func TestProjectStoreCRUD(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()

	p := &model.Project{ID: "urn:project:demo", Title: "Demo", Description: "demo project"}
	require.NoError(t, s.Projects.Save(ctx, p))

	got, err := s.Projects.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	p.Title = "Renamed"
	require.NoError(t, s.Projects.Update(ctx, p))

	got, err = s.Projects.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)

	all, err := s.Projects.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.Projects.DeleteByID(ctx, p.ID))

	_, err = s.Projects.Get(ctx, p.ID)
	assert.True(t, errors.IsNotFound(err))
}

func TestProjectStoreDuplicateID(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()

	p := &model.Project{ID: "dup"}
	require.NoError(t, s.Projects.Save(ctx, p))

	err := s.Projects.Save(ctx, p)
	assert.True(t, errors.IsAlreadyExists(err))
}

func TestExperimentStoreUniqueName(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()

	e := &model.Experiment{ID: "exp-1", ProjectID: "p1", Name: "churn", Tags: []string{"daily"}}
	require.NoError(t, s.Experiments.Save(ctx, e))

	dup := &model.Experiment{ID: "exp-2", ProjectID: "p1", Name: "churn"}
	err := s.Experiments.Save(ctx, dup)
	assert.True(t, errors.IsAlreadyExists(err))

	// Same name under a different project is fine.
	other := &model.Experiment{ID: "exp-3", ProjectID: "p2", Name: "churn"}
	require.NoError(t, s.Experiments.Save(ctx, other))

	got, err := s.Experiments.GetByName(ctx, "p1", "churn")
	require.NoError(t, err)
	assert.Equal(t, "exp-1", got.ID)
	assert.Equal(t, []string{"daily"}, got.Tags)
}

func TestExperimentStoreSaveIfAbsent(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()

	first := &model.Experiment{ID: "exp-1", ProjectID: "p1", Name: "churn", Title: "first"}
	inserted, err := s.Experiments.SaveIfAbsent(ctx, first)
	require.NoError(t, err)
	assert.True(t, inserted)

	second := &model.Experiment{ID: "exp-2", ProjectID: "p1", Name: "churn", Title: "second"}
	inserted, err = s.Experiments.SaveIfAbsent(ctx, second)
	require.NoError(t, err)
	assert.False(t, inserted)

	// The loser's row never landed.
	got, err := s.Experiments.GetByName(ctx, "p1", "churn")
	require.NoError(t, err)
	assert.Equal(t, "exp-1", got.ID)
	assert.Equal(t, "first", got.Title)
}

func TestRunConfigStoreOnePerExperiment(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()

	c := &model.RunConfig{
		ID: "cfg-1", ProjectID: "p1", ExperimentID: "exp-1",
		Validation: &model.StageConfig{Enable: true, Library: "frictionless"},
	}
	require.NoError(t, s.RunConfigs.Save(ctx, c))

	dup := &model.RunConfig{ID: "cfg-2", ProjectID: "p1", ExperimentID: "exp-1"}
	err := s.RunConfigs.Save(ctx, dup)
	assert.True(t, errors.IsAlreadyExists(err))

	got, err := s.RunConfigs.GetByExperiment(ctx, "exp-1")
	require.NoError(t, err)
	assert.Equal(t, c, got)

	// Cascade path tolerates absence.
	require.NoError(t, s.RunConfigs.DeleteByExperiment(ctx, "exp-1"))
	require.NoError(t, s.RunConfigs.DeleteByExperiment(ctx, "exp-1"))
}

func TestConstraintStoreBodyRoundTrip(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()

	c := &model.Constraint{
		ID: "con-1", ProjectID: "p1", ExperimentID: "exp-1", Name: "age-range",
		Resources: []string{"users.csv"},
		Weight:    10,
		Body: &typed.FrictionlessConstraint{
			Type:       typed.TypeFrictionless,
			Field:      "age",
			FieldType:  typed.FieldInteger,
			Constraint: typed.ConstraintMinimum,
			Value:      "0",
		},
	}
	require.NoError(t, s.Constraints.Save(ctx, c))

	got, err := s.Constraints.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, typed.TypeFrictionless, got.Type)
	assert.Equal(t, c.Body, got.Body)
	assert.Equal(t, []string{"users.csv"}, got.Resources)
}

func TestConstraintStoreDuckDBCheckDefault(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()

	c := &model.Constraint{
		ID: "con-1", ProjectID: "p1", ExperimentID: "exp-1", Name: "no-orphans",
		Body: &typed.DuckDBConstraint{
			Type:   typed.TypeDuckDB,
			Query:  "SELECT * FROM orders o LEFT JOIN users u ON o.user_id = u.id WHERE u.id IS NULL",
			Expect: typed.ExpectEmpty,
		},
	}
	require.NoError(t, s.Constraints.Save(ctx, c))

	got, err := s.Constraints.Get(ctx, c.ID)
	require.NoError(t, err)
	body, ok := got.Body.(*typed.DuckDBConstraint)
	require.True(t, ok)
	assert.Equal(t, typed.CheckRows, body.Check)
}

func TestConstraintStoreUniqueName(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()

	body := &typed.FrictionlessConstraint{Type: typed.TypeFrictionless, Field: "id", Constraint: typed.ConstraintRequired}
	require.NoError(t, s.Constraints.Save(ctx, &model.Constraint{
		ID: "con-1", ProjectID: "p1", ExperimentID: "exp-1", Name: "id-required", Body: body,
	}))

	err := s.Constraints.Save(ctx, &model.Constraint{
		ID: "con-2", ProjectID: "p1", ExperimentID: "exp-1", Name: "id-required", Body: body,
	})
	assert.True(t, errors.IsAlreadyExists(err))

	// Same name under another experiment is fine.
	require.NoError(t, s.Constraints.Save(ctx, &model.Constraint{
		ID: "con-3", ProjectID: "p1", ExperimentID: "exp-2", Name: "id-required", Body: body,
	}))
}

func TestRunMetadataStoreUniquePerRun(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()

	m := &model.RunMetadata{
		ID: "meta-1", ProjectID: "p1", ExperimentID: "exp-1", RunID: "run-1",
		Created: time.Now().UTC(),
	}
	require.NoError(t, s.RunMetadata.Save(ctx, m))

	dup := &model.RunMetadata{
		ID: "meta-2", ProjectID: "p1", ExperimentID: "exp-1", RunID: "run-1",
		Created: time.Now().UTC(),
	}
	err := s.RunMetadata.Save(ctx, dup)
	assert.True(t, errors.IsAlreadyExists(err))
}

func TestRunMetadataStoreListRecent(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		m := &model.RunMetadata{
			ID:           fmt.Sprintf("meta-%d", i),
			ProjectID:    "p1",
			ExperimentID: "exp-1",
			RunID:        fmt.Sprintf("run-%d", i),
			Created:      base.Add(time.Duration(i) * time.Minute),
			Contents:     map[string]interface{}{"seq": float64(i)},
		}
		require.NoError(t, s.RunMetadata.Save(ctx, m))
	}

	recent, err := s.RunMetadata.ListRecentByExperiment(ctx, "p1", "exp-1", 5)
	require.NoError(t, err)
	require.Len(t, recent, 5)

	// Newest first, oldest two dropped.
	assert.Equal(t, "run-6", recent[0].RunID)
	assert.Equal(t, "run-2", recent[4].RunID)
	for i := 1; i < len(recent); i++ {
		assert.True(t, recent[i].Created.Before(recent[i-1].Created))
	}
}

func TestRunMetadataStoreContentsRoundTrip(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()

	created := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	m := &model.RunMetadata{
		ID: "meta-1", ProjectID: "p1", ExperimentID: "exp-1", RunID: "run-1",
		ExperimentName: "churn",
		Author:         "alice",
		Created:        created,
		Contents: map[string]interface{}{
			"created": "2026-03-01T12:00:00Z",
			"source":  "s3://bucket/users.csv",
		},
	}
	require.NoError(t, s.RunMetadata.Save(ctx, m))

	got, err := s.RunMetadata.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, got.Created.Equal(created))
	assert.Equal(t, m.Contents, got.Contents)
	assert.Equal(t, "alice", got.Author)
}

func TestRunEnvironmentStoreOnePerRun(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()

	env := &model.RunEnvironment{
		ID: "env-1", ProjectID: "p1", ExperimentID: "exp-1", RunID: "run-1",
		Contents: map[string]interface{}{"python": "3.12", "os": "linux"},
	}
	require.NoError(t, s.Environments.Save(ctx, env))

	dup := &model.RunEnvironment{ID: "env-2", ProjectID: "p1", ExperimentID: "exp-1", RunID: "run-1"}
	err := s.Environments.Save(ctx, dup)
	assert.True(t, errors.IsAlreadyExists(err))

	got, err := s.Environments.Get(ctx, "env-1")
	require.NoError(t, err)
	assert.Equal(t, env, got)
}

func TestValidationReportStoreErrorsRoundTrip(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()

	r := &model.RunValidationReport{
		ID: "rep-1", ProjectID: "p1", ExperimentID: "exp-1", RunID: "run-1",
		ConstraintName: "age-range",
		Valid:          false,
		Errors: []typed.Error{
			&typed.FrictionlessError{
				ErrorMeta:   typed.ErrorMeta{Type: typed.TypeFrictionless, ConstraintID: "con-1", Code: "minimum"},
				FieldName:   "age",
				RowNumber:   42,
				Description: "value below minimum",
			},
			&typed.DuckDBError{
				ErrorMeta:   typed.ErrorMeta{Type: typed.TypeDuckDB, ConstraintID: "con-2", Code: "rows"},
				Description: "expected empty result",
			},
		},
	}
	require.NoError(t, s.ValidationReports.Save(ctx, r))

	got, err := s.ValidationReports.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, got.Valid)
	assert.Equal(t, r.Errors, got.Errors)
}

func TestDataSchemaStoreRoundTrip(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()

	d := &model.RunDataSchema{
		ID: "sch-1", ProjectID: "p1", ExperimentID: "exp-1", RunID: "run-1",
		ResourceName: "users.csv",
		Schema: &typed.TableSchema{
			Type: typed.TypeTable,
			Fields: []typed.ColumnField{
				{Name: "id", Type: typed.FieldInteger},
				{Name: "email", Type: typed.FieldString},
				{Name: "active", Type: typed.FieldBoolean},
			},
		},
	}
	require.NoError(t, s.DataSchemas.Save(ctx, d))

	got, err := s.DataSchemas.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.Schema, got.Schema)
}

func TestArtifactStoreManyPerRun(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		a := &model.ArtifactMetadata{
			ID:           fmt.Sprintf("art-%d", i),
			ProjectID:    "p1",
			ExperimentID: "exp-1",
			RunID:        "run-1",
			Name:         fmt.Sprintf("model-%d.bin", i),
			URI:          fmt.Sprintf("s3://bucket/model-%d.bin", i),
		}
		require.NoError(t, s.Artifacts.Save(ctx, a))
	}

	list, err := s.Artifacts.ListByFilter(ctx, store.Filter{ProjectID: "p1", ExperimentID: "exp-1", RunID: "run-1"})
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestFilterRequiresAtLeastOneField(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()

	_, err := s.RunMetadata.ListByFilter(ctx, store.Filter{})
	assert.True(t, errors.IsInvalidArgument(err))

	err = s.Artifacts.DeleteByFilter(ctx, store.Filter{})
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestDeleteByFilterScoping(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()

	for _, runID := range []string{"run-1", "run-2"} {
		require.NoError(t, s.DataProfiles.Save(ctx, &model.RunDataProfile{
			ID: "prof-" + runID, ProjectID: "p1", ExperimentID: "exp-1", RunID: runID,
			Contents: map[string]interface{}{"rows": float64(100)},
		}))
	}

	require.NoError(t, s.DataProfiles.DeleteByFilter(ctx, store.Filter{
		ProjectID: "p1", ExperimentID: "exp-1", RunID: "run-1",
	}))

	_, err := s.DataProfiles.Get(ctx, "prof-run-1")
	assert.True(t, errors.IsNotFound(err))

	remaining, err := s.DataProfiles.ListByFilter(ctx, store.Filter{ProjectID: "p1", ExperimentID: "exp-1"})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "run-2", remaining[0].RunID)
}

func TestRunStoreStatusLifecycle(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()

	r := &model.Run{
		ID: "run-1", ProjectID: "p1", ExperimentID: "exp-1",
		Status: model.StatusPending,
		Config: &model.RunConfig{
			ID: "cfg-1", ProjectID: "p1", ExperimentID: "exp-1",
			Validation: &model.StageConfig{Enable: true, Library: "duckdb"},
		},
	}
	require.NoError(t, s.Runs.Save(ctx, r))

	r.Status = model.StatusRunning
	require.NoError(t, s.Runs.UpdateStatus(ctx, r))

	r.Status = model.StatusSuccess
	r.ValidationResult = model.StatusSuccess
	require.NoError(t, s.Runs.UpdateStatus(ctx, r))

	got, err := s.Runs.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuccess, got.Status)
	assert.Equal(t, model.StatusSuccess, got.ValidationResult)
	require.NotNil(t, got.Config)
	assert.Equal(t, "duckdb", got.Config.Validation.Library)
}
