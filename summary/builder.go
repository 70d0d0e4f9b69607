// Package summary assembles run summaries and run comparisons on read.
//
// A run's documents live in separate collections correlated only by the
// (projectId, experimentId, runId) key tuple. The builder fans out to
// every sibling collection and joins whatever exists; absent siblings
// are not an error.
package summary

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/valstore/valstore/errors"
	"github.com/valstore/valstore/model"
	"github.com/valstore/valstore/store"
)

// Builder joins one run's sibling documents into a RunSummary.
type Builder struct {
	stores *store.Stores
	logger *zap.SugaredLogger
}

// NewBuilder creates a summary builder over the given store set.
func NewBuilder(stores *store.Stores, logger *zap.SugaredLogger) *Builder {
	return &Builder{stores: stores, logger: logger}
}

// Build assembles the summary anchored at meta. Sibling lookups run
// concurrently; a missing sibling leaves its slot nil, any other failure
// fails the whole build.
func (b *Builder) Build(ctx context.Context, meta *model.RunMetadata) (*model.RunSummary, error) {
	s := &model.RunSummary{
		ID:           meta.ID,
		ProjectID:    meta.ProjectID,
		ExperimentID: meta.ExperimentID,
		RunID:        meta.RunID,
		Created:      meta.Created,
		Metadata:     meta,
	}

	f := store.Filter{ProjectID: meta.ProjectID, ExperimentID: meta.ExperimentID, RunID: meta.RunID}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		envs, err := b.stores.Environments.ListByFilter(ctx, f)
		if err != nil {
			return err
		}
		s.Environment = b.pickEnvironment(meta.RunID, envs)
		return nil
	})

	g.Go(func() error {
		artifacts, err := b.stores.Artifacts.ListByFilter(ctx, f)
		if err != nil {
			return err
		}
		s.Artifacts = artifacts
		return nil
	})

	g.Go(func() error {
		profiles, err := b.stores.DataProfiles.ListByFilter(ctx, f)
		if err != nil {
			return err
		}
		if len(profiles) > 0 {
			b.warnDuplicates(meta.RunID, "data profile", len(profiles))
			s.DataProfile = &profiles[0]
		}
		return nil
	})

	g.Go(func() error {
		reports, err := b.stores.ValidationReports.ListByFilter(ctx, f)
		if err != nil {
			return err
		}
		if len(reports) > 0 {
			b.warnDuplicates(meta.RunID, "validation report", len(reports))
			s.ValidationReport = &reports[0]
		}
		return nil
	})

	g.Go(func() error {
		schemas, err := b.stores.DataSchemas.ListByFilter(ctx, f)
		if err != nil {
			return err
		}
		if len(schemas) > 0 {
			b.warnDuplicates(meta.RunID, "data schema", len(schemas))
			s.DataSchema = &schemas[0]
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s, nil
}

// BySummaryKey looks up the anchor metadata document for the key tuple
// and builds its summary. A run without metadata does not exist as far
// as summaries are concerned.
func (b *Builder) BySummaryKey(ctx context.Context, projectID, experimentID, runID string) (*model.RunSummary, error) {
	metas, err := b.stores.RunMetadata.ListByFilter(ctx, store.Filter{
		ProjectID:    projectID,
		ExperimentID: experimentID,
		RunID:        runID,
	})
	if err != nil {
		return nil, err
	}
	if len(metas) == 0 {
		return nil, errors.NewNotFound("run %s was not found", runID)
	}
	return b.Build(ctx, &metas[0])
}

func (b *Builder) pickEnvironment(runID string, envs []model.RunEnvironment) *model.RunEnvironment {
	if len(envs) == 0 {
		return nil
	}
	b.warnDuplicates(runID, "environment", len(envs))
	return &envs[0]
}

func (b *Builder) warnDuplicates(runID, kind string, n int) {
	if n > 1 {
		b.logger.Warnw("Multiple documents for run, using first",
			"run_id", runID,
			"document", kind,
			"count", n,
		)
	}
}
