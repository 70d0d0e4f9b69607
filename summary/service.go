package summary

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/valstore/valstore/errors"
	"github.com/valstore/valstore/model"
	"github.com/valstore/valstore/store"
)

const (
	// RecentRuns is the sentinel accepted in place of explicit metadata IDs.
	RecentRuns = "recent"

	// recentLimit caps how many runs the sentinel expands to.
	recentLimit = 5
)

// Service answers summary and comparison reads.
type Service struct {
	stores  *store.Stores
	builder *Builder
	logger  *zap.SugaredLogger
}

// NewService creates a summary service over the given store set.
func NewService(stores *store.Stores, logger *zap.SugaredLogger) *Service {
	return &Service{
		stores:  stores,
		builder: NewBuilder(stores, logger),
		logger:  logger,
	}
}

// GetRunSummary assembles the summary for one run, addressed by its key
// tuple. Fails with the not-found kind when the run has no metadata
// document.
func (s *Service) GetRunSummary(ctx context.Context, projectID, experimentID, runID string) (*model.RunSummary, error) {
	return s.builder.BySummaryKey(ctx, projectID, experimentID, runID)
}

// GetRunSummaryByMetadataID assembles the summary anchored at one
// metadata document.
func (s *Service) GetRunSummaryByMetadataID(ctx context.Context, id string) (*model.RunSummary, error) {
	meta, err := s.stores.RunMetadata.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.builder.Build(ctx, meta)
}

// ListRecentRunSummaries assembles summaries for the experiment's most
// recently created runs, newest first.
func (s *Service) ListRecentRunSummaries(ctx context.Context, projectID, experimentID string) ([]model.RunSummary, error) {
	metas, err := s.stores.RunMetadata.ListRecentByExperiment(ctx, projectID, experimentID, recentLimit)
	if err != nil {
		return nil, err
	}
	return s.buildAll(ctx, metas)
}

// CompareRuns assembles a side-by-side comparison of runs within one
// experiment. IDs address RunMetadata documents; the single sentinel
// value "recent" selects the experiment's newest runs instead. Explicit
// selections need at least two IDs, and every selected run must belong
// to the addressed experiment.
func (s *Service) CompareRuns(ctx context.Context, projectID, experimentID string, ids []string) (*model.RunComparison, error) {
	metas, err := s.resolveComparison(ctx, projectID, experimentID, ids)
	if err != nil {
		return nil, err
	}

	summaries, err := s.buildAll(ctx, metas)
	if err != nil {
		return nil, err
	}

	metaIDs := make([]string, 0, len(summaries))
	runIDs := make([]string, 0, len(summaries))
	for _, sum := range summaries {
		metaIDs = append(metaIDs, sum.ID)
		runIDs = append(runIDs, sum.RunID)
	}

	return &model.RunComparison{
		ID:             strings.Join(metaIDs, ","),
		ProjectID:      projectID,
		ExperimentID:   experimentID,
		ComparedRunIDs: runIDs,
		Runs:           summaries,
	}, nil
}

func (s *Service) resolveComparison(ctx context.Context, projectID, experimentID string, ids []string) ([]model.RunMetadata, error) {
	if projectID == "" || experimentID == "" {
		return nil, errors.NewInvalidArgument("comparison requires a project ID and an experiment ID")
	}

	if len(ids) == 1 && ids[0] == RecentRuns {
		metas, err := s.stores.RunMetadata.ListRecentByExperiment(ctx, projectID, experimentID, recentLimit)
		if err != nil {
			return nil, err
		}
		if len(metas) == 0 {
			return nil, errors.NewNotFound("experiment %s has no runs to compare", experimentID)
		}
		return metas, nil
	}

	if len(ids) < 2 {
		return nil, errors.NewInvalidArgument("comparison needs at least two run metadata IDs or %q", RecentRuns)
	}

	metas := make([]model.RunMetadata, 0, len(ids))
	for _, id := range ids {
		meta, err := s.stores.RunMetadata.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if meta.ProjectID != projectID || meta.ExperimentID != experimentID {
			return nil, errors.NewInvalidArgument(
				"run metadata %s belongs to experiment %s/%s, not %s/%s",
				id, meta.ProjectID, meta.ExperimentID, projectID, experimentID)
		}
		metas = append(metas, *meta)
	}

	sort.Slice(metas, func(i, j int) bool { return metas[i].Created.After(metas[j].Created) })
	return metas, nil
}

// buildAll assembles summaries concurrently, preserving input order.
func (s *Service) buildAll(ctx context.Context, metas []model.RunMetadata) ([]model.RunSummary, error) {
	out := make([]model.RunSummary, len(metas))
	g, ctx := errgroup.WithContext(ctx)
	for i := range metas {
		g.Go(func() error {
			sum, err := s.builder.Build(ctx, &metas[i])
			if err != nil {
				return err
			}
			out[i] = *sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
