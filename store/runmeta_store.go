package store

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/valstore/valstore/errors"
	"github.com/valstore/valstore/model"
)

const (
	runMetadataColumns = "id, project_id, experiment_id, run_id, experiment_name, author, created, contents"

	runMetadataInsertQuery = `
		INSERT INTO run_metadata (` + runMetadataColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	runMetadataUpdateQuery = `
		UPDATE run_metadata SET experiment_name = ?, author = ?, contents = ?
		WHERE id = ?`

	runMetadataSelectQuery = `
		SELECT ` + runMetadataColumns + ` FROM run_metadata WHERE id = ?`

	runMetadataRecentQuery = `
		SELECT ` + runMetadataColumns + ` FROM run_metadata
		WHERE project_id = ? AND experiment_id = ?
		ORDER BY created DESC
		LIMIT ?`
)

// RunMetadataStore persists the anchor document of each run's document
// set. The unique index on the key tuple guarantees at most one anchor
// per run.
type RunMetadataStore struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// Save inserts a run metadata document. A duplicate key tuple fails with
// the already-exists kind.
func (s *RunMetadataStore) Save(ctx context.Context, m *model.RunMetadata) error {
	contents, err := marshalJSON(m.Contents)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, runMetadataInsertQuery,
		m.ID, m.ProjectID, m.ExperimentID, m.RunID, m.ExperimentName,
		m.Author, m.Created.UTC().Format(timeFormat), contents)
	if err != nil {
		return errors.Wrapf(mapSQLiteErr(err), "failed to save run metadata for run %s", m.RunID)
	}
	return nil
}

// Update rewrites the mutable fields of an existing document. The key
// tuple and creation timestamp are immutable.
func (s *RunMetadataStore) Update(ctx context.Context, m *model.RunMetadata) error {
	contents, err := marshalJSON(m.Contents)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, runMetadataUpdateQuery, m.ExperimentName, m.Author, contents, m.ID)
	if err != nil {
		return errors.Wrapf(err, "failed to update run metadata %s", m.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("run metadata %s was not found", m.ID)
	}
	return nil
}

func (s *RunMetadataStore) scan(row interface{ Scan(...interface{}) error }) (*model.RunMetadata, error) {
	var m model.RunMetadata
	var experimentName, author, contents sql.NullString
	var created string

	if err := row.Scan(&m.ID, &m.ProjectID, &m.ExperimentID, &m.RunID,
		&experimentName, &author, &created, &contents); err != nil {
		return nil, err
	}

	m.ExperimentName = experimentName.String
	m.Author = author.String

	ts, err := parseTime(created)
	if err != nil {
		return nil, err
	}
	m.Created = ts

	parsed, err := unmarshalContents(contents)
	if err != nil {
		return nil, err
	}
	m.Contents = parsed
	return &m, nil
}

// Get fetches a run metadata document by ID.
func (s *RunMetadataStore) Get(ctx context.Context, id string) (*model.RunMetadata, error) {
	m, err := s.scan(s.db.QueryRowContext(ctx, runMetadataSelectQuery, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("document with ID %s was not found", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get run metadata %s", id)
	}
	return m, nil
}

// ListByFilter returns documents matching the key filter, ordered by
// creation timestamp descending.
func (s *RunMetadataStore) ListByFilter(ctx context.Context, f Filter) ([]model.RunMetadata, error) {
	qb, err := filterQuery(f)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + runMetadataColumns + " FROM run_metadata WHERE " + qb.build() + " ORDER BY created DESC"
	rows, err := s.db.QueryContext(ctx, query, qb.args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list run metadata")
	}
	defer rows.Close()

	var out []model.RunMetadata
	for rows.Next() {
		m, err := s.scan(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan run metadata row")
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// ListRecentByExperiment returns the most recently created documents for
// an experiment, newest first, capped at limit.
func (s *RunMetadataStore) ListRecentByExperiment(ctx context.Context, projectID, experimentID string, limit int) ([]model.RunMetadata, error) {
	rows, err := s.db.QueryContext(ctx, runMetadataRecentQuery, projectID, experimentID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list recent run metadata")
	}
	defer rows.Close()

	var out []model.RunMetadata
	for rows.Next() {
		m, err := s.scan(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan run metadata row")
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// DeleteByID removes a run metadata document.
func (s *RunMetadataStore) DeleteByID(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM run_metadata WHERE id = ?", id)
	if err != nil {
		return errors.Wrapf(err, "failed to delete run metadata %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("run metadata %s was not found", id)
	}
	return nil
}

// DeleteByFilter removes every document matching the key filter.
func (s *RunMetadataStore) DeleteByFilter(ctx context.Context, f Filter) error {
	qb, err := filterQuery(f)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, "DELETE FROM run_metadata WHERE "+qb.build(), qb.args...)
	if err != nil {
		return errors.Wrap(err, "failed to delete run metadata by filter")
	}
	return nil
}
