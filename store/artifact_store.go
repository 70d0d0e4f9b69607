package store

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/valstore/valstore/errors"
	"github.com/valstore/valstore/model"
)

const (
	artifactColumns = "id, project_id, experiment_id, run_id, name, uri, author"

	artifactInsertQuery = `
		INSERT INTO artifact_metadata (` + artifactColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	artifactUpdateQuery = `
		UPDATE artifact_metadata SET name = ?, uri = ?, author = ?
		WHERE id = ?`

	artifactSelectQuery = `
		SELECT ` + artifactColumns + ` FROM artifact_metadata WHERE id = ?`
)

// ArtifactMetadataStore persists artifact pointers. Unlike the other
// run-scoped collections a run may own any number of artifacts, so the
// key tuple carries no uniqueness constraint here.
type ArtifactMetadataStore struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// Save inserts a new artifact pointer.
func (s *ArtifactMetadataStore) Save(ctx context.Context, a *model.ArtifactMetadata) error {
	_, err := s.db.ExecContext(ctx, artifactInsertQuery,
		a.ID, a.ProjectID, a.ExperimentID, a.RunID, a.Name, a.URI, a.Author)
	if err != nil {
		return errors.Wrapf(mapSQLiteErr(err), "failed to save artifact metadata %s", a.Name)
	}
	return nil
}

// Update rewrites the mutable fields of an existing artifact pointer.
func (s *ArtifactMetadataStore) Update(ctx context.Context, a *model.ArtifactMetadata) error {
	res, err := s.db.ExecContext(ctx, artifactUpdateQuery, a.Name, a.URI, a.Author, a.ID)
	if err != nil {
		return errors.Wrapf(err, "failed to update artifact metadata %s", a.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("artifact metadata %s was not found", a.ID)
	}
	return nil
}

func (s *ArtifactMetadataStore) scan(row interface{ Scan(...interface{}) error }) (*model.ArtifactMetadata, error) {
	var a model.ArtifactMetadata
	var author sql.NullString
	if err := row.Scan(&a.ID, &a.ProjectID, &a.ExperimentID, &a.RunID, &a.Name, &a.URI, &author); err != nil {
		return nil, err
	}
	a.Author = author.String
	return &a, nil
}

// Get fetches an artifact pointer by ID.
func (s *ArtifactMetadataStore) Get(ctx context.Context, id string) (*model.ArtifactMetadata, error) {
	a, err := s.scan(s.db.QueryRowContext(ctx, artifactSelectQuery, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("artifact metadata %s was not found", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get artifact metadata %s", id)
	}
	return a, nil
}

// ListByFilter returns artifact pointers matching the key filter, ordered
// by name for stable output.
func (s *ArtifactMetadataStore) ListByFilter(ctx context.Context, f Filter) ([]model.ArtifactMetadata, error) {
	qb, err := filterQuery(f)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + artifactColumns + " FROM artifact_metadata WHERE " + qb.build() + " ORDER BY name, id"
	rows, err := s.db.QueryContext(ctx, query, qb.args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list artifact metadata")
	}
	defer rows.Close()

	var out []model.ArtifactMetadata
	for rows.Next() {
		a, err := s.scan(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan artifact metadata row")
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// DeleteByID removes an artifact pointer.
func (s *ArtifactMetadataStore) DeleteByID(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM artifact_metadata WHERE id = ?", id)
	if err != nil {
		return errors.Wrapf(err, "failed to delete artifact metadata %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("artifact metadata %s was not found", id)
	}
	return nil
}

// DeleteByFilter removes every artifact pointer matching the key filter.
func (s *ArtifactMetadataStore) DeleteByFilter(ctx context.Context, f Filter) error {
	qb, err := filterQuery(f)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, "DELETE FROM artifact_metadata WHERE "+qb.build(), qb.args...)
	if err != nil {
		return errors.Wrap(err, "failed to delete artifact metadata by filter")
	}
	return nil
}
