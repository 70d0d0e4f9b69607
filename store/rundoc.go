package store

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/valstore/valstore/errors"
)

// The four contents-shaped run-scoped collections (environments,
// profiles, validation reports, data schemas) share one table layout and
// one access path. docTable implements that path once, parameterized by
// table name; the typed stores in rundoc_stores.go convert rows to their
// model types.

const runDocColumns = "id, project_id, experiment_id, run_id, resource_name, constraint_name, valid, errors, schema, author, contents"

// runDocRow is the neutral row shape of a run-scoped document table.
type runDocRow struct {
	ID             string
	ProjectID      string
	ExperimentID   string
	RunID          string
	ResourceName   sql.NullString
	ConstraintName sql.NullString
	Valid          sql.NullBool
	Errors         sql.NullString
	Schema         sql.NullString
	Author         sql.NullString
	Contents       sql.NullString
}

type docTable struct {
	db     *sql.DB
	table  string
	logger *zap.SugaredLogger
}

func (t *docTable) insert(ctx context.Context, r *runDocRow) error {
	query := "INSERT INTO " + t.table + " (" + runDocColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := t.db.ExecContext(ctx, query,
		r.ID, r.ProjectID, r.ExperimentID, r.RunID,
		r.ResourceName, r.ConstraintName, r.Valid, r.Errors, r.Schema, r.Author, r.Contents)
	if err != nil {
		return errors.Wrapf(mapSQLiteErr(err), "failed to save document in %s", t.table)
	}
	return nil
}

func (t *docTable) update(ctx context.Context, r *runDocRow) error {
	query := "UPDATE " + t.table + " SET resource_name = ?, constraint_name = ?, valid = ?, errors = ?, schema = ?, author = ?, contents = ? WHERE id = ?"
	res, err := t.db.ExecContext(ctx, query,
		r.ResourceName, r.ConstraintName, r.Valid, r.Errors, r.Schema, r.Author, r.Contents, r.ID)
	if err != nil {
		return errors.Wrapf(err, "failed to update document %s in %s", r.ID, t.table)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("document %s was not found in %s", r.ID, t.table)
	}
	return nil
}

func scanRunDoc(row interface{ Scan(...interface{}) error }) (*runDocRow, error) {
	var r runDocRow
	err := row.Scan(&r.ID, &r.ProjectID, &r.ExperimentID, &r.RunID,
		&r.ResourceName, &r.ConstraintName, &r.Valid, &r.Errors, &r.Schema, &r.Author, &r.Contents)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (t *docTable) get(ctx context.Context, id string) (*runDocRow, error) {
	query := "SELECT " + runDocColumns + " FROM " + t.table + " WHERE id = ?"
	r, err := scanRunDoc(t.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("document with ID %s was not found", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get document %s from %s", id, t.table)
	}
	return r, nil
}

// listByFilter returns matching rows ordered by id so duplicate-tuple
// handling upstream is deterministic.
func (t *docTable) listByFilter(ctx context.Context, f Filter) ([]runDocRow, error) {
	qb, err := filterQuery(f)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + runDocColumns + " FROM " + t.table + " WHERE " + qb.build() + " ORDER BY id"
	rows, err := t.db.QueryContext(ctx, query, qb.args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list documents from %s", t.table)
	}
	defer rows.Close()

	var out []runDocRow
	for rows.Next() {
		r, err := scanRunDoc(rows)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to scan row from %s", t.table)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (t *docTable) deleteByID(ctx context.Context, id string) error {
	res, err := t.db.ExecContext(ctx, "DELETE FROM "+t.table+" WHERE id = ?", id)
	if err != nil {
		return errors.Wrapf(err, "failed to delete document %s from %s", id, t.table)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("document %s was not found in %s", id, t.table)
	}
	return nil
}

func (t *docTable) deleteByFilter(ctx context.Context, f Filter) error {
	qb, err := filterQuery(f)
	if err != nil {
		return err
	}
	_, err = t.db.ExecContext(ctx, "DELETE FROM "+t.table+" WHERE "+qb.build(), qb.args...)
	if err != nil {
		return errors.Wrapf(err, "failed to delete documents from %s", t.table)
	}
	return nil
}
