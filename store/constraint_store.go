package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/valstore/valstore/errors"
	"github.com/valstore/valstore/model"
	"github.com/valstore/valstore/typed"
)

const (
	constraintColumns = "id, project_id, experiment_id, name, title, description, resources, weight, type, body"

	constraintInsertQuery = `
		INSERT INTO constraints (` + constraintColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	constraintUpdateQuery = `
		UPDATE constraints SET title = ?, description = ?, resources = ?, weight = ?, type = ?, body = ?
		WHERE id = ?`

	constraintSelectQuery = `
		SELECT ` + constraintColumns + ` FROM constraints WHERE id = ?`

	constraintSelectByNameQuery = `
		SELECT ` + constraintColumns + ` FROM constraints
		WHERE project_id = ? AND experiment_id = ? AND name = ?`

	constraintDeleteQuery = `
		DELETE FROM constraints WHERE id = ?`
)

// ConstraintStore persists Constraint entities. The typed body crosses
// this boundary through the variant codec: encoded to its generic map
// form on write, resolved by discriminator on read.
type ConstraintStore struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

func (s *ConstraintStore) bodyJSON(c *model.Constraint) (string, error) {
	if c.Body == nil {
		return "", errors.NewInvalidArgument("constraint %s has no typed body", c.Name)
	}
	m, err := typed.Encode(c.Body)
	if err != nil {
		return "", err
	}
	return marshalJSON(m)
}

// Save inserts a new constraint. A duplicate (projectId, experimentId,
// name) fails with the already-exists kind.
func (s *ConstraintStore) Save(ctx context.Context, c *model.Constraint) error {
	body, err := s.bodyJSON(c)
	if err != nil {
		return err
	}
	resources, err := marshalJSON(c.Resources)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, constraintInsertQuery,
		c.ID, c.ProjectID, c.ExperimentID, c.Name, c.Title, c.Description,
		resources, c.Weight, c.Body.TypeLabel(), body)
	if err != nil {
		return errors.Wrapf(mapSQLiteErr(err), "failed to save constraint %s", c.Name)
	}
	return nil
}

// Update rewrites the mutable fields of an existing constraint.
func (s *ConstraintStore) Update(ctx context.Context, c *model.Constraint) error {
	body, err := s.bodyJSON(c)
	if err != nil {
		return err
	}
	resources, err := marshalJSON(c.Resources)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, constraintUpdateQuery,
		c.Title, c.Description, resources, c.Weight, c.Body.TypeLabel(), body, c.ID)
	if err != nil {
		return errors.Wrapf(err, "failed to update constraint %s", c.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("constraint %s was not found", c.ID)
	}
	return nil
}

func (s *ConstraintStore) scan(row interface{ Scan(...interface{}) error }) (*model.Constraint, error) {
	var c model.Constraint
	var title, description, resources, body sql.NullString

	if err := row.Scan(&c.ID, &c.ProjectID, &c.ExperimentID, &c.Name,
		&title, &description, &resources, &c.Weight, &c.Type, &body); err != nil {
		return nil, err
	}

	c.Title = title.String
	c.Description = description.String

	parsed, err := unmarshalStrings(resources)
	if err != nil {
		return nil, err
	}
	c.Resources = parsed

	if body.Valid && body.String != "" {
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(body.String), &m); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal constraint body column")
		}
		decoded, err := typed.DecodeConstraint(m)
		if err != nil {
			return nil, err
		}
		c.Body = decoded
	}
	return &c, nil
}

// Get fetches a constraint by ID.
func (s *ConstraintStore) Get(ctx context.Context, id string) (*model.Constraint, error) {
	c, err := s.scan(s.db.QueryRowContext(ctx, constraintSelectQuery, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("constraint %s was not found", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get constraint %s", id)
	}
	return c, nil
}

// GetByName fetches a constraint by its scope and name.
func (s *ConstraintStore) GetByName(ctx context.Context, projectID, experimentID, name string) (*model.Constraint, error) {
	c, err := s.scan(s.db.QueryRowContext(ctx, constraintSelectByNameQuery, projectID, experimentID, name))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("constraint %s under experiment %s was not found", name, experimentID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get constraint %s/%s/%s", projectID, experimentID, name)
	}
	return c, nil
}

// ListByFilter returns constraints matching the key filter.
func (s *ConstraintStore) ListByFilter(ctx context.Context, f Filter) ([]model.Constraint, error) {
	qb, err := filterQuery(f)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + constraintColumns + " FROM constraints WHERE " + qb.build() + " ORDER BY name"
	rows, err := s.db.QueryContext(ctx, query, qb.args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list constraints")
	}
	defer rows.Close()

	var out []model.Constraint
	for rows.Next() {
		c, err := s.scan(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan constraint row")
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// DeleteByID removes a constraint.
func (s *ConstraintStore) DeleteByID(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, constraintDeleteQuery, id)
	if err != nil {
		return errors.Wrapf(err, "failed to delete constraint %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("constraint %s was not found", id)
	}
	return nil
}

// DeleteByFilter removes every constraint matching the key filter.
func (s *ConstraintStore) DeleteByFilter(ctx context.Context, f Filter) error {
	qb, err := filterQuery(f)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, "DELETE FROM constraints WHERE "+qb.build(), qb.args...)
	if err != nil {
		return errors.Wrap(err, "failed to delete constraints by filter")
	}
	return nil
}
