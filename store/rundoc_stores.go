package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/valstore/valstore/errors"
	"github.com/valstore/valstore/model"
	"github.com/valstore/valstore/typed"
)

// RunEnvironmentStore persists run environment documents.
type RunEnvironmentStore struct {
	docTable
}

func (s *RunEnvironmentStore) toRow(d *model.RunEnvironment) (*runDocRow, error) {
	contents, err := marshalJSON(d.Contents)
	if err != nil {
		return nil, err
	}
	return &runDocRow{
		ID: d.ID, ProjectID: d.ProjectID, ExperimentID: d.ExperimentID, RunID: d.RunID,
		Author:   sql.NullString{String: d.Author, Valid: d.Author != ""},
		Contents: sql.NullString{String: contents, Valid: contents != ""},
	}, nil
}

func (s *RunEnvironmentStore) fromRow(r *runDocRow) (*model.RunEnvironment, error) {
	contents, err := unmarshalContents(r.Contents)
	if err != nil {
		return nil, err
	}
	return &model.RunEnvironment{
		ID: r.ID, ProjectID: r.ProjectID, ExperimentID: r.ExperimentID, RunID: r.RunID,
		Author: r.Author.String, Contents: contents,
	}, nil
}

func (s *RunEnvironmentStore) Save(ctx context.Context, d *model.RunEnvironment) error {
	row, err := s.toRow(d)
	if err != nil {
		return err
	}
	return s.insert(ctx, row)
}

func (s *RunEnvironmentStore) Update(ctx context.Context, d *model.RunEnvironment) error {
	row, err := s.toRow(d)
	if err != nil {
		return err
	}
	return s.update(ctx, row)
}

func (s *RunEnvironmentStore) Get(ctx context.Context, id string) (*model.RunEnvironment, error) {
	row, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.fromRow(row)
}

func (s *RunEnvironmentStore) ListByFilter(ctx context.Context, f Filter) ([]model.RunEnvironment, error) {
	rows, err := s.listByFilter(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]model.RunEnvironment, 0, len(rows))
	for i := range rows {
		d, err := s.fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

func (s *RunEnvironmentStore) DeleteByID(ctx context.Context, id string) error {
	return s.deleteByID(ctx, id)
}

func (s *RunEnvironmentStore) DeleteByFilter(ctx context.Context, f Filter) error {
	return s.deleteByFilter(ctx, f)
}

// RunDataProfileStore persists data profile documents.
type RunDataProfileStore struct {
	docTable
}

func (s *RunDataProfileStore) toRow(d *model.RunDataProfile) (*runDocRow, error) {
	contents, err := marshalJSON(d.Contents)
	if err != nil {
		return nil, err
	}
	return &runDocRow{
		ID: d.ID, ProjectID: d.ProjectID, ExperimentID: d.ExperimentID, RunID: d.RunID,
		ResourceName: sql.NullString{String: d.ResourceName, Valid: d.ResourceName != ""},
		Author:       sql.NullString{String: d.Author, Valid: d.Author != ""},
		Contents:     sql.NullString{String: contents, Valid: contents != ""},
	}, nil
}

func (s *RunDataProfileStore) fromRow(r *runDocRow) (*model.RunDataProfile, error) {
	contents, err := unmarshalContents(r.Contents)
	if err != nil {
		return nil, err
	}
	return &model.RunDataProfile{
		ID: r.ID, ProjectID: r.ProjectID, ExperimentID: r.ExperimentID, RunID: r.RunID,
		ResourceName: r.ResourceName.String, Author: r.Author.String, Contents: contents,
	}, nil
}

func (s *RunDataProfileStore) Save(ctx context.Context, d *model.RunDataProfile) error {
	row, err := s.toRow(d)
	if err != nil {
		return err
	}
	return s.insert(ctx, row)
}

func (s *RunDataProfileStore) Update(ctx context.Context, d *model.RunDataProfile) error {
	row, err := s.toRow(d)
	if err != nil {
		return err
	}
	return s.update(ctx, row)
}

func (s *RunDataProfileStore) Get(ctx context.Context, id string) (*model.RunDataProfile, error) {
	row, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.fromRow(row)
}

func (s *RunDataProfileStore) ListByFilter(ctx context.Context, f Filter) ([]model.RunDataProfile, error) {
	rows, err := s.listByFilter(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]model.RunDataProfile, 0, len(rows))
	for i := range rows {
		d, err := s.fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

func (s *RunDataProfileStore) DeleteByID(ctx context.Context, id string) error {
	return s.deleteByID(ctx, id)
}

func (s *RunDataProfileStore) DeleteByFilter(ctx context.Context, f Filter) error {
	return s.deleteByFilter(ctx, f)
}

// RunValidationReportStore persists validation reports. The typed error
// list crosses the boundary through the variant codec.
type RunValidationReportStore struct {
	docTable
}

func (s *RunValidationReportStore) toRow(d *model.RunValidationReport) (*runDocRow, error) {
	contents, err := marshalJSON(d.Contents)
	if err != nil {
		return nil, err
	}

	var errorsJSON string
	if d.Errors != nil {
		encoded := make([]map[string]interface{}, 0, len(d.Errors))
		for _, e := range d.Errors {
			m, err := typed.Encode(e)
			if err != nil {
				return nil, err
			}
			encoded = append(encoded, m)
		}
		errorsJSON, err = marshalJSON(encoded)
		if err != nil {
			return nil, err
		}
	}

	return &runDocRow{
		ID: d.ID, ProjectID: d.ProjectID, ExperimentID: d.ExperimentID, RunID: d.RunID,
		ConstraintName: sql.NullString{String: d.ConstraintName, Valid: d.ConstraintName != ""},
		Valid:          sql.NullBool{Bool: d.Valid, Valid: true},
		Errors:         sql.NullString{String: errorsJSON, Valid: errorsJSON != ""},
		Author:         sql.NullString{String: d.Author, Valid: d.Author != ""},
		Contents:       sql.NullString{String: contents, Valid: contents != ""},
	}, nil
}

func (s *RunValidationReportStore) fromRow(r *runDocRow) (*model.RunValidationReport, error) {
	contents, err := unmarshalContents(r.Contents)
	if err != nil {
		return nil, err
	}

	var typedErrors []typed.Error
	if r.Errors.Valid && r.Errors.String != "" {
		var raw []map[string]interface{}
		if err := json.Unmarshal([]byte(r.Errors.String), &raw); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal errors column")
		}
		typedErrors, err = typed.DecodeErrorList(raw)
		if err != nil {
			return nil, err
		}
	}

	return &model.RunValidationReport{
		ID: r.ID, ProjectID: r.ProjectID, ExperimentID: r.ExperimentID, RunID: r.RunID,
		ConstraintName: r.ConstraintName.String, Valid: r.Valid.Bool,
		Errors: typedErrors, Author: r.Author.String, Contents: contents,
	}, nil
}

func (s *RunValidationReportStore) Save(ctx context.Context, d *model.RunValidationReport) error {
	row, err := s.toRow(d)
	if err != nil {
		return err
	}
	return s.insert(ctx, row)
}

func (s *RunValidationReportStore) Update(ctx context.Context, d *model.RunValidationReport) error {
	row, err := s.toRow(d)
	if err != nil {
		return err
	}
	return s.update(ctx, row)
}

func (s *RunValidationReportStore) Get(ctx context.Context, id string) (*model.RunValidationReport, error) {
	row, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.fromRow(row)
}

func (s *RunValidationReportStore) ListByFilter(ctx context.Context, f Filter) ([]model.RunValidationReport, error) {
	rows, err := s.listByFilter(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]model.RunValidationReport, 0, len(rows))
	for i := range rows {
		d, err := s.fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

func (s *RunValidationReportStore) DeleteByID(ctx context.Context, id string) error {
	return s.deleteByID(ctx, id)
}

func (s *RunValidationReportStore) DeleteByFilter(ctx context.Context, f Filter) error {
	return s.deleteByFilter(ctx, f)
}

// RunDataSchemaStore persists inferred data schemas. The typed schema
// crosses the boundary through the variant codec.
type RunDataSchemaStore struct {
	docTable
}

func (s *RunDataSchemaStore) toRow(d *model.RunDataSchema) (*runDocRow, error) {
	var schemaJSON string
	if d.Schema != nil {
		m, err := typed.Encode(d.Schema)
		if err != nil {
			return nil, err
		}
		schemaJSON, err = marshalJSON(m)
		if err != nil {
			return nil, err
		}
	}

	return &runDocRow{
		ID: d.ID, ProjectID: d.ProjectID, ExperimentID: d.ExperimentID, RunID: d.RunID,
		ResourceName: sql.NullString{String: d.ResourceName, Valid: d.ResourceName != ""},
		Schema:       sql.NullString{String: schemaJSON, Valid: schemaJSON != ""},
		Author:       sql.NullString{String: d.Author, Valid: d.Author != ""},
	}, nil
}

func (s *RunDataSchemaStore) fromRow(r *runDocRow) (*model.RunDataSchema, error) {
	var schema typed.Schema
	if r.Schema.Valid && r.Schema.String != "" {
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(r.Schema.String), &m); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal schema column")
		}
		decoded, err := typed.DecodeSchema(m)
		if err != nil {
			return nil, err
		}
		schema = decoded
	}

	return &model.RunDataSchema{
		ID: r.ID, ProjectID: r.ProjectID, ExperimentID: r.ExperimentID, RunID: r.RunID,
		ResourceName: r.ResourceName.String, Author: r.Author.String, Schema: schema,
	}, nil
}

func (s *RunDataSchemaStore) Save(ctx context.Context, d *model.RunDataSchema) error {
	row, err := s.toRow(d)
	if err != nil {
		return err
	}
	return s.insert(ctx, row)
}

func (s *RunDataSchemaStore) Update(ctx context.Context, d *model.RunDataSchema) error {
	row, err := s.toRow(d)
	if err != nil {
		return err
	}
	return s.update(ctx, row)
}

func (s *RunDataSchemaStore) Get(ctx context.Context, id string) (*model.RunDataSchema, error) {
	row, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.fromRow(row)
}

func (s *RunDataSchemaStore) ListByFilter(ctx context.Context, f Filter) ([]model.RunDataSchema, error) {
	rows, err := s.listByFilter(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]model.RunDataSchema, 0, len(rows))
	for i := range rows {
		d, err := s.fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

func (s *RunDataSchemaStore) DeleteByID(ctx context.Context, id string) error {
	return s.deleteByID(ctx, id)
}

func (s *RunDataSchemaStore) DeleteByFilter(ctx context.Context, f Filter) error {
	return s.deleteByFilter(ctx, f)
}
