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

// Stores for the data registry collections. All three are plain
// project-scoped CRUD; uniqueness rides on the UNIQUE indexes.

const (
	dataPackageInsertQuery = `
		INSERT INTO data_packages (id, project_id, name, title, type)
		VALUES (?, ?, ?, ?, ?)`

	dataPackageUpdateQuery = `
		UPDATE data_packages SET title = ?, type = ? WHERE id = ?`

	dataPackageColumns = `id, project_id, name, title, type`

	dataStoreInsertQuery = `
		INSERT INTO data_stores (id, project_id, name, title, path, config, is_default)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	dataStoreUpdateQuery = `
		UPDATE data_stores SET title = ?, path = ?, config = ?, is_default = ? WHERE id = ?`

	dataStoreColumns = `id, project_id, name, title, path, config, is_default`

	dataResourceInsertQuery = `
		INSERT INTO data_resources (id, project_id, package_name, store_id, name, title, description, type, schema, dataset_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	dataResourceUpdateQuery = `
		UPDATE data_resources SET store_id = ?, title = ?, description = ?, type = ?, schema = ?, dataset_path = ? WHERE id = ?`

	dataResourceColumns = `id, project_id, package_name, store_id, name, title, description, type, schema, dataset_path`
)

// DataPackageStore persists DataPackage entities.
type DataPackageStore struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

func (s *DataPackageStore) Save(ctx context.Context, p *model.DataPackage) error {
	_, err := s.db.ExecContext(ctx, dataPackageInsertQuery, p.ID, p.ProjectID, p.Name, p.Title, p.Type)
	if err != nil {
		return errors.Wrapf(mapSQLiteErr(err), "failed to save data package %s", p.Name)
	}
	return nil
}

func (s *DataPackageStore) Update(ctx context.Context, p *model.DataPackage) error {
	res, err := s.db.ExecContext(ctx, dataPackageUpdateQuery, p.Title, p.Type, p.ID)
	if err != nil {
		return errors.Wrapf(err, "failed to update data package %s", p.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("data package %s was not found", p.ID)
	}
	return nil
}

func (s *DataPackageStore) Get(ctx context.Context, id string) (*model.DataPackage, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+dataPackageColumns+` FROM data_packages WHERE id = ?`, id)
	p, err := scanDataPackage(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("data package %s was not found", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get data package %s", id)
	}
	return p, nil
}

func (s *DataPackageStore) GetByName(ctx context.Context, projectID, name string) (*model.DataPackage, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+dataPackageColumns+` FROM data_packages WHERE project_id = ? AND name = ?`, projectID, name)
	p, err := scanDataPackage(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("data package %s was not found in project %s", name, projectID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get data package %s", name)
	}
	return p, nil
}

func (s *DataPackageStore) ListByProject(ctx context.Context, projectID string) ([]model.DataPackage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+dataPackageColumns+` FROM data_packages WHERE project_id = ? ORDER BY name`, projectID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list data packages")
	}
	defer rows.Close()

	var out []model.DataPackage
	for rows.Next() {
		p, err := scanDataPackage(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan data package row")
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *DataPackageStore) DeleteByID(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM data_packages WHERE id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "failed to delete data package %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("data package %s was not found", id)
	}
	return nil
}

func (s *DataPackageStore) DeleteByProject(ctx context.Context, projectID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM data_packages WHERE project_id = ?`, projectID)
	return errors.Wrapf(err, "failed to delete data packages of project %s", projectID)
}

func scanDataPackage(row interface{ Scan(...interface{}) error }) (*model.DataPackage, error) {
	var p model.DataPackage
	var title, typ sql.NullString
	if err := row.Scan(&p.ID, &p.ProjectID, &p.Name, &title, &typ); err != nil {
		return nil, err
	}
	p.Title = title.String
	p.Type = typ.String
	return &p, nil
}

// DataStoreStore persists DataStore entities.
type DataStoreStore struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

func (s *DataStoreStore) Save(ctx context.Context, d *model.DataStore) error {
	config, err := marshalJSON(d.Config)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, dataStoreInsertQuery,
		d.ID, d.ProjectID, d.Name, d.Title, d.Path, config, d.IsDefault)
	if err != nil {
		return errors.Wrapf(mapSQLiteErr(err), "failed to save data store %s", d.Name)
	}
	return nil
}

func (s *DataStoreStore) Update(ctx context.Context, d *model.DataStore) error {
	config, err := marshalJSON(d.Config)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, dataStoreUpdateQuery, d.Title, d.Path, config, d.IsDefault, d.ID)
	if err != nil {
		return errors.Wrapf(err, "failed to update data store %s", d.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("data store %s was not found", d.ID)
	}
	return nil
}

func (s *DataStoreStore) Get(ctx context.Context, id string) (*model.DataStore, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+dataStoreColumns+` FROM data_stores WHERE id = ?`, id)
	d, err := scanDataStore(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("data store %s was not found", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get data store %s", id)
	}
	return d, nil
}

func (s *DataStoreStore) GetByName(ctx context.Context, projectID, name string) (*model.DataStore, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+dataStoreColumns+` FROM data_stores WHERE project_id = ? AND name = ?`, projectID, name)
	d, err := scanDataStore(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("data store %s was not found in project %s", name, projectID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get data store %s", name)
	}
	return d, nil
}

func (s *DataStoreStore) ListByProject(ctx context.Context, projectID string) ([]model.DataStore, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+dataStoreColumns+` FROM data_stores WHERE project_id = ? ORDER BY name`, projectID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list data stores")
	}
	defer rows.Close()

	var out []model.DataStore
	for rows.Next() {
		d, err := scanDataStore(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan data store row")
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (s *DataStoreStore) DeleteByID(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM data_stores WHERE id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "failed to delete data store %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("data store %s was not found", id)
	}
	return nil
}

func (s *DataStoreStore) DeleteByProject(ctx context.Context, projectID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM data_stores WHERE project_id = ?`, projectID)
	return errors.Wrapf(err, "failed to delete data stores of project %s", projectID)
}

func scanDataStore(row interface{ Scan(...interface{}) error }) (*model.DataStore, error) {
	var d model.DataStore
	var title, path, config sql.NullString
	if err := row.Scan(&d.ID, &d.ProjectID, &d.Name, &title, &path, &config, &d.IsDefault); err != nil {
		return nil, err
	}
	d.Title = title.String
	d.Path = path.String

	contents, err := unmarshalContents(config)
	if err != nil {
		return nil, err
	}
	d.Config = contents
	return &d, nil
}

// DataResourceStore persists DataResource entities. The typed schema
// round-trips through the codec at this boundary.
type DataResourceStore struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

func (s *DataResourceStore) Save(ctx context.Context, d *model.DataResource) error {
	schema, datasetPath, err := resourceColumns(d)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, dataResourceInsertQuery,
		d.ID, d.ProjectID, d.PackageName, d.StoreID, d.Name, d.Title, d.Description, d.Type, schema, datasetPath)
	if err != nil {
		return errors.Wrapf(mapSQLiteErr(err), "failed to save data resource %s", d.Name)
	}
	return nil
}

func (s *DataResourceStore) Update(ctx context.Context, d *model.DataResource) error {
	schema, datasetPath, err := resourceColumns(d)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, dataResourceUpdateQuery,
		d.StoreID, d.Title, d.Description, d.Type, schema, datasetPath, d.ID)
	if err != nil {
		return errors.Wrapf(err, "failed to update data resource %s", d.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("data resource %s was not found", d.ID)
	}
	return nil
}

func (s *DataResourceStore) Get(ctx context.Context, id string) (*model.DataResource, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+dataResourceColumns+` FROM data_resources WHERE id = ?`, id)
	d, err := scanDataResource(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("data resource %s was not found", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get data resource %s", id)
	}
	return d, nil
}

func (s *DataResourceStore) GetByName(ctx context.Context, projectID, packageName, name string) (*model.DataResource, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+dataResourceColumns+` FROM data_resources WHERE project_id = ? AND package_name = ? AND name = ?`,
		projectID, packageName, name)
	d, err := scanDataResource(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("data resource %s was not found in package %s", name, packageName)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get data resource %s", name)
	}
	return d, nil
}

func (s *DataResourceStore) ListByProject(ctx context.Context, projectID string) ([]model.DataResource, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+dataResourceColumns+` FROM data_resources WHERE project_id = ? ORDER BY package_name, name`, projectID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list data resources")
	}
	defer rows.Close()

	var out []model.DataResource
	for rows.Next() {
		d, err := scanDataResource(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan data resource row")
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (s *DataResourceStore) DeleteByID(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM data_resources WHERE id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "failed to delete data resource %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("data resource %s was not found", id)
	}
	return nil
}

func (s *DataResourceStore) DeleteByProject(ctx context.Context, projectID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM data_resources WHERE project_id = ?`, projectID)
	return errors.Wrapf(err, "failed to delete data resources of project %s", projectID)
}

func resourceColumns(d *model.DataResource) (schema, datasetPath string, err error) {
	if d.Schema != nil {
		m, err := typed.Encode(d.Schema)
		if err != nil {
			return "", "", err
		}
		raw, err := json.Marshal(m)
		if err != nil {
			return "", "", errors.Wrap(err, "failed to marshal schema column")
		}
		schema = string(raw)
	}
	if d.Dataset != nil {
		datasetPath = d.Dataset.Path
	}
	return schema, datasetPath, nil
}

func scanDataResource(row interface{ Scan(...interface{}) error }) (*model.DataResource, error) {
	var d model.DataResource
	var storeID, title, description, typ, schema, datasetPath sql.NullString
	if err := row.Scan(&d.ID, &d.ProjectID, &d.PackageName, &storeID, &d.Name,
		&title, &description, &typ, &schema, &datasetPath); err != nil {
		return nil, err
	}
	d.StoreID = storeID.String
	d.Title = title.String
	d.Description = description.String
	d.Type = typ.String

	if schema.Valid && schema.String != "" {
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(schema.String), &m); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal schema column")
		}
		decoded, err := typed.DecodeSchema(m)
		if err != nil {
			return nil, err
		}
		d.Schema = decoded
	}
	if datasetPath.Valid && datasetPath.String != "" {
		d.Dataset = &model.Dataset{Path: datasetPath.String}
	}
	return &d, nil
}
