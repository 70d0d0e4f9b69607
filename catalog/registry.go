package catalog

// Data registry lifecycle: the stores, packages and resources that
// describe what an experiment validates. Project-scoped CRUD; resources
// must name an existing package and may reference a store by ID.

import (
	"context"

	"github.com/valstore/valstore/errors"
	"github.com/valstore/valstore/model"
)

// CreateDataPackage stores a new data package. The name must be unique
// within the project.
func (s *Service) CreateDataPackage(ctx context.Context, p *model.DataPackage) error {
	if p.ProjectID == "" || p.Name == "" {
		return errors.NewInvalidArgument("data package requires projectId and name")
	}
	if !model.ValidName(p.Name) {
		return errors.NewInvalidArgument("data package name %q is not a valid name", p.Name)
	}
	if !model.ValidTitle(p.Title) {
		return errors.NewInvalidArgument("data package title %q is not a valid title", p.Title)
	}
	if p.ID == "" {
		p.ID = newID()
	}
	return s.stores.DataPackages.Save(ctx, p)
}

// GetDataPackage fetches a data package by ID.
func (s *Service) GetDataPackage(ctx context.Context, id string) (*model.DataPackage, error) {
	return s.stores.DataPackages.Get(ctx, id)
}

// ListDataPackages returns the project's data packages.
func (s *Service) ListDataPackages(ctx context.Context, projectID string) ([]model.DataPackage, error) {
	return s.stores.DataPackages.ListByProject(ctx, projectID)
}

// UpdateDataPackage rewrites a package's mutable fields (title, type).
func (s *Service) UpdateDataPackage(ctx context.Context, id string, p *model.DataPackage) (*model.DataPackage, error) {
	existing, err := s.stores.DataPackages.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.ValidTitle(p.Title) {
		return nil, errors.NewInvalidArgument("data package title %q is not a valid title", p.Title)
	}
	existing.Title = p.Title
	existing.Type = p.Type
	if err := s.stores.DataPackages.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// DeleteDataPackage removes a data package record. Resources keep their
// package name; they describe data that still exists.
func (s *Service) DeleteDataPackage(ctx context.Context, id string) error {
	return s.stores.DataPackages.DeleteByID(ctx, id)
}

// CreateDataStore stores a new data store. The name must be unique
// within the project.
func (s *Service) CreateDataStore(ctx context.Context, d *model.DataStore) error {
	if d.ProjectID == "" || d.Name == "" {
		return errors.NewInvalidArgument("data store requires projectId and name")
	}
	if !model.ValidName(d.Name) {
		return errors.NewInvalidArgument("data store name %q is not a valid name", d.Name)
	}
	if !model.ValidTitle(d.Title) {
		return errors.NewInvalidArgument("data store title %q is not a valid title", d.Title)
	}
	if d.ID == "" {
		d.ID = newID()
	}
	return s.stores.DataStores.Save(ctx, d)
}

// GetDataStore fetches a data store by ID.
func (s *Service) GetDataStore(ctx context.Context, id string) (*model.DataStore, error) {
	return s.stores.DataStores.Get(ctx, id)
}

// ListDataStores returns the project's data stores.
func (s *Service) ListDataStores(ctx context.Context, projectID string) ([]model.DataStore, error) {
	return s.stores.DataStores.ListByProject(ctx, projectID)
}

// UpdateDataStore rewrites a store's mutable fields.
func (s *Service) UpdateDataStore(ctx context.Context, id string, d *model.DataStore) (*model.DataStore, error) {
	existing, err := s.stores.DataStores.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.ValidTitle(d.Title) {
		return nil, errors.NewInvalidArgument("data store title %q is not a valid title", d.Title)
	}
	existing.Title = d.Title
	existing.Path = d.Path
	existing.Config = d.Config
	existing.IsDefault = d.IsDefault
	if err := s.stores.DataStores.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// DeleteDataStore removes a data store record.
func (s *Service) DeleteDataStore(ctx context.Context, id string) error {
	return s.stores.DataStores.DeleteByID(ctx, id)
}

// CreateDataResource stores a new data resource. The name must be
// unique within its (project, package) pair and the package must exist.
func (s *Service) CreateDataResource(ctx context.Context, d *model.DataResource) error {
	if d.ProjectID == "" || d.PackageName == "" || d.Name == "" {
		return errors.NewInvalidArgument("data resource requires projectId, packageName and name")
	}
	if !model.ValidName(d.Name) {
		return errors.NewInvalidArgument("data resource name %q is not a valid name", d.Name)
	}
	if _, err := s.stores.DataPackages.GetByName(ctx, d.ProjectID, d.PackageName); err != nil {
		return err
	}
	if d.ID == "" {
		d.ID = newID()
	}
	if d.Type == "" {
		d.Type = model.ResourceTable
	}
	return s.stores.DataResources.Save(ctx, d)
}

// GetDataResource fetches a data resource by ID.
func (s *Service) GetDataResource(ctx context.Context, id string) (*model.DataResource, error) {
	return s.stores.DataResources.Get(ctx, id)
}

// ListDataResources returns the project's data resources.
func (s *Service) ListDataResources(ctx context.Context, projectID string) ([]model.DataResource, error) {
	return s.stores.DataResources.ListByProject(ctx, projectID)
}

// UpdateDataResource rewrites a resource's mutable fields (store
// reference, title, description, type, schema, dataset).
func (s *Service) UpdateDataResource(ctx context.Context, id string, d *model.DataResource) (*model.DataResource, error) {
	existing, err := s.stores.DataResources.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.StoreID = d.StoreID
	existing.Title = d.Title
	existing.Description = d.Description
	existing.Type = d.Type
	existing.Schema = d.Schema
	existing.Dataset = d.Dataset
	if err := s.stores.DataResources.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// DeleteDataResource removes a data resource record.
func (s *Service) DeleteDataResource(ctx context.Context, id string) error {
	return s.stores.DataResources.DeleteByID(ctx, id)
}
