package model

import (
	"github.com/valstore/valstore/typed"
)

// Data registry entities describe the datasets an experiment validates:
// where they live (DataStore), how they group (DataPackage) and what
// each one is (DataResource). They are project-scoped and independent
// of any run.

// ResourceTable is the only registered resource type.
const ResourceTable = "table"

// DataPackage groups related data resources under a project. Name is
// unique within the project; resources reference the package by name.
type DataPackage struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Title     string `json:"title,omitempty"`
	Type      string `json:"type,omitempty"`
}

// DataStore is a named location data resources are read from. Name is
// unique within the project.
type DataStore struct {
	ID        string                 `json:"id"`
	ProjectID string                 `json:"projectId" validate:"required"`
	Name      string                 `json:"name" validate:"required"`
	Title     string                 `json:"title,omitempty"`
	Path      string                 `json:"path,omitempty"`
	Config    map[string]interface{} `json:"config,omitempty"`
	IsDefault bool                   `json:"isDefault"`
}

// Dataset locates a resource's data within its store.
type Dataset struct {
	Path string `json:"path,omitempty"`
}

// DataResource is one dataset registered for validation. Name is unique
// within its (project, package) pair.
type DataResource struct {
	ID          string       `json:"id"`
	ProjectID   string       `json:"projectId" validate:"required"`
	PackageName string       `json:"packageName" validate:"required"`
	StoreID     string       `json:"storeId,omitempty"`
	Name        string       `json:"name" validate:"required"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Type        string       `json:"type,omitempty"`
	Schema      typed.Schema `json:"schema,omitempty"`
	Dataset     *Dataset     `json:"dataset,omitempty"`
}
