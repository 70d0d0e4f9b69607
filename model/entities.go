// Package model defines the entities and documents stored by valstore.
//
// Entities (Project, Experiment, RunConfig, Constraint, Run) have explicit
// lifecycles owned by the catalog service. Run-scoped documents live in
// documents.go and are correlated only by their (projectId, experimentId,
// runId) key tuple.
package model

import (
	"regexp"

	"github.com/valstore/valstore/typed"
)

// Name and title patterns, enforced on write requests.
const (
	NamePattern  = `^[a-zA-Z0-9_-]+$`
	TitlePattern = `^[a-zA-Z0-9 _-]+$`
)

var (
	nameRe  = regexp.MustCompile(NamePattern)
	titleRe = regexp.MustCompile(TitlePattern)
)

// ValidName reports whether s is a legal entity name.
func ValidName(s string) bool { return nameRe.MatchString(s) }

// ValidTitle reports whether s is a legal entity title.
func ValidTitle(s string) bool { return s == "" || titleRe.MatchString(s) }

// Project is the root of ownership. Its ID is user-supplied and every
// other entity references it by ProjectID.
type Project struct {
	ID          string `json:"id" validate:"required"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Experiment groups runs and constraints under a project. Name is unique
// within the project. Created explicitly or implicitly the first time a
// run-scoped document references it.
type Experiment struct {
	ID          string   `json:"id"`
	ProjectID   string   `json:"projectId" validate:"required"`
	Name        string   `json:"name" validate:"required"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	// RunConfigID references the experiment's optional run config
	// (at most one per experiment).
	RunConfigID string `json:"runConfigId,omitempty"`
}

// StageConfig describes whether and how one pipeline stage runs.
type StageConfig struct {
	Enable  bool   `json:"enable"`
	Type    string `json:"type,omitempty"`
	Library string `json:"library,omitempty"`
}

// RunConfig is the per-experiment configuration of the four pipeline
// stages. Zero or one per experiment.
type RunConfig struct {
	ID              string       `json:"id"`
	ProjectID       string       `json:"projectId" validate:"required"`
	ExperimentID    string       `json:"experimentId" validate:"required"`
	Snapshot        *StageConfig `json:"snapshot,omitempty"`
	Profiling       *StageConfig `json:"profiling,omitempty"`
	SchemaInference *StageConfig `json:"schemaInference,omitempty"`
	Validation      *StageConfig `json:"validation,omitempty"`
}

// Constraint is a named validation rule scoped to one (project,
// experiment) pair. Name is unique within that pair. Body is the typed
// constraint variant; Type mirrors the body's discriminator for
// filtering without decoding.
type Constraint struct {
	ID           string           `json:"id"`
	ProjectID    string           `json:"projectId" validate:"required"`
	ExperimentID string           `json:"experimentId" validate:"required"`
	Name         string           `json:"name" validate:"required"`
	Title        string           `json:"title,omitempty"`
	Description  string           `json:"description,omitempty"`
	Resources    []string         `json:"resources,omitempty"`
	Weight       int              `json:"weight"`
	Type         string           `json:"type"`
	Body         typed.Constraint `json:"typedConstraint"`
}

// RunStatus is the lifecycle state of a run and of its per-stage results.
type RunStatus string

const (
	StatusPending RunStatus = "pending"
	StatusRunning RunStatus = "running"
	StatusSuccess RunStatus = "success"
	StatusError   RunStatus = "error"
)

// Valid reports whether s is a known run status.
func (s RunStatus) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusSuccess, StatusError:
		return true
	}
	return false
}

// CanTransitionTo reports whether the status may move to next:
// pending -> running -> {success, error}.
func (s RunStatus) CanTransitionTo(next RunStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusRunning
	case StatusRunning:
		return next == StatusSuccess || next == StatusError
	}
	return false
}

// Run is one execution of an experiment's pipeline. Result documents are
// referenced by identity, never embedded: each sibling document carries
// the (projectId, experimentId, runId) tuple itself.
type Run struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"projectId" validate:"required"`
	ExperimentID string    `json:"experimentId" validate:"required"`
	Status       RunStatus `json:"runStatus"`

	// Copied from the experiment's run config at creation, immutable.
	Config *RunConfig `json:"runConfig,omitempty"`

	SnapshotResult   RunStatus `json:"snapshotResult,omitempty"`
	ProfileResult    RunStatus `json:"profileResult,omitempty"`
	SchemaResult     RunStatus `json:"schemaResult,omitempty"`
	ValidationResult RunStatus `json:"validationResult,omitempty"`
}
