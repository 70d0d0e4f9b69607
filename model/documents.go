package model

import (
	"time"

	"github.com/valstore/valstore/typed"
)

// RunKey is the (projectId, experimentId, runId) tuple correlating the
// run-scoped documents of one run.
type RunKey struct {
	ProjectID    string `json:"projectId"`
	ExperimentID string `json:"experimentId"`
	RunID        string `json:"runId"`
}

// RunMetadata anchors a run's document set. It is guaranteed to exist
// once a run starts, so summaries and comparisons iterate RunMetadata.
type RunMetadata struct {
	ID             string                 `json:"id"`
	ProjectID      string                 `json:"projectId" validate:"required"`
	ExperimentID   string                 `json:"experimentId" validate:"required"`
	RunID          string                 `json:"runId" validate:"required"`
	ExperimentName string                 `json:"experimentName,omitempty"`
	Author         string                 `json:"author,omitempty"`
	Created        time.Time              `json:"created"`
	Contents       map[string]interface{} `json:"contents,omitempty"`
}

// Key returns the document's run key tuple.
func (m *RunMetadata) Key() RunKey {
	return RunKey{ProjectID: m.ProjectID, ExperimentID: m.ExperimentID, RunID: m.RunID}
}

// RunEnvironment records the execution environment of a run.
type RunEnvironment struct {
	ID           string                 `json:"id"`
	ProjectID    string                 `json:"projectId" validate:"required"`
	ExperimentID string                 `json:"experimentId" validate:"required"`
	RunID        string                 `json:"runId" validate:"required"`
	Author       string                 `json:"author,omitempty"`
	Contents     map[string]interface{} `json:"contents,omitempty"`
}

// ArtifactMetadata points at one artifact produced by a run.
type ArtifactMetadata struct {
	ID           string `json:"id"`
	ProjectID    string `json:"projectId" validate:"required"`
	ExperimentID string `json:"experimentId" validate:"required"`
	RunID        string `json:"runId" validate:"required"`
	Name         string `json:"name" validate:"required"`
	URI          string `json:"uri" validate:"required"`
	Author       string `json:"author,omitempty"`
}

// RunDataProfile is the data profile produced by the profiling stage for
// one resource.
type RunDataProfile struct {
	ID           string                 `json:"id"`
	ProjectID    string                 `json:"projectId" validate:"required"`
	ExperimentID string                 `json:"experimentId" validate:"required"`
	RunID        string                 `json:"runId" validate:"required"`
	ResourceName string                 `json:"resourceName,omitempty"`
	Author       string                 `json:"author,omitempty"`
	Contents     map[string]interface{} `json:"contents,omitempty"`
}

// RunValidationReport is the short report produced by the validation
// stage. Errors are typed variants resolved through the codec.
type RunValidationReport struct {
	ID             string                 `json:"id"`
	ProjectID      string                 `json:"projectId" validate:"required"`
	ExperimentID   string                 `json:"experimentId" validate:"required"`
	RunID          string                 `json:"runId" validate:"required"`
	ConstraintName string                 `json:"constraintName,omitempty"`
	Valid          bool                   `json:"valid"`
	Errors         []typed.Error          `json:"errors,omitempty"`
	Author         string                 `json:"author,omitempty"`
	Contents       map[string]interface{} `json:"contents,omitempty"`
}

// RunDataSchema is the schema inferred for one resource during a run.
type RunDataSchema struct {
	ID           string       `json:"id"`
	ProjectID    string       `json:"projectId" validate:"required"`
	ExperimentID string       `json:"experimentId" validate:"required"`
	RunID        string       `json:"runId" validate:"required"`
	ResourceName string       `json:"resourceName,omitempty"`
	Author       string       `json:"author,omitempty"`
	Schema       typed.Schema `json:"schema,omitempty"`
}
