package model

import (
	"time"
)

// RunSummary is the on-read composite joining one RunMetadata document
// with the at-most-one matching document from each sibling collection.
// It has no independent lifecycle: built per request, discarded after the
// response. Absent siblings stay nil.
type RunSummary struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"projectId"`
	ExperimentID string    `json:"experimentId"`
	RunID        string    `json:"runId"`
	Created      time.Time `json:"created"`

	Metadata         *RunMetadata         `json:"runMetadata,omitempty"`
	Environment      *RunEnvironment      `json:"runEnvironment,omitempty"`
	Artifacts        []ArtifactMetadata   `json:"artifactMetadata,omitempty"`
	DataProfile      *RunDataProfile      `json:"dataProfile,omitempty"`
	ValidationReport *RunValidationReport `json:"validationReport,omitempty"`
	DataSchema       *RunDataSchema       `json:"dataSchema,omitempty"`
}

// RunComparison is the ordered result of comparing runs of one
// experiment. Runs are sorted by creation timestamp descending.
type RunComparison struct {
	// ID is the comma-joined list of compared RunMetadata IDs.
	ID             string       `json:"id"`
	ProjectID      string       `json:"projectId"`
	ExperimentID   string       `json:"experimentId"`
	ComparedRunIDs []string     `json:"comparedRunIds"`
	Runs           []RunSummary `json:"runs"`
}
