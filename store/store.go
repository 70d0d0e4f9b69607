// Package store provides the SQLite-backed document collections.
// Each logical collection gets its own store over a shared *sql.DB;
// open-ended document contents are persisted as JSON columns and typed
// variant fields round-trip through the typed codec at this boundary.
package store

import (
	"database/sql"
	"encoding/json"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/valstore/valstore/errors"
)

// timeFormat is the column encoding for timestamps. RFC 3339 with
// nanoseconds keeps lexicographic order aligned with chronological order.
const timeFormat = time.RFC3339Nano

// Filter selects documents by the non-empty subset of the run key tuple.
// Matching is exact and conjunctive.
type Filter struct {
	ProjectID    string
	ExperimentID string
	RunID        string
}

// Stores bundles every collection store over one database handle.
type Stores struct {
	Projects          *ProjectStore
	Experiments       *ExperimentStore
	RunConfigs        *RunConfigStore
	Constraints       *ConstraintStore
	Runs              *RunStore
	RunMetadata       *RunMetadataStore
	Environments      *RunEnvironmentStore
	Artifacts         *ArtifactMetadataStore
	DataProfiles      *RunDataProfileStore
	ValidationReports *RunValidationReportStore
	DataSchemas       *RunDataSchemaStore
	DataPackages      *DataPackageStore
	DataStores        *DataStoreStore
	DataResources     *DataResourceStore
}

// New creates the full store set over the given database.
func New(database *sql.DB, logger *zap.SugaredLogger) *Stores {
	return &Stores{
		Projects:          &ProjectStore{db: database, logger: logger},
		Experiments:       &ExperimentStore{db: database, logger: logger},
		RunConfigs:        &RunConfigStore{db: database, logger: logger},
		Constraints:       &ConstraintStore{db: database, logger: logger},
		Runs:              &RunStore{db: database, logger: logger},
		RunMetadata:       &RunMetadataStore{db: database, logger: logger},
		Environments:      &RunEnvironmentStore{docTable{db: database, table: "run_environments", logger: logger}},
		Artifacts:         &ArtifactMetadataStore{db: database, logger: logger},
		DataProfiles:      &RunDataProfileStore{docTable{db: database, table: "run_data_profiles", logger: logger}},
		ValidationReports: &RunValidationReportStore{docTable{db: database, table: "run_validation_reports", logger: logger}},
		DataSchemas:       &RunDataSchemaStore{docTable{db: database, table: "run_data_schemas", logger: logger}},
		DataPackages:      &DataPackageStore{db: database, logger: logger},
		DataStores:        &DataStoreStore{db: database, logger: logger},
		DataResources:     &DataResourceStore{db: database, logger: logger},
	}
}

// mapSQLiteErr converts driver constraint violations into the domain
// already-exists kind. Other errors pass through unchanged.
func mapSQLiteErr(err error) error {
	if err == nil {
		return nil
	}
	var serr sqlite3.Error
	if errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint {
		return errors.Wrap(errors.ErrAlreadyExists, serr.Error())
	}
	return err
}

// marshalJSON encodes v as a JSON column value; nil maps/slices become
// the empty string so absent stays distinguishable from {}.
func marshalJSON(v interface{}) (string, error) {
	if v == nil {
		return "", nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal JSON column")
	}
	return string(raw), nil
}

func unmarshalContents(raw sql.NullString) (map[string]interface{}, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(raw.String), &m); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal contents column")
	}
	return m, nil
}

func unmarshalStrings(raw sql.NullString) ([]string, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var s []string
	if err := json.Unmarshal([]byte(raw.String), &s); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal string list column")
	}
	return s, nil
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(timeFormat, raw)
	if err != nil {
		// Older rows may carry second precision
		t, err = time.Parse(time.RFC3339, raw)
	}
	if err != nil {
		return time.Time{}, errors.Wrap(err, "failed to parse timestamp column")
	}
	return t, nil
}
