package store

import (
	"strings"

	"github.com/valstore/valstore/errors"
)

// queryBuilder accumulates SQL WHERE clauses and parameters.
type queryBuilder struct {
	whereClauses []string
	args         []interface{}
}

// addClause appends a WHERE clause with its arguments.
func (qb *queryBuilder) addClause(clause string, args ...interface{}) {
	qb.whereClauses = append(qb.whereClauses, clause)
	qb.args = append(qb.args, args...)
}

// build returns the WHERE clauses joined with AND.
func (qb *queryBuilder) build() string {
	return strings.Join(qb.whereClauses, " AND ")
}

// filterQuery builds the conjunctive exact-match WHERE clause for the
// non-empty subset of a run key filter. At least one component must be
// set; an all-empty filter would address a whole collection.
func filterQuery(f Filter) (*queryBuilder, error) {
	qb := &queryBuilder{}

	if f.ProjectID != "" {
		qb.addClause("project_id = ?", f.ProjectID)
	}
	if f.ExperimentID != "" {
		qb.addClause("experiment_id = ?", f.ExperimentID)
	}
	if f.RunID != "" {
		qb.addClause("run_id = ?", f.RunID)
	}

	if len(qb.whereClauses) == 0 {
		return nil, errors.NewInvalidArgument("filter must set at least one of projectId, experimentId, runId")
	}

	return qb, nil
}
