package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/valstore/valstore/errors"
	"github.com/valstore/valstore/model"
)

// Driver-level failure paths are awkward to provoke against a real
// database, so these run against a mock connection.

func TestProjectStoreSaveDriverError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectExec("INSERT INTO projects").
		WithArgs("p1", "", "").
		WillReturnError(assert.AnError)

	s := &ProjectStore{db: mockDB, logger: zap.NewNop().Sugar()}
	err = s.Save(context.Background(), &model.Project{ID: "p1"})
	assert.Error(t, err)
	assert.False(t, errors.IsAlreadyExists(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunStoreUpdateStatusMissingRow(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectExec("UPDATE runs SET run_status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	s := &RunStore{db: mockDB, logger: zap.NewNop().Sugar()}
	err = s.UpdateStatus(context.Background(), &model.Run{ID: "run-x", Status: model.StatusRunning})
	assert.True(t, errors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryBuilderConjunction(t *testing.T) {
	qb, err := filterQuery(Filter{ProjectID: "p1", RunID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, "project_id = ? AND run_id = ?", qb.build())
	assert.Equal(t, []interface{}{"p1", "r1"}, qb.args)
}
