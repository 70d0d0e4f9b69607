package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/valstore/valstore/catalog"
	"github.com/valstore/valstore/errors"
	"github.com/valstore/valstore/model"
	"github.com/valstore/valstore/server"
	"github.com/valstore/valstore/store"
	"github.com/valstore/valstore/store/testutil"
	"github.com/valstore/valstore/summary"
)

type denyAll struct{}

func (denyAll) Authorize(_ context.Context, user, projectID string) error {
	return errors.Wrap(errors.ErrPermissionDenied, fmt.Sprintf("user %q may not access project %s", user, projectID))
}

func newTestServer(t *testing.T, authz server.Authorizer) http.Handler {
	t.Helper()
	logger := zap.NewNop().Sugar()
	stores := store.New(testutil.SetupTestDB(t), logger)
	srv := server.New(
		catalog.New(stores, logger),
		summary.NewService(stores, logger),
		authz,
		logger,
	)
	return srv.Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(server.UserHeader, "tester")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, nil)
	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestProjectEndpoints(t *testing.T) {
	h := newTestServer(t, nil)

	rec := doJSON(t, h, http.MethodPost, "/api/projects", model.Project{ID: "p1", Title: "Demo"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	// Duplicate ID conflicts.
	rec = doJSON(t, h, http.MethodPost, "/api/projects", model.Project{ID: "p1"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Missing required field is rejected before the store sees it.
	rec = doJSON(t, h, http.MethodPost, "/api/projects", model.Project{Title: "No ID"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/p/p1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/p/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/p/p1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuthorizerDenies(t *testing.T) {
	h := newTestServer(t, denyAll{})
	rec := doJSON(t, h, http.MethodGet, "/api/p/p1", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestConstraintEndpointRejectsUnknownVariant(t *testing.T) {
	h := newTestServer(t, nil)

	doJSON(t, h, http.MethodPost, "/api/projects", model.Project{ID: "p1"})
	rec := doJSON(t, h, http.MethodPost, "/api/p/p1/experiments", map[string]interface{}{"name": "churn"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var e model.Experiment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))

	rec = doJSON(t, h, http.MethodPost, "/api/p/p1/e/"+e.ID+"/constraints", map[string]interface{}{
		"name":            "bad",
		"typedConstraint": map[string]interface{}{"type": "greatexpectations"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/p/p1/e/"+e.ID+"/constraints", map[string]interface{}{
		"name": "good",
		"typedConstraint": map[string]interface{}{
			"type":       "frictionless",
			"field":      "age",
			"constraint": "minimum",
			"value":      "0",
		},
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/p/p1/e/"+e.ID+"/constraints/good", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"frictionless"`)
}

func TestRunDocumentAndSummaryFlow(t *testing.T) {
	h := newTestServer(t, nil)

	doJSON(t, h, http.MethodPost, "/api/projects", model.Project{ID: "p1"})

	// First metadata write creates the experiment implicitly.
	rec := doJSON(t, h, http.MethodPost, "/api/p/p1/run-metadata", map[string]interface{}{
		"runId":          "run-1",
		"experimentName": "churn",
		"contents":       map[string]interface{}{"created": "2026-03-01T12:00:00Z"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var m model.RunMetadata
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	require.NotEmpty(t, m.ExperimentID)

	base := "/api/p/p1/e/" + m.ExperimentID + "/r/run-1"

	rec = doJSON(t, h, http.MethodPost, base+"/environment", map[string]interface{}{
		"contents": map[string]interface{}{"python": "3.12"},
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodPost, base+"/validation-report", map[string]interface{}{
		"constraintName": "age-range",
		"valid":          false,
		"errors": []map[string]interface{}{
			{"type": "frictionless", "fieldName": "age", "rowNumber": 7, "code": "minimum"},
		},
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodPost, base+"/data-schema", map[string]interface{}{
		"resourceName": "users.csv",
		"schema": map[string]interface{}{
			"type":   "table",
			"fields": []map[string]interface{}{{"name": "age", "type": "integer"}},
		},
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodGet, base+"/run-summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var sum model.RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.NotNil(t, sum.Environment)
	assert.Nil(t, sum.DataProfile)

	// Second run, then compare the two.
	rec = doJSON(t, h, http.MethodPost, "/api/p/p1/run-metadata", map[string]interface{}{
		"runId":          "run-2",
		"experimentName": "churn",
		"contents":       map[string]interface{}{"created": "2026-03-01T13:00:00Z"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var m2 model.RunMetadata
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m2))

	rec = doJSON(t, h, http.MethodGet,
		"/api/p/p1/e/"+m.ExperimentID+"/run-comparison?ids="+m.ID+","+m2.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cmp model.RunComparison
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cmp))
	require.Len(t, cmp.Runs, 2)
	assert.Equal(t, "run-2", cmp.Runs[0].RunID)

	// Recent sentinel works too.
	rec = doJSON(t, h, http.MethodGet, "/api/p/p1/e/"+m.ExperimentID+"/run-comparison?ids=recent", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// One explicit ID is not a comparison.
	rec = doJSON(t, h, http.MethodGet, "/api/p/p1/e/"+m.ExperimentID+"/run-comparison?ids="+m.ID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/p/p1/experiments", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestRunSummaryByMetadataID(t *testing.T) {
	h := newTestServer(t, nil)

	doJSON(t, h, http.MethodPost, "/api/projects", model.Project{ID: "p1"})
	rec := doJSON(t, h, http.MethodPost, "/api/p/p1/run-metadata", map[string]interface{}{
		"runId":          "run-1",
		"experimentName": "churn",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var m model.RunMetadata
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))

	rec = doJSON(t, h, http.MethodGet, "/api/p/p1/run-summaries/"+m.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sum model.RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Equal(t, "run-1", sum.RunID)

	// The document is not visible through another project's scope.
	doJSON(t, h, http.MethodPost, "/api/projects", model.Project{ID: "p2"})
	rec = doJSON(t, h, http.MethodGet, "/api/p/p2/run-summaries/"+m.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/p/p1/run-summaries/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDataRegistryEndpoints(t *testing.T) {
	h := newTestServer(t, nil)

	doJSON(t, h, http.MethodPost, "/api/projects", model.Project{ID: "p1"})

	rec := doJSON(t, h, http.MethodPost, "/api/p/p1/packages", map[string]interface{}{"name": "orders"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/p/p1/packages", map[string]interface{}{"name": "orders"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/p/p1/stores", map[string]interface{}{
		"name": "minio",
		"path": "s3://bucket/data",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var ds model.DataStore
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ds))

	// A resource under an unregistered package is rejected.
	rec = doJSON(t, h, http.MethodPost, "/api/p/p1/resources", map[string]interface{}{
		"packageName": "unknown",
		"name":        "invoices",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/p/p1/resources", map[string]interface{}{
		"packageName": "orders",
		"storeId":     ds.ID,
		"name":        "invoices",
		"schema": map[string]interface{}{
			"type":   "table",
			"fields": []map[string]interface{}{{"name": "total", "type": "number"}},
		},
		"dataset": map[string]interface{}{"path": "invoices.csv"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var dr model.DataResource
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dr))

	rec = doJSON(t, h, http.MethodGet, "/api/p/p1/resources/"+dr.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"table"`)

	rec = doJSON(t, h, http.MethodDelete, "/api/p/p1/resources/"+dr.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRunStatusEndpoint(t *testing.T) {
	h := newTestServer(t, nil)

	doJSON(t, h, http.MethodPost, "/api/projects", model.Project{ID: "p1"})
	rec := doJSON(t, h, http.MethodPost, "/api/p/p1/experiments", map[string]interface{}{"name": "churn"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var e model.Experiment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))

	rec = doJSON(t, h, http.MethodPost, "/api/p/p1/e/"+e.ID+"/runs", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var r model.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	assert.Equal(t, model.StatusPending, r.Status)

	runPath := "/api/p/p1/e/" + e.ID + "/runs/" + r.ID

	// Skipping the running state is rejected.
	rec = doJSON(t, h, http.MethodPatch, runPath, map[string]interface{}{"runStatus": "success"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPatch, runPath, map[string]interface{}{"runStatus": "running"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPatch, runPath, map[string]interface{}{
		"runStatus": "success",
		"stages":    map[string]string{"validation": "success"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	assert.Equal(t, model.StatusSuccess, r.ValidationResult)
}
