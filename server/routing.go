package server

import (
	"net/http"
	"time"
)

// setupRoutes configures all HTTP handlers.
func (s *Server) setupRoutes() {
	handle := func(pattern string, h http.HandlerFunc) {
		s.mux.HandleFunc(pattern, s.corsMiddleware(s.logMiddleware(h)))
	}

	handle("GET /health", s.HandleHealth)

	handle("POST /api/projects", s.HandleCreateProject)
	handle("GET /api/projects", s.HandleListProjects)
	handle("GET /api/p/{projectId}", s.HandleGetProject)
	handle("PATCH /api/p/{projectId}", s.HandleUpdateProject)
	handle("DELETE /api/p/{projectId}", s.HandleDeleteProject)

	handle("POST /api/p/{projectId}/experiments", s.HandleCreateExperiment)
	handle("GET /api/p/{projectId}/experiments", s.HandleListExperiments)
	handle("GET /api/p/{projectId}/e/{experimentId}", s.HandleGetExperiment)
	handle("PATCH /api/p/{projectId}/e/{experimentId}", s.HandleUpdateExperiment)
	handle("DELETE /api/p/{projectId}/e/{experimentId}", s.HandleDeleteExperiment)

	handle("PUT /api/p/{projectId}/e/{experimentId}/run-config", s.HandleSetRunConfig)
	handle("GET /api/p/{projectId}/e/{experimentId}/run-config", s.HandleGetRunConfig)

	handle("POST /api/p/{projectId}/e/{experimentId}/constraints", s.HandleCreateConstraint)
	handle("GET /api/p/{projectId}/e/{experimentId}/constraints", s.HandleListConstraints)
	handle("GET /api/p/{projectId}/e/{experimentId}/constraints/{name}", s.HandleGetConstraint)
	handle("DELETE /api/p/{projectId}/e/{experimentId}/constraints/{name}", s.HandleDeleteConstraint)

	handle("POST /api/p/{projectId}/e/{experimentId}/runs", s.HandleCreateRun)
	handle("GET /api/p/{projectId}/e/{experimentId}/runs", s.HandleListRuns)
	handle("GET /api/p/{projectId}/e/{experimentId}/runs/{runId}", s.HandleGetRun)
	handle("PATCH /api/p/{projectId}/e/{experimentId}/runs/{runId}", s.HandleUpdateRunStatus)
	handle("DELETE /api/p/{projectId}/e/{experimentId}/runs/{runId}", s.HandleDeleteRun)

	handle("POST /api/p/{projectId}/packages", s.HandleCreateDataPackage)
	handle("GET /api/p/{projectId}/packages", s.HandleListDataPackages)
	handle("GET /api/p/{projectId}/packages/{id}", s.HandleGetDataPackage)
	handle("PUT /api/p/{projectId}/packages/{id}", s.HandleUpdateDataPackage)
	handle("DELETE /api/p/{projectId}/packages/{id}", s.HandleDeleteDataPackage)

	handle("POST /api/p/{projectId}/stores", s.HandleCreateDataStore)
	handle("GET /api/p/{projectId}/stores", s.HandleListDataStores)
	handle("GET /api/p/{projectId}/stores/{id}", s.HandleGetDataStore)
	handle("PUT /api/p/{projectId}/stores/{id}", s.HandleUpdateDataStore)
	handle("DELETE /api/p/{projectId}/stores/{id}", s.HandleDeleteDataStore)

	handle("POST /api/p/{projectId}/resources", s.HandleCreateDataResource)
	handle("GET /api/p/{projectId}/resources", s.HandleListDataResources)
	handle("GET /api/p/{projectId}/resources/{id}", s.HandleGetDataResource)
	handle("PUT /api/p/{projectId}/resources/{id}", s.HandleUpdateDataResource)
	handle("DELETE /api/p/{projectId}/resources/{id}", s.HandleDeleteDataResource)

	handle("POST /api/p/{projectId}/run-metadata", s.HandleSaveRunMetadata)
	handle("POST /api/p/{projectId}/e/{experimentId}/r/{runId}/environment", s.HandleSaveRunEnvironment)
	handle("POST /api/p/{projectId}/e/{experimentId}/r/{runId}/artifacts", s.HandleSaveArtifactMetadata)
	handle("POST /api/p/{projectId}/e/{experimentId}/r/{runId}/data-profile", s.HandleSaveRunDataProfile)
	handle("POST /api/p/{projectId}/e/{experimentId}/r/{runId}/validation-report", s.HandleSaveRunValidationReport)
	handle("POST /api/p/{projectId}/e/{experimentId}/r/{runId}/data-schema", s.HandleSaveRunDataSchema)

	handle("GET /api/p/{projectId}/e/{experimentId}/r/{runId}/run-summary", s.HandleGetRunSummary)
	handle("GET /api/p/{projectId}/run-summaries/{id}", s.HandleGetRunSummaryByID)
	handle("GET /api/p/{projectId}/e/{experimentId}/run-summaries", s.HandleListRecentRunSummaries)
	handle("GET /api/p/{projectId}/e/{experimentId}/run-comparison", s.HandleCompareRuns)

	// Method-qualified patterns never match OPTIONS; route preflights
	// into the CORS middleware explicitly.
	handle("OPTIONS /", func(w http.ResponseWriter, r *http.Request) {})
}

// corsMiddleware adds CORS headers and answers preflight requests.
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+UserHeader)
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next(w, r)
	}
}

// logMiddleware records one line per request.
func (s *Server) logMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next(w, r)
		s.logger.Debugw("Handled request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	}
}
