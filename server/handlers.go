package server

// HTTP handler methods for the valstore REST surface. Handlers pull path
// parameters, authorize against the project scope, and delegate to the
// catalog and summary services; typed variant fields arrive as generic
// maps and are resolved through the typed codec before they reach the
// domain.

import (
	"net/http"
	"strings"
	"time"

	"github.com/valstore/valstore/errors"
	"github.com/valstore/valstore/model"
	"github.com/valstore/valstore/store"
	"github.com/valstore/valstore/typed"
	"github.com/valstore/valstore/version"
)

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": version.Get().Version,
	})
}

// --- projects ---

func (s *Server) HandleCreateProject(w http.ResponseWriter, r *http.Request) {
	var p model.Project
	if err := s.decodeBody(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.validateStruct(&p); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.authorize(r, p.ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.catalog.CreateProject(r.Context(), &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, p)
}

func (s *Server) HandleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.catalog.ListProjects(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, projects)
}

func (s *Server) HandleGetProject(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.catalog.GetProject(r.Context(), projectID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) HandleUpdateProject(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	var p model.Project
	if err := s.decodeBody(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	p.ID = projectID
	if err := s.catalog.UpdateProject(r.Context(), &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) HandleDeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.catalog.DeleteProject(r.Context(), projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- experiments ---

func (s *Server) HandleCreateExperiment(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	var e model.Experiment
	if err := s.decodeBody(r, &e); err != nil {
		s.writeError(w, r, err)
		return
	}
	e.ProjectID = projectID
	if err := s.validateStruct(&e); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.catalog.CreateExperiment(r.Context(), &e); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, e)
}

func (s *Server) HandleListExperiments(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	experiments, err := s.catalog.ListExperiments(r.Context(), projectID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, experiments)
}

func (s *Server) HandleGetExperiment(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.catalog.GetExperiment(r.Context(), r.PathValue("experimentId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, e)
}

func (s *Server) HandleUpdateExperiment(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.catalog.GetExperiment(r.Context(), r.PathValue("experimentId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.decodeBody(r, e); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.catalog.UpdateExperiment(r.Context(), e); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, e)
}

func (s *Server) HandleDeleteExperiment(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.catalog.DeleteExperiment(r.Context(), r.PathValue("experimentId")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- run configs ---

func (s *Server) HandleSetRunConfig(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	var c model.RunConfig
	if err := s.decodeBody(r, &c); err != nil {
		s.writeError(w, r, err)
		return
	}
	c.ProjectID = projectID
	c.ExperimentID = r.PathValue("experimentId")
	if err := s.catalog.SetRunConfig(r.Context(), &c); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, c)
}

func (s *Server) HandleGetRunConfig(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.catalog.GetRunConfigByExperiment(r.Context(), r.PathValue("experimentId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

// --- constraints ---

type constraintRequest struct {
	Name            string                 `json:"name" validate:"required"`
	Title           string                 `json:"title,omitempty"`
	Description     string                 `json:"description,omitempty"`
	Resources       []string               `json:"resources,omitempty"`
	Weight          int                    `json:"weight"`
	TypedConstraint map[string]interface{} `json:"typedConstraint" validate:"required"`
}

func (s *Server) HandleCreateConstraint(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	var req constraintRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.validateStruct(&req); err != nil {
		s.writeError(w, r, err)
		return
	}

	body, err := typed.DecodeConstraint(req.TypedConstraint)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	c := &model.Constraint{
		ProjectID:    projectID,
		ExperimentID: r.PathValue("experimentId"),
		Name:         req.Name,
		Title:        req.Title,
		Description:  req.Description,
		Resources:    req.Resources,
		Weight:       req.Weight,
		Body:         body,
	}
	if err := s.catalog.CreateConstraint(r.Context(), c); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, c)
}

func (s *Server) HandleListConstraints(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	constraints, err := s.catalog.ListConstraints(r.Context(), store.Filter{
		ProjectID:    projectID,
		ExperimentID: r.PathValue("experimentId"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, constraints)
}

func (s *Server) HandleGetConstraint(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.catalog.GetConstraintByName(r.Context(), projectID, r.PathValue("experimentId"), r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) HandleDeleteConstraint(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.catalog.GetConstraintByName(r.Context(), projectID, r.PathValue("experimentId"), r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.catalog.DeleteConstraint(r.Context(), c.ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- runs ---

type runStatusRequest struct {
	RunStatus model.RunStatus            `json:"runStatus" validate:"required"`
	Stages    map[string]model.RunStatus `json:"stages,omitempty"`
}

func (s *Server) HandleCreateRun(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	run, err := s.catalog.CreateRun(r.Context(), projectID, r.PathValue("experimentId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, run)
}

func (s *Server) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	runs, err := s.catalog.ListRuns(r.Context(), projectID, r.PathValue("experimentId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	run, err := s.catalog.GetRun(r.Context(), r.PathValue("runId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) HandleUpdateRunStatus(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	var req runStatusRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.validateStruct(&req); err != nil {
		s.writeError(w, r, err)
		return
	}
	run, err := s.catalog.UpdateRunStatus(r.Context(), r.PathValue("runId"), req.RunStatus, req.Stages)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) HandleDeleteRun(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.catalog.DeleteRun(r.Context(), r.PathValue("runId")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- run-scoped documents ---

type runMetadataRequest struct {
	RunID          string                 `json:"runId" validate:"required"`
	ExperimentName string                 `json:"experimentName" validate:"required"`
	Author         string                 `json:"author,omitempty"`
	Created        time.Time              `json:"created,omitempty"`
	Contents       map[string]interface{} `json:"contents,omitempty"`
}

func (s *Server) HandleSaveRunMetadata(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	var req runMetadataRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.validateStruct(&req); err != nil {
		s.writeError(w, r, err)
		return
	}

	overwrite := r.URL.Query().Get("overwrite") == "true"
	m, err := s.catalog.SaveRunMetadata(r.Context(), &model.RunMetadata{
		ProjectID:      projectID,
		RunID:          req.RunID,
		ExperimentName: req.ExperimentName,
		Author:         req.Author,
		Created:        req.Created,
		Contents:       req.Contents,
	}, overwrite)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, m)
}

func (s *Server) HandleSaveRunEnvironment(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	var d model.RunEnvironment
	if err := s.decodeBody(r, &d); err != nil {
		s.writeError(w, r, err)
		return
	}
	d.ProjectID = projectID
	d.ExperimentID = r.PathValue("experimentId")
	d.RunID = r.PathValue("runId")
	saved, err := s.catalog.SaveRunEnvironment(r.Context(), &d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) HandleSaveArtifactMetadata(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	var d model.ArtifactMetadata
	if err := s.decodeBody(r, &d); err != nil {
		s.writeError(w, r, err)
		return
	}
	d.ProjectID = projectID
	d.ExperimentID = r.PathValue("experimentId")
	d.RunID = r.PathValue("runId")
	saved, err := s.catalog.SaveArtifactMetadata(r.Context(), &d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) HandleSaveRunDataProfile(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	var d model.RunDataProfile
	if err := s.decodeBody(r, &d); err != nil {
		s.writeError(w, r, err)
		return
	}
	d.ProjectID = projectID
	d.ExperimentID = r.PathValue("experimentId")
	d.RunID = r.PathValue("runId")
	saved, err := s.catalog.SaveRunDataProfile(r.Context(), &d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, saved)
}

type validationReportRequest struct {
	ConstraintName string                   `json:"constraintName,omitempty"`
	Valid          bool                     `json:"valid"`
	Errors         []map[string]interface{} `json:"errors,omitempty"`
	Author         string                   `json:"author,omitempty"`
	Contents       map[string]interface{}   `json:"contents,omitempty"`
}

func (s *Server) HandleSaveRunValidationReport(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	var req validationReportRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	typedErrors, err := typed.DecodeErrorList(req.Errors)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	saved, err := s.catalog.SaveRunValidationReport(r.Context(), &model.RunValidationReport{
		ProjectID:      projectID,
		ExperimentID:   r.PathValue("experimentId"),
		RunID:          r.PathValue("runId"),
		ConstraintName: req.ConstraintName,
		Valid:          req.Valid,
		Errors:         typedErrors,
		Author:         req.Author,
		Contents:       req.Contents,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, saved)
}

type dataSchemaRequest struct {
	ResourceName string                 `json:"resourceName,omitempty"`
	Author       string                 `json:"author,omitempty"`
	Schema       map[string]interface{} `json:"schema" validate:"required"`
}

func (s *Server) HandleSaveRunDataSchema(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	var req dataSchemaRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.validateStruct(&req); err != nil {
		s.writeError(w, r, err)
		return
	}

	schema, err := typed.DecodeSchema(req.Schema)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	saved, err := s.catalog.SaveRunDataSchema(r.Context(), &model.RunDataSchema{
		ProjectID:    projectID,
		ExperimentID: r.PathValue("experimentId"),
		RunID:        r.PathValue("runId"),
		ResourceName: req.ResourceName,
		Author:       req.Author,
		Schema:       schema,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, saved)
}

// --- summaries and comparisons ---

func (s *Server) HandleGetRunSummary(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	sum, err := s.summaries.GetRunSummary(r.Context(), projectID, r.PathValue("experimentId"), r.PathValue("runId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sum)
}

// HandleGetRunSummaryByID assembles the summary anchored at one run
// metadata document, addressed by the document's own ID.
func (s *Server) HandleGetRunSummaryByID(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	sum, err := s.summaries.GetRunSummaryByMetadataID(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if sum.ProjectID != projectID {
		s.writeError(w, r, errors.NewNotFound("document with ID %s was not found", r.PathValue("id")))
		return
	}
	s.writeJSON(w, http.StatusOK, sum)
}

func (s *Server) HandleListRecentRunSummaries(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	sums, err := s.summaries.ListRecentRunSummaries(r.Context(), projectID, r.PathValue("experimentId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sums)
}

func (s *Server) HandleCompareRuns(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}

	var ids []string
	if raw := r.URL.Query().Get("ids"); raw != "" {
		ids = strings.Split(raw, ",")
	}

	cmp, err := s.summaries.CompareRuns(r.Context(), projectID, r.PathValue("experimentId"), ids)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cmp)
}
