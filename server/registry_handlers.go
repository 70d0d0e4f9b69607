package server

// Handlers for the data registry: packages, stores and resources.

import (
	"net/http"

	"github.com/valstore/valstore/model"
)

// --- data packages ---

func (s *Server) HandleCreateDataPackage(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	var p model.DataPackage
	if err := s.decodeBody(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	p.ProjectID = projectID
	if err := s.validateStruct(&p); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.catalog.CreateDataPackage(r.Context(), &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, p)
}

func (s *Server) HandleListDataPackages(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	packages, err := s.catalog.ListDataPackages(r.Context(), projectID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, packages)
}

func (s *Server) HandleGetDataPackage(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.catalog.GetDataPackage(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) HandleUpdateDataPackage(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	var p model.DataPackage
	if err := s.decodeBody(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.catalog.UpdateDataPackage(r.Context(), r.PathValue("id"), &p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) HandleDeleteDataPackage(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.catalog.DeleteDataPackage(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- data stores ---

func (s *Server) HandleCreateDataStore(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	var d model.DataStore
	if err := s.decodeBody(r, &d); err != nil {
		s.writeError(w, r, err)
		return
	}
	d.ProjectID = projectID
	if err := s.validateStruct(&d); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.catalog.CreateDataStore(r.Context(), &d); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, d)
}

func (s *Server) HandleListDataStores(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	stores, err := s.catalog.ListDataStores(r.Context(), projectID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stores)
}

func (s *Server) HandleGetDataStore(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.catalog.GetDataStore(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, d)
}

func (s *Server) HandleUpdateDataStore(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	var d model.DataStore
	if err := s.decodeBody(r, &d); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.catalog.UpdateDataStore(r.Context(), r.PathValue("id"), &d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) HandleDeleteDataStore(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.catalog.DeleteDataStore(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- data resources ---

func (s *Server) HandleCreateDataResource(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	var d model.DataResource
	if err := s.decodeBody(r, &d); err != nil {
		s.writeError(w, r, err)
		return
	}
	d.ProjectID = projectID
	if err := s.validateStruct(&d); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.catalog.CreateDataResource(r.Context(), &d); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, d)
}

func (s *Server) HandleListDataResources(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	resources, err := s.catalog.ListDataResources(r.Context(), projectID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resources)
}

func (s *Server) HandleGetDataResource(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.catalog.GetDataResource(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, d)
}

func (s *Server) HandleUpdateDataResource(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	var d model.DataResource
	if err := s.decodeBody(r, &d); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.catalog.UpdateDataResource(r.Context(), r.PathValue("id"), &d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) HandleDeleteDataResource(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if err := s.authorize(r, projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.catalog.DeleteDataResource(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
