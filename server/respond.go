package server

import (
	"encoding/json"
	"net/http"

	"github.com/valstore/valstore/errors"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Errorw("Failed to encode response", "error", err)
	}
}

// writeError maps the domain error taxonomy onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.IsInvalidArgument(err), errors.IsInvalidVariant(err):
		status = http.StatusBadRequest
	case errors.IsPermissionDenied(err):
		status = http.StatusForbidden
	case errors.IsNotFound(err):
		status = http.StatusNotFound
	case errors.IsAlreadyExists(err):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		s.logger.Errorw("Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		// Internals stay in the log, not on the wire.
		s.writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}

	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// decodeBody unmarshals the request body into v. Failures surface as
// invalid-argument. Callers fill path-derived fields before running
// validateStruct.
func (s *Server) decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.NewInvalidArgument("malformed request body: %v", err)
	}
	return nil
}

// validateStruct runs tag validation on a fully populated request value.
func (s *Server) validateStruct(v interface{}) error {
	if err := s.validate.Struct(v); err != nil {
		return errors.Wrap(errors.ErrInvalidArgument, err.Error())
	}
	return nil
}
