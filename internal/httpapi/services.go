package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/soapbridge/proxy/internal/errs"
	"github.com/soapbridge/proxy/internal/openapi"
)

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetService(w http.ResponseWriter, r *http.Request) {
	id, err := parseServiceID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	svc, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

// handleDeleteService unregisters service from the gateway first (if it is
// registered) and only then deletes it from the catalog, so a gateway
// failure never orphans a server entry with no backing catalog row.
func (s *Server) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	id, err := parseServiceID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	svc, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if svc.Registered {
		if err := s.registrar.Unregister(r.Context(), svc); err != nil {
			writeError(w, err)
			return
		}
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	s.serveOpenAPI(w, r, "application/json")
}

func (s *Server) handleOpenAPIYAML(w http.ResponseWriter, r *http.Request) {
	s.serveOpenAPI(w, r, "application/yaml")
}

func (s *Server) serveOpenAPI(w http.ResponseWriter, r *http.Request, contentType string) {
	id, err := parseServiceID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	svc, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	var doc openapi.Document
	if err := json.Unmarshal(svc.OpenAPISpec, &doc); err != nil {
		writeError(w, errs.Wrap(errs.Internal, err, "decoding stored openapi document for %q", svc.Name))
		return
	}

	var out []byte
	if contentType == "application/yaml" {
		out, err = doc.ToYAML()
	} else {
		out, err = doc.ToJSON()
	}
	if err != nil {
		writeError(w, errs.Wrap(errs.Internal, err, "rendering openapi document for %q", svc.Name))
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func parseServiceID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errs.New(errs.InvalidInput, "invalid service id %q", raw)
	}
	return id, nil
}
