package httpapi

import (
	"net/http"

	"github.com/soapbridge/proxy/internal/errs"
)

type registerGatewayResponse struct {
	GatewayRegistered bool   `json:"gateway_registered"`
	ServerUUID        string `json:"server_uuid,omitempty"`
	MCPEndpoint       string `json:"mcp_endpoint,omitempty"`
}

func (s *Server) handleRegisterGateway(w http.ResponseWriter, r *http.Request) {
	id, err := parseServiceID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if !s.cfg.GatewayConfigured() {
		writeError(w, errs.New(errs.InvalidInput, "no tool gateway is configured"))
		return
	}
	svc, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.registrar.Register(r.Context(), svc); err != nil {
		writeError(w, err)
		return
	}
	resp := registerGatewayResponse{GatewayRegistered: true}
	if svc.ServerUUID != nil {
		resp.ServerUUID = svc.ServerUUID.String()
	}
	if svc.MCPEndpoint != nil {
		resp.MCPEndpoint = *svc.MCPEndpoint
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUnregisterGateway(w http.ResponseWriter, r *http.Request) {
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
	if err := s.registrar.Unregister(r.Context(), svc); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	s.translator.ClearCache(r.Context())
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}
