package httpapi

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status            string `json:"status"`
	DatabaseReachable bool   `json:"database_reachable"`
	GatewayConfigured bool   `json:"gateway_configured"`
	UptimeSeconds     int64  `json:"uptime_seconds"`
}

// handleHealth reports database reachability, whether a tool gateway is
// configured, and process uptime as a lightweight cache statistic proxy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, dbErr := s.store.List(r.Context())
	resp := healthResponse{
		Status:            "ok",
		DatabaseReachable: dbErr == nil,
		GatewayConfigured: s.cfg.GatewayConfigured(),
		UptimeSeconds:     int64(time.Since(s.startedAt).Seconds()),
	}
	if !resp.DatabaseReachable {
		resp.Status = "degraded"
	}
	writeJSON(w, http.StatusOK, resp)
}

type indexResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, indexResponse{Name: "soapbridge", Version: "1.0.0"})
}
