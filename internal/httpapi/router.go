// Package httpapi is the HTTP Surface (C8): it exposes the conversion,
// catalog, gateway-registration, and SOAP-dispatch endpoints over chi rather
// than a bare stdlib net/http.ServeMux, for path parameters and
// per-route middleware composition.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/soapbridge/proxy/internal/appconfig"
	"github.com/soapbridge/proxy/internal/catalog"
	"github.com/soapbridge/proxy/internal/gateway"
	"github.com/soapbridge/proxy/internal/runtime"
)

// Server bundles everything a request handler needs.
type Server struct {
	cfg        *appconfig.Config
	store      catalog.Store
	translator *runtime.Translator
	registrar  *gateway.Registrar
	startedAt  time.Time
}

// New wires the full route table.
func New(cfg *appconfig.Config, store catalog.Store, translator *runtime.Translator, registrar *gateway.Registrar) http.Handler {
	s := &Server{cfg: cfg, store: store, translator: translator, registrar: registrar, startedAt: time.Now()}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)

	r.With(s.requireAdmin).Post("/api/convert", s.handleConvert)

	r.Route("/api/services", func(r chi.Router) {
		r.Get("/", s.handleListServices)
		r.Get("/{id}", s.handleGetService)
		r.With(s.requireAdmin).Delete("/{id}", s.handleDeleteService)
		r.Get("/{id}/openapi.json", s.handleOpenAPIJSON)
		r.Get("/{id}/openapi.yaml", s.handleOpenAPIYAML)
		r.With(s.requireAdmin).Post("/{id}/register-gateway", s.handleRegisterGateway)
		r.With(s.requireAdmin).Delete("/{id}/unregister-gateway", s.handleUnregisterGateway)
	})

	r.With(s.requireAdmin).Post("/admin/clear-cache", s.handleClearCache)

	r.Post("/soap/{service}/{operation}", s.handleSOAPDispatch)

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logRequest(r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}
