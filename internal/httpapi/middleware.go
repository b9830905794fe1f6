package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/soapbridge/proxy/internal/errs"
	"github.com/soapbridge/proxy/internal/logger"
)

func logRequest(method, path string, status int, d time.Duration) {
	logger.Infof("%s %s %d %s", method, path, status, d.Truncate(time.Millisecond))
}

// requireAdmin gates mutating endpoints behind either a static API key
// (X-API-Key header) or a bearer JWT signed with the configured secret.
// Neither configured means the admin surface is open: absence of config
// means the feature is off, rather than failing closed on startup.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.APIKey == "" && s.cfg.JWTSecret == "" {
			next.ServeHTTP(w, r)
			return
		}

		if s.cfg.APIKey != "" && r.Header.Get("X-API-Key") == s.cfg.APIKey {
			next.ServeHTTP(w, r)
			return
		}

		if s.cfg.JWTSecret != "" {
			if token := bearerToken(r); token != "" {
				parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
					return []byte(s.cfg.JWTSecret), nil
				}, jwt.WithValidMethods([]string{"HS256"}))
				if err == nil && parsed.Valid {
					next.ServeHTTP(w, r)
					return
				}
			}
		}

		writeError(w, errs.New(errs.Unauthenticated, "missing or invalid admin credentials"))
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if strings.HasPrefix(auth, prefix) {
		return strings.TrimPrefix(auth, prefix)
	}
	return ""
}

// writeError maps a taxonomy error to its HTTP status and a small JSON body;
// any other error is treated as internal, never leaking its raw message.
func writeError(w http.ResponseWriter, err error) {
	taxErr, ok := errs.As(err)
	if !ok {
		taxErr = errs.Wrap(errs.Internal, err, "unexpected error")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(taxErr.Status())
	body := map[string]string{"error": string(taxErr.Code), "detail": taxErr.Message}
	if taxErr.Detail != "" {
		body["fault"] = taxErr.Detail
	}
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
