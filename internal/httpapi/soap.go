package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/soapbridge/proxy/internal/errs"
	"github.com/soapbridge/proxy/internal/logger"
)

// handleSOAPDispatch is the runtime endpoint: it validates the JSON body
// against the operation's stored input schema, hands it to the translator,
// and writes back the decoded JSON response.
func (s *Server) handleSOAPDispatch(w http.ResponseWriter, r *http.Request) {
	serviceName := chi.URLParam(r, "service")
	opName := chi.URLParam(r, "operation")

	var input interface{}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, errs.Wrap(errs.InvalidInput, err, "reading request body"))
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &input); err != nil {
			writeError(w, errs.Wrap(errs.InvalidInput, err, "decoding request body"))
			return
		}
	}

	svc, err := s.store.GetByName(r.Context(), serviceName)
	if err != nil {
		writeError(w, err)
		return
	}
	for i := range svc.Operations {
		op := &svc.Operations[i]
		if op.Name != opName {
			continue
		}
		if len(op.InputSchema) > 0 {
			if verr := validateAgainstSchema(op.InputSchema, input); verr != nil {
				writeError(w, errs.Wrap(errs.ParameterShapeError, verr, "request body does not match the operation's input schema"))
				return
			}
		}
		break
	}

	output, err := s.translator.Execute(r.Context(), serviceName, opName, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}

func validateAgainstSchema(schemaBytes []byte, value interface{}) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("operation-input.json", bytes.NewReader(schemaBytes)); err != nil {
		logger.Debugf("skipping request validation, could not load schema: %v", err)
		return nil
	}
	compiled, err := compiler.Compile("operation-input.json")
	if err != nil {
		logger.Debugf("skipping request validation, could not compile schema: %v", err)
		return nil
	}
	return compiled.Validate(value)
}
