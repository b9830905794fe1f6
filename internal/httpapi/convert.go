package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/soapbridge/proxy/internal/catalog"
	"github.com/soapbridge/proxy/internal/errs"
	"github.com/soapbridge/proxy/internal/logger"
	"github.com/soapbridge/proxy/internal/openapi"
	"github.com/soapbridge/proxy/internal/schema"
	"github.com/soapbridge/proxy/internal/wsdl"
)

type convertResponse struct {
	ServiceID        string `json:"service_id"`
	ServiceName      string `json:"service_name"`
	OperationsCount  int    `json:"operations_count"`
	GatewayRegistered bool  `json:"gateway_registered"`
	MCPEndpoint      string `json:"mcp_endpoint,omitempty"`
}

// handleConvert ingests a WSDL (multipart upload or wsdl_url form field),
// translates every operation into JSON Schema, emits an OpenAPI document,
// and persists the result as a new catalog Service.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil && err != http.ErrNotMultipart {
		writeError(w, errs.New(errs.InvalidInput, "malformed multipart form: %v", err))
		return
	}

	wsdlURL := r.FormValue("wsdl_url")
	serviceName := r.FormValue("service_name")
	autoRegister, _ := strconv.ParseBool(r.FormValue("auto_register_gateway"))

	var doc *wsdl.Document
	var err error
	if file, _, ferr := r.FormFile("wsdl"); ferr == nil {
		defer file.Close()
		body, readErr := io.ReadAll(file)
		if readErr != nil {
			writeError(w, errs.Wrap(errs.InvalidInput, readErr, "reading uploaded WSDL"))
			return
		}
		doc, err = wsdl.LoadBytes(body, wsdlURL, s.cfg.WSDLRequestTimeout)
	} else if wsdlURL != "" {
		doc, err = wsdl.Load(wsdlURL, s.cfg.WSDLRequestTimeout)
	} else {
		writeError(w, errs.New(errs.InvalidInput, "request must supply a wsdl file upload or a wsdl_url field"))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	svc, ok := doc.PrimaryService()
	if !ok {
		writeError(w, errs.New(errs.WsdlMalformed, "WSDL declares no service"))
		return
	}
	if serviceName == "" {
		serviceName = svc.Name
	}

	port := primaryPort(svc)
	if port == nil {
		writeError(w, errs.New(errs.WsdlUnsupported, "service %q declares no usable port", svc.Name))
		return
	}

	opNames := make([]string, 0, len(port.Operations))
	for name := range port.Operations {
		opNames = append(opNames, name)
	}
	sort.Strings(opNames)

	operations := make([]catalog.Operation, 0, len(opNames))
	specs := make([]openapi.OperationSpec, 0, len(opNames))
	for _, name := range opNames {
		op := port.Operations[name]
		inputSchema := schema.Translate(op.Input.Element)
		outputSchema := schema.Translate(op.Output.Element)

		inputBytes, merr := json.Marshal(inputSchema)
		if merr != nil {
			writeError(w, errs.Wrap(errs.Internal, merr, "marshaling input schema for %q", name))
			return
		}
		outputBytes, merr := json.Marshal(outputSchema)
		if merr != nil {
			writeError(w, errs.Wrap(errs.Internal, merr, "marshaling output schema for %q", name))
			return
		}

		operations = append(operations, catalog.Operation{
			ID:          uuid.New(),
			Name:        name,
			SOAPAction:  op.SOAPAction,
			PortName:    port.Name,
			InputSchema: datatypes.JSON(inputBytes),
			OutputSchema: datatypes.JSON(outputBytes),
		})
		specs = append(specs, openapi.OperationSpec{
			Name:         name,
			SOAPAction:   op.SOAPAction,
			PortName:     port.Name,
			InputSchema:  inputSchema,
			OutputSchema: outputSchema,
		})
	}

	openapiDoc := openapi.Build(serviceName, doc.SourceURL, s.cfg.ProxyBaseURL, specs)
	openapiBytes, err := openapiDoc.ToJSON()
	if err != nil {
		writeError(w, errs.Wrap(errs.Internal, err, "rendering openapi document for %q", serviceName))
		return
	}
	if err := openapi.Validate(openapiBytes); err != nil {
		writeError(w, errs.Wrap(errs.Internal, err, "emitted openapi document for %q failed validation", serviceName))
		return
	}

	service := &catalog.Service{
		ID:          uuid.New(),
		Name:        serviceName,
		WSDLURL:     doc.SourceURL,
		OpenAPISpec: datatypes.JSON(openapiBytes),
		Operations:  operations,
	}
	if err := s.store.Create(r.Context(), service); err != nil {
		writeError(w, err)
		return
	}

	resp := convertResponse{
		ServiceID:       service.ID.String(),
		ServiceName:     service.Name,
		OperationsCount: len(service.Operations),
	}

	if autoRegister {
		if !s.cfg.GatewayConfigured() {
			logger.Warnf("auto_register_gateway requested for %q but no gateway is configured, skipping", service.Name)
		} else if err := s.registrar.Register(r.Context(), service); err != nil {
			logger.Errorf("gateway auto-registration failed for %q: %v", service.Name, err)
		} else {
			resp.GatewayRegistered = true
			if service.MCPEndpoint != nil {
				resp.MCPEndpoint = *service.MCPEndpoint
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// primaryPort picks a deterministic port (lowest name) from a service with
// more than one binding; WSDLs in the wild commonly expose the same
// operations under a SOAP 1.1 and a SOAP 1.2 port, and registering both
// would double every gateway tool.
func primaryPort(svc *wsdl.Service) *wsdl.Port {
	names := make([]string, 0, len(svc.Ports))
	for name := range svc.Ports {
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)
	return svc.Ports[names[0]]
}
