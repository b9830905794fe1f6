package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soapbridge/proxy/internal/catalog"
	"github.com/soapbridge/proxy/internal/errs"
	"github.com/soapbridge/proxy/internal/logger"
)

// Registrar drives one service's registration/unregistration against a
// Client, serializing the race with the catalog's conditional update before
// ever calling out to the gateway.
type Registrar struct {
	store        catalog.Store
	client       *Client
	proxyBaseURL string
}

// NewRegistrar builds a Registrar over store and client. proxyBaseURL is
// this process's own externally reachable address, used to build each
// tool's callback URL.
func NewRegistrar(store catalog.Store, client *Client, proxyBaseURL string) *Registrar {
	return &Registrar{store: store, client: client, proxyBaseURL: strings.TrimRight(proxyBaseURL, "/")}
}

// Register registers every operation of the named service as a gateway tool,
// then groups them under one server entry. If the server registration call
// fails after some tools were already created, the error is
// GatewayRegistrationPartial carrying the created tool IDs so an operator
// can clean them up or retry without re-registering every tool from scratch.
func (r *Registrar) Register(ctx context.Context, service *catalog.Service) error {
	if err := r.store.TryBeginRegistration(ctx, service.ID); err != nil {
		return err
	}

	toolIDsByOperation := make(map[string]string, len(service.Operations))
	var createdToolIDs []string
	for _, op := range service.Operations {
		inputSchema := json.RawMessage(op.InputSchema)
		if len(inputSchema) == 0 {
			inputSchema = json.RawMessage(`{"type":"object"}`)
		}
		toolID, err := r.client.RegisterTool(ctx, ToolSpec{
			Name:        service.Name + "." + op.Name,
			URL:         fmt.Sprintf("%s/soap/%s/%s", r.proxyBaseURL, service.Name, op.Name),
			Description: op.Name,
			InputSchema: inputSchema,
		})
		if err != nil {
			_ = r.store.ClearRegistration(ctx, service.ID)
			return errs.Wrap(errs.GatewayRegistrationPartial, err, "registering tool for operation %q", op.Name).
				WithDetail(strings.Join(createdToolIDs, ","))
		}
		createdToolIDs = append(createdToolIDs, toolID)
		toolIDsByOperation[op.Name] = toolID
	}

	serverName := strings.ReplaceAll(strings.ToLower(service.Name), " ", "-")
	serverUUID, err := r.client.RegisterServer(ctx, serverName, service.Description, createdToolIDs)
	if err != nil {
		_ = r.store.ClearRegistration(ctx, service.ID)
		return errs.Wrap(errs.GatewayRegistrationPartial, err, "registering server for %q after creating %d tools", service.Name, len(createdToolIDs)).
			WithDetail(strings.Join(createdToolIDs, ","))
	}

	now := time.Now()
	parsedUUID, err := parseOptionalUUID(serverUUID)
	if err != nil {
		logger.Warnf("gateway returned non-UUID server id %q for %q, storing as opaque string only in MCP endpoint", serverUUID, service.Name)
	}
	mcpEndpoint := fmt.Sprintf("%s/servers/%s/mcp", r.client.BaseURL(), serverUUID)
	binding := catalog.GatewayBinding{
		Registered:   true,
		ServerUUID:   parsedUUID,
		MCPEndpoint:  &mcpEndpoint,
		RegisteredAt: &now,
	}
	if err := r.store.MarkRegistered(ctx, service.ID, binding, toolIDsByOperation); err != nil {
		_ = r.store.ClearRegistration(ctx, service.ID)
		return errs.Wrap(errs.Internal, err, "persisting gateway registration for %q", service.Name)
	}
	service.GatewayBinding = binding
	for i := range service.Operations {
		if toolID, ok := toolIDsByOperation[service.Operations[i].Name]; ok {
			service.Operations[i].GatewayToolID = &toolID
		}
	}
	return nil
}

func parseOptionalUUID(s string) (*uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// Unregister removes service's gateway server entry and clears its catalog
// binding. Unregistering a service that is already unregistered is a
// successful no-op: no DELETE is issued, since the caller's intent ("this
// service should not be registered") is already satisfied.
func (r *Registrar) Unregister(ctx context.Context, service *catalog.Service) error {
	if !service.Registered || service.ServerUUID == nil {
		return nil
	}
	if err := r.client.UnregisterServer(ctx, service.ServerUUID.String()); err != nil {
		return err
	}
	if err := r.store.ClearRegistration(ctx, service.ID); err != nil {
		return err
	}
	service.GatewayBinding = catalog.GatewayBinding{}
	return nil
}
