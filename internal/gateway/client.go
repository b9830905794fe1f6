// Package gateway is the Gateway Registrar (C7): it turns a catalog
// service's operations into tools on an external tool gateway, then groups
// them under a server entry, using bearer-token HTTPS calls built on plain
// net/http rather than a generated client, since the gateway's wire contract
// is three small JSON endpoints.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"

	"github.com/soapbridge/proxy/internal/errs"
	"github.com/soapbridge/proxy/internal/logger"
)

// Client calls a tool gateway's /tools and /servers endpoints.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

// New builds a Client against baseURL, authenticating every call with
// token as a bearer credential.
func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// ToolSpec describes one operation to register as a gateway tool.
type ToolSpec struct {
	Name        string
	URL         string
	Description string
	InputSchema json.RawMessage
}

// RegisterTool posts one tool definition and returns the gateway-assigned
// tool ID. The gateway's response field naming isn't fixed across
// deployments (some return "id", others "tool_id" or "uuid"), so the ID is
// extracted by flexible field lookup rather than a single fixed struct tag.
func (c *Client) RegisterTool(ctx context.Context, spec ToolSpec) (string, error) {
	inputSchema := spec.InputSchema
	if len(inputSchema) == 0 {
		inputSchema = json.RawMessage(`{"type":"object"}`)
	}
	payload := map[string]interface{}{
		"tool": map[string]interface{}{
			"name":            spec.Name,
			"url":             spec.URL,
			"description":     spec.Description,
			"integration_type": "REST",
			"request_type":    "POST",
			"input_schema":    inputSchema,
		},
	}
	body, err := c.post(ctx, "/tools", payload)
	if err != nil {
		return "", err
	}
	id, ok := extractID(body, "id", "tool_id", "uuid")
	if !ok {
		return "", errs.New(errs.UpstreamUnavailable, "gateway response for tool %q had no recognizable id field", spec.Name)
	}
	return id, nil
}

// RegisterServer groups previously registered tool IDs under a named server
// entry and returns its server UUID.
func (c *Client) RegisterServer(ctx context.Context, name, description string, toolIDs []string) (serverUUID string, err error) {
	payload := map[string]interface{}{
		"server": map[string]interface{}{
			"name":            name,
			"description":     description,
			"associatedTools": toolIDs,
		},
	}
	body, err := c.post(ctx, "/servers", payload)
	if err != nil {
		return "", err
	}
	uuid, ok := extractID(body, "id", "uuid")
	if !ok {
		return "", errs.New(errs.UpstreamUnavailable, "gateway response for server %q had no recognizable id field", name)
	}
	return uuid, nil
}

// BaseURL returns the gateway's configured base URL, used by the registrar
// to compute the MCP endpoint without another round trip.
func (c *Client) BaseURL() string { return c.baseURL }

// UnregisterServer deletes a server by UUID. A 404 is treated as success,
// since the caller's intent ("this server should not exist") is already
// satisfied.
func (c *Client) UnregisterServer(ctx context.Context, serverUUID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/servers/"+serverUUID, nil)
	if err != nil {
		return errs.Wrap(errs.Internal, err, "building unregister request")
	}
	c.authorize(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return errs.Wrap(errs.UpstreamUnavailable, err, "calling gateway to unregister server %s", serverUUID)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		logger.Debugf("gateway server %s already absent, treating unregister as successful", serverUUID)
		return nil
	}
	if resp.StatusCode >= 400 {
		return errs.New(errs.UpstreamUnavailable, "gateway rejected unregister for server %s: HTTP %d", serverUUID, resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) (map[string]interface{}, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "marshaling gateway request to %s", path)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "building gateway request to %s", path)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.UpstreamUnavailable, err, "calling gateway %s", path)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.UpstreamUnavailable, err, "reading gateway response from %s", path)
	}
	if resp.StatusCode >= 400 {
		return nil, errs.New(errs.UpstreamUnavailable, "gateway rejected %s: HTTP %d", path, resp.StatusCode).WithDetail(string(respBody))
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, errs.Wrap(errs.UpstreamUnavailable, err, "decoding gateway response from %s", path)
	}
	return decoded, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
}

func extractID(data map[string]interface{}, fields ...string) (string, bool) {
	for _, field := range fields {
		v, err := jsonpath.Get("$."+field, data)
		if err != nil {
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}
