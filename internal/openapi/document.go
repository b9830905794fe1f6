// Package openapi is the OpenAPI Emitter (C4): it wraps the per-operation
// schemas produced by internal/schema into a single OpenAPI 3.0 document per
// service, with inlined schemas and the non-standard x-soap-metadata
// extension the runtime translator relies on to avoid re-parsing the WSDL.
//
// The document is built as a plain struct tree and then round-tripped
// through pb33f/libopenapi as a structural validation pass before a caller
// persists it.
package openapi

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/soapbridge/proxy/internal/schema"
)

type Document struct {
	OpenAPI    string                `json:"openapi" yaml:"openapi"`
	Info       Info                  `json:"info" yaml:"info"`
	Servers    []Server              `json:"servers" yaml:"servers"`
	Paths      map[string]PathItem   `json:"paths" yaml:"paths"`
}

type Info struct {
	Title      string `json:"title" yaml:"title"`
	Version    string `json:"version" yaml:"version"`
	XWSDLURL   string `json:"x-wsdl-url,omitempty" yaml:"x-wsdl-url,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type Server struct {
	URL string `json:"url" yaml:"url"`
}

type PathItem struct {
	Post *Operation `json:"post,omitempty" yaml:"post,omitempty"`
}

type Operation struct {
	OperationID  string                `json:"operationId" yaml:"operationId"`
	RequestBody  RequestBody           `json:"requestBody" yaml:"requestBody"`
	Responses    map[string]Response   `json:"responses" yaml:"responses"`
	SOAPMetadata SOAPMetadata          `json:"x-soap-metadata" yaml:"x-soap-metadata"`
}

type SOAPMetadata struct {
	SOAPAction string `json:"soapAction" yaml:"soapAction"`
	PortName   string `json:"portName" yaml:"portName"`
}

type RequestBody struct {
	Required bool                 `json:"required" yaml:"required"`
	Content  map[string]MediaType `json:"content" yaml:"content"`
}

type Response struct {
	Description string               `json:"description" yaml:"description"`
	Content     map[string]MediaType `json:"content,omitempty" yaml:"content,omitempty"`
}

type MediaType struct {
	Schema *schema.JSON `json:"schema" yaml:"schema"`
}

const errorSchemaDescription = "error"

var errorResponseSchema = &schema.JSON{
	Type: "object",
	Properties: func() *schema.Properties {
		p := schema.NewProperties()
		p.Set("error", &schema.JSON{Type: "string"})
		p.Set("detail", &schema.JSON{Type: "string"})
		return p
	}(),
	Required: []string{"error"},
}

// OperationSpec is one operation's contribution to the emitted document.
type OperationSpec struct {
	Name         string
	SOAPAction   string
	PortName     string
	InputSchema  *schema.JSON
	OutputSchema *schema.JSON
}

// Build constructs the OpenAPI document for a service: one POST path per
// operation, inlined request/response schemas, and the x-soap-metadata
// extension.
func Build(serviceName, wsdlURL, proxyBaseURL string, operations []OperationSpec) *Document {
	doc := &Document{
		OpenAPI: "3.0.0",
		Info: Info{
			Title:    serviceName,
			Version:  "1.0.0",
			XWSDLURL: wsdlURL,
		},
		Servers: []Server{{URL: proxyBaseURL}},
		Paths:   make(map[string]PathItem),
	}

	for _, op := range operations {
		path := "/soap/" + serviceName + "/" + op.Name
		doc.Paths[path] = PathItem{
			Post: &Operation{
				OperationID: serviceName + "_" + op.Name,
				RequestBody: RequestBody{
					Required: true,
					Content: map[string]MediaType{
						"application/json": {Schema: nonNilSchema(op.InputSchema)},
					},
				},
				Responses: map[string]Response{
					"200": {
						Description: "Successful response",
						Content: map[string]MediaType{
							"application/json": {Schema: nonNilSchema(op.OutputSchema)},
						},
					},
					"500": {
						Description: "Error response",
						Content: map[string]MediaType{
							"application/json": {Schema: errorResponseSchema},
						},
					},
				},
				SOAPMetadata: SOAPMetadata{SOAPAction: op.SOAPAction, PortName: op.PortName},
			},
		}
	}
	return doc
}

func nonNilSchema(s *schema.JSON) *schema.JSON {
	if s == nil {
		return &schema.JSON{Type: "object"}
	}
	return s
}

// ToJSON renders the document as indented JSON bytes.
func (d *Document) ToJSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// ToYAML renders the document as YAML bytes for the openapi.yaml download
// endpoint. It marshals the typed tree directly, rather than round-tripping
// through encoding/json into a generic map, since the latter would collapse
// schema.Properties' insertion order into an unordered map.
func (d *Document) ToYAML() ([]byte, error) {
	return yaml.Marshal(d)
}
