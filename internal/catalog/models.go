// Package catalog is the Service Catalog (C5): the durable map from service
// name to WSDL URL, operations, and emitted schemas that the runtime
// translator and HTTP surface both depend on. Persistence is behind the
// Store interface; the default implementation is GORM over PostgreSQL
// (grounded on pyneda-sukyan's gorm+postgres+datatypes stack), with an
// alternate DynamoDB implementation for deployments without a relational
// database.
package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// GatewayBinding is Service's embedded registration state. Either both
// ServerUUID and MCPEndpoint are set (Registered) or neither is — no partial
// state is ever persisted.
type GatewayBinding struct {
	Registered   bool       `gorm:"column:gateway_registered;index"`
	ServerUUID   *uuid.UUID `gorm:"column:gateway_server_uuid;type:uuid"`
	MCPEndpoint  *string    `gorm:"column:gateway_mcp_endpoint"`
	RegisteredAt *time.Time `gorm:"column:gateway_registered_at"`
}

// Service is a registered WSDL-backed service.
type Service struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Name        string         `gorm:"column:name;uniqueIndex;not null"`
	WSDLURL     string         `gorm:"column:wsdl_url;not null"`
	Description string         `gorm:"column:description"`
	OpenAPISpec datatypes.JSON `gorm:"column:openapi_spec;not null"`

	GatewayBinding

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Operations []Operation `gorm:"foreignKey:ServiceID;constraint:OnDelete:CASCADE"`
}

func (Service) TableName() string { return "services" }

// Operation is one SOAP operation exposed by a Service.
type Operation struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	ServiceID     uuid.UUID      `gorm:"column:service_id;type:uuid;index;not null"`
	Name          string         `gorm:"column:name;not null"`
	SOAPAction    string         `gorm:"column:soap_action"`
	PortName      string         `gorm:"column:port_name"`
	InputSchema   datatypes.JSON `gorm:"column:input_schema"`
	OutputSchema  datatypes.JSON `gorm:"column:output_schema"`
	GatewayToolID *string        `gorm:"column:gateway_tool_id"`
}

func (Operation) TableName() string { return "operations" }

// WSDLCacheEntry is the advisory last-accessed table; losing it does not
// affect correctness.
type WSDLCacheEntry struct {
	WSDLURL      string    `gorm:"column:wsdl_url;primaryKey"`
	ServiceName  string    `gorm:"column:service_name;index"`
	LastAccessed time.Time `gorm:"column:last_accessed;autoUpdateTime"`
}

func (WSDLCacheEntry) TableName() string { return "wsdl_cache" }

// Summary is the list() projection without the OpenAPI body.
type Summary struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	WSDLURL           string    `json:"wsdl_url"`
	Description       string    `json:"description"`
	GatewayRegistered bool      `json:"gateway_registered"`
	OperationsCount   int       `json:"operations_count"`
	CreatedAt         time.Time `json:"created_at"`
}
