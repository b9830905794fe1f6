// Package wsdl is the WSDL Loader (C2): it fetches a WSDL document and the
// XSD schemas it imports, resolves every reference, and produces a service
// map plus a type registry that the schema translator (internal/schema)
// consumes without ever touching XML again.
package wsdl

import "github.com/soapbridge/proxy/pkg/xsd"

// Message is a resolved port-type operation input/output: either it
// names a single top-level element (document/literal style) or it carries
// one or more typed parts (RPC/literal style), synthesized into a wrapper
// element by resolveMessage (see synthetic.go).
type Message struct {
	Name string
	// ElementName is the local name of the XML element the runtime
	// translator must emit/expect in the SOAP Body for this message: the
	// referenced global element's name for document/literal messages, or the
	// synthesized wrapper's name for RPC/literal messages (see synthetic.go).
	ElementName string
	Element     *xsd.Type // the resolved element type, always set after loading
}

// Operation is one WSDL operation as seen by a binding: the pairing of a
// portType operation's messages with the binding's SOAPAction.
type Operation struct {
	Name       string
	SOAPAction string
	Input      *Message
	Output     *Message
}

// Port is a named binding endpoint within a service.
type Port struct {
	Name       string
	Binding    string
	Address    string // the SOAP endpoint URL from soap:address/@location
	SOAP12     bool
	Operations map[string]*Operation
}

// Service is one wsdl:service element: a named group of ports.
type Service struct {
	Name  string
	Ports map[string]*Port
}

// Document is the fully loaded and resolved result of Load: every Service in
// the WSDL, plus the type registry backing every Operation's Input/Output
// element types.
type Document struct {
	SourceURL   string
	Services    map[string]*Service
	ServiceOrder []string // document order, for the "first service wins" rule
	Types       *xsd.Registry
}

// PrimaryService returns the first service in document order, for WSDLs
// declaring more than one service and no name override.
func (d *Document) PrimaryService() (*Service, bool) {
	if len(d.ServiceOrder) == 0 {
		return nil, false
	}
	return d.Services[d.ServiceOrder[0]], true
}
