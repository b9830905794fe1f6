// Package runtime is the Runtime Translator (C6): on every REST call it
// resolves the target service/operation, converts the inbound JSON body into
// a SOAP envelope, dispatches it to the upstream endpoint named in the WSDL,
// and converts the SOAP response back into JSON using the same rules the
// schema translator used to describe the operation's shape.
package runtime

import (
	"context"
	"time"

	"github.com/soapbridge/proxy/internal/catalog"
	"github.com/soapbridge/proxy/internal/errs"
	"github.com/soapbridge/proxy/internal/logger"
	"github.com/soapbridge/proxy/internal/schema"
	"github.com/soapbridge/proxy/internal/wsdl"
	"github.com/soapbridge/proxy/pkg/xsd"
)

// Translator is the call path from (serviceName, operationName, jsonInput)
// to jsonOutput.
type Translator struct {
	store  catalog.Store
	cache  *documentCache
	client *soapClient
}

// New builds a Translator backed by store, caching loaded WSDL documents for
// wsdlFetchTimeout (the per-fetch timeout, not a TTL — entries live until
// ClearCache is called) and dispatching SOAP calls with requestTimeout.
func New(store catalog.Store, wsdlFetchTimeout, requestTimeout time.Duration, redisAddr, redisPassword string) *Translator {
	return &Translator{
		store:  store,
		cache:  newDocumentCache(wsdlFetchTimeout, redisAddr, redisPassword),
		client: newSOAPClient(requestTimeout),
	}
}

// ClearCache evicts every cached WSDL document, local and (if Redis is
// configured) across every process sharing this deployment.
func (t *Translator) ClearCache(ctx context.Context) {
	t.cache.clear(ctx)
}

// Execute runs one operation call end to end, returning the decoded JSON
// response value or a taxonomy error.
func (t *Translator) Execute(ctx context.Context, serviceName, opName string, input interface{}) (interface{}, error) {
	svc, err := t.store.GetByName(ctx, serviceName)
	if err != nil {
		return nil, err
	}

	var catalogOp *catalog.Operation
	for i := range svc.Operations {
		if svc.Operations[i].Name == opName {
			catalogOp = &svc.Operations[i]
			break
		}
	}
	if catalogOp == nil {
		return nil, errs.New(errs.OperationUnknown, "service %q has no operation %q", serviceName, opName)
	}

	doc, err := t.cache.get(svc.WSDLURL)
	if err != nil {
		return nil, err
	}

	service, ok := doc.PrimaryService()
	if !ok {
		return nil, errs.New(errs.Internal, "WSDL document for %q has no service", serviceName)
	}
	port, ok := service.Ports[catalogOp.PortName]
	if !ok {
		return nil, errs.New(errs.Internal, "WSDL document for %q no longer has port %q", serviceName, catalogOp.PortName)
	}
	wop, ok := port.Operations[opName]
	if !ok {
		return nil, errs.New(errs.OperationUnknown, "WSDL document for %q no longer has operation %q", serviceName, opName)
	}

	normalized, err := normalizeInput(wop.Input, input)
	if err != nil {
		return nil, err
	}

	bodyXML := ""
	if wop.Input != nil && wop.Input.Element != nil {
		bodyXML, err = encodeElement(wop.Input.ElementName, wop.Input.Element, normalized)
		if err != nil {
			return nil, err
		}
	}

	respNode, err := t.client.call(ctx, port, wop, bodyXML)
	if err != nil {
		return nil, err
	}

	go t.touchWSDLAccess(svc.WSDLURL, serviceName)

	if wop.Output == nil || wop.Output.Element == nil || respNode == nil {
		return map[string]interface{}{}, nil
	}
	return decodeElement(respNode, wop.Output.Element)
}

// normalizeInput applies the scalar auto-wrap rule: a caller posting a bare
// scalar against an operation whose wrapper has exactly one property is
// treated as shorthand for {thatProperty: value}. When that one property is a
// repeating element, the input is passed through unchanged, since the
// wrapper-unwrap shape is already a bare array. Any other mismatch between the input's shape
// and the wrapper's declared elements is a ParameterShapeError rather than a
// silent best-effort guess.
func normalizeInput(msg *wsdl.Message, input interface{}) (interface{}, error) {
	if msg == nil || msg.Element == nil {
		return input, nil
	}
	t := msg.Element
	if t.Kind != xsd.KindComplex {
		return input, nil
	}
	if _, isObject := input.(map[string]interface{}); isObject {
		return input, nil
	}
	if len(t.Elements) == 1 && schema.IsRepeating(t.Elements[0]) {
		return input, nil // already a bare array, matches wrapper-unwrap shape
	}
	if len(t.Elements) == 0 {
		if input == nil {
			return map[string]interface{}{}, nil
		}
		return nil, errs.New(errs.ParameterShapeError,
			"operation takes no arguments, got a non-empty value")
	}
	if len(t.Elements) != 1 {
		return nil, errs.New(errs.ParameterShapeError,
			"operation expects an object with %d fields, got a scalar value", len(t.Elements))
	}
	return map[string]interface{}{t.Elements[0].Name: input}, nil
}

func (t *Translator) touchWSDLAccess(wsdlURL, serviceName string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := t.store.TouchWSDLAccess(ctx, wsdlURL, serviceName, time.Now()); err != nil {
		logger.Debugf("best-effort WSDL access touch failed for %s: %v", wsdlURL, err)
	}
}
