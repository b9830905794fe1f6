package wsdl

import (
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/soapbridge/proxy/internal/errs"
	"github.com/soapbridge/proxy/internal/logger"
	"github.com/soapbridge/proxy/pkg/xsd"
)

// Load fetches source (a local path or an HTTP(S) URL), loads the schemas in
// its <types> together with their xs:import/xs:include graph, and returns a
// fully-wired Document whose every Operation.Input/Output carries a resolved
// *xsd.Type. wsdl:import elements are not followed. Raw WSDL bytes already
// held in memory (the multipart-upload path) go through LoadBytes instead.
func Load(source string, timeout time.Duration) (*Document, error) {
	f := newFetcher(timeout)
	doc, err := f.fetchXML(source)
	if err != nil {
		return nil, err
	}
	return build(doc, source, f)
}

// LoadBytes parses already-retrieved WSDL bytes (the multipart-upload path),
// still resolving any further imports relative to baseLocation if the WSDL
// references external schemas by relative path.
func LoadBytes(body []byte, baseLocation string, timeout time.Duration) (*Document, error) {
	f := newFetcher(timeout)
	doc, err := xmlquery.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, errs.Wrap(errs.WsdlMalformed, err, "parsing uploaded WSDL")
	}
	return build(doc, baseLocation, f)
}

func build(doc *xmlquery.Node, sourceURL string, f *fetcher) (*Document, error) {
	root := xmlquery.FindOne(doc, "/*[local-name()='definitions' or local-name()='description']")
	if root == nil {
		return nil, errs.New(errs.WsdlMalformed, "no wsdl:definitions (or WSDL2 description) root element found")
	}
	if localName(root) == "description" {
		return nil, errs.New(errs.WsdlUnsupported, "WSDL 2.0 documents are not supported")
	}

	registry := xsd.NewRegistry()
	sl := newSchemaLoader(f, registry)
	for _, types := range xmlquery.Find(root, "./*[local-name()='types']") {
		for _, schemaNode := range findChildrenLocal(types, "schema") {
			if err := sl.loadSchemaNode(schemaNode, sourceURL); err != nil {
				return nil, err
			}
		}
	}

	messages := parseMessages(root)
	portTypeOps := parsePortTypeOperations(root)
	bindings, err := parseBindings(root)
	if err != nil {
		return nil, err
	}
	rawServices := parseServices(root)

	if len(rawServices) == 0 {
		return nil, errs.New(errs.WsdlUnsupported, "no wsdl:service element found")
	}

	docResult := &Document{SourceURL: sourceURL, Services: make(map[string]*Service), Types: registry}

	for _, rawSvc := range rawServices {
		svc := &Service{Name: rawSvc.Name, Ports: make(map[string]*Port)}
		for _, rawPort := range rawSvc.Ports {
			binding, ok := bindings[rawPort.Binding]
			if !ok {
				logger.Warnf("port %q references unknown binding %q, skipping", rawPort.Name, rawPort.Binding)
				continue
			}
			ptOps, ok := portTypeOps[binding.PortType]
			if !ok {
				return nil, errs.New(errs.WsdlMalformed, "binding %q references unknown portType %q", binding.Name, binding.PortType)
			}
			port := &Port{
				Name:       rawPort.Name,
				Binding:    binding.Name,
				Address:    rawPort.Address,
				SOAP12:     binding.SOAP12,
				Operations: make(map[string]*Operation),
			}
			for opName, ptOp := range ptOps {
				bindOp := binding.Operations[opName]
				op := &Operation{Name: opName}
				if bindOp != nil {
					op.SOAPAction = bindOp.SOAPAction
				}
				if ptOp.InputMessage != "" {
					op.Input = resolveMessage(messages[ptOp.InputMessage], registry)
				}
				if ptOp.OutputMessage != "" {
					op.Output = resolveMessage(messages[ptOp.OutputMessage], registry)
				}
				port.Operations[opName] = op
			}
			svc.Ports[rawPort.Name] = port
		}
		docResult.Services[svc.Name] = svc
		docResult.ServiceOrder = append(docResult.ServiceOrder, svc.Name)
	}

	// Resolve every Reference reachable from every operation's input/output
	// element against the registry, now that all schemas (inline and
	// imported) have been loaded.
	for _, svc := range docResult.Services {
		for _, port := range svc.Ports {
			for _, op := range port.Operations {
				if err := resolveOperationMessage(op.Input, registry); err != nil {
					return nil, errs.Wrap(errs.WsdlMalformed, err, "resolving input of operation %q", op.Name)
				}
				if err := resolveOperationMessage(op.Output, registry); err != nil {
					return nil, errs.Wrap(errs.WsdlMalformed, err, "resolving output of operation %q", op.Name)
				}
			}
		}
	}

	return docResult, nil
}

func resolveOperationMessage(m *Message, reg *xsd.Registry) error {
	if m == nil || m.Element == nil {
		return nil
	}
	if m.Element.Kind == xsd.KindReference {
		// A message whose single part is element="foo" — first look up the
		// top-level element declaration to get its type, falling back to
		// treating the reference as a type name directly.
		if el, ok := reg.LookupElement(m.Element.RefQName); ok {
			resolved, err := reg.Resolve(el.Type)
			if err != nil {
				return err
			}
			m.Element = resolved
			return nil
		}
	}
	resolved, err := reg.Resolve(m.Element)
	if err != nil {
		return err
	}
	m.Element = resolved
	return nil
}
