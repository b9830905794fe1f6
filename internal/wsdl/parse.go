package wsdl

import (
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/soapbridge/proxy/internal/errs"
	"github.com/soapbridge/proxy/pkg/xsd"
)

// rawPart is one <wsdl:part> of a <wsdl:message>: either element-typed
// (document/literal) or type-typed (RPC/literal).
type rawPart struct {
	Name    string
	Element string // element="" attribute, local part only
	Type    string // type="" attribute, local part only
}

type rawMessage struct {
	Name  string
	Parts []rawPart
}

type rawBindingOperation struct {
	Name       string
	SOAPAction string
	Style      string // "rpc" or "document"
}

type rawPortTypeOperation struct {
	Name         string
	InputMessage string
	OutputMessage string
}

// parseMessages collects every <wsdl:message> in the document by local name
// (WSDL messages are always referenced unqualified by the parts that use
// them, within the same target namespace).
func parseMessages(doc *xmlquery.Node) map[string]*rawMessage {
	out := make(map[string]*rawMessage)
	for _, node := range xmlquery.Find(doc, "//*[local-name()='message']") {
		msg := &rawMessage{Name: node.SelectAttr("name")}
		for _, part := range findChildrenLocal(node, "part") {
			p := rawPart{Name: part.SelectAttr("name")}
			if el := part.SelectAttr("element"); el != "" {
				_, p.Element = xsd.SplitPrefixed(el)
			}
			if ty := part.SelectAttr("type"); ty != "" {
				_, p.Type = xsd.SplitPrefixed(ty)
			}
			msg.Parts = append(msg.Parts, p)
		}
		out[msg.Name] = msg
	}
	return out
}

// parsePortTypeOperations maps portType name -> operation name -> raw
// input/output message references.
func parsePortTypeOperations(doc *xmlquery.Node) map[string]map[string]*rawPortTypeOperation {
	out := make(map[string]map[string]*rawPortTypeOperation)
	for _, pt := range xmlquery.Find(doc, "//*[local-name()='portType']") {
		ptName := pt.SelectAttr("name")
		ops := make(map[string]*rawPortTypeOperation)
		for _, opNode := range findChildrenLocal(pt, "operation") {
			op := &rawPortTypeOperation{Name: opNode.SelectAttr("name")}
			if in := findChildLocal(opNode, "input"); in != nil {
				_, op.InputMessage = xsd.SplitPrefixed(in.SelectAttr("message"))
			}
			if out2 := findChildLocal(opNode, "output"); out2 != nil {
				_, op.OutputMessage = xsd.SplitPrefixed(out2.SelectAttr("message"))
			}
			ops[op.Name] = op
		}
		out[ptName] = ops
	}
	return out
}

// bindingInfo is one <wsdl:binding>: the portType it implements, the SOAP
// version/style, and per-operation SOAPAction overrides.
type bindingInfo struct {
	Name       string
	PortType   string
	SOAP12     bool
	Operations map[string]*rawBindingOperation
}

func parseBindings(doc *xmlquery.Node) (map[string]*bindingInfo, error) {
	out := make(map[string]*bindingInfo)
	for _, b := range xmlquery.Find(doc, "//*[local-name()='binding']") {
		_, portType := xsd.SplitPrefixed(b.SelectAttr("type"))
		binding := &bindingInfo{
			Name:       b.SelectAttr("name"),
			PortType:   portType,
			Operations: make(map[string]*rawBindingOperation),
		}
		if soapBinding := xmlquery.FindOne(b, "./*[local-name()='binding']"); soapBinding != nil {
			binding.SOAP12 = localNamespacePrefix(soapBinding) == "soap12"
			if style := soapBinding.SelectAttr("style"); style == "rpc" {
				// RPC/encoded style is explicitly a Non-goal; document/rpc-literal
				// without "use=encoded" is tolerated since the part-shape (element
				// vs type) is what actually drives our synthesis, but rpc+encoded
				// is rejected outright below once we see the operation-level use.
			}
		}
		for _, opNode := range findChildrenLocal(b, "operation") {
			op := &rawBindingOperation{Name: opNode.SelectAttr("name")}
			if soapOp := xmlquery.FindOne(opNode, "./*[local-name()='operation']"); soapOp != nil {
				op.SOAPAction = soapOp.SelectAttr("soapAction")
				op.Style = soapOp.SelectAttr("style")
			}
			if inNode := findChildLocal(opNode, "input"); inNode != nil {
				if body := xmlquery.FindOne(inNode, "./*[local-name()='body']"); body != nil {
					if body.SelectAttr("use") == "encoded" {
						return nil, errs.New(errs.WsdlUnsupported, "binding %q uses SOAP encoding, which is unsupported", binding.Name)
					}
				}
			}
			binding.Operations[op.Name] = op
		}
		out[binding.Name] = binding
	}
	return out, nil
}

func localNamespacePrefix(n *xmlquery.Node) string {
	if idx := strings.IndexByte(n.Data, ':'); idx >= 0 {
		return n.Data[:idx]
	}
	return ""
}

// rawServicePort is one <wsdl:port> within a <wsdl:service>.
type rawServicePort struct {
	Name    string
	Binding string
	Address string
}

func parseServices(doc *xmlquery.Node) []struct {
	Name  string
	Ports []rawServicePort
} {
	var out []struct {
		Name  string
		Ports []rawServicePort
	}
	for _, svc := range xmlquery.Find(doc, "//*[local-name()='service']") {
		entry := struct {
			Name  string
			Ports []rawServicePort
		}{Name: svc.SelectAttr("name")}
		for _, port := range findChildrenLocal(svc, "port") {
			_, binding := xsd.SplitPrefixed(port.SelectAttr("binding"))
			p := rawServicePort{Name: port.SelectAttr("name"), Binding: binding}
			if addr := xmlquery.FindOne(port, "./*[local-name()='address']"); addr != nil {
				p.Address = addr.SelectAttr("location")
			}
			entry.Ports = append(entry.Ports, p)
		}
		out = append(out, entry)
	}
	return out
}
