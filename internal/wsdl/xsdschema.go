package wsdl

import (
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/soapbridge/proxy/internal/errs"
	"github.com/soapbridge/proxy/internal/logger"
	"github.com/soapbridge/proxy/pkg/xsd"
)

// schemaLoader walks <xs:schema> nodes (inline in the WSDL's <types>, or
// pulled in via <xs:import>/<xs:include>) and populates a shared Registry.
// Imports/includes are resolved depth-first and deduplicated by absolute
// location, exactly as required for the WSDL document graph itself.
type schemaLoader struct {
	fetch      *fetcher
	registry   *xsd.Registry
	visitedDoc map[string]bool // absolute schema location -> processed
	anonCount  int
}

func newSchemaLoader(f *fetcher, reg *xsd.Registry) *schemaLoader {
	return &schemaLoader{fetch: f, registry: reg, visitedDoc: make(map[string]bool)}
}

func localName(n *xmlquery.Node) string {
	if idx := strings.IndexByte(n.Data, ':'); idx >= 0 {
		return n.Data[idx+1:]
	}
	return n.Data
}

func childElements(n *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

func findChildrenLocal(n *xmlquery.Node, local string) []*xmlquery.Node {
	var out []*xmlquery.Node
	for _, c := range childElements(n) {
		if localName(c) == local {
			out = append(out, c)
		}
	}
	return out
}

func findChildLocal(n *xmlquery.Node, local string) *xmlquery.Node {
	cs := findChildrenLocal(n, local)
	if len(cs) == 0 {
		return nil
	}
	return cs[0]
}

// loadSchemaNode processes one <xs:schema> element (inline or fetched),
// registering every top-level type and element it declares, and recursing
// into <xs:import>/<xs:include> first so forward references resolve.
func (l *schemaLoader) loadSchemaNode(schemaNode *xmlquery.Node, baseLocation string) error {
	targetNS := schemaNode.SelectAttr("targetNamespace")

	for _, child := range childElements(schemaNode) {
		switch localName(child) {
		case "import", "include":
			location := child.SelectAttr("schemaLocation")
			if location == "" {
				continue
			}
			abs, err := resolve(baseLocation, location)
			if err != nil {
				logger.Warnf("skipping unresolvable schema import %q: %v", location, err)
				continue
			}
			if l.visitedDoc[abs] {
				continue
			}
			l.visitedDoc[abs] = true
			doc, err := l.fetch.fetchXML(abs)
			if err != nil {
				return err
			}
			importedSchema := findSchemaRoot(doc)
			if importedSchema == nil {
				return errs.New(errs.WsdlMalformed, "no <schema> root found in imported document %s", abs)
			}
			if err := l.loadSchemaNode(importedSchema, abs); err != nil {
				return err
			}
		}
	}

	for _, child := range childElements(schemaNode) {
		switch localName(child) {
		case "element":
			name := child.SelectAttr("name")
			if name == "" {
				continue // local/anonymous top-level element reference, handled inline
			}
			el := l.parseElement(child, targetNS)
			l.registry.DefineElement(name, &el)
		case "complexType":
			name := child.SelectAttr("name")
			if name == "" {
				continue
			}
			t := l.parseComplexType(child, targetNS)
			t.Name = name
			l.registry.DefineType(name, t)
		case "simpleType":
			name := child.SelectAttr("name")
			if name == "" {
				continue
			}
			t := l.parseSimpleType(child)
			t.Name = name
			l.registry.DefineType(name, t)
		}
	}
	return nil
}

func findSchemaRoot(doc *xmlquery.Node) *xmlquery.Node {
	return xmlquery.FindOne(doc, "//*[local-name()='schema']")
}

// parseElement resolves an <xs:element> declaration (top-level or nested
// inside a complexType's sequence/all/choice) to an xsd.Element.
func (l *schemaLoader) parseElement(node *xmlquery.Node, targetNS string) xsd.Element {
	e := xsd.Element{
		Name:      node.SelectAttr("name"),
		MinOccurs: parseOccurs(node.SelectAttr("minOccurs"), 1),
		MaxOccurs: parseOccurs(node.SelectAttr("maxOccurs"), 1),
		Nillable:  node.SelectAttr("nillable") == "true",
	}
	if doc := findChildLocal(node, "annotation"); doc != nil {
		if d := findChildLocal(doc, "documentation"); d != nil {
			e.Documentation = strings.TrimSpace(d.InnerText())
		}
	}

	if ref := node.SelectAttr("ref"); ref != "" {
		_, local := xsd.SplitPrefixed(ref)
		e.Type = xsd.NewReference(local)
		if e.Name == "" {
			e.Name = local
		}
		return e
	}

	if typeAttr := node.SelectAttr("type"); typeAttr != "" {
		e.Type = l.typeRefOrPrimitive(typeAttr)
		return e
	}

	// Inline anonymous type declaration.
	if ct := findChildLocal(node, "complexType"); ct != nil {
		e.Type = l.parseComplexType(ct, targetNS)
		return e
	}
	if st := findChildLocal(node, "simpleType"); st != nil {
		e.Type = l.parseSimpleType(st)
		return e
	}

	// No type information at all: treat as an opaque object, logged as a
	// lossy fallback per the primitive-mapping rule for unknown types.
	logger.Warnf("element %q has no type information; falling back to object", e.Name)
	e.Type = &xsd.Type{Kind: xsd.KindComplex}
	return e
}

// typeRefOrPrimitive resolves a type="" attribute: if it names an XSD
// built-in it becomes an immediate Primitive node, otherwise a Reference to
// be resolved later against the Registry.
func (l *schemaLoader) typeRefOrPrimitive(typeAttr string) *xsd.Type {
	prefix, local := xsd.SplitPrefixed(typeAttr)
	if isXMLSchemaPrefix(prefix, local) {
		return xsd.NewPrimitive(local)
	}
	return xsd.NewReference(local)
}

// isXMLSchemaPrefix heuristically treats "xs", "xsd", and an empty prefix
// whose local name matches a known XSD primitive as the XML Schema
// namespace, since the loader does not track full prefix->URI bindings for
// every document it reads (WSDLs commonly alias xs/xsd interchangeably).
func isXMLSchemaPrefix(prefix, local string) bool {
	return prefix == "xs" || prefix == "xsd" || (prefix == "" && isKnownPrimitive(local))
}

func (l *schemaLoader) parseComplexType(node *xmlquery.Node, targetNS string) *xsd.Type {
	t := xsd.NewComplex("")
	l.anonCount++

	container := node
	if seq := findChildLocal(node, "sequence"); seq != nil {
		container = seq
	} else if all := findChildLocal(node, "all"); all != nil {
		container = all
	} else if choice := findChildLocal(node, "choice"); choice != nil {
		container = choice
	} else if cc := findChildLocal(node, "complexContent"); cc != nil {
		// Extension/restriction: flatten the base type's elements into this
		// one. Facet-level restriction semantics (pattern, enumeration,
		// min/maxInclusive) are out of scope; only the element list is carried
		// forward.
		if ext := findChildLocal(cc, "extension"); ext != nil {
			if base := ext.SelectAttr("base"); base != "" {
				_, local := xsd.SplitPrefixed(base)
				if baseType, ok := l.registry.LookupType(local); ok && baseType.Kind == xsd.KindComplex {
					t.Elements = append(t.Elements, baseType.Elements...)
					t.Attributes = append(t.Attributes, baseType.Attributes...)
				}
			}
			if seq := findChildLocal(ext, "sequence"); seq != nil {
				container = seq
			} else {
				container = ext
			}
		}
	}

	for _, el := range findChildrenLocal(container, "element") {
		t.Elements = append(t.Elements, l.parseElement(el, targetNS))
	}
	for _, attr := range findChildrenLocal(node, "attribute") {
		t.Attributes = append(t.Attributes, l.parseAttribute(attr))
	}
	return t
}

func (l *schemaLoader) parseAttribute(node *xmlquery.Node) xsd.Attribute {
	a := xsd.Attribute{
		Name:     node.SelectAttr("name"),
		Required: node.SelectAttr("use") == "required",
	}
	if typeAttr := node.SelectAttr("type"); typeAttr != "" {
		a.Type = l.typeRefOrPrimitive(typeAttr)
	} else {
		a.Type = xsd.NewPrimitive("string")
	}
	return a
}

// parseSimpleType reduces a <xs:simpleType> to its base type (restriction),
// a List of its item type (list), or string (union); facet constraints
// (pattern, enumeration, etc.) are a declared Non-goal.
func (l *schemaLoader) parseSimpleType(node *xmlquery.Node) *xsd.Type {
	if restriction := findChildLocal(node, "restriction"); restriction != nil {
		base := restriction.SelectAttr("base")
		_, local := xsd.SplitPrefixed(base)
		if baseType, ok := l.registry.LookupType(local); ok {
			return baseType
		}
		return xsd.NewPrimitive(local)
	}
	if list := findChildLocal(node, "list"); list != nil {
		itemType := list.SelectAttr("itemType")
		return &xsd.Type{Kind: xsd.KindList, ItemType: l.typeRefOrPrimitive(itemType)}
	}
	// union or unrecognized: fall back to string.
	return xsd.NewPrimitive("string")
}

func parseOccurs(v string, def int) int {
	if v == "" {
		return def
	}
	if v == "unbounded" {
		return xsd.Unbounded
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
