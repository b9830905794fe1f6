package schema

import (
	"fmt"

	"github.com/soapbridge/proxy/internal/logger"
	"github.com/soapbridge/proxy/pkg/xsd"
)

// primitiveTable is the XSD local name -> (JSON type, format) mapping.
// Unknown primitives fall back to {type: object} and are logged.
var primitiveTable = map[string]struct {
	jsonType string
	format   string
}{
	"string":       {"string", ""},
	"anyURI":       {"string", ""},
	"base64Binary": {"string", ""},
	"hexBinary":    {"string", ""},
	"date":         {"string", "date"},
	"dateTime":     {"string", "dateTime"},
	"time":         {"string", "time"},
	"boolean":      {"boolean", ""},

	"int":                {"integer", ""},
	"integer":            {"integer", ""},
	"long":               {"integer", ""},
	"short":              {"integer", ""},
	"byte":               {"integer", ""},
	"unsignedLong":       {"integer", ""},
	"unsignedInt":        {"integer", ""},
	"unsignedShort":      {"integer", ""},
	"unsignedByte":       {"integer", ""},
	"positiveInteger":    {"integer", ""},
	"nonNegativeInteger": {"integer", ""},
	"negativeInteger":    {"integer", ""},
	"nonPositiveInteger": {"integer", ""},

	"decimal": {"number", ""},
	"float":   {"number", ""},
	"double":  {"number", ""},
}

// Translate converts a resolved xsd.Type into a JSON Schema node. It is
// purely functional over its input graph and safe to call concurrently with
// distinct Type graphs; the visited-set is constructed fresh per call.
func Translate(t *xsd.Type) *JSON {
	return translate(t, make(map[*xsd.Type]bool))
}

func translate(t *xsd.Type, visited map[*xsd.Type]bool) *JSON {
	if t == nil {
		return &JSON{Type: "object"}
	}

	if visited[t] {
		name := t.Name
		if name == "" {
			name = "<anonymous>"
		}
		return &JSON{Type: "object", Description: fmt.Sprintf("Circular reference to %s", name)}
	}

	switch t.Kind {
	case xsd.KindPrimitive:
		local := xsd.NormalizeQName(t.PrimitiveName)
		if mapped, ok := primitiveTable[local]; ok {
			return &JSON{Type: mapped.jsonType, Format: mapped.format}
		}
		logger.Warnf("unknown primitive type %q, falling back to object", t.PrimitiveName)
		return &JSON{Type: "object"}

	case xsd.KindList:
		visited[t] = true
		defer delete(visited, t)
		return &JSON{Type: "array", Items: translate(t.ItemType, visited)}

	case xsd.KindReference:
		// A reference reaching the translator unresolved is a loader defect;
		// degrade gracefully rather than panicking.
		logger.Warnf("unresolved type reference %q reached the translator", t.RefQName)
		return &JSON{Type: "object"}

	case xsd.KindComplex:
		return translateComplex(t, visited)
	}

	return &JSON{Type: "object"}
}

// translateComplex implements the complex-type rule, the wrapper-list
// unwrapping rule, and attribute rendering.
func translateComplex(t *xsd.Type, visited map[*xsd.Type]bool) *JSON {
	visited[t] = true
	defer delete(visited, t)

	// Wrapper-list unwrapping: a complex type whose element list has exactly
	// one entry with maxOccurs > 1 (or unbounded) replaces itself with a
	// bare array. Attributes/documentation on the wrapper do not suppress
	// this: they are dropped, since a bare JSON array has nowhere to carry
	// them.
	if len(t.Elements) == 1 && isRepeating(t.Elements[0]) {
		return &JSON{Type: "array", Items: translate(t.Elements[0].Type, visited)}
	}

	result := &JSON{Type: "object"}
	if len(t.Elements) > 0 || len(t.Attributes) > 0 {
		result.Properties = NewProperties()
	}
	var required []string

	for _, e := range t.Elements {
		prop := translateElementProperty(e, visited)
		result.Properties.Set(e.Name, prop)
		if isRequired(e.MinOccurs, e.Nillable) {
			required = append(required, e.Name)
		}
	}
	for _, a := range t.Attributes {
		prop := translate(a.Type, visited)
		result.Properties.Set(a.Name, prop)
		if a.Required {
			required = append(required, a.Name)
		}
	}

	if len(required) > 0 {
		result.Required = required
	}
	return result
}

// translateElementProperty applies the cardinality/array rule: a single
// element whose maxOccurs is unbounded or > 1 is emitted as {type: array,
// items: translate(e.Type)}; otherwise it translates directly. This is
// distinct from wrapper-list unwrapping, which replaces the *containing*
// type rather than one of its properties.
func translateElementProperty(e xsd.Element, visited map[*xsd.Type]bool) *JSON {
	base := translate(e.Type, visited)
	if isRepeating(e) {
		return &JSON{Type: "array", Items: base, Description: carryDescription(e)}
	}
	if e.Documentation != "" {
		base = cloneWithDescription(base, e.Documentation)
	}
	return base
}

func isRepeating(e xsd.Element) bool {
	return e.MaxOccurs == xsd.Unbounded || e.MaxOccurs > 1
}

// IsRepeating exports the cardinality test so the runtime translator can
// apply the same wrapper-unwrap/array rule when rebuilding XML from JSON.
func IsRepeating(e xsd.Element) bool { return isRepeating(e) }

// IsRequired exports the required-derivation rule for callers outside this
// package that need to validate a value against the same semantics used to
// build the schema (e.g. the runtime translator's parameter shape check).
func IsRequired(minOccurs int, nillable bool) bool { return isRequired(minOccurs, nillable) }

// isRequired implements the required-derivation rule: minOccurs >= 1 is
// required; minOccurs absent defaults to 1 (the parser already defaults
// MinOccurs to 1 when the attribute is absent). An explicit nillable=true
// marks the element optional even when minOccurs wasn't lowered to 0.
func isRequired(minOccurs int, nillable bool) bool {
	if nillable {
		return false
	}
	return minOccurs >= 1
}

func carryDescription(e xsd.Element) string {
	return e.Documentation
}

func cloneWithDescription(j *JSON, desc string) *JSON {
	if j.Description != "" {
		return j // a circular-reference placeholder already owns Description
	}
	clone := *j
	clone.Description = desc
	return &clone
}
