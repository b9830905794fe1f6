package runtime

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/soapbridge/proxy/internal/errs"
	"github.com/soapbridge/proxy/internal/schema"
	"github.com/soapbridge/proxy/pkg/xsd"
)

// encodeElement renders value (a decoded JSON value: map[string]interface{},
// []interface{}, string, float64, bool, or nil) as an XML element named name
// whose shape is governed by t, mirroring the same wrapper-unwrap and
// cardinality rules the schema translator used to produce the JSON shape in
// the first place, so encoding is the translator's inverse.
func encodeElement(name string, t *xsd.Type, value interface{}) (string, error) {
	var b strings.Builder
	if err := encodeInto(&b, name, t, value); err != nil {
		return "", err
	}
	return b.String(), nil
}

func encodeInto(b *strings.Builder, name string, t *xsd.Type, value interface{}) error {
	if t == nil || value == nil {
		fmt.Fprintf(b, "<%s/>", name)
		return nil
	}

	switch t.Kind {
	case xsd.KindPrimitive, xsd.KindList:
		text, err := encodeScalar(t, value)
		if err != nil {
			return fmt.Errorf("element %q: %w", name, err)
		}
		fmt.Fprintf(b, "<%s>%s</%s>", name, text, name)
		return nil

	case xsd.KindReference:
		return fmt.Errorf("element %q: unresolved type reference %q", name, t.RefQName)

	case xsd.KindComplex:
		if len(t.Elements) == 1 && schema.IsRepeating(t.Elements[0]) {
			items, ok := value.([]interface{})
			if !ok {
				return errs.New(errs.ParameterShapeError, "field %q expects an array", name)
			}
			fmt.Fprintf(b, "<%s>", name)
			el := t.Elements[0]
			for _, item := range items {
				if err := encodeInto(b, el.Name, el.Type, item); err != nil {
					return err
				}
			}
			fmt.Fprintf(b, "</%s>", name)
			return nil
		}

		obj, ok := value.(map[string]interface{})
		if !ok {
			return errs.New(errs.ParameterShapeError, "field %q expects an object", name)
		}
		fmt.Fprintf(b, "<%s", name)
		for _, a := range t.Attributes {
			if v, present := obj[a.Name]; present && v != nil {
				text, err := encodeScalar(a.Type, v)
				if err != nil {
					return fmt.Errorf("attribute %q: %w", a.Name, err)
				}
				fmt.Fprintf(b, " %s=%q", a.Name, text)
			}
		}
		b.WriteByte('>')
		for _, e := range t.Elements {
			v, present := obj[e.Name]
			if !present || v == nil {
				if schema.IsRequired(e.MinOccurs, e.Nillable) {
					return errs.New(errs.ParameterShapeError, "missing required field %q", e.Name)
				}
				continue
			}
			if schema.IsRepeating(e) {
				items, ok := v.([]interface{})
				if !ok {
					return errs.New(errs.ParameterShapeError, "field %q expects an array", e.Name)
				}
				for _, item := range items {
					if err := encodeInto(b, e.Name, e.Type, item); err != nil {
						return err
					}
				}
				continue
			}
			if err := encodeInto(b, e.Name, e.Type, v); err != nil {
				return err
			}
		}
		fmt.Fprintf(b, "</%s>", name)
		return nil
	}
	return fmt.Errorf("element %q: unhandled type kind", name)
}

func encodeScalar(t *xsd.Type, value interface{}) (string, error) {
	if t != nil && t.Kind == xsd.KindList {
		items, ok := value.([]interface{})
		if !ok {
			return "", errs.New(errs.ParameterShapeError, "expected a list value")
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			s, err := encodeScalar(t.ItemType, item)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, " "), nil
	}

	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case bool:
		raw = strconv.FormatBool(v)
	case float64:
		raw = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		raw = fmt.Sprintf("%v", v)
	}

	var buf strings.Builder
	if err := xml.EscapeText(&buf, []byte(raw)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// decodeElement converts node, shaped by t, into a decoded JSON value
// (map[string]interface{}, []interface{}, string, float64, or bool).
func decodeElement(node *xmlquery.Node, t *xsd.Type) (interface{}, error) {
	if t == nil {
		return strings.TrimSpace(node.InnerText()), nil
	}

	switch t.Kind {
	case xsd.KindPrimitive:
		return decodeScalar(t, strings.TrimSpace(node.InnerText())), nil

	case xsd.KindList:
		text := strings.TrimSpace(node.InnerText())
		if text == "" {
			return []interface{}{}, nil
		}
		fields := strings.Fields(text)
		out := make([]interface{}, 0, len(fields))
		for _, f := range fields {
			out = append(out, decodeScalar(t.ItemType, f))
		}
		return out, nil

	case xsd.KindReference:
		return nil, fmt.Errorf("unresolved type reference %q reached decoding", t.RefQName)

	case xsd.KindComplex:
		if len(t.Elements) == 1 && schema.IsRepeating(t.Elements[0]) {
			el := t.Elements[0]
			children := childElementsLocal(node, el.Name)
			out := make([]interface{}, 0, len(children))
			for _, c := range children {
				v, err := decodeElement(c, el.Type)
				if err != nil {
					return nil, err
				}
				out = append(out, v)
			}
			return out, nil
		}

		obj := make(map[string]interface{}, len(t.Elements)+len(t.Attributes))
		for _, a := range t.Attributes {
			if attr := findAttrLocal(node, a.Name); attr != "" {
				obj[a.Name] = decodeScalar(a.Type, attr)
			}
		}
		for _, e := range t.Elements {
			children := childElementsLocal(node, e.Name)
			if len(children) == 0 {
				continue
			}
			if schema.IsRepeating(e) {
				arr := make([]interface{}, 0, len(children))
				for _, c := range children {
					v, err := decodeElement(c, e.Type)
					if err != nil {
						return nil, err
					}
					arr = append(arr, v)
				}
				obj[e.Name] = arr
				continue
			}
			v, err := decodeElement(children[0], e.Type)
			if err != nil {
				return nil, err
			}
			obj[e.Name] = v
		}
		return obj, nil
	}
	return nil, fmt.Errorf("unhandled type kind decoding %q", node.Data)
}

func decodeScalar(t *xsd.Type, text string) interface{} {
	if t == nil || t.Kind != xsd.KindPrimitive {
		return text
	}
	switch xsd.NormalizeQName(t.PrimitiveName) {
	case "boolean":
		b, err := strconv.ParseBool(text)
		if err == nil {
			return b
		}
	case "int", "integer", "long", "short", "byte",
		"unsignedLong", "unsignedInt", "unsignedShort", "unsignedByte",
		"positiveInteger", "nonNegativeInteger", "negativeInteger", "nonPositiveInteger",
		"decimal", "float", "double":
		n, err := strconv.ParseFloat(text, 64)
		if err == nil {
			return n
		}
	}
	return text
}

func childElementsLocal(node *xmlquery.Node, name string) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && localNameOf(c.Data) == name {
			out = append(out, c)
		}
	}
	return out
}

func findAttrLocal(node *xmlquery.Node, name string) string {
	return node.SelectAttr(name)
}

func localNameOf(tag string) string {
	if i := strings.IndexByte(tag, ':'); i >= 0 {
		return tag[i+1:]
	}
	return tag
}
