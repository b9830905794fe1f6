// Package schema is the Schema Translator (C3): the core, order-preserving
// conversion from a resolved xsd.Type graph to JSON Schema, implementing the
// primitive mapping table, wrapper-list unwrapping, cardinality/required
// derivation, and cycle protection exactly as specified.
package schema

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// JSON is a JSON Schema node. Property order must follow the source
// document's element order, which a plain map cannot guarantee, so
// Properties is an explicit ordered slice with its own MarshalJSON and
// MarshalYAML.
type JSON struct {
	Type        string      `json:"type,omitempty" yaml:"type,omitempty"`
	Format      string      `json:"format,omitempty" yaml:"format,omitempty"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Items       *JSON       `json:"items,omitempty" yaml:"items,omitempty"`
	Properties  *Properties `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required    []string    `json:"required,omitempty" yaml:"required,omitempty"`
}

// Properties is an insertion-ordered set of name->schema entries.
type Properties struct {
	order []string
	byKey map[string]*JSON
}

// NewProperties returns an empty ordered property set.
func NewProperties() *Properties {
	return &Properties{byKey: make(map[string]*JSON)}
}

// Set appends name (or overwrites in place if already present) with schema.
func (p *Properties) Set(name string, schema *JSON) {
	if _, exists := p.byKey[name]; !exists {
		p.order = append(p.order, name)
	}
	p.byKey[name] = schema
}

// Len reports the number of properties.
func (p *Properties) Len() int {
	if p == nil {
		return 0
	}
	return len(p.order)
}

// Names returns property names in document order.
func (p *Properties) Names() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.order...)
}

// Get returns the schema registered for name, if any.
func (p *Properties) Get(name string) (*JSON, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p.byKey[name]
	return v, ok
}

// MarshalJSON emits properties in insertion order, matching the document
// order of the source XSD elements.
func (p *Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range p.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := json.Marshal(p.byKey[name])
		if err != nil {
			return nil, err
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML emits properties in insertion order by building the mapping
// node directly, since yaml.Marshal on a plain map would sort keys
// alphabetically and lose the source document's element order.
func (p *Properties) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range p.order {
		keyNode := &yaml.Node{}
		if err := keyNode.Encode(name); err != nil {
			return nil, err
		}
		valNode := &yaml.Node{}
		if err := valNode.Encode(p.byKey[name]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node, nil
}

// UnmarshalJSON preserves key order as encountered in the source bytes, so
// re-parsing an emitted schema and re-emitting it reproduces identical
// output.
func (p *Properties) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}
	*p = *NewProperties()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)
		var val JSON
		if err := dec.Decode(&val); err != nil {
			return err
		}
		p.Set(key, &val)
	}
	_, err = dec.Token() // closing '}'
	return err
}
