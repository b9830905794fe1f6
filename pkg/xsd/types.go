// Package xsd is the in-memory representation of a resolved XML Schema type
// graph: the set of types and elements a WSDL document (and the schemas it
// imports) declares, normalized into a small tagged-variant model that the
// schema translator can walk without touching XML again.
package xsd

// Kind discriminates the cases of Type. Go has no sum types, so Type carries
// a Kind tag plus the fields relevant to that case; callers switch on Kind
// rather than probing which fields are non-nil.
type Kind int

const (
	// KindPrimitive is a leaf XSD built-in, e.g. xs:string, xs:dateTime.
	KindPrimitive Kind = iota
	// KindComplex has an ordered element list and an attribute list.
	KindComplex
	// KindList is an XSD list type (space-separated repetition of ItemType).
	KindList
	// KindReference is an unresolved pointer to another type by QName,
	// resolved via a Registry before the translator ever sees it.
	KindReference
)

// QName is a local-name-only qualified name: namespace decoration has
// already been stripped per the normalization rule (Clark notation and
// prefix:local both collapse to the local part) by the time a Type carries
// one.
type QName = string

// Element is a named member of a complex type's element list.
type Element struct {
	Name       string
	Type       *Type
	MinOccurs  int
	MaxOccurs  int // Unbounded sentinel when unbounded
	Nillable   bool
	Documentation string
}

// Unbounded is the MaxOccurs sentinel for xs:unbounded.
const Unbounded = -1

// Attribute is a named attribute of a complex type.
type Attribute struct {
	Name     string
	Type     *Type
	Required bool
}

// Type is a node in the resolved XSD type graph. Identity (pointer equality)
// is the cycle-detection key used by the translator, not the QName — two
// anonymous complex types sharing a local name are distinct identities.
type Type struct {
	Kind Kind

	// Name is the declared local name, empty for anonymous types.
	Name string

	// KindPrimitive
	PrimitiveName string // the XSD local name, e.g. "dateTime"

	// KindComplex
	Elements   []Element
	Attributes []Attribute

	// KindList
	ItemType *Type

	// KindReference — only present before resolution; Registry.Resolve
	// replaces every KindReference node reachable from a root with the
	// type it points to.
	RefQName QName
}

// NewPrimitive builds a primitive leaf type.
func NewPrimitive(localName string) *Type {
	return &Type{Kind: KindPrimitive, PrimitiveName: localName}
}

// NewComplex builds a named or anonymous complex type.
func NewComplex(name string) *Type {
	return &Type{Kind: KindComplex, Name: name}
}

// NewReference builds an unresolved reference to a QName, local-part only.
func NewReference(qname QName) *Type {
	return &Type{Kind: KindReference, RefQName: qname}
}
