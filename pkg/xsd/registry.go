package xsd

import "fmt"

// Registry resolves every referenced QName encountered while parsing a WSDL
// and its imported schemas to a *Type. Keys are normalized (local-name-only)
// QNames, so declarations from different namespaces that share a local name
// collide: the later definition replaces the earlier one. Anonymous types are
// never registered.
type Registry struct {
	types    map[string]*Type
	elements map[string]*Element
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types:    make(map[string]*Type),
		elements: make(map[string]*Element),
	}
}

// DefineType registers a named type. Re-defining the same name overwrites —
// the loader only calls this once per declaration site.
func (r *Registry) DefineType(qname string, t *Type) {
	r.types[NormalizeQName(qname)] = t
}

// DefineElement registers a top-level element declaration, used when a
// message part references an element by QName rather than embedding it.
func (r *Registry) DefineElement(qname string, e *Element) {
	r.elements[NormalizeQName(qname)] = e
}

// LookupType resolves a QName to its Type, or reports whether it is known.
func (r *Registry) LookupType(qname string) (*Type, bool) {
	t, ok := r.types[NormalizeQName(qname)]
	return t, ok
}

// LookupElement resolves a top-level element declaration by QName.
func (r *Registry) LookupElement(qname string) (*Element, bool) {
	e, ok := r.elements[NormalizeQName(qname)]
	return e, ok
}

// Resolve replaces every KindReference node reachable from root with the
// type it points to, using a visited set keyed by pointer identity so
// self-referential and mutually-referential graphs terminate. It returns an
// error if a reference points to an unknown QName.
func (r *Registry) Resolve(root *Type) (*Type, error) {
	return r.resolve(root, make(map[*Type]bool))
}

func (r *Registry) resolve(t *Type, seen map[*Type]bool) (*Type, error) {
	if t == nil {
		return nil, nil
	}
	if t.Kind == KindReference {
		target, ok := r.LookupType(t.RefQName)
		if !ok {
			return nil, fmt.Errorf("unresolved type reference: %s", t.RefQName)
		}
		return r.resolve(target, seen)
	}
	if seen[t] {
		// Already being resolved further up the call stack; return as-is,
		// the translator's own visited-set breaks the recursive walk when
		// it encounters this same identity again.
		return t, nil
	}
	seen[t] = true

	if t.Kind == KindComplex {
		for i := range t.Elements {
			resolved, err := r.resolve(t.Elements[i].Type, seen)
			if err != nil {
				return nil, fmt.Errorf("element %q: %w", t.Elements[i].Name, err)
			}
			t.Elements[i].Type = resolved
		}
		for i := range t.Attributes {
			resolved, err := r.resolve(t.Attributes[i].Type, seen)
			if err != nil {
				return nil, fmt.Errorf("attribute %q: %w", t.Attributes[i].Name, err)
			}
			t.Attributes[i].Type = resolved
		}
	}
	if t.Kind == KindList {
		resolved, err := r.resolve(t.ItemType, seen)
		if err != nil {
			return nil, err
		}
		t.ItemType = resolved
	}
	return t, nil
}
