package wsdl

import "github.com/soapbridge/proxy/pkg/xsd"

// resolveMessage turns a rawMessage into a Message with a concrete element
// type, synthesizing an anonymous wrapper when the message's parts are
// type="" rather than element="" (RPC/literal style). This mirrors the
// concept in plugin/soap's CreateSinglePartSchema /
// CreateCompositePartSchema helpers, but builds the wrapper directly as an
// xsd.Type instead of generating and re-parsing XSD text, since the loader
// already holds the resolved type graph in memory.
func resolveMessage(msg *rawMessage, reg *xsd.Registry) *Message {
	if msg == nil {
		return nil
	}
	result := &Message{Name: msg.Name}

	switch {
	case len(msg.Parts) == 0:
		result.Element = &xsd.Type{Kind: xsd.KindComplex}
		result.ElementName = msg.Name

	case len(msg.Parts) == 1 && msg.Parts[0].Element != "":
		result.Element = xsd.NewReference(msg.Parts[0].Element)
		result.ElementName = xsd.NormalizeQName(msg.Parts[0].Element)

	case len(msg.Parts) == 1 && msg.Parts[0].Type != "":
		// Single typed part: synthesize a wrapper element named after the
		// part, typed by the part's referenced type.
		part := msg.Parts[0]
		elementType := typeOrPrimitiveRef(part.Type, reg)
		wrapper := &xsd.Type{
			Kind:     xsd.KindComplex,
			Name:     part.Name,
			Elements: []xsd.Element{{Name: part.Name, Type: elementType, MinOccurs: 1, MaxOccurs: 1}},
		}
		result.Element = wrapper
		result.ElementName = part.Name

	default:
		// Multiple parts (RPC/literal style): synthesize a wrapper complex
		// type whose elements are the parts in document order. The wrapper
		// is named after the message, a simplification of the RPC/literal
		// convention of naming it after the operation, which resolveMessage
		// does not have in scope.
		wrapper := &xsd.Type{Kind: xsd.KindComplex, Name: msg.Name}
		for _, part := range msg.Parts {
			var elType *xsd.Type
			switch {
			case part.Element != "":
				elType = xsd.NewReference(part.Element)
			case part.Type != "":
				elType = typeOrPrimitiveRef(part.Type, reg)
			default:
				elType = &xsd.Type{Kind: xsd.KindComplex}
			}
			wrapper.Elements = append(wrapper.Elements, xsd.Element{
				Name: part.Name, Type: elType, MinOccurs: 1, MaxOccurs: 1,
			})
		}
		result.Element = wrapper
		result.ElementName = msg.Name
	}
	return result
}

func typeOrPrimitiveRef(local string, reg *xsd.Registry) *xsd.Type {
	if t, ok := reg.LookupType(local); ok {
		return t
	}
	if isKnownPrimitive(local) {
		return xsd.NewPrimitive(local)
	}
	return xsd.NewReference(local)
}

func isKnownPrimitive(local string) bool {
	switch local {
	case "string", "anyURI", "base64Binary", "hexBinary",
		"date", "dateTime", "time", "boolean",
		"int", "integer", "long", "short", "byte",
		"unsignedLong", "unsignedInt", "unsignedShort", "unsignedByte",
		"positiveInteger", "nonNegativeInteger", "negativeInteger", "nonPositiveInteger",
		"decimal", "float", "double":
		return true
	}
	return false
}
