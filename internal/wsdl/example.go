package wsdl

import (
	"fmt"
	"os"
	"strings"

	"github.com/outofcoffee/go-xml-example-generator/examplegen"

	"github.com/soapbridge/proxy/pkg/xsd"
)

// GenerateExampleXML produces a representative SOAP body for element by
// dumping its resolved type graph back to an anonymous XSD schema file and
// delegating to examplegen, the same example-XML dependency
// plugin/soap/example_generator.go uses. The convert path does not call it,
// so emitted OpenAPI documents carry no example.
func GenerateExampleXML(elementName string, elementType *xsd.Type) (string, error) {
	schemaText := dumpSchema(elementName, elementType)

	tmpFile, err := os.CreateTemp("", "soapbridge-example-*.xsd")
	if err != nil {
		return "", fmt.Errorf("creating temp schema file: %w", err)
	}
	defer os.Remove(tmpFile.Name())
	defer tmpFile.Close()

	if _, err := tmpFile.WriteString(schemaText); err != nil {
		return "", fmt.Errorf("writing temp schema file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("closing temp schema file: %w", err)
	}

	example, err := examplegen.GenerateWithNs(tmpFile.Name(), elementName, "urn:soapbridge:example", "tns")
	if err != nil {
		return "", fmt.Errorf("generating example XML: %w", err)
	}
	return example, nil
}

// dumpSchema renders a type graph rooted at an element back to minimal XSD
// text, mirroring the intent (not the implementation) of
// internal/wsdlmsg/synthetic.go's CreateSinglePartSchema: that helper built
// synthetic schemas from raw WSDL message parts, this one serializes an
// already-resolved in-memory type graph for re-ingestion by examplegen.
func dumpSchema(rootName string, t *xsd.Type) string {
	var b strings.Builder
	b.WriteString(`<xs:schema elementFormDefault="qualified" xmlns:xs="http://www.w3.org/2001/XMLSchema" xmlns:tns="urn:soapbridge:example" targetNamespace="urn:soapbridge:example">` + "\n")
	b.WriteString(fmt.Sprintf(`<xs:element name=%q>`, rootName) + "\n")
	dumpTypeBody(&b, t, make(map[*xsd.Type]bool))
	b.WriteString("</xs:element>\n</xs:schema>\n")
	return b.String()
}

func dumpTypeBody(b *strings.Builder, t *xsd.Type, seen map[*xsd.Type]bool) {
	if t == nil || t.Kind != xsd.KindComplex {
		dumpSimpleType(b, t)
		return
	}
	if seen[t] {
		b.WriteString("<xs:complexType/>\n")
		return
	}
	seen[t] = true
	b.WriteString("<xs:complexType><xs:sequence>\n")
	for _, e := range t.Elements {
		maxOccurs := "1"
		if e.MaxOccurs == xsd.Unbounded {
			maxOccurs = "unbounded"
		} else if e.MaxOccurs > 1 {
			maxOccurs = fmt.Sprintf("%d", e.MaxOccurs)
		}
		b.WriteString(fmt.Sprintf(`<xs:element name=%q minOccurs="%d" maxOccurs="%s">`, e.Name, minInt(e.MinOccurs, 1), maxOccurs) + "\n")
		dumpTypeBody(b, e.Type, seen)
		b.WriteString("</xs:element>\n")
	}
	b.WriteString("</xs:sequence></xs:complexType>\n")
}

func dumpSimpleType(b *strings.Builder, t *xsd.Type) {
	local := "string"
	if t != nil && t.Kind == xsd.KindPrimitive {
		local = xsd.NormalizeQName(t.PrimitiveName)
	}
	b.WriteString(fmt.Sprintf(`<xs:simpleType><xs:restriction base="xs:%s"/></xs:simpleType>`, local) + "\n")
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
