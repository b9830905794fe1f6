package runtime

import (
	"bytes"
	"testing"

	"github.com/antchfx/xmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soapbridge/proxy/pkg/xsd"
)

func TestEncodeElement_ScalarFields(t *testing.T) {
	personType := xsd.NewComplex("Person")
	personType.Elements = []xsd.Element{
		{Name: "Name", Type: xsd.NewPrimitive("string"), MinOccurs: 1, MaxOccurs: 1},
		{Name: "Age", Type: xsd.NewPrimitive("int"), MinOccurs: 1, MaxOccurs: 1},
	}

	out, err := encodeElement("Person", personType, map[string]interface{}{
		"Name": "Ada",
		"Age":  float64(36),
	})
	require.NoError(t, err)
	assert.Equal(t, "<Person><Name>Ada</Name><Age>36</Age></Person>", out)
}

func TestEncodeElement_RepeatingWrapperExpectsArray(t *testing.T) {
	itemsType := xsd.NewComplex("Items")
	itemsType.Elements = []xsd.Element{
		{Name: "item", Type: xsd.NewPrimitive("string"), MinOccurs: 0, MaxOccurs: xsd.Unbounded},
	}

	out, err := encodeElement("Items", itemsType, []interface{}{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "<Items><item>a</item><item>b</item></Items>", out)

	_, err = encodeElement("Items", itemsType, map[string]interface{}{"item": "a"})
	assert.Error(t, err)
}

func TestEncodeElement_MissingRequiredFieldErrors(t *testing.T) {
	personType := xsd.NewComplex("Person")
	personType.Elements = []xsd.Element{
		{Name: "Name", Type: xsd.NewPrimitive("string"), MinOccurs: 1, MaxOccurs: 1},
	}
	_, err := encodeElement("Person", personType, map[string]interface{}{})
	assert.Error(t, err)
}

func TestDecodeElement_RoundTripsObject(t *testing.T) {
	personType := xsd.NewComplex("Person")
	personType.Elements = []xsd.Element{
		{Name: "Name", Type: xsd.NewPrimitive("string"), MinOccurs: 1, MaxOccurs: 1},
		{Name: "Age", Type: xsd.NewPrimitive("int"), MinOccurs: 1, MaxOccurs: 1},
	}

	doc, err := xmlquery.Parse(bytes.NewBufferString(`<Person><Name>Ada</Name><Age>36</Age></Person>`))
	require.NoError(t, err)
	root := xmlquery.FindOne(doc, "//Person")
	require.NotNil(t, root)

	value, err := decodeElement(root, personType)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"Name": "Ada", "Age": float64(36)}, value)
}

func TestDecodeElement_RepeatingWrapperProducesArray(t *testing.T) {
	itemsType := xsd.NewComplex("Items")
	itemsType.Elements = []xsd.Element{
		{Name: "item", Type: xsd.NewPrimitive("string"), MinOccurs: 0, MaxOccurs: xsd.Unbounded},
	}

	doc, err := xmlquery.Parse(bytes.NewBufferString(`<Items><item>a</item><item>b</item></Items>`))
	require.NoError(t, err)
	root := xmlquery.FindOne(doc, "//Items")
	require.NotNil(t, root)

	value, err := decodeElement(root, itemsType)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a", "b"}, value)
}
