package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soapbridge/proxy/pkg/xsd"
)

func TestTranslate_RequiredVsOptional(t *testing.T) {
	// S1 — required vs optional.
	complex := xsd.NewComplex("ClaimRequest")
	complex.Elements = []xsd.Element{
		{Name: "customerId", Type: xsd.NewPrimitive("string"), MinOccurs: 1, MaxOccurs: 1},
		{Name: "policyId", Type: xsd.NewPrimitive("string"), MinOccurs: 1, MaxOccurs: 1},
		{Name: "claimType", Type: xsd.NewPrimitive("string"), MinOccurs: 1, MaxOccurs: 1},
		{Name: "incidentDate", Type: xsd.NewPrimitive("date"), MinOccurs: 1, MaxOccurs: 1},
		{Name: "estimatedAmount", Type: xsd.NewPrimitive("double"), MinOccurs: 0, MaxOccurs: 1},
		{Name: "customerTenure", Type: xsd.NewPrimitive("double"), MinOccurs: 0, MaxOccurs: 1},
	}

	result := Translate(complex)

	require.Equal(t, "object", result.Type)
	assert.ElementsMatch(t, []string{"customerId", "policyId", "claimType", "incidentDate"}, result.Required)

	amount, ok := result.Properties.Get("estimatedAmount")
	require.True(t, ok)
	assert.Equal(t, "number", amount.Type)

	incidentDate, ok := result.Properties.Get("incidentDate")
	require.True(t, ok)
	assert.Equal(t, "date", incidentDate.Format)
}

func TestTranslate_WrapperUnwrap(t *testing.T) {
	// S2 — wrapper unwrap.
	recentClaim := xsd.NewComplex("RecentClaim")
	recentClaim.Elements = []xsd.Element{
		{Name: "claimId", Type: xsd.NewPrimitive("string"), MinOccurs: 1, MaxOccurs: 1},
		{Name: "paidAmount", Type: xsd.NewPrimitive("double"), MinOccurs: 1, MaxOccurs: 1},
	}
	recentClaimList := xsd.NewComplex("RecentClaimList")
	recentClaimList.Elements = []xsd.Element{
		{Name: "recentClaim", Type: recentClaim, MinOccurs: 0, MaxOccurs: xsd.Unbounded},
	}

	container := xsd.NewComplex("Policy")
	container.Elements = []xsd.Element{
		{Name: "recentClaims", Type: recentClaimList, MinOccurs: 1, MaxOccurs: 1},
	}

	result := Translate(container)

	recentClaims, ok := result.Properties.Get("recentClaims")
	require.True(t, ok)
	assert.Equal(t, "array", recentClaims.Type)
	assert.Equal(t, "object", recentClaims.Items.Type)

	claimId, ok := recentClaims.Items.Properties.Get("claimId")
	require.True(t, ok)
	assert.Equal(t, "string", claimId.Type)

	paidAmount, ok := recentClaims.Items.Properties.Get("paidAmount")
	require.True(t, ok)
	assert.Equal(t, "number", paidAmount.Type)
}

func TestTranslate_WrapperDoesNotFireForSingleNonRepeatingElement(t *testing.T) {
	inner := xsd.NewComplex("Address")
	inner.Elements = []xsd.Element{{Name: "street", Type: xsd.NewPrimitive("string"), MinOccurs: 1, MaxOccurs: 1}}

	container := xsd.NewComplex("Container")
	container.Elements = []xsd.Element{{Name: "address", Type: inner, MinOccurs: 1, MaxOccurs: 1}}

	result := Translate(container)
	address, ok := result.Properties.Get("address")
	require.True(t, ok)
	assert.Equal(t, "object", address.Type, "single element with maxOccurs=1 must not unwrap")
}

func TestTranslate_ArrayCardinality(t *testing.T) {
	// S4 relevant: repeating scalar element becomes an array property.
	container := xsd.NewComplex("RiskFactors")
	container.Elements = []xsd.Element{
		{Name: "factors", Type: xsd.NewPrimitive("string"), MinOccurs: 0, MaxOccurs: xsd.Unbounded},
		{Name: "riskScore", Type: xsd.NewPrimitive("integer"), MinOccurs: 1, MaxOccurs: 1},
		{Name: "requiresManualReview", Type: xsd.NewPrimitive("boolean"), MinOccurs: 1, MaxOccurs: 1},
	}

	result := Translate(container)
	factors, ok := result.Properties.Get("factors")
	require.True(t, ok)
	assert.Equal(t, "array", factors.Type)
	assert.Equal(t, "string", factors.Items.Type)

	riskScore, _ := result.Properties.Get("riskScore")
	assert.Equal(t, "integer", riskScore.Type)
	review, _ := result.Properties.Get("requiresManualReview")
	assert.Equal(t, "boolean", review.Type)
}

func TestTranslate_EmptyRequiredOmitted(t *testing.T) {
	container := xsd.NewComplex("AllOptional")
	container.Elements = []xsd.Element{
		{Name: "note", Type: xsd.NewPrimitive("string"), MinOccurs: 0, MaxOccurs: 1},
	}
	result := Translate(container)
	assert.Nil(t, result.Required)
}

func TestTranslate_UnknownPrimitiveFallsBackToObject(t *testing.T) {
	result := Translate(xsd.NewPrimitive("duration"))
	assert.Equal(t, "object", result.Type)
}

func TestTranslate_QNameNormalization(t *testing.T) {
	clark := xsd.NewPrimitive("{http://www.w3.org/2001/XMLSchema}string")
	assert.Equal(t, "string", Translate(clark).Type)

	prefixed := xsd.NewPrimitive("xs:dateTime")
	result := Translate(prefixed)
	assert.Equal(t, "string", result.Type)
	assert.Equal(t, "dateTime", result.Format)
}

func TestTranslate_CyclicTypeTerminates(t *testing.T) {
	// Invariant 7: translator terminates on self-referential types.
	node := xsd.NewComplex("TreeNode")
	node.Elements = []xsd.Element{
		{Name: "value", Type: xsd.NewPrimitive("string"), MinOccurs: 1, MaxOccurs: 1},
		{Name: "child", Type: node, MinOccurs: 0, MaxOccurs: 1},
	}

	done := make(chan *JSON, 1)
	go func() { done <- Translate(node) }()

	result := <-done
	child, ok := result.Properties.Get("child")
	require.True(t, ok)
	assert.Equal(t, "object", child.Type)
	assert.Contains(t, child.Description, "Circular reference")
}

func TestTranslate_IdempotentReEmit(t *testing.T) {
	// Invariant 3: emit(translate(type)) is idempotent across a
	// marshal -> unmarshal -> marshal round trip.
	container := xsd.NewComplex("Policy")
	container.Elements = []xsd.Element{
		{Name: "policyId", Type: xsd.NewPrimitive("string"), MinOccurs: 1, MaxOccurs: 1},
		{Name: "premium", Type: xsd.NewPrimitive("decimal"), MinOccurs: 0, MaxOccurs: 1},
	}
	first := Translate(container)
	firstBytes, err := json.Marshal(first)
	require.NoError(t, err)

	var roundTripped JSON
	require.NoError(t, json.Unmarshal(firstBytes, &roundTripped))

	secondBytes, err := json.Marshal(&roundTripped)
	require.NoError(t, err)

	assert.JSONEq(t, string(firstBytes), string(secondBytes))
	assert.Equal(t, string(firstBytes), string(secondBytes))
}
