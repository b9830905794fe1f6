package openapi

import (
	"github.com/pb33f/libopenapi"

	"github.com/soapbridge/proxy/internal/errs"
)

// Validate round-trips the emitted document's JSON bytes through
// pb33f/libopenapi's document model, the same dependency plugin/openapi uses
// to parse and validate OpenAPI specs for request validation. A malformed
// emitted document is rejected
// here, before the catalog ever persists it.
func Validate(jsonBytes []byte) error {
	doc, err := libopenapi.NewDocument(jsonBytes)
	if err != nil {
		return errs.Wrap(errs.Internal, err, "building libopenapi document from emitted spec")
	}
	_, validationErrs := doc.BuildV3Model()
	if len(validationErrs) > 0 {
		var msg string
		for i, e := range validationErrs {
			if i > 0 {
				msg += "; "
			}
			msg += e.Error()
		}
		return errs.New(errs.Internal, "emitted OpenAPI document failed validation: %s", msg)
	}
	return nil
}
