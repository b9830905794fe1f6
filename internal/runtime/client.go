package runtime

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"

	"github.com/soapbridge/proxy/internal/errs"
	"github.com/soapbridge/proxy/internal/wsdl"
)

const (
	soap11EnvNamespace = "http://schemas.xmlsoap.org/soap/envelope/"
	soap12EnvNamespace = "http://www.w3.org/2003/05/soap-envelope"
	soap11ContentType  = "text/xml"
	soap12ContentType  = "application/soap+xml"
)

// soapClient dispatches document/literal SOAP requests built from a resolved
// operation and unwraps the response envelope; decodeElement then turns the
// returned node into JSON. Envelope wrapping/unwrapping mirrors
// plugin/soap/utils.go and plugin/soap/response.go, but runs in the caller
// direction rather than the mock-server direction.
type soapClient struct {
	http *http.Client
}

func newSOAPClient(timeout time.Duration) *soapClient {
	return &soapClient{http: &http.Client{Timeout: timeout}}
}

// call posts a SOAP envelope wrapping bodyXML to port.Address, returning the
// first element child of the response Body (nil when the Body is empty) on
// success or an *errs.Error classifying the failure
// (UpstreamUnavailable for transport failures, UpstreamFault for a SOAP
// fault response).
func (c *soapClient) call(ctx context.Context, port *wsdl.Port, op *wsdl.Operation, bodyXML string) (*xmlquery.Node, error) {
	envNamespace := soap11EnvNamespace
	contentType := soap11ContentType
	if port.SOAP12 {
		envNamespace = soap12EnvNamespace
		contentType = soap12ContentType
	}

	envelope := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<env:Envelope xmlns:env=%q><env:Body>%s</env:Body></env:Envelope>`, envNamespace, bodyXML)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, port.Address, bytes.NewBufferString(envelope))
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "building SOAP request for %s", op.Name)
	}
	req.Header.Set("Content-Type", contentType)
	if !port.SOAP12 && op.SOAPAction != "" {
		req.Header.Set("SOAPAction", fmt.Sprintf("%q", op.SOAPAction))
	} else if port.SOAP12 && op.SOAPAction != "" {
		req.Header.Set("Content-Type", fmt.Sprintf("%s; action=%q", contentType, op.SOAPAction))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.UpstreamUnavailable, err, "calling %s at %s", op.Name, port.Address)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.UpstreamUnavailable, err, "reading response from %s", port.Address)
	}

	doc, parseErr := xmlquery.Parse(bytes.NewReader(payload))
	if parseErr != nil {
		if resp.StatusCode >= 500 {
			return nil, errs.Wrap(errs.UpstreamUnavailable, parseErr, "upstream %s returned a non-XML error response", port.Address)
		}
		return nil, errs.Wrap(errs.UpstreamUnavailable, parseErr, "parsing response from %s", port.Address)
	}

	body := findBody(doc)
	if body == nil {
		return nil, errs.New(errs.UpstreamUnavailable, "response from %s had no SOAP Body", port.Address)
	}

	if fault := findFault(body); fault != nil {
		return nil, errs.New(errs.UpstreamFault, "operation %s returned a SOAP fault", op.Name).WithDetail(faultMessage(fault))
	}

	first := firstElementChild(body)
	if first == nil {
		return nil, nil
	}
	return first, nil
}

func findBody(doc *xmlquery.Node) *xmlquery.Node {
	return findDescendantLocal(doc, "Body")
}

func findFault(body *xmlquery.Node) *xmlquery.Node {
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && localNameOf(c.Data) == "Fault" {
			return c
		}
	}
	return nil
}

func faultMessage(fault *xmlquery.Node) string {
	if reason := findDescendantLocal(fault, "Text"); reason != nil {
		return strings.TrimSpace(reason.InnerText())
	}
	if reason := findDescendantLocal(fault, "faultstring"); reason != nil {
		return strings.TrimSpace(reason.InnerText())
	}
	return strings.TrimSpace(fault.InnerText())
}

func firstElementChild(n *xmlquery.Node) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return c
		}
	}
	return nil
}

func findDescendantLocal(n *xmlquery.Node, local string) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			if localNameOf(c.Data) == local {
				return c
			}
			if found := findDescendantLocal(c, local); found != nil {
				return found
			}
		}
	}
	return nil
}
