package wsdl

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/soapbridge/proxy/internal/errs"
	"github.com/soapbridge/proxy/internal/logger"
)

// fetcher loads WSDL/XSD documents by absolute URL or local path, caching
// already-fetched bytes so a document imported from two places is only
// retrieved once, deduplicating by absolute URL.
type fetcher struct {
	client  *http.Client
	seen    map[string][]byte
	baseDir string
}

func newFetcher(timeout time.Duration) *fetcher {
	return &fetcher{
		client: &http.Client{Timeout: timeout},
		seen:   make(map[string][]byte),
	}
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// resolve turns a possibly-relative location against a base document
// location into an absolute reference usable as a dedup key.
func resolve(base, location string) (string, error) {
	if location == "" {
		return "", fmt.Errorf("empty location")
	}
	if isURL(location) {
		return location, nil
	}
	if isURL(base) {
		baseURL, err := url.Parse(base)
		if err != nil {
			return "", err
		}
		rel, err := url.Parse(location)
		if err != nil {
			return "", err
		}
		return baseURL.ResolveReference(rel).String(), nil
	}
	if filepath.IsAbs(location) {
		return location, nil
	}
	return filepath.Join(filepath.Dir(base), location), nil
}

// fetch returns the raw bytes at ref (URL or filesystem path), from cache if
// already retrieved.
func (f *fetcher) fetch(ref string) ([]byte, error) {
	if b, ok := f.seen[ref]; ok {
		return b, nil
	}
	logger.Debugf("fetching WSDL/XSD document: %s", ref)

	var body []byte
	if isURL(ref) {
		req, err := http.NewRequest(http.MethodGet, ref, nil)
		if err != nil {
			return nil, errs.Wrap(errs.WsdlUnreachable, err, "building request for %s", ref)
		}
		resp, err := f.client.Do(req)
		if err != nil {
			return nil, errs.Wrap(errs.WsdlUnreachable, err, "fetching %s", ref)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			return nil, errs.New(errs.WsdlUnreachable, "fetching %s: HTTP %d", ref, resp.StatusCode)
		}
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, errs.Wrap(errs.WsdlUnreachable, err, "reading response body from %s", ref)
		}
	} else {
		f, err := os.Open(ref)
		if err != nil {
			return nil, errs.Wrap(errs.WsdlUnreachable, err, "opening %s", ref)
		}
		defer f.Close()
		var err2 error
		body, err2 = io.ReadAll(f)
		if err2 != nil {
			return nil, errs.Wrap(errs.WsdlUnreachable, err2, "reading %s", ref)
		}
	}

	f.seen[ref] = body
	return body, nil
}

func (f *fetcher) fetchXML(ref string) (*xmlquery.Node, error) {
	body, err := f.fetch(ref)
	if err != nil {
		return nil, err
	}
	doc, err := xmlquery.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, errs.Wrap(errs.WsdlMalformed, err, "parsing XML from %s", ref)
	}
	return doc, nil
}
