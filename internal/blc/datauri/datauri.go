// Package datauri implements an http.RoundTripper that synthesizes
// responses for "data:" URLs, mirroring net/http's behavior for real
// schemes closely enough that it can be registered alongside a normal
// transport in a scheme-registry (see httpcache's schemeTransport).
//
// Grounded on blclib/data_uri.py, redesigned per spec.md §9 away from
// monkey-patching an adapter and onto a plain http.RoundTripper.
package datauri

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Transport synthesizes http.Responses for "data:" URLs.
type Transport struct{}

// RoundTrip implements http.RoundTripper.
func (Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	mediatype, data, err := parse(req.URL.String())
	if err != nil {
		return nil, &url.Error{Op: "parse", URL: req.URL.String(), Err: err}
	}

	body := io.NopCloser(bytes.NewReader(data))
	resp := &http.Response{
		Status:        "200 OK",
		StatusCode:    200,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{"Content-Type": {mediatype}},
		Body:          body,
		ContentLength: int64(len(data)),
		Request:       req,
	}
	return resp, nil
}

// parse decodes a "data:[<mediatype>][;base64],<data>" URL into its media
// type and decoded payload. Parse failure is reported as an error, mirroring
// blclib's InvalidURL on malformed data URIs.
func parse(rawURL string) (mediatype string, data []byte, err error) {
	scheme, rest, ok := strings.Cut(rawURL, ":")
	if !ok || scheme != "data" {
		return "", nil, fmt.Errorf("not a data: URL: %q", rawURL)
	}

	head, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data: URL, missing comma: %q", rawURL)
	}

	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("malformed data: URL payload: %w", err)
	}

	raw := []byte(decoded)
	if strings.HasSuffix(head, ";base64") {
		mediatype = strings.TrimSuffix(head, ";base64")
		raw, err = base64.StdEncoding.DecodeString(string(raw))
		if err != nil {
			return "", nil, fmt.Errorf("malformed base64 data: URL: %w", err)
		}
	} else {
		mediatype = head
	}

	if mediatype == "" {
		mediatype = "text/plain;charset=US-ASCII"
	}
	return mediatype, raw, nil
}
