package extract

import "mime"

// ContentType strips parameters (charset, boundary, ...) from a
// Content-Type header value, mirroring the http.client.HTTPMessage
// round-trip blclib/checker.py's get_content_type does to normalize
// "text/html; charset=utf-8" down to "text/html".
func ContentType(raw string) string {
	mt, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return raw
	}
	return mt
}
