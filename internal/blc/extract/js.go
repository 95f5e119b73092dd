package extract

import (
	"regexp"

	"github.com/cametumbling/blc/internal/blc/model"
	"github.com/cametumbling/blc/internal/blc/urlref"
)

var (
	licenseComment   = regexp.MustCompile(`/\*!\s*For license information please see\s+(\S+)\s*\*/`)
	sourceMappingURL = regexp.MustCompile(`//[#@]\s*sourceMappingURL=(\S+)`)
)

// JS emits links found in an application/javascript response body: a
// webpack-style license-comment reference and a trailing sourcemap
// comment, per spec.md §4.4.
func JS(pageURL urlref.URLRef, body string) []model.Link {
	var links []model.Link
	if m := licenseComment.FindStringSubmatch(body); m != nil {
		links = append(links, model.Link{LinkURL: pageURL.Parse(m[1]), PageURL: pageURL})
	}
	if m := sourceMappingURL.FindStringSubmatch(body); m != nil {
		links = append(links, model.Link{LinkURL: pageURL.Parse(m[1]), PageURL: pageURL})
	}
	return links
}
