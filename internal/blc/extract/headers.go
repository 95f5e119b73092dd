package extract

import (
	"regexp"

	"github.com/cametumbling/blc/internal/blc/model"
	"github.com/cametumbling/blc/internal/blc/urlref"
)

var linkHeaderURL = regexp.MustCompile(`<([^>]*)>`)

// Headers emits links carried on the Link (RFC 5988) and Sourcemap
// response headers, per spec.md §4.4.
func Headers(pageURL urlref.URLRef, resp *model.Response) []model.Link {
	var links []model.Link
	for _, val := range resp.HeaderValues("Link") {
		for _, m := range linkHeaderURL.FindAllStringSubmatch(val, -1) {
			links = append(links, model.Link{
				LinkURL: pageURL.Parse(m[1]),
				PageURL: pageURL,
			})
		}
	}
	if sm := resp.Header("Sourcemap"); sm != "" {
		links = append(links, model.Link{
			LinkURL: pageURL.Parse(sm),
			PageURL: pageURL,
		})
	}
	return links
}
