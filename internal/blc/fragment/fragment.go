// Package fragment implements FragmentValidator: checking that a page
// actually contains the element a "#fragment" link points at.
//
// Grounded on blclib/checker.py's fragment-check branch of _check_link.
package fragment

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/cametumbling/blc/internal/blc/model"
)

// Fetcher is the subset of httpcache.Client a FragmentValidator needs.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (*model.Response, error)
}

// Validate fetches defragmentedPageURL via fetcher and checks that some
// element has id == frag, or some <a> has name == frag. It returns nil on
// success; otherwise a bare (un-prefixed) error describing either "no
// element with that id/name=<frag>" (page fetched fine, no match) or the
// fetch/parse failure. The caller is responsible for adding the
// "fragment: " prefix spec.md §4.5/§7 specify, so it is added exactly
// once regardless of which branch produced the error.
func Validate(ctx context.Context, fetcher Fetcher, defragmentedPageURL, frag string) error {
	resp, err := fetcher.Get(ctx, defragmentedPageURL)
	if err != nil {
		return err
	}
	if !strings.Contains(resp.ContentType, "html") {
		return fmt.Errorf("cannot check fragment: %s is not HTML (Content-Type: %s)", defragmentedPageURL, resp.ContentType)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.Body))
	if err != nil {
		return err
	}

	found := false
	doc.Find("[id]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.AttrOr("id", "") == frag {
			found = true
			return false
		}
		return true
	})
	if !found {
		doc.Find("a[name]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if s.AttrOr("name", "") == frag {
				found = true
				return false
			}
			return true
		})
	}
	if !found {
		return fmt.Errorf("no element with that id/name=%s", frag)
	}
	return nil
}
