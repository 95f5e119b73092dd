package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/cametumbling/blc/internal/blc/model"
	"github.com/cametumbling/blc/internal/blc/urlref"
)

// InlineStyles extracts links from every <style> element's text in an
// HTML page, per spec.md §4.4's "text/html ... plus any <style> CSS".
func InlineStyles(pageURL urlref.URLRef, body string) ([]model.Link, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	var links []model.Link
	var firstErr error
	doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		styleLinks, err := CSS(pageURL, s.Text())
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		links = append(links, styleLinks...)
	})
	return links, firstErr
}
