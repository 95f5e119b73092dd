// Package extract implements ContentExtractor: turning a fetched page's body
// into a sequence of model.Link values, from HTML, CSS, response headers,
// and JavaScript source comments.
//
// Grounded on blclib/checker.py's selector-matrix walk (HTML), the
// adewale-rogue_planet manifest (CSS tokenizing via gorilla/css), and
// spec.md §4.4's header/JS rules, implemented with stdlib regexp and
// mime.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/cametumbling/blc/internal/blc/model"
	"github.com/cametumbling/blc/internal/blc/urlref"
)

// selectorEntry is one row of the HTML element/attribute matrix from
// spec.md §4.4. Attrs is walked in the given order, and for each attr a
// "tag[attr]" CSS selector is run against the document, mirroring
// page_soup.select(f"{tagname}[{attrname}]") in blclib/checker.py.
type selectorEntry struct {
	Tag   string
	Attrs []string
}

// htmlMatrix is the union of whatwg link-bearing attributes, one row per
// tag. Links are emitted in matrix order: row by row, each row's
// attributes in turn, and document order within a single selector. Since
// rows are per tag, all of a tag's attributes are walked together (for
// example img[src], img[longdesc] and img[srcset] all come before
// script[src]); links are not grouped by attribute across tags.
var htmlMatrix = []selectorEntry{
	{"*", []string{"itemtype"}},
	{"a", []string{"href", "ping"}},
	{"area", []string{"href", "ping"}},
	{"applet", []string{"archive", "code", "codebase", "object", "src"}},
	{"audio", []string{"src"}},
	{"embed", []string{"src"}},
	{"source", []string{"src", "srcset"}},
	{"track", []string{"src"}},
	{"video", []string{"src", "poster"}},
	{"iframe", []string{"src", "longdesc"}},
	{"frame", []string{"src", "longdesc"}},
	{"img", []string{"src", "longdesc", "srcset"}},
	{"script", []string{"src"}},
	{"input", []string{"src", "formaction"}},
	{"blockquote", []string{"cite"}},
	{"del", []string{"cite"}},
	{"ins", []string{"cite"}},
	{"q", []string{"cite"}},
	{"body", []string{"background"}},
	{"table", []string{"background"}},
	{"tbody", []string{"background"}},
	{"td", []string{"background"}},
	{"tfoot", []string{"background"}},
	{"th", []string{"background"}},
	{"thead", []string{"background"}},
	{"tr", []string{"background"}},
	{"button", []string{"formaction"}},
	{"form", []string{"action"}},
	{"head", []string{"profile"}},
	{"html", []string{"manifest"}},
	{"link", []string{"href"}},
	{"menuitem", []string{"icon"}},
	{"meta", []string{"content"}},
	{"object", []string{"codebase", "data"}},
}

var metaRefreshURL = regexp.MustCompile(`(?i)^\s*[0-9.]*\s*[;,]?\s*(?:url\s*=\s*)?(.*)$`)

// HTML walks a parsed page's DOM per the selector matrix above and returns
// every link it finds, in matrix order.
func HTML(pageURL urlref.URLRef, body string) ([]model.Link, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	baseURL := pageURL
	if baseSel := doc.Find("base[href]").First(); baseSel.Length() > 0 {
		if href, ok := baseSel.Attr("href"); ok {
			baseURL = pageURL.Parse(href)
		}
	}

	var links []model.Link
	for _, entry := range htmlMatrix {
		for _, attr := range entry.Attrs {
			sel := entry.Tag + "[" + attr + "]"
			doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
				val, ok := s.Attr(attr)
				if !ok {
					return
				}
				var raws []string
				if attr == "content" && entry.Tag == "meta" {
					if u, ok := metaContentURL(s.AttrOr("http-equiv", ""), val); ok {
						raws = []string{u}
					}
				} else {
					raws = attrURLs(attr, val)
				}
				for _, raw := range raws {
					if raw == "" {
						continue
					}
					links = append(links, model.Link{
						LinkURL: baseURL.Parse(raw),
						PageURL: pageURL,
						HTML:    elementRef(s, attr),
					})
				}
			})
		}
	}
	return links, nil
}

// attrURLs splits an attribute value into the URL string(s) it carries,
// per the per-attribute parsing rules in spec.md §4.4.
func attrURLs(attr, val string) []string {
	switch attr {
	case "ping":
		return strings.Fields(val)
	case "srcset":
		return srcsetURLs(val)
	default:
		return []string{val}
	}
}

func srcsetURLs(val string) []string {
	var urls []string
	for _, descriptor := range strings.Split(val, ",") {
		fields := strings.Fields(descriptor)
		if len(fields) > 0 {
			urls = append(urls, fields[0])
		}
	}
	return urls
}

func elementRef(s *goquery.Selection, attr string) *model.ElementRef {
	node := s.Get(0)
	rel := strings.Fields(s.AttrOr("rel", ""))
	return &model.ElementRef{
		Tag:  node.Data,
		Attr: attr,
		Rel:  rel,
		Text: strings.TrimSpace(s.Text()),
	}
}

// metaContentURL implements the whatwg meta-refresh algorithm referenced
// by spec.md §4.4: emit a URL only when http-equiv (case-insensitive)
// equals "refresh", stripping a leading optional seconds number, an
// optional ';' or ',', an optional case-insensitive "url=", and then
// respecting a quoted string literal or taking the remainder.
func metaContentURL(httpEquiv, content string) (string, bool) {
	if !strings.EqualFold(strings.TrimSpace(httpEquiv), "refresh") {
		return "", false
	}
	m := metaRefreshURL.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	rest := strings.TrimSpace(m[1])
	if rest == "" {
		return "", false
	}
	if len(rest) >= 2 {
		if (rest[0] == '\'' && rest[len(rest)-1] == '\'') || (rest[0] == '"' && rest[len(rest)-1] == '"') {
			return rest[1 : len(rest)-1], true
		}
	}
	return rest, true
}
