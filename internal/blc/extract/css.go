package extract

import (
	"regexp"

	"github.com/aymerick/douceur/parser"
	douceurcss "github.com/aymerick/douceur/css"

	"github.com/cametumbling/blc/internal/blc/model"
	"github.com/cametumbling/blc/internal/blc/urlref"
)

var (
	urlToken      = regexp.MustCompile(`(?i)url\(\s*(?:'([^']*)'|"([^"]*)"|([^'")\s]+))\s*\)`)
	importBareStr = regexp.MustCompile(`^\s*(?:'([^']*)'|"([^"]*)")`)
)

// CSS parses a stylesheet (an inline <style> tag's text, or a whole
// text/css response body) and emits every url(...) token it finds in
// property values and at-rule preludes, per spec.md §4.4.
func CSS(pageURL urlref.URLRef, body string) ([]model.Link, error) {
	sheet, err := parser.Parse(body)
	if err != nil {
		return nil, err
	}
	var links []model.Link
	walkRules(sheet.Rules, pageURL, &links)
	return links, nil
}

func walkRules(rules []*douceurcss.Rule, pageURL urlref.URLRef, links *[]model.Link) {
	for _, rule := range rules {
		for _, raw := range urlsIn(rule.Prelude) {
			emitCSSLink(pageURL, raw, links)
		}
		if rule.Kind == douceurcss.AtRule && rule.Name == "@import" {
			if m := importBareStr.FindStringSubmatch(rule.Prelude); m != nil {
				if raw := firstNonEmpty(m[1], m[2]); raw != "" {
					emitCSSLink(pageURL, raw, links)
				}
			}
		}
		for _, decl := range rule.Declarations {
			for _, raw := range urlsIn(decl.Value) {
				emitCSSLink(pageURL, raw, links)
			}
		}
		walkRules(rule.Rules, pageURL, links)
	}
}

func urlsIn(s string) []string {
	matches := urlToken.FindAllStringSubmatch(s, -1)
	var out []string
	for _, m := range matches {
		if raw := firstNonEmpty(m[1], m[2], m[3]); raw != "" {
			out = append(out, raw)
		}
	}
	return out
}

func emitCSSLink(pageURL urlref.URLRef, raw string, links *[]model.Link) {
	*links = append(*links, model.Link{
		LinkURL: pageURL.Parse(raw),
		PageURL: pageURL,
	})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
