package ambassador

import (
	"testing"

	"github.com/cametumbling/blc/internal/blc/model"
	"github.com/cametumbling/blc/internal/blc/urlref"
	"github.com/cametumbling/blc/internal/policy/generic"
)

type fakeEnqueuer struct{ tasks []model.Task }

func (e *fakeEnqueuer) Enqueue(task model.Task) { e.tasks = append(e.tasks, task) }

func newReporter() (*generic.Policy, *[]string) {
	var lines []string
	p := generic.New("www.getambassador.io", &fakeEnqueuer{}, nil)
	p.Print = func(l string) { lines = append(lines, l) }
	return p, &lines
}

func TestIsInternalDomain(t *testing.T) {
	h := Hooks{Domain: "www.getambassador.io"}
	cases := map[string]bool{
		"www.getambassador.io":  true,
		"docs.getambassador.io": true,
		"getambassador.io":      true,
		"blog.getambassador.io": false,
		"other.example":         false,
	}
	for netloc, want := range cases {
		if got := h.IsInternalDomain(netloc); got != want {
			t.Errorf("IsInternalDomain(%q) = %v, want %v", netloc, got, want)
		}
	}
}

func TestShouldSkipLink(t *testing.T) {
	h := Hooks{Domain: "www.getambassador.io"}
	page := urlref.New("https://www.getambassador.io/")
	skip := model.Link{LinkURL: urlref.New("https://blog.getambassador.io/search?q=canary"), PageURL: page}
	keep := model.Link{LinkURL: urlref.New("https://www.getambassador.io/docs/"), PageURL: page}
	if !h.ShouldSkipLink(skip) {
		t.Error("ShouldSkipLink() = false for the known-noisy search link, want true")
	}
	if h.ShouldSkipLink(keep) {
		t.Error("ShouldSkipLink() = true for an ordinary link, want false")
	}
}

func TestShouldSkipLinkResult_5xxAndKnownNoise(t *testing.T) {
	h := Hooks{Domain: "www.getambassador.io"}
	page := urlref.New("https://www.getambassador.io/")

	link := model.Link{LinkURL: page.Parse("/broken"), PageURL: page}
	if !h.ShouldSkipLinkResult(link, "HTTP_503") {
		t.Error("ShouldSkipLinkResult() = false for HTTP_503, want true")
	}
	if h.ShouldSkipLinkResult(link, "HTTP_404") {
		t.Error("ShouldSkipLinkResult() = true for HTTP_404, want false")
	}

	yt := model.Link{LinkURL: urlref.New("https://www.youtube.com/watch?v=x"), PageURL: page}
	if !h.ShouldSkipLinkResult(yt, "HTTP_204") {
		t.Error("ShouldSkipLinkResult() = false for YouTube HTTP_204, want true")
	}

	li := model.Link{LinkURL: urlref.New("https://www.linkedin.com/in/someone"), PageURL: page}
	if !h.ShouldSkipLinkResult(li, "HTTP_999") {
		t.Error("ShouldSkipLinkResult() = false for LinkedIn HTTP_999, want true")
	}
}

func TestShouldSkipLinkResult_SelfCanonical(t *testing.T) {
	h := Hooks{Domain: "www.getambassador.io"}
	page := urlref.New("https://www.getambassador.io/docs/latest/topics/")
	link := model.Link{
		LinkURL: urlref.New("https://www.getambassador.io/docs/latest/topics/"),
		PageURL: page,
		HTML:    &model.ElementRef{Tag: "link", Attr: "href", Rel: []string{"canonical"}},
	}
	if !h.ShouldSkipLinkResult(link, "HTTP_404") {
		t.Error("ShouldSkipLinkResult() = false for a same-path self-canonical, want true")
	}
}

func TestShouldSkipLinkResult_UnresolvableLinkDoesNotPanic(t *testing.T) {
	h := Hooks{Domain: "www.getambassador.io"}
	// A relative href with no base: LinkURL.Resolved() fails, mirroring
	// checker.checkLink's HandleLinkResult(link, BrokenReason(err)) call
	// when it hits that same Resolved() error before ever reaching the
	// network.
	link := model.Link{LinkURL: urlref.New("not-a-real-ref"), PageURL: urlref.New("https://www.getambassador.io/")}
	if h.ShouldSkipLinkResult(link, "parse error") {
		t.Error("ShouldSkipLinkResult() = true for an unresolvable link, want false")
	}
}

func TestUglyCheck_WrongCanonicalDomain(t *testing.T) {
	reporter, lines := newReporter()
	h := Hooks{Domain: "www.getambassador.io", Reporter: reporter}
	page := urlref.New("https://www.getambassador.io/docs/latest/")
	link := model.Link{
		LinkURL: urlref.New("https://getambassador.io/docs/latest/"),
		PageURL: page,
		HTML:    &model.ElementRef{Tag: "link", Attr: "href", Rel: []string{"canonical"}},
	}
	h.UglyCheck(link)
	if len(*lines) != 1 {
		t.Fatalf("printed %d lines, want 1", len(*lines))
	}
}

func TestUglyCheck_InternalLinkWithDomain(t *testing.T) {
	reporter, lines := newReporter()
	h := Hooks{Domain: "www.getambassador.io", Reporter: reporter}
	page := urlref.New("https://www.getambassador.io/")
	link := model.Link{LinkURL: urlref.New("https://www.getambassador.io/docs/"), PageURL: page}
	h.UglyCheck(link)
	if len(*lines) != 1 {
		t.Fatalf("printed %d lines, want 1", len(*lines))
	}
}

func TestUglyCheck_CrossDocsVersion(t *testing.T) {
	reporter, lines := newReporter()
	h := Hooks{Domain: "www.getambassador.io", Reporter: reporter}
	page := urlref.New("https://www.getambassador.io/docs/2.0/topics/")
	link := model.Link{LinkURL: page.Parse("/docs/1.3/topics/other"), PageURL: page}
	h.UglyCheck(link)
	if len(*lines) != 1 {
		t.Fatalf("printed %d lines, want 1", len(*lines))
	}
}

func TestUglyCheck_SameDocsVersionIsClean(t *testing.T) {
	reporter, lines := newReporter()
	h := Hooks{Domain: "www.getambassador.io", Reporter: reporter}
	page := urlref.New("https://www.getambassador.io/docs/2.0/topics/")
	link := model.Link{LinkURL: page.Parse("/docs/2.0/topics/other"), PageURL: page}
	h.UglyCheck(link)
	if len(*lines) != 0 {
		t.Errorf("printed %d lines, want 0 for a same-version relative link", len(*lines))
	}
}

func TestUglyCheck_CrossDocsVersion_SameDirectoryRelativeHref(t *testing.T) {
	// other.Parse("other-page.html") never carries a Host or an absolute
	// Path by itself; UglyCheck must resolve both sides against their
	// page before comparing /docs/<version>/ segments, or this relative
	// cross-version link silently passes.
	reporter, lines := newReporter()
	h := Hooks{Domain: "www.getambassador.io", Reporter: reporter}
	page := urlref.New("https://www.getambassador.io/docs/2.0/foo")
	other := urlref.New("https://www.getambassador.io/docs/1.3/foo")
	link := model.Link{LinkURL: other.Parse("other-page.html"), PageURL: page}
	h.UglyCheck(link)
	if len(*lines) != 1 {
		t.Fatalf("printed %d lines, want 1 for a relative cross-docs-version href", len(*lines))
	}
}
