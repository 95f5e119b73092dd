package telepresence

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
	p := generic.New("www.telepresence.io", &fakeEnqueuer{}, nil)
	p.Print = func(l string) { lines = append(lines, l) }
	return p, &lines
}

func TestIsInternalDomain(t *testing.T) {
	h := Hooks{Domain: "www.telepresence.io"}
	cases := map[string]bool{
		"www.telepresence.io": true,
		"docs.telepresence.io": true,
		"telepresence.io":      true,
		"other.example":        false,
	}
	for netloc, want := range cases {
		if got := h.IsInternalDomain(netloc); got != want {
			t.Errorf("IsInternalDomain(%q) = %v, want %v", netloc, got, want)
		}
	}
}

func TestShouldSkipLink_InClusterHostnames(t *testing.T) {
	h := Hooks{Domain: "www.telepresence.io"}
	page := urlref.New("https://www.telepresence.io/")
	cases := map[string]bool{
		"http://dataprocessingservice.default:8080/": true,
		"http://localhost:8080/":                     true,
		"http://verylargejavaservice/":                true,
		"http://web-app.emojivoto/":                   true,
		"https://www.telepresence.io/docs/":           false,
	}
	for ref, want := range cases {
		link := model.Link{LinkURL: urlref.New(ref), PageURL: page}
		if got := h.ShouldSkipLink(link); got != want {
			t.Errorf("ShouldSkipLink(%q) = %v, want %v", ref, got, want)
		}
	}
}

func TestUglyCheck_WrongCanonicalDomain(t *testing.T) {
	reporter, lines := newReporter()
	h := Hooks{Domain: "www.telepresence.io", Reporter: reporter}
	page := urlref.New("https://www.telepresence.io/docs/latest/")
	link := model.Link{
		LinkURL: urlref.New("https://telepresence.io/docs/latest/"),
		PageURL: page,
		HTML:    &model.ElementRef{Tag: "link", Attr: "href", Rel: []string{"canonical"}},
	}
	h.UglyCheck(link)
	if len(*lines) != 1 {
		t.Fatalf("printed %d lines, want 1", len(*lines))
	}
}

func TestUglyCheck_CanonicalToAmbassadorIsClean(t *testing.T) {
	reporter, lines := newReporter()
	h := Hooks{Domain: "www.telepresence.io", Reporter: reporter}
	page := urlref.New("https://www.telepresence.io/docs/latest/")
	link := model.Link{
		LinkURL: urlref.New("https://www.getambassador.io/docs/latest/"),
		PageURL: page,
		HTML:    &model.ElementRef{Tag: "link", Attr: "href", Rel: []string{"canonical"}},
	}
	h.UglyCheck(link)
	if len(*lines) != 0 {
		t.Errorf("printed %d lines, want 0 for a canonical pointing at getambassador.io", len(*lines))
	}
}

func TestUglyCheck_InternalLinkWithDomain(t *testing.T) {
	reporter, lines := newReporter()
	h := Hooks{Domain: "www.telepresence.io", Reporter: reporter}
	page := urlref.New("https://www.telepresence.io/")
	link := model.Link{LinkURL: urlref.New("https://www.telepresence.io/docs/"), PageURL: page}
	h.UglyCheck(link)
	if len(*lines) != 1 {
		t.Fatalf("printed %d lines, want 1", len(*lines))
	}
}
