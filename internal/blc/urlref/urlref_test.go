package urlref

import "testing"

func TestResolved_Absolute(t *testing.T) {
	u := New("https://example.com/a")
	got, err := u.Resolved()
	if err != nil {
		t.Fatalf("Resolved() error = %v", err)
	}
	if got != "https://example.com/a" {
		t.Errorf("Resolved() = %q, want %q", got, "https://example.com/a")
	}
}

func TestResolved_RelativeWithBase(t *testing.T) {
	base := New("https://example.com/dir/page.html")
	child := base.Parse("other.html")
	got, err := child.Resolved()
	if err != nil {
		t.Fatalf("Resolved() error = %v", err)
	}
	want := "https://example.com/dir/other.html"
	if got != want {
		t.Errorf("Resolved() = %q, want %q", got, want)
	}
}

func TestResolved_RelativeNoBase(t *testing.T) {
	u := New("other.html")
	if _, err := u.Resolved(); err == nil {
		t.Error("Resolved() error = nil, want error for relative ref with no base")
	}
}

func TestResolved_ChainedParse(t *testing.T) {
	a := New("https://example.com/a/")
	got, err := a.Parse("b/").Parse("c").Resolved()
	if err != nil {
		t.Fatalf("Resolved() error = %v", err)
	}
	want := "https://example.com/a/b/c"
	if got != want {
		t.Errorf("Resolved() = %q, want %q", got, want)
	}
}

func TestResolved_Override(t *testing.T) {
	u := New("/a").Replace(WithResolved("https://final.example/a"))
	got, err := u.Resolved()
	if err != nil {
		t.Fatalf("Resolved() error = %v", err)
	}
	if got != "https://final.example/a" {
		t.Errorf("Resolved() = %q, want override", got)
	}
}

func TestEqual(t *testing.T) {
	base := New("https://example.com/")
	a := base.Parse("x")
	b := base.Parse("x")
	if !a.Equal(b) {
		t.Error("expected equal URLRefs to compare equal")
	}
	c := base.Parse("y")
	if a.Equal(c) {
		t.Error("expected differing refs to compare unequal")
	}
}

func TestDefragment(t *testing.T) {
	tests := []struct{ in, want string }{
		{"https://example.com/a#frag", "https://example.com/a"},
		{"https://example.com/a", "https://example.com/a"},
		{"https://example.com/a?x=1#frag", "https://example.com/a?x=1"},
	}
	for _, tt := range tests {
		if got := Defragment(tt.in); got != tt.want {
			t.Errorf("Defragment(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFragment(t *testing.T) {
	if got := Fragment("https://example.com/a#x"); got != "x" {
		t.Errorf("Fragment() = %q, want %q", got, "x")
	}
	if got := Fragment("https://example.com/a"); got != "" {
		t.Errorf("Fragment() = %q, want empty", got)
	}
}
