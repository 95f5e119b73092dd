package model

import "testing"

func TestResponseHeader(t *testing.T) {
	r := &Response{Headers: map[string][]string{
		"Retry-After": {"5"},
		"Link":        {"<https://a>; rel=next", "<https://b>; rel=prev"},
	}}
	if got := r.Header("retry-after"); got != "5" {
		t.Errorf("Header(retry-after) = %q, want %q", got, "5")
	}
	if got := r.HeaderValues("link"); len(got) != 2 {
		t.Errorf("HeaderValues(link) = %v, want 2 entries", got)
	}
	if got := (&Response{}).Header("x"); got != "" {
		t.Errorf("Header on empty Response = %q, want empty", got)
	}
}

func TestHTTPStatusReason(t *testing.T) {
	if got := HTTPStatusReason(404); got != "HTTP_404" {
		t.Errorf("HTTPStatusReason(404) = %q, want %q", got, "HTTP_404")
	}
}

func TestTaskUnion(t *testing.T) {
	var tasks []Task
	tasks = append(tasks, PageTask{}, LinkTask{})
	for _, task := range tasks {
		switch task.(type) {
		case PageTask, LinkTask:
		default:
			t.Errorf("unexpected task type %T", task)
		}
	}
}
