// Package urlref implements URLRef: an immutable URL reference with an
// optional base and a lazily-resolved absolute form.
package urlref

import (
	"fmt"
	"net/url"
)

// URLRef is an immutable URL reference. The zero value is not usable;
// construct one with New.
//
// resolved, when non-empty, overrides ref/base resolution entirely — this
// is how a checker records "this reference actually landed here" after
// following redirects, without losing the original ref/base for reporting.
type URLRef struct {
	ref      string
	base     *URLRef
	resolved string
}

// New creates a root URLRef with no base.
func New(ref string) URLRef {
	return URLRef{ref: ref}
}

// Ref returns the original, unresolved reference string.
func (u URLRef) Ref() string { return u.ref }

// Base returns the base URLRef, or nil if there is none.
func (u URLRef) Base() *URLRef { return u.base }

// Parse returns a child URLRef whose base is u.
func (u URLRef) Parse(ref string) URLRef {
	base := u
	return URLRef{ref: ref, base: &base}
}

// Option mutates a copy of a URLRef in Replace.
type Option func(*URLRef)

// WithBase overrides the base of the copy.
func WithBase(base URLRef) Option {
	return func(u *URLRef) { u.base = &base }
}

// WithRef overrides the ref of the copy.
func WithRef(ref string) Option {
	return func(u *URLRef) { u.ref = ref }
}

// WithResolved overrides the resolved form of the copy directly, bypassing
// ref/base resolution. Used after following redirects.
func WithResolved(resolved string) Option {
	return func(u *URLRef) { u.resolved = resolved }
}

// Replace returns a copy of u with the given options applied.
func (u URLRef) Replace(opts ...Option) URLRef {
	out := u
	for _, opt := range opts {
		opt(&out)
	}
	return out
}

// Resolved returns the absolute URL string this reference resolves to.
//
// It returns resolved if one was set via WithResolved; otherwise, if ref is
// already absolute, it returns ref; otherwise it joins base.Resolved() with
// ref. It is an error for ref to be relative with no base, or for the join
// to fail to produce an absolute URL.
func (u URLRef) Resolved() (string, error) {
	if u.resolved != "" {
		return u.resolved, nil
	}
	if parsed, err := url.Parse(u.ref); err == nil && parsed.Scheme != "" {
		return u.ref, nil
	}
	if u.base == nil {
		return "", fmt.Errorf("could not resolve URL reference: %s: is relative, and have no base for it to be relative to", u.ref)
	}
	baseResolved, err := u.base.Resolved()
	if err != nil {
		return "", err
	}
	baseURL, err := url.Parse(baseResolved)
	if err != nil {
		return "", fmt.Errorf("could not resolve URL reference: %s: bad base %q: %w", u.ref, baseResolved, err)
	}
	refURL, err := url.Parse(u.ref)
	if err != nil {
		return "", fmt.Errorf("could not resolve URL reference: %s: %w", u.ref, err)
	}
	joined := baseURL.ResolveReference(refURL)
	if joined.Scheme == "" {
		return "", fmt.Errorf("could not resolve URL reference: %s", joined)
	}
	return joined.String(), nil
}

// MustResolved is like Resolved but panics on error. Useful in tests.
func (u URLRef) MustResolved() string {
	s, err := u.Resolved()
	if err != nil {
		panic(err)
	}
	return s
}

// Equal reports whether u and other have identical ref, base, and resolved
// fields (base compared recursively).
func (u URLRef) Equal(other URLRef) bool {
	if u.ref != other.ref || u.resolved != other.resolved {
		return false
	}
	if (u.base == nil) != (other.base == nil) {
		return false
	}
	if u.base == nil {
		return true
	}
	return u.base.Equal(*other.base)
}

// Defragment strips a "#fragment" suffix from a URL string, returning the
// canonical key used for caching, dedup, and done-tracking.
func Defragment(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	parsed.Fragment = ""
	parsed.RawFragment = ""
	return parsed.String()
}

// Fragment returns the fragment identifier (without '#') of rawURL, or ""
// if there is none.
func Fragment(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Fragment
}

// Hostname returns the hostname component of rawURL, or "" if rawURL does
// not parse.
func Hostname(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}
