package matching

import "strings"

// Option applies a configuration option to the Matcher.
type Option func(*Matcher)

// WithDefaultTopK sets the result count used when a query omits top_k.
func WithDefaultTopK(k int) Option {
	return func(m *Matcher) {
		if k >= 1 {
			m.defaultTopK = k
		}
	}
}

// WithMaxTopK lowers the upper clamp for top_k. Values outside
// [1, DefaultMaxTopK] are ignored.
func WithMaxTopK(k int) Option {
	return func(m *Matcher) {
		if k >= 1 && k <= DefaultMaxTopK {
			m.maxTopK = k
		}
	}
}

// WithDefaultMethod sets the method used when a query omits it.
// Unknown names are ignored.
func WithDefaultMethod(name string) Option {
	return func(m *Matcher) {
		if method, err := ParseMethod(name, m.defaultMethod); err == nil {
			m.defaultMethod = method
		}
	}
}

// WithOfficialURLBase sets the prefix for the zero-padded official URL.
func WithOfficialURLBase(base string) Option {
	return func(m *Matcher) {
		if base != "" {
			m.officialURLBase = ensureSlash(base)
		}
	}
}

// WithReferenceURLBase sets the prefix for slug-based reference URLs.
func WithReferenceURLBase(base string) Option {
	return func(m *Matcher) {
		if base != "" {
			m.referenceURLBase = ensureSlash(base)
		}
	}
}

func ensureSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
