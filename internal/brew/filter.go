package brew

import (
	"github.com/gobwas/glob"

	"github.com/caskdeck/caskdeck/internal/errors"
)

// Filter matches cask tokens against shell-style glob patterns such as
// "google-*" or "{slack,zoom}". An empty Filter matches everything.
type Filter struct {
	globs []glob.Glob
}

// NewFilter compiles patterns. A token matches if any pattern matches.
func NewFilter(patterns ...string) (*Filter, error) {
	f := &Filter{}
	for _, p := range patterns {
		if p == "" {
			continue
		}
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.NewValidationError("invalid cask pattern").
				WithField("match").WithValue(p).WithCause(err)
		}
		f.globs = append(f.globs, g)
	}
	return f, nil
}

// Match reports whether token matches the filter.
func (f *Filter) Match(token string) bool {
	if f == nil || len(f.globs) == 0 {
		return true
	}
	for _, g := range f.globs {
		if g.Match(token) {
			return true
		}
	}
	return false
}

// Tokens returns the tokens that match, preserving order.
func (f *Filter) Tokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Outdated returns the outdated casks whose token matches, preserving order.
func (f *Filter) Outdated(casks []OutdatedCask) []OutdatedCask {
	out := make([]OutdatedCask, 0, len(casks))
	for _, c := range casks {
		if f.Match(c.Token) {
			out = append(out, c)
		}
	}
	return out
}
