// Package match implements the glob filters used by the ingest filters and
// the sensor router. Patterns follow shell rules: '*' matches any run of
// characters, '?' one character and '[...]' / '[!...]' a character class.
// Matching is case sensitive and anchored on the whole text. Braces and
// backslashes outside a class are literal characters.
package match

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Patterns is an ordered, compiled pattern list.
type Patterns struct {
	raw   []string
	globs []glob.Glob
}

// Compile compiles every pattern. An empty or nil list compiles to a list
// that accepts everything.
func Compile(patterns []string) (*Patterns, error) {
	p := &Patterns{
		raw:   make([]string, 0, len(patterns)),
		globs: make([]glob.Glob, 0, len(patterns)),
	}
	for _, pattern := range patterns {
		g, err := glob.Compile(escapeLiterals(pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		p.raw = append(p.raw, pattern)
		p.globs = append(p.globs, g)
	}
	return p, nil
}

// MustCompile is Compile for static pattern lists.
func MustCompile(patterns ...string) *Patterns {
	p, err := Compile(patterns)
	if err != nil {
		panic(err)
	}
	return p
}

// Len returns the number of patterns.
func (p *Patterns) Len() int {
	if p == nil {
		return 0
	}
	return len(p.globs)
}

// Patterns returns the source patterns.
func (p *Patterns) Patterns() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.raw...)
}

// Match reports whether text matches at least one pattern.
// An empty list matches everything.
func (p *Patterns) Match(text string) bool {
	if p.Len() == 0 {
		return true
	}
	for _, g := range p.globs {
		if g.Match(text) {
			return true
		}
	}
	return false
}

// MatchAny reports whether any of texts matches. An empty list matches everything,
// including an empty texts slice.
func (p *Patterns) MatchAny(texts []string) bool {
	if p.Len() == 0 {
		return true
	}
	for _, text := range texts {
		if p.Match(text) {
			return true
		}
	}
	return false
}

// escapeLiterals escapes the glob syntax that shell patterns do not have:
// '{', '}' (alternation) and '\' (escape). Bracket classes are copied as is.
func escapeLiterals(pattern string) string {
	if !strings.ContainsAny(pattern, "{}\\") {
		return pattern
	}
	var b strings.Builder
	inClass := false
	for _, r := range pattern {
		switch {
		case inClass:
			if r == ']' {
				inClass = false
			}
		case r == '[':
			inClass = true
		case r == '{' || r == '}' || r == '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
