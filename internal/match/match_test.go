package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatterns_EmptyAcceptsEverything(t *testing.T) {
	p, err := Compile(nil)
	require.NoError(t, err)

	assert.True(t, p.Match(""))
	assert.True(t, p.Match("anything"))
	assert.True(t, p.MatchAny(nil))

	var nilPatterns *Patterns
	assert.True(t, nilPatterns.Match("x"))
}

func TestPatterns_GlobSemantics(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		text    string
		want    bool
	}{
		{"star matches slash", "*Brand*", "P 1 BDH-01 Brand/Woning Dam", true},
		{"star whole string", "*Brand*", "A1 Ambulance", false},
		{"question mark", "00012345?", "000123456", true},
		{"question mark too short", "00012345?", "00012345", false},
		{"class", "Brandwee[rR]", "BrandweeR", true},
		{"negated class", "[!A]1", "B1", true},
		{"negated class rejects", "[!A]1", "A1", false},
		{"case sensitive", "brandweer", "Brandweer", false},
		{"anchored", "Brand", "Brandweer", false},
		{"empty pattern only matches empty", "", "", true},
		{"empty pattern rejects text", "", "x", false},
		{"braces are literal", "*{1,2}*", "code {1,2} gezien", true},
		{"braces do not alternate", "*{1,2}*", "code 1 gezien", false},
		{"backslash is literal", `C:\p2000*`, `C:\p2000\log`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := MustCompile(tt.pattern)
			assert.Equal(t, tt.want, p.Match(tt.text))
		})
	}
}

func TestPatterns_MatchAny(t *testing.T) {
	p := MustCompile("0001*", "002029568")

	assert.True(t, p.MatchAny([]string{"123456789", "002029568"}))
	assert.True(t, p.MatchAny([]string{"000120901"}))
	assert.False(t, p.MatchAny([]string{"123456789"}))
	assert.False(t, p.MatchAny(nil))
}
