// Package extractor derives a street, postal code and city from the free text
// of a pager message. The heuristics are tried from the tightest pattern to the
// loosest and the first one that yields a location wins.
package extractor

import (
	"regexp"
	"strings"
)

// word is a Unicode-aware \w.
const word = `[\p{L}\p{N}_]`

var (
	postalPattern  = regexp.MustCompile(`(` + word + `*.) ([1-9][0-9]{3}[a-zA-Z]{2}) (.` + word + `*)`)
	numericPattern = regexp.MustCompile(`(` + word + `*.) ([1-9][0-9]{3}) (.` + word + `*)`)
	prioPlace      = regexp.MustCompile(`(^A\s?1|\s?A\s?2|B\s?1|^B\s?2|^B\s?3|PRIO\s?1|^P\s?1|PRIO\s?2|^P\s?2) (.` + word + `*)`)
	capsRun        = regexp.MustCompile(`[A-Z]{2,}`)

	// status markers, ticket numbers and other boilerplate removed before guessing
	boilerplate = regexp.MustCompile(`(?i)` +
		`(^A\s?1|\s?A\s?2|B\s?1|^B\s?2|^B\s?3|PRIO\s?1|^P\s?1|PRIO\s?2|^P\s?2|^PRIO\s?3|^P\s?3|^PRIO\s?4|^P\s?4)(\W\d{2,}|.*(BR)\b|)` +
		`|(rit:|rit|bon|bon:|ambu|dia)\W\d{5,8}` +
		`|\b\d{5,}$` +
		`|( : )` +
		`|\(([^\)]+)\)( \b\d{5,}|)` +
		`|directe (\w*)`)
	edgeBlanks   = regexp.MustCompile(`(^[ \t]+|[ \t]+$)`)
	guessSymbols = regexp.MustCompile(`(- )|(\w[0-9] )`)
)

// Places is the reference data the heuristics consult.
type Places interface {
	PlaceNames() []string
	IsPlaceName(name string) bool
	PlaceName(abbreviation string) (string, bool)
}

// Result is the outcome of Extract. Rule is empty when nothing matched.
type Result struct {
	Street     string
	PostalCode string
	City       string
	Address    string
	// Body is the message text after abbreviation rewriting.
	Body string
	Rule string
}

// Found reports whether any rule fired.
func (r Result) Found() bool {
	return r.Rule != ""
}

type rule struct {
	name  string
	apply func(e *Extractor, body string) (Result, bool)
}

// rules in precedence order
var rules = []rule{
	{"postal", (*Extractor).postalCode},
	{"numeric", (*Extractor).numericCode},
	{"prio-place", (*Extractor).prioPlace},
	{"abbreviation", (*Extractor).abbreviation},
	{"wild-guess", (*Extractor).wildGuess},
}

// Extractor runs the address heuristics against a fixed set of places.
type Extractor struct {
	places Places
}

// New creates an Extractor.
func New(places Places) *Extractor {
	return &Extractor{places: places}
}

// Extract applies the rules in order and stops at the first that fires.
func (e *Extractor) Extract(body string) Result {
	for _, r := range rules {
		if res, ok := r.apply(e, body); ok {
			res.Rule = r.name
			return res
		}
	}
	return Result{Body: body}
}

func (e *Extractor) postalCode(body string) (Result, bool) {
	m := postalPattern.FindStringSubmatch(body)
	if m == nil {
		return Result{}, false
	}
	return Result{
		Street:     m[1],
		PostalCode: m[2],
		City:       m[3],
		Address:    m[1] + " " + m[2] + " " + m[3],
		Body:       e.stripAbbreviations(body),
	}, true
}

func (e *Extractor) numericCode(body string) (Result, bool) {
	m := numericPattern.FindStringSubmatch(body)
	if m == nil {
		return Result{}, false
	}
	return Result{
		Street:     m[1],
		PostalCode: m[2],
		City:       m[3],
		Address:    m[1] + " " + m[3],
		Body:       e.stripAbbreviations(body),
	}, true
}

func (e *Extractor) prioPlace(body string) (Result, bool) {
	m := prioPlace.FindStringSubmatch(body)
	if m == nil || !e.places.IsPlaceName(m[2]) {
		return Result{}, false
	}
	return Result{City: m[2], Body: body}, true
}

func (e *Extractor) abbreviation(body string) (Result, bool) {
	var res Result
	found := false
	for _, abbr := range capsRun.FindAllString(body, -1) {
		city, ok := e.places.PlaceName(abbr)
		if !ok {
			continue
		}
		found = true
		res.City = city

		streetPattern := regexp.MustCompile(`(` + word + `*.) (` + regexp.QuoteMeta(abbr) + `)`)
		if m := streetPattern.FindStringSubmatch(body); m != nil {
			res.Street = m[1]
		}
		res.Address = strings.TrimSpace(res.Street + " " + city)
		body = strings.ReplaceAll(body, abbr, city)
	}
	res.Body = body
	return res, found
}

func (e *Extractor) wildGuess(body string) (Result, bool) {
	stripped := boilerplate.ReplaceAllString(body, "")
	stripped = edgeBlanks.ReplaceAllString(stripped, "")
	stripped = dropRepeatedWords(stripped)

	var res Result
	found := false
	for _, place := range e.places.PlaceNames() {
		if place == "" || !strings.Contains(stripped, place) {
			continue
		}
		pattern, err := regexp.Compile(word + `*.[a-z|A-Z] \b` + regexp.QuoteMeta(place) + `\b`)
		if err != nil {
			continue
		}
		fragment := pattern.FindString(stripped)
		if fragment == "" {
			continue
		}
		found = true
		res.City = place
		res.Address = guessSymbols.ReplaceAllString(fragment, "")
	}
	res.Body = body
	return res, found
}

// stripAbbreviations removes every all-caps run that is a known place
// abbreviation, so the city is not reported twice.
func (e *Extractor) stripAbbreviations(body string) string {
	for _, abbr := range capsRun.FindAllString(body, -1) {
		if _, ok := e.places.PlaceName(abbr); ok {
			body = strings.ReplaceAll(body, abbr, "")
		}
	}
	return body
}

// dropRepeatedWords removes every word that occurs again later in the text,
// keeping the last occurrence.
func dropRepeatedWords(text string) string {
	words := strings.Fields(text)
	kept := make([]string, 0, len(words))
	for i, w := range words {
		repeated := false
		for _, later := range words[i+1:] {
			if later == w {
				repeated = true
				break
			}
		}
		if !repeated {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}
