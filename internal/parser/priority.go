package parser

import "regexp"

// priorityRules are checked in order; the first match decides.
var priorityRules = []struct {
	level   int
	pattern *regexp.Regexp
}{
	{1, regexp.MustCompile(`(?i)^A\s?1|\s?A\s?1|PRIO\s?1|^P\s?1`)},
	{2, regexp.MustCompile(`(?i)^A\s?2|\s?A\s?2|PRIO\s?2|^P\s?2`)},
	{3, regexp.MustCompile(`(?i)^B\s?1|^B\s?2|^B\s?3|PRIO\s?3|^P\s?3`)},
	{4, regexp.MustCompile(`(?i)^PRIO\s?4|^P\s?4`)},
}

// Classify returns the urgency level 1-4 of a message body, 0 when no
// marker is present.
func Classify(body string) int {
	for _, rule := range priorityRules {
		if rule.pattern.MatchString(body) {
			return rule.level
		}
	}
	return 0
}
