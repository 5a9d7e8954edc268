// Package parser recognises FLEX alphanumeric lines emitted by the decoder
// and derives the urgency level of a message body.
package parser

import (
	"strings"
	"time"

	"p2000-receiver/internal/models"
)

const (
	protocolTag = "FLEX"
	alphaTag    = "ALN"
	fieldSep    = "|"
	fieldCount  = 7

	// TimestampLayout is the UTC layout of field 1.
	TimestampLayout = "2006-01-02 15:04:05"
)

// ParseLine splits a decoder line of the form
//
//	FLEX|2024-05-01 12:00:00|1600/2/K/A|10.120|001420059 001420060|ALN|A1 Kerkstraat 1234AB Amsterdam
//
// ok is false for anything that is not an alphanumeric FLEX message.
func ParseLine(line string) (models.RawLine, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, protocolTag) || !strings.Contains(line, alphaTag) {
		return models.RawLine{}, false
	}

	// the body may itself contain the separator
	fields := strings.SplitN(line, fieldSep, fieldCount)
	if len(fields) < fieldCount {
		return models.RawLine{}, false
	}

	return models.RawLine{
		Timestamp: strings.TrimSpace(fields[1]),
		GroupID:   strings.TrimSpace(fields[3]),
		Capcodes:  strings.Fields(fields[4]),
		Body:      strings.TrimSpace(fields[6]),
		Raw:       line,
	}, true
}

// LocalTimestamp converts a UTC decoder timestamp into ctime format in loc.
// Unparseable input is returned unchanged.
func LocalTimestamp(utc string, loc *time.Location) string {
	t, err := time.ParseInLocation(TimestampLayout, utc, time.UTC)
	if err != nil {
		return utc
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(time.ANSIC)
}
