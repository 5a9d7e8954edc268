// Package filter decides which decoder lines enter the pipeline at all.
package filter

import (
	"fmt"
	"path/filepath"

	"p2000-receiver/internal/match"
	"p2000-receiver/internal/models"
	"p2000-receiver/internal/refdata"

	"go.uber.org/zap"
)

// File names inside the data directory.
const (
	MatchCapcodesFile  = "match_capcodes.txt"
	IgnoreCapcodesFile = "ignore_capcodes.txt"
	MatchTextFile      = "match_text.txt"
	IgnoreTextFile     = "ignore_text.txt"
)

// Skip reasons.
const (
	ReasonCapcodeNotMatched = "capcode not in match_capcodes"
	ReasonCapcodeIgnored    = "single capcode in ignore_capcodes"
	ReasonTextIgnored       = "matched ignore_text"
	ReasonTextNotMatched    = "did not match match_text"
)

// IngestFilter holds the capcode and text filters.
type IngestFilter struct {
	matchCapcodes  map[string]string
	ignoreCapcodes map[string]string
	matchText      *match.Patterns
	ignoreText     *match.Patterns
	logger         *zap.Logger
}

// New builds an IngestFilter. Capcode keys must already be normalised.
func New(matchCapcodes, ignoreCapcodes map[string]string, matchText, ignoreText *match.Patterns, logger *zap.Logger) *IngestFilter {
	return &IngestFilter{
		matchCapcodes:  matchCapcodes,
		ignoreCapcodes: ignoreCapcodes,
		matchText:      matchText,
		ignoreText:     ignoreText,
		logger:         logger,
	}
}

// Load reads the four filter files from dir. Missing files disable the
// corresponding filter; an invalid glob is an error.
func Load(dir string, logger *zap.Logger) (*IngestFilter, error) {
	matchText, err := match.Compile(refdata.LoadList(filepath.Join(dir, MatchTextFile), logger))
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s: %w", MatchTextFile, err)
	}
	ignoreText, err := match.Compile(refdata.LoadList(filepath.Join(dir, IgnoreTextFile), logger))
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s: %w", IgnoreTextFile, err)
	}

	f := New(
		refdata.LoadCapcodeFilter(filepath.Join(dir, MatchCapcodesFile), logger),
		refdata.LoadCapcodeFilter(filepath.Join(dir, IgnoreCapcodesFile), logger),
		matchText,
		ignoreText,
		logger,
	)
	logger.Info("Ingest filters loaded",
		zap.Int("match_capcodes", len(f.matchCapcodes)),
		zap.Int("ignore_capcodes", len(f.ignoreCapcodes)),
		zap.Strings("match_text", matchText.Patterns()),
		zap.Strings("ignore_text", ignoreText.Patterns()),
	)
	return f, nil
}

// Check returns an empty reason when the line may be processed.
func (f *IngestFilter) Check(line models.RawLine) string {
	if len(f.matchCapcodes) > 0 && !f.anyMatchedCapcode(line.Capcodes) {
		return ReasonCapcodeNotMatched
	}

	if len(f.ignoreCapcodes) > 0 && len(line.Capcodes) == 1 {
		if _, ok := f.ignoreCapcodes[refdata.NormalizeCapcode(line.Capcodes[0])]; ok {
			return ReasonCapcodeIgnored
		}
	}

	if f.ignoreText.Len() > 0 && f.ignoreText.Match(line.Body) {
		return ReasonTextIgnored
	}

	if f.matchText.Len() > 0 && !f.matchText.Match(line.Body) {
		return ReasonTextNotMatched
	}
	return ""
}

// Allow is Check with logging.
func (f *IngestFilter) Allow(line models.RawLine) bool {
	reason := f.Check(line)
	if reason == "" {
		return true
	}
	f.logger.Debug("Message ignored",
		zap.String("body", line.Body),
		zap.Strings("capcodes", line.Capcodes),
		zap.String("reason", reason),
	)
	return false
}

func (f *IngestFilter) anyMatchedCapcode(capcodes []string) bool {
	for _, c := range capcodes {
		if _, ok := f.matchCapcodes[refdata.NormalizeCapcode(c)]; ok {
			return true
		}
	}
	return false
}
