// Package refdata loads the static lookup tables: the capcode directory,
// the place-name list and the place-name abbreviation table. Tables are
// read once at startup and never change afterwards.
package refdata

import (
	"bufio"
	"os"
	"strings"

	"p2000-receiver/internal/models"

	"go.uber.org/zap"
)

const capcodeWidth = 9

// Paths locates the reference files.
type Paths struct {
	Capcodes      string
	PlaceNames    string
	Abbreviations string
}

// Tables holds the loaded reference data.
type Tables struct {
	receivers     map[string]models.ReceiverRecord
	placeNames    []string
	placeSet      map[string]struct{}
	abbreviations map[string]string
}

// NewTables builds Tables from in-memory data.
func NewTables(receivers []models.ReceiverRecord, placeNames []string, abbreviations map[string]string) *Tables {
	t := &Tables{
		receivers:     make(map[string]models.ReceiverRecord, len(receivers)),
		placeNames:    append([]string(nil), placeNames...),
		placeSet:      make(map[string]struct{}, len(placeNames)),
		abbreviations: make(map[string]string, len(abbreviations)),
	}
	for _, r := range receivers {
		r.Capcode = NormalizeCapcode(r.Capcode)
		t.receivers[r.Capcode] = r
	}
	for _, name := range placeNames {
		t.placeSet[name] = struct{}{}
	}
	for k, v := range abbreviations {
		t.abbreviations[k] = v
	}
	return t
}

// Load reads every table. A missing or unreadable file is logged and yields
// an empty table.
func Load(paths Paths, logger *zap.Logger) *Tables {
	receivers := LoadReceivers(paths.Capcodes, logger)
	placeNames := LoadList(paths.PlaceNames, logger)
	abbreviations := LoadAbbreviations(paths.Abbreviations, logger)
	return NewTables(receivers, placeNames, abbreviations)
}

// Receiver looks up a capcode.
func (t *Tables) Receiver(capcode string) (models.ReceiverRecord, bool) {
	r, ok := t.receivers[NormalizeCapcode(capcode)]
	return r, ok
}

// IsPlaceName reports whether name is an exact known place name.
func (t *Tables) IsPlaceName(name string) bool {
	_, ok := t.placeSet[name]
	return ok
}

// PlaceNames returns the place names in file order.
func (t *Tables) PlaceNames() []string {
	return t.placeNames
}

// PlaceName resolves an abbreviation such as "MOORDR".
func (t *Tables) PlaceName(abbreviation string) (string, bool) {
	name, ok := t.abbreviations[abbreviation]
	return name, ok
}

// Counts returns the table sizes for startup logging.
func (t *Tables) Counts() (receivers, placeNames, abbreviations int) {
	return len(t.receivers), len(t.placeNames), len(t.abbreviations)
}

// NormalizeCapcode left pads numeric capcodes to nine digits.
func NormalizeCapcode(capcode string) string {
	capcode = strings.TrimSpace(capcode)
	if capcode == "" || len(capcode) >= capcodeWidth {
		return capcode
	}
	for _, r := range capcode {
		if r < '0' || r > '9' {
			return capcode
		}
	}
	return strings.Repeat("0", capcodeWidth-len(capcode)) + capcode
}

// LoadReceivers reads the capcode directory
// (header: capcode,discipline,region,location,description,remark).
func LoadReceivers(path string, logger *zap.Logger) []models.ReceiverRecord {
	rows, ok := load(path, logger)
	if !ok {
		return nil
	}

	keyed := keyedRows(rows)
	out := make([]models.ReceiverRecord, 0, len(keyed))
	for capcode, v := range keyed {
		out = append(out, models.ReceiverRecord{
			Capcode:     capcode,
			Discipline:  v["discipline"],
			Region:      v["region"],
			Location:    v["location"],
			Description: v["description"],
			Remark:      v["remark"],
		})
	}
	logger.Info("Loaded capcode directory", zap.String("path", path), zap.Int("records", len(out)))
	return out
}

// LoadAbbreviations reads the abbreviation table (header: afkorting,plaatsnaam).
func LoadAbbreviations(path string, logger *zap.Logger) map[string]string {
	rows, ok := load(path, logger)
	if !ok {
		return map[string]string{}
	}

	out := make(map[string]string)
	for abbreviation, v := range keyedRows(rows) {
		name := v["plaatsnaam"]
		if name == "" {
			continue
		}
		out[abbreviation] = name
	}
	logger.Info("Loaded abbreviations", zap.String("path", path), zap.Int("records", len(out)))
	return out
}

// LoadList reads one entry per line, skipping blank lines and lines that
// start with '#' or ';'.
func LoadList(path string, logger *zap.Logger) []string {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		logger.Info("Reference list not available, using empty list", zap.String("path", path), zap.Error(err))
		return nil
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		logger.Error("Failed to read reference list", zap.String("path", path), zap.Error(err))
	}
	logger.Info("Loaded list", zap.String("path", path), zap.Int("records", len(out)))
	return out
}

func load(path string, logger *zap.Logger) ([][]string, bool) {
	if path == "" {
		return nil, false
	}
	rows, err := readTable(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("Reference table not available, lookups will miss", zap.String("path", path))
		} else {
			logger.Error("Could not parse reference table", zap.String("path", path), zap.Error(err))
		}
		return nil, false
	}
	return rows, true
}

// LoadCapcodeFilter reads a capcode filter file with lines of the form
// "capcode[,description]". Comment lines start with '#'.
func LoadCapcodeFilter(path string, logger *zap.Logger) map[string]string {
	out := make(map[string]string)
	for _, line := range LoadList(path, logger) {
		fields := strings.Split(line, ",")
		capcode := NormalizeCapcode(fields[0])
		if capcode == "" {
			continue
		}
		description := "NO DESCR"
		if len(fields) > 1 {
			description = strings.TrimSpace(fields[1])
		}
		out[capcode] = description
	}
	return out
}
