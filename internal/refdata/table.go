package refdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// readTable returns all rows of a delimited text file or, for .xlsx files,
// of the first worksheet. Cells are trimmed.
func readTable(path string) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return readWorkbook(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.Comment = '#'

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		rows = append(rows, trimAll(record))
	}
	return rows, nil
}

func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", path, err)
	}
	for i := range rows {
		rows[i] = trimAll(rows[i])
	}
	return rows, nil
}

// keyedRows turns a header + rows table into key -> column -> value.
// The first column is the key; header names are lower-cased.
func keyedRows(rows [][]string) map[string]map[string]string {
	out := make(map[string]map[string]string)
	if len(rows) == 0 {
		return out
	}

	header := rows[0]
	for _, row := range rows[1:] {
		if len(row) == 0 || row[0] == "" {
			continue
		}
		values := make(map[string]string, len(header))
		for i := 1; i < len(header) && i < len(row); i++ {
			values[strings.ToLower(header[i])] = row[i]
		}
		out[row[0]] = values
	}
	return out
}

func trimAll(record []string) []string {
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}
	return record
}
