package content

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Spreadsheet column layout, shared by xlsx and csv imports:
//
//	A world_id | B world_name | C id | D english | E native | F pos | G example | H example_native
//
// A header row (first cell not numeric) is skipped. World order follows the
// first appearance of each world id.
const minColumns = 6

// ImportExcel reads every sheet of an .xlsx workbook.
func ImportExcel(path string) (*Pool, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	var rows [][]string
	for _, sheet := range f.GetSheetList() {
		sheetRows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to get rows of %q: %w", sheet, err)
		}
		rows = append(rows, sheetRows...)
	}
	return buildFromRows(rows)
}

// ImportCSV reads a comma-separated file with the same layout.
func ImportCSV(path string) (*Pool, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, rec)
	}
	return buildFromRows(rows)
}

func buildFromRows(rows [][]string) (*Pool, error) {
	var (
		worlds []World
		words  = make(map[int][]Word)
		errs   []error
	)
	seen := make(map[int]bool)
	for i, row := range rows {
		if isBlank(row) {
			continue
		}
		worldID, err := strconv.Atoi(cell(row, 0))
		if err != nil {
			if i == 0 {
				continue // header
			}
			errs = append(errs, fmt.Errorf("row %d: bad world id %q", i+1, cell(row, 0)))
			continue
		}
		if len(row) < minColumns {
			errs = append(errs, fmt.Errorf("row %d: expected at least %d columns, got %d", i+1, minColumns, len(row)))
			continue
		}
		if !seen[worldID] {
			seen[worldID] = true
			name := cell(row, 1)
			if name == "" {
				name = fmt.Sprintf("World %d", worldID)
			}
			worlds = append(worlds, World{ID: worldID, Name: name, Order: len(worlds) + 1})
		}
		pos, err := ParsePartOfSpeech(cell(row, 5))
		if err != nil {
			errs = append(errs, fmt.Errorf("row %d: %w", i+1, err))
			continue
		}
		words[worldID] = append(words[worldID], Word{
			ID:            cell(row, 2),
			English:       cell(row, 3),
			Native:        cell(row, 4),
			POS:           pos,
			Example:       cell(row, 6),
			ExampleNative: cell(row, 7),
		})
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("import: %w", errors.Join(errs...))
	}
	if len(worlds) == 0 {
		return nil, errors.New("import: no words found")
	}
	return NewPool(worlds, words)
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
