package createtask

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// TaskDefinition is one task to create in the grade book
type TaskDefinition struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
}

var (
	nameHeaders   = []string{"name", "task", "nazev", "název", "uloha", "úloha"}
	pointsHeaders = []string{"points", "body", "score"}
)

// LoadTasksCSV reads task definitions from a comma or semicolon separated
// file. A header row naming the columns is optional; without one the first
// column is the name and the second the points.
func LoadTasksCSV(path string) ([]TaskDefinition, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("CSV file %s does not exist", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}

	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV file: %w", err)
		}
		rows = append(rows, rec)
	}
	return parseRows(rows)
}

// LoadTasksXLSX reads task definitions from a worksheet. An empty sheet name
// selects the first sheet.
func LoadTasksXLSX(path, sheet string) ([]TaskDefinition, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("XLSX file %s does not exist", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("XLSX file %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return parseRows(rows)
}

// LoadTasks dispatches on the file extension
func LoadTasks(path, sheet string) ([]TaskDefinition, error) {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xlsm") {
		return LoadTasksXLSX(path, sheet)
	}
	return LoadTasksCSV(path)
}

func sniffDelimiter(data []byte) rune {
	first := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		first = data[:i]
	}
	if bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		return ';'
	}
	return ','
}

// parseRows applies the shared row rules. Row numbers are 1-based and count
// the header.
func parseRows(rows [][]string) ([]TaskDefinition, error) {
	nameCol, pointsCol := 0, 1
	start := 0

	if len(rows) > 0 {
		if n, p, ok := headerColumns(rows[0]); ok {
			nameCol, pointsCol = n, p
			start = 1
		}
	}

	var tasks []TaskDefinition
	for i := start; i < len(rows); i++ {
		row := rows[i]
		if blank(row) {
			continue
		}
		line := i + 1

		name := cell(row, nameCol)
		if name == "" {
			return nil, fmt.Errorf("row %d: missing task name", line)
		}

		raw := cell(row, pointsCol)
		points, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid integer for points -> '%s'", line, raw)
		}

		tasks = append(tasks, TaskDefinition{Name: name, Points: points})
	}
	return tasks, nil
}

func headerColumns(row []string) (nameCol, pointsCol int, ok bool) {
	nameCol, pointsCol = -1, -1
	for i, h := range row {
		h = strings.ToLower(strings.TrimSpace(h))
		switch {
		case nameCol < 0 && slices.Contains(nameHeaders, h):
			nameCol = i
		case pointsCol < 0 && slices.Contains(pointsHeaders, h):
			pointsCol = i
		}
	}
	if nameCol < 0 || pointsCol < 0 {
		return 0, 1, false
	}
	return nameCol, pointsCol, true
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
