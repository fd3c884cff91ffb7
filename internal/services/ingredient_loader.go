package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// IngredientRow is one parsed entry of an ingredient file. Err is set when the
// entry is unusable.
type IngredientRow struct {
	Line int
	Name string
	Unit string
	Err  string
}

type IngredientFormat string

const (
	FormatCSV  IngredientFormat = "csv"
	FormatJSON IngredientFormat = "json"
	FormatYAML IngredientFormat = "yaml"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (IngredientFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported ingredient file %q (want .csv, .json, .yaml)", path)
	}
}

func ReadIngredientFile(path string) ([]IngredientRow, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseIngredients(f, format)
}

func ParseIngredients(r io.Reader, format IngredientFormat) ([]IngredientRow, error) {
	switch format {
	case FormatCSV:
		return parseIngredientCSV(r)
	case FormatJSON:
		var items []any
		if err := json.NewDecoder(r).Decode(&items); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		return rowsFromItems(items), nil
	case FormatYAML:
		var items []any
		if err := yaml.NewDecoder(r).Decode(&items); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		return rowsFromItems(items), nil
	default:
		return nil, fmt.Errorf("unsupported ingredient format %q", format)
	}
}

func parseIngredientCSV(r io.Reader) ([]IngredientRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []IngredientRow
	for line := 1; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if len(rec) < 2 {
			rows = append(rows, IngredientRow{Line: line, Err: "not enough columns"})
			continue
		}
		rows = append(rows, newIngredientRow(line, rec[0], rec[1]))
	}
	return rows, nil
}

func rowsFromItems(items []any) []IngredientRow {
	rows := make([]IngredientRow, 0, len(items))
	for i, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			rows = append(rows, IngredientRow{Line: i + 1, Err: "not an object"})
			continue
		}
		name, _ := item["name"].(string)
		unit, _ := item["measurement_unit"].(string)
		rows = append(rows, newIngredientRow(i+1, name, unit))
	}
	return rows
}

func newIngredientRow(line int, name, unit string) IngredientRow {
	row := IngredientRow{Line: line, Name: strings.TrimSpace(name), Unit: strings.TrimSpace(unit)}
	switch {
	case row.Name == "" || row.Unit == "":
		row.Err = "empty name or unit"
	case len([]rune(row.Name)) > 128:
		row.Err = "name longer than 128 characters"
	case len([]rune(row.Unit)) > 64:
		row.Err = "unit longer than 64 characters"
	}
	return row
}
