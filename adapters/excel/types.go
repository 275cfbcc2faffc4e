package excel

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

// Format is a tabular file format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// FormatOf picks the format from a path extension, xlsx by default
func FormatOf(path string) Format {
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		return FormatCSV
	}
	return FormatXLSX
}

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatXLSX, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported file type: %s", s)
	}
}

// formatCell renders a frame cell as text
func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// sheetCell is the value written to a spreadsheet cell. Non-finite floats
// and booleans become text so they read back the way CSV cells do.
func sheetCell(v any) any {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return formatCell(x)
		}
	case bool:
		return formatCell(x)
	}
	return v
}

// parseCell reverses formatCell. Every number comes back as float64.
func parseCell(s string) any {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
