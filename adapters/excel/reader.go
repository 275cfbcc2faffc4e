package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"gounc/domain/uncertainty"
)

// ReadFrames loads frames written by Writer. A workbook yields one frame
// per sheet; a CSV file yields a single frame named after the file.
func ReadFrames(path string) ([]uncertainty.Frame, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(string(FormatOf(path))), path)
	}
	switch FormatOf(path) {
	case FormatCSV:
		frame, err := readCSVFrame(path)
		if err != nil {
			return nil, err
		}
		return []uncertainty.Frame{frame}, nil
	default:
		return readXLSXFrames(path)
	}
}

func readXLSXFrames(path string) ([]uncertainty.Frame, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	var frames []uncertainty.Frame
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		frame, err := toFrame(sheet, rows)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

func readCSVFrame(path string) (uncertainty.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return uncertainty.Frame{}, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return uncertainty.Frame{}, fmt.Errorf("failed to read CSV file: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return toFrame(name, rows)
}

// toFrame converts raw string rows, header first. Short rows are padded
// with nil cells.
func toFrame(name string, rows [][]string) (uncertainty.Frame, error) {
	if len(rows) == 0 {
		return uncertainty.Frame{}, fmt.Errorf("%s: missing header row", name)
	}
	cols := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		cols[i] = strings.TrimSpace(h)
	}
	frame := uncertainty.Frame{Name: name, Columns: cols, Rows: make([][]any, 0, len(rows)-1)}
	for _, raw := range rows[1:] {
		row := make([]any, len(cols))
		for j := range cols {
			if j < len(raw) {
				row[j] = parseCell(raw[j])
			}
		}
		frame.Rows = append(frame.Rows, row)
	}
	return frame, nil
}
