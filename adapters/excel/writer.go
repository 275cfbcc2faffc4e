package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"gounc/domain/uncertainty"
)

// Writer exports stage frames to spreadsheets or CSV files
type Writer struct {
	logger *zap.Logger
}

// NewWriter creates a frame writer
func NewWriter(logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{logger: logger.Named("excel")}
}

// Write exports frames into dir as <base>.xlsx with one sheet per frame,
// or as one <frame>.csv file per frame, and returns the written paths
func (w *Writer) Write(dir, base string, format Format, frames []uncertainty.Frame) ([]string, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames to write")
	}
	switch format {
	case FormatCSV:
		return w.WriteCSV(dir, frames)
	case FormatXLSX:
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
		path := filepath.Join(dir, base+".xlsx")
		if err := w.WriteXLSX(path, frames); err != nil {
			return nil, err
		}
		return []string{path}, nil
	default:
		return nil, fmt.Errorf("unsupported file type: %s", format)
	}
}

// WriteXLSX writes one sheet per frame, header row first
func (w *Writer) WriteXLSX(path string, frames []uncertainty.Frame) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, frame := range frames {
		sheet := frame.Name
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("failed to name sheet %s: %w", sheet, err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}

		header := make([]any, len(frame.Columns))
		for c, name := range frame.Columns {
			header[c] = name
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return fmt.Errorf("failed to write header of %s: %w", sheet, err)
		}
		for r, row := range frame.Rows {
			cells := make([]any, len(row))
			for c, v := range row {
				cells[c] = sheetCell(v)
			}
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
				return fmt.Errorf("failed to write row %d of %s: %w", r, sheet, err)
			}
		}
	}
	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	w.logger.Info("frames written", zap.String("path", path), zap.Int("sheets", len(frames)))
	return nil
}

// WriteCSV writes <dir>/<frame>.csv for every frame and returns the paths
func (w *Writer) WriteCSV(dir string, frames []uncertainty.Frame) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	paths := make([]string, 0, len(frames))
	for _, frame := range frames {
		path := filepath.Join(dir, frame.Name+".csv")
		if err := writeCSVFile(path, frame); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	w.logger.Info("frames written", zap.String("dir", dir), zap.Int("files", len(paths)))
	return paths, nil
}

func writeCSVFile(path string, frame uncertainty.Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := cw.Write(frame.Columns); err != nil {
		return err
	}
	record := make([]string, len(frame.Columns))
	for _, row := range frame.Rows {
		for c := range record {
			record[c] = ""
			if c < len(row) {
				record[c] = formatCell(row[c])
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}
