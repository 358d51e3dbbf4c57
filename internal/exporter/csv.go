package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"cgmdose/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes record tables as CSV files
type CSVWriter struct {
	logger *slog.Logger
	bom    bool
}

// NewCSVWriter creates a new CSV writer instance. bom prefixes each file
// with a UTF-8 BOM for Excel compatibility.
func NewCSVWriter(logger *slog.Logger, bom bool) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger, bom: bom}
}

// WriteTable writes t to w: a header row, then one row per record.
func (w *CSVWriter) WriteTable(out io.Writer, t domain.Table) error {
	if w.bom {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	headers, rows := TableRows(t)
	writer := csv.NewWriter(out)
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteTableFile writes t to path, creating parent directories.
func (w *CSVWriter) WriteTableFile(path string, t domain.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := w.WriteTable(file, t); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	w.logger.Info("Wrote CSV file",
		slog.String("path", path),
		slog.Int("record_count", t.Len()),
		slog.Int("column_count", len(t.Columns())))
	return nil
}
