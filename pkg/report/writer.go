// Package report writes the CSV results file.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"inatdl/pkg/models"
)

// Multi-value fields are semicolon-joined and position-aligned across the
// filename, page-URL and original-URL columns.
const fieldSeparator = ";"

// Writer writes one CSV row per observation that yielded at least one
// resolved filename. Observations with zero filenames are omitted entirely,
// never written as empty rows.
type Writer struct {
	file        *os.File
	csv         *csv.Writer
	includeURLs bool
	rows        int
}

// NewWriter creates the CSV file and writes the header. When includeURLs is
// set, the photo-page and original-link columns are added.
func NewWriter(path string, includeURLs bool) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	w := &Writer{
		file:        file,
		csv:         csv.NewWriter(file),
		includeURLs: includeURLs,
	}

	header := []string{"observation_id", "photo_filenames"}
	if includeURLs {
		header = append(header, "photo_urls", "original_photo_urls")
	}
	if err := w.csv.Write(header); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	return w, nil
}

// WriteRow writes one observation row. Rows without filenames are dropped.
func (w *Writer) WriteRow(row models.OutputRow) error {
	if len(row.Filenames) == 0 {
		return nil
	}

	record := []string{
		strconv.FormatInt(row.ObservationID, 10),
		strings.Join(row.Filenames, fieldSeparator),
	}
	if w.includeURLs {
		record = append(record,
			strings.Join(row.PageURLs, fieldSeparator),
			strings.Join(row.OriginalURLs, fieldSeparator),
		)
	}

	if err := w.csv.Write(record); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return err
	}
	w.rows++
	return nil
}

// Rows returns the number of rows written so far, excluding the header
func (w *Writer) Rows() int {
	return w.rows
}

// Close flushes and closes the underlying file
func (w *Writer) Close() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
