// Package stockcsv reads and writes the stock-agency submission CSV.
package stockcsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/kozaktomas/stock-metadata/internal/constants"
)

// Header is the fixed column order of the submission file.
var Header = []string{"Filename", "Title", "Keywords", "Category", "Releases"}

// Record is one output row.
type Record struct {
	Filename string `json:"filename"`
	Title    string `json:"title"`
	Keywords string `json:"keywords"`
	Category string `json:"category"`
	Releases string `json:"releases"`
}

func (r Record) fields() []string {
	return []string{r.Filename, r.Title, r.Keywords, r.Category, r.Releases}
}

// Filename returns the file name of the 1-based row index, zero-padded to two digits.
func Filename(index int) string {
	return fmt.Sprintf("%s%02d%s", constants.FilenamePrefix, index, constants.FilenameExtension)
}

// DefaultFileName returns the output file name for a run of n rows.
func DefaultFileName(n int) string {
	return fmt.Sprintf("generated_metadata_%d.csv", n)
}

// Write writes the header and all records.
func Write(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, rec := range records {
		if err := cw.Write(rec.fields()); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes records to path, replacing any existing file.
func WriteFile(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Write(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Read parses a submission CSV. The header must match Header exactly.
func Read(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	// Tolerate a UTF-8 byte order mark written by spreadsheet tools.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if !slices.Equal(header, Header) {
		return nil, fmt.Errorf("unexpected header %v", header)
	}

	var records []Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(records)+1, err)
		}
		records = append(records, Record{
			Filename: row[0],
			Title:    row[1],
			Keywords: row[2],
			Category: row[3],
			Releases: row[4],
		})
	}
	return records, nil
}
