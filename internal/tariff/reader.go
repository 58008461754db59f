package tariff

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Read picks the decoder from the file name. Anything that is not .xlsx is
// read as the provider's semicolon CSV.
func Read(name string, r io.Reader) ([]Row, error) {
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return ReadXLSX(r)
	}
	return ReadCSV(r)
}

// ReadCSV decodes a semicolon-delimited export. Malformed records become
// failed rows; only an unreadable stream returns an error.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	var c collector
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				c.fail(pe.StartLine, err)
				continue
			}
			return nil, fmt.Errorf("baca csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		c.add(line, rec)
	}
	return c.rows, nil
}

// ReadXLSX decodes the first sheet of a workbook laid out like the CSV.
func ReadXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("buka xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsx tanpa sheet")
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("baca sheet %s: %w", sheets[0], err)
	}
	var c collector
	for i, rec := range records {
		c.add(i+1, rec)
	}
	return c.rows, nil
}
