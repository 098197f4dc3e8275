package tastycsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ReadFile reads one export file into raw rows. Headers are lower-cased and
// the UTF-8 BOM some exports prepend is stripped. Data rows are numbered
// from 2 (the header is line 1) so warnings and synthesized ids line up
// with the file as seen in a spreadsheet.
func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := readRows(f, fileStem(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

func readRows(r io.Reader, source string) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // exports are occasionally ragged
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	var rows []Row
	for num := 2; ; num++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", num, err)
		}

		fields := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) && name != "" {
				fields[name] = record[i]
			}
		}
		rows = append(rows, Row{Source: source, Num: num, Fields: fields})
	}
	return rows, nil
}

// fileStem is the file name without directory or extension, used in
// synthesized order ids.
func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
