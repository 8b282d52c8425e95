package vault

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/CompassSecurity/vaultmedic/pkg/audit/failure"
)

// KeePass CSV export column layout.
const (
	csvGroup = iota
	csvTitle
	csvUsername
	csvPassword
	csvURL
)

// ReadCSV reads a KeePass CSV export. The header row is skipped and entries
// without a password are dropped. A row that has no password column aborts the read.
func ReadCSV(r io.Reader) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var entries []Entry
	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading csv row %d: %w", failure.ErrIO, row, err)
		}

		if record[csvGroup] == "Group" && len(record) > csvTitle && record[csvTitle] == "Title" {
			continue
		}

		if len(record) <= csvPassword {
			return nil, fmt.Errorf("%w: csv row %d has no password column", failure.ErrParse, row)
		}

		entries = keep(entries, field(record, csvTitle), field(record, csvURL), field(record, csvUsername), record[csvPassword])
	}
}

func field(record []string, idx int) string {
	if idx < len(record) {
		return record[idx]
	}
	return ""
}
