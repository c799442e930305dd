// Package export writes and reads the caller-facing lead list files. The
// database is authoritative; these files are regenerated in full after every
// run so a caller can hand the list to a dialer or a spreadsheet.
package export

import (
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/momentum-leads/rvprospector/internal/model"
)

// WriteCSV writes the full lead list to path, overwriting any existing file.
func WriteCSV(path string, rows []model.DailyRow) error {
	// csvutil emits only the header for an empty slice, which is what an
	// empty list should look like on disk.
	b, err := csvutil.Marshal(rows)
	if err != nil {
		return eris.Wrap(err, "export: marshal csv")
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return eris.Wrapf(err, "export: write %s", path)
	}
	return nil
}

// ReadCSV reads a previously exported lead list. A missing file is an empty
// list, not an error; it just means no export has happened yet.
func ReadCSV(path string) ([]model.DailyRow, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "export: read %s", path)
	}

	var rows []model.DailyRow
	if err := csvutil.Unmarshal(b, &rows); err != nil {
		return nil, eris.Wrapf(err, "export: unmarshal %s", path)
	}
	return rows, nil
}
