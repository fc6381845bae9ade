// Package leads reads the immutable lead input set from CSV or XLSX
// sources. Leads are inputs only; nothing in the pipeline writes back.
package leads

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadflow-cli/internal/model"
)

// requiredColumns are the columns every lead source must provide.
// Header order is irrelevant; extra columns are ignored.
var requiredColumns = []string{"lead_id", "name", "email", "message", "source"}

// LoadCSV reads leads from a CSV file. It fails on a missing file, a
// missing required column, or a duplicate lead_id (lead IDs must be
// unique within a batch).
func LoadCSV(path string) ([]model.Lead, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "leads: open %s", path)
	}
	defer f.Close()

	rows, err := readCSV(f)
	if err != nil {
		return nil, eris.Wrapf(err, "leads: read %s", path)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([]model.Lead, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "read header")
	}

	col, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var leads []model.Lead
	seen := make(map[string]bool)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "read row")
		}

		lead := model.Lead{
			ID:      field(record, col["lead_id"]),
			Name:    field(record, col["name"]),
			Email:   field(record, col["email"]),
			Message: field(record, col["message"]),
			Source:  field(record, col["source"]),
		}
		if lead.ID == "" {
			return nil, eris.Errorf("row %d: empty lead_id", len(leads)+2)
		}
		if seen[lead.ID] {
			return nil, eris.Errorf("duplicate lead_id %q", lead.ID)
		}
		seen[lead.ID] = true
		leads = append(leads, lead)
	}

	return leads, nil
}

// WriteCSV writes leads in the canonical column order, creating parent
// directories as needed. Used by the XLSX importer.
func WriteCSV(path string, leads []model.Lead) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "leads: mkdir %s", dir)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "leads: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(requiredColumns); err != nil {
		return eris.Wrap(err, "leads: write header")
	}
	for _, l := range leads {
		if err := w.Write([]string{l.ID, l.Name, l.Email, l.Message, l.Source}); err != nil {
			return eris.Wrapf(err, "leads: write lead %s", l.ID)
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "leads: flush")
}

func mapHeader(header []string) (map[string]int, error) {
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, want := range requiredColumns {
		if _, ok := col[want]; !ok {
			return nil, eris.Errorf("missing required column %q", want)
		}
	}
	return col, nil
}

func field(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
