package leads

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/leadflow-cli/internal/model"
)

// ReadXLSX reads leads from the first sheet of an XLSX workbook. The first
// row must be a header carrying the same required columns as the CSV
// format.
func ReadXLSX(path string) ([]model.Lead, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "leads: open xlsx %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("leads: %s has no sheets", path)
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, nil
	}

	col, err := mapHeader(rowToStrings(sheet.Rows[0]))
	if err != nil {
		return nil, eris.Wrapf(err, "leads: xlsx header %s", path)
	}

	var out []model.Lead
	seen := make(map[string]bool)
	for i, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		lead := model.Lead{
			ID:      field(cells, col["lead_id"]),
			Name:    field(cells, col["name"]),
			Email:   field(cells, col["email"]),
			Message: field(cells, col["message"]),
			Source:  field(cells, col["source"]),
		}
		if lead.ID == "" && emptyRow(cells) {
			continue // trailing blank rows are common in hand-edited sheets
		}
		if lead.ID == "" {
			return nil, eris.Errorf("leads: xlsx row %d: empty lead_id", i+2)
		}
		if seen[lead.ID] {
			return nil, eris.Errorf("leads: duplicate lead_id %q", lead.ID)
		}
		seen[lead.ID] = true
		out = append(out, lead)
	}

	return out, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

func emptyRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
