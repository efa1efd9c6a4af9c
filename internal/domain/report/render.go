package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	sheetName = "Report"
	XLSXType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// RenderXLSX writes the report as a two-column workbook, one block per
// section followed by the eligibility verdict.
func RenderXLSX(r *Report) ([]byte, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create title style: %w", err)
	}
	sectionStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FDE2E2"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create section style: %w", err)
	}

	w := &sheetWriter{f: f, row: 1}
	w.set(1, "Blood Donation Eligibility Report", titleStyle)
	w.row += 2
	w.pair("Profile ID", r.ProfileID.String())
	w.pair("Generated At", r.GeneratedAt.Format(time.RFC3339))
	w.row++

	for _, s := range r.Sections {
		w.set(1, s.Title, sectionStyle)
		w.set(2, "", sectionStyle)
		w.row++
		for _, fld := range s.Fields {
			w.pair(fld.Label, fld.Value)
		}
		w.row++
	}

	w.set(1, "Eligibility Assessment", sectionStyle)
	w.set(2, "", sectionStyle)
	w.row++
	w.pair("Status", r.Eligibility.Status)
	for i, reason := range r.Eligibility.Reasons {
		label := ""
		if i == 0 {
			label = "Reasons"
		}
		w.pair(label, reason)
	}
	w.pair("Completed", yesNo(&r.Completed))

	if w.err != nil {
		f.Close()
		return nil, w.err
	}
	if err := f.SetColWidth(sheetName, "A", "A", 32); err != nil {
		f.Close()
		return nil, fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(sheetName, "B", "B", 80); err != nil {
		f.Close()
		return nil, fmt.Errorf("set column width: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// sheetWriter keeps the first error so the layout code stays linear.
type sheetWriter struct {
	f   *excelize.File
	row int
	err error
}

func (w *sheetWriter) set(col int, value string, style int) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, w.row)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetCellValue(sheetName, cell, value); err != nil {
		w.err = fmt.Errorf("set %s: %w", cell, err)
		return
	}
	if style != 0 {
		if err := w.f.SetCellStyle(sheetName, cell, cell, style); err != nil {
			w.err = fmt.Errorf("style %s: %w", cell, err)
		}
	}
}

func (w *sheetWriter) pair(label, value string) {
	w.set(1, label, 0)
	w.set(2, value, 0)
	w.row++
}
