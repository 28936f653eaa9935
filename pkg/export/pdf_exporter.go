package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// GridSheet is a weekly timetable laid out as slot rows × day columns.
type GridSheet struct {
	Title    string
	Subtitle string
	Columns  []string
	Rows     []string
	// Cells is indexed [row][column]; missing cells render empty.
	Cells [][]string
	Notes []string
}

// PDFExporter renders timetable grids into landscape PDF documents.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// RenderGrid draws one page with the sheet's grid and optional notes.
func (e *PDFExporter) RenderGrid(sheet GridSheet) ([]byte, error) {
	if len(sheet.Columns) == 0 || len(sheet.Rows) == 0 {
		return nil, fmt.Errorf("pdf grid requires rows and columns")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()

	if sheet.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 8, strings.ToUpper(sheet.Title), "", 1, "C", false, 0, "")
	}
	if sheet.Subtitle != "" {
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(0, 6, sheet.Subtitle, "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)

	const labelWidth = 20.0
	colWidth := (277.0 - labelWidth) / float64(len(sheet.Columns))
	rowHeight := 160.0 / float64(len(sheet.Rows))
	if rowHeight > 8 {
		rowHeight = 8
	}
	if rowHeight < 4 {
		rowHeight = 4
	}

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(labelWidth, 7, "", "1", 0, "C", true, 0, "")
	for _, column := range sheet.Columns {
		pdf.CellFormat(colWidth, 7, column, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	for r, label := range sheet.Rows {
		pdf.SetFont("Arial", "B", 7)
		pdf.CellFormat(labelWidth, rowHeight, label, "1", 0, "C", false, 0, "")
		pdf.SetFont("Arial", "", 6)
		for c := range sheet.Columns {
			pdf.CellFormat(colWidth, rowHeight, cell(sheet.Cells, r, c), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(sheet.Notes) > 0 {
		pdf.Ln(3)
		pdf.SetFont("Arial", "", 8)
		for _, note := range sheet.Notes {
			pdf.MultiCell(0, 4, note, "", "L", false)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func cell(cells [][]string, r, c int) string {
	if r >= len(cells) || c >= len(cells[r]) {
		return ""
	}
	return cells[r][c]
}
