package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// ApprovalSheet is the printable summary of one workflow: the document it
// belongs to and one row per step with the recorded decision.
type ApprovalSheet struct {
	WorkflowID         string
	DocumentTitle      string
	RegistrationNumber string
	Status             string
	Progress           int
	Rows               []ApprovalRow
}

type ApprovalRow struct {
	Order      int
	Assignee   string
	ActionType string
	Status     string
	DecidedAt  string
	Comment    string
}

// SheetGenerator renders approval sheets as A4 portrait PDFs.
type SheetGenerator struct {
	fontFamily string
}

func NewSheetGenerator() *SheetGenerator {
	return &SheetGenerator{fontFamily: "Arial"}
}

func (g *SheetGenerator) Render(sheet ApprovalSheet) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont(g.fontFamily, "B", 16)
	pdf.CellFormat(0, 10, "Approval Sheet", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontFamily, "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Document: %s", sheet.DocumentTitle), "", 1, "L", false, 0, "")
	if sheet.RegistrationNumber != "" {
		pdf.CellFormat(0, 6, fmt.Sprintf("Registration number: %s", sheet.RegistrationNumber), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("Workflow: %s", sheet.WorkflowID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Status: %s (%d%%)", sheet.Status, sheet.Progress), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", time.Now().Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	headers := []string{"#", "Assignee", "Action", "Status", "Decided at", "Comment"}
	widths := []float64{10, 45, 25, 25, 30, 45}

	pdf.SetFont(g.fontFamily, "B", 10)
	pdf.SetFillColor(68, 114, 196)
	pdf.SetTextColor(255, 255, 255)
	for i, hdr := range headers {
		pdf.CellFormat(widths[i], 8, hdr, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(g.fontFamily, "", 9)
	pdf.SetTextColor(0, 0, 0)
	for i, row := range sheet.Rows {
		fill := i%2 == 1
		pdf.SetFillColor(242, 242, 242)
		cells := []string{
			fmt.Sprintf("%d", row.Order),
			row.Assignee,
			row.ActionType,
			row.Status,
			row.DecidedAt,
			row.Comment,
		}
		for j, cell := range cells {
			pdf.CellFormat(widths[j], 7, cell, "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
