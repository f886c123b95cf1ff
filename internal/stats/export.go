package stats

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// renderWorkbook builds the overview export: one sheet per breakdown
// plus a summary sheet.
func renderWorkbook(overview *Overview) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	f.SetSheetName("Sheet1", "Summary")
	writeSummary(f, headerStyle, overview)

	if err := writeStatusSheet(f, headerStyle, "Documents", overview.Documents); err != nil {
		return nil, err
	}
	if err := writeStatusSheet(f, headerStyle, "Workflows", overview.Workflows); err != nil {
		return nil, err
	}
	if err := writeStatusSheet(f, headerStyle, "Steps", overview.Steps); err != nil {
		return nil, err
	}
	if err := writeDepartmentSheet(f, headerStyle, overview.Departments); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, headerStyle int, overview *Overview) {
	f.SetCellValue("Summary", "A1", "Metric")
	f.SetCellValue("Summary", "B1", "Value")
	f.SetCellStyle("Summary", "A1", "B1", headerStyle)

	rows := [][2]interface{}{
		{"Total documents", overview.TotalDocuments},
		{"Overdue steps", overview.OverdueSteps},
		{"Average step duration (hours)", overview.AvgStepHours},
	}
	for i, row := range rows {
		f.SetCellValue("Summary", fmt.Sprintf("A%d", i+2), row[0])
		f.SetCellValue("Summary", fmt.Sprintf("B%d", i+2), row[1])
	}
	f.SetColWidth("Summary", "A", "A", 32)
	f.SetColWidth("Summary", "B", "B", 16)
}

func writeStatusSheet(f *excelize.File, headerStyle int, name string, counts []StatusCount) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to add sheet %s: %w", name, err)
	}

	f.SetCellValue(name, "A1", "Status")
	f.SetCellValue(name, "B1", "Count")
	f.SetCellStyle(name, "A1", "B1", headerStyle)

	for i, c := range counts {
		f.SetCellValue(name, fmt.Sprintf("A%d", i+2), c.Status)
		f.SetCellValue(name, fmt.Sprintf("B%d", i+2), c.Count)
	}
	f.SetColWidth(name, "A", "A", 20)
	return nil
}

func writeDepartmentSheet(f *excelize.File, headerStyle int, loads []DepartmentLoad) error {
	const name = "Departments"
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to add sheet %s: %w", name, err)
	}

	headers := []string{"Department", "Open steps", "Completed steps"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(name, cell, h)
	}
	f.SetCellStyle(name, "A1", "C1", headerStyle)

	for i, load := range loads {
		f.SetCellValue(name, fmt.Sprintf("A%d", i+2), load.DepartmentName)
		f.SetCellValue(name, fmt.Sprintf("B%d", i+2), load.OpenSteps)
		f.SetCellValue(name, fmt.Sprintf("C%d", i+2), load.CompletedSteps)
	}
	f.SetColWidth(name, "A", "A", 28)
	return nil
}
