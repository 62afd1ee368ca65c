package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXExporter renders datasets into a single-sheet workbook.
type XLSXExporter struct {
	sheet string
}

// NewXLSXExporter constructs an XLSX exporter writing to the named sheet.
func NewXLSXExporter(sheet string) *XLSXExporter {
	if sheet == "" {
		sheet = "Timetable"
	}
	return &XLSXExporter{sheet: sheet}
}

// ContentType is the MIME type of the rendered document.
func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Extension is the file extension of the rendered document.
func (e *XLSXExporter) Extension() string { return "xlsx" }

// Render writes the title on the first row when present, then the header
// row and the data rows with wrapped text.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate("xlsx"); err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", e.sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DCE6F1"}},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	bodyStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return nil, fmt.Errorf("create body style: %w", err)
	}

	row := 1
	if data.Title != "" {
		if err := f.SetCellValue(e.sheet, "A1", data.Title); err != nil {
			return nil, fmt.Errorf("write title: %w", err)
		}
		last, _ := excelize.CoordinatesToCellName(len(data.Headers), 1)
		if err := f.MergeCell(e.sheet, "A1", last); err != nil {
			return nil, fmt.Errorf("merge title: %w", err)
		}
		row = 2
	}

	headerCell, _ := excelize.CoordinatesToCellName(1, row)
	headers := make([]interface{}, len(data.Headers))
	for i, h := range data.Headers {
		headers[i] = h
	}
	if err := f.SetSheetRow(e.sheet, headerCell, &headers); err != nil {
		return nil, fmt.Errorf("write headers: %w", err)
	}
	headerEnd, _ := excelize.CoordinatesToCellName(len(data.Headers), row)
	if err := f.SetCellStyle(e.sheet, headerCell, headerEnd, headerStyle); err != nil {
		return nil, fmt.Errorf("style headers: %w", err)
	}

	for _, values := range data.Rows {
		row++
		start, _ := excelize.CoordinatesToCellName(1, row)
		record := make([]interface{}, len(data.Headers))
		for i := range data.Headers {
			record[i] = cell(values, i)
		}
		if err := f.SetSheetRow(e.sheet, start, &record); err != nil {
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}
		end, _ := excelize.CoordinatesToCellName(len(data.Headers), row)
		if err := f.SetCellStyle(e.sheet, start, end, bodyStyle); err != nil {
			return nil, fmt.Errorf("style row %d: %w", row, err)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(data.Headers))
	if err := f.SetColWidth(e.sheet, "A", lastCol, 22); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
