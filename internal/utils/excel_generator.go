package utils

import (
	"fmt"
	"io"
	"time"

	"skystream/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	neoSheet  = "Nearby Objects"
	infoSheet = "Info"
)

// WriteNEOWorkbook пишет в w книгу с околоземными объектами за окно [from, to].
func WriteNEOWorkbook(w io.Writer, records []models.NeowsObject, from, to string) error {
	f := excelize.NewFile()
	defer f.Close()

	// Лист по умолчанию переименовываем, пустой Sheet1 не нужен
	if err := f.SetSheetName("Sheet1", neoSheet); err != nil {
		return err
	}

	headers := []string{"NEO ID", "Name", "Close Approach", "Miss Distance (km)", "Hazardous", "Updated At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(neoSheet, cell, header); err != nil {
			return err
		}
	}

	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		f.SetCellStyle(neoSheet, "A1", "F1", style)
	}

	distanceStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return err
	}

	for rowIdx, record := range records {
		row := rowIdx + 2 // Заголовок в первой строке

		values := []interface{}{
			record.NeoID,
			record.Name,
			record.CloseApproachDate,
			record.MissDistanceKm,
			yesNo(record.IsPotentiallyHazardous),
			record.UpdatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(neoSheet, cell, &values); err != nil {
			return err
		}
		f.SetCellStyle(neoSheet, fmt.Sprintf("D%d", row), fmt.Sprintf("D%d", row), distanceStyle)
	}

	widths := map[string]float64{"A": 14, "B": 28, "C": 16, "D": 22, "E": 12, "F": 22}
	for col, width := range widths {
		f.SetColWidth(neoSheet, col, col, width)
	}

	// Подсвечиваем потенциально опасные объекты
	if len(records) > 0 {
		hazardRule := []excelize.ConditionalFormatOptions{
			{
				Type:     "cell",
				Criteria: "==",
				Value:    `"yes"`,
				Format:   conditionalFill(f, "#FFCCCC"),
			},
		}
		if err := f.SetConditionalFormat(neoSheet, fmt.Sprintf("E2:E%d", len(records)+1), hazardRule); err != nil {
			return err
		}
	}

	if err := writeInfoSheet(f, records, from, to); err != nil {
		return err
	}

	return f.Write(w)
}

func writeInfoSheet(f *excelize.File, records []models.NeowsObject, from, to string) error {
	if _, err := f.NewSheet(infoSheet); err != nil {
		return err
	}

	hazardous := 0
	for _, r := range records {
		if r.IsPotentiallyHazardous {
			hazardous++
		}
	}

	// порядок строк фиксирован
	rows := [][2]interface{}{
		{"Report Generated", time.Now().UTC().Format("2006-01-02 15:04:05")},
		{"Window", fmt.Sprintf("%s to %s", from, to)},
		{"Total Objects", len(records)},
		{"Potentially Hazardous", hazardous},
	}
	if len(records) > 0 {
		// записи отсортированы по расстоянию
		rows = append(rows,
			[2]interface{}{"Closest Approach (km)", records[0].MissDistanceKm},
			[2]interface{}{"Closest Object", records[0].Name},
		)
	}

	for i, row := range rows {
		f.SetCellValue(infoSheet, fmt.Sprintf("A%d", i+1), row[0])
		f.SetCellValue(infoSheet, fmt.Sprintf("B%d", i+1), row[1])
	}
	f.SetColWidth(infoSheet, "A", "B", 24)
	return nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// conditionalFill создает стиль для условного форматирования
func conditionalFill(f *excelize.File, color string) *int {
	style, err := f.NewConditionalStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{color},
			Pattern: 1,
		},
	})
	if err != nil {
		return nil
	}
	return &style
}
