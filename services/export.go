package services

import (
	"bytes"
	"fmt"

	"docchat-platform/models"

	"github.com/xuri/excelize/v2"
)

const historySheet = "Conversation"

// ExportHistory renders a session's conversation as an xlsx workbook
func ExportHistory(rec *models.SessionRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	headers := []string{"#", "Role", "Text"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(historySheet, cell, h)
	}
	for i, turn := range rec.History {
		row := i + 2
		f.SetCellValue(historySheet, fmt.Sprintf("A%d", row), i+1)
		f.SetCellValue(historySheet, fmt.Sprintf("B%d", row), string(turn.Role))
		f.SetCellValue(historySheet, fmt.Sprintf("C%d", row), turn.Text)
	}
	f.SetColWidth(historySheet, "C", "C", 100)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
