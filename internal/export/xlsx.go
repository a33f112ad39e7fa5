package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"document-quiz/internal/models"
)

const sheetName = "Quiz"

// XLSX writes one row per question with a column per choice.
func XLSX(quiz models.Quiz, opts Options) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	choices := 0
	for _, item := range quiz {
		choices = max(choices, len(item.Choices))
	}
	header := []any{"#", "Question"}
	for j := 0; j < choices; j++ {
		header = append(header, fmt.Sprintf("Choice %c", 'A'+j))
	}
	header = append(header, "Points")
	if opts.IncludeAnswers {
		header = append(header, "Answer")
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, item := range quiz {
		row := []any{i + 1, item.Question}
		for j := 0; j < choices; j++ {
			if j < len(item.Choices) {
				row = append(row, item.Choices[j])
			} else {
				row = append(row, "")
			}
		}
		row = append(row, opts.PointsPerQuestion)
		if opts.IncludeAnswers {
			row = append(row, item.Answer)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	_ = f.SetColWidth(sheetName, "B", "B", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
