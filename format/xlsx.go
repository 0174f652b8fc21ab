package format

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/s0up4200/pi/api"
)

// QuestionsSheet is the name of the sheet written by WriteQuestionsXLSX
const QuestionsSheet = "Questions"

// WriteQuestionsXLSX writes questions as a spreadsheet with a bold header row
func WriteQuestionsXLSX(w io.Writer, questions []api.Question) error {
	f, err := TableXLSX(QuestionTable(questions), QuestionsSheet)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write spreadsheet: %w", err)
	}
	return nil
}

// TableXLSX renders table into a new workbook holding a single sheet.
// The caller closes the returned file.
func TableXLSX(table *Table, sheet string) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(table.Columns))
	for i, col := range table.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		f.Close()
		return nil, fmt.Errorf("style header: %w", err)
	}

	for r, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", r+1, err)
		}
	}

	return f, nil
}
