package export

import (
	"io"

	"github.com/xuri/excelize/v2"
)

// ExcelEncoder renders rows to an xlsx workbook with a single "Tickets"
// sheet carrying the same header and row order as the delimited output.
type ExcelEncoder struct{}

func (ExcelEncoder) Write(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	if err := writeSheetRow(f, 1, header); err != nil {
		return err
	}
	for i, row := range rows {
		if err := writeSheetRow(f, i+2, row.cells()); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func writeSheetRow(f *excelize.File, rowNum int, cells []string) error {
	for col, value := range cells {
		axis, err := excelize.CoordinatesToCellName(col+1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, axis, value); err != nil {
			return err
		}
	}
	return nil
}
