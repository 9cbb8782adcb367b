package export

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"gas-market/feature/gasmarket/models"

	"github.com/xuri/excelize/v2"
)

const (
	// SheetName is the single worksheet of an export.
	SheetName = "MercadoGas"
	// ContentType is the MIME type of the generated workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Columns is the header row, in output order.
var Columns = []string{
	"ID", "DATA", "PLANILHA", "ABA", "PRODUTO", "LOCAL",
	"EMPRESA", "UNIDADE", "VALOR", "CRIADO_EM", "ATUALIZADO_EM",
}

// FileName returns the download name of a monthly export.
func FileName(month, year int) string {
	return fmt.Sprintf("mercado_gas_%d_%d.xlsx", month, year)
}

// Build renders records to an xlsx workbook in memory.
func Build(records []models.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write renders records to w as an xlsx workbook with one sheet.
func Write(w io.Writer, records []models.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	dateFmt, timeFmt := "yyyy-mm-dd", "yyyy-mm-dd hh:mm:ss"
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return err
	}
	timeStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &timeFmt})
	if err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to open sheet writer: %w", err)
	}

	header := make([]any, len(Columns))
	for i, col := range Columns {
		header[i] = col
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			r.ID,
			excelize.Cell{StyleID: dateStyle, Value: r.Date.Time},
			r.Spreadsheet,
			r.Sheet,
			r.Product,
			deref(r.Location),
			deref(r.Company),
			r.Unit,
			r.Value,
			excelize.Cell{StyleID: timeStyle, Value: wallClock(r.CreatedAt)},
			nil,
		}
		if r.UpdatedAt != nil {
			row[10] = excelize.Cell{StyleID: timeStyle, Value: wallClock(*r.UpdatedAt)}
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// wallClock keeps the local wall time of t; spreadsheets have no zones.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}
