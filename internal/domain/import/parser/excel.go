package parser

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/sheet-insights/internal/domain/ledger"
)

// preferredSheets are picked over the first sheet when a workbook has them.
var preferredSheets = []string{"dados", "transacoes", "transações", "lancamentos", "lançamentos", "movimentos", "extrato"}

// ReadXLSX decodes the transaction sheet of a workbook. Cells are read raw so
// amounts keep their stored precision; numeric cells of the date column are
// Excel serials and are rendered as ISO dates.
func ReadXLSX(r io.Reader) (*RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &DecodeError{Format: "xlsx", Err: err}
	}
	defer f.Close()

	sheet := findSheet(f)
	if sheet == "" {
		return nil, &DecodeError{Format: "xlsx", Err: errors.New("workbook has no sheets")}
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &DecodeError{Format: "xlsx", Err: err}
	}

	var nonEmpty [][]string
	for _, row := range rows {
		if len(row) > 0 {
			nonEmpty = append(nonEmpty, row)
		}
	}
	if len(nonEmpty) == 0 {
		return nil, &DecodeError{Format: "xlsx", Err: ErrNoHeader}
	}

	table, err := newRawTable(nonEmpty[0], nonEmpty[1:])
	if err != nil {
		return nil, &DecodeError{Format: "xlsx", Err: err}
	}
	table.Encoding = EncodingXLSX

	if idx := table.Index(ledger.ColumnDate); idx >= 0 {
		date1904 := false
		if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
			date1904 = *props.Date1904
		}
		for _, row := range table.Rows {
			if idx < len(row) {
				row[idx] = serialToISO(row[idx], date1904)
			}
		}
	}
	return table, nil
}

func findSheet(f *excelize.File) string {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ""
	}
	for _, preferred := range preferredSheets {
		for _, sheet := range sheets {
			if strings.EqualFold(strings.TrimSpace(sheet), preferred) {
				return sheet
			}
		}
	}
	return sheets[0]
}

// serialToISO converts an Excel date serial to "2006-01-02" (or with a time
// of day when it has one). Anything else is returned unchanged.
func serialToISO(cell string, date1904 bool) string {
	serial, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || serial <= 0 {
		return cell
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return cell
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}
