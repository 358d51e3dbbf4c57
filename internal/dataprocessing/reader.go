package dataprocessing

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "cgmdose/internal/errors"
	"cgmdose/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV reads delimited text with a header row into a RawFrame. A leading
// UTF-8 BOM is ignored and rows may have fewer or more fields than the header.
func ReadCSV(r io.Reader) (*RawFrame, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, apperrors.NewFormatError("failed to skip BOM", err)
		}
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewFormatError("failed to parse delimited text", err)
	}
	return frameFromRows(records)
}

// ReadXLSX reads the first worksheet of a workbook into a RawFrame, using the
// first row as the header. Cells hold their raw values, except numeric cells
// with a date or time number format, which are rendered in
// domain.TimestampLayout.
func ReadXLSX(r io.Reader) (*RawFrame, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewFormatError("failed to open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewFormatError("workbook has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewFormatError(fmt.Sprintf("failed to read sheet %q", sheets[0]), err)
	}

	dates := newDateCells(f, sheets[0])
	for i := 1; i < len(rows); i++ {
		for j, v := range rows[i] {
			if ts, ok := dates.convert(i, j, v); ok {
				rows[i][j] = ts
			}
		}
	}
	return frameFromRows(rows)
}

// dateCells converts serial date values of date-formatted cells.
type dateCells struct {
	f        *excelize.File
	sheet    string
	date1904 bool
	styles   map[int]bool
}

func newDateCells(f *excelize.File, sheet string) *dateCells {
	d := &dateCells{f: f, sheet: sheet, styles: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		d.date1904 = *props.Date1904
	}
	return d
}

// convert returns the timestamp text for the cell at zero-based (row, col)
// holding raw, or false when the cell is not a numeric date.
func (d *dateCells) convert(row, col int, raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", false
	}
	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return "", false
	}
	idx, err := d.f.GetCellStyle(d.sheet, cell)
	if err != nil || !d.isDateStyle(idx) {
		return "", false
	}
	t, err := excelize.ExcelDateToTime(serial, d.date1904)
	if err != nil {
		return "", false
	}
	return t.Round(time.Second).Format(domain.TimestampLayout), true
}

func (d *dateCells) isDateStyle(idx int) bool {
	if isDate, ok := d.styles[idx]; ok {
		return isDate
	}
	isDate := false
	if style, err := d.f.GetStyle(idx); err == nil && style != nil {
		if style.CustomNumFmt != nil {
			isDate = isDateFormat(*style.CustomNumFmt)
		} else {
			isDate = isBuiltInDateFormat(style.NumFmt)
		}
	}
	d.styles[idx] = isDate
	return isDate
}

// Built-in number format IDs that display dates or times.
func isBuiltInDateFormat(id int) bool {
	return (id >= 14 && id <= 22) || (id >= 27 && id <= 36) ||
		(id >= 45 && id <= 47) || (id >= 50 && id <= 58)
}

// Quoted literals, bracketed sections and escaped characters of a format code.
var formatLiterals = regexp.MustCompile(`"[^"]*"|\[[^\]]*\]|\\.`)

func isDateFormat(format string) bool {
	code := strings.ToLower(formatLiterals.ReplaceAllString(format, ""))
	if code == "general" {
		return false
	}
	return strings.ContainsAny(code, "ymdhs")
}

func frameFromRows(rows [][]string) (*RawFrame, error) {
	if len(rows) == 0 {
		return nil, apperrors.NewFormatError("source has no header row", nil)
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	return &RawFrame{Columns: header, Rows: rows[1:]}, nil
}
