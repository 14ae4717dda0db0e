// Package spreadsheet converts between xlsx workbooks and submission payloads.
package spreadsheet

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/xuri/excelize/v2"

	"github.com/whenitsdone1/capstone2024/core"
	"github.com/whenitsdone1/capstone2024/core/milestone"
)

const (
	headerField = "Field"
	headerValue = "Value"
	noResponse  = "No response provided"

	hintCutoff = 0.6
)

var (
	ErrNoFile           = errors.New("No file part in the request")
	ErrNoFilename       = errors.New("No selected file")
	ErrInvalidExtension = errors.New("Invalid file extension")
	ErrEmptySheet       = errors.New("spreadsheet has no data rows")

	allowedExtensions = map[string]bool{".xls": true, ".xlsx": true}

	// snake_case label -> field name, over every milestone
	labels = buildLabelIndex()
)

type (
	// Hint suggests the field a dropped column label was probably meant for.
	Hint struct {
		Label      string
		Suggestion string
		Score      float64
	}

	Sheet struct {
		Payload milestone.Payload
		Unknown []Hint
	}
)

func buildLabelIndex() map[string]string {
	idx := make(map[string]string)
	for _, m := range milestone.All {
		for _, name := range milestone.FieldNames(m) {
			idx[core.SnakeCase(name)] = name
		}
	}
	return idx
}

// CheckFilename accepts .xls and .xlsx files only.
func CheckFilename(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNoFilename
	}
	if !allowedExtensions[strings.ToLower(filepath.Ext(name))] {
		return ErrInvalidExtension
	}
	return nil
}

// Parse reads the first sheet of a workbook. A sheet with "Field" and "Value" columns is read
// as key/value pairs; any other sheet is read as a header row followed by one data row.
func Parse(r io.Reader) (Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Sheet{}, errors.Wrap(err, "opening workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Sheet{}, ErrEmptySheet
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return Sheet{}, errors.Wrap(err, "reading rows")
	}
	if len(rows) < 2 {
		return Sheet{}, ErrEmptySheet
	}

	pairs := make([][2]string, 0, len(rows))
	header := rows[0]
	fieldCol, valueCol := indexOf(header, headerField), indexOf(header, headerValue)
	if fieldCol >= 0 && valueCol >= 0 {
		for _, row := range rows[1:] {
			pairs = append(pairs, [2]string{cell(row, fieldCol), cell(row, valueCol)})
		}
	} else {
		for i, label := range header {
			pairs = append(pairs, [2]string{label, cell(rows[1], i)})
		}
	}

	sheet := Sheet{Payload: make(milestone.Payload, len(pairs))}
	for _, p := range pairs {
		label, value := strings.TrimSpace(p[0]), strings.TrimSpace(p[1])
		if label == "" || value == "" {
			continue
		}
		name, ok := labels[core.SnakeCase(label)]
		if !ok {
			sheet.Payload[label] = value
			if hint, found := closestField(label); found {
				sheet.Unknown = append(sheet.Unknown, hint)
			} else {
				sheet.Unknown = append(sheet.Unknown, Hint{Label: label})
			}
			continue
		}
		sheet.Payload[name] = normaliseValue(name, value, f)
	}
	return sheet, nil
}

func indexOf(row []string, want string) int {
	for i, c := range row {
		if strings.EqualFold(strings.TrimSpace(c), want) {
			return i
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// normaliseValue turns Excel date serials of date fields into ISO dates.
func normaliseValue(name, value string, f *excelize.File) string {
	spec, ok := milestone.Field(milestone.Milestone1, name)
	if !ok || (spec.Kind != milestone.KindDate && spec.Kind != milestone.KindDateTime) {
		return value
	}
	serial, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return value
	}
	var date1904 bool
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return value
	}
	if spec.Kind == milestone.KindDate {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}

// closestField ranks the known field names against an unknown label.
func closestField(label string) (Hint, bool) {
	target := strings.Split(core.SnakeCase(label), "")
	best := Hint{Label: label}
	m := difflib.NewMatcher(nil, target)
	for key, name := range labels {
		m.SetSeq1(strings.Split(key, ""))
		if score := m.Ratio(); score > best.Score {
			best.Suggestion, best.Score = name, score
		}
	}
	return best, best.Score >= hintCutoff
}

// FileName is the download name of an exported record.
func FileName(id string) string {
	return fmt.Sprintf("record_%s.xlsx", id)
}

// Export writes a record as a two-column Field/Value sheet sorted by field.
func Export(rec milestone.Record, id string) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Record" + id
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, errors.Wrap(err, "naming sheet")
	}

	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if err := f.SetSheetRow(sheet, "A1", &[]interface{}{headerField, headerValue}); err != nil {
		return nil, errors.Wrap(err, "writing header")
	}
	for i, k := range keys {
		value := formatValue(rec[k])
		axis, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, axis, &[]interface{}{k, value}); err != nil {
			return nil, errors.Wrapf(err, "writing %s", k)
		}
	}

	if err := style(f, sheet, len(keys)+1); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "writing workbook")
	}
	return buf, nil
}

func formatValue(v interface{}) string {
	switch vv := v.(type) {
	case nil:
		return noResponse
	case string:
		if strings.TrimSpace(vv) == "" {
			return noResponse
		}
		return vv
	default:
		return fmt.Sprint(vv)
	}
}

func style(f *excelize.File, sheet string, lastRow int) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}
	valueStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true},
	})
	if err != nil {
		return errors.Wrap(err, "creating value style")
	}

	if err := f.SetColWidth(sheet, "A", "A", 25); err != nil {
		return errors.Wrap(err, "sizing columns")
	}
	if err := f.SetColWidth(sheet, "B", "B", 50); err != nil {
		return errors.Wrap(err, "sizing columns")
	}
	if err := f.SetCellStyle(sheet, "A1", "B1", headerStyle); err != nil {
		return errors.Wrap(err, "styling header")
	}
	if lastRow > 1 {
		if err := f.SetCellStyle(sheet, "A2", fmt.Sprintf("B%d", lastRow), valueStyle); err != nil {
			return errors.Wrap(err, "styling values")
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
