package source

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format names a tabular input format.
type Format string

// Format constants.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat is returned for inputs whose format cannot be read.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// ParseFormat resolves a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "xls", "excel":
		return FormatXLSX, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ReadCSV reads a CSV document with a header row. Header names and leading
// value whitespace are trimmed; short rows are padded with empty values.
func ReadCSV(ctx context.Context, r io.Reader, fn func(Record) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read csv header: %w", err)
	}
	fields := trimHeader(header)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		values, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read csv: %w", err)
		}
		// Blank lines are skipped and quoted fields may span lines, so the
		// row is the line the record starts on.
		row, _ := cr.FieldPos(0)
		if blankRow(values) {
			continue
		}
		if err := fn(NewRecord(row, fields, values)); err != nil {
			return err
		}
	}
}

// ReadXLSX reads one worksheet of a workbook. An empty sheet name selects the
// first sheet. Cell values are read raw, so dates arrive as serial numbers.
func ReadXLSX(ctx context.Context, r io.Reader, sheet string, fn func(Record) error) error {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil
	}

	fields := trimHeader(rows[0])
	for i, values := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return err
		}
		if blankRow(values) {
			continue
		}
		if err := fn(NewRecord(i+2, fields, values)); err != nil {
			return err
		}
	}
	return nil
}

// ReadJSON reads a JSON array of flat objects. Fields are ordered by name;
// numbers keep their literal form and nested values are re-encoded as JSON.
func ReadJSON(ctx context.Context, r io.Reader, fn func(Record) error) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var objects []map[string]any
	if err := dec.Decode(&objects); err != nil {
		return fmt.Errorf("decode json records: %w", err)
	}

	for i, obj := range objects {
		if err := ctx.Err(); err != nil {
			return err
		}
		fields := make([]string, 0, len(obj))
		for k := range obj {
			fields = append(fields, k)
		}
		sort.Strings(fields)

		values := make([]string, len(fields))
		for j, k := range fields {
			v, err := jsonString(obj[k])
			if err != nil {
				return fmt.Errorf("record %d field %s: %w", i+1, k, err)
			}
			values[j] = v
		}
		if err := fn(NewRecord(i+1, fields, values)); err != nil {
			return err
		}
	}
	return nil
}

func jsonString(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

func trimHeader(header []string) []string {
	fields := make([]string, len(header))
	for i, h := range header {
		fields[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return fields
}

func blankRow(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
