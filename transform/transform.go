// Package transform provides the field-level value transformations used by
// the ETL pipelines: multi-value splitting, IRI minting and spreadsheet date
// coercion.
package transform

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// NotAvailable is the spreadsheet marker for an absent value.
const NotAvailable = "NA"

// excelEpochOffset is the number of days between the spreadsheet serial date
// origin and 1970-01-01.
const excelEpochOffset = 25569

// Serial day numbers spreadsheets can represent: 1900-01-01 to 9999-12-31.
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

// Split splits a delimited multi-value field. Elements are trimmed; empty
// elements and NA markers are dropped. Order and duplicates are preserved.
func Split(value, sep string) []string {
	if sep == "" {
		sep = ","
	}
	parts := strings.Split(value, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || p == NotAvailable {
			continue
		}
		out = append(out, p)
	}
	return out
}

// IsAbsent reports whether a raw field value carries no information.
func IsAbsent(value string) bool {
	v := strings.TrimSpace(value)
	return v == "" || v == NotAvailable
}

// MintIRI appends value to prefix as a single path segment. The value is
// trimmed and characters that are not allowed in an IRI path segment are
// percent-encoded. A value that already is an absolute http(s) IRI is
// returned unchanged.
func MintIRI(prefix, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", fmt.Errorf("mint IRI: empty value for prefix %s", prefix)
	}
	if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
		return v, nil
	}
	if prefix == "" {
		return "", fmt.Errorf("mint IRI: no prefix for relative value %q", v)
	}
	return prefix + escapeSegment(v), nil
}

// doiPrefixes are the spellings of a DOI reference found in source sheets.
var doiPrefixes = []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi:"}

// DOIIRI mints the resolver IRI for a DOI given bare (10.1000/xyz), with a
// doi: scheme, or as a resolver URL.
func DOIIRI(value string) (string, error) {
	v := strings.TrimSpace(value)
	for _, p := range doiPrefixes {
		if len(v) >= len(p) && strings.EqualFold(v[:len(p)], p) {
			v = v[len(p):]
			break
		}
	}
	if !strings.HasPrefix(v, "10.") || !strings.Contains(v, "/") {
		return "", fmt.Errorf("mint IRI: %q is not a DOI", value)
	}
	return MintIRI(doiResolver, v)
}

const doiResolver = "https://doi.org/"

// escapeSegment escapes a value for use as an IRI path. Slashes are kept so
// that DOIs such as 10.1000/xyz keep their structure.
func escapeSegment(v string) string {
	segments := strings.Split(v, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// ExcelSerialTime converts a spreadsheet serial day number to a UTC time.
func ExcelSerialTime(serial float64) time.Time {
	ms := math.Round((serial - excelEpochOffset) * 86400 * 1000)
	return time.UnixMilli(int64(ms)).UTC()
}

// ParseExcelSerial parses a serial day number as exported by spreadsheet
// readers and converts it with ExcelSerialTime. Non-finite serials and
// serials outside the spreadsheet date range are rejected.
func ParseExcelSerial(value string) (time.Time, error) {
	serial, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse serial date %q: %w", value, err)
	}
	if math.IsNaN(serial) || serial < minExcelSerial || serial >= maxExcelSerial+1 {
		return time.Time{}, fmt.Errorf("serial date %q out of range", value)
	}
	return ExcelSerialTime(serial), nil
}

// ParseDate accepts a serial day number or one of the textual date layouts
// found in the source sheets.
func ParseDate(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if t, err := ParseExcelSerial(v); err == nil {
		return t, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "02-01-2006", "2-1-2006", "01/02/2006"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

// SanitizeTitle replaces square brackets, which break downstream CSV tooling,
// with underscores.
func SanitizeTitle(title string) string {
	return strings.NewReplacer("[", "_", "]", "_").Replace(title)
}
