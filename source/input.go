package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Input is a source backed by a file path or URL.
type Input struct {
	// Location is a file path or http(s) URL.
	Location string
	// Format overrides detection from the location's extension.
	Format Format
	// Sheet selects a worksheet of an XLSX workbook.
	Sheet string
	// Fetcher downloads remote locations; nil uses a default Fetcher.
	Fetcher *Fetcher
}

// Name returns the location.
func (in *Input) Name() string {
	return in.Location
}

// Read opens the location and decodes its records.
func (in *Input) Read(ctx context.Context, fn func(Record) error) error {
	format, err := in.format()
	if err != nil {
		return err
	}

	rc, err := in.open(ctx)
	if err != nil {
		return err
	}
	defer rc.Close()

	switch format {
	case FormatCSV:
		err = ReadCSV(ctx, rc, fn)
	case FormatXLSX:
		err = ReadXLSX(ctx, rc, in.Sheet, fn)
	case FormatJSON:
		err = ReadJSON(ctx, rc, fn)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", in.Location, err)
	}
	return nil
}

func (in *Input) format() (Format, error) {
	if in.Format != "" {
		return in.Format, nil
	}
	return DetectFormat(in.Location)
}

func (in *Input) open(ctx context.Context) (io.ReadCloser, error) {
	if IsRemote(in.Location) {
		fetcher := in.Fetcher
		if fetcher == nil {
			fetcher = &Fetcher{}
		}
		return fetcher.Open(ctx, in.Location)
	}
	f, err := os.Open(in.Location)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

// DetectFormat infers the format from a location's extension. Spreadsheet
// export URLs (export?gid=...) have no extension and default to XLSX.
func DetectFormat(location string) (Format, error) {
	p := location
	if IsRemote(location) {
		u, err := url.Parse(location)
		if err != nil {
			return "", fmt.Errorf("parse location: %w", err)
		}
		if format := u.Query().Get("format"); format != "" {
			return ParseFormat(format)
		}
		p = u.Path
		if path.Ext(p) == "" && strings.HasSuffix(p, "/export") {
			return FormatXLSX, nil
		}
	}
	ext := path.Ext(p)
	if ext == "" {
		return "", fmt.Errorf("%w: cannot detect format of %s", ErrUnsupportedFormat, location)
	}
	return ParseFormat(ext)
}

// Expand resolves local glob patterns (with ** support) to matching files.
// URLs and plain paths pass through unchanged. The result keeps the order of
// patterns; matches of one pattern are sorted.
func Expand(patterns []string) ([]string, error) {
	var out []string
	for _, pattern := range patterns {
		if IsRemote(pattern) || !containsGlob(pattern) {
			out = append(out, pattern)
			continue
		}
		matches, err := doublestar.FilepathGlob(filepath.Clean(pattern))
		if err != nil {
			return nil, fmt.Errorf("glob error: %w", err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no inputs match pattern: %s", pattern)
		}
		sort.Strings(matches)
		out = append(out, matches...)
	}
	return out, nil
}

// Open expands locations and returns a single source reading them in order.
// Dataverse contents URLs are harvested and ignore format and sheet.
func Open(locations []string, format Format, sheet string, fetcher *Fetcher) (Source, error) {
	expanded, err := Expand(locations)
	if err != nil {
		return nil, err
	}
	if len(expanded) == 0 {
		return nil, fmt.Errorf("no input locations")
	}

	sources := make([]Source, len(expanded))
	for i, loc := range expanded {
		if IsDataverse(loc) {
			sources[i] = &Dataverse{Contents: loc, Fetcher: fetcher}
			continue
		}
		sources[i] = &Input{Location: loc, Format: format, Sheet: sheet, Fetcher: fetcher}
	}
	if len(sources) == 1 {
		return sources[0], nil
	}
	return Concat(sources...), nil
}

// containsGlob checks if a pattern contains glob characters.
func containsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
