package source_test

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/c360studio/semcode/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readAll(t *testing.T, src source.Source) []source.Record {
	t.Helper()
	var out []source.Record
	require.NoError(t, src.Read(context.Background(), func(r source.Record) error {
		out = append(out, r)
		return nil
	}))
	return out
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		location string
		want     source.Format
	}{
		{"data/papers.csv", source.FormatCSV},
		{"data/projects.XLSX", source.FormatXLSX},
		{"records.json", source.FormatJSON},
		{"https://raw.githubusercontent.com/odissei-data/ODISSEI-code-library/main/Data/odissei-projects_CBS.csv", source.FormatCSV},
		{"https://docs.google.com/spreadsheets/d/1zB1SFPpz5VDjlrh5LlJqmFXSggqXPODDPGHzLyL-Ef8/export?gid=1646162430", source.FormatXLSX},
		{"https://docs.google.com/spreadsheets/d/abc/export?format=csv&gid=1", source.FormatCSV},
	}

	for _, tc := range tests {
		t.Run(tc.location, func(t *testing.T) {
			got, err := source.DetectFormat(tc.location)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := source.DetectFormat("README")
	assert.ErrorIs(t, err, source.ErrUnsupportedFormat)
}

func TestInputFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "codelib.csv", "code,title\nabc,Analysis scripts\n")

	records := readAll(t, &source.Input{Location: path})
	require.Len(t, records, 1)
	assert.Equal(t, "abc", records[0].Value("code"))

	err := (&source.Input{Location: filepath.Join(t.TempDir(), "missing.csv")}).Read(context.Background(), func(source.Record) error { return nil })
	assert.Error(t, err)
}

func TestInputRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.csv" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("code,orcid\nabc,0000-0001\n"))
	}))
	defer srv.Close()

	fetcher := &source.Fetcher{Client: srv.Client(), AllowPrivate: true}

	records := readAll(t, &source.Input{Location: srv.URL + "/codelib.csv", Fetcher: fetcher})
	require.Len(t, records, 1)
	assert.Equal(t, "0000-0001", records[0].Value("orcid"))

	err := (&source.Input{Location: srv.URL + "/missing.csv", Fetcher: fetcher}).Read(context.Background(), func(source.Record) error { return nil })
	assert.ErrorContains(t, err, "404")

	// Without AllowPrivate the loopback test server is refused.
	err = (&source.Input{Location: srv.URL + "/codelib.csv"}).Read(context.Background(), func(source.Record) error { return nil })
	assert.Error(t, err)
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://docs.google.com/spreadsheets/d/x/export?gid=1", false},
		{"https://www.cbs.nl/-/media/projecten.xlsx", false},
		{"http://www.cbs.nl/projecten.xlsx", true},
		{"https://localhost/x.csv", true},
		{"https://10.0.0.8/x.csv", true},
		{"https://100.64.1.1/x.csv", true},
		{"https://files.internal/x.csv", true},
		{"https://", true},
	}
	for _, tc := range tests {
		t.Run(tc.url, func(t *testing.T) {
			err := source.ValidateURL(tc.url)
			assert.Equal(t, tc.wantErr, err != nil, "err = %v", err)
		})
	}

	assert.True(t, source.IsPrivateIP(net.ParseIP("::1")))
	assert.True(t, source.IsPrivateIP(net.ParseIP("fd00::1")))
	assert.False(t, source.IsPrivateIP(net.ParseIP("145.97.38.10")))
}

func TestExpandAndOpen(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "2023/b.csv", "id\n2\n")
	writeFile(t, dir, "2022/a.csv", "id\n1\n")
	writeFile(t, dir, "notes.txt", "ignored")

	paths, err := source.Expand([]string{filepath.Join(dir, "**", "*.csv"), "https://example.org/x.csv"})
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(dir, "2022", "a.csv"), paths[0])
	assert.Equal(t, "https://example.org/x.csv", paths[2])

	_, err = source.Expand([]string{filepath.Join(dir, "*.xlsx")})
	assert.Error(t, err)

	src, err := source.Open([]string{filepath.Join(dir, "**", "*.csv")}, "", "", nil)
	require.NoError(t, err)
	records := readAll(t, src)
	require.Len(t, records, 2)
	assert.Equal(t, "1", records[0].Value("id"))
	assert.Equal(t, "2", records[1].Value("id"))
	assert.Contains(t, src.Name(), "+")

	_, err = source.Open(nil, "", "", nil)
	assert.Error(t, err)
}

func TestRecordsSource(t *testing.T) {
	src := &source.Records{Rows: []source.Record{
		source.NewRecord(1, []string{"a"}, []string{"x"}),
	}}
	assert.Equal(t, "records", src.Name())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := src.Read(ctx, func(source.Record) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "papers.csv", "DOI\n")

	w, err := source.NewWatcher(source.WatcherConfig{Files: []string{path}, DebounceDelay: 20 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	writeFile(t, dir, "other.csv", "ignored\n")
	require.NoError(t, os.WriteFile(path, []byte("DOI\n10.1/x\n"), 0o644))

	select {
	case ev := <-w.Events():
		require.Len(t, ev.Files, 1)
		assert.Equal(t, filepath.Base(path), filepath.Base(ev.Files[0]))
	case <-time.After(5 * time.Second):
		t.Fatal("no change event")
	}

	cancel()
	for range w.Events() {
	}

	_, err = source.NewWatcher(source.WatcherConfig{})
	assert.Error(t, err)
}

func TestWatcherStartMissingDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone", "papers.csv")

	w, err := source.NewWatcher(source.WatcherConfig{Files: []string{missing}})
	require.NoError(t, err)

	err = w.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watch ")

	select {
	case _, ok := <-w.Events():
		assert.False(t, ok, "events channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("events channel left open after failed start")
	}
}
