package source_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velichan/radarview/internal/radar"
	"github.com/velichan/radarview/internal/radar/source"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newArchiveServer serves an autoindex page plus the files it lists.
func newArchiveServer(files map[string]string) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/archive/", func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Base(r.URL.Path)
		if name == "archive" {
			fmt.Fprint(w, `<html><body><a href="../">../</a>`)
			for f := range files {
				fmt.Fprintf(w, `<a href="%s">%s</a>`, f, f)
			}
			fmt.Fprint(w, `</body></html>`)
			return
		}
		body, ok := files[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, body)
	})
	return httptest.NewServer(mux)
}

func newAcquirer(t *testing.T, indexURL string, maxBytes int64) (*source.Acquirer, string) {
	t.Helper()
	dir := t.TempDir()
	client := &http.Client{Timeout: 5 * time.Second}
	return source.NewAcquirer(indexURL, dir, client, maxBytes, discardLogger()), dir
}

func TestListCandidates_NewestFirst(t *testing.T) {
	srv := newArchiveServer(map[string]string{
		"rala_20260829-120040.json": "{}",
		"rala_20260829-120240.json": "{}",
		"rala_20260829-115840.json": "{}",
	})
	defer srv.Close()

	a, _ := newAcquirer(t, srv.URL+"/archive", 1<<20)

	candidates, err := a.ListCandidates(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	assert.Equal(t, "rala_20260829-120240.json", candidates[0].Name)
	assert.Equal(t, time.Date(2026, 8, 29, 12, 2, 40, 0, time.UTC), candidates[0].Timestamp)
	assert.Equal(t, "rala_20260829-115840.json", candidates[2].Name)
}

func TestListCandidates_MalformedTimestampDefaultsToNow(t *testing.T) {
	srv := newArchiveServer(map[string]string{
		"latest.json": "{}",
	})
	defer srv.Close()

	a, _ := newAcquirer(t, srv.URL+"/archive", 1<<20)

	before := time.Now().UTC()
	candidates, err := a.ListCandidates(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	// Degrades gracefully: the candidate is kept with a "now" timestamp.
	assert.False(t, candidates[0].Timestamp.Before(before))
}

func TestListCandidates_UnreachableIndex(t *testing.T) {
	a, _ := newAcquirer(t, "http://127.0.0.1:1/archive", 1<<20)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := a.ListCandidates(ctx)
	require.Error(t, err)
}

func TestFetchLatest_DownloadsNewest(t *testing.T) {
	srv := newArchiveServer(map[string]string{
		"rala_20260829-120040.json": `{"old": true}`,
		"rala_20260829-120240.json": `{"new": true}`,
	})
	defer srv.Close()

	a, dir := newAcquirer(t, srv.URL+"/archive", 1<<20)

	got, err := a.FetchLatest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rala_20260829-120240.json", got.Name)

	body, err := os.ReadFile(got.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, `{"new": true}`, string(body))
	assert.Equal(t, filepath.Join(dir, got.Name), got.LocalPath)
}

func TestFetchLatest_ReusesExistingDownload(t *testing.T) {
	srv := newArchiveServer(map[string]string{
		"rala_20260829-120240.json": `{"remote": true}`,
	})
	defer srv.Close()

	a, dir := newAcquirer(t, srv.URL+"/archive", 1<<20)

	// Pre-seed the derived local name with different content; the acquirer
	// must treat it as valid and skip the download.
	local := filepath.Join(dir, "rala_20260829-120240.json")
	require.NoError(t, os.WriteFile(local, []byte(`{"local": true}`), 0o644))

	got, err := a.FetchLatest(context.Background())
	require.NoError(t, err)

	body, err := os.ReadFile(got.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, `{"local": true}`, string(body))
}

func TestFetchLatest_PayloadLimit(t *testing.T) {
	big := make([]byte, 2048)
	srv := newArchiveServer(map[string]string{
		"rala_20260829-120240.json": string(big),
	})
	defer srv.Close()

	a, dir := newAcquirer(t, srv.URL+"/archive", 1024)

	_, err := a.FetchLatest(context.Background())
	require.ErrorIs(t, err, radar.ErrAcquisition)

	// No silent truncation: nothing is left behind.
	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestPruneLocal_KeepsNewest(t *testing.T) {
	srv := newArchiveServer(map[string]string{"rala_20260829-120240.json": "{}"})
	defer srv.Close()

	a, dir := newAcquirer(t, srv.URL+"/archive", 1<<20)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		name := filepath.Join(dir, fmt.Sprintf("f%d", i))
		require.NoError(t, os.WriteFile(name, []byte("x"), 0o644))
		mtime := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(name, mtime, mtime))
	}

	deleted := a.PruneLocal(2)
	assert.Equal(t, 3, deleted)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
