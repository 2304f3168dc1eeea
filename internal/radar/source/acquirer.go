// Package source lists and downloads raw radar files from an upstream
// HTTP archive (an autoindexed directory of timestamp-named files).
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/velichan/radarview/internal/radar"
	"github.com/velichan/radarview/internal/retention"
)

// timestampLayout is the fixed-width date-time token embedded in upstream
// file names, e.g. MRMS_ReflectivityAtLowestAltitude_00.50_20260829-120040.grib2.gz.
const timestampLayout = "20060102-150405"

var (
	hrefPattern      = regexp.MustCompile(`href="([^"?/][^"?]*)"`)
	timestampPattern = regexp.MustCompile(`\d{8}-\d{6}`)
)

// Candidate is one remote file offered by the upstream index.
type Candidate struct {
	Name      string
	URL       string
	Timestamp time.Time
}

// Acquirer lists remote candidate files, downloads the newest one
// idempotently into a bounded local directory, and prunes excess copies.
type Acquirer struct {
	indexURL string
	dir      string
	maxBytes int64
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
	logger   *slog.Logger
}

// NewAcquirer creates an Acquirer downloading from indexURL into dir.
// maxBytes bounds a single download; exceeding it is an acquisition error,
// never a silent truncation.
func NewAcquirer(indexURL, dir string, client *http.Client, maxBytes int64, logger *slog.Logger) *Acquirer {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "radar-archive",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Acquirer{
		indexURL: strings.TrimRight(indexURL, "/") + "/",
		dir:      dir,
		maxBytes: maxBytes,
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
		logger:  logger,
	}
}

// ListCandidates fetches the upstream index and returns its files newest
// first. A candidate whose name carries no parsable timestamp token is kept
// with its timestamp defaulted to now rather than discarded.
func (a *Acquirer) ListCandidates(ctx context.Context) ([]Candidate, error) {
	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, a.indexURL, nil)
	}

	resp, err := doRequestWithResilience(ctx, a.httpCfg, a.circuit, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("%w: listing %s: %v", radar.ErrAcquisition, a.indexURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading index: %v", radar.ErrAcquisition, err)
	}

	now := time.Now().UTC()
	var candidates []Candidate
	for _, m := range hrefPattern.FindAllStringSubmatch(string(body), -1) {
		name, err := url.PathUnescape(m[1])
		if err != nil || name == "" || strings.HasSuffix(name, "/") {
			continue
		}
		name = path.Base(name)
		candidates = append(candidates, Candidate{
			Name:      name,
			URL:       a.indexURL + url.PathEscape(name),
			Timestamp: timestampFromName(name, now),
		})
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: index at %s lists no files", radar.ErrAcquisition, a.indexURL)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Timestamp.Equal(candidates[j].Timestamp) {
			return candidates[i].Name > candidates[j].Name
		}
		return candidates[i].Timestamp.After(candidates[j].Timestamp)
	})
	return candidates, nil
}

// FetchLatest downloads the newest candidate. The download is idempotent: a
// file already present under the derived local name is reused as-is, with no
// checksum verification.
func (a *Acquirer) FetchLatest(ctx context.Context) (radar.AcquiredFile, error) {
	candidates, err := a.ListCandidates(ctx)
	if err != nil {
		return radar.AcquiredFile{}, err
	}
	latest := candidates[0]

	localPath := filepath.Join(a.dir, latest.Name)
	if _, err := os.Stat(localPath); err == nil {
		a.logger.Debug("acquirer: reusing existing download", "file", latest.Name)
		return radar.AcquiredFile{Name: latest.Name, LocalPath: localPath, Timestamp: latest.Timestamp}, nil
	}

	if err := a.download(ctx, latest, localPath); err != nil {
		return radar.AcquiredFile{}, err
	}

	a.logger.Info("acquirer: downloaded source file", "file", latest.Name, "timestamp", latest.Timestamp)
	return radar.AcquiredFile{Name: latest.Name, LocalPath: localPath, Timestamp: latest.Timestamp}, nil
}

// download streams the candidate to a temp file and renames it into place.
// Payloads exceeding maxBytes fail outright rather than truncating.
func (a *Acquirer) download(ctx context.Context, c Candidate, localPath string) error {
	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, c.URL, nil)
	}

	resp, err := doRequestWithResilience(ctx, a.httpCfg, a.circuit, buildRequest)
	if err != nil {
		return fmt.Errorf("%w: downloading %s: %v", radar.ErrAcquisition, c.Name, err)
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp(a.dir, c.Name+".partial-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %v", radar.ErrAcquisition, err)
	}
	tmpName := tmp.Name()

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, a.maxBytes+1))
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: writing %s: %v", radar.ErrAcquisition, c.Name, err)
	}
	if n > a.maxBytes {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s exceeds payload limit of %d bytes", radar.ErrAcquisition, c.Name, a.maxBytes)
	}

	if err := os.Rename(tmpName, localPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: placing %s: %v", radar.ErrAcquisition, c.Name, err)
	}
	return nil
}

// PruneLocal keeps the keep most-recently-modified raw files. Best-effort:
// deletion failures are logged inside the retention pass, never propagated.
func (a *Acquirer) PruneLocal(keep int) int {
	return retention.Prune(a.dir, retention.Policy{
		Keep: keep,
		Skip: func(name string) bool { return strings.Contains(name, ".partial-") },
	}, a.logger)
}

// timestampFromName extracts the embedded date-time token, defaulting to
// fallback when the token is absent or malformed.
func timestampFromName(name string, fallback time.Time) time.Time {
	token := timestampPattern.FindString(name)
	if token == "" {
		return fallback
	}
	ts, err := time.Parse(timestampLayout, token)
	if err != nil {
		return fallback
	}
	return ts.UTC()
}
