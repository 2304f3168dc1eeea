// Package retention implements the count-based "keep N newest" cleanup
// policy applied to the raw source and rendered image directories. Cleanup
// is advisory: deletion failures are logged and swallowed so a cleanup pass
// can never abort a request.
package retention

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Policy controls one pruning pass over a directory.
type Policy struct {
	// Keep is the number of most-recently-modified files to retain.
	Keep int

	// Skip filters out files that should not be counted or deleted directly
	// (e.g. derivative thumbnails, which are removed as companions instead).
	Skip func(name string) bool

	// Companions returns derivative file names to best-effort delete
	// alongside a pruned file.
	Companions func(name string) []string
}

type agedFile struct {
	name    string
	modTime time.Time
}

// Prune deletes all but the Keep most-recently-modified files in dir and
// returns the number of files removed. The decision is purely mtime-based,
// never content-based.
func Prune(dir string, p Policy, logger *slog.Logger) int {
	if p.Keep < 0 {
		p.Keep = 0
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("retention: listing directory failed", "dir", dir, "error", err)
		return 0
	}

	var files []agedFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if p.Skip != nil && p.Skip(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			logger.Warn("retention: stat failed", "file", e.Name(), "error", err)
			continue
		}
		files = append(files, agedFile{name: e.Name(), modTime: info.ModTime()})
	}

	if len(files) <= p.Keep {
		return 0
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].modTime.Equal(files[j].modTime) {
			return files[i].name > files[j].name
		}
		return files[i].modTime.After(files[j].modTime)
	})

	deleted := 0
	for _, f := range files[p.Keep:] {
		if err := os.Remove(filepath.Join(dir, f.name)); err != nil {
			logger.Warn("retention: delete failed", "file", f.name, "error", err)
			continue
		}
		deleted++

		if p.Companions == nil {
			continue
		}
		for _, companion := range p.Companions(f.name) {
			if err := os.Remove(filepath.Join(dir, companion)); err != nil && !os.IsNotExist(err) {
				logger.Warn("retention: companion delete failed", "file", companion, "error", err)
			}
		}
	}
	return deleted
}
