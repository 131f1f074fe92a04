// Package datasource discovers and reads Tulipa result databases. A
// result database is a SQLite file produced by an energy-model run; the
// package validates candidates, exposes the category metadata tables
// the selection UIs are built from, and runs the aggregation queries
// chart panels ask for.
package datasource

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DataSource describes one candidate result database on disk.
type DataSource struct {
	// ID is the stable identifier panels store, the base file name.
	ID string `json:"id"`
	// Path is the absolute path to the database file.
	Path string `json:"path"`
	// ModTime is the last modification time of the file.
	ModTime time.Time `json:"mod_time"`
	// Size is the file size in bytes.
	Size int64 `json:"size"`
	// Valid indicates whether the file passed validation.
	Valid bool `json:"valid"`
	// ValidationError describes why validation failed.
	ValidationError string `json:"validation_error,omitempty"`
	// HasMetadata reports whether the category tables are present,
	// set during validation. Databases without them are still usable,
	// the filter and breakdown editors just stay disabled.
	HasMetadata bool `json:"has_metadata"`
}

// String returns a human-readable description of the source.
func (s DataSource) String() string {
	status := "valid"
	if !s.Valid {
		status = fmt.Sprintf("invalid: %s", s.ValidationError)
	}
	return fmt.Sprintf("%s (mod=%s, %d bytes, metadata=%t, %s)",
		s.Path, s.ModTime.Format(time.RFC3339), s.Size, s.HasMetadata, status)
}

// DiscoveryOptions configures result-database discovery.
type DiscoveryOptions struct {
	// Dir is the directory to scan. Falls back to $TULIPAVIZ_DATA_DIR,
	// then the current directory.
	Dir string
	// Extensions lists accepted file extensions. Defaults to
	// .sqlite, .db and .duckdb.
	Extensions []string
	// ValidateAfterDiscovery opens each candidate and probes its schema.
	ValidateAfterDiscovery bool
	// IncludeInvalid keeps sources that failed validation in the result.
	IncludeInvalid bool
	// Logger receives discovery log messages. Nil discards them.
	Logger func(msg string)
}

var defaultExtensions = []string{".sqlite", ".db", ".duckdb"}

// DiscoverSources scans a directory for result databases, newest first.
func DiscoverSources(opts DiscoveryOptions) ([]DataSource, error) {
	if opts.Logger == nil {
		opts.Logger = func(string) {}
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = defaultExtensions
	}

	dir := opts.Dir
	if dir == "" {
		dir = os.Getenv("TULIPAVIZ_DATA_DIR")
	}
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
	}
	opts.Logger(fmt.Sprintf("Discovering result databases in: %s", dir))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var sources []DataSource
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !hasExtension(name, opts.Extensions) {
			continue
		}
		// Skip SQLite side files left by writers.
		if strings.HasSuffix(name, "-wal") || strings.HasSuffix(name, "-shm") ||
			strings.Contains(name, ".backup") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		src := DataSource{
			ID:      name,
			Path:    filepath.Join(dir, name),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		}
		sources = append(sources, src)
		opts.Logger(fmt.Sprintf("Found candidate: %s (mod=%s)", src.Path, info.ModTime().Format(time.RFC3339)))
	}

	if opts.ValidateAfterDiscovery {
		for i := range sources {
			if err := ValidateSource(&sources[i]); err != nil {
				opts.Logger(fmt.Sprintf("Validation failed for %s: %v", sources[i].Path, err))
			}
		}
		if !opts.IncludeInvalid {
			valid := sources[:0]
			for _, s := range sources {
				if s.Valid {
					valid = append(valid, s)
				}
			}
			sources = valid
		}
	}

	sort.Slice(sources, func(i, j int) bool {
		if sources[i].ModTime.Equal(sources[j].ModTime) {
			return sources[i].ID < sources[j].ID
		}
		return sources[i].ModTime.After(sources[j].ModTime)
	})

	opts.Logger(fmt.Sprintf("Discovered %d sources", len(sources)))
	return sources, nil
}

func hasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// statSource builds a descriptor for the file at path.
func statSource(path string) (DataSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return DataSource{}, fmt.Errorf("stat %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return DataSource{}, err
	}
	return DataSource{
		ID:      filepath.Base(abs),
		Path:    abs,
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}, nil
}

// ValidateSource opens the database and probes its schema, recording the
// outcome on the source.
func ValidateSource(src *DataSource) error {
	r, err := OpenReader(*src)
	if err != nil {
		src.Valid = false
		src.ValidationError = err.Error()
		return err
	}
	defer r.Close()

	tables, err := r.Tables()
	if err != nil {
		src.Valid = false
		src.ValidationError = err.Error()
		return err
	}
	if len(tables) == 0 {
		src.Valid = false
		src.ValidationError = "no tables"
		return fmt.Errorf("%s: no tables", src.Path)
	}

	src.Valid = true
	src.ValidationError = ""
	src.HasMetadata = r.HasMetadata()
	return nil
}
