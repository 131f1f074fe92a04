package datasource

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/TulipaEnergy/tulipaviz/pkg/metrics"
	"github.com/TulipaEnergy/tulipaviz/pkg/model"
)

// Reader provides read access to one result database.
type Reader struct {
	db     *sql.DB
	source DataSource
}

// OpenReader opens a result database for reading.
func OpenReader(source DataSource) (*Reader, error) {
	// Read-only: the visualizer never writes to a result database.
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot open %s: %w", source.Path, err)
	}

	// Read-performance pragmas, failures are non-fatal.
	pragmas := []string{
		"PRAGMA cache_size = -64000",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		db.Exec(pragma)
	}

	return &Reader{db: db, source: source}, nil
}

// OpenPath opens the database at path, deriving the source descriptor
// from the file.
func OpenPath(path string) (*Reader, error) {
	src, err := statSource(path)
	if err != nil {
		return nil, err
	}
	return OpenReader(src)
}

// Source returns the descriptor this reader was opened from.
func (r *Reader) Source() DataSource { return r.source }

// Close closes the database connection.
func (r *Reader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Tables lists the user tables in the database.
func (r *Reader) Tables() ([]string, error) {
	rows, err := r.db.Query(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return tables, nil
}

// HasMetadata reports whether the category metadata tables exist. They
// are optional: result databases straight out of a model run may not
// carry them yet.
func (r *Reader) HasMetadata() bool {
	for _, table := range []string{"category", "asset_category"} {
		var n int
		err := r.db.QueryRow(
			`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
		if err != nil || n == 0 {
			return false
		}
	}
	return true
}

// Categories reads the flat category table in storage order. Row order
// is preserved: it decides sibling display order everywhere downstream.
func (r *Reader) Categories() ([]model.CategoryRow, error) {
	defer metrics.Timer(metrics.CategoryLoad)()

	rows, err := r.db.Query(`SELECT id, name, parent_id, level FROM category ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []model.CategoryRow
	for rows.Next() {
		var row model.CategoryRow
		var parent sql.NullInt64
		if err := rows.Scan(&row.ID, &row.Name, &parent, &row.Level); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		if parent.Valid {
			row.ParentID = int(parent.Int64)
		} else {
			row.ParentID = row.ID
			row.Level = model.RootLevel
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return out, nil
}

// Years lists the distinct milestone years present in the given table,
// ascending. Panels use it to populate the year picker.
func (r *Reader) Years(table string) ([]int, error) {
	if err := validIdentifier(table); err != nil {
		return nil, err
	}
	rows, err := r.db.Query(fmt.Sprintf(
		`SELECT DISTINCT milestone_year FROM %q ORDER BY milestone_year`, table))
	if err != nil {
		return nil, fmt.Errorf("query years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating years: %w", err)
	}
	return years, nil
}

// LastModified returns the file modification time, refreshed from disk.
func (r *Reader) LastModified() (time.Time, error) {
	src, err := statSource(r.source.Path)
	if err != nil {
		return time.Time{}, err
	}
	return src.ModTime, nil
}
