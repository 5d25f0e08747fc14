package registry

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jward/glimmer/internal/semver"
)

// Store is the SQLite-backed package cache: a persistent, on-disk cache of
// package releases and their dependency constraints (spec §4.2). It
// implements Cache.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled, the same
// pragmas the teacher's own store bootstrap uses.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("registry: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("registry: ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

const schemaDDL = `
CREATE TABLE IF NOT EXISTS packages (
  name TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS releases (
  id           INTEGER PRIMARY KEY,
  package_name TEXT NOT NULL REFERENCES packages(name),
  major        INTEGER NOT NULL,
  minor        INTEGER NOT NULL,
  patch        INTEGER NOT NULL,
  raw          TEXT NOT NULL,
  UNIQUE(package_name, major, minor, patch)
);

CREATE TABLE IF NOT EXISTS release_deps (
  id         INTEGER PRIMARY KEY,
  release_id INTEGER NOT NULL REFERENCES releases(id),
  dep_name   TEXT NOT NULL,
  lower_raw  TEXT NOT NULL,
  lower_op   INTEGER NOT NULL,
  upper_raw  TEXT NOT NULL,
  upper_op   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_releases_package ON releases(package_name);
CREATE INDEX IF NOT EXISTS idx_release_deps_release ON release_deps(release_id);
`

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("registry: migrate: %w", err)
	}
	return nil
}

// PutRelease records one published release of name with its declared
// dependency constraints, inserting the package row if it does not already
// exist. Idempotent: re-inserting the same (name, version) replaces the
// stored dependency set.
func (s *Store) PutRelease(name string, release Release) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("registry: put release: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT OR IGNORE INTO packages(name) VALUES (?)`, name); err != nil {
		return fmt.Errorf("registry: put release: insert package: %w", err)
	}

	v := release.Version
	if _, err := tx.Exec(
		`INSERT INTO releases(package_name, major, minor, patch, raw) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(package_name, major, minor, patch) DO UPDATE SET raw = excluded.raw`,
		name, v.Major, v.Minor, v.Patch, v.String(),
	); err != nil {
		return fmt.Errorf("registry: put release: insert release: %w", err)
	}
	// ON CONFLICT DO UPDATE doesn't report the existing rowid via
	// LastInsertId on sqlite3; look it up explicitly.
	var releaseID int64
	row := tx.QueryRow(
		`SELECT id FROM releases WHERE package_name = ? AND major = ? AND minor = ? AND patch = ?`,
		name, v.Major, v.Minor, v.Patch,
	)
	if err := row.Scan(&releaseID); err != nil {
		return fmt.Errorf("registry: put release: lookup release id: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM release_deps WHERE release_id = ?`, releaseID); err != nil {
		return fmt.Errorf("registry: put release: clear deps: %w", err)
	}
	for depName, c := range release.Dependencies {
		if _, err := tx.Exec(
			`INSERT INTO release_deps(release_id, dep_name, lower_raw, lower_op, upper_raw, upper_op)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			releaseID, depName, c.Lower.String(), int(c.LowerOp), c.Upper.String(), int(c.UpperOp),
		); err != nil {
			return fmt.Errorf("registry: put release: insert dep: %w", err)
		}
	}

	return tx.Commit()
}

// Get implements Cache: returns all releases of name.
func (s *Store) Get(name string) ([]Release, error) {
	var exists bool
	if err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM packages WHERE name = ?)`, name).Scan(&exists); err != nil {
		return nil, fmt.Errorf("registry: get %s: %w", name, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPackage, name)
	}

	rows, err := s.db.Query(`SELECT id, major, minor, patch, raw FROM releases WHERE package_name = ?`, name)
	if err != nil {
		return nil, fmt.Errorf("registry: get %s: query releases: %w", name, err)
	}
	defer rows.Close()

	type releaseRow struct {
		id                   int64
		major, minor, patch  int
		raw                  string
	}
	var releaseRows []releaseRow
	for rows.Next() {
		var r releaseRow
		if err := rows.Scan(&r.id, &r.major, &r.minor, &r.patch, &r.raw); err != nil {
			return nil, fmt.Errorf("registry: get %s: scan release: %w", name, err)
		}
		releaseRows = append(releaseRows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("registry: get %s: release rows: %w", name, err)
	}

	releases := make([]Release, 0, len(releaseRows))
	for _, r := range releaseRows {
		deps, err := s.depsForRelease(r.id)
		if err != nil {
			return nil, fmt.Errorf("registry: get %s: %w", name, err)
		}
		releases = append(releases, Release{
			Version:      semver.Version{Major: r.major, Minor: r.minor, Patch: r.patch, Raw: r.raw},
			Dependencies: deps,
		})
	}
	return releases, nil
}

func (s *Store) depsForRelease(releaseID int64) (map[string]semver.Constraint, error) {
	rows, err := s.db.Query(
		`SELECT dep_name, lower_raw, lower_op, upper_raw, upper_op FROM release_deps WHERE release_id = ?`,
		releaseID,
	)
	if err != nil {
		return nil, fmt.Errorf("deps for release %d: %w", releaseID, err)
	}
	defer rows.Close()

	deps := map[string]semver.Constraint{}
	for rows.Next() {
		var depName, lowerRaw, upperRaw string
		var lowerOp, upperOp int
		if err := rows.Scan(&depName, &lowerRaw, &lowerOp, &upperRaw, &upperOp); err != nil {
			return nil, fmt.Errorf("scan dep: %w", err)
		}
		lower, err := semver.Parse(lowerRaw)
		if err != nil {
			return nil, fmt.Errorf("dep %s: %w", depName, err)
		}
		upper, err := semver.Parse(upperRaw)
		if err != nil {
			return nil, fmt.Errorf("dep %s: %w", depName, err)
		}
		c, err := semver.New(lower, semver.Op(lowerOp), upper, semver.Op(upperOp))
		if err != nil {
			return nil, fmt.Errorf("dep %s: %w", depName, err)
		}
		deps[depName] = c
	}
	return deps, rows.Err()
}
