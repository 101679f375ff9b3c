// Package circbase provides thin lookups against an external circRNA database.
package circbase

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
)

// Record is one cross-referenced circRNA database entry.
type Record struct {
	CircID   string // database accession (e.g. hsa_circ_0000001)
	Chrom    string
	Start    int64
	End      int64
	Strand   string
	GeneName string
	Study    string
}

// Study describes one study contributing circRNA calls to the database.
type Study struct {
	Name    string
	Tissue  string
	Records int64
}

// DB wraps a connection to a circRNA database file. The path can be a local
// DuckDB file or a remote one reachable through httpfs (s3://bucket/db.duckdb).
type DB struct {
	db   *sql.DB
	path string
}

// Open connects to the circRNA database at the given path or URL.
func Open(path string) (*DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open circRNA database: %w", err)
	}

	if strings.HasPrefix(path, "s3://") {
		if _, err := db.Exec("INSTALL httpfs; LOAD httpfs;"); err != nil {
			db.Close()
			return nil, fmt.Errorf("load httpfs extension: %w", err)
		}
	}

	return &DB{db: db, path: path}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Lookup cross-references circRNA accessions and returns the matching
// records. Unknown accessions are silently absent from the result.
func (d *DB) Lookup(circIDs []string) ([]Record, error) {
	if len(circIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(circIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(circIDs))
	for i, id := range circIDs {
		args[i] = id
	}

	rows, err := d.db.Query(fmt.Sprintf(
		`SELECT circ_id, chrom, start_pos, end_pos, strand, gene_name, study
		 FROM circrna WHERE circ_id IN (%s) ORDER BY circ_id`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("query circRNA records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.CircID, &r.Chrom, &r.Start, &r.End, &r.Strand, &r.GeneName, &r.Study); err != nil {
			return nil, fmt.Errorf("scan circRNA record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read circRNA records: %w", err)
	}

	return records, nil
}

// LookupRegion returns records overlapping a genomic interval.
func (d *DB) LookupRegion(chrom string, start, end int64) ([]Record, error) {
	rows, err := d.db.Query(
		`SELECT circ_id, chrom, start_pos, end_pos, strand, gene_name, study
		 FROM circrna WHERE chrom = ? AND start_pos <= ? AND end_pos >= ?
		 ORDER BY start_pos`, chrom, end, start)
	if err != nil {
		return nil, fmt.Errorf("query circRNA region: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.CircID, &r.Chrom, &r.Start, &r.End, &r.Strand, &r.GeneName, &r.Study); err != nil {
			return nil, fmt.Errorf("scan circRNA record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read circRNA records: %w", err)
	}

	return records, nil
}

// ListStudies lists the studies present in the database with their record
// counts.
func (d *DB) ListStudies() ([]Study, error) {
	rows, err := d.db.Query(
		`SELECT study, coalesce(any_value(tissue), ''), count(*)
		 FROM circrna GROUP BY study ORDER BY study`)
	if err != nil {
		return nil, fmt.Errorf("query studies: %w", err)
	}
	defer rows.Close()

	var studies []Study
	for rows.Next() {
		var s Study
		if err := rows.Scan(&s.Name, &s.Tissue, &s.Records); err != nil {
			return nil, fmt.Errorf("scan study: %w", err)
		}
		studies = append(studies, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read studies: %w", err)
	}

	return studies, nil
}
