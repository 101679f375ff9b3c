package refset

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
)

// Collection names inside a reference store.
const (
	storeGenes       = "genes"
	storeSubFeatures = "subfeatures"
	storeJunctions   = "junctions"
)

// Store persists reference collections in a DuckDB database, so the GTF
// ingestion only has to run once per annotation release. The path can be a
// local file or an S3 URL (s3://bucket/ref.duckdb).
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore opens or creates a reference store at the given path.
// Use an empty string for an in-memory database.
func OpenStore(path string) (*Store, error) {
	if path != "" && !strings.HasPrefix(path, "s3://") {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	// Enable httpfs extension for S3 support
	if strings.HasPrefix(path, "s3://") {
		if _, err := db.Exec("INSTALL httpfs; LOAD httpfs;"); err != nil {
			db.Close()
			return nil, fmt.Errorf("load httpfs extension: %w", err)
		}
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Build writes the reference collections to the store, replacing any
// previous content.
func (s *Store) Build(ref *Reference) error {
	if _, err := s.db.Exec(`CREATE OR REPLACE TABLE ref_intervals (
		collection VARCHAR,
		set_name   VARCHAR,
		set_rank   INTEGER,
		ord        INTEGER,
		chrom      VARCHAR,
		start_pos  BIGINT,
		end_pos    BIGINT,
		strand     INTEGER,
		name       VARCHAR
	)`); err != nil {
		return fmt.Errorf("create ref_intervals: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO ref_intervals VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	insert := func(collection string, c *Collection) error {
		ord := 0
		for rank, set := range c.Sets() {
			for _, iv := range set.Intervals {
				if _, err := stmt.Exec(collection, set.Name, rank, ord,
					iv.Chrom, iv.Start, iv.End, int32(iv.Strand), iv.Name); err != nil {
					return fmt.Errorf("insert %s interval: %w", collection, err)
				}
				ord++
			}
		}
		return nil
	}

	if err := insert(storeGenes, ref.Genes); err != nil {
		return err
	}
	if err := insert(storeSubFeatures, ref.SubFeatures); err != nil {
		return err
	}
	if err := insert(storeJunctions, ref.Junctions); err != nil {
		return err
	}

	return tx.Commit()
}

// Load reads the reference collections back from the store.
func (s *Store) Load() (*Reference, error) {
	genes, err := s.loadIntervals(storeGenes)
	if err != nil {
		return nil, err
	}
	var geneIvs []Interval
	for _, set := range genes {
		geneIvs = append(geneIvs, set.Intervals...)
	}
	geneColl, err := NewGeneCollection(geneIvs)
	if err != nil {
		return nil, fmt.Errorf("load gene collection: %w", err)
	}

	subSets, err := s.loadIntervals(storeSubFeatures)
	if err != nil {
		return nil, err
	}
	subColl, err := NewCollection(subSets...)
	if err != nil {
		return nil, fmt.Errorf("load sub-feature collection: %w", err)
	}

	junctSets, err := s.loadIntervals(storeJunctions)
	if err != nil {
		return nil, err
	}
	junctColl, err := NewCollection(junctSets...)
	if err != nil {
		return nil, fmt.Errorf("load junction collection: %w", err)
	}

	return &Reference{Genes: geneColl, SubFeatures: subColl, Junctions: junctColl}, nil
}

// loadIntervals reads one collection's rows in rank and insertion order.
func (s *Store) loadIntervals(collection string) ([]Set, error) {
	rows, err := s.db.Query(`SELECT set_name, chrom, start_pos, end_pos, strand, name
		FROM ref_intervals WHERE collection = ? ORDER BY set_rank, ord`, collection)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	var sets []Set
	idx := make(map[string]int)

	for rows.Next() {
		var setName, chrom, name string
		var start, end int64
		var strand int32
		if err := rows.Scan(&setName, &chrom, &start, &end, &strand, &name); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", collection, err)
		}
		iv := Interval{Chrom: chrom, Start: start, End: end, Strand: int8(strand), Name: name}
		i, ok := idx[setName]
		if !ok {
			i = len(sets)
			idx[setName] = i
			sets = append(sets, Set{Name: setName})
		}
		sets[i].Intervals = append(sets[i].Intervals, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s rows: %w", collection, err)
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("reference store has no %s intervals", collection)
	}

	return sets, nil
}
