package refset

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Feature class names, in annotation precedence order.
const (
	FeatureUTR5   = "utr5"
	FeatureUTR3   = "utr3"
	FeatureCDS    = "cds"
	FeatureIntron = "intron"
)

// Junction boundary sub-collection names.
const (
	JunctionStart = "start"
	JunctionEnd   = "end"
)

// Reference bundles the interval collections the annotation pipeline consumes:
// gene bodies, gene sub-features in precedence order, and known linear
// splice-junction boundary points.
type Reference struct {
	Genes       *Collection // one sub-collection per gene, single tier
	SubFeatures *Collection // utr5, utr3, cds, intron
	Junctions   *Collection // "start" and "end" boundary points
}

// GTFLoader builds reference collections from a GENCODE-style GTF file.
type GTFLoader struct {
	path string
}

// NewGTFLoader creates a new GTF loader.
func NewGTFLoader(path string) *GTFLoader {
	return &GTFLoader{path: path}
}

// Load parses the GTF file and derives the reference collections.
func (l *GTFLoader) Load() (*Reference, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open GTF file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f

	// Handle gzipped files
	if strings.HasSuffix(l.path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	return l.LoadFrom(reader)
}

// transcriptModel accumulates per-transcript features while scanning the GTF.
type transcriptModel struct {
	chrom    string
	strand   int8
	exons    []Interval
	cdsStart int64
	cdsEnd   int64
}

// LoadFrom parses GTF content from a reader and derives the reference
// collections. Gene bodies come from "gene" records; UTRs and introns are
// derived from the exon/CDS structure of each transcript; junction boundary
// points are the start and end coordinates of annotated exons.
func (l *GTFLoader) LoadFrom(reader io.Reader) (*Reference, error) {
	scanner := bufio.NewScanner(reader)
	// Increase buffer size for long attribute columns
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var genes []Interval
	transcripts := make(map[string]*transcriptModel)
	var transcriptOrder []string

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 9 {
			continue // skip malformed lines
		}

		start, end, err := parseCoords(fields[3], fields[4])
		if err != nil {
			continue
		}

		chrom := NormalizeChrom(fields[0])
		strand := ParseStrand(fields[6])
		attrs := parseAttributes(fields[8])

		switch fields[2] {
		case "gene":
			name := attrs["gene_name"]
			if name == "" {
				name = stripVersion(attrs["gene_id"])
			}
			if name == "" {
				continue
			}
			genes = append(genes, Interval{
				Chrom: chrom, Start: start, End: end, Strand: strand, Name: name,
			})

		case "exon":
			id := stripVersion(attrs["transcript_id"])
			if id == "" {
				continue
			}
			t, ok := transcripts[id]
			if !ok {
				t = &transcriptModel{chrom: chrom, strand: strand}
				transcripts[id] = t
				transcriptOrder = append(transcriptOrder, id)
			}
			t.exons = append(t.exons, Interval{Chrom: chrom, Start: start, End: end, Strand: strand})

		case "CDS":
			id := stripVersion(attrs["transcript_id"])
			if id == "" {
				continue
			}
			t, ok := transcripts[id]
			if !ok {
				t = &transcriptModel{chrom: chrom, strand: strand}
				transcripts[id] = t
				transcriptOrder = append(transcriptOrder, id)
			}
			if t.cdsStart == 0 || start < t.cdsStart {
				t.cdsStart = start
			}
			if end > t.cdsEnd {
				t.cdsEnd = end
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan GTF: %w", err)
	}

	var utr5s, utr3s, cdss, introns []Interval
	junctions := newPointSet()

	for _, id := range transcriptOrder {
		t := transcripts[id]
		if len(t.exons) == 0 {
			continue
		}

		sort.Slice(t.exons, func(i, j int) bool {
			return t.exons[i].Start < t.exons[j].Start
		})

		for i, e := range t.exons {
			junctions.add(t.chrom, e.Start, t.strand, true)
			junctions.add(t.chrom, e.End, t.strand, false)

			if i > 0 {
				prev := t.exons[i-1]
				if e.Start > prev.End+1 {
					introns = append(introns, Interval{
						Chrom: t.chrom, Start: prev.End + 1, End: e.Start - 1, Strand: t.strand,
					})
				}
			}

			if t.cdsStart == 0 || t.cdsEnd == 0 {
				continue // non-coding transcript: no CDS/UTR partition
			}

			// CDS portion of the exon
			if e.End >= t.cdsStart && e.Start <= t.cdsEnd {
				cdss = append(cdss, Interval{
					Chrom: t.chrom, Start: max(e.Start, t.cdsStart), End: min(e.End, t.cdsEnd), Strand: t.strand,
				})
			}

			// Exonic sequence upstream of the CDS (genomically left)
			if e.Start < t.cdsStart {
				left := Interval{
					Chrom: t.chrom, Start: e.Start, End: min(e.End, t.cdsStart-1), Strand: t.strand,
				}
				if t.strand == StrandReverse {
					utr3s = append(utr3s, left)
				} else {
					utr5s = append(utr5s, left)
				}
			}

			// Exonic sequence downstream of the CDS (genomically right)
			if e.End > t.cdsEnd {
				right := Interval{
					Chrom: t.chrom, Start: max(e.Start, t.cdsEnd+1), End: e.End, Strand: t.strand,
				}
				if t.strand == StrandReverse {
					utr5s = append(utr5s, right)
				} else {
					utr3s = append(utr3s, right)
				}
			}
		}
	}

	geneColl, err := NewGeneCollection(genes)
	if err != nil {
		return nil, fmt.Errorf("build gene collection: %w", err)
	}

	subColl, err := NewCollection(
		Set{Name: FeatureUTR5, Intervals: utr5s},
		Set{Name: FeatureUTR3, Intervals: utr3s},
		Set{Name: FeatureCDS, Intervals: cdss},
		Set{Name: FeatureIntron, Intervals: introns},
	)
	if err != nil {
		return nil, fmt.Errorf("build sub-feature collection: %w", err)
	}

	junctColl, err := NewCollection(
		Set{Name: JunctionStart, Intervals: junctions.starts},
		Set{Name: JunctionEnd, Intervals: junctions.ends},
	)
	if err != nil {
		return nil, fmt.Errorf("build junction collection: %w", err)
	}

	return &Reference{Genes: geneColl, SubFeatures: subColl, Junctions: junctColl}, nil
}

// pointSet deduplicates junction boundary points across transcripts.
type pointSet struct {
	seen   map[string]bool
	starts []Interval
	ends   []Interval
}

func newPointSet() *pointSet {
	return &pointSet{seen: make(map[string]bool)}
}

func (p *pointSet) add(chrom string, pos int64, strand int8, isStart bool) {
	key := fmt.Sprintf("%s:%d:%d:%t", chrom, pos, strand, isStart)
	if p.seen[key] {
		return
	}
	p.seen[key] = true
	iv := Interval{Chrom: chrom, Start: pos, End: pos, Strand: strand}
	if isStart {
		p.starts = append(p.starts, iv)
	} else {
		p.ends = append(p.ends, iv)
	}
}

// parseAttributes parses the GTF attribute column.
// Format: key "value"; key "value"; ...
func parseAttributes(attrStr string) map[string]string {
	attrs := make(map[string]string)

	parts := strings.Split(attrStr, ";")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		idx := strings.Index(part, " ")
		if idx == -1 {
			continue
		}

		key := part[:idx]
		value := strings.Trim(strings.TrimSpace(part[idx+1:]), "\"")
		attrs[key] = value
	}

	return attrs
}

// stripVersion removes a trailing .N version suffix from an identifier.
func stripVersion(id string) string {
	if idx := strings.LastIndexByte(id, '.'); idx > 0 {
		return id[:idx]
	}
	return id
}

func parseCoords(startField, endField string) (int64, int64, error) {
	start, err := strconv.ParseInt(startField, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse start: %w", err)
	}
	end, err := strconv.ParseInt(endField, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse end: %w", err)
	}
	return start, end, nil
}
