// Package refset provides reference feature collections for circRNA annotation.
package refset

import "strings"

// Strand values for genomic intervals.
const (
	StrandForward int8 = 1
	StrandReverse int8 = -1
	StrandNone    int8 = 0
)

// Interval is a genomic interval with 1-based inclusive coordinates.
type Interval struct {
	Chrom  string // Chromosome (normalized, chr-prefixed)
	Start  int64  // 1-based start position
	End    int64  // 1-based end position, inclusive, Start <= End
	Strand int8   // +1, -1, or 0 (unstranded)
	Name   string // Optional label (e.g. gene ID)
}

// IsValid reports whether the interval has a chromosome and ordered coordinates.
func (iv Interval) IsValid() bool {
	return iv.Chrom != "" && iv.Start >= 1 && iv.Start <= iv.End
}

// Contains reports whether [other.Start, other.End] lies entirely within iv.
func (iv Interval) Contains(other Interval) bool {
	return other.Start >= iv.Start && other.End <= iv.End
}

// Overlaps reports whether iv and other share at least one base.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start <= other.End && iv.End >= other.Start
}

// SameStrand reports whether two intervals are on the same strand.
// Unstranded intervals match either strand.
func (iv Interval) SameStrand(other Interval) bool {
	if iv.Strand == StrandNone || other.Strand == StrandNone {
		return true
	}
	return iv.Strand == other.Strand
}

// Point returns a zero-length interval at the given position, inheriting
// chromosome and strand.
func (iv Interval) Point(pos int64) Interval {
	return Interval{Chrom: iv.Chrom, Start: pos, End: pos, Strand: iv.Strand, Name: iv.Name}
}

// ParseStrand converts the usual +/-/./* notation to a strand value.
func ParseStrand(s string) int8 {
	switch s {
	case "+":
		return StrandForward
	case "-":
		return StrandReverse
	default:
		return StrandNone
	}
}

// StrandString renders a strand value back to +/-/. notation.
func StrandString(strand int8) string {
	switch strand {
	case StrandForward:
		return "+"
	case StrandReverse:
		return "-"
	default:
		return "."
	}
}

// NormalizeChrom maps chromosome names onto the canonical chr-prefixed set.
// The mitochondrial contig is unified to "chrM" whichever alias the input uses.
func NormalizeChrom(chrom string) string {
	c := chrom
	if !strings.HasPrefix(c, "chr") {
		c = "chr" + c
	}
	switch c {
	case "chrMT", "chrMt", "chrmt":
		return "chrM"
	}
	return c
}
