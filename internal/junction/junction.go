// Package junction provides circRNA candidate junction parsing and per-candidate metrics.
package junction

import (
	"fmt"
	"math"

	"github.com/circmine/circmine/internal/refset"
)

// Candidate is a circRNA candidate splice junction together with its read
// support and, once annotated, its genomic context.
type Candidate struct {
	refset.Interval

	CircReads   int64 // reads spanning the circular (back-splice) junction
	LinearStart int64 // linear read support at the 5' boundary
	LinearEnd   int64 // linear read support at the 3' boundary

	Ratio float64 // circular-to-linear ratio, +Inf when no linear support

	// Annotation output, filled by the pipeline.
	Host       string // host gene symbol, "ambiguous", "intergenic" or "no_single_host"
	Feature    string // gene-body feature, possibly composite "a:b"
	JunctKnown string // "both", "none", "5pr" or "3pr"
	Gene       string // resolved gene symbol, empty when unresolved
}

// Key returns the candidate's interval identity, used to re-join per-boundary
// annotation results.
func (c *Candidate) Key() string {
	return fmt.Sprintf("%s:%d-%d", c.Chrom, c.Start, c.End)
}

// ComputeRatios fills in the circular-to-linear read ratio for each candidate.
// The ratio is the circular junction read count over the mean linear support
// of the two boundaries. Candidates without any linear support get +Inf rather
// than a division fault.
func ComputeRatios(cands []*Candidate) {
	for _, c := range cands {
		linear := float64(c.LinearStart+c.LinearEnd) / 2
		if linear == 0 {
			c.Ratio = math.Inf(1)
			continue
		}
		c.Ratio = float64(c.CircReads) / linear
	}
}
