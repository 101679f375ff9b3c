// Package output provides annotated-table output formatters.
package output

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/circmine/circmine/internal/junction"
	"github.com/circmine/circmine/internal/refset"
)

// TabWriter writes annotated candidates in tab-delimited format. The original
// input columns come first (start in the input's half-open convention, so the
// output can be fed back through the parser), followed by the annotation
// columns.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			junction.ColChrom,
			junction.ColStart,
			junction.ColEnd,
			junction.ColName,
			junction.ColCircReads,
			junction.ColStrand,
			junction.ColLinearStart,
			junction.ColLinearEnd,
			"ratio",
			"host",
			"feature",
			"junct_known",
			"gene",
		},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes one annotated candidate.
func (tw *TabWriter) Write(c *junction.Candidate) error {
	values := []string{
		c.Chrom,
		strconv.FormatInt(c.Start-1, 10), // back to half-open
		strconv.FormatInt(c.End, 10),
		c.Name,
		strconv.FormatInt(c.CircReads, 10),
		refset.StrandString(c.Strand),
		strconv.FormatInt(c.LinearStart, 10),
		strconv.FormatInt(c.LinearEnd, 10),
		formatRatio(c.Ratio),
		c.Host,
		c.Feature,
		c.JunctKnown,
		c.Gene,
	}

	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

func formatRatio(r float64) string {
	if math.IsInf(r, 1) {
		return "Inf"
	}
	return fmt.Sprintf("%.4g", r)
}
