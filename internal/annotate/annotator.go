// Package annotate assigns genomic context to circRNA candidate junctions.
package annotate

import (
	"fmt"
	"sort"

	"github.com/circmine/circmine/internal/refset"
)

// Mode selects how overlapping reference labels are reduced per query.
type Mode string

const (
	// ModePrecedence keeps the single label with the lowest precedence rank,
	// breaking same-rank ties by overlap-discovery order.
	ModePrecedence Mode = "precedence"
	// ModeAll keeps every overlapping label, joined in first-discovery order.
	ModeAll Mode = "all"
)

// Overlap selects the overlap test applied between query and reference.
type Overlap string

const (
	// OverlapAny accepts any shared base.
	OverlapAny Overlap = "any"
	// OverlapWithin requires the query to be fully contained in the reference.
	OverlapWithin Overlap = "within"
)

// ConfigError reports an unsupported mode or precedence specification.
type ConfigError struct {
	Param string
	Value string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("annotate: unsupported %s %q", e.Param, e.Value)
}

// Options configures an overlap-annotation run.
type Options struct {
	Mode        Mode
	Overlap     Overlap
	NullLabel   string // label for queries with zero overlaps
	StrandAware bool   // if true, only same-strand intervals overlap
	Separator   string // joiner for ModeAll, ":" when empty
}

func (o Options) validate() error {
	switch o.Mode {
	case ModePrecedence, ModeAll:
	default:
		return &ConfigError{Param: "mode", Value: string(o.Mode)}
	}
	switch o.Overlap {
	case OverlapAny, OverlapWithin:
	default:
		return &ConfigError{Param: "overlap", Value: string(o.Overlap)}
	}
	return nil
}

// Labels annotates each query interval with one label. In precedence mode the
// label is the name of the lowest-ranked overlapping sub-collection; in all
// mode it is the separator-joined set of every overlapping sub-collection
// name, in first-discovery order. Queries without overlaps get the null label.
func Labels(queries []refset.Interval, refs *refset.Collection, opts Options) ([]string, error) {
	sets, err := LabelSets(queries, refs, opts)
	if err != nil {
		return nil, err
	}

	sep := opts.Separator
	if sep == "" {
		sep = ":"
	}

	labels := make([]string, len(sets))
	for i, names := range sets {
		if len(names) == 0 {
			labels[i] = opts.NullLabel
			continue
		}
		labels[i] = names[0]
		for _, n := range names[1:] {
			labels[i] += sep + n
		}
	}
	return labels, nil
}

// LabelSets annotates each query interval with its overlapping sub-collection
// names. In precedence mode each query gets at most one name; in all mode it
// gets the unique names in first-discovery order. Queries without overlaps
// get an empty list.
func LabelSets(queries []refset.Interval, refs *refset.Collection, opts Options) ([][]string, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if refs == nil {
		return nil, &refset.TypeError{What: "reference", Message: "nil collection"}
	}
	for i, q := range queries {
		if !q.IsValid() {
			return nil, &refset.TypeError{
				What:    "query",
				Message: fmt.Sprintf("interval %d (%s:%d-%d) is not a valid genomic interval", i, q.Chrom, q.Start, q.End),
			}
		}
	}

	result := make([][]string, len(queries))
	for i, q := range queries {
		hits := overlapHits(q, refs, opts)
		if len(hits) == 0 {
			continue
		}

		switch opts.Mode {
		case ModePrecedence:
			// Stable sort by precedence rank; discovery order breaks ties.
			sort.SliceStable(hits, func(a, b int) bool {
				return hits[a].Rank < hits[b].Rank
			})
			result[i] = []string{hits[0].SetName}
		case ModeAll:
			seen := make(map[string]bool, len(hits))
			for _, h := range hits {
				if seen[h.SetName] {
					continue
				}
				seen[h.SetName] = true
				result[i] = append(result[i], h.SetName)
			}
		}
	}

	return result, nil
}

// overlapHits returns the reference entries hitting one query, in discovery
// order, after strand and containment filtering.
func overlapHits(q refset.Interval, refs *refset.Collection, opts Options) []refset.Entry {
	candidates := refs.Overlapping(q)
	var hits []refset.Entry
	for _, e := range candidates {
		if opts.StrandAware && !e.Interval.SameStrand(q) {
			continue
		}
		if opts.Overlap == OverlapWithin && !e.Interval.Contains(q) {
			continue
		}
		hits = append(hits, e)
	}
	return hits
}
