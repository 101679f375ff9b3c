package refset

import "fmt"

// TypeError reports that a reference or query set is not a valid interval
// collection.
type TypeError struct {
	What    string // which input failed validation
	Message string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("refset: %s: %s", e.What, e.Message)
}

// Set is a named sub-collection of genomic intervals.
type Set struct {
	Name      string
	Intervals []Interval
}

// Collection is an ordered list of named interval sub-collections. The
// declaration order of the sub-collections is the precedence order used
// during annotation. Collections are immutable once constructed and safe to
// share across concurrent annotation calls.
type Collection struct {
	sets  []Set
	trees map[string]*IntervalTree // per-chromosome index over all entries
}

// NewCollection builds a collection from sub-collections in precedence order.
// Every interval must be well formed and every sub-collection must carry a
// unique, non-empty name.
func NewCollection(sets ...Set) (*Collection, error) {
	if len(sets) == 0 {
		return nil, &TypeError{What: "collection", Message: "no sub-collections given"}
	}

	seen := make(map[string]bool, len(sets))
	entriesByChrom := make(map[string][]Entry)
	ord := 0

	for rank, s := range sets {
		if s.Name == "" {
			return nil, &TypeError{
				What:    fmt.Sprintf("sub-collection %d", rank),
				Message: "empty name",
			}
		}
		if seen[s.Name] {
			return nil, &TypeError{
				What:    s.Name,
				Message: "duplicate sub-collection name",
			}
		}
		seen[s.Name] = true

		for i, iv := range s.Intervals {
			if !iv.IsValid() {
				return nil, &TypeError{
					What: s.Name,
					Message: fmt.Sprintf("interval %d (%s:%d-%d) is not a valid genomic interval",
						i, iv.Chrom, iv.Start, iv.End),
				}
			}
			chrom := NormalizeChrom(iv.Chrom)
			norm := iv
			norm.Chrom = chrom
			entriesByChrom[chrom] = append(entriesByChrom[chrom], Entry{
				Interval: norm,
				SetName:  s.Name,
				Rank:     rank,
				Ord:      ord,
			})
			ord++
		}
	}

	trees := make(map[string]*IntervalTree, len(entriesByChrom))
	for chrom, entries := range entriesByChrom {
		trees[chrom] = BuildIntervalTree(entries)
	}

	return &Collection{sets: sets, trees: trees}, nil
}

// NewGeneCollection builds a collection in which every interval forms its own
// sub-collection named after the interval, all on one precedence tier. This is
// the shape host-gene resolution queries against: overlap hits are reported by
// gene identity rather than by feature class.
func NewGeneCollection(genes []Interval) (*Collection, error) {
	if len(genes) == 0 {
		return nil, &TypeError{What: "genes", Message: "no gene intervals given"}
	}

	entriesByChrom := make(map[string][]Entry)
	sets := make([]Set, 0, len(genes))
	for i, g := range genes {
		if !g.IsValid() {
			return nil, &TypeError{
				What: "genes",
				Message: fmt.Sprintf("interval %d (%s:%d-%d) is not a valid genomic interval",
					i, g.Chrom, g.Start, g.End),
			}
		}
		if g.Name == "" {
			return nil, &TypeError{
				What:    "genes",
				Message: fmt.Sprintf("interval %d has no gene identifier", i),
			}
		}
		chrom := NormalizeChrom(g.Chrom)
		norm := g
		norm.Chrom = chrom
		sets = append(sets, Set{Name: g.Name, Intervals: []Interval{norm}})
		entriesByChrom[chrom] = append(entriesByChrom[chrom], Entry{
			Interval: norm,
			SetName:  g.Name,
			Rank:     0, // single precedence tier
			Ord:      i,
		})
	}

	trees := make(map[string]*IntervalTree, len(entriesByChrom))
	for chrom, entries := range entriesByChrom {
		trees[chrom] = BuildIntervalTree(entries)
	}

	return &Collection{sets: sets, trees: trees}, nil
}

// Sets returns the sub-collections in precedence order.
func (c *Collection) Sets() []Set {
	return c.sets
}

// Names returns the sub-collection names in precedence order.
func (c *Collection) Names() []string {
	names := make([]string, len(c.sets))
	for i, s := range c.sets {
		names[i] = s.Name
	}
	return names
}

// Size returns the total number of intervals across all sub-collections.
func (c *Collection) Size() int {
	n := 0
	for _, s := range c.sets {
		n += len(s.Intervals)
	}
	return n
}

// Overlapping returns all entries sharing at least one base with the query,
// in discovery order. Strand and containment filtering is left to the caller.
func (c *Collection) Overlapping(q Interval) []Entry {
	tree, ok := c.trees[NormalizeChrom(q.Chrom)]
	if !ok {
		return nil
	}
	return tree.FindOverlapping(q.Start, q.End)
}
