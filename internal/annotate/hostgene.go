package annotate

import (
	"github.com/circmine/circmine/internal/junction"
	"github.com/circmine/circmine/internal/refset"
)

// Host gene categories for candidates without a single containing gene.
const (
	HostAmbiguous    = "ambiguous"
	HostIntergenic   = "intergenic"
	HostNoSingleHost = "no_single_host"
)

// boundaryHits records, per candidate identity, the genes fully containing
// each junction boundary. Built once per annotation call and discarded.
type boundaryHits struct {
	startGenes []string
	endGenes   []string
}

// ResolveHosts assigns every candidate a host gene category. Both junction
// boundaries are matched, as zero-length points, against the gene collection
// with full containment; the per-boundary gene lists are then reconciled:
//
//	exactly one gene contains both boundaries  -> that gene
//	several genes contain both boundaries      -> "ambiguous"
//	no gene at either boundary                 -> "intergenic"
//	both boundaries in different genes         -> "no_single_host"
//	one boundary in >1 genes, other in none    -> "ambiguous"
//	one boundary in exactly one gene           -> that gene
//
// The rules are evaluated in this order and the first match wins. Note the
// intergenic rule only inspects the two boundaries: a gene lying entirely
// inside the candidate, touching neither boundary, does not prevent the
// intergenic call.
func ResolveHosts(cands []*junction.Candidate, genes *refset.Collection) error {
	starts := make([]refset.Interval, len(cands))
	ends := make([]refset.Interval, len(cands))
	for i, c := range cands {
		starts[i] = c.Point(c.Start)
		ends[i] = c.Point(c.End)
	}

	// Boundary containment is tested ignoring strand: a back-splice call with
	// an uncertain or flipped strand still belongs to the gene it lies in.
	opts := Options{Mode: ModeAll, Overlap: OverlapWithin, StrandAware: false}

	startSets, err := LabelSets(starts, genes, opts)
	if err != nil {
		return err
	}
	endSets, err := LabelSets(ends, genes, opts)
	if err != nil {
		return err
	}

	hits := make(map[string]*boundaryHits, len(cands))
	for i, c := range cands {
		hits[c.Key()] = &boundaryHits{startGenes: startSets[i], endGenes: endSets[i]}
	}

	for _, c := range cands {
		h := hits[c.Key()]
		c.Host = classifyHost(h.startGenes, h.endGenes)
	}

	return nil
}

// classifyHost applies the host decision rules to the per-boundary gene lists.
func classifyHost(startGenes, endGenes []string) string {
	shared := intersect(startGenes, endGenes)
	hitcnt := len(shared)

	switch {
	case hitcnt == 1:
		return shared[0]
	case hitcnt > 1:
		return HostAmbiguous
	}

	// hitcnt == 0 from here on.
	startHit := len(startGenes) > 0
	endHit := len(endGenes) > 0

	switch {
	case !startHit && !endHit:
		return HostIntergenic
	case startHit && endHit:
		return HostNoSingleHost
	}

	// Exactly one boundary hit at least one gene.
	candidates := union(startGenes, endGenes)
	if len(candidates) > 1 {
		return HostAmbiguous
	}
	return candidates[0]
}

// intersect returns the elements of a also present in b, in a's order.
func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	inB := make(map[string]bool, len(b))
	for _, s := range b {
		inB[s] = true
	}
	var out []string
	for _, s := range a {
		if inB[s] {
			out = append(out, s)
		}
	}
	return out
}

// union returns the unique elements of a then b, preserving first occurrence.
func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
