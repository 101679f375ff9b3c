package annotate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circmine/circmine/internal/junction"
	"github.com/circmine/circmine/internal/refset"
)

func cand(chrom string, start, end int64, strand int8) *junction.Candidate {
	return &junction.Candidate{
		Interval: refset.Interval{Chrom: chrom, Start: start, End: end, Strand: strand},
	}
}

func mustGenes(t *testing.T, genes ...refset.Interval) *refset.Collection {
	t.Helper()
	c, err := refset.NewGeneCollection(genes)
	require.NoError(t, err)
	return c
}

func resolveOne(t *testing.T, c *junction.Candidate, genes *refset.Collection) string {
	t.Helper()
	require.NoError(t, ResolveHosts([]*junction.Candidate{c}, genes))
	return c.Host
}

func TestResolveHosts_SingleSharedGene(t *testing.T) {
	genes := mustGenes(t,
		refset.Interval{Chrom: "chr1", Start: 50, End: 1000, Name: "G1"},
		refset.Interval{Chrom: "chr1", Start: 2000, End: 3000, Name: "G2"},
	)

	c := cand("chr1", 100, 500, refset.StrandForward)
	assert.Equal(t, "G1", resolveOne(t, c, genes))
}

func TestResolveHosts_SharedGeneAmongOthers(t *testing.T) {
	// Start boundary also falls in G0, but only G1 contains both boundaries.
	genes := mustGenes(t,
		refset.Interval{Chrom: "chr1", Start: 50, End: 150, Name: "G0"},
		refset.Interval{Chrom: "chr1", Start: 60, End: 1000, Name: "G1"},
	)

	c := cand("chr1", 100, 500, refset.StrandForward)
	assert.Equal(t, "G1", resolveOne(t, c, genes))
}

func TestResolveHosts_MultipleSharedGenesAmbiguous(t *testing.T) {
	genes := mustGenes(t,
		refset.Interval{Chrom: "chr1", Start: 50, End: 1000, Name: "G1"},
		refset.Interval{Chrom: "chr1", Start: 60, End: 900, Name: "G2"},
	)

	c := cand("chr1", 100, 500, refset.StrandForward)
	assert.Equal(t, HostAmbiguous, resolveOne(t, c, genes))
}

func TestResolveHosts_Intergenic(t *testing.T) {
	genes := mustGenes(t,
		refset.Interval{Chrom: "chr1", Start: 5000, End: 6000, Name: "G1"},
	)

	c := cand("chr1", 100, 500, refset.StrandForward)
	assert.Equal(t, HostIntergenic, resolveOne(t, c, genes))
}

func TestResolveHosts_IntergenicIgnoresInternalGene(t *testing.T) {
	// Known approximation carried over from the original classification: a
	// gene strictly inside the candidate, touching neither boundary, does not
	// prevent the intergenic call.
	genes := mustGenes(t,
		refset.Interval{Chrom: "chr1", Start: 200, End: 400, Name: "INNER"},
	)

	c := cand("chr1", 100, 500, refset.StrandForward)
	assert.Equal(t, HostIntergenic, resolveOne(t, c, genes))
}

func TestResolveHosts_HostGeneWithShortNeighbor(t *testing.T) {
	// A nested short gene downstream of the host's start must not hide the
	// containing gene from the boundary lookups.
	genes := mustGenes(t,
		refset.Interval{Chrom: "chr1", Start: 1000, End: 10000, Name: "HOST"},
		refset.Interval{Chrom: "chr1", Start: 2000, End: 2100, Name: "NESTED"},
	)

	c := cand("chr1", 4000, 6000, refset.StrandForward)
	assert.Equal(t, "HOST", resolveOne(t, c, genes))
}

func TestResolveHosts_NoSingleHost(t *testing.T) {
	genes := mustGenes(t,
		refset.Interval{Chrom: "chr1", Start: 50, End: 150, Name: "G1"},
		refset.Interval{Chrom: "chr1", Start: 450, End: 900, Name: "G2"},
	)

	c := cand("chr1", 100, 500, refset.StrandForward)
	assert.Equal(t, HostNoSingleHost, resolveOne(t, c, genes))
}

func TestResolveHosts_OneBoundarySingleGene(t *testing.T) {
	genes := mustGenes(t,
		refset.Interval{Chrom: "chr1", Start: 50, End: 150, Name: "G1"},
	)

	c := cand("chr1", 100, 500, refset.StrandForward)
	assert.Equal(t, "G1", resolveOne(t, c, genes), "start boundary match")

	c = cand("chr1", 10, 100, refset.StrandForward)
	assert.Equal(t, "G1", resolveOne(t, c, genes), "end boundary match")
}

func TestResolveHosts_OneBoundaryMultipleGenesAmbiguous(t *testing.T) {
	genes := mustGenes(t,
		refset.Interval{Chrom: "chr1", Start: 50, End: 150, Name: "G1"},
		refset.Interval{Chrom: "chr1", Start: 60, End: 140, Name: "G2"},
	)

	c := cand("chr1", 100, 500, refset.StrandForward)
	assert.Equal(t, HostAmbiguous, resolveOne(t, c, genes))
}

func TestResolveHosts_BoundaryContainmentIsInclusive(t *testing.T) {
	genes := mustGenes(t,
		refset.Interval{Chrom: "chr1", Start: 100, End: 500, Name: "G1"},
	)

	// Boundaries exactly on the gene edges are contained.
	c := cand("chr1", 100, 500, refset.StrandForward)
	assert.Equal(t, "G1", resolveOne(t, c, genes))
}

func TestResolveHosts_IgnoresStrand(t *testing.T) {
	genes := mustGenes(t,
		refset.Interval{Chrom: "chr1", Start: 50, End: 1000, Strand: refset.StrandForward, Name: "G1"},
	)

	c := cand("chr1", 100, 500, refset.StrandReverse)
	assert.Equal(t, "G1", resolveOne(t, c, genes))
}

func TestResolveHosts_ManyCandidates(t *testing.T) {
	genes := mustGenes(t,
		refset.Interval{Chrom: "chr1", Start: 50, End: 1000, Name: "G1"},
		refset.Interval{Chrom: "chr2", Start: 50, End: 1000, Name: "G2"},
	)

	cands := []*junction.Candidate{
		cand("chr1", 100, 500, refset.StrandForward),
		cand("chr2", 100, 500, refset.StrandForward),
		cand("chr3", 100, 500, refset.StrandForward),
	}
	require.NoError(t, ResolveHosts(cands, genes))

	assert.Equal(t, "G1", cands[0].Host)
	assert.Equal(t, "G2", cands[1].Host)
	assert.Equal(t, HostIntergenic, cands[2].Host)
}
