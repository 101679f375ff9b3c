package annotate

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circmine/circmine/internal/junction"
	"github.com/circmine/circmine/internal/refset"
)

// fakeResolver resolves symbols from a static map.
type fakeResolver struct {
	symbols map[string]string
	calls   int
}

func (f *fakeResolver) ResolveSymbols(ctx context.Context, geneIDs []string, organism, releaseTag string) (map[string]string, error) {
	f.calls++
	out := make(map[string]string)
	for _, id := range geneIDs {
		if s, ok := f.symbols[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

// testPipelineReference builds a reference where G1 spans chr1:50-1000 with
// intronic sequence under positions 100 and 500, both of which are known
// linear splice boundaries.
func testPipelineReference(t *testing.T) *refset.Reference {
	t.Helper()

	genes, err := refset.NewGeneCollection([]refset.Interval{
		{Chrom: "chr1", Start: 50, End: 1000, Strand: refset.StrandForward, Name: "G1"},
	})
	require.NoError(t, err)

	sub := mustCollection(t,
		refset.Set{Name: refset.FeatureUTR5},
		refset.Set{Name: refset.FeatureUTR3},
		refset.Set{Name: refset.FeatureCDS, Intervals: []refset.Interval{iv("chr1", 151, 449)}},
		refset.Set{Name: refset.FeatureIntron, Intervals: []refset.Interval{
			iv("chr1", 60, 150),
			iv("chr1", 450, 600),
		}},
	)

	junct := mustCollection(t,
		refset.Set{Name: refset.JunctionStart, Intervals: []refset.Interval{iv("chr1", 100, 100)}},
		refset.Set{Name: refset.JunctionEnd, Intervals: []refset.Interval{iv("chr1", 500, 500)}},
	)

	return &refset.Reference{Genes: genes, SubFeatures: sub, Junctions: junct}
}

func TestPipeline_EndToEnd(t *testing.T) {
	ref := testPipelineReference(t)
	resolver := &fakeResolver{symbols: map[string]string{"G1": "GENE1"}}
	p := NewPipeline(ref, resolver, Config{
		Organism: "homo_sapiens",
		Assembly: "hg38",
		Releases: map[string]string{"homo_sapiens": "110"},
	})

	c := &junction.Candidate{
		Interval:    refset.Interval{Chrom: "chr1", Start: 100, End: 500, Strand: refset.StrandForward, Name: "circ_1"},
		CircReads:   10,
		LinearStart: 4,
		LinearEnd:   6,
	}
	require.NoError(t, p.Annotate(context.Background(), []*junction.Candidate{c}))

	assert.Equal(t, "G1", c.Host)
	assert.Equal(t, "intron", c.Feature)
	assert.Equal(t, JunctBoth, c.JunctKnown)
	assert.Equal(t, "GENE1", c.Gene)
	assert.Equal(t, 2.0, c.Ratio)
	assert.Equal(t, 1, resolver.calls)
}

func TestPipeline_MissingSymbolTolerated(t *testing.T) {
	ref := testPipelineReference(t)
	resolver := &fakeResolver{symbols: map[string]string{}}
	p := NewPipeline(ref, resolver, Config{Organism: "homo_sapiens"})

	c := &junction.Candidate{
		Interval: refset.Interval{Chrom: "chr1", Start: 100, End: 500, Strand: refset.StrandForward},
	}
	require.NoError(t, p.Annotate(context.Background(), []*junction.Candidate{c}))

	assert.Equal(t, "G1", c.Host)
	assert.Equal(t, "", c.Gene, "missing symbol is not an error")
}

func TestPipeline_NilResolver(t *testing.T) {
	p := NewPipeline(testPipelineReference(t), nil, Config{})

	c := &junction.Candidate{
		Interval: refset.Interval{Chrom: "chr1", Start: 100, End: 500, Strand: refset.StrandForward},
	}
	require.NoError(t, p.Annotate(context.Background(), []*junction.Candidate{c}))
	assert.Equal(t, "", c.Gene)
}

func TestPipeline_SentinelHostsSkipLookup(t *testing.T) {
	ref := testPipelineReference(t)
	resolver := &fakeResolver{symbols: map[string]string{}}
	p := NewPipeline(ref, resolver, Config{})

	c := &junction.Candidate{
		Interval: refset.Interval{Chrom: "chr9", Start: 100, End: 500, Strand: refset.StrandForward},
	}
	require.NoError(t, p.Annotate(context.Background(), []*junction.Candidate{c}))

	assert.Equal(t, HostIntergenic, c.Host)
	assert.Equal(t, 0, resolver.calls, "no gene hosts, no lookup")
}

// candidateTable renders candidates back into the input format, dropping the
// annotation columns, the way a consumer would round-trip pipeline output.
func candidateTable(cands []*junction.Candidate) string {
	var b strings.Builder
	b.WriteString("chrom\tstart\tend\tname\tn_reads\tstrand\tn_lin_start\tn_lin_end\n")
	for _, c := range cands {
		fmt.Fprintf(&b, "%s\t%d\t%d\t%s\t%d\t%s\t%d\t%d\n",
			c.Chrom, c.Start-1, c.End, c.Name, c.CircReads,
			refset.StrandString(c.Strand), c.LinearStart, c.LinearEnd)
	}
	return b.String()
}

func TestPipeline_Idempotent(t *testing.T) {
	ref := testPipelineReference(t)
	resolver := &fakeResolver{symbols: map[string]string{"G1": "GENE1"}}
	p := NewPipeline(ref, resolver, Config{Organism: "homo_sapiens"})

	table := "chrom\tstart\tend\tname\tn_reads\tstrand\tn_lin_start\tn_lin_end\n" +
		"chr1\t99\t500\tcirc_1\t10\t+\t4\t6\n" +
		"chr1\t199\t400\tcirc_2\t3\t-\t0\t0\n" +
		"chr9\t99\t500\tcirc_3\t1\t+\t1\t1\n"

	parser, err := junction.NewParserFromReader(strings.NewReader(table))
	require.NoError(t, err)
	first := drain(t, parser)
	require.NoError(t, p.Annotate(context.Background(), first))

	parser, err = junction.NewParserFromReader(strings.NewReader(candidateTable(first)))
	require.NoError(t, err)
	second := drain(t, parser)
	require.NoError(t, p.Annotate(context.Background(), second))

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Host, second[i].Host, "host row %d", i)
		assert.Equal(t, first[i].Feature, second[i].Feature, "feature row %d", i)
		assert.Equal(t, first[i].JunctKnown, second[i].JunctKnown, "junct_known row %d", i)
		assert.Equal(t, first[i].Gene, second[i].Gene, "gene row %d", i)
	}
}

func drain(t *testing.T, p *junction.Parser) []*junction.Candidate {
	t.Helper()
	var cands []*junction.Candidate
	for {
		c, err := p.Next()
		require.NoError(t, err)
		if c == nil {
			return cands
		}
		cands = append(cands, c)
	}
}
