package refset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollection_PrecedenceIsDeclarationOrder(t *testing.T) {
	c, err := NewCollection(
		Set{Name: "utr5", Intervals: []Interval{{Chrom: "chr1", Start: 1, End: 10}}},
		Set{Name: "cds", Intervals: []Interval{{Chrom: "chr1", Start: 5, End: 20}}},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"utr5", "cds"}, c.Names())

	hits := c.Overlapping(Interval{Chrom: "chr1", Start: 7, End: 7})
	require.Len(t, hits, 2)
	assert.Equal(t, 0, hits[0].Rank)
	assert.Equal(t, "utr5", hits[0].SetName)
	assert.Equal(t, 1, hits[1].Rank)
	assert.Equal(t, "cds", hits[1].SetName)
}

func TestNewCollection_Validation(t *testing.T) {
	tests := []struct {
		name string
		sets []Set
	}{
		{"no sets", nil},
		{"empty name", []Set{{Name: "", Intervals: []Interval{{Chrom: "chr1", Start: 1, End: 2}}}}},
		{"duplicate name", []Set{
			{Name: "cds", Intervals: []Interval{{Chrom: "chr1", Start: 1, End: 2}}},
			{Name: "cds", Intervals: []Interval{{Chrom: "chr1", Start: 3, End: 4}}},
		}},
		{"start after end", []Set{{Name: "cds", Intervals: []Interval{{Chrom: "chr1", Start: 10, End: 2}}}}},
		{"missing chrom", []Set{{Name: "cds", Intervals: []Interval{{Start: 1, End: 2}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCollection(tt.sets...)
			require.Error(t, err)
			var typeErr *TypeError
			assert.ErrorAs(t, err, &typeErr)
		})
	}
}

func TestNewCollection_EmptySubCollectionAllowed(t *testing.T) {
	c, err := NewCollection(
		Set{Name: "utr5"},
		Set{Name: "cds", Intervals: []Interval{{Chrom: "chr1", Start: 5, End: 20}}},
	)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Size())
}

func TestNewCollection_NormalizesChromosomes(t *testing.T) {
	c, err := NewCollection(
		Set{Name: "cds", Intervals: []Interval{
			{Chrom: "1", Start: 5, End: 20},
			{Chrom: "MT", Start: 100, End: 200},
		}},
	)
	require.NoError(t, err)

	assert.Len(t, c.Overlapping(Interval{Chrom: "chr1", Start: 10, End: 10}), 1)
	assert.Len(t, c.Overlapping(Interval{Chrom: "chrM", Start: 150, End: 150}), 1)
	assert.Len(t, c.Overlapping(Interval{Chrom: "MT", Start: 150, End: 150}), 1, "query normalized too")
}

func TestNewGeneCollection(t *testing.T) {
	genes := []Interval{
		{Chrom: "chr1", Start: 100, End: 1000, Strand: StrandForward, Name: "G1"},
		{Chrom: "chr1", Start: 500, End: 2000, Strand: StrandReverse, Name: "G2"},
	}
	c, err := NewGeneCollection(genes)
	require.NoError(t, err)
	assert.Equal(t, []string{"G1", "G2"}, c.Names())

	hits := c.Overlapping(Interval{Chrom: "chr1", Start: 600, End: 600})
	require.Len(t, hits, 2)
	// Both genes are on one precedence tier.
	assert.Equal(t, 0, hits[0].Rank)
	assert.Equal(t, 0, hits[1].Rank)
}

func TestNewGeneCollection_RequiresIdentifier(t *testing.T) {
	_, err := NewGeneCollection([]Interval{{Chrom: "chr1", Start: 100, End: 1000}})
	var typeErr *TypeError
	assert.ErrorAs(t, err, &typeErr)
}

func TestNormalizeChrom(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"1", "chr1"},
		{"chr1", "chr1"},
		{"MT", "chrM"},
		{"chrMT", "chrM"},
		{"chrM", "chrM"},
		{"X", "chrX"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeChrom(tt.in), tt.in)
	}
}
