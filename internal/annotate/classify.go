package annotate

import (
	"github.com/circmine/circmine/internal/junction"
	"github.com/circmine/circmine/internal/refset"
)

// Feature label for boundaries outside any annotated gene sub-feature.
const FeatureIntergenic = "intergenic"

// Junction-known categories.
const (
	JunctBoth     = "both"
	JunctNone     = "none"
	Junct5Prime   = "5pr"
	Junct3Prime   = "3pr"
	junctNullName = "None"
)

// ClassifyFeatures labels each candidate with its gene-body feature. Both
// boundaries are annotated independently against the sub-feature collection
// (precedence order utr5, utr3, cds, intron); equal boundary labels collapse
// to one, differing labels compose in transcript 5'-to-3' order, which on the
// reverse strand is the genomic end label first.
func ClassifyFeatures(cands []*junction.Candidate, subFeatures *refset.Collection) error {
	starts := make([]refset.Interval, len(cands))
	ends := make([]refset.Interval, len(cands))
	for i, c := range cands {
		starts[i] = c.Point(c.Start)
		ends[i] = c.Point(c.End)
	}

	opts := Options{
		Mode:        ModePrecedence,
		Overlap:     OverlapAny,
		NullLabel:   FeatureIntergenic,
		StrandAware: false,
	}

	startLabels, err := Labels(starts, subFeatures, opts)
	if err != nil {
		return err
	}
	endLabels, err := Labels(ends, subFeatures, opts)
	if err != nil {
		return err
	}

	for i, c := range cands {
		c.Feature = composeFeature(startLabels[i], endLabels[i], c.Strand)
	}

	return nil
}

// composeFeature merges the two boundary feature labels into one candidate
// label, ordered along the transcript rather than along the chromosome.
func composeFeature(startLabel, endLabel string, strand int8) string {
	if startLabel == endLabel {
		return startLabel
	}
	if strand == refset.StrandReverse {
		return endLabel + ":" + startLabel
	}
	return startLabel + ":" + endLabel
}

// ClassifyJunctions labels each candidate with whether its boundaries
// coincide with known linear splice sites. Boundary results convert to
// booleans (any junction hit counts as known); the pair then maps to "both",
// "none", or the strand-aware single-sided categories "5pr"/"3pr".
func ClassifyJunctions(cands []*junction.Candidate, junctions *refset.Collection) error {
	starts := make([]refset.Interval, len(cands))
	ends := make([]refset.Interval, len(cands))
	for i, c := range cands {
		starts[i] = c.Point(c.Start)
		ends[i] = c.Point(c.End)
	}

	opts := Options{
		Mode:        ModePrecedence,
		Overlap:     OverlapAny,
		NullLabel:   junctNullName,
		StrandAware: false,
	}

	startLabels, err := Labels(starts, junctions, opts)
	if err != nil {
		return err
	}
	endLabels, err := Labels(ends, junctions, opts)
	if err != nil {
		return err
	}

	for i, c := range cands {
		startKnown := startLabels[i] != junctNullName
		endKnown := endLabels[i] != junctNullName
		c.JunctKnown = composeJunctKnown(startKnown, endKnown, c.Strand)
	}

	return nil
}

// composeJunctKnown maps per-boundary known flags onto the candidate
// category. The genomic start boundary is the transcript 5' end on the
// forward strand and the 3' end on the reverse strand.
func composeJunctKnown(startKnown, endKnown bool, strand int8) string {
	switch {
	case startKnown && endKnown:
		return JunctBoth
	case !startKnown && !endKnown:
		return JunctNone
	case startKnown:
		if strand == refset.StrandReverse {
			return Junct3Prime
		}
		return Junct5Prime
	default:
		if strand == refset.StrandReverse {
			return Junct5Prime
		}
		return Junct3Prime
	}
}
