package annotate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/circmine/circmine/internal/junction"
	"github.com/circmine/circmine/internal/refset"
)

// SymbolResolver maps host gene identifiers to display symbols. A missing
// symbol is a valid result: the returned map simply lacks the entry.
type SymbolResolver interface {
	ResolveSymbols(ctx context.Context, geneIDs []string, organism, releaseTag string) (map[string]string, error)
}

// Config carries the pipeline's organism and assembly settings together with
// the lookup tables the collaborators need.
type Config struct {
	Organism string
	Assembly string
	Releases map[string]string // organism -> annotation release tag
	Hosts    map[string]string // assembly -> database host
}

// ReleaseTag returns the annotation release configured for the organism.
func (c Config) ReleaseTag() string {
	return c.Releases[c.Organism]
}

// DatabaseHost returns the database host configured for the assembly.
func (c Config) DatabaseHost() string {
	return c.Hosts[c.Assembly]
}

// Pipeline runs the full annotation sequence over one junction table: load,
// ratio computation, host gene resolution, feature and junction
// classification, then gene symbol resolution. Reference collections are read
// only and may be shared across concurrently running pipelines.
type Pipeline struct {
	ref      *refset.Reference
	resolver SymbolResolver
	cfg      Config
	logger   *zap.Logger
}

// NewPipeline creates an annotation pipeline over the given reference
// collections. The resolver may be nil, in which case symbols stay empty.
func NewPipeline(ref *refset.Reference, resolver SymbolResolver, cfg Config) *Pipeline {
	return &Pipeline{
		ref:      ref,
		resolver: resolver,
		cfg:      cfg,
		logger:   zap.NewNop(),
	}
}

// SetLogger sets the logger for warning and info messages.
func (p *Pipeline) SetLogger(l *zap.Logger) {
	p.logger = l
}

// AnnotateFile loads a junction table and annotates its candidates.
// Any failure aborts the call; no partial output is returned.
func (p *Pipeline) AnnotateFile(ctx context.Context, path string) ([]*junction.Candidate, error) {
	cands, err := junction.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load junction table: %w", err)
	}
	if err := p.Annotate(ctx, cands); err != nil {
		return nil, err
	}
	return cands, nil
}

// Annotate runs the annotation stages over already-loaded candidates.
func (p *Pipeline) Annotate(ctx context.Context, cands []*junction.Candidate) error {
	junction.ComputeRatios(cands)

	if err := ResolveHosts(cands, p.ref.Genes); err != nil {
		return fmt.Errorf("resolve host genes: %w", err)
	}
	if err := ClassifyFeatures(cands, p.ref.SubFeatures); err != nil {
		return fmt.Errorf("classify features: %w", err)
	}
	if err := ClassifyJunctions(cands, p.ref.Junctions); err != nil {
		return fmt.Errorf("classify junctions: %w", err)
	}

	return p.resolveSymbols(ctx, cands)
}

// resolveSymbols fills the Gene column for candidates whose host is an
// actual gene identifier. Sentinel categories are skipped and unresolved
// identifiers are tolerated.
func (p *Pipeline) resolveSymbols(ctx context.Context, cands []*junction.Candidate) error {
	if p.resolver == nil {
		return nil
	}

	seen := make(map[string]bool)
	var ids []string
	for _, c := range cands {
		if !isGeneHost(c.Host) || seen[c.Host] {
			continue
		}
		seen[c.Host] = true
		ids = append(ids, c.Host)
	}
	if len(ids) == 0 {
		return nil
	}

	symbols, err := p.resolver.ResolveSymbols(ctx, ids, p.cfg.Organism, p.cfg.ReleaseTag())
	if err != nil {
		return fmt.Errorf("resolve gene symbols: %w", err)
	}

	for _, c := range cands {
		if !isGeneHost(c.Host) {
			continue
		}
		symbol, ok := symbols[c.Host]
		if !ok {
			p.logger.Warn("no symbol for host gene",
				zap.String("gene", c.Host),
				zap.String("organism", p.cfg.Organism))
			continue
		}
		c.Gene = symbol
	}

	return nil
}

// isGeneHost reports whether a host value names a gene rather than one of the
// sentinel categories.
func isGeneHost(host string) bool {
	switch host {
	case "", HostAmbiguous, HostIntergenic, HostNoSingleHost:
		return false
	}
	return true
}
