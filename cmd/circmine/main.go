// Package main provides the circmine command-line tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/circmine/circmine/internal/annotate"
	"github.com/circmine/circmine/internal/datasource/biomart"
	"github.com/circmine/circmine/internal/datasource/circbase"
	"github.com/circmine/circmine/internal/output"
	"github.com/circmine/circmine/internal/refset"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var showVersion bool
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Parse()

	if showVersion {
		fmt.Printf("circmine version %s (%s) built %s\n", version, commit, date)
		return ExitSuccess
	}

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		return ExitUsage
	}

	switch args[0] {
	case "annotate":
		return runAnnotate(args[1:])
	case "build":
		return runBuild(args[1:])
	case "lookup":
		return runLookup(args[1:])
	case "studies":
		return runStudies(args[1:])
	case "config":
		return runConfig(args[1:])
	case "help":
		printUsage()
		return ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", args[0])
		printUsage()
		return ExitUsage
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `circmine - circRNA junction annotation

Usage:
  circmine [options] <command> [arguments]

Commands:
  annotate    Annotate circRNA candidate junction tables
  build       Build a reference store from a GTF file
  lookup      Cross-reference circRNA IDs against a circRNA database
  studies     List studies in a circRNA database
  config      Manage circmine configuration
  help        Show this help message

Global Options:
  --version   Show version information

Examples:
  # Build a reference store from GENCODE annotations (one-time setup)
  circmine build --gtf gencode.v44.gtf.gz --output ref.duckdb

  # Annotate one or more junction tables
  circmine annotate --ref ref.duckdb sites.bed

  # Cross-reference candidates against circBase
  circmine lookup --db circbase.duckdb hsa_circ_0000001 hsa_circ_0000002

For more information on a command, use:
  circmine <command> --help
`)
}

func runAnnotate(args []string) int {
	fs := flag.NewFlagSet("annotate", flag.ExitOnError)

	var (
		refPath    string
		gtfPath    string
		outputFile string
		organism   string
		assembly   string
		releaseTag string
		symbolURL  string
		summary    bool
		workers    int
	)

	fs.StringVar(&refPath, "ref", "", "Reference store (.duckdb) built with 'circmine build'")
	fs.StringVar(&gtfPath, "gtf", "", "Load reference directly from a GTF file instead of a store")
	fs.StringVar(&outputFile, "o", "", "Output file (default: stdout)")
	fs.StringVar(&outputFile, "output", "", "Output file (default: stdout)")
	fs.StringVar(&organism, "organism", "homo_sapiens", "Organism name")
	fs.StringVar(&assembly, "assembly", "hg38", "Genome assembly")
	fs.StringVar(&releaseTag, "release", "110", "Annotation release tag for symbol lookup")
	fs.StringVar(&symbolURL, "symbols-url", "", "Gene symbol lookup service URL (disabled when empty)")
	fs.BoolVar(&summary, "summary", false, "Print category counts to stderr")
	fs.IntVar(&workers, "workers", 0, "Worker count for multiple input files (0 = NumCPU)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Annotate circRNA candidate junction tables with genomic context.

Usage:
  circmine annotate [options] <junction-table>...

Arguments:
  <junction-table>  Tab-delimited junction-call tables (use '-' for stdin)

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  circmine annotate --ref ref.duckdb sites.bed
  circmine annotate --gtf gencode.v44.gtf.gz -o annotated.tsv sites.bed
  circmine annotate --ref s3://bucket/ref.duckdb --workers 4 a.bed b.bed c.bed
`)
	}

	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: junction table argument required\n\n")
		fs.Usage()
		return ExitUsage
	}

	ref, code := loadReference(refPath, gtfPath)
	if code != ExitSuccess {
		return code
	}

	var resolver annotate.SymbolResolver
	if symbolURL != "" {
		resolver = biomart.NewResolver(symbolURL)
	}

	cfg := annotate.Config{
		Organism: organism,
		Assembly: assembly,
		Releases: map[string]string{organism: releaseTag},
		Hosts:    map[string]string{assembly: symbolURL},
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		return ExitError
	}
	defer logger.Sync()

	pipeline := annotate.NewPipeline(ref, resolver, cfg)
	pipeline.SetLogger(logger)

	out := os.Stdout
	if outputFile != "" {
		out, err = os.Create(outputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
			return ExitError
		}
		defer out.Close()
	}

	writer := output.NewTabWriter(out)
	if err := writer.WriteHeader(); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing header: %v\n", err)
		return ExitError
	}

	summarizer := &output.Summary{}
	results := pipeline.ParallelAnnotateFiles(context.Background(), fs.Args(), workers)
	err = annotate.OrderedCollect(results, func(r annotate.WorkResult) error {
		if r.Err != nil {
			return fmt.Errorf("annotate %s: %w", r.Path, r.Err)
		}
		for _, c := range r.Cands {
			if err := writer.Write(c); err != nil {
				return fmt.Errorf("write candidate: %w", err)
			}
		}
		if summary {
			merged := output.Summarize(r.Cands)
			summarizer.Merge(merged)
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}

	if err := writer.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Error flushing output: %v\n", err)
		return ExitError
	}

	if summary {
		if err := summarizer.Write(os.Stderr); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing summary: %v\n", err)
			return ExitError
		}
	}

	return ExitSuccess
}

// loadReference loads the reference collections from a store or a GTF file.
func loadReference(refPath, gtfPath string) (*refset.Reference, int) {
	switch {
	case refPath != "" && gtfPath != "":
		fmt.Fprintf(os.Stderr, "Error: --ref and --gtf are mutually exclusive\n")
		return nil, ExitUsage
	case refPath != "":
		store, err := refset.OpenStore(refPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening reference store: %v\n", err)
			return nil, ExitError
		}
		defer store.Close()
		ref, err := store.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading reference store: %v\n", err)
			return nil, ExitError
		}
		return ref, ExitSuccess
	case gtfPath != "":
		ref, err := refset.NewGTFLoader(gtfPath).Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading GTF: %v\n", err)
			return nil, ExitError
		}
		return ref, ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Error: either --ref or --gtf is required\n")
		return nil, ExitUsage
	}
}

func runBuild(args []string) int {
	fs := flag.NewFlagSet("build", flag.ExitOnError)

	var (
		gtfPath    string
		outputPath string
	)

	fs.StringVar(&gtfPath, "gtf", "", "Input GTF file (plain or gzipped)")
	fs.StringVar(&outputPath, "output", "", "Output reference store path")
	fs.StringVar(&outputPath, "o", "", "Output reference store path (shorthand)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Build a reference store from GTF annotations.

This command derives gene bodies, gene sub-features (UTRs, CDS, introns) and
known splice-junction boundary points from a GTF file and writes them to a
DuckDB reference store for reuse across annotation runs.

Usage:
  circmine build [options]

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	if gtfPath == "" || outputPath == "" {
		fmt.Fprintf(os.Stderr, "Error: --gtf and --output are required\n\n")
		fs.Usage()
		return ExitUsage
	}

	fmt.Fprintf(os.Stderr, "Building reference store...\n")
	fmt.Fprintf(os.Stderr, "  Input:  %s\n", gtfPath)
	fmt.Fprintf(os.Stderr, "  Output: %s\n", outputPath)

	ref, err := refset.NewGTFLoader(gtfPath).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading GTF: %v\n", err)
		return ExitError
	}

	fmt.Fprintf(os.Stderr, "  Genes: %d\n", ref.Genes.Size())
	fmt.Fprintf(os.Stderr, "  Sub-features: %d\n", ref.SubFeatures.Size())
	fmt.Fprintf(os.Stderr, "  Junction points: %d\n", ref.Junctions.Size())

	store, err := refset.OpenStore(outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating reference store: %v\n", err)
		return ExitError
	}
	defer store.Close()

	if err := store.Build(ref); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing reference store: %v\n", err)
		return ExitError
	}

	fmt.Fprintf(os.Stderr, "Done.\n")
	return ExitSuccess
}

func runLookup(args []string) int {
	fs := flag.NewFlagSet("lookup", flag.ExitOnError)

	var (
		dbPath string
		region string
	)
	fs.StringVar(&dbPath, "db", "", "circRNA database file or URL (s3://...)")
	fs.StringVar(&region, "region", "", "Genomic region chrom:start-end instead of IDs")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Cross-reference circRNA IDs or a genomic region against an external
circRNA database.

Usage:
  circmine lookup --db <database> <circ-id>...
  circmine lookup --db <database> --region chr1:100-500
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if dbPath == "" || (region == "" && fs.NArg() < 1) {
		fmt.Fprintf(os.Stderr, "Error: --db plus circRNA IDs or --region is required\n\n")
		fs.Usage()
		return ExitUsage
	}

	db, err := circbase.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	defer db.Close()

	var records []circbase.Record
	if region != "" {
		chrom, start, end, err := parseRegion(region)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitUsage
		}
		records, err = db.LookupRegion(chrom, start, end)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitError
		}
	} else {
		records, err = db.Lookup(fs.Args())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitError
		}
	}

	fmt.Println("circ_id\tchrom\tstart\tend\tstrand\tgene\tstudy")
	for _, r := range records {
		fmt.Printf("%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			r.CircID, r.Chrom, r.Start, r.End, r.Strand, r.GeneName, r.Study)
	}

	return ExitSuccess
}

// parseRegion parses a chrom:start-end region string.
func parseRegion(region string) (string, int64, int64, error) {
	chrom, span, ok := strings.Cut(region, ":")
	if !ok || chrom == "" {
		return "", 0, 0, fmt.Errorf("invalid region %q: want chrom:start-end", region)
	}
	startField, endField, ok := strings.Cut(span, "-")
	if !ok {
		return "", 0, 0, fmt.Errorf("invalid region %q: want chrom:start-end", region)
	}
	start, err := strconv.ParseInt(startField, 10, 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid region start %q", startField)
	}
	end, err := strconv.ParseInt(endField, 10, 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid region end %q", endField)
	}
	if start > end {
		return "", 0, 0, fmt.Errorf("invalid region %q: start after end", region)
	}
	return chrom, start, end, nil
}

func runStudies(args []string) int {
	fs := flag.NewFlagSet("studies", flag.ExitOnError)

	var dbPath string
	fs.StringVar(&dbPath, "db", "", "circRNA database file or URL (s3://...)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `List the studies present in an external circRNA database.

Usage:
  circmine studies --db <database>
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if dbPath == "" {
		fmt.Fprintf(os.Stderr, "Error: --db is required\n\n")
		fs.Usage()
		return ExitUsage
	}

	db, err := circbase.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	defer db.Close()

	studies, err := db.ListStudies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}

	fmt.Println("study\ttissue\trecords")
	for _, s := range studies {
		fmt.Printf("%s\t%s\t%d\n", s.Name, s.Tissue, s.Records)
	}

	return ExitSuccess
}
