package junction

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/circmine/circmine/internal/refset"
)

// Column names of the junction-call table.
const (
	ColChrom       = "chrom"
	ColStart       = "start"
	ColEnd         = "end"
	ColName        = "name"
	ColCircReads   = "n_reads"
	ColStrand      = "strand"
	ColLinearStart = "n_lin_start"
	ColLinearEnd   = "n_lin_end"
)

// FormatError reports a malformed junction table.
type FormatError struct {
	Line    int
	Message string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("junction table line %d: %s", e.Line, e.Message)
}

// columnIndices holds the positions of the required columns.
type columnIndices struct {
	chrom       int
	start       int
	end         int
	name        int
	circReads   int
	strand      int
	linearStart int
	linearEnd   int
}

// Parser reads circRNA candidates from a tab-delimited junction-call table as
// produced by back-splice detection tools. Start coordinates are half-open in
// the input and shifted by +1 on ingestion to the 1-based closed convention
// used everywhere else.
type Parser struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
	columns    columnIndices
}

// NewParser creates a parser for the given file. Supports plain and gzipped
// tables, and "-" for stdin.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open junction table: %w", err)
	}

	p := &Parser{file: file}

	// Check for gzip magic bytes
	buf := make([]byte, 2)
	if _, err := file.Read(buf); err != nil {
		file.Close()
		return nil, fmt.Errorf("read junction table: %w", err)
	}
	if _, err := file.Seek(0, 0); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek junction table: %w", err)
	}

	if buf[0] == 0x1f && buf[1] == 0x8b {
		p.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReader(p.gzipReader)
	} else {
		p.reader = bufio.NewReader(file)
	}

	if err := p.parseHeader(); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g. stdin).
func NewParserFromReader(r io.Reader) (*Parser, error) {
	p := &Parser{reader: bufio.NewReader(r)}
	if err := p.parseHeader(); err != nil {
		return nil, err
	}
	return p, nil
}

// parseHeader locates the required columns in the header line.
func (p *Parser) parseHeader() error {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return &FormatError{Line: p.lineNumber, Message: "no header line found"}
			}
			return fmt.Errorf("read header: %w", err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		// Tool banners use "## "; the header itself may carry a leading "#".
		if strings.HasPrefix(line, "##") {
			continue
		}
		line = strings.TrimPrefix(line, "#")
		line = strings.TrimSpace(line)

		fields := strings.Split(line, "\t")
		idx := columnIndices{
			chrom: -1, start: -1, end: -1, name: -1,
			circReads: -1, strand: -1, linearStart: -1, linearEnd: -1,
		}
		for i, col := range fields {
			switch strings.TrimSpace(col) {
			case ColChrom:
				idx.chrom = i
			case ColStart:
				idx.start = i
			case ColEnd:
				idx.end = i
			case ColName:
				idx.name = i
			case ColCircReads:
				idx.circReads = i
			case ColStrand:
				idx.strand = i
			case ColLinearStart:
				idx.linearStart = i
			case ColLinearEnd:
				idx.linearEnd = i
			}
		}

		missing := idx.missing()
		if len(missing) > 0 {
			return &FormatError{
				Line:    p.lineNumber,
				Message: fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")),
			}
		}

		p.columns = idx
		return nil
	}
}

func (idx columnIndices) missing() []string {
	var missing []string
	for _, c := range []struct {
		name string
		pos  int
	}{
		{ColChrom, idx.chrom}, {ColStart, idx.start}, {ColEnd, idx.end},
		{ColName, idx.name}, {ColCircReads, idx.circReads}, {ColStrand, idx.strand},
		{ColLinearStart, idx.linearStart}, {ColLinearEnd, idx.linearEnd},
	} {
		if c.pos < 0 {
			missing = append(missing, c.name)
		}
	}
	return missing
}

func (idx columnIndices) max() int {
	m := idx.chrom
	for _, v := range []int{idx.start, idx.end, idx.name, idx.circReads, idx.strand, idx.linearStart, idx.linearEnd} {
		if v > m {
			m = v
		}
	}
	return m
}

// Next returns the next candidate, or nil at end of input.
func (p *Parser) Next() (*Candidate, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read junction table: %w", err)
		}
		atEOF := err == io.EOF

		line = strings.TrimRight(line, "\r\n")
		p.lineNumber++

		if line == "" || strings.HasPrefix(line, "#") {
			if atEOF {
				return nil, nil
			}
			continue
		}

		c, perr := p.parseLine(line)
		if perr != nil {
			return nil, perr
		}
		return c, nil
	}
}

// parseLine converts a data row into a Candidate.
func (p *Parser) parseLine(line string) (*Candidate, error) {
	fields := strings.Split(line, "\t")
	if len(fields) <= p.columns.max() {
		return nil, &FormatError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected at least %d columns, got %d", p.columns.max()+1, len(fields)),
		}
	}

	start, err := strconv.ParseInt(fields[p.columns.start], 10, 64)
	if err != nil {
		return nil, &FormatError{Line: p.lineNumber, Message: fmt.Sprintf("invalid start %q", fields[p.columns.start])}
	}
	end, err := strconv.ParseInt(fields[p.columns.end], 10, 64)
	if err != nil {
		return nil, &FormatError{Line: p.lineNumber, Message: fmt.Sprintf("invalid end %q", fields[p.columns.end])}
	}

	// Half-open to 1-based closed conversion.
	start++

	if start > end {
		return nil, &FormatError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("start %d greater than end %d after coordinate correction", start, end),
		}
	}

	circReads, err := strconv.ParseInt(fields[p.columns.circReads], 10, 64)
	if err != nil {
		return nil, &FormatError{Line: p.lineNumber, Message: fmt.Sprintf("invalid read count %q", fields[p.columns.circReads])}
	}
	linStart, err := strconv.ParseInt(fields[p.columns.linearStart], 10, 64)
	if err != nil {
		return nil, &FormatError{Line: p.lineNumber, Message: fmt.Sprintf("invalid linear start support %q", fields[p.columns.linearStart])}
	}
	linEnd, err := strconv.ParseInt(fields[p.columns.linearEnd], 10, 64)
	if err != nil {
		return nil, &FormatError{Line: p.lineNumber, Message: fmt.Sprintf("invalid linear end support %q", fields[p.columns.linearEnd])}
	}

	return &Candidate{
		Interval: refset.Interval{
			Chrom:  refset.NormalizeChrom(fields[p.columns.chrom]),
			Start:  start,
			End:    end,
			Strand: refset.ParseStrand(fields[p.columns.strand]),
			Name:   fields[p.columns.name],
		},
		CircReads:   circReads,
		LinearStart: linStart,
		LinearEnd:   linEnd,
	}, nil
}

// Close releases the underlying file handles.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// Load reads an entire junction table into memory.
func Load(path string) ([]*Candidate, error) {
	p, err := NewParser(path)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	var cands []*Candidate
	for {
		c, err := p.Next()
		if err != nil {
			return nil, err
		}
		if c == nil {
			return cands, nil
		}
		cands = append(cands, c)
	}
}
