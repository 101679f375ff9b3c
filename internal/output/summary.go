package output

import (
	"fmt"
	"io"
	"sort"

	"github.com/circmine/circmine/internal/annotate"
	"github.com/circmine/circmine/internal/junction"
)

// Summary aggregates category counts over an annotated candidate set:
// host categories (individual genes collapsed into one bucket), feature
// labels and junction-known labels.
type Summary struct {
	Total    int
	Hosts    map[string]int
	Features map[string]int
	Known    map[string]int
}

// Summarize counts annotation categories across candidates.
func Summarize(cands []*junction.Candidate) *Summary {
	s := &Summary{
		Hosts:    make(map[string]int),
		Features: make(map[string]int),
		Known:    make(map[string]int),
	}
	for _, c := range cands {
		s.Total++
		s.Hosts[hostBucket(c.Host)]++
		s.Features[c.Feature]++
		s.Known[c.JunctKnown]++
	}
	return s
}

// Merge adds another summary's counts into s.
func (s *Summary) Merge(other *Summary) {
	if s.Hosts == nil {
		s.Hosts = make(map[string]int)
		s.Features = make(map[string]int)
		s.Known = make(map[string]int)
	}
	s.Total += other.Total
	for k, v := range other.Hosts {
		s.Hosts[k] += v
	}
	for k, v := range other.Features {
		s.Features[k] += v
	}
	for k, v := range other.Known {
		s.Known[k] += v
	}
}

// hostBucket collapses concrete gene hosts into a single category so the
// summary stays readable on large inputs.
func hostBucket(host string) string {
	switch host {
	case annotate.HostAmbiguous, annotate.HostIntergenic, annotate.HostNoSingleHost:
		return host
	}
	return "single_host"
}

// Write renders the summary as text, categories sorted by descending count.
func (s *Summary) Write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "candidates\t%d\n", s.Total); err != nil {
		return err
	}
	for _, section := range []struct {
		name   string
		counts map[string]int
	}{
		{"host", s.Hosts},
		{"feature", s.Features},
		{"junct_known", s.Known},
	} {
		for _, kv := range sortedCounts(section.counts) {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%d\n", section.name, kv.key, kv.count); err != nil {
				return err
			}
		}
	}
	return nil
}

type keyCount struct {
	key   string
	count int
}

func sortedCounts(m map[string]int) []keyCount {
	out := make([]keyCount, 0, len(m))
	for k, v := range m {
		out = append(out, keyCount{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	return out
}
