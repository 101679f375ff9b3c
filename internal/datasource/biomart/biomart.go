// Package biomart resolves gene identifiers to display symbols over a
// biomart-style REST endpoint.
package biomart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Resolver queries a biomart-style lookup service. It performs no retries or
// caching; an unresolvable identifier is simply absent from the result.
type Resolver struct {
	baseURL    string
	httpClient *http.Client
}

// NewResolver creates a resolver against the given service host
// (e.g. "https://rest.ensembl.org").
func NewResolver(baseURL string) *Resolver {
	return &Resolver{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// lookupRequest is the JSON body of a batched symbol lookup.
type lookupRequest struct {
	IDs      []string `json:"ids"`
	Organism string   `json:"species"`
	Release  string   `json:"release,omitempty"`
}

// lookupEntry is one record of the lookup response.
type lookupEntry struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// ResolveSymbols maps gene identifiers to display symbols for the given
// organism and annotation release. Identifiers the service does not know are
// left out of the returned map; that is a valid, non-error outcome.
func (r *Resolver) ResolveSymbols(ctx context.Context, geneIDs []string, organism, releaseTag string) (map[string]string, error) {
	if len(geneIDs) == 0 {
		return map[string]string{}, nil
	}

	body, err := json.Marshal(lookupRequest{IDs: geneIDs, Organism: organism, Release: releaseTag})
	if err != nil {
		return nil, fmt.Errorf("encode lookup request: %w", err)
	}

	url := r.baseURL + "/lookup/id"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("lookup service error %d: %s", resp.StatusCode, string(msg))
	}

	var entries map[string]lookupEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode lookup response: %w", err)
	}

	symbols := make(map[string]string, len(entries))
	for id, e := range entries {
		if e.DisplayName == "" {
			continue // missing symbol is a valid result
		}
		symbols[id] = e.DisplayName
	}

	return symbols, nil
}
