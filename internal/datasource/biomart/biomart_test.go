package biomart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSymbols(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/lookup/id", r.URL.Path)

		var req lookupRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "homo_sapiens", req.Organism)
		assert.Equal(t, "110", req.Release)

		// ENSG002 resolves with an empty display name, ENSG003 is unknown.
		resp := map[string]lookupEntry{
			"ENSG001": {ID: "ENSG001", DisplayName: "KRAS"},
			"ENSG002": {ID: "ENSG002", DisplayName: ""},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	r := NewResolver(srv.URL)
	symbols, err := r.ResolveSymbols(context.Background(),
		[]string{"ENSG001", "ENSG002", "ENSG003"}, "homo_sapiens", "110")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"ENSG001": "KRAS"}, symbols,
		"missing symbols are absent, not errors")
}

func TestResolveSymbols_EmptyInput(t *testing.T) {
	r := NewResolver("http://unused.invalid")
	symbols, err := r.ResolveSymbols(context.Background(), nil, "homo_sapiens", "110")
	require.NoError(t, err)
	assert.Empty(t, symbols)
}

func TestResolveSymbols_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "release not found", http.StatusBadRequest)
	}))
	defer srv.Close()

	r := NewResolver(srv.URL)
	_, err := r.ResolveSymbols(context.Background(), []string{"ENSG001"}, "homo_sapiens", "999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "release not found")
}

func TestResolveSymbols_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewResolver(srv.URL)
	_, err := r.ResolveSymbols(ctx, []string{"ENSG001"}, "homo_sapiens", "110")
	assert.Error(t, err)
}
