package upstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint_OrderIndependent(t *testing.T) {
	a := map[string]string{"query": "insulin", "size": "10", "format": "json"}
	b := map[string]string{"format": "json", "size": "10", "query": "insulin"}

	assert.Equal(t, Fingerprint("/uniprotkb/search", a), Fingerprint("/uniprotkb/search", b))
}

func TestFingerprint_DistinguishesRequests(t *testing.T) {
	tests := []struct {
		name      string
		endpointA string
		paramsA   map[string]string
		endpointB string
		paramsB   map[string]string
	}{
		{
			name:      "different endpoint",
			endpointA: "/uniprotkb/search",
			paramsA:   map[string]string{"query": "insulin"},
			endpointB: "/uniprotkb/P05067",
			paramsB:   map[string]string{"query": "insulin"},
		},
		{
			name:      "different value",
			endpointA: "/uniprotkb/search",
			paramsA:   map[string]string{"query": "insulin"},
			endpointB: "/uniprotkb/search",
			paramsB:   map[string]string{"query": "amylase"},
		},
		{
			name:      "different key",
			endpointA: "/uniprotkb/search",
			paramsA:   map[string]string{"query": "insulin"},
			endpointB: "/uniprotkb/search",
			paramsB:   map[string]string{"gene": "insulin"},
		},
		{
			name:      "separator characters in free-text values",
			endpointA: "/ContentService/search/query",
			paramsA:   map[string]string{"query": "apoptosis|species=X", "species": "S"},
			endpointB: "/ContentService/search/query",
			paramsB:   map[string]string{"query": "apoptosis", "species": "X|species=S"},
		},
		{
			name:      "value shifted between adjacent pairs",
			endpointA: "/search",
			paramsA:   map[string]string{"a": "1=2", "b": "3"},
			endpointB: "/search",
			paramsB:   map[string]string{"a": "1", "2|b": "3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t,
				Fingerprint(tt.endpointA, tt.paramsA),
				Fingerprint(tt.endpointB, tt.paramsB))
		})
	}
}

func TestFingerprint_NoParams(t *testing.T) {
	assert.Equal(t, "/data/species/main", Fingerprint("/data/species/main", nil))
	assert.Equal(t, "/data/species/main", Fingerprint("/data/species/main", map[string]string{}))
}
