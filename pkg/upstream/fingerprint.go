package upstream

import (
	"sort"
	"strconv"
	"strings"
)

// Fingerprint derives a deterministic cache key from an endpoint and its query
// parameters. Parameter pairs are sorted by key so that mappings with the same
// contents always produce the same fingerprint regardless of insertion order.
// Keys and values are quoted so that separator characters inside free-text
// parameters cannot make two distinct requests share a key.
func Fingerprint(endpoint string, params map[string]string) string {
	if len(params) == 0 {
		return endpoint
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(endpoint)
	for _, k := range keys {
		sb.WriteByte('|')
		sb.WriteString(strconv.Quote(k))
		sb.WriteByte('=')
		sb.WriteString(strconv.Quote(params[k]))
	}
	return sb.String()
}
