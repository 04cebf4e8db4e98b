// Package sources defines the uniform contract every data provider adapter
// implements, plus the shared HTTP plumbing the scraping adapters use. The
// orchestrator treats adapters as opaque and untrusted: all provider
// protocol handling, retries, and timeouts live behind this boundary.
package sources

import (
	"context"
	"fmt"
	"strings"
)

// Params carries adapter-specific search options. The orchestrator forwards
// the payload verbatim; each adapter reads only the keys it understands.
type Params map[string]any

// String returns the string value for key, or fallback when absent or not a
// string.
func (p Params) String(key, fallback string) string {
	if v, ok := p[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// Int returns the integer value for key, accepting the numeric types JSON
// decoding produces.
func (p Params) Int(key string, fallback int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// StringSlice returns the string list for key. A []string is copied, a []any
// keeps its string-able elements, and a plain string is split on commas.
func (p Params) StringSlice(key string) []string {
	switch v := p[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := fmt.Sprint(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		out := []string{}
		for _, piece := range strings.Split(v, ",") {
			if piece = strings.TrimSpace(piece); piece != "" {
				out = append(out, piece)
			}
		}
		return out
	default:
		return nil
	}
}

// Adapter is the uniform search contract the orchestrator depends on.
//
// Search returns raw provider rows with provider-specific field names; the
// normalizer reconciles them into the canonical schema. Adapters should
// prefer returning an empty slice over an error whenever zero results is a
// valid outcome, and must keep provider failures behind their own boundary
// except for conditions the orchestrator should count as total failure.
//
// ValidateConfig is cheap, synchronous, and performs no I/O. It reports
// whether the adapter has the credentials/setup needed to produce meaningful
// results; it is used for status display, never to gate invocation.
type Adapter interface {
	Name() string
	Search(ctx context.Context, query string, limit, daysBack int, params Params) ([]map[string]any, error)
	ValidateConfig() bool
}
