package openapi

import "strings"

// RedactionRule replaces the value(s) matched by an RFC 9535-subset
// JSONPath expression with Replacement wherever it matches inside an
// example value. Redaction only ever touches examples, never schemas
// and never a live request made during a test — it exists purely to
// keep secrets out of the assembled document (§4.8).
type RedactionRule struct {
	Path        string
	Replacement any
}

// defaultRedactionReplacement is used when a RedactionRule leaves
// Replacement nil.
const defaultRedactionReplacement = "REDACTED"

// pathSegment is one step of a parsed JSONPath-subset expression:
// either a literal object key or the "*" wildcard, which matches every
// key of an object or every index of an array.
type pathSegment struct {
	wildcard bool
	key      string
}

func parseJSONPath(path string) []pathSegment {
	path = strings.TrimPrefix(path, "$.")
	path = strings.TrimPrefix(path, "$")
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ".")
	segments := make([]pathSegment, len(parts))
	for i, p := range parts {
		if p == "*" {
			segments[i] = pathSegment{wildcard: true}
			continue
		}
		segments[i] = pathSegment{key: p}
	}
	return segments
}

// redactExample applies every rule to example in place (example must be
// the result of a JSON round-trip, i.e. a tree of
// map[string]any/[]any/primitives, not a typed Go value) and returns the
// possibly-modified tree.
func redactExample(example any, rules []RedactionRule) any {
	for _, rule := range rules {
		segments := parseJSONPath(rule.Path)
		replacement := rule.Replacement
		if replacement == nil {
			replacement = defaultRedactionReplacement
		}
		example = applyRedaction(example, segments, replacement)
	}
	return example
}

func applyRedaction(node any, segments []pathSegment, replacement any) any {
	if len(segments) == 0 {
		return replacement
	}
	seg := segments[0]
	rest := segments[1:]

	switch v := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			if seg.wildcard || seg.key == k {
				out[k] = applyRedaction(val, rest, replacement)
			} else {
				out[k] = val
			}
		}
		return out
	case []any:
		if !seg.wildcard {
			return v
		}
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = applyRedaction(val, rest, replacement)
		}
		return out
	default:
		return node
	}
}
