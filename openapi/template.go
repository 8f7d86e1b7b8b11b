package openapi

import (
	"net/url"
	"strings"
)

// segmentKind distinguishes literal text from a named placeholder inside
// a parsed Template.
type segmentKind int

const (
	segmentLiteral segmentKind = iota
	segmentParam
)

type templateSegment struct {
	kind  segmentKind
	value string // literal text, or the param name
}

// Template is an immutable, parsed URL path template such as
// "/users/{id}/posts/{postId}". It is parsed once and substituted many
// times, once per ApiCall that targets the path.
//
// See: https://spec.openapis.org/oas/v3.1.0#path-templating
type Template struct {
	raw        string
	segments   []templateSegment
	paramNames []string
}

// NewTemplate parses raw into a Template. An unbalanced brace fails with
// a TemplateError of kind "unbalanced".
func NewTemplate(raw string) (*Template, error) {
	var (
		segments []templateSegment
		names    []string
		seen     = map[string]bool{}
		buf      strings.Builder
		inParam  bool
		paramBuf strings.Builder
	)

	flushLiteral := func() {
		if buf.Len() > 0 {
			segments = append(segments, templateSegment{kind: segmentLiteral, value: buf.String()})
			buf.Reset()
		}
	}

	for _, r := range raw {
		switch {
		case r == '{' && !inParam:
			flushLiteral()
			inParam = true
			paramBuf.Reset()
		case r == '}' && inParam:
			inParam = false
			name := paramBuf.String()
			segments = append(segments, templateSegment{kind: segmentParam, value: name})
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		case inParam:
			paramBuf.WriteRune(r)
		default:
			buf.WriteRune(r)
		}
	}
	if inParam {
		return nil, &TemplateError{Kind: "unbalanced"}
	}
	flushLiteral()

	return &Template{raw: raw, segments: segments, paramNames: names}, nil
}

// Raw returns the original template string.
func (t *Template) Raw() string { return t.raw }

// ParamNames returns the set of placeholder names in the template, in
// first-occurrence order.
func (t *Template) ParamNames() []string {
	out := make([]string, len(t.paramNames))
	copy(out, t.paramNames)
	return out
}

// Expand substitutes values into the template's path placeholders,
// percent-encoding each value with the RFC 3986 path-segment rules, so a
// "/" in a value is written as "%2F". Values whose raw entry is true are
// written verbatim (used by Matrix-style exploded path parameters, which
// legitimately produce literal ";name=value" segments that must not be
// re-escaped).
//
// Every template param name must have a matching entry in values
// (TemplateError kind "missing_param"); every key in values must
// correspond to a template param name (TemplateError kind "extra_param").
func (t *Template) Expand(values map[string]string, raw map[string]bool) (string, error) {
	for _, name := range t.paramNames {
		if _, ok := values[name]; !ok {
			return "", &TemplateError{Kind: "missing_param", Name: name}
		}
	}
	for name := range values {
		found := false
		for _, n := range t.paramNames {
			if n == name {
				found = true
				break
			}
		}
		if !found {
			return "", &TemplateError{Kind: "extra_param", Name: name}
		}
	}

	var out strings.Builder
	for _, seg := range t.segments {
		switch seg.kind {
		case segmentLiteral:
			out.WriteString(seg.value)
		case segmentParam:
			v := values[seg.value]
			if raw[seg.value] {
				out.WriteString(v)
			} else {
				out.WriteString(escapePathSegment(v))
			}
		}
	}

	return collapseSlashes(out.String(), strings.HasSuffix(t.raw, "/")), nil
}

// escapePathSegment percent-encodes v for use inside a single path
// segment, per RFC 3986's pchar production (url.PathEscape already
// implements this rule set for a single segment).
func escapePathSegment(v string) string {
	return url.PathEscape(v)
}

// collapseSlashes collapses runs of adjacent "/" introduced by
// substitution into one, while preserving a trailing slash if the
// original template had one.
func collapseSlashes(s string, keepTrailingSlash bool) string {
	var out strings.Builder
	lastWasSlash := false
	for i, r := range s {
		if r == '/' {
			if lastWasSlash {
				continue
			}
			lastWasSlash = true
		} else {
			lastWasSlash = false
		}
		_ = i
		out.WriteRune(r)
	}
	result := out.String()
	if keepTrailingSlash && !strings.HasSuffix(result, "/") {
		result += "/"
	}
	return result
}
