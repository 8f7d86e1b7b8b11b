package openapi

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// ParameterLocation is where a parameter is carried on the wire.
//
// See: https://spec.openapis.org/oas/v3.1.0#parameter-locations
type ParameterLocation int

const (
	InPath ParameterLocation = iota
	InQuery
	InHeader
	InCookie
)

func (l ParameterLocation) String() string {
	switch l {
	case InPath:
		return "path"
	case InQuery:
		return "query"
	case InHeader:
		return "header"
	case InCookie:
		return "cookie"
	default:
		return "unknown"
	}
}

// ParameterStyle selects the OpenAPI 3.1 wire serialization for a
// parameter value.
//
// See: https://spec.openapis.org/oas/v3.1.0#style-values
type ParameterStyle int

const (
	StyleSimple ParameterStyle = iota
	StyleLabel
	StyleMatrix
	StyleForm
	StyleSpaceDelimited
	StylePipeDelimited
	StyleDeepObject
)

func (s ParameterStyle) String() string {
	switch s {
	case StyleSimple:
		return "simple"
	case StyleLabel:
		return "label"
	case StyleMatrix:
		return "matrix"
	case StyleForm:
		return "form"
	case StyleSpaceDelimited:
		return "spaceDelimited"
	case StylePipeDelimited:
		return "pipeDelimited"
	case StyleDeepObject:
		return "deepObject"
	default:
		return "unknown"
	}
}

// DefaultStyle returns the OpenAPI 3.1 default style for a location:
// Simple for Path/Header, Form for Query/Cookie.
func DefaultStyle(loc ParameterLocation) ParameterStyle {
	switch loc {
	case InPath, InHeader:
		return StyleSimple
	default:
		return StyleForm
	}
}

// styleAllowed reports whether (style, location) is a legal OpenAPI 3.1
// combination.
//
// See: https://spec.openapis.org/oas/v3.1.0#style-values
func styleAllowed(style ParameterStyle, loc ParameterLocation) bool {
	switch style {
	case StyleSimple:
		return loc == InPath || loc == InHeader
	case StyleLabel, StyleMatrix:
		return loc == InPath
	case StyleForm:
		return loc == InQuery || loc == InCookie
	case StyleSpaceDelimited, StylePipeDelimited, StyleDeepObject:
		return loc == InQuery
	default:
		return false
	}
}

// wireKind classifies a decoded JSON value for serialization purposes.
type wireKind int

const (
	wirePrimitive wireKind = iota
	wireArray
	wireObject
)

func classify(v any) (wireKind, []string, []kv) {
	switch val := v.(type) {
	case []string:
		return wireArray, val, nil
	case map[string]string:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]kv, len(keys))
		for i, k := range keys {
			pairs[i] = kv{k, val[k]}
		}
		return wireObject, nil, pairs
	default:
		return wirePrimitive, nil, nil
	}
}

type kv struct {
	key, value string
}

// serializeValue renders a primitive string, a []string (array), or a
// map[string]string (object) as wire form per the OpenAPI style matrix
// (§4.2). name is the parameter name, used by the Form, Matrix,
// SpaceDelimited, PipeDelimited and DeepObject forms.
func serializeValue(name string, v any, style ParameterStyle, explode bool, loc ParameterLocation) (string, error) {
	if !styleAllowed(style, loc) {
		return "", &ParameterError{Name: name, Reason: fmt.Sprintf("style %s not allowed for location %s", style, loc)}
	}

	kind, arr, obj := classify(v)

	switch style {
	case StyleSimple:
		switch kind {
		case wirePrimitive:
			return fmt.Sprint(v), nil
		case wireArray:
			return strings.Join(arr, ","), nil
		case wireObject:
			return joinKV(obj, ",", ",", explode, "="), nil
		}

	case StyleLabel:
		switch kind {
		case wirePrimitive:
			return "." + fmt.Sprint(v), nil
		case wireArray:
			sep := "."
			return sep + strings.Join(arr, sep), nil
		case wireObject:
			if explode {
				var b strings.Builder
				for _, p := range obj {
					fmt.Fprintf(&b, ".%s=%s", p.key, p.value)
				}
				return b.String(), nil
			}
			return "." + joinKV(obj, ".", ".", false, "."), nil
		}

	case StyleMatrix:
		switch kind {
		case wirePrimitive:
			return fmt.Sprintf(";%s=%s", name, fmt.Sprint(v)), nil
		case wireArray:
			if explode {
				var b strings.Builder
				for _, item := range arr {
					fmt.Fprintf(&b, ";%s=%s", name, item)
				}
				return b.String(), nil
			}
			return fmt.Sprintf(";%s=%s", name, strings.Join(arr, ",")), nil
		case wireObject:
			if explode {
				var b strings.Builder
				for _, p := range obj {
					fmt.Fprintf(&b, ";%s=%s", p.key, p.value)
				}
				return b.String(), nil
			}
			return fmt.Sprintf(";%s=%s", name, joinKV(obj, ",", ",", false, ",")), nil
		}

	case StyleForm:
		switch kind {
		case wirePrimitive:
			return fmt.Sprintf("%s=%s", name, url.QueryEscape(fmt.Sprint(v))), nil
		case wireArray:
			if explode {
				parts := make([]string, len(arr))
				for i, item := range arr {
					parts[i] = fmt.Sprintf("%s=%s", name, url.QueryEscape(item))
				}
				return strings.Join(parts, "&"), nil
			}
			return fmt.Sprintf("%s=%s", name, strings.Join(arr, ",")), nil
		case wireObject:
			if explode {
				parts := make([]string, len(obj))
				for i, p := range obj {
					parts[i] = fmt.Sprintf("%s=%s", p.key, url.QueryEscape(p.value))
				}
				return strings.Join(parts, "&"), nil
			}
			return fmt.Sprintf("%s=%s", name, joinKV(obj, ",", ",", false, ",")), nil
		}

	case StyleSpaceDelimited:
		if kind != wireArray {
			return "", &ParameterError{Name: name, Reason: "spaceDelimited requires an array value"}
		}
		return fmt.Sprintf("%s=%s", name, url.QueryEscape(strings.Join(arr, " "))), nil

	case StylePipeDelimited:
		if kind != wireArray {
			return "", &ParameterError{Name: name, Reason: "pipeDelimited requires an array value"}
		}
		return fmt.Sprintf("%s=%s", name, url.QueryEscape(strings.Join(arr, "|"))), nil

	case StyleDeepObject:
		if kind != wireObject {
			return "", &ParameterError{Name: name, Reason: "deepObject requires an object value"}
		}
		parts := make([]string, len(obj))
		for i, p := range obj {
			parts[i] = fmt.Sprintf("%s[%s]=%s", name, p.key, url.QueryEscape(p.value))
		}
		return strings.Join(parts, "&"), nil
	}

	return "", &ParameterError{Name: name, Reason: "unsupported value shape for style"}
}

// joinKV renders an ordered list of key/value pairs joined by entrySep:
// flattened as key, value, key, value, ... when explode is false (kvSep
// unused), or as key+kvSep+value per pair when explode is true. The third
// parameter is unused. Used by styles whose exploded/non-exploded object
// forms both flatten into a single delimited string.
func joinKV(pairs []kv, entrySep, _ string, explode bool, kvSep string) string {
	parts := make([]string, 0, len(pairs)*2)
	for _, p := range pairs {
		if explode {
			parts = append(parts, p.key+kvSep+p.value)
		} else {
			parts = append(parts, p.key, p.value)
		}
	}
	return strings.Join(parts, entrySep)
}
