package openapi

import "sync"

// TypeOracle is the external type-reflection collaborator the core engine
// consumes: given a Go value, it returns a canonical component name (empty
// for anonymous/inline schemas), the JSON Schema fragment describing it,
// and the canonical names of any component schemas the fragment
// transitively references (so the caller can ensure they too are
// registered). Describe must be pure and deterministic for a given
// dynamic type: calling it twice with equal-typed values must produce
// structurally identical schemas, since SchemaRegistry relies on that to
// detect real conflicts rather than spurious ones.
//
// ReflectOracle below is the default, reflection-based implementation.
// Hosts may substitute a code-generated or hand-written oracle by
// implementing this interface themselves.
type TypeOracle interface {
	Describe(v any) (name string, schema *Schema, refs []string)
}

// ReflectOracle is the default TypeOracle, built on SchemaGenerator's
// reflection walk. It is safe for concurrent use: Describe is called by
// ApiCall builders and collectors on the callers' own goroutines, so a
// mutex serializes every access to the SchemaGenerator and its schemas map.
type ReflectOracle struct {
	mu  sync.Mutex
	gen *SchemaGenerator
}

// NewReflectOracle creates a TypeOracle backed by a fresh SchemaGenerator.
func NewReflectOracle() *ReflectOracle {
	return &ReflectOracle{gen: NewSchemaGenerator()}
}

// Describe generates a schema for v, returning the canonical name (empty
// for inline/anonymous schemas), the schema fragment for v itself (a $ref
// when v's type was named), and the names of every component schema newly
// registered as a side effect of describing v (its transitive refs).
func (o *ReflectOracle) Describe(v any) (string, *Schema, []string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	before := make(map[string]bool, len(o.gen.schemas))
	for name := range o.gen.schemas {
		before[name] = true
	}

	schema := o.gen.Generate(v)

	var refs []string
	for name := range o.gen.schemas {
		if !before[name] {
			refs = append(refs, name)
		}
	}

	name := refName(schema)
	return name, schema, refs
}

// Schemas returns every component schema registered so far across all
// Describe calls, keyed by canonical name.
func (o *ReflectOracle) Schemas() map[string]*Schema {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.gen.Schemas()
}

// refName extracts the canonical component name from a $ref schema
// produced by Generate, or "" if the schema is inline/anonymous/nullable
// wrapped (AnyOf[$ref, null]).
func refName(schema *Schema) string {
	if schema == nil {
		return ""
	}
	if schema.Ref != "" {
		return refToName(schema.Ref)
	}
	if len(schema.AnyOf) == 2 {
		for _, s := range schema.AnyOf {
			if s.Ref != "" {
				return refToName(s.Ref)
			}
		}
	}
	return ""
}

const schemaRefPrefix = "#/components/schemas/"

func refToName(ref string) string {
	if len(ref) > len(schemaRefPrefix) && ref[:len(schemaRefPrefix)] == schemaRefPrefix {
		return ref[len(schemaRefPrefix):]
	}
	return ""
}
