package openapi

import "encoding/json"

// SchemaRegistry accumulates named component schemas discovered through
// the TypeOracle as observations arrive. A name registered twice with
// structurally different schemas is a conflict surfaced at assembly
// time rather than silently overwritten (§4.8).
type SchemaRegistry struct {
	byName map[string]*Schema
	order  []string

	conflicts []*SchemaConflictError
}

func newSchemaRegistry() *SchemaRegistry {
	return &SchemaRegistry{byName: map[string]*Schema{}}
}

// Register inserts schema under name, or verifies it against a
// previously registered schema of the same name. Structural equality is
// judged by JSON shape, not by comparing *Schema pointers.
func (r *SchemaRegistry) Register(name string, schema *Schema) {
	if name == "" || schema == nil {
		return
	}
	existing, ok := r.byName[name]
	if !ok {
		r.byName[name] = schema
		r.order = append(r.order, name)
		return
	}
	if !schemasEqual(existing, schema) {
		r.conflicts = append(r.conflicts, &SchemaConflictError{Name: name, Existing: existing, Incoming: schema})
	}
}

// Schemas returns a copy of the registered schemas keyed by name (a map
// has no order; Names gives first-registered order).
func (r *SchemaRegistry) Schemas() map[string]*Schema {
	out := make(map[string]*Schema, len(r.byName))
	for k, v := range r.byName {
		out[k] = v
	}
	return out
}

// Names returns registered schema names in first-registered order.
func (r *SchemaRegistry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Conflicts returns every schema name that was registered more than once
// with structurally different shapes.
func (r *SchemaRegistry) Conflicts() []*SchemaConflictError {
	return r.conflicts
}

// schemasEqual compares two schemas by their JSON-significant shape.
// Title/Description/Example/Examples are documentation-only and do not
// make two schemas conflict.
func schemasEqual(a, b *Schema) bool {
	ac, bc := *a, *b
	ac.Title, bc.Title = "", ""
	ac.Description, bc.Description = "", ""
	ac.Example, bc.Example = nil, nil
	ac.Examples, bc.Examples = nil, nil
	return schemaShapeJSON(&ac) == schemaShapeJSON(&bc)
}

func schemaShapeJSON(s *Schema) string {
	data, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(data)
}
