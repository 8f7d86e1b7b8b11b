package openapi

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// accumulatedOperation is the mutable, in-progress merge of every
// Observation sharing an OperationKey, before it is frozen into an
// Operation at assembly time (§4.9).
type accumulatedOperation struct {
	key OperationKey

	operationID string
	description string
	tags        map[string]struct{}
	tagOrder    []string

	params map[paramKey]*mergedParameter

	requestBodies map[string]*mergedBody // keyed by content type
	responses     map[responseKey]*mergedBody

	security map[string]struct{}
}

type paramKey struct {
	name string
	loc  ParameterLocation
}

type responseKey struct {
	status      int
	contentType string
}

type mergedParameter struct {
	entry    *ParameterEntry
	required bool // narrows to false if any observation omitted it
}

type mergedBody struct {
	schema     *Schema
	schemaName string
	example    any
	variants   []*Schema // distinct shapes seen, composed into oneOf at assembly
}

// OperationRegistry accumulates Observations into one merged operation
// per (method, path template), disambiguating operationId collisions
// with a path-derived slug and, failing that, a short uuid suffix
// (§4.9).
type OperationRegistry struct {
	byKey map[OperationKey]*accumulatedOperation
	order []OperationKey

	usedOperationIDs map[string]OperationKey
}

func newOperationRegistry() *OperationRegistry {
	return &OperationRegistry{
		byKey:            map[OperationKey]*accumulatedOperation{},
		usedOperationIDs: map[string]OperationKey{},
	}
}

// Record folds obs into the accumulated operation for its key, creating
// one if this is the first observation seen for that (method, path).
func (r *OperationRegistry) Record(obs Observation) {
	op, ok := r.byKey[obs.Key]
	if !ok {
		op = &accumulatedOperation{
			key:           obs.Key,
			tags:          map[string]struct{}{},
			params:        map[paramKey]*mergedParameter{},
			requestBodies: map[string]*mergedBody{},
			responses:     map[responseKey]*mergedBody{},
			security:      map[string]struct{}{},
		}
		r.byKey[obs.Key] = op
		r.order = append(r.order, obs.Key)
	}

	if obs.OperationID != "" && op.operationID == "" {
		op.operationID = r.reserveOperationID(obs.OperationID, obs.Key)
	}
	if obs.Description != "" && op.description == "" {
		op.description = obs.Description
	}
	for _, tag := range obs.Tags {
		if _, seen := op.tags[tag]; !seen {
			op.tags[tag] = struct{}{}
			op.tagOrder = append(op.tagOrder, tag)
		}
	}
	if obs.SecurityScheme != "" {
		op.security[obs.SecurityScheme] = struct{}{}
	}

	r.mergeParams(op, obs.Params)
	r.mergeRequestBody(op, obs.RequestBody)
	r.mergeResponse(op, obs.Response)
}

func (r *OperationRegistry) mergeParams(op *accumulatedOperation, params []*ParameterEntry) {
	seen := map[paramKey]bool{}
	for _, p := range params {
		key := paramKey{name: p.Name, loc: p.Location}
		seen[key] = true
		if existing, ok := op.params[key]; ok {
			if !p.Required {
				existing.required = false
			}
			if existing.entry.Style != p.Style || existing.entry.Explode != p.Explode {
				continue // style/explode mismatch: the first-seen entry is kept
			}
			existing.entry = p
			continue
		}
		op.params[key] = &mergedParameter{entry: p, required: p.Required}
	}
	// A parameter present on some observations but absent on this one is
	// no longer universally required.
	for key, mp := range op.params {
		if !seen[key] {
			mp.required = false
		}
	}
}

func (r *OperationRegistry) mergeRequestBody(op *accumulatedOperation, body *BodyEncoding) {
	if body == nil {
		return
	}
	mb, ok := op.requestBodies[body.ContentType]
	if !ok {
		op.requestBodies[body.ContentType] = &mergedBody{
			schema: body.Schema, schemaName: body.SchemaName, example: body.Example,
		}
		return
	}
	mergeBodyVariant(mb, body.Schema, body.SchemaName, body.Example)
}

func (r *OperationRegistry) mergeResponse(op *accumulatedOperation, resp ResponseObservation) {
	key := responseKey{status: resp.Status, contentType: resp.ContentType}
	mb, ok := op.responses[key]
	if !ok {
		op.responses[key] = &mergedBody{schema: resp.Schema, schemaName: resp.SchemaName, example: resp.Example}
		return
	}
	mergeBodyVariant(mb, resp.Schema, resp.SchemaName, resp.Example)
}

// mergeBodyVariant folds a newly observed schema into mb. Identical
// shapes (same name, or structurally equal) are deduplicated; distinct
// shapes accumulate as oneOf variants, composed at assembly time.
func mergeBodyVariant(mb *mergedBody, schema *Schema, name string, example any) {
	if schema == nil {
		return
	}
	if mb.schema == nil {
		mb.schema, mb.schemaName, mb.example = schema, name, example
		return
	}
	if name != "" && name == mb.schemaName {
		return
	}
	if schemasEqual(mb.schema, schema) {
		return
	}
	if len(mb.variants) == 0 {
		mb.variants = append(mb.variants, mb.schema)
	}
	for _, v := range mb.variants {
		if schemasEqual(v, schema) {
			return
		}
	}
	mb.variants = append(mb.variants, schema)
}

var slugPattern = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// reserveOperationID assigns id to key if unclaimed; otherwise
// disambiguates with a path-derived slug, and failing that a short
// uuid suffix (§4.9 operationId collisions).
func (r *OperationRegistry) reserveOperationID(id string, key OperationKey) string {
	if owner, taken := r.usedOperationIDs[id]; !taken || owner == key {
		r.usedOperationIDs[id] = key
		return id
	}

	slugged := id + "_" + slugifyPath(key.PathTemplate)
	if owner, taken := r.usedOperationIDs[slugged]; !taken || owner == key {
		r.usedOperationIDs[slugged] = key
		return slugged
	}

	final := fmt.Sprintf("%s_%s", slugged, uuid.New().String()[:8])
	r.usedOperationIDs[final] = key
	return final
}

func slugifyPath(path string) string {
	slug := slugPattern.ReplaceAllString(path, "_")
	return strings.Trim(strings.ToLower(slug), "_")
}

// Keys returns the recorded OperationKeys in first-observed order.
func (r *OperationRegistry) Keys() []OperationKey {
	out := make([]OperationKey, len(r.order))
	copy(out, r.order)
	return out
}

// Get returns the accumulated operation for key.
func (r *OperationRegistry) Get(key OperationKey) *accumulatedOperation {
	return r.byKey[key]
}
