package openapi

import (
	"encoding/json"
	"fmt"
	"sort"
)

// schemaSource is implemented by TypeOracle implementations (ReflectOracle
// among them) that can enumerate every schema they have generated so
// far, not just the one returned by the most recent Describe call.
type schemaSource interface {
	Schemas() map[string]*Schema
}

// assemble turns c's accumulated registries into a final Document. It
// fails with an AssemblyError if any schema name was registered with two
// structurally different shapes (§4.8, §4.9).
func assemble(c *ApiClient) (*Document, error) {
	h := c.handler

	// The default ReflectOracle tracks every schema it has ever
	// generated, including ones reachable only as a nested $ref from a
	// body/response type; fold those in too so the document's
	// components.schemas is complete even when a referenced type was
	// never itself the top-level body/response schema of any call.
	if src, ok := c.oracle.(schemaSource); ok {
		for name, schema := range src.Schemas() {
			h.schemas.Register(name, schema)
		}
	}

	if conflicts := h.schemas.Conflicts(); len(conflicts) > 0 {
		return nil, &AssemblyError{Reason: "conflicting schema registrations", Conflict: conflicts[0]}
	}

	doc := &Document{
		OpenAPI:           "3.1.0",
		Info:              c.info,
		JSONSchemaDialect: "https://json-schema.org/draft/2020-12/schema",
		Servers:           c.servers,
		Paths:             map[string]*PathItem{},
	}

	tagSet := map[string]struct{}{}
	var tagOrder []string

	for _, key := range h.operations.Keys() {
		op := h.operations.Get(key)
		operation := buildOperation(op, c.redactions)

		item, ok := doc.Paths[key.PathTemplate]
		if !ok {
			item = &PathItem{}
			doc.Paths[key.PathTemplate] = item
		}
		if err := setOperation(item, key.Method, operation); err != nil {
			return nil, &AssemblyError{Reason: err.Error()}
		}

		for _, tag := range operation.Tags {
			if _, seen := tagSet[tag]; !seen {
				tagSet[tag] = struct{}{}
				tagOrder = append(tagOrder, tag)
			}
		}
	}

	for _, tag := range tagOrder {
		doc.Tags = append(doc.Tags, Tag{Name: tag})
	}

	schemas := h.schemas.Schemas()
	if len(schemas) > 0 {
		doc.Components = &Components{Schemas: map[string]*Schema{}}
		names := make([]string, 0, len(schemas))
		for name := range schemas {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			doc.Components.Schemas[name] = schemas[name]
		}
	}

	if len(c.security) > 0 {
		if doc.Components == nil {
			doc.Components = &Components{}
		}
		doc.Components.SecuritySchemes = map[string]*SecurityScheme{}
		for _, auth := range c.security {
			doc.Components.SecuritySchemes[auth.SchemeName()] = auth.Scheme()
			doc.Security = append(doc.Security, SecurityRequirement{auth.SchemeName(): {}})
		}
	}

	return doc, nil
}

func setOperation(item *PathItem, method string, op *Operation) error {
	switch method {
	case "GET":
		item.Get = op
	case "PUT":
		item.Put = op
	case "POST":
		item.Post = op
	case "DELETE":
		item.Delete = op
	case "OPTIONS":
		item.Options = op
	case "HEAD":
		item.Head = op
	case "PATCH":
		item.Patch = op
	case "TRACE":
		item.Trace = op
	default:
		return fmt.Errorf("unsupported HTTP method %q", method)
	}
	return nil
}

func buildOperation(op *accumulatedOperation, redactions []RedactionRule) *Operation {
	out := &Operation{
		OperationID: op.operationID,
		Description: op.description,
		Tags:        append([]string(nil), op.tagOrder...),
	}

	out.Parameters = buildParameters(op)

	if len(op.requestBodies) > 0 {
		out.RequestBody = &RequestBody{Required: true, Content: map[string]*MediaType{}}
		for contentType, mb := range op.requestBodies {
			out.RequestBody.Content[contentType] = mediaTypeFor(mb, redactions)
		}
	}

	if len(op.responses) > 0 {
		out.Responses = map[string]*Response{}
		for key, mb := range op.responses {
			status := fmt.Sprintf("%d", key.status)
			resp, ok := out.Responses[status]
			if !ok {
				resp = &Response{Description: fmt.Sprintf("Status code %d", key.status), Content: map[string]*MediaType{}}
				out.Responses[status] = resp
			}
			if key.contentType != "" {
				resp.Content[key.contentType] = mediaTypeFor(mb, redactions)
			}
		}
	}

	for scheme := range op.security {
		out.Security = append(out.Security, SecurityRequirement{scheme: {}})
	}
	sortSecurity(out.Security)

	return out
}

func buildParameters(op *accumulatedOperation) []*Parameter {
	var params []*Parameter
	for key, mp := range op.params {
		e := mp.entry
		required := mp.required
		if key.loc == InPath {
			required = true
		}
		explode := e.Explode
		params = append(params, &Parameter{
			Name:     e.Name,
			In:       key.loc.String(),
			Required: required,
			Style:    e.Style.String(),
			Explode:  &explode,
			Schema:   e.Schema,
		})
	}
	sort.Slice(params, func(i, j int) bool {
		if params[i].In != params[j].In {
			return params[i].In < params[j].In
		}
		return params[i].Name < params[j].Name
	})
	return params
}

func mediaTypeFor(mb *mergedBody, redactions []RedactionRule) *MediaType {
	mt := &MediaType{Example: redactedExample(mb.example, redactions)}
	if len(mb.variants) > 0 {
		mt.Schema = &Schema{OneOf: mb.variants}
		return mt
	}
	mt.Schema = mb.schema
	return mt
}

// redactedExample runs example through a JSON round trip so
// RedactionRule's map/slice traversal applies uniformly regardless of
// its original Go type, then folds in every rule.
func redactedExample(example any, redactions []RedactionRule) any {
	if example == nil || len(redactions) == 0 {
		return example
	}
	data, err := json.Marshal(example)
	if err != nil {
		return example
	}
	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		return example
	}
	return redactExample(tree, redactions)
}

func sortSecurity(reqs []SecurityRequirement) {
	sort.Slice(reqs, func(i, j int) bool {
		return securityRequirementKey(reqs[i]) < securityRequirementKey(reqs[j])
	})
}

func securityRequirementKey(req SecurityRequirement) string {
	for k := range req {
		return k
	}
	return ""
}
