package openapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationRegistry_RecordSingleObservation(t *testing.T) {
	r := newOperationRegistry()
	key := OperationKey{Method: "GET", PathTemplate: "/users/{id}"}

	r.Record(Observation{
		Key: key,
		Params: []*ParameterEntry{
			{Name: "id", Location: InPath, Style: StyleSimple, Required: true, Schema: &Schema{Type: TypeString("integer")}},
		},
		Response: ResponseObservation{Status: 200, ContentType: "application/json", Schema: &Schema{Type: TypeString("object")}},
		Tags:     []string{"users"},
	})

	assert.Equal(t, []OperationKey{key}, r.Keys())
	op := r.Get(key)
	require.NotNil(t, op)
	assert.Equal(t, []string{"users"}, op.tagOrder)
	require.Contains(t, op.params, paramKey{name: "id", loc: InPath})
	assert.True(t, op.params[paramKey{name: "id", loc: InPath}].required)
}

func TestOperationRegistry_MergeNarrowsRequired(t *testing.T) {
	r := newOperationRegistry()
	key := OperationKey{Method: "POST", PathTemplate: "/users"}

	r.Record(Observation{
		Key:         key,
		RequestBody: &BodyEncoding{ContentType: "application/json", Schema: &Schema{Type: TypeString("object")}, SchemaName: "CreateUser"},
		Params: []*ParameterEntry{
			{Name: "email", Location: InQuery, Required: true, Schema: &Schema{Type: TypeString("string")}},
		},
		Response: ResponseObservation{Status: 201, ContentType: "application/json", SchemaName: "User", Schema: &Schema{Type: TypeString("object")}},
	})
	r.Record(Observation{
		Key: key,
		Response: ResponseObservation{Status: 400, ContentType: "application/json", SchemaName: "Error", Schema: &Schema{Type: TypeString("object")}},
	})

	op := r.Get(key)
	require.NotNil(t, op)
	// email was present on the first observation but absent on the second,
	// so it's no longer universally required.
	assert.False(t, op.params[paramKey{name: "email", loc: InQuery}].required)
	assert.Len(t, op.responses, 2)
}

func TestOperationRegistry_SameContentTypeDifferingSchemasBecomeOneOf(t *testing.T) {
	r := newOperationRegistry()
	key := OperationKey{Method: "POST", PathTemplate: "/widgets"}

	schemaA := &Schema{Type: TypeString("object"), Properties: map[string]*Schema{"a": {Type: TypeString("string")}}}
	schemaB := &Schema{Type: TypeString("object"), Properties: map[string]*Schema{"b": {Type: TypeString("string")}}}

	r.Record(Observation{Key: key, Response: ResponseObservation{Status: 200, ContentType: "application/json", SchemaName: "A", Schema: schemaA}})
	r.Record(Observation{Key: key, Response: ResponseObservation{Status: 200, ContentType: "application/json", SchemaName: "B", Schema: schemaB}})

	op := r.Get(key)
	mb := op.responses[responseKey{status: 200, contentType: "application/json"}]
	require.Len(t, mb.variants, 2)
}

func TestOperationRegistry_OperationIDCollisionDisambiguates(t *testing.T) {
	r := newOperationRegistry()
	keyA := OperationKey{Method: "GET", PathTemplate: "/a"}
	keyB := OperationKey{Method: "GET", PathTemplate: "/b"}

	r.Record(Observation{Key: keyA, OperationID: "getThing"})
	r.Record(Observation{Key: keyB, OperationID: "getThing"})

	opA := r.Get(keyA)
	opB := r.Get(keyB)
	assert.Equal(t, "getThing", opA.operationID)
	assert.NotEqual(t, opA.operationID, opB.operationID)
	assert.Contains(t, opB.operationID, "getThing")
}

func TestOperationRegistry_OperationIDReReportedSameKeyIsIdempotent(t *testing.T) {
	r := newOperationRegistry()
	key := OperationKey{Method: "GET", PathTemplate: "/a"}

	r.Record(Observation{Key: key, OperationID: "getThing"})
	r.Record(Observation{Key: key, OperationID: "getThing"})

	op := r.Get(key)
	assert.Equal(t, "getThing", op.operationID)
}

func TestOperationRegistry_TagsAccumulateOrderPreserving(t *testing.T) {
	r := newOperationRegistry()
	key := OperationKey{Method: "GET", PathTemplate: "/a"}

	r.Record(Observation{Key: key, Tags: []string{"a", "b"}})
	r.Record(Observation{Key: key, Tags: []string{"b", "c"}})

	op := r.Get(key)
	assert.Equal(t, []string{"a", "b", "c"}, op.tagOrder)
}

func TestOperationRegistry_DescriptionFirstNonEmptyWins(t *testing.T) {
	r := newOperationRegistry()
	key := OperationKey{Method: "GET", PathTemplate: "/a"}

	r.Record(Observation{Key: key})
	r.Record(Observation{Key: key, Description: "first"})
	r.Record(Observation{Key: key, Description: "second"})

	op := r.Get(key)
	assert.Equal(t, "first", op.description)
}
