package openapi

// OperationKey groups observations into one OpenAPI operation: a
// (method, path template) pair.
//
// See: https://spec.openapis.org/oas/v3.1.0#paths-object
type OperationKey struct {
	Method       string
	PathTemplate string
}

// ResponseObservation is the response half of an Observation: the
// status actually returned, its content type, and the schema/example the
// ResultCollector recorded for it.
type ResponseObservation struct {
	Status      int
	ContentType string
	Schema      *Schema
	SchemaName  string
	Example     any
}

// Observation is an immutable record of one completed, collected HTTP
// exchange: everything the OperationRegistry and SchemaRegistry need to
// fold it into the accumulated document. It is produced by a
// ResultCollector and sent through the ApiClient's observation channel;
// the registry handler goroutine owns it from there until assembly
// (§3, §5).
type Observation struct {
	Key             OperationKey
	Params          []*ParameterEntry
	RequestBody     *BodyEncoding
	Response        ResponseObservation
	Tags            []string
	Description     string
	OperationID     string
	SecurityScheme  string // name of the AuthProvider scheme used, if any
}

// CallResult is the ephemeral, single-use outcome of an executed
// ApiCall: the transport's raw response, plus enough of the originating
// call's state to build an Observation once a ResultCollector consumes
// it. Consumption is move-like: collecting twice fails with
// CollectorError{Kind: "double_collect"} (§3 Lifecycle).
type CallResult struct {
	Status      int
	Headers     map[string][]string
	Body        []byte
	ContentType string

	collected bool
	call      *ApiCall
}

func (r *CallResult) markCollected() error {
	if r.collected {
		return &CollectorError{Kind: "double_collect"}
	}
	r.collected = true
	return nil
}

// buildObservation assembles an Observation from the originating call's
// captured request state and the given response description.
func (r *CallResult) buildObservation(resp ResponseObservation) Observation {
	c := r.call
	var params []*ParameterEntry
	params = append(params, c.path.Entries()...)
	params = append(params, c.query.Entries()...)
	params = append(params, c.header.Entries()...)
	params = append(params, c.cookie.Entries()...)

	scheme := ""
	if c.auth != nil {
		scheme = c.auth.SchemeName()
	} else if c.client.defaultAuth != nil {
		scheme = c.client.defaultAuth.SchemeName()
	}

	return Observation{
		Key:            OperationKey{Method: c.method, PathTemplate: c.template.Raw()},
		Params:         params,
		RequestBody:    c.body,
		Response:       resp,
		Tags:           append([]string(nil), c.tags...),
		Description:    c.description,
		OperationID:    c.operationID,
		SecurityScheme: scheme,
	}
}

// emit sends obs to the client's observation channel unless the call was
// marked WithoutCollection, in which case it is discarded before ever
// reaching the registry (§3 invariant: without_collection observations
// are discarded before registry insertion). The channel is buffered
// (256 observations), so a send waits only while the buffer is full;
// once CollectedOpenAPI has begun shutdown, the send is dropped.
func (r *CallResult) emit(obs Observation) {
	if r.call.withoutCollection {
		return
	}
	r.call.client.send(obs)
}
