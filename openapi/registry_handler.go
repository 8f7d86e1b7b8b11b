package openapi

import "sync"

// registryHandler is the single writer for both registries: every
// Observation, regardless of which goroutine's ApiCall produced it,
// is folded in by one dedicated goroutine, so SchemaRegistry.Register
// and OperationRegistry.Record never need their own locking. Shutdown
// follows the stopCh/doneCh idiom of a worker that drains its queue
// before reporting done.
type registryHandler struct {
	logger Logger

	observations chan Observation
	stopCh       chan struct{}
	doneCh       chan struct{}

	mu         sync.Mutex
	closed     bool
	schemas    *SchemaRegistry
	operations *OperationRegistry
}

func newRegistryHandler(logger Logger) *registryHandler {
	return &registryHandler{
		logger:       logger,
		observations: make(chan Observation, 256),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
		schemas:      newSchemaRegistry(),
		operations:   newOperationRegistry(),
	}
}

func (h *registryHandler) start() {
	go h.run()
}

func (h *registryHandler) run() {
	defer close(h.doneCh)
	for {
		select {
		case obs, ok := <-h.observations:
			if !ok {
				return
			}
			h.apply(obs)
		case <-h.stopCh:
			h.drain()
			return
		}
	}
}

// drain folds in any observation already queued before stop was
// requested, so a send that raced with CollectedOpenAPI is never lost.
func (h *registryHandler) drain() {
	for {
		select {
		case obs, ok := <-h.observations:
			if !ok {
				return
			}
			h.apply(obs)
		default:
			return
		}
	}
}

// apply folds obs into both registries. Parameter schemas stay inlined
// on the Parameter object (§4.3) and are never promoted to named
// components; only request/response bodies contribute named schemas.
func (h *registryHandler) apply(obs Observation) {
	if obs.RequestBody != nil && obs.RequestBody.SchemaName != "" {
		h.schemas.Register(obs.RequestBody.SchemaName, obs.RequestBody.Schema)
	}
	if obs.Response.SchemaName != "" {
		h.schemas.Register(obs.Response.SchemaName, obs.Response.Schema)
	}
	if op := h.operations.Get(obs.Key); op != nil {
		for _, p := range obs.Params {
			mp, ok := op.params[paramKey{name: p.Name, loc: p.Location}]
			if ok && (mp.entry.Style != p.Style || mp.entry.Explode != p.Explode) {
				h.logger.Printf("openapi: %s %s: parameter %q style/explode differs from the first observation; keeping the first-seen one",
					obs.Key.Method, obs.Key.PathTemplate, p.Name)
			}
		}
	}
	h.operations.Record(obs)
}

// send enqueues obs unless the handler has already been asked to stop.
func (h *registryHandler) send(obs Observation) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return
	}
	select {
	case h.observations <- obs:
	case <-h.stopCh:
	}
}

// stopAndWait signals shutdown and blocks until the drain loop has
// folded in every queued observation.
func (h *registryHandler) stopAndWait() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		<-h.doneCh
		return
	}
	h.closed = true
	h.mu.Unlock()

	close(h.stopCh)
	<-h.doneCh
}
