package nimbus

import (
	"context"
	"sync"
)

// BeforeCallEvent is emitted after serialization and before dispatch.
// Observers may mutate the request record in place; this is the extension
// point credential refresh and host rewriting use.
type BeforeCallEvent struct {
	Service   string
	Operation *OperationDescription
	Request   *Request
	Signer    Signer
	Context   *RequestContext
}

// AfterCallEvent is emitted once dispatch has produced a completed response,
// regardless of status code. It never fires for transport-level faults.
type AfterCallEvent struct {
	Service   string
	Operation *OperationDescription
	HTTP      *HTTPMetadata
	Parsed    Document
	Context   *RequestContext
}

// CreatingClientEvent is emitted exactly once per service description,
// before the first client for that service is assembled. Observers may
// mutate the method table to inject or rename operations.
type CreatingClientEvent struct {
	Service     string
	Description *ServiceDescription

	// Methods maps generated snake_case method names to operation names.
	Methods map[string]string
}

// Observer funcs for the three event kinds. Returning an error from a
// BeforeCallFunc aborts the call before dispatch; AfterCall and
// CreatingClient observer errors abort with the same propagation.
type (
	BeforeCallFunc     func(ctx context.Context, ev *BeforeCallEvent) error
	AfterCallFunc      func(ctx context.Context, ev *AfterCallEvent) error
	CreatingClientFunc func(ev *CreatingClientEvent) error
)

type beforeEntry struct {
	service   string
	operation string
	fn        BeforeCallFunc
}

type afterEntry struct {
	service   string
	operation string
	fn        AfterCallFunc
}

type creatingEntry struct {
	service string
	fn      CreatingClientFunc
}

// Hooks is the client hook registry: a typed, synchronous publish/subscribe
// surface with three enumerated event kinds. Observers run in registration
// order on the calling goroutine, so mutation of event payloads is ordered
// and race-free within one call.
//
// Hooks is safe for concurrent registration and emission.
type Hooks struct {
	mu       sync.RWMutex
	before   []beforeEntry
	after    []afterEntry
	creating []creatingEntry
}

// NewHooks creates an empty hook registry.
func NewHooks() *Hooks {
	return &Hooks{}
}

// Copy returns an independent registry holding the same observers. Later
// registrations on either side do not leak to the other; the factory takes
// a copy so per-client hook wiring never mutates the caller's registry.
func (h *Hooks) Copy() *Hooks {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c := &Hooks{
		before:   make([]beforeEntry, len(h.before)),
		after:    make([]afterEntry, len(h.after)),
		creating: make([]creatingEntry, len(h.creating)),
	}
	copy(c.before, h.before)
	copy(c.after, h.after)
	copy(c.creating, h.creating)
	return c
}

// OnBeforeCall registers a before-call observer. Empty service or operation
// act as wildcards.
func (h *Hooks) OnBeforeCall(service, operation string, fn BeforeCallFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.before = append(h.before, beforeEntry{service: service, operation: operation, fn: fn})
}

// OnAfterCall registers an after-call observer. Empty service or operation
// act as wildcards.
func (h *Hooks) OnAfterCall(service, operation string, fn AfterCallFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.after = append(h.after, afterEntry{service: service, operation: operation, fn: fn})
}

// OnCreatingClient registers a client-creation observer. An empty service
// acts as a wildcard.
func (h *Hooks) OnCreatingClient(service string, fn CreatingClientFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.creating = append(h.creating, creatingEntry{service: service, fn: fn})
}

func (h *Hooks) emitBeforeCall(ctx context.Context, ev *BeforeCallEvent) error {
	h.mu.RLock()
	entries := h.before
	h.mu.RUnlock()

	for _, e := range entries {
		if e.service != "" && e.service != ev.Service {
			continue
		}
		if e.operation != "" && e.operation != ev.Operation.Name {
			continue
		}
		if err := e.fn(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hooks) emitAfterCall(ctx context.Context, ev *AfterCallEvent) error {
	h.mu.RLock()
	entries := h.after
	h.mu.RUnlock()

	for _, e := range entries {
		if e.service != "" && e.service != ev.Service {
			continue
		}
		if e.operation != "" && e.operation != ev.Operation.Name {
			continue
		}
		if err := e.fn(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hooks) emitCreatingClient(ev *CreatingClientEvent) error {
	h.mu.RLock()
	entries := h.creating
	h.mu.RUnlock()

	for _, e := range entries {
		if e.service != "" && e.service != ev.Service {
			continue
		}
		if err := e.fn(ev); err != nil {
			return err
		}
	}
	return nil
}
