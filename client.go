package nimbus

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
)

// Client is the execution engine bound to one service. Every call runs the
// same strictly ordered path: resolve the operation, build a request
// context, serialize, emit before-call hooks, dispatch, emit after-call
// hooks, classify. Dispatch is the only step that suspends; hook emission
// and classification are synchronous once dispatch resumes.
//
// Clients are safe for concurrent use. The transport session opens lazily
// on the first call; Close is idempotent and terminal.
type Client struct {
	desc       *ServiceDescription
	serializer Serializer
	endpoint   *Endpoint
	session    *httpSession
	hooks      *Hooks
	signer     Signer
	config     *Config
	region     string
	methods    map[string]string
}

// Region returns the client's resolved region.
func (c *Client) Region() string { return c.region }

// Config returns the merged client configuration.
func (c *Client) Config() *Config { return c.config }

// Hooks returns the client's hook registry. It is the factory-time copy:
// registrations here affect this client lineage only.
func (c *Client) Hooks() *Hooks { return c.hooks }

// Description returns the service description the client is bound to.
func (c *Client) Description() *ServiceDescription { return c.desc }

// EndpointURL returns the resolved endpoint URL.
func (c *Client) EndpointURL() string { return c.endpoint.URL() }

// resolveOperation accepts either the declared operation name or its
// snake_case method name.
func (c *Client) resolveOperation(name string) (string, error) {
	if _, ok := c.desc.Operations[name]; ok {
		return name, nil
	}
	if actual, ok := c.methods[name]; ok {
		return actual, nil
	}
	return "", &UnknownOperationError{Service: c.desc.EndpointPrefix, Operation: name}
}

// Call invokes one operation and returns the parsed response body.
// Status codes >= 300 fail with *ServiceError carrying the parsed error
// body; parameter problems fail with *ParamValidationError before anything
// reaches the wire; transport faults propagate unwrapped.
func (c *Client) Call(ctx context.Context, operationName string, params map[string]any) (Document, error) {
	started := time.Now()

	// Resolve.
	actual, err := c.resolveOperation(operationName)
	if err != nil {
		return nil, err
	}
	op := c.desc.Operations[actual]

	// Build context.
	rc := &RequestContext{
		RequestID:         uuid.New().String(),
		ClientRegion:      c.region,
		ClientConfig:      c.config,
		HasStreamingInput: op.HasStreamingInput,
		Metadata:          make(map[string]any),
	}

	capitan.Info(ctx, CallStarted,
		ServiceKey.Field(c.desc.EndpointPrefix),
		OperationKey.Field(op.Name),
		RequestIDKey.Field(rc.RequestID),
		RegionKey.Field(c.region),
	)

	// Serialize. Validation failures surface here, never on the wire.
	req, err := c.serializer.Build(params, op, rc)
	if err != nil {
		c.emitFailed(ctx, op, rc, err)
		return nil, err
	}
	req.URL = c.endpoint.URL()
	req.Headers.Set("User-Agent", c.config.UserAgent)

	// Before-hook. Observers may mutate the request in place.
	before := &BeforeCallEvent{
		Service:   c.desc.EndpointPrefix,
		Operation: op,
		Request:   req,
		Signer:    c.signer,
		Context:   rc,
	}
	if err := c.hooks.emitBeforeCall(ctx, before); err != nil {
		c.emitFailed(ctx, op, rc, err)
		return nil, err
	}

	// Dispatch: the only suspension point. A transport fault returns
	// here directly, deliberately skipping the after-hook.
	meta, parsed, err := c.endpoint.MakeRequest(ctx, op, req)
	if err != nil {
		c.emitFailed(ctx, op, rc, err)
		return nil, err
	}

	// After-hook always fires on a completed response, error status
	// included.
	after := &AfterCallEvent{
		Service:   c.desc.EndpointPrefix,
		Operation: op,
		HTTP:      meta,
		Parsed:    parsed,
		Context:   rc,
	}
	if err := c.hooks.emitAfterCall(ctx, after); err != nil {
		c.emitFailed(ctx, op, rc, err)
		return nil, err
	}

	// Classify.
	if meta.StatusCode >= 300 {
		svcErr := &ServiceError{
			Operation:  op.Name,
			StatusCode: meta.StatusCode,
			Body:       parsed,
			RequestID:  meta.RequestID,
		}
		if errBody, ok := parsed["Error"].(map[string]any); ok {
			svcErr.Code, _ = errBody["Code"].(string)
			svcErr.Message, _ = errBody["Message"].(string)
		}
		capitan.Error(ctx, CallFailed,
			ServiceKey.Field(c.desc.EndpointPrefix),
			OperationKey.Field(op.Name),
			RequestIDKey.Field(rc.RequestID),
			HTTPStatusCodeKey.Field(meta.StatusCode),
			ErrorKey.Field(svcErr.Error()),
			ErrorCodeKey.Field(svcErr.Code),
			DurationMsKey.Field(int(time.Since(started).Milliseconds())),
		)
		return nil, svcErr
	}

	capitan.Info(ctx, CallCompleted,
		ServiceKey.Field(c.desc.EndpointPrefix),
		OperationKey.Field(op.Name),
		RequestIDKey.Field(rc.RequestID),
		HTTPStatusCodeKey.Field(meta.StatusCode),
		ServerRequestIDKey.Field(meta.RequestID),
		DurationMsKey.Field(int(time.Since(started).Milliseconds())),
	)
	return parsed, nil
}

func (c *Client) emitFailed(ctx context.Context, op *OperationDescription, rc *RequestContext, err error) {
	capitan.Error(ctx, CallFailed,
		ServiceKey.Field(c.desc.EndpointPrefix),
		OperationKey.Field(op.Name),
		RequestIDKey.Field(rc.RequestID),
		ErrorKey.Field(err.Error()),
	)
}

// Operation binds one operation for repeated invocation.
func (c *Client) Operation(name string) (BoundOperation, error) {
	actual, err := c.resolveOperation(name)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, params map[string]any) (Document, error) {
		return c.Call(ctx, actual, params)
	}, nil
}

// CanPaginate reports whether the named operation carries pagination
// metadata. Method names are accepted alongside operation names.
func (c *Client) CanPaginate(name string) bool {
	actual, err := c.resolveOperation(name)
	if err != nil {
		return false
	}
	return c.desc.CanPaginate(actual)
}

// GetPaginator builds a fresh paginator for a pageable operation, sending
// baseParams with every page request. The page-fetch strategy is this
// client's own call path; NewPaginator accepts any other strategy
// explicitly.
func (c *Client) GetPaginator(name string, baseParams map[string]any) (*Paginator, error) {
	actual, err := c.resolveOperation(name)
	if err != nil {
		return nil, err
	}
	op := c.desc.Operations[actual]
	if op.Pagination == nil {
		return nil, &OperationNotPageableError{Operation: name}
	}

	fetch := func(ctx context.Context, params map[string]any) (Document, error) {
		return c.Call(ctx, actual, params)
	}
	return NewPaginator(fetch, op, baseParams), nil
}

// Open makes the transport session usable ahead of the first call. Calls
// open the session implicitly, so Open is only needed when the caller wants
// connection setup to fail early.
func (c *Client) Open(ctx context.Context) error {
	return c.session.Open(ctx)
}

// Close closes the transport session. Close is idempotent; calls made
// afterward fail with ErrSessionClosed.
func (c *Client) Close() error {
	return c.endpoint.Close()
}
