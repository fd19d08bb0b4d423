package nimbus

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zoobzio/pipz"
)

// transportExchange flows through the endpoint's dispatch pipeline.
type transportExchange struct {
	Operation *OperationDescription
	Request   *Request

	// Populated by pipeline stages.
	Meta    *HTTPMetadata
	Parsed  Document
	rawBody []byte
}

// EndpointOption adjusts the dispatch pipeline. Retry and timeout policy
// live here, at the transport layer, not in the client's call path.
type EndpointOption func(pipz.Chainable[*transportExchange]) pipz.Chainable[*transportExchange]

// WithTransportRetry retries failed dispatches up to maxAttempts times.
func WithTransportRetry(maxAttempts int) EndpointOption {
	return func(pipeline pipz.Chainable[*transportExchange]) pipz.Chainable[*transportExchange] {
		return pipz.NewRetry("transport-retry", pipeline, maxAttempts)
	}
}

// WithTransportBackoff retries with exponential backoff starting at
// baseDelay.
func WithTransportBackoff(maxAttempts int, baseDelay time.Duration) EndpointOption {
	return func(pipeline pipz.Chainable[*transportExchange]) pipz.Chainable[*transportExchange] {
		return pipz.NewBackoff("transport-backoff", pipeline, maxAttempts, baseDelay)
	}
}

// WithTransportTimeout bounds one dispatch, signing and parsing included.
func WithTransportTimeout(duration time.Duration) EndpointOption {
	return func(pipeline pipz.Chainable[*transportExchange]) pipz.Chainable[*transportExchange] {
		return pipz.NewTimeout("transport-timeout", pipeline, duration)
	}
}

// Endpoint is the transport collaborator: it signs the request, performs
// the HTTP exchange, and parses the response body. MakeRequest is the one
// suspension point in a call; everything upstream of it is synchronous.
type Endpoint struct {
	url      string
	session  *httpSession
	pipeline pipz.Chainable[*transportExchange]
}

// NewEndpoint assembles the dispatch pipeline sign -> send -> parse over
// the given session, then wraps it with any options.
func NewEndpoint(url string, session *httpSession, signer Signer, parser Parser, opts ...EndpointOption) *Endpoint {
	e := &Endpoint{url: url, session: session}

	sign := pipz.Apply("sign", func(ctx context.Context, ex *transportExchange) (*transportExchange, error) {
		if err := signer.Sign(ctx, ex.Request); err != nil {
			return ex, fmt.Errorf("signing %s: %w", ex.Operation.Name, err)
		}
		return ex, nil
	})

	send := pipz.Apply("send", func(ctx context.Context, ex *transportExchange) (*transportExchange, error) {
		meta, body, err := e.send(ctx, ex.Request)
		if err != nil {
			return ex, err
		}
		ex.Meta = meta
		ex.rawBody = body
		return ex, nil
	})

	parse := pipz.Apply("parse", func(_ context.Context, ex *transportExchange) (*transportExchange, error) {
		parsed, err := parser.Parse(ex.Operation, ex.Meta, ex.rawBody)
		if err != nil {
			return ex, err
		}
		ex.Parsed = parsed
		return ex, nil
	})

	var pipeline pipz.Chainable[*transportExchange] = pipz.NewSequence("dispatch", sign, send, parse)
	for _, opt := range opts {
		pipeline = opt(pipeline)
	}
	e.pipeline = pipeline
	return e
}

// URL returns the resolved endpoint URL.
func (e *Endpoint) URL() string { return e.url }

// Close closes the underlying transport session.
func (e *Endpoint) Close() error { return e.session.Close() }

// MakeRequest dispatches one request: sign, send, parse. Transport faults
// (including context cancellation) return unwrapped alongside nil metadata;
// a completed response always yields metadata and a parsed body regardless
// of status code.
func (e *Endpoint) MakeRequest(ctx context.Context, op *OperationDescription, req *Request) (*HTTPMetadata, Document, error) {
	ex := &transportExchange{Operation: op, Request: req}
	out, err := e.pipeline.Process(ctx, ex)
	if err != nil {
		return nil, nil, err
	}
	return out.Meta, out.Parsed, nil
}

func (e *Endpoint) send(ctx context.Context, req *Request) (*HTTPMetadata, []byte, error) {
	target := req.URL + req.Path
	if encoded := req.Query.Encode(); encoded != "" {
		target += "?" + encoded
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, nil, fmt.Errorf("building http request: %w", err)
	}
	for name, values := range req.Headers {
		httpReq.Header[name] = values
	}

	resp, err := e.session.Do(httpReq)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	meta := &HTTPMetadata{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		RequestID:  resp.Header.Get("X-Request-Id"),
	}
	return meta, raw, nil
}
