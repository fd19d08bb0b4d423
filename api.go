// Package nimbus adapts declarative cloud-service descriptions into
// non-blocking, context-aware Go clients.
//
// Nimbus does not hardcode any service. A ServiceDescription declares the
// operations a service exposes, their wire shapes, and their pagination
// metadata; the ClientFactory turns a description into a Client whose calls
// run through a fixed execution path: serialize, before-call hooks, dispatch,
// after-call hooks, classify. Only the dispatch step performs I/O, and it is
// the only step that suspends on the caller's context.
//
// Basic usage:
//
//	desc, _ := nimbus.LoadDescriptionFile("storage.yaml")
//	factory := nimbus.NewClientFactory()
//	client, _ := factory.Build(desc, "us-west-2", nimbus.BuildInput{
//	    Credentials: creds,
//	})
//	defer client.Close()
//	out, _ := client.Call(ctx, "ListBuckets", nil)
package nimbus

import (
	"context"
	"net/http"
	"net/url"
)

// Document is a parsed wire body: the result of a successful call, or the
// parsed error body carried by a ServiceError. Nested values follow
// encoding/json conventions (map[string]any, []any, string, float64, bool).
type Document map[string]any

// Credentials holds the static credential set a signer is bound to.
// A zero Credentials value means anonymous access and disables signing.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// Anonymous reports whether the credentials are empty.
func (c Credentials) Anonymous() bool {
	return c.AccessKeyID == "" && c.SecretAccessKey == ""
}

// Request is the transport-ready record a Serializer builds from call
// parameters. Before-call hook observers may mutate it in place; the
// endpoint consumes it during dispatch.
type Request struct {
	Method  string
	URL     string // scheme://host, filled from the resolved endpoint
	Path    string
	Query   url.Values
	Headers http.Header
	Body    []byte

	// Context is the per-call request context the record was built under.
	Context *RequestContext
}

// RequestContext is created once per call and passed by reference through
// serialization, hook emission, and dispatch. It is discarded when the call
// completes.
type RequestContext struct {
	RequestID         string
	ClientRegion      string
	ClientConfig      *Config
	HasStreamingInput bool

	// Metadata is scratch space shared between hook observers for the
	// duration of one call.
	Metadata map[string]any
}

// HTTPMetadata carries the wire-level response data alongside the parsed
// body: status code, response headers, and the server-assigned request id
// when present.
type HTTPMetadata struct {
	StatusCode int
	Headers    http.Header
	RequestID  string
}

// Serializer converts API parameters into a transport-ready Request using
// the operation's input shape. Implementations are looked up by protocol
// name via NewSerializer.
type Serializer interface {
	Build(params map[string]any, op *OperationDescription, rc *RequestContext) (*Request, error)
}

// Parser converts a raw response body into a Document using the operation's
// output shape. Implementations are looked up by protocol name via NewParser.
type Parser interface {
	Parse(op *OperationDescription, meta *HTTPMetadata, body []byte) (Document, error)
}

// Signer authenticates an outgoing Request. It is constructed by the factory
// and consumed only by the endpoint during dispatch.
type Signer interface {
	// Sign mutates the request in place, attaching whatever headers the
	// signature scheme requires.
	Sign(ctx context.Context, req *Request) error

	// SignatureVersion returns the scheme identifier the signer implements.
	SignatureVersion() string
}

// ResolvedEndpoint is the outcome of endpoint resolution for one service in
// one region.
type ResolvedEndpoint struct {
	Region           string
	URL              string
	SigningRegion    string
	SigningName      string
	SignatureVersion string
}

// EndpointResolver maps (service, region) to a concrete endpoint. An
// explicit endpointURL overrides the resolver's own URL construction but
// signing details are still resolved.
type EndpointResolver interface {
	Resolve(service, region, endpointURL string, secure bool) (*ResolvedEndpoint, error)
}

// BoundOperation is one operation of a client, bound and ready to invoke.
type BoundOperation func(ctx context.Context, params map[string]any) (Document, error)
