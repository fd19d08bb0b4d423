package nimbus

import (
	"bytes"
	"io"
	"net/http"
	"sync"
)

// MockResponse is one scripted wire response for a MockTransport.
type MockResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       string
}

// MockTransport is an http.RoundTripper that replays scripted responses in
// order and records every request it saw. Wire it into a factory with
// WithTransport to exercise the full call path without a network.
//
// When the script runs out, the last response repeats.
type MockTransport struct {
	mu        sync.Mutex
	responses []MockResponse
	requests  []*http.Request
	bodies    [][]byte
}

// NewMockTransport scripts a transport with the given responses. With no
// responses it answers every request with an empty 200.
func NewMockTransport(responses ...MockResponse) *MockTransport {
	return &MockTransport{responses: responses}
}

// RoundTrip implements http.RoundTripper.
func (m *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body.Close()
	}
	m.requests = append(m.requests, req)
	m.bodies = append(m.bodies, body)

	scripted := MockResponse{StatusCode: http.StatusOK}
	if n := len(m.responses); n > 0 {
		idx := len(m.requests) - 1
		if idx >= n {
			idx = n - 1
		}
		scripted = m.responses[idx]
	}

	resp := &http.Response{
		StatusCode: scripted.StatusCode,
		Header:     http.Header{},
		Body:       io.NopCloser(bytes.NewReader([]byte(scripted.Body))),
		Request:    req,
	}
	for k, v := range scripted.Headers {
		resp.Header.Set(k, v)
	}
	return resp, nil
}

// Requests returns the requests seen so far.
func (m *MockTransport) Requests() []*http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*http.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// RequestBody returns the recorded body of the i-th request.
func (m *MockTransport) RequestBody(i int) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.bodies) {
		return nil
	}
	return m.bodies[i]
}

// CallCount returns how many requests the transport has served.
func (m *MockTransport) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// mockDescription is the service description the package tests run against:
// a small storage-flavored service with one pageable listing operation.
func mockDescription() *ServiceDescription {
	desc := &ServiceDescription{
		ServiceName:    "Mock Storage",
		EndpointPrefix: "storage",
		APIVersion:     "2026-01-01",
		Protocol:       ProtocolRESTJSON,
		Operations: map[string]*OperationDescription{
			"ListBuckets": {
				Name:       "ListBuckets",
				HTTPMethod: http.MethodGet,
				RequestURI: "/",
				Output: &ShapeDescription{
					Name: "ListBucketsOutput",
					Members: map[string]MemberDescription{
						"Buckets":           {Type: "list"},
						"ContinuationToken": {Type: "string"},
					},
				},
				Input: &ShapeDescription{
					Name: "ListBucketsInput",
					Members: map[string]MemberDescription{
						"ContinuationToken": {Type: "string", Location: "querystring"},
						"MaxBuckets":        {Type: "integer", Location: "querystring"},
					},
				},
				Pagination: &PaginationDescription{
					InputToken:  "ContinuationToken",
					OutputToken: "ContinuationToken",
					ResultKey:   "Buckets",
					LimitKey:    "MaxBuckets",
				},
			},
			"CreateBucket": {
				Name:       "CreateBucket",
				HTTPMethod: http.MethodPut,
				RequestURI: "/{Bucket}",
				Input: &ShapeDescription{
					Name: "CreateBucketInput",
					Members: map[string]MemberDescription{
						"Bucket": {Type: "string", Location: "uri"},
						"ACL":    {Type: "string", Location: "header", LocationName: "X-Acl"},
					},
					Required: []string{"Bucket"},
				},
			},
			"PutObject": {
				Name:              "PutObject",
				HTTPMethod:        http.MethodPut,
				RequestURI:        "/{Bucket}/{Key}",
				HasStreamingInput: true,
				Input: &ShapeDescription{
					Name: "PutObjectInput",
					Members: map[string]MemberDescription{
						"Bucket":   {Type: "string", Location: "uri"},
						"Key":      {Type: "string", Location: "uri"},
						"Metadata": {Type: "map"},
					},
					Required: []string{"Bucket", "Key"},
				},
			},
		},
	}
	return desc
}

// mockClient builds a client over the mock description and a scripted
// transport, with path addressing so request paths stay literal in
// assertions.
func mockClient(transport *MockTransport, cfg *Config) (*Client, *ClientFactory, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.AddressingStyle == "" {
		cfg.AddressingStyle = "path"
	}
	factory := NewClientFactory(WithTransport(transport))
	client, err := factory.Build(mockDescription(), "us-test-1", BuildInput{
		Credentials: Credentials{AccessKeyID: "AKMOCK", SecretAccessKey: "secret"},
		Config:      cfg,
	})
	return client, factory, err
}
