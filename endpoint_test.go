package nimbus

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"
)

// roundTripperFunc adapts a function to http.RoundTripper for fault
// injection.
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func testEndpoint(rt http.RoundTripper, opts ...EndpointOption) *Endpoint {
	parser, _ := NewParser(ProtocolRESTJSON)
	signer := NewSigner("storage", "us-test-1", "storage", SignatureVersionV4,
		Credentials{AccessKeyID: "AK", SecretAccessKey: "SK"}, NewHooks())
	return NewEndpoint("http://storage.test", testSession(rt), signer, parser, opts...)
}

func listRequest() *Request {
	return &Request{
		Method:  http.MethodGet,
		URL:     "http://storage.test",
		Path:    "/",
		Query:   url.Values{},
		Headers: http.Header{},
	}
}

func TestEndpointMakeRequest(t *testing.T) {
	op := mockDescription().Operations["ListBuckets"]

	t.Run("success", func(t *testing.T) {
		transport := NewMockTransport(MockResponse{
			StatusCode: 200,
			Headers:    map[string]string{"X-Request-Id": "req-1"},
			Body:       `{"Buckets":[]}`,
		})
		meta, parsed, err := testEndpoint(transport).MakeRequest(context.Background(), op, listRequest())
		if err != nil {
			t.Fatalf("MakeRequest failed: %v", err)
		}
		if meta.StatusCode != 200 || meta.RequestID != "req-1" {
			t.Errorf("unexpected metadata: %+v", meta)
		}
		if _, ok := parsed["Buckets"]; !ok {
			t.Errorf("unexpected parsed body: %v", parsed)
		}
	})

	t.Run("signed_before_send", func(t *testing.T) {
		transport := NewMockTransport(MockResponse{StatusCode: 200})
		_, _, err := testEndpoint(transport).MakeRequest(context.Background(), op, listRequest())
		if err != nil {
			t.Fatalf("MakeRequest failed: %v", err)
		}
		sent := transport.Requests()[0]
		if sent.Header.Get("Authorization") == "" {
			t.Error("request reached the wire unsigned")
		}
	})

	t.Run("url_composition", func(t *testing.T) {
		transport := NewMockTransport(MockResponse{StatusCode: 200})
		req := listRequest()
		req.Path = "/photos"
		req.Query.Set("ContinuationToken", "abc")
		_, _, err := testEndpoint(transport).MakeRequest(context.Background(), op, req)
		if err != nil {
			t.Fatalf("MakeRequest failed: %v", err)
		}
		sent := transport.Requests()[0]
		if sent.URL.String() != "http://storage.test/photos?ContinuationToken=abc" {
			t.Errorf("unexpected url: %s", sent.URL)
		}
	})

	t.Run("error_status_is_not_a_fault", func(t *testing.T) {
		transport := NewMockTransport(MockResponse{StatusCode: 404, Body: `{"code":"NoSuchBucket"}`})
		meta, parsed, err := testEndpoint(transport).MakeRequest(context.Background(), op, listRequest())
		if err != nil {
			t.Fatalf("status >= 300 must not fail dispatch: %v", err)
		}
		if meta.StatusCode != 404 {
			t.Errorf("expected 404 metadata, got %d", meta.StatusCode)
		}
		if _, ok := parsed["Error"]; !ok {
			t.Error("error body should be normalized by the parser")
		}
	})

	t.Run("transport_fault", func(t *testing.T) {
		fault := errors.New("connection refused")
		rt := roundTripperFunc(func(*http.Request) (*http.Response, error) { return nil, fault })
		meta, parsed, err := testEndpoint(rt).MakeRequest(context.Background(), op, listRequest())
		if err == nil {
			t.Fatal("expected transport fault to propagate")
		}
		if meta != nil || parsed != nil {
			t.Error("fault must not produce metadata or a body")
		}
	})

	t.Run("cancellation", func(t *testing.T) {
		started := make(chan struct{})
		rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			close(started)
			<-req.Context().Done()
			return nil, req.Context().Err()
		})

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-started
			cancel()
		}()

		_, _, err := testEndpoint(rt).MakeRequest(ctx, op, listRequest())
		if err == nil {
			t.Fatal("expected cancellation to abort dispatch")
		}
	})
}

func TestEndpointTransportRetry(t *testing.T) {
	op := mockDescription().Operations["ListBuckets"]
	attempts := 0
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("flaky")
		}
		return NewMockTransport(MockResponse{StatusCode: 200}).RoundTrip(req)
	})

	_, _, err := testEndpoint(rt, WithTransportRetry(3)).MakeRequest(context.Background(), op, listRequest())
	if err != nil {
		t.Fatalf("retry should have recovered: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestEndpointTransportTimeout(t *testing.T) {
	op := mockDescription().Operations["ListBuckets"]
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		select {
		case <-time.After(5 * time.Second):
			return NewMockTransport().RoundTrip(req)
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}
	})

	start := time.Now()
	_, _, err := testEndpoint(rt, WithTransportTimeout(50*time.Millisecond)).
		MakeRequest(context.Background(), op, listRequest())
	if err == nil {
		t.Fatal("expected timeout fault")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("timeout did not bound the dispatch")
	}
}
