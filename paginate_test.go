package nimbus

import (
	"context"
	"errors"
	"testing"
)

func TestPaginator(t *testing.T) {
	t.Run("two_pages", func(t *testing.T) {
		transport := NewMockTransport(
			MockResponse{
				StatusCode: 200,
				Body:       `{"Buckets":[{"Name":"a"},{"Name":"b"}],"ContinuationToken":"t1"}`,
			},
			MockResponse{
				StatusCode: 200,
				Body:       `{"Buckets":[{"Name":"c"}]}`,
			},
		)
		client, _, err := mockClient(transport, nil)
		if err != nil {
			t.Fatalf("mockClient failed: %v", err)
		}
		defer client.Close()

		p, err := client.GetPaginator("ListBuckets", nil)
		if err != nil {
			t.Fatalf("GetPaginator failed: %v", err)
		}

		var pages int
		var buckets []any
		for p.HasMorePages() {
			page, err := p.NextPage(context.Background())
			if err != nil {
				t.Fatalf("NextPage failed: %v", err)
			}
			pages++
			buckets = append(buckets, p.Results(page)...)
		}
		if pages != 2 {
			t.Errorf("expected exactly 2 pages, got %d", pages)
		}
		if len(buckets) != 3 {
			t.Errorf("expected 3 buckets total, got %d", len(buckets))
		}

		// The second request must carry the first page's token.
		second := transport.Requests()[1]
		if second.URL.Query().Get("ContinuationToken") != "t1" {
			t.Errorf("continuation token not fed back: %s", second.URL)
		}
		// The first must not.
		first := transport.Requests()[0]
		if first.URL.Query().Get("ContinuationToken") != "" {
			t.Errorf("first page should carry no token: %s", first.URL)
		}
	})

	t.Run("exhausted", func(t *testing.T) {
		transport := NewMockTransport(MockResponse{StatusCode: 200, Body: `{"Buckets":[]}`})
		client, _, _ := mockClient(transport, nil)
		defer client.Close()

		p, _ := client.GetPaginator("ListBuckets", nil)
		if _, err := p.NextPage(context.Background()); err != nil {
			t.Fatalf("NextPage failed: %v", err)
		}
		if p.HasMorePages() {
			t.Error("single tokenless page should exhaust the paginator")
		}
		if _, err := p.NextPage(context.Background()); !errors.Is(err, ErrNoMorePages) {
			t.Fatalf("expected ErrNoMorePages, got %v", err)
		}
	})

	t.Run("empty_token_terminates", func(t *testing.T) {
		fetch := func(_ context.Context, _ map[string]any) (Document, error) {
			return Document{"Buckets": []any{}, "ContinuationToken": ""}, nil
		}
		p := NewPaginator(fetch, mockDescription().Operations["ListBuckets"], nil)
		if _, err := p.NextPage(context.Background()); err != nil {
			t.Fatalf("NextPage failed: %v", err)
		}
		if p.HasMorePages() {
			t.Error("an empty-string token means no more pages")
		}
	})

	t.Run("base_params_on_every_page", func(t *testing.T) {
		var seen []map[string]any
		fetch := func(_ context.Context, params map[string]any) (Document, error) {
			seen = append(seen, params)
			if len(seen) == 1 {
				return Document{"ContinuationToken": "next"}, nil
			}
			return Document{}, nil
		}
		base := map[string]any{"MaxBuckets": 2}
		p := NewPaginator(fetch, mockDescription().Operations["ListBuckets"], base)
		if _, err := p.All(context.Background()); err != nil {
			t.Fatalf("All failed: %v", err)
		}
		for i, params := range seen {
			if params["MaxBuckets"] != 2 {
				t.Errorf("page %d missing base param: %v", i, params)
			}
		}
		if _, ok := base["ContinuationToken"]; ok {
			t.Error("base params must not be mutated by pagination")
		}
	})

	t.Run("fetch_error_propagates", func(t *testing.T) {
		boom := errors.New("listing failed")
		fetch := func(_ context.Context, _ map[string]any) (Document, error) { return nil, boom }
		p := NewPaginator(fetch, mockDescription().Operations["ListBuckets"], nil)

		if _, err := p.NextPage(context.Background()); !errors.Is(err, boom) {
			t.Fatalf("expected fetch error, got %v", err)
		}
		// An error does not exhaust the paginator; the page was never fetched.
		if !p.HasMorePages() {
			t.Error("a failed fetch should leave the paginator retryable")
		}
	})

	t.Run("all", func(t *testing.T) {
		calls := 0
		fetch := func(_ context.Context, _ map[string]any) (Document, error) {
			calls++
			if calls < 3 {
				return Document{"Buckets": []any{calls}, "ContinuationToken": "t"}, nil
			}
			return Document{"Buckets": []any{calls}}, nil
		}
		p := NewPaginator(fetch, mockDescription().Operations["ListBuckets"], nil)
		items, err := p.All(context.Background())
		if err != nil {
			t.Fatalf("All failed: %v", err)
		}
		if len(items) != 3 {
			t.Errorf("expected 3 items, got %d", len(items))
		}
	})
}

func TestGetPaginator(t *testing.T) {
	client, _, err := mockClient(NewMockTransport(), nil)
	if err != nil {
		t.Fatalf("mockClient failed: %v", err)
	}
	defer client.Close()

	t.Run("not_pageable", func(t *testing.T) {
		_, err := client.GetPaginator("CreateBucket", nil)
		var notPageable *OperationNotPageableError
		if !errors.As(err, &notPageable) {
			t.Fatalf("expected OperationNotPageableError, got %v", err)
		}
	})

	t.Run("unknown_operation", func(t *testing.T) {
		_, err := client.GetPaginator("Nope", nil)
		var unknownErr *UnknownOperationError
		if !errors.As(err, &unknownErr) {
			t.Fatalf("expected UnknownOperationError, got %v", err)
		}
	})

	t.Run("method_name", func(t *testing.T) {
		if _, err := client.GetPaginator("list_buckets", nil); err != nil {
			t.Fatalf("snake_case method name should resolve: %v", err)
		}
	})

	t.Run("can_paginate", func(t *testing.T) {
		if !client.CanPaginate("ListBuckets") {
			t.Error("ListBuckets should be pageable")
		}
		if client.CanPaginate("PutObject") {
			t.Error("PutObject should not be pageable")
		}
	})
}
