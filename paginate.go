package nimbus

import (
	"context"

	"github.com/zoobzio/capitan"
)

// PageFetcher performs one full call for one page. Client.GetPaginator
// wires in the client's own call path; tests and callers with bespoke
// strategies pass their own to NewPaginator. The strategy is an explicit
// constructor argument, never shared mutable state, so paginators for
// different clients can be built concurrently.
type PageFetcher func(ctx context.Context, params map[string]any) (Document, error)

// Paginator walks a pageable operation one page at a time. Each NextPage
// performs one call, feeding the previous page's continuation token back
// in, and stops when the server returns no token. Paginators are single-use
// and not safe for concurrent use; build one per iteration.
type Paginator struct {
	fetch      PageFetcher
	operation  string
	pagination *PaginationDescription
	baseParams map[string]any

	token   any
	started bool
	done    bool
	pages   int
}

// NewPaginator builds a paginator over an explicit page-fetch strategy.
// baseParams are sent with every page request; the continuation token is
// layered on top without mutating them.
func NewPaginator(fetch PageFetcher, op *OperationDescription, baseParams map[string]any) *Paginator {
	return &Paginator{
		fetch:      fetch,
		operation:  op.Name,
		pagination: op.Pagination,
		baseParams: baseParams,
	}
}

// HasMorePages reports whether another NextPage call will fetch a page.
func (p *Paginator) HasMorePages() bool {
	return !p.done
}

// NextPage fetches the next page. After the final page it returns
// ErrNoMorePages.
func (p *Paginator) NextPage(ctx context.Context) (Document, error) {
	if p.done {
		return nil, ErrNoMorePages
	}

	params := make(map[string]any, len(p.baseParams)+1)
	for k, v := range p.baseParams {
		params[k] = v
	}
	if p.started && p.token != nil {
		params[p.pagination.InputToken] = p.token
	}

	page, err := p.fetch(ctx, params)
	if err != nil {
		return nil, err
	}
	p.started = true
	p.pages++

	token, ok := page[p.pagination.OutputToken]
	if !ok || token == nil || token == "" {
		p.done = true
		p.token = nil
	} else {
		p.token = token
	}

	capitan.Info(ctx, PageFetched,
		OperationKey.Field(p.operation),
		PageNumberKey.Field(p.pages),
		PageTokenKey.Field(tokenString(p.token)),
	)
	return page, nil
}

// Results extracts the page's result list per the pagination metadata.
// Pages without the result key yield an empty slice.
func (p *Paginator) Results(page Document) []any {
	results, _ := page[p.pagination.ResultKey].([]any)
	return results
}

// All drains the paginator, returning every result item across all
// remaining pages. The paginator is exhausted afterward.
func (p *Paginator) All(ctx context.Context) ([]any, error) {
	var items []any
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, p.Results(page)...)
	}
	return items, nil
}

func tokenString(token any) string {
	if s, ok := token.(string); ok {
		return s
	}
	return ""
}
