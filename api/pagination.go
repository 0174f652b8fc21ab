package api

import (
	"context"
	"iter"
)

// DefaultPageSize is the page size used when none is configured
const DefaultPageSize = 100

// PageRequest addresses one page of a listing
type PageRequest struct {
	Number int
	Size   int
}

// Next returns the request for the following page
func (pr PageRequest) Next() PageRequest {
	return PageRequest{Number: pr.Number + 1, Size: pr.Size}
}

// PageResponse is one page of a listing as returned by the server.
// PageSize is the page size the server applied.
type PageResponse[T any] struct {
	Content  []T `json:"content"`
	PageSize int `json:"pageSize"`
}

// isShort reports whether the page is the last one. The size the server
// reports wins over requested; an empty page is always the last.
func (pr *PageResponse[T]) isShort(requested int) bool {
	size := pr.PageSize
	if size <= 0 {
		size = requested
	}
	return len(pr.Content) != size || len(pr.Content) == 0
}

// PageFetcher fetches a single page
type PageFetcher[T any] func(ctx context.Context, req PageRequest) (*PageResponse[T], error)

// Paginate returns a lazy sequence over every item of a listing, starting at
// first. Pages are fetched only once the items of the previous page have been
// consumed, and the sequence ends after the first page holding fewer items
// than its page size. A page that is exactly full is always followed by one
// more fetch, even when it turns out to be empty.
//
// A fetch error is yielded once and ends the sequence. Every range over the
// returned sequence starts again from first.
func Paginate[T any](ctx context.Context, fetch PageFetcher[T], first PageRequest) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		req := first
		for {
			page, err := fetch(ctx, req)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}

			for _, item := range page.Content {
				if !yield(item, nil) {
					return
				}
			}

			if page.isShort(req.Size) {
				return
			}
			req = req.Next()
		}
	}
}

// Collect drains seq into a slice, stopping at the first error or after
// limit items when limit is positive
func Collect[T any](seq iter.Seq2[T, error], limit int) ([]T, error) {
	var items []T
	for item, err := range seq {
		if err != nil {
			return items, err
		}
		items = append(items, item)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}
