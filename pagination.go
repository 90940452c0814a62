package letta

import (
	"context"
	"net/url"
	"strconv"
)

// PaginationParams selects a page of results from a list endpoint. After and
// Before are opposing cursors; when both are set, After wins and Before is
// cleared on the next page. Limit 0 means the server default.
type PaginationParams struct {
	Before    string
	After     string
	Limit     int
	Ascending *bool
}

// values encodes the cursor fields as list-request query parameters.
func (p PaginationParams) values() url.Values {
	q := url.Values{}
	if p.Before != "" {
		q.Set("before", p.Before)
	}
	if p.After != "" {
		q.Set("after", p.After)
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Ascending != nil {
		q.Set("ascending", strconv.FormatBool(*p.Ascending))
	}
	return q
}

// PageFetcher fetches one page of results for the given cursor params.
type PageFetcher[T any] func(ctx context.Context, params PaginationParams) ([]T, error)

// PaginatedStream is a lazy, forward-only iterator over a cursor-paginated
// collection. Pages are fetched on demand, one at a time, as the consumer
// advances; a page is never re-issued. Usage:
//
//	stream := client.Agents.Paginated(ctx, letta.PaginationParams{Limit: 50})
//	for stream.Next() {
//	    agent := stream.Current()
//	    // handle agent
//	}
//	if err := stream.Err(); err != nil {
//	    // handle error
//	}
//
// A stream is single-pass and single-consumer: it cannot be restarted, and
// polling it from multiple goroutines is undefined.
type PaginatedStream[T any] struct {
	pull    func() (T, bool, error)
	current T
	err     error
	done    bool
}

// NewPaginatedStream creates a stream over endpoints with no stable cursor:
// exactly one page is fetched and the stream ends, regardless of whether the
// server holds more data.
func NewPaginatedStream[T any](ctx context.Context, params PaginationParams, fetch PageFetcher[T]) *PaginatedStream[T] {
	return newPageStream(ctx, params, fetch, nil)
}

// NewIDPaginatedStream creates a stream that advances using each page's last
// item ID as the next "after" cursor. Most list endpoints paginate this way.
func NewIDPaginatedStream[T any](ctx context.Context, params PaginationParams, fetch PageFetcher[T], idOf func(T) ID) *PaginatedStream[T] {
	return newPageStream(ctx, params, fetch, func(item T) string {
		return idOf(item).String()
	})
}

// NewStringPaginatedStream creates a stream that advances using an arbitrary
// string projection of each page's last item as the next "after" cursor, for
// resources without IDs (tag names, for example).
func NewStringPaginatedStream[T any](ctx context.Context, params PaginationParams, fetch PageFetcher[T], cursorOf func(T) string) *PaginatedStream[T] {
	return newPageStream(ctx, params, fetch, cursorOf)
}

func newPageStream[T any](ctx context.Context, params PaginationParams, fetch PageFetcher[T], cursorOf func(T) string) *PaginatedStream[T] {
	state := &pageState[T]{
		ctx:      ctx,
		fetch:    fetch,
		cursorOf: cursorOf,
		params:   params,
		limit:    effectiveLimit(params),
	}
	return &PaginatedStream[T]{pull: state.next}
}

// effectiveLimit is the page size used to decide whether a page was full.
// It is fixed from the initial params for the life of the stream.
func effectiveLimit(params PaginationParams) int {
	if params.Limit > 0 {
		return params.Limit
	}
	return DefaultPageSize
}

// pageState drives page fetching for a stream. cursorOf nil means
// single-page mode.
type pageState[T any] struct {
	ctx      context.Context
	fetch    PageFetcher[T]
	cursorOf func(T) string
	params   PaginationParams
	limit    int
	buf      []T
	idx      int
	finished bool
}

func (p *pageState[T]) next() (T, bool, error) {
	var zero T
	if p.idx < len(p.buf) {
		item := p.buf[p.idx]
		p.idx++
		return item, true, nil
	}
	if p.finished {
		return zero, false, nil
	}

	items, err := p.fetch(p.ctx, p.params)
	if err != nil {
		p.finished = true
		return zero, false, err
	}
	if len(items) == 0 {
		// An empty page always terminates, regardless of the limit.
		p.finished = true
		return zero, false, nil
	}

	p.buf = items
	p.idx = 1
	if p.cursorOf == nil || len(items) < p.limit {
		p.finished = true
	} else {
		p.params.After = p.cursorOf(items[len(items)-1])
		p.params.Before = ""
	}
	return items[0], true, nil
}

// Next advances to the next item, fetching the next page when the current
// one is exhausted. It returns false when the stream ends, either normally
// or with an error; check Err after iteration.
func (s *PaginatedStream[T]) Next() bool {
	if s.done {
		return false
	}
	item, ok, err := s.pull()
	if err != nil {
		s.err = err
		s.done = true
		return false
	}
	if !ok {
		s.done = true
		return false
	}
	s.current = item
	return true
}

// Current returns the most recent item returned by Next.
func (s *PaginatedStream[T]) Current() T {
	return s.current
}

// Err returns the terminal error, if the stream ended with one. At most one
// error is ever reported; items yielded before it remain valid.
func (s *PaginatedStream[T]) Err() error {
	return s.err
}

// Collect drains the stream into a slice, fetching every remaining page. On
// error it returns the items yielded before the failure along with the
// error; no further pages are fetched.
func (s *PaginatedStream[T]) Collect() ([]T, error) {
	var items []T
	for s.Next() {
		items = append(items, s.Current())
	}
	return items, s.Err()
}

// Take returns a stream yielding at most n items from s. It takes ownership
// of s, which must not be iterated afterwards.
func (s *PaginatedStream[T]) Take(n int) *PaginatedStream[T] {
	remaining := n
	return &PaginatedStream[T]{pull: func() (T, bool, error) {
		if remaining <= 0 {
			var zero T
			return zero, false, nil
		}
		remaining--
		return s.pull()
	}}
}

// Filter returns a stream yielding only the items of s that satisfy pred.
// A terminal error passes through untouched. It takes ownership of s.
func (s *PaginatedStream[T]) Filter(pred func(T) bool) *PaginatedStream[T] {
	return &PaginatedStream[T]{pull: func() (T, bool, error) {
		for {
			item, ok, err := s.pull()
			if err != nil || !ok {
				return item, ok, err
			}
			if pred(item) {
				return item, true, nil
			}
		}
	}}
}

// MapStream returns a stream applying f to every item of s. A terminal error
// passes through untouched. It takes ownership of s. MapStream is a package
// function since Go methods cannot introduce type parameters.
func MapStream[T, U any](s *PaginatedStream[T], f func(T) U) *PaginatedStream[U] {
	return &PaginatedStream[U]{pull: func() (U, bool, error) {
		item, ok, err := s.pull()
		if err != nil || !ok {
			var zero U
			return zero, false, err
		}
		return f(item), true, nil
	}}
}
