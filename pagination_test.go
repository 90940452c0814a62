package letta

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pageFixture serves canned pages and records the params of every fetch.
type pageFixture struct {
	pages  [][]string
	params []PaginationParams
}

func (f *pageFixture) fetch(ctx context.Context, params PaginationParams) ([]string, error) {
	f.params = append(f.params, params)
	if len(f.pages) == 0 {
		return nil, nil
	}
	page := f.pages[0]
	f.pages = f.pages[1:]
	return page, nil
}

func stringCursor(s string) string { return s }

func TestPaginatedStreamMultiPage(t *testing.T) {
	fixture := &pageFixture{pages: [][]string{{"a", "b"}, {"c", "d"}, {"e"}}}
	stream := NewStringPaginatedStream(context.Background(), PaginationParams{Limit: 2}, fixture.fetch, stringCursor)

	var got []string
	for stream.Next() {
		got = append(got, stream.Current())
	}

	require.NoError(t, stream.Err())
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got)
	// The final page was short, so no fourth fetch happens.
	require.Len(t, fixture.params, 3)
	assert.Equal(t, "", fixture.params[0].After)
	assert.Equal(t, "b", fixture.params[1].After)
	assert.Equal(t, "d", fixture.params[2].After)
}

func TestPaginatedStreamEmptyFirstPage(t *testing.T) {
	fixture := &pageFixture{}
	stream := NewStringPaginatedStream(context.Background(), PaginationParams{Limit: 2}, fixture.fetch, stringCursor)

	assert.False(t, stream.Next())
	assert.NoError(t, stream.Err())
	assert.Len(t, fixture.params, 1)
}

func TestPaginatedStreamEmptyPageTerminates(t *testing.T) {
	// A full page followed by an empty one: the empty page ends the stream
	// even though the previous page suggested more data.
	fixture := &pageFixture{pages: [][]string{{"a", "b"}, {}}}
	stream := NewStringPaginatedStream(context.Background(), PaginationParams{Limit: 2}, fixture.fetch, stringCursor)

	got, err := stream.Collect()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Len(t, fixture.params, 2)
}

func TestPaginatedStreamShortPageTerminates(t *testing.T) {
	fixture := &pageFixture{pages: [][]string{{"a"}, {"never fetched"}}}
	stream := NewStringPaginatedStream(context.Background(), PaginationParams{Limit: 5}, fixture.fetch, stringCursor)

	got, err := stream.Collect()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
	assert.Len(t, fixture.params, 1, "a short page means no further fetches")
}

func TestPaginatedStreamClearsBeforeCursor(t *testing.T) {
	fixture := &pageFixture{pages: [][]string{{"a", "b"}, {"c"}}}
	stream := NewStringPaginatedStream(context.Background(), PaginationParams{Before: "z", Limit: 2}, fixture.fetch, stringCursor)

	_, err := stream.Collect()
	require.NoError(t, err)

	require.Len(t, fixture.params, 2)
	assert.Equal(t, "z", fixture.params[0].Before)
	assert.Equal(t, "b", fixture.params[1].After)
	assert.Empty(t, fixture.params[1].Before, "before must be dropped once after advances")
}

func TestPaginatedStreamErrorIsTerminal(t *testing.T) {
	calls := 0
	boom := &APIError{StatusCode: 500, Message: "boom"}
	fetch := func(ctx context.Context, params PaginationParams) ([]string, error) {
		calls++
		if calls == 1 {
			return []string{"a", "b"}, nil
		}
		return nil, boom
	}
	stream := NewStringPaginatedStream(context.Background(), PaginationParams{Limit: 2}, fetch, stringCursor)

	assert.True(t, stream.Next())
	assert.True(t, stream.Next())
	assert.False(t, stream.Next())

	var apiErr *APIError
	require.ErrorAs(t, stream.Err(), &apiErr)
	assert.Equal(t, 500, apiErr.StatusCode)

	// The stream stays done; no further fetches are issued.
	assert.False(t, stream.Next())
	assert.Equal(t, 2, calls)
}

func TestPaginatedStreamCollectPartialOnError(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context, params PaginationParams) ([]string, error) {
		calls++
		if calls == 1 {
			return []string{"a", "b"}, nil
		}
		return nil, errors.New("network down")
	}
	stream := NewStringPaginatedStream(context.Background(), PaginationParams{Limit: 2}, fetch, stringCursor)

	got, err := stream.Collect()
	require.Error(t, err)
	assert.Equal(t, []string{"a", "b"}, got, "items before the failure are kept")
}

func TestPaginatedStreamSinglePageMode(t *testing.T) {
	// Without a cursor strategy only one page is ever fetched, even a full
	// one.
	fixture := &pageFixture{pages: [][]string{{"a", "b"}, {"c", "d"}}}
	stream := NewPaginatedStream(context.Background(), PaginationParams{Limit: 2}, fixture.fetch)

	got, err := stream.Collect()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Len(t, fixture.params, 1)
}

func TestPaginatedStreamDefaultLimit(t *testing.T) {
	// With no explicit limit a page is final unless it reaches the default
	// page size.
	fixture := &pageFixture{pages: [][]string{{"a", "b", "c"}}}
	stream := NewStringPaginatedStream(context.Background(), PaginationParams{}, fixture.fetch, stringCursor)

	got, err := stream.Collect()
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Len(t, fixture.params, 1)
}

func TestIDPaginatedStreamCursorsOnID(t *testing.T) {
	type item struct{ ID ID }
	first := MustParseID("agent-550e8400-e29b-41d4-a716-446655440000")
	second := MustParseID("agent-550e8400-e29b-41d4-a716-446655440001")

	var afters []string
	fetch := func(ctx context.Context, params PaginationParams) ([]item, error) {
		afters = append(afters, params.After)
		if params.After == "" {
			return []item{{ID: first}, {ID: second}}, nil
		}
		return nil, nil
	}
	stream := NewIDPaginatedStream(context.Background(), PaginationParams{Limit: 2}, fetch, func(i item) ID { return i.ID })

	got, err := stream.Collect()
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, []string{"", "agent-550e8400-e29b-41d4-a716-446655440001"}, afters)
}

func TestPaginatedStreamTake(t *testing.T) {
	fixture := &pageFixture{pages: [][]string{{"a", "b"}, {"c", "d"}, {"e", "f"}}}
	stream := NewStringPaginatedStream(context.Background(), PaginationParams{Limit: 2}, fixture.fetch, stringCursor).Take(3)

	got, err := stream.Collect()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	// Lazy: the third page is never needed.
	assert.Len(t, fixture.params, 2)
}

func TestPaginatedStreamTakeZero(t *testing.T) {
	fixture := &pageFixture{pages: [][]string{{"a"}}}
	stream := NewStringPaginatedStream(context.Background(), PaginationParams{}, fixture.fetch, stringCursor).Take(0)

	assert.False(t, stream.Next())
	assert.NoError(t, stream.Err())
	assert.Empty(t, fixture.params, "taking zero items needs no fetch at all")
}

func TestPaginatedStreamFilter(t *testing.T) {
	fixture := &pageFixture{pages: [][]string{{"apple", "banana", "avocado"}}}
	stream := NewStringPaginatedStream(context.Background(), PaginationParams{Limit: 5}, fixture.fetch, stringCursor).
		Filter(func(s string) bool { return strings.HasPrefix(s, "a") })

	got, err := stream.Collect()
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "avocado"}, got)
}

func TestMapStream(t *testing.T) {
	fixture := &pageFixture{pages: [][]string{{"a", "bb", "ccc"}}}
	base := NewStringPaginatedStream(context.Background(), PaginationParams{Limit: 5}, fixture.fetch, stringCursor)
	lengths := MapStream(base, func(s string) int { return len(s) })

	got, err := lengths.Collect()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestMapStreamPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	fetch := func(ctx context.Context, params PaginationParams) ([]string, error) {
		return nil, boom
	}
	base := NewStringPaginatedStream(context.Background(), PaginationParams{}, fetch, stringCursor)
	mapped := MapStream(base, func(s string) int { return len(s) })

	assert.False(t, mapped.Next())
	assert.ErrorIs(t, mapped.Err(), boom)
}

func TestPaginationParamsValues(t *testing.T) {
	asc := true
	params := PaginationParams{Before: "b1", After: "a1", Limit: 25, Ascending: &asc}
	q := params.values()

	assert.Equal(t, "b1", q.Get("before"))
	assert.Equal(t, "a1", q.Get("after"))
	assert.Equal(t, "25", q.Get("limit"))
	assert.Equal(t, "true", q.Get("ascending"))

	empty := PaginationParams{}.values()
	assert.Empty(t, empty)
}
