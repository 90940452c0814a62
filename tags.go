package letta

import (
	"context"
	"net/url"
	"strconv"
)

// ListTagsParams filters and pages tag listings.
type ListTagsParams struct {
	After     string
	Limit     int
	QueryText string
}

func (p *ListTagsParams) values() url.Values {
	if p == nil {
		return nil
	}
	q := url.Values{}
	if p.After != "" {
		q.Set("after", p.After)
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.QueryText != "" {
		// The server expects camelCase for this one parameter.
		q.Set("queryText", p.QueryText)
	}
	return q
}

// TagService lists the tags attached to agents. Access it through
// Client.Tags.
type TagService struct {
	client *Client
}

// List returns tags matching the given filters.
func (s *TagService) List(ctx context.Context, params *ListTagsParams) ([]string, error) {
	var out []string
	if err := s.client.get(ctx, "v1/tags", params.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Paginated returns a lazy stream over all tags, fetching pages on demand.
// The tag value itself is the pagination cursor.
func (s *TagService) Paginated(ctx context.Context, params PaginationParams) *PaginatedStream[string] {
	fetch := func(ctx context.Context, p PaginationParams) ([]string, error) {
		var out []string
		if err := s.client.get(ctx, "v1/tags", p.values(), &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	return NewStringPaginatedStream(ctx, params, fetch, func(tag string) string { return tag })
}
