package market

import (
	"context"
	"fmt"
)

// defaultPageSize is the largest page the market honors; counts beyond 100
// have no effect server-side.
const defaultPageSize = 100

// SearchOptions control a publications search. All fields are optional;
// the zero value lists the most popular publications.
type SearchOptions struct {
	Category       Category `url:"category_id,omitempty"`
	OrderBy        OrderBy  `url:"order_by,omitempty"`
	OrderDirection string   `url:"order_direction,omitempty"`
	Offset         int      `url:"offset,omitempty"`
	Count          int      `url:"count,omitempty"`
	Query          string   `url:"search,omitempty"`
	FileIDs        []int64  `url:"file_ids,omitempty,comma"`
}

// Search returns one page of publications matching query. Pagination is
// the server's; results are passed through in server order.
func (c *Client) Search(ctx context.Context, query string, page, pageSize int) ([]AppSummary, error) {
	if page < 1 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("page must be positive, got %d", page)}
	}
	if pageSize < 1 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("page size must be positive, got %d", pageSize)}
	}

	return c.SearchApps(ctx, SearchOptions{
		Query:  query,
		Offset: (page - 1) * pageSize,
		Count:  pageSize,
	})
}

// SearchApps performs one publications call with full control over the
// search parameters.
func (c *Client) SearchApps(ctx context.Context, opts SearchOptions) ([]AppSummary, error) {
	if opts.Offset < 0 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("offset must not be negative, got %d", opts.Offset)}
	}
	form, err := encodeForm(opts)
	if err != nil {
		return nil, err
	}

	result, err := c.callScript(ctx, "publications", form, true)
	if err != nil {
		return nil, err
	}

	apps, err := decodeList[AppSummary](result)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int("count", len(apps)).
		Str("query", opts.Query).
		Msg("retrieved publications")
	return apps, nil
}

// SearchAll pages through every matching publication until the market
// returns an empty page, collecting the results in server order.
func (c *Client) SearchAll(ctx context.Context, opts SearchOptions) ([]AppSummary, error) {
	perPage := opts.Count
	if perPage <= 0 {
		perPage = defaultPageSize
	}

	var all []AppSummary
	for page := 0; ; page++ {
		opts.Offset = page * perPage
		opts.Count = perPage

		apps, err := c.SearchApps(ctx, opts)
		if err != nil {
			return nil, err
		}
		if len(apps) == 0 {
			break
		}
		all = append(all, apps...)
		if len(apps) < perPage {
			break
		}
	}
	return all, nil
}
