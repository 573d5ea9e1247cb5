package market

import (
	"context"
)

// Statistics returns marketplace-wide totals.
func (c *Client) Statistics(ctx context.Context) (*Statistics, error) {
	result, err := c.callScript(ctx, "statistics", nil, true)
	if err != nil {
		return nil, err
	}
	return decodeRecord[Statistics](result)
}
