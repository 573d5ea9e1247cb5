package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// ReviewDraft is the caller-supplied part of a review. Rating is 1 (worst)
// to 5 (best).
type ReviewDraft struct {
	Rating  int
	Comment string
}

// ListReviews returns reviews for a publication in server order. offset
// and count may be zero to take the market's defaults.
func (c *Client) ListReviews(ctx context.Context, appID int64, offset, count int) ([]Review, error) {
	if appID <= 0 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("app id must be positive, got %d", appID)}
	}
	if offset < 0 || count < 0 {
		return nil, &ConfigurationError{Reason: "offset and count must not be negative"}
	}

	form := url.Values{}
	form.Set("file_id", strconv.FormatInt(appID, 10))
	if offset > 0 {
		form.Set("offset", strconv.Itoa(offset))
	}
	if count > 0 {
		form.Set("count", strconv.Itoa(count))
	}

	result, err := c.callScript(ctx, "reviews", form, true)
	if err != nil {
		return nil, err
	}
	return decodeList[Review](result)
}

// SubmitReview posts a review from the authenticated account and returns
// the confirmed record. Requires a prior Authenticate (or WithToken); with
// no token set it fails without touching the network. Never auto-retried.
func (c *Client) SubmitReview(ctx context.Context, appID int64, draft ReviewDraft) (*Review, error) {
	token, userName := c.identity()
	if token == "" {
		return nil, &AuthenticationError{Reason: "no token set, call Authenticate first"}
	}
	if appID <= 0 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("app id must be positive, got %d", appID)}
	}
	if draft.Rating < 1 || draft.Rating > 5 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("rating must be within 1..5, got %d", draft.Rating)}
	}

	form := url.Values{}
	form.Set("token", token)
	form.Set("file_id", strconv.FormatInt(appID, 10))
	form.Set("rating", strconv.Itoa(draft.Rating))
	form.Set("comment", draft.Comment)

	result, err := c.callScript(ctx, "review", form, false)
	if err != nil {
		return nil, err
	}

	// The market acknowledges without echoing a record; synthesize the
	// confirmed review from the stored identity when it does not.
	if trimmed := bytes.TrimSpace(result); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		return decodeRecord[Review](result)
	}
	return &Review{
		Author:    userName,
		Rating:    draft.Rating,
		Comment:   draft.Comment,
		Timestamp: time.Now().Unix(),
	}, nil
}

// VoteReview marks a review as helpful or not from the authenticated
// account and returns the server's acknowledgement text.
func (c *Client) VoteReview(ctx context.Context, reviewID int64, helpful bool) (string, error) {
	token, err := c.requireToken()
	if err != nil {
		return "", err
	}
	if reviewID <= 0 {
		return "", &ConfigurationError{Reason: fmt.Sprintf("review id must be positive, got %d", reviewID)}
	}

	rating := "0"
	if helpful {
		rating = "1"
	}
	form := url.Values{}
	form.Set("token", token)
	form.Set("review_id", strconv.FormatInt(reviewID, 10))
	form.Set("rating", rating)

	result, err := c.callScript(ctx, "review_vote", form, false)
	if err != nil {
		return "", err
	}

	var ack string
	if len(bytes.TrimSpace(result)) > 0 {
		if err := json.Unmarshal(result, &ack); err != nil {
			return "", asSchemaError(err)
		}
	}
	return ack, nil
}
