package market

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// GetApp returns the full publication record for appID, localized per the
// client's language. Unknown IDs surface as NotFoundError.
func (c *Client) GetApp(ctx context.Context, appID int64) (*AppDetail, error) {
	if appID <= 0 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("app id must be positive, got %d", appID)}
	}

	form := url.Values{}
	form.Set("file_id", strconv.FormatInt(appID, 10))
	form.Set("language_id", strconv.Itoa(int(c.language)))

	result, err := c.callScript(ctx, "publication", form, true)
	if err != nil {
		return nil, err
	}

	detail, err := decodeRecord[AppDetail](result)
	if err != nil {
		return nil, err
	}
	if detail.ID != appID {
		return nil, &SchemaError{Field: "file_id", Reason: fmt.Sprintf("requested %d, server answered for %d", appID, detail.ID)}
	}
	return detail, nil
}

// ListVersions returns the versions the market reports for appID, newest
// first, exactly as the server declares them. The market keeps only the
// current release online; a superseded what's-new version is reported
// without a download reference.
func (c *Client) ListVersions(ctx context.Context, appID int64) ([]AppVersion, error) {
	detail, err := c.GetApp(ctx, appID)
	if err != nil {
		return nil, err
	}

	versions := []AppVersion{{
		Version:    detail.Version,
		ReleasedAt: detail.ReleasedAt,
		SourceURL:  detail.SourceURL,
		Path:       detail.Path,
	}}
	if detail.WhatsNewVersion > 0 && detail.WhatsNewVersion != detail.Version {
		versions = append(versions, AppVersion{Version: detail.WhatsNewVersion})
	}
	return versions, nil
}
