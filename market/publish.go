package market

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// AppDraft carries everything needed to upload or update a publication.
type AppDraft struct {
	Name         string
	SourceURL    string
	Path         string
	Description  string
	License      License
	Category     Category
	Dependencies []int64
	WhatsNew     string
}

func (d AppDraft) validateInput() error {
	switch {
	case d.Name == "":
		return &ConfigurationError{Reason: "publication name is required"}
	case d.SourceURL == "":
		return &ConfigurationError{Reason: "source URL is required"}
	case d.Path == "":
		return &ConfigurationError{Reason: "install path is required"}
	case d.License < LicenseMIT || d.License > LicenseUnlicense:
		return &ConfigurationError{Reason: fmt.Sprintf("unknown license id %d", d.License)}
	case d.Category < CategoryApplications || d.Category > CategoryWallpapers:
		return &ConfigurationError{Reason: fmt.Sprintf("unknown category id %d", d.Category)}
	}
	return nil
}

func (d AppDraft) form(token string) url.Values {
	form := url.Values{}
	form.Set("token", token)
	form.Set("name", d.Name)
	form.Set("source_url", d.SourceURL)
	form.Set("path", d.Path)
	form.Set("description", d.Description)
	form.Set("license_id", strconv.Itoa(int(d.License)))
	form.Set("category_id", strconv.Itoa(int(d.Category)))
	for _, dep := range d.Dependencies {
		form.Add("dependencies", strconv.FormatInt(dep, 10))
	}
	if d.WhatsNew != "" {
		form.Set("whats_new", d.WhatsNew)
	}
	return form
}

// Publish uploads a new publication owned by the authenticated account.
func (c *Client) Publish(ctx context.Context, draft AppDraft) error {
	token, err := c.requireToken()
	if err != nil {
		return err
	}
	if err := draft.validateInput(); err != nil {
		return err
	}

	_, err = c.callScript(ctx, "upload", draft.form(token), false)
	return err
}

// UpdateApp replaces the stored publication data for appID, which must be
// owned by the authenticated account.
func (c *Client) UpdateApp(ctx context.Context, appID int64, draft AppDraft) error {
	token, err := c.requireToken()
	if err != nil {
		return err
	}
	if appID <= 0 {
		return &ConfigurationError{Reason: fmt.Sprintf("app id must be positive, got %d", appID)}
	}
	if err := draft.validateInput(); err != nil {
		return err
	}

	form := draft.form(token)
	form.Set("file_id", strconv.FormatInt(appID, 10))

	_, err = c.callScript(ctx, "update", form, false)
	return err
}

// DeleteApp removes a publication owned by the authenticated account.
func (c *Client) DeleteApp(ctx context.Context, appID int64) error {
	token, err := c.requireToken()
	if err != nil {
		return err
	}
	if appID <= 0 {
		return &ConfigurationError{Reason: fmt.Sprintf("app id must be positive, got %d", appID)}
	}

	form := url.Values{}
	form.Set("token", token)
	form.Set("file_id", strconv.FormatInt(appID, 10))

	_, err = c.callScript(ctx, "delete", form, false)
	return err
}
