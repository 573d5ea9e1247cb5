package market

import (
	"context"
	"net/url"
)

// Dialogs returns the authenticated account's conversation list, newest
// activity first as the server reports it.
func (c *Client) Dialogs(ctx context.Context) ([]Notification, error) {
	token, err := c.requireToken()
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("token", token)

	result, err := c.callScript(ctx, "dialogs", form, true)
	if err != nil {
		return nil, err
	}
	return decodeList[Notification](result)
}

// Messages returns the conversation with userName for the authenticated
// account.
func (c *Client) Messages(ctx context.Context, userName string) ([]Message, error) {
	token, err := c.requireToken()
	if err != nil {
		return nil, err
	}
	if userName == "" {
		return nil, &ConfigurationError{Reason: "user name is required"}
	}

	form := url.Values{}
	form.Set("token", token)
	form.Set("user_name", userName)

	result, err := c.callScript(ctx, "messages", form, true)
	if err != nil {
		return nil, err
	}
	return decodeList[Message](result)
}

// SendMessage sends a direct message to userName from the authenticated
// account. Never auto-retried.
func (c *Client) SendMessage(ctx context.Context, userName, text string) error {
	token, err := c.requireToken()
	if err != nil {
		return err
	}
	if userName == "" {
		return &ConfigurationError{Reason: "user name is required"}
	}
	if text == "" {
		return &ConfigurationError{Reason: "message text is required"}
	}

	form := url.Values{}
	form.Set("token", token)
	form.Set("user_name", userName)
	form.Set("text", text)

	_, err = c.callScript(ctx, "message", form, false)
	return err
}
