package market

import (
	"context"
	"net/url"
)

// Credentials identify a market account: a password plus the account name,
// the email, or both.
type Credentials struct {
	Name     string
	Email    string
	Password string
}

func (cr Credentials) validateInput() error {
	if cr.Password == "" {
		return &ConfigurationError{Reason: "password is required"}
	}
	if cr.Name == "" && cr.Email == "" {
		return &ConfigurationError{Reason: "account name or email is required"}
	}
	return nil
}

// Authenticate logs in and stores the returned token on the client, so
// every subsequent authenticated call is stamped with it. Concurrent
// logins are last-writer-wins; in-flight calls keep the token they
// started with.
func (c *Client) Authenticate(ctx context.Context, creds Credentials) (*AuthToken, error) {
	if err := creds.validateInput(); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("password", creds.Password)
	if creds.Name != "" {
		form.Set("name", creds.Name)
	}
	if creds.Email != "" {
		form.Set("email", creds.Email)
	}

	result, err := c.callScript(ctx, "login", form, false)
	if err != nil {
		return nil, err
	}

	token, err := decodeRecord[AuthToken](result)
	if err != nil {
		return nil, err
	}

	c.setIdentity(token.Token, token.Name)
	c.logger.Debug().Str("user", token.Name).Msg("authenticated with market")
	return token, nil
}

// Register creates a new market account. The market sends a verification
// email before the account can publish.
func (c *Client) Register(ctx context.Context, name, email, password string) error {
	if name == "" || email == "" || password == "" {
		return &ConfigurationError{Reason: "name, email and password are all required"}
	}

	form := url.Values{}
	form.Set("name", name)
	form.Set("email", email)
	form.Set("password", password)

	_, err := c.callScript(ctx, "register", form, false)
	return err
}

// ChangePassword replaces the account password. It does not touch the
// stored token.
func (c *Client) ChangePassword(ctx context.Context, email, currentPassword, newPassword string) error {
	if email == "" || currentPassword == "" || newPassword == "" {
		return &ConfigurationError{Reason: "email, current password and new password are all required"}
	}

	form := url.Values{}
	form.Set("email", email)
	form.Set("current_password", currentPassword)
	form.Set("new_password", newPassword)

	_, err := c.callScript(ctx, "change_password", form, false)
	return err
}
