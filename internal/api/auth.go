package api

import (
	"context"
	"fmt"
	"net/http"

	"signals-client/internal/model"
)

// AuthClient talks to the remote account service.
type AuthClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewAuthClient creates an AuthClient for the given endpoint.
func NewAuthClient(endpoint string, httpClient *http.Client) *AuthClient {
	return &AuthClient{
		endpoint:   endpoint,
		httpClient: httpClient,
	}
}

type authRequest struct {
	Action       string `json:"action"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	ReferralCode string `json:"referralCode,omitempty"`
}

type authResponse struct {
	Success bool            `json:"success"`
	User    *model.Identity `json:"user,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Login authenticates existing credentials and returns the account Identity.
func (c *AuthClient) Login(ctx context.Context, username, password string) (model.Identity, error) {
	return c.authenticate(ctx, authRequest{
		Action:   "login",
		Username: username,
		Password: password,
	})
}

// Register creates an account, optionally crediting a referral code, and
// returns the new Identity.
func (c *AuthClient) Register(ctx context.Context, username, password, referralCode string) (model.Identity, error) {
	return c.authenticate(ctx, authRequest{
		Action:       "register",
		Username:     username,
		Password:     password,
		ReferralCode: referralCode,
	})
}

func (c *AuthClient) authenticate(ctx context.Context, req authRequest) (model.Identity, error) {
	var resp authResponse
	if err := postJSON(ctx, c.httpClient, c.endpoint, req, &resp); err != nil {
		return model.Identity{}, fmt.Errorf("auth %s: %w", req.Action, err)
	}
	if !resp.Success || resp.User == nil {
		return model.Identity{}, &RejectedError{Message: resp.Message}
	}
	return *resp.User, nil
}
