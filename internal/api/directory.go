package api

import (
	"context"
	"fmt"
	"net/http"

	"signals-client/internal/model"
)

// DirectoryClient talks to the admin/user-directory service. A plain GET
// returns the full directory snapshot; mutations and admin authentication go
// through action-tagged POSTs.
type DirectoryClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewDirectoryClient creates a DirectoryClient for the given endpoint.
func NewDirectoryClient(endpoint string, httpClient *http.Client) *DirectoryClient {
	return &DirectoryClient{
		endpoint:   endpoint,
		httpClient: httpClient,
	}
}

type directoryResponse struct {
	Users []model.DirectoryRecord `json:"users"`
}

type mutationRequest struct {
	Action        string   `json:"action"`
	Username      string   `json:"username,omitempty"`
	Password      string   `json:"password,omitempty"`
	UserID        int64    `json:"userId,omitempty"`
	Balance       *float64 `json:"balance,omitempty"`
	ReferralCount *int     `json:"referralCount,omitempty"`
	Reason        string   `json:"reason,omitempty"`
}

type mutationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ListUsers fetches the full directory snapshot.
func (c *DirectoryClient) ListUsers(ctx context.Context) ([]model.DirectoryRecord, error) {
	var resp directoryResponse
	if err := getJSON(ctx, c.httpClient, c.endpoint, &resp); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return resp.Users, nil
}

// AdminLogin authenticates the reserved admin account.
func (c *DirectoryClient) AdminLogin(ctx context.Context, username, password string) error {
	return c.mutate(ctx, mutationRequest{
		Action:   "login",
		Username: username,
		Password: password,
	})
}

// UpdateUser overwrites a user's balance and referral count.
func (c *DirectoryClient) UpdateUser(ctx context.Context, userID int64, balance float64, referralCount int) error {
	return c.mutate(ctx, mutationRequest{
		Action:        "update_user",
		UserID:        userID,
		Balance:       &balance,
		ReferralCount: &referralCount,
	})
}

// BanUser bans a user with the given reason.
func (c *DirectoryClient) BanUser(ctx context.Context, userID int64, reason string) error {
	return c.mutate(ctx, mutationRequest{
		Action: "ban_user",
		UserID: userID,
		Reason: reason,
	})
}

// UnbanUser lifts a user's ban.
func (c *DirectoryClient) UnbanUser(ctx context.Context, userID int64) error {
	return c.mutate(ctx, mutationRequest{
		Action: "unban_user",
		UserID: userID,
	})
}

// DeleteUser removes a user from the directory.
func (c *DirectoryClient) DeleteUser(ctx context.Context, userID int64) error {
	return c.mutate(ctx, mutationRequest{
		Action: "delete_user",
		UserID: userID,
	})
}

func (c *DirectoryClient) mutate(ctx context.Context, req mutationRequest) error {
	var resp mutationResponse
	if err := postJSON(ctx, c.httpClient, c.endpoint, req, &resp); err != nil {
		return fmt.Errorf("%s: %w", req.Action, err)
	}
	if !resp.Success {
		return &RejectedError{Message: resp.Message}
	}
	return nil
}
