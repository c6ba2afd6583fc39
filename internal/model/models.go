// Package model defines the data models shared across the signals client.
package model

import "time"

// Channel identifies an independent signal-generation context. Each channel
// has its own probability table and its own cooldown.
type Channel string

const (
	ChannelStandard Channel = "standard"
	ChannelPremium  Channel = "premium"
)

// Identity is the locally cached account of the authenticated user.
// The balance and referral count are a possibly-stale projection of the
// remote directory record and are refreshed by the reconciliation loop.
type Identity struct {
	ID            int64   `json:"id"`
	Username      string  `json:"username"`
	Balance       float64 `json:"balance"`
	ReferralCount int     `json:"referralCount"`
	ReferralCode  string  `json:"referralCode"`
}

// DirectoryRecord is a single account as reported by the remote
// user-directory service. Read-only from the client's perspective except
// through explicit admin mutation calls.
type DirectoryRecord struct {
	ID            int64   `json:"id"`
	Username      string  `json:"username"`
	Balance       float64 `json:"balance"`
	ReferralCount int     `json:"referralCount"`
	IsBanned      bool    `json:"isBanned"`
	BanReason     string  `json:"banReason"`
}

// Signal is a generated coefficient recommendation. Ephemeral: it is held
// only for display and superseded by the next request on the same channel.
type Signal struct {
	Value       float64
	GeneratedAt time.Time
	Channel     Channel
}

// BalanceUpdate is a partial update merged into the cached Identity.
// Nil fields are left untouched.
type BalanceUpdate struct {
	Balance       *float64
	ReferralCount *int
}
