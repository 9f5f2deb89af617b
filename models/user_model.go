package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Tier is the subscription state stored on a user.
type Tier string

const (
	TierFree       Tier = "free"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
	// TierPaid marks a completed checkout whose plan could not be determined.
	TierPaid Tier = "paid"
)

func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierPro, TierEnterprise, TierPaid:
		return true
	}
	return false
}

type User struct {
	ID           string    `bson:"_id" json:"id"`
	Username     string    `bson:"username" json:"username"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password_hash,omitempty" json:"-"`
	Subscription Tier      `bson:"subscription" json:"subscription"`
	APIKey       *string   `bson:"api_key,omitempty" json:"apiKey,omitempty"`
	Usage        int64     `bson:"usage" json:"usage"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updatedAt"`
}

// WithoutSecrets returns a copy safe to list alongside other accounts.
func (u User) WithoutSecrets() User {
	u.PasswordHash = ""
	u.APIKey = nil
	return u
}

func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Email: u.Email}
}

type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UserUpdate carries the fields a single atomic update may touch.
// Nil pointers and a zero UsageDelta leave the stored value unchanged.
type UserUpdate struct {
	Subscription *Tier
	APIKey       *string
	UsageDelta   int64
}

// Validate rejects updates that would store an unknown tier or a blank API key.
func (u UserUpdate) Validate() error {
	if u.Subscription != nil && !u.Subscription.Valid() {
		return fmt.Errorf("unknown subscription tier %q", *u.Subscription)
	}
	if u.APIKey != nil && strings.TrimSpace(*u.APIKey) == "" {
		return errors.New("api key must not be blank")
	}
	return nil
}

// NormalizeEmail trims and lower-cases an address before storage or lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
