package model

import (
	"time"
)

// Session is the server-side record behind the cookie handle. The token
// itself is never stored, only its HMAC under the session secret.
type Session struct {
	ID             string    `db:"id" json:"id"`
	TokenHash      string    `db:"token_hash" json:"-"`
	AccountID      string    `db:"account_id" json:"accountId"`
	Role           Role      `db:"role" json:"role"`
	Email          string    `db:"email" json:"email"`
	LastActivityAt time.Time `db:"last_activity_at" json:"lastActivityAt"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

type CreateSessionParams struct {
	TokenHash string
	AccountID string
	Role      Role
	Email     string
}
