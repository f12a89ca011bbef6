package auth

import (
	"time"

	"github.com/uptrace/bun"
)

// User is an identity capable of holding roles.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID            string    `bun:"id,pk" json:"id"`
	Name          string    `bun:"name,notnull" json:"name"`
	Email         string    `bun:"email,unique,notnull" json:"email"`
	EmailVerified bool      `bun:"email_verified,notnull,default:false" json:"email_verified"`
	Image         string    `bun:"image,nullzero" json:"image,omitempty"`
	PasswordHash  string    `bun:"password,nullzero" json:"-"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// Session is a server-side login session. Only a hash of the opaque token is
// stored; presenting the raw token proves ownership.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`

	ID        string    `bun:"id,pk" json:"id"`
	TokenHash string    `bun:"token_hash,unique,notnull" json:"-"`
	ExpiresAt time.Time `bun:"expires_at,notnull" json:"expires_at"`
	IPAddress string    `bun:"ip_address,nullzero" json:"ip_address,omitempty"`
	UserAgent string    `bun:"user_agent,nullzero" json:"user_agent,omitempty"`
	UserID    string    `bun:"user_id,notnull" json:"user_id"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`

	// Token carries the raw session token right after creation. It is never
	// persisted or serialized.
	Token string `bun:"-" json:"-"`
}

// Account links a user to a credential provider. Password sign-up creates a
// "credential" account; OAuth providers create one row per linked provider.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`

	ID           string    `bun:"id,pk" json:"id"`
	AccountID    string    `bun:"account_id,notnull" json:"account_id"`
	ProviderID   string    `bun:"provider_id,notnull" json:"provider_id"`
	UserID       string    `bun:"user_id,notnull" json:"user_id"`
	AccessToken  string    `bun:"access_token,nullzero" json:"-"`
	RefreshToken string    `bun:"refresh_token,nullzero" json:"-"`
	PasswordHash string    `bun:"password,nullzero" json:"-"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// Verification holds a pending email verification or reset token reference.
type Verification struct {
	bun.BaseModel `bun:"table:verifications,alias:v"`

	ID         string    `bun:"id,pk" json:"id"`
	Identifier string    `bun:"identifier,notnull" json:"identifier"`
	Value      string    `bun:"value,notnull" json:"value"`
	ExpiresAt  time.Time `bun:"expires_at,notnull" json:"expires_at"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

const providerCredential = "credential"
