package session

import (
	"errors"
	"fmt"

	"github.com/chantierhq/access/internal/authz"
)

// Domain errors
var (
	ErrInvalidClaims   = errors.New("invalid claims")
	ErrCorruptSession  = errors.New("corrupt session slot")
	ErrUnknownRole     = errors.New("unknown role in session slot")
	ErrNotRehydratable = errors.New("session slot not rehydratable")
)

// avatarFallback is the deterministic avatar URL used when the identity
// provider omits the picture claim.
const avatarFallback = "https://api.dicebear.com/7.x/avataaars/svg?seed=%s"

// Principal is the authenticated user record held by the store and
// serialized into the durable slot. It is immutable: a new ingest replaces
// it wholesale.
type Principal struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName"`
	AvatarURL   string     `json:"avatarUrl,omitempty"`
	Role        authz.Role `json:"role"`
	CreatedAt   int64      `json:"createdAt"`
}

// Validate checks the canonical schema: all required fields present and the
// role a member of the closed enumeration. Rehydration rejects (and purges)
// anything that fails this.
func (p *Principal) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: missing id", ErrCorruptSession)
	}
	if p.Email == "" {
		return fmt.Errorf("%w: missing email", ErrCorruptSession)
	}
	if p.DisplayName == "" {
		return fmt.Errorf("%w: missing display name", ErrCorruptSession)
	}
	if !p.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRole, p.Role)
	}
	if p.CreatedAt <= 0 {
		return fmt.Errorf("%w: missing creation time", ErrCorruptSession)
	}
	return nil
}

// sameIdentity reports whether two principals carry the same identity
// fields, ignoring CreatedAt. Used to keep Ingest idempotent for identical
// claim sets.
func (p *Principal) sameIdentity(other *Principal) bool {
	return p.ID == other.ID &&
		p.Email == other.Email &&
		p.DisplayName == other.DisplayName &&
		p.AvatarURL == other.AvatarURL &&
		p.Role == other.Role
}

// Claims is the validated claim set produced by the external identity
// provider. Token signature verification happens upstream; by the time a
// claim set reaches Ingest it is trusted.
type Claims struct {
	// Subject is the provider's stable user identifier ("sub"). Required.
	Subject string `json:"sub"`

	// Email is the account email. Required; lowercased for role derivation.
	Email string `json:"email"`

	// Name is the display name. Optional; falls back to Email.
	Name string `json:"name,omitempty"`

	// Picture is the avatar URL. Optional; falls back to a deterministic
	// URL derived from Email.
	Picture string `json:"picture,omitempty"`
}

// Validate reports ErrInvalidClaims when a required claim is missing.
func (c Claims) Validate() error {
	if c.Subject == "" {
		return fmt.Errorf("%w: missing sub", ErrInvalidClaims)
	}
	if c.Email == "" {
		return fmt.Errorf("%w: missing email", ErrInvalidClaims)
	}
	return nil
}
