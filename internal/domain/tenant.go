package domain

import (
	"fmt"
	"strings"
)

// TenantID identifies the owner of one vector index.
type TenantID string

// PublicTenant is the shared regulatory corpus every user can search.
const PublicTenant TenantID = "public"

// UserTenant returns the tenant that owns a single user's uploads.
func UserTenant(userID int64) TenantID {
	return TenantID(fmt.Sprintf("user-%d", userID))
}

// Validate rejects identifiers that cannot be used as storage key segments.
func (t TenantID) Validate() error {
	s := string(t)
	if s == "" {
		return fmt.Errorf("tenant id is empty: %w", ErrInvalidTenant)
	}
	if strings.ContainsAny(s, "/\\ \t\n") {
		return fmt.Errorf("tenant id %q contains separators: %w", s, ErrInvalidTenant)
	}
	return nil
}

func (t TenantID) String() string { return string(t) }
