package models

import "strings"

// PaidPrefix namespaces report history written by paid lookups.
const PaidPrefix = "paid:"

type IdentityKind int

const (
	IdentityFree IdentityKind = iota
	IdentityPaid
)

// Identity is the requesting user of a lookup. Free and paid lookups of the
// same Telegram user are kept in separate history buckets.
type Identity struct {
	Kind IdentityKind
	ID   string
}

func FreeUser(id string) Identity { return Identity{Kind: IdentityFree, ID: id} }

func PaidUser(id string) Identity { return Identity{Kind: IdentityPaid, ID: id} }

// Key is the value stored in vin_logs.user_id.
func (i Identity) Key() string {
	if i.Kind == IdentityPaid {
		return PaidPrefix + i.ID
	}
	return i.ID
}

func (i Identity) IsPaid() bool {
	return i.Kind == IdentityPaid
}

func (i Identity) String() string {
	return i.Key()
}

// ParseIdentity is the inverse of Key.
func ParseIdentity(key string) Identity {
	if id, ok := strings.CutPrefix(key, PaidPrefix); ok {
		return PaidUser(id)
	}
	return FreeUser(key)
}
