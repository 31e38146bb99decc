// Package session keeps the per-browser state a portal tab would otherwise
// hold in its own storage: the bearer token, the selected account, the
// display name and the email of a pending verification or reset.
package session

import "context"

// Well-known keys.
const (
	KeyToken           = "token"
	KeySelectedAccount = "selectedAccount"
	KeyDisplayName     = "userDisplayName"
	KeyPendingEmail    = "pendingEmail"
	KeyMemberAllowed   = "memberAllowed"
)

// Store is the single persistence adapter behind every piece of session
// state. Absence is not an error: Get reports ok=false. Writes are
// last-writer-wins.
type Store interface {
	Get(ctx context.Context, sid, key string) (value string, ok bool, err error)
	Set(ctx context.Context, sid, key, value string) error
	// Clear removes the given keys, or the whole session when none are given.
	Clear(ctx context.Context, sid string, keys ...string) error
}

// Lookup reads a key and treats failures as absence. Use it where a missing
// value is handled the same as a broken store.
func Lookup(ctx context.Context, store Store, sid, key string) string {
	value, ok, err := store.Get(ctx, sid, key)
	if err != nil || !ok {
		return ""
	}
	return value
}
