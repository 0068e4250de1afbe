// Package item provides per-user CRUD for items behind token auth.
//
// Ownership is enforced at the storage layer: lookups are always scoped to
// the owner, so a foreign item is indistinguishable from a missing one.
package item
