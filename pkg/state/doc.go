// Package state defines the persistence-facing contract used by filter
// stores: a string key/value medium holding one JSON blob per store.
//
// Responsibilities:
//   - KV only gets, sets and deletes opaque string payloads by key.
//   - Ref.Identifier() derives the deterministic key for one store
//     (`<prefix><store id>`, e.g. `filter-store-products`).
//   - The filters package stays medium-agnostic; callers choose MemoryStore,
//     the Redis adapter (pkg/state/redis) or the SQLite adapter
//     (pkg/state/sqlite).
//
// Data flow:
//
//	Store.Persist -> JSON object of current values -> KV.Set(Ref.Identifier())
//	KV.Get(Ref.Identifier()) -> ordered JSON walk -> Store.SetAllValues
//
// Adapters should return ok=false (not an error) for missing keys and must be
// safe for concurrent use. pkg/state/statetest provides a reusable contract
// suite.
package state
