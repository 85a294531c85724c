// Package credentials persists the current session: the signed-in user and
// the bearer token that authenticates every API request.
//
// # Contract
//
// A Store holds at most one models.Credential under the fixed key "user".
// Get reports found=false when nobody is signed in. Set replaces the stored
// record atomically (last write wins). Clear removes it and is idempotent.
//
// # Backends
//
//   - MemoryStore: process-local, used in tests and with DSN "memory".
//   - SQLiteStore: durable file database; also keeps the HTTP cookie jar so a
//     later process can still refresh its token.
//   - RedisStore: shares one session between machines, DSN "redis://...".
//
// Open picks a backend from a DSN string.
package credentials
