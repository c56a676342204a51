// Package profile stores a user's billing profile in the identity provider's
// per-user metadata bag.
//
// The identity provider is reached through Directory, which mirrors the provider's
// getUser/updateUser surface: metadata updates are shallow merges and a nil value
// removes a key. Store encodes and decodes the billing fields on top of it and
// leaves every unrelated metadata key untouched.
//
// Three Directory implementations ship with the package: MemoryDirectory for tests
// and local development, PGDirectory (users table with jsonb metadata) and
// MongoDirectory (users collection).
package profile
