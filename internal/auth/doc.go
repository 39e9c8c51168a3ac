// Package auth provides the identity primitives of the insurance platform.
//
// This package implements:
//   - The request Principal and its provider origin
//   - Local token issuance and verification (HS256)
//   - Issuer-based routing between local and federated verifiers
//   - Password hashing with bcrypt
//
// Nothing in this package touches the database. Credential lookups live in
// the services layer and run through the tenant-scoped gateway.
package auth
