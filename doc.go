// Package identity provides a small self-contained identity service:
// user accounts keyed by email, bcrypt password storage, and opaque
// bearer tokens resolved against the database.
//
// Accounts:
//   - Users are persisted via Bun with a unique, case-normalized email.
//     Plaintext passwords never touch storage; HashPassword wraps bcrypt
//     with a cost picked per build. Registration and profile updates run
//     through command handlers so every write happens inside a
//     transaction with consistent error taxonomy.
//
// Tokens:
//   - TokenIssuer exchanges email/password credentials for an opaque
//     random key stored in auth_tokens. Resolve looks the key back up
//     and returns the owning active user. There is no signing or expiry
//     state to manage; revocation is a row delete.
//
// HTTP:
//   - RegisterIdentityRoutes mounts a JSON API on Fiber: public user
//     creation and token issuance, plus a token-gated self-service
//     profile resource. The tokenware middleware extracts the Bearer
//     key, resolves it through an Issuer, and places the user in both
//     fiber locals and the request context.
package identity
