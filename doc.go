// Package blog implements a small blog backend whose core is credential
// verification and bearer-token issuance.
//
// Credential schemes:
//   - Two interchangeable schemes stand behind one CredentialScheme
//     abstraction: a stateless signed token (HS256 JWT) and a stateful
//     ephemeral API key backed by an in-memory KeyStore. The scheme is fixed
//     per deployment through Config.GetAuthScheme.
//   - Signed tokens are self contained; rotating the signing key invalidates
//     every outstanding token, and there is no server-side revocation list.
//     API keys live in process memory, expire after the configured TTL, and
//     are gone after a restart. Both behaviors are deliberate.
//
// Resolution:
//   - Auther is the single entry point protected routes depend on. Login turns
//     a username/password pair into a Credential; Authenticate resolves a
//     presented credential back to an Identity, re-checking that the identity
//     still exists so a valid credential for a deleted user never
//     authenticates.
//
// The post/comment/user repositories and the fiber controllers are data-access
// glue around that core: they supply the stored password hash at login time
// and consume the resolved identity everywhere else.
package blog
