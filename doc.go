// Package auth is the authentication and session core of the Boltline
// storefront: credential sign-in/sign-up, password change, account deletion,
// and session-gated request handling.
//
// Session model:
//   - Sessions are signed HS256 tokens carrying a SessionUser projection and
//     an expiry, persisted client-side in an HTTP-only cookie. The server is
//     the only party able to mint or verify them.
//   - Display call sites may trust the cookie-embedded projection for the
//     token's lifetime. Authorization decisions go through
//     SessionManager.GetUser, which re-fetches the row by id; the token only
//     gates whether the store is queried at all.
//
// Action pipeline:
//   - ValidatedAction, ValidatedActionWithUser, WithUser, and WithAdmin wrap
//     business handlers with payload validation and session resolution.
//     Validation surfaces the first violated rule in declared field order;
//     missing sessions short-circuit into a redirect before validation runs.
//     Business failures travel as ActionState values, never as errors.
package auth
