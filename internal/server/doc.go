// Package server runs the temporary local HTTP server used by the CLI's
// OAuth2 authorization code flow.
//
// The [CallbackServer] listens on the host and path of the configured
// redirect URI, validates the state parameter, exchanges the authorization
// code for tokens, and delivers exactly one [AuthResult] on its result
// channel before shutting down. Repeated callbacks are rejected.
package server
