// Package auth signs and verifies the HS256 tokens briefcast hands out:
// bearer sessions for the API and the OAuth state parameter that ties a
// provider callback back to the user who started it.
package auth
