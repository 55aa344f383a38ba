// Package jwt issues and verifies the bearer tokens that authenticate calls
// to the second-factor endpoints.
//
// The surrounding login controller issues a first-factor token; a successful
// TOTP verification exchanges it for a step-up token whose TFAVerified claim
// is set. The token ID (jti) scopes enrollment state to one session.
package jwt
