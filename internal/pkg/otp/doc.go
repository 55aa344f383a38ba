// Package otp wraps github.com/pquerna/otp with the TOTP (RFC 6238) contract
// used by the second-factor flows.
//
// Besides generating secrets and provisioning URIs, Verify reports which time
// slice a code matched so callers can keep a per-user watermark and reject
// replays of an already consumed slice.
package otp
