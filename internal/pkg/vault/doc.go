// Package vault protects secrets that must be stored reversibly, such as TOTP
// shared secrets.
//
// The default Passthrough vault stores values unmodified. AESGCM seals values
// with AES-256-GCM, binding each ciphertext to the owner and purpose through
// the GCM additional data, and encodes the envelope as base64 text so it fits
// in string-typed storage.
package vault
