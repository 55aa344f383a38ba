// Package clock provides a tiny time abstraction.
//
// Verification windows and token expiry read the time through Clocker so tests
// can pin it with a Fixed clock.
package clock
