package entity

// Verification outcomes recorded on the tfa.verifications counter.
const (
	OutcomeAccepted      = "accepted"
	OutcomeRejected      = "rejected"
	OutcomeReplay        = "replay"
	OutcomeConcurrent    = "concurrent"
	OutcomeEmptyInput    = "empty_input"
	OutcomeNotConfigured = "not_configured"
)
