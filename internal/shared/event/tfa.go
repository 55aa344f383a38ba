package event

const TFAEnabledDestination string = "tfa.enabled"
const TFADisabledDestination string = "tfa.disabled"
const TFAReplayRejectedDestination string = "tfa.replay_rejected"

// TFAMessage is the payload of every tfa.* event.
type TFAMessage struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"user_id"`
	OccurredAt int64  `json:"occurred_at"`
	Timeslice  int64  `json:"timeslice,omitempty"`
	Reason     string `json:"reason,omitempty"`
}
