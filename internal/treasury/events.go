package treasury

import "time"

// EventType names a treasury lifecycle event.
type EventType string

const (
	EventTreasuryCreated      EventType = "treasury_created"
	EventTreasuryFunded       EventType = "treasury_funded"
	EventPresignsAdded        EventType = "presigns_added"
	EventRequestCreated       EventType = "request_created"
	EventVoteCast             EventType = "vote_cast"
	EventRequestExecuted      EventType = "request_executed"
	EventEncryptionKeyRotated EventType = "encryption_key_rotated"
)

// Event is the payload published on every successful state change. Events
// are advisory: consumers must treat the store as the source of truth.
type Event struct {
	Type       EventType    `json:"type"`
	TreasuryID string       `json:"treasury_id"`
	RequestID  uint64       `json:"request_id,omitempty"`
	Member     string       `json:"member,omitempty"`
	Approved   *bool        `json:"approved,omitempty"`
	State      RequestState `json:"state,omitempty"`
	SessionID  string       `json:"session_id,omitempty"`
	PoolSize   int          `json:"pool_size,omitempty"`
	At         time.Time    `json:"at"`
}
