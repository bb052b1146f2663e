package audit

import "time"

// Delivery is an immutable, append-only record of one accepted webhook
// delivery from the routing provider.
//
// Invariants:
// - Deliveries are never updated or deleted.
// - Recording is best-effort; the webhook path must never block on audit
//   failures.
//
// Storage recommendation (Postgres):
// - Table webhook_deliveries with an INSERT-only policy.
// - Optional: partition by received_at for retention.

type Delivery struct {
	ID string `json:"id" db:"id"`

	// EventType is the provider event name, e.g. "reservation.accepted".
	EventType string `json:"event_type" db:"event_type"`

	// Resource and ResourceSid identify the entity the event referenced.
	Resource    string `json:"resource" db:"resource"`
	ResourceSid string `json:"resource_sid,omitempty" db:"resource_sid"`

	// OutcomeCount is how many dashboard notifications the event produced.
	// Zero is normal (no-op events, unknown entities, silent transitions).
	OutcomeCount int `json:"outcome_count" db:"outcome_count"`

	// RawPayload is the original form-encoded body for replay/debugging.
	RawPayload string `json:"raw_payload,omitempty" db:"raw_payload"`

	ReceivedAt time.Time `json:"received_at" db:"received_at"`
}
