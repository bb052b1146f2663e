package taskrouter

import "time"

// Worker mirrors a TaskRouter worker row.
//
// Mirror invariant: rows are provisioned by the admin/provisioning path; the
// reconciliation engine only mutates (or, for worker.deleted, removes) rows
// that already exist. Available is always derived from the current activity's
// registry entry, never written independently.

type Worker struct {
	ID  string `json:"id" db:"id"`
	Sid string `json:"sid" db:"sid"` // provider identifier (WKxxx)

	FriendlyName string `json:"friendly_name" db:"friendly_name"`

	ActivitySid  string `json:"activity_sid" db:"activity_sid"`
	ActivityName string `json:"activity_name" db:"activity_name"`
	Available    bool   `json:"available" db:"available"`

	// Attributes is the provider attribute bag (skills, department, contact
	// info). Webhook payloads replace it wholesale.
	Attributes map[string]any `json:"attributes" db:"attributes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Task mirrors a TaskRouter task (one per customer interaction needing
// routing). Created by the API-driven path, never by reconciliation.

type Task struct {
	ID  string `json:"id" db:"id"`
	Sid string `json:"sid" db:"sid"` // provider identifier (WTxxx)

	QueueSid  string `json:"queue_sid" db:"queue_sid"`
	QueueName string `json:"queue_name" db:"queue_name"`

	// Priority: higher is more urgent.
	Priority int `json:"priority" db:"priority"`

	AssignmentStatus AssignmentStatus `json:"assignment_status" db:"assignment_status"`

	// WorkerSid is set once a reservation for this task is accepted.
	WorkerSid string `json:"worker_sid,omitempty" db:"worker_sid"`

	Attributes map[string]any `json:"attributes" db:"attributes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type AssignmentStatus string

const (
	AssignmentStatusPending   AssignmentStatus = "PENDING"
	AssignmentStatusAssigned  AssignmentStatus = "ASSIGNED"
	AssignmentStatusAccepted  AssignmentStatus = "ACCEPTED"
	AssignmentStatusCanceled  AssignmentStatus = "CANCELED"
	AssignmentStatusCompleted AssignmentStatus = "COMPLETED"
	AssignmentStatusTimeout   AssignmentStatus = "TIMEOUT"
)

// Reservation represents one worker's pending/accepted/rejected claim on a
// task. At most one reservation per task is non-terminal (PENDING) from this
// subsystem's perspective; concurrent reservations are a provisioning concern.

type Reservation struct {
	ID  string `json:"id" db:"id"`
	Sid string `json:"sid" db:"sid"` // provider identifier (WRxxx)

	TaskSid   string `json:"task_sid" db:"task_sid"`
	WorkerSid string `json:"worker_sid" db:"worker_sid"`

	Status ReservationStatus `json:"status" db:"status"`

	AcceptedAt *time.Time `json:"accepted_at,omitempty" db:"accepted_at"`
	RejectedAt *time.Time `json:"rejected_at,omitempty" db:"rejected_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type ReservationStatus string

const (
	ReservationStatusPending  ReservationStatus = "PENDING"
	ReservationStatusAccepted ReservationStatus = "ACCEPTED"
	ReservationStatusRejected ReservationStatus = "REJECTED"
	ReservationStatusTimeout  ReservationStatus = "TIMEOUT"
	ReservationStatusCanceled ReservationStatus = "CANCELED"
)
