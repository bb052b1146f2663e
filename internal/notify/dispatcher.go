package notify

import (
	"context"
	"time"

	"callcenter-platform/internal/reconcile"
	"callcenter-platform/internal/taskrouter"
	"callcenter-platform/pkg/logger"
)

// Broadcaster is the real-time push sink the dashboard listens on.
// Fire-and-forget from this subsystem's point of view.
type Broadcaster interface {
	Broadcast(ctx context.Context, event string, payload any) error
}

// Dispatcher maps reconciliation outcomes to dashboard broadcasts.
//
// Real-time delivery is best-effort: a sink failure is logged and dropped, it
// never rolls back or fails the webhook path. Payloads are fully denormalized
// (display names joined in, defaults filled) so the UI never receives
// null-shaped data.
type Dispatcher struct {
	sink  Broadcaster
	clock func() time.Time
}

func NewDispatcher(sink Broadcaster) *Dispatcher {
	return &Dispatcher{sink: sink, clock: time.Now}
}

// Dispatch broadcasts one event per outcome. It never returns an error.
func (d *Dispatcher) Dispatch(ctx context.Context, outcomes []reconcile.Outcome) {
	if d.sink == nil || len(outcomes) == 0 {
		return
	}
	log := logger.From(ctx)
	for _, o := range outcomes {
		payload := d.payloadFor(o)
		if payload == nil {
			log.Debug("outcome with no payload mapping", "kind", o.Kind)
			continue
		}
		if err := d.sink.Broadcast(ctx, string(o.Kind), payload); err != nil {
			log.Error("dashboard broadcast failed", "event", o.Kind, "err", err)
		}
	}
}

// WorkerPayload is sent for worker-status-changed and worker-activity-changed.
type WorkerPayload struct {
	WorkerID     string                     `json:"worker_id"`
	WorkerSid    string                     `json:"worker_sid"`
	WorkerName   string                     `json:"worker_name"`
	ActivityName string                     `json:"activity_name"`
	Activity     taskrouter.ActivityDisplay `json:"activity"`
	Available    bool                       `json:"available"`
	Attributes   map[string]any             `json:"attributes"`
	UpdatedAt    time.Time                  `json:"updated_at"`
}

// TaskPayload is sent for task-assigned, task-accepted, task-completed and
// task-rejected.
type TaskPayload struct {
	TaskID     string         `json:"task_id"`
	TaskSid    string         `json:"task_sid"`
	QueueSid   string         `json:"queue_sid"`
	QueueName  string         `json:"queue_name"`
	WorkerSid  string         `json:"worker_sid"`
	WorkerName string         `json:"worker_name"`
	Priority   int            `json:"priority"`
	Status     string         `json:"status"`
	Attributes map[string]any `json:"attributes"`

	ReservationSid string     `json:"reservation_sid,omitempty"`
	AcceptedAt     *time.Time `json:"accepted_at,omitempty"`
	RejectedAt     *time.Time `json:"rejected_at,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (d *Dispatcher) payloadFor(o reconcile.Outcome) any {
	switch o.Kind {
	case reconcile.OutcomeWorkerStatusChanged, reconcile.OutcomeWorkerActivityChanged:
		return d.workerPayload(o.Worker)
	case reconcile.OutcomeTaskAssigned, reconcile.OutcomeTaskAccepted,
		reconcile.OutcomeTaskCompleted, reconcile.OutcomeTaskRejected:
		return d.taskPayload(o.Task, o.Reservation)
	default:
		return nil
	}
}

func (d *Dispatcher) workerPayload(w *taskrouter.Worker) any {
	if w == nil {
		return nil
	}
	v := taskrouter.TranslateWorker(*w)
	return WorkerPayload{
		WorkerID:     w.ID,
		WorkerSid:    w.Sid,
		WorkerName:   v.Name,
		ActivityName: w.ActivityName,
		Activity:     v.Activity,
		Available:    w.Available,
		Attributes:   v.Attributes,
		UpdatedAt:    w.UpdatedAt,
	}
}

func (d *Dispatcher) taskPayload(t *taskrouter.Task, r *taskrouter.Reservation) any {
	p := TaskPayload{
		QueueName: "Unknown Queue",
		Status:    string(taskrouter.AssignmentStatusPending),
		UpdatedAt: d.clock().UTC(),
	}
	if t != nil {
		p.TaskID = t.ID
		p.TaskSid = t.Sid
		p.QueueSid = t.QueueSid
		p.QueueName = taskrouter.TranslateQueue(t.QueueSid, t.QueueName).Name
		p.WorkerSid = t.WorkerSid
		p.Priority = t.Priority
		p.Status = string(t.AssignmentStatus)
		p.Attributes = t.Attributes
		p.UpdatedAt = t.UpdatedAt
	}
	if r != nil {
		p.ReservationSid = r.Sid
		p.AcceptedAt = r.AcceptedAt
		p.RejectedAt = r.RejectedAt
		if p.TaskSid == "" {
			p.TaskSid = r.TaskSid
		}
		if p.WorkerSid == "" {
			p.WorkerSid = r.WorkerSid
		}
	}
	if p.Attributes == nil {
		p.Attributes = map[string]any{}
	}
	// Worker display names are not mirrored on tasks; the UI resolves them
	// from the roster. Keep the field present with an empty default.
	return p
}
