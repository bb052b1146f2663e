package reconcile

import (
	"context"
	"errors"
	"strings"
	"time"

	"callcenter-platform/internal/taskrouter"
	"callcenter-platform/pkg/logger"
)

// Engine applies normalized TaskRouter events against the local mirror.
//
// Pipeline per event: lookup -> transition -> persist -> describe. Each
// resource type has its own sub-machine; all three share the rules below.
//
// - The engine never creates rows. An event for an unknown sid is a no-op
//   (zero writes, zero outcomes): provisioning owns row creation.
// - Webhook delivery is at-least-once and loosely ordered. Transitions are
//   applied in arrival order with last-write-wins semantics; duplicates are
//   tolerated, out-of-order events are not reordered.
// - Attribute bags are replaced wholesale: the webhook payload is
//   authoritative.
type Engine struct {
	store Store
	clock func() time.Time
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store, clock: time.Now}
}

var ErrStoreNotConfigured = errors.New("reconcile: store not configured")

// OutcomeKind names a dashboard-visible change produced by one event.
type OutcomeKind string

const (
	OutcomeWorkerStatusChanged   OutcomeKind = "worker-status-changed"
	OutcomeWorkerActivityChanged OutcomeKind = "worker-activity-changed"
	OutcomeTaskAssigned          OutcomeKind = "task-assigned"
	OutcomeTaskCompleted         OutcomeKind = "task-completed"
	OutcomeTaskAccepted          OutcomeKind = "task-accepted"
	OutcomeTaskRejected          OutcomeKind = "task-rejected"
)

// Outcome describes one completed transition for the notification dispatcher.
// Entity pointers carry the post-transition state; absent relations stay nil
// and the dispatcher fills display defaults.
type Outcome struct {
	Kind OutcomeKind

	Worker      *taskrouter.Worker
	Task        *taskrouter.Task
	Reservation *taskrouter.Reservation
}

// Apply runs one event through the matching sub-machine. A nil outcome slice
// with a nil error means the event was a recognized no-op (unknown entity,
// inert resource type, or an event type with no transition).
func (e *Engine) Apply(ctx context.Context, ev taskrouter.Event) ([]Outcome, error) {
	if e.store == nil {
		return nil, ErrStoreNotConfigured
	}

	switch ev.Resource {
	case taskrouter.ResourceWorker:
		return e.applyWorkerEvent(ctx, ev)
	case taskrouter.ResourceTask:
		return e.applyTaskEvent(ctx, ev)
	case taskrouter.ResourceReservation:
		return e.applyReservationEvent(ctx, ev)
	default:
		logger.From(ctx).Debug("ignoring event for unhandled resource", "event_type", ev.EventType)
		return nil, nil
	}
}

// applyWorkerEvent is the worker activity sub-machine. States are opaque
// activity names; availability is derived from the activity registry and
// defaults to unavailable for unrecognized activities.
func (e *Engine) applyWorkerEvent(ctx context.Context, ev taskrouter.Event) ([]Outcome, error) {
	log := logger.From(ctx)
	we := ev.Worker
	if we == nil || we.WorkerSid == "" {
		log.Debug("worker event without worker sid", "event_type", ev.EventType)
		return nil, nil
	}

	switch ev.EventType {
	case "worker.activity.update", "worker.updated":
		w, ok, err := e.store.WorkerBySid(ctx, we.WorkerSid)
		if err != nil {
			return nil, err
		}
		if !ok {
			log.Info("worker event for unknown worker", "worker_sid", we.WorkerSid, "event_type", ev.EventType)
			return nil, nil
		}

		w.ActivitySid = we.ActivitySid
		w.ActivityName = we.ActivityName
		w.Available = false
		if d, found := taskrouter.LookupActivity(we.ActivityName); found {
			w.Available = d.Available
		}
		w.Attributes = we.Attributes
		if we.WorkerName != "" {
			w.FriendlyName = we.WorkerName
		}
		w.UpdatedAt = e.clock().UTC()

		if err := e.store.SaveWorker(ctx, w); err != nil {
			return nil, err
		}

		// One activity change drives two logically distinct dashboard
		// notifications: the status roster and the per-agent activity feed.
		return []Outcome{
			{Kind: OutcomeWorkerStatusChanged, Worker: &w},
			{Kind: OutcomeWorkerActivityChanged, Worker: &w},
		}, nil

	case "worker.deleted":
		if err := e.store.DeleteWorker(ctx, we.WorkerSid); err != nil {
			return nil, err
		}
		// Deletion stays silent on the live dashboard.
		return nil, nil

	default:
		log.Debug("worker event with no transition", "event_type", ev.EventType)
		return nil, nil
	}
}

// applyTaskEvent is the task lifecycle sub-machine:
// PENDING -> ASSIGNED -> (ACCEPTED | CANCELED | COMPLETED), with wrapup
// treated as terminal-equivalent and TIMEOUT reachable from ASSIGNED.
func (e *Engine) applyTaskEvent(ctx context.Context, ev taskrouter.Event) ([]Outcome, error) {
	log := logger.From(ctx)
	te := ev.Task
	if te == nil || te.TaskSid == "" {
		log.Debug("task event without task sid", "event_type", ev.EventType)
		return nil, nil
	}

	t, ok, err := e.store.TaskBySid(ctx, te.TaskSid)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Info("task event for unknown task", "task_sid", te.TaskSid, "event_type", ev.EventType)
		return nil, nil
	}

	var outcomes []Outcome

	switch ev.EventType {
	case "task.updated":
		if s := strings.ToUpper(strings.TrimSpace(te.AssignmentStatus)); s != "" {
			t.AssignmentStatus = taskrouter.AssignmentStatus(s)
		}
		if te.QueueSid != "" {
			t.QueueSid = te.QueueSid
		}
		if te.QueueName != "" {
			t.QueueName = te.QueueName
		}
		t.Attributes = te.Attributes
		t.Priority = te.Priority
		if t.AssignmentStatus == taskrouter.AssignmentStatusAssigned {
			outcomes = append(outcomes, Outcome{Kind: OutcomeTaskAssigned, Task: &t})
		}

	case "task.canceled":
		t.AssignmentStatus = taskrouter.AssignmentStatusCanceled

	case "task.completed":
		t.AssignmentStatus = taskrouter.AssignmentStatusCompleted
		outcomes = append(outcomes, Outcome{Kind: OutcomeTaskCompleted, Task: &t})

	case "task.wrapup":
		t.AssignmentStatus = taskrouter.AssignmentStatusCompleted
		outcomes = append(outcomes, Outcome{Kind: OutcomeTaskCompleted, Task: &t})

	default:
		log.Debug("task event with no transition", "event_type", ev.EventType)
		return nil, nil
	}

	t.UpdatedAt = e.clock().UTC()
	if err := e.store.SaveTask(ctx, t); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// applyReservationEvent is the reservation sub-machine:
// PENDING -> ACCEPTED | REJECTED | TIMEOUT | CANCELED, with
// reservation.completed aliased to ACCEPTED.
func (e *Engine) applyReservationEvent(ctx context.Context, ev taskrouter.Event) ([]Outcome, error) {
	log := logger.From(ctx)
	re := ev.Reservation
	if re == nil || re.ReservationSid == "" {
		log.Debug("reservation event without reservation sid", "event_type", ev.EventType)
		return nil, nil
	}

	r, ok, err := e.store.ReservationBySid(ctx, re.ReservationSid)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Info("reservation event for unknown reservation", "reservation_sid", re.ReservationSid, "event_type", ev.EventType)
		return nil, nil
	}

	now := e.clock().UTC()
	r.UpdatedAt = now
	if re.WorkerSid != "" {
		r.WorkerSid = re.WorkerSid
	}

	switch ev.EventType {
	case "reservation.accepted":
		r.Status = taskrouter.ReservationStatusAccepted
		r.AcceptedAt = &now

		t, found, err := e.store.TaskBySid(ctx, r.TaskSid)
		if err != nil {
			return nil, err
		}
		if !found {
			// The mirror has a reservation without its task; persist the
			// reservation side and surface nothing.
			log.Warn("accepted reservation has no local task", "reservation_sid", r.Sid, "task_sid", r.TaskSid)
			if err := e.store.SaveReservation(ctx, r); err != nil {
				return nil, err
			}
			return nil, nil
		}

		t.AssignmentStatus = taskrouter.AssignmentStatusAccepted
		t.WorkerSid = r.WorkerSid
		t.UpdatedAt = now
		if err := e.store.SaveReservationAndTask(ctx, r, t); err != nil {
			return nil, err
		}
		return []Outcome{{Kind: OutcomeTaskAccepted, Task: &t, Reservation: &r}}, nil

	case "reservation.rejected":
		r.Status = taskrouter.ReservationStatusRejected
		r.RejectedAt = &now
		if err := e.store.SaveReservation(ctx, r); err != nil {
			return nil, err
		}
		t := e.taskForOutcome(ctx, r.TaskSid)
		return []Outcome{{Kind: OutcomeTaskRejected, Task: t, Reservation: &r}}, nil

	case "reservation.timeout":
		r.Status = taskrouter.ReservationStatusTimeout
		return nil, e.store.SaveReservation(ctx, r)

	case "reservation.canceled":
		r.Status = taskrouter.ReservationStatusCanceled
		return nil, e.store.SaveReservation(ctx, r)

	case "reservation.completed":
		// Completion implies the reservation was accepted; the task moves to
		// COMPLETED without a further notification.
		r.Status = taskrouter.ReservationStatusAccepted
		t, found, err := e.store.TaskBySid(ctx, r.TaskSid)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, e.store.SaveReservation(ctx, r)
		}
		t.AssignmentStatus = taskrouter.AssignmentStatusCompleted
		t.UpdatedAt = now
		return nil, e.store.SaveReservationAndTask(ctx, r, t)

	default:
		log.Debug("reservation event with no transition", "event_type", ev.EventType)
		return nil, nil
	}
}

// taskForOutcome fetches a task purely to enrich a notification payload.
// Failures here must not fail the already-persisted transition.
func (e *Engine) taskForOutcome(ctx context.Context, taskSid string) *taskrouter.Task {
	if taskSid == "" {
		return nil
	}
	t, ok, err := e.store.TaskBySid(ctx, taskSid)
	if err != nil || !ok {
		return nil
	}
	return &t
}
