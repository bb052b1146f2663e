package reconcile

import (
	"context"
	"net/url"
	"testing"
	"time"

	"callcenter-platform/internal/taskrouter"
)

func fixedClock() time.Time { return time.Unix(1700000000, 0).UTC() }

func newTestEngine(store Store) *Engine {
	e := NewEngine(store)
	e.clock = fixedClock
	return e
}

func mustNormalize(t *testing.T, fields map[string]string) taskrouter.Event {
	t.Helper()
	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}
	ev, err := taskrouter.Normalize(form)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	return ev
}

func seedWorker(t *testing.T, s *MemoryStore, w taskrouter.Worker) {
	t.Helper()
	if err := s.SaveWorker(context.Background(), w); err != nil {
		t.Fatalf("seed worker: %v", err)
	}
}

func seedTask(t *testing.T, s *MemoryStore, task taskrouter.Task) {
	t.Helper()
	if err := s.SaveTask(context.Background(), task); err != nil {
		t.Fatalf("seed task: %v", err)
	}
}

func seedReservation(t *testing.T, s *MemoryStore, r taskrouter.Reservation) {
	t.Helper()
	if err := s.SaveReservation(context.Background(), r); err != nil {
		t.Fatalf("seed reservation: %v", err)
	}
}

func TestApply_WorkerActivityUpdate(t *testing.T) {
	store := NewMemoryStore()
	seedWorker(t, store, taskrouter.Worker{
		Sid:          "WK1",
		FriendlyName: "alice",
		ActivitySid:  "WA_BUSY",
		ActivityName: "Unavailable",
		Available:    false,
		Attributes:   map[string]any{"old": true},
	})

	engine := newTestEngine(store)
	ev := mustNormalize(t, map[string]string{
		"EventType":          "worker.activity.update",
		"ResourceType":       "worker",
		"WorkerSid":          "WK1",
		"WorkerActivitySid":  "WA_AVAILABLE",
		"WorkerActivityName": "Available",
		"WorkerAttributes":   `{"skills":["sales"]}`,
	})

	outcomes, err := engine.Apply(context.Background(), ev)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].Kind != OutcomeWorkerStatusChanged || outcomes[1].Kind != OutcomeWorkerActivityChanged {
		t.Fatalf("unexpected outcome kinds: %v %v", outcomes[0].Kind, outcomes[1].Kind)
	}

	w, ok, _ := store.WorkerBySid(context.Background(), "WK1")
	if !ok {
		t.Fatalf("worker should still exist")
	}
	if w.ActivitySid != "WA_AVAILABLE" || w.ActivityName != "Available" {
		t.Fatalf("activity not updated: %+v", w)
	}
	if !w.Available {
		t.Fatalf("expected availability derived from registry")
	}
	if _, stale := w.Attributes["old"]; stale {
		t.Fatalf("attribute bag must be replaced, not merged")
	}
	if _, fresh := w.Attributes["skills"]; !fresh {
		t.Fatalf("expected new attributes, got %+v", w.Attributes)
	}
	if w.UpdatedAt != fixedClock() {
		t.Fatalf("expected clock-driven updated_at, got %v", w.UpdatedAt)
	}
}

func TestApply_WorkerUnrecognizedActivityDefaultsUnavailable(t *testing.T) {
	store := NewMemoryStore()
	seedWorker(t, store, taskrouter.Worker{Sid: "WK1", ActivityName: "Available", Available: true})

	engine := newTestEngine(store)
	ev := mustNormalize(t, map[string]string{
		"EventType":          "worker.updated",
		"ResourceType":       "worker",
		"WorkerSid":          "WK1",
		"WorkerActivityName": "Quantum Flux",
	})

	if _, err := engine.Apply(context.Background(), ev); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	w, _, _ := store.WorkerBySid(context.Background(), "WK1")
	if w.Available {
		t.Fatalf("unrecognized activity must default to unavailable")
	}
}

func TestApply_WorkerEventForUnknownWorkerIsNoop(t *testing.T) {
	store := NewMemoryStore()
	engine := newTestEngine(store)

	ev := mustNormalize(t, map[string]string{
		"EventType":    "worker.activity.update",
		"ResourceType": "worker",
		"WorkerSid":    "WK_UNKNOWN",
	})

	outcomes, err := engine.Apply(context.Background(), ev)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(outcomes) != 0 {
		t.Fatalf("expected zero outcomes, got %d", len(outcomes))
	}
	if _, ok, _ := store.WorkerBySid(context.Background(), "WK_UNKNOWN"); ok {
		t.Fatalf("engine must never fabricate workers")
	}
}

func TestApply_WorkerDeletedRemovesRowSilently(t *testing.T) {
	store := NewMemoryStore()
	seedWorker(t, store, taskrouter.Worker{Sid: "WK1"})

	engine := newTestEngine(store)
	ev := mustNormalize(t, map[string]string{
		"EventType":    "worker.deleted",
		"ResourceType": "worker",
		"WorkerSid":    "WK1",
	})

	outcomes, err := engine.Apply(context.Background(), ev)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(outcomes) != 0 {
		t.Fatalf("worker deletion is silent, got %d outcomes", len(outcomes))
	}
	if _, ok, _ := store.WorkerBySid(context.Background(), "WK1"); ok {
		t.Fatalf("expected worker removed")
	}
}

func TestApply_TaskCompleted(t *testing.T) {
	store := NewMemoryStore()
	seedTask(t, store, taskrouter.Task{
		Sid:              "WT1",
		AssignmentStatus: taskrouter.AssignmentStatusAssigned,
		Priority:         5,
	})

	engine := newTestEngine(store)
	ev := mustNormalize(t, map[string]string{
		"EventType":            "task.completed",
		"ResourceType":         "task",
		"TaskSid":              "WT1",
		"TaskAttributes":       "{}",
		"TaskPriority":         "5",
		"TaskAssignmentStatus": "completed",
	})

	outcomes, err := engine.Apply(context.Background(), ev)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Kind != OutcomeTaskCompleted {
		t.Fatalf("expected one task-completed outcome, got %+v", outcomes)
	}
	if outcomes[0].Task.Priority != 5 {
		t.Fatalf("expected priority 5 on outcome, got %d", outcomes[0].Task.Priority)
	}

	task, _, _ := store.TaskBySid(context.Background(), "WT1")
	if task.AssignmentStatus != taskrouter.AssignmentStatusCompleted {
		t.Fatalf("expected COMPLETED, got %q", task.AssignmentStatus)
	}
}

func TestApply_TaskUpdatedMirrorsStatusAndEmitsAssigned(t *testing.T) {
	store := NewMemoryStore()
	seedTask(t, store, taskrouter.Task{
		Sid:              "WT1",
		QueueName:        "everyone",
		AssignmentStatus: taskrouter.AssignmentStatusPending,
		Attributes:       map[string]any{"old": true},
	})

	engine := newTestEngine(store)
	ev := mustNormalize(t, map[string]string{
		"EventType":            "task.updated",
		"ResourceType":         "task",
		"TaskSid":              "WT1",
		"TaskQueueSid":         "WQ2",
		"TaskQueueName":        "sales",
		"TaskPriority":         "9",
		"TaskAssignmentStatus": "assigned",
		"TaskAttributes":       `{"channel":"voice"}`,
	})

	outcomes, err := engine.Apply(context.Background(), ev)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Kind != OutcomeTaskAssigned {
		t.Fatalf("expected task-assigned outcome, got %+v", outcomes)
	}

	task, _, _ := store.TaskBySid(context.Background(), "WT1")
	if task.AssignmentStatus != taskrouter.AssignmentStatusAssigned {
		t.Fatalf("expected ASSIGNED, got %q", task.AssignmentStatus)
	}
	if task.QueueSid != "WQ2" || task.QueueName != "sales" || task.Priority != 9 {
		t.Fatalf("queue/priority not mirrored: %+v", task)
	}
	if _, stale := task.Attributes["old"]; stale {
		t.Fatalf("attribute bag must be replaced, not merged")
	}
}

func TestApply_TaskCanceledIsSilent(t *testing.T) {
	store := NewMemoryStore()
	seedTask(t, store, taskrouter.Task{Sid: "WT1", AssignmentStatus: taskrouter.AssignmentStatusAssigned})

	engine := newTestEngine(store)
	ev := mustNormalize(t, map[string]string{
		"EventType":    "task.canceled",
		"ResourceType": "task",
		"TaskSid":      "WT1",
	})

	outcomes, err := engine.Apply(context.Background(), ev)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(outcomes) != 0 {
		t.Fatalf("cancelation emits no notification, got %+v", outcomes)
	}
	task, _, _ := store.TaskBySid(context.Background(), "WT1")
	if task.AssignmentStatus != taskrouter.AssignmentStatusCanceled {
		t.Fatalf("expected CANCELED, got %q", task.AssignmentStatus)
	}
}

func TestApply_TaskWrapupIsTerminalEquivalent(t *testing.T) {
	store := NewMemoryStore()
	seedTask(t, store, taskrouter.Task{Sid: "WT1", AssignmentStatus: taskrouter.AssignmentStatusAccepted})

	engine := newTestEngine(store)
	ev := mustNormalize(t, map[string]string{
		"EventType":    "task.wrapup",
		"ResourceType": "task",
		"TaskSid":      "WT1",
	})

	outcomes, err := engine.Apply(context.Background(), ev)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Kind != OutcomeTaskCompleted {
		t.Fatalf("wrapup should surface as task-completed, got %+v", outcomes)
	}
	task, _, _ := store.TaskBySid(context.Background(), "WT1")
	if task.AssignmentStatus != taskrouter.AssignmentStatusCompleted {
		t.Fatalf("expected COMPLETED, got %q", task.AssignmentStatus)
	}
}

func TestApply_TaskEventForUnknownTaskIsNoop(t *testing.T) {
	store := NewMemoryStore()
	engine := newTestEngine(store)

	ev := mustNormalize(t, map[string]string{
		"EventType":    "task.updated",
		"ResourceType": "task",
		"TaskSid":      "WT_UNKNOWN",
	})

	outcomes, err := engine.Apply(context.Background(), ev)
	if err != nil {
		t.Fatalf("expected normal return, got %v", err)
	}
	if len(outcomes) != 0 {
		t.Fatalf("expected zero outcomes, got %d", len(outcomes))
	}
	if _, ok, _ := store.TaskBySid(context.Background(), "WT_UNKNOWN"); ok {
		t.Fatalf("engine must never create tasks")
	}
}

func TestApply_ReservationAcceptedUpdatesTaskInSameCommit(t *testing.T) {
	store := NewMemoryStore()
	seedTask(t, store, taskrouter.Task{Sid: "WT1", AssignmentStatus: taskrouter.AssignmentStatusAssigned})
	seedReservation(t, store, taskrouter.Reservation{
		Sid:       "WR1",
		TaskSid:   "WT1",
		WorkerSid: "WK1",
		Status:    taskrouter.ReservationStatusPending,
	})

	engine := newTestEngine(store)
	ev := mustNormalize(t, map[string]string{
		"EventType":      "reservation.accepted",
		"ResourceType":   "reservation",
		"ReservationSid": "WR1",
		"TaskSid":        "WT1",
		"WorkerSid":      "WK1",
	})

	outcomes, err := engine.Apply(context.Background(), ev)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Kind != OutcomeTaskAccepted {
		t.Fatalf("expected task-accepted outcome, got %+v", outcomes)
	}

	r, _, _ := store.ReservationBySid(context.Background(), "WR1")
	if r.Status != taskrouter.ReservationStatusAccepted {
		t.Fatalf("expected reservation ACCEPTED, got %q", r.Status)
	}
	if r.AcceptedAt == nil || !r.AcceptedAt.Equal(fixedClock()) {
		t.Fatalf("expected accepted_at set to clock, got %v", r.AcceptedAt)
	}

	task, _, _ := store.TaskBySid(context.Background(), "WT1")
	if task.AssignmentStatus != taskrouter.AssignmentStatusAccepted {
		t.Fatalf("task/reservation diverged: task status %q", task.AssignmentStatus)
	}
	if task.WorkerSid != "WK1" {
		t.Fatalf("expected task worker set to reservation worker, got %q", task.WorkerSid)
	}
}

func TestApply_ReservationRejected(t *testing.T) {
	store := NewMemoryStore()
	seedTask(t, store, taskrouter.Task{Sid: "WT1", AssignmentStatus: taskrouter.AssignmentStatusAssigned})
	seedReservation(t, store, taskrouter.Reservation{Sid: "WR1", TaskSid: "WT1", WorkerSid: "WK1", Status: taskrouter.ReservationStatusPending})

	engine := newTestEngine(store)
	ev := mustNormalize(t, map[string]string{
		"EventType":      "reservation.rejected",
		"ResourceType":   "reservation",
		"ReservationSid": "WR1",
	})

	outcomes, err := engine.Apply(context.Background(), ev)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Kind != OutcomeTaskRejected {
		t.Fatalf("expected task-rejected outcome, got %+v", outcomes)
	}

	r, _, _ := store.ReservationBySid(context.Background(), "WR1")
	if r.Status != taskrouter.ReservationStatusRejected || r.RejectedAt == nil {
		t.Fatalf("expected REJECTED with rejected_at, got %+v", r)
	}

	// Rejection leaves the owning task untouched.
	task, _, _ := store.TaskBySid(context.Background(), "WT1")
	if task.AssignmentStatus != taskrouter.AssignmentStatusAssigned {
		t.Fatalf("rejection must not touch task status, got %q", task.AssignmentStatus)
	}
}

func TestApply_ReservationTimeoutAndCanceledAreSilent(t *testing.T) {
	cases := []struct {
		eventType string
		want      taskrouter.ReservationStatus
	}{
		{"reservation.timeout", taskrouter.ReservationStatusTimeout},
		{"reservation.canceled", taskrouter.ReservationStatusCanceled},
	}
	for _, tc := range cases {
		store := NewMemoryStore()
		seedReservation(t, store, taskrouter.Reservation{Sid: "WR1", TaskSid: "WT1", Status: taskrouter.ReservationStatusPending})

		engine := newTestEngine(store)
		ev := mustNormalize(t, map[string]string{
			"EventType":      tc.eventType,
			"ResourceType":   "reservation",
			"ReservationSid": "WR1",
		})

		outcomes, err := engine.Apply(context.Background(), ev)
		if err != nil {
			t.Fatalf("%s: expected no error, got %v", tc.eventType, err)
		}
		if len(outcomes) != 0 {
			t.Fatalf("%s: expected zero outcomes, got %+v", tc.eventType, outcomes)
		}
		r, _, _ := store.ReservationBySid(context.Background(), "WR1")
		if r.Status != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.eventType, tc.want, r.Status)
		}
	}
}

func TestApply_ReservationCompletedAliasesAccepted(t *testing.T) {
	store := NewMemoryStore()
	seedTask(t, store, taskrouter.Task{Sid: "WT1", AssignmentStatus: taskrouter.AssignmentStatusAccepted})
	seedReservation(t, store, taskrouter.Reservation{Sid: "WR1", TaskSid: "WT1", WorkerSid: "WK1", Status: taskrouter.ReservationStatusPending})

	engine := newTestEngine(store)
	ev := mustNormalize(t, map[string]string{
		"EventType":      "reservation.completed",
		"ResourceType":   "reservation",
		"ReservationSid": "WR1",
	})

	outcomes, err := engine.Apply(context.Background(), ev)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(outcomes) != 0 {
		t.Fatalf("completion emits no notification, got %+v", outcomes)
	}

	r, _, _ := store.ReservationBySid(context.Background(), "WR1")
	if r.Status != taskrouter.ReservationStatusAccepted {
		t.Fatalf("completed aliases ACCEPTED, got %q", r.Status)
	}
	task, _, _ := store.TaskBySid(context.Background(), "WT1")
	if task.AssignmentStatus != taskrouter.AssignmentStatusCompleted {
		t.Fatalf("expected task COMPLETED, got %q", task.AssignmentStatus)
	}
}

func TestApply_ReservationEventForUnknownReservationIsNoop(t *testing.T) {
	store := NewMemoryStore()
	engine := newTestEngine(store)

	ev := mustNormalize(t, map[string]string{
		"EventType":      "reservation.accepted",
		"ResourceType":   "reservation",
		"ReservationSid": "WR_UNKNOWN",
	})

	outcomes, err := engine.Apply(context.Background(), ev)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(outcomes) != 0 {
		t.Fatalf("expected zero outcomes, got %+v", outcomes)
	}
}

func TestApply_InertEventIsNoop(t *testing.T) {
	store := NewMemoryStore()
	engine := newTestEngine(store)

	ev := mustNormalize(t, map[string]string{
		"EventType":    "workflow.target-matched",
		"ResourceType": "workflow",
	})

	outcomes, err := engine.Apply(context.Background(), ev)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(outcomes) != 0 {
		t.Fatalf("expected zero outcomes, got %+v", outcomes)
	}
}

func TestApply_NilStoreFails(t *testing.T) {
	engine := NewEngine(nil)
	ev := mustNormalize(t, map[string]string{
		"EventType":    "task.updated",
		"ResourceType": "task",
		"TaskSid":      "WT1",
	})
	if _, err := engine.Apply(context.Background(), ev); err != ErrStoreNotConfigured {
		t.Fatalf("expected ErrStoreNotConfigured, got %v", err)
	}
}
