package reconcile

import (
	"context"

	"callcenter-platform/internal/taskrouter"
)

// Store is the persistence contract for the local TaskRouter mirror.
//
// Lookups are by provider sid and report absence via the bool, not an error:
// "no local row" is a normal reconciliation outcome, not a failure.
//
// Saves are full-row writes (last-write-wins). There is no version check on
// the read-then-write sequence; keeping every transition behind the engine's
// single apply path is what leaves room to add one later.
type Store interface {
	WorkerBySid(ctx context.Context, sid string) (taskrouter.Worker, bool, error)
	SaveWorker(ctx context.Context, w taskrouter.Worker) error
	DeleteWorker(ctx context.Context, sid string) error

	TaskBySid(ctx context.Context, sid string) (taskrouter.Task, bool, error)
	SaveTask(ctx context.Context, t taskrouter.Task) error

	ReservationBySid(ctx context.Context, sid string) (taskrouter.Reservation, bool, error)
	SaveReservation(ctx context.Context, r taskrouter.Reservation) error

	// SaveReservationAndTask persists both rows in one commit. Accepting a
	// reservation must never leave the task's assignment status and the
	// reservation's status divergent.
	SaveReservationAndTask(ctx context.Context, r taskrouter.Reservation, t taskrouter.Task) error
}
