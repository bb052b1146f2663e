package audit

import (
	"context"
	"errors"
	"time"

	"callcenter-platform/internal/taskrouter"

	"github.com/google/uuid"
)

// Repository is the persistence contract for webhook delivery records.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.

type Repository interface {
	Append(ctx context.Context, d Delivery) error
}

// Service records webhook deliveries for replay and debugging.
//
// Callers should treat recording as best-effort: log a failure and move on.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidDelivery = errors.New("audit: invalid delivery")

func (s *Service) Append(ctx context.Context, d Delivery) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if d.EventType == "" {
		return ErrInvalidDelivery
	}

	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.ReceivedAt.IsZero() {
		d.ReceivedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, d)
}

// RecordEvent captures a normalized event and how many notifications it
// produced.
func (s *Service) RecordEvent(ctx context.Context, ev taskrouter.Event, outcomeCount int) error {
	return s.Append(ctx, Delivery{
		EventType:    ev.EventType,
		Resource:     string(ev.Resource),
		ResourceSid:  resourceSid(ev),
		OutcomeCount: outcomeCount,
		RawPayload:   ev.Raw.Encode(),
	})
}

func resourceSid(ev taskrouter.Event) string {
	switch {
	case ev.Worker != nil:
		return ev.Worker.WorkerSid
	case ev.Task != nil:
		return ev.Task.TaskSid
	case ev.Reservation != nil:
		return ev.Reservation.ReservationSid
	default:
		return ""
	}
}
