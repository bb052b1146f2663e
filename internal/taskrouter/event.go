package taskrouter

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// TaskRouter delivers webhook events as application/x-www-form-urlencoded
// key/value pairs. Normalize converts one delivery into a typed Event so
// nothing downstream touches loose string maps.
//
// Ref: https://www.twilio.com/docs/taskrouter/api/event

// ErrMalformedWebhook is returned when the mandatory EventType discriminator
// is missing. Everything else is best-effort: unknown resource types produce
// an inert event, bad JSON blobs degrade to empty maps, bad numerics to zero.
var ErrMalformedWebhook = errors.New("taskrouter: webhook missing EventType")

type ResourceType string

const (
	ResourceWorker      ResourceType = "worker"
	ResourceTask        ResourceType = "task"
	ResourceReservation ResourceType = "reservation"
	ResourceUnknown     ResourceType = "unknown"
)

// Event is a normalized webhook delivery. Exactly one of Worker, Task,
// Reservation is non-nil for the known resource types; all three are nil for
// ResourceUnknown (an inert event the engine ignores).
type Event struct {
	EventType string
	Resource  ResourceType

	Worker      *WorkerEvent
	Task        *TaskEvent
	Reservation *ReservationEvent

	// Raw retains the original form fields for the audit trail.
	Raw url.Values
}

type WorkerEvent struct {
	WorkerSid    string
	WorkerName   string
	ActivitySid  string
	ActivityName string
	Attributes   map[string]any

	// TimeInPreviousActivity is seconds spent in the prior activity.
	TimeInPreviousActivity int
}

type TaskEvent struct {
	TaskSid          string
	QueueSid         string
	QueueName        string
	AssignmentStatus string
	Priority         int
	Age              int
	Attributes       map[string]any
}

type ReservationEvent struct {
	ReservationSid    string
	ReservationStatus string
	TaskSid           string
	WorkerSid         string
	WorkerName        string
	Timeout           int
}

// Normalize parses one webhook delivery. It fails only when EventType is
// absent; every other field is filled with a typed default when missing or
// unparseable.
func Normalize(form url.Values) (Event, error) {
	eventType := strings.TrimSpace(form.Get("EventType"))
	if eventType == "" {
		return Event{}, ErrMalformedWebhook
	}

	ev := Event{
		EventType: eventType,
		Resource:  classifyResource(form.Get("ResourceType"), eventType),
		Raw:       form,
	}

	switch ev.Resource {
	case ResourceWorker:
		ev.Worker = &WorkerEvent{
			WorkerSid:              form.Get("WorkerSid"),
			WorkerName:             form.Get("WorkerName"),
			ActivitySid:            form.Get("WorkerActivitySid"),
			ActivityName:           form.Get("WorkerActivityName"),
			Attributes:             parseAttributes(form.Get("WorkerAttributes")),
			TimeInPreviousActivity: parseInt(form.Get("WorkerTimeInPreviousActivity")),
		}
	case ResourceTask:
		ev.Task = &TaskEvent{
			TaskSid:          form.Get("TaskSid"),
			QueueSid:         form.Get("TaskQueueSid"),
			QueueName:        form.Get("TaskQueueName"),
			AssignmentStatus: form.Get("TaskAssignmentStatus"),
			Priority:         parseInt(form.Get("TaskPriority")),
			Age:              parseInt(form.Get("TaskAge")),
			Attributes:       parseAttributes(form.Get("TaskAttributes")),
		}
	case ResourceReservation:
		ev.Reservation = &ReservationEvent{
			ReservationSid:    form.Get("ReservationSid"),
			ReservationStatus: form.Get("ReservationStatus"),
			TaskSid:           form.Get("TaskSid"),
			WorkerSid:         form.Get("WorkerSid"),
			WorkerName:        form.Get("WorkerName"),
			Timeout:           parseInt(form.Get("ReservationTimeout")),
		}
	}

	return ev, nil
}

// classifyResource prefers the explicit ResourceType field and falls back to
// the event type prefix (TaskRouter event names are "<resource>.<action>").
func classifyResource(resourceType, eventType string) ResourceType {
	rt := strings.ToLower(strings.TrimSpace(resourceType))
	if rt == "" {
		rt, _, _ = strings.Cut(strings.ToLower(eventType), ".")
	}
	switch rt {
	case "worker":
		return ResourceWorker
	case "task":
		return ResourceTask
	case "reservation":
		return ResourceReservation
	default:
		return ResourceUnknown
	}
}

// parseAttributes decodes a JSON attribute blob. Providers occasionally send
// truncated or empty blobs; those become an empty map so the rest of the
// event stays processable.
func parseAttributes(blob string) map[string]any {
	blob = strings.TrimSpace(blob)
	if blob == "" || !gjson.Valid(blob) {
		return map[string]any{}
	}
	if m, ok := gjson.Parse(blob).Value().(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func parseInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
