package taskrouter

import "strings"

// Terminology translation: static, in-process registries converting TaskRouter
// vocabulary into the labels the dashboard shows to supervisors.
//
// None of these lookups fail. Unknown input falls back to the raw value (or an
// explicit "Unknown" placeholder for view models) so the UI never has to
// null-check provider vocabulary.

// ActivityDisplay describes how a worker activity is rendered.
type ActivityDisplay struct {
	Display     string `json:"display"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	Available   bool   `json:"available"`
}

// termTable maps normalized provider terms to business-friendly labels.
var termTable = map[string]string{
	"taskrouter":       "Call Routing",
	"taskqueue":        "Team",
	"task":             "Call",
	"worker":           "Agent",
	"workspace":        "Call Center",
	"workflow":         "Routing Rules",
	"activity":         "Agent Status",
	"reservation":      "Call Offer",
	"assignmentstatus": "Call Status",
	"friendlyname":     "Name",
	"wrapup":           "After-Call Work",
}

// activityRegistry is keyed by normalized activity name.
var activityRegistry = map[string]ActivityDisplay{
	"offline": {
		Display:     "Offline",
		Description: "Signed out and not receiving calls",
		Icon:        "power",
		Color:       "gray",
		Available:   false,
	},
	"available": {
		Display:     "Available",
		Description: "Ready to receive calls",
		Icon:        "phone",
		Color:       "green",
		Available:   true,
	},
	"unavailable": {
		Display:     "Unavailable",
		Description: "Signed in but not receiving calls",
		Icon:        "pause",
		Color:       "red",
		Available:   false,
	},
	"break": {
		Display:     "On Break",
		Description: "Temporarily away from the desk",
		Icon:        "coffee",
		Color:       "yellow",
		Available:   false,
	},
	"lunch": {
		Display:     "At Lunch",
		Description: "Away for lunch",
		Icon:        "utensils",
		Color:       "yellow",
		Available:   false,
	},
	"training": {
		Display:     "In Training",
		Description: "In a training session",
		Icon:        "book",
		Color:       "blue",
		Available:   false,
	},
	"onatask": {
		Display:     "On a Call",
		Description: "Currently handling a call",
		Icon:        "headset",
		Color:       "orange",
		Available:   false,
	},
	"wrapup": {
		Display:     "Wrapping Up",
		Description: "Finishing after-call work",
		Icon:        "edit",
		Color:       "orange",
		Available:   false,
	},
}

// teamRegistry maps normalized queue names to display names.
var teamRegistry = map[string]string{
	"everyone":       "All Agents",
	"sales":          "Sales Team",
	"support":        "Support Team",
	"billing":        "Billing Team",
	"escalations":    "Escalations",
	"spanishsupport": "Spanish Support",
	"afterhours":     "After Hours",
}

func normalizeTerm(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", "", "_", "", " ", "", ".", "").Replace(s)
	return s
}

// TranslateTerm converts a provider term to its business-friendly label.
// Unknown terms are returned unchanged. Idempotent: translating an already
// translated label returns it as-is.
func TranslateTerm(term string) string {
	if v, ok := termTable[normalizeTerm(term)]; ok {
		return v
	}
	return term
}

// LookupActivity resolves an activity name (case-insensitive) against the
// static registry. ok is false for unknown activities.
func LookupActivity(name string) (ActivityDisplay, bool) {
	d, ok := activityRegistry[normalizeTerm(name)]
	return d, ok
}

// TeamDisplayName resolves a queue name to its display name, falling back to
// the raw input.
func TeamDisplayName(queueName string) string {
	if v, ok := teamRegistry[normalizeTerm(queueName)]; ok {
		return v
	}
	return queueName
}

// View models: denormalized shapes handed to the dashboard. Missing optional
// fields degrade to explicit placeholders.

type WorkerView struct {
	ID           string          `json:"id"`
	Sid          string          `json:"sid"`
	Name         string          `json:"name"`
	ActivitySid  string          `json:"activity_sid"`
	ActivityName string          `json:"activity_name"`
	Activity     ActivityDisplay `json:"activity"`
	Available    bool            `json:"available"`
	Attributes   map[string]any  `json:"attributes"`
}

type TaskView struct {
	ID               string         `json:"id"`
	Sid              string         `json:"sid"`
	QueueSid         string         `json:"queue_sid"`
	QueueName        string         `json:"queue_name"`
	Priority         int            `json:"priority"`
	AssignmentStatus string         `json:"assignment_status"`
	WorkerSid        string         `json:"worker_sid,omitempty"`
	Attributes       map[string]any `json:"attributes"`
}

type QueueView struct {
	Sid  string `json:"sid"`
	Name string `json:"name"`
}

// TranslateWorker builds the dashboard view of a worker.
func TranslateWorker(w Worker) WorkerView {
	v := WorkerView{
		ID:           w.ID,
		Sid:          w.Sid,
		Name:         w.FriendlyName,
		ActivitySid:  w.ActivitySid,
		ActivityName: w.ActivityName,
		Available:    w.Available,
		Attributes:   w.Attributes,
	}
	if v.Name == "" {
		v.Name = "Unknown Agent"
	}
	if v.Attributes == nil {
		v.Attributes = map[string]any{}
	}
	v.Activity = TranslateActivity(w.ActivityName)
	return v
}

// TranslateActivity returns the display entry for an activity name, or a
// generic unavailable placeholder carrying the raw name.
func TranslateActivity(name string) ActivityDisplay {
	if d, ok := LookupActivity(name); ok {
		return d
	}
	display := name
	if display == "" {
		display = "Unknown"
	}
	return ActivityDisplay{
		Display:     display,
		Description: "Unrecognized agent status",
		Icon:        "help",
		Color:       "gray",
		Available:   false,
	}
}

// TranslateTask builds the dashboard view of a task.
func TranslateTask(t Task) TaskView {
	v := TaskView{
		ID:               t.ID,
		Sid:              t.Sid,
		QueueSid:         t.QueueSid,
		QueueName:        TeamDisplayName(t.QueueName),
		Priority:         t.Priority,
		AssignmentStatus: string(t.AssignmentStatus),
		WorkerSid:        t.WorkerSid,
		Attributes:       t.Attributes,
	}
	if v.QueueName == "" {
		v.QueueName = "Unknown Queue"
	}
	if v.AssignmentStatus == "" {
		v.AssignmentStatus = string(AssignmentStatusPending)
	}
	if v.Attributes == nil {
		v.Attributes = map[string]any{}
	}
	return v
}

// TranslateQueue builds the dashboard view of a queue reference.
func TranslateQueue(sid, name string) QueueView {
	display := TeamDisplayName(name)
	if display == "" {
		display = "Unknown Queue"
	}
	return QueueView{Sid: sid, Name: display}
}
