package taskrouter

import "testing"

func TestTranslateTerm_IsIdempotent(t *testing.T) {
	inputs := []string{
		"TaskRouter", "task_queue", "worker", "assignment-status",
		"already friendly", "", "Call", "Agent Status",
	}
	for _, in := range inputs {
		once := TranslateTerm(in)
		twice := TranslateTerm(once)
		if once != twice {
			t.Fatalf("TranslateTerm not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestTranslateTerm_UnknownPassesThrough(t *testing.T) {
	if got := TranslateTerm("some-internal-thing"); got != "some-internal-thing" {
		t.Fatalf("expected passthrough, got %q", got)
	}
}

func TestTranslateTerm_NormalizesSeparators(t *testing.T) {
	for _, in := range []string{"task_queue", "TaskQueue", "task queue", "TASK-QUEUE"} {
		if got := TranslateTerm(in); got != "Team" {
			t.Fatalf("expected %q -> Team, got %q", in, got)
		}
	}
}

func TestLookupActivity_CaseInsensitive(t *testing.T) {
	for _, name := range []string{"Available", "available", "AVAILABLE"} {
		d, ok := LookupActivity(name)
		if !ok {
			t.Fatalf("expected registry hit for %q", name)
		}
		if !d.Available {
			t.Fatalf("expected Available=true for %q", name)
		}
	}

	if _, ok := LookupActivity("no-such-activity"); ok {
		t.Fatalf("expected miss for unknown activity")
	}
}

func TestTeamDisplayName_FallsBackToRaw(t *testing.T) {
	if got := TeamDisplayName("sales"); got != "Sales Team" {
		t.Fatalf("expected Sales Team, got %q", got)
	}
	if got := TeamDisplayName("Tier 3 Weirdness"); got != "Tier 3 Weirdness" {
		t.Fatalf("expected raw fallback, got %q", got)
	}
}

func TestTranslateWorker_DefaultsMissingFields(t *testing.T) {
	v := TranslateWorker(Worker{Sid: "WK1"})
	if v.Name != "Unknown Agent" {
		t.Fatalf("expected placeholder name, got %q", v.Name)
	}
	if v.Attributes == nil {
		t.Fatalf("expected non-nil attributes")
	}
	if v.Activity.Available {
		t.Fatalf("unknown activity must not read as available")
	}
}

func TestTranslateTask_DefaultsMissingFields(t *testing.T) {
	v := TranslateTask(Task{Sid: "WT1"})
	if v.QueueName != "Unknown Queue" {
		t.Fatalf("expected Unknown Queue, got %q", v.QueueName)
	}
	if v.AssignmentStatus != string(AssignmentStatusPending) {
		t.Fatalf("expected pending default, got %q", v.AssignmentStatus)
	}
}

func TestTranslateActivity_UnknownCarriesRawName(t *testing.T) {
	d := TranslateActivity("Mystery State")
	if d.Display != "Mystery State" {
		t.Fatalf("expected raw name in display, got %q", d.Display)
	}
	if d.Available {
		t.Fatalf("unknown activity must default to unavailable")
	}
}
