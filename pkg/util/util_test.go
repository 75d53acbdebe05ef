package util

import (
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/todocal/pkg/colors"
	"github.com/harrisonrobin/todocal/pkg/todotxt"
	"google.golang.org/api/calendar/v3"
)

func mustParse(t *testing.T, line string) *todotxt.Task {
	t.Helper()
	task, err := todotxt.Parse(line)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", line, err)
	}
	return task
}

func TestTaskKey(t *testing.T) {
	a := mustParse(t, "2026-01-01 buy milk due:2026-01-02")
	b := mustParse(t, "2026-01-01 buy milk due:2026-01-09")
	if TaskKey(a) != TaskKey(b) {
		t.Error("Expected key to ignore due date")
	}
	c := mustParse(t, "2026-01-02 buy milk")
	if TaskKey(a) == TaskKey(c) {
		t.Error("Expected key to depend on creation date")
	}

	pinned := mustParse(t, "anything uuid:F45A05B3-C12E-42E5-9C9C-333333333333")
	if got := TaskKey(pinned); got != "f45a05b3-c12e-42e5-9c9c-333333333333" {
		t.Errorf("Expected uuid tag as key, got %s", got)
	}
}

func TestConvertTaskToCalendarEvent(t *testing.T) {
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.Local)
	task := mustParse(t, "(A) 2026-03-01 book flights +Travel @laptop due:2026-03-12 budget:800")

	cache := &colors.ColorCache{Path: t.TempDir() + "/colors.json", Projects: map[string]*colors.ProjectState{}}
	event, err := ConvertTaskToCalendarEvent(task, cache, now)
	if err != nil {
		t.Fatalf("ConvertTaskToCalendarEvent failed: %v", err)
	}

	if event.Summary != "(A) book flights +Travel @laptop" {
		t.Errorf("Unexpected summary %q", event.Summary)
	}
	if event.Start.Date != "2026-03-12" || event.End.Date != "2026-03-13" {
		t.Errorf("Expected all-day event on 2026-03-12, got %s..%s", event.Start.Date, event.End.Date)
	}
	if event.ColorId != "1" {
		t.Errorf("Expected first free color for a new project, got %s", event.ColorId)
	}
	if val := event.ExtendedProperties.Private[KeyProperty]; val != TaskKey(task) {
		t.Errorf("Expected %s %s, got %v", KeyProperty, TaskKey(task), val)
	}
	for _, want := range []string{"+Travel @laptop", "Status: to do", "Created: 2026-03-01", "• budget: 800"} {
		if !strings.Contains(event.Description, want) {
			t.Errorf("Expected description to contain %q, got: %s", want, event.Description)
		}
	}
	if strings.Contains(event.Description, "due:") || strings.Contains(event.Description, "• due") {
		t.Errorf("Expected due tag left out of description, got: %s", event.Description)
	}
}

func TestConvertTaskSummaryPrefix(t *testing.T) {
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.Local)

	overdue, err := ConvertTaskToCalendarEvent(mustParse(t, "pay bill due:2026-03-09"), nil, now)
	if err != nil {
		t.Fatalf("ConvertTaskToCalendarEvent failed: %v", err)
	}
	if overdue.Summary != "! pay bill" {
		t.Errorf("Expected overdue prefix, got %q", overdue.Summary)
	}

	dueToday, _ := ConvertTaskToCalendarEvent(mustParse(t, "pay bill due:2026-03-10"), nil, now)
	if dueToday.Summary != "pay bill" {
		t.Errorf("Expected no prefix for a task due today, got %q", dueToday.Summary)
	}

	done, _ := ConvertTaskToCalendarEvent(mustParse(t, "x 2026-03-08 2026-03-01 pay bill due:2026-03-09"), nil, now)
	if done.Summary != "✓ pay bill" {
		t.Errorf("Expected done prefix, got %q", done.Summary)
	}

	if _, err := ConvertTaskToCalendarEvent(mustParse(t, "no due"), nil, now); err == nil {
		t.Error("Expected error for a task without due date")
	}
}

func TestEventNeedsUpdate(t *testing.T) {
	target := &calendar.Event{
		Summary: "pay bill",
		ColorId: "2",
		Start:   &calendar.EventDateTime{Date: "2026-03-10"},
		End:     &calendar.EventDateTime{Date: "2026-03-11"},
	}

	same := *target
	patch, err := EventNeedsUpdate(&same, target)
	if err != nil || patch != nil {
		t.Errorf("Expected no patch, got %+v (%v)", patch, err)
	}

	moved := *target
	moved.Start = &calendar.EventDateTime{Date: "2026-03-09"}
	patch, err = EventNeedsUpdate(&moved, target)
	if err != nil {
		t.Fatalf("EventNeedsUpdate failed: %v", err)
	}
	if patch == nil || patch.Start.Date != "2026-03-10" || patch.Summary != "" {
		t.Errorf("Expected date-only patch, got %+v", patch)
	}

	broken := *target
	broken.Start = &calendar.EventDateTime{DateTime: "yesterday"}
	if _, err := EventNeedsUpdate(&broken, target); err == nil {
		t.Error("Expected error for unparsable event time")
	}
}

func TestEventTaskKey(t *testing.T) {
	event := &calendar.Event{Description: "Status: to do\nKey: 0b9f4c1e-6a53-5d2e-9a1b-2c3d4e5f6a7b\n"}
	if key, ok := EventTaskKey(event); !ok || key != "0b9f4c1e-6a53-5d2e-9a1b-2c3d4e5f6a7b" {
		t.Errorf("Expected key from description, got %q", key)
	}

	event.ExtendedProperties = &calendar.EventExtendedProperties{Private: map[string]string{KeyProperty: "abc"}}
	if key, _ := EventTaskKey(event); key != "abc" {
		t.Errorf("Expected key from extended property, got %q", key)
	}

	if _, ok := EventTaskKey(&calendar.Event{}); ok {
		t.Error("Expected no key")
	}
}
