package util

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harrisonrobin/todocal/pkg/colors"
	"github.com/harrisonrobin/todocal/pkg/todotxt"
	"google.golang.org/api/calendar/v3"
)

const (
	// KeyProperty is the private extended property holding the task key on calendar events.
	KeyProperty = "todotxt_key"
	// UUIDTag is the custom tag that pins a task key across content edits.
	UUIDTag = "uuid"
)

var keyNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/harrisonrobin/todocal"))

// TaskKey returns a stable identifier for a task. A valid "uuid" custom tag
// wins; otherwise the key is derived from the creation date and content, so
// editing the content yields a new key.
func TaskKey(task *todotxt.Task) string {
	if v, ok := task.CustomTag(UUIDTag); ok {
		if id, err := uuid.Parse(v); err == nil {
			return id.String()
		}
	}
	created := ""
	if d, ok := task.CreationDate(); ok {
		created = d.Format(todotxt.DateLayout)
	}
	return uuid.NewSHA1(keyNamespace, []byte(created+"\x00"+task.Content())).String()
}

// EventNeedsUpdate returns a patch event if the fields shared between the existing
// calendar event and the target event (newly converted) differ, or nil.
func EventNeedsUpdate(existingEvent *calendar.Event, targetEvent *calendar.Event) (*calendar.Event, error) {
	patch := &calendar.Event{}
	needsUpdate := false

	if existingEvent.Summary != targetEvent.Summary {
		patch.Summary = targetEvent.Summary
		needsUpdate = true
	}

	if existingEvent.Description != targetEvent.Description {
		patch.Description = targetEvent.Description
		needsUpdate = true
	}

	if existingEvent.ColorId != targetEvent.ColorId {
		patch.ColorId = targetEvent.ColorId
		needsUpdate = true
	}

	existingStart, err := eventDay(existingEvent.Start)
	if err != nil {
		return nil, err
	}
	existingEnd, err := eventDay(existingEvent.End)
	if err != nil {
		return nil, err
	}
	if existingStart != targetEvent.Start.Date || existingEnd != targetEvent.End.Date {
		patch.Start = targetEvent.Start
		patch.End = targetEvent.End
		needsUpdate = true
	}

	if needsUpdate {
		return patch, nil
	}
	return nil, nil
}

// eventDay returns the calendar day of an all-day or timed event boundary.
func eventDay(edt *calendar.EventDateTime) (string, error) {
	if edt == nil {
		return "", nil
	}
	if edt.Date != "" {
		return edt.Date, nil
	}
	if edt.DateTime == "" {
		return "", nil
	}
	t, err := time.Parse(time.RFC3339, edt.DateTime)
	if err != nil {
		return "", fmt.Errorf("invalid event time %q: %w", edt.DateTime, err)
	}
	return t.In(time.Local).Format(todotxt.DateLayout), nil
}

// ConvertTaskToCalendarEvent builds an all-day event on the task's due date.
// cache may be nil, in which case every event gets the default color.
func ConvertTaskToCalendarEvent(task *todotxt.Task, cache *colors.ColorCache, now time.Time) (*calendar.Event, error) {
	if task == nil {
		return nil, fmt.Errorf("could not convert nil Task")
	}
	due, ok := task.Due()
	if !ok {
		return nil, fmt.Errorf("task has no due date: %s", task.Content())
	}
	key := TaskKey(task)

	// 1. Summary
	prefix := ""
	y, m, d := now.Date()
	if task.Completed() {
		prefix = "✓"
	} else if due.Before(time.Date(y, m, d, 0, 0, 0, 0, time.Local)) {
		prefix = "!"
	}
	summary := task.Content()
	if p, ok := task.Priority(); ok {
		summary = fmt.Sprintf("(%c) %s", p, summary)
	}
	if prefix != "" {
		summary = fmt.Sprintf("%s %s", prefix, summary)
	}

	// 2. Color, keyed by the first project tag
	colorID := "1"
	if cache != nil {
		project := ""
		if projects := task.ProjectTags(); len(projects) > 0 {
			project = projects[0]
		}
		colorID = cache.GetColorID(project, !task.Completed())
	}

	// 3. Description
	var desc strings.Builder
	var header []string
	for _, p := range task.ProjectTags() {
		header = append(header, "+"+p)
	}
	for _, c := range task.ContextTags() {
		header = append(header, "@"+c)
	}
	if len(header) > 0 {
		desc.WriteString(strings.Join(header, " "))
		desc.WriteString("\n\n")
	}
	if task.Completed() {
		desc.WriteString("Status: done")
		if done, ok := task.CompletionDate(); ok {
			fmt.Fprintf(&desc, " (%s)", done.Format(todotxt.DateLayout))
		}
		desc.WriteString("\n")
	} else {
		desc.WriteString("Status: to do\n")
	}
	if created, ok := task.CreationDate(); ok {
		fmt.Fprintf(&desc, "Created: %s\n", created.Format(todotxt.DateLayout))
	}
	fmt.Fprintf(&desc, "Key: %s\n", key)
	var extra []string
	for _, k := range task.CustomTagKeys() {
		if k == todotxt.DueTag || k == UUIDTag {
			continue
		}
		v, _ := task.CustomTag(k)
		extra = append(extra, fmt.Sprintf("• %s: %s", k, v))
	}
	if len(extra) > 0 {
		desc.WriteString("\nTags:\n")
		desc.WriteString(strings.Join(extra, "\n"))
		desc.WriteString("\n")
	}

	event := &calendar.Event{
		Summary:     summary,
		ColorId:     colorID,
		Start:       &calendar.EventDateTime{Date: due.Format(todotxt.DateLayout)},
		End:         &calendar.EventDateTime{Date: due.AddDate(0, 0, 1).Format(todotxt.DateLayout)},
		Description: desc.String(),
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				KeyProperty: key,
			},
		},
	}

	return event, nil
}

var keyRegex = regexp.MustCompile(`Key: ([a-f0-9\-]+)`)

// EventTaskKey returns the task key of an event, read from its private extended
// property or, failing that, from its description.
func EventTaskKey(event *calendar.Event) (string, bool) {
	if event.ExtendedProperties != nil {
		if key, ok := event.ExtendedProperties.Private[KeyProperty]; ok && key != "" {
			return key, true
		}
	}
	matches := keyRegex.FindStringSubmatch(event.Description)
	if len(matches) > 1 {
		return matches[1], true
	}
	return "", false
}
