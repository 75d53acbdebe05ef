// Package todotxt models a single task line in the todo.txt format.
package todotxt

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the todo.txt calendar date format (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// DueTag is the custom tag mirrored into the due date.
const DueTag = "due"

var (
	// ErrInvalidPriority is returned when a priority is not an uppercase letter.
	ErrInvalidPriority = errors.New("priority must be a letter from A to Z")
	// ErrInvalidTag is returned when a custom tag key or value contains whitespace or a colon.
	ErrInvalidTag = errors.New("custom tag key and value must not contain whitespace or ':'")
)

// now is the clock used to stamp creation and completion dates.
var now = time.Now

// Task is a todo.txt task. The zero value is not usable, use Empty, New or Parse.
type Task struct {
	content        string
	completed      bool
	completionDate *time.Time
	creationDate   *time.Time
	due            *time.Time
	priority       rune
	projectTags    []string
	contextTags    []string
	customKeys     []string
	customTags     map[string]string
}

// Empty returns a task with no content, no dates and no tags.
func Empty() *Task {
	return &Task{
		projectTags: []string{},
		contextTags: []string{},
		customTags:  make(map[string]string),
	}
}

// New returns a task with the given content, created today.
func New(content string) *Task {
	t := Empty()
	t.SetContent(content)
	created := today()
	t.creationDate = &created
	return t
}

// NewWithDue returns a task with the given content, created today and due on due.
func NewWithDue(content string, due time.Time) *Task {
	t := New(content)
	t.SetDue(due)
	return t
}

// Clone returns a deep copy of t.
func (t *Task) Clone() *Task {
	c := *t
	c.completionDate = cloneDate(t.completionDate)
	c.creationDate = cloneDate(t.creationDate)
	c.due = cloneDate(t.due)
	c.projectTags = append([]string{}, t.projectTags...)
	c.contextTags = append([]string{}, t.contextTags...)
	c.customKeys = append([]string(nil), t.customKeys...)
	c.customTags = make(map[string]string, len(t.customTags))
	for k, v := range t.customTags {
		c.customTags[k] = v
	}
	return &c
}

// Content returns the free-text description, without the trailing custom tags.
func (t *Task) Content() string {
	return t.content
}

// SetContent replaces the content and re-derives the project and context tags.
func (t *Task) SetContent(content string) {
	t.content = content
	t.extractTags()
}

// Completed reports whether the task is done.
func (t *Task) Completed() bool {
	return t.completed
}

// CompletionDate returns the date the task was completed, if any.
func (t *Task) CompletionDate() (time.Time, bool) {
	return deref(t.completionDate)
}

// CreationDate returns the date the task was created, if any.
func (t *Task) CreationDate() (time.Time, bool) {
	return deref(t.creationDate)
}

// SetCreationDate sets the creation date, truncated to the calendar day.
func (t *Task) SetCreationDate(date time.Time) {
	d := dateOf(date)
	t.creationDate = &d
}

// Due returns the due date, if any.
func (t *Task) Due() (time.Time, bool) {
	return deref(t.due)
}

// SetDue sets the due date and mirrors it into the "due" custom tag.
func (t *Task) SetDue(date time.Time) {
	d := dateOf(date)
	t.due = &d
	t.putCustomTag(DueTag, d.Format(DateLayout))
}

// ClearDue removes the due date and the "due" custom tag.
func (t *Task) ClearDue() {
	t.due = nil
	t.deleteCustomTag(DueTag)
}

// SetCompleted marks the task done today. A task without a creation date
// gets one equal to its completion date.
func (t *Task) SetCompleted() {
	t.SetCompletedOn(now())
}

// SetCompletedOn marks the task done on the calendar day of date. A task
// without a creation date gets one equal to its completion date.
func (t *Task) SetCompletedOn(date time.Time) {
	t.completed = true
	done := dateOf(date)
	t.completionDate = &done
	if t.creationDate == nil {
		created := done
		t.creationDate = &created
	}
}

// SetNotCompleted marks the task as to do and drops its completion date.
func (t *Task) SetNotCompleted() {
	t.completed = false
	t.completionDate = nil
}

// Priority returns the priority letter, if any.
func (t *Task) Priority() (rune, bool) {
	return t.priority, t.priority != 0
}

// SetPriority sets the priority letter. Zero clears it.
func (t *Task) SetPriority(p rune) error {
	if p != 0 && (p < 'A' || p > 'Z') {
		return fmt.Errorf("%w: got %q", ErrInvalidPriority, p)
	}
	t.priority = p
	return nil
}

// ProjectTags returns the sorted +project tags found in the content.
func (t *Task) ProjectTags() []string {
	return append([]string{}, t.projectTags...)
}

// ContextTags returns the sorted @context tags found in the content.
func (t *Task) ContextTags() []string {
	return append([]string{}, t.contextTags...)
}

// CustomTags returns a copy of the key:value tags.
func (t *Task) CustomTags() map[string]string {
	tags := make(map[string]string, len(t.customTags))
	for k, v := range t.customTags {
		tags[k] = v
	}
	return tags
}

// CustomTagKeys returns the custom tag keys in serialization order.
func (t *Task) CustomTagKeys() []string {
	return append([]string{}, t.customKeys...)
}

// CustomTag returns the value of a custom tag.
func (t *Task) CustomTag(key string) (string, bool) {
	v, ok := t.customTags[key]
	return v, ok
}

// SetCustomTag adds or replaces a custom tag. Setting "due" also sets the due date,
// so its value must be a YYYY-MM-DD date.
func (t *Task) SetCustomTag(key, value string) error {
	if !validTagPart(key) || !validTagPart(value) {
		return fmt.Errorf("%w: %q:%q", ErrInvalidTag, key, value)
	}
	if key == DueTag {
		date, err := time.ParseInLocation(DateLayout, value, time.Local)
		if err != nil {
			return fmt.Errorf("invalid due date %q: %w", value, err)
		}
		t.SetDue(date)
		return nil
	}
	t.putCustomTag(key, value)
	return nil
}

// RemoveCustomTag removes a custom tag. Removing "due" clears the due date.
func (t *Task) RemoveCustomTag(key string) {
	if key == DueTag {
		t.ClearDue()
		return
	}
	t.deleteCustomTag(key)
}

func (t *Task) putCustomTag(key, value string) {
	if _, exists := t.customTags[key]; !exists {
		t.customKeys = append(t.customKeys, key)
	}
	t.customTags[key] = value
}

func (t *Task) deleteCustomTag(key string) {
	if _, exists := t.customTags[key]; !exists {
		return
	}
	delete(t.customTags, key)
	for i, k := range t.customKeys {
		if k == key {
			t.customKeys = append(t.customKeys[:i], t.customKeys[i+1:]...)
			break
		}
	}
}

func validTagPart(s string) bool {
	return s != "" && !strings.ContainsAny(s, ": \t\n\r\v\f")
}

func today() time.Time {
	return dateOf(now())
}

// dateOf truncates a time to local midnight of its calendar day.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func deref(d *time.Time) (time.Time, bool) {
	if d == nil {
		return time.Time{}, false
	}
	return *d, true
}

func cloneDate(d *time.Time) *time.Time {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
