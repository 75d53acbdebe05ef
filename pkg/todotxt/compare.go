package todotxt

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// SortKey selects the comparator used to order tasks.
type SortKey int

const (
	SortByContent SortKey = iota
	SortByCreationDate
	SortByPriority
	SortByDueDate
)

var sortKeyNames = map[SortKey]string{
	SortByContent:      "content",
	SortByCreationDate: "creation",
	SortByPriority:     "priority",
	SortByDueDate:      "due",
}

func (k SortKey) String() string {
	if name, ok := sortKeyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("SortKey(%d)", int(k))
}

// ParseSortKey maps "content", "creation", "priority" or "due" to a SortKey.
func ParseSortKey(s string) (SortKey, error) {
	for k, name := range sortKeyNames {
		if strings.EqualFold(s, name) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown sort key %q, must be one of: content, creation, priority, due", s)
}

// Compare orders a and b with the comparator selected by k.
func (k SortKey) Compare(a, b *Task) int {
	switch k {
	case SortByCreationDate:
		return CompareByCreationDate(a, b)
	case SortByPriority:
		return CompareByPriority(a, b)
	case SortByDueDate:
		return CompareByDueDate(a, b)
	default:
		return CompareByContent(a, b)
	}
}

// Sort sorts tasks in place, stable, by the comparator selected by k.
func Sort(tasks []*Task, k SortKey) {
	slices.SortStableFunc(tasks, k.Compare)
}

// Compare orders t and u by content, the default task order.
func (t *Task) Compare(u *Task) int {
	return CompareByContent(t, u)
}

// CompareByContent orders tasks lexicographically by raw content.
func CompareByContent(a, b *Task) int {
	return strings.Compare(a.content, b.content)
}

// CompareByCreationDate orders tasks by creation date, then content.
// Tasks without a creation date come first.
func CompareByCreationDate(a, b *Task) int {
	switch {
	case a.creationDate != nil && b.creationDate != nil:
		if c := a.creationDate.Compare(*b.creationDate); c != 0 {
			return c
		}
		return CompareByContent(a, b)
	case a.creationDate != nil:
		return 1
	case b.creationDate != nil:
		return -1
	default:
		return CompareByContent(a, b)
	}
}

// CompareByDueDate orders tasks by due date, then content.
// Tasks with a due date come first.
func CompareByDueDate(a, b *Task) int {
	switch {
	case a.due != nil && b.due != nil:
		if c := a.due.Compare(*b.due); c != 0 {
			return c
		}
		return CompareByContent(a, b)
	case a.due != nil:
		return -1
	case b.due != nil:
		return 1
	default:
		return CompareByContent(a, b)
	}
}

// CompareByPriority orders tasks by priority (A first), then by due date.
// Tasks with a priority come first.
func CompareByPriority(a, b *Task) int {
	switch {
	case a.priority != 0 && b.priority != 0:
		if c := cmp.Compare(a.priority, b.priority); c != 0 {
			return c
		}
		return CompareByDueDate(a, b)
	case a.priority != 0:
		return -1
	case b.priority != 0:
		return 1
	default:
		return CompareByDueDate(a, b)
	}
}
