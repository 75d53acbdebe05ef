package todotxt

import (
	"fmt"
	"strings"
)

// TodoTxt returns the task as a todo.txt line. Custom tags follow the content
// in the order they were first added.
func (t *Task) TodoTxt() string {
	var b strings.Builder
	if t.completed {
		b.WriteString("x ")
	}
	if t.priority != 0 {
		fmt.Fprintf(&b, "(%c) ", t.priority)
	}
	if t.completionDate != nil {
		b.WriteString(t.completionDate.Format(DateLayout) + " ")
	}
	if t.creationDate != nil {
		b.WriteString(t.creationDate.Format(DateLayout) + " ")
	}
	b.WriteString(t.content)
	for _, key := range t.customKeys {
		fmt.Fprintf(&b, " %s:%s", key, t.customTags[key])
	}
	return b.String()
}

// MarshalText implements encoding.TextMarshaler using TodoTxt.
func (t *Task) MarshalText() ([]byte, error) {
	return []byte(t.TodoTxt()), nil
}

// String returns a short display form: priority, due date and content.
func (t *Task) String() string {
	var b strings.Builder
	if t.priority != 0 {
		fmt.Fprintf(&b, "(%c) ", t.priority)
	}
	if t.due != nil {
		b.WriteString(t.due.Format(DateLayout) + " : ")
	}
	b.WriteString(t.content)
	return b.String()
}

// Recap returns a multi-line description of every field that is set.
func (t *Task) Recap() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task : %s", t.content)
	if t.completed {
		b.WriteString("\nStatus : Done")
		if t.completionDate != nil {
			fmt.Fprintf(&b, " (%s)", t.completionDate.Format(DateLayout))
		}
	} else {
		b.WriteString("\nStatus : To do")
	}
	if t.priority != 0 {
		fmt.Fprintf(&b, "\nPriority : %c", t.priority)
	}
	if t.creationDate != nil {
		fmt.Fprintf(&b, "\nCreated on : %s", t.creationDate.Format(DateLayout))
	}
	if t.due != nil {
		fmt.Fprintf(&b, "\nDue date : %s", t.due.Format(DateLayout))
	}
	if len(t.contextTags) > 0 {
		fmt.Fprintf(&b, "\nContext tags : %s", strings.Join(t.contextTags, ", "))
	}
	if len(t.projectTags) > 0 {
		fmt.Fprintf(&b, "\nProject tags : %s", strings.Join(t.projectTags, ", "))
	}
	return b.String()
}
