package todotxt

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ErrMalformed is wrapped by every ParseError.
var ErrMalformed = errors.New("malformed task")

// ParseError reports a line that does not follow the todo.txt grammar.
type ParseError struct {
	Line string // offending input
	Err  error  // underlying error, always wrapping ErrMalformed
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %s", e.Line, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

var (
	taskRegex = regexp.MustCompile(`^(?P<completion>x )?(?:\((?P<priority>[A-Z])\) )?(?P<first>\d{4}-\d{2}-\d{2} )?(?P<second>\d{4}-\d{2}-\d{2} )?(?P<content>.*)$`)
	// tagBlockRegex matches the run of " key:value" tokens that ends the content.
	tagBlockRegex = regexp.MustCompile(`( [^:\s]+:[^:\s]+)+$`)
	tagRegex      = regexp.MustCompile(`([^:\s]+):([^:\s]+)`)
)

// Parse builds a Task from a todo.txt line.
//
// A single leading date is the creation date. Two leading dates are the
// completion date followed by the creation date. A "due" custom tag that is
// not a valid date is kept as a tag but does not set the due date.
func Parse(line string) (*Task, error) {
	m := taskRegex.FindStringSubmatch(line)
	if m == nil {
		return nil, &ParseError{Line: line, Err: fmt.Errorf("%w: does not match todo.txt grammar", ErrMalformed)}
	}
	group := func(name string) string {
		return m[taskRegex.SubexpIndex(name)]
	}

	t := Empty()
	t.completed = group("completion") != ""
	if p := group("priority"); p != "" {
		t.priority = rune(p[0])
	}

	first, err := parseDateToken(group("first"))
	if err != nil {
		return nil, &ParseError{Line: line, Err: err}
	}
	second, err := parseDateToken(group("second"))
	if err != nil {
		return nil, &ParseError{Line: line, Err: err}
	}
	if second != nil {
		t.completionDate = first
		t.creationDate = second
	} else {
		t.creationDate = first
	}

	content := group("content")
	if loc := tagBlockRegex.FindStringIndex(content); loc != nil {
		for _, tag := range tagRegex.FindAllStringSubmatch(content[loc[0]:loc[1]], -1) {
			t.putCustomTag(tag[1], tag[2])
		}
		content = content[:loc[0]]
	}
	t.SetContent(content)

	if v, ok := t.customTags[DueTag]; ok {
		if due, err := time.ParseInLocation(DateLayout, v, time.Local); err == nil {
			t.due = &due
		}
	}
	return t, nil
}

// parseDateToken parses a "YYYY-MM-DD " prefix token. An empty token yields nil.
func parseDateToken(token string) (*time.Time, error) {
	if token == "" {
		return nil, nil
	}
	raw := token[:len(token)-1]
	d, err := time.ParseInLocation(DateLayout, raw, time.Local)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", ErrMalformed, raw)
	}
	return &d, nil
}

// UnmarshalText implements encoding.TextUnmarshaler using Parse.
func (t *Task) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*t = *parsed
	return nil
}
