// Package orgmode converts Org-mode TODO headlines into todo.txt tasks.
package orgmode

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/harrisonrobin/todocal/pkg/todotxt"
	"github.com/harrisonrobin/todocal/pkg/util"
)

var (
	headlineRegex = regexp.MustCompile(`^\*+ (TODO|DONE)\s*(?:\[#([A-Z])\])?\s*(.*?)(?:\s+(:(?:[\w@]+:)+))?\s*$`)
	deadlineRegex = regexp.MustCompile(`DEADLINE:\s+<(\d{4}-\d{2}-\d{2})[^>]*>`)
	closedRegex   = regexp.MustCompile(`CLOSED:\s+\[(\d{4}-\d{2}-\d{2})[^\]]*\]`)
	createdRegex  = regexp.MustCompile(`:CREATED:\s+[\[<](\d{4}-\d{2}-\d{2})`)
	idRegex       = regexp.MustCompile(`:ID:\s+([a-fA-F0-9-]+)`)
)

type headline struct {
	lineNo   int
	done     bool
	priority string
	title    string
	tags     []string
	deadline string
	closed   string
	created  string
	id       string
}

// task builds the todo.txt task for the headline. The title is kept verbatim
// as content.
func (h *headline) task() (*todotxt.Task, error) {
	content := []string{h.title}
	for _, tag := range h.tags {
		content = append(content, "@"+tag)
	}

	task := todotxt.Empty()
	task.SetContent(strings.Join(content, " "))
	if h.priority != "" {
		if err := task.SetPriority(rune(h.priority[0])); err != nil {
			return nil, err
		}
	}
	if h.created != "" {
		created, err := parseDate(h.created)
		if err != nil {
			return nil, err
		}
		task.SetCreationDate(created)
	}
	if h.done {
		if h.closed != "" {
			closed, err := parseDate(h.closed)
			if err != nil {
				return nil, err
			}
			task.SetCompletedOn(closed)
		} else {
			task.SetCompleted()
		}
	}
	if h.deadline != "" {
		deadline, err := parseDate(h.deadline)
		if err != nil {
			return nil, err
		}
		task.SetDue(deadline)
	}
	if h.id != "" {
		if err := task.SetCustomTag(util.UUIDTag, h.id); err != nil {
			return nil, err
		}
	}
	return task, nil
}

func parseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(todotxt.DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", todotxt.ErrMalformed, s)
	}
	return d, nil
}

// Parse reads Org-mode text and returns one task per TODO or DONE headline.
// Org tags become @context tags, DEADLINE becomes the due date and the
// CREATED property the creation date.
func Parse(r io.Reader, source string) ([]*todotxt.Task, error) {
	scanner := bufio.NewScanner(r)
	var tasks []*todotxt.Task
	var current *headline

	flush := func() error {
		if current == nil || current.title == "" {
			current = nil
			return nil
		}
		task, err := current.task()
		if err != nil {
			return fmt.Errorf("%s:%d: %w", source, current.lineNo, err)
		}
		tasks = append(tasks, task)
		current = nil
		return nil
	}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "*") {
			if err := flush(); err != nil {
				return nil, err
			}
			matches := headlineRegex.FindStringSubmatch(line)
			if matches == nil {
				continue
			}
			current = &headline{
				lineNo:   lineNo,
				done:     matches[1] == "DONE",
				priority: matches[2],
				title:    strings.TrimSpace(matches[3]),
			}
			if matches[4] != "" {
				current.tags = strings.Split(strings.Trim(matches[4], ":"), ":")
			}
			continue
		}
		if current == nil {
			continue
		}
		if m := deadlineRegex.FindStringSubmatch(line); m != nil {
			current.deadline = m[1]
		}
		if m := closedRegex.FindStringSubmatch(line); m != nil {
			current.closed = m[1]
		}
		if m := createdRegex.FindStringSubmatch(line); m != nil {
			current.created = m[1]
		} else if m := idRegex.FindStringSubmatch(line); m != nil {
			current.id = m[1]
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return tasks, nil
}
