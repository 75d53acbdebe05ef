package taskwarrior

import (
	"fmt"
	"strings"
	"time"

	"github.com/harrisonrobin/todocal/pkg/todotxt"
	"github.com/harrisonrobin/todocal/pkg/util"
)

// ToTodoTxt converts a Taskwarrior task to a todo.txt task. The description
// is kept verbatim as content, the project becomes a +project tag, Taskwarrior
// tags become @context tags and the UUID is kept in the "uuid" custom tag.
// Deleted tasks yield nil.
func ToTodoTxt(tw Task) (*todotxt.Task, error) {
	if tw.Status == DELETED {
		return nil, nil
	}
	if strings.ContainsAny(tw.Description, "\r\n") {
		return nil, fmt.Errorf("convert taskwarrior task %s: %w: multi-line description", tw.UUID, todotxt.ErrMalformed)
	}

	content := []string{tw.Description}
	if tw.Project != "" {
		content = append(content, "+"+tw.Project)
	}
	for _, tag := range tw.Tags {
		content = append(content, "@"+tag)
	}

	task := todotxt.Empty()
	task.SetContent(strings.Join(content, " "))
	if p, ok := priorities[tw.Priority]; ok {
		if err := task.SetPriority(p); err != nil {
			return nil, fmt.Errorf("convert taskwarrior task %s: %w", tw.UUID, err)
		}
	}
	if set(tw.Entry) {
		task.SetCreationDate(tw.Entry.In(time.Local))
	}
	if tw.Status == COMPLETED {
		if set(tw.End) {
			task.SetCompletedOn(tw.End.In(time.Local))
		} else {
			task.SetCompleted()
		}
	}
	if set(tw.Due) {
		task.SetDue(tw.Due.In(time.Local))
	}
	if tw.UUID != "" {
		if err := task.SetCustomTag(util.UUIDTag, tw.UUID); err != nil {
			return nil, fmt.Errorf("convert taskwarrior task %s: %w", tw.UUID, err)
		}
	}
	return task, nil
}

// FromTodoTxt converts a task to a Taskwarrior task. The first project tag
// becomes the project and context tags become Taskwarrior tags.
func FromTodoTxt(task *todotxt.Task) Task {
	tw := Task{
		UUID:        util.TaskKey(task),
		Description: task.Content(),
		Status:      PENDING,
		Tags:        task.ContextTags(),
	}
	if task.Completed() {
		tw.Status = COMPLETED
	}
	if projects := task.ProjectTags(); len(projects) > 0 {
		tw.Project = projects[0]
	}
	if p, ok := task.Priority(); ok {
		for name, letter := range priorities {
			if letter == p {
				tw.Priority = name
			}
		}
	}
	if d, ok := task.CreationDate(); ok {
		tw.Entry = &CustomTime{Time: d}
	}
	if d, ok := task.CompletionDate(); ok {
		tw.End = &CustomTime{Time: d}
	}
	if d, ok := task.Due(); ok {
		tw.Due = &CustomTime{Time: d}
	}
	return tw
}

func set(ct *CustomTime) bool {
	return ct != nil && !ct.IsZero()
}
