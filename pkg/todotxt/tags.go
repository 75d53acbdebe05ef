package todotxt

import (
	"regexp"
	"slices"
)

var (
	projectTagRegex = regexp.MustCompile(`(?:^| )\+(\S+)`)
	contextTagRegex = regexp.MustCompile(`(?:^| )@(\S+)`)
)

func (t *Task) extractTags() {
	t.projectTags = tagsFrom(projectTagRegex, t.content)
	t.contextTags = tagsFrom(contextTagRegex, t.content)
}

// tagsFrom returns the sorted, deduplicated first group of every match of re in s.
func tagsFrom(re *regexp.Regexp, s string) []string {
	tags := []string{}
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		tags = append(tags, m[1])
	}
	slices.Sort(tags)
	return slices.Compact(tags)
}

// FilterByContext returns the tasks carrying the given @context tag, in order.
func FilterByContext(tasks []*Task, context string) []*Task {
	var filtered []*Task
	for _, task := range tasks {
		if slices.Contains(task.contextTags, context) {
			filtered = append(filtered, task)
		}
	}
	return filtered
}
