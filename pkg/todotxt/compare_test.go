package todotxt

import (
	"testing"
)

func mustParse(t *testing.T, line string) *Task {
	t.Helper()
	task, err := Parse(line)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", line, err)
	}
	return task
}

func TestCompareByCreationDate(t *testing.T) {
	undated := mustParse(t, "a task")
	dated := mustParse(t, "2021-01-01 another task")
	if CompareByCreationDate(undated, dated) >= 0 {
		t.Error("Expected undated task before dated task")
	}
	if CompareByCreationDate(dated, undated) <= 0 {
		t.Error("Expected dated task after undated task")
	}

	// neither dated falls back to content
	other := mustParse(t, "another task")
	if CompareByCreationDate(undated, other) >= 0 {
		t.Error("Expected content order when both are undated")
	}

	older := mustParse(t, "2020-01-01 zzz")
	if CompareByCreationDate(older, dated) >= 0 {
		t.Error("Expected older creation date first")
	}
}

func TestCompareByContent(t *testing.T) {
	b, c, a := New("b"), New("c"), New("a")
	if CompareByContent(b, c) >= 0 || CompareByContent(b, a) <= 0 {
		t.Error("Expected lexicographic content order")
	}
	if b.Compare(New("b")) != 0 {
		t.Error("Expected equal content to compare equal")
	}
}

func TestCompareByDueDate(t *testing.T) {
	t1 := mustParse(t, "a task due:2021-01-02")
	t2 := mustParse(t, "another task due:2021-01-01")
	if CompareByDueDate(t1, t2) <= 0 {
		t.Error("Expected later due date to compare greater")
	}
	if CompareByDueDate(t2, t1) >= 0 {
		t.Error("Expected earlier due date to compare less")
	}
	t3 := mustParse(t, "this is a task due:2021-01-01")
	if CompareByDueDate(t2, t3) >= 0 {
		t.Error("Expected same due date to fall back to content")
	}

	undated := mustParse(t, "aaa")
	if CompareByDueDate(t1, undated) >= 0 || CompareByDueDate(undated, t1) <= 0 {
		t.Error("Expected tasks with a due date first")
	}
}

func TestCompareByPriority(t *testing.T) {
	a := mustParse(t, "(A) zzz")
	b := mustParse(t, "(B) aaa")
	none := mustParse(t, "aaa due:2020-01-01")
	if CompareByPriority(a, b) >= 0 {
		t.Error("Expected A before B")
	}
	if CompareByPriority(b, none) >= 0 || CompareByPriority(none, b) <= 0 {
		t.Error("Expected prioritized tasks first")
	}

	sooner := mustParse(t, "(A) zzz due:2021-01-01")
	later := mustParse(t, "(A) aaa due:2021-06-01")
	if CompareByPriority(sooner, later) >= 0 {
		t.Error("Expected same priority to fall back to due date")
	}

	undatedNone := mustParse(t, "bbb")
	if CompareByPriority(none, undatedNone) >= 0 {
		t.Error("Expected no priority to fall back to due date")
	}
}

func TestComparatorsTotalOrder(t *testing.T) {
	lines := []string{
		"plain",
		"another",
		"(A) urgent due:2021-01-01",
		"(A) urgent too due:2021-01-01",
		"(C) low",
		"2021-03-03 dated",
		"2021-03-03 dated also due:2020-12-12",
		"x 2021-04-04 2021-03-01 done due:2021-05-05",
		"(B) 2021-01-01 mid",
	}
	tasks := make([]*Task, len(lines))
	for i, l := range lines {
		tasks[i] = mustParse(t, l)
	}

	sign := func(n int) int {
		switch {
		case n < 0:
			return -1
		case n > 0:
			return 1
		}
		return 0
	}

	for _, key := range []SortKey{SortByContent, SortByCreationDate, SortByPriority, SortByDueDate} {
		t.Run(key.String(), func(t *testing.T) {
			for _, a := range tasks {
				if key.Compare(a, a) != 0 {
					t.Errorf("compare(%q, itself) != 0", a.TodoTxt())
				}
				for _, b := range tasks {
					if sign(key.Compare(a, b)) != -sign(key.Compare(b, a)) {
						t.Errorf("not antisymmetric for %q and %q", a.TodoTxt(), b.TodoTxt())
					}
					for _, c := range tasks {
						if key.Compare(a, b) <= 0 && key.Compare(b, c) <= 0 && key.Compare(a, c) > 0 {
							t.Errorf("not transitive for %q, %q, %q", a.TodoTxt(), b.TodoTxt(), c.TodoTxt())
						}
					}
				}
			}
		})
	}
}

func TestSortKey(t *testing.T) {
	for _, name := range []string{"content", "creation", "priority", "due", "DUE"} {
		if _, err := ParseSortKey(name); err != nil {
			t.Errorf("ParseSortKey(%q) failed: %v", name, err)
		}
	}
	if _, err := ParseSortKey("size"); err == nil {
		t.Error("Expected error for unknown sort key")
	}

	tasks := []*Task{
		mustParse(t, "c"),
		mustParse(t, "(B) b"),
		mustParse(t, "a due:2021-01-01"),
		mustParse(t, "(A) d"),
	}
	Sort(tasks, SortByPriority)
	want := []string{"d", "b", "a", "c"}
	for i, task := range tasks {
		if task.Content() != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], task.Content())
		}
	}
}
