package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/harrisonrobin/todocal/pkg/auth"
	"github.com/harrisonrobin/todocal/pkg/colors"
	"github.com/harrisonrobin/todocal/pkg/config"
	"github.com/harrisonrobin/todocal/pkg/google"
	"github.com/harrisonrobin/todocal/pkg/index"
	"github.com/harrisonrobin/todocal/pkg/orgmode"
	"github.com/harrisonrobin/todocal/pkg/overdue"
	"github.com/harrisonrobin/todocal/pkg/taskwarrior"
	"github.com/harrisonrobin/todocal/pkg/todotxt"
	"github.com/harrisonrobin/todocal/pkg/util"
	"google.golang.org/api/calendar/v3"
)

func main() {
	// 1. Parse Flags
	calendarName := flag.String("calendar", "", "Google Calendar name to sync with (overrides config)")
	setCalendar := flag.String("set-calendar", "", "Set the default Google Calendar name")
	sortBy := flag.String("sort", "", "Sort key: content, creation, priority or due (overrides config)")
	setSort := flag.String("set-sort", "", "Set the default sort key")
	onlyContext := flag.String("context", "", "Only keep tasks carrying this @context tag")
	from := flag.String("from", "todotxt", "Input format on stdin: todotxt, taskwarrior or org")
	printAs := flag.String("print", "", "Print tasks instead of syncing: todotxt, short, recap or taskwarrior")
	prune := flag.Bool("prune", false, "Delete calendar events of tasks no longer in the input")
	doAuth := flag.Bool("auth", false, "Authenticate with Google Calendar")
	flag.Parse()

	// 2. Handle config updates
	if *setCalendar != "" || *setSort != "" {
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("Error loading config: %v", err)
		}
		if *setCalendar != "" {
			cfg.Calendar = *setCalendar
		}
		if *setSort != "" {
			if _, err := todotxt.ParseSortKey(*setSort); err != nil {
				log.Fatalf("Error: %v", err)
			}
			cfg.SortBy = *setSort
		}
		if err := config.Save(cfg); err != nil {
			log.Fatalf("Error saving config: %v", err)
		}
		fmt.Printf("Default calendar: %s, default sort: %s\n", cfg.Calendar, cfg.SortBy)
		return
	}

	// 3. Resolve settings (Priority: Flag > Config > Default)
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: could not load config, using defaults: %v", err)
		cfg = &config.Config{Calendar: config.DefaultCalendar, SortBy: config.DefaultSortBy}
	}
	selectedCalendar := cfg.Calendar
	if *calendarName != "" {
		selectedCalendar = *calendarName
	}
	if *sortBy != "" {
		cfg.SortBy = *sortBy
	}
	sortKey, err := cfg.SortKey()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	ctx := context.Background()

	// 4. Handle Authentication
	if *doAuth {
		tokenFile, err := auth.TokenPath()
		if err != nil {
			log.Fatalf("could not find path to token file: %v", err)
		}
		if err := os.Remove(tokenFile); err != nil && !os.IsNotExist(err) {
			log.Fatalf("could not delete token file '%s', error %v. Please delete it manually", tokenFile, err)
		}
		if _, err := auth.GetCalendarService(ctx); err != nil {
			log.Fatalf("Authentication failed: %v", err)
		}
		log.Printf("Authentication successful! Token saved to %s", tokenFile)
		return
	}

	// 5. Read and order tasks
	tasks, err := readTasks(os.Stdin, *from)
	if err != nil {
		log.Fatalf("Error reading tasks: %v", err)
	}
	tasks = selectTasks(tasks, *onlyContext, sortKey)

	if *printAs != "" {
		if err := printTasks(os.Stdout, tasks, *printAs); err != nil {
			log.Fatalf("Error printing tasks: %v", err)
		}
		return
	}

	// 6. Sync due-dated tasks
	if err := syncTasks(ctx, tasks, selectedCalendar, *prune); err != nil {
		log.Fatalf("Sync failed: %v", err)
	}
}

// readTasks decodes tasks from r. Malformed todo.txt lines are reported and skipped.
func readTasks(r io.Reader, format string) ([]*todotxt.Task, error) {
	switch format {
	case "todotxt":
		var tasks []*todotxt.Task
		scanner := bufio.NewScanner(r)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := scanner.Text()
			if line == "" {
				continue
			}
			task, err := todotxt.Parse(line)
			if err != nil {
				log.Printf("line %d: %v", lineNo, err)
				continue
			}
			tasks = append(tasks, task)
		}
		return tasks, scanner.Err()
	case "taskwarrior":
		twTasks, err := taskwarrior.NewClient().ParseTasks(r)
		if err != nil {
			return nil, err
		}
		var tasks []*todotxt.Task
		for _, tw := range twTasks {
			task, err := taskwarrior.ToTodoTxt(tw)
			if err != nil {
				log.Printf("%v", err)
				continue
			}
			if task != nil {
				tasks = append(tasks, task)
			}
		}
		return tasks, nil
	case "org":
		return orgmode.Parse(r, "stdin")
	default:
		return nil, fmt.Errorf("unknown input format %q", format)
	}
}

// selectTasks keeps the tasks carrying contextTag, or all of them when it is
// empty, and orders them by key.
func selectTasks(tasks []*todotxt.Task, contextTag string, key todotxt.SortKey) []*todotxt.Task {
	if contextTag != "" {
		tasks = todotxt.FilterByContext(tasks, contextTag)
	}
	todotxt.Sort(tasks, key)
	return tasks
}

func printTasks(w io.Writer, tasks []*todotxt.Task, format string) error {
	switch format {
	case "todotxt":
		for _, t := range tasks {
			fmt.Fprintln(w, t.TodoTxt())
		}
	case "short":
		for _, t := range tasks {
			fmt.Fprintln(w, t.String())
		}
	case "recap":
		for i, t := range tasks {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintln(w, t.Recap())
		}
	case "taskwarrior":
		export := make([]taskwarrior.Task, 0, len(tasks))
		for _, t := range tasks {
			export = append(export, taskwarrior.FromTodoTxt(t))
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(export)
	default:
		return fmt.Errorf("unknown print format %q", format)
	}
	return nil
}

func syncTasks(ctx context.Context, tasks []*todotxt.Task, calendarName string, prune bool) error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}

	sweepTable, err := overdue.NewTable(dir)
	if err != nil {
		log.Printf("Warning: failed to initialize overdue sweep table: %v", err)
	}
	evtIndex, err := index.NewEventIndex(dir)
	if err != nil {
		log.Printf("Warning: failed to initialize event index: %v", err)
	}
	colorCache, err := colors.NewColorCache(dir)
	if err != nil {
		log.Printf("Warning: could not load color cache: %v", err)
	}

	gClient, err := google.NewClient(ctx, calendarName, evtIndex, colorCache)
	if err != nil {
		return fmt.Errorf("creating Google Calendar client: %w", err)
	}

	now := time.Now()
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.Local)

	// Flag events whose due date passed since the last run
	if sweepTable != nil {
		for _, e := range sweepTable.Sweep(now) {
			log.Printf("Sweep: %q was due %s", e.Summary, humanize.Time(e.Due))
			if _, err := gClient.PatchEvent(e.GCalID, &calendar.Event{Summary: "! " + e.Summary}); err != nil {
				log.Printf("Sweep: error patching event %s: %v", e.GCalID, err)
			}
		}
	}

	keep := make(map[string]bool)
	synced := 0
	for _, task := range tasks {
		due, ok := task.Due()
		if !ok {
			continue
		}
		key := util.TaskKey(task)
		keep[key] = true

		event, err := gClient.SyncEvent(task, now)
		if err != nil {
			log.Printf("Error syncing %q: %v", task.Content(), err)
			continue
		}
		synced++
		if sweepTable != nil {
			// Already overdue events carry the "!" prefix from the conversion
			if task.Completed() || due.Before(today) {
				sweepTable.Remove(key)
			} else {
				sweepTable.Update(key, event.Id, event.Summary, due)
			}
		}
	}
	log.Printf("Synced %d of %d tasks to %q", synced, len(tasks), calendarName)

	if prune {
		removed, err := gClient.Prune(keep)
		if err != nil {
			log.Printf("Error pruning events: %v", err)
		}
		log.Printf("Pruned %d events", removed)
		if sweepTable != nil {
			for key := range sweepTable.Entries {
				if !keep[key] {
					sweepTable.Remove(key)
				}
			}
		}
	}

	if sweepTable != nil {
		if err := sweepTable.Save(); err != nil {
			log.Printf("Warning: failed to save sweep table: %v", err)
		}
	}
	if evtIndex != nil {
		if err := evtIndex.Save(); err != nil {
			log.Printf("Warning: failed to save event index: %v", err)
		}
	}
	if colorCache != nil {
		if err := colorCache.Save(); err != nil {
			log.Printf("Warning: failed to save color cache: %v", err)
		}
	}
	return nil
}
