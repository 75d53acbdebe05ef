// Package colors hands out Google Calendar event colors to project tags.
package colors

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	cacheFile = "project_colors.json"

	// NoProjectColor is used for tasks without a project tag (graphite).
	NoProjectColor = "8"
	// paletteSize is the number of event colors handed out to projects.
	paletteSize = 11
)

var now = time.Now

// ProjectState is the color claimed by one project tag. ActiveTasks counts the
// to-do tasks seen for the project during the current run.
type ProjectState struct {
	ColorID      string    `json:"color_id"`
	ActiveTasks  int       `json:"active_tasks"`
	LastModified time.Time `json:"last_modified"`
}

// ColorCache maps project tags to event colors. Once the palette is taken, a
// new project recycles the color of the least recently used project, picking
// among projects without active tasks first.
type ColorCache struct {
	Path     string
	Projects map[string]*ProjectState `json:"projects"`
	dirty    bool
}

// NewColorCache loads the cache stored in dir, or starts an empty one.
// Active task counts start from zero on every load.
func NewColorCache(dir string) (*ColorCache, error) {
	cache := &ColorCache{
		Path:     filepath.Join(dir, cacheFile),
		Projects: make(map[string]*ProjectState),
	}
	if err := cache.Load(); err != nil {
		return nil, err
	}
	for _, state := range cache.Projects {
		state.ActiveTasks = 0
	}
	return cache, nil
}

// Load reads the cache file. A missing file leaves the cache empty.
func (c *ColorCache) Load() error {
	data, err := os.ReadFile(c.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, &c.Projects); err != nil {
		return fmt.Errorf("decode %s: %w", c.Path, err)
	}
	return nil
}

// Save writes the cache if a color was claimed or touched since the last save.
func (c *ColorCache) Save() error {
	if !c.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.Path), 0700); err != nil {
		log.Printf("Error creating color cache directory: %v", err)
		return err
	}
	data, err := json.MarshalIndent(c.Projects, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.Path, data, 0600); err != nil {
		log.Printf("Error writing color cache file: %v", err)
		return err
	}
	c.dirty = false
	return nil
}

// GetColorID returns the color for a project tag and marks it recently used.
// active is true when the task asking for the color is still to do.
func (c *ColorCache) GetColorID(project string, active bool) string {
	if project == "" {
		return NoProjectColor
	}
	state, ok := c.Projects[project]
	if !ok {
		state = &ProjectState{ColorID: c.freeColor()}
		c.Projects[project] = state
	}
	state.LastModified = now()
	if active {
		state.ActiveTasks++
	}
	c.dirty = true
	return state.ColorID
}

// freeColor returns an unused palette color, evicting a project when all are taken.
func (c *ColorCache) freeColor() string {
	used := make(map[string]bool, len(c.Projects))
	for _, s := range c.Projects {
		used[s.ColorID] = true
	}
	for i := 1; i <= paletteSize; i++ {
		if id := strconv.Itoa(i); !used[id] {
			return id
		}
	}

	victim := ""
	for p, s := range c.Projects {
		if victim == "" || evictBefore(s, c.Projects[victim]) {
			victim = p
		}
	}
	if victim == "" {
		return "1"
	}
	id := c.Projects[victim].ColorID
	delete(c.Projects, victim)
	return id
}

// evictBefore reports whether a should lose its color before b.
func evictBefore(a, b *ProjectState) bool {
	if (a.ActiveTasks == 0) != (b.ActiveTasks == 0) {
		return a.ActiveTasks == 0
	}
	return a.LastModified.Before(b.LastModified)
}
