package google

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/harrisonrobin/todocal/pkg/colors"
	"github.com/harrisonrobin/todocal/pkg/index"
	"github.com/harrisonrobin/todocal/pkg/todotxt"
	"github.com/harrisonrobin/todocal/pkg/util"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
)

// CalendarClient is a Google Calendar API client.
type CalendarClient struct {
	srv        *calendar.Service
	calendarID string
	index      *index.EventIndex
	colors     *colors.ColorCache
}

// NewCalendarClient creates a new Google Calendar client. idx and cache may be nil.
func NewCalendarClient(srv *calendar.Service, calendarID string, idx *index.EventIndex, cache *colors.ColorCache) *CalendarClient {
	return &CalendarClient{srv: srv, calendarID: calendarID, index: idx, colors: cache}
}

// SyncEvent creates the all-day event for a due-dated task or updates the existing one.
func (c *CalendarClient) SyncEvent(task *todotxt.Task, now time.Time) (*calendar.Event, error) {
	event, err := util.ConvertTaskToCalendarEvent(task, c.colors, now)
	if err != nil {
		return nil, err
	}
	key := util.TaskKey(task)

	var existingEvent *calendar.Event
	// 1. Try local index first
	if c.index != nil {
		if eventID := c.index.Get(key); eventID != "" {
			existingEvent, err = c.srv.Events.Get(c.calendarID, eventID).Do()
			if err != nil || existingEvent.Status == "cancelled" {
				existingEvent = nil
			}
		}
	}

	// 2. Fall back to searching by extended property
	if existingEvent == nil {
		existingEvent, err = c.GetEventByTaskKey(key)
		if err != nil {
			return nil, fmt.Errorf("error searching for event: %w", err)
		}
	}

	if existingEvent != nil {
		patch, err := util.EventNeedsUpdate(existingEvent, event)
		if err != nil {
			log.Printf("could not compare task with its calendar event: %v", err)
			return nil, err
		}
		if patch != nil {
			updatedEvent, err := c.PatchEvent(existingEvent.Id, patch)
			if err == nil && c.index != nil {
				c.index.Set(key, updatedEvent.Id)
			}
			return updatedEvent, err
		}
		if c.index != nil {
			c.index.Set(key, existingEvent.Id)
		}
		return existingEvent, nil
	}

	createdEvent, err := c.srv.Events.Insert(c.calendarID, event).Do()
	if err == nil && c.index != nil {
		c.index.Set(key, createdEvent.Id)
	}
	return createdEvent, err
}

// PatchEvent performs a partial update on an event.
func (c *CalendarClient) PatchEvent(eventID string, patch *calendar.Event) (*calendar.Event, error) {
	return c.srv.Events.Patch(c.calendarID, eventID, patch).Do()
}

// DeleteEvent deletes an event from the calendar.
func (c *CalendarClient) DeleteEvent(eventID string) error {
	return c.srv.Events.Delete(c.calendarID, eventID).Do()
}

// ListEvents fetches events from the calendar starting at timeMin. A zero
// timeMin lists every event.
func (c *CalendarClient) ListEvents(timeMin time.Time) ([]*calendar.Event, error) {
	var items []*calendar.Event
	call := c.srv.Events.List(c.calendarID).SingleEvents(true)
	if !timeMin.IsZero() {
		call = call.TimeMin(timeMin.Format(time.RFC3339))
	}
	pageToken := ""
	for {
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		events, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve events from calendar: %w", err)
		}
		items = append(items, events.Items...)
		if events.NextPageToken == "" {
			return items, nil
		}
		pageToken = events.NextPageToken
	}
}

// GetEventByTaskKey searches for an event carrying the given task key in its extended properties.
func (c *CalendarClient) GetEventByTaskKey(key string) (*calendar.Event, error) {
	events, err := c.srv.Events.List(c.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", util.KeyProperty, key)).
		Do()
	if err != nil {
		return nil, err
	}
	if len(events.Items) > 0 {
		return events.Items[0], nil
	}
	return nil, nil
}

// Prune deletes the events of tasks whose key is not in keep and returns how
// many went. Indexed events go first, then listed events carrying a task key
// the index does not know. Events already deleted on the calendar side count
// as removed. Failures are collected and do not stop the pass.
func (c *CalendarClient) Prune(keep map[string]bool) (int, error) {
	removed := 0
	var errs []error
	indexed := make(map[string]bool)

	if c.index != nil {
		for _, key := range c.index.Keys() {
			eventID := c.index.Get(key)
			indexed[eventID] = true
			if keep[key] {
				continue
			}
			if err := c.DeleteEvent(eventID); err != nil && !isGone(err) {
				errs = append(errs, fmt.Errorf("delete event for %s: %w", key, err))
				continue
			}
			c.index.Remove(key)
			removed++
		}
	}

	events, err := c.ListEvents(time.Time{})
	if err != nil {
		return removed, errors.Join(append(errs, err)...)
	}
	for _, event := range events {
		key, ok := util.EventTaskKey(event)
		if !ok || keep[key] || indexed[event.Id] {
			continue
		}
		if err := c.DeleteEvent(event.Id); err != nil && !isGone(err) {
			errs = append(errs, fmt.Errorf("delete unindexed event %s: %w", event.Id, err))
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// isGone reports whether err is the API telling that the event no longer exists.
func isGone(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone)
}
