package caldav

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/emersion/go-webdav"
	"github.com/google/uuid"
	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/calendar"
	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/ics"
)

// CreateEvent implements calendar.Provider. The object is written under a
// fresh UUID name with If-None-Match so a colliding name can never be
// silently overwritten.
func (c *Client) CreateEvent(ctx context.Context, draft calendar.Draft) (*calendar.Event, error) {
	const op = "caldav.create_event"
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	if draft.CalendarID == "" {
		return nil, calendar.Errorf(calendar.ValidationError, op, "calendar id is required")
	}

	obj := &ics.Object{
		UID:         uuid.New().String(),
		Summary:     draft.Title,
		Description: draft.Description,
		Location:    draft.Location,
		Status:      calendar.StatusConfirmed,
		FreeBusy:    calendar.FreeBusyBusy,
		Start:       draft.Start.UTC(),
		End:         draft.End.UTC(),
		HasEnd:      true,
	}
	objectPath := strings.TrimSuffix(draft.CalendarID, "/") + "/" + obj.UID + ".ics"

	if _, err := c.putObject(ctx, op, objectPath, obj, writeConditions{ifNoneMatch: true}); err != nil {
		return nil, err
	}
	c.invalidateCalendars()

	event := toEvent(obj, objectPath, draft.CalendarID)
	return &event, nil
}

// UpdateEvent implements calendar.Provider. The current object is
// re-fetched for its ETag and content; the patched object is written back
// conditionally, so a concurrent edit fails instead of being clobbered.
func (c *Client) UpdateEvent(ctx context.Context, eventID string, patch calendar.Patch) (*calendar.Event, error) {
	const op = "caldav.update_event"
	if eventID == "" {
		return nil, calendar.Errorf(calendar.ValidationError, op, "event id is required")
	}

	obj, etag, err := c.fetchObject(ctx, op, eventID)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		event := toEvent(obj, eventID, calendarFor(eventID))
		return &event, nil
	}

	if err := applyPatch(obj, patch); err != nil {
		return nil, err
	}
	if _, err := c.putObject(ctx, op, eventID, obj, writeConditions{ifMatch: etag}); err != nil {
		return nil, err
	}
	c.invalidateCalendars()

	event := toEvent(obj, eventID, calendarFor(eventID))
	return &event, nil
}

// DeleteEvent implements calendar.Provider.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	const op = "caldav.delete_event"
	if eventID == "" {
		return calendar.Errorf(calendar.ValidationError, op, "event id is required")
	}

	_, etag, err := c.fetchObject(ctx, op, eventID)
	if err != nil {
		return err
	}
	if err := c.deleteObject(ctx, op, eventID, etag); err != nil {
		return err
	}
	c.invalidateCalendars()
	return nil
}

// fetchObject retrieves one calendar object plus its current ETag.
func (c *Client) fetchObject(ctx context.Context, op, eventPath string) (*ics.Object, string, error) {
	object, err := c.dav.GetCalendarObject(ctx, eventPath)
	if err != nil {
		if webdav.IsNotFound(err) {
			return nil, "", calendar.Errorf(calendar.ObjectRejected, op, "event %s not found", eventPath)
		}
		return nil, "", calendar.WrapError(calendar.TransportFailure, op, "fetching calendar object", err)
	}
	obj, err := ics.FromCalendar(object.Data)
	if err != nil {
		return nil, "", err
	}
	return obj, object.ETag, nil
}

// applyPatch folds a partial update into a decoded object. A start-only
// patch preserves the event's length; the end shifts with it.
func applyPatch(obj *ics.Object, patch calendar.Patch) error {
	const op = "caldav.update_event"
	if patch.Title != nil {
		obj.Summary = *patch.Title
	}
	if patch.Description != nil {
		obj.Description = *patch.Description
	}
	if patch.Location != nil {
		obj.Location = *patch.Location
	}

	length := obj.End.Sub(obj.Start)
	start := obj.Start
	if patch.Start != nil {
		start = patch.Start.UTC()
	}
	end := start.Add(length)
	if patch.End != nil {
		end = patch.End.UTC()
	}
	if patch.Start != nil || patch.End != nil {
		if !end.After(start) {
			return calendar.Errorf(calendar.ValidationError, op,
				"event end %s must be after start %s",
				end.Format(time.RFC3339), start.Format(time.RFC3339))
		}
		obj.Start = start
		obj.End = end
		obj.HasEnd = true
		obj.AllDay = false
	}
	return nil
}

// writeConditions selects the precondition header for a PUT.
type writeConditions struct {
	// ifMatch guards an update against concurrent edits. Empty means the
	// server reported no ETag; the write degrades to unconditional.
	ifMatch string
	// ifNoneMatch asserts the target must not exist yet.
	ifNoneMatch bool
}

// putObject writes the object with the requested precondition. The webdav
// client cannot attach conditional headers, so this talks HTTP directly.
func (c *Client) putObject(ctx context.Context, op, objectPath string, obj *ics.Object, cond writeConditions) (string, error) {
	var body bytes.Buffer
	if err := obj.Encode(&body); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.absURL(objectPath), &body)
	if err != nil {
		return "", calendar.WrapError(calendar.TransportFailure, op, "building request", err)
	}
	req.Header.Set("Content-Type", "text/calendar; charset=utf-8")
	switch {
	case cond.ifNoneMatch:
		req.Header.Set("If-None-Match", "*")
	case cond.ifMatch != "":
		req.Header.Set("If-Match", cond.ifMatch)
	default:
		c.logger.Warn("no etag available, writing unconditionally", "path", objectPath)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", calendar.WrapError(calendar.TransportFailure, op, "put failed", err)
	}
	defer resp.Body.Close()
	if err := checkWriteStatus(resp, op, objectPath); err != nil {
		return "", err
	}
	return resp.Header.Get("ETag"), nil
}

// deleteObject removes the object, guarded by If-Match when an ETag is
// known.
func (c *Client) deleteObject(ctx context.Context, op, objectPath, etag string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.absURL(objectPath), nil)
	if err != nil {
		return calendar.WrapError(calendar.TransportFailure, op, "building request", err)
	}
	if etag != "" {
		req.Header.Set("If-Match", etag)
	} else {
		c.logger.Warn("no etag available, deleting unconditionally", "path", objectPath)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return calendar.WrapError(calendar.TransportFailure, op, "delete failed", err)
	}
	defer resp.Body.Close()
	return checkWriteStatus(resp, op, objectPath)
}

// checkWriteStatus classifies a write response: 412 is a concurrency
// conflict, other non-2xx statuses are transport failures.
func checkWriteStatus(resp *http.Response, op, objectPath string) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusPreconditionFailed:
		return calendar.Errorf(calendar.ConcurrencyConflict, op,
			"object %s changed on the server since it was read", objectPath)
	case resp.StatusCode == http.StatusNotFound:
		return calendar.Errorf(calendar.ObjectRejected, op, "event %s not found", objectPath)
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return calendar.Errorf(calendar.TransportFailure, op,
			"server returned %s: %s", resp.Status, bytes.TrimSpace(snippet))
	}
}

// absURL resolves a server path against the endpoint.
func (c *Client) absURL(p string) string {
	ref := &url.URL{Path: p}
	return c.endpoint.ResolveReference(ref).String()
}
