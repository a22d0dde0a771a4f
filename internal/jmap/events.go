package jmap

import (
	"context"
	"sort"
	"time"

	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/calendar"
	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/timeutil"
)

// defaultZone is used when the server omits an event's zone; Fastmail uses
// the Etc/UTC spelling.
const defaultZone = "Etc/UTC"

// utcWire is the UTCDate layout used by CalendarEvent/query filters.
const utcWire = "2006-01-02T15:04:05Z"

// ListCalendars implements calendar.Provider.
func (c *Client) ListCalendars(ctx context.Context) ([]calendar.CalendarRef, error) {
	const op = "jmap.list_calendars"
	_, accountID, err := c.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.call(ctx, op, Invocation{
		Name:   "Calendar/get",
		Args:   map[string]any{"accountId": accountID, "ids": nil},
		CallID: "0",
	})
	if err != nil {
		return nil, err
	}

	var got calendarGetResponse
	if err := methodArgs(resp, op, "0", &got); err != nil {
		return nil, err
	}

	refs := make([]calendar.CalendarRef, 0, len(got.List))
	for _, cal := range got.List {
		refs = append(refs, calendar.CalendarRef{
			ID:       cal.ID,
			Name:     cal.Name,
			Writable: cal.MyRights.Writable(),
		})
	}
	return refs, nil
}

// QueryEvents implements calendar.Provider. The query and get are chained
// in one exchange via a result reference.
func (c *Client) QueryEvents(ctx context.Context, calendarID string, after, before time.Time) ([]calendar.Event, error) {
	const op = "jmap.query_events"
	_, accountID, err := c.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	filter := map[string]any{
		"after":  after.UTC().Format(utcWire),
		"before": before.UTC().Format(utcWire),
	}
	if calendarID != "" {
		filter["inCalendars"] = []string{calendarID}
	}

	resp, err := c.call(ctx, op,
		Invocation{
			Name:   "CalendarEvent/query",
			Args:   map[string]any{"accountId": accountID, "filter": filter},
			CallID: "0",
		},
		Invocation{
			Name: "CalendarEvent/get",
			Args: map[string]any{
				"accountId": accountID,
				"#ids": ResultReference{
					ResultOf: "0",
					Name:     "CalendarEvent/query",
					Path:     "/ids",
				},
			},
			CallID: "1",
		},
	)
	if err != nil {
		return nil, err
	}

	var queried queryResponse
	if err := methodArgs(resp, op, "0", &queried); err != nil {
		return nil, err
	}
	var got eventGetResponse
	if err := methodArgs(resp, op, "1", &got); err != nil {
		return nil, err
	}

	events := make([]calendar.Event, 0, len(got.List))
	for _, wire := range got.List {
		event, err := toEvent(wire)
		if err != nil {
			// Unparsable objects are skipped so partial results still
			// return.
			c.logger.Warn("skipping unparsable event", "event_id", wire.ID, "error", err)
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// CreateEvent implements calendar.Provider.
func (c *Client) CreateEvent(ctx context.Context, draft calendar.Draft) (*calendar.Event, error) {
	const op = "jmap.create_event"
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	if draft.CalendarID == "" {
		return nil, calendar.Errorf(calendar.ValidationError, op, "calendar id is required")
	}
	_, accountID, err := c.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	wire, err := fromDraft(draft)
	if err != nil {
		return nil, err
	}

	const clientID = "draft-1"
	resp, err := c.call(ctx, op, Invocation{
		Name: "CalendarEvent/set",
		Args: map[string]any{
			"accountId": accountID,
			"create":    map[string]Event{clientID: wire},
		},
		CallID: "0",
	})
	if err != nil {
		return nil, err
	}

	var set setResponse
	if err := methodArgs(resp, op, "0", &set); err != nil {
		return nil, err
	}
	if setErr, ok := set.NotCreated[clientID]; ok {
		return nil, calendar.Errorf(calendar.ObjectRejected, op, "create rejected: %s", setErr)
	}
	created, ok := set.Created[clientID]
	if !ok {
		return nil, calendar.Errorf(calendar.ProtocolFault, op, "set response contains neither created nor notCreated")
	}

	// The server echoes only server-set fields; merge them into the
	// submitted record.
	wire.ID = created.ID
	if created.UID != "" {
		wire.UID = created.UID
	}
	event, err := toEvent(wire)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// UpdateEvent implements calendar.Provider. A no-op patch returns the
// unchanged event without issuing a write.
func (c *Client) UpdateEvent(ctx context.Context, eventID string, patch calendar.Patch) (*calendar.Event, error) {
	const op = "jmap.update_event"
	if eventID == "" {
		return nil, calendar.Errorf(calendar.ValidationError, op, "event id is required")
	}
	_, accountID, err := c.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := c.getWireEvent(ctx, op, accountID, eventID)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		event, err := toEvent(*existing)
		if err != nil {
			return nil, err
		}
		return &event, nil
	}

	updates, err := patchArguments(*existing, patch)
	if err != nil {
		return nil, err
	}

	resp, err := c.call(ctx, op, Invocation{
		Name: "CalendarEvent/set",
		Args: map[string]any{
			"accountId": accountID,
			"update":    map[string]map[string]any{eventID: updates},
		},
		CallID: "0",
	})
	if err != nil {
		return nil, err
	}

	var set setResponse
	if err := methodArgs(resp, op, "0", &set); err != nil {
		return nil, err
	}
	if setErr, ok := set.NotUpdated[eventID]; ok {
		return nil, calendar.Errorf(calendar.ObjectRejected, op, "update of %s rejected: %s", eventID, setErr)
	}
	if _, ok := set.Updated[eventID]; !ok {
		return nil, calendar.Errorf(calendar.ProtocolFault, op, "set response contains neither updated nor notUpdated")
	}

	applyWirePatch(existing, updates)
	event, err := toEvent(*existing)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// DeleteEvent implements calendar.Provider.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	const op = "jmap.delete_event"
	if eventID == "" {
		return calendar.Errorf(calendar.ValidationError, op, "event id is required")
	}
	_, accountID, err := c.ensureSession(ctx)
	if err != nil {
		return err
	}

	resp, err := c.call(ctx, op, Invocation{
		Name: "CalendarEvent/set",
		Args: map[string]any{
			"accountId": accountID,
			"destroy":   []string{eventID},
		},
		CallID: "0",
	})
	if err != nil {
		return err
	}

	var set setResponse
	if err := methodArgs(resp, op, "0", &set); err != nil {
		return err
	}
	if setErr, ok := set.NotDestroyed[eventID]; ok {
		return calendar.Errorf(calendar.ObjectRejected, op, "delete of %s rejected: %s", eventID, setErr)
	}
	for _, id := range set.Destroyed {
		if id == eventID {
			return nil
		}
	}
	return calendar.Errorf(calendar.ProtocolFault, op, "set response contains neither destroyed nor notDestroyed")
}

// getWireEvent fetches one event in its wire shape.
func (c *Client) getWireEvent(ctx context.Context, op, accountID, eventID string) (*Event, error) {
	resp, err := c.call(ctx, op, Invocation{
		Name:   "CalendarEvent/get",
		Args:   map[string]any{"accountId": accountID, "ids": []string{eventID}},
		CallID: "0",
	})
	if err != nil {
		return nil, err
	}
	var got eventGetResponse
	if err := methodArgs(resp, op, "0", &got); err != nil {
		return nil, err
	}
	if len(got.List) == 0 {
		return nil, calendar.Errorf(calendar.ObjectRejected, op, "event %s not found", eventID)
	}
	wire := got.List[0]
	return &wire, nil
}

// patchArguments translates a partial patch into JMAP update arguments.
// Supplying only a new end recomputes the duration from the existing
// start, never from a start that was not part of the patch.
func patchArguments(existing Event, patch calendar.Patch) (map[string]any, error) {
	const op = "jmap.update_event"
	updates := make(map[string]any)

	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Location != nil {
		if *patch.Location == "" {
			updates["locations"] = nil
		} else {
			updates["locations"] = map[string]Location{
				"location-1": {Type: "Location", Name: *patch.Location},
			}
		}
	}

	tz := existing.TimeZone
	if tz == "" {
		tz = defaultZone
	}
	if patch.TimeZone != nil {
		tz = *patch.TimeZone
	}

	existingZone := existing.TimeZone
	if existingZone == "" {
		existingZone = defaultZone
	}
	startInstant, err := timeutil.ToInstant(existing.Start, existingZone)
	if err != nil {
		return nil, calendar.WrapError(calendar.ParseFailure, op, "existing event has an unreadable start", err)
	}
	if patch.Start != nil {
		startInstant = *patch.Start
	}

	if patch.Start != nil || patch.TimeZone != nil {
		local, err := timeutil.ToLocal(startInstant, tz)
		if err != nil {
			return nil, calendar.WrapError(calendar.ValidationError, op, "invalid time zone", err)
		}
		updates["start"] = local
		updates["timeZone"] = tz
	}
	if patch.End != nil {
		d := patch.End.Sub(startInstant)
		if d <= 0 {
			return nil, calendar.Errorf(calendar.ValidationError, op,
				"event end %s must be after start %s",
				patch.End.Format(time.RFC3339), startInstant.Format(time.RFC3339))
		}
		updates["duration"] = timeutil.FormatDuration(d)
	}
	return updates, nil
}

// applyWirePatch mirrors accepted updates onto the local copy so the
// caller sees the post-write state without another fetch.
func applyWirePatch(event *Event, updates map[string]any) {
	for key, value := range updates {
		switch key {
		case "title":
			event.Title = value.(string)
		case "description":
			event.Description = value.(string)
		case "locations":
			if value == nil {
				event.Locations = nil
			} else {
				event.Locations = value.(map[string]Location)
			}
		case "start":
			event.Start = value.(string)
		case "timeZone":
			event.TimeZone = value.(string)
		case "duration":
			event.Duration = value.(string)
		}
	}
}

// toEvent converts a wire event to the agent-facing shape, validating the
// fields availability math depends on.
func toEvent(wire Event) (calendar.Event, error) {
	const op = "jmap.decode_event"
	if wire.Start == "" {
		return calendar.Event{}, calendar.Errorf(calendar.ParseFailure, op, "event %s has no start", wire.ID)
	}
	tz := wire.TimeZone
	if tz == "" {
		tz = defaultZone
	}
	if _, err := timeutil.ToInstant(wire.Start, tz); err != nil {
		return calendar.Event{}, calendar.WrapError(calendar.ParseFailure, op, "unreadable start", err)
	}
	if wire.Duration != "" {
		if _, err := calendar.ParseWireDuration(wire.Duration); err != nil {
			return calendar.Event{}, err
		}
	}

	calendarIDs := make([]string, 0, len(wire.CalendarIDs))
	for id, member := range wire.CalendarIDs {
		if member {
			calendarIDs = append(calendarIDs, id)
		}
	}
	sort.Strings(calendarIDs)

	status := calendar.StatusConfirmed
	switch wire.Status {
	case "tentative":
		status = calendar.StatusTentative
	case "cancelled":
		status = calendar.StatusCancelled
	}
	freeBusy := calendar.FreeBusyBusy
	switch wire.FreeBusyStatus {
	case "free":
		freeBusy = calendar.FreeBusyFree
	case "tentative":
		freeBusy = calendar.FreeBusyTentative
	}

	return calendar.Event{
		ID:          wire.ID,
		Title:       wire.Title,
		Description: wire.Description,
		Location:    firstLocation(wire.Locations),
		Start:       wire.Start,
		TimeZone:    tz,
		Duration:    wire.Duration,
		CalendarIDs: calendarIDs,
		Status:      status,
		FreeBusy:    freeBusy,
		AllDay:      wire.ShowWithoutTime,
	}, nil
}

// firstLocation picks a deterministic location name from the JSCalendar
// locations map.
func firstLocation(locations map[string]Location) string {
	if len(locations) == 0 {
		return ""
	}
	keys := make([]string, 0, len(locations))
	for key := range locations {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return locations[keys[0]].Name
}

// fromDraft builds the JSCalendar record for a create call.
func fromDraft(draft calendar.Draft) (Event, error) {
	const op = "jmap.create_event"
	tz := draft.TimeZone
	if tz == "" {
		tz = defaultZone
	}
	local, err := timeutil.ToLocal(draft.Start, tz)
	if err != nil {
		return Event{}, calendar.WrapError(calendar.ValidationError, op, "invalid time zone", err)
	}
	wire := Event{
		CalendarIDs: map[string]bool{draft.CalendarID: true},
		Title:       draft.Title,
		Description: draft.Description,
		Start:       local,
		TimeZone:    tz,
		Duration:    timeutil.FormatDuration(draft.End.Sub(draft.Start)),
		Status:      "confirmed",
	}
	if draft.Location != "" {
		wire.Locations = map[string]Location{
			"location-1": {Type: "Location", Name: draft.Location},
		}
	}
	return wire, nil
}
