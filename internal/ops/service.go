// Package ops composes a calendar provider, the availability engine and
// the untrusted-content formatter into the uniform operations the tool
// layer exposes. Every failure crossing this boundary is a
// *calendar.Error; callers dispatch on calendar.KindOf.
package ops

import (
	"context"
	"log/slog"
	"time"

	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/calendar"
	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/logging"
)

// Service implements the six calendar operations on top of whichever
// backend was configured at startup.
type Service struct {
	provider calendar.Provider
	logger   *slog.Logger
}

// NewService wraps a provider.
func NewService(provider calendar.Provider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		provider: provider,
		logger:   logging.WithBackend(logger, provider.Backend()),
	}
}

// Backend names the configured protocol backend.
func (s *Service) Backend() string { return s.provider.Backend() }

// ListCalendars returns the calendars visible to the account.
func (s *Service) ListCalendars(ctx context.Context) ([]calendar.CalendarRef, error) {
	refs, err := s.provider.ListCalendars(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("calendars listed", "count", len(refs))
	return refs, nil
}

// GetEvents returns events overlapping [after, before), with remote text
// fields tagged as untrusted. An empty calendarID queries all calendars.
func (s *Service) GetEvents(ctx context.Context, calendarID string, after, before time.Time) ([]calendar.Event, error) {
	const op = "ops.get_events"
	if !before.After(after) {
		return nil, calendar.Errorf(calendar.ValidationError, op,
			"window end %s must be after start %s",
			before.Format(time.RFC3339), after.Format(time.RFC3339))
	}
	events, err := s.provider.QueryEvents(ctx, calendarID, after, before)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("events queried", "count", len(events))
	return calendar.TagEvents(events), nil
}

// CreateResult is the confirmation shape of a successful create.
type CreateResult struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Start    string `json:"start"`
	TimeZone string `json:"timeZone"`
}

// CreateEvent validates the draft locally, then writes it through the
// backend. Validation failures never reach the network.
func (s *Service) CreateEvent(ctx context.Context, draft calendar.Draft) (*CreateResult, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	event, err := s.provider.CreateEvent(ctx, draft)
	if err != nil {
		return nil, err
	}
	s.logger.Info("event created", logging.Operation("create_event"), "event_id", event.ID)
	return &CreateResult{
		ID:       event.ID,
		Title:    event.Title,
		Start:    event.Start,
		TimeZone: event.TimeZone,
	}, nil
}

// UpdateResult reports which fields an update touched.
type UpdateResult struct {
	ID            string   `json:"id"`
	UpdatedFields []string `json:"updatedFields"`
}

// UpdateEvent applies a partial patch. An empty patch is a no-op read,
// reported with an empty field list and no network write.
func (s *Service) UpdateEvent(ctx context.Context, eventID string, patch calendar.Patch) (*UpdateResult, error) {
	event, err := s.provider.UpdateEvent(ctx, eventID, patch)
	if err != nil {
		return nil, err
	}
	fields := patch.Fields()
	s.logger.Info("event updated", logging.Operation("update_event"),
		"event_id", event.ID, "fields", fields)
	return &UpdateResult{ID: event.ID, UpdatedFields: fields}, nil
}

// DeleteResult confirms a deletion.
type DeleteResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// DeleteEvent removes an event.
func (s *Service) DeleteEvent(ctx context.Context, eventID string) (*DeleteResult, error) {
	if err := s.provider.DeleteEvent(ctx, eventID); err != nil {
		return nil, err
	}
	s.logger.Info("event deleted", logging.Operation("delete_event"), "event_id", eventID)
	return &DeleteResult{ID: eventID, Deleted: true}, nil
}

// FindFreeSlots queries the window and returns the free gaps of at least
// minDuration, rendered in displayZone (UTC when empty).
func (s *Service) FindFreeSlots(ctx context.Context, calendarID string, after, before time.Time, minDuration time.Duration, displayZone string) ([]calendar.FreeSlot, error) {
	const op = "ops.find_free_slots"
	if !before.After(after) {
		return nil, calendar.Errorf(calendar.ValidationError, op,
			"window end %s must be after start %s",
			before.Format(time.RFC3339), after.Format(time.RFC3339))
	}
	if minDuration <= 0 {
		return nil, calendar.Errorf(calendar.ValidationError, op, "minimum duration must be positive")
	}
	events, err := s.provider.QueryEvents(ctx, calendarID, after, before)
	if err != nil {
		return nil, err
	}
	slots, err := calendar.FindFreeSlots(events, after, before, minDuration, displayZone)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("free slots computed", "busy_events", len(events), "slots", len(slots))
	return slots, nil
}
