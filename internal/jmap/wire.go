package jmap

import (
	"encoding/json"
	"fmt"
)

// JMAP capability URNs sent in the "using" array of every request.
const (
	capCore      = "urn:ietf:params:jmap:core"
	capCalendars = "urn:ietf:params:jmap:calendars"
)

// Request is the top-level JMAP request envelope.
type Request struct {
	Using       []string     `json:"using"`
	MethodCalls []Invocation `json:"methodCalls"`
}

// Invocation is one method call, serialized on the wire as the triple
// [name, arguments, call id].
type Invocation struct {
	Name   string
	Args   any
	CallID string
}

func (inv Invocation) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{inv.Name, inv.Args, inv.CallID})
}

// Response is the top-level JMAP response envelope.
type Response struct {
	MethodResponses []ReceivedInvocation `json:"methodResponses"`
	SessionState    string               `json:"sessionState"`
}

// ReceivedInvocation is one method response triple with the arguments left
// raw for the caller to decode.
type ReceivedInvocation struct {
	Name   string
	Args   json.RawMessage
	CallID string
}

func (inv *ReceivedInvocation) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 3 {
		return fmt.Errorf("method response has %d elements, want 3", len(parts))
	}
	if err := json.Unmarshal(parts[0], &inv.Name); err != nil {
		return fmt.Errorf("invalid method response name: %w", err)
	}
	inv.Args = parts[1]
	if err := json.Unmarshal(parts[2], &inv.CallID); err != nil {
		return fmt.Errorf("invalid method response call id: %w", err)
	}
	return nil
}

// MethodError is the argument shape of an "error" method response, the
// batch-level failure channel.
type MethodError struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// SetError is a per-object failure inside a /set response, the
// identity-scoped failure channel.
type SetError struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

func (e SetError) String() string {
	if e.Description == "" {
		return e.Type
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Description)
}

// ResultReference lets one invocation consume the result of an earlier one
// in the same request, used to chain query and get.
type ResultReference struct {
	ResultOf string `json:"resultOf"`
	Name     string `json:"name"`
	Path     string `json:"path"`
}

// Session is the subset of the JMAP session resource this client needs.
type Session struct {
	APIURL          string            `json:"apiUrl"`
	PrimaryAccounts map[string]string `json:"primaryAccounts"`
}

// Calendar is the wire shape of a JMAP calendar.
type Calendar struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	MyRights CalendarRights `json:"myRights"`
}

// CalendarRights is the subset of calendar rights that determines
// write capability.
type CalendarRights struct {
	MayReadItems bool `json:"mayReadItems"`
	MayWriteAll  bool `json:"mayWriteAll"`
	MayWriteOwn  bool `json:"mayWriteOwn"`
}

// Writable reports whether events may be created on the calendar.
func (r CalendarRights) Writable() bool {
	return r.MayWriteAll || r.MayWriteOwn
}

// Event is the JSCalendar wire shape. The start is a local offset-less
// datetime paired with a separate zone name, never a combined offset
// timestamp; the duration is an ISO-8601 string.
type Event struct {
	ID              string              `json:"id,omitempty"`
	UID             string              `json:"uid,omitempty"`
	CalendarIDs     map[string]bool     `json:"calendarIds,omitempty"`
	Title           string              `json:"title,omitempty"`
	Description     string              `json:"description,omitempty"`
	Locations       map[string]Location `json:"locations,omitempty"`
	Start           string              `json:"start,omitempty"`
	TimeZone        string              `json:"timeZone,omitempty"`
	Duration        string              `json:"duration,omitempty"`
	ShowWithoutTime bool                `json:"showWithoutTime,omitempty"`
	Status          string              `json:"status,omitempty"`
	FreeBusyStatus  string              `json:"freeBusyStatus,omitempty"`
}

// Location is a JSCalendar location entry.
type Location struct {
	Type string `json:"@type,omitempty"`
	Name string `json:"name,omitempty"`
}

// setResponse is the shared shape of CalendarEvent/set responses. The
// per-identity failure maps are inspected independently of the method
// level error channel.
type setResponse struct {
	Created      map[string]Event    `json:"created"`
	Updated      map[string]any      `json:"updated"`
	Destroyed    []string            `json:"destroyed"`
	NotCreated   map[string]SetError `json:"notCreated"`
	NotUpdated   map[string]SetError `json:"notUpdated"`
	NotDestroyed map[string]SetError `json:"notDestroyed"`
}

// getResponse is the shape of Calendar/get and CalendarEvent/get
// responses, with the list left raw per element type.
type calendarGetResponse struct {
	List     []Calendar `json:"list"`
	NotFound []string   `json:"notFound"`
}

type eventGetResponse struct {
	List     []Event  `json:"list"`
	NotFound []string `json:"notFound"`
}

type queryResponse struct {
	IDs []string `json:"ids"`
}
