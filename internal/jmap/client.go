package jmap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/calendar"
	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/logging"
)

// DefaultSessionURL is Fastmail's well-known JMAP session resource.
const DefaultSessionURL = "https://api.fastmail.com/jmap/session"

// Options configures a Client.
type Options struct {
	// SessionURL is the JMAP session resource; DefaultSessionURL if empty.
	SessionURL string
	// Token is the API bearer token.
	Token string
	// HTTPClient overrides the transport; http.DefaultClient if nil.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is the JSON-protocol backend. The session (API endpoint and
// account identity) is resolved on first use and cached for the process
// lifetime; session data is assumed stable, so there is no TTL.
type Client struct {
	httpClient *http.Client
	sessionURL string
	token      string
	logger     *slog.Logger

	mu        sync.Mutex
	session   *Session
	accountID string
}

var _ calendar.Provider = (*Client)(nil)

// NewClient creates a JMAP client. No network traffic happens until the
// first operation.
func NewClient(opts Options) (*Client, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("jmap: API token is required")
	}
	if opts.SessionURL == "" {
		opts.SessionURL = DefaultSessionURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		httpClient: opts.HTTPClient,
		sessionURL: opts.SessionURL,
		token:      opts.Token,
		logger:     logging.WithBackend(opts.Logger, "jmap"),
	}, nil
}

// Backend implements calendar.Provider.
func (c *Client) Backend() string { return "jmap" }

// ensureSession bootstraps the session resource once and returns the API
// endpoint plus the calendar account id.
func (c *Client) ensureSession(ctx context.Context) (*Session, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return c.session, c.accountID, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.sessionURL, nil)
	if err != nil {
		return nil, "", calendar.WrapError(calendar.TransportFailure, "jmap.session", "building session request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", calendar.WrapError(calendar.TransportFailure, "jmap.session", "fetching session resource", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", calendar.Errorf(calendar.TransportFailure, "jmap.session",
			"session resource returned %s", resp.Status)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, "", calendar.WrapError(calendar.ProtocolFault, "jmap.session", "decoding session resource", err)
	}
	accountID := session.PrimaryAccounts[capCalendars]
	if session.APIURL == "" || accountID == "" {
		return nil, "", calendar.Errorf(calendar.ProtocolFault, "jmap.session",
			"session resource has no calendar account")
	}

	c.session = &session
	c.accountID = accountID
	c.logger.Debug("jmap session established", "api_url", session.APIURL)
	return c.session, c.accountID, nil
}

// call posts a batch of invocations as a single request/response exchange.
func (c *Client) call(ctx context.Context, op string, calls ...Invocation) (*Response, error) {
	session, _, err := c.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(Request{
		Using:       []string{capCore, capCalendars},
		MethodCalls: calls,
	})
	if err != nil {
		return nil, calendar.WrapError(calendar.ProtocolFault, op, "encoding request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, session.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, calendar.WrapError(calendar.TransportFailure, op, "building request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, calendar.WrapError(calendar.TransportFailure, op, "api request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, calendar.Errorf(calendar.TransportFailure, op,
			"api returned %s: %s", resp.Status, bytes.TrimSpace(snippet))
	}

	var response Response
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, calendar.WrapError(calendar.ProtocolFault, op, "decoding response", err)
	}
	return &response, nil
}

// methodArgs finds the response for a call id and decodes its arguments,
// converting the method-level "error" channel into a ProtocolFault.
func methodArgs(resp *Response, op, callID string, out any) error {
	for _, inv := range resp.MethodResponses {
		if inv.CallID != callID {
			continue
		}
		if inv.Name == "error" {
			var methodErr MethodError
			if err := json.Unmarshal(inv.Args, &methodErr); err != nil {
				return calendar.Errorf(calendar.ProtocolFault, op, "server rejected the method call")
			}
			return calendar.Errorf(calendar.ProtocolFault, op,
				"server rejected the method call: %s: %s", methodErr.Type, methodErr.Description)
		}
		if err := json.Unmarshal(inv.Args, out); err != nil {
			return calendar.WrapError(calendar.ProtocolFault, op, "decoding method response", err)
		}
		return nil
	}
	return calendar.Errorf(calendar.ProtocolFault, op, "response is missing call id %q", callID)
}
