// Package gateway talks to the department API for login, signup and
// admin-managed accounts, and feeds successful logins into a session.Store.
package gateway

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/afiatamanna06/csedu-web-sub001/internal/auth"
	"github.com/afiatamanna06/csedu-web-sub001/internal/events"
	"github.com/afiatamanna06/csedu-web-sub001/internal/observability"
	"github.com/afiatamanna06/csedu-web-sub001/internal/session"
	apperrors "github.com/afiatamanna06/csedu-web-sub001/pkg/util"
)

// DefaultTimeout bounds every call to the department API.
const DefaultTimeout = 15 * time.Second

const maxResponseBytes = 1 << 20

// Client holds the transport shared by every session. It is safe for
// concurrent use.
type Client struct {
	baseURL    string
	http       *http.Client
	timeout    time.Duration
	decoder    *auth.Decoder
	logger     *zap.Logger
	metrics    *observability.Metrics
	dispatcher events.Dispatcher
	logins     singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-call deadline. Zero or negative keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used to record failures.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records per-operation call counts.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithDispatcher publishes auth failures and admin actions.
func WithDispatcher(d events.Dispatcher) Option {
	return func(c *Client) {
		if d != nil {
			c.dispatcher = d
		}
	}
}

// WithClock sets the clock used when decoding returned tokens.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.decoder = auth.NewDecoder(now) }
}

// NewClient builds a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{},
		timeout:    DefaultTimeout,
		decoder:    auth.NewDecoder(nil),
		logger:     zap.NewNop(),
		dispatcher: events.Nop{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// For binds the client to a session store.
func (c *Client) For(store *session.Store) *Gateway {
	return &Gateway{client: c, store: store}
}

// response is a fully read API reply.
type response struct {
	status int
	body   []byte
}

func (r response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) (response, error) {
	return c.do(ctx, path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), "")
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, bearer string) (response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return response{}, fmt.Errorf("encode %s payload: %w", path, err)
	}
	return c.do(ctx, path, "application/json", bytes.NewReader(body), bearer)
}

func (c *Client) do(ctx context.Context, path, contentType string, body io.Reader, bearer string) (response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return response{}, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return response{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return response{}, err
	}
	return response{status: resp.StatusCode, body: data}, nil
}

// errorBody is the API's failure shape. detail is either a string or a list
// of validation problems.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type validationProblem struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// detailMessage renders the detail field of a failed response, or "" when
// there is none.
func detailMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(eb.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var problems []validationProblem
	if err := json.Unmarshal(eb.Detail, &problems); err == nil {
		msgs := make([]string, 0, len(problems))
		for _, p := range problems {
			if p.Msg == "" {
				continue
			}
			if field := fieldName(p.Loc); field != "" {
				msgs = append(msgs, field+": "+p.Msg)
				continue
			}
			msgs = append(msgs, p.Msg)
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

// fieldName returns the last string element of a validation location,
// skipping the leading "body"/"query" marker.
func fieldName(loc []any) string {
	for i := len(loc) - 1; i >= 1; i-- {
		if s, ok := loc[i].(string); ok {
			return s
		}
	}
	return ""
}

// isJSON reports whether body parses as JSON.
func isJSON(body []byte) bool {
	return json.Valid(bytes.TrimSpace(body)) && len(bytes.TrimSpace(body)) > 0
}

// rejection converts a non-2xx reply into the error surfaced to forms.
func rejection(resp response, fallback string) error {
	message := detailMessage(resp.body)
	if message == "" {
		message = fallback
	}
	switch resp.status {
	case http.StatusUnauthorized:
		return apperrors.NewDomainError(apperrors.CodeUnauthorized, message, http.StatusUnauthorized, nil)
	case http.StatusForbidden:
		return apperrors.NewDomainError(apperrors.CodeForbidden, message, http.StatusForbidden, nil)
	}
	return apperrors.NewRequestRejected(message, resp.status)
}

func loginKey(email, password, role string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(email) + "\x00" + role + "\x00" + password))
	return hex.EncodeToString(sum[:])
}
