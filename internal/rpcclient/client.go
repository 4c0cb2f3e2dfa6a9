package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rpggio/climbr/internal/domain/session"
	"github.com/rpggio/climbr/internal/rpc"
	"github.com/rpggio/climbr/internal/transport"
)

const (
	// DefaultMaxRetries bounds retries of idempotent reads.
	DefaultMaxRetries = 3
	// DefaultRetryInitialInterval is the first backoff interval.
	DefaultRetryInitialInterval = 200 * time.Millisecond
	// RetryMaxInterval caps a single backoff interval.
	RetryMaxInterval = 5 * time.Second
	// DefaultTimeout applies when no HTTP client is supplied.
	DefaultTimeout = 30 * time.Second
)

// ErrTransport wraps failures below the JSON-RPC layer.
var ErrTransport = errors.New("transport failure")

// Config configures a Client.
type Config struct {
	// Endpoint is the server base URL; requests go to Endpoint + "/rpc".
	Endpoint   string
	Token      string
	HTTPClient *http.Client
	// MaxRetries applies to reads only. Negative disables retries.
	MaxRetries      int
	InitialInterval time.Duration
	Logger          *slog.Logger
}

// Client calls the session JSON-RPC service over HTTP.
type Client struct {
	url             string
	token           string
	http            *http.Client
	maxRetries      int
	initialInterval time.Duration
	logger          *slog.Logger
	nextID          atomic.Int64
}

// New creates a Client.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	interval := cfg.InitialInterval
	if interval <= 0 {
		interval = DefaultRetryInitialInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		url:             strings.TrimRight(cfg.Endpoint, "/") + "/rpc",
		token:           cfg.Token,
		http:            httpClient,
		maxRetries:      maxRetries,
		initialInterval: interval,
		logger:          logger,
	}
}

// CreateSession submits a never-persisted session. Not retried.
func (c *Client) CreateSession(ctx context.Context, sess session.Session) (*session.SaveResult, error) {
	isIndoor := sess.IsIndoor
	var result rpc.SaveResult
	err := c.call(ctx, rpc.MethodCreateSession, rpc.CreateSessionParams{
		UID:      sess.OwnerID,
		Title:    sess.Title,
		Location: sess.Location,
		IsIndoor: &isIndoor,
		GymName:  sess.GymName,
		Routes:   sess.Routes,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &session.SaveResult{SessionID: result.SessionID, RouteIDs: result.RouteIDs}, nil
}

// PutSession fully replaces a persisted session's routes. Not retried.
func (c *Client) PutSession(ctx context.Context, req session.PutRequest) (*session.SaveResult, error) {
	var result rpc.SaveResult
	err := c.call(ctx, rpc.MethodPutSession, rpc.PutSessionParams{
		SessionID: req.SessionID,
		Title:     req.Title,
		GymName:   req.GymName,
		Routes:    req.Routes,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &session.SaveResult{SessionID: result.SessionID, RouteIDs: result.RouteIDs}, nil
}

// UpdateRouteMedia sets one route's media URL. Not retried.
func (c *Client) UpdateRouteMedia(ctx context.Context, sessionID, routeID, mediaURL string) error {
	var result rpc.SuccessResult
	return c.call(ctx, rpc.MethodUpdateRouteMedia, rpc.UpdateRouteMediaParams{
		SessionID: sessionID,
		RouteID:   routeID,
		MediaURL:  mediaURL,
	}, &result)
}

// GetSessionByID fetches one full session.
func (c *Client) GetSessionByID(ctx context.Context, sessionID string) (*session.Session, error) {
	var result rpc.GetSessionResult
	if err := c.read(ctx, rpc.MethodGetSessionByID, rpc.SessionIDParams{SessionID: sessionID}, &result); err != nil {
		return nil, err
	}
	sess := result.Session()
	return &sess, nil
}

// GetSessionsByUID lists a user's session ids.
func (c *Client) GetSessionsByUID(ctx context.Context, uid string) ([]string, error) {
	var result rpc.SessionIDsResult
	if err := c.read(ctx, rpc.MethodGetSessionsByUID, rpc.UIDParams{UID: uid}, &result); err != nil {
		return nil, err
	}
	if result.SessionIDs == nil {
		return []string{}, nil
	}
	return result.SessionIDs, nil
}

// GetUserSessions lists a user's session summaries.
func (c *Client) GetUserSessions(ctx context.Context, uid string) ([]session.Summary, error) {
	var result rpc.UserSessionsResult
	if err := c.read(ctx, rpc.MethodGetUserSessions, rpc.UIDParams{UID: uid}, &result); err != nil {
		return nil, err
	}
	return result.Sessions, nil
}

// GetActiveSessions lists a user's sessions from the last day.
func (c *Client) GetActiveSessions(ctx context.Context, uid string) ([]session.Session, error) {
	var result rpc.ActiveSessionsResult
	if err := c.read(ctx, rpc.MethodGetActiveSessions, rpc.UIDParams{UID: uid}, &result); err != nil {
		return nil, err
	}
	return result.ActiveSessions, nil
}

func (c *Client) newRetryBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval
	b.MaxInterval = RetryMaxInterval
	b.RandomizationFactor = 0.5
	b.Multiplier = 2.0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries)), ctx)
}

// read performs an idempotent call, retrying transport failures.
func (c *Client) read(ctx context.Context, method string, params, out any) error {
	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		err := c.call(ctx, method, params, out)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrTransport) {
			return backoff.Permanent(err)
		}
		return err
	}, c.newRetryBackoff(ctx), func(err error, wait time.Duration) {
		c.logger.Warn("retrying rpc read", "method", method, "attempt", attempt, "wait", wait, "error", err)
	})
}

type response struct {
	JSONRPC string           `json:"jsonrpc"`
	Result  json.RawMessage  `json:"result"`
	Error   *transport.Error `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params, out any) error {
	rawParams, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encoding %s params: %w", method, err)
	}
	payload, err := json.Marshal(transport.Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  rawParams,
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrTransport, method, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", method, session.ErrUnauthenticated)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s: http status %d", ErrTransport, method, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: http status %d: %s", method, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("%s: %w: %v", method, session.ErrMalformedResponse, err)
	}
	if decoded.Error != nil {
		return decodeError(method, decoded.Error)
	}
	if out == nil || len(decoded.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(decoded.Result, out); err != nil {
		return fmt.Errorf("%s: %w: %v", method, session.ErrMalformedResponse, err)
	}
	return nil
}

func decodeError(method string, rpcErr *transport.Error) error {
	if sentinel := rpc.DomainError(rpcErr.Data); sentinel != nil {
		return fmt.Errorf("%s: %w: %s", method, sentinel, rpcErr.Message)
	}
	return fmt.Errorf("%s: rpc error %d: %s", method, rpcErr.Code, rpcErr.Message)
}
