package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/lgess-community/ess-go/pkg/esserr"
	"github.com/lgess-community/ess-go/pkg/log"
	"github.com/lgess-community/ess-go/pkg/metrics"
)

// Token is the opaque auth key issued by the appliance.
type Token string

// errAuthKeyFailed is the cause recorded when the appliance rejects a token.
var errAuthKeyFailed = errors.New("appliance rejected auth key")

// Session is an authenticated connection to one appliance address.
//
// Login and requests are serialized; Token, State and Address may be read
// concurrently with them.
type Session struct {
	address    string
	base       *url.URL
	id         string
	deviceName string

	httpClient *http.Client
	insecure   bool
	timeout    time.Duration
	retry      RetryPolicy
	limiter    *rate.Limiter
	clock      Clock

	logger   *slog.Logger
	protoLog log.Logger
	metrics  *metrics.Session

	// mu serializes Login and requests.
	mu       sync.Mutex
	password string

	// stateMu guards token and state for concurrent readers.
	stateMu sync.RWMutex
	token   Token
	state   State
}

// New creates an unauthenticated session for address (host or host:port).
func New(address string, opts ...Option) (*Session, error) {
	const op = "new session"

	if address == "" {
		return nil, esserr.InvalidArgument(op, errors.New("address is required"))
	}
	base, err := baseURL(address)
	if err != nil {
		return nil, esserr.InvalidArgument(op, err)
	}

	s := &Session{
		address: address,
		base:    base,
		id:      uuid.NewString(),
		timeout: DefaultTimeout,
		retry:   DefaultRetryPolicy(),
		clock:   realClock{},
		logger:  slog.Default(),
		state:   StateUnauthenticated,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, esserr.InvalidArgument(op, err)
		}
	}
	if s.httpClient == nil {
		s.httpClient = newHTTPClient(s.insecure, s.timeout)
	}
	s.logger = s.logger.With("address", address, "session_id", s.id)
	s.metrics.SetState(StateUnauthenticated.String(), allStates...)

	return s, nil
}

// Address returns the appliance address this session talks to.
func (s *Session) Address() string { return s.address }

// ID returns the session identifier used in protocol events.
func (s *Session) ID() string { return s.id }

// Token returns the current auth key, empty if none.
func (s *Session) Token() Token {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.token
}

// State returns the current authentication state.
func (s *Session) State() State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

func (s *Session) setState(next State, reason string) {
	s.stateMu.Lock()
	prev := s.state
	s.state = next
	s.stateMu.Unlock()

	if prev == next {
		return
	}
	s.metrics.SetState(next.String(), allStates...)
	s.logger.Debug("session state changed", "from", prev.String(), "to", next.String(), "reason", reason)
	if s.protoLog != nil {
		s.protoLog.Log(log.Event{
			Timestamp:   s.clock.Now(),
			SessionID:   s.id,
			Layer:       log.LayerSession,
			Category:    log.CategoryState,
			RemoteAddr:  s.address,
			DeviceName:  s.deviceName,
			StateChange: &log.StateChangeEvent{OldState: prev.String(), NewState: next.String(), Reason: reason},
		})
	}
}

func (s *Session) setToken(t Token) {
	s.stateMu.Lock()
	s.token = t
	s.stateMu.Unlock()
}

// Login performs the login and time-sync handshake with password.
// On success the token and password are kept for later re-authentication.
func (s *Session) Login(ctx context.Context, password string) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.login(ctx, password)
	if err != nil {
		s.setToken("")
		s.setState(StateUnauthenticated, err.Error())
		return "", err
	}
	return token, nil
}

// login runs the handshake. The caller holds s.mu and decides the state
// after a failure.
func (s *Session) login(ctx context.Context, password string) (tok Token, err error) {
	const op = "login"

	defer func() {
		s.metrics.RecordLogin(err)
		if err != nil {
			s.logError(log.LayerSession, op, err)
		}
	}()

	s.setState(StateAuthenticating, op)

	resp, err := s.exchange(ctx, http.MethodPut, LoginPath, map[string]any{"password": password}, 1)
	if err != nil {
		return "", err
	}
	var login struct {
		AuthKey *string `json:"auth_key"`
	}
	if err := resp.Decode(&login); err != nil {
		return "", esserr.Protocol(op, err)
	}
	if login.AuthKey == nil || *login.AuthKey == "" {
		return "", esserr.Auth(op, fmt.Errorf("credentials rejected (status %d)", resp.StatusCode))
	}
	token := Token(*login.AuthKey)

	if err := s.timeSync(ctx, token); err != nil {
		return "", err
	}

	s.password = password
	s.setToken(token)
	s.setState(StateAuthenticated, op)
	s.logger.Info("logged in")
	return token, nil
}

// timeSync presents token and the local time to the appliance.
func (s *Session) timeSync(ctx context.Context, token Token) error {
	const op = "time sync"

	resp, err := s.exchange(ctx, http.MethodPut, TimeSyncPath, map[string]any{
		"auth_key":  string(token),
		"by":        TimeSyncOrigin,
		"date_time": s.clock.Now().Format(TimeSyncLayout),
	}, 1)
	if err != nil {
		return err
	}

	var result struct {
		Status string `json:"status"`
	}
	if err := resp.Decode(&result); err != nil {
		return esserr.Protocol(op, err)
	}
	if result.Status != StatusSuccess {
		return esserr.Protocol(op, fmt.Errorf("appliance answered status %q (http %d)", result.Status, resp.StatusCode))
	}
	return nil
}

// AuthenticatedRequest POSTs {"auth_key": token} merged with extra to
// endpoint and returns the body of the first successful answer.
//
// An expired token or a connection failure triggers a wait, one re-login and
// a retry with the same extra payload, up to the retry policy bound. A
// non-200 answer that is not the expired-token sentinel fails with a
// Protocol error.
func (s *Session) AuthenticatedRequest(ctx context.Context, endpoint string, extra map[string]any) (*Response, error) {
	return s.do(ctx, http.MethodPost, endpoint, extra)
}

// Put is AuthenticatedRequest with the PUT method, used by commands that
// change appliance state.
func (s *Session) Put(ctx context.Context, endpoint string, extra map[string]any) (*Response, error) {
	return s.do(ctx, http.MethodPut, endpoint, extra)
}

func (s *Session) do(ctx context.Context, method, endpoint string, extra map[string]any) (resp *Response, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer func() { s.metrics.RecordRequest(endpoint, err) }()
	return s.withReauth(ctx, method, endpoint, extra)
}

// withReauth is the bounded retry loop. The caller holds s.mu.
func (s *Session) withReauth(ctx context.Context, method, endpoint string, extra map[string]any) (*Response, error) {
	op := "request " + endpoint

	var lastErr error
	for retry := 0; ; retry++ {
		resp, err := s.exchange(ctx, method, endpoint, s.payload(extra), retry+1)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, s.aborted(ctx, op)
		case errors.Is(err, esserr.ErrTransport):
			lastErr = err
		case err != nil:
			return nil, err
		case resp.isAuthFailure():
			lastErr = errAuthKeyFailed
		case resp.StatusCode == http.StatusOK:
			return resp, nil
		default:
			err := esserr.Protocol(op, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(resp.Body)))
			s.logError(log.LayerSession, op, err)
			return nil, err
		}

		if retry >= s.retry.MaxRetries {
			s.setState(StateFailed, "re-authentication exhausted")
			err := esserr.Auth(op, fmt.Errorf("gave up after %d re-authentication attempts: %w", retry, lastErr))
			s.logError(log.LayerSession, op, err)
			return nil, err
		}

		delay := s.retry.Delay(retry)
		s.logger.Info("re-authenticating", "endpoint", endpoint, "attempt", retry+1, "delay", delay, "cause", lastErr)
		s.setState(StateAuthenticating, lastErr.Error())

		if err := s.clock.Sleep(ctx, delay); err != nil {
			return nil, s.aborted(ctx, op)
		}
		s.metrics.RecordRetry()

		if _, err := s.login(ctx, s.password); err != nil {
			if ctx.Err() != nil {
				return nil, s.aborted(ctx, op)
			}
			if errors.Is(err, esserr.ErrTransport) {
				// Appliance unreachable; spend the next attempt on it.
				lastErr = err
				continue
			}
			s.setState(StateFailed, err.Error())
			return nil, err
		}
	}
}

// aborted reports a cancelled or expired ctx as a Transport failure that
// still matches context.Canceled and context.DeadlineExceeded.
func (s *Session) aborted(ctx context.Context, op string) error {
	err := esserr.Transport(op, context.Cause(ctx))
	s.logError(log.LayerSession, op, err)
	return err
}

// payload builds the request body: the current token plus extra.
func (s *Session) payload(extra map[string]any) map[string]any {
	p := make(map[string]any, len(extra)+1)
	for k, v := range extra {
		p[k] = v
	}
	p["auth_key"] = string(s.Token())
	return p
}

func truncate(b []byte) string {
	const limit = 256
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
