package session_test

import (
	"context"
	"errors"
	"math"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgess-community/ess-go/pkg/esserr"
	"github.com/lgess-community/ess-go/pkg/log"
	"github.com/lgess-community/ess-go/pkg/metrics"
	"github.com/lgess-community/ess-go/pkg/session"
	"github.com/lgess-community/ess-go/pkg/simulator"
)

const testPassword = "secret"

// fakeClock records backoff waits instead of sleeping.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	c.mu.Unlock()
	return ctx.Err()
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

type fixture struct {
	sim   *simulator.Simulator
	srv   *httptest.Server
	sess  *session.Session
	clock *fakeClock
}

func newFixture(t *testing.T, opts ...session.Option) *fixture {
	t.Helper()

	sim := simulator.New(simulator.Config{Password: testPassword})
	srv := httptest.NewTLSServer(sim.Handler())
	t.Cleanup(srv.Close)

	clk := &fakeClock{now: time.Date(2026, 3, 1, 14, 5, 9, 0, time.Local)}
	base := []session.Option{
		session.WithHTTPClient(srv.Client()),
		session.WithClock(clk),
	}
	sess, err := session.New(strings.TrimPrefix(srv.URL, "https://"), append(base, opts...)...)
	require.NoError(t, err)

	return &fixture{sim: sim, srv: srv, sess: sess, clock: clk}
}

func (f *fixture) login(t *testing.T) session.Token {
	t.Helper()
	tok, err := f.sess.Login(context.Background(), testPassword)
	require.NoError(t, err)
	return tok
}

type recordingLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *recordingLogger) Log(e log.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func TestNewRequiresAddress(t *testing.T) {
	_, err := session.New("")
	assert.True(t, errors.Is(err, esserr.ErrInvalidArgument))

	_, err = session.New("192.168.1.24/extra")
	assert.True(t, errors.Is(err, esserr.ErrInvalidArgument))
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := session.New("192.168.1.24", session.WithTimeout(0))
	assert.True(t, errors.Is(err, esserr.ErrInvalidArgument))

	_, err = session.New("192.168.1.24", session.WithRateLimit(0, 1))
	assert.True(t, errors.Is(err, esserr.ErrInvalidArgument))

	_, err = session.New("192.168.1.24", session.WithRetryPolicy(session.RetryPolicy{MaxRetries: -1}))
	assert.True(t, errors.Is(err, esserr.ErrInvalidArgument))
}

func TestNewSessionIsUnauthenticated(t *testing.T) {
	s, err := session.New("192.168.1.24", session.WithInsecureSkipVerify(true))
	require.NoError(t, err)

	assert.Equal(t, session.StateUnauthenticated, s.State())
	assert.Empty(t, s.Token())
	assert.Equal(t, "192.168.1.24", s.Address())
	assert.NotEmpty(t, s.ID())
}

func TestLogin(t *testing.T) {
	f := newFixture(t)

	tok := f.login(t)

	assert.NotEmpty(t, tok)
	assert.Equal(t, tok, f.sess.Token())
	assert.Equal(t, session.StateAuthenticated, f.sess.State())
	assert.Equal(t, 1, f.sim.Logins())
	assert.Equal(t, 1, f.sim.TimeSyncs())

	ts := f.sim.LastPayload(session.TimeSyncPath)
	assert.Equal(t, string(tok), ts["auth_key"])
	assert.Equal(t, "phone", ts["by"])
	assert.Equal(t, "2026-03-01 14:05:09", ts["date_time"])
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t)

	_, err := f.sess.Login(context.Background(), "wrong")

	require.Error(t, err)
	assert.True(t, errors.Is(err, esserr.ErrAuth), "got %v", err)
	assert.Equal(t, session.StateUnauthenticated, f.sess.State())
	assert.Empty(t, f.sess.Token())
	assert.Equal(t, 0, f.sim.TimeSyncs())
}

func TestLoginTimeSyncFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.sim.FailTimeSync(true)

	_, err := f.sess.Login(context.Background(), testPassword)

	require.Error(t, err)
	assert.True(t, errors.Is(err, esserr.ErrProtocol), "got %v", err)
	assert.Equal(t, session.StateUnauthenticated, f.sess.State())
	assert.Empty(t, f.sess.Token())
	assert.Equal(t, 1, f.sim.Logins())
	assert.Equal(t, 1, f.sim.TimeSyncs())
}

func TestLoginTransportFailure(t *testing.T) {
	f := newFixture(t)
	f.srv.Close()

	_, err := f.sess.Login(context.Background(), testPassword)

	assert.True(t, errors.Is(err, esserr.ErrTransport), "got %v", err)
	assert.Equal(t, session.StateUnauthenticated, f.sess.State())
}

func TestAuthenticatedRequest(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	resp, err := f.sess.AuthenticatedRequest(context.Background(), "/v1/user/essinfo/home", nil)
	require.NoError(t, err)

	body, err := resp.Map()
	require.NoError(t, err)
	assert.Contains(t, body, "statistics")
	assert.Equal(t, 1, f.sim.Logins())
	assert.Empty(t, f.clock.Sleeps())
}

func TestExpiredTokenReauthenticatesOnce(t *testing.T) {
	f := newFixture(t)
	first := f.login(t)
	f.sim.ExpireNext(1)

	resp, err := f.sess.AuthenticatedRequest(context.Background(), "/v1/user/graph/pv/month", map[string]any{"year_month": "202603"})
	require.NoError(t, err)

	body, err := resp.Map()
	require.NoError(t, err)
	assert.Contains(t, body, "loginfo")

	// Initial login plus exactly one re-login.
	assert.Equal(t, 2, f.sim.Logins())
	assert.Equal(t, 2, f.sim.Requests())
	assert.Equal(t, []time.Duration{0}, f.clock.Sleeps())
	assert.Equal(t, session.StateAuthenticated, f.sess.State())
	assert.NotEqual(t, first, f.sess.Token())

	// Extra payload survives the retry.
	last := f.sim.LastPayload("/v1/user/graph/pv/month")
	assert.Equal(t, "202603", last["year_month"])
	assert.Equal(t, string(f.sess.Token()), last["auth_key"])
}

func TestRetryBoundReached(t *testing.T) {
	f := newFixture(t, session.WithRetryPolicy(session.RetryPolicy{
		MaxRetries: 3,
		Step:       time.Second,
		MaxDelay:   30 * time.Second,
	}))
	f.login(t)
	f.sim.RejectAll(true)

	_, err := f.sess.AuthenticatedRequest(context.Background(), "/v1/user/essinfo/common", nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, esserr.ErrAuth), "got %v", err)
	assert.Equal(t, session.StateFailed, f.sess.State())
	assert.Equal(t, 1+3, f.sim.Logins())
	assert.Equal(t, 4, f.sim.Requests())
	assert.Equal(t, []time.Duration{0, time.Second, 2 * time.Second}, f.clock.Sleeps())
}

func TestLoginRecoversFromFailedState(t *testing.T) {
	f := newFixture(t, session.WithRetryPolicy(session.RetryPolicy{MaxRetries: 0}))
	f.login(t)
	f.sim.RejectAll(true)

	_, err := f.sess.AuthenticatedRequest(context.Background(), "/v1/user/essinfo/common", nil)
	require.Error(t, err)
	require.Equal(t, session.StateFailed, f.sess.State())

	f.sim.RejectAll(false)
	f.login(t)
	assert.Equal(t, session.StateAuthenticated, f.sess.State())
}

func TestTransportFailureTakesRetryPath(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.sim.DropNext(1)

	resp, err := f.sess.AuthenticatedRequest(context.Background(), "/v1/user/essinfo/home", nil)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 2, f.sim.Logins())
}

func TestTransportFailureExhaustion(t *testing.T) {
	f := newFixture(t, session.WithRetryPolicy(session.RetryPolicy{MaxRetries: 2, Step: time.Second}))
	f.login(t)
	f.srv.Close()

	_, err := f.sess.AuthenticatedRequest(context.Background(), "/v1/user/essinfo/home", nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, esserr.ErrAuth), "got %v", err)
	assert.True(t, errors.Is(err, esserr.ErrTransport), "cause chain lost: %v", err)
	assert.Equal(t, session.StateFailed, f.sess.State())
	assert.Len(t, f.clock.Sleeps(), 2)
}

func TestUnexpectedStatusIsProtocolError(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	// Missing graph parameter yields 400 without the sentinel.
	_, err := f.sess.AuthenticatedRequest(context.Background(), "/v1/user/graph/pv/month", nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, esserr.ErrProtocol), "got %v", err)
	assert.Equal(t, 1, f.sim.Logins())
	assert.Empty(t, f.clock.Sleeps())
}

func TestRequestWithoutLoginFailsAuth(t *testing.T) {
	f := newFixture(t)

	// Empty token is rejected, re-login with the empty stored password is
	// rejected too and aborts the loop.
	_, err := f.sess.AuthenticatedRequest(context.Background(), "/v1/user/essinfo/home", nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, esserr.ErrAuth), "got %v", err)
	assert.Equal(t, session.StateFailed, f.sess.State())
	assert.Equal(t, 1, f.sim.Logins())
}

func TestContextCancellation(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.sess.AuthenticatedRequest(ctx, "/v1/user/essinfo/home", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, esserr.ErrTransport)
	assert.Equal(t, 1, f.sim.Logins())
}

// cancelClock cancels the request context on the first backoff wait.
type cancelClock struct {
	fakeClock
	cancel context.CancelFunc
}

func (c *cancelClock) Sleep(ctx context.Context, d time.Duration) error {
	c.cancel()
	return c.fakeClock.Sleep(ctx, d)
}

func TestCancellationDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clk := &cancelClock{cancel: cancel}
	f := newFixture(t, session.WithClock(clk))
	f.login(t)
	f.sim.ExpireNext(1)

	_, err := f.sess.AuthenticatedRequest(ctx, "/v1/user/essinfo/home", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, esserr.ErrTransport)
	assert.False(t, errors.Is(err, esserr.ErrAuth), "got %v", err)
	assert.Equal(t, 1, f.sim.Logins())
	assert.Len(t, clk.Sleeps(), 1)
}

func TestUnencodablePayloadIsNotRetried(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	_, err := f.sess.AuthenticatedRequest(context.Background(), "/v1/user/essinfo/common", map[string]any{"x": math.NaN()})

	require.Error(t, err)
	assert.ErrorIs(t, err, esserr.ErrInvalidArgument)
	assert.False(t, errors.Is(err, esserr.ErrAuth), "got %v", err)
	assert.Equal(t, 1, f.sim.Logins())
	assert.Equal(t, 0, f.sim.Requests())
	assert.Empty(t, f.clock.Sleeps())
	assert.Equal(t, session.StateAuthenticated, f.sess.State())
}

func TestPut(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	resp, err := f.sess.Put(context.Background(), "/v1/user/operation/status", map[string]any{"operation": "stop"})
	require.NoError(t, err)

	var out struct {
		Status string `json:"status"`
	}
	require.NoError(t, resp.Decode(&out))
	assert.Equal(t, "success", out.Status)
	assert.False(t, f.sim.Running())
}

func TestConcurrentRequests(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.sim.ExpireNext(1)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.sess.AuthenticatedRequest(context.Background(), "/v1/user/essinfo/common", nil)
			errs <- err
			_ = f.sess.Token()
			_ = f.sess.State()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 2, f.sim.Logins())
}

func TestProtocolLogRedactsSecrets(t *testing.T) {
	rec := &recordingLogger{}
	f := newFixture(t, session.WithProtocolLogger(rec), session.WithDeviceName("garage"))
	f.login(t)

	require.NotEmpty(t, rec.events)

	var sawLogin, sawState bool
	for _, e := range rec.events {
		assert.Equal(t, f.sess.ID(), e.SessionID)
		assert.Equal(t, "garage", e.DeviceName)
		if e.StateChange != nil && e.StateChange.NewState == session.StateAuthenticated.String() {
			sawState = true
		}
		if e.Message == nil {
			continue
		}
		payload, ok := e.Message.Payload.(map[string]any)
		if !ok {
			continue
		}
		if pw, found := payload["password"]; found {
			sawLogin = true
			assert.Equal(t, log.RedactedValue, pw)
		}
		if key, found := payload["auth_key"]; found {
			assert.Equal(t, log.RedactedValue, key)
		}
	}
	assert.True(t, sawLogin, "login request not logged")
	assert.True(t, sawState, "state change not logged")
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := newFixture(t, session.WithMetrics(metrics.NewSession(reg)))
	f.login(t)
	f.sim.ExpireNext(1)

	_, err := f.sess.AuthenticatedRequest(context.Background(), "/v1/user/essinfo/home", nil)
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "ess_logins_total", "ess_reauth_retries_total", "ess_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "UNAUTHENTICATED", session.StateUnauthenticated.String())
	assert.Equal(t, "AUTHENTICATING", session.StateAuthenticating.String())
	assert.Equal(t, "AUTHENTICATED", session.StateAuthenticated.String())
	assert.Equal(t, "FAILED", session.StateFailed.String())
	assert.Equal(t, "UNKNOWN", session.State(42).String())
}
