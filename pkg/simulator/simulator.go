// Package simulator implements an in-process stand-in for an ESS appliance.
//
// It serves the appliance HTTPS API (login, time sync, state, graph, switch
// and factory password read) and exposes controls to force the failure modes
// a client has to survive: expired tokens, failed time sync and dropped
// connections.
package simulator

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/flashbots/go-utils/httplogger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// Defaults used when Config leaves a field empty.
const (
	DefaultPassword   = "ess-sim-password"
	DefaultName       = "SIM0000001"
	DefaultHWRevision = "1.5"
)

// Config configures a Simulator.
type Config struct {
	// Name is the device identity announced over mDNS.
	Name string

	// Password is the login password. Also returned by the factory
	// password endpoint.
	Password string

	// HWRevision is announced in TXT records.
	HWRevision string

	// FactoryKey unlocks the factory password endpoint.
	FactoryKey string

	// Log receives request logs. Default: slog.Default().
	Log *slog.Logger
}

// Simulator is a fake appliance. It is safe for concurrent use.
type Simulator struct {
	cfg Config
	log *slog.Logger

	mu           sync.Mutex
	tokens       map[string]struct{}
	lastPayloads map[string]map[string]any

	running      atomic.Bool
	rejectAll    atomic.Bool
	failTimeSync atomic.Bool
	expireNext   atomic.Int64
	dropNext     atomic.Int64

	logins    atomic.Int64
	timeSyncs atomic.Int64
	requests  atomic.Int64
}

// New creates a simulator with cfg, filling defaults.
func New(cfg Config) *Simulator {
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.Password == "" {
		cfg.Password = DefaultPassword
	}
	if cfg.HWRevision == "" {
		cfg.HWRevision = DefaultHWRevision
	}
	if cfg.FactoryKey == "" {
		cfg.FactoryKey = "lgepmsuser!@#"
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}

	s := &Simulator{
		cfg:          cfg,
		log:          cfg.Log,
		tokens:       make(map[string]struct{}),
		lastPayloads: make(map[string]map[string]any),
	}
	s.running.Store(true)
	return s
}

// Config returns the effective configuration.
func (s *Simulator) Config() Config { return s.cfg }

// Handler returns the appliance API router.
func (s *Simulator) Handler() http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)
	mux.Use(s.faults)

	mux.With(s.httpLogger).Put("/v1/user/setting/login", s.handleLogin)
	mux.With(s.httpLogger).Put("/v1/user/setting/timesync", s.handleTimeSync)
	mux.With(s.httpLogger).Post("/v1/user/setting/read/password", s.handleFactoryPassword)

	mux.Group(func(r chi.Router) {
		r.Use(s.httpLogger, s.requireAuth)
		for _, c := range []string{"network", "systeminfo", "batt"} {
			r.Post("/v1/user/setting/"+c, s.handleState(c))
		}
		for _, c := range []string{"home", "common"} {
			r.Post("/v1/user/essinfo/"+c, s.handleState(c))
		}
		r.Post("/v1/user/graph/{device}/{timespan}", s.handleGraph)
		r.Put("/v1/user/operation/status", s.handleSwitch)
	})

	return mux
}

func (s *Simulator) httpLogger(next http.Handler) http.Handler {
	return httplogger.LoggingMiddlewareSlog(s.log, next)
}

// faults aborts the connection while DropNext is pending. It sits outside
// the logger so the abort is not turned into a 500.
func (s *Simulator) faults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.takeOne(&s.dropNext) {
			s.log.Debug("dropping connection", "path", r.URL.Path)
			panic(http.ErrAbortHandler)
		}
		next.ServeHTTP(w, r)
	})
}

// takeOne decrements c if positive and reports whether it did.
func (s *Simulator) takeOne(c *atomic.Int64) bool {
	for {
		n := c.Load()
		if n <= 0 {
			return false
		}
		if c.CompareAndSwap(n, n-1) {
			return true
		}
	}
}

func (s *Simulator) issueToken() string {
	tok := uuid.NewString()
	s.mu.Lock()
	s.tokens[tok] = struct{}{}
	s.mu.Unlock()
	return tok
}

func (s *Simulator) validToken(tok string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tokens[tok]
	return ok
}

// ExpireTokens invalidates every issued token.
func (s *Simulator) ExpireTokens() {
	s.mu.Lock()
	clear(s.tokens)
	s.mu.Unlock()
}

// ExpireNext makes the next n authenticated requests fail with the
// expired-token answer, invalidating all tokens each time.
func (s *Simulator) ExpireNext(n int) { s.expireNext.Store(int64(n)) }

// RejectAll makes every authenticated request fail with the expired-token
// answer while set.
func (s *Simulator) RejectAll(on bool) { s.rejectAll.Store(on) }

// FailTimeSync makes the time-sync handshake report failure while set.
func (s *Simulator) FailTimeSync(on bool) { s.failTimeSync.Store(on) }

// DropNext aborts the connection of the next n requests of any kind.
func (s *Simulator) DropNext(n int) { s.dropNext.Store(int64(n)) }

// Logins returns the number of login attempts received.
func (s *Simulator) Logins() int { return int(s.logins.Load()) }

// TimeSyncs returns the number of time-sync requests received.
func (s *Simulator) TimeSyncs() int { return int(s.timeSyncs.Load()) }

// Requests returns the number of authenticated requests received,
// including rejected ones.
func (s *Simulator) Requests() int { return int(s.requests.Load()) }

// Running reports the operation state set by the switch endpoint.
func (s *Simulator) Running() bool { return s.running.Load() }

// LastPayload returns the last JSON body received on path.
func (s *Simulator) LastPayload(path string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPayloads[path]
}

func (s *Simulator) recordPayload(path string, body map[string]any) {
	s.mu.Lock()
	s.lastPayloads[path] = body
	s.mu.Unlock()
}
