package session

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/lgess-community/ess-go/pkg/log"
	"github.com/lgess-community/ess-go/pkg/metrics"
)

// DefaultTimeout bounds a single HTTP exchange with the appliance.
const DefaultTimeout = 10 * time.Second

// Option is a functional option for configuring a Session.
type Option func(*Session) error

// WithInsecureSkipVerify disables TLS certificate verification. Appliances
// present a self-signed certificate, so clients talking to real hardware
// usually need this. Ignored when WithHTTPClient is used.
func WithInsecureSkipVerify(skip bool) Option {
	return func(s *Session) error {
		s.insecure = skip
		return nil
	}
}

// WithHTTPClient sets a custom http.Client, overriding TLS and timeout options.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Session) error {
		if hc == nil {
			return fmt.Errorf("http client must not be nil")
		}
		s.httpClient = hc
		return nil
	}
}

// WithTimeout sets the per-exchange timeout. Default: DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", d)
		}
		s.timeout = d
		return nil
	}
}

// WithRetryPolicy replaces the default re-authentication policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(s *Session) error {
		if err := p.Validate(); err != nil {
			return err
		}
		s.retry = p
		return nil
	}
}

// WithRateLimit limits outgoing requests to limit per second with the given
// burst. Login and time-sync exchanges count against the same budget.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(s *Session) error {
		if limit <= 0 || burst <= 0 {
			return fmt.Errorf("rate limit and burst must be positive")
		}
		s.limiter = rate.NewLimiter(limit, burst)
		return nil
	}
}

// WithLogger sets the operational logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) error {
		if l != nil {
			s.logger = l
		}
		return nil
	}
}

// WithProtocolLogger captures every exchange and state change as protocol
// events. Secrets are redacted before they reach the logger.
func WithProtocolLogger(l log.Logger) Option {
	return func(s *Session) error {
		s.protoLog = l
		return nil
	}
}

// WithMetrics records request, login and retry metrics.
func WithMetrics(m *metrics.Session) Option {
	return func(s *Session) error {
		s.metrics = m
		return nil
	}
}

// WithDeviceName labels protocol events with the appliance name.
func WithDeviceName(name string) Option {
	return func(s *Session) error {
		s.deviceName = name
		return nil
	}
}

// WithClock replaces the time source used for backoff and time sync.
func WithClock(c Clock) Option {
	return func(s *Session) error {
		if c == nil {
			return fmt.Errorf("clock must not be nil")
		}
		s.clock = c
		return nil
	}
}
