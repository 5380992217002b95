package log

// Logger receives protocol events. Log runs on the request path: it must not
// block and must be safe for concurrent use.
type Logger interface {
	Log(event Event)
}

// LoggerFunc adapts a plain function to Logger.
type LoggerFunc func(Event)

// Log calls f(event).
func (f LoggerFunc) Log(event Event) { f(event) }

// NoopLogger drops every event. The zero value is ready to use.
type NoopLogger struct{}

// Log does nothing.
func (NoopLogger) Log(Event) {}

// MultiLogger fans each event out to several sinks, typically a FileLogger
// and a SlogAdapter when debugging.
type MultiLogger struct {
	sinks []Logger
}

// NewMultiLogger returns a MultiLogger over the non-nil sinks.
func NewMultiLogger(sinks ...Logger) *MultiLogger {
	m := &MultiLogger{sinks: make([]Logger, 0, len(sinks))}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Log forwards event to every sink in order.
func (m *MultiLogger) Log(event Event) {
	for _, s := range m.sinks {
		s.Log(event)
	}
}

var (
	_ Logger = LoggerFunc(nil)
	_ Logger = NoopLogger{}
	_ Logger = (*MultiLogger)(nil)
)
