// Package log provides structured protocol logging for ESS sessions.
//
// This package defines the Logger interface and Event types for capturing
// protocol-level events at the discovery, HTTP and session layers. It is
// separate from operational logging (slog): protocol capture provides a
// complete machine-readable trace of every exchange with the appliance.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	opts = append(opts, session.WithProtocolLogger(log.NewSlogAdapter(slog.Default())))
//
//	// For production: write to binary file
//	fl, _ := log.NewFileLogger("/var/log/ess/session.elog")
//
//	// Both: use MultiLogger
//	log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fl)
//
// # Event Types
//
// Events are captured at three layers:
//   - Discovery: mDNS lookups and browse results (DiscoveryEvent)
//   - HTTP: requests and responses exchanged with the appliance (MessageEvent)
//   - Session: authentication state changes (StateChangeEvent)
//
// Errors at any layer have a dedicated event type. Passwords and auth keys are
// redacted from payloads before they reach a Logger; see Redact.
//
// # File Format
//
// Log files use CBOR encoding with the .elog extension. The "essctl log"
// command reads them back.
package log
