package session

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/lgess-community/ess-go/pkg/esserr"
	"github.com/lgess-community/ess-go/pkg/log"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 1 << 20

// newHTTPClient builds the default client for appliance traffic.
func newHTTPClient(insecure bool, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: insecure, //nolint:gosec // opt-in for self-signed appliance certificates
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// baseURL returns the https origin for address, which is a host or host:port.
func baseURL(address string) (*url.URL, error) {
	host := address
	if ip := net.ParseIP(address); ip != nil && ip.To4() == nil {
		host = "[" + address + "]"
	}
	u, err := url.Parse("https://" + host)
	if err != nil || u.Host == "" || u.Path != "" {
		return nil, fmt.Errorf("invalid appliance address %q", address)
	}
	return u, nil
}

// exchange sends payload as JSON to endpoint and reads the full answer.
// Connection-level failures are returned as Transport errors.
func (s *Session) exchange(ctx context.Context, method, endpoint string, payload map[string]any, attempt int) (*Response, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, esserr.Transport(endpoint, fmt.Errorf("rate limiter: %w", err))
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, esserr.InvalidArgument(endpoint, fmt.Errorf("encode payload: %w", err))
	}

	target := s.base.JoinPath(endpoint)
	req, err := http.NewRequestWithContext(ctx, method, target.String(), bytes.NewReader(body))
	if err != nil {
		return nil, esserr.InvalidArgument(endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Charset", "UTF-8")

	s.logMessage(log.DirectionOut, log.MessageTypeRequest, method, endpoint, attempt, nil, log.Redact(payload), nil)

	start := s.clock.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		err = esserr.Transport(endpoint, err)
		s.logError(log.LayerHTTP, endpoint, err)
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		err = esserr.Transport(endpoint, fmt.Errorf("read body: %w", err))
		s.logError(log.LayerHTTP, endpoint, err)
		return nil, err
	}
	elapsed := s.clock.Now().Sub(start)
	s.metrics.ObserveExchange(endpoint, elapsed)

	status := resp.StatusCode
	s.logMessage(log.DirectionIn, log.MessageTypeResponse, method, endpoint, attempt, &status, decodeForLog(raw), &elapsed)

	return &Response{StatusCode: resp.StatusCode, Body: raw}, nil
}

// decodeForLog returns a redacted structured view of raw for the protocol log.
func decodeForLog(raw []byte) any {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err == nil {
		return log.Redact(m)
	}
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func (s *Session) logMessage(dir log.Direction, typ log.MessageType, method, endpoint string, attempt int, status *int, payload any, d *time.Duration) {
	if s.protoLog == nil {
		return
	}
	s.protoLog.Log(log.Event{
		Timestamp:  s.clock.Now(),
		SessionID:  s.id,
		Direction:  dir,
		Layer:      log.LayerHTTP,
		Category:   log.CategoryMessage,
		RemoteAddr: s.address,
		DeviceName: s.deviceName,
		Message: &log.MessageEvent{
			Type:       typ,
			Method:     method,
			Endpoint:   endpoint,
			Attempt:    attempt,
			StatusCode: status,
			Payload:    payload,
			Duration:   d,
		},
	})
}

func (s *Session) logError(layer log.Layer, op string, err error) {
	if s.protoLog == nil {
		return
	}
	s.protoLog.Log(log.Event{
		Timestamp:  s.clock.Now(),
		SessionID:  s.id,
		Layer:      layer,
		Category:   log.CategoryError,
		RemoteAddr: s.address,
		DeviceName: s.deviceName,
		Error: &log.ErrorEventData{
			Layer:    layer,
			Message:  err.Error(),
			Category: esserr.CategoryOf(err).String(),
			Context:  op,
		},
	})
}
