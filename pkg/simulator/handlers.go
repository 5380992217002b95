package simulator

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type ctxKey struct{}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(r *http.Request) (map[string]any, bool) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, false
	}
	return body, true
}

func bodyFrom(r *http.Request) map[string]any {
	body, _ := r.Context().Value(ctxKey{}).(map[string]any)
	return body
}

// authFailed is the answer to an expired or unknown token.
var authFailed = map[string]string{"auth": "auth_key failed"}

func (s *Simulator) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.logins.Inc()

	body, ok := decodeBody(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "invalid json"})
		return
	}
	s.recordPayload(r.URL.Path, body)

	if pw, _ := body["password"].(string); pw != s.cfg.Password {
		writeJSON(w, http.StatusOK, map[string]string{"status": "password mismatched"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "auth_key": s.issueToken()})
}

func (s *Simulator) handleTimeSync(w http.ResponseWriter, r *http.Request) {
	s.timeSyncs.Inc()

	body, ok := decodeBody(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "invalid json"})
		return
	}
	s.recordPayload(r.URL.Path, body)

	tok, _ := body["auth_key"].(string)
	by, _ := body["by"].(string)
	stamp, _ := body["date_time"].(string)
	_, err := time.Parse("2006-01-02 15:04:05", stamp)

	switch {
	case s.failTimeSync.Load():
		writeJSON(w, http.StatusOK, map[string]string{"status": "fail"})
	case !s.validToken(tok):
		writeJSON(w, http.StatusUnauthorized, authFailed)
	case by != "phone" || err != nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "invalid parameter"})
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
	}
}

func (s *Simulator) handleFactoryPassword(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "invalid json"})
		return
	}
	if key, _ := body["key"].(string); key != s.cfg.FactoryKey {
		writeJSON(w, http.StatusOK, map[string]string{"status": "fail"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "password": s.cfg.Password})
}

// requireAuth rejects requests without a valid auth_key and applies the
// forced-expiry controls.
func (s *Simulator) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Inc()

		body, ok := decodeBody(r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"status": "invalid json"})
			return
		}
		s.recordPayload(r.URL.Path, body)

		if s.takeOne(&s.expireNext) {
			s.ExpireTokens()
		}
		tok, _ := body["auth_key"].(string)
		if s.rejectAll.Load() || !s.validToken(tok) {
			writeJSON(w, http.StatusUnauthorized, authFailed)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, body)))
	})
}

func (s *Simulator) handleState(category string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.stateData(category))
	}
}

func (s *Simulator) handleGraph(w http.ResponseWriter, r *http.Request) {
	device := chi.URLParam(r, "device")
	timespan := chi.URLParam(r, "timespan")

	param, layout, ok := graphParam(timespan)
	if !ok || !validGraphDevice(device) {
		writeJSON(w, http.StatusNotFound, map[string]string{"status": "invalid url"})
		return
	}
	value, _ := bodyFrom(r)[param].(string)
	date, err := time.Parse(layout, value)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "invalid parameter"})
		return
	}
	writeJSON(w, http.StatusOK, graphData(device, timespan, date))
}

func (s *Simulator) handleSwitch(w http.ResponseWriter, r *http.Request) {
	switch op, _ := bodyFrom(r)["operation"].(string); op {
	case "start":
		s.running.Store(true)
	case "stop":
		s.running.Store(false)
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "fail"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
