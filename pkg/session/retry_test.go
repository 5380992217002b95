package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicyDelay(t *testing.T) {
	p := RetryPolicy{MaxRetries: 10, Step: time.Second, MaxDelay: 3 * time.Second}

	tests := []struct {
		n    int
		want time.Duration
	}{
		{-1, 0},
		{0, 0},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 3 * time.Second},
		{4, 3 * time.Second},
		{1 << 40, 3 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Delay(tt.n), "Delay(%d)", tt.n)
	}
}

func TestRetryPolicyDelayNonDecreasing(t *testing.T) {
	policies := []RetryPolicy{
		DefaultRetryPolicy(),
		{Step: 250 * time.Millisecond, MaxDelay: 2 * time.Second},
		{Step: time.Second},
		{},
	}
	for _, p := range policies {
		prev := p.Delay(0)
		for n := 1; n < 100; n++ {
			d := p.Delay(n)
			assert.GreaterOrEqual(t, d, prev, "policy %+v n=%d", p, n)
			prev = d
		}
	}
}

func TestRetryPolicyValidate(t *testing.T) {
	assert.NoError(t, DefaultRetryPolicy().Validate())
	assert.NoError(t, RetryPolicy{}.Validate())
	assert.Error(t, RetryPolicy{MaxRetries: -1}.Validate())
	assert.Error(t, RetryPolicy{Step: -time.Second}.Validate())
	assert.Error(t, RetryPolicy{MaxDelay: -time.Second}.Validate())
}

func TestRealClockSleep(t *testing.T) {
	c := realClock{}
	assert.NoError(t, c.Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Sleep(ctx, time.Hour), context.Canceled)
}

func TestResponseSentinel(t *testing.T) {
	tests := []struct {
		body string
		want bool
	}{
		{`{"auth":"auth_key failed"}`, true},
		{`{"auth": "auth_key failed"}`, true},
		{`{"auth":"auth_key failed","extra":1}`, false},
		{`{"auth":"ok"}`, false},
		{`not json`, false},
		{``, false},
	}
	for _, tt := range tests {
		r := &Response{StatusCode: 401, Body: []byte(tt.body)}
		assert.Equal(t, tt.want, r.isAuthFailure(), tt.body)
	}
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
		ok   bool
	}{
		{"192.168.1.24", "https://192.168.1.24", true},
		{"192.168.1.24:8443", "https://192.168.1.24:8443", true},
		{"fe80::1", "https://[fe80::1]", true},
		{"[fe80::1]:443", "https://[fe80::1]:443", true},
		{"ess.local", "https://ess.local", true},
		{"ess.local/path", "", false},
	}
	for _, tt := range tests {
		u, err := baseURL(tt.addr)
		if !tt.ok {
			assert.Error(t, err, tt.addr)
			continue
		}
		if assert.NoError(t, err, tt.addr) {
			assert.Equal(t, tt.want, u.String())
		}
	}
}
