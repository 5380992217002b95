package esserr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesOwnSentinel(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"NotFound", NotFound("resolve", nil), ErrNotFound},
		{"Protocol", Protocol("timesync", nil), ErrProtocol},
		{"Auth", Auth("request", nil), ErrAuth},
		{"InvalidArgument", InvalidArgument("graph", nil), ErrInvalidArgument},
		{"Transport", Transport("login", nil), ErrTransport},
	}

	all := []error{ErrNotFound, ErrProtocol, ErrAuth, ErrInvalidArgument, ErrTransport}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, s := range all {
				assert.Equal(t, s == tt.sentinel, errors.Is(tt.err, s), "errors.Is(%v, %v)", tt.err, s)
			}
		})
	}
}

func TestErrorKeepsCauseChain(t *testing.T) {
	cause := errors.New("connection refused")
	err := Auth("request", fmt.Errorf("retries exhausted: %w", Transport("post", cause)))

	assert.True(t, errors.Is(err, ErrAuth))
	assert.True(t, errors.Is(err, ErrTransport))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, CatAuth, CategoryOf(err))
}

func TestErrorMessage(t *testing.T) {
	err := Protocol("timesync", errors.New(`status "failure"`))
	assert.Equal(t, `timesync: protocol: status "failure"`, err.Error())

	assert.Equal(t, "resolve: not found", NotFound("resolve", nil).Error())
}

func TestCategoryOfPlainError(t *testing.T) {
	assert.Equal(t, Category(0), CategoryOf(errors.New("plain")))
	assert.Equal(t, "unknown", Category(0).String())
}
