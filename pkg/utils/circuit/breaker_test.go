package circuit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errBroker = errors.New("broker down")

func failing(context.Context) error { return errBroker }
func succeeding(context.Context) error { return nil }

func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	b := New("test", Config{MaxFailures: 2, Timeout: time.Minute})

	assert.ErrorIs(t, b.Execute(context.Background(), failing), errBroker)
	assert.Equal(t, StateClosed, b.State())
	assert.ErrorIs(t, b.Execute(context.Background(), failing), errBroker)
	assert.Equal(t, StateOpen, b.State())

	called := false
	err := b.Execute(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := New("test", Config{MaxFailures: 2, Timeout: time.Minute})

	_ = b.Execute(context.Background(), failing)
	assert.NoError(t, b.Execute(context.Background(), succeeding))
	_ = b.Execute(context.Background(), failing)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenTrial(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := New("test", Config{MaxFailures: 1, Timeout: time.Second})
	b.now = func() time.Time { return now }

	_ = b.Execute(context.Background(), failing)
	assert.Equal(t, StateOpen, b.State())

	now = now.Add(2 * time.Second)
	_ = b.Execute(context.Background(), failing)
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Execute(context.Background(), succeeding), ErrOpen)

	now = now.Add(2 * time.Second)
	assert.NoError(t, b.Execute(context.Background(), succeeding))
	assert.Equal(t, StateClosed, b.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "HALF_OPEN", StateHalfOpen.String())
	assert.Equal(t, "UNKNOWN", State(9).String())
}
