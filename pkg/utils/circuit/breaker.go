package circuit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rzzdr/ccr-analytics/pkg/utils/logger"
)

type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateHalfOpen:
		return "HALF_OPEN"
	case StateOpen:
		return "OPEN"
	default:
		return "UNKNOWN"
	}
}

// ErrOpen is returned without calling the guarded function while the breaker is open
var ErrOpen = errors.New("circuit breaker is open")

type Config struct {
	MaxFailures int           // Consecutive failures before opening
	Timeout     time.Duration // Time spent open before a trial call
}

func DefaultConfig() Config {
	return Config{
		MaxFailures: 5,
		Timeout:     30 * time.Second,
	}
}

// Breaker stops calling a failing dependency for a cool-down period. After
// the timeout one trial call is let through; its outcome closes or reopens
// the breaker.
type Breaker struct {
	name     string
	config   Config
	state    State
	failures int
	trial    bool
	openedAt time.Time
	now      func() time.Time
	mutex    sync.Mutex
	log      *logger.Logger
}

func New(name string, config Config) *Breaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = DefaultConfig().MaxFailures
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}

	return &Breaker{
		name:   name,
		config: config,
		state:  StateClosed,
		now:    time.Now,
		log:    logger.GetLogger("circuit." + name),
	}
}

// Execute runs fn unless the breaker is open
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.before(); err != nil {
		return err
	}

	err := fn(ctx)
	b.after(err == nil)
	return err
}

func (b *Breaker) before() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.config.Timeout {
			return ErrOpen
		}
		b.transition(StateHalfOpen)
		b.trial = true
		return nil
	case StateHalfOpen:
		if b.trial {
			return ErrOpen
		}
		b.trial = true
		return nil
	default:
		return nil
	}
}

func (b *Breaker) after(success bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.trial = false
	if success {
		b.failures = 0
		if b.state != StateClosed {
			b.transition(StateClosed)
		}
		return
	}

	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.config.MaxFailures {
		b.openedAt = b.now()
		b.transition(StateOpen)
	}
}

func (b *Breaker) transition(to State) {
	if b.state == to {
		return
	}
	b.log.Infof("Circuit breaker '%s' transitioned from %s to %s", b.name, b.state, to)
	b.state = to
}

func (b *Breaker) State() State {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.state
}

func (b *Breaker) Name() string {
	return b.name
}
