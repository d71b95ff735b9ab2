package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// ErrOpenCircuit is returned when the breaker refuses a request.
var ErrOpenCircuit = errors.New("resilience: circuit breaker open")

var nopBreakerLogger = zerolog.Nop()

// State is the breaker's position in its lifecycle.
type State int

const (
	// Closed passes everything through while tracking outcomes.
	Closed State = iota
	// Open fails fast until the cool-off elapses.
	Open
	// HalfOpen lets a probe request decide recovery.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	}
	return "unknown"
}

// Breaker trips when the failure ratio over a minimum sample of
// requests crosses a threshold, then probes the dependency after a
// cool-off.
type Breaker struct {
	mu        sync.Mutex
	state     State
	failures  int
	successes int
	openedAt  time.Time

	minRequests  int
	failureRatio float64
	openFor      time.Duration

	target string
	logger *zerolog.Logger
}

// NewBreaker builds a closed breaker. Out-of-range arguments are
// clamped to sane defaults rather than rejected.
func NewBreaker(minRequests int, failureRatio float64, openFor time.Duration) *Breaker {
	if minRequests <= 0 {
		minRequests = 1
	}
	switch {
	case failureRatio <= 0:
		failureRatio = 0.5
	case failureRatio > 1:
		failureRatio = 1
	}
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	return &Breaker{
		state:        Closed,
		minRequests:  minRequests,
		failureRatio: failureRatio,
		openFor:      openFor,
	}
}

// WithTarget labels the breaker's telemetry with a dependency name.
func (b *Breaker) WithTarget(target string) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.target = strings.TrimSpace(target)
	b.publishStateLocked()
	return b
}

// WithLogger sets the fallback logger for transition events when the
// context carries none.
func (b *Breaker) WithLogger(logger zerolog.Logger) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logger = &logger
	return b
}

// Allow reports whether a request may proceed. An open breaker flips
// to half-open once its cool-off has elapsed and admits that one probe.
func (b *Breaker) Allow(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != Open {
		return true
	}
	if time.Since(b.openedAt) < b.openFor {
		return false
	}
	b.transitionLocked(ctx, HalfOpen)
	return true
}

// Report feeds a request outcome into the state machine.
func (b *Breaker) Report(ctx context.Context, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		return
	case HalfOpen:
		// The probe decides: recovery or another cool-off.
		if success {
			b.transitionLocked(ctx, Closed)
		} else {
			b.transitionLocked(ctx, Open)
		}
		return
	}

	if success {
		b.successes++
	} else {
		b.failures++
	}
	total := b.failures + b.successes
	if total < b.minRequests {
		return
	}
	if float64(b.failures)/float64(total) >= b.failureRatio {
		b.transitionLocked(ctx, Open)
		return
	}
	if total > b.minRequests*2 {
		// Halve counters so a long-lived closed breaker still reacts
		// to a fresh burst of failures.
		b.successes = int(math.Ceil(float64(b.successes) * 0.5))
		b.failures = int(math.Ceil(float64(b.failures) * 0.5))
	}
}

// Backoff computes an exponential delay for the given attempt, with
// optional symmetric jitter as a fraction of the delay.
func Backoff(base time.Duration, attempt int, jitterPct float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	delay := base * time.Duration(1<<uint(attempt-1))
	if jitterPct <= 0 {
		return delay
	}
	spread := float64(delay) * jitterPct
	return delay + time.Duration((rand.Float64()*2-1)*spread)
}

func (b *Breaker) transitionLocked(ctx context.Context, next State) {
	prev := b.state
	if prev == next {
		b.publishStateLocked()
		return
	}
	b.state = next
	b.failures = 0
	b.successes = 0
	switch next {
	case Open:
		b.openedAt = time.Now()
	case Closed:
		b.openedAt = time.Time{}
	}
	b.publishStateLocked()
	b.publishTransition(ctx, prev, next)
}

func (b *Breaker) publishStateLocked() {
	if BreakerState != nil {
		BreakerState.WithLabelValues(b.label()).Set(float64(gaugeFor(b.state)))
	}
}

func (b *Breaker) publishTransition(ctx context.Context, from, to State) {
	label := b.label()
	if BreakerTransitions != nil {
		BreakerTransitions.WithLabelValues(label, from.String(), to.String()).Inc()
	}
	if to == Open && BreakerOpenedTotal != nil {
		BreakerOpenedTotal.WithLabelValues(label).Inc()
	}

	evt := b.transitionLogger(ctx).Info().
		Str("target", label).
		Str("from_state", from.String()).
		Str("to_state", to.String())
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		evt = evt.Str("trace_id", sc.TraceID().String())
	}
	evt.Msg("breaker_transition")
}

func (b *Breaker) label() string {
	if b.target == "" {
		return "default"
	}
	return b.target
}

func (b *Breaker) transitionLogger(ctx context.Context) *zerolog.Logger {
	if fromCtx := zerolog.Ctx(ctx); fromCtx != nil {
		logger := fromCtx.With().Logger()
		return &logger
	}
	if b.logger != nil {
		return b.logger
	}
	return &nopBreakerLogger
}

func gaugeFor(state State) int {
	switch state {
	case Closed:
		return 0
	case Open:
		return 1
	case HalfOpen:
		return 2
	}
	return -1
}
