package settler

import (
	"time"

	"github.com/clawpay/settler/logger"
	"github.com/clawpay/settler/metrics"
	"github.com/clawpay/settler/store"
	"github.com/clawpay/settler/swap"
	"github.com/clawpay/settler/types"
)

// Option configures an Engine at construction.
type Option func(*Engine)

// WithLogger installs a structured logger. The default discards everything.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithMetrics installs a metrics recorder. The default discards everything.
func WithMetrics(r metrics.Recorder) Option {
	return func(e *Engine) {
		e.metrics = r
	}
}

// WithSink installs the event sink committed records are handed to.
func WithSink(s types.Sink) Option {
	return func(e *Engine) {
		e.sink = s
	}
}

// WithExchange installs the external exact-input swap capability, enabling
// the balance-sweep operations.
func WithExchange(x swap.Exchange) Option {
	return func(e *Engine) {
		e.exchange = x
	}
}

// WithStore installs a persistence backend. On construction the engine
// resumes from a persisted snapshot when one exists; afterwards every
// committed mutation is written through.
func WithStore(s store.Store) Option {
	return func(e *Engine) {
		e.persist = s
	}
}

// WithClock overrides the engine clock, primarily for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}
