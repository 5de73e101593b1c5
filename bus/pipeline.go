package bus

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler is a pipeline stage collapsed into a single callable: the
// remainder of a chain, or the terminal handler performing the actual
// read or write. The Result carries the domain outcome; the error
// channel is reserved for conditions that must propagate past the
// pipeline untouched (notably framework-level authorization failures).
type Handler[M any] func(M) (Result, error)

// Middleware wraps a handler. A middleware either short-circuits by
// returning a terminal Result without calling next, or calls next
// exactly once — optionally with a modified copy of the message — and
// returns its result unchanged or wrapped. The bus never catches or
// translates errors on behalf of a middleware.
type Middleware[M any] func(m M, next Handler[M]) (Result, error)

// Chain is a composable, ordered middleware pipeline for one message
// type. Middleware added first executes first.
type Chain[M any] struct {
	middlewares []Middleware[M]
	logger      *zap.Logger
}

// NewChain creates a middleware chain.
func NewChain[M any](middlewares ...Middleware[M]) *Chain[M] {
	return &Chain[M]{
		middlewares: middlewares,
		logger:      zap.NewNop(),
	}
}

// WithLogger sets the chain's logger. Dispatches and short-circuits are
// logged at debug level.
func (c *Chain[M]) WithLogger(logger *zap.Logger) *Chain[M] {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// Use adds a middleware to the chain.
func (c *Chain[M]) Use(m Middleware[M]) *Chain[M] {
	c.middlewares = append(c.middlewares, m)
	return c
}

// Append creates a new chain by appending middleware to the current
// chain, leaving the current chain unchanged.
func (c *Chain[M]) Append(middlewares ...Middleware[M]) *Chain[M] {
	combined := make([]Middleware[M], len(c.middlewares)+len(middlewares))
	copy(combined, c.middlewares)
	copy(combined[len(c.middlewares):], middlewares)
	return &Chain[M]{middlewares: combined, logger: c.logger}
}

// Then collapses the chain around a terminal handler. Middleware is
// wrapped in reverse order so that middleware added first executes
// first.
func (c *Chain[M]) Then(handler Handler[M]) Handler[M] {
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		handler = wrap(c.middlewares[i], handler)
	}
	return handler
}

// Dispatch threads a message through the chain into the terminal
// handler, logging the outcome under a per-dispatch correlation id.
func (c *Chain[M]) Dispatch(m M, handler Handler[M]) (Result, error) {
	dispatchID := uuid.NewString()
	log := c.logger.With(zap.String("dispatch_id", dispatchID))
	log.Debug("dispatching", zap.Int("middleware", len(c.middlewares)))

	result, err := c.Then(handler)(m)
	switch {
	case err != nil:
		log.Debug("dispatch error propagated", zap.Error(err))
	case result.DidFail():
		log.Debug("dispatch failed", zap.Int("errors", len(result.Errors())))
	default:
		log.Debug("dispatch completed")
	}
	return result, err
}

func wrap[M any](m Middleware[M], next Handler[M]) Handler[M] {
	return func(msg M) (Result, error) {
		return m(msg, next)
	}
}
