// Package registry implements the process-wide lookup table mapping a
// resource schema identity to its query-handler identity. Resolution
// prefers manual registrations, then a naming convention, then a
// configurable default, and memoizes every answer for the life of the
// process.
package registry

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Resolver maps schema identities to query-handler identities. Reads
// are safe for concurrent use; registration and default changes are
// intended for process startup and test setup.
type Resolver struct {
	mu            sync.RWMutex
	logger        *zap.Logger
	manual        map[string]string
	known         map[string]struct{}
	cache         map[string]string
	defaultTarget string
}

// New creates an empty resolver. A nil logger disables logging.
func New(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		logger: logger,
		manual: make(map[string]string),
		known:  make(map[string]struct{}),
		cache:  make(map[string]string),
	}
}

// Declare records handler identities that exist in the process. Both
// manual registration and the naming convention only resolve to
// declared targets.
func (r *Resolver) Declare(targets ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, target := range targets {
		r.known[target] = struct{}{}
	}
}

// Register binds a schema identity to a handler identity. Binding an
// undeclared target is a misconfiguration and fails at registration
// time rather than at first use.
func (r *Resolver) Register(schema, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.known[target]; !ok {
		return fmt.Errorf("registry: cannot register %q: target %q has not been declared", schema, target)
	}

	r.manual[schema] = target
	delete(r.cache, schema)
	r.logger.Debug("registered query handler",
		zap.String("schema", schema),
		zap.String("target", target),
	)
	return nil
}

// SetDefault sets the fallback handler identity returned when neither a
// manual registration nor the naming convention resolves a schema.
func (r *Resolver) SetDefault(target string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultTarget = target
	r.cache = make(map[string]string)
}

// Resolve returns the handler identity for a schema identity. The
// answer is memoized. Resolution order: manual registration, then the
// naming convention (a trailing "Schema" suffix replaced by "Resource",
// accepted only when that target was declared), then the default. The
// second return value is false when nothing resolves.
func (r *Resolver) Resolve(schema string) (string, bool) {
	r.mu.RLock()
	if target, ok := r.cache[schema]; ok {
		r.mu.RUnlock()
		return target, true
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another goroutine may have resolved it between the locks; the
	// computation is idempotent either way.
	if target, ok := r.cache[schema]; ok {
		return target, true
	}

	target, ok := r.resolveLocked(schema)
	if ok {
		r.cache[schema] = target
	}
	return target, ok
}

func (r *Resolver) resolveLocked(schema string) (string, bool) {
	if target, ok := r.manual[schema]; ok {
		return target, true
	}

	if strings.HasSuffix(schema, "Schema") {
		guess := strings.TrimSuffix(schema, "Schema") + "Resource"
		if _, ok := r.known[guess]; ok {
			return guess, true
		}
	}

	if r.defaultTarget != "" {
		return r.defaultTarget, true
	}
	return "", false
}

// Reset clears every registration, declaration, memoized answer, and
// the default. Intended for test isolation.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manual = make(map[string]string)
	r.known = make(map[string]struct{})
	r.cache = make(map[string]string)
	r.defaultTarget = ""
}

var (
	instanceMu sync.Mutex
	instance   *Resolver
)

// Instance returns the process-wide resolver, creating it on first use.
func Instance() *Resolver {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	if instance == nil {
		instance = New(nil)
	}
	return instance
}

// SetInstance replaces the process-wide resolver, primarily for test
// isolation.
func SetInstance(r *Resolver) {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	instance = r
}

// UseDefault discards any replacement; the next Instance call returns a
// fresh resolver.
func UseDefault() {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	instance = nil
}
