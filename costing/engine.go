/*
Package costing prices offerings from their staffing graph.

PURPOSE:

	Given an offering, walk offering -> activities -> WBS nodes -> staffing
	assignments, look up the rate card of each staffing role and add up
	hours, cost and sale price. Also owns the three writes whose correctness
	depends on atomic conditional writes: assignment upsert, rate card
	creation and staffing role create-or-reuse.

OPERATIONS:

	ResolveOfferingStaffing  traversal.go  offering -> staffing rows
	ResolveRate              rates.go      staffing role -> rate card
	AggregateOfferingCost    aggregate.go  offering -> totals + breakdown
	AssignStaffingToNode     mutation.go   upsert (node, role) hours
	CreateRateCard           mutation.go   unique rate card per role
	CreateStaffingRole       mutation.go   create-or-reuse natural key

SESSIONS:

	Every operation opens exactly one session on the SessionStore. Reads use
	WithReadTx so a cost summary is computed from one snapshot; writes use
	WithTx. The engine itself keeps no state between calls.

SEE ALSO:
  - catalog/store.go: SessionStore contract
  - store/sqlstore: SQL implementation
  - api/handlers.go: HTTP surface
*/
package costing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/warp/solution-configurator/catalog"
	"github.com/warp/solution-configurator/logger"
)

const tracerName = "github.com/warp/solution-configurator/costing"

// Engine runs costing operations against a SessionStore.
type Engine struct {
	store  catalog.SessionStore
	log    *logger.Logger
	tracer trace.Tracer
	newID  func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. Defaults to a no-op logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l.With("component", "costing")
		}
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithIDGenerator overrides identifier generation for new records.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// NewEngine creates an engine over the given store.
func NewEngine(store catalog.SessionStore, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		log:    logger.Nop(),
		tracer: otel.Tracer(tracerName),
		newID:  catalog.NewID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
