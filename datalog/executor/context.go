package executor

import (
	"time"

	"github.com/wbrown/janus-dataflow/datalog/annotations"
	"github.com/wbrown/janus-dataflow/datalog/storage"
)

// Context provides clean annotation points for evaluation tracking.
type Context interface {
	// Compilation
	CompileComplete(start time.Time, relations, rules, facts int)

	// Query lifecycle
	QueryBegin(relation string, arity int, keys []storage.Constraint)
	QueryComplete(relation string, tupleCount int, err error)

	// Execution
	FactsSeeded(start time.Time, facts int, derived int64)

	// Propagation
	ExploreBegin(relation string, arity int, keys []storage.Constraint, rules int)
	ExploreMemoHit(relation string, arity int, keys []storage.Constraint)
	TupleDerived(relation string, t storage.Tuple)

	// Errors
	StoreError(relation string, err error)

	// Get underlying collector
	Collector() *annotations.Collector

	// Delivery: events recorded while the Network is locked are queued and
	// handed to the handler once the lock is released
	TakePending() []annotations.Event
	Deliver(events []annotations.Event)
}

// BaseContext provides a no-op implementation with zero overhead.
type BaseContext struct{}

// NewContext creates an appropriate context based on whether annotations are needed.
func NewContext(handler annotations.Handler) Context {
	if handler == nil {
		return &BaseContext{}
	}
	c := &AnnotatedContext{handler: handler}
	c.collector = annotations.NewCollector(c.enqueue)
	return c
}

// BaseContext implementations - all are no-ops

func (c *BaseContext) CompileComplete(start time.Time, relations, rules, facts int) {}

func (c *BaseContext) QueryBegin(relation string, arity int, keys []storage.Constraint) {}

func (c *BaseContext) QueryComplete(relation string, tupleCount int, err error) {}

func (c *BaseContext) FactsSeeded(start time.Time, facts int, derived int64) {}

func (c *BaseContext) ExploreBegin(relation string, arity int, keys []storage.Constraint, rules int) {
}

func (c *BaseContext) ExploreMemoHit(relation string, arity int, keys []storage.Constraint) {}

func (c *BaseContext) TupleDerived(relation string, t storage.Tuple) {}

func (c *BaseContext) StoreError(relation string, err error) {}

func (c *BaseContext) Collector() *annotations.Collector {
	return nil
}

func (c *BaseContext) TakePending() []annotations.Event { return nil }

func (c *BaseContext) Deliver(events []annotations.Event) {}

// AnnotatedContext provides full annotation tracking
type AnnotatedContext struct {
	BaseContext
	collector  *annotations.Collector
	handler    annotations.Handler
	pending    []annotations.Event
	queryStart time.Time
}

func (c *AnnotatedContext) enqueue(e annotations.Event) {
	c.pending = append(c.pending, e)
}

// TakePending returns the queued events and empties the queue
func (c *AnnotatedContext) TakePending() []annotations.Event {
	events := c.pending
	c.pending = nil
	return events
}

// Deliver passes events to the handler in order
func (c *AnnotatedContext) Deliver(events []annotations.Event) {
	for _, e := range events {
		c.handler(e)
	}
}

func (c *AnnotatedContext) CompileComplete(start time.Time, relations, rules, facts int) {
	c.collector.AddTiming(annotations.CompileComplete, start, map[string]interface{}{
		"relations.count": relations,
		"rules.count":     rules,
		"facts.count":     facts,
	})
}

func (c *AnnotatedContext) QueryBegin(relation string, arity int, keys []storage.Constraint) {
	c.queryStart = time.Now()
	c.collector.Add(annotations.Event{
		Name:  annotations.QueryInvoked,
		Start: c.queryStart,
		Data: map[string]interface{}{
			"relation": relation,
			"arity":    arity,
			"keys":     keyMap(keys),
		},
	})
}

func (c *AnnotatedContext) QueryComplete(relation string, tupleCount int, err error) {
	data := map[string]interface{}{
		"relation":     relation,
		"tuples.count": tupleCount,
		"success":      err == nil,
	}

	if err != nil {
		data["error"] = err.Error()
	}

	c.collector.AddTiming(annotations.QueryComplete, c.queryStart, data)
}

func (c *AnnotatedContext) FactsSeeded(start time.Time, facts int, derived int64) {
	c.collector.AddTiming(annotations.FactsSeeded, start, map[string]interface{}{
		"facts.count":   facts,
		"derived.count": int(derived),
	})
}

func (c *AnnotatedContext) ExploreBegin(relation string, arity int, keys []storage.Constraint, rules int) {
	c.collector.Add(annotations.Event{
		Name:  annotations.ExploreBegin,
		Start: time.Now(),
		Data: map[string]interface{}{
			"relation":    relation,
			"arity":       arity,
			"keys":        keyMap(keys),
			"rules.count": rules,
		},
	})
}

func (c *AnnotatedContext) ExploreMemoHit(relation string, arity int, keys []storage.Constraint) {
	c.collector.Add(annotations.Event{
		Name:  annotations.ExploreMemoHit,
		Start: time.Now(),
		Data: map[string]interface{}{
			"relation": relation,
			"arity":    arity,
			"keys":     keyMap(keys),
		},
	})
}

func (c *AnnotatedContext) TupleDerived(relation string, t storage.Tuple) {
	c.collector.Add(annotations.Event{
		Name:  annotations.TupleDerived,
		Start: time.Now(),
		Data: map[string]interface{}{
			"relation": relation,
			"tuple":    []string(t),
		},
	})
}

func (c *AnnotatedContext) StoreError(relation string, err error) {
	c.collector.Add(annotations.Event{
		Name:  annotations.ErrorStore,
		Start: time.Now(),
		Data: map[string]interface{}{
			"relation": relation,
			"error":    err.Error(),
		},
	})
}

func (c *AnnotatedContext) Collector() *annotations.Collector {
	return c.collector
}
