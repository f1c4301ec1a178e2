package resolve

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

// ContextKey is the state-table key under which the per-invocation
// context.Context is stored unless the known-value table remaps it.
const ContextKey = "context"

// KnownValue maps a semantic category (a type) to the key under which
// the caller supplies that category's current value per invocation.
type KnownValue struct {
	Type reflect.Type
	Key  string
}

// Known builds the KnownValue entry for type T.
func Known[T any](key string) KnownValue {
	return KnownValue{
		Type: reflect.TypeOf((*T)(nil)).Elem(),
		Key:  key,
	}
}

// Injector is the outward-facing entry point.  It owns the component
// registry and the known-value table, both fixed at construction, and
// the plan cache, which grows monotonically and is bounded by the
// number of distinct handlers the application registers.
//
// An Injector is safe for concurrent use.  Each invocation gets its
// own state table; the plan cache is the only shared mutable state.
type Injector struct {
	components Components
	known      map[reflect.Type]string

	mu    sync.RWMutex
	plans map[any]*Plan
}

// NewInjector builds an Injector.  context.Context is always a known
// value; it defaults to ContextKey and can be remapped by passing an
// explicit entry for it.
func NewInjector(components Components, known ...KnownValue) *Injector {
	table := make(map[reflect.Type]string, len(known)+1)
	for _, kv := range known {
		table[kv.Type] = kv.Key
	}
	if _, ok := table[contextType]; !ok {
		table[contextType] = ContextKey
	}
	return &Injector{
		components: components,
		known:      table,
		plans:      make(map[any]*Plan),
	}
}

// Inject resolves fn's parameters and returns a ready-to-call
// partially-applied version of it.  values supplies the current
// known values, keyed as declared at construction.  The plan for fn is
// built on first use and cached; later calls replay it.
func (in *Injector) Inject(ctx context.Context, fn any, values map[string]any) (*BoundCall, error) {
	p, err := in.planFor(fn)
	if err != nil {
		return nil, err
	}
	args, err := p.execute(ctx, values)
	if err != nil {
		return nil, err
	}
	return &BoundCall{c: p.target, args: args}, nil
}

// MustInject is a wrapper for Inject.  It panic()s if Inject returns
// error.
func (in *Injector) MustInject(ctx context.Context, fn any, values map[string]any) *BoundCall {
	call, err := in.Inject(ctx, fn, values)
	if err != nil {
		panic(err)
	}
	return call
}

// Plan returns fn's plan, building and caching it if needed.  It is
// meant for inspection and debugging; Inject uses the same cache.
func (in *Injector) Plan(fn any) (*Plan, error) {
	return in.planFor(fn)
}

func (in *Injector) planFor(fn any) (*Plan, error) {
	key, err := planKey(fn)
	if err != nil {
		return nil, err
	}
	in.mu.RLock()
	p, ok := in.plans[key]
	in.mu.RUnlock()
	if ok {
		return p, nil
	}
	// A concurrent first use of the same handler can get here twice.
	// Both builds produce equivalent plans (building is a pure
	// function of the signature and the fixed registry) so the second
	// write is a harmless overwrite.
	c, err := newCallable(fn)
	if err != nil {
		return nil, err
	}
	p, err = in.buildPlan(c)
	if err != nil {
		return nil, err
	}
	in.mu.Lock()
	in.plans[key] = p
	in.mu.Unlock()
	return p, nil
}

// planKey computes the cache key for a callable.  Plain functions are
// keyed by code pointer: closures minted from the same code share a
// key, but they also share a signature, and a plan depends on nothing
// else, so the collision is harmless.
func planKey(fn any) (any, error) {
	switch v := fn.(type) {
	case nil:
		return nil, fmt.Errorf("cannot inject a nil callable")
	case *NamedFunc:
		return v, nil
	case Reflective:
		return v, nil
	}
	v := reflect.ValueOf(fn)
	if v.Type().Kind() != reflect.Func {
		return nil, fmt.Errorf("cannot inject %T: not a function", fn)
	}
	return funcKey(v.Pointer()), nil
}

// BoundCall is a partially-applied handler: the handler reference plus
// its fully resolved argument list.  It is the hand-off between the
// resolver and whatever transport actually invokes the handler.
type BoundCall struct {
	c    *callable
	args []reflect.Value
}

// Call invokes the handler with its resolved arguments and returns
// the raw results.
func (b *BoundCall) Call() []reflect.Value {
	return b.c.call(b.args)
}

// Kwargs returns the resolved arguments keyed by parameter name.
func (b *BoundCall) Kwargs() map[string]any {
	kw := make(map[string]any, len(b.args))
	for i, p := range b.c.params {
		if b.args[i].IsValid() {
			kw[p.Name] = b.args[i].Interface()
		} else {
			kw[p.Name] = nil
		}
	}
	return kw
}
