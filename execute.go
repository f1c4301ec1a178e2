package resolve

// The plan executor.  A plan is a straight-line program: because steps
// were emitted dependency-first and deduplicated by identity, walking
// them in order guarantees every step's inputs are already in the
// state table.  No scheduling, no parallelism; shared dependencies
// were already collapsed to a single step at build time.

import (
	"context"
	"fmt"
	"reflect"
)

// execute walks the plan against one invocation's value table and
// returns the target callable's computed arguments.  The target itself
// is not invoked; that is the caller's job (via BoundCall), so that
// the same resolved arguments can be handed to different call styles.
func (p *Plan) execute(ctx context.Context, values map[string]any) ([]reflect.Value, error) {
	state := make(map[string]reflect.Value, len(values)+len(p.steps))
	if p.ctxKey != "" {
		state[p.ctxKey] = reflect.ValueOf(ctx)
	}
	for k, v := range values {
		state[k] = reflect.ValueOf(v)
	}
	for _, s := range p.steps {
		args, err := s.args(state)
		if err != nil {
			return nil, err
		}
		if s.id == "" {
			return args, nil
		}
		out := s.c.call(args)
		if s.outErr && !out[1].IsNil() {
			return nil, fmt.Errorf("%s: %w", s.name, out[1].Interface().(error))
		}
		state[s.id] = out[0]
	}
	return nil, fmt.Errorf("internal error #1: plan for %s has no terminal step", p.target.name)
}

// args computes one step's call arguments from the current state.
func (s step) args(state map[string]reflect.Value) ([]reflect.Value, error) {
	args := make([]reflect.Value, len(s.c.params))
	for i, p := range s.c.params {
		if key, ok := s.ctx.keys[p.Name]; ok {
			v, found := state[key]
			if !found {
				return nil, fmt.Errorf("internal error #2: %s wants %q for parameter %s but no step stored it",
					s.name, key, p.Name)
			}
			args[i] = conform(v, p.Type)
			continue
		}
		if v, ok := s.ctx.constants[p.Name]; ok {
			args[i] = conform(v, p.Type)
			continue
		}
		return nil, fmt.Errorf("internal error #3: %s parameter %s has no binding",
			s.name, p.Name)
	}
	return args, nil
}

// conform adjusts a stored value so reflect.Call will accept it.
// Untyped nils (a nil in the caller's value map) become the
// parameter type's zero value; everything else is passed through and
// must be assignable.
func conform(v reflect.Value, t reflect.Type) reflect.Value {
	if !v.IsValid() {
		return reflect.Zero(t)
	}
	return v
}
