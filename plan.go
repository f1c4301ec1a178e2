package resolve

// The plan builder.  Given a callable it produces a Plan: a linear,
// deduplicated list of steps, dependencies strictly before dependents,
// ending with a terminal step for the callable itself.  Building walks
// the component graph depth-first; executing (execute.go) is a flat
// loop.  All the expensive work happens here, once per distinct
// callable.

import (
	"errors"
	"reflect"

	"github.com/muir/reflectutils"
)

// step is one entry in a plan.  id is empty only for the terminal
// step, the one that stands for the target callable; the terminal
// step's arguments are computed but its callable is not invoked by the
// executor.  name is the owning component's name for component steps
// and the callable's own name for the terminal step; it is what dumps
// and errors print.
type step struct {
	id     string
	name   string
	c      *callable
	ctx    stepContext
	outErr bool
}

// stepContext binds a step's parameters.  keys maps a parameter name
// to the state-table slot to read at execution time; constants maps a
// parameter name to a value fixed at build time (the Parameter
// descriptor, or a declared default).
type stepContext struct {
	keys      map[string]string
	constants map[string]reflect.Value
}

func keyBinding(name, key string) stepContext {
	return stepContext{keys: map[string]string{name: key}}
}

func constBinding(name string, v reflect.Value) stepContext {
	return stepContext{constants: map[string]reflect.Value{name: v}}
}

// merge unions two contexts, later entries winning on collision.
// Colliding entries come only from same-named parameters of one
// callable, which Named requires to share a type, so the overwrite is
// harmless.
func (sc stepContext) merge(o stepContext) stepContext {
	out := stepContext{}
	for _, src := range []stepContext{sc, o} {
		for k, v := range src.keys {
			if out.keys == nil {
				out.keys = make(map[string]string)
			}
			out.keys[k] = v
		}
		for k, v := range src.constants {
			if out.constants == nil {
				out.constants = make(map[string]reflect.Value)
			}
			out.constants[k] = v
		}
	}
	return out
}

// Plan is the pre-computed resolution program for one callable.  It is
// immutable once built and is cached for the lifetime of the injector
// that built it.
type Plan struct {
	steps  []step
	target *callable
	ctxKey string
}

// Target returns the name of the callable the plan was built for.
func (p *Plan) Target() string {
	return p.target.name
}

// Len returns the number of steps, the terminal step included.
func (p *Plan) Len() int {
	return len(p.steps)
}

type planBuilder struct {
	in       *Injector
	seen     map[string]struct{}
	building map[string]struct{}
}

func (in *Injector) buildPlan(c *callable) (*Plan, error) {
	b := &planBuilder{
		in:       in,
		seen:     make(map[string]struct{}, len(in.known)),
		building: make(map[string]struct{}),
	}
	// known-value keys are pre-seeded: anything stored under them is
	// already in the state table, no step may claim their slot
	for _, key := range in.known {
		b.seen[key] = struct{}{}
	}
	steps, err := b.resolveCallable(c, "", nil, nil)
	if err != nil {
		// error enrichment, not recovery
		var notFound *ComponentNotFoundError
		if errors.As(err, &notFound) && notFound.Function == "" {
			notFound.Function = c.name
		}
		var circular *CircularDependencyError
		if errors.As(err, &circular) && circular.Function == "" {
			circular.Function = c.name
		}
		return nil, err
	}
	return &Plan{
		steps:  steps,
		target: c,
		ctxKey: in.known[contextType],
	}, nil
}

// resolveCallable resolves every parameter of c in declaration order
// and appends the step for c itself.  id is empty for the target
// callable and a step identity for a component resolver.  owner is
// the component c resolves for, nil for the target callable; parent
// is the parameter the enclosing component is resolving, if any.
func (b *planBuilder) resolveCallable(c *callable, id string, owner *Component, parent *Parameter) ([]step, error) {
	var steps []step
	merged := stepContext{}
	for _, p := range c.params {
		depSteps, ctx, err := b.resolveParameter(p, parent)
		if err != nil {
			return nil, err
		}
		steps = append(steps, depSteps...)
		merged = merged.merge(ctx)
	}
	name := c.name
	outErr := false
	if owner != nil {
		name = owner.name
		outErr = owner.outErr
	}
	return append(steps, step{
		id:     id,
		name:   name,
		c:      c,
		ctx:    merged,
		outErr: outErr,
	}), nil
}

// resolveParameter produces the steps (possibly none) and the binding
// for one parameter.  Resolution order: known-value table, the raw
// Parameter descriptor, the component registry, the parameter's
// declared default.
func (b *planBuilder) resolveParameter(p Parameter, parent *Parameter) ([]step, stepContext, error) {
	if key, ok := b.in.known[p.Type]; ok {
		return nil, keyBinding(p.Name, key), nil
	}
	if p.Type == parameterType {
		// hand the enclosing parameter to the resolver so it can
		// dispatch on the name
		var enclosing Parameter
		if parent != nil {
			enclosing = *parent
		}
		return nil, constBinding(p.Name, reflect.ValueOf(enclosing)), nil
	}
	comp, ok := b.in.components.find(p)
	if !ok {
		if p.HasDefault() {
			return nil, constBinding(p.Name, p.Default), nil
		}
		notFound := &ComponentNotFoundError{Parameter: p.Name}
		if p.Type != nil {
			notFound.Type = reflectutils.TypeName(p.Type)
		}
		return nil, stepContext{}, notFound
	}
	id := comp.identity(p)
	binding := keyBinding(p.Name, id)
	if _, done := b.seen[id]; done {
		// already planned earlier in this build; the value will be in
		// the state table by the time this step runs
		return nil, binding, nil
	}
	if _, busy := b.building[id]; busy {
		return nil, stepContext{}, &CircularDependencyError{
			Identity:  id,
			Component: comp.name,
			Parameter: p.Name,
		}
	}
	b.building[id] = struct{}{}
	steps, err := b.resolveCallable(comp.resolver, id, comp, &p)
	delete(b.building, id)
	if err != nil {
		var notFound *ComponentNotFoundError
		if errors.As(err, &notFound) && notFound.Component == "" {
			notFound.Component = comp.name
		}
		return nil, stepContext{}, err
	}
	b.seen[id] = struct{}{}
	return steps, binding, nil
}
