package resolve

import (
	"fmt"
	"reflect"
	"sync/atomic"
)

var componentCounter int32

// Component is a named capability that can produce exactly one typed
// value.  The resolver's declared result type is the contract: by
// default a component claims any parameter whose type equals it.
//
// A resolver may declare parameters of its own.  They are resolved
// recursively, exactly like a handler's parameters: from the known
// value table, from other components, or -- for a parameter of type
// Parameter -- from the descriptor of the parameter being resolved.
type Component struct {
	id       int32
	name     string
	resolver *callable
	matches  func(Parameter) bool // nil means the default type-equality predicate

	// derived at construction
	out        reflect.Type
	outErr     bool
	wantsParam bool
}

// ComponentOption annotates a component at construction time.
type ComponentOption func(*Component)

// WithName overrides the component's name.  The default is the
// resolver function's name.  The name appears in errors and plan
// dumps; it plays no part in matching.
func WithName(name string) ComponentOption {
	return func(c *Component) {
		c.name = name
	}
}

// WithPredicate replaces the default can-this-component-handle-this-
// parameter test (type equality against the resolver's result type).
// The resolver still must produce a value; the predicate only decides
// which parameters receive it.
func WithPredicate(matches func(Parameter) bool) ComponentOption {
	return func(c *Component) {
		c.matches = matches
	}
}

// NewComponent builds a Component around a resolver.  The resolver is
// a function (or Reflective) returning either one value or one value
// and an error.  Misdeclarations are rejected here, at registration,
// so that they cannot surface mid-request as mysterious match
// failures.
func NewComponent(resolver any, opts ...ComponentOption) (*Component, error) {
	ca, err := newCallable(resolver)
	if err != nil {
		return nil, &ComponentError{Reason: err.Error()}
	}
	c := &Component{
		id:       atomic.AddInt32(&componentCounter, 1),
		name:     ca.name,
		resolver: ca,
	}
	for _, opt := range opts {
		opt(c)
	}
	switch len(ca.results) {
	case 0:
		return nil, c.errorf("resolver declares no result type, must return (T) or (T, error)")
	case 1:
		if ca.results[0] == errorType {
			return nil, c.errorf("resolver returns only an error, must return (T) or (T, error)")
		}
		c.out = ca.results[0]
	case 2:
		if ca.results[1] != errorType || ca.results[0] == errorType {
			return nil, c.errorf("resolver must return (T) or (T, error), not (%s, %s)",
				ca.results[0], ca.results[1])
		}
		c.out = ca.results[0]
		c.outErr = true
	default:
		return nil, c.errorf("resolver returns %d values, at most 2 allowed", len(ca.results))
	}
	for _, p := range ca.params {
		if p.Type == parameterType {
			c.wantsParam = true
			break
		}
	}
	return c, nil
}

// MustComponent is a wrapper for NewComponent.  It panic()s if
// NewComponent returns error.
func MustComponent(resolver any, opts ...ComponentOption) *Component {
	c, err := NewComponent(resolver, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Component) String() string {
	if c.out != nil {
		return fmt.Sprintf("%s [%s]", c.name, getTypeCode(c.out))
	}
	return c.name
}

func (c *Component) errorf(format string, args ...any) *ComponentError {
	return &ComponentError{
		Component: c.name,
		Reason:    fmt.Sprintf(format, args...),
	}
}

// canHandle reports whether this component claims the parameter.
func (c *Component) canHandle(p Parameter) bool {
	if c.matches != nil {
		return c.matches(p)
	}
	return p.Type == c.out
}

// identity names "this component resolving for this parameter".  When
// the resolver wants to see the raw Parameter it is specialized per
// parameter name, so "header x" and "header y" get distinct steps
// while two consumers of "header x" share one.
func (c *Component) identity(p Parameter) string {
	base := c.baseIdentity()
	if c.wantsParam {
		return base + ":" + p.Name
	}
	return base
}

func (c *Component) baseIdentity() string {
	if c.matches == nil {
		return getTypeCode(c.out).id()
	}
	// predicate matching is not type-driven, so two predicate
	// components sharing a result type must not share steps
	return fmt.Sprintf("component#%d", c.id)
}

// Components is an ordered component registry.  Order is significant:
// the first component whose predicate accepts a parameter wins, and
// later components are simply unreachable for that parameter.
type Components []*Component

// Append returns a new registry with additional components.  The
// original is not modified.
func (cs Components) Append(more ...*Component) Components {
	n := make(Components, 0, len(cs)+len(more))
	n = append(n, cs...)
	n = append(n, more...)
	return n
}

func (cs Components) find(p Parameter) (*Component, bool) {
	for _, c := range cs {
		if c.canHandle(p) {
			return c, true
		}
	}
	return nil, false
}
