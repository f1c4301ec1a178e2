package resolve

// Callables must be described before they can be resolved.  This file
// extracts signatures.  Reflection happens here, once per callable;
// the plan builder and executor operate on the extracted form only.

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strconv"
	"strings"

	"github.com/muir/reflectutils"
)

// Parameter is a read-only description of one named, typed input to a
// callable.  Parameters extracted from plain Go functions have
// synthesized names ("arg0", "arg1", ...) because Go reflection does
// not expose parameter names; use Named to supply real ones.
type Parameter struct {
	Name string
	Type reflect.Type

	// Default is the parameter's declared default value.  The zero
	// (invalid) reflect.Value means the parameter has no default,
	// which is not the same as a default of nil.
	Default reflect.Value
}

// HasDefault reports whether the parameter declares a default value.
func (p Parameter) HasDefault() bool {
	return p.Default.IsValid()
}

func (p Parameter) String() string {
	if p.Type == nil {
		return p.Name
	}
	return p.Name + " " + reflectutils.TypeName(p.Type)
}

// Reflective is an alternative to providing a function.  A Reflective
// simulates being a callable without being one.  Implementations must
// be comparable (plan caching uses the Reflective itself as the cache
// key).
type Reflective interface {
	NumIn() int
	In(i int) Parameter

	// Out is the declared result type, or nil when the callable
	// does not produce a value.
	Out() reflect.Type

	Call(in []reflect.Value) []reflect.Value
}

var (
	parameterType = reflect.TypeOf(Parameter{})
	contextType   = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType     = reflect.TypeOf((*error)(nil)).Elem()
)

// callable is the extracted form of a handler or resolver.  Everything
// downstream of signature extraction works from this struct.
type callable struct {
	name    string
	params  []Parameter
	results []reflect.Type
	call    func([]reflect.Value) []reflect.Value
	key     any
}

type funcKey uintptr

func newCallable(fn any) (*callable, error) {
	if fn == nil {
		return nil, fmt.Errorf("cannot resolve a nil callable")
	}
	if n, ok := fn.(*NamedFunc); ok {
		return n.callable(), nil
	}
	if r, ok := fn.(Reflective); ok {
		return reflectiveCallable(r), nil
	}
	v := reflect.ValueOf(fn)
	if v.Type().Kind() != reflect.Func {
		return nil, fmt.Errorf("%T is not a function", fn)
	}
	if v.Type().IsVariadic() {
		return nil, fmt.Errorf("%s is variadic, variadic callables are not supported", funcName(v))
	}
	return &callable{
		name:    funcName(v),
		params:  funcParams(v.Type(), nil),
		results: funcResults(v.Type()),
		call:    v.Call,
		key:     funcKey(v.Pointer()),
	}, nil
}

func reflectiveCallable(r Reflective) *callable {
	params := make([]Parameter, r.NumIn())
	for i := range params {
		params[i] = r.In(i)
	}
	var results []reflect.Type
	if out := r.Out(); out != nil {
		results = []reflect.Type{out}
	}
	name := fmt.Sprintf("%T", r)
	if s, ok := r.(fmt.Stringer); ok {
		name = s.String()
	}
	return &callable{
		name:    name,
		params:  params,
		results: results,
		call:    r.Call,
		key:     r,
	}
}

func funcParams(t reflect.Type, names []string) []Parameter {
	params := make([]Parameter, t.NumIn())
	for i := range params {
		name := "arg" + strconv.Itoa(i)
		if i < len(names) {
			name = names[i]
		}
		params[i] = Parameter{
			Name: name,
			Type: t.In(i),
		}
	}
	return params
}

func funcResults(t reflect.Type) []reflect.Type {
	results := make([]reflect.Type, t.NumOut())
	for i := range results {
		results[i] = t.Out(i)
	}
	return results
}

func funcName(v reflect.Value) string {
	if f := runtime.FuncForPC(v.Pointer()); f != nil {
		name := f.Name()
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
		return name
	}
	return v.Type().String()
}

// NamedFunc wraps a function with explicit parameter names (and,
// optionally, defaults).  It keeps the function's full result list, so
// unlike a hand-written Reflective it can wrap resolvers that return
// (T, error).  Build one with Named.
type NamedFunc struct {
	fn     reflect.Value
	name   string
	params []Parameter
}

// Named gives real names to a function's parameters.  The number of
// names must match the function's arity.  Named panics on
// misdeclaration: it runs at application construction, where failing
// loudly beats failing at request time.
func Named(fn any, names ...string) *NamedFunc {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Type().Kind() != reflect.Func {
		panic(fmt.Sprintf("resolve.Named: %T is not a function", fn))
	}
	if v.Type().IsVariadic() {
		panic(fmt.Sprintf("resolve.Named: %s is variadic", funcName(v)))
	}
	if len(names) != v.Type().NumIn() {
		panic(fmt.Sprintf("resolve.Named: %s takes %d parameters, %d names given",
			funcName(v), v.Type().NumIn(), len(names)))
	}
	params := funcParams(v.Type(), names)
	// duplicate names are allowed (both parameters then resolve from
	// the same step) but only when the types agree
	byName := make(map[string]reflect.Type, len(params))
	for _, p := range params {
		if prev, dup := byName[p.Name]; dup && prev != p.Type {
			panic(fmt.Sprintf("resolve.Named: %s declares parameter %q as both %s and %s",
				funcName(v), p.Name, prev, p.Type))
		}
		byName[p.Name] = p.Type
	}
	return &NamedFunc{
		fn:     v,
		name:   funcName(v),
		params: params,
	}
}

// Default declares a default value for one of the named parameters.
// The parameter is silently skipped at resolution time if nothing can
// otherwise satisfy it; the default is used instead of raising
// ComponentNotFoundError.
func (n *NamedFunc) Default(name string, value any) *NamedFunc {
	found := false
	for i, p := range n.params {
		if p.Name != name {
			continue
		}
		v := reflect.ValueOf(value)
		if !v.IsValid() {
			v = reflect.Zero(p.Type)
		}
		if !v.Type().AssignableTo(p.Type) {
			panic(fmt.Sprintf("resolve.Named: default for %s is %s, want %s",
				name, v.Type(), p.Type))
		}
		n.params[i].Default = v
		found = true
	}
	if !found {
		panic(fmt.Sprintf("resolve.Named: %s has no parameter %q", n.name, name))
	}
	return n
}

func (n *NamedFunc) String() string { return n.name }

func (n *NamedFunc) callable() *callable {
	params := make([]Parameter, len(n.params))
	copy(params, n.params)
	return &callable{
		name:    n.name,
		params:  params,
		results: funcResults(n.fn.Type()),
		call:    n.fn.Call,
		key:     n,
	}
}
