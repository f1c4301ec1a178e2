package resolve

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type session struct{ user string }

func TestContextIsBuiltInKnownValue(t *testing.T) {
	type ctxKeyType struct{}
	sessComp := MustComponent(func(ctx context.Context) *session {
		user, _ := ctx.Value(ctxKeyType{}).(string)
		return &session{user: user}
	})
	in := NewInjector(Components{sessComp})

	ctx := context.WithValue(context.Background(), ctxKeyType{}, "ada")
	call, err := in.Inject(ctx, func(s *session) string { return s.user }, nil)
	require.NoError(t, err)
	assert.Equal(t, "ada", call.Call()[0].Interface())
}

func TestContextReachesHandlerToo(t *testing.T) {
	in := NewInjector(nil)
	call, err := in.Inject(context.Background(), func(ctx context.Context) bool {
		return ctx != nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, true, call.Call()[0].Interface())
}

// Blocking and non-blocking resolvers mix freely; execution order is
// the plan order either way.
func TestExecutionOrderWithMixedResolvers(t *testing.T) {
	type a struct{}
	type b struct{}
	type c struct{}

	var order []string
	in := NewInjector(Components{
		MustComponent(func(ctx context.Context) *a {
			order = append(order, "a")
			return &a{}
		}),
		MustComponent(func(*a) *b {
			order = append(order, "b")
			return &b{}
		}),
		MustComponent(func(ctx context.Context, _ *b) (*c, error) {
			order = append(order, "c")
			return &c{}, nil
		}),
	})

	_, err := in.Inject(context.Background(), func(*c) {}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestResolverErrorAbortsExecution(t *testing.T) {
	type a struct{}
	type b struct{}

	boom := errors.New("boom")
	ran := false
	in := NewInjector(Components{
		MustComponent(func() (*a, error) { return nil, boom }, WithName("failing")),
		MustComponent(func(*a) *b { ran = true; return &b{} }),
	})

	_, err := in.Inject(context.Background(), func(*b) {}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "failing", "the component name, not the resolver's, is reported")
	assert.False(t, ran, "downstream steps do not run after a resolver error")
}

type header string

func TestNameBasedDispatch(t *testing.T) {
	calls := 0
	headerComp := MustComponent(func(p Parameter, r *request) header {
		calls++
		return header(r.headers[p.Name])
	}, WithName("headerComp"))
	in := NewInjector(Components{headerComp}, Known[*request]("request"))

	handler := Named(func(token, accept header) string {
		return string(token) + "/" + string(accept)
	}, "x_token", "accept")

	req := &request{headers: map[string]string{
		"x_token": "secret",
		"accept":  "json",
	}}
	call, err := in.Inject(context.Background(), handler, requestValues(req))
	require.NoError(t, err)
	assert.Equal(t, "secret/json", call.Call()[0].Interface())
	assert.Equal(t, 2, calls, "one step per distinct parameter name")

	p, err := in.Plan(handler)
	require.NoError(t, err)
	ids := p.Identities()
	require.Len(t, ids, 2)
	assert.NotEqual(t, ids[0], ids[1])
}

func TestNameBasedStepsSharedAcrossCallSites(t *testing.T) {
	calls := 0
	headerComp := MustComponent(func(p Parameter, r *request) header {
		calls++
		return header(r.headers[p.Name])
	})
	in := NewInjector(Components{headerComp}, Known[*request]("request"))

	handler := Named(func(x, alsoX header) string {
		return string(x) + string(alsoX)
	}, "x", "x")

	// both parameters are named "x": one step, resolved once
	req := &request{headers: map[string]string{"x": "v"}}
	call, err := in.Inject(context.Background(), handler, requestValues(req))
	require.NoError(t, err)
	assert.Equal(t, "vv", call.Call()[0].Interface())
	assert.Equal(t, 1, calls)
}

func TestDefaultedParameterFallback(t *testing.T) {
	in := NewInjector(nil)
	handler := Named(func(limit int) int { return limit }, "limit").Default("limit", 25)
	call, err := in.Inject(context.Background(), handler, nil)
	require.NoError(t, err)
	assert.Equal(t, 25, call.Call()[0].Interface())
	assert.Equal(t, 25, call.Kwargs()["limit"])
}

func TestDefaultDoesNotShadowComponents(t *testing.T) {
	in := NewInjector(Components{
		MustComponent(func() int { return 99 }),
	})
	handler := Named(func(limit int) int { return limit }, "limit").Default("limit", 25)
	call, err := in.Inject(context.Background(), handler, nil)
	require.NoError(t, err)
	assert.Equal(t, 99, call.Call()[0].Interface(), "a matching component beats the default")
}

func TestNilKnownValue(t *testing.T) {
	in := NewInjector(nil, Known[error]("exception"))
	handler := func(err error) bool { return err == nil }

	call, err := in.Inject(context.Background(), handler, map[string]any{"exception": nil})
	require.NoError(t, err)
	assert.Equal(t, true, call.Call()[0].Interface())

	call, err = in.Inject(context.Background(), handler, map[string]any{"exception": errors.New("x")})
	require.NoError(t, err)
	assert.Equal(t, false, call.Call()[0].Interface())
}

func TestNamedValidation(t *testing.T) {
	require.Panics(t, func() { Named(42, "x") })
	require.Panics(t, func() { Named(func(int) {}, "a", "b") })
	require.Panics(t, func() { Named(func(int) {}, "a").Default("b", 1) })
	require.Panics(t, func() { Named(func(int) {}, "a").Default("a", "wrong type") })
	require.Panics(t, func() { Named(func(int, string) {}, "x", "x") })
	require.NotPanics(t, func() { Named(func(int, int) {}, "x", "x") })
}

func TestMustInject(t *testing.T) {
	in := NewInjector(nil)
	require.Panics(t, func() {
		in.MustInject(context.Background(), func(*bar) {}, nil)
	})
	require.NotPanics(t, func() {
		in.MustInject(context.Background(), func() {}, nil)
	})
}

func TestInjectRejectsNonFunctions(t *testing.T) {
	in := NewInjector(nil)
	_, err := in.Inject(context.Background(), 42, nil)
	require.Error(t, err)
	_, err = in.Inject(context.Background(), nil, nil)
	require.Error(t, err)
}

func TestKnownValueRemapsContextKey(t *testing.T) {
	in := NewInjector(nil, KnownValue{Type: typeOf[context.Context](), Key: "ctx"})
	call, err := in.Inject(context.Background(), func(ctx context.Context) bool {
		return ctx != nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, true, call.Call()[0].Interface())
}

// fixedReflective simulates a callable producing a fixed value.
type fixedReflective struct {
	out reflect.Type
	v   any
}

func (f *fixedReflective) NumIn() int         { return 0 }
func (f *fixedReflective) In(i int) Parameter { panic("no inputs") }
func (f *fixedReflective) Out() reflect.Type  { return f.out }
func (f *fixedReflective) String() string     { return fmt.Sprintf("fixed[%s]", f.out) }

func (f *fixedReflective) Call([]reflect.Value) []reflect.Value {
	return []reflect.Value{reflect.ValueOf(f.v)}
}

func TestReflectiveResolver(t *testing.T) {
	comp, err := NewComponent(&fixedReflective{out: typeOf[*session](), v: &session{user: "kay"}})
	require.NoError(t, err)
	in := NewInjector(Components{comp})

	call, err := in.Inject(context.Background(), func(s *session) string { return s.user }, nil)
	require.NoError(t, err)
	assert.Equal(t, "kay", call.Call()[0].Interface())
}

func TestCachedPlans(t *testing.T) {
	in := NewInjector(Components{
		MustComponent(func() *foo { return &foo{} }),
	})
	assert.Empty(t, in.CachedPlans())
	_, err := in.Inject(context.Background(), Named(func(f *foo) {}, "f"), nil)
	require.NoError(t, err)
	assert.Len(t, in.CachedPlans(), 1)
}
