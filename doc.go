// Obligatory // comment

/*

Package resolve turns arbitrary handler functions into ready-to-call
closures by resolving each of the handler's parameters from a registry
of components.  It pre-computes an execution plan per handler, caches
that plan, and replays it cheaply on every invocation.

A component is a named capability that produces exactly one typed
value.  Its resolver is an ordinary function whose declared result type
is its contract.  A resolver's own parameters are resolved the same way
a handler's parameters are, so components can depend on other
components.

Known values

Some values do not come from components.  They are handed in per
invocation by the caller: the current request, the current route, the
raw payload, whatever the host application wants.  The injector is
constructed with a table mapping each such type to the key under which
the caller will supply it:

	in := resolve.NewInjector(
		resolve.Components{fooComponent, barComponent},
		resolve.Known[*Request]("request"),
	)

A handler parameter whose type appears in this table is satisfied
directly from the per-invocation value map and never triggers a
component lookup.

Plans

The first time a handler is injected, its signature is walked and a
plan is built: an ordered, deduplicated list of steps, dependencies
before dependents.  Each step has an identity derived from the
component's result type; a shared dependency appears once no matter
how many consumers it has.  The plan is cached by the handler's
identity and reused for every later invocation, so the registry scan
and the dependency walk happen once per distinct handler, not once per
request.

Executing a plan walks the steps in order, calling each resolver with
values already in the per-invocation state, storing each result under
the step's identity.  The final step is the handler itself; its
arguments are computed but it is not called.  Instead Inject returns a
*BoundCall, a partially-applied handler that the caller invokes
whenever and however it likes:

	call, err := in.Inject(ctx, handler, map[string]any{"request": req})
	if err != nil {
		...
	}
	out := call.Call()

Name-based dispatch

A resolver may declare a parameter of type resolve.Parameter.  It then
receives, at plan-build time, the descriptor of the parameter it is
resolving, and its step identity is specialized per parameter name.
That is how "the header named X" and "the header named Y" get separate
steps while two handlers that both want "the header named X" share one.
Go function signatures carry no parameter names, so handlers and
resolvers that care about names are wrapped with Named:

	in.Inject(ctx, resolve.Named(handler, "request", "token"), values)

Context

context.Context is a built-in known value.  Any resolver or handler
that declares a context.Context parameter receives the context passed
to Inject.  Resolvers that block should declare it.

Errors

Component misdeclarations (a resolver that declares no result type,
returns only an error, or returns more than a value and an error)
surface as *ComponentError from NewComponent, at registration.  A parameter that nothing can satisfy
surfaces as *ComponentNotFoundError while the plan is built, enriched
with the handler's name and, when the parameter belongs to a
component's resolver, the component's name.  A component that
transitively requires itself surfaces as *CircularDependencyError.
None of these can occur on a cache hit: a plan that built once cannot
fail to build again, because the registry is fixed at construction.

Resolver errors are different: a resolver with a trailing error result
that returns a non-nil error aborts execution of the plan and the
error propagates out of Inject.

*/
package resolve
