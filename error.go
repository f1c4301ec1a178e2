package resolve

import (
	"strconv"
	"strings"
)

// ComponentError is a configuration error: a component was declared
// incorrectly.  It is returned by NewComponent, once, at registration;
// an application that ignores it has a registry with a component that
// can never work.
type ComponentError struct {
	Component string
	Reason    string
}

func (e *ComponentError) Error() string {
	if e.Component == "" {
		return "resolve: invalid component: " + e.Reason
	}
	return "resolve: invalid component " + e.Component + ": " + e.Reason
}

// ComponentNotFoundError is raised while building a plan when a
// parameter is not in the known-value table, carries no default, and
// no component in the registry claims it.  It never comes out of a
// cached plan: the registry is fixed after construction, so a plan
// that built once will build forever.
//
// Parameter is always set.  Function is the handler whose plan was
// being built.  Component is set when the unresolvable parameter
// belongs to a component's resolver rather than to the handler itself.
type ComponentNotFoundError struct {
	Parameter string
	Type      string
	Function  string
	Component string
}

func (e *ComponentNotFoundError) Error() string {
	var buf strings.Builder
	buf.WriteString("resolve: no component found for parameter ")
	buf.WriteString(strconv.Quote(e.Parameter))
	if e.Type != "" {
		buf.WriteString(" (" + e.Type + ")")
	}
	if e.Component != "" {
		buf.WriteString(" of component " + e.Component)
	}
	if e.Function != "" {
		buf.WriteString(" while building plan for " + e.Function)
	}
	return buf.String()
}

// CircularDependencyError is raised while building a plan when a
// component transitively requires its own output.  Without this check
// the build would either recurse forever or emit a plan whose early
// steps read state that no step has written yet.
type CircularDependencyError struct {
	Identity  string
	Component string
	Parameter string
	Function  string
}

func (e *CircularDependencyError) Error() string {
	var buf strings.Builder
	buf.WriteString("resolve: circular dependency on " + e.Identity)
	if e.Component != "" {
		buf.WriteString(" via component " + e.Component)
	}
	if e.Parameter != "" {
		buf.WriteString(" (parameter " + strconv.Quote(e.Parameter) + ")")
	}
	if e.Function != "" {
		buf.WriteString(" while building plan for " + e.Function)
	}
	return buf.String()
}
