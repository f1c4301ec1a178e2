package resolve

import (
	"reflect"
)

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// request stands in for whatever the transport layer would hand over
// per invocation.
type request struct {
	id      string
	headers map[string]string
}

func requestValues(r *request) map[string]any {
	return map[string]any{"request": r}
}
