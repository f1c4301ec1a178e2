package resolve

// Step identities embed an interned per-type integer.  Type names alone
// would be ambiguous: reflectutils.TypeName drops package paths, so two
// packages can produce colliding names.  The integer disambiguates;
// the name is only there for humans reading plans and errors.

import (
	"reflect"
	"strconv"
	"sync"

	"github.com/muir/reflectutils"
)

type typeCode int

var (
	typeCounter = 0
	lock        sync.Mutex
	typeMap     = make(map[reflect.Type]typeCode)
	reverseMap  = make(map[typeCode]reflect.Type)
)

// getTypeCode maps reflect.Type to integers.
func getTypeCode(a any) typeCode {
	if a == nil {
		panic("nil has no type")
	}
	t, isType := a.(reflect.Type)
	if !isType {
		t = reflect.TypeOf(a)
	}
	lock.Lock()
	defer lock.Unlock()
	if tc, found := typeMap[t]; found {
		return tc
	}
	typeCounter++
	tc := typeCode(typeCounter)
	typeMap[t] = tc
	reverseMap[tc] = t
	return tc
}

// Type returns the reflect.Type for this typeCode
func (tc typeCode) Type() reflect.Type {
	lock.Lock()
	defer lock.Unlock()
	return reverseMap[tc]
}

func (tc typeCode) String() string {
	return reflectutils.TypeName(tc.Type())
}

// id is the form used inside step identities.
func (tc typeCode) id() string {
	return tc.String() + "#" + strconv.Itoa(int(tc))
}
