// Package failfast holds panic helpers for wiring mistakes that must surface
// at construction time rather than on the first request.
package failfast

import (
	"fmt"
	"reflect"
)

// If panics unless condition holds.
func If(condition bool, message string, args ...interface{}) {
	if !condition {
		panic(fmt.Errorf("fail-fast: "+message, args...))
	}
}

// NotNil panics if v is nil, including typed nil pointers, maps, funcs and interfaces.
func NotNil(v interface{}, name string) {
	if v == nil {
		panic(fmt.Errorf("fail-fast: %s is nil", name))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Func, reflect.Map, reflect.Interface, reflect.Chan, reflect.Slice:
		if rv.IsNil() {
			panic(fmt.Errorf("fail-fast: %s is nil", name))
		}
	}
}
