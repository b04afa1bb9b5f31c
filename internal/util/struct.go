package util

import (
	"reflect"

	"github.com/pkg/errors"
)

// IsStructInitialized reports whether every nillable field of the struct
// pointed to by s has been set. Fields tagged `wire:"-"` are still checked:
// callers are expected to run Ready only after manual initialization steps
// (such as router.Init) have completed.
func IsStructInitialized(s interface{}) error {
	v := reflect.ValueOf(s)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return errors.New("struct pointer is nil")
		}
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return errors.Errorf("expected struct, got %s", v.Kind())
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)

		switch field.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Chan, reflect.Func:
			if field.IsNil() {
				return errors.Errorf("field %q is not initialized", t.Field(i).Name)
			}
		default:
			// value types are always considered initialized
		}
	}

	return nil
}
