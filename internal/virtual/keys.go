package virtual

import (
	"reflect"
	"strings"
)

// DefaultKeyField is the record field used for stable identity when none is configured.
const DefaultKeyField = "id"

// KeyFunc returns the identity a host reconciler uses to match an item across renders.
type KeyFunc[T any] func(item T, index int) any

// Keyer is implemented by items that know their own identity.
type Keyer interface {
	Key() any
}

// IndexKey identifies items by their absolute position.
func IndexKey[T any](_ T, index int) any {
	return index
}

// FieldKey identifies items by the named field: a map entry for
// map[string]any records, or an exported struct field matched by name or
// json tag. Items implementing Keyer use their own key. When the field is
// absent or nil the absolute index is used.
func FieldKey[T any](field string) KeyFunc[T] {
	return func(item T, index int) any {
		if key, ok := lookupKey(any(item), field); ok {
			return key
		}
		return index
	}
}

func lookupKey(v any, field string) (any, bool) {
	switch rec := v.(type) {
	case nil:
		return nil, false
	case Keyer:
		key := rec.Key()
		return key, key != nil
	case map[string]any:
		key, ok := rec[field]
		return key, ok && key != nil
	case map[string]string:
		key, ok := rec[field]
		return key, ok
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}

	fv, ok := structField(rv, field)
	if !ok {
		return nil, false
	}
	switch fv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		if fv.IsNil() {
			return nil, false
		}
	default:
	}
	return fv.Interface(), true
}

func structField(rv reflect.Value, field string) (reflect.Value, bool) {
	rt := rv.Type()
	for i := range rt.NumField() {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if tag == "-" {
			continue
		}
		if tag == field || strings.EqualFold(sf.Name, field) {
			return rv.Field(i), true
		}
	}
	return reflect.Value{}, false
}
