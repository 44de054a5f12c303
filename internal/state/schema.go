package state

import "reflect"

// FieldKind constrains the value shape accepted for a schema field.
type FieldKind int

const (
	// KindAny accepts any value.
	KindAny FieldKind = iota
	// KindBool accepts booleans.
	KindBool
	// KindString accepts strings.
	KindString
	// KindInt accepts integer-valued numbers, including the float64 form a
	// JSON decode produces.
	KindInt
	// KindMap accepts any map.
	KindMap
	// KindList accepts any slice or array.
	KindList
)

// Schema declares the accepted top-level fields of a module document. Strict
// modules reject updates carrying undeclared keys; lax modules let them pass
// through unchecked.
type Schema struct {
	Fields map[string]FieldKind
	Strict bool
}

func (s Schema) validate(module string, partial Document) *ValidationError {
	for key, value := range partial {
		kind, declared := s.Fields[key]
		if !declared {
			if s.Strict {
				return &ValidationError{Module: module, Field: key, Reason: "is not a declared field"}
			}
			continue
		}
		if !kindMatches(kind, value) {
			return &ValidationError{Module: module, Field: key, Reason: "has the wrong shape"}
		}
	}
	return nil
}

// kindMatches checks a value against a field kind. A nil value clears the
// field and is accepted for every kind.
func kindMatches(kind FieldKind, value any) bool {
	if value == nil {
		return true
	}
	switch kind {
	case KindAny:
		return true
	case KindBool:
		_, ok := value.(bool)
		return ok
	case KindString:
		_, ok := value.(string)
		return ok
	case KindInt:
		switch value.(type) {
		case int, int8, int16, int32, int64, float64:
			return true
		}
		return false
	case KindMap:
		return reflect.ValueOf(value).Kind() == reflect.Map
	case KindList:
		k := reflect.ValueOf(value).Kind()
		return k == reflect.Slice || k == reflect.Array
	}
	return false
}
