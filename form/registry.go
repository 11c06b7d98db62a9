package form

import (
	"math"
	"strconv"
	"strings"

	"github.com/Rach840/survey-frontend-sub000/model"
)

// ValueKind is the semantic shape a field type encodes on the wire.
type ValueKind int

const (
	KindText ValueKind = iota
	KindNumber
	KindBoolean
	KindDate
	KindList
)

type typeInfo struct {
	kind     ValueKind
	empty    func() any
	validate func(f model.TemplateField, raw any) string
}

var registry = map[model.FieldType]typeInfo{
	model.FieldText:           {KindText, emptyString, validateText},
	model.FieldSelectOne:      {KindText, emptyString, validateText},
	model.FieldNumber:         {KindNumber, emptyString, validateNumber},
	model.FieldDate:           {KindDate, emptyString, validateDate},
	model.FieldSelectMultiple: {KindList, emptyList, validateList},
	model.FieldCheckbox:       {KindBoolean, emptyBool, validateCheckbox},
}

// lookupType resolves a field type tag. Unknown tags degrade to text so a
// malformed template never blocks the whole form.
func lookupType(t model.FieldType) typeInfo {
	if info, ok := registry[t]; ok {
		return info
	}
	return registry[model.FieldText]
}

// Kind reports the value kind a field type encodes.
func Kind(t model.FieldType) ValueKind {
	return lookupType(t).kind
}

// EmptyValue returns the per-type default for an unanswered field.
func EmptyValue(t model.FieldType) any {
	return lookupType(t).empty()
}

// KnownType reports whether t is one of the supported field type tags.
func KnownType(t model.FieldType) bool {
	_, ok := registry[t]
	return ok
}

func emptyString() any { return "" }
func emptyBool() any   { return false }
func emptyList() any   { return []any{} }

// Coercion helpers shared by the validator and the answer builder. JSON
// decoding hands us float64 for every number, but state assembled in Go
// code may carry int variants as well.

func asString(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	}
	if n, ok := asNumber(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64), true
	}
	return "", false
}

func asNumber(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, !math.IsNaN(v)
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(n) {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func asBool(v any) (bool, bool) {
	switch v := v.(type) {
	case bool:
		return v, true
	}
	if n, ok := asNumber(v); ok && (n == 0 || n == 1) {
		return n == 1, true
	}
	return false, false
}

// asList accepts an array as-is and wraps a single string into a
// one-element list. Anything else is not list-shaped.
func asList(v any) ([]any, bool) {
	switch v := v.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	case string:
		return []any{v}, true
	}
	return nil, false
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
