package list

import (
	"reflect"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type (
	// Info is the free-form metadata map attached to list elements. Values are
	// scalars, nested Info values or slices of either.
	Info map[string]any

	// InfoPatch describes a change to the info map of one list element.
	//
	// Replace, when non-nil, overwrites the whole map and Set and Delete are
	// ignored. Otherwise Set assigns individual keys and Delete removes them;
	// both may be given together.
	InfoPatch struct {
		Replace Info     `json:"replace,omitempty" yaml:"replace,omitempty"`
		Set     Info     `json:"set,omitempty" yaml:"set,omitempty"`
		Delete  []string `json:"delete,omitempty" yaml:"delete,omitempty"`
	}
)

var keyReplacer = strings.NewReplacer(".", "_", "$", "-")

// SanitizeKey rewrites characters that are not allowed in document field
// names: dots become underscores and dollar signs become dashes.
func SanitizeKey(k string) string {
	return keyReplacer.Replace(k)
}

// SanitizeFields returns a copy of v where every map or ordered document key,
// at any depth, has been passed through SanitizeKey. Ordered documents stay
// ordered. Values other than maps, documents and slices are returned
// unchanged.
func SanitizeFields(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case Info:
		return sanitizeMap(t)
	case Params:
		return sanitizeMap(t)
	case map[string]any:
		return sanitizeMap(t)
	case primitive.D:
		out := make(primitive.D, len(t))
		for i, e := range t {
			out[i] = primitive.E{Key: SanitizeKey(e.Key), Value: SanitizeFields(e.Value)}
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = SanitizeFields(e)
		}
		return out
	case string, []byte, bool, int, int32, int64, float64:
		return v
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(Info, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[SanitizeKey(iter.Key().String())] = SanitizeFields(iter.Value().Interface())
		}
		return out
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = SanitizeFields(rv.Index(i).Interface())
		}
		return out
	}
	return v
}

func sanitizeMap(m map[string]any) Info {
	out := make(Info, len(m))
	for k, v := range m {
		out[SanitizeKey(k)] = SanitizeFields(v)
	}
	return out
}

// DefaultSanitizer sanitizes with SanitizeFields.
var DefaultSanitizer Sanitizer = SanitizerFunc(SanitizeFields)
