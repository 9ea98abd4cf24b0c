// ABOUTME: Query matching against item field maps
// ABOUTME: Queries combine with AND; filters combine per query operator

package query

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Matches reports whether fields satisfies every query. Queries without
// filters are skipped. Within a query, "or" stops at the first matching
// filter and "and" at the first failing one.
func Matches(fields map[string]any, queries []Query) bool {
	for _, q := range queries {
		if len(q.Filters) == 0 {
			continue
		}
		if !matchQuery(fields, q) {
			return false
		}
	}
	return true
}

func matchQuery(fields map[string]any, q Query) bool {
	match := false
	op := q.Op()
	for _, f := range q.Filters {
		match = matchFilter(fields, f)
		if op == OperatorOr && match {
			break
		}
		if op == OperatorAnd && !match {
			break
		}
	}
	return match
}

func matchFilter(fields map[string]any, f Filter) bool {
	var value any
	if f.Field == AllFields {
		data, err := json.Marshal(fields)
		if err != nil {
			return false
		}
		value = string(data)
	} else {
		value = fields[f.Field]
	}

	if IsFalsy(value) {
		return false
	}

	have := strings.ToLower(Stringify(value))
	want := strings.ToLower(Stringify(f.Value))

	switch f.Condition {
	case Contains:
		return strings.Contains(have, want)
	case NotContains:
		return !strings.Contains(have, want)
	case Is:
		return have == want
	case Not:
		return have != want
	case StartsWith:
		return strings.HasPrefix(have, want)
	}
	return false
}

// IsFalsy reports whether v is missing, empty, zero or false
func IsFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return rv.IsZero()
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Stringify formats a field or filter value for comparison
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
