package config

import (
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"

	"github.com/nainya/assetlib/pkg/query"
)

// filterDecodeHook accepts a filter written as [field, condition, value]
// in addition to the field/condition/value mapping
func filterDecodeHook() mapstructure.DecodeHookFuncType {
	filterType := reflect.TypeOf(query.Filter{})

	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != filterType {
			return data, nil
		}
		if from.Kind() != reflect.Slice && from.Kind() != reflect.Array {
			return data, nil
		}

		parts := reflect.ValueOf(data)
		if parts.Len() != 3 {
			return nil, fmt.Errorf("filter %v: expected [field, condition, value], got %d elements", data, parts.Len())
		}

		field, ok := parts.Index(0).Interface().(string)
		if !ok {
			return nil, fmt.Errorf("filter %v: field must be a string", data)
		}
		condition, ok := parts.Index(1).Interface().(string)
		if !ok {
			return nil, fmt.Errorf("filter %v: condition must be a string", data)
		}

		return map[string]any{
			"field":     field,
			"condition": condition,
			"value":     parts.Index(2).Interface(),
		}, nil
	}
}
