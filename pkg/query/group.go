// ABOUTME: Single-level grouping of items by one field
// ABOUTME: Group keys are ordered by the token's direction

package query

import (
	"slices"
	"strings"

	"github.com/nainya/assetlib/pkg/item"
)

// NoGroup is the key of the single group returned for an empty spec
const NoGroup = "None"

// Groups is an ordered map of group key to items
type Groups struct {
	Keys  []string
	Items map[string][]*item.Item
}

// Len returns the number of groups
func (g *Groups) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Keys)
}

// Get returns the items in group key
func (g *Groups) Get(key string) []*item.Item {
	if g == nil {
		return nil
	}
	return g.Items[key]
}

// GroupItems groups items by the first token of spec only. Items whose
// value for the field is falsy are left out. With an empty spec all items
// are returned in a single NoGroup group.
func GroupItems(items []*item.Item, spec []string) *Groups {
	if len(spec) == 0 {
		return &Groups{
			Keys:  []string{NoGroup},
			Items: map[string][]*item.Item{NoGroup: items},
		}
	}

	tok := ParseToken(spec[0])
	groups := &Groups{Items: make(map[string][]*item.Item)}
	values := make(map[string]any)
	for _, it := range items {
		value := it.Fields[tok.Field]
		if IsFalsy(value) {
			continue
		}
		key := Stringify(value)
		if _, ok := groups.Items[key]; !ok {
			groups.Keys = append(groups.Keys, key)
			values[key] = value
		}
		groups.Items[key] = append(groups.Items[key], it)
	}

	// Keys order by the field values so numeric groups sort numerically
	slices.SortFunc(groups.Keys, func(a, b string) int {
		c := CompareValues(values[a], values[b])
		if c == 0 {
			c = strings.Compare(a, b)
		}
		if tok.Descending {
			return -c
		}
		return c
	})
	return groups
}
