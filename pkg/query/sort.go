// ABOUTME: Multi-key stable sorting of items
// ABOUTME: Tokens are "field", "field:asc" or "field:desc"

package query

import (
	"cmp"
	"encoding/json"
	"reflect"
	"slices"
	"strings"

	"github.com/nainya/assetlib/pkg/item"
)

// Token is one parsed sort or group token
type Token struct {
	Field      string
	Descending bool
}

// ParseToken splits "field:direction". Any direction other than "asc"
// sorts descending; no direction sorts ascending.
func ParseToken(token string) Token {
	field, dir, found := strings.Cut(token, ":")
	return Token{Field: field, Descending: found && dir != "asc"}
}

// String renders the token back to "field:asc" or "field:desc"
func (t Token) String() string {
	if t.Descending {
		return t.Field + ":desc"
	}
	return t.Field + ":asc"
}

// SortItems returns items sorted by spec. Tokens are applied in reverse with
// a stable sort, so the first token dominates. Items missing a field sort
// last in either direction. The input slice is not modified.
func SortItems(items []*item.Item, spec []string) []*item.Item {
	sorted := slices.Clone(items)
	for i := len(spec) - 1; i >= 0; i-- {
		tok := ParseToken(spec[i])
		if tok.Field == "" {
			continue
		}
		slices.SortStableFunc(sorted, func(a, b *item.Item) int {
			av, aok := a.Fields[tok.Field]
			bv, bok := b.Fields[tok.Field]
			aok = aok && av != nil
			bok = bok && bv != nil
			switch {
			case !aok && !bok:
				return 0
			case !aok:
				return 1
			case !bok:
				return -1
			}
			c := CompareValues(av, bv)
			if tok.Descending {
				return -c
			}
			return c
		})
	}
	return sorted
}

// CompareValues orders booleans before numbers before strings. Values of
// other kinds compare by their string form.
func CompareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch ra {
	case rankBool:
		return cmp.Compare(boolInt(a.(bool)), boolInt(b.(bool)))
	case rankNumber:
		return cmp.Compare(number(a), number(b))
	}
	return strings.Compare(Stringify(a), Stringify(b))
}

const (
	rankBool = iota
	rankNumber
	rankString
)

func rank(v any) int {
	switch t := v.(type) {
	case bool:
		return rankBool
	case json.Number:
		if _, err := t.Float64(); err == nil {
			return rankNumber
		}
		return rankString
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return rankNumber
	}
	return rankString
}

func number(v any) float64 {
	if n, ok := v.(json.Number); ok {
		f, _ := n.Float64()
		return f
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.CanInt():
		return float64(rv.Int())
	case rv.CanUint():
		return float64(rv.Uint())
	case rv.CanFloat():
		return rv.Float()
	}
	return 0
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
