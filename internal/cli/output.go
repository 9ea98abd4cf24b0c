package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/nainya/assetlib/pkg/item"
	"github.com/nainya/assetlib/pkg/query"
)

// itemOutput is the serialized form of one item
type itemOutput struct {
	Path   string         `json:"path" yaml:"path"`
	Fields map[string]any `json:"fields" yaml:"fields"`
}

// groupOutput is the serialized form of one result group
type groupOutput struct {
	Group string       `json:"group" yaml:"group"`
	Items []itemOutput `json:"items" yaml:"items"`
}

// render writes data as JSON or YAML, or calls text for the text format
func (a *app) render(w io.Writer, data any, text func(io.Writer) error) error {
	switch a.output {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(plain(data)); err != nil {
			return err
		}
		return enc.Close()
	}
	return text(w)
}

func groupsOutput(groups *query.Groups) []groupOutput {
	out := make([]groupOutput, 0, groups.Len())
	if groups == nil {
		return out
	}
	for _, key := range groups.Keys {
		g := groupOutput{Group: key, Items: make([]itemOutput, 0, len(groups.Get(key)))}
		for _, it := range groups.Get(key) {
			g.Items = append(g.Items, itemOutput{Path: it.Path, Fields: it.Fields})
		}
		out = append(out, g)
	}
	return out
}

// plain converts json.Number values to ints or floats so yaml renders
// them as numbers
func plain(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case item.Fields:
		return plain(map[string]any(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = plain(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = plain(val)
		}
		return out
	case []groupOutput:
		out := make([]any, len(t))
		for i, g := range t {
			items := make([]any, len(g.Items))
			for j, it := range g.Items {
				items[j] = map[string]any{"path": it.Path, "fields": plain(it.Fields)}
			}
			out[i] = map[string]any{"group": g.Group, "items": items}
		}
		return out
	}
	return v
}

func printItemLine(w io.Writer, it itemOutput) {
	fmt.Fprintf(w, "  %s\n", it.Path)
}
