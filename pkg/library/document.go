// ABOUTME: In-memory form of the persisted library document
// ABOUTME: Maps item path to its persisted fields

package library

import (
	"maps"
	"slices"

	"github.com/nainya/assetlib/pkg/item"
)

// Document maps item path to fields
type Document map[string]item.Fields

// Paths returns the document keys in sorted order
func (d Document) Paths() []string {
	return slices.Sorted(maps.Keys(d))
}

// Clone copies the document and each fields map
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for path, fields := range d {
		out[path] = fields.Clone()
	}
	return out
}

// toMap converts the document to the generic form the store encodes
func (d Document) toMap() map[string]any {
	out := make(map[string]any, len(d))
	for path, fields := range d {
		out[path] = map[string]any(fields)
	}
	return out
}

// documentFromMap keeps the entries whose value is a JSON object. The
// second result counts the skipped entries.
func documentFromMap(raw map[string]any) (Document, int) {
	doc := make(Document, len(raw))
	skipped := 0
	for path, value := range raw {
		fields, ok := value.(map[string]any)
		if !ok {
			skipped++
			continue
		}
		doc[path] = item.Fields(fields)
	}
	return doc, skipped
}
