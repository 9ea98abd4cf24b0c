// ABOUTME: Library item data model
// ABOUTME: Derives the default field set from an item's path

package item

import (
	"fmt"
	"maps"
	"path"
	"path/filepath"
	"strings"
)

// Default field names derived from an item path
const (
	FieldPath      = "path"
	FieldName      = "name"
	FieldExtension = "extension"
	FieldType      = "type"
	FieldFolder    = "folder"
	FieldCategory  = "category"
)

// Fields is the metadata persisted for an item, keyed by field name
type Fields map[string]any

// Clone returns a shallow copy of f
func (f Fields) Clone() Fields {
	if f == nil {
		return Fields{}
	}
	return maps.Clone(f)
}

// String returns the field value formatted as a string, or "" if missing
func (f Fields) String(key string) string {
	v, ok := f[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Item is one on-disk asset. Path is its identity.
type Item struct {
	Path     string
	Fields   Fields
	ClassTag string // Name of the descriptor that produced the item
}

// New builds an item for path using descriptor d
func New(p string, d Descriptor) (*Item, error) {
	if strings.TrimSpace(p) == "" {
		return nil, fmt.Errorf("%w: cannot set an empty item path", ErrItem)
	}
	p = NormalizePath(p)

	fields := DefaultFields(p, d.matchedExtension(p))
	fields[FieldType] = d.TypeTag()
	if d.Fields != nil {
		maps.Copy(fields, d.Fields(p))
	}

	return &Item{Path: p, Fields: fields, ClassTag: d.Name}, nil
}

// ID returns the item identity
func (it *Item) ID() string {
	return it.Path
}

// Name returns the item name field
func (it *Item) Name() string {
	return it.Fields.String(FieldName)
}

// Type returns the item type field
func (it *Item) Type() string {
	return it.Fields.String(FieldType)
}

// Merge overlays persisted fields on top of the derived ones
func (it *Item) Merge(persisted map[string]any) {
	if it.Fields == nil {
		it.Fields = Fields{}
	}
	maps.Copy(it.Fields, persisted)
}

// DefaultFields derives path, name, extension, folder and category from p.
// ext is the extension to strip from the base name; when empty the last
// dot suffix is used.
func DefaultFields(p, ext string) Fields {
	base := path.Base(p)
	if ext == "" || !strings.HasSuffix(strings.ToLower(base), strings.ToLower(ext)) || len(ext) >= len(base) {
		ext = path.Ext(base)
	}
	folder := path.Dir(p)

	return Fields{
		FieldPath:      p,
		FieldName:      base[:len(base)-len(ext)],
		FieldExtension: ext,
		FieldFolder:    folder,
		FieldCategory:  path.Base(folder),
	}
}

// NormalizePath returns p as a clean, absolute, forward-slash path
func NormalizePath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return filepath.ToSlash(filepath.Clean(p))
}
