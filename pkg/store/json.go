package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ReadJSON reads path and decodes it as a JSON object. Missing, empty or
// malformed content decodes to an empty object; only I/O errors are returned.
// Numbers are kept as json.Number so a read/write cycle is byte-stable.
func (s *Store) ReadJSON(path string) (map[string]any, error) {
	content, err := s.Read(path)
	if err != nil {
		return nil, err
	}

	doc := make(map[string]any)
	if strings.TrimSpace(content) == "" {
		return doc, nil
	}

	dec := json.NewDecoder(strings.NewReader(content))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		s.log.StoreLogger("read").Warn("Malformed document, treating as empty").
			Str("path", path).
			Err(err).
			Send()
		return make(map[string]any), nil
	}

	return doc, nil
}

// WriteJSON encodes doc with sorted keys and a 4-space indent and writes
// it atomically
func (s *Store) WriteJSON(path string, doc map[string]any) error {
	data, err := EncodeJSON(doc)
	if err != nil {
		return err
	}
	return s.Write(path, string(data))
}

// UpdateJSON deep-merges partial into the document at path and writes it back
func (s *Store) UpdateJSON(path string, partial map[string]any) error {
	doc, err := s.ReadJSON(path)
	if err != nil {
		return err
	}
	return s.WriteJSON(path, Merge(doc, partial))
}

// EncodeJSON renders doc the way documents are persisted. encoding/json
// sorts map keys at every level, which keeps diffs reproducible.
func EncodeJSON(doc map[string]any) ([]byte, error) {
	if doc == nil {
		doc = map[string]any{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return buf.Bytes(), nil
}

// Merge copies src into dst recursively: nested objects merge key by key,
// anything else in src replaces the value in dst. dst is modified and returned.
func Merge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for key, value := range src {
		if srcMap, ok := value.(map[string]any); ok {
			dstMap, _ := dst[key].(map[string]any)
			dst[key] = Merge(dstMap, srcMap)
			continue
		}
		dst[key] = value
	}
	return dst
}
