// ABOUTME: Tests for the atomic document store
// ABOUTME: Verifies round trips, locking, crash recovery and path rewriting

package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/nainya/assetlib/internal/logger"
)

func setupTestStore(t *testing.T) (*Store, string) {
	dir := t.TempDir()
	return NewStore(logger.Nop(), nil), filepath.ToSlash(filepath.Join(dir, "library", ".assetlib.json"))
}

func TestWriteReadRoundTrip(t *testing.T) {
	s, path := setupTestStore(t)

	if err := s.Write(path, "hello world"); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	got, err := s.Read(path)
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	if got != "hello world" {
		t.Errorf("Expected 'hello world', got %q", got)
	}

	for _, suffix := range []string{TmpSuffix, BakSuffix} {
		if _, err := os.Stat(path + suffix); !os.IsNotExist(err) {
			t.Errorf("Expected no %s file after a clean write", suffix)
		}
	}
}

func TestReadMissingFile(t *testing.T) {
	s, path := setupTestStore(t)

	got, err := s.Read(path)
	if err != nil {
		t.Fatalf("Expected no error for a missing file, got %v", err)
	}
	if got != "" {
		t.Errorf("Expected empty content, got %q", got)
	}

	doc, err := s.ReadJSON(path)
	if err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if len(doc) != 0 {
		t.Errorf("Expected empty document, got %v", doc)
	}
}

func TestReadJSONMalformed(t *testing.T) {
	s, path := setupTestStore(t)

	os.MkdirAll(filepath.Dir(path), 0755)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	doc, err := s.ReadJSON(path)
	if err != nil {
		t.Fatalf("Expected malformed content to decode silently, got %v", err)
	}
	if doc == nil || len(doc) != 0 {
		t.Errorf("Expected empty document, got %v", doc)
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	s, path := setupTestStore(t)
	root := filepath.ToSlash(filepath.Dir(path))

	doc := map[string]any{
		root + "/props/chair.mesh": map[string]any{
			"name":     "chair",
			"category": "props",
			"tags":     []any{"wood", "indoor"},
			"rating":   json.Number("3"),
		},
		root + "/chars/hero.rig": map[string]any{
			"name":   "hero",
			"hidden": false,
		},
	}

	if err := s.WriteJSON(path, doc); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	got, err := s.ReadJSON(path)
	if err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if !reflect.DeepEqual(got, doc) {
		t.Errorf("Round trip mismatch:\n got  %v\n want %v", got, doc)
	}
}

func TestWriteJSONSortedAndIndented(t *testing.T) {
	s, path := setupTestStore(t)

	doc := map[string]any{
		"zeta":  map[string]any{"b": "2", "a": "1"},
		"alpha": map[string]any{},
	}
	if err := s.WriteJSON(path, doc); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(raw)

	if strings.Index(content, `"alpha"`) > strings.Index(content, `"zeta"`) {
		t.Errorf("Expected top-level keys sorted, got:\n%s", content)
	}
	if !strings.Contains(content, "\n    \"alpha\"") {
		t.Errorf("Expected 4-space indentation, got:\n%s", content)
	}
	if !strings.Contains(content, "\n        \"a\": \"1\"") {
		t.Errorf("Expected nested keys sorted and indented, got:\n%s", content)
	}
}

func TestWriteJSONIsByteStable(t *testing.T) {
	s, path := setupTestStore(t)
	root := filepath.ToSlash(filepath.Dir(path))

	doc := map[string]any{
		root + "/a.mesh": map[string]any{"name": "a", "size": json.Number("12")},
	}
	if err := s.WriteJSON(path, doc); err != nil {
		t.Fatal(err)
	}
	first, _ := os.ReadFile(path)

	reread, err := s.ReadJSON(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.WriteJSON(path, reread); err != nil {
		t.Fatal(err)
	}
	second, _ := os.ReadFile(path)

	if string(first) != string(second) {
		t.Errorf("Expected identical bytes after read/write cycle:\n%s\n---\n%s", first, second)
	}
}

func TestWriteLockedByStaleTmp(t *testing.T) {
	s, path := setupTestStore(t)

	if err := s.Write(path, "original"); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path+TmpSuffix, []byte("partial"), 0644); err != nil {
		t.Fatal(err)
	}
	if !IsLocked(path) {
		t.Error("Expected IsLocked to report the stale tmp")
	}

	err := s.Write(path, "second")
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("Expected ErrLocked, got %v", err)
	}

	// The foreign tmp file must be left alone
	data, _ := os.ReadFile(path + TmpSuffix)
	if string(data) != "partial" {
		t.Errorf("Expected tmp file untouched, got %q", data)
	}

	got, _ := s.Read(path)
	if got != "original" {
		t.Errorf("Expected original content, got %q", got)
	}
}

func TestWriteFailureRestoresBackup(t *testing.T) {
	s, path := setupTestStore(t)

	if err := s.Write(path, "original"); err != nil {
		t.Fatal(err)
	}

	orig := renameFile
	renameFile = func(from, to string) error {
		if strings.HasSuffix(from, TmpSuffix) {
			return errors.New("simulated rename failure")
		}
		return orig(from, to)
	}
	defer func() { renameFile = orig }()

	if err := s.Write(path, "replacement"); err == nil {
		t.Fatal("Expected write to fail")
	}

	got, err := s.Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "original" {
		t.Errorf("Expected original content restored, got %q", got)
	}
	if _, err := os.Stat(path + TmpSuffix); !os.IsNotExist(err) {
		t.Error("Expected tmp file removed after failure")
	}
	if _, err := os.Stat(path + BakSuffix); !os.IsNotExist(err) {
		t.Error("Expected backup moved back into place")
	}

	// The store is usable again
	if err := s.Write(path, "replacement"); err != nil {
		t.Fatalf("Write after failure: %v", err)
	}
}

func TestWriteSucceedsWhenBackupRemovalFails(t *testing.T) {
	s, path := setupTestStore(t)

	if err := s.Write(path, "original"); err != nil {
		t.Fatal(err)
	}

	orig := removeFile
	removeFile = func(name string) error {
		if strings.HasSuffix(name, BakSuffix) {
			return errors.New("simulated remove failure")
		}
		return orig(name)
	}
	defer func() { removeFile = orig }()

	if err := s.Write(path, "replacement"); err != nil {
		t.Fatalf("Expected write to succeed, got %v", err)
	}
	got, err := s.Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "replacement" {
		t.Errorf("Expected new content, got %q", got)
	}
	if _, err := os.Stat(path + BakSuffix); err != nil {
		t.Error("Expected backup left behind")
	}

	removeFile = orig
	if err := s.Write(path, "third"); err != nil {
		t.Fatalf("Write after leftover backup: %v", err)
	}
	if _, err := os.Stat(path + BakSuffix); !os.IsNotExist(err) {
		t.Error("Expected leftover backup cleared by the next write")
	}
}

func TestInterruptedWriteRecovery(t *testing.T) {
	s, path := setupTestStore(t)

	if err := s.Write(path, "old content"); err != nil {
		t.Fatal(err)
	}

	// Crash after the current file moved to .bak but before the tmp
	// was renamed into place
	if err := os.Rename(path, path+BakSuffix); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path+TmpSuffix, []byte("new content"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := s.Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "old content" {
		t.Errorf("Expected backup content while interrupted, got %q", got)
	}

	if err := s.Write(path, "next"); !errors.Is(err, ErrLocked) {
		t.Fatalf("Expected ErrLocked before recovery, got %v", err)
	}

	res, err := s.Recover(path)
	if err != nil {
		t.Fatalf("Recover failed: %v", err)
	}
	if !res.RemovedTmp || !res.RestoredBak {
		t.Errorf("Unexpected recover result: %+v", res)
	}

	if err := s.Write(path, "next"); err != nil {
		t.Fatalf("Write after recovery: %v", err)
	}
	got, _ = s.Read(path)
	if got != "next" {
		t.Errorf("Expected 'next', got %q", got)
	}
}

func TestRecoverNothingToDo(t *testing.T) {
	s, path := setupTestStore(t)

	if err := s.Write(path, "x"); err != nil {
		t.Fatal(err)
	}
	res, err := s.Recover(path)
	if err != nil {
		t.Fatal(err)
	}
	if res != (RecoverResult{}) {
		t.Errorf("Expected empty result, got %+v", res)
	}
}

func TestPathsStoredRelative(t *testing.T) {
	s, path := setupTestStore(t)
	root := filepath.ToSlash(filepath.Dir(path))

	doc := map[string]any{
		root + "/props/chair.mesh": map[string]any{
			"path":   root + "/props/chair.mesh",
			"folder": root + "/props",
		},
	}
	if err := s.WriteJSON(path, doc); err != nil {
		t.Fatal(err)
	}

	raw, _ := os.ReadFile(path)
	if strings.Contains(string(raw), root) {
		t.Errorf("Expected no absolute library paths on disk, got:\n%s", raw)
	}
	if !strings.Contains(string(raw), `"../props/chair.mesh"`) {
		t.Errorf("Expected relative key on disk, got:\n%s", raw)
	}

	got, err := s.ReadJSON(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, doc) {
		t.Errorf("Expected absolute paths after read:\n got  %v\n want %v", got, doc)
	}
}

func TestMovedLibraryResolvesToNewLocation(t *testing.T) {
	s, path := setupTestStore(t)
	root := filepath.ToSlash(filepath.Dir(path))

	doc := map[string]any{
		root + "/a.mesh": map[string]any{"name": "a"},
	}
	if err := s.WriteJSON(path, doc); err != nil {
		t.Fatal(err)
	}

	moved := filepath.ToSlash(filepath.Join(t.TempDir(), "elsewhere"))
	if err := os.Rename(root, moved); err != nil {
		t.Fatal(err)
	}

	got, err := s.ReadJSON(moved + "/.assetlib.json")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got[moved+"/a.mesh"]; !ok {
		t.Errorf("Expected key under new location, got %v", got)
	}
}

func TestAbsolutePathsThreeLevels(t *testing.T) {
	docPath := "/lib/project/assets/.assetlib.json"

	tests := []struct {
		in   string
		want string
	}{
		{`"../a.mesh"`, `"/lib/project/assets/a.mesh"`},
		{`"../../shared/b.mesh"`, `"/lib/project/shared/b.mesh"`},
		{`"../../../other/c.mesh"`, `"/lib/other/c.mesh"`},
		{`"/abs/d.mesh"`, `"/abs/d.mesh"`},
	}

	for _, tt := range tests {
		if got := AbsolutePaths(tt.in, docPath); got != tt.want {
			t.Errorf("AbsolutePaths(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestRelativePathsSkipsRoot(t *testing.T) {
	docPath := "/lib/.assetlib.json"

	got := RelativePaths(`{"/lib/a.mesh": {}, "/other/b.mesh": {}}`, docPath)
	want := `{"../a.mesh": {}, "/other/b.mesh": {}}`
	if got != want {
		t.Errorf("RelativePaths = %s, want %s", got, want)
	}

	// Mid-path occurrences of the library directory are left alone
	got = RelativePaths(`"/mnt/lib/c.mesh"`, docPath)
	if got != `"/mnt/lib/c.mesh"` {
		t.Errorf("Expected unrelated path untouched, got %s", got)
	}
}

func TestUpdateJSONDeepMerge(t *testing.T) {
	s, path := setupTestStore(t)

	base := map[string]any{
		"item": map[string]any{
			"name": "chair",
			"meta": map[string]any{"author": "ana", "rev": "1"},
		},
		"other": map[string]any{"name": "table"},
	}
	if err := s.WriteJSON(path, base); err != nil {
		t.Fatal(err)
	}

	partial := map[string]any{
		"item": map[string]any{
			"meta": map[string]any{"rev": "2"},
			"tags": []any{"new"},
		},
	}
	if err := s.UpdateJSON(path, partial); err != nil {
		t.Fatalf("UpdateJSON failed: %v", err)
	}

	got, _ := s.ReadJSON(path)
	item := got["item"].(map[string]any)
	meta := item["meta"].(map[string]any)

	if item["name"] != "chair" {
		t.Errorf("Expected name preserved, got %v", item["name"])
	}
	if meta["author"] != "ana" || meta["rev"] != "2" {
		t.Errorf("Expected nested merge, got %v", meta)
	}
	if _, ok := item["tags"]; !ok {
		t.Error("Expected new key added")
	}
	if _, ok := got["other"]; !ok {
		t.Error("Expected unrelated entry preserved")
	}
}

func TestMergeReplacesScalarWithMap(t *testing.T) {
	dst := map[string]any{"k": "scalar"}
	Merge(dst, map[string]any{"k": map[string]any{"x": "1"}})

	m, ok := dst["k"].(map[string]any)
	if !ok || m["x"] != "1" {
		t.Errorf("Expected map to replace scalar, got %v", dst["k"])
	}
}
