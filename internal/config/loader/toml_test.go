package loader

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
)

// memFS is an in-memory file system for testing.
type memFS struct {
	files map[string][]byte
	err   error
}

func newMemFS() *memFS {
	return &memFS{files: make(map[string][]byte)}
}

func (m *memFS) add(path, content string) {
	m.files[path] = []byte(content)
}

func (m *memFS) ReadFile(path string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	data, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func TestTOMLLoader_Load(t *testing.T) {
	memfs := newMemFS()
	memfs.add("/config.toml", `
[files]
encoding = "windows-1252"
eol = "crlf"
maxFileSize = 2048
trimTrailingWhitespace = true

[recovery]
interval = "15s"
`)

	config, err := NewTOMLLoaderWithFS(memfs, "/config.toml").Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	files, ok := config["files"].(map[string]any)
	if !ok {
		t.Fatalf("files section = %T, want map", config["files"])
	}
	if files["encoding"] != "windows-1252" {
		t.Errorf("files.encoding = %v, want windows-1252", files["encoding"])
	}
	if files["maxFileSize"] != int64(2048) {
		t.Errorf("files.maxFileSize = %v (%T), want int64 2048", files["maxFileSize"], files["maxFileSize"])
	}
	if files["trimTrailingWhitespace"] != true {
		t.Errorf("files.trimTrailingWhitespace = %v, want true", files["trimTrailingWhitespace"])
	}

	recovery := config["recovery"].(map[string]any)
	if recovery["interval"] != "15s" {
		t.Errorf("recovery.interval = %v, want 15s", recovery["interval"])
	}
}

func TestTOMLLoader_LoadNonExistent(t *testing.T) {
	config, err := NewTOMLLoaderWithFS(newMemFS(), "/missing.toml").Load()
	if err != nil {
		t.Errorf("Load of missing file returned error: %v", err)
	}
	if config != nil {
		t.Errorf("Load of missing file = %v, want nil", config)
	}
}

func TestTOMLLoader_LoadReadError(t *testing.T) {
	memfs := newMemFS()
	memfs.err = fs.ErrPermission

	_, err := NewTOMLLoaderWithFS(memfs, "/config.toml").Load()
	if !errors.Is(err, fs.ErrPermission) {
		t.Errorf("Load error = %v, want ErrPermission", err)
	}
}

func TestTOMLLoader_LoadInvalid(t *testing.T) {
	memfs := newMemFS()
	memfs.add("/bad.toml", "[files]\nencoding = \n")

	_, err := NewTOMLLoaderWithFS(memfs, "/bad.toml").Load()
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Load error = %v, want *ParseError", err)
	}
	if perr.Path != "/bad.toml" {
		t.Errorf("ParseError.Path = %q, want /bad.toml", perr.Path)
	}
	if perr.Line == 0 {
		t.Error("ParseError.Line not set")
	}
	if !strings.Contains(perr.Error(), "line") {
		t.Errorf("ParseError.Error() = %q, want line number", perr.Error())
	}
}

func TestTOMLLoader_LoadFromReader(t *testing.T) {
	config, err := NewTOMLLoader("").LoadFromReader(strings.NewReader("[search]\nwrapAround = false\n"))
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}
	search := config["search"].(map[string]any)
	if search["wrapAround"] != false {
		t.Errorf("search.wrapAround = %v, want false", search["wrapAround"])
	}
}

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{
		"files": map[string]any{
			"encoding": "utf-8",
			"eol":      "lf",
		},
		"logging": map[string]any{"level": "info"},
	}
	src := map[string]any{
		"files":   map[string]any{"eol": "crlf"},
		"logging": "flat",
		"search":  map[string]any{"regex": true},
	}

	got := DeepMerge(dst, src)

	files := got["files"].(map[string]any)
	if files["encoding"] != "utf-8" || files["eol"] != "crlf" {
		t.Errorf("merged files = %v", files)
	}
	if got["logging"] != "flat" {
		t.Errorf("logging = %v, want scalar to replace map", got["logging"])
	}
	if _, ok := got["search"].(map[string]any); !ok {
		t.Errorf("search section not added")
	}
}

func TestDeepMerge_Nil(t *testing.T) {
	got := DeepMerge(nil, map[string]any{"a": int64(1)})
	if got["a"] != int64(1) {
		t.Errorf("DeepMerge(nil, src) = %v", got)
	}
	dst := map[string]any{"a": int64(1)}
	if got := DeepMerge(dst, nil); len(got) != 1 {
		t.Errorf("DeepMerge(dst, nil) = %v", got)
	}
}

func TestClone(t *testing.T) {
	src := map[string]any{
		"files": map[string]any{"eol": "lf"},
		"list":  []any{"a", map[string]any{"b": true}},
	}
	dst := Clone(src)

	dst["files"].(map[string]any)["eol"] = "crlf"
	dst["list"].([]any)[1].(map[string]any)["b"] = false

	if src["files"].(map[string]any)["eol"] != "lf" {
		t.Error("Clone shares nested map with source")
	}
	if src["list"].([]any)[1].(map[string]any)["b"] != true {
		t.Error("Clone shares slice element with source")
	}
	if Clone(nil) != nil {
		t.Error("Clone(nil) should be nil")
	}
}
