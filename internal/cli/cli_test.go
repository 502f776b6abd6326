package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/dshills/keypad/internal/filestore"
	"github.com/dshills/keypad/internal/recovery"
	"github.com/dshills/keypad/internal/session"
)

type testEnv struct {
	dir         string
	configPath  string
	recoveryDir string
	sessionFile string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	env := testEnv{
		dir:         dir,
		configPath:  filepath.Join(dir, "config.toml"),
		recoveryDir: filepath.Join(dir, "recovery"),
		sessionFile: filepath.Join(dir, "session.yaml"),
	}
	content := fmt.Sprintf("[recovery]\ndir = '%s'\n\n[session]\nfile = '%s'\n\n[files]\nwatchDebounce = \"20ms\"\n",
		env.recoveryDir, env.sessionFile)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return env
}

// run executes the command line and returns stdout and stderr.
func (env testEnv) run(ctx context.Context, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	root := NewRootCmd(BuildInfo{Version: "1.2.3", Commit: "abc123"})
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--config", env.configPath, "--log-level", "error"}, args...))
	err := root.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func (env testEnv) file(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(env.dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func (env testEnv) snapshot(t *testing.T, path, text string, diskMod time.Time) filestore.DocumentID {
	t.Helper()
	doc := filestore.RestoreDocument(filestore.DocumentState{
		ID:          filestore.NewDocumentID(),
		Path:        path,
		Text:        text,
		Version:     7,
		DiskModTime: diskMod,
	})
	if err := recovery.NewStore(env.recoveryDir).Write(recovery.NewSnapshot(doc.State(), time.Now())); err != nil {
		t.Fatal(err)
	}
	return doc.ID()
}

func readBytes(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestVersionCmd(t *testing.T) {
	env := newTestEnv(t)
	out, _, err := env.run(context.Background(), "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "keypad version 1.2.3") || !strings.Contains(out, "commit: abc123") {
		t.Errorf("output = %q", out)
	}
}

func TestInfoCmd(t *testing.T) {
	env := newTestEnv(t)
	path := env.file(t, "crlf.txt", []byte("\xEF\xBB\xBFone\r\ntwo\r\n"))

	out, _, err := env.run(context.Background(), "info", path)
	if err != nil {
		t.Fatalf("info failed: %v", err)
	}
	for _, want := range []string{"Encoding:    utf-8", "BOM:         true", "Line ending: CRLF", "Lines:       2", "Characters:  8"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if _, _, err := env.run(context.Background(), "info", filepath.Join(env.dir, "missing")); err == nil {
		t.Error("info on missing file should fail")
	}
}

func TestConvertCmd(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		args  []string
		want  []byte
	}{
		{
			name:  "crlf with bom to plain lf",
			input: []byte("\xEF\xBB\xBFa\r\nb\r\n"),
			args:  []string{"--eol", "lf", "--no-bom"},
			want:  []byte("a\nb\n"),
		},
		{
			name:  "utf-16le with bom",
			input: []byte("hi\n"),
			args:  []string{"-e", "utf-16le", "--bom"},
			want:  []byte{0xFF, 0xFE, 'h', 0, 'i', 0, '\n', 0},
		},
		{
			name:  "trim and final newline",
			input: []byte("x  \ny"),
			args:  []string{"--trim", "--final-newline"},
			want:  []byte("x\ny\n"),
		},
		{
			name:  "keeps format when nothing requested",
			input: []byte("a\r\nb"),
			args:  nil,
			want:  []byte("a\r\nb"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			path := env.file(t, "in.txt", tt.input)

			args := append([]string{"convert", path}, tt.args...)
			if _, _, err := env.run(context.Background(), args...); err != nil {
				t.Fatalf("convert failed: %v", err)
			}
			if got := readBytes(t, path); !bytes.Equal(got, tt.want) {
				t.Errorf("file = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConvertCmd_Output(t *testing.T) {
	env := newTestEnv(t)
	path := env.file(t, "in.txt", []byte("a\nb\n"))
	out := filepath.Join(env.dir, "out.txt")

	if _, _, err := env.run(context.Background(), "convert", path, "--eol", "crlf", "-o", out); err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if got := readBytes(t, out); string(got) != "a\r\nb\r\n" {
		t.Errorf("output file = %q", got)
	}
	if got := readBytes(t, path); string(got) != "a\nb\n" {
		t.Errorf("source modified: %q", got)
	}
}

func TestConvertCmd_Errors(t *testing.T) {
	env := newTestEnv(t)
	path := env.file(t, "in.txt", []byte("caf\u00e9 \u2603\n"))

	tests := []struct {
		name string
		args []string
	}{
		{"bad eol", []string{"--eol", "nel"}},
		{"unknown encoding", []string{"-e", "klingon"}},
		{"conflicting bom flags", []string{"--bom", "--no-bom"}},
		{"unrepresentable text", []string{"-e", "windows-1252"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"convert", path}, tt.args...)
			if _, _, err := env.run(context.Background(), args...); err == nil {
				t.Error("expected error")
			}
		})
	}
	if got := readBytes(t, path); string(got) != "caf\u00e9 \u2603\n" {
		t.Errorf("file changed by failed conversions: %q", got)
	}
}

func TestConvertCmd_BOMNeedsUnicode(t *testing.T) {
	env := newTestEnv(t)
	path := env.file(t, "plain.txt", []byte("abc\n"))

	_, _, err := env.run(context.Background(), "convert", path, "-e", "windows-1252", "--bom")
	if err == nil || !strings.Contains(err.Error(), "byte order mark") {
		t.Errorf("convert --bom to windows-1252 = %v, want byte order mark error", err)
	}
	if got := readBytes(t, path); string(got) != "abc\n" {
		t.Errorf("file changed: %q", got)
	}

	if _, _, err := env.run(context.Background(), "convert", path, "-e", "utf-16be", "--bom"); err != nil {
		t.Fatalf("convert --bom to utf-16be failed: %v", err)
	}
	want := []byte{0xFE, 0xFF, 0, 'a', 0, 'b', 0, 'c', 0, '\n'}
	if got := readBytes(t, path); !bytes.Equal(got, want) {
		t.Errorf("file = % x, want % x", got, want)
	}
}

func TestFindCmd(t *testing.T) {
	env := newTestEnv(t)
	path := env.file(t, "text.txt", []byte("alpha beta\ngamma beta\n"))
	ctx := context.Background()

	out, _, err := env.run(ctx, "find", "beta", path)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if out != "1:7: beta\n2:7: beta\n" {
		t.Errorf("find output = %q", out)
	}

	out, _, _ = env.run(ctx, "find", "--count", "BETA", path)
	if out != "2\n" {
		t.Errorf("count output = %q, want 2", out)
	}

	out, _, _ = env.run(ctx, "find", "-s", "--count", "BETA", path)
	if out != "0\n" {
		t.Errorf("case-sensitive count = %q, want 0", out)
	}

	out, _, err = env.run(ctx, "find", "--from", "11", "--backward", "beta", path)
	if err != nil || out != "1:7: beta\n" {
		t.Errorf("backward find = %q, %v", out, err)
	}

	out, _, err = env.run(ctx, "find", "-r", `g\w+`, path)
	if err != nil || out != "2:1: gamma\n" {
		t.Errorf("regex find = %q, %v", out, err)
	}

	_, _, err = env.run(ctx, "find", "delta", path)
	if !IsNoMatch(err) {
		t.Errorf("missing pattern error = %v, want no match", err)
	}

	if _, _, err := env.run(ctx, "find", "-r", "(", path); err == nil || IsNoMatch(err) {
		t.Errorf("invalid regex error = %v", err)
	}
}

func TestReplaceCmd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	path := env.file(t, "cats.txt", []byte("cat cats cat\r\n"))
	out, _, err := env.run(ctx, "replace", "-w", "cat", "dog", path)
	if err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if !strings.Contains(out, "Replaced 2 occurrences") {
		t.Errorf("output = %q", out)
	}
	if got := readBytes(t, path); string(got) != "dog cats dog\r\n" {
		t.Errorf("file = %q, want line ending preserved", got)
	}

	mail := env.file(t, "mail.txt", []byte("me@home\n"))
	if _, _, err := env.run(ctx, "replace", "-r", `(\w+)@(\w+)`, "$2 at $1", mail); err != nil {
		t.Fatalf("regex replace failed: %v", err)
	}
	if got := readBytes(t, mail); string(got) != "home at me\n" {
		t.Errorf("file = %q", got)
	}

	dry := env.file(t, "dry.txt", []byte("a a a\n"))
	out, _, err = env.run(ctx, "replace", "--dry-run", "a", "b", dry)
	if err != nil || !strings.Contains(out, "3 matches") {
		t.Errorf("dry run = %q, %v", out, err)
	}
	if got := readBytes(t, dry); string(got) != "a a a\n" {
		t.Errorf("dry run modified file: %q", got)
	}
}

func TestRecoverCmds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	out, _, err := env.run(ctx, "recover", "list")
	if err != nil || !strings.Contains(out, "No recovery snapshots.") {
		t.Fatalf("empty list = %q, %v", out, err)
	}

	path := env.file(t, "notes.txt", []byte("old\n"))
	info, _ := os.Stat(path)
	id := env.snapshot(t, path, "recovered\n", info.ModTime())

	out, _, err = env.run(ctx, "recover", "list")
	if err != nil || !strings.Contains(out, id.String()) || !strings.Contains(out, path) {
		t.Errorf("list = %q, %v", out, err)
	}

	out, _, err = env.run(ctx, "recover", "show", "--text", id.String()[:8])
	if err != nil || out != "recovered\n" {
		t.Errorf("show --text = %q, %v", out, err)
	}

	out, _, err = env.run(ctx, "recover", "restore", id.String())
	if err != nil || !strings.Contains(out, "Restored "+path) {
		t.Fatalf("restore = %q, %v", out, err)
	}
	if got := readBytes(t, path); string(got) != "recovered\n" {
		t.Errorf("file = %q after restore", got)
	}
	refs, _ := recovery.NewStore(env.recoveryDir).List()
	if len(refs) != 0 {
		t.Errorf("snapshot left after restore: %v", refs)
	}

	if _, _, err := env.run(ctx, "recover", "show", id.String()); err == nil {
		t.Error("show of restored snapshot should fail")
	}
}

func TestRecoverRestore_ChangedFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	path := env.file(t, "notes.txt", []byte("theirs\n"))
	id := env.snapshot(t, path, "mine\n", time.Now().Add(-time.Hour))

	_, _, err := env.run(ctx, "recover", "restore", id.String())
	if err == nil || !strings.Contains(err.Error(), "--force") {
		t.Fatalf("restore over changed file = %v, want refusal", err)
	}
	if got := readBytes(t, path); string(got) != "theirs\n" {
		t.Errorf("file overwritten: %q", got)
	}

	if _, _, err := env.run(ctx, "recover", "restore", "--force", id.String()); err != nil {
		t.Fatalf("forced restore failed: %v", err)
	}
	if got := readBytes(t, path); string(got) != "mine\n" {
		t.Errorf("file = %q after forced restore", got)
	}
}

func TestRecoverRestore_Untitled(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.snapshot(t, "", "draft", time.Time{})

	if _, _, err := env.run(ctx, "recover", "restore", id.String()); err == nil {
		t.Error("restore of untitled snapshot without --output should fail")
	}
	out := filepath.Join(env.dir, "draft.txt")
	if _, _, err := env.run(ctx, "recover", "restore", "-o", out, id.String()); err != nil {
		t.Fatalf("restore -o failed: %v", err)
	}
	if got := readBytes(t, out); string(got) != "draft" {
		t.Errorf("file = %q", got)
	}
}

func TestRecoverDiscard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.snapshot(t, filepath.Join(env.dir, "a.txt"), "a", time.Time{})
	env.snapshot(t, filepath.Join(env.dir, "b.txt"), "b", time.Time{})
	env.snapshot(t, filepath.Join(env.dir, "c.txt"), "c", time.Time{})

	if _, _, err := env.run(ctx, "recover", "discard"); err == nil {
		t.Error("discard without ids or --all should fail")
	}
	if _, _, err := env.run(ctx, "recover", "discard", "not-an-id"); err == nil {
		t.Error("discard of unknown id should fail")
	}

	out, _, err := env.run(ctx, "recover", "discard", a.String())
	if err != nil || !strings.Contains(out, "Discarded 1 snapshots") {
		t.Fatalf("discard = %q, %v", out, err)
	}
	out, _, err = env.run(ctx, "recover", "discard", "--all")
	if err != nil || !strings.Contains(out, "Discarded 2 snapshots") {
		t.Fatalf("discard --all = %q, %v", out, err)
	}
}

func TestRecoverDisabled(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("KEYPAD_RECOVERY_ENABLED", "false")

	_, _, err := env.run(context.Background(), "recover", "list")
	if err == nil || !strings.Contains(err.Error(), "disabled") {
		t.Errorf("recover list with recovery disabled = %v", err)
	}
}

func TestRecentCmd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := filepath.Join(env.dir, "a.txt")
	b := filepath.Join(env.dir, "b.txt")

	tracker := session.NewTracker(env.sessionFile, 10, nil)
	for _, p := range []string{a, b} {
		if err := tracker.Touch(p); err != nil {
			t.Fatal(err)
		}
	}
	if err := tracker.SetOpen([]string{a}); err != nil {
		t.Fatal(err)
	}

	out, _, err := env.run(ctx, "recent")
	if err != nil || out != b+"\n"+a+"\n" {
		t.Errorf("recent = %q, %v", out, err)
	}
	out, _, _ = env.run(ctx, "recent", "--last-session")
	if out != a+"\n" {
		t.Errorf("last session = %q", out)
	}

	if _, _, err := env.run(ctx, "recent", "--forget", b); err != nil {
		t.Fatalf("forget failed: %v", err)
	}
	out, _, _ = env.run(ctx, "recent")
	if out != a+"\n" {
		t.Errorf("recent after forget = %q", out)
	}

	// One-shot commands leave the recent list alone.
	path := env.file(t, "c.txt", []byte("c\n"))
	if _, _, err := env.run(ctx, "info", path); err != nil {
		t.Fatal(err)
	}
	out, _, _ = env.run(ctx, "recent")
	if out != a+"\n" {
		t.Errorf("recent after info = %q", out)
	}
}

func TestConfigCmds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	out, _, err := env.run(ctx, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	for _, want := range []string{"[recovery]", "interval = '30s'", "[search]", "wrapAround = true"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}

	out, _, err = env.run(ctx, "config", "path")
	if err != nil || strings.TrimSpace(out) != env.configPath {
		t.Errorf("config path = %q, %v", out, err)
	}
}

func TestWatchCmd(t *testing.T) {
	env := newTestEnv(t)
	path := env.file(t, "w.txt", []byte("w\n"))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	out, _, err := env.run(ctx, "watch", path)
	if err != nil {
		t.Fatalf("watch failed: %v", err)
	}
	if !strings.Contains(out, "watching "+path) {
		t.Errorf("output = %q", out)
	}

	state, err := session.Load(env.sessionFile)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(state.LastSession, []string{path}) {
		t.Errorf("LastSession = %v, want [%s]", state.LastSession, path)
	}
	if len(state.RecentFiles) == 0 || state.RecentFiles[0] != path {
		t.Errorf("RecentFiles = %v", state.RecentFiles)
	}
}
