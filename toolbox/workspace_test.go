package toolbox

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	ws, err := NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatalf("workspace: %v", err)
	}
	return ws
}

func TestWorkspaceResolveRejectsAbsolute(t *testing.T) {
	ws := newTestWorkspace(t)
	_, err := ws.Resolve("/etc/passwd")
	if err == nil {
		t.Fatal("expected error for absolute path")
	}
	if !strings.Contains(err.Error(), "ERR_PATH_OUTSIDE_SANDBOX") {
		t.Errorf("expected sandbox error code, got %v", err)
	}
}

func TestWorkspaceResolveRejectsTraversal(t *testing.T) {
	ws := newTestWorkspace(t)
	for _, path := range []string{"..", "../outside.txt", "sub/../../outside.txt"} {
		if _, err := ws.Resolve(path); err == nil {
			t.Errorf("expected error for %q", path)
		}
	}
}

func TestWorkspaceResolveAllowsInside(t *testing.T) {
	ws := newTestWorkspace(t)
	for _, path := range []string{".", "a.txt", "sub/deep/file.go", "sub/./a.txt"} {
		if _, err := ws.Resolve(path); err != nil {
			t.Errorf("unexpected error for %q: %v", path, err)
		}
	}
}

func TestWorkspaceResolveRejectsSymlinkEscape(t *testing.T) {
	ws := newTestWorkspace(t)

	outside := t.TempDir()
	link := filepath.Join(ws.Root(), "escape")
	if err := os.Symlink(outside, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	if _, err := ws.Resolve("escape/secret.txt"); err == nil {
		t.Error("expected error for symlink escape")
	}
}

func TestWorkspaceReadWriteRoundTrip(t *testing.T) {
	ws := newTestWorkspace(t)

	if err := ws.WriteFile("sub/hello.txt", "line one\nline two\nline three"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !ws.FileExists("sub/hello.txt") {
		t.Fatal("file should exist after write")
	}

	raw, err := ws.ReadFileRaw("sub/hello.txt")
	if err != nil {
		t.Fatalf("read raw: %v", err)
	}
	if raw != "line one\nline two\nline three" {
		t.Errorf("unexpected raw content: %q", raw)
	}

	numbered, err := ws.ReadFile("sub/hello.txt", 0, 0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(numbered, "1 | line one") {
		t.Errorf("expected line numbers, got %q", numbered)
	}
}

func TestWorkspaceReadFilePaging(t *testing.T) {
	ws := newTestWorkspace(t)
	if err := ws.WriteFile("big.txt", "a\nb\nc\nd\ne"); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, err := ws.ReadFile("big.txt", 2, 2)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(out, "2 | b") || !strings.Contains(out, "3 | c") {
		t.Errorf("expected lines 2-3, got %q", out)
	}
	if strings.Contains(out, "1 | a") || strings.Contains(out, "4 | d") {
		t.Errorf("paging leaked extra lines: %q", out)
	}

	// Offset past end of file: empty, not an error.
	out, err = ws.ReadFile("big.txt", 100, 10)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if out != "" {
		t.Errorf("expected empty output, got %q", out)
	}
}

func TestWorkspaceListDir(t *testing.T) {
	ws := newTestWorkspace(t)
	if err := ws.WriteFile("a.txt", "x"); err != nil {
		t.Fatal(err)
	}
	if err := ws.WriteFile("sub/b.txt", "y"); err != nil {
		t.Fatal(err)
	}

	entries, err := ws.ListDir(".")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name] = e.IsDir
	}
	if isDir, ok := names["a.txt"]; !ok || isDir {
		t.Error("expected a.txt file entry")
	}
	if isDir, ok := names["sub"]; !ok || !isDir {
		t.Error("expected sub directory entry")
	}
}

func TestWorkspaceExec(t *testing.T) {
	ws := newTestWorkspace(t)

	result, err := ws.Exec(context.Background(), "echo hello", 5*time.Second)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if strings.TrimSpace(result.Stdout) != "hello" {
		t.Errorf("unexpected stdout: %q", result.Stdout)
	}
	if result.ExitCode != 0 {
		t.Errorf("unexpected exit code: %d", result.ExitCode)
	}
}

func TestWorkspaceExecNonZeroExit(t *testing.T) {
	ws := newTestWorkspace(t)

	result, err := ws.Exec(context.Background(), "exit 3", 5*time.Second)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if result.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %d", result.ExitCode)
	}
}

func TestWorkspaceExecTimeout(t *testing.T) {
	ws := newTestWorkspace(t)

	result, err := ws.Exec(context.Background(), "sleep 5", 100*time.Millisecond)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if !result.TimedOut {
		t.Error("expected timeout flag")
	}
}

func TestWorkspaceExecTimeoutKillsBackgroundChildren(t *testing.T) {
	ws := newTestWorkspace(t)

	// The backgrounded sleep inherits the shell's stdout pipe. If the
	// timeout only kills the shell, Run blocks on the pipe until the
	// orphan exits 30s later.
	start := time.Now()
	result, err := ws.Exec(context.Background(), "sleep 30 & sleep 30", 200*time.Millisecond)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if !result.TimedOut {
		t.Error("expected timeout flag")
	}
	if elapsed > 5*time.Second {
		t.Errorf("exec blocked for %v waiting on an orphaned child", elapsed)
	}
}

func TestFilterEnvironmentDropsSecrets(t *testing.T) {
	t.Setenv("CONVOY_TEST_API_KEY", "supersecret")
	t.Setenv("CONVOY_TEST_PLAIN", "visible")

	env := filterEnvironment()
	joined := strings.Join(env, "\n")
	if strings.Contains(joined, "supersecret") {
		t.Error("sensitive variable leaked into subprocess environment")
	}
	if !strings.Contains(joined, "CONVOY_TEST_PLAIN=visible") {
		t.Error("plain variable should survive filtering")
	}
}
