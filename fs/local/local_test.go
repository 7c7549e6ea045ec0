package local

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/mwantia/wildcard/fs"
)

func seedTree(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "a", "sub"), 0o755); err != nil {
		t.Fatalf("Failed to create directories: %v", err)
	}
	for _, name := range []string{"a/x.txt", "a/b.txt", "a/sub/y.txt"} {
		if err := os.WriteFile(filepath.Join(root, filepath.FromSlash(name)), []byte("hello"), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	return root
}

func TestLocalFilesystem_Stat(t *testing.T) {
	ctx := context.Background()
	lf := New(seedTree(t))

	info, err := lf.Stat(ctx, "a/x.txt")
	if err != nil {
		t.Fatalf("Stat file failed: %v", err)
	}
	if info.IsDir {
		t.Error("Expected file, got directory")
	}
	if info.Name != "x.txt" {
		t.Errorf("Expected name x.txt, got %q", info.Name)
	}
	if info.Size != 5 {
		t.Errorf("Expected size 5, got %d", info.Size)
	}

	info, err = lf.Stat(ctx, "a")
	if err != nil {
		t.Fatalf("Stat directory failed: %v", err)
	}
	if !info.IsDir {
		t.Error("Expected directory, got file")
	}

	info, err = lf.Stat(ctx, "")
	if err != nil {
		t.Fatalf("Stat root failed: %v", err)
	}
	if !info.IsDir {
		t.Error("Expected root to be a directory")
	}

	if _, err := lf.Stat(ctx, "missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected ErrNotExist, got %v", err)
	}
}

// TestLocalFilesystem_TrailingSeparator verifies that the separator the
// engine appends to directory paths is accepted by every lookup.
func TestLocalFilesystem_TrailingSeparator(t *testing.T) {
	ctx := context.Background()
	lf := New(seedTree(t))

	info, err := lf.Stat(ctx, "a/sub/")
	if err != nil {
		t.Fatalf("Stat with trailing separator failed: %v", err)
	}
	if !info.IsDir {
		t.Error("Expected directory, got file")
	}

	d, err := lf.OpenDir(ctx, "a/")
	if err != nil {
		t.Fatalf("OpenDir with trailing separator failed: %v", err)
	}
	d.Close()
}

func TestLocalFilesystem_OpenDir(t *testing.T) {
	ctx := context.Background()
	lf := New(seedTree(t))

	d, err := lf.OpenDir(ctx, "a")
	if err != nil {
		t.Fatalf("OpenDir failed: %v", err)
	}
	defer d.Close()

	var names []string
	types := map[string]fs.EntryType{}
	for {
		entry, err := d.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		names = append(names, entry.Name)
		types[entry.Name] = entry.Type
	}

	want := []string{"b.txt", "sub", "x.txt"}
	if len(names) != len(want) {
		t.Fatalf("Expected %d entries, got %d: %v", len(want), len(names), names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Entry %d = %q, want %q", i, names[i], want[i])
		}
	}

	if types["sub"] != fs.EntryTypeDirectory {
		t.Errorf("Expected sub to be a directory, got %s", types["sub"])
	}
	if types["x.txt"] != fs.EntryTypeFile {
		t.Errorf("Expected x.txt to be a file, got %s", types["x.txt"])
	}

	if _, err := lf.OpenDir(ctx, "a/x.txt"); err == nil {
		t.Error("Expected error opening a file as a directory")
	}
	if _, err := lf.OpenDir(ctx, "missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected ErrNotExist, got %v", err)
	}
}

func TestLocalFilesystem_Symlink(t *testing.T) {
	ctx := context.Background()
	root := seedTree(t)

	if err := os.Symlink(filepath.Join(root, "a", "sub"), filepath.Join(root, "link")); err != nil {
		t.Skipf("Symlinks not supported here: %v", err)
	}

	lf := New(root)

	info, err := lf.Stat(ctx, "link")
	if err != nil {
		t.Fatalf("Stat link failed: %v", err)
	}
	if !info.IsDir {
		t.Error("Expected Stat to follow the link to a directory")
	}

	info, err = lf.Lstat(ctx, "link")
	if err != nil {
		t.Fatalf("Lstat link failed: %v", err)
	}
	if info.IsDir {
		t.Error("Expected Lstat to report the link itself")
	}

	d, err := lf.OpenDir(ctx, "")
	if err != nil {
		t.Fatalf("OpenDir root failed: %v", err)
	}
	defer d.Close()

	found := false
	for {
		entry, err := d.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if entry.Name == "link" {
			found = true
			if entry.Type != fs.EntryTypeSymlink {
				t.Errorf("Expected symlink entry, got %s", entry.Type)
			}
		}
	}
	if !found {
		t.Error("Expected the link to appear in the root listing")
	}
}

func TestLocalFilesystem_Canonical(t *testing.T) {
	ctx := context.Background()
	root := seedTree(t)
	lf := New(root)

	// The temp directory itself may sit behind a symlink, so the
	// expectation goes through the same resolution.
	want, err := filepath.EvalSymlinks(filepath.Join(root, "a", "sub"))
	if err != nil {
		t.Fatalf("Failed to resolve expectation: %v", err)
	}

	got, err := lf.Canonical(ctx, "a/sub/")
	if err != nil {
		t.Fatalf("Canonical failed: %v", err)
	}
	if got != want {
		t.Errorf("Canonical = %q, want %q", got, want)
	}

	if err := os.Symlink(filepath.Join(root, "a", "sub"), filepath.Join(root, "link")); err != nil {
		t.Skipf("Symlinks not supported here: %v", err)
	}

	got, err = lf.Canonical(ctx, "link")
	if err != nil {
		t.Fatalf("Canonical through link failed: %v", err)
	}
	if got != want {
		t.Errorf("Canonical through link = %q, want %q", got, want)
	}

	if _, err := lf.Canonical(ctx, "missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected ErrNotExist, got %v", err)
	}
}

func TestLocalFilesystem_EmptyRoot(t *testing.T) {
	lf := New("")

	info, err := lf.Stat(context.Background(), "")
	if err != nil {
		t.Fatalf("Stat working directory failed: %v", err)
	}
	if !info.IsDir {
		t.Error("Expected the working directory to be a directory")
	}
}

func TestLocalFilesystem_CaseInsensitive(t *testing.T) {
	if New("").CaseInsensitive() != fs.PlatformCaseInsensitive {
		t.Error("Expected the platform default")
	}
}
