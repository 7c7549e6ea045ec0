package memory

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/mwantia/wildcard/fs"
)

func TestMemoryFilesystem_New(t *testing.T) {
	m := New()

	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.paths.Len() != 1 {
		t.Fatalf("Expected only the root node, got %d", m.paths.Len())
	}

	info, err := m.Stat(context.Background(), "")
	if err != nil {
		t.Fatalf("Stat root failed: %v", err)
	}
	if !info.IsDir {
		t.Error("Expected root to be a directory")
	}
}

// TestMemoryFilesystem_WriteAndStat verifies tree building and lookups,
// including the error cases around parents.
func TestMemoryFilesystem_WriteAndStat(t *testing.T) {
	ctx := context.Background()
	m := New()

	if err := m.MkdirAll("a/b"); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := m.WriteFile("a/b/f.txt", []byte("hello")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	info, err := m.Stat(ctx, "a/b/f.txt")
	if err != nil {
		t.Fatalf("Stat file failed: %v", err)
	}
	if info.IsDir {
		t.Error("Expected file, got directory")
	}
	if info.Name != "f.txt" {
		t.Errorf("Expected name f.txt, got %q", info.Name)
	}
	if info.Size != 5 {
		t.Errorf("Expected size 5, got %d", info.Size)
	}

	info, err = m.Stat(ctx, "a/b")
	if err != nil {
		t.Fatalf("Stat directory failed: %v", err)
	}
	if !info.IsDir {
		t.Error("Expected directory, got file")
	}

	if _, err := m.Stat(ctx, "a/missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected ErrNotExist, got %v", err)
	}

	if err := m.WriteFile("nope/f.txt", []byte("x")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected ErrNotExist writing without parent, got %v", err)
	}
	if err := m.WriteFile("a/b", []byte("x")); !errors.Is(err, fs.ErrIsDirectory) {
		t.Errorf("Expected ErrIsDirectory overwriting a directory, got %v", err)
	}
	if err := m.MkdirAll("a/b/f.txt/deeper"); !errors.Is(err, fs.ErrNotDirectory) {
		t.Errorf("Expected ErrNotDirectory through a file, got %v", err)
	}
}

// TestMemoryFilesystem_OpenDir verifies listing order, entry types and
// the directory error cases.
func TestMemoryFilesystem_OpenDir(t *testing.T) {
	ctx := context.Background()
	m := New()

	if err := m.MkdirAll("a/sub"); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	for _, name := range []string{"a/x.txt", "a/b.txt"} {
		if err := m.WriteFile(name, []byte("x")); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}
	if err := m.Symlink("/a/sub", "a/link"); err != nil {
		t.Fatalf("Symlink failed: %v", err)
	}

	d, err := m.OpenDir(ctx, "a/")
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

	want := []string{"b.txt", "link", "sub", "x.txt"}
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
	if types["link"] != fs.EntryTypeSymlink {
		t.Errorf("Expected link to be a symlink, got %s", types["link"])
	}
	if types["x.txt"] != fs.EntryTypeFile {
		t.Errorf("Expected x.txt to be a file, got %s", types["x.txt"])
	}

	if _, err := m.OpenDir(ctx, "a/x.txt"); !errors.Is(err, fs.ErrNotDirectory) {
		t.Errorf("Expected ErrNotDirectory, got %v", err)
	}
	if _, err := m.OpenDir(ctx, "missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected ErrNotExist, got %v", err)
	}
}

// TestMemoryFilesystem_Symlink verifies resolution through links for
// both final and intermediate components.
func TestMemoryFilesystem_Symlink(t *testing.T) {
	ctx := context.Background()
	m := New()

	if err := m.MkdirAll("a/b"); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := m.WriteFile("a/b/f.txt", []byte("hello")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := m.Symlink("/a", "link"); err != nil {
		t.Fatalf("Symlink failed: %v", err)
	}

	info, err := m.Stat(ctx, "link/b/f.txt")
	if err != nil {
		t.Fatalf("Stat through link failed: %v", err)
	}
	if info.Size != 5 {
		t.Errorf("Expected size 5, got %d", info.Size)
	}

	info, err = m.Stat(ctx, "link")
	if err != nil {
		t.Fatalf("Stat link failed: %v", err)
	}
	if !info.IsDir {
		t.Error("Expected Stat to follow the link to a directory")
	}

	info, err = m.Lstat(ctx, "link")
	if err != nil {
		t.Fatalf("Lstat link failed: %v", err)
	}
	if info.IsDir {
		t.Error("Expected Lstat to report the link itself")
	}
}

func TestMemoryFilesystem_SymlinkCycle(t *testing.T) {
	ctx := context.Background()
	m := New()

	if err := m.Symlink("/two", "one"); err != nil {
		t.Fatalf("Symlink failed: %v", err)
	}
	if err := m.Symlink("/one", "two"); err != nil {
		t.Fatalf("Symlink failed: %v", err)
	}

	if _, err := m.Stat(ctx, "one"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected ErrNotExist on a link cycle, got %v", err)
	}
}

func TestMemoryFilesystem_Canonical(t *testing.T) {
	ctx := context.Background()
	m := New()

	if err := m.MkdirAll("a/b"); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := m.WriteFile("a/b/f.txt", []byte("x")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := m.Symlink("/a/b", "link"); err != nil {
		t.Fatalf("Symlink failed: %v", err)
	}

	cases := []struct {
		path string
		want string
	}{
		{"a/b", "/a/b"},
		{"a/b/", "/a/b"},
		{"a/./b", "/a/b"},
		{"a/b/../b/f.txt", "/a/b/f.txt"},
		{"link/f.txt", "/a/b/f.txt"},
		{"", "/"},
	}

	for _, c := range cases {
		got, err := m.Canonical(ctx, c.path)
		if err != nil {
			t.Fatalf("Canonical(%q) failed: %v", c.path, err)
		}
		if got != c.want {
			t.Errorf("Canonical(%q) = %q, want %q", c.path, got, c.want)
		}
	}

	if _, err := m.Canonical(ctx, "missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected ErrNotExist, got %v", err)
	}
}

func TestMemoryFilesystem_CaseInsensitive(t *testing.T) {
	if New().CaseInsensitive() {
		t.Error("Expected the in-memory tree to be case-sensitive")
	}
}
