package fs

import (
	"context"
	"errors"
	"io"
	"testing"
)

func TestSliceDir_Drain(t *testing.T) {
	ctx := context.Background()
	d := NewSliceDir([]Entry{
		{Name: "a", Type: EntryTypeDirectory},
		{Name: "b", Type: EntryTypeFile},
	})

	for _, want := range []string{"a", "b"} {
		entry, err := d.Next(ctx)
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if entry.Name != want {
			t.Errorf("Expected %q, got %q", want, entry.Name)
		}
	}

	for i := 0; i < 2; i++ {
		if _, err := d.Next(ctx); err != io.EOF {
			t.Errorf("Expected io.EOF, got %v", err)
		}
	}
}

func TestSliceDir_Close(t *testing.T) {
	d := NewSliceDir(nil)

	if err := d.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := d.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if _, err := d.Next(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestSliceDir_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewSliceDir([]Entry{{Name: "a"}})
	if _, err := d.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
