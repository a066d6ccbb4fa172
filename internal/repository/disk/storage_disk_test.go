package disk

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestUploadWritesFileAndReturnsRelativeRef(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")
	store, err := NewStorage(root)
	if err != nil {
		t.Fatalf("NewStorage returned error: %v", err)
	}

	ref, err := store.Upload(context.Background(), "ignored", "profile/abc.png", "image/png", strings.NewReader("pngdata"), 7)
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if !strings.HasSuffix(ref, "uploads/profile/abc.png") {
		t.Fatalf("unexpected ref %q", ref)
	}
	data, err := os.ReadFile(filepath.Join(root, "profile", "abc.png"))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "pngdata" {
		t.Fatalf("unexpected stored content %q", data)
	}
}

func TestUploadStaysInsideRoot(t *testing.T) {
	root := t.TempDir()
	store, _ := NewStorage(root)

	if _, err := store.Upload(context.Background(), "", "../../escape.png", "image/png", strings.NewReader("x"), 1); err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "escape.png")); err != nil {
		t.Fatalf("expected traversal to be folded into root: %v", err)
	}
}

func TestUploadRefusesOverwrite(t *testing.T) {
	store, _ := NewStorage(t.TempDir())
	ctx := context.Background()
	if _, err := store.Upload(ctx, "", "a.png", "image/png", strings.NewReader("x"), 1); err != nil {
		t.Fatalf("first upload failed: %v", err)
	}
	if _, err := store.Upload(ctx, "", "a.png", "image/png", strings.NewReader("y"), 1); err == nil {
		t.Fatalf("expected second upload to the same name to fail")
	}
}
