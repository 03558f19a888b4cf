package imagestore

import (
	"context"
	"os"
	"strings"
	"testing"
)

func TestDiskStoreUpload(t *testing.T) {
	d := NewDiskStore(t.TempDir())
	st, err := d.Upload(context.Background(), []byte("fake-image"), "verification", "gidFront.jpg", "image/jpeg")
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if !strings.HasPrefix(st.URL, "public/verification/") {
		t.Fatalf("unexpected url %q", st.URL)
	}
	b, err := os.ReadFile(st.LocalPath)
	if err != nil {
		t.Fatalf("stored file unreadable: %v", err)
	}
	if string(b) != "fake-image" {
		t.Fatalf("stored bytes mismatch: %q", b)
	}
}

func TestDiskStoreCancelledContext(t *testing.T) {
	d := NewDiskStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Upload(ctx, []byte("x"), "f", "n.jpg", "image/jpeg"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
