package storage

import (
	"strings"
	"testing"
)

func TestValidateContentType(t *testing.T) {
	if err := validateContentType("image/JPEG; charset=binary"); err != nil {
		t.Fatalf("expected jpeg to be accepted: %v", err)
	}
	if err := validateContentType("video/mp4"); err == nil {
		t.Fatal("expected video to be rejected")
	}
}

func TestValidateFileSize(t *testing.T) {
	if err := validateFileSize(0, 10); err == nil {
		t.Fatal("expected empty file to be rejected")
	}
	if err := validateFileSize(11, 10); err == nil {
		t.Fatal("expected oversized file to be rejected")
	}
	if err := validateFileSize(10, 10); err != nil {
		t.Fatalf("expected file at limit to pass: %v", err)
	}
}

func TestObjectKeyKeepsFolderAndExtension(t *testing.T) {
	key := ObjectKey("vehicles/abc", `C:\fotos\Frente.JPG`)
	if !strings.HasPrefix(key, "vehicles/abc/Frente_") || !strings.HasSuffix(key, ".jpg") {
		t.Fatalf("unexpected key %q", key)
	}
}
