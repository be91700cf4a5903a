package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSaveLoad_RoundTrip(t *testing.T) {
	root := t.TempDir()
	art := &Artifact{
		Content:     "FROM alpine:3.20\nCMD [\"true\"]",
		Fingerprint: "abc123",
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Attempt:     2,
		Source:      SourceGenerated,
	}
	if err := art.Save(root); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Fingerprint != "abc123" {
		t.Errorf("fingerprint = %q, want abc123", got.Fingerprint)
	}
	if got.Attempt != 2 {
		t.Errorf("attempt = %d, want 2", got.Attempt)
	}
	if got.Source != SourceGenerated {
		t.Errorf("source = %q, want generated", got.Source)
	}
	if !strings.HasSuffix(got.Content, "\n") {
		t.Error("saved content should end with a newline")
	}
	if !got.GeneratedAt.Equal(art.GeneratedAt) {
		t.Errorf("generated_at = %v, want %v", got.GeneratedAt, art.GeneratedAt)
	}
}

func TestLoad_NoDockerfile(t *testing.T) {
	_, err := Load(t.TempDir())
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestLoad_NoSidecarIsUserAuthored(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(DockerfilePath(root), []byte("FROM node:22-alpine\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	art, err := Load(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if art.Source != SourceUser {
		t.Errorf("source = %q, want user", art.Source)
	}
	if art.Fingerprint != "" {
		t.Errorf("fingerprint = %q, want empty", art.Fingerprint)
	}
}

func TestLoad_CorruptSidecar(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(DockerfilePath(root), []byte("FROM scratch\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(SidecarPath(root), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(root)
	var cacheErr *CacheError
	if !errors.As(err, &cacheErr) {
		t.Fatalf("expected *CacheError, got %v", err)
	}
}

func TestWriteAtomic_NoPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	if err := WriteAtomic(path, []byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}

	data, err := os.ReadFile(path)
	if err != nil || string(data) != "hello" {
		t.Errorf("read back %q, %v", data, err)
	}
}
