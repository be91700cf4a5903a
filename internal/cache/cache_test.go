package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lucasnoah/dockhand/internal/analyzer"
	"github.com/lucasnoah/dockhand/internal/artifact"
)

func projectWithArtifact(t *testing.T, fingerprint string) (*analyzer.ProjectContext, string) {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/app\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	pc, err := analyzer.New().Analyze(root)
	if err != nil {
		t.Fatal(err)
	}

	art := &artifact.Artifact{
		Content:     "FROM golang:1.22-alpine\n",
		Fingerprint: fingerprint,
		GeneratedAt: time.Now().UTC(),
		Attempt:     1,
		Source:      artifact.SourceGenerated,
	}
	if err := art.Save(root); err != nil {
		t.Fatal(err)
	}
	return pc, root
}

func TestLookup_ForceAlwaysRegenerates(t *testing.T) {
	pc, _ := projectWithArtifact(t, "")
	pc2, err := analyzer.New().Analyze(pc.Root)
	if err != nil {
		t.Fatal(err)
	}
	// Make the cache entry valid, then force past it.
	art, _ := artifact.Load(pc2.Root)
	art.Fingerprint = pc2.Fingerprint
	if err := art.Save(pc2.Root); err != nil {
		t.Fatal(err)
	}

	d := Lookup(pc2, true)
	if d.Kind != Regenerate {
		t.Errorf("decision = %s, want REGENERATE", d.Kind)
	}
}

func TestLookup_ValidEntryReused(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/app\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	pc, err := analyzer.New().Analyze(root)
	if err != nil {
		t.Fatal(err)
	}
	art := &artifact.Artifact{
		Content:     "FROM golang:1.22-alpine\n",
		Fingerprint: pc.Fingerprint,
		GeneratedAt: time.Now().UTC(),
		Attempt:     1,
		Source:      artifact.SourceGenerated,
	}
	if err := art.Save(root); err != nil {
		t.Fatal(err)
	}

	d := Lookup(pc, false)
	if d.Kind != Reuse {
		t.Fatalf("decision = %s (%s), want REUSE", d.Kind, d.Reason)
	}
	if d.Artifact == nil || d.Artifact.Fingerprint != pc.Fingerprint {
		t.Error("reuse decision should carry the matching artifact")
	}
}

func TestLookup_FingerprintMismatch(t *testing.T) {
	pc, _ := projectWithArtifact(t, "stale-fingerprint")

	d := Lookup(pc, false)
	if d.Kind != Regenerate {
		t.Errorf("decision = %s, want REGENERATE", d.Kind)
	}
}

func TestLookup_MissingDockerfile(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/app\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	pc, err := analyzer.New().Analyze(root)
	if err != nil {
		t.Fatal(err)
	}

	d := Lookup(pc, false)
	if d.Kind != Regenerate {
		t.Errorf("decision = %s, want REGENERATE", d.Kind)
	}
}

func TestLookup_EmptyDockerfile(t *testing.T) {
	pc, root := projectWithArtifact(t, "")
	if err := os.WriteFile(artifact.DockerfilePath(root), []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}

	d := Lookup(pc, false)
	if d.Kind != Regenerate {
		t.Errorf("decision = %s, want REGENERATE", d.Kind)
	}
}

func TestLookup_CorruptSidecarIsMissNotFatal(t *testing.T) {
	pc, root := projectWithArtifact(t, "")
	if err := os.WriteFile(artifact.SidecarPath(root), []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	d := Lookup(pc, false)
	if d.Kind != Regenerate {
		t.Errorf("decision = %s, want REGENERATE", d.Kind)
	}
	if d.Reason == "" {
		t.Error("expected a reason for the miss")
	}
}

func TestLookup_UserDockerfileAdopted(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/app\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(artifact.DockerfilePath(root), []byte("FROM golang:1.22\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	pc, err := analyzer.New().Analyze(root)
	if err != nil {
		t.Fatal(err)
	}

	d := Lookup(pc, false)
	if d.Kind != Reuse {
		t.Fatalf("decision = %s (%s), want REUSE", d.Kind, d.Reason)
	}
	if d.Artifact.Source != artifact.SourceUser {
		t.Errorf("source = %q, want user", d.Artifact.Source)
	}
}
