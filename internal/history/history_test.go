package history

import (
	"context"
	"testing"
)

// A nil journal must be a complete no-op so the pipeline never depends
// on a database being configured or reachable.
func TestNilJournalIsSafe(t *testing.T) {
	var j *Journal
	ctx := context.Background()

	if err := j.Record(ctx, "/srv/app", "building", 1, ""); err != nil {
		t.Errorf("Record on nil journal: %v", err)
	}
	if events, err := j.Recent(ctx, "/srv/app", 10); err != nil || events != nil {
		t.Errorf("Recent on nil journal = %v, %v", events, err)
	}
	if id := j.RunID(); id != "" {
		t.Errorf("RunID on nil journal = %q", id)
	}
	if err := j.Close(); err != nil {
		t.Errorf("Close on nil journal: %v", err)
	}
}
