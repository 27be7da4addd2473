package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"autoheal/internal/heal"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := OpenJournal(filepath.Join(t.TempDir(), "state", "autoheal.db"))
	if err != nil {
		t.Fatalf("OpenJournal() error = %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestJournalRecordAndRecent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j := openTestJournal(t)
	base := time.Date(2026, 2, 26, 12, 0, 0, 0, time.UTC)

	events := []heal.Event{
		{Time: base, Kind: heal.EventRestarted, ContainerID: "c1", Container: "web", Reason: heal.ReasonExited, Policy: heal.PolicyOnFailure, Attempt: 1, MaxAttempts: 3},
		{Time: base.Add(time.Second), Kind: heal.EventPassCompleted, Duration: time.Millisecond},
		{Time: base.Add(2 * time.Second), Kind: heal.EventSkipped, Container: "batch"},
		{Time: base.Add(3 * time.Second), Kind: heal.EventRestartFailed, ContainerID: "c2", Container: "db", Reason: heal.ReasonUnhealthy, Policy: heal.PolicyAlways, Attempt: 4, Err: "engine refused"},
		{Time: base.Add(4 * time.Second), Kind: heal.EventPassFailed, Err: "container snapshot failed: timeout"},
	}
	for _, ev := range events {
		if err := j.Record(ctx, ev); err != nil {
			t.Fatalf("Record(%s) error = %v", ev.Kind, err)
		}
	}

	got, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent() returned %d events, want 3", len(got))
	}
	if got[0].Kind != heal.EventPassFailed || got[0].Err != "container snapshot failed: timeout" {
		t.Fatalf("newest event = %+v", got[0])
	}
	failed := got[1]
	if failed.Kind != heal.EventRestartFailed || failed.Container != "db" || failed.Reason != heal.ReasonUnhealthy ||
		failed.Policy != heal.PolicyAlways || failed.Attempt != 4 || failed.Err != "engine refused" {
		t.Fatalf("restart-failed event = %+v", failed)
	}
	if !got[2].Time.Equal(base) || got[2].MaxAttempts != 3 {
		t.Fatalf("oldest event = %+v", got[2])
	}
}

func TestJournalRecentLimit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j := openTestJournal(t)
	base := time.Date(2026, 2, 26, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		ev := heal.Event{Time: base.Add(time.Duration(i) * time.Minute), Kind: heal.EventGaveUp, Container: "web", Attempt: i}
		if err := j.Record(ctx, ev); err != nil {
			t.Fatal(err)
		}
	}

	got, err := j.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Attempt != 4 || got[1].Attempt != 3 {
		t.Fatalf("Recent(2) = %+v", got)
	}
}

func TestJournalPrune(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j := openTestJournal(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		ev := heal.Event{Time: base.AddDate(0, 0, i*10), Kind: heal.EventRecovered, Container: "web"}
		if err := j.Record(ctx, ev); err != nil {
			t.Fatal(err)
		}
	}

	n, err := j.Prune(ctx, base.AddDate(0, 0, 15))
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("Prune() removed %d, want 2", n)
	}
	got, _ := j.Recent(ctx, 10)
	if len(got) != 2 {
		t.Fatalf("remaining events = %d, want 2", len(got))
	}
}

func TestJournalReopenKeepsEvents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "autoheal.db")
	j, err := OpenJournal(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := j.Record(ctx, heal.Event{Kind: heal.EventRestarted, Container: "web", Reason: heal.ReasonExited}); err != nil {
		t.Fatal(err)
	}
	if err := j.Close(); err != nil {
		t.Fatal(err)
	}

	j, err = OpenJournal(path)
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()
	got, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Container != "web" || got[0].Time.IsZero() {
		t.Fatalf("events after reopen = %+v", got)
	}
}
