package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"autoheal/internal/adapter/sqlite"
	"autoheal/internal/adapter/webhook"
	"autoheal/internal/config"
	"autoheal/internal/heal"
)

func TestWireProduction(t *testing.T) {
	cfg := config.Default()
	cfg.Mode = "labeled"
	cfg.StateDB = filepath.Join(t.TempDir(), "autoheal.db")
	cfg.MetricsAddr = "127.0.0.1:0"
	cfg.WebhookURL = "https://discord.example/api/webhooks/1"
	cfg.RestartTimeout = 15 * time.Second

	a, err := Wire(t.Context(), cfg, Options{})
	if err != nil {
		t.Fatalf("Wire() error = %v", err)
	}
	defer a.Close()

	if a.Journal == nil || a.Metrics == nil {
		t.Fatalf("journal = %v, metrics = %v, want both", a.Journal, a.Metrics)
	}
	if got := len(a.Supervisor.Recorders); got != 2 {
		t.Fatalf("recorders = %d, want 2", got)
	}
	if _, ok := a.Supervisor.Notifier.(*webhook.Notifier); !ok {
		t.Fatalf("notifier = %T, want *webhook.Notifier", a.Supervisor.Notifier)
	}
	if a.Supervisor.Settings.Scope != heal.ScopeLabeled {
		t.Fatalf("scope = %v, want labeled", a.Supervisor.Settings.Scope)
	}
	if a.Runtime.RestartTimeout != 15*time.Second {
		t.Fatalf("restart timeout = %s", a.Runtime.RestartTimeout)
	}
	if err := a.PruneJournal(t.Context()); err != nil {
		t.Fatalf("PruneJournal() error = %v", err)
	}
}

func TestWireDryRunSkipsRecorders(t *testing.T) {
	cfg := config.Default()
	cfg.StateDB = filepath.Join(t.TempDir(), "autoheal.db")
	cfg.MetricsAddr = "127.0.0.1:0"

	a, err := Wire(t.Context(), cfg, Options{DryRun: true})
	if err != nil {
		t.Fatalf("Wire() error = %v", err)
	}
	defer a.Close()

	if a.Journal != nil || a.Metrics != nil || len(a.Supervisor.Recorders) != 0 {
		t.Fatalf("dry run wired recorders: %+v", a)
	}
	if !a.Supervisor.DryRun {
		t.Fatal("supervisor DryRun = false, want true")
	}
	if _, ok := a.Supervisor.Notifier.(webhook.Nop); !ok {
		t.Fatalf("notifier = %T, want webhook.Nop", a.Supervisor.Notifier)
	}
	if err := a.PruneJournal(t.Context()); err != nil {
		t.Fatalf("PruneJournal() without journal error = %v", err)
	}
}

func TestWireRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.DefaultPolicy = "sometimes"

	if _, err := Wire(t.Context(), cfg, Options{}); err == nil {
		t.Fatal("Wire() error = nil, want config error")
	}
}

func TestWireContinuesWithoutJournal(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	cfg := config.Default()
	cfg.StateDB = filepath.Join(blocker, "autoheal.db")

	a, err := Wire(t.Context(), cfg, Options{})
	if err != nil {
		t.Fatalf("Wire() error = %v, want journal failure tolerated", err)
	}
	defer a.Close()

	if a.Journal != nil || len(a.Supervisor.Recorders) != 0 {
		t.Fatalf("journal = %v, recorders = %d, want none", a.Journal, len(a.Supervisor.Recorders))
	}
}

func TestWirePrunesExpiredJournalRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autoheal.db")
	j, err := sqlite.OpenJournal(path)
	if err != nil {
		t.Fatalf("OpenJournal() error = %v", err)
	}
	ctx := context.Background()
	old := heal.Event{Time: time.Now().Add(-JournalRetention - time.Hour), Kind: heal.EventGaveUp, Container: "stale"}
	fresh := heal.Event{Time: time.Now().Add(-time.Hour), Kind: heal.EventRestarted, Container: "web", Reason: heal.ReasonExited}
	for _, ev := range []heal.Event{old, fresh} {
		if err := j.Record(ctx, ev); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	_ = j.Close()

	cfg := config.Default()
	cfg.StateDB = path
	a, err := Wire(t.Context(), cfg, Options{})
	if err != nil {
		t.Fatalf("Wire() error = %v", err)
	}
	defer a.Close()

	got, err := a.Journal.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 1 || got[0].Container != "web" {
		t.Fatalf("events after Wire = %+v, want only the fresh one", got)
	}
}
