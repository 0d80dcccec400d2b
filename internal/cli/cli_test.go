package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sadopc/tripguide/internal/config"
	"github.com/sadopc/tripguide/internal/core"
)

func testConfig(t *testing.T, backend string) (*config.Config, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "data_dir: " + filepath.Join(dir, "data") + "\nbackend: " + backend + "\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg, path
}

func run(t *testing.T, configPath string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	if err := cmd.Execute(); err != nil {
		t.Fatalf("tripguide %v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

// seed records one finished, rated trip.
func seed(t *testing.T, cfg *config.Config) (tripID, intentionID string) {
	t.Helper()
	ctx := context.Background()
	app, err := NewAppContext(ctx, cfg)
	if err != nil {
		t.Fatalf("NewAppContext: %v", err)
	}
	defer app.Close()

	g := app.Guide
	intentionID, err = g.Intentions().Add(ctx, "Explore creativity", "", "🎨")
	if err != nil {
		t.Fatal(err)
	}
	if err := g.SelectIntention(ctx, intentionID); err != nil {
		t.Fatal(err)
	}
	if err := g.StartTrip(ctx); err != nil {
		t.Fatal(err)
	}
	e, err := g.EndTrip(ctx, "Garden day")
	if err != nil {
		t.Fatal(err)
	}
	if err := g.RatePostTrip(ctx, e.ID, map[string]*int{intentionID: core.IntPtr(4)}); err != nil {
		t.Fatal(err)
	}
	return e.ID, intentionID
}

func TestAppContextClose_NilStore(t *testing.T) {
	a := &AppContext{}
	if err := a.Close(); err != nil {
		t.Errorf("Close() on empty AppContext should not error, got: %v", err)
	}
}

func TestOpenBackendUnknown(t *testing.T) {
	if _, err := OpenBackend(&config.Config{Backend: "postgres"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestHistoryEmpty(t *testing.T) {
	_, path := testConfig(t, config.BackendSQLite)
	out := run(t, path, "history")
	if !strings.Contains(out, "No trips recorded yet.") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestCommandsAfterTrip(t *testing.T) {
	for _, backend := range []string{config.BackendSQLite, config.BackendBadger} {
		t.Run(backend, func(t *testing.T) {
			cfg, path := testConfig(t, backend)
			tripID, _ := seed(t, cfg)

			out := run(t, path, "history")
			if !strings.Contains(out, "Garden day") || !strings.Contains(out, "✓") {
				t.Fatalf("history output: %q", out)
			}

			out = run(t, path, "intentions")
			if !strings.Contains(out, "used 1/3") || !strings.Contains(out, "post-trip 4.0") {
				t.Fatalf("intentions output: %q", out)
			}

			out = run(t, path, "followups", tripID)
			if !strings.Contains(out, "opens in 7 days") {
				t.Fatalf("followups output: %q", out)
			}

			out = run(t, path, "followups")
			if !strings.Contains(out, "No follow-ups due.") {
				t.Fatalf("pending output: %q", out)
			}
		})
	}
}

func TestExportJSON(t *testing.T) {
	cfg, path := testConfig(t, config.BackendSQLite)
	seed(t, cfg)
	dest := filepath.Join(t.TempDir(), "trips.json")

	out := run(t, path, "export", "--format", "json", "--output", dest)
	if !strings.Contains(out, "Exported 1 trips") {
		t.Fatalf("export output: %q", out)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Count != 1 {
		t.Fatalf("count = %d, want 1", doc.Count)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	_, path := testConfig(t, config.BackendSQLite)
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", path, "export", "--format", "xml", "--output", filepath.Join(t.TempDir(), "x")})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestFailedCommandStillClosesStore(t *testing.T) {
	_, path := testConfig(t, config.BackendBadger)
	cmd, st := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", path, "export", "--format", "xml", "--output", filepath.Join(t.TempDir(), "x")})
	if err := execute(cmd, st); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if st.app != nil {
		t.Fatal("app should be closed after a failed command")
	}

	// Badger holds a directory lock; reopening only works if it was released.
	out := run(t, path, "history")
	if !strings.Contains(out, "No trips") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestRootStateCloseIsIdempotent(t *testing.T) {
	cfg, _ := testConfig(t, config.BackendSQLite)
	app, err := NewAppContext(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	st := &rootState{app: app}
	if err := st.close(); err != nil {
		t.Fatal(err)
	}
	if err := st.close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestIntentionsAvailableFilter(t *testing.T) {
	cfg, path := testConfig(t, config.BackendSQLite)
	ctx := context.Background()
	app, err := NewAppContext(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	id, _ := app.Guide.Intentions().Add(ctx, "Full", "", "")
	for _, trip := range []string{"a", "b", "c"} {
		if err := app.Guide.Intentions().AttachToTrip(ctx, id, trip, core.SystemClock(), ""); err != nil {
			t.Fatal(err)
		}
	}
	app.Guide.Intentions().Add(ctx, "Open", "", "")
	app.Close()

	out := run(t, path, "intentions", "--available")
	if strings.Contains(out, "Full") || !strings.Contains(out, "Open") {
		t.Fatalf("available output: %q", out)
	}
}
