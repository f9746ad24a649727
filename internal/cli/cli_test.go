package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/zinefold/pkg/cache"
	"github.com/matzehuels/zinefold/pkg/config"
	"github.com/matzehuels/zinefold/pkg/errors"
	"github.com/matzehuels/zinefold/pkg/impose"
	"github.com/matzehuels/zinefold/pkg/pipeline"
	"github.com/matzehuels/zinefold/pkg/raster"
)

func newTestCLI() *CLI {
	return New(io.Discard, LogInfo)
}

// writeJob creates n spread scans of 170x110 px and a JSON job on letter
// paper, which gives a 1x2 grid at 20 px/in.
func writeJob(t *testing.T, n int) string {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv(cache.RedisURLEnv, "")

	dir := t.TempDir()
	for i := range n {
		f, err := os.Create(filepath.Join(dir, fmt.Sprintf("scan-%02d.png", i+1)))
		if err != nil {
			t.Fatal(err)
		}
		if err := png.Encode(f, image.NewGray(image.Rect(0, 0, 170, 110))); err != nil {
			t.Fatal(err)
		}
		f.Close()
	}
	job := filepath.Join(dir, "zine.json")
	body, err := json.Marshal(map[string]any{
		"images":    []string{"scan-*.png"},
		"paperSize": map[string]any{"size": "letter"},
		"output":    map[string]any{"dir": filepath.Join(dir, "out")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(job, body, 0o644); err != nil {
		t.Fatal(err)
	}
	return job
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	root := newTestCLI().RootCommand()
	root.SetArgs(append(args, "--env-file", ""))
	root.SetOut(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestRootCommand(t *testing.T) {
	root := newTestCLI().RootCommand()
	want := map[string]bool{"impose": false, "plan": false, "layout": false, "cache": false, "completion": false}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing %q command", name)
		}
	}
	for _, flag := range []string{"verbose", "log-file", "env-file"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing --%s flag", flag)
		}
	}
}

func TestImposeDryRun(t *testing.T) {
	job := writeJob(t, 4)
	if err := execute(t, "impose", job, "--dry-run"); err != nil {
		t.Fatalf("impose --dry-run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(job), "out")); !os.IsNotExist(err) {
		t.Errorf("dry run created the output dir: %v", err)
	}
}

func TestImposeToolMissing(t *testing.T) {
	job := writeJob(t, 4)
	t.Setenv(raster.BinaryEnv, "zinefold-no-such-magick")

	err := execute(t, "impose", job, "--no-cache")
	if !errors.Is(err, errors.ErrCodeCompositorFailure) {
		t.Fatalf("impose error = %v, want COMPOSITOR_FAILURE", err)
	}
	if !strings.Contains(err.Error(), "2 of 2 sheet sides failed") {
		t.Errorf("error = %q, want a per-side summary", err)
	}
}

func TestPlanAndLayoutCommands(t *testing.T) {
	job := writeJob(t, 4)
	for _, args := range [][]string{
		{"plan", job},
		{"plan", job, "--json"},
		{"layout", job},
	} {
		if err := execute(t, args...); err != nil {
			t.Errorf("%v: %v", args, err)
		}
	}
}

func TestNewRunnerCompositorTimeout(t *testing.T) {
	tests := []struct {
		name     string
		job      string
		override time.Duration
		want     time.Duration
	}{
		{"default", "", 0, config.DefaultTimeout},
		{"job", "45s", 0, 45 * time.Second},
		{"flag wins", "45s", 5 * time.Second, 5 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Compositor: config.Compositor{Timeout: tt.job}}
			runner, err := newTestCLI().newRunner(context.Background(), cfg, true, tt.override)
			if err != nil {
				t.Fatalf("newRunner() error = %v", err)
			}
			defer runner.Close()
			m, ok := runner.Compositor.(*raster.Magick)
			if !ok {
				t.Fatalf("Compositor = %T, want *raster.Magick", runner.Compositor)
			}
			if m.Timeout != tt.want {
				t.Errorf("Timeout = %v, want %v", m.Timeout, tt.want)
			}
		})
	}

	bad := &config.Config{Compositor: config.Compositor{Timeout: "soon"}}
	if _, err := newTestCLI().newRunner(context.Background(), bad, true, 0); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("newRunner(bad timeout) error = %v, want INVALID_CONFIG", err)
	}
}

func TestMissingJobFile(t *testing.T) {
	err := execute(t, "plan", filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("plan error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("ZINEFOLD_TEST_ENV=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ZINEFOLD_TEST_ENV", "")
	os.Unsetenv("ZINEFOLD_TEST_ENV")

	if err := loadEnv(path); err != nil {
		t.Fatalf("loadEnv() error = %v", err)
	}
	if got := os.Getenv("ZINEFOLD_TEST_ENV"); got != "from-file" {
		t.Errorf("ZINEFOLD_TEST_ENV = %q, want from-file", got)
	}
	if err := loadEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("loadEnv(missing) error = %v, want nil", err)
	}
	if err := loadEnv(""); err != nil {
		t.Errorf("loadEnv(\"\") error = %v", err)
	}
}

func TestShellJoin(t *testing.T) {
	got := shellJoin([]string{"magick", "(", "scans/a b.png", "-crop", "100x150+0+0", "+repage", ")", "it's.png"})
	want := `magick '(' 'scans/a b.png' -crop 100x150+0+0 +repage ')' 'it'\''s.png'`
	if got != want {
		t.Errorf("shellJoin() =\n%s\nwant\n%s", got, want)
	}
}

// eightPagePlan is 4 spreads on a 1x1 grid: two sheets.
func eightPagePlan(t *testing.T) impose.Plan {
	t.Helper()
	var spreads []impose.SourceSpread
	for i := range 4 {
		spreads = append(spreads, impose.SourceSpread{Path: fmt.Sprintf("s%d.png", i), Width: 200, Height: 150})
	}
	pages, err := impose.SplitSpreads(spreads, impose.SplitOptions{})
	if err != nil {
		t.Fatal(err)
	}
	plan, err := impose.PlanImposition(pages, impose.Layout{Columns: 1, Rows: 1})
	if err != nil {
		t.Fatal(err)
	}
	return plan
}

func TestPlanTable(t *testing.T) {
	out := planTable(eightPagePlan(t)).Render()
	for _, want := range []string{"Sheet", "front", "back", "p7", "p0", "p3", "p4"} {
		if !strings.Contains(out, want) {
			t.Errorf("plan table missing %q:\n%s", want, out)
		}
	}
}

func TestSheetBrowserModel(t *testing.T) {
	m := NewSheetBrowserModel(eightPagePlan(t))
	if len(m.Sides) != 4 {
		t.Fatalf("Sides = %d, want 4", len(m.Sides))
	}

	press := func(m SheetBrowserModel, key string) SheetBrowserModel {
		var msg tea.KeyMsg
		switch key {
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
		}
		next, _ := m.Update(msg)
		return next.(SheetBrowserModel)
	}

	m = press(m, "left")
	if m.Cursor != 0 {
		t.Errorf("left at start: cursor = %d", m.Cursor)
	}
	m = press(m, "right")
	m = press(m, "right")
	if m.Cursor != 2 {
		t.Errorf("cursor = %d, want 2", m.Cursor)
	}
	m = press(m, "f")
	if m.Cursor != 3 {
		t.Errorf("flip from sheet 2 front: cursor = %d, want 3", m.Cursor)
	}
	m = press(m, "right")
	if m.Cursor != 3 {
		t.Errorf("right at end: cursor = %d", m.Cursor)
	}
	if view := m.View(); !strings.Contains(view, "Sheet 2 back") || !strings.Contains(view, "s2.png") {
		t.Errorf("View() =\n%s", view)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Error("q should quit")
	}
}

func TestCompletionCommand(t *testing.T) {
	for shell := range completionShells {
		t.Run(shell, func(t *testing.T) {
			var out bytes.Buffer
			root := newTestCLI().RootCommand()
			root.SetOut(&out)
			root.SetArgs([]string{"completion", shell, "--env-file", ""})
			if err := root.ExecuteContext(context.Background()); err != nil {
				t.Fatalf("completion %s: %v", shell, err)
			}
			if !strings.Contains(out.String(), appName) {
				t.Errorf("completion %s output does not mention %s", shell, appName)
			}
		})
	}
	if err := execute(t, "completion", "tcsh"); err == nil {
		t.Error("completion tcsh should fail")
	}
}

func TestCacheStatus(t *testing.T) {
	if got := cacheStatus(pipeline.CacheInfo{MeasureHits: 3}); !strings.Contains(got, "cached") {
		t.Errorf("cacheStatus(all hits) = %q", got)
	}
	if got := cacheStatus(pipeline.CacheInfo{MeasureHits: 2, MeasureMisses: 1}); !strings.Contains(got, "fresh") {
		t.Errorf("cacheStatus(mixed) = %q", got)
	}
}
