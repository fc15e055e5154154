package driver

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"gleam/internal/build"
	"gleam/internal/source"
)

// countingFrontend records which modules it was asked to compile.
type countingFrontend struct {
	mu       sync.Mutex
	compiled map[string]int
	warnings map[string][]build.Warning
	errors   map[string]build.Error
}

func newCountingFrontend() *countingFrontend {
	return &countingFrontend{
		compiled: make(map[string]int),
		warnings: make(map[string][]build.Warning),
		errors:   make(map[string]build.Error),
	}
}

func (f *countingFrontend) CompileModule(_ context.Context, path string, _ []byte) ([]build.Warning, build.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.compiled[path]++
	return f.warnings[path], f.errors[path]
}

func (f *countingFrontend) timesCompiled(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.compiled[path]
}

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	manifest := filepath.Join(root, "gleam.toml")
	if err := os.WriteFile(manifest, []byte("[package]\nname = \"app\"\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return root
}

func TestCompileReportsOnlyChangedModules(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/one.gleam": "pub fn one() { 1 }\n",
		"src/two.gleam": "pub fn two() { 2 }\n",
	})
	frontend := newCountingFrontend()
	runner := NewRunner(Options{Frontend: frontend})

	outcome := runner.Compile(context.Background(), root, nil)
	if outcome.Err != nil {
		t.Fatalf("first pass failed: %v", outcome.Err)
	}
	if len(outcome.Compiled) != 2 {
		t.Fatalf("first pass compiled = %v, want both modules", outcome.Compiled)
	}

	// Nothing changed, so the second pass compiles nothing.
	outcome = runner.Compile(context.Background(), root, nil)
	if outcome.Err != nil {
		t.Fatalf("second pass failed: %v", outcome.Err)
	}
	if len(outcome.Compiled) != 0 {
		t.Errorf("second pass compiled = %v, want none", outcome.Compiled)
	}

	one := filepath.Join(root, "src", "one.gleam")
	if got := frontend.timesCompiled(one); got != 1 {
		t.Errorf("one.gleam compiled %d times, want 1", got)
	}
}

func TestCompileOverlayTriggersRecompile(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/one.gleam": "pub fn one() { 1 }\n",
	})
	frontend := newCountingFrontend()
	runner := NewRunner(Options{Frontend: frontend})

	if outcome := runner.Compile(context.Background(), root, nil); outcome.Err != nil {
		t.Fatalf("first pass failed: %v", outcome.Err)
	}

	one := filepath.Join(root, "src", "one.gleam")
	overlay := map[string]string{one: "pub fn one() { 2 }\n"}
	outcome := runner.Compile(context.Background(), root, overlay)
	if outcome.Err != nil {
		t.Fatalf("overlay pass failed: %v", outcome.Err)
	}
	if len(outcome.Compiled) != 1 || outcome.Compiled[0] != one {
		t.Errorf("overlay pass compiled = %v, want [%s]", outcome.Compiled, one)
	}
}

func TestCompileSurfacesWarnings(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/one.gleam": "pub fn one() { 1 }\n",
	})
	one := filepath.Join(root, "src", "one.gleam")
	frontend := newCountingFrontend()
	frontend.warnings[one] = []build.Warning{
		build.TypeWarning{Path: one, Src: "x", Span: source.NewSpan(0, 1), Message: "todo"},
	}
	runner := NewRunner(Options{Frontend: frontend})

	outcome := runner.Compile(context.Background(), root, nil)
	if outcome.Err != nil {
		t.Fatalf("pass failed: %v", outcome.Err)
	}
	if len(outcome.Warnings) != 1 {
		t.Fatalf("warnings = %d, want 1", len(outcome.Warnings))
	}
}

func TestCompileStopsAtFirstError(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/a.gleam": "a\n",
		"src/b.gleam": "b\n",
		"src/c.gleam": "c\n",
	})
	b := filepath.Join(root, "src", "b.gleam")
	frontend := newCountingFrontend()
	frontend.errors[b] = build.ParseError{Path: b, Src: "b\n", Span: source.NewSpan(0, 1), Message: "unexpected token"}
	runner := NewRunner(Options{Frontend: frontend, Jobs: 1})

	outcome := runner.Compile(context.Background(), root, nil)
	if outcome.Err == nil {
		t.Fatal("pass succeeded despite failing module")
	}
	a := filepath.Join(root, "src", "a.gleam")
	if len(outcome.Compiled) != 1 || outcome.Compiled[0] != a {
		t.Errorf("compiled = %v, want [%s]", outcome.Compiled, a)
	}

	// The failed module was not cached, so fixing nothing means it is
	// retried next pass.
	outcome = runner.Compile(context.Background(), root, nil)
	if outcome.Err == nil {
		t.Fatal("second pass should fail again")
	}
	if got := frontend.timesCompiled(b); got != 2 {
		t.Errorf("b.gleam compiled %d times, want 2", got)
	}
}

func TestCanceledPassCommitsNothing(t *testing.T) {
	// A canceled pass is discarded by the language server, so the runner
	// must not remember its hashes: otherwise the next pass would skip
	// the module as unchanged and its warning would never be published.
	root := writeProject(t, map[string]string{
		"src/one.gleam": "pub fn one() { 1 }\n",
	})
	one := filepath.Join(root, "src", "one.gleam")

	ctx, cancel := context.WithCancel(context.Background())
	frontend := build.FrontendFunc(func(_ context.Context, path string, _ []byte) ([]build.Warning, build.Error) {
		// The edit racing this pass lands mid-compile.
		cancel()
		return []build.Warning{
			build.TypeWarning{Path: path, Src: "x", Span: source.NewSpan(0, 1), Message: "todo"},
		}, nil
	})
	runner := NewRunner(Options{Frontend: frontend})

	outcome := runner.Compile(ctx, root, nil)
	if len(outcome.Compiled) != 0 || len(outcome.Warnings) != 0 || outcome.Err != nil {
		t.Fatalf("canceled pass reported work: %+v", outcome)
	}

	outcome = runner.Compile(context.Background(), root, nil)
	if len(outcome.Compiled) != 1 || outcome.Compiled[0] != one {
		t.Errorf("follow-up pass compiled = %v, want [%s]", outcome.Compiled, one)
	}
	if len(outcome.Warnings) != 1 {
		t.Errorf("follow-up pass warnings = %d, want 1", len(outcome.Warnings))
	}
}

func TestCanceledPassDoesNotTouchDiskCache(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/one.gleam": "pub fn one() { 1 }\n",
	})
	one := filepath.Join(root, "src", "one.gleam")
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	frontend := build.FrontendFunc(func(_ context.Context, _ string, _ []byte) ([]build.Warning, build.Error) {
		cancel()
		return nil, nil
	})
	runner := NewRunner(Options{Frontend: frontend, Cache: cache})

	_ = runner.Compile(ctx, root, nil)
	if _, _, ok := cache.Load(one); ok {
		t.Fatal("canceled pass wrote a cache record")
	}
}

func TestCompileSafeForConcurrentCallers(t *testing.T) {
	// The debounce timer can start a new pass while a canceled one is
	// still draining; the runner serializes them itself.
	root := writeProject(t, map[string]string{
		"src/one.gleam": "pub fn one() { 1 }\n",
		"src/two.gleam": "pub fn two() { 2 }\n",
	})
	runner := NewRunner(Options{Frontend: newCountingFrontend()})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = runner.Compile(context.Background(), root, nil)
		}()
	}
	wg.Wait()

	outcome := runner.Compile(context.Background(), root, nil)
	if outcome.Err != nil {
		t.Fatalf("final pass failed: %v", outcome.Err)
	}
	if len(outcome.Compiled) != 0 {
		t.Errorf("final pass compiled = %v, want none", outcome.Compiled)
	}
}

func TestCompileMissingManifest(t *testing.T) {
	runner := NewRunner(Options{Frontend: newCountingFrontend()})
	outcome := runner.Compile(context.Background(), t.TempDir(), nil)
	if outcome.Err == nil {
		t.Fatal("missing manifest accepted")
	}
	if outcome.Err.ToDiagnostic().Located() {
		t.Error("project error should be locationless")
	}
}

func TestCompileReplaysCachedWarnings(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/one.gleam": "pub fn one() { 1 }\n",
	})
	one := filepath.Join(root, "src", "one.gleam")
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	frontend := newCountingFrontend()
	frontend.warnings[one] = []build.Warning{
		build.TypeWarning{Path: one, Src: "x", Span: source.NewSpan(0, 1), Message: "todo"},
	}

	first := NewRunner(Options{Frontend: frontend, Cache: cache, ReplayCachedWarnings: true})
	if outcome := first.Compile(context.Background(), root, nil); len(outcome.Warnings) != 1 {
		t.Fatalf("first run warnings = %d, want 1", len(outcome.Warnings))
	}

	// A fresh runner sharing the cache serves the module without
	// recompiling but still reports its stored warning.
	second := NewRunner(Options{Frontend: frontend, Cache: cache, ReplayCachedWarnings: true})
	outcome := second.Compile(context.Background(), root, nil)
	if len(outcome.Compiled) != 0 {
		t.Errorf("compiled = %v, want none", outcome.Compiled)
	}
	if len(outcome.Warnings) != 1 {
		t.Fatalf("replayed warnings = %d, want 1", len(outcome.Warnings))
	}
	if _, ok := outcome.Warnings[0].(build.CachedWarning); !ok {
		t.Errorf("warning type = %T, want build.CachedWarning", outcome.Warnings[0])
	}
}
