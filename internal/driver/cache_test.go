package driver

import (
	"crypto/sha256"
	"os"
	"testing"

	"gleam/internal/build"
	"gleam/internal/source"
)

func TestDiskCacheRoundTrip(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}

	hash := Digest(sha256.Sum256([]byte("pub fn main() {}\n")))
	warning := build.TypeWarning{
		Path:    "src/app.gleam",
		Src:     "let x = 1\n",
		Span:    source.NewSpan(4, 5),
		Message: "unused variable `x`",
	}
	if err := cache.Store("src/app.gleam", hash, []build.Warning{warning}); err != nil {
		t.Fatalf("store: %v", err)
	}

	gotHash, warnings, ok := cache.Load("src/app.gleam")
	if !ok {
		t.Fatal("record not found after store")
	}
	if gotHash != hash {
		t.Errorf("hash mismatch")
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %d, want 1", len(warnings))
	}
	d := warnings[0].ToDiagnostic()
	if d.Message != "unused variable `x`" {
		t.Errorf("message = %q", d.Message)
	}
	if !d.Located() || d.Path() != "src/app.gleam" {
		t.Errorf("location = %+v", d.Location)
	}
	if d.Location.Range.Start != (source.LineCol{Line: 1, Col: 5}) {
		t.Errorf("start = %+v", d.Location.Range.Start)
	}
}

func TestDiskCacheMissingRecord(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	if _, _, ok := cache.Load("src/nope.gleam"); ok {
		t.Fatal("found a record that was never stored")
	}
}

func TestDiskCacheCorruptRecordTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	cache, err := OpenDiskCacheAt(dir)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	if err := cache.Store("src/app.gleam", Digest{}, nil); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := os.WriteFile(cache.pathFor("src/app.gleam"), []byte("not msgpack"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	if _, _, ok := cache.Load("src/app.gleam"); ok {
		t.Fatal("corrupt record loaded")
	}
}

func TestDiskCacheRemove(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	if err := cache.Store("src/app.gleam", Digest{}, nil); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := cache.Remove("src/app.gleam"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, _, ok := cache.Load("src/app.gleam"); ok {
		t.Fatal("record still present after remove")
	}
	// Removing twice is fine.
	if err := cache.Remove("src/app.gleam"); err != nil {
		t.Fatalf("second remove: %v", err)
	}
}
