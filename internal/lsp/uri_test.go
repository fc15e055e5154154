package lsp

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestURIRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "src", "my module.gleam")
	uri := pathToURI(path)
	if !strings.HasPrefix(uri, "file://") {
		t.Fatalf("uri = %q, want file scheme", uri)
	}
	if got := uriToPath(uri); got != path {
		t.Errorf("round trip = %q, want %q", got, path)
	}
}

func TestURIToPathRejectsNonFileSchemes(t *testing.T) {
	for _, uri := range []string{"untitled:Untitled-1", "git://host/repo"} {
		if got := uriToPath(uri); got != "" {
			t.Errorf("uriToPath(%q) = %q, want empty", uri, got)
		}
	}
}

func TestURIToPathAcceptsBarePath(t *testing.T) {
	dir := t.TempDir()
	if got := uriToPath(filepath.Join(dir, "a.gleam")); got != filepath.Join(dir, "a.gleam") {
		t.Errorf("bare path mangled: %q", got)
	}
}
