package lsp

import (
	"net/url"
	"path/filepath"
	"strings"
)

// uriToPath resolves a textDocument URI to an absolute, OS-native path.
// Clients send file:// URIs with percent-escaped paths; a bare path is
// accepted as-is. Non-file schemes (untitled:, git:) resolve to "".
func uriToPath(uri string) string {
	if uri == "" {
		return ""
	}
	path := uri
	if parsed, err := url.Parse(uri); err == nil && parsed.Scheme != "" {
		if parsed.Scheme != "file" {
			return ""
		}
		path = parsed.Path
	} else if err != nil && strings.Contains(uri, "://") {
		return ""
	}
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}
	path = filepath.FromSlash(path)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path
}

// pathToURI is the inverse mapping, used when publishing diagnostics:
// the diagnostics we keep are keyed by path, the wire wants file:// URIs.
func pathToURI(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}
