// Package driver orchestrates incremental compilation passes: it discovers
// project sources, decides which modules actually need recompiling, runs
// the front end over them in parallel, and reports the pass outcome for
// the language server's bookkeeping or the CLI.
package driver

import (
	"context"
	"crypto/sha256"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"gleam/internal/build"
	"gleam/internal/project"
)

const sourceExt = ".gleam"

// Options configures a Runner.
type Options struct {
	// Frontend compiles individual modules. Defaults to the shipped
	// encoding-only front end.
	Frontend build.Frontend

	// Cache persists hashes and warnings across sessions. Optional.
	Cache *DiskCache

	// ReplayCachedWarnings includes cache-valid modules' stored warnings
	// in the outcome. The CLI wants the full picture per invocation; the
	// language server must not, since its bookkeeping already tracks what
	// the client shows.
	ReplayCachedWarnings bool

	// Jobs bounds front-end parallelism. Defaults to GOMAXPROCS.
	Jobs int
}

// Runner drives compilation passes for one session. Hashes seen during
// the session are kept in memory so repeated passes stay incremental even
// without a disk cache.
type Runner struct {
	frontend build.Frontend
	cache    *DiskCache
	replay   bool
	jobs     int

	// mu serializes passes. A canceled pass keeps executing until its
	// current module returns, and the debounce timer may start the next
	// pass meanwhile; both touch hashes.
	mu     sync.Mutex
	hashes map[string]Digest
}

func NewRunner(opts Options) *Runner {
	frontend := opts.Frontend
	if frontend == nil {
		frontend = build.EncodingFrontend{}
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	return &Runner{
		frontend: frontend,
		cache:    opts.Cache,
		replay:   opts.ReplayCachedWarnings,
		jobs:     jobs,
		hashes:   make(map[string]Digest),
	}
}

type moduleSource struct {
	path string
	src  []byte
	hash Digest
}

type moduleResult struct {
	ran      bool
	warnings []build.Warning
	err      build.Error
}

// Compile runs one pass over the project rooted at (or above) root.
// Overlay buffers take precedence over files on disk. Passes run one at a
// time; a call made while another pass is still draining blocks until it
// finishes. A pass canceled through ctx commits nothing and returns an
// empty outcome.
func (r *Runner) Compile(ctx context.Context, root string, overlay map[string]string) build.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	manifest, ok, err := project.Load(root)
	if err != nil {
		return build.Outcome{Err: build.ProjectError{Detail: err.Error()}}
	}
	if !ok {
		return build.Outcome{Err: build.ProjectError{
			Detail: "no " + project.ManifestName + " found in " + root + " or any parent directory",
		}}
	}

	paths, err := listSources(manifest.SourceDirs())
	if err != nil {
		return build.Outcome{Err: build.FileIOError{
			Action: "walk", Path: manifest.Root, Detail: err.Error(),
		}}
	}

	var (
		changed  []moduleSource
		replayed []build.Warning
	)
	for _, path := range paths {
		src, ioErr := readSource(path, overlay)
		if ioErr != nil {
			return build.Outcome{Err: ioErr}
		}
		hash := Digest(sha256.Sum256(src))
		prev, cachedWarnings, known := r.lookup(path)
		if known && prev == hash {
			if r.replay {
				replayed = append(replayed, cachedWarnings...)
			}
			continue
		}
		changed = append(changed, moduleSource{path: path, src: src, hash: hash})
	}

	results := r.compileChanged(ctx, changed)

	// The caller discards a canceled pass, so nothing from it may be
	// committed: a remembered hash would make the next pass skip the
	// module and its never-published results would be lost.
	if ctx.Err() != nil {
		return build.Outcome{}
	}

	outcome := build.Outcome{Warnings: replayed}
	for i, res := range results {
		if res.err != nil {
			outcome.Err = res.err
			break
		}
		if !res.ran {
			continue
		}
		module := changed[i]
		outcome.Compiled = append(outcome.Compiled, module.path)
		outcome.Warnings = append(outcome.Warnings, res.warnings...)
		r.remember(module.path, module.hash, res.warnings)
	}
	return outcome
}

// ClearSession drops the in-memory hash state, forcing the next pass to
// consult the disk cache (or recompile everything).
func (r *Runner) ClearSession() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hashes = make(map[string]Digest)
}

func (r *Runner) compileChanged(ctx context.Context, changed []moduleSource) []moduleResult {
	results := make([]moduleResult, len(changed))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.jobs)
	for i, module := range changed {
		i, module := i, module
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			warnings, cerr := r.frontend.CompileModule(gctx, module.path, module.src)
			results[i] = moduleResult{ran: true, warnings: warnings, err: cerr}
			if cerr != nil {
				// Stop the pass at the first fatal error.
				return cerr
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *Runner) lookup(path string) (Digest, []build.Warning, bool) {
	if hash, ok := r.hashes[path]; ok {
		// The session already compiled this version; warnings replay from
		// disk when available.
		if r.cache != nil {
			if _, warnings, found := r.cache.Load(path); found {
				return hash, warnings, true
			}
		}
		return hash, nil, true
	}
	if r.cache != nil {
		if hash, warnings, found := r.cache.Load(path); found {
			return hash, warnings, true
		}
	}
	return Digest{}, nil, false
}

func (r *Runner) remember(path string, hash Digest, warnings []build.Warning) {
	r.hashes[path] = hash
	if r.cache != nil {
		// Cache failures must not fail the build.
		_ = r.cache.Store(path, hash, warnings)
	}
}

func readSource(path string, overlay map[string]string) ([]byte, build.Error) {
	if overlay != nil {
		if text, ok := overlay[path]; ok {
			return []byte(text), nil
		}
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, build.FileIOError{Action: "read", Path: path, Detail: err.Error()}
	}
	return src, nil
}

func listSources(dirs []string) ([]string, error) {
	var files []string
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return filepath.SkipAll
				}
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, sourceExt) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}
