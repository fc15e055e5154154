// Package lsp implements the language server surface: stdio JSON-RPC
// transport, document synchronization, and the bookkeeping that converts
// incremental compile outcomes into the minimal diagnostic diff the client
// needs.
package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"gleam/internal/build"
	"gleam/internal/version"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// CompileFunc runs one compilation pass over the project rooted at root,
// with overlay buffers taking precedence over files on disk. The returned
// outcome is reduced through the server's BookKeeper.
type CompileFunc func(ctx context.Context, root string, overlay map[string]string) build.Outcome

// ServerOptions configures server behavior.
type ServerOptions struct {
	Debounce time.Duration
	Compile  CompileFunc
	Trace    bool
}

// Server handles stdio JSON-RPC for the Gleam language server. It owns the
// session's BookKeeper; compile passes run one at a time on the debounce
// goroutine, so bookkeeping calls are serialized by construction.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex

	mu            sync.Mutex
	openDocs      map[string]string
	versions      map[string]int
	workspaceRoot string

	shutdownRequested bool
	debounce          time.Duration
	debounceTimer     *time.Timer
	compileCancel     context.CancelFunc
	compileSeq        uint64
	latestSeq         uint64

	// passMu serializes compile outcome reduction and publishing; the
	// BookKeeper must only ever see one pass at a time.
	passMu sync.Mutex
	keeper *BookKeeper

	compile CompileFunc
	baseCtx context.Context
	trace   bool
}

// NewServer constructs a language server reading from in and writing to out.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	return &Server{
		in:       bufio.NewReader(in),
		out:      bufio.NewWriter(out),
		openDocs: make(map[string]string),
		versions: make(map[string]int),
		debounce: debounce,
		compile:  opts.Compile,
		keeper:   NewBookKeeper(),
		trace:    opts.Trace,
	}
}

// Run serves LSP requests until shutdown.
func (s *Server) Run(ctx context.Context) error {
	s.baseCtx = ctx
	for {
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logf("failed to parse message: %v", err)
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			return err
		}
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		s.shutdownRequested = true
		return s.sendResult(msg.ID, nil)
	case "exit":
		if s.shutdownRequested {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "workspace/didChangeConfiguration":
		return nil
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, -32601, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, -32602, "invalid params")
		}
	}
	root := ""
	if params.RootURI != "" {
		root = uriToPath(params.RootURI)
	}
	if root == "" && params.RootPath != "" {
		root = params.RootPath
	}
	if root == "" && len(params.WorkspaceFolders) > 0 {
		root = uriToPath(params.WorkspaceFolders[0].URI)
	}
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}
	s.mu.Lock()
	s.workspaceRoot = root
	s.mu.Unlock()

	return s.sendResult(msg.ID, initializeResult{
		Capabilities: serverCapabilities{TextDocumentSync: 1},
		ServerInfo:   serverInfo{Name: "gleam", Version: version.Plain()},
	})
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	s.mu.Lock()
	s.openDocs[params.TextDocument.URI] = params.TextDocument.Text
	s.versions[params.TextDocument.URI] = params.TextDocument.Version
	s.mu.Unlock()
	s.scheduleCompile()
	return nil
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	if len(params.ContentChanges) == 0 {
		return nil
	}
	// Full sync: the last change event carries the whole document.
	text := params.ContentChanges[len(params.ContentChanges)-1].Text
	s.mu.Lock()
	_, open := s.openDocs[params.TextDocument.URI]
	// Notifications can arrive reordered through middleware; an update
	// older than what we already hold must not roll the document back.
	stale := open && params.TextDocument.Version < s.versions[params.TextDocument.URI]
	if open && !stale {
		s.openDocs[params.TextDocument.URI] = text
		s.versions[params.TextDocument.URI] = params.TextDocument.Version
	}
	s.mu.Unlock()
	if !open || stale {
		return nil
	}
	s.scheduleCompile()
	return nil
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	s.scheduleCompile()
	return nil
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	s.mu.Lock()
	delete(s.openDocs, params.TextDocument.URI)
	delete(s.versions, params.TextDocument.URI)
	s.mu.Unlock()
	s.scheduleCompile()
	return nil
}

func (s *Server) scheduleCompile() {
	s.mu.Lock()
	seq := atomic.AddUint64(&s.compileSeq, 1)
	atomic.StoreUint64(&s.latestSeq, seq)
	if s.compileCancel != nil {
		s.compileCancel()
	}
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.debounceTimer = time.AfterFunc(s.debounce, func() {
		s.runCompile(seq)
	})
	s.mu.Unlock()
}

func (s *Server) isLatestSeq(seq uint64) bool {
	return atomic.LoadUint64(&s.latestSeq) == seq
}

func (s *Server) runCompile(seq uint64) {
	if seq == 0 || !s.isLatestSeq(seq) {
		return
	}
	if s.compile == nil {
		return
	}

	s.mu.Lock()
	if s.compileCancel != nil {
		s.compileCancel()
	}
	base := s.baseCtx
	if base == nil {
		base = context.Background()
	}
	ctx, cancel := context.WithCancel(base)
	s.compileCancel = cancel
	root := s.workspaceRoot
	overlay := make(map[string]string, len(s.openDocs))
	for uri, text := range s.openDocs {
		path := uriToPath(uri)
		if path == "" {
			continue
		}
		overlay[path] = text
	}
	s.mu.Unlock()

	outcome := s.compile(ctx, root, overlay)
	if ctx.Err() != nil {
		s.tracef("discard pass: seq=%d canceled", seq)
		return
	}

	// A stale outcome must not touch the BookKeeper: nothing from it has
	// been shown to the client, so dropping it wholesale keeps the state
	// consistent.
	s.passMu.Lock()
	defer s.passMu.Unlock()
	if !s.isLatestSeq(seq) {
		s.tracef("discard pass: seq=%d superseded", seq)
		return
	}

	var feedback Feedback
	if outcome.Err != nil {
		feedback = s.keeper.BuildWithError(outcome.Err, outcome.Compiled, outcome.Warnings)
	} else {
		feedback = s.keeper.Compiled(outcome.Compiled, outcome.Warnings)
	}
	s.publishFeedback(feedback)
}

func (s *Server) logf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "gleam lsp: "+format+"\n", args...)
}

func (s *Server) tracef(format string, args ...any) {
	if s.trace {
		s.logf(format, args...)
	}
}

func (s *Server) sendResult(id json.RawMessage, result any) error {
	payload := struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Result  any             `json:"result"`
	}{JSONRPC: "2.0", ID: id, Result: result}
	return s.send(payload)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	payload := struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Error   rpcError        `json:"error"`
	}{JSONRPC: "2.0", ID: id, Error: rpcError{Code: code, Message: message}}
	return s.send(payload)
}

func (s *Server) sendNotification(method string, params any) error {
	payload := struct {
		JSONRPC string `json:"jsonrpc"`
		Method  string `json:"method"`
		Params  any    `json:"params"`
	}{JSONRPC: "2.0", Method: method, Params: params}
	return s.send(payload)
}

func (s *Server) send(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, data); err != nil {
		return err
	}
	return s.out.Flush()
}
