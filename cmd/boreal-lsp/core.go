// cmd/boreal-lsp/core.go
//
// ROLE: Shared infrastructure for the LSP server: transport helpers,
//       server/document state, position math, and the analysis
//       pipeline that feeds diagnostics to the editor.
//
// What lives here
//   • Framed stdio transport (Content-Length) and send/notify helpers.
//   • server/docState: open documents and their cached analysis.
//   • The analyze step: run the Boreal front-end over a document and
//     publish its diagnostics.
//
// What does NOT live here
//   • No LSP feature handlers (definition, symbols, tokens) — those
//     are in features.go and read the cached analysis.
//   • No language logic; the core package owns lexing, parsing and
//     type checking.

package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	boreal "github.com/oxixes/boreal-lang-ext"
)

////////////////////////////////////////////////////////////////////////////////
// Transport (stdio framing) + send/notify
////////////////////////////////////////////////////////////////////////////////

var stdoutSink io.Writer = os.Stdout

func init() {
	// Silence unsolicited output during `go test` unless opted in.
	if strings.HasSuffix(os.Args[0], ".test") && os.Getenv("LSP_STDOUT") == "" {
		stdoutSink = io.Discard
	}
}

func readMsg(r *bufio.Reader) ([]byte, error) {
	var contentLen int
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if i := strings.IndexByte(line, ':'); i >= 0 {
			key := strings.ToLower(strings.TrimSpace(line[:i]))
			val := strings.TrimSpace(line[i+1:])
			if key == "content-length" {
				_, _ = fmt.Sscanf(val, "%d", &contentLen)
			}
		}
	}
	if contentLen <= 0 {
		return nil, io.EOF
	}
	buf := make([]byte, contentLen)
	_, err := io.ReadFull(r, buf)
	return buf, err
}

func writeMsg(w io.Writer, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "Content-Length: %d\r\n\r\n", len(body))
	b.Write(body)
	_, err = w.Write(b.Bytes())
	return err
}

func (s *server) sendResponse(id json.RawMessage, result any, respErr *ResponseError) {
	if respErr == nil && result == nil {
		rawNull := json.RawMessage([]byte("null"))
		_ = writeMsg(stdoutSink, Response{JSONRPC: "2.0", ID: id, Result: rawNull})
		return
	}
	_ = writeMsg(stdoutSink, Response{JSONRPC: "2.0", ID: id, Result: result, Error: respErr})
}

func (s *server) notify(method string, params any) {
	_ = writeMsg(stdoutSink, map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	})
}

////////////////////////////////////////////////////////////////////////////////
// Server state & document model
////////////////////////////////////////////////////////////////////////////////

// docState: per-document caches (populated by analysis).
type docState struct {
	uri    string
	text   string
	result *boreal.Result
}

// server: global state for the LSP server.
type server struct {
	mu       sync.RWMutex
	docs     map[string]*docState
	analyzer *boreal.Analyzer
}

func newServer() *server {
	an, err := boreal.NewAnalyzer()
	if err != nil {
		fmt.Fprintln(os.Stderr, "table construction failed:", err)
		os.Exit(1)
	}
	return &server{
		docs:     make(map[string]*docState),
		analyzer: an,
	}
}

// snapshotDoc returns a consistent snapshot of a document. The cached
// result is immutable once stored, so sharing it is safe.
func (s *server) snapshotDoc(uri string) *docState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d := s.docs[uri]
	if d == nil {
		return nil
	}
	cp := *d
	return &cp
}

////////////////////////////////////////////////////////////////////////////////
// Analysis pipeline & diagnostics
////////////////////////////////////////////////////////////////////////////////

// analyze runs the front-end over the document and publishes the
// collected diagnostics.
func (s *server) analyze(doc *docState) {
	res := s.analyzer.Analyze(doc.text)

	s.mu.Lock()
	doc.result = res
	s.mu.Unlock()

	diags := make([]Diagnostic, 0, 8)
	for _, d := range res.Diags() {
		sev := 1
		if d.Severity == boreal.SevWarning {
			sev = 2
		}
		diags = append(diags, Diagnostic{
			Range:    diagRange(d),
			Severity: sev,
			Source:   "boreal",
			Message:  d.Message,
		})
	}
	s.notify("textDocument/publishDiagnostics", PublishDiagnosticsParams{
		URI:         doc.uri,
		Diagnostics: diags,
	})
}

// diagRange maps a core diagnostic span onto an LSP range. Boreal
// sources are ASCII, so byte columns and UTF-16 columns coincide.
func diagRange(d boreal.Diag) Range {
	line := d.Line - 1
	if line < 0 {
		line = 0
	}
	length := d.Length
	if length < 1 {
		length = 1
	}
	return Range{
		Start: Position{Line: line, Character: d.Col},
		End:   Position{Line: line, Character: d.Col + length},
	}
}
