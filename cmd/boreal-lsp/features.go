// cmd/boreal-lsp/features.go
//
// ROLE: LSP feature handlers built on the cached analysis from
//       core.go. Converts editor requests into language answers.
//
// What lives here
//   • initialize: capabilities and the semantic-token legend.
//   • text sync (didOpen/didChange/didClose) triggering analysis.
//   • definition (backed by the core's FindDefinition partial pass),
//     document symbols (from the resolved symbol table), and semantic
//     tokens full (delta-encoded from the core's token stream).
//
// What does NOT live here
//   • No transport framing (see core.go) or JSON-RPC loop (see main.go).
//   • No analysis logic (see core.go and the boreal package).

package main

import (
	"encoding/json"
	"sort"

	boreal "github.com/oxixes/boreal-lang-ext"
)

// Legend order is fixed: indices feed the semantic-token encoding.
var (
	legendTypes     = []string{"variable", "function"}
	legendModifiers = []string{"definition"}
)

var semTypeIndex = map[string]int{
	"variable": 0,
	"function": 1,
}

////////////////////////////////////////////////////////////////////////////////
// Initialize & text sync
////////////////////////////////////////////////////////////////////////////////

func (s *server) onInitialize(id json.RawMessage, _ json.RawMessage) {
	result := InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync: TextDocumentSyncOptions{
				OpenClose: true,
				Change:    1, // Full
			},
			DefinitionProvider:     true,
			DocumentSymbolProvider: true,
			SemanticTokensProvider: &SemanticTokensOptions{
				Legend: SemanticTokensLegend{
					TokenTypes:     legendTypes,
					TokenModifiers: legendModifiers,
				},
				Full: true,
			},
		},
		ServerInfo: map[string]string{
			"name":    "boreal-lsp",
			"version": "0.2",
		},
	}
	s.sendResponse(id, result, nil)
}

func (s *server) onDidOpen(raw json.RawMessage) {
	var params struct {
		TextDocument TextDocumentItem `json:"textDocument"`
	}
	_ = json.Unmarshal(raw, &params)
	doc := &docState{
		uri:  params.TextDocument.URI,
		text: params.TextDocument.Text,
	}
	s.mu.Lock()
	s.docs[doc.uri] = doc
	s.mu.Unlock()
	s.analyze(doc)
}

func (s *server) onDidChange(raw json.RawMessage) {
	var params struct {
		TextDocument struct {
			URI string `json:"uri"`
		} `json:"textDocument"`
		ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
	}
	_ = json.Unmarshal(raw, &params)
	if len(params.ContentChanges) == 0 {
		return
	}

	s.mu.Lock()
	doc := s.docs[params.TextDocument.URI]
	if doc == nil {
		doc = &docState{uri: params.TextDocument.URI}
		s.docs[doc.uri] = doc
	}
	// Full sync: the last change carries the whole document.
	doc.text = params.ContentChanges[len(params.ContentChanges)-1].Text
	doc.result = nil
	s.mu.Unlock()

	s.analyze(doc)
}

func (s *server) onDidClose(raw json.RawMessage) {
	var params struct {
		TextDocument TextDocumentIdentifier `json:"textDocument"`
	}
	_ = json.Unmarshal(raw, &params)
	s.mu.Lock()
	delete(s.docs, params.TextDocument.URI)
	s.mu.Unlock()
	s.notify("textDocument/publishDiagnostics", PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []Diagnostic{},
	})
}

////////////////////////////////////////////////////////////////////////////////
// Definition
////////////////////////////////////////////////////////////////////////////////

func (s *server) onDefinition(id json.RawMessage, raw json.RawMessage) {
	var params TextDocumentPositionParams
	_ = json.Unmarshal(raw, &params)

	doc := s.snapshotDoc(params.TextDocument.URI)
	if doc == nil {
		s.sendResponse(id, nil, nil)
		return
	}

	// Core coordinates: 1-based line, 0-based column.
	def, ok := s.analyzer.FindDefinition(doc.text, params.Position.Line+1, params.Position.Character)
	if !ok {
		s.sendResponse(id, nil, nil)
		return
	}
	s.sendResponse(id, Location{
		URI: doc.uri,
		Range: Range{
			Start: Position{Line: def.Line - 1, Character: def.Col},
			End:   Position{Line: def.Line - 1, Character: def.Col + def.Length},
		},
	}, nil)
}

////////////////////////////////////////////////////////////////////////////////
// Document symbols
////////////////////////////////////////////////////////////////////////////////

// LSP SymbolKind values used below.
const (
	symbolKindFunction = 12
	symbolKindVariable = 13
)

func (s *server) onDocumentSymbols(id json.RawMessage, raw json.RawMessage) {
	var params struct {
		TextDocument TextDocumentIdentifier `json:"textDocument"`
	}
	_ = json.Unmarshal(raw, &params)

	doc := s.snapshotDoc(params.TextDocument.URI)
	if doc == nil || doc.result == nil || doc.result.SymbolTable == nil {
		s.sendResponse(id, []DocumentSymbol{}, nil)
		return
	}

	var out []DocumentSymbol
	doc.result.SymbolTable.Walk(func(_ *boreal.Scope, sym *boreal.Symbol) {
		if sym.Kind == boreal.KindUnknown {
			return
		}
		kind := symbolKindVariable
		switch sym.Kind {
		case boreal.KindFunction, boreal.KindProcedure, boreal.KindProgram:
			kind = symbolKindFunction
		}
		r := Range{
			Start: Position{Line: sym.Def.Line - 1, Character: sym.Def.Col},
			End:   Position{Line: sym.Def.Line - 1, Character: sym.Def.Col + sym.Def.Length},
		}
		out = append(out, DocumentSymbol{
			Name:           sym.Lexeme,
			Detail:         sym.Kind.String(),
			Kind:           kind,
			Range:          r,
			SelectionRange: r,
		})
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Range.Start.Line != out[j].Range.Start.Line {
			return out[i].Range.Start.Line < out[j].Range.Start.Line
		}
		return out[i].Range.Start.Character < out[j].Range.Start.Character
	})
	s.sendResponse(id, out, nil)
}

////////////////////////////////////////////////////////////////////////////////
// Semantic tokens
////////////////////////////////////////////////////////////////////////////////

func (s *server) onSemanticTokensFull(id json.RawMessage, raw json.RawMessage) {
	var params SemanticTokensParams
	_ = json.Unmarshal(raw, &params)

	doc := s.snapshotDoc(params.TextDocument.URI)
	if doc == nil || doc.result == nil {
		s.sendResponse(id, SemanticTokens{Data: []uint32{}}, nil)
		return
	}
	s.sendResponse(id, SemanticTokens{Data: encodeSemanticTokens(doc.result.SemanticTokens)}, nil)
}

// encodeSemanticTokens delta-encodes the core's token stream per the
// LSP wire format: (deltaLine, deltaStart, length, type, modifiers).
func encodeSemanticTokens(toks []boreal.SemanticToken) []uint32 {
	sorted := append([]boreal.SemanticToken(nil), toks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Line != sorted[j].Line {
			return sorted[i].Line < sorted[j].Line
		}
		return sorted[i].Col < sorted[j].Col
	})

	data := make([]uint32, 0, len(sorted)*5)
	prevLine, prevCol := 0, 0
	for _, t := range sorted {
		line := t.Line - 1
		dLine := line - prevLine
		dCol := t.Col
		if dLine == 0 {
			dCol = t.Col - prevCol
		}
		var mods uint32
		for _, m := range t.Modifiers {
			if m == "definition" {
				mods |= 1
			}
		}
		data = append(data,
			uint32(dLine), uint32(dCol), uint32(t.Length),
			uint32(semTypeIndex[t.TokenType]), mods)
		prevLine, prevCol = line, t.Col
	}
	return data
}
