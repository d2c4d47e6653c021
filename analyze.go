// analyze.go — the front-end entry points.
//
// One Analyzer owns the immutable parse tables and is shared across
// analyses; everything per-document (symbol table, lexer, stacks,
// error lists) is built fresh inside Analyze. FindDefinition is the
// partial-analysis variant backing go-to-definition: it arms the
// lexer's stop point and inspects the retained last token.
package boreal

import (
	"sort"
	"sync"
)

// SemanticToken is one entry of the highlighting stream: an identifier
// occurrence after resolution.
type SemanticToken struct {
	Line      int // 1-based
	Col       int // 0-based
	Length    int
	TokenType string   // "variable" or "function"
	Modifiers []string // subset of {"definition"}
}

// Result is the product of one full analysis.
type Result struct {
	Root     Attr
	Accepted bool

	LexicalErrors    []Diag
	SyntaxErrors     []SyntaxDiag
	SemanticErrors   []Diag
	SemanticWarnings []Diag

	SemanticTokens []SemanticToken
	SymbolTable    *SymbolTable
}

// Diags flattens every diagnostic of the result in source order.
func (r *Result) Diags() []Diag {
	out := append([]Diag(nil), r.LexicalErrors...)
	for _, e := range r.SyntaxErrors {
		out = append(out, e.Diag)
	}
	out = append(out, r.SemanticErrors...)
	out = append(out, r.SemanticWarnings...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Pos < out[j].Pos })
	return out
}

// Analyzer runs analyses over shared, read-only parse tables.
type Analyzer struct {
	tables *Tables
}

var (
	defaultTablesOnce sync.Once
	defaultTables     *Tables
	defaultTablesErr  error
)

// DefaultTables builds (once) the table set for the built-in grammar.
func DefaultTables() (*Tables, error) {
	defaultTablesOnce.Do(func() {
		g, err := ParseRules(borealGrammar)
		if err != nil {
			defaultTablesErr = err
			return
		}
		defaultTables, defaultTablesErr = BuildTables(g)
	})
	return defaultTables, defaultTablesErr
}

// NewAnalyzer builds an analyzer over the built-in grammar tables.
func NewAnalyzer() (*Analyzer, error) {
	t, err := DefaultTables()
	if err != nil {
		return nil, err
	}
	return &Analyzer{tables: t}, nil
}

// NewAnalyzerWithTables uses externally loaded tables (see LoadTables).
func NewAnalyzerWithTables(t *Tables) *Analyzer {
	return &Analyzer{tables: t}
}

// Analyze runs the full pipeline over one source buffer.
func (a *Analyzer) Analyze(src string) *Result {
	st := NewSymbolTable()
	lx := NewLexer(src, st)
	sem := NewSemanticActions(lx, st)
	p := NewParser(a.tables, lx, sem)

	root, accepted := p.Parse()

	res := &Result{
		Root:             root,
		Accepted:         accepted,
		LexicalErrors:    lx.Errors(),
		SyntaxErrors:     p.Errors(),
		SemanticWarnings: sem.Warnings(),
		SymbolTable:      st,
	}

	// Identifier declaration/use errors originate in the lexer but are
	// semantic in nature; merge them with the action errors in source
	// order.
	sems := append(append([]Diag(nil), lx.DeclErrors()...), sem.Errors()...)
	sort.SliceStable(sems, func(i, j int) bool { return sems[i].Pos < sems[j].Pos })
	res.SemanticErrors = sems

	res.SemanticTokens = semanticTokens(lx.Idents())
	return res
}

// semanticTokens maps resolved identifier occurrences onto the
// highlighting stream.
func semanticTokens(occs []IdentOccurrence) []SemanticToken {
	var out []SemanticToken
	for _, occ := range occs {
		if occ.Sym == nil {
			continue
		}
		var tt string
		switch occ.Sym.Kind {
		case KindVariable, KindParameter:
			tt = "variable"
		case KindFunction, KindProcedure, KindProgram:
			tt = "function"
		default:
			continue
		}
		tok := SemanticToken{
			Line:      occ.Tok.Line,
			Col:       occ.Tok.Col,
			Length:    occ.Tok.Length,
			TokenType: tt,
		}
		if occ.IsDecl {
			tok.Modifiers = []string{"definition"}
		}
		out = append(out, tok)
	}
	return out
}

// FindDefinition resolves the identifier under (line, col) to its
// definition site. It runs a partial analysis stopped at the query
// point and answers only when no lexical or syntax error precedes it.
func (a *Analyzer) FindDefinition(src string, line, col int) (DefSite, bool) {
	st := NewSymbolTable()
	lx := NewLexer(src, st)
	lx.StopAt(line, col)
	sem := NewSemanticActions(lx, st)
	p := NewParser(a.tables, lx, sem)
	p.Parse()

	for _, d := range lx.Errors() {
		if beforePoint(d.Line, d.Col, line, col) {
			return DefSite{}, false
		}
	}
	for _, d := range p.Errors() {
		if beforePoint(d.Line, d.Col, line, col) {
			return DefSite{}, false
		}
	}

	tok, ok := lx.LastToken()
	if !ok || tok.Kind != TkIdent || tok.Sym == nil {
		return DefSite{}, false
	}
	if tok.Line != line || col < tok.Col || col > tok.Col+tok.Length {
		return DefSite{}, false
	}
	return tok.Sym.Def, true
}

func beforePoint(l, c, line, col int) bool {
	if l != line {
		return l < line
	}
	return c <= col
}
