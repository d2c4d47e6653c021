// parser.go — the SLR(1) shift/reduce driver.
//
// The driver owns two stacks that evolve in lockstep. The state stack
// interleaves LR(0) state numbers with grammar-symbol ids; the
// attribute stack holds one Attr per grammar symbol and a placeholder
// per state, so both stacks always have the same length. On a shift
// the lookahead's attributes are pushed; on a reduction the matching
// semantic action runs over the attribute stack and its result is
// pushed for the left-hand side; on accept the attribute below the
// final state is the analysis root.
//
// Lookahead is fetched lazily, and states whose whole ACTION row is a
// single reduction reduce without fetching it at all. That matters:
// fetching a token can resolve an identifier against the symbol table,
// so mode-toggling marker productions (BodyBegin) must fire before the
// token after them is pulled from the lexer.
//
// There is no recovery: the first syntax error halts the parse with
// the expected-terminal set of the offending state.
package boreal

import (
	"fmt"
	"sort"
	"strings"
)

// Parser drives one analysis over one token stream.
type Parser struct {
	tables *Tables
	lx     *Lexer
	sem    *SemanticActions

	states []int  // interleaved: state, symbol, state, symbol, ...
	attrs  []Attr // aligned with states; placeholders at state slots

	errs []SyntaxDiag
}

// NewParser wires a driver to its tables, lexer and semantic actions.
func NewParser(t *Tables, lx *Lexer, sem *SemanticActions) *Parser {
	return &Parser{tables: t, lx: lx, sem: sem}
}

// Errors returns the syntax error list (at most one entry).
func (p *Parser) Errors() []SyntaxDiag { return p.errs }

// reduceCtx exposes the attribute stack to a semantic action. Attr(i)
// is 1-based from the top: attribute i belongs to the i-th RHS symbol
// counting from the right, skipping the interleaved state placeholders.
type reduceCtx struct {
	attrs []Attr
	n     int
}

func (rc *reduceCtx) at(i int) *Attr {
	return &rc.attrs[len(rc.attrs)-2*i]
}

// span concatenates the spans of the whole right-hand side.
func (rc *reduceCtx) span() Span {
	var out Span
	for i := rc.n; i >= 1; i-- {
		out = joinSpans(out, rc.at(i).Span)
	}
	return out
}

// Parse runs the driver to accept or first error. It returns the root
// attribute and whether the input was accepted.
func (p *Parser) Parse() (Attr, bool) {
	p.states = append(p.states[:0], 0)
	p.attrs = append(p.attrs[:0], Attr{})

	var la Token
	haveLA := false

	for {
		state := p.states[len(p.states)-1]

		if prod := p.tables.DefaultReduce(state); prod >= 0 && !haveLA {
			if !p.reduce(prod) {
				return Attr{}, false
			}
			continue
		}

		if !haveLA {
			la = p.lx.Next()
			haveLA = true
		}

		act, ok := p.tables.Action[state][int(la.Kind)]
		if !ok {
			p.syntaxError(state, la)
			return Attr{}, false
		}

		switch act.Type {
		case ActShift:
			p.states = append(p.states, int(la.Kind), act.Target)
			p.attrs = append(p.attrs, tokenAttr(la), Attr{})
			haveLA = false

		case ActReduce:
			if !p.reduce(act.Target) {
				return Attr{}, false
			}

		case ActAccept:
			root := p.attrs[len(p.attrs)-2]
			return root, true
		}
	}
}

// reduce applies production prod: runs its semantic action, pops one
// state/symbol pair per RHS symbol, and pushes the goto state with the
// synthesised attributes.
func (p *Parser) reduce(prod int) bool {
	rule := p.tables.Grammar.Rules[prod]
	n := len(rule.RHS)

	rc := &reduceCtx{attrs: p.attrs, n: n}
	span := rc.span()
	result := p.sem.Apply(prod, rc)
	if !result.Span.valid() {
		result.Span = span
	}

	p.states = p.states[:len(p.states)-2*n]
	p.attrs = p.attrs[:len(p.attrs)-2*n]

	top := p.states[len(p.states)-1]
	next, ok := p.tables.Goto[top][rule.LHS]
	if !ok {
		// Cannot happen with tables built from the same grammar.
		p.errs = append(p.errs, SyntaxDiag{Diag: Diag{
			Severity: SevError,
			Message:  fmt.Sprintf("no goto for %s in state %d", p.tables.Grammar.NonTerms[rule.LHS], top),
		}})
		return false
	}
	p.states = append(p.states, numTerminals+rule.LHS, next)
	p.attrs = append(p.attrs, result, Attr{})
	return true
}

// syntaxError records the single, fatal syntax error with the expected
// set of the offending state. End-of-stream caused by an armed stop
// point is not an error.
func (p *Parser) syntaxError(state int, found Token) {
	if found.Kind == TkEOF && p.lx.Stopped() {
		return
	}

	expected := make([]string, 0, len(p.tables.Action[state]))
	for term := range p.tables.Action[state] {
		expected = append(expected, TokenKind(term).String())
	}
	sort.Strings(expected)

	foundName := found.Kind.String()
	if found.Kind == TkEOF {
		foundName = "end of file"
	}
	p.errs = append(p.errs, SyntaxDiag{
		Diag: Diag{
			Severity: SevError,
			Message: fmt.Sprintf("unexpected %s, expected one of: %s",
				foundName, strings.Join(expected, " ")),
			Pos:    found.Pos,
			Line:   found.Line,
			Col:    found.Col,
			Length: found.Length,
		},
		Expected: expected,
		Found:    foundName,
	})
}
