// semantics.go — semantic action dispatch and declaration handling.
//
// One action per production, numbered by position in borealGrammar.
// The actions own everything the grammar cannot express: scope entry
// and exit, the lexer's declaration mode, type synthesis, offset
// assignment, and the propagation of return/exit information up the
// attribute stack. Expression typing lives in sem_expr.go and the
// statement actions in sem_stmt.go; this file handles the dispatcher
// and the declaration half of the grammar.
package boreal

import (
	"fmt"
	"strings"
)

// unitFrame records one open program/procedure/function unit. The kind
// is kept beside the symbol so that a unit whose name failed to define
// (duplicate) still behaves correctly.
type unitFrame struct {
	sym  *Symbol
	kind SymbolKind
}

// SemanticActions carries the per-analysis state shared by the
// actions: the lexer (for the mode toggle), the symbol table, the
// label and displacement counters, and the error lists.
type SemanticActions struct {
	lx     *Lexer
	symtab *SymbolTable

	errs  []Diag
	warns []Diag

	labels    int // next subprogram label; the program itself is 1
	topDisp   int // displacement counter for program-level variables
	localDisp int // displacement counter of the open subprogram
	units     []unitFrame
}

// NewSemanticActions wires the actions to their collaborators.
func NewSemanticActions(lx *Lexer, st *SymbolTable) *SemanticActions {
	return &SemanticActions{lx: lx, symtab: st, labels: 2}
}

// Errors returns the semantic error list.
func (sa *SemanticActions) Errors() []Diag { return sa.errs }

// Warnings returns the semantic warning list.
func (sa *SemanticActions) Warnings() []Diag { return sa.warns }

func (sa *SemanticActions) errSpan(sp Span, msg string) {
	sa.errs = append(sa.errs, Diag{
		Severity: SevError, Message: msg,
		Pos: sp.Pos, Line: sp.Line, Col: sp.Col, Length: sp.Length,
	})
}

func (sa *SemanticActions) nextLabel() int {
	l := sa.labels
	sa.labels++
	return l
}

// currentUnit returns the innermost open unit, if any.
func (sa *SemanticActions) currentUnit() (unitFrame, bool) {
	if len(sa.units) == 0 {
		return unitFrame{}, false
	}
	return sa.units[len(sa.units)-1], true
}

// inSubprogram reports whether the innermost unit is a procedure or
// function, which selects the local displacement counter.
func (sa *SemanticActions) inSubprogram() bool {
	u, ok := sa.currentUnit()
	return ok && (u.kind == KindProcedure || u.kind == KindFunction)
}

// Apply runs the semantic action for production prod and returns the
// synthesised attributes of its left-hand side.
func (sa *SemanticActions) Apply(prod int, rc *reduceCtx) Attr {
	switch prod {
	// Unit -> DeclarationList
	case 1:
		return sa.actUnit(rc)
	// DeclarationList -> DeclarationList Declaration
	case 2:
		return sa.actDeclListMerge(rc)
	// DeclarationList -> Declaration
	case 3:
		return *rc.at(1)
	// Declaration -> ProgramHeader | VarSection | ProcedureDeclaration
	//              | FunctionDeclaration | MainBody
	case 4, 5, 6, 7, 8:
		return *rc.at(1)
	// ProgramHeader -> ProgramName ;
	case 9:
		return *rc.at(2)
	// ProgramName -> program id
	case 10:
		return sa.actUnitName(rc, KindProgram)
	// ProcedureDeclaration -> ProcedureHeader LocalPart BodyBlock ;
	case 11:
		return sa.actDeclarationEnd(rc.at(4), rc.at(2))
	// ProcedureHeader -> ProcedureName Parameters ;
	case 12:
		return sa.actHeader(rc.at(3), rc.at(2), nil)
	// ProcedureName -> procedure id
	case 13:
		return sa.actUnitName(rc, KindProcedure)
	// FunctionDeclaration -> FunctionHeader LocalPart BodyBlock ;
	case 14:
		return sa.actDeclarationEnd(rc.at(4), rc.at(2))
	// FunctionHeader -> FunctionName Parameters : Type ;
	case 15:
		return sa.actHeader(rc.at(5), rc.at(4), rc.at(2))
	// FunctionName -> function id
	case 16:
		return sa.actUnitName(rc, KindFunction)
	// Parameters -> ( ParameterList )
	case 17:
		p := rc.at(2)
		return Attr{Params: p.Params, ParamTypes: p.ParamTypes, ParamModes: p.ParamModes}
	// Parameters -> ( ) | Lambda
	case 18, 19:
		return Attr{}
	// ParameterList -> ParameterList ; ParameterGroup
	case 20:
		return joinParams(rc.at(3), rc.at(1))
	// ParameterList -> ParameterGroup
	case 21:
		return *rc.at(1)
	// ParameterGroup -> IdentifierList : Type
	case 22:
		return sa.actParamGroup(rc.at(3), rc.at(1), false)
	// ParameterGroup -> var IdentifierList : Type
	case 23:
		return sa.actParamGroup(rc.at(3), rc.at(1), true)
	// IdentifierList -> IdentifierList , id
	case 24:
		out := *rc.at(3)
		if s := rc.at(1).Sym; s != nil {
			out.Syms = append(out.Syms, s)
		}
		return out
	// IdentifierList -> id
	case 25:
		out := Attr{}
		if s := rc.at(1).Sym; s != nil {
			out.Syms = append(out.Syms, s)
		}
		return out
	// LocalPart -> VarSection
	case 26:
		return *rc.at(1)
	// LocalPart -> Lambda
	case 27:
		return Attr{}
	// VarSection -> var VariableDeclarationList
	case 28:
		return Attr{Size: rc.at(1).Size}
	// VariableDeclarationList -> VariableDeclarationList VariableDeclaration
	case 29:
		return Attr{Size: rc.at(2).Size + rc.at(1).Size}
	// VariableDeclarationList -> VariableDeclaration
	case 30:
		return *rc.at(1)
	// VariableDeclaration -> IdentifierList : Type ;
	case 31:
		return sa.actVarDeclaration(rc.at(4), rc.at(2))
	// Type -> integer | boolean | string
	case 32:
		return Attr{DataType: TypeInteger, Type: tagInteger}
	case 33:
		return Attr{DataType: TypeBoolean, Type: tagLogical}
	case 34:
		return Attr{DataType: TypeString, Type: tagString}
	// MainBody -> BodyBlock ;
	case 35:
		return sa.actMainBodyEnd(rc.at(2))
	// BodyBlock -> BodyBegin StatementList end
	case 36:
		return *rc.at(2)
	// BodyBegin -> begin
	case 37:
		sa.lx.SetDeclarationMode(false)
		return Attr{}
	// StatementList -> StatementList Statement
	case 38:
		return sa.mergeFlows(rc.at(2), rc.at(1))
	// StatementList -> Lambda
	case 39:
		return Attr{}
	}

	if prod >= 40 && prod <= 78 {
		return sa.applyStatement(prod, rc)
	}
	return sa.applyExpression(prod, rc)
}

// actUnitName handles the program/procedure/function id: it promotes
// the symbol, opens the unit's scope, and (for subprograms) resets the
// local displacement. The declaration mode stays on so that parameters
// and locals define themselves. A duplicate name leaves Sym nil but
// still opens a scope, keeping enter/exit pairing intact.
func (sa *SemanticActions) actUnitName(rc *reduceCtx, kind SymbolKind) Attr {
	id := rc.at(1)
	sym := id.Sym
	scopeName := strings.ToUpper(id.Lexeme)
	if sym != nil {
		if sym.Kind == KindUnknown {
			sym.Kind = kind
		}
		sym.DataType = TypeVoid
		if kind == KindProgram {
			sym.Label = 1
		}
		scopeName = sym.Name
	}
	sa.symtab.EnterScope(scopeName)
	sa.units = append(sa.units, unitFrame{sym: sym, kind: kind})
	if kind != KindProgram {
		sa.localDisp = 0
	}

	out := Attr{Sym: sym, Lexeme: id.Lexeme}
	if kind == KindProgram {
		out.ProgCount = 1
		out.ProgSite = rc.span()
	}
	return out
}

// actHeader finishes a procedure or function header: parameter list,
// label, and (functions) the return type.
func (sa *SemanticActions) actHeader(name, params, ret *Attr) Attr {
	out := *name
	if sym := name.Sym; sym != nil {
		sym.Params = params.Params
		sym.Label = sa.nextLabel()
		if ret != nil {
			sym.ReturnType = ret.DataType
		}
	}
	return out
}

// actDeclarationEnd closes a subprogram: body-level checks, scope pop,
// and the mode flips back on for the following declarations.
func (sa *SemanticActions) actDeclarationEnd(header, body *Attr) Attr {
	if body.ExitCount > 0 {
		sa.errSpan(body.ExitSite, "'exit' outside of a loop")
	}

	sa.symtab.ExitScope()
	if len(sa.units) > 0 {
		sa.units = sa.units[:len(sa.units)-1]
	}
	sa.lx.SetDeclarationMode(true)

	return Attr{Sym: header.Sym}
}

// actMainBodyEnd closes the main body. The program scope, if one was
// opened by a program header, closes with it.
func (sa *SemanticActions) actMainBodyEnd(body *Attr) Attr {
	if body.ExitCount > 0 {
		sa.errSpan(body.ExitSite, "'exit' outside of a loop")
	}
	if u, ok := sa.currentUnit(); ok && u.kind == KindProgram {
		sa.symtab.ExitScope()
		sa.units = sa.units[:len(sa.units)-1]
	}
	sa.lx.SetDeclarationMode(true)
	return Attr{}
}

// actParamGroup types one parameter group and stamps offsets.
func (sa *SemanticActions) actParamGroup(ids, typ *Attr, byRef bool) Attr {
	out := Attr{}
	mode := "value"
	if byRef {
		mode = "reference"
	}
	for _, sym := range ids.Syms {
		if sym.Kind == KindUnknown {
			sym.Kind = KindParameter
		}
		sym.DataType = typ.DataType
		sym.Offset = sa.localDisp
		sa.localDisp += typ.DataType.Size()
		out.Params = append(out.Params, Param{Name: sym.Lexeme, Type: typ.DataType, ByReference: byRef})
	}
	types := make([]string, len(out.Params))
	modes := make([]string, len(out.Params))
	for i := range out.Params {
		types[i] = tagOfType(out.Params[i].Type)
		modes[i] = mode
	}
	out.ParamTypes = strings.Join(types, " ")
	out.ParamModes = strings.Join(modes, " ")
	return out
}

// actVarDeclaration types one variable declaration line and assigns
// offsets: program-level variables draw from the global counter,
// subprogram locals continue after the parameters.
func (sa *SemanticActions) actVarDeclaration(ids, typ *Attr) Attr {
	out := Attr{}
	local := sa.inSubprogram()
	for _, sym := range ids.Syms {
		if sym.Kind == KindUnknown {
			sym.Kind = KindVariable
		}
		sym.DataType = typ.DataType
		if local {
			sym.Offset = sa.localDisp
			sa.localDisp += typ.DataType.Size()
		} else {
			sym.Offset = sa.topDisp
			sa.topDisp += typ.DataType.Size()
		}
		out.Size += typ.DataType.Size()
	}
	return out
}

// actDeclListMerge folds one more declaration into the unit summary.
func (sa *SemanticActions) actDeclListMerge(rc *reduceCtx) Attr {
	list, decl := rc.at(2), rc.at(1)
	out := Attr{ProgCount: list.ProgCount + decl.ProgCount, ProgSite: list.ProgSite}
	if decl.ProgCount > 0 {
		out.ProgSite = decl.ProgSite
	}
	return out
}

// actUnit runs the top-level check: exactly one program declaration.
func (sa *SemanticActions) actUnit(rc *reduceCtx) Attr {
	list := rc.at(1)
	switch {
	case list.ProgCount == 0:
		sa.errSpan(Span{Line: 1}, "no program declaration found")
	case list.ProgCount > 1:
		sa.errSpan(list.ProgSite, "multiple program declarations")
	}
	return *list
}

// mergeFlows combines the propagation triples of two adjacent
// statement groups: exit counts add up (earliest site wins), return
// triples must agree on their type, and a disagreement is reported
// once, at the later site.
func (sa *SemanticActions) mergeFlows(first, second *Attr) Attr {
	out := Attr{}

	out.ExitCount = first.ExitCount + second.ExitCount
	out.ExitSite = first.ExitSite
	if first.ExitCount == 0 {
		out.ExitSite = second.ExitSite
	}

	switch {
	case first.HasRet && second.HasRet:
		if first.RetType != second.RetType &&
			first.RetType != tagError && second.RetType != tagError {
			sa.errSpan(second.RetSite, fmt.Sprintf(
				"inconsistent return types: %s and %s",
				retTypeName(first.RetType), retTypeName(second.RetType)))
		}
		out.HasRet = true
		out.RetType = first.RetType
		out.RetSite = first.RetSite
	case first.HasRet:
		out.HasRet = true
		out.RetType = first.RetType
		out.RetSite = first.RetSite
	case second.HasRet:
		out.HasRet = true
		out.RetType = second.RetType
		out.RetSite = second.RetSite
	}
	return out
}

func retTypeName(tag string) string {
	if tag == "" {
		return "void"
	}
	return tag
}

func joinParams(a, b *Attr) Attr {
	out := Attr{Params: append(append([]Param(nil), a.Params...), b.Params...)}
	out.ParamTypes = strings.TrimSpace(a.ParamTypes + " " + b.ParamTypes)
	out.ParamModes = strings.TrimSpace(a.ParamModes + " " + b.ParamModes)
	return out
}
