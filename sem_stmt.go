// sem_stmt.go — semantic actions for statements and control flow.
package boreal

import (
	"fmt"
	"strings"
)

// applyStatement dispatches productions 40..78.
func (sa *SemanticActions) applyStatement(prod int, rc *reduceCtx) Attr {
	switch prod {
	// Statement -> <one of the statement kinds>
	case 40, 41, 42, 43, 44, 45, 46, 47, 48, 49, 50, 51, 52:
		return *rc.at(1)

	// AssignmentStatement -> id := Expression ;
	case 53:
		return sa.actAssignment(rc.at(4), rc.at(2))

	// CallStatement -> id Arguments ;
	case 54:
		sa.checkCall(rc.at(3), rc.at(2).Args, rc.span(), false)
		return Attr{}

	// Arguments -> ( ExpressionList )
	case 55:
		return Attr{Args: rc.at(2).Args}
	// Arguments -> ( ) | Lambda
	case 56, 57:
		return Attr{}

	// IfStatement -> if Expression then Statement
	case 58:
		sa.checkCondition(rc.at(3), "IF")
		return *rc.at(1)
	// IfStatement -> if Expression then Statement else Statement
	case 59:
		sa.checkCondition(rc.at(5), "IF")
		return sa.mergeFlows(rc.at(3), rc.at(1))

	// WhileStatement -> while Expression do Statement
	case 60:
		sa.checkCondition(rc.at(3), "WHILE")
		return *rc.at(1)

	// RepeatStatement -> repeat StatementList until Expression ;
	case 61:
		sa.checkCondition(rc.at(2), "UNTIL")
		out := *rc.at(4)
		// repeat is a loop construct: exits stop here.
		out.ExitCount = 0
		out.ExitSite = Span{}
		return out

	// ForStatement -> for id := Expression to Expression do Statement
	case 62:
		return sa.actFor(rc)

	// CaseStatement -> case Expression of CaseElementList CaseOtherwise end ;
	case 63:
		sel := rc.at(6)
		if sel.Type != tagError && sel.Type != tagInteger {
			sa.errSpan(sel.Span, "CASE selector must be integer")
		}
		return sa.mergeFlows(rc.at(4), rc.at(3))

	// CaseElementList -> CaseElementList CaseElement
	case 64:
		return sa.mergeFlows(rc.at(2), rc.at(1))
	// CaseElementList -> CaseElement
	case 65:
		return *rc.at(1)
	// CaseElement -> intlit : Statement
	case 66:
		return *rc.at(1)
	// CaseOtherwise -> otherwise : Statement
	case 67:
		return *rc.at(1)
	// CaseOtherwise -> Lambda
	case 68:
		return Attr{}

	// LoopStatement -> loop StatementList end ;
	case 69:
		body := rc.at(3)
		if body.ExitCount == 0 {
			sa.errSpan(rc.at(4).Span, "Loop must contain at least one exit")
		} else if body.ExitCount > 1 {
			sa.errSpan(rc.at(4).Span, "Loop must contain exactly one exit")
		}
		out := *body
		out.ExitCount = 0
		out.ExitSite = Span{}
		return out

	// ExitStatement -> exit when Expression ;
	case 70:
		sa.checkCondition(rc.at(2), "EXIT")
		return Attr{ExitCount: 1, ExitSite: rc.span()}

	// ReturnStatement -> return Expression ;
	case 71:
		return sa.actReturn(rc.at(2), rc.span())
	// ReturnStatement -> return ;
	case 72:
		return sa.actReturn(nil, rc.span())

	// ReadStatement -> read ( ReadArguments ) ;
	case 73:
		sa.actRead(rc.at(3))
		return Attr{}
	// ReadArguments -> ReadArguments , id
	case 74:
		out := *rc.at(3)
		out.Syms = append(out.Syms, rc.at(1).Sym)
		out.Args = append(out.Args, ArgInfo{Span: rc.at(1).Span})
		return out
	// ReadArguments -> id
	case 75:
		return Attr{Syms: []*Symbol{rc.at(1).Sym}, Args: []ArgInfo{{Span: rc.at(1).Span}}}

	// WriteStatement -> write Arguments ; | writeln Arguments ;
	case 76, 77:
		sa.actWrite(strings.ToUpper(rc.at(3).Lexeme), rc.at(2).Args)
		return Attr{}

	// CompoundStatement -> begin StatementList end ;
	case 78:
		return *rc.at(3)
	}
	return Attr{}
}

// checkCondition requires a logical expression; a type_error operand
// has already been reported and stays silent.
func (sa *SemanticActions) checkCondition(e *Attr, construct string) {
	if e.Type == tagError || e.Type == tagLogical {
		return
	}
	sa.errSpan(e.Span, construct+" condition must be logical")
}

// actAssignment checks an assignment target and the type agreement of
// both sides. Unresolved targets stay silent so a single undeclared
// identifier does not cascade.
func (sa *SemanticActions) actAssignment(id, e *Attr) Attr {
	sym := id.Sym
	if sym == nil || sym.Kind == KindUnknown {
		return Attr{}
	}
	switch sym.Kind {
	case KindFunction, KindProcedure, KindProgram:
		sa.errSpan(id.Span, fmt.Sprintf("cannot assign to %s '%s'", sym.Kind, sym.Lexeme))
		return Attr{}
	}
	if e.Type == tagError {
		return Attr{}
	}
	want := tagOfType(sym.DataType)
	if want != "" && e.Type != want {
		sa.errSpan(e.Span, fmt.Sprintf("%s is not compatible with %s", want, e.Type))
	}
	return Attr{}
}

// actFor checks the control variable and both bounds for integer type.
func (sa *SemanticActions) actFor(rc *reduceCtx) Attr {
	id := rc.at(7)
	if sym := id.Sym; sym != nil && sym.Kind != KindUnknown && sym.DataType != TypeInteger {
		sa.errSpan(id.Span, "FOR control variable must be integer")
	}
	for _, bound := range []*Attr{rc.at(5), rc.at(3)} {
		if bound.Type != tagError && bound.Type != tagInteger {
			sa.errSpan(bound.Span, "FOR bounds must be integer")
		}
	}
	return *rc.at(1)
}

// actReturn types a return statement against the enclosing unit. A
// bare return is legal in procedures and in the main body; a value
// return only inside a function, where it must match the declared
// return type.
func (sa *SemanticActions) actReturn(e *Attr, site Span) Attr {
	out := Attr{HasRet: true, RetSite: site}
	unit, inUnit := sa.currentUnit()

	if e == nil {
		if inUnit && unit.kind == KindFunction {
			name := "function"
			if unit.sym != nil {
				name = fmt.Sprintf("function '%s'", unit.sym.Lexeme)
			}
			sa.errSpan(site, name+" must return a value")
		}
		return out
	}

	out.RetType = e.Type
	if !inUnit || unit.kind != KindFunction {
		sa.errSpan(site, "return with a value is only allowed inside a function")
		return out
	}
	if unit.sym == nil {
		return out
	}
	want := tagOfType(unit.sym.ReturnType)
	if e.Type != tagError && want != "" && e.Type != want {
		sa.errSpan(e.Span, fmt.Sprintf("%s is not compatible with %s", want, e.Type))
	}
	return out
}

// actRead checks that every read target is an integer or string
// variable.
func (sa *SemanticActions) actRead(args *Attr) {
	for i, sym := range args.Syms {
		sp := args.Args[i].Span
		if sym == nil || sym.Kind == KindUnknown {
			continue
		}
		switch sym.Kind {
		case KindFunction, KindProcedure, KindProgram:
			sa.errSpan(sp, fmt.Sprintf("cannot read into %s '%s'", sym.Kind, sym.Lexeme))
			continue
		}
		if sym.DataType != TypeInteger && sym.DataType != TypeString {
			sa.errSpan(sp, "READ argument must be integer or string")
		}
	}
}

// actWrite checks write/writeln arguments: integer or string only.
func (sa *SemanticActions) actWrite(name string, args []ArgInfo) {
	for _, a := range args {
		if a.Type == tagError || a.Type == tagInteger || a.Type == tagString {
			continue
		}
		sa.errSpan(a.Span, name+" argument must be integer or string")
	}
}

// checkCall validates arity and argument types for a call in either
// statement or expression position, returning the synthesised type.
func (sa *SemanticActions) checkCall(id *Attr, args []ArgInfo, site Span, asExpression bool) string {
	sym := id.Sym
	if sym == nil || sym.Kind == KindUnknown {
		return tagError
	}

	switch sym.Kind {
	case KindProgram:
		sa.errSpan(id.Span, "the main program cannot be called")
		return tagError
	case KindVariable, KindParameter:
		sa.errSpan(id.Span, fmt.Sprintf("'%s' is not a procedure or function", sym.Lexeme))
		return tagError
	case KindProcedure:
		if asExpression {
			sa.errSpan(id.Span, fmt.Sprintf("procedure '%s' cannot be used in an expression", sym.Lexeme))
			return tagError
		}
	}

	if len(args) != len(sym.Params) {
		sa.errSpan(site, fmt.Sprintf("'%s' expects %d argument(s), got %d",
			sym.Lexeme, len(sym.Params), len(args)))
	} else {
		for i, a := range args {
			if a.Type == tagError {
				continue
			}
			want := tagOfType(sym.Params[i].Type)
			if a.Type != want {
				sa.errSpan(a.Span, fmt.Sprintf("argument %d of '%s' must be %s, got %s",
					i+1, sym.Lexeme, want, a.Type))
			}
		}
	}

	if sym.Kind == KindFunction {
		return tagOfType(sym.ReturnType)
	}
	return tagOK
}
