// sem_expr.go — type synthesis for expressions.
//
// Each operator production returns a concrete type tag when its
// operands match the operator's expected shape, else type_error with a
// diagnostic. A type_error operand silences the current operator so a
// single broken leaf produces a single message.
package boreal

import (
	"fmt"
	"strings"
)

// applyExpression dispatches productions 79..116.
func (sa *SemanticActions) applyExpression(prod int, rc *reduceCtx) Attr {
	switch prod {
	// Expression -> Expression or Conjunction | Expression xor Conjunction
	case 79, 80:
		return sa.logicalOp(rc.at(2).Lexeme, rc.at(3), rc.at(1))
	// Expression -> Conjunction
	case 81:
		return *rc.at(1)
	// Conjunction -> Conjunction and Relation
	case 82:
		return sa.logicalOp("and", rc.at(3), rc.at(1))
	// Conjunction -> Relation
	case 83:
		return *rc.at(1)

	// Relation -> Arith <relop> Arith
	case 84, 85, 86, 87, 88, 89:
		return sa.relationalOp(rc.at(2).Lexeme, rc.at(3), rc.at(1))
	// Relation -> Arith in ( ExpressionList )
	case 90:
		return sa.actIn(rc.at(5), rc.at(2).Args)
	// Relation -> Arith
	case 91:
		return *rc.at(1)

	// Arith -> Arith + Term
	case 92:
		return sa.plusOp(rc.at(3), rc.at(1))
	// Arith -> Arith - Term
	case 93:
		return sa.integerOp("-", rc.at(3), rc.at(1))
	// Arith -> Term
	case 94:
		return *rc.at(1)

	// Term -> Term * Power | Term / Power | Term mod Power
	case 95, 96, 97:
		return sa.integerOp(rc.at(2).Lexeme, rc.at(3), rc.at(1))
	// Term -> Power
	case 98:
		return *rc.at(1)

	// Power -> Factor ** Power
	case 99:
		return sa.integerOp("**", rc.at(3), rc.at(1))
	// Power -> Factor
	case 100:
		return *rc.at(1)

	// Factor -> not Factor
	case 101:
		return sa.unaryOp("not", tagLogical, rc.at(1))
	// Factor -> - Factor | + Factor
	case 102:
		return sa.unaryOp("-", tagInteger, rc.at(1))
	case 103:
		return sa.unaryOp("+", tagInteger, rc.at(1))
	// Factor -> Primary
	case 104:
		return *rc.at(1)

	// Primary -> ( Expression )
	case 105:
		inner := rc.at(2)
		return Attr{Type: inner.Type, IntVal: inner.IntVal}
	// Primary -> id
	case 106:
		return sa.actIdentExpr(rc.at(1))
	// Primary -> id ( ExpressionList )
	case 107:
		return Attr{Type: sa.checkCall(rc.at(4), rc.at(2).Args, rc.span(), true)}
	// Primary -> id ( )
	case 108:
		return Attr{Type: sa.checkCall(rc.at(3), nil, rc.span(), true)}
	// Primary -> intlit
	case 109:
		return Attr{Type: tagInteger, IntVal: rc.at(1).IntVal}
	// Primary -> strlit
	case 110:
		return Attr{Type: tagString, Lexeme: rc.at(1).Lexeme}
	// Primary -> true | false
	case 111, 112:
		return Attr{Type: tagLogical}
	// Primary -> max ( ExpressionList ) | min ( ExpressionList )
	case 113, 114:
		return sa.actMinMax(strings.ToUpper(rc.at(4).Lexeme), rc.at(2).Args)

	// ExpressionList -> ExpressionList , Expression
	case 115:
		out := *rc.at(3)
		out.Args = append(out.Args, ArgInfo{Type: rc.at(1).Type, Span: rc.at(1).Span})
		return out
	// ExpressionList -> Expression
	case 116:
		return Attr{Args: []ArgInfo{{Type: rc.at(1).Type, Span: rc.at(1).Span}}}
	}
	return Attr{}
}

// logicalOp types or/xor/and: logical operands, logical result.
func (sa *SemanticActions) logicalOp(op string, l, r *Attr) Attr {
	if l.Type == tagError || r.Type == tagError {
		return Attr{Type: tagError}
	}
	if l.Type != tagLogical {
		sa.errSpan(l.Span, fmt.Sprintf("operands of '%s' must be logical", op))
		return Attr{Type: tagError}
	}
	if r.Type != tagLogical {
		sa.errSpan(r.Span, fmt.Sprintf("operands of '%s' must be logical", op))
		return Attr{Type: tagError}
	}
	return Attr{Type: tagLogical}
}

// relationalOp types the comparisons: integer operands, logical result.
func (sa *SemanticActions) relationalOp(op string, l, r *Attr) Attr {
	if l.Type == tagError || r.Type == tagError {
		return Attr{Type: tagError}
	}
	if l.Type != tagInteger {
		sa.errSpan(l.Span, fmt.Sprintf("operands of '%s' must be integer", op))
		return Attr{Type: tagError}
	}
	if r.Type != tagInteger {
		sa.errSpan(r.Span, fmt.Sprintf("operands of '%s' must be integer", op))
		return Attr{Type: tagError}
	}
	return Attr{Type: tagLogical}
}

// plusOp types '+': both integer or both string, result the same.
func (sa *SemanticActions) plusOp(l, r *Attr) Attr {
	if l.Type == tagError || r.Type == tagError {
		return Attr{Type: tagError}
	}
	if l.Type == r.Type && (l.Type == tagInteger || l.Type == tagString) {
		return Attr{Type: l.Type}
	}
	sa.errSpan(joinSpans(l.Span, r.Span), "operands of '+' must both be integer or both be string")
	return Attr{Type: tagError}
}

// integerOp types the remaining arithmetic operators.
func (sa *SemanticActions) integerOp(op string, l, r *Attr) Attr {
	if l.Type == tagError || r.Type == tagError {
		return Attr{Type: tagError}
	}
	if l.Type != tagInteger {
		sa.errSpan(l.Span, fmt.Sprintf("operands of '%s' must be integer", op))
		return Attr{Type: tagError}
	}
	if r.Type != tagInteger {
		sa.errSpan(r.Span, fmt.Sprintf("operands of '%s' must be integer", op))
		return Attr{Type: tagError}
	}
	return Attr{Type: tagInteger}
}

// unaryOp types not and unary +/-.
func (sa *SemanticActions) unaryOp(op, want string, operand *Attr) Attr {
	if operand.Type == tagError {
		return Attr{Type: tagError}
	}
	if operand.Type != want {
		sa.errSpan(operand.Span, fmt.Sprintf("operand of '%s' must be %s", op, want))
		return Attr{Type: tagError}
	}
	return Attr{Type: want}
}

// actIn types membership: an integer against a list of integers.
func (sa *SemanticActions) actIn(l *Attr, list []ArgInfo) Attr {
	bad := false
	if l.Type == tagError {
		bad = true
	} else if l.Type != tagInteger {
		sa.errSpan(l.Span, "operands of 'in' must be integer")
		bad = true
	}
	for _, a := range list {
		if a.Type == tagError {
			bad = true
			continue
		}
		if a.Type != tagInteger {
			sa.errSpan(a.Span, "operands of 'in' must be integer")
			bad = true
		}
	}
	if bad {
		return Attr{Type: tagError}
	}
	return Attr{Type: tagLogical}
}

// actMinMax types max/min over a non-empty integer list.
func (sa *SemanticActions) actMinMax(name string, list []ArgInfo) Attr {
	bad := false
	for _, a := range list {
		if a.Type == tagError {
			bad = true
			continue
		}
		if a.Type != tagInteger {
			sa.errSpan(a.Span, name+" arguments must be integer")
			bad = true
		}
	}
	if bad {
		return Attr{Type: tagError}
	}
	return Attr{Type: tagInteger}
}

// actIdentExpr types a bare identifier in expression position. A bare
// function name is a zero-argument call; procedures and the program
// cannot appear here. Unresolved identifiers stay silent.
func (sa *SemanticActions) actIdentExpr(id *Attr) Attr {
	sym := id.Sym
	if sym == nil || sym.Kind == KindUnknown {
		return Attr{Type: tagError}
	}
	switch sym.Kind {
	case KindVariable, KindParameter:
		return Attr{Type: tagOfType(sym.DataType), Sym: sym}
	case KindFunction:
		if len(sym.Params) > 0 {
			sa.errSpan(id.Span, fmt.Sprintf("'%s' expects %d argument(s), got 0",
				sym.Lexeme, len(sym.Params)))
		}
		return Attr{Type: tagOfType(sym.ReturnType), Sym: sym}
	case KindProcedure:
		sa.errSpan(id.Span, fmt.Sprintf("procedure '%s' cannot be used in an expression", sym.Lexeme))
	case KindProgram:
		sa.errSpan(id.Span, "the main program cannot be called")
	}
	return Attr{Type: tagError}
}
