// lexer_test.go
package boreal

import (
	"reflect"
	"strings"
	"testing"
)

func lexAll(t *testing.T, src string) ([]Token, *Lexer) {
	t.Helper()
	st := NewSymbolTable()
	lx := NewLexer(src, st)
	var out []Token
	for {
		tok := lx.Next()
		if tok.Kind == TkEOF {
			return out, lx
		}
		out = append(out, tok)
		if len(out) > 10000 {
			t.Fatalf("lexer did not terminate")
		}
	}
}

func kindsOf(tokens []Token) []TokenKind {
	out := make([]TokenKind, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Kind
	}
	return out
}

func wantKinds(t *testing.T, src string, want []TokenKind) []Token {
	t.Helper()
	got, lx := lexAll(t, src)
	if errs := lx.Errors(); len(errs) != 0 {
		t.Fatalf("unexpected lexical errors for %q: %v", src, errs)
	}
	if !reflect.DeepEqual(kindsOf(got), want) {
		t.Fatalf("\nsource:\n%s\nwant kinds:\n%v\ngot kinds:\n%v\n", src, want, kindsOf(got))
	}
	return got
}

func Test_Lexer_ProgramHeader(t *testing.T) {
	wantKinds(t, "program Demo;", []TokenKind{TkProgram, TkIdent, TkSemi})
}

func Test_Lexer_Operators_TwoChar(t *testing.T) {
	got := wantKinds(t, "x := 1 <= 2 <> 3 >= 4 ** 5 < 6 > 7 = 8",
		[]TokenKind{TkIdent, TkAssign, TkIntLit, TkLessEq, TkIntLit, TkNotEqual,
			TkIntLit, TkGreaterEq, TkIntLit, TkPower, TkIntLit, TkLess,
			TkIntLit, TkGreater, TkIntLit, TkEqual, TkIntLit})
	if got[3].Lexeme != "<=" || got[9].Lexeme != "**" {
		t.Fatalf("two-char lexemes wrong: %q %q", got[3].Lexeme, got[9].Lexeme)
	}
}

func Test_Lexer_Keywords_CaseInsensitive(t *testing.T) {
	wantKinds(t, "PROGRAM Begin END WriteLn",
		[]TokenKind{TkProgram, TkBegin, TkEnd, TkWriteln})
}

func Test_Lexer_Comment_IsSkipped(t *testing.T) {
	got := wantKinds(t, "begin { a comment\nspanning lines } end",
		[]TokenKind{TkBegin, TkEnd})
	if got[1].Line != 2 {
		t.Fatalf("token after multi-line comment on line %d, want 2", got[1].Line)
	}
}

func Test_Lexer_StringLiteral(t *testing.T) {
	got := wantKinds(t, "s := 'hello world'", []TokenKind{TkIdent, TkAssign, TkStrLit})
	if got[2].Lexeme != "'hello world'" {
		t.Fatalf("string lexeme = %q", got[2].Lexeme)
	}
	if got[2].Length != len("'hello world'") {
		t.Fatalf("string length = %d", got[2].Length)
	}
}

func Test_Lexer_Newlines_CRLF_CountsOnce(t *testing.T) {
	got, lx := lexAll(t, "begin\r\nend\r\n")
	if len(lx.Errors()) != 0 {
		t.Fatalf("errors: %v", lx.Errors())
	}
	if got[0].Line != 1 || got[1].Line != 2 {
		t.Fatalf("lines = %d, %d; want 1, 2", got[0].Line, got[1].Line)
	}
	if got[1].Col != 0 {
		t.Fatalf("col after CRLF = %d, want 0", got[1].Col)
	}
}

func Test_Lexer_Newlines_LoneCR(t *testing.T) {
	got, lx := lexAll(t, "begin\rend")
	if len(lx.Errors()) != 0 {
		t.Fatalf("errors: %v", lx.Errors())
	}
	if got[1].Line != 2 || got[1].Col != 0 {
		t.Fatalf("token after lone CR at %d:%d, want 2:0", got[1].Line, got[1].Col)
	}
}

func Test_Lexer_Boundary_Identifier32(t *testing.T) {
	ok := strings.Repeat("a", 32)
	_, lx := lexAll(t, ok)
	if len(lx.Errors()) != 0 {
		t.Fatalf("32-char identifier rejected: %v", lx.Errors())
	}

	long := strings.Repeat("a", 33)
	_, lx = lexAll(t, long)
	if len(lx.Errors()) != 1 {
		t.Fatalf("33-char identifier: got %d errors, want 1", len(lx.Errors()))
	}
}

func Test_Lexer_Boundary_Integer32767(t *testing.T) {
	got, lx := lexAll(t, "32767")
	if len(lx.Errors()) != 0 || got[0].IntVal != 32767 {
		t.Fatalf("32767 rejected or misparsed: %v %d", lx.Errors(), got[0].IntVal)
	}

	_, lx = lexAll(t, "32768")
	if len(lx.Errors()) != 1 {
		t.Fatalf("32768: got %d errors, want 1", len(lx.Errors()))
	}
}

func Test_Lexer_Boundary_String64(t *testing.T) {
	ok := "'" + strings.Repeat("x", 64) + "'"
	_, lx := lexAll(t, ok)
	if len(lx.Errors()) != 0 {
		t.Fatalf("64-char string rejected: %v", lx.Errors())
	}

	long := "'" + strings.Repeat("x", 65) + "'"
	_, lx = lexAll(t, long)
	if len(lx.Errors()) != 1 {
		t.Fatalf("65-char string: got %d errors, want 1", len(lx.Errors()))
	}
}

func Test_Lexer_Error_UnterminatedString_Newline(t *testing.T) {
	_, lx := lexAll(t, "s := 'oops\nbegin")
	if len(lx.Errors()) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(lx.Errors()), lx.Errors())
	}
	if !strings.Contains(lx.Errors()[0].Message, "not terminated") {
		t.Fatalf("message = %q", lx.Errors()[0].Message)
	}
}

func Test_Lexer_Error_UnterminatedString_CRLF_OneError(t *testing.T) {
	_, lx := lexAll(t, "'oops\r\nbegin")
	if len(lx.Errors()) != 1 {
		t.Fatalf("CRLF in string: got %d errors, want 1: %v", len(lx.Errors()), lx.Errors())
	}
}

func Test_Lexer_Error_IllegalRBrace(t *testing.T) {
	_, lx := lexAll(t, "begin } end")
	if len(lx.Errors()) != 1 || !strings.Contains(lx.Errors()[0].Message, "'}'") {
		t.Fatalf("errors = %v", lx.Errors())
	}
}

func Test_Lexer_Error_UnclosedComment(t *testing.T) {
	_, lx := lexAll(t, "begin { never closed")
	if len(lx.Errors()) != 1 || !strings.Contains(lx.Errors()[0].Message, "comment") {
		t.Fatalf("errors = %v", lx.Errors())
	}
}

func Test_Lexer_Error_UnexpectedCharacter(t *testing.T) {
	_, lx := lexAll(t, "x @ y")
	if len(lx.Errors()) != 1 {
		t.Fatalf("errors = %v", lx.Errors())
	}
}

// Lexing source and slicing each token's span back out of the source
// must reproduce the token lexemes, in order, without overlaps.
func Test_Lexer_RoundTrip_Spans(t *testing.T) {
	src := "program P; { comment }\nvar x: integer;\nbegin x := 'a' + 'b'; end;\n"
	got, lx := lexAll(t, src)
	if len(lx.Errors()) != 0 {
		t.Fatalf("errors: %v", lx.Errors())
	}
	prevEnd := 0
	for _, tok := range got {
		if tok.Pos < prevEnd {
			t.Fatalf("token %q at %d overlaps previous end %d", tok.Lexeme, tok.Pos, prevEnd)
		}
		if src[tok.Pos:tok.Pos+tok.Length] != tok.Lexeme {
			t.Fatalf("span slice %q != lexeme %q", src[tok.Pos:tok.Pos+tok.Length], tok.Lexeme)
		}
		prevEnd = tok.Pos + tok.Length
	}
	if prevEnd > len(src) {
		t.Fatalf("last token ends at %d past source length %d", prevEnd, len(src))
	}
}

func Test_Lexer_DeclarationCoupling_DuplicateInScope(t *testing.T) {
	st := NewSymbolTable()
	lx := NewLexer("alpha alpha", st)
	first := lx.Next()
	second := lx.Next()
	if first.Sym == nil {
		t.Fatalf("first occurrence did not define")
	}
	if second.Sym != nil {
		t.Fatalf("duplicate define attached a symbol")
	}
	if len(lx.DeclErrors()) != 1 {
		t.Fatalf("decl errors = %v", lx.DeclErrors())
	}
}

func Test_Lexer_UseCoupling_NotDeclared(t *testing.T) {
	st := NewSymbolTable()
	lx := NewLexer("ghost", st)
	lx.SetDeclarationMode(false)
	tok := lx.Next()
	if tok.Kind != TkIdent || tok.Sym != nil {
		t.Fatalf("token = %+v", tok)
	}
	errs := lx.DeclErrors()
	if len(errs) != 1 || !strings.Contains(errs[0].Message, "'ghost' not declared") {
		t.Fatalf("decl errors = %v", errs)
	}
}

func Test_Lexer_StopAt_RetainsLastToken(t *testing.T) {
	src := "program P; begin end;"
	st := NewSymbolTable()
	lx := NewLexer(src, st)
	lx.StopAt(1, strings.Index(src, "P")+1)

	var kinds []TokenKind
	for {
		tok := lx.Next()
		if tok.Kind == TkEOF {
			break
		}
		kinds = append(kinds, tok.Kind)
	}
	if !lx.Stopped() {
		t.Fatalf("lexer did not stop")
	}
	// The crossing token (the identifier) is not delivered.
	if !reflect.DeepEqual(kinds, []TokenKind{TkProgram}) {
		t.Fatalf("delivered kinds = %v", kinds)
	}
	last, ok := lx.LastToken()
	if !ok || last.Kind != TkIdent || last.Lexeme != "P" {
		t.Fatalf("last token = %+v, %v", last, ok)
	}
}
