// parser_test.go
package boreal

import (
	"strings"
	"testing"
)

func analyze(t *testing.T, src string) *Result {
	t.Helper()
	an, err := NewAnalyzer()
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	return an.Analyze(src)
}

func Test_Parser_Accepts_MinimalProgram(t *testing.T) {
	res := analyze(t, "program P; begin end;")
	if !res.Accepted {
		t.Fatalf("not accepted: %v", res.SyntaxErrors)
	}
	if len(res.Diags()) != 0 {
		t.Fatalf("diags = %v", res.Diags())
	}
}

func Test_Parser_Accepts_AllStatementForms(t *testing.T) {
	src := `
program Demo;
var i, total: integer;
    done: boolean;
    name: string;

function twice(n: integer): integer;
begin
    return n * 2;
end;

procedure greet(var who: string);
begin
    writeln('hello ', who);
end;

begin
    i := 1;
    total := 0;
    done := false;
    { structured statements }
    if i < 10 then total := total + i; else total := 0;
    while not done do done := true;
    repeat i := i + 1; until i >= 3;
    for i := 1 to 10 do total := total + twice(i);
    case i of
        1: total := 1;
        2: total := 2;
        otherwise: total := max(total, 1);
    end;
    loop
        i := i - 1;
        exit when i <= 0;
    end;
    begin total := total mod 7; end;
    read(name);
    write(total);
    writeln('done: ', name);
    greet(name);
    if i in (1, 2, 3) then total := min(total, 5);
    return;
end;
`
	res := analyze(t, src)
	if !res.Accepted {
		t.Fatalf("not accepted: %v", res.SyntaxErrors)
	}
	if diags := res.Diags(); len(diags) != 0 {
		t.Fatalf("diags = %v", diags)
	}
}

func Test_Parser_SyntaxError_ExpectedSet(t *testing.T) {
	res := analyze(t, "program ;")
	if res.Accepted {
		t.Fatalf("accepted broken input")
	}
	if len(res.SyntaxErrors) != 1 {
		t.Fatalf("syntax errors = %v", res.SyntaxErrors)
	}
	e := res.SyntaxErrors[0]
	if e.Found != ";" {
		t.Fatalf("found = %q", e.Found)
	}
	hasID := false
	for _, name := range e.Expected {
		if name == "id" {
			hasID = true
		}
	}
	if !hasID {
		t.Fatalf("expected set %v lacks id", e.Expected)
	}
}

func Test_Parser_SyntaxError_IsFatal_FirstOnly(t *testing.T) {
	res := analyze(t, "program P; begin x := ; y := ; end;")
	if len(res.SyntaxErrors) != 1 {
		t.Fatalf("want exactly one syntax error, got %v", res.SyntaxErrors)
	}
}

func Test_Parser_SyntaxError_PositionAndSpan(t *testing.T) {
	src := "program P;\nbegin\nx := + ;\nend;"
	res := analyze(t, src)
	if len(res.SyntaxErrors) != 1 {
		t.Fatalf("syntax errors = %v", res.SyntaxErrors)
	}
	e := res.SyntaxErrors[0]
	if e.Line != 3 {
		t.Fatalf("error line = %d", e.Line)
	}
	if e.Pos < 0 || e.Pos+e.Length > len(src) {
		t.Fatalf("span [%d,%d) outside source", e.Pos, e.Pos+e.Length)
	}
	if !strings.Contains(e.Message, "expected one of:") {
		t.Fatalf("message = %q", e.Message)
	}
}

// Every diagnostic span of every scenario stays inside the source.
func Test_Parser_Diags_SpansInBounds(t *testing.T) {
	sources := []string{
		"program P; begin y := 1; end;",
		"program P; var x: integer; begin x := true; end;",
		"program P; begin loop x := 1; end; end;",
		"begin end;",
		"program A; program B; begin end;",
		"x @",
	}
	for _, src := range sources {
		res := analyze(t, src)
		for _, d := range res.Diags() {
			if d.Pos < 0 || d.Pos+d.Length > len(src) {
				t.Fatalf("source %q: span [%d,%d) out of bounds", src, d.Pos, d.Pos+d.Length)
			}
		}
	}
}
