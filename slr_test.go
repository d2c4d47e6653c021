// slr_test.go
package boreal

import (
	"strings"
	"testing"
)

func defaultGrammar(t *testing.T) *Grammar {
	t.Helper()
	g, err := ParseRules(borealGrammar)
	if err != nil {
		t.Fatalf("ParseRules: %v", err)
	}
	return g
}

func Test_Grammar_Parse_Shape(t *testing.T) {
	g := defaultGrammar(t)
	if g.Rules[0].Text != "S' -> Unit" {
		t.Fatalf("augmented rule = %q", g.Rules[0].Text)
	}
	if len(g.Rules) != 117 { // augmented + 116 productions
		t.Fatalf("rule count = %d", len(g.Rules))
	}
	// Lambda productions have an empty RHS.
	for _, r := range g.Rules {
		if strings.HasSuffix(r.Text, "Lambda") && len(r.RHS) != 0 {
			t.Fatalf("lambda rule %q has RHS %v", r.Text, r.RHS)
		}
	}
}

func Test_Grammar_Parse_Errors(t *testing.T) {
	if _, err := ParseRules("A B C"); err == nil {
		t.Fatalf("missing arrow accepted")
	}
	if _, err := ParseRules("A -> Mystery"); err == nil {
		t.Fatalf("unknown symbol accepted")
	}
	if _, err := ParseRules("   "); err == nil {
		t.Fatalf("empty rule list accepted")
	}
}

func Test_SLR_Build_Succeeds(t *testing.T) {
	tabs, err := BuildTables(defaultGrammar(t))
	if err != nil {
		t.Fatalf("BuildTables: %v", err)
	}
	if tabs.NumStates() < len(tabs.Grammar.Rules) {
		t.Fatalf("suspiciously few states: %d", tabs.NumStates())
	}
}

// The only table conflict of the Boreal grammar is the dangling else,
// resolved in favour of the shift.
func Test_SLR_Conflicts_OnlyDanglingElse(t *testing.T) {
	tabs, err := BuildTables(defaultGrammar(t))
	if err != nil {
		t.Fatalf("BuildTables: %v", err)
	}
	for _, c := range tabs.Conflicts {
		if !strings.Contains(c, `"else"`) {
			t.Fatalf("unexpected conflict: %s", c)
		}
		if !strings.Contains(c, "kept s") {
			t.Fatalf("dangling else not resolved as shift: %s", c)
		}
	}
}

// The marker state for BodyBegin must reduce without lookahead; that
// is what flips the lexer's declaration mode before the next token of
// the statement list is fetched.
func Test_SLR_DefaultReduce_MarkerStates(t *testing.T) {
	tabs, err := BuildTables(defaultGrammar(t))
	if err != nil {
		t.Fatalf("BuildTables: %v", err)
	}
	var bodyBeginProd int
	for i, r := range tabs.Grammar.Rules {
		if r.Text == "BodyBegin -> begin" {
			bodyBeginProd = i
		}
	}
	if bodyBeginProd == 0 {
		t.Fatalf("BodyBegin production not found")
	}
	found := false
	for s := 0; s < tabs.NumStates(); s++ {
		if tabs.DefaultReduce(s) == bodyBeginProd {
			found = true
		}
	}
	if !found {
		t.Fatalf("no default-reduce state for BodyBegin -> begin")
	}
}

func Test_Tables_Encode_Load_RoundTrip(t *testing.T) {
	built, err := BuildTables(defaultGrammar(t))
	if err != nil {
		t.Fatalf("BuildTables: %v", err)
	}

	tableText := EncodeTables(built)
	ruleText := EncodeRules(built.Grammar)

	loaded, err := LoadTables(tableText, ruleText)
	if err != nil {
		t.Fatalf("LoadTables: %v", err)
	}

	if loaded.NumStates() != built.NumStates() {
		t.Fatalf("state count: loaded %d, built %d", loaded.NumStates(), built.NumStates())
	}
	for s := 0; s < built.NumStates(); s++ {
		for term, act := range built.Action[s] {
			if got := loaded.Action[s][term]; got != act {
				t.Fatalf("state %d term %d: loaded %+v, built %+v", s, term, got, act)
			}
		}
		if len(loaded.Action[s]) != len(built.Action[s]) {
			t.Fatalf("state %d: action row sizes differ", s)
		}
		for nt, next := range built.Goto[s] {
			if got := loaded.Goto[s][nt]; got != next {
				t.Fatalf("state %d nt %d: loaded %d, built %d", s, nt, got, next)
			}
		}
	}
	for s := 0; s < built.NumStates(); s++ {
		if loaded.DefaultReduce(s) != built.DefaultReduce(s) {
			t.Fatalf("state %d: default reduce differs", s)
		}
	}
}

func Test_Tables_Load_BadInput(t *testing.T) {
	rules := "A -> begin end"
	if _, err := LoadTables("", rules); err == nil {
		t.Fatalf("empty table accepted")
	}
	if _, err := LoadTables("begin end\n% %\n", rules); err == nil {
		t.Fatalf("header without FIN accepted")
	}
}

// An analysis through loaded tables behaves exactly like one through
// generated tables.
func Test_Tables_LoadedTables_DriveAnalysis(t *testing.T) {
	built, err := DefaultTables()
	if err != nil {
		t.Fatalf("DefaultTables: %v", err)
	}
	loaded, err := LoadTables(EncodeTables(built), EncodeRules(built.Grammar))
	if err != nil {
		t.Fatalf("LoadTables: %v", err)
	}

	src := "program P; var x: integer; begin x := 2 + 3; end;"
	res := NewAnalyzerWithTables(loaded).Analyze(src)
	if !res.Accepted || len(res.Diags()) != 0 {
		t.Fatalf("accepted=%v diags=%v", res.Accepted, res.Diags())
	}
}
