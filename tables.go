// tables.go — the loadable parse-table format.
//
// The parser does not care where its tables come from; this file is
// the textual representation used for deployment. The layout is:
//
//	header row: terminal names in column order, ending with the FIN
//	            sentinel, followed by the non-terminal names
//	body rows:  one row per state, one cell per header column
//
// Cells are "%" (empty), "accept", "s<N>" (shift), "r<N>" (reduce) or
// a bare number (goto). The production list is supplied separately in
// the "LHS -> sym sym" rule format understood by ParseRules.
package boreal

import (
	"fmt"
	"strconv"
	"strings"
)

// LoadTables parses the textual ACTION/GOTO table together with its
// rule list and returns a table set equivalent to a generated one.
func LoadTables(tableText, ruleText string) (*Tables, error) {
	g, err := ParseRules(ruleText)
	if err != nil {
		return nil, err
	}

	lines := nonEmptyLines(tableText)
	if len(lines) == 0 {
		return nil, fmt.Errorf("table text is empty")
	}

	header := strings.Fields(lines[0])
	finAt := -1
	for i, name := range header {
		if name == "FIN" {
			finAt = i
			break
		}
	}
	if finAt == -1 {
		return nil, fmt.Errorf("table header has no FIN sentinel")
	}

	// Terminal columns: everything up to and including FIN, which is
	// itself the end-of-stream terminal. Their order must agree with
	// the token numbering.
	if finAt != numTerminals-1 {
		return nil, fmt.Errorf("table header has %d terminal columns, want %d", finAt+1, numTerminals)
	}
	for i := 0; i <= finAt; i++ {
		if header[i] != TokenKind(i).String() {
			return nil, fmt.Errorf("terminal column %d is %q, want %q", i, header[i], TokenKind(i).String())
		}
	}

	ntCols := make([]int, 0, len(header)-finAt-1)
	for _, name := range header[finAt+1:] {
		id, ok := g.NonTermID(name)
		if !ok {
			return nil, fmt.Errorf("unknown non-terminal %q in table header", name)
		}
		ntCols = append(ntCols, id-numTerminals)
	}

	t := &Tables{Grammar: g}
	for st, line := range lines[1:] {
		cells := strings.Fields(line)
		if len(cells) != len(header) {
			return nil, fmt.Errorf("state %d has %d cells, want %d", st, len(cells), len(header))
		}
		actRow := make(map[int]Action)
		gotoRow := make(map[int]int)
		for ci, cell := range cells {
			if cell == "%" {
				continue
			}
			if ci <= finAt {
				act, err := parseActionCell(cell)
				if err != nil {
					return nil, fmt.Errorf("state %d, column %q: %w", st, header[ci], err)
				}
				actRow[ci] = act
				continue
			}
			n, err := strconv.Atoi(cell)
			if err != nil {
				return nil, fmt.Errorf("state %d, column %q: bad goto cell %q", st, header[ci], cell)
			}
			gotoRow[ntCols[ci-finAt-1]] = n
		}
		t.Action = append(t.Action, actRow)
		t.Goto = append(t.Goto, gotoRow)
	}

	t.computeDefaultReduces()
	return t, nil
}

func parseActionCell(cell string) (Action, error) {
	switch {
	case cell == "accept":
		return Action{Type: ActAccept}, nil
	case strings.HasPrefix(cell, "s"):
		n, err := strconv.Atoi(cell[1:])
		if err != nil {
			return Action{}, fmt.Errorf("bad shift cell %q", cell)
		}
		return Action{Type: ActShift, Target: n}, nil
	case strings.HasPrefix(cell, "r"):
		n, err := strconv.Atoi(cell[1:])
		if err != nil {
			return Action{}, fmt.Errorf("bad reduce cell %q", cell)
		}
		return Action{Type: ActReduce, Target: n}, nil
	}
	return Action{}, fmt.Errorf("bad action cell %q", cell)
}

// EncodeTables renders a table set in the loadable format. Loading the
// result with the matching rule text reproduces the tables.
func EncodeTables(t *Tables) string {
	g := t.Grammar
	var b strings.Builder

	cols := terminalNames()
	for _, nt := range g.NonTerms[1:] { // skip the augmented start
		cols = append(cols, nt)
	}
	b.WriteString(strings.Join(cols, "\t"))
	b.WriteByte('\n')

	for s := range t.Action {
		cells := make([]string, 0, len(cols))
		for term := 0; term < numTerminals; term++ {
			if a, ok := t.Action[s][term]; ok {
				cells = append(cells, describeAction(a))
			} else {
				cells = append(cells, "%")
			}
		}
		for nti := 1; nti < len(g.NonTerms); nti++ {
			if n, ok := t.Goto[s][nti]; ok {
				cells = append(cells, strconv.Itoa(n))
			} else {
				cells = append(cells, "%")
			}
		}
		b.WriteString(strings.Join(cells, "\t"))
		b.WriteByte('\n')
	}
	return b.String()
}

// EncodeRules renders the production list (without the augmented
// start) in the rule format accepted by ParseRules and LoadTables.
func EncodeRules(g *Grammar) string {
	var b strings.Builder
	for _, r := range g.Rules[1:] {
		b.WriteString(r.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
