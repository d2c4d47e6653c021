// slr.go — SLR(1) table construction.
//
// The parse tables the driver consumes are data, not code: they can be
// loaded from the textual table format (tables.go) or built here from
// the grammar at first use. Construction is the textbook procedure:
// LR(0) canonical collection, FIRST/FOLLOW, then one ACTION/GOTO entry
// per item. Conflicts are resolved shift-over-reduce (dangling else)
// and lower-production-first, and every resolution is recorded so the
// tables command can surface them.
package boreal

import (
	"fmt"
	"sort"
	"strings"
)

// ActionType discriminates ACTION table cells.
type ActionType int

const (
	ActNone ActionType = iota
	ActShift
	ActReduce
	ActAccept
)

// Action is one ACTION table cell. Target is the destination state for
// shifts and the production index for reductions.
type Action struct {
	Type   ActionType
	Target int
}

// Tables is the immutable parse table set shared by all analyses.
type Tables struct {
	Grammar *Grammar

	// Action maps (state, terminal id) to a cell; absent means error.
	Action []map[int]Action
	// Goto maps (state, non-terminal index) to a state.
	Goto []map[int]int
	// defaultReduce[s] is a production index when state s reduces by
	// that production regardless of lookahead, else -1. Such states
	// reduce without fetching the next token, which is what keeps the
	// lexer's declaration mode in step with the grammar.
	defaultReduce []int

	// Conflicts lists every resolved table conflict, for diagnostics.
	Conflicts []string
}

// NumStates returns the number of LR(0) states.
func (t *Tables) NumStates() int { return len(t.Action) }

// DefaultReduce returns the lookahead-free reduction for a state, or
// -1 when the state needs a lookahead.
func (t *Tables) DefaultReduce(state int) int { return t.defaultReduce[state] }

// lrItem is an LR(0) item: a rule with a dot position.
type lrItem struct {
	rule int
	dot  int
}

type itemSet []lrItem

func (s itemSet) key() string {
	var b strings.Builder
	for _, it := range s {
		fmt.Fprintf(&b, "%d.%d;", it.rule, it.dot)
	}
	return b.String()
}

func sortItems(s itemSet) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].rule != s[j].rule {
			return s[i].rule < s[j].rule
		}
		return s[i].dot < s[j].dot
	})
}

// BuildTables computes the SLR(1) tables for g.
func BuildTables(g *Grammar) (*Tables, error) {
	b := &tableBuilder{g: g}
	b.computeNullable()
	b.computeFirst()
	b.computeFollow()
	return b.build()
}

type tableBuilder struct {
	g        *Grammar
	nullable []bool           // per non-terminal
	first    []map[int]bool   // per non-terminal: terminal ids
	follow   []map[int]bool   // per non-terminal: terminal ids
}

func (b *tableBuilder) computeNullable() {
	g := b.g
	b.nullable = make([]bool, len(g.NonTerms))
	for changed := true; changed; {
		changed = false
		for _, r := range g.Rules {
			if b.nullable[r.LHS] {
				continue
			}
			all := true
			for _, sym := range r.RHS {
				if g.IsTerminal(sym) || !b.nullable[sym-numTerminals] {
					all = false
					break
				}
			}
			if all {
				b.nullable[r.LHS] = true
				changed = true
			}
		}
	}
}

func (b *tableBuilder) computeFirst() {
	g := b.g
	b.first = make([]map[int]bool, len(g.NonTerms))
	for i := range b.first {
		b.first[i] = make(map[int]bool)
	}
	for changed := true; changed; {
		changed = false
		for _, r := range g.Rules {
			dst := b.first[r.LHS]
			for _, sym := range r.RHS {
				if g.IsTerminal(sym) {
					if !dst[sym] {
						dst[sym] = true
						changed = true
					}
					break
				}
				nt := sym - numTerminals
				for t := range b.first[nt] {
					if !dst[t] {
						dst[t] = true
						changed = true
					}
				}
				if !b.nullable[nt] {
					break
				}
			}
		}
	}
}

// firstOfSeq collects FIRST of a symbol sequence; ok reports whether
// the whole sequence can derive empty.
func (b *tableBuilder) firstOfSeq(syms []int) (set map[int]bool, nullable bool) {
	set = make(map[int]bool)
	for _, sym := range syms {
		if b.g.IsTerminal(sym) {
			set[sym] = true
			return set, false
		}
		nt := sym - numTerminals
		for t := range b.first[nt] {
			set[t] = true
		}
		if !b.nullable[nt] {
			return set, false
		}
	}
	return set, true
}

func (b *tableBuilder) computeFollow() {
	g := b.g
	b.follow = make([]map[int]bool, len(g.NonTerms))
	for i := range b.follow {
		b.follow[i] = make(map[int]bool)
	}
	b.follow[0][int(TkEOF)] = true

	for changed := true; changed; {
		changed = false
		for _, r := range g.Rules {
			for i, sym := range r.RHS {
				if g.IsTerminal(sym) {
					continue
				}
				nt := sym - numTerminals
				rest, restNullable := b.firstOfSeq(r.RHS[i+1:])
				for t := range rest {
					if !b.follow[nt][t] {
						b.follow[nt][t] = true
						changed = true
					}
				}
				if restNullable {
					for t := range b.follow[r.LHS] {
						if !b.follow[nt][t] {
							b.follow[nt][t] = true
							changed = true
						}
					}
				}
			}
		}
	}
}

func (b *tableBuilder) closure(kernel itemSet) itemSet {
	g := b.g
	seen := make(map[lrItem]bool, len(kernel))
	out := make(itemSet, 0, len(kernel))
	var push func(it lrItem)
	push = func(it lrItem) {
		if seen[it] {
			return
		}
		seen[it] = true
		out = append(out, it)
		r := g.Rules[it.rule]
		if it.dot >= len(r.RHS) {
			return
		}
		sym := r.RHS[it.dot]
		if g.IsTerminal(sym) {
			return
		}
		nt := sym - numTerminals
		for ri, rr := range g.Rules {
			if rr.LHS == nt {
				push(lrItem{rule: ri, dot: 0})
			}
		}
	}
	for _, it := range kernel {
		push(it)
	}
	sortItems(out)
	return out
}

func (b *tableBuilder) build() (*Tables, error) {
	g := b.g

	start := b.closure(itemSet{{rule: 0, dot: 0}})
	states := []itemSet{start}
	index := map[string]int{start.key(): 0}

	t := &Tables{
		Grammar: g,
		Action:  []map[int]Action{make(map[int]Action)},
		Goto:    []map[int]int{make(map[int]int)},
	}

	for si := 0; si < len(states); si++ {
		state := states[si]

		// Group items by the symbol after the dot.
		moves := make(map[int]itemSet)
		var moveSyms []int
		for _, it := range state {
			r := g.Rules[it.rule]
			if it.dot >= len(r.RHS) {
				continue
			}
			sym := r.RHS[it.dot]
			if _, ok := moves[sym]; !ok {
				moveSyms = append(moveSyms, sym)
			}
			moves[sym] = append(moves[sym], lrItem{rule: it.rule, dot: it.dot + 1})
		}
		sort.Ints(moveSyms)

		for _, sym := range moveSyms {
			next := b.closure(moves[sym])
			key := next.key()
			ni, ok := index[key]
			if !ok {
				ni = len(states)
				index[key] = ni
				states = append(states, next)
				t.Action = append(t.Action, make(map[int]Action))
				t.Goto = append(t.Goto, make(map[int]int))
			}
			if g.IsTerminal(sym) {
				t.setAction(si, sym, Action{Type: ActShift, Target: ni})
			} else {
				t.Goto[si][sym-numTerminals] = ni
			}
		}

		// Completed items: reductions and accept.
		for _, it := range state {
			r := g.Rules[it.rule]
			if it.dot < len(r.RHS) {
				continue
			}
			if it.rule == prodAugmented {
				t.setAction(si, int(TkEOF), Action{Type: ActAccept})
				continue
			}
			for term := range b.follow[r.LHS] {
				t.setAction(si, term, Action{Type: ActReduce, Target: it.rule})
			}
		}
	}

	t.computeDefaultReduces()
	return t, nil
}

// setAction writes a cell, resolving conflicts: shift beats reduce,
// and of two reductions the lower production number wins.
func (t *Tables) setAction(state, term int, act Action) {
	old, exists := t.Action[state][term]
	if !exists || old == act {
		t.Action[state][term] = act
		return
	}

	keep, drop := old, act
	switch {
	case old.Type == ActShift && act.Type == ActReduce:
		// keep as is
	case old.Type == ActReduce && act.Type == ActShift:
		keep, drop = act, old
	case old.Type == ActReduce && act.Type == ActReduce:
		if act.Target < old.Target {
			keep, drop = act, old
		}
	default:
		// accept never conflicts in a well-formed grammar
	}
	t.Action[state][term] = keep
	t.Conflicts = append(t.Conflicts, fmt.Sprintf(
		"state %d on %q: kept %s, dropped %s",
		state, t.Grammar.SymbolName(term), describeAction(keep), describeAction(drop)))
}

func describeAction(a Action) string {
	switch a.Type {
	case ActShift:
		return fmt.Sprintf("s%d", a.Target)
	case ActReduce:
		return fmt.Sprintf("r%d", a.Target)
	case ActAccept:
		return "accept"
	}
	return "%"
}

// computeDefaultReduces marks states whose every ACTION entry is the
// same reduction and which have no goto transitions pending a shift.
func (t *Tables) computeDefaultReduces() {
	t.defaultReduce = make([]int, len(t.Action))
	for s := range t.Action {
		t.defaultReduce[s] = -1
		prod := -1
		uniform := len(t.Action[s]) > 0
		for _, a := range t.Action[s] {
			if a.Type != ActReduce {
				uniform = false
				break
			}
			if prod == -1 {
				prod = a.Target
			} else if prod != a.Target {
				uniform = false
				break
			}
		}
		if uniform && len(t.Goto[s]) == 0 {
			t.defaultReduce[s] = prod
		}
	}
}
