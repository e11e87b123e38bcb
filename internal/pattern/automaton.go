package pattern

import "github.com/MrWong99/termfix/internal/normalize"

// node is a state of the Aho–Corasick automaton.
type node struct {
	next map[rune]int32
	fail int32
	// out is the compiled pattern ending exactly at this state, or -1.
	out int32
	// dict is the nearest state along the failure chain with out >= 0, or -1.
	dict int32
}

// automaton is the Aho–Corasick [Index] backend. The trie is built once and
// never mutated, so Scan is safe for concurrent use.
type automaton struct {
	patterns []Pattern
	compiled []compiled
	nodes    []node
}

func newAutomaton(patterns []Pattern) *automaton {
	a := &automaton{
		patterns: patterns,
		compiled: compile(patterns),
		nodes:    []node{{next: map[rune]int32{}, out: -1, dict: -1}},
	}
	for ci, c := range a.compiled {
		a.insert(int32(ci), c.folded)
	}
	a.link()
	return a
}

func (a *automaton) insert(ci int32, word []rune) {
	cur := int32(0)
	for _, r := range word {
		nxt, ok := a.nodes[cur].next[r]
		if !ok {
			nxt = int32(len(a.nodes))
			a.nodes = append(a.nodes, node{next: map[rune]int32{}, out: -1, dict: -1})
			a.nodes[cur].next[r] = nxt
		}
		cur = nxt
	}
	a.nodes[cur].out = ci
}

// link computes failure and dictionary-suffix links breadth first.
func (a *automaton) link() {
	queue := make([]int32, 0, len(a.nodes))
	for _, child := range a.nodes[0].next {
		a.nodes[child].fail = 0
		queue = append(queue, child)
	}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for r, child := range a.nodes[v].next {
			f := a.nodes[v].fail
			for {
				if nxt, ok := a.nodes[f].next[r]; ok {
					a.nodes[child].fail = nxt
					break
				}
				if f == 0 {
					a.nodes[child].fail = 0
					break
				}
				f = a.nodes[f].fail
			}
			fc := a.nodes[child].fail
			if a.nodes[fc].out >= 0 {
				a.nodes[child].dict = fc
			} else {
				a.nodes[child].dict = a.nodes[fc].dict
			}
			queue = append(queue, child)
		}
	}
}

func (a *automaton) step(state int32, r rune) int32 {
	for {
		if nxt, ok := a.nodes[state].next[r]; ok {
			return nxt
		}
		if state == 0 {
			return 0
		}
		state = a.nodes[state].fail
	}
}

// Scan implements [Index]. Hits are emitted in order of their end position;
// among hits ending at the same rune the longest comes first.
func (a *automaton) Scan(text string) []Hit {
	if text == "" || len(a.compiled) == 0 {
		return nil
	}
	folded := normalize.Fold(text)
	offsets := runeOffsets(text)

	var hits []Hit
	state := int32(0)
	for i, r := range folded {
		state = a.step(state, r)
		u := state
		if a.nodes[u].out < 0 {
			u = a.nodes[u].dict
		}
		for u >= 0 {
			c := a.compiled[a.nodes[u].out]
			startRune := i + 1 - len(c.folded)
			start, end := offsets[startRune], offsets[i+1]
			hits = append(hits, Hit{
				Start:       start,
				End:         end,
				Pattern:     c.id,
				Text:        text[start:end],
				Replacement: a.patterns[c.id].Replacement,
				Order:       len(hits),
			})
			u = a.nodes[u].dict
		}
	}
	return hits
}

// Len implements [Index].
func (a *automaton) Len() int { return len(a.compiled) }
