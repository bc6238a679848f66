package alias

// A stdlib-only Aho-Corasick automaton over byte strings. Inputs are
// normalized, case-folded UTF-8. A fixed 256-way transition table per node
// avoids map lookups in the hot scanning path, mirroring the detector
// automaton this package's matching engine is built from.
type automaton struct {
	nodes []acNode
}

type acNode struct {
	trans  [256]int
	fail   int
	output []int // entity ids ending at this node
}

func newAutomaton() *automaton {
	a := &automaton{nodes: make([]acNode, 1)}
	for i := range a.nodes[0].trans {
		a.nodes[0].trans[i] = -1
	}
	return a
}

func (a *automaton) addPattern(pat []byte, id int) {
	if len(pat) == 0 {
		return
	}
	state := 0
	for _, b := range pat {
		nxt := a.nodes[state].trans[b]
		if nxt == -1 {
			nxt = len(a.nodes)
			a.nodes[state].trans[b] = nxt
			var n acNode
			for i := range n.trans {
				n.trans[i] = -1
			}
			a.nodes = append(a.nodes, n)
		}
		state = nxt
	}
	a.nodes[state].output = append(a.nodes[state].output, id)
}

func (a *automaton) build() {
	q := make([]int, 0, 64)
	for b := range 256 {
		s := a.nodes[0].trans[byte(b)]
		if s != -1 {
			a.nodes[s].fail = 0
			q = append(q, s)
		}
	}

	for qi := 0; qi < len(q); qi++ {
		r := q[qi]
		for b := range 256 {
			s := a.nodes[r].trans[byte(b)]
			if s == -1 {
				continue
			}
			q = append(q, s)

			f := a.nodes[r].fail
			for f != 0 && a.nodes[f].trans[byte(b)] == -1 {
				f = a.nodes[f].fail
			}
			if nxt := a.nodes[f].trans[byte(b)]; nxt != -1 {
				a.nodes[s].fail = nxt
			} else {
				a.nodes[s].fail = 0
			}

			a.nodes[s].output = append(a.nodes[s].output, a.nodes[a.nodes[s].fail].output...)
		}
	}
}

// findAll scans text and calls cb(endIndex, patternID) for every match
func (a *automaton) findAll(text []byte, cb func(end int, id int)) {
	state := 0
	for i, b := range text {
		for state != 0 && a.nodes[state].trans[b] == -1 {
			state = a.nodes[state].fail
		}
		if nxt := a.nodes[state].trans[b]; nxt != -1 {
			state = nxt
		}
		for _, id := range a.nodes[state].output {
			cb(i+1, id)
		}
	}
}
