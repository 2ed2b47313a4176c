// Package executor compiles Datalog programs into a dataflow network and
// evaluates them with a hybrid strategy: facts are pushed upward eagerly
// when they are inserted, and queries pull on demand by exploring the rules
// that can produce the requested rows.
//
// A Network owns one Head Plan per relation and one Body Plan per non-fact
// rule. Head Plans are stored by name and Body Plans by index, so the
// cyclic rule graph is a flat arena of plans that refer to each other by
// name and index.
package executor

import (
	"sync"

	"github.com/wbrown/janus-dataflow/datalog/storage"
)

// Network is a compiled program. All public methods are serialized by one
// lock; evaluation itself is single-threaded and synchronous.
type Network struct {
	mu sync.Mutex

	heads  map[string]*headPlan
	order  []string // relation names in compile order
	bodies []*bodyPlan
	facts  []fact

	ctx   Context
	stats Stats
}

// slot is one term position of a compiled atom: either a literal constant
// or a canonical variable index
type slot struct {
	variable int
	constant string
	isConst  bool
}

func constSlot(value string) slot { return slot{constant: value, isConst: true} }

func varSlot(index int) slot { return slot{variable: index} }

// edge names one atom position inside a Body Plan
type edge struct {
	body int
	pos  int
}

// headPlan is the per-relation node of the network
type headPlan struct {
	name  string
	arity int
	idb   bool
	rel   storage.Relation

	// lower holds the Body Plans deriving this relation; empty for EDB
	// relations and for relations defined only by facts
	lower []int

	// upper holds every body atom reading this relation
	upper []edge

	// explored holds the signatures of key sets already pulled through
	// propagateDown
	explored map[string]struct{}

	facts int
}

// bodyAtom is one compiled body atom
type bodyAtom struct {
	head  string
	slots []slot
}

// bodyPlan is one compiled non-fact rule
type bodyPlan struct {
	rule      int // index of the rule in the program
	head      string
	headSlots []slot
	atoms     []bodyAtom
	varNames  []string // canonical index -> variable name
}

// fact is a pending fact rule, replayed by Execute
type fact struct {
	head  string
	tuple storage.Tuple
}

// RelationInfo describes one relation of a compiled network
type RelationInfo struct {
	Name  string
	Arity int
	IDB   bool
	Rules int // non-fact rules deriving the relation
	Facts int // fact rules for the relation
}

// unlock releases the Network, then delivers the events recorded while it
// was held. Handlers therefore run outside the lock and may call back into
// the Network.
func (n *Network) unlock() {
	events := n.ctx.TakePending()
	n.mu.Unlock()
	n.ctx.Deliver(events)
}
