package repository

import "math"

// riskIndex orders employees by attrition risk using a treap.
//
// Ordering: score DESC, then employee id ASC (deterministic). "less" means
// ranks earlier, so in-order traversal walks from highest to lowest risk.

// scoreScale controls fixed-point scaling of risk scores in [0,1].
const scoreScale = 1_000_000_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) {
		return 0
	}
	return scoreFP(math.Round(math.Max(0, math.Min(1, x)) * scoreScale))
}

type node struct {
	id    string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func less(aScore scoreFP, aID string, bScore scoreFP, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

// priority hashes the id (FNV-1a) so the tree shape does not depend on
// insertion order.
func priority(id string) uint64 {
	h := uint64(14695981039346656037)
	for i := 0; i < len(id); i++ {
		h ^= uint64(id[i])
		h *= 1099511628211
	}
	return h
}

func insert(n *node, id string, score scoreFP) *node {
	if n == nil {
		return &node{id: id, score: score, prio: priority(id), size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	if score == n.score && id == n.id {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	} else if less(score, id, n.score, n.id) {
		n.left = deleteNode(n.left, id, score)
	} else {
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// walk visits ids in rank order until visit returns false.
func walk(n *node, visit func(id string) bool) bool {
	if n == nil {
		return true
	}
	if !walk(n.left, visit) {
		return false
	}
	if !visit(n.id) {
		return false
	}
	return walk(n.right, visit)
}

// riskIndex is not safe for concurrent use; MemStore guards it.
type riskIndex struct {
	root   *node
	scores map[string]scoreFP
}

func newRiskIndex() *riskIndex {
	return &riskIndex{scores: make(map[string]scoreFP)}
}

// set places id at score, replacing any earlier position.
func (x *riskIndex) set(id string, score float64) {
	ns := toFixedPoint(score)
	if old, ok := x.scores[id]; ok {
		if old == ns {
			return
		}
		x.root = deleteNode(x.root, id, old)
	}
	x.scores[id] = ns
	x.root = insert(x.root, id, ns)
}

func (x *riskIndex) remove(id string) {
	if old, ok := x.scores[id]; ok {
		x.root = deleteNode(x.root, id, old)
		delete(x.scores, id)
	}
}

func (x *riskIndex) len() int { return nsize(x.root) }

// each visits ids from highest to lowest risk until visit returns false.
func (x *riskIndex) each(visit func(id string) bool) { walk(x.root, visit) }
