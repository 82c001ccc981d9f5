package repository

import "github.com/okian/parkrank/internal/domain/ranking"

// Order-statistics treap keyed by (elo DESC, id ASC). "Less" means ranks
// earlier, so an in-order walk yields the ranking from best to worst and
// subtree sizes give a park's position in O(log n).

type node struct {
	id    int64
	elo   int
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

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id int64, elo int, prio uint64) *node {
	if n == nil {
		return &node{id: id, elo: elo, prio: prio, size: 1}
	}
	if ranking.Less(elo, id, n.elo, n.id) {
		n.left = insert(n.left, id, elo, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, elo, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id int64, elo int) *node {
	if n == nil {
		return nil
	}
	if n.id == id {
		// rotate the higher-priority child up until the node is a leaf
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, elo)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, elo)
		}
	} else if ranking.Less(elo, id, n.elo, n.id) {
		n.left = deleteNode(n.left, id, elo)
	} else {
		n.right = deleteNode(n.right, id, elo)
	}
	fix(n)
	return n
}

// position returns the 1-based rank of (id, elo), or 0 if absent.
func position(n *node, id int64, elo int) int {
	pos := 0
	for n != nil {
		switch {
		case n.id == id:
			return pos + nsize(n.left) + 1
		case ranking.Less(elo, id, n.elo, n.id):
			n = n.left
		default:
			pos += nsize(n.left) + 1
			n = n.right
		}
	}
	return 0
}

// walk visits up to limit nodes in rank order; limit < 0 visits all.
func walk(n *node, limit int, visit func(id int64)) int {
	if n == nil || limit == 0 {
		return 0
	}
	seen := walk(n.left, limit, visit)
	if limit > 0 && seen >= limit {
		return seen
	}
	visit(n.id)
	seen++
	if limit > 0 {
		return seen + walk(n.right, limit-seen, visit)
	}
	return seen + walk(n.right, limit, visit)
}
