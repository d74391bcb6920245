// Package huffman builds Huffman prefix codes over byte symbols and encodes
// and decodes with them.
//
// Trees are stored in an arena: nodes refer to their children by index, and
// a node's index doubles as its creation id.  When two nodes have the same
// frequency the one created first is merged first, so identical frequency
// tables always produce identical trees.
package huffman

import (
	"container/heap"
	"errors"

	"entropack/pkg/bitseq"
	"entropack/pkg/freq"
)

var (
	ErrUnknownSymbol = errors.New("huffman: symbol missing from code table")
	ErrInvalidCode   = errors.New("huffman: bit stream matches no code")
	ErrTruncated     = errors.New("huffman: bit stream ended before all symbols were decoded")
)

const none = -1

type node struct {
	symbol byte
	freq   int64
	left   int
	right  int
}

func (n node) leaf() bool {
	return n.left == none && n.right == none
}

// Tree is a Huffman code tree.  The zero Tree (and the tree built from an
// empty table) has no root and yields no codes.
type Tree struct {
	nodes []node
	root  int
}

// Build constructs the tree for t.  With exactly one distinct symbol the root
// is a degenerate internal node whose only child is the left leaf.
func Build(t freq.Table) *Tree {
	syms := t.Symbols()
	tree := &Tree{nodes: make([]node, 0, 2*len(syms)), root: none}
	if len(syms) == 0 {
		return tree
	}

	q := &queue{tree: tree}
	for _, sym := range syms {
		id := tree.add(node{symbol: sym, freq: t.Of(sym), left: none, right: none})
		q.ids = append(q.ids, id)
	}

	if len(syms) == 1 {
		leaf := q.ids[0]
		tree.root = tree.add(node{freq: tree.nodes[leaf].freq, left: leaf, right: none})
		return tree
	}

	heap.Init(q)
	for q.Len() > 1 {
		a := heap.Pop(q).(int)
		b := heap.Pop(q).(int)
		merged := tree.add(node{
			freq:  tree.nodes[a].freq + tree.nodes[b].freq,
			left:  a,
			right: b,
		})
		heap.Push(q, merged)
	}
	tree.root = q.ids[0]
	return tree
}

func (t *Tree) add(n node) int {
	t.nodes = append(t.nodes, n)
	return len(t.nodes) - 1
}

// Weight returns the total frequency under the root.
func (t *Tree) Weight() int64 {
	if t.root == none {
		return 0
	}
	return t.nodes[t.root].freq
}

// Codes walks the tree depth first, appending 0 for a left edge and 1 for a
// right edge.  A leaf reached with an empty path gets the code "0".
func (t *Tree) Codes() Table {
	table := make(Table)
	if t.root == none {
		return table
	}

	type frame struct {
		id   int
		path bitseq.Sequence
	}
	stack := []frame{{id: t.root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := t.nodes[f.id]
		if n.leaf() {
			code := f.path
			if code.Len() == 0 {
				code = code.Append(0)
			}
			table[n.symbol] = code
			continue
		}
		// Right is pushed first so the left subtree is visited first.
		if n.right != none {
			stack = append(stack, frame{id: n.right, path: f.path.Append(1)})
		}
		if n.left != none {
			stack = append(stack, frame{id: n.left, path: f.path.Append(0)})
		}
	}
	return table
}

// queue orders node ids by frequency, then by creation id.
type queue struct {
	tree *Tree
	ids  []int
}

func (q *queue) Len() int { return len(q.ids) }

func (q *queue) Less(i, j int) bool {
	a, b := q.tree.nodes[q.ids[i]], q.tree.nodes[q.ids[j]]
	if a.freq != b.freq {
		return a.freq < b.freq
	}
	return q.ids[i] < q.ids[j]
}

func (q *queue) Swap(i, j int) { q.ids[i], q.ids[j] = q.ids[j], q.ids[i] }

func (q *queue) Push(x any) { q.ids = append(q.ids, x.(int)) }

func (q *queue) Pop() any {
	last := q.ids[len(q.ids)-1]
	q.ids = q.ids[:len(q.ids)-1]
	return last
}
