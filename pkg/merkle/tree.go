package merkle

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-merkle/pkg/crypto"
	"github.com/Klingon-tech/klingnet-merkle/pkg/types"
)

// Tree errors.
var (
	ErrEmptyInput     = errors.New("no leaves to build a tree from")
	ErrMalformedNode  = errors.New("malformed node")
	ErrDigestMismatch = errors.New("digest mismatch")
	ErrDuplicateLeaf  = errors.New("duplicate leaf")
)

// Tree is a merkle tree built over an ordered sequence of leaves.
type Tree struct {
	arena  *Arena
	leaves []NodeID
	root   NodeID
	levels int
}

// New builds a tree over payloads, one leaf per payload, in order.
func New(payloads [][]byte) (*Tree, error) {
	if len(payloads) == 0 {
		return nil, ErrEmptyInput
	}
	a := NewArena()
	leaves := make([]NodeID, len(payloads))
	for i, p := range payloads {
		leaves[i] = a.NewLeaf(p)
	}
	return Build(a, leaves)
}

// Build reduces leaves level by level until a single root remains.
//
// Adjacent nodes are paired positionally (0 with 1, 2 with 3, ...). When a
// level has an odd number of nodes its last node is paired with itself.
// The leaves slice is not modified. Every leaf must be unowned and appear
// once; the arena is left untouched when either check fails.
func Build(a *Arena, leaves []NodeID) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyInput
	}
	seen := make(map[NodeID]int, len(leaves))
	for i, id := range leaves {
		if j, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: node %d appears at %d and %d", ErrDuplicateLeaf, id, j, i)
		}
		seen[id] = i
		if !a.has(id) {
			return nil, fmt.Errorf("%w: %d", ErrUnknownNode, id)
		}
		if p := a.nodes[id].parent; p != NoNode {
			return nil, fmt.Errorf("%w: node %d is owned by %d", ErrAlreadyLinked, id, p)
		}
	}

	kept := make([]NodeID, len(leaves))
	copy(kept, leaves)

	level := kept
	levels := 0
	for len(level) > 1 {
		next, err := a.reduceLevel(level)
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", levels, err)
		}
		level = next
		levels++
	}

	return &Tree{
		arena:  a,
		leaves: kept,
		root:   level[0],
		levels: levels,
	}, nil
}

// reduceLevel pairs the nodes of one level into the parents of the next.
func (a *Arena) reduceLevel(level []NodeID) ([]NodeID, error) {
	if len(level)%2 != 0 {
		padded := make([]NodeID, len(level), len(level)+1)
		copy(padded, level)
		level = append(padded, level[len(level)-1])
	}

	next := make([]NodeID, 0, len(level)/2)
	for i := 0; i < len(level); i += 2 {
		id, err := a.NewInternal(level[i], level[i+1])
		if err != nil {
			return nil, err
		}
		next = append(next, id)
	}
	return next, nil
}

// Root returns the root node.
func (t *Tree) Root() Node {
	return Node{arena: t.arena, id: t.root}
}

// RootID returns the handle of the root node.
func (t *Tree) RootID() NodeID { return t.root }

// RootHash returns the root digest.
func (t *Tree) RootHash() types.Hash {
	return t.Root().Digest()
}

// Levels returns the number of levels above the leaves.
func (t *Tree) Levels() int { return t.levels }

// LeafCount returns the number of leaves the tree was built from.
func (t *Tree) LeafCount() int { return len(t.leaves) }

// Leaf returns the i-th leaf in input order.
func (t *Tree) Leaf(i int) (Node, bool) {
	if i < 0 || i >= len(t.leaves) {
		return Node{}, false
	}
	return Node{arena: t.arena, id: t.leaves[i]}, true
}

// Leaves returns the leaves in input order.
func (t *Tree) Leaves() []Node {
	out := make([]Node, len(t.leaves))
	for i, id := range t.leaves {
		out[i] = Node{arena: t.arena, id: id}
	}
	return out
}

// Transactions returns copies of the leaf payloads in input order.
// Leaves that are not payload-bound yield nil.
func (t *Tree) Transactions() [][]byte {
	out := make([][]byte, len(t.leaves))
	for i, id := range t.leaves {
		out[i] = Node{arena: t.arena, id: id}.Payload()
	}
	return out
}

// Node returns a view of any node in the tree's arena.
func (t *Tree) Node(id NodeID) (Node, bool) {
	return t.arena.Node(id)
}

// Arena returns the arena holding the tree's nodes.
func (t *Tree) Arena() *Arena { return t.arena }

// Verify reports whether msg hashes to the root digest.
func (t *Tree) Verify(msg []byte) bool {
	return t.Root().Verify(msg)
}

// Validate walks the tree from the root and checks its structure: leaf
// digests match their payloads, internal digests match their children,
// children link back to their parent and every leaf reaches the root.
func (t *Tree) Validate() error {
	if err := t.validateNode(t.root); err != nil {
		return err
	}
	for i, id := range t.leaves {
		cur := id
		for steps := 0; cur != t.root; steps++ {
			if steps > t.levels {
				return fmt.Errorf("%w: leaf %d does not reach the root", ErrMalformedNode, i)
			}
			cur = t.arena.nodes[cur].parent
			if cur == NoNode {
				return fmt.Errorf("%w: leaf %d does not reach the root", ErrMalformedNode, i)
			}
		}
	}
	return nil
}

func (t *Tree) validateNode(id NodeID) error {
	n := &t.arena.nodes[id]
	switch {
	case n.left == NoNode && n.right == NoNode:
		if n.kind == KindLeaf && crypto.Hash(n.payload) != n.digest {
			return fmt.Errorf("%w: leaf %d", ErrDigestMismatch, id)
		}
		return nil
	case n.left == NoNode || n.right == NoNode:
		return fmt.Errorf("%w: node %d has a single child", ErrMalformedNode, id)
	}

	for _, child := range [2]NodeID{n.left, n.right} {
		if t.arena.nodes[child].parent != id {
			return fmt.Errorf("%w: child %d of node %d links to %d",
				ErrMalformedNode, child, id, t.arena.nodes[child].parent)
		}
	}
	if n.empty || pairDigest(&t.arena.nodes[n.left], &t.arena.nodes[n.right]) != n.digest {
		return fmt.Errorf("%w: node %d", ErrDigestMismatch, id)
	}

	if err := t.validateNode(n.left); err != nil {
		return err
	}
	if n.right != n.left {
		return t.validateNode(n.right)
	}
	return nil
}
