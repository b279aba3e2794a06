// Package merkle builds binary merkle trees over ordered transaction payloads.
//
// Nodes live in an Arena and are addressed by NodeID handles. A node is
// either a leaf (bound to a payload), an internal node (derived from its
// children) or an unlinked node holding an explicitly assigned digest.
// Children are owned by exactly one parent; parent links are plain handles.
package merkle

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-merkle/pkg/crypto"
	"github.com/Klingon-tech/klingnet-merkle/pkg/types"
)

// Arena errors.
var (
	ErrUnknownNode   = errors.New("unknown node")
	ErrAlreadyLinked = errors.New("node already has a parent")
)

// NodeID is a handle to a node stored in an Arena.
type NodeID int

// NoNode marks an absent child or parent link.
const NoNode NodeID = -1

// Kind distinguishes the node variants.
type Kind uint8

const (
	KindUnlinked Kind = iota // No children; digest assigned directly or empty.
	KindLeaf                 // Bound to a transaction payload.
	KindInternal             // Digest derived from its children.
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindUnlinked:
		return "unlinked"
	case KindLeaf:
		return "leaf"
	case KindInternal:
		return "internal"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

type node struct {
	kind    Kind
	digest  types.Hash
	empty   bool
	payload []byte
	left    NodeID
	right   NodeID
	parent  NodeID
}

// Arena owns every node of one or more trees.
// The zero value is ready to use.
type Arena struct {
	nodes []node
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Len returns the number of nodes in the arena.
func (a *Arena) Len() int {
	return len(a.nodes)
}

func (a *Arena) add(n node) NodeID {
	a.nodes = append(a.nodes, n)
	return NodeID(len(a.nodes) - 1)
}

func (a *Arena) has(id NodeID) bool {
	return id >= 0 && int(id) < len(a.nodes)
}

// NewEmpty adds a node with no children and no digest.
func (a *Arena) NewEmpty() NodeID {
	return a.add(node{
		kind:   KindUnlinked,
		empty:  true,
		left:   NoNode,
		right:  NoNode,
		parent: NoNode,
	})
}

// NewDigest adds a childless node holding a precomputed digest.
// No hashing is performed.
func (a *Arena) NewDigest(digest types.Hash) NodeID {
	return a.add(node{
		kind:   KindUnlinked,
		digest: digest,
		left:   NoNode,
		right:  NoNode,
		parent: NoNode,
	})
}

// NewLeaf adds a leaf bound to a copy of payload. Its digest is Hash(payload).
func (a *Arena) NewLeaf(payload []byte) NodeID {
	data := make([]byte, len(payload))
	copy(data, payload)
	return a.add(node{
		kind:    KindLeaf,
		digest:  crypto.Hash(data),
		payload: data,
		left:    NoNode,
		right:   NoNode,
		parent:  NoNode,
	})
}

// NewInternal adds a node owning left and right and derives its digest.
//
// Either child may be NoNode. Both children are linked to the new node, so
// a child that already has a parent is rejected. Passing the same node as
// both children pairs it with itself.
func (a *Arena) NewInternal(left, right NodeID) (NodeID, error) {
	for _, child := range [2]NodeID{left, right} {
		if child == NoNode {
			continue
		}
		if !a.has(child) {
			return NoNode, fmt.Errorf("%w: %d", ErrUnknownNode, child)
		}
		if p := a.nodes[child].parent; p != NoNode {
			return NoNode, fmt.Errorf("%w: node %d is owned by %d", ErrAlreadyLinked, child, p)
		}
	}

	kind := KindInternal
	if left == NoNode && right == NoNode {
		kind = KindUnlinked
	}
	id := a.add(node{
		kind:   kind,
		left:   left,
		right:  right,
		parent: NoNode,
	})
	if left != NoNode {
		a.nodes[left].parent = id
	}
	if right != NoNode {
		a.nodes[right].parent = id
	}
	a.deriveDigest(id)
	return id, nil
}

// deriveDigest sets the digest of id from its children.
// A node with a single child takes that child's digest unchanged.
func (a *Arena) deriveDigest(id NodeID) {
	n := &a.nodes[id]
	switch {
	case n.left == NoNode && n.right == NoNode:
		n.digest, n.empty = types.Hash{}, true
	case n.right == NoNode:
		child := a.nodes[n.left]
		n.digest, n.empty = child.digest, child.empty
	case n.left == NoNode:
		child := a.nodes[n.right]
		n.digest, n.empty = child.digest, child.empty
	default:
		n.digest, n.empty = pairDigest(&a.nodes[n.left], &a.nodes[n.right]), false
	}
}

// pairDigest hashes the digests of two children. An empty child
// contributes no bytes.
func pairDigest(l, r *node) types.Hash {
	if !l.empty && !r.empty {
		return crypto.HashConcat(l.digest, r.digest)
	}
	return crypto.Hash(append(l.digestBytes(), r.digestBytes()...))
}

func (n *node) digestBytes() []byte {
	if n.empty {
		return nil
	}
	return n.digest.Bytes()
}

// Node returns a read-only view of id.
func (a *Arena) Node(id NodeID) (Node, bool) {
	if !a.has(id) {
		return Node{}, false
	}
	return Node{arena: a, id: id}, true
}

// Node is a read-only view of a node in an Arena.
type Node struct {
	arena *Arena
	id    NodeID
}

func (n Node) get() *node {
	return &n.arena.nodes[n.id]
}

// ID returns the node's handle.
func (n Node) ID() NodeID { return n.id }

// Kind returns the node's variant.
func (n Node) Kind() Kind { return n.get().kind }

// Digest returns the stored digest. It is the zero hash when HasDigest is false.
func (n Node) Digest() types.Hash { return n.get().digest }

// HasDigest reports whether a digest has been assigned or derived.
func (n Node) HasDigest() bool { return !n.get().empty }

// Payload returns a copy of the leaf payload, or nil for non-leaf nodes.
func (n Node) Payload() []byte {
	p := n.get().payload
	if p == nil {
		return nil
	}
	out := make([]byte, len(p))
	copy(out, p)
	return out
}

// Left returns the left child, if any.
func (n Node) Left() (Node, bool) { return n.arena.Node(n.get().left) }

// Right returns the right child, if any.
func (n Node) Right() (Node, bool) { return n.arena.Node(n.get().right) }

// Parent returns the parent, if the node has been paired.
func (n Node) Parent() (Node, bool) { return n.arena.Node(n.get().parent) }

// IsRoot reports whether the node has no parent.
func (n Node) IsRoot() bool { return n.get().parent == NoNode }

// Verify reports whether msg hashes to the node's digest.
// A node without a digest never verifies.
func (n Node) Verify(msg []byte) bool {
	nd := n.get()
	if nd.empty {
		return false
	}
	return crypto.Verify(msg, nd.digest)
}
