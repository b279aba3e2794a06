// Package audit implements the challenger side of a transaction set check:
// build the merkle tree, cross-check it independently and compare its root
// with the root the sender claims.
package audit

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-merkle/internal/log"
	"github.com/Klingon-tech/klingnet-merkle/pkg/crypto"
	"github.com/Klingon-tech/klingnet-merkle/pkg/merkle"
	"github.com/Klingon-tech/klingnet-merkle/pkg/types"
)

// Audit errors.
var (
	ErrRootMismatch     = errors.New("merkle root mismatch")
	ErrRootNotVerified  = errors.New("root does not verify against its children")
	ErrCrossCheckFailed = errors.New("independent root recomputation disagrees")
)

// Build builds the merkle tree over txs and logs its shape.
func Build(txs [][]byte) (*merkle.Tree, error) {
	done := log.Benchmark("merkle_build")
	tree, err := merkle.New(txs)
	done()
	if err != nil {
		return nil, fmt.Errorf("build merkle tree: %w", err)
	}

	log.Audit.Info().
		Int("transactions", tree.LeafCount()).
		Int("levels", tree.Levels()).
		Int("nodes", tree.Arena().Len()).
		Str("root", tree.RootHash().String()).
		Msg("Merkle tree built")
	return tree, nil
}

// ComputeRoot folds leaf hashes into a root using digests alone, pairing a
// trailing odd hash with itself. It returns the zero hash for no input.
func ComputeRoot(leafHashes []types.Hash) types.Hash {
	if len(leafHashes) == 0 {
		return types.Hash{}
	}

	buf := make([]types.Hash, len(leafHashes))
	copy(buf, leafHashes)
	for n := len(buf); n > 1; n = (n + 1) / 2 {
		for i := 0; i < n; i += 2 {
			j := i + 1
			if j == n {
				j = i
			}
			buf[i/2] = crypto.HashConcat(buf[i], buf[j])
		}
	}
	return buf[0]
}

// leafHash is the digest a leaf contributes to the recomputed root.
// Payload-bound leaves are rehashed; digest-only leaves use their digest.
func leafHash(leaf merkle.Node) (types.Hash, error) {
	switch {
	case leaf.Kind() == merkle.KindLeaf:
		return crypto.Hash(leaf.Payload()), nil
	case leaf.HasDigest():
		return leaf.Digest(), nil
	default:
		return types.Hash{}, fmt.Errorf("%w: leaf %d has no digest", ErrCrossCheckFailed, leaf.ID())
	}
}

// CrossCheck recomputes the tree's root from its leaves and confirms the
// root verifies against the concatenation of its children.
func CrossCheck(tree *merkle.Tree) error {
	leaves := tree.Leaves()
	hashes := make([]types.Hash, len(leaves))
	for i, leaf := range leaves {
		h, err := leafHash(leaf)
		if err != nil {
			return err
		}
		hashes[i] = h
	}

	manual := ComputeRoot(hashes)
	if manual != tree.RootHash() {
		return fmt.Errorf("%w: tree=%s manual=%s", ErrCrossCheckFailed, tree.RootHash(), manual)
	}

	root := tree.Root()
	left, hasLeft := root.Left()
	right, hasRight := root.Right()
	if hasLeft && hasRight {
		msg := append(left.Digest().Bytes(), right.Digest().Bytes()...)
		if !root.Verify(msg) {
			return fmt.Errorf("%w: root=%s", ErrRootNotVerified, root.Digest())
		}
	} else if root.Kind() == merkle.KindLeaf && !root.Verify(root.Payload()) {
		// Single leaf: the root is the leaf itself.
		return fmt.Errorf("%w: root=%s", ErrRootNotVerified, root.Digest())
	}

	if err := tree.Validate(); err != nil {
		return fmt.Errorf("validate tree: %w", err)
	}

	log.Audit.Debug().
		Str("root", manual.String()).
		Msg("Cross-check passed")
	return nil
}

// Compare checks the tree's root against the root the sender claims.
func Compare(tree *merkle.Tree, claimed types.Hash) error {
	computed := tree.RootHash()
	if computed != claimed {
		log.Audit.Warn().
			Str("claimed", claimed.String()).
			Str("computed", computed.String()).
			Msg("Merkle root mismatch")
		return fmt.Errorf("%w: claimed=%s computed=%s", ErrRootMismatch, claimed, computed)
	}
	log.Audit.Info().
		Str("root", computed.String()).
		Msg("Merkle root verified")
	return nil
}
