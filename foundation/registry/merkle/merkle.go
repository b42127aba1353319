// Package merkle provides the merkle tree used to commit a block's
// transactions into its header.
package merkle

import (
	"crypto/sha256"
	"errors"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Hashable represents the behavior concrete data must exhibit to be used
// in the merkle tree.
type Hashable interface {
	Hash() ([]byte, error)
}

// Tree represents a merkle tree over an ordered set of values. Only the
// root is needed by the chain; proofs are not part of this implementation.
type Tree[T Hashable] struct {
	values []T
	root   []byte
}

// NewTree constructs a merkle tree from the ordered set of values.
func NewTree[T Hashable](values []T) (*Tree[T], error) {
	if len(values) == 0 {
		return nil, errors.New("cannot construct tree with no content")
	}

	var level [][]byte
	for _, value := range values {
		hash, err := value.Hash()
		if err != nil {
			return nil, err
		}
		level = append(level, leafHash(hash))
	}

	// Pair the hashes upward until a single root remains. An odd node is
	// paired with itself, matching the classic bitcoin construction.
	for len(level) > 1 {
		var next [][]byte
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			right := left
			if i+1 < len(level) {
				right = level[i+1]
			}
			next = append(next, nodeHash(left, right))
		}
		level = next
	}

	t := Tree[T]{
		values: append([]T(nil), values...),
		root:   level[0],
	}

	return &t, nil
}

// Values returns the ordered set of values the tree was built from.
func (t *Tree[T]) Values() []T {
	return append([]T(nil), t.values...)
}

// RootHex returns the merkle root as a hex encoded string for the
// block header.
func (t *Tree[T]) RootHex() string {
	return hexutil.Encode(t.root)
}

// =============================================================================

// Domain separation prefixes so a leaf can never be reinterpreted as an
// interior node.
const (
	leafPrefix = 0x00
	nodePrefix = 0x01
)

func leafHash(value []byte) []byte {
	data := make([]byte, 0, len(value)+1)
	data = append(data, leafPrefix)
	data = append(data, value...)

	hash := sha256.Sum256(data)
	return hash[:]
}

func nodeHash(left, right []byte) []byte {
	data := make([]byte, 0, len(left)+len(right)+1)
	data = append(data, nodePrefix)
	data = append(data, left...)
	data = append(data, right...)

	hash := sha256.Sum256(data)
	return hash[:]
}
