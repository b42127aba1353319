package pow

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// NoncesPerRound bounds one call to Mine. The worker checks for
// cancellation between rounds, so a round must stay short enough to keep
// the node responsive.
const NoncesPerRound = 10_000_000

// Algorithm is the sealing capability a chain runs with. Verify must
// accept exactly the seals Mine can produce.
type Algorithm interface {
	Verify(preHash string, nonce uint64, difficulty *uint256.Int) bool
	Mine(preHash string, difficulty *uint256.Int) (nonce uint64, ok bool)
}

// New selects the algorithm named in the genesis file.
func New(name string) (Algorithm, error) {
	switch name {
	case "keccak":
		return NewKeccakPow(), nil
	case "dummy":
		return DummyPow{}, nil
	}

	return nil, fmt.Errorf("unknown pow algorithm %q", name)
}

// =============================================================================

// KeccakPow seals blocks by searching for a nonce whose Keccak256 hash
// over the pre-hash falls under the difficulty threshold. The threshold
// is maxU256/difficulty, so difficulty is the expected number of hashes
// per seal.
type KeccakPow struct {
	nextNonce atomic.Uint64
}

// NewKeccakPow constructs a KeccakPow with a random nonce seed, so
// concurrent miners search disjoint ranges.
func NewKeccakPow() *KeccakPow {
	return NewKeccakPowWithSeed(rand.Uint64())
}

// NewKeccakPowWithSeed constructs a KeccakPow starting its nonce search
// at the specified seed.
func NewKeccakPowWithSeed(seed uint64) *KeccakPow {
	p := KeccakPow{}
	p.nextNonce.Store(seed)
	return &p
}

// Verify reports whether the nonce seals the pre-hash at the specified
// difficulty.
func (p *KeccakPow) Verify(preHash string, nonce uint64, difficulty *uint256.Int) bool {
	if difficulty == nil || difficulty.IsZero() {
		return false
	}

	return nonceValue(preHash, nonce).Cmp(threshold(difficulty)) <= 0
}

// Mine runs one bounded round of the nonce search. The round starts at
// the next slice of the shared counter and wraps on overflow. A false
// return means the round was exhausted, not that no seal exists.
func (p *KeccakPow) Mine(preHash string, difficulty *uint256.Int) (uint64, bool) {
	if difficulty == nil || difficulty.IsZero() {
		return 0, false
	}

	th := threshold(difficulty)
	nonce := p.nextNonce.Add(NoncesPerRound) - NoncesPerRound

	for i := 0; i < NoncesPerRound; i++ {
		if nonceValue(preHash, nonce).Cmp(th) <= 0 {
			return nonce, true
		}
		nonce++
	}

	return 0, false
}

// threshold converts a difficulty into the highest passing hash value.
func threshold(difficulty *uint256.Int) *uint256.Int {
	max := new(uint256.Int).Not(uint256.NewInt(0))
	return max.Div(max, difficulty)
}

// nonceValue interprets the hash of the pre-hash and nonce as a
// big-endian 256-bit number.
func nonceValue(preHash string, nonce uint64) *uint256.Int {
	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], nonce)

	hash := crypto.Keccak256([]byte(preHash), nonceBytes[:])
	return new(uint256.Int).SetBytes(hash)
}

// =============================================================================

// DummyPow accepts any seal immediately. Used by test networks where
// block production should not burn CPU.
type DummyPow struct{}

// Verify accepts every nonce.
func (DummyPow) Verify(preHash string, nonce uint64, difficulty *uint256.Int) bool {
	return true
}

// Mine returns the zero nonce without searching.
func (DummyPow) Mine(preHash string, difficulty *uint256.Int) (uint64, bool) {
	return 0, true
}
