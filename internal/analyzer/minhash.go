package analyzer

import (
	"hash/fnv"
	"math"
	"math/rand"
	"strconv"
)

// MinHashSignature holds the signature vector
type MinHashSignature struct {
	signatures []uint64
	numHashes  int
}

// GetSignatures returns the raw signature vector
func (s *MinHashSignature) GetSignatures() []uint64 { return s.signatures }

// GetNumHashes returns the number of hash permutations in the signature
func (s *MinHashSignature) GetNumHashes() int { return s.numHashes }

// HashFunc maps a 64-bit base hash to another 64-bit value
type HashFunc func(uint64) uint64

// MinHasher computes MinHash signatures for token sets. Tokens are treated as
// opaque units: two sequences sketch equally iff their distinct-token sets
// are equal.
type MinHasher struct {
	numHashes     int
	hashFunctions []HashFunc
}

// NewMinHasher creates a MinHasher with numHashes permutations (default 128
// if invalid).
func NewMinHasher(numHashes int) *MinHasher {
	if numHashes <= 0 {
		numHashes = 128
	}
	mh := &MinHasher{numHashes: numHashes}
	mh.generateHashFunctions()
	return mh
}

func (m *MinHasher) generateHashFunctions() {
	// Simple 64-bit universal hashing: h_i(x) = (a_i * x) ^ b_i, with overflow.
	// Deterministic seed for reproducibility across runs and workers.
	rng := rand.New(rand.NewSource(0x5eed_1234_cafe_babe))
	m.hashFunctions = make([]HashFunc, m.numHashes)
	for i := 0; i < m.numHashes; i++ {
		// Odd a avoids trivial cycles
		ai := rng.Uint64() | 1
		bi := rng.Uint64()
		m.hashFunctions[i] = func(x uint64) uint64 {
			return (ai * x) ^ bi
		}
	}
}

// ComputeSignature computes the MinHash signature for a token sequence.
// An empty sequence yields the all-max signature, which no non-empty
// signature can collide with.
func (m *MinHasher) ComputeSignature(tokens []int) *MinHashSignature {
	sig := make([]uint64, m.numHashes)
	for i := range sig {
		sig[i] = math.MaxUint64
	}
	if len(tokens) == 0 {
		return &MinHashSignature{signatures: sig, numHashes: m.numHashes}
	}
	// Deduplicate tokens to treat the sequence as a set
	set := make(map[int]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	base := make([]uint64, 0, len(set))
	for t := range set {
		base = append(base, hashToken(t))
	}
	for i := 0; i < m.numHashes; i++ {
		hi := m.hashFunctions[i]
		minv := uint64(math.MaxUint64)
		for _, x := range base {
			if v := hi(x); v < minv {
				minv = v
			}
		}
		sig[i] = minv
	}
	return &MinHashSignature{signatures: sig, numHashes: m.numHashes}
}

// EstimateJaccardSimilarity estimates Jaccard similarity via signature
// agreement ratio
func (m *MinHasher) EstimateJaccardSimilarity(sig1, sig2 *MinHashSignature) float64 {
	if sig1 == nil || sig2 == nil || len(sig1.signatures) == 0 || len(sig2.signatures) == 0 {
		return 0.0
	}
	n := len(sig1.signatures)
	if len(sig2.signatures) < n {
		n = len(sig2.signatures)
	}
	if n == 0 {
		return 0.0
	}
	match := 0
	for i := 0; i < n; i++ {
		if sig1.signatures[i] == sig2.signatures[i] {
			match++
		}
	}
	return float64(match) / float64(n)
}

// NumHashes returns the number of permutations this hasher uses.
func (m *MinHasher) NumHashes() int { return m.numHashes }

// hashToken maps an integer token to a 64-bit base hash through its decimal
// byte representation.
func hashToken(token int) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strconv.Itoa(token)))
	return h.Sum64()
}
