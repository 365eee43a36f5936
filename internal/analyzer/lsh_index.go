package analyzer

import (
	"crypto/md5"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/methodlens/methodlens/domain"
)

// LSHIndex is a MinHash-based locality-sensitive hash table over block ids.
// It exists purely to narrow O(n^2) candidate pair generation: a query
// returns only ids whose estimated Jaccard similarity reaches the configured
// threshold, at the cost of a small bounded false-negative rate.
type LSHIndex struct {
	threshold float64
	hasher    *MinHasher
	bands     int
	rows      int

	mutex      sync.RWMutex
	buckets    map[string][]string
	signatures map[string]*MinHashSignature
}

// NewLSHIndex creates an index targeting the given Jaccard threshold with the
// given number of MinHash permutations (default 128 when non-positive). Band
// and row counts are derived from the threshold so that the banding curve
// crosses near it.
func NewLSHIndex(threshold float64, numPermutations int) *LSHIndex {
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.5
	}
	if numPermutations <= 0 {
		numPermutations = 128
	}
	bands, rows := optimalBandParameters(threshold, numPermutations)
	return &LSHIndex{
		threshold:  threshold,
		hasher:     NewMinHasher(numPermutations),
		bands:      bands,
		rows:       rows,
		buckets:    make(map[string][]string),
		signatures: make(map[string]*MinHashSignature),
	}
}

// optimalBandParameters picks bands and rows with bands*rows <= numHashes so
// that the banding threshold (1/b)^(1/r) lands closest to the target.
func optimalBandParameters(target float64, numHashes int) (int, int) {
	bestBands, bestRows := 1, numHashes
	bestError := math.Inf(1)
	for rows := 1; rows <= numHashes; rows++ {
		bands := numHashes / rows
		if bands < 1 {
			break
		}
		threshold := math.Pow(1.0/float64(bands), 1.0/float64(rows))
		diff := math.Abs(threshold - target)
		if diff < bestError {
			bestError = diff
			bestBands, bestRows = bands, rows
		}
	}
	return bestBands, bestRows
}

// Add sketches the token sequence and indexes it under the block id.
// An empty token list is a no-op: the block is not indexed and can never be
// retrieved. Indexing the same id twice is an error.
func (idx *LSHIndex) Add(blockID string, tokens []int) error {
	if len(tokens) == 0 {
		return nil
	}

	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	if _, exists := idx.signatures[blockID]; exists {
		return domain.NewIndexError(fmt.Sprintf("block %s is already indexed", blockID), nil)
	}
	signature := idx.hasher.ComputeSignature(tokens)
	idx.signatures[blockID] = signature
	sigs := signature.GetSignatures()
	for band := 0; band < idx.bands; band++ {
		key := idx.bucketKey(sigs, band)
		idx.buckets[key] = append(idx.buckets[key], blockID)
	}
	return nil
}

// Query returns all indexed ids whose estimated Jaccard similarity with the
// query tokens meets the index threshold, sorted for deterministic ordering.
// An empty token list returns an empty result immediately.
func (idx *LSHIndex) Query(tokens []int) []string {
	scored := idx.scoredCandidates(tokens)
	ids := make([]string, 0, len(scored))
	for _, sc := range scored {
		ids = append(ids, sc.id)
	}
	sort.Strings(ids)
	return ids
}

// QueryTopK returns at most k candidate ids ordered by decreasing estimated
// similarity, ties broken by id. Used by the accelerated matching path to
// bound the per-source shortlist.
func (idx *LSHIndex) QueryTopK(tokens []int, k int) []string {
	if k <= 0 {
		return []string{}
	}
	scored := idx.scoredCandidates(tokens)
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].similarity != scored[j].similarity {
			return scored[i].similarity > scored[j].similarity
		}
		return scored[i].id < scored[j].id
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	ids := make([]string, 0, len(scored))
	for _, sc := range scored {
		ids = append(ids, sc.id)
	}
	return ids
}

type scoredCandidate struct {
	id         string
	similarity float64
}

func (idx *LSHIndex) scoredCandidates(tokens []int) []scoredCandidate {
	if len(tokens) == 0 {
		return nil
	}
	query := idx.hasher.ComputeSignature(tokens)
	sigs := query.GetSignatures()

	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	candidateSet := make(map[string]struct{})
	for band := 0; band < idx.bands; band++ {
		key := idx.bucketKey(sigs, band)
		for _, id := range idx.buckets[key] {
			candidateSet[id] = struct{}{}
		}
	}

	scored := make([]scoredCandidate, 0, len(candidateSet))
	for id := range candidateSet {
		similarity := idx.hasher.EstimateJaccardSimilarity(query, idx.signatures[id])
		if similarity >= idx.threshold {
			scored = append(scored, scoredCandidate{id: id, similarity: similarity})
		}
	}
	return scored
}

// bucketKey hashes one band of the signature into a bucket identifier.
func (idx *LSHIndex) bucketKey(signatures []uint64, band int) string {
	start := band * idx.rows
	end := start + idx.rows
	data := make([]byte, 0, idx.rows*8)
	for i := start; i < end && i < len(signatures); i++ {
		sig := signatures[i]
		for j := 0; j < 8; j++ {
			data = append(data, byte(sig>>(j*8)))
		}
	}
	sum := md5.Sum(data)
	return fmt.Sprintf("band_%d_%x", band, sum)
}

// Clear resets the index to empty with the same threshold and permutation
// configuration.
func (idx *LSHIndex) Clear() {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	idx.buckets = make(map[string][]string)
	idx.signatures = make(map[string]*MinHashSignature)
}

// Size returns the number of indexed blocks.
func (idx *LSHIndex) Size() int {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()
	return len(idx.signatures)
}

// Threshold returns the configured target Jaccard threshold.
func (idx *LSHIndex) Threshold() float64 { return idx.threshold }

// BandParameters returns the derived band and row counts.
func (idx *LSHIndex) BandParameters() (bands, rows int) {
	return idx.bands, idx.rows
}
