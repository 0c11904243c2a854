// Package similarity scores how closely a candidate cached query matches an
// incoming one, fusing a semantic signal with a lexical one the way
// original_source/thirdai_platform/llm_cache_job reranks its top-K
// candidates before accepting a match.
package similarity

import (
	"math"
	"strings"
)

// DefaultSemanticWeight and DefaultOverlapWeight are the fusion weights
// used when a FusionWeight is zero-valued: 0.6 semantic cosine, 0.4
// Jaccard token-overlap, per the Open Question decided in favor of a fixed
// default exposed as a config knob.
const (
	DefaultSemanticWeight = 0.6
	DefaultOverlapWeight  = 0.4

	// DefaultThreshold is the fused score a candidate must exceed for
	// lookup to consider it a match.
	DefaultThreshold = 0.95

	// embeddingBuckets is the width of the hashed bag-of-words vector the
	// semantic score is computed over.
	embeddingBuckets = 256
)

// FusionWeight controls how a candidate's semantic and lexical scores are
// combined into a single match score. SemanticWeight and OverlapWeight
// should sum to 1; Score does not enforce that, so a misconfigured weight
// pair is a deployment error, not a runtime one.
type FusionWeight struct {
	SemanticWeight float64
	OverlapWeight  float64
}

// DefaultFusionWeight is the 0.6/0.4 split named in the Open Question
// resolution.
var DefaultFusionWeight = FusionWeight{
	SemanticWeight: DefaultSemanticWeight,
	OverlapWeight:  DefaultOverlapWeight,
}

// Score fuses the cosine similarity of a hashed bag-of-words embedding of a
// and b with their whitespace-token Jaccard overlap, per w. The result is
// in [0, 1].
func Score(a, b string, w FusionWeight) float64 {
	semantic := cosine(embed(a), embed(b))
	overlap := jaccard(tokenize(a), tokenize(b))

	return w.SemanticWeight*semantic + w.OverlapWeight*overlap
}

// tokenize lower-cases and splits on whitespace, the simplest token
// boundary the lexical overlap score needs.
func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

// jaccard is |A∩B| / |A∪B| over token sets, 1 if both are empty.
func jaccard(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)

	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}

	intersection := 0

	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}

func toSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}

	return set
}

// embed hashes each token of s into a fixed-width bag-of-words vector, a
// cheap stand-in for a learned embedding that still captures token
// co-occurrence well enough to drive a cosine pre-filter.
func embed(s string) [embeddingBuckets]float64 {
	var v [embeddingBuckets]float64

	for _, tok := range tokenize(s) {
		v[hashBucket(tok)]++
	}

	return v
}

func hashBucket(tok string) uint32 {
	var h uint32 = 2166136261

	for i := 0; i < len(tok); i++ {
		h ^= uint32(tok[i])
		h *= 16777619
	}

	return h % embeddingBuckets
}

func cosine(a, b [embeddingBuckets]float64) float64 {
	var dot, normA, normB float64

	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// TopK returns the indices of the k highest-scoring candidates in
// descending score order, breaking ties by original index so results are
// deterministic.
func TopK(scores []float64, k int) []int {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}

	for i := 1; i < len(idx); i++ {
		for j := i; j > 0 && scores[idx[j]] > scores[idx[j-1]]; j-- {
			idx[j], idx[j-1] = idx[j-1], idx[j]
		}
	}

	if k < len(idx) {
		idx = idx[:k]
	}

	return idx
}
