package fuzzy

import (
	"slices"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// NameResolver maps the normalised key of a name-like span to a canonical
// proper name.
//
// Implementations must be safe for concurrent use. ok is false when no known
// name is close enough; score is in [0, 1] and is 1 for exact matches.
type NameResolver interface {
	Resolve(key string) (canonical string, score float64, ok bool)
}

// Scorer returns the similarity of two normalised strings in [0, 1].
type Scorer func(a, b string) float64

// LCSRatio is 2·LCS(a, b) / (len(a) + len(b)) with lengths in runes, where
// LCS is the longest common subsequence. Two empty strings score 1.
func LCSRatio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 1
	}
	return float64(2*matchr.LongestCommonSubsequence(a, b)) / float64(total)
}

// JaroWinkler is the standard Jaro-Winkler similarity.
func JaroWinkler(a, b string) float64 {
	return matchr.JaroWinkler(a, b, false)
}

// BruteForce scores a key against every known variant. Lookups cost
// O(variants) per unseen key.
type BruteForce struct {
	index     map[string]string
	keys      []string
	threshold float64
	scorer    Scorer
}

// NewBruteForce returns a resolver over index (normalised variant →
// canonical name). A nil scorer selects [LCSRatio].
func NewBruteForce(index map[string]string, threshold float64, scorer Scorer) *BruteForce {
	if scorer == nil {
		scorer = LCSRatio
	}
	b := &BruteForce{
		index:     make(map[string]string, len(index)),
		keys:      make([]string, 0, len(index)),
		threshold: threshold,
		scorer:    scorer,
	}
	for k, v := range index {
		b.index[k] = v
		b.keys = append(b.keys, k)
	}
	slices.Sort(b.keys)
	return b
}

// Resolve implements [NameResolver]. Exact index hits win outright; otherwise
// the highest score at or above the threshold wins, ties going to the
// lexicographically smallest variant.
func (b *BruteForce) Resolve(key string) (string, float64, bool) {
	if key == "" {
		return "", 0, false
	}
	if c, ok := b.index[key]; ok {
		return c, 1, true
	}

	best, bestScore := "", -1.0
	for _, k := range b.keys {
		if s := b.scorer(key, k); s > bestScore {
			best, bestScore = k, s
		}
	}
	if best == "" || bestScore < b.threshold {
		return "", 0, false
	}
	return b.index[best], bestScore, true
}

// Len returns the number of known variants.
func (b *BruteForce) Len() int { return len(b.keys) }
