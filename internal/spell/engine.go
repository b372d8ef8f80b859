// Package spell provides dictionary-backed spelling correction: membership
// checks, frequency-ranked edit-distance suggestions, and whole-sentence
// rewriting. The dictionary and frequency table are immutable after
// construction and safe for unsynchronized concurrent reads.
package spell

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

const (
	// DefaultMaxDistance is the largest edit distance a suggestion may have.
	DefaultMaxDistance = 2
	// DefaultLimit caps the number of suggestions returned per word.
	DefaultLimit = 3
)

var wordPattern = regexp.MustCompile(`[a-zA-Z]+`)

// Engine answers spelling queries against a fixed dictionary and frequency
// table. The zero-value maps are valid: with an empty dictionary no word is
// known and no suggestion is produced, so CorrectSentence degrades to the
// identity function.
type Engine struct {
	words map[string]struct{}
	freq  map[string]int
}

// New builds an engine over the given word set and frequency table. Both maps
// are retained by reference and must not be mutated afterwards.
func New(words map[string]struct{}, freq map[string]int) *Engine {
	if words == nil {
		words = map[string]struct{}{}
	}
	if freq == nil {
		freq = map[string]int{}
	}
	return &Engine{words: words, freq: freq}
}

// Size returns the number of dictionary entries.
func (e *Engine) Size() int {
	return len(e.words)
}

// IsKnown reports whether word is in the dictionary, case-insensitively.
func (e *Engine) IsKnown(word string) bool {
	_, ok := e.words[strings.ToLower(word)]
	return ok
}

// Suggest returns up to limit dictionary words within maxDistance edits of
// word, ranked by edit distance ascending, then frequency descending, then
// lexicographically. The length difference is used as an admissibility prune
// before computing the distance. This is a full dictionary scan per call and
// the dominant cost of the system at large dictionary sizes.
func (e *Engine) Suggest(word string, maxDistance, limit int) []string {
	word = strings.ToLower(word)

	type candidate struct {
		word string
		dist int
		freq int
	}
	var candidates []candidate

	for entry := range e.words {
		if diff := len(entry) - len(word); diff > maxDistance || -diff > maxDistance {
			continue
		}
		dist := levenshtein(word, entry)
		if dist > maxDistance {
			continue
		}
		candidates = append(candidates, candidate{word: entry, dist: dist, freq: e.freq[entry]})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		if candidates[i].freq != candidates[j].freq {
			return candidates[i].freq > candidates[j].freq
		}
		return candidates[i].word < candidates[j].word
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.word
	}
	return out
}

// CorrectSentence rewrites text by replacing every unknown alphabetic token
// with its best suggestion, preserving the casing style of the original
// token. Every occurrence of a misspelled token is corrected, not just the
// first. Tokens with no acceptable suggestion are left unchanged.
func (e *Engine) CorrectSentence(text string) string {
	return wordPattern.ReplaceAllStringFunc(text, func(token string) string {
		if e.IsKnown(token) {
			return token
		}
		suggestions := e.Suggest(token, DefaultMaxDistance, 1)
		if len(suggestions) == 0 {
			return token
		}
		return matchCase(token, suggestions[0])
	})
}

// matchCase maps a lowercase suggestion onto the casing style of the original
// token: all-uppercase stays uppercase, capitalized stays capitalized,
// anything else is lowercase.
func matchCase(original, suggestion string) string {
	if isUpper(original) {
		return strings.ToUpper(suggestion)
	}
	if isTitle(original) {
		return strings.ToUpper(suggestion[:1]) + suggestion[1:]
	}
	return suggestion
}

func isUpper(s string) bool {
	for _, r := range s {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return len(s) > 0
}

func isTitle(s string) bool {
	runes := []rune(s)
	if len(runes) == 0 || !unicode.IsUpper(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// levenshtein computes the edit distance between a and b with unit cost for
// insertions, deletions, and substitutions, keeping two rows of the DP table.
func levenshtein(a, b string) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 0; i < len(a); i++ {
		curr[0] = i + 1
		for j := 0; j < len(b); j++ {
			cost := 1
			if a[i] == b[j] {
				cost = 0
			}
			curr[j+1] = min(prev[j+1]+1, curr[j]+1, prev[j]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
