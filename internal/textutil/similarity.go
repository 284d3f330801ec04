package textutil

import (
	"slices"
	"strings"
)

// TokenSetRatio scores how well the tokens of a match the tokens of b,
// ignoring duplicates and word order. The score is on a 0-1 scale: the
// shared-token core is compared against each side's remainder and the best
// edit-distance ratio of the three pairings wins. A query whose tokens all
// appear in b scores 1.0 regardless of extra tokens in b.
func TokenSetRatio(a, b string) float64 {
	tokensA := uniqueSorted(Tokenize(a))
	tokensB := uniqueSorted(Tokenize(b))
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	var shared, restA, restB []string
	i, j := 0, 0
	for i < len(tokensA) && j < len(tokensB) {
		switch {
		case tokensA[i] == tokensB[j]:
			shared = append(shared, tokensA[i])
			i++
			j++
		case tokensA[i] < tokensB[j]:
			restA = append(restA, tokensA[i])
			i++
		default:
			restB = append(restB, tokensB[j])
			j++
		}
	}
	restA = append(restA, tokensA[i:]...)
	restB = append(restB, tokensB[j:]...)

	core := strings.Join(shared, " ")
	combinedA := joinNonEmpty(core, strings.Join(restA, " "))
	combinedB := joinNonEmpty(core, strings.Join(restB, " "))

	best := editRatio(combinedA, combinedB)
	if len(shared) > 0 {
		if r := editRatio(core, combinedA); r > best {
			best = r
		}
		if r := editRatio(core, combinedB); r > best {
			best = r
		}
	}
	return best
}

// editRatio is the normalized Levenshtein similarity between two strings:
// 1 - distance/maxLen, on a 0-1 scale.
func editRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(maxLen)
}

// levenshtein computes the edit distance between two strings using a
// two-row dynamic programming table.
func levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func uniqueSorted(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	slices.Sort(tokens)
	return slices.Compact(tokens)
}

func joinNonEmpty(parts ...string) string {
	out := parts[:0]
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	return strings.Join(out, " ")
}
