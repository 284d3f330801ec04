package textutil

import (
	"regexp"
	"strings"
)

// tokenSplitPattern matches non-alphanumeric character sequences for tokenization.
var tokenSplitPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Fingerprint holds the term frequencies of a piece of text for
// keyword scoring.
type Fingerprint struct {
	tokens map[string]float64
	total  float64
}

// NewFingerprint creates a fingerprint from the provided text.
// Returns nil if the text produces no valid tokens.
func NewFingerprint(text string) *Fingerprint {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	return &Fingerprint{
		tokens: counts,
		total:  float64(len(tokens)),
	}
}

// Tokenize splits text into lowercase tokens, filtering short tokens.
func Tokenize(text string) []string {
	lowered := strings.ToLower(text)
	raw := tokenSplitPattern.Split(lowered, -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		token = strings.TrimSpace(token)
		if len(token) < 3 {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// TotalTokens returns the total token count of the source text, counting
// repeats. Used as the length normalizer for term-frequency scoring.
func (f *Fingerprint) TotalTokens() float64 {
	if f == nil {
		return 0
	}
	return f.total
}

// Count returns the occurrence count of token in the fingerprint.
func (f *Fingerprint) Count(token string) float64 {
	if f == nil {
		return 0
	}
	return f.tokens[token]
}
