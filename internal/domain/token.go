package domain

import "strings"

// EstimateTokens approximates a byte-pair tokenizer count for text. Without a
// tokenizer for the deployed model this is the deterministic word-count
// fallback; it is an approximation, not an exact external-tokenizer count.
func EstimateTokens(text string) int {
	return len(strings.Fields(text))
}
