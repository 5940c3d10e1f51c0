// Package answer builds grounding prompts from retrieved context and obtains
// generated answers from a language model, degrading to fixed fallback text
// when no context exists or the model call fails.
package answer

import (
	"fmt"
	"strings"

	"github.com/calyptra/docqa/internal/domain"
)

// Fallback answers. Both are deterministic so callers and tests can rely on
// exact text; every terminal path returns a structurally identical answer.
const (
	// NoContextText is returned when retrieval finds nothing to ground on.
	NoContextText = "I couldn't find relevant information in the indexed documents to answer your question."

	// ApologyText replaces the model output on any generation failure.
	ApologyText = "I apologize, but I was unable to generate an answer due to a temporary problem. Please try again."
)

// BuildPrompt assembles the grounding prompt: each context item labeled with
// its source document and page, then the question, then instructions that pin
// the model to the provided context.
func BuildPrompt(question string, items []domain.ContextItem) string {
	var ctx strings.Builder
	for i, item := range items {
		if i > 0 {
			ctx.WriteString("\n\n")
		}
		fmt.Fprintf(&ctx, "Document: %s (Page %d, Chunk %d)\n", item.DocName, item.PageNum, item.ChunkIndex)
		fmt.Fprintf(&ctx, "Relevance Score: %.3f\n", item.Score)
		fmt.Fprintf(&ctx, "Content: %s", item.Text)
	}

	return fmt.Sprintf(`Based on the following context from indexed PDF documents, provide a concise and accurate answer to the question.

Context:
%s

Question: %s

Instructions:
1. Answer the question based only on the provided context
2. Be concise and technical
3. If the context doesn't contain enough information, say so
4. Include relevant technical details and specifications
5. Cite the source documents when possible

Answer:`, ctx.String(), question)
}
