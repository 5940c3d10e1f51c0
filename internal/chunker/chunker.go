// Package chunker splits extracted page text into overlapping fixed-size word
// windows, producing the addressable retrieval units of the index.
package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/calyptra/docqa/internal/domain"
)

// minChunkChars drops near-empty tail fragments: windows whose joined text is
// shorter than this never become retrievable units.
const minChunkChars = 50

var (
	whitespaceRuns = regexp.MustCompile(`\s+`)
	// Allow letters and digits in any script, whitespace, and the
	// punctuation/symbol set that technical manuals actually use; everything
	// else is stripped. Unicode classes, not \w: that shorthand is ASCII-only
	// here and would strip accented and non-Latin text.
	disallowedChars = regexp.MustCompile(`[^\p{L}\p{N}_\s\-.,;:!?()\[\]{}+=*&^%$#@]`)
)

// Chunker produces overlapping word-window chunks. Windows are chunkSize words
// wide and advance by chunkSize−chunkOverlap words per step.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// New validates the window geometry. An overlap >= size would produce a zero
// or negative stride and is rejected.
func New(chunkSize, chunkOverlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidConfig, chunkSize)
	}
	if chunkOverlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must be non-negative, got %d", domain.ErrInvalidConfig, chunkOverlap)
	}
	if chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d",
			domain.ErrInvalidConfig, chunkOverlap, chunkSize)
	}
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}, nil
}

// Clean normalizes raw extracted text: whitespace runs collapse to single
// spaces, newlines become spaces, and characters outside the allow-list are
// removed.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\r", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	text = disallowedChars.ReplaceAllString(text, "")
	text = whitespaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Split cleans text and cuts it into chunks stamped with provenance, word
// count, and an approximate token count.
func (c *Chunker) Split(text, docName string, pageNum int) []domain.Chunk {
	cleaned := Clean(text)
	if cleaned == "" {
		return nil
	}

	words := strings.Fields(cleaned)

	if len(words) <= c.chunkSize {
		return []domain.Chunk{c.newChunk(cleaned, docName, pageNum, 0, len(words))}
	}

	stride := c.chunkSize - c.chunkOverlap
	var chunks []domain.Chunk
	chunkIndex := 0

	for i := 0; i < len(words); i += stride {
		end := i + c.chunkSize
		covered := end >= len(words)
		if end > len(words) {
			end = len(words)
		}

		chunkText := strings.Join(words[i:end], " ")
		if len(strings.TrimSpace(chunkText)) < minChunkChars {
			continue
		}

		chunks = append(chunks, c.newChunk(chunkText, docName, pageNum, chunkIndex, end-i))
		chunkIndex++

		// The window reached the end of the word sequence; later windows
		// would only repeat overlap words.
		if covered {
			break
		}
	}

	return chunks
}

func (c *Chunker) newChunk(text, docName string, pageNum, chunkIndex, wordCount int) domain.Chunk {
	return domain.Chunk{
		ID:          domain.ChunkID(docName, pageNum, chunkIndex),
		Text:        text,
		DocName:     docName,
		PageNum:     pageNum,
		ChunkIndex:  chunkIndex,
		WordCount:   wordCount,
		TokenCount:  domain.EstimateTokens(text),
		ContentType: domain.ContentTypeText,
	}
}
