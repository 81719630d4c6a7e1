package indexer

import "strings"

// Chunker splits text into overlapping passages of whole words.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker returns a chunker producing passages of size words, each
// repeating the last overlap words of the previous one.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 512
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &Chunker{size: size, overlap: overlap}
}

// Chunk returns the passages of text with whitespace collapsed. Blank text
// has no passages.
func (c *Chunker) Chunk(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	step := c.size - c.overlap
	var passages []string
	for start := 0; ; start += step {
		end := min(start+c.size, len(words))
		passages = append(passages, strings.Join(words[start:end], " "))
		if end == len(words) {
			return passages
		}
	}
}
