package pipeline

import "strings"

// Chunk is one transcript segment. Sequence is 0-based and dense;
// concatenating chunks in ascending sequence order reproduces the
// transcript, modulo the configured overlap duplication.
type Chunk struct {
	Sequence int
	Text     string
}

// Chunker splits text into overlapping word-bounded segments. Size and
// overlap are counted in words; overlap must be smaller than size.
type Chunker struct {
	size    int
	overlap int
}

func NewChunker(size, overlap int) *Chunker {
	if size < 1 {
		size = 1
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &Chunker{size: size, overlap: overlap}
}

func (c *Chunker) Split(text string) []Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := c.size - c.overlap
	var out []Chunk
	for start := 0; ; start += step {
		end := start + c.size
		if end > len(words) {
			end = len(words)
		}
		out = append(out, Chunk{
			Sequence: len(out),
			Text:     strings.Join(words[start:end], " "),
		})
		if end == len(words) {
			break
		}
	}
	return out
}
