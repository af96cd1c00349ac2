package splitter

import (
	"context"
	"strings"
)

const (
	defaultChunkSize    = 800
	defaultChunkOverlap = 150
)

// Character splits text into fixed-size windows with overlap. When a
// Separator is set, each window is cut back to the last separator occurrence
// so chunks tend to end on natural boundaries.
type Character struct {
	Size      int
	Overlap   int
	Separator string
}

func NewCharacter(size, overlap int) *Character {
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = defaultChunkOverlap
		if overlap >= size {
			overlap = size / 4
		}
	}
	return &Character{Size: size, Overlap: overlap, Separator: "\n\n"}
}

func (c *Character) Split(_ context.Context, text string) ([]string, error) {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil, nil
	}

	var chunks []string
	start := 0
	for start < n {
		end := min(start+c.Size, n)

		// Prefer cutting at the separator, but never give up more than half
		// the window for it.
		if end < n && c.Separator != "" {
			window := string(runes[start:end])
			if cut := strings.LastIndex(window, c.Separator); cut > len(window)/2 {
				end = start + len([]rune(window[:cut]))
			}
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end == n {
			break
		}
		next := end - c.Overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks, nil
}
