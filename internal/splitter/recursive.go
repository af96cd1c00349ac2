package splitter

import (
	"context"
	"strings"
)

// DefaultSeparators is ordered from strongest structural boundary to weakest:
// markdown headings, paragraphs, lines, sentences, words.
var DefaultSeparators = []string{"\n## ", "\n### ", "\n\n", "\n", ". ", " "}

// Recursive splits on an ordered separator list, descending to weaker
// separators only for pieces still larger than Size, then merges adjacent
// pieces back together up to Size with Overlap carried between chunks.
type Recursive struct {
	Size       int
	Overlap    int
	Separators []string
}

func NewRecursive(size, overlap int) *Recursive {
	if size <= 0 {
		size = 500
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 10
	}
	return &Recursive{Size: size, Overlap: overlap, Separators: DefaultSeparators}
}

func (r *Recursive) Split(_ context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	pieces := r.divide(text, r.Separators)
	return r.merge(pieces), nil
}

// divide recursively breaks text into pieces no larger than Size.
func (r *Recursive) divide(text string, seps []string) []string {
	if runeLen(text) <= r.Size {
		return []string{text}
	}
	if len(seps) == 0 {
		return hardCut(text, r.Size)
	}

	sep := seps[0]
	if !strings.Contains(text, sep) {
		return r.divide(text, seps[1:])
	}

	var out []string
	for _, part := range splitKeepSep(text, sep) {
		if runeLen(part) <= r.Size {
			out = append(out, part)
		} else {
			out = append(out, r.divide(part, seps[1:])...)
		}
	}
	return out
}

// merge greedily joins pieces into chunks of at most Size runes, seeding each
// new chunk with the trailing pieces of the previous one for overlap.
func (r *Recursive) merge(pieces []string) []string {
	var chunks []string
	var buf []string
	bufLen := 0

	flush := func() {
		chunk := strings.TrimSpace(strings.Join(buf, ""))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, p := range pieces {
		pl := runeLen(p)
		if bufLen+pl > r.Size && bufLen > 0 {
			flush()
			// Keep a tail of the buffer as overlap for the next chunk.
			for bufLen > r.Overlap && len(buf) > 0 {
				bufLen -= runeLen(buf[0])
				buf = buf[1:]
			}
		}
		buf = append(buf, p)
		bufLen += pl
	}
	flush()
	return chunks
}

// splitKeepSep splits text on sep without losing it: newline-led separators
// (headings, paragraphs) stay attached to the following piece, others stay
// attached to the preceding one so sentences keep their terminators.
func splitKeepSep(text, sep string) []string {
	parts := strings.Split(text, sep)
	out := make([]string, 0, len(parts))
	leading := strings.HasPrefix(sep, "\n")
	for i, p := range parts {
		if leading && i > 0 {
			p = sep + p
		} else if !leading && i < len(parts)-1 {
			p += sep
		}
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func hardCut(text string, size int) []string {
	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		out = append(out, string(runes[start:end]))
	}
	return out
}

func runeLen(s string) int {
	return len([]rune(s))
}
