package chunker

import (
	"fmt"
	"iter"
	"strings"
	"unicode/utf8"
)

const (
	DefaultSize    = 512
	DefaultOverlap = 100
)

// boundaries are the soft cut points, matched anywhere in a window.
var boundaries = []string{". ", "! ", "? ", "\n\n"}

// Chunker holds a validated size/overlap pair.
type Chunker struct {
	size    int
	overlap int
}

// New returns a Chunker or an error when the configuration could not make progress.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: size=%d overlap=%d", ErrInvalidOverlap, size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Default returns a Chunker using DefaultSize and DefaultOverlap.
func Default() *Chunker {
	return &Chunker{size: DefaultSize, overlap: DefaultOverlap}
}

func (c *Chunker) Size() int    { return c.size }
func (c *Chunker) Overlap() int { return c.overlap }

// Segments lazily yields trimmed, non-empty chunks of text in order.
//
// Text no longer than the chunk size yields a single chunk. Otherwise each window
// of Size runes is cut at the last boundary that falls after the window midpoint,
// or at the window end when none does, and the next window starts Overlap runes
// before the cut. A window always advances by at least one rune.
func (c *Chunker) Segments(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if utf8.RuneCountInString(text) <= c.size {
			if s := strings.TrimSpace(text); s != "" {
				yield(s)
			}
			return
		}

		runes := []rune(text)
		start := 0
		for start < len(runes) {
			end := start + c.size
			if end >= len(runes) {
				end = len(runes)
			} else if cut, ok := c.softCut(runes, start, end); ok {
				end = cut
			}

			if s := strings.TrimSpace(string(runes[start:end])); s != "" {
				if !yield(s) {
					return
				}
			}
			if end == len(runes) {
				return
			}

			next := end - c.overlap
			if next <= start {
				next = end
			}
			start = next
		}
	}
}

// softCut finds the nearest boundary ending in (start+size/2, end] and returns
// the rune offset just past it.
func (c *Chunker) softCut(runes []rune, start, end int) (int, bool) {
	window := string(runes[start:end])
	best := -1
	for _, b := range boundaries {
		idx := strings.LastIndex(window, b)
		if idx < 0 {
			continue
		}
		// Convert byte offset to rune offset within the window.
		pos := utf8.RuneCountInString(window[:idx])
		if pos > c.size/2 {
			if cut := pos + utf8.RuneCountInString(b); cut > best {
				best = cut
			}
		}
	}
	if best < 0 {
		return 0, false
	}
	return start + best, true
}

// Split collects Segments into a slice.
func (c *Chunker) Split(text string) []string {
	var out []string
	for s := range c.Segments(text) {
		out = append(out, s)
	}
	return out
}

// Chunk splits text with a one-off configuration.
func Chunk(text string, size, overlap int) ([]string, error) {
	c, err := New(size, overlap)
	if err != nil {
		return nil, err
	}
	return c.Split(text), nil
}
