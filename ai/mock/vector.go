package mock

import (
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/poiesic/skillscope/core"
)

// DefaultDimension matches the default configured embedding dimension.
const DefaultDimension = 384

// HashVector returns a deterministic unit vector for text. Each lowercase word
// contributes a fixed pseudo-random direction, so shared vocabulary raises
// cosine similarity. Text without words yields a zero vector.
func HashVector(text string, dim int) []float32 {
	vector := make([]float32, dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(w))
		seed := h.Sum32()
		for i := range vector {
			seed = seed*1664525 + 1013904223 // LCG constants
			vector[i] += float32(seed%1000)/1000.0 - 0.5
		}
	}
	return core.NormalizeVector(vector)
}
