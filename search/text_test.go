package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizeAndFilter(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"stop words removed", "the skills for a data engineer", []string{"data", "engineer"}},
		{"punctuation trimmed", "Python, (Kafka)!", []string{"python", "kafka"}},
		{"empty", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenizeAndFilter(tt.text))
		})
	}
}

func TestKeywordsFromQuery(t *testing.T) {
	assert.Equal(t, []string{"go", "kubernetes"}, keywordsFromQuery("Go and Kubernetes and go"))
	assert.Empty(t, keywordsFromQuery("the and of"))
}

func TestCountKeywordMatches(t *testing.T) {
	text := "Experience with PostgreSQL and Kafka required"
	assert.Equal(t, 2, countKeywordMatches(text, []string{"postgresql", "KAFKA", "redis"}))
	assert.Equal(t, 0, countKeywordMatches(text, []string{"", "  "}))
	assert.Equal(t, 0, countKeywordMatches(text, nil))
}
