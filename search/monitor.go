package search

import "github.com/poiesic/skillscope/core"

// Monitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps and results.
type Monitor interface {
	Start(query string)
	AfterEmbedding(vector []float32)
	AfterSimilaritySearch(hits []*core.Evidence)
	KeywordBoost(hit *core.Evidence, matched int)
	Finish(results []*core.Evidence)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                           {}
func (n *noopMonitor) AfterEmbedding(_ []float32)               {}
func (n *noopMonitor) AfterSimilaritySearch(_ []*core.Evidence) {}
func (n *noopMonitor) KeywordBoost(_ *core.Evidence, _ int)     {}
func (n *noopMonitor) Finish(_ []*core.Evidence)                {}
