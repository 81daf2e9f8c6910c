package search

import "github.com/poiesic/colloquy/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterEmbedding(dimension int)
	AfterScan(candidates int)
	Finish(results []core.ScoredResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)               {}
func (n *noopMonitor) AfterEmbedding(_ int)         {}
func (n *noopMonitor) AfterScan(_ int)              {}
func (n *noopMonitor) Finish(_ []core.ScoredResult) {}
