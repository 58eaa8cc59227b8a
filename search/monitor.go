package search

import "github.com/poiesic/passagedb/core"

// RetrievalMonitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps and results during retrieval.
type RetrievalMonitor interface {
	Start(query string)
	AfterLexicalQuery(passageIDs []string)
	AfterVectorQuery(passageIDs []string)
	AfterFusion(hits []*core.RankedHit)
	Finish(hits []*core.RankedHit)
}

// noopMonitor is a no-op implementation of RetrievalMonitor
type noopMonitor struct{}

var _ RetrievalMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                  {}
func (n *noopMonitor) AfterLexicalQuery(_ []string)    {}
func (n *noopMonitor) AfterVectorQuery(_ []string)     {}
func (n *noopMonitor) AfterFusion(_ []*core.RankedHit) {}
func (n *noopMonitor) Finish(_ []*core.RankedHit)      {}
