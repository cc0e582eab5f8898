package model

// KnowledgeKind tags a knowledge base entry by its corpus section
type KnowledgeKind string

const (
	KnowledgePolicy  KnowledgeKind = "policy"
	KnowledgeService KnowledgeKind = "service"
	KnowledgeMarket  KnowledgeKind = "market"
	KnowledgeFAQ     KnowledgeKind = "faq"
)

// KnowledgeEntry is one static corpus record, immutable for process lifetime
type KnowledgeEntry struct {
	Kind    KnowledgeKind `json:"kind"`
	Title   string        `json:"title"`
	Content string        `json:"content"`
	Tags    []string      `json:"tags,omitempty"`
}

// RankedEntry is a knowledge entry with its keyword-overlap score
type RankedEntry struct {
	Entry KnowledgeEntry `json:"entry"`
	Score int            `json:"score"`
}
