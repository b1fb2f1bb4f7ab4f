package mode

// Mode is the search strategy.
type Mode string

// Search mode constants.
const (
	// Hybrid combines semantic and keyword retrieval into one ranked list.
	Hybrid   Mode = "hybrid"
	Semantic Mode = "semantic"
	Keyword  Mode = "keyword"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Hybrid || m == Semantic || m == Keyword
}

// NeedsSemantic reports whether the mode requires the semantic retriever.
func (m Mode) NeedsSemantic() bool { return m == Hybrid || m == Semantic }

// NeedsKeyword reports whether the mode requires the keyword retriever.
func (m Mode) NeedsKeyword() bool { return m == Hybrid || m == Keyword }
