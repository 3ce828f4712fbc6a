package models

import "strings"

// Chunk is the unit of retrieval: one indexed section of a source document
// together with its relevance score for the current query.
//
// Score is only comparable between chunks returned by the same retrieval
// call. Its scale changes as the chunk moves through the pipeline: raw
// index similarity, hybrid-blended, boosted, or reranker-normalized.
// QdrantScore and RerankScore preserve the earlier-stage values when a
// later stage replaces Score.
type Chunk struct {
	ID                 string                 `json:"id"`
	Text               string                 `json:"text"`
	ContextualizedText string                 `json:"contextualized_text,omitempty"`
	Title              string                 `json:"title"`
	URL                string                 `json:"url,omitempty"`
	Heading            string                 `json:"heading,omitempty"`
	Score              float64                `json:"score"`
	QdrantScore        float64                `json:"qdrant_score,omitempty"`
	RerankScore        float64                `json:"rerank_score,omitempty"`
	BoostFactor        float64                `json:"boost_factor,omitempty"`
	BoostReasons       []string               `json:"boost_reasons,omitempty"`
	Metadata           map[string]interface{} `json:"metadata,omitempty"`
}

// MetaString returns a string metadata field, or "" when absent or not a string.
func (c *Chunk) MetaString(key string) string {
	if c.Metadata == nil {
		return ""
	}
	if v, ok := c.Metadata[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// MetaInt returns an integer metadata field, tolerating the float64 values
// that arrive from JSON decoding. Returns 0 when absent.
func (c *Chunk) MetaInt(key string) int {
	if c.Metadata == nil {
		return 0
	}
	switch v := c.Metadata[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// WordCount returns the word_count metadata field when present, otherwise
// counts whitespace-separated words in the chunk text.
func (c *Chunk) WordCount() int {
	if wc := c.MetaInt("word_count"); wc > 0 {
		return wc
	}
	return len(strings.Fields(c.Text))
}

// Mission returns the normalized mission code tagged on this chunk, or "".
func (c *Chunk) Mission() string {
	return c.MetaString("mission")
}

// DocumentType returns the document_type metadata field, or "".
func (c *Chunk) DocumentType() string {
	return c.MetaString("document_type")
}
