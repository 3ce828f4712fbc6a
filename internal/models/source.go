package models

// SourceHeading is one section heading contributing to a source document,
// with the deep link to that section.
type SourceHeading struct {
	Heading string `json:"heading"`
	URL     string `json:"url,omitempty"`
}

// Source is the response-facing citation for one distinct document.
// Chunks are grouped by canonical document name; the group keeps the best
// score seen across its chunks (as a percentage) and the union of every
// unique heading encountered.
type Source struct {
	Document string          `json:"document"`
	Score    float64         `json:"score"`
	URL      string          `json:"url,omitempty"`
	Headings []SourceHeading `json:"headings,omitempty"`
	Preview  string          `json:"preview,omitempty"`
}
