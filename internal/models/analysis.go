package models

// QueryType classifies the intent of a user query.
type QueryType string

const (
	QueryTypeGeneral       QueryType = "general"
	QueryTypeProcedure     QueryType = "procedure"
	QueryTypeDefinition    QueryType = "definition"
	QueryTypeSpecification QueryType = "specification"
)

// QueryAnalysis holds the structured signals extracted from a free-text
// query. Derived purely from pattern matching, recomputed per query,
// never persisted.
type QueryAnalysis struct {
	QueryType    QueryType `json:"query_type"`
	Mission      string    `json:"mission,omitempty"`
	Missions     []string  `json:"missions,omitempty"`
	DocumentType string    `json:"document_type,omitempty"`
	Instruments  []string  `json:"instruments,omitempty"`
	Products     []string  `json:"products,omitempty"`
}

// HasSignals reports whether the analysis found anything beyond the
// fallback query type.
func (a *QueryAnalysis) HasSignals() bool {
	return a.Mission != "" || a.DocumentType != "" ||
		len(a.Instruments) > 0 || len(a.Products) > 0 ||
		a.QueryType != QueryTypeGeneral
}
