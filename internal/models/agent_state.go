package models

// Route is the router's classification of a query.
type Route string

const (
	// RouteRAG routes the query through retrieval before answering.
	RouteRAG Route = "RAG"
	// RouteDirect answers from the model's own knowledge without retrieval.
	RouteDirect Route = "DIRECT"
)

// GradeScore is the binary relevance verdict over a retrieved set.
type GradeScore string

const (
	GradeYes GradeScore = "yes"
	GradeNo  GradeScore = "no"
)

// AgentState is the router's working memory for one user turn. Created
// fresh per incoming query, discarded when the turn completes, never
// shared across concurrent requests.
//
// RewriteAttempted flips false to true at most once per turn; the state
// machine never enters the rewrite node a second time.
type AgentState struct {
	Query            string                 `json:"query"`
	Route            Route                  `json:"route,omitempty"`
	SubQueries       []string               `json:"sub_queries,omitempty"`
	RetrievedDocs    []Chunk                `json:"retrieved_docs,omitempty"`
	RewrittenQuery   string                 `json:"rewritten_query,omitempty"`
	RewriteAttempted bool                   `json:"rewrite_attempted"`
	GradeScore       GradeScore             `json:"grade_score,omitempty"`
	RelevanceAvg     float64                `json:"relevance_avg_score"`
	RelevanceTop     float64                `json:"relevance_top_score"`
	RelevanceTop5Avg float64                `json:"relevance_top_5_avg"`
	Answer           string                 `json:"answer,omitempty"`
	Sources          []Source               `json:"sources,omitempty"`
	Context          string                 `json:"context,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// NewAgentState creates the initial state for one turn.
func NewAgentState(query string) *AgentState {
	return &AgentState{
		Query:    query,
		Metadata: make(map[string]interface{}),
	}
}

// AgentResult is the caller-facing outcome of one router turn.
type AgentResult struct {
	Answer   string                 `json:"answer"`
	Sources  []Source               `json:"sources"`
	Route    Route                  `json:"route"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
