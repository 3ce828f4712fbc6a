package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/responsa/internal/common"
	"github.com/ternarybob/responsa/internal/interfaces"
	"github.com/ternarybob/responsa/internal/models"
)

const (
	decomposeMaxTokens = 300
	rewriteMaxTokens   = 200
)

// RouterGraph is the per-query state machine: route, then either answer
// directly or run the retrieval path of decompose, retrieve, grade, at
// most one rewrite, and answer generation. Every node degrades on error
// rather than failing the turn; a query always produces an answer.
type RouterGraph struct {
	cfg        *common.Config
	retriever  interfaces.Retriever
	routerLLM  interfaces.LLMService
	ragLLM     interfaces.LLMService
	directLLM  interfaces.LLMService
	events     interfaces.EventPublisher
	collection string
	logger     arbor.ILogger
}

// NewRouterGraph wires the state machine. Each role's service arrives
// already bound to its model and token budget. The events publisher may
// be nil when no subscribers exist.
func NewRouterGraph(cfg *common.Config, retriever interfaces.Retriever, routerLLM, ragLLM, directLLM interfaces.LLMService, events interfaces.EventPublisher, collection string, logger arbor.ILogger) *RouterGraph {
	return &RouterGraph{
		cfg:        cfg,
		retriever:  retriever,
		routerLLM:  routerLLM,
		ragLLM:     ragLLM,
		directLLM:  directLLM,
		events:     events,
		collection: collection,
		logger:     logger,
	}
}

// Invoke runs one query through the graph and returns the final state.
// The retriever is never touched before the router commits to the RAG
// path, and the rewrite node runs at most once per turn.
func (g *RouterGraph) Invoke(ctx context.Context, query string) (*models.AgentState, error) {
	state := models.NewAgentState(query)

	g.routeQuery(ctx, state)
	g.publish("router", query, map[string]interface{}{"route": string(state.Route)})

	if state.Route == models.RouteDirect {
		g.directAnswer(ctx, state)
		g.publish("direct", query, nil)
		return state, ctx.Err()
	}

	g.decompose(ctx, state)
	g.publish("decompose", query, map[string]interface{}{"sub_queries": state.SubQueries})

	g.retrieve(ctx, state)
	g.publish("retrieve", query, map[string]interface{}{"num_docs": len(state.RetrievedDocs)})

	g.grade(state)
	g.publish("grade", query, map[string]interface{}{
		"grade_score": string(state.GradeScore),
		"top_5_avg":   state.RelevanceTop5Avg,
	})

	if state.GradeScore == models.GradeNo && !state.RewriteAttempted {
		g.rewrite(ctx, state)
		g.publish("rewrite", query, map[string]interface{}{"rewritten_query": state.RewrittenQuery})

		g.retrieve(ctx, state)
		g.publish("retrieve", query, map[string]interface{}{"num_docs": len(state.RetrievedDocs)})

		g.grade(state)
		g.publish("grade", query, map[string]interface{}{
			"grade_score": string(state.GradeScore),
			"top_5_avg":   state.RelevanceTop5Avg,
		})
		if state.GradeScore == models.GradeNo {
			g.logger.Warn().Str("query", truncate(query, 100)).Msg("Documents still not relevant after rewrite, generating answer anyway")
		}
	}

	g.generateAnswer(ctx, state)
	g.publish("generate", query, map[string]interface{}{"num_docs": len(state.RetrievedDocs)})

	return state, ctx.Err()
}

// routeQuery decides RAG or DIRECT. With no router prompt configured the
// decision is keyword-based; otherwise the router model is asked for a
// one-word verdict. Anything other than a clean verdict routes to RAG,
// the safe side for a documentation assistant.
func (g *RouterGraph) routeQuery(ctx context.Context, state *models.AgentState) {
	if g.cfg.Agent.RouterPrompt == "" {
		lower := strings.ToLower(state.Query)
		state.Route = models.RouteDirect
		for _, kw := range sentinelKeywords {
			if strings.Contains(lower, kw) {
				state.Route = models.RouteRAG
				break
			}
		}
		g.logger.Info().
			Str("route", string(state.Route)).
			Str("query", truncate(state.Query, 100)).
			Msg("Keyword routing decision")
		return
	}

	messages := []interfaces.Message{
		{Role: "system", Content: g.cfg.Agent.RouterPrompt},
		{Role: "user", Content: fmt.Sprintf("Query: %s\n\nRespond with ONLY one word: RAG or DIRECT", state.Query)},
	}

	result, err := g.routerLLM.Chat(ctx, messages, nil)
	if err != nil {
		g.logger.Error().Err(err).Msg("Routing failed, defaulting to RAG")
		state.Route = models.RouteRAG
		return
	}

	route := strings.ToUpper(strings.TrimSpace(result.Text))
	if route != string(models.RouteRAG) && route != string(models.RouteDirect) {
		g.logger.Warn().Str("response", route).Msg("Invalid route response, defaulting to RAG")
		state.Route = models.RouteRAG
		return
	}

	state.Route = models.Route(route)
	g.logger.Info().
		Str("route", route).
		Int("prompt_tokens", result.Usage.PromptTokens).
		Int("completion_tokens", result.Usage.CompletionTokens).
		Msg("Router decision")
}

// decompose splits a complex query into independent sub-queries. Simple
// queries pass through as a single-item list, which keeps the rest of the
// graph uniform. Any failure falls back to the original query.
func (g *RouterGraph) decompose(ctx context.Context, state *models.AgentState) {
	prompt := g.cfg.Agent.DecompositionPrompt
	if prompt == "" {
		prompt = defaultDecompositionPrompt
	}

	messages := []interfaces.Message{
		{Role: "user", Content: fmt.Sprintf(prompt, state.Query)},
	}

	result, err := g.ragLLM.Chat(ctx, messages, &interfaces.ChatOptions{MaxTokens: decomposeMaxTokens})
	if err != nil {
		g.logger.Warn().Err(err).Msg("Decomposition failed, using original query")
		state.SubQueries = []string{state.Query}
		return
	}

	state.SubQueries = ParseSubQueries(strings.TrimSpace(result.Text), state.Query)
	if len(state.SubQueries) == 1 && state.SubQueries[0] == state.Query {
		g.logger.Debug().Msg("Query is simple, no decomposition needed")
	} else {
		g.logger.Info().
			Int("sub_queries", len(state.SubQueries)).
			Msg("Query decomposed")
	}
}

// retrieve fetches documents for the active query set. After a rewrite
// the rewritten query replaces the sub-queries entirely; before one, each
// sub-query is retrieved independently and the merged set deduplicated.
// A failed retrieval contributes nothing rather than aborting the turn.
func (g *RouterGraph) retrieve(ctx context.Context, state *models.AgentState) {
	var queries []string
	switch {
	case state.RewriteAttempted && state.RewrittenQuery != "":
		queries = []string{state.RewrittenQuery}
	case len(state.SubQueries) > 0:
		queries = state.SubQueries
	default:
		queries = []string{state.Query}
	}

	opts := interfaces.RetrieveOptions{
		UseReranking: interfaces.Bool(true),
		UseHybrid:    interfaces.Bool(true),
	}

	var all []models.Chunk
	for i, q := range queries {
		docs, err := g.retriever.Retrieve(ctx, q, opts)
		if err != nil {
			g.logger.Error().
				Err(err).
				Int("sub_query", i+1).
				Str("query", truncate(q, 100)).
				Msg("Retrieval failed for query")
			continue
		}
		all = append(all, docs...)
	}

	state.RetrievedDocs = DeduplicateDocs(all)
	g.logger.Info().
		Int("unique_docs", len(state.RetrievedDocs)).
		Int("total_docs", len(all)).
		Int("queries", len(queries)).
		Msg("Retrieval complete")
}

// grade stores the relevance verdict and stats on the state.
func (g *RouterGraph) grade(state *models.AgentState) {
	score, stats := GradeDocuments(state.RetrievedDocs, g.cfg.Agent.RelevanceThreshold)
	state.GradeScore = score
	state.RelevanceAvg = stats.Avg
	state.RelevanceTop = stats.Top
	state.RelevanceTop5Avg = stats.Top5Avg

	g.logger.Info().
		Str("grade", string(score)).
		Float64("top_5_avg", stats.Top5Avg).
		Float64("top_score", stats.Top).
		Float64("avg_score", stats.Avg).
		Float64("threshold", g.cfg.Agent.RelevanceThreshold).
		Msg("Document relevance graded")
}

// rewrite reformulates the query using what the low-scoring retrieval
// revealed about the knowledge base. RewriteAttempted is set regardless
// of outcome so the graph cannot loop.
func (g *RouterGraph) rewrite(ctx context.Context, state *models.AgentState) {
	state.RewriteAttempted = true

	prompt := g.cfg.Agent.RewritePrompt
	if prompt == "" {
		prompt = defaultRewritePrompt
	}

	stats := RelevanceStats{
		Avg:     state.RelevanceAvg,
		Top:     state.RelevanceTop,
		Top5Avg: state.RelevanceTop5Avg,
	}
	docsContext := buildRewriteContext(state.RetrievedDocs, stats, g.cfg.Agent.RelevanceThreshold)

	messages := []interfaces.Message{
		{Role: "user", Content: fmt.Sprintf(prompt, state.Query, docsContext)},
	}

	result, err := g.ragLLM.Chat(ctx, messages, &interfaces.ChatOptions{MaxTokens: rewriteMaxTokens})
	if err != nil {
		g.logger.Error().Err(err).Msg("Rewrite failed, keeping original query")
		state.RewrittenQuery = state.Query
		return
	}

	state.RewrittenQuery = CleanRewrittenQuery(result.Text, state.Query)
	g.logger.Info().
		Str("rewritten_query", truncate(state.RewrittenQuery, 100)).
		Msg("Query rewritten")
}

// generateAnswer produces the final RAG answer. With zero documents the
// fixed no-context answer is returned without a completion call.
func (g *RouterGraph) generateAnswer(ctx context.Context, state *models.AgentState) {
	docs := state.RetrievedDocs
	g.fillRAGMetadata(state)

	if len(docs) == 0 {
		g.logger.Warn().Msg("No documents available, returning no-context answer")
		state.Answer = noContextAnswer
		state.Sources = []models.Source{}
		state.Context = ""
		return
	}

	query := queryForAnswer(state.Query, state.RewrittenQuery)
	contextBlock := BuildContext(docs)
	missions := MissionsInDocs(docs)
	systemPrompt := BuildRAGSystemPrompt(contextBlock, missions)

	messages := []interfaces.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: query},
	}

	g.logger.Info().
		Int("docs", len(docs)).
		Int("context_chars", len(contextBlock)).
		Int("missions", len(missions)).
		Str("query", truncate(query, 100)).
		Msg("Generating answer")

	result, err := g.ragLLM.Chat(ctx, messages, nil)
	if err != nil {
		g.logger.Error().Err(err).Msg("Answer generation failed")
		state.Answer = fmt.Sprintf("I encountered an error while generating the answer: %v", err)
		state.Sources = []models.Source{}
		state.Context = ""
		return
	}

	state.Answer = result.Text
	state.Sources = FormatSources(docs, g.cfg.Agent.MinRelevancePercentage)
	state.Context = truncate(contextBlock, 1000)

	g.logger.Info().
		Int("prompt_tokens", result.Usage.PromptTokens).
		Int("completion_tokens", result.Usage.CompletionTokens).
		Int("sources", len(state.Sources)).
		Msg("Answer generated")
}

// directAnswer answers from model knowledge alone. No retrieval happens
// on this path.
func (g *RouterGraph) directAnswer(ctx context.Context, state *models.AgentState) {
	systemPrompt := g.cfg.Agent.DirectSystemPrompt
	if systemPrompt == "" {
		systemPrompt = defaultDirectSystemPrompt
	}

	messages := []interfaces.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: state.Query},
	}

	result, err := g.directLLM.Chat(ctx, messages, nil)
	if err != nil {
		g.logger.Error().Err(err).Msg("Direct answer generation failed")
		state.Answer = fmt.Sprintf("I encountered an error: %v", err)
	} else {
		state.Answer = result.Text
	}

	state.Sources = []models.Source{}
	state.Context = ""
	state.Metadata["mode"] = "direct"
}

// fillRAGMetadata records the turn's routing and grading trail for the
// response payload and the query history store.
func (g *RouterGraph) fillRAGMetadata(state *models.AgentState) {
	state.Metadata["mode"] = "rag"
	state.Metadata["num_docs"] = len(state.RetrievedDocs)
	state.Metadata["collection"] = g.collection
	state.Metadata["rewrite_attempted"] = state.RewriteAttempted
	if state.RewrittenQuery != "" {
		state.Metadata["rewritten_query"] = state.RewrittenQuery
	}
	state.Metadata["grade_score"] = string(state.GradeScore)
	state.Metadata["relevance_avg_score"] = state.RelevanceAvg
	state.Metadata["relevance_top_score"] = state.RelevanceTop
	state.Metadata["relevance_top_5_avg"] = state.RelevanceTop5Avg
	state.Metadata["decomposed"] = len(state.SubQueries) > 1
	numSub := 1
	if len(state.SubQueries) > 0 {
		numSub = len(state.SubQueries)
	}
	state.Metadata["num_sub_queries"] = numSub
}

func (g *RouterGraph) publish(step, query string, detail map[string]interface{}) {
	if g.events == nil {
		return
	}
	g.events.Publish(interfaces.AgentEvent{Step: step, Query: query, Detail: detail})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
