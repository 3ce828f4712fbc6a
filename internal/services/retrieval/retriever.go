package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/responsa/internal/common"
	"github.com/ternarybob/responsa/internal/interfaces"
	"github.com/ternarybob/responsa/internal/models"
	"github.com/ternarybob/responsa/internal/services/metadata"
)

// bgeQueryPrefix is the instruction string BGE-family models require on
// the query side (and only the query side) to reach their documented
// retrieval quality.
const bgeQueryPrefix = "Represent this sentence for searching relevant passages: "

// hybridExpandFactor over-fetches candidates before hybrid rescoring so
// lexical matches outside the semantic top set can surface.
const hybridExpandFactor = 1.5

// vectorSizeToModel maps a collection's vector dimension to the embedding
// model known to produce it. Used to auto-correct the configured model
// when it disagrees with what the collection was indexed with.
var vectorSizeToModel = map[int]string{
	384:  "all-MiniLM-L6-v2",
	768:  "all-mpnet-base-v2",
	1024: "BAAI/bge-large-en-v1.5",
	1536: "text-embedding-3-small",
	3072: "gemini-embedding-001",
}

// AdvancedRetriever orchestrates the retrieval pipeline: query embedding,
// hybrid or pure-semantic index search, metadata filtering and boosting,
// and cross-encoder reranking.
type AdvancedRetriever struct {
	cfg      *common.Config
	index    interfaces.VectorIndex
	cache    *ModelCache
	analyzer *metadata.Analyzer
	booster  *metadata.Booster
	embedder interfaces.Embedder
	logger   arbor.ILogger

	// expectedDim is the collection's vector size, falling back to the
	// configured value when the collection could not be inspected.
	expectedDim int
}

// RetrieveResult carries the outcome of an asynchronous retrieval.
type RetrieveResult struct {
	Chunks []models.Chunk
	Err    error
}

// NewAdvancedRetriever builds a retriever for the configured collection.
// It inspects the collection's vector size and, when the size maps to a
// known embedding model that differs from the configured one, switches to
// the matching model so queries embed in the space the collection was
// indexed with. A failed size lookup degrades to the configured defaults.
func NewAdvancedRetriever(ctx context.Context, cfg *common.Config, index interfaces.VectorIndex, cache *ModelCache, logger arbor.ILogger) (*AdvancedRetriever, error) {
	provider := cfg.Embeddings.Provider
	model := cfg.Embeddings.Model
	expectedDim := cfg.Qdrant.VectorSize

	size, err := index.CollectionVectorSize(ctx)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("collection", index.CollectionName()).
			Int("fallback_vector_size", expectedDim).
			Msg("Collection vector size lookup failed, using configured default")
	} else {
		expectedDim = size
		if mapped, ok := vectorSizeToModel[size]; ok && mapped != model {
			logger.Warn().
				Str("configured_model", model).
				Str("resolved_model", mapped).
				Int("vector_size", size).
				Msg("Collection vector size maps to a different embedding model, switching")
			model = mapped
		}
	}

	embedder, err := cache.GetEmbedder(provider, model)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize retriever embedder: %w", err)
	}

	r := &AdvancedRetriever{
		cfg:         cfg,
		index:       index,
		cache:       cache,
		analyzer:    metadata.NewAnalyzer(),
		booster:     metadata.NewBooster(cfg.Retrieval.MinOptimalWordCount, cfg.Retrieval.MaxOptimalWordCount),
		embedder:    embedder,
		logger:      logger,
		expectedDim: expectedDim,
	}

	logger.Info().
		Str("collection", index.CollectionName()).
		Str("embedding_model", embedder.ModelName()).
		Int("vector_size", expectedDim).
		Bool("hybrid", cfg.Retrieval.UseHybridSearch).
		Bool("reranking", cfg.Retrieval.UseReranking && cfg.Reranker.Enabled).
		Msg("Advanced retriever initialized")

	return r, nil
}

// Retrieve runs the full pipeline for one query and returns the final
// ranked chunks. Option pointers left nil use the configured defaults.
func (r *AdvancedRetriever) Retrieve(ctx context.Context, query string, opts interfaces.RetrieveOptions) ([]models.Chunk, error) {
	topK := r.cfg.Retrieval.TopK
	if opts.TopK > 0 {
		topK = opts.TopK
	}
	useRerank := resolveBool(opts.UseReranking, r.cfg.Retrieval.UseReranking)
	useHybrid := resolveBool(opts.UseHybrid, r.cfg.Retrieval.UseHybridSearch)
	autoExtract := resolveBool(opts.AutoExtractFilters, r.cfg.Retrieval.UseMetadataFiltering)

	// Filters supplied by the caller are used verbatim; otherwise derive
	// them from the query. Boosting is applied only to auto-derived
	// filters since it assumes the signals came from the same analysis.
	var (
		filters       map[string]interface{}
		analysis      models.QueryAnalysis
		autoExtracted bool
	)
	switch {
	case opts.Filters != nil:
		filters = opts.Filters
	case autoExtract:
		analysis = r.analyzer.Analyze(query)
		filters = r.booster.GenerateFilters(analysis)
		autoExtracted = true
	}

	// Over-fetch so reranking has material to work with
	poolLimit := topK
	if useRerank {
		if doubled := 2 * r.cfg.Retrieval.RerankTopN; doubled > poolLimit {
			poolLimit = doubled
		}
	}

	vector, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	chunks, err := r.search(ctx, query, vector, poolLimit, filters, useHybrid)
	if err != nil {
		return nil, err
	}

	// Metadata filters are a ranking aid, never a hard empty result:
	// retry unfiltered when a filtered search found nothing.
	if len(chunks) == 0 && len(filters) > 0 {
		r.logger.Debug().
			Str("query", truncate(query, 80)).
			Int("filters", len(filters)).
			Msg("Filtered search returned nothing, retrying unfiltered")
		chunks, err = r.search(ctx, query, vector, poolLimit, nil, useHybrid)
		if err != nil {
			return nil, err
		}
	}

	if autoExtracted && analysis.HasSignals() {
		chunks = r.booster.BoostScores(chunks, analysis)
	}

	var reranker interfaces.Reranker
	if useRerank {
		reranker = r.cache.GetReranker(r.cfg.Reranker.Model, r.cfg.Reranker.Enabled)
	}

	if useRerank && reranker != nil && len(chunks) > 0 {
		return r.rerank(ctx, reranker, query, chunks), nil
	}

	// Reranking skipped: disabled, unavailable, or nothing to rank. The
	// unavailable branch deliberately returns topK, not rerankTopN.
	if len(chunks) > topK {
		chunks = chunks[:topK]
	}
	return chunks, nil
}

// RetrieveAsync runs Retrieve on its own goroutine so a request-serving
// caller is not blocked through embedding, index query, and reranking.
func (r *AdvancedRetriever) RetrieveAsync(ctx context.Context, query string, opts interfaces.RetrieveOptions) <-chan RetrieveResult {
	out := make(chan RetrieveResult, 1)
	go func() {
		defer close(out)
		chunks, err := r.Retrieve(ctx, query, opts)
		out <- RetrieveResult{Chunks: chunks, Err: err}
	}()
	return out
}

// embedQuery embeds the query, applying the BGE instruction prefix for
// BGE-family models, and validates the vector dimension before any index
// query. A mismatch means the wrong embedding model is configured for the
// collection and fails hard rather than silently corrupting results.
func (r *AdvancedRetriever) embedQuery(ctx context.Context, query string) ([]float32, error) {
	text := query
	if strings.Contains(strings.ToLower(r.embedder.ModelName()), "bge") {
		text = bgeQueryPrefix + query
	}

	vector, err := r.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("query embedding failed: %w", err)
	}

	if r.expectedDim > 0 && len(vector) != r.expectedDim {
		return nil, fmt.Errorf("%w: model %s produced %d dimensions, collection %s expects %d",
			common.ErrDimensionMismatch, r.embedder.ModelName(), len(vector), r.index.CollectionName(), r.expectedDim)
	}

	return vector, nil
}

// search runs one index query in hybrid or pure-semantic mode. A hybrid
// failure degrades to plain semantic results instead of failing the
// request.
func (r *AdvancedRetriever) search(ctx context.Context, query string, vector []float32, limit int, filters map[string]interface{}, useHybrid bool) ([]models.Chunk, error) {
	if useHybrid {
		chunks, err := r.hybridSearch(ctx, query, vector, limit, filters)
		if err == nil {
			return chunks, nil
		}
		r.logger.Warn().
			Err(err).
			Str("query", truncate(query, 80)).
			Msg("Hybrid search failed, falling back to semantic search")
	}
	return r.semanticSearch(ctx, vector, limit, filters)
}

func (r *AdvancedRetriever) semanticSearch(ctx context.Context, vector []float32, limit int, filters map[string]interface{}) ([]models.Chunk, error) {
	points, err := r.index.Search(ctx, vector, limit, filters)
	if err != nil {
		return nil, fmt.Errorf("index search failed: %w", err)
	}
	return chunksFromPoints(points), nil
}

// hybridSearch blends the index's native similarity with a lexical
// overlap ratio: alpha*semantic + (1-alpha)*overlap, where overlap is the
// fraction of query terms present in the chunk text. Candidates are
// over-fetched before rescoring, then truncated back to the limit.
func (r *AdvancedRetriever) hybridSearch(ctx context.Context, query string, vector []float32, limit int, filters map[string]interface{}) ([]models.Chunk, error) {
	expanded := int(float64(limit) * hybridExpandFactor)
	if expanded < limit {
		expanded = limit
	}

	points, err := r.index.Search(ctx, vector, expanded, filters)
	if err != nil {
		return nil, fmt.Errorf("index search failed: %w", err)
	}

	chunks := chunksFromPoints(points)
	queryTerms := termSet(query)
	alpha := r.cfg.Retrieval.HybridSearchAlpha

	for i := range chunks {
		overlap := keywordOverlap(queryTerms, chunks[i].Text)
		chunks[i].Score = alpha*chunks[i].QdrantScore + (1-alpha)*overlap
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Score > chunks[j].Score
	})

	if len(chunks) > limit {
		chunks = chunks[:limit]
	}
	return chunks, nil
}

// rerank scores every (query, chunk) pair with the cross-encoder,
// min-max normalizes the raw scores, and keeps the top rerankTopN. The
// pre-rerank score survives as QdrantScore and the raw cross-encoder
// score as RerankScore. A reranker failure degrades to the un-reranked
// top-N.
func (r *AdvancedRetriever) rerank(ctx context.Context, reranker interfaces.Reranker, query string, chunks []models.Chunk) []models.Chunk {
	topN := r.cfg.Retrieval.RerankTopN

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}

	raw, err := reranker.Scores(ctx, query, texts)
	if err != nil || len(raw) != len(chunks) {
		r.logger.Warn().
			Err(err).
			Int("candidates", len(chunks)).
			Msg("Reranking failed, returning un-reranked results")
		if len(chunks) > topN {
			chunks = chunks[:topN]
		}
		return chunks
	}

	normalized := MinMaxNormalize(raw)
	for i := range chunks {
		chunks[i].QdrantScore = chunks[i].Score
		chunks[i].RerankScore = raw[i]
		chunks[i].Score = normalized[i]
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Score > chunks[j].Score
	})

	if len(chunks) > topN {
		chunks = chunks[:topN]
	}
	return chunks
}

func resolveBool(override *bool, fallback bool) bool {
	if override != nil {
		return *override
	}
	return fallback
}

// termSet tokenizes on whitespace, lowercased.
func termSet(text string) map[string]bool {
	terms := make(map[string]bool)
	for _, t := range strings.Fields(strings.ToLower(text)) {
		terms[t] = true
	}
	return terms
}

// keywordOverlap returns |query terms present in text| / |query terms|.
func keywordOverlap(queryTerms map[string]bool, text string) float64 {
	if len(queryTerms) == 0 {
		return 0
	}
	docTerms := termSet(text)
	matched := 0
	for t := range queryTerms {
		if docTerms[t] {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTerms))
}

// chunksFromPoints maps index hits to chunks. Well-known payload fields
// become struct fields; everything else stays in Metadata. A nested
// "metadata" map is flattened into Metadata.
func chunksFromPoints(points []interfaces.ScoredPoint) []models.Chunk {
	chunks := make([]models.Chunk, 0, len(points))
	for _, p := range points {
		chunk := models.Chunk{
			ID:          p.ID,
			Score:       p.Score,
			QdrantScore: p.Score,
			Metadata:    make(map[string]interface{}),
		}
		for k, v := range p.Payload {
			switch k {
			case "text":
				chunk.Text, _ = v.(string)
			case "contextualized_text":
				chunk.ContextualizedText, _ = v.(string)
			case "title":
				chunk.Title, _ = v.(string)
			case "url":
				chunk.URL, _ = v.(string)
			case "heading":
				chunk.Heading, _ = v.(string)
			case "metadata":
				if nested, ok := v.(map[string]interface{}); ok {
					for nk, nv := range nested {
						chunk.Metadata[nk] = nv
					}
				}
			default:
				chunk.Metadata[k] = v
			}
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
