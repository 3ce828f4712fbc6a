package agent

import (
	"fmt"
	"strings"

	"github.com/ternarybob/responsa/internal/models"
)

// rewritePrefixes are boilerplate lead-ins models prepend despite being
// told not to. Stripped case-insensitively from rewritten queries.
var rewritePrefixes = []string{
	"Improved question:",
	"Refined question:",
	"Better question:",
	"Here is the improved question:",
}

// buildRewriteContext assembles the knowledge-base feedback section of the
// rewrite prompt: the relevance scores that triggered the rewrite and
// previews of the documents that scored poorly. Seeing what the index
// actually holds lets the model steer the rewrite toward available
// content instead of guessing.
func buildRewriteContext(docs []models.Chunk, stats RelevanceStats, threshold float64) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\nRELEVANCE SCORES (Low - triggering rewrite):\n")
	fmt.Fprintf(&b, "   Top 5 average: %.4f\n", stats.Top5Avg)
	fmt.Fprintf(&b, "   Overall average: %.4f\n", stats.Avg)
	fmt.Fprintf(&b, "   Top score: %.4f\n", stats.Top)
	fmt.Fprintf(&b, "   Threshold: %.4f\n", threshold)
	b.WriteString("   The documents retrieved have low relevance scores, indicating the query needs improvement.\n\n")

	if len(docs) == 0 {
		b.WriteString("No documents were retrieved, or documents had very low relevance scores. ")
		b.WriteString("Rewrite the question to be more specific and use terminology that matches SentiWiki documentation.\n\n")
		return b.String()
	}

	limit := 5
	if len(docs) < limit {
		limit = len(docs)
	}
	previews := make([]string, 0, limit)
	for i, doc := range docs[:limit] {
		text := doc.ContextualizedText
		if text == "" {
			text = doc.Text
		}
		if len(text) > 200 {
			text = text[:200] + "..."
		}
		title := doc.Title
		if title == "" {
			title = "Unknown"
		}
		previews = append(previews, fmt.Sprintf("[Document %d] %s\nContent preview: %s\n", i+1, title, text))
	}

	b.WriteString("The following documents were retrieved but had LOW RELEVANCE SCORES:\n")
	b.WriteString("-------\n")
	b.WriteString(strings.Join(previews, "\n---\n\n"))
	b.WriteString("\n-------\n")
	b.WriteString("Use this information to understand what topics are available in the knowledge base. ")
	b.WriteString("Rewrite the question to better match the available content, using terms and concepts ")
	b.WriteString("that are more likely to retrieve documents with HIGHER relevance scores.\n\n")
	return b.String()
}

// CleanRewrittenQuery normalizes a raw rewrite completion. Boilerplate
// prefixes are stripped, and a result that is empty or suspiciously short
// is discarded in favor of the original query. A ten-character floor
// catches responses the model truncated or refused.
func CleanRewrittenQuery(raw, original string) string {
	rewritten := strings.TrimSpace(raw)
	if len(rewritten) < 10 {
		return original
	}

	for _, prefix := range rewritePrefixes {
		if len(rewritten) >= len(prefix) && strings.EqualFold(rewritten[:len(prefix)], prefix) {
			rewritten = strings.TrimSpace(rewritten[len(prefix):])
		}
		if idx := strings.Index(rewritten, "\n"); idx >= 0 {
			firstLine := strings.TrimSpace(rewritten[:idx])
			if strings.EqualFold(firstLine, strings.TrimSuffix(prefix, ":")) || strings.EqualFold(firstLine, prefix) {
				rewritten = strings.TrimSpace(rewritten[idx+1:])
			}
		}
	}

	if len(rewritten) < 10 {
		return original
	}
	return rewritten
}
