package agent

import (
	"strings"
	"testing"

	"github.com/ternarybob/responsa/internal/models"
)

func TestCleanRewrittenQuery(t *testing.T) {
	original := "What is the swath of Sentinel-1?"

	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "Clean rewrite passes through",
			raw:      "What is the swath width of the Sentinel-1 IW acquisition mode?",
			expected: "What is the swath width of the Sentinel-1 IW acquisition mode?",
		},
		{
			name:     "Surrounding whitespace trimmed",
			raw:      "  Sentinel-1 IW swath width specification  \n",
			expected: "Sentinel-1 IW swath width specification",
		},
		{
			name:     "Improved question prefix stripped",
			raw:      "Improved question: Sentinel-1 IW swath width specification",
			expected: "Sentinel-1 IW swath width specification",
		},
		{
			name:     "Prefix stripped case-insensitively",
			raw:      "here is the improved question: Sentinel-1 IW swath width",
			expected: "Sentinel-1 IW swath width",
		},
		{
			name:     "Prefix on its own line stripped",
			raw:      "Refined question:\nSentinel-1 IW swath width specification",
			expected: "Sentinel-1 IW swath width specification",
		},
		{
			name:     "Empty response falls back to original",
			raw:      "",
			expected: original,
		},
		{
			name:     "Too-short response falls back to original",
			raw:      "swath",
			expected: original,
		},
		{
			name:     "Response shrinking below floor after prefix strip falls back",
			raw:      "Better question: tiny",
			expected: original,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanRewrittenQuery(tt.raw, original)
			if got != tt.expected {
				t.Errorf("CleanRewrittenQuery(%q) = %q, want %q", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestBuildRewriteContext(t *testing.T) {
	stats := RelevanceStats{Avg: 0.21, Top: 0.41, Top5Avg: 0.3}

	t.Run("Includes scores and document previews", func(t *testing.T) {
		docs := []models.Chunk{
			{Title: "S1 Mission Guide", Text: strings.Repeat("x", 300), Score: 0.41},
			{Title: "S2 Products", Text: "short text", Score: 0.2},
		}
		got := buildRewriteContext(docs, stats, 0.5)

		for _, want := range []string{
			"Top 5 average: 0.3000",
			"Top score: 0.4100",
			"Threshold: 0.5000",
			"[Document 1] S1 Mission Guide",
			"[Document 2] S2 Products",
			"LOW RELEVANCE SCORES",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("context missing %q", want)
			}
		}
		if !strings.Contains(got, strings.Repeat("x", 200)+"...") {
			t.Error("long preview not truncated to 200 chars")
		}
		if strings.Contains(got, strings.Repeat("x", 201)) {
			t.Error("preview exceeds 200 chars")
		}
	})

	t.Run("Caps previews at five documents", func(t *testing.T) {
		docs := make([]models.Chunk, 8)
		for i := range docs {
			docs[i] = models.Chunk{Title: "Doc", Text: "text", Score: 0.2}
		}
		got := buildRewriteContext(docs, stats, 0.5)
		if strings.Contains(got, "[Document 6]") {
			t.Error("more than five document previews included")
		}
	})

	t.Run("No documents yields terminology guidance", func(t *testing.T) {
		got := buildRewriteContext(nil, stats, 0.5)
		if !strings.Contains(got, "No documents were retrieved") {
			t.Error("missing no-documents guidance")
		}
	})
}
