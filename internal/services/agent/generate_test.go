package agent

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ternarybob/responsa/internal/models"
)

func TestBuildContext(t *testing.T) {
	docs := []models.Chunk{
		{Title: "S1 Guide", Text: "plain text", Score: 0.9123},
		{Title: "S2 Guide", Text: "raw", ContextualizedText: "enriched text", Score: 0.5},
	}

	got := BuildContext(docs)

	if !strings.Contains(got, "[Document 1] S1 Guide (Relevance: 0.9123)") {
		t.Error("first document header missing or malformed")
	}
	if !strings.Contains(got, "[Document 2] S2 Guide (Relevance: 0.5000)") {
		t.Error("second document header missing or malformed")
	}
	if !strings.Contains(got, "enriched text") {
		t.Error("contextualized text not preferred over raw text")
	}
	if strings.Contains(got, "\nraw\n") {
		t.Error("raw text used despite contextualized text being present")
	}
	if !strings.Contains(got, "\n---\n\n") {
		t.Error("document separator missing")
	}
}

func TestBuildRAGSystemPrompt(t *testing.T) {
	t.Run("Single mission omits comparative instruction", func(t *testing.T) {
		got := BuildRAGSystemPrompt("ctx", []string{"S1"})
		if strings.Contains(got, "COMPARATIVE") {
			t.Error("comparative instruction added for single mission")
		}
		if !strings.Contains(got, "Context:\nctx") {
			t.Error("context not embedded")
		}
	})

	t.Run("Multiple missions append comparative instruction", func(t *testing.T) {
		got := BuildRAGSystemPrompt("ctx", []string{"S1", "S2"})
		if !strings.Contains(got, "multiple Sentinel missions (S1, S2)") {
			t.Error("comparative instruction missing mission list")
		}
	})
}

func TestMissionsInDocs(t *testing.T) {
	tests := []struct {
		name     string
		docs     []models.Chunk
		expected []string
	}{
		{
			name: "Metadata mission field normalized",
			docs: []models.Chunk{
				{Metadata: map[string]interface{}{"mission": "Sentinel-1"}},
				{Metadata: map[string]interface{}{"mission": "s2"}},
			},
			expected: []string{"S1", "S2"},
		},
		{
			name: "Mission id fallback",
			docs: []models.Chunk{
				{Metadata: map[string]interface{}{"mission_id": "sentinel-5p"}},
			},
			expected: []string{"S5P"},
		},
		{
			name: "Filename fallback",
			docs: []models.Chunk{
				{Metadata: map[string]interface{}{"file_name": "sentinel-3-olci-guide.json"}},
			},
			expected: []string{"S3"},
		},
		{
			name: "Duplicates collapse and result sorts",
			docs: []models.Chunk{
				{Metadata: map[string]interface{}{"mission": "S2"}},
				{Metadata: map[string]interface{}{"mission": "Sentinel-2"}},
				{Metadata: map[string]interface{}{"mission": "S1"}},
			},
			expected: []string{"S1", "S2"},
		},
		{
			name:     "No mission info yields empty",
			docs:     []models.Chunk{{Text: "no metadata"}},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MissionsInDocs(tt.docs)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("MissionsInDocs() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestQueryForAnswer(t *testing.T) {
	original := "What is the swath of Sentinel-1?"

	tests := []struct {
		name      string
		rewritten string
		expected  string
	}{
		{
			name:      "No rewrite uses original",
			rewritten: "",
			expected:  original,
		},
		{
			name:      "Complete rewrite preferred",
			rewritten: "Sentinel-1 IW swath width specification",
			expected:  "Sentinel-1 IW swath width specification",
		},
		{
			name:      "Very short rewrite rejected",
			rewritten: "S1 swath",
			expected:  original,
		},
		{
			name:      "Truncated rewrite ending mid-phrase rejected",
			rewritten: "What is the swath width of the",
			expected:  original,
		},
		{
			name:      "Rewrite ending in dangling preposition rejected",
			rewritten: "Sentinel-1 swath width measured in",
			expected:  original,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := queryForAnswer(original, tt.rewritten)
			if got != tt.expected {
				t.Errorf("queryForAnswer(%q) = %q, want %q", tt.rewritten, got, tt.expected)
			}
		})
	}
}
