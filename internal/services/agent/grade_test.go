package agent

import (
	"math"
	"testing"

	"github.com/ternarybob/responsa/internal/models"
)

func chunksWithScores(scores ...float64) []models.Chunk {
	chunks := make([]models.Chunk, len(scores))
	for i, s := range scores {
		chunks[i] = models.Chunk{ID: string(rune('a' + i)), Text: "text", Score: s}
	}
	return chunks
}

func TestGradeDocuments(t *testing.T) {
	tests := []struct {
		name        string
		scores      []float64
		threshold   float64
		wantGrade   models.GradeScore
		wantTop5Avg float64
		wantTop     float64
	}{
		{
			name:        "Strong set passes",
			scores:      []float64{0.9, 0.8, 0.75, 0.6, 0.55, 0.3},
			threshold:   0.5,
			wantGrade:   models.GradeYes,
			wantTop5Avg: 0.72,
			wantTop:     0.9,
		},
		{
			name:        "Weak tail does not drag verdict below threshold",
			scores:      []float64{0.9, 0.85, 0.8, 0.75, 0.7, 0.1, 0.1, 0.1, 0.1, 0.1},
			threshold:   0.5,
			wantGrade:   models.GradeYes,
			wantTop5Avg: 0.8,
			wantTop:     0.9,
		},
		{
			name:        "Uniformly weak set fails",
			scores:      []float64{0.3, 0.2, 0.2, 0.1},
			threshold:   0.5,
			wantGrade:   models.GradeNo,
			wantTop5Avg: 0.2,
			wantTop:     0.3,
		},
		{
			name:        "Exactly at threshold passes",
			scores:      []float64{0.5, 0.5, 0.5},
			threshold:   0.5,
			wantGrade:   models.GradeYes,
			wantTop5Avg: 0.5,
			wantTop:     0.5,
		},
		{
			name:        "Fewer than five documents averages what exists",
			scores:      []float64{0.8, 0.4},
			threshold:   0.5,
			wantGrade:   models.GradeYes,
			wantTop5Avg: 0.6,
			wantTop:     0.8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grade, stats := GradeDocuments(chunksWithScores(tt.scores...), tt.threshold)
			if grade != tt.wantGrade {
				t.Errorf("grade = %q, want %q", grade, tt.wantGrade)
			}
			if math.Abs(stats.Top5Avg-tt.wantTop5Avg) > 1e-9 {
				t.Errorf("top5avg = %v, want %v", stats.Top5Avg, tt.wantTop5Avg)
			}
			if math.Abs(stats.Top-tt.wantTop) > 1e-9 {
				t.Errorf("top = %v, want %v", stats.Top, tt.wantTop)
			}
		})
	}
}

func TestGradeDocumentsEmpty(t *testing.T) {
	grade, stats := GradeDocuments(nil, 0.5)
	if grade != models.GradeNo {
		t.Errorf("grade = %q, want %q", grade, models.GradeNo)
	}
	if stats.Avg != 0 || stats.Top != 0 || stats.Top5Avg != 0 {
		t.Errorf("stats = %+v, want zeros", stats)
	}
}

func TestDeduplicateDocs(t *testing.T) {
	t.Run("Duplicate IDs keep first occurrence", func(t *testing.T) {
		docs := []models.Chunk{
			{ID: "a", Score: 0.9},
			{ID: "b", Score: 0.8},
			{ID: "a", Score: 0.7},
		}
		got := DeduplicateDocs(docs)
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
		if got[0].Score != 0.9 {
			t.Errorf("first occurrence score = %v, want 0.9", got[0].Score)
		}
	})

	t.Run("Missing IDs fall back to content identity", func(t *testing.T) {
		docs := []models.Chunk{
			{Text: "same content"},
			{Text: "same content"},
			{Text: "different content"},
		}
		got := DeduplicateDocs(docs)
		if len(got) != 2 {
			t.Errorf("len = %d, want 2", len(got))
		}
	})

	t.Run("ID and content keys do not collide", func(t *testing.T) {
		docs := []models.Chunk{
			{ID: "x", Text: "hello"},
			{Text: "hello"},
		}
		got := DeduplicateDocs(docs)
		if len(got) != 2 {
			t.Errorf("len = %d, want 2", len(got))
		}
	})
}
