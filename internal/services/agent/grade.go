package agent

import (
	"sort"

	"github.com/ternarybob/responsa/internal/models"
)

// RelevanceStats summarizes the retrieval scores of a document set.
type RelevanceStats struct {
	Avg     float64
	Top     float64
	Top5Avg float64
}

// GradeDocuments judges whether a retrieved set is relevant enough to
// answer from. The verdict compares the mean of the top five scores
// against the threshold; the top documents are what the answer will be
// built from, so the tail of a large result set should not drag the
// verdict down. An empty set grades "no" with zero stats.
func GradeDocuments(docs []models.Chunk, threshold float64) (models.GradeScore, RelevanceStats) {
	if len(docs) == 0 {
		return models.GradeNo, RelevanceStats{}
	}

	scores := make([]float64, 0, len(docs))
	var sum float64
	for _, d := range docs {
		scores = append(scores, d.Score)
		sum += d.Score
	}

	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	n := 5
	if len(sorted) < n {
		n = len(sorted)
	}
	var top5Sum float64
	for _, s := range sorted[:n] {
		top5Sum += s
	}

	stats := RelevanceStats{
		Avg:     sum / float64(len(scores)),
		Top:     sorted[0],
		Top5Avg: top5Sum / float64(n),
	}

	if stats.Top5Avg >= threshold {
		return models.GradeYes, stats
	}
	return models.GradeNo, stats
}

// DeduplicateDocs removes duplicate chunks, keeping the first occurrence.
// Identity is the chunk ID when present, otherwise a prefix of the chunk
// text. Sub-query retrievals overlap routinely, so this runs after every
// multi-query merge.
func DeduplicateDocs(docs []models.Chunk) []models.Chunk {
	seen := make(map[string]bool, len(docs))
	unique := make([]models.Chunk, 0, len(docs))

	for _, d := range docs {
		key := d.ID
		if key == "" {
			content := d.Text
			if content == "" {
				content = d.ContextualizedText
			}
			if len(content) > 500 {
				content = content[:500]
			}
			key = "text:" + content
		}
		if !seen[key] {
			seen[key] = true
			unique = append(unique, d)
		}
	}
	return unique
}
