package metadata

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ternarybob/responsa/internal/models"
)

// Boost factors applied multiplicatively when a chunk matches a query
// signal. A chunk matching several independent signals gets the product
// of their factors.
const (
	boostMission      = 1.4
	boostInstrument   = 1.3
	boostProduct      = 1.25
	boostDocumentType = 1.2
	boostProcedure    = 1.15
	boostDefinition   = 1.1
	boostOptimalWords = 1.05
)

var numberedStepPattern = regexp.MustCompile(`(?i)step\s*\d+`)

// informationalDocTypes are the document types a definition query boosts.
var informationalDocTypes = map[string]bool{
	"mission_overview": true,
	"general":          true,
}

// Booster turns analyzer output into index filters and score adjustments.
type Booster struct {
	minOptimalWords int
	maxOptimalWords int
}

// NewBooster creates a booster with the optimal-length window used by the
// word-count boost.
func NewBooster(minOptimalWords, maxOptimalWords int) *Booster {
	return &Booster{
		minOptimalWords: minOptimalWords,
		maxOptimalWords: maxOptimalWords,
	}
}

// GenerateFilters builds the hard equality filters for the index query.
// Only the mission is filtered when one was detected. Document type is
// filtered only when no mission was found: not every mission's content is
// tagged with every document type, so combining both over-constrains and
// can return zero hits.
func (b *Booster) GenerateFilters(analysis models.QueryAnalysis) map[string]interface{} {
	filters := make(map[string]interface{})

	if analysis.Mission != "" {
		filters["mission"] = analysis.Mission
	} else if analysis.DocumentType != "" {
		filters["document_type"] = analysis.DocumentType
	}

	return filters
}

// BoostScores applies the multiplicative boosts to every chunk, records a
// reason string per applied boost, and re-sorts descending by the
// adjusted score. The input slice is modified in place and returned.
func (b *Booster) BoostScores(results []models.Chunk, analysis models.QueryAnalysis) []models.Chunk {
	for i := range results {
		factor, reasons := b.chunkBoost(&results[i], analysis)
		if factor != 1.0 {
			results[i].Score *= factor
			results[i].BoostFactor = factor
			results[i].BoostReasons = reasons
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results
}

func (b *Booster) chunkBoost(chunk *models.Chunk, analysis models.QueryAnalysis) (float64, []string) {
	factor := 1.0
	var reasons []string

	titleAndText := strings.ToLower(chunk.Title + " " + chunk.Text)

	if analysis.Mission != "" && chunk.Mission() == analysis.Mission {
		factor *= boostMission
		reasons = append(reasons, fmt.Sprintf("mission match (%s)", analysis.Mission))
	}

	// First instrument match only, not per occurrence
	for _, instrument := range analysis.Instruments {
		if strings.Contains(titleAndText, strings.ToLower(instrument)) {
			factor *= boostInstrument
			reasons = append(reasons, fmt.Sprintf("instrument match (%s)", instrument))
			break
		}
	}

	for _, product := range analysis.Products {
		lower := strings.ToLower(product)
		levelForm := "level-" + strings.TrimPrefix(lower, "l")
		if strings.Contains(titleAndText, lower) || strings.Contains(titleAndText, levelForm) {
			factor *= boostProduct
			reasons = append(reasons, fmt.Sprintf("product match (%s)", product))
			break
		}
	}

	if analysis.DocumentType != "" && chunk.DocumentType() == analysis.DocumentType {
		factor *= boostDocumentType
		reasons = append(reasons, fmt.Sprintf("document type match (%s)", analysis.DocumentType))
	}

	if analysis.QueryType == models.QueryTypeProcedure && numberedStepPattern.MatchString(chunk.Text) {
		factor *= boostProcedure
		reasons = append(reasons, "procedure content (numbered steps)")
	}

	if analysis.QueryType == models.QueryTypeDefinition && informationalDocTypes[chunk.DocumentType()] {
		factor *= boostDefinition
		reasons = append(reasons, fmt.Sprintf("informational content (%s)", chunk.DocumentType()))
	}

	if wc := chunk.WordCount(); wc >= b.minOptimalWords && wc <= b.maxOptimalWords {
		factor *= boostOptimalWords
		reasons = append(reasons, fmt.Sprintf("optimal length (%d words)", wc))
	}

	return factor, reasons
}
