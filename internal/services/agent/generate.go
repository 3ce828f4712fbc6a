package agent

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ternarybob/responsa/internal/models"
)

// missionNormalizeMap collapses the spelling variants seen in chunk
// metadata to canonical mission codes.
var missionNormalizeMap = map[string]string{
	"sentinel-1": "S1", "sentinel 1": "S1", "s1": "S1",
	"sentinel-2": "S2", "sentinel 2": "S2", "s2": "S2",
	"sentinel-3": "S3", "sentinel 3": "S3", "s3": "S3",
	"sentinel-5p": "S5P", "sentinel 5p": "S5P", "sentinel-5-p": "S5P", "s5p": "S5P",
}

var missionFilenamePatterns = []struct {
	re      *regexp.Regexp
	mission string
}{
	{regexp.MustCompile(`sentinel-?1|s1[^a-z0-9]`), "S1"},
	{regexp.MustCompile(`sentinel-?2|s2[^a-z0-9]`), "S2"},
	{regexp.MustCompile(`sentinel-?3|s3[^a-z0-9]`), "S3"},
	{regexp.MustCompile(`sentinel-?5[-\s]?p|s5p`), "S5P"},
}

// incompleteSuffixes mark a rewritten query that was cut off mid-sentence.
var incompleteSuffixes = []string{" its", " the", " a ", " an ", " of", " in", " on", " at"}

// normalizeMission maps a mission label to its canonical code, upper-casing
// anything not in the variant table.
func normalizeMission(mission string) string {
	if mission == "" {
		return ""
	}
	if code, ok := missionNormalizeMap[strings.ToLower(strings.TrimSpace(mission))]; ok {
		return code
	}
	return strings.ToUpper(mission)
}

func missionFromFilename(filename string) string {
	if filename == "" {
		return ""
	}
	lower := strings.ToLower(filename)
	for _, p := range missionFilenamePatterns {
		if p.re.MatchString(lower) {
			return p.mission
		}
	}
	return ""
}

// MissionsInDocs collects the canonical mission codes represented in a
// document set, from chunk metadata first and filename patterns as a
// fallback. The result is sorted for stable prompt text.
func MissionsInDocs(docs []models.Chunk) []string {
	set := make(map[string]bool)
	for i := range docs {
		mission := docs[i].Mission()
		if mission == "" {
			mission = docs[i].MetaString("mission_id")
		}
		if mission == "" {
			mission = missionFromFilename(docs[i].MetaString("file_name"))
		}
		if code := normalizeMission(mission); code != "" {
			set[code] = true
		}
	}
	missions := make([]string, 0, len(set))
	for m := range set {
		missions = append(missions, m)
	}
	sort.Strings(missions)
	return missions
}

// BuildContext formats retrieved chunks into the context block of the
// answer prompt. Each chunk carries its rank, title, and relevance score
// so the model can weigh conflicting passages.
func BuildContext(docs []models.Chunk) string {
	parts := make([]string, 0, len(docs))
	for i, doc := range docs {
		text := doc.ContextualizedText
		if text == "" {
			text = doc.Text
		}
		title := doc.Title
		if title == "" {
			title = "Unknown"
		}
		parts = append(parts, fmt.Sprintf("[Document %d] %s (Relevance: %.4f)\nContent:\n%s\n", i+1, title, doc.Score, text))
	}
	return strings.Join(parts, "\n---\n\n")
}

// BuildRAGSystemPrompt assembles the answer-generation system prompt:
// the base instructions with the context embedded, plus the comparative
// instruction when the context spans more than one mission.
func BuildRAGSystemPrompt(context string, missions []string) string {
	prompt := fmt.Sprintf(ragSystemBase, context)
	if len(missions) > 1 {
		prompt += fmt.Sprintf(ragComparativeInstruction, strings.Join(missions, ", "))
	}
	return prompt
}

// queryForAnswer chooses which query text to generate the answer against.
// The rewritten query is preferred since it is what retrieved the
// documents, unless it looks truncated, in which case the original is
// safer than a half-sentence.
func queryForAnswer(original, rewritten string) string {
	if rewritten == "" {
		return original
	}
	if len(rewritten) < 15 {
		return original
	}
	for _, suffix := range incompleteSuffixes {
		if strings.HasSuffix(rewritten, suffix) {
			return original
		}
	}
	return rewritten
}
