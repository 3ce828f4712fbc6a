package agent

import (
	"encoding/json"
	"regexp"
)

var (
	jsonArrayPattern = regexp.MustCompile(`(?s)\[.*?\]`)
	codeBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\[.*?\\])\\s*```")
)

// ParseSubQueries extracts a list of sub-queries from a model completion.
// Models wrap the requested JSON array in prose or fenced code blocks
// often enough that three parse strategies are tried in order: the first
// bracketed span in the text, the whole response as JSON, and the body of
// a fenced code block. Any response that fails all three, or that parses
// to anything other than a non-empty list of non-empty strings, falls
// back to the original query as a single-item list.
func ParseSubQueries(response, original string) []string {
	fallback := []string{original}

	var queries []string
	if m := jsonArrayPattern.FindString(response); m != "" {
		if err := json.Unmarshal([]byte(m), &queries); err != nil {
			queries = nil
		}
	}
	if queries == nil {
		if err := json.Unmarshal([]byte(response), &queries); err != nil {
			queries = nil
		}
	}
	if queries == nil {
		if m := codeBlockPattern.FindStringSubmatch(response); m != nil {
			if err := json.Unmarshal([]byte(m[1]), &queries); err != nil {
				queries = nil
			}
		}
	}

	if len(queries) == 0 {
		return fallback
	}
	for _, q := range queries {
		if q == "" {
			return fallback
		}
	}
	return queries
}
