package agent

import (
	"reflect"
	"testing"
)

func TestParseSubQueries(t *testing.T) {
	original := "Compare Sentinel-1 and Sentinel-2"

	tests := []struct {
		name     string
		response string
		expected []string
	}{
		{
			name:     "Clean JSON array",
			response: `["Sentinel-1 specifications", "Sentinel-2 specifications"]`,
			expected: []string{"Sentinel-1 specifications", "Sentinel-2 specifications"},
		},
		{
			name:     "Array surrounded by prose",
			response: "Sure, here are the sub-queries:\n[\"Sentinel-1 swath width\", \"Sentinel-2 swath width\"]\nLet me know if you need more.",
			expected: []string{"Sentinel-1 swath width", "Sentinel-2 swath width"},
		},
		{
			name:     "Fenced json code block",
			response: "```json\n[\"InSAR sensor requirements\", \"Sentinel-2 sensor type\"]\n```",
			expected: []string{"InSAR sensor requirements", "Sentinel-2 sensor type"},
		},
		{
			name:     "Fenced block without language tag",
			response: "```\n[\"query one\"]\n```",
			expected: []string{"query one"},
		},
		{
			name:     "Single item passthrough",
			response: `["What is Sentinel-1?"]`,
			expected: []string{"What is Sentinel-1?"},
		},
		{
			name:     "Plain prose with no array",
			response: "I think this question is simple enough as is.",
			expected: []string{original},
		},
		{
			name:     "Empty array",
			response: `[]`,
			expected: []string{original},
		},
		{
			name:     "Array of non-strings",
			response: `[1, 2, 3]`,
			expected: []string{original},
		},
		{
			name:     "Array containing empty string",
			response: `["valid query", ""]`,
			expected: []string{original},
		},
		{
			name:     "Empty response",
			response: "",
			expected: []string{original},
		},
		{
			name:     "Multiline strings inside array",
			response: "[\"Sentinel-1\nrevisit time\", \"Sentinel-2 revisit time\"]",
			expected: []string{original},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSubQueries(tt.response, original)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ParseSubQueries() = %v, want %v", got, tt.expected)
			}
		})
	}
}
