package agent

import (
	"path"
	"sort"
	"strings"

	"github.com/ternarybob/responsa/internal/models"
)

// documentName resolves the canonical source document name for a chunk.
// Indexed chunks carry several competing name fields left over from the
// ingestion pipeline; the original file path is the most reliable, then
// the file stem, then a cleaned file name, then the chunk title.
func documentName(c *models.Chunk) string {
	if sourceFile := c.MetaString("source_file"); sourceFile != "" {
		return stripDocExtension(path.Base(sourceFile))
	}
	if stem := c.MetaString("file_stem"); stem != "" {
		return stem
	}
	if fileName := c.MetaString("file_name"); fileName != "" {
		name := strings.TrimSuffix(fileName, "_enhanced_enriched.json")
		name = strings.TrimSuffix(name, ".json")
		return stripDocExtension(name)
	}
	if c.Title != "" {
		return c.Title
	}
	return "Unknown"
}

func stripDocExtension(name string) string {
	name = strings.TrimSuffix(name, ".pdf")
	name = strings.TrimSuffix(name, ".md")
	return name
}

// sectionName prefers the full heading path over the bare heading.
func sectionName(c *models.Chunk) string {
	if hp := c.MetaString("heading_path"); hp != "" {
		return hp
	}
	return c.Heading
}

// sectionURL prefers the ground-truth deep link recorded at crawl time
// over the document's base URL.
func sectionURL(c *models.Chunk) string {
	if u := c.MetaString("section_url"); u != "" {
		return u
	}
	return c.URL
}

func previewText(c *models.Chunk) string {
	text := c.ContextualizedText
	if text == "" {
		text = c.Text
	}
	if len(text) > 200 {
		return text[:200] + "..."
	}
	return text
}

// FormatSources builds the citation list for a response. Chunks are
// grouped by source document so a document split into many indexed
// sections appears once, carrying its best chunk score as a percentage
// and the union of the section headings that contributed. Chunks scoring
// below minRelevancePercentage are dropped before grouping. Results are
// sorted best score first.
func FormatSources(docs []models.Chunk, minRelevancePercentage float64) []models.Source {
	type group struct {
		source   models.Source
		headings map[string]bool
	}

	order := make([]string, 0, len(docs))
	groups := make(map[string]*group)

	for i := range docs {
		doc := &docs[i]
		percentage := roundOneDecimal(doc.Score * 100)
		if percentage < minRelevancePercentage {
			continue
		}

		name := documentName(doc)
		section := sectionName(doc)

		g, ok := groups[name]
		if !ok {
			g = &group{
				source: models.Source{
					Document: name,
					Score:    percentage,
					URL:      doc.URL,
					Preview:  previewText(doc),
				},
				headings: make(map[string]bool),
			}
			groups[name] = g
			order = append(order, name)
		} else {
			if percentage > g.source.Score {
				g.source.Score = percentage
				g.source.Preview = previewText(doc)
			}
			if g.source.URL == "" {
				g.source.URL = doc.URL
			}
		}

		if section != "" && !g.headings[section] {
			g.headings[section] = true
			g.source.Headings = append(g.source.Headings, models.SourceHeading{
				Heading: section,
				URL:     sectionURL(doc),
			})
		}
	}

	sources := make([]models.Source, 0, len(groups))
	for _, name := range order {
		g := groups[name]
		g.source.Headings = simplifyHeadings(g.source.Headings)
		sources = append(sources, g.source)
	}

	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Score > sources[j].Score
	})
	return sources
}

// simplifyHeadings strips the heading-path prefix shared by every heading
// in a group. Sections of one document usually share a long ancestor path
// ("Mission > Products > Level-1 > ..."); repeating it per heading buries
// the part that differs.
func simplifyHeadings(headings []models.SourceHeading) []models.SourceHeading {
	if len(headings) < 2 {
		return headings
	}

	paths := make([][]string, len(headings))
	for i, h := range headings {
		paths[i] = strings.Split(h.Heading, " > ")
	}

	minLen := len(paths[0])
	for _, p := range paths[1:] {
		if len(p) < minLen {
			minLen = len(p)
		}
	}

	common := 0
	for i := 0; i < minLen; i++ {
		same := true
		for _, p := range paths[1:] {
			if p[i] != paths[0][i] {
				same = false
				break
			}
		}
		if !same {
			break
		}
		common++
	}

	if common == 0 {
		return headings
	}

	simplified := make([]models.SourceHeading, len(headings))
	for i, h := range headings {
		rest := strings.Join(paths[i][common:], " > ")
		if rest == "" {
			rest = h.Heading
		}
		simplified[i] = models.SourceHeading{Heading: rest, URL: h.URL}
	}
	return simplified
}

func roundOneDecimal(v float64) float64 {
	if v < 0 {
		return float64(int(v*10-0.5)) / 10
	}
	return float64(int(v*10+0.5)) / 10
}
