package metadata

import (
	"regexp"
	"strings"

	"github.com/ternarybob/responsa/internal/models"
)

// missionPattern couples a normalized mission code with the regex variants
// that detect it: full name, hyphenated, spaced, and short aliases.
type missionPattern struct {
	code     string
	patterns []*regexp.Regexp
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

// Mission detection order matters: the first matching entry wins for the
// single-mission field. Longer mission names come before the short Sxx
// aliases they could shadow.
var missionPatterns = []missionPattern{
	{"S1", compileAll(`\bsentinel-1\b`, `\bsentinel\s*1\b`, `\bs1\b`, `\bs1a\b`, `\bs1b\b`, `\bs1c\b`)},
	{"S2", compileAll(`\bsentinel-2\b`, `\bsentinel\s*2\b`, `\bs2\b`, `\bs2a\b`, `\bs2b\b`, `\bs2c\b`)},
	{"S3", compileAll(`\bsentinel-3\b`, `\bsentinel\s*3\b`, `\bs3\b`, `\bs3a\b`, `\bs3b\b`)},
	{"S4", compileAll(`\bsentinel-4\b`, `\bsentinel\s*4\b`, `\bs4\b`)},
	{"S5P", compileAll(`\bsentinel-5p\b`, `\bsentinel\s*5p\b`, `\bs5p\b`, `\bs-5p\b`)},
	{"S5", compileAll(`\bsentinel-5\b`, `\bsentinel\s*5\b`, `\bs5\b`)},
	{"S6", compileAll(`\bsentinel-6\b`, `\bsentinel\s*6\b`, `\bs6\b`)},
	{"CHIME", compileAll(`\bchime\b`)},
	{"CIMR", compileAll(`\bcimr\b`)},
	{"CO2M", compileAll(`\bco2m\b`)},
	{"CRISTAL", compileAll(`\bcristal\b`)},
	{"LSTM", compileAll(`\blstm\b`)},
	{"ROSE-L", compileAll(`\brose-l\b`, `\brose\s*l\b`)},
}

var instrumentPatterns = map[string]*regexp.Regexp{
	"SAR":     regexp.MustCompile(`\bsar\b`),
	"OLCI":    regexp.MustCompile(`\bolci\b`),
	"SLSTR":   regexp.MustCompile(`\bslstr\b`),
	"MSI":     regexp.MustCompile(`\bmsi\b`),
	"SRAL":    regexp.MustCompile(`\bsral\b`),
	"MWR":     regexp.MustCompile(`\bmwr\b`),
	"TROPOMI": regexp.MustCompile(`\btropomi\b`),
}

// productLevelPattern matches processing level references: "level 1",
// "level-2", "l1", "L2" and the suffixed variants "l1c", "l2a".
var (
	productLevelPattern = regexp.MustCompile(`\b(?:level[\s-]*)?l(\d)([a-c])?\b`)
	productSpelledLevel = regexp.MustCompile(`\blevel[\s-]*(\d)([a-c])?\b`)
)

// Query intent pattern lists, checked in priority order: procedure beats
// definition beats specification; anything else is general.
var (
	procedurePatterns = compileAll(
		`\bhow\s+(?:do|can|to|does)\b`,
		`\bsteps?\s+(?:to|for)\b`,
		`\bprocess\s+(?:of|for)\b`,
		`\bprocedure\b`,
		`\bguide\b`,
		`\btutorial\b`,
		`\bcomo\s+(?:puedo|hacer|se)\b`,
		`\bpasos\s+para\b`,
	)
	definitionPatterns = compileAll(
		`\bwhat\s+is\b`,
		`\bwhat\s+are\b`,
		`\bdefine\b`,
		`\bdefinition\s+of\b`,
		`\bmeaning\s+of\b`,
		`\bexplain\b`,
		`\bque\s+es\b`,
		`\bqu[eé]\s+es\b`,
		`\bsignificado\s+de\b`,
	)
	specificationPatterns = compileAll(
		`\bresolution\b`,
		`\baccuracy\b`,
		`\bprecision\b`,
		`\bfrequency\b`,
		`\bband(?:width)?s?\b`,
		`\bswath\b`,
		`\brevisit\b`,
		`\bspecifications?\b`,
		`\bparameters?\b`,
		`\bwavelengths?\b`,
	)
)

// documentTypePattern maps query phrases to corpus document types.
type documentTypePattern struct {
	docType  string
	patterns []*regexp.Regexp
}

var documentTypePatterns = []documentTypePattern{
	{"user_guide", compileAll(`\buser\s+guide\b`, `\bhandbook\b`, `\bmanual\b`)},
	{"technical_spec", compileAll(`\btechnical\b`, `\bspecifications?\b`, `\brequirements?\b`)},
	{"product_info", compileAll(`\bproducts?\b`, `\bdata\s+products?\b`, `\bprocessing\s+levels?\b`)},
	{"mission_overview", compileAll(`\bmission\b`, `\boverview\b`, `\bobjectives?\b`)},
	{"applications", compileAll(`\bapplications?\b`, `\buse\s+cases?\b`, `\bmonitoring\b`)},
	{"faq", compileAll(`\bfaq\b`, `\bfrequently\s+asked\b`)},
}

// Analyzer parses a free-text query into structured retrieval signals.
// Pure pattern matching, no I/O, safe for concurrent use.
type Analyzer struct{}

// NewAnalyzer creates a query analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze extracts mission codes, instruments, processing levels,
// document type, and query intent from a query. Case-insensitive and
// deterministic.
func (a *Analyzer) Analyze(query string) models.QueryAnalysis {
	q := strings.ToLower(query)

	analysis := models.QueryAnalysis{
		QueryType:    a.classifyQueryType(q),
		Mission:      a.ExtractMission(q),
		Missions:     a.ExtractMissions(q),
		DocumentType: a.ExtractDocumentType(q),
		Instruments:  a.extractInstruments(q),
		Products:     a.extractProducts(q),
	}

	return analysis
}

// ExtractMission returns the first mission code matched in the text, or "".
func (a *Analyzer) ExtractMission(text string) string {
	q := strings.ToLower(text)
	for _, mp := range missionPatterns {
		for _, p := range mp.patterns {
			if p.MatchString(q) {
				return mp.code
			}
		}
	}
	return ""
}

// ExtractMissions returns every distinct mission code found, in pattern
// table order. Used to detect comparative multi-mission queries.
func (a *Analyzer) ExtractMissions(text string) []string {
	q := strings.ToLower(text)
	var codes []string
	for _, mp := range missionPatterns {
		for _, p := range mp.patterns {
			if p.MatchString(q) {
				codes = append(codes, mp.code)
				break
			}
		}
	}
	return codes
}

// ExtractDocumentType returns the first document type whose pattern list
// matches, or "".
func (a *Analyzer) ExtractDocumentType(text string) string {
	q := strings.ToLower(text)
	for _, dt := range documentTypePatterns {
		for _, p := range dt.patterns {
			if p.MatchString(q) {
				return dt.docType
			}
		}
	}
	return ""
}

func (a *Analyzer) extractInstruments(q string) []string {
	// Fixed iteration order so the result is deterministic
	order := []string{"SAR", "OLCI", "SLSTR", "MSI", "SRAL", "MWR", "TROPOMI"}
	var found []string
	for _, name := range order {
		if instrumentPatterns[name].MatchString(q) {
			found = append(found, name)
		}
	}
	return found
}

func (a *Analyzer) extractProducts(q string) []string {
	seen := make(map[string]bool)
	var products []string

	add := func(code string) {
		if !seen[code] {
			seen[code] = true
			products = append(products, code)
		}
	}

	for _, m := range productLevelPattern.FindAllStringSubmatch(q, -1) {
		code := "L" + m[1] + strings.ToUpper(m[2])
		add(code)
	}
	for _, m := range productSpelledLevel.FindAllStringSubmatch(q, -1) {
		code := "L" + m[1] + strings.ToUpper(m[2])
		add(code)
	}

	return products
}

func (a *Analyzer) classifyQueryType(q string) models.QueryType {
	for _, p := range procedurePatterns {
		if p.MatchString(q) {
			return models.QueryTypeProcedure
		}
	}
	for _, p := range definitionPatterns {
		if p.MatchString(q) {
			return models.QueryTypeDefinition
		}
	}
	for _, p := range specificationPatterns {
		if p.MatchString(q) {
			return models.QueryTypeSpecification
		}
	}
	return models.QueryTypeGeneral
}

// ShouldUseComparativeResponse reports whether the retrieved set spans
// more than one mission, in which case the answer prompt asks for an
// explicitly labeled comparison.
func ShouldUseComparativeResponse(docs []models.Chunk) bool {
	seen := make(map[string]bool)
	for i := range docs {
		if m := docs[i].Mission(); m != "" {
			seen[m] = true
		}
	}
	return len(seen) > 1
}
