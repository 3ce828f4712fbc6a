package metadata

import (
	"reflect"
	"testing"

	"github.com/ternarybob/responsa/internal/models"
)

func TestExtractMission(t *testing.T) {
	a := NewAnalyzer()

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"hyphenated", "What is the revisit time of Sentinel-1?", "S1"},
		{"spaced", "sentinel 2 cloud masking", "S2"},
		{"short alias", "s3 marine products", "S3"},
		{"platform suffix", "S1A orbit parameters", "S1"},
		{"s5p before s5", "TROPOMI on Sentinel-5P", "S5P"},
		{"expansion mission", "CHIME hyperspectral bands", "CHIME"},
		{"no mission", "how do I download data", ""},
		{"no partial word match", "is1 processing", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.ExtractMission(tt.query)
			if got != tt.want {
				t.Errorf("ExtractMission(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestExtractMissions(t *testing.T) {
	a := NewAnalyzer()

	got := a.ExtractMissions("Compare Sentinel-1 SAR with Sentinel-2 optical imagery")
	want := []string{"S1", "S2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractMissions() = %v, want %v", got, want)
	}

	if got := a.ExtractMissions("generic question"); got != nil {
		t.Errorf("ExtractMissions() = %v, want nil", got)
	}
}

func TestClassifyQueryType(t *testing.T) {
	a := NewAnalyzer()

	tests := []struct {
		query string
		want  models.QueryType
	}{
		{"How do I calibrate SAR data?", models.QueryTypeProcedure},
		{"steps to download Level-2 products", models.QueryTypeProcedure},
		{"What is OLCI?", models.QueryTypeDefinition},
		{"explain atmospheric correction", models.QueryTypeDefinition},
		{"Sentinel-2 spatial resolution", models.QueryTypeSpecification},
		{"swath width of the instrument", models.QueryTypeSpecification},
		{"latest mission news", models.QueryTypeGeneral},
		// Procedure wins over specification when both match
		{"how do I find the resolution", models.QueryTypeProcedure},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			analysis := a.Analyze(tt.query)
			if analysis.QueryType != tt.want {
				t.Errorf("Analyze(%q).QueryType = %q, want %q", tt.query, analysis.QueryType, tt.want)
			}
		})
	}
}

func TestExtractProducts(t *testing.T) {
	a := NewAnalyzer()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"short form", "download l1c tiles", []string{"L1C"}},
		{"spelled out", "level 2 ocean products", []string{"L2"}},
		{"hyphenated spelled", "level-1 processing", []string{"L1"}},
		{"deduplicated", "level 2 and L2 products", []string{"L2"}},
		{"none", "mission overview", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := a.Analyze(tt.query)
			if !reflect.DeepEqual(analysis.Products, tt.want) {
				t.Errorf("Analyze(%q).Products = %v, want %v", tt.query, analysis.Products, tt.want)
			}
		})
	}
}

func TestExtractInstruments(t *testing.T) {
	a := NewAnalyzer()

	analysis := a.Analyze("Does OLCI or SLSTR cover thermal bands?")
	want := []string{"OLCI", "SLSTR"}
	if !reflect.DeepEqual(analysis.Instruments, want) {
		t.Errorf("Instruments = %v, want %v", analysis.Instruments, want)
	}
}

func TestExtractDocumentType(t *testing.T) {
	a := NewAnalyzer()

	tests := []struct {
		query string
		want  string
	}{
		{"where is the user guide", "user_guide"},
		{"technical requirements for the antenna", "technical_spec"},
		{"available data products", "product_info"},
		{"mission objectives", "mission_overview"},
		{"agriculture monitoring use cases", "applications"},
		{"random question", ""},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := a.ExtractDocumentType(tt.query)
			if got != tt.want {
				t.Errorf("ExtractDocumentType(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestShouldUseComparativeResponse(t *testing.T) {
	single := []models.Chunk{
		{Metadata: map[string]interface{}{"mission": "S1"}},
		{Metadata: map[string]interface{}{"mission": "S1"}},
		{Metadata: map[string]interface{}{}},
	}
	if ShouldUseComparativeResponse(single) {
		t.Error("expected false for single-mission docs")
	}

	multi := append(single, models.Chunk{Metadata: map[string]interface{}{"mission": "S2"}})
	if !ShouldUseComparativeResponse(multi) {
		t.Error("expected true for multi-mission docs")
	}
}
