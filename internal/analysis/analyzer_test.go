package analysis

import (
	"reflect"
	"testing"
)

const structuredResponse = `{
	"evaluation": "Acme Spa ranks among the top Berlin spas.",
	"mentionFound": true,
	"ranking": 2,
	"totalCompetitors": 15,
	"recommendationLikelihood": 85,
	"competitiveStrengths": ["Unique design", "Great location"],
	"competitiveWeaknesses": ["Higher prices"],
	"marketPosition": "premium leader",
	"keyDifferentiators": ["Balinese architecture"],
	"overallScore": 8.5
}`

func TestAnalyze_StructuredRoundTrip(t *testing.T) {
	got := Analyze(structuredResponse, "Acme Spa")

	if got.Source != SourceStructured {
		t.Fatalf("Source = %q, want structured", got.Source)
	}
	if !got.MentionFound {
		t.Error("MentionFound = false")
	}
	if got.Score == nil || *got.Score != 8.5 {
		t.Errorf("Score = %v, want 8.5", got.Score)
	}
	if got.Ranking == nil || *got.Ranking != 2 {
		t.Errorf("Ranking = %v, want 2", got.Ranking)
	}
	if got.TotalCompetitors == nil || *got.TotalCompetitors != 15 {
		t.Errorf("TotalCompetitors = %v, want 15", got.TotalCompetitors)
	}
	if got.RecommendationLikelihood == nil || *got.RecommendationLikelihood != 85 {
		t.Errorf("RecommendationLikelihood = %v, want 85", got.RecommendationLikelihood)
	}
	if !reflect.DeepEqual(got.CompetitiveStrengths, []string{"Unique design", "Great location"}) {
		t.Errorf("CompetitiveStrengths = %v", got.CompetitiveStrengths)
	}
	if !reflect.DeepEqual(got.CompetitiveWeaknesses, []string{"Higher prices"}) {
		t.Errorf("CompetitiveWeaknesses = %v", got.CompetitiveWeaknesses)
	}
	if got.MarketPosition != "premium leader" {
		t.Errorf("MarketPosition = %q", got.MarketPosition)
	}
	if got.Evaluation != "Acme Spa ranks among the top Berlin spas." {
		t.Errorf("Evaluation = %q", got.Evaluation)
	}
}

// TestAnalyze_FenceStripping verifies fenced and unfenced responses
// produce identical results.
func TestAnalyze_FenceStripping(t *testing.T) {
	want := Analyze(structuredResponse, "Acme Spa")

	tests := []struct {
		name string
		raw  string
	}{
		{"json fence", "```json\n" + structuredResponse + "\n```"},
		{"bare fence", "```\n" + structuredResponse + "\n```"},
		{"fence with surrounding whitespace", "  ```json\n" + structuredResponse + "\n```  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Analyze(tt.raw, "Acme Spa")
			if !reflect.DeepEqual(got, want) {
				t.Errorf("fenced result differs from unfenced:\ngot  %+v\nwant %+v", got, want)
			}
		})
	}
}

func TestAnalyze_HeuristicMentionAndScore(t *testing.T) {
	raw := "I would definitely recommend ACME SPA to anyone visiting Berlin. Score: 7/10 overall."
	got := Analyze(raw, "Acme Spa")

	if got.Source != SourceHeuristic {
		t.Fatalf("Source = %q, want heuristic", got.Source)
	}
	if !got.MentionFound {
		t.Error("MentionFound = false for case-insensitive mention")
	}
	if got.Score == nil || *got.Score != 7 {
		t.Errorf("Score = %v, want 7", got.Score)
	}
	if got.Evaluation != raw {
		t.Errorf("Evaluation should be the raw text verbatim, got %q", got.Evaluation)
	}
	if got.Ranking != nil || got.TotalCompetitors != nil || got.MarketPosition != "" {
		t.Errorf("heuristic path must leave structured fields unset: %+v", got)
	}
}

func TestAnalyze_HeuristicNoHint(t *testing.T) {
	got := Analyze("Some spa is mentioned here, score: 9/10", "")
	if got.MentionFound {
		t.Error("MentionFound = true without a partner name hint")
	}
	if got.Score == nil || *got.Score != 9 {
		t.Errorf("Score = %v, want 9", got.Score)
	}
}

func TestAnalyze_HeuristicScoreRange(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *float64
	}{
		{"in range", "Score: 7/10", ptr(7.0)},
		{"decimal", "score: 8.5/10", ptr(8.5)},
		{"out of range rejected", "Score: 15/10", nil},
		{"no score", "great spa, no numbers here", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Analyze(tt.raw, "")
			switch {
			case tt.want == nil && got.Score != nil:
				t.Errorf("Score = %v, want unset", *got.Score)
			case tt.want != nil && (got.Score == nil || *got.Score != *tt.want):
				t.Errorf("Score = %v, want %v", got.Score, *tt.want)
			}
		})
	}
}

func TestAnalyze_DefensiveFieldReads(t *testing.T) {
	// Wrong-typed fields are ignored, not fatal.
	raw := `{
		"evaluation": 42,
		"mentionFound": "yes",
		"ranking": "first",
		"overallScore": "high",
		"competitiveStrengths": "not an array",
		"marketPosition": ["not", "a", "string"]
	}`
	got := Analyze(raw, "Acme")

	if got.Source != SourceStructured {
		t.Fatalf("Source = %q, want structured (valid JSON)", got.Source)
	}
	if got.MentionFound {
		t.Error("wrong-typed mentionFound should read as false")
	}
	if got.Score != nil || got.Ranking != nil {
		t.Error("wrong-typed numerics should stay unset")
	}
	if got.CompetitiveStrengths != nil || got.MarketPosition != "" || got.Evaluation != "" {
		t.Errorf("wrong-typed fields leaked through: %+v", got)
	}
}

func TestAnalyze_ClampsListLengths(t *testing.T) {
	raw := `{
		"competitiveStrengths": ["a","b","c","d","e","f","g"],
		"competitiveWeaknesses": ["a","b","c","d","e"]
	}`
	got := Analyze(raw, "")

	if len(got.CompetitiveStrengths) != 5 {
		t.Errorf("strengths clamped to %d, want 5", len(got.CompetitiveStrengths))
	}
	if len(got.CompetitiveWeaknesses) != 3 {
		t.Errorf("weaknesses clamped to %d, want 3", len(got.CompetitiveWeaknesses))
	}
}

func TestAnalyze_IntegerFromFloat(t *testing.T) {
	got := Analyze(`{"ranking": 3.0, "totalCompetitors": 12.0}`, "")
	if got.Ranking == nil || *got.Ranking != 3 {
		t.Errorf("Ranking = %v, want 3", got.Ranking)
	}
	if got.TotalCompetitors == nil || *got.TotalCompetitors != 12 {
		t.Errorf("TotalCompetitors = %v, want 12", got.TotalCompetitors)
	}
}

func ptr(f float64) *float64 { return &f }
