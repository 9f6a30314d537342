// Package analysis extracts structured competitive-positioning signals
// from raw LLM output. Model output is not guaranteed to respect the
// requested JSON contract, so extraction is two-tier: a structured path
// for valid JSON and a degraded heuristic path that still recovers a
// mention flag and a score from free text.
package analysis

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
)

// Source tags which extraction path produced a Result. Callers branch
// on the variant instead of on error types: a heuristic Result only
// guarantees MentionFound, Score, and Evaluation.
type Source string

const (
	// SourceStructured means the response parsed as JSON and every
	// contract field was read defensively.
	SourceStructured Source = "structured"
	// SourceHeuristic means the response was not valid JSON and only
	// substring/regex extraction was applied.
	SourceHeuristic Source = "heuristic"
)

const (
	maxStrengths  = 5
	maxWeaknesses = 3
)

// Result is the normalized extraction outcome. Every field is optional;
// numeric fields are nil when the response did not provide them.
type Result struct {
	Source                   Source
	MentionFound             bool
	Score                    *float64
	Ranking                  *int
	TotalCompetitors         *int
	RecommendationLikelihood *int
	CompetitiveStrengths     []string
	CompetitiveWeaknesses    []string
	MarketPosition           string
	KeyDifferentiators       []string
	Evaluation               string
}

var scorePattern = regexp.MustCompile(`(?i)score:\s*(\d+(?:\.\d+)?)\s*/?\s*10?`)

// Analyze parses raw model output into a Result. partnerName is the
// hint used by the heuristic path's mention search; pass "" when no
// hint is available. Analyze never fails: malformed responses degrade
// to the heuristic path instead of erroring.
func Analyze(raw string, partnerName string) Result {
	clean := stripFence(strings.TrimSpace(raw))

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(clean), &fields); err != nil {
		slog.Warn("response is not valid JSON, falling back to heuristic extraction", "error", err)
		return analyzeHeuristic(raw, partnerName)
	}

	r := Result{Source: SourceStructured}
	r.MentionFound = readBool(fields, "mentionFound")
	r.Score = readFloat(fields, "overallScore")
	r.Ranking = readInt(fields, "ranking")
	r.TotalCompetitors = readInt(fields, "totalCompetitors")
	r.RecommendationLikelihood = readInt(fields, "recommendationLikelihood")
	r.CompetitiveStrengths = clampList(readStrings(fields, "competitiveStrengths"), maxStrengths)
	r.CompetitiveWeaknesses = clampList(readStrings(fields, "competitiveWeaknesses"), maxWeaknesses)
	r.MarketPosition = readString(fields, "marketPosition")
	r.KeyDifferentiators = readStrings(fields, "keyDifferentiators")
	r.Evaluation = readString(fields, "evaluation")
	return r
}

// analyzeHeuristic is the degraded path for non-JSON responses: a
// case-insensitive mention search plus a "score: N/10" regex. All other
// structured fields stay unset.
func analyzeHeuristic(raw string, partnerName string) Result {
	r := Result{
		Source:     SourceHeuristic,
		Evaluation: raw,
	}

	if partnerName != "" {
		r.MentionFound = strings.Contains(strings.ToLower(raw), strings.ToLower(partnerName))
	}

	if m := scorePattern.FindStringSubmatch(raw); m != nil {
		var score float64
		if err := json.Unmarshal([]byte(m[1]), &score); err == nil && score >= 0 && score <= 10 {
			r.Score = &score
		}
	}

	return r
}

// stripFence removes a wrapping markdown code fence, with or without a
// json language tag. Anything else is returned unchanged.
func stripFence(s string) string {
	switch {
	case strings.HasPrefix(s, "```json") && strings.HasSuffix(s, "```") && len(s) > len("```json")+3:
		return strings.TrimSpace(s[len("```json") : len(s)-3])
	case strings.HasPrefix(s, "```") && strings.HasSuffix(s, "```") && len(s) > 6:
		return strings.TrimSpace(s[3 : len(s)-3])
	}
	return s
}

// The readers below are deliberately forgiving: a missing or
// wrong-typed field leaves the Result field unset rather than failing
// the whole parse.

func readBool(fields map[string]json.RawMessage, key string) bool {
	raw, ok := fields[key]
	if !ok {
		return false
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	return v
}

func readString(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	return v
}

func readFloat(fields map[string]json.RawMessage, key string) *float64 {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}

func readInt(fields map[string]json.RawMessage, key string) *int {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	// Models sometimes emit "3" as 3.0; accept any JSON number.
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	v := int(f)
	return &v
}

func readStrings(fields map[string]json.RawMessage, key string) []string {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	var v []string
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

func clampList(list []string, max int) []string {
	if len(list) > max {
		return list[:max]
	}
	return list
}
