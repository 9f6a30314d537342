// Package prompt renders evaluation prompts from partner, product, and
// objective records. Build is a pure function: the same context always
// produces the same string, and the prompt is model-agnostic so one
// render is reused across every model in an objective's list.
package prompt

import (
	"fmt"
	"strings"

	"github.com/kalambet/brandlens/internal/storage"
)

// Context carries everything the prompt needs. Partner and Product are
// the resolved records the objective references.
type Context struct {
	Objective storage.Objective
	Partner   storage.Partner
	Product   storage.Product
}

// Build renders the evaluation prompt. The response contract at the end
// must stay in sync with analysis.Analyze: the analyzer reads exactly
// the keys promised here.
func Build(ctx Context) string {
	var sb strings.Builder

	sb.WriteString("You are an AI assistant helping a business intelligence service evaluate market positioning for B2B clients.\n\n")

	fmt.Fprintf(&sb, "BUSINESS CONTEXT:\nOur client %q is using our evaluation service to understand their market position. They have configured this objective as part of their ongoing market intelligence strategy.\n\n", ctx.Partner.Name)

	sb.WriteString("CLIENT INFORMATION:\n")
	fmt.Fprintf(&sb, "- Company: %s", ctx.Partner.Name)
	if ctx.Partner.Industry != "" {
		fmt.Fprintf(&sb, " (%s)", ctx.Partner.Industry)
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "- Product/Service Being Evaluated: %s", ctx.Product.Name)
	if ctx.Product.Description != "" {
		fmt.Fprintf(&sb, " - %s", ctx.Product.Description)
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "- Location: %s, %s\n", locationCity(ctx), locationCountry(ctx))

	if ctx.Product.Price > 0 {
		fmt.Fprintf(&sb, "- Price Point: %g %s\n", ctx.Product.Price, ctx.Product.Currency)
	}

	fmt.Fprintf(&sb, "\nEVALUATION OBJECTIVE:\nTitle: %s\nQuestion: %s\n\n", ctx.Objective.Title, ctx.Objective.Question)

	sb.WriteString(`TASK:
Respond to the evaluation question as if you were providing information to a potential customer inquiring about this topic. Your response should reflect what a real person asking this question would typically receive, helping our client understand:

1. How their product/service would be positioned in your response
2. Whether they would be mentioned or recommended
3. Their likely ranking or visibility in the market
4. Competitive landscape insights
5. Key factors that influence recommendations in this space

RESPONSE FORMAT:
You must respond with a valid JSON object containing the following fields:

{
  "evaluation": "Your comprehensive response answering the evaluation question naturally, as you would for a real customer inquiry. Include rankings, comparisons, and specific recommendations.",
  "mentionFound": true or false - whether the client's company/product was mentioned in your evaluation,
  "ranking": 3 or null - if you ranked them, their position (1st, 2nd, 3rd, etc.), null if not applicable,
  "totalCompetitors": 15 or null - total number of businesses/options you mentioned in your evaluation,
  "recommendationLikelihood": 85 - percentage from 0-100 representing likelihood you would recommend this client,
  "competitiveStrengths": ["Unique design", "Great location", "Excellent service"] - up to 5 key competitive advantages,
  "competitiveWeaknesses": ["Higher prices", "Limited locations"] - up to 3 main areas where they could improve,
  "marketPosition": "premium leader" - description like "market leader", "premium specialist", "emerging challenger", "niche player",
  "keyDifferentiators": ["Balinese architecture", "Holistic approach"] - what makes them unique vs competitors,
  "overallScore": 8.5 - score from 0-10 representing their market strength and recommendation worthiness
}

IMPORTANT: Respond with ONLY the raw JSON object. Do not wrap it in markdown code blocks or add any explanatory text. Start your response directly with { and end with }. No backticks, no additional formatting.`)

	return sb.String()
}

// locationCity prefers the product's city and falls back to the partner's.
func locationCity(ctx Context) string {
	if ctx.Product.City != "" {
		return ctx.Product.City
	}
	return ctx.Partner.City
}

// locationCountry prefers the product's country and falls back to the partner's.
func locationCountry(ctx Context) string {
	if ctx.Product.Country != "" {
		return ctx.Product.Country
	}
	return ctx.Partner.Country
}
