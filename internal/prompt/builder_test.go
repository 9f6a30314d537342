package prompt

import (
	"strings"
	"testing"

	"github.com/kalambet/brandlens/internal/storage"
)

func testContext() Context {
	return Context{
		Objective: storage.Objective{
			Title:    "Brand Attractiveness",
			Question: "How attractive is Acme Spa?",
		},
		Partner: storage.Partner{
			Name:     "Acme Spa",
			Industry: "Wellness",
			City:     "Munich",
			Country:  "Germany",
		},
		Product: storage.Product{
			Name:        "Acme Spa Berlin",
			Description: "Premium day spa",
			City:        "Berlin",
			Country:     "Germany",
			Price:       29.5,
			Currency:    "EUR",
		},
	}
}

func TestBuildContainsContextFields(t *testing.T) {
	got := Build(testContext())

	for _, want := range []string{
		"Acme Spa",
		"Acme Spa Berlin",
		"Berlin, Germany",
		"How attractive is Acme Spa?",
		"Brand Attractiveness",
		"(Wellness)",
		"Premium day spa",
		"29.5 EUR",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildContainsResponseContract(t *testing.T) {
	got := Build(testContext())

	// Every key the analyzer reads must be promised in the contract.
	for _, key := range []string{
		`"evaluation"`, `"mentionFound"`, `"ranking"`, `"totalCompetitors"`,
		`"recommendationLikelihood"`, `"competitiveStrengths"`, `"competitiveWeaknesses"`,
		`"marketPosition"`, `"keyDifferentiators"`, `"overallScore"`,
	} {
		if !strings.Contains(got, key) {
			t.Errorf("response contract missing key %s", key)
		}
	}

	if !strings.Contains(got, "Do not wrap it in markdown code blocks") {
		t.Error("prompt missing the no-markdown instruction")
	}
}

func TestBuildLocationFallsBackToPartner(t *testing.T) {
	ctx := testContext()
	ctx.Product.City = ""
	ctx.Product.Country = ""

	got := Build(ctx)
	if !strings.Contains(got, "Munich, Germany") {
		t.Error("expected fallback to partner city and country")
	}
}

func TestBuildOmitsOptionalFields(t *testing.T) {
	ctx := testContext()
	ctx.Partner.Industry = ""
	ctx.Product.Description = ""
	ctx.Product.Price = 0

	got := Build(ctx)
	if strings.Contains(got, "Price Point") {
		t.Error("price line rendered without a price")
	}
	if strings.Contains(got, "()") {
		t.Error("empty industry parentheses rendered")
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	ctx := testContext()
	if Build(ctx) != Build(ctx) {
		t.Error("Build is not deterministic for identical input")
	}
}
