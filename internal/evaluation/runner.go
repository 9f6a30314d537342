// Package evaluation orchestrates objective runs: it resolves the
// objective's partner and product, renders the prompt once, fans out
// over the configured model list, analyzes each response, and persists
// one evaluation row per model.
package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/brandlens/internal/analysis"
	"github.com/kalambet/brandlens/internal/llm"
	"github.com/kalambet/brandlens/internal/prompt"
	"github.com/kalambet/brandlens/internal/storage"
)

// Generator is the gateway interface the runner needs. Implemented by
// llm.Client; tests swap in fakes.
type Generator interface {
	Generate(ctx context.Context, prompt string, modelID llm.ModelID) (llm.Response, error)
}

// RunStore is the storage surface the runner needs.
type RunStore interface {
	GetObjective(id string) (storage.Objective, error)
	GetPartner(id string) (storage.Partner, error)
	GetProduct(id string) (storage.Product, error)
	CreateEvaluation(e storage.Evaluation) error
}

// Runner executes objectives against their configured model lists.
type Runner struct {
	store   RunStore
	gateway Generator
	logger  *slog.Logger
}

// NewRunner creates a Runner wired to storage and the LLM gateway.
func NewRunner(store RunStore, gateway Generator) *Runner {
	return &Runner{
		store:   store,
		gateway: gateway,
		logger:  slog.Default(),
	}
}

// Run executes the objective against every model in its list, in
// configured order, one model at a time. Referential integrity is
// checked at use-time: a missing objective, partner, or product fails
// the whole run with storage.ErrNotFound wrapped in context.
//
// Model calls are isolated: a gateway failure produces a FAILED row
// carrying the error and the remaining models still run. Run itself
// only errors on lookup or persistence failures.
func (r *Runner) Run(ctx context.Context, objectiveID string) ([]storage.Evaluation, error) {
	objective, err := r.store.GetObjective(objectiveID)
	if err != nil {
		return nil, fmt.Errorf("loading objective %s: %w", objectiveID, err)
	}
	partner, err := r.store.GetPartner(objective.PartnerID)
	if err != nil {
		return nil, fmt.Errorf("loading partner %s: %w", objective.PartnerID, err)
	}
	product, err := r.store.GetProduct(objective.ProductID)
	if err != nil {
		return nil, fmt.Errorf("loading product %s: %w", objective.ProductID, err)
	}

	models, err := parseModels(objective.LLMModels)
	if err != nil {
		return nil, fmt.Errorf("parsing model list for objective %s: %w", objectiveID, err)
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("objective %s has no configured models", objectiveID)
	}

	// The prompt is model-agnostic: render once, reuse for every model.
	rendered := prompt.Build(prompt.Context{
		Objective: objective,
		Partner:   partner,
		Product:   product,
	})

	results := make([]storage.Evaluation, 0, len(models))
	for _, model := range models {
		row := r.runModel(ctx, rendered, model, objective, partner)
		if err := r.store.CreateEvaluation(row); err != nil {
			return results, fmt.Errorf("persisting evaluation for model %s: %w", model, err)
		}
		results = append(results, row)
	}

	r.logger.Info("objective run complete",
		"objective_id", objectiveID,
		"models", len(models),
		"evaluations", len(results),
	)
	return results, nil
}

// runModel performs one gateway call plus analysis and maps the outcome
// to an evaluation row. Gateway failures become FAILED rows rather than
// aborting the batch.
func (r *Runner) runModel(ctx context.Context, rendered string, model llm.ModelID, objective storage.Objective, partner storage.Partner) storage.Evaluation {
	row := storage.Evaluation{
		ID:          uuid.New().String(),
		ObjectiveID: objective.ID,
		PartnerID:   objective.PartnerID,
		ProductID:   objective.ProductID,
		LLMModel:    string(model),
		Prompt:      rendered,
		CreatedAt:   time.Now().UTC(),
	}

	resp, err := r.gateway.Generate(ctx, rendered, model)
	if err != nil {
		r.logger.Warn("gateway call failed, recording failed evaluation",
			"objective_id", objective.ID, "model", model, "error", err)
		row.Status = storage.StatusFailed
		row.Error = err.Error()
		return row
	}

	extracted := analysis.Analyze(resp.Text, partner.Name)

	row.Status = storage.StatusCompleted
	row.Response = resp.Text
	row.MentionFound = extracted.MentionFound
	row.Score = extracted.Score
	row.Ranking = extracted.Ranking
	row.TotalCompetitors = extracted.TotalCompetitors
	row.RecommendationLikelihood = extracted.RecommendationLikelihood
	row.CompetitiveStrengths = marshalList(extracted.CompetitiveStrengths)
	row.CompetitiveWeaknesses = marshalList(extracted.CompetitiveWeaknesses)
	row.MarketPosition = extracted.MarketPosition
	row.KeyDifferentiators = marshalList(extracted.KeyDifferentiators)
	row.Evaluation = extracted.Evaluation

	if extracted.Source == analysis.SourceHeuristic {
		r.logger.Warn("structured parse failed, stored heuristic extraction",
			"objective_id", objective.ID, "model", model)
	}
	return row
}

// parseModels decodes the objective's JSON model list, preserving order
// and duplicates.
func parseModels(raw string) ([]llm.ModelID, error) {
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, err
	}
	models := make([]llm.ModelID, len(names))
	for i, n := range names {
		models[i] = llm.ModelID(n)
	}
	return models, nil
}

func marshalList(list []string) string {
	if len(list) == 0 {
		return "[]"
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(b)
}
