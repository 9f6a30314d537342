// Package dashboard aggregates evaluation data for the operator
// dashboard: headline counts plus a per-objective recent-run summary.
package dashboard

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/kalambet/brandlens/internal/storage"
)

// Stats are the headline dashboard numbers. SuccessRate is the
// percentage of all evaluations that completed with a mention, rounded
// to the nearest integer.
type Stats struct {
	TotalPartners    int `json:"totalPartners"`
	ActiveObjectives int `json:"activeObjectives"`
	TotalEvaluations int `json:"totalEvaluations"`
	SuccessRate      int `json:"successRate"`
}

// RecentEvaluation summarizes the latest run of one objective:
// the newest evaluation row plus aggregates over all of that
// objective's rows.
type RecentEvaluation struct {
	ID             string    `json:"id"`
	PartnerName    string    `json:"partnerName"`
	ProductName    string    `json:"productName"`
	ObjectiveTitle string    `json:"objectiveTitle"`
	ModelCount     int       `json:"modelCount"`
	TotalModels    int       `json:"totalModels"`
	AvgScore       *float64  `json:"avgScore"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Service computes dashboard aggregates directly against the store.
type Service struct {
	store *storage.Store
}

func NewService(store *storage.Store) *Service {
	return &Service{store: store}
}

// Stats returns the headline counts. A run counts toward the success
// rate only when it completed and the partner was mentioned.
func (s *Service) Stats() (Stats, error) {
	var out Stats
	var err error

	if out.TotalPartners, err = s.store.CountPartners(storage.PartnerFilters{ActiveOnly: true}); err != nil {
		return Stats{}, fmt.Errorf("counting partners: %w", err)
	}
	if out.TotalEvaluations, err = s.store.CountEvaluations(storage.EvaluationFilters{}); err != nil {
		return Stats{}, fmt.Errorf("counting evaluations: %w", err)
	}

	db := s.store.DB()
	if err := db.QueryRow(`SELECT COUNT(*) FROM objectives WHERE is_active = 1`).Scan(&out.ActiveObjectives); err != nil {
		return Stats{}, fmt.Errorf("counting objectives: %w", err)
	}

	var successful int
	err = db.QueryRow(`SELECT COUNT(*) FROM evaluations WHERE status = ? AND mention_found = 1`,
		storage.StatusCompleted).Scan(&successful)
	if err != nil {
		return Stats{}, fmt.Errorf("counting successful evaluations: %w", err)
	}

	if out.TotalEvaluations > 0 {
		out.SuccessRate = int(math.Round(float64(successful) / float64(out.TotalEvaluations) * 100))
	}
	return out, nil
}

// RecentEvaluations returns up to limit objectives ordered by their
// most recent run, newest first. Objectives whose partner, product, or
// objective record is missing are skipped. If limit is <= 0 it
// defaults to 5.
func (s *Service) RecentEvaluations(limit int) ([]RecentEvaluation, error) {
	if limit <= 0 {
		limit = 5
	}

	// The joins double as referential guards: an evaluation whose
	// objective, partner, or product record is gone drops out here.
	rows, err := s.store.DB().Query(`
		SELECT
			e.objective_id,
			MAX(e.created_at),
			SUM(CASE WHEN e.status = ? THEN 1 ELSE 0 END),
			AVG(CASE WHEN e.status = ? THEN e.score END),
			o.title,
			o.llm_models,
			p.name,
			pr.name
		FROM evaluations e
		JOIN objectives o ON o.id = e.objective_id
		JOIN partners p ON p.id = e.partner_id
		JOIN products pr ON pr.id = e.product_id
		GROUP BY e.objective_id
		ORDER BY MAX(e.created_at) DESC
		LIMIT ?`,
		storage.StatusCompleted, storage.StatusCompleted, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying recent evaluations: %w", err)
	}
	defer rows.Close()

	// Drain the cursor before issuing follow-up queries: the store runs
	// on a single connection.
	var results []RecentEvaluation
	var objectiveIDs []string
	for rows.Next() {
		var (
			objectiveID, latest, llmModels string
			rec                            RecentEvaluation
			avg                            sql.NullFloat64
		)
		if err := rows.Scan(&objectiveID, &latest, &rec.ModelCount, &avg,
			&rec.ObjectiveTitle, &llmModels, &rec.PartnerName, &rec.ProductName); err != nil {
			return nil, fmt.Errorf("scanning recent evaluation: %w", err)
		}

		if rec.CreatedAt, err = time.Parse(time.RFC3339, latest); err != nil {
			return nil, fmt.Errorf("parsing created_at for objective %s: %w", objectiveID, err)
		}
		if avg.Valid {
			rounded := math.Round(avg.Float64*10) / 10
			rec.AvgScore = &rounded
		}

		var models []string
		if err := json.Unmarshal([]byte(llmModels), &models); err == nil {
			rec.TotalModels = len(models)
		}

		results = append(results, rec)
		objectiveIDs = append(objectiveIDs, objectiveID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	// Identity and status come from the newest row of each group.
	for i, objectiveID := range objectiveIDs {
		err := s.store.DB().QueryRow(`
			SELECT id, status FROM evaluations
			WHERE objective_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT 1`, objectiveID,
		).Scan(&results[i].ID, &results[i].Status)
		if err != nil {
			return nil, fmt.Errorf("loading latest evaluation for objective %s: %w", objectiveID, err)
		}
	}
	return results, nil
}
