package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const evaluationColumns = `id, objective_id, partner_id, product_id, llm_model,
	prompt, response, status, mention_found, score, ranking, total_competitors,
	recommendation_likelihood, competitive_strengths, competitive_weaknesses,
	market_position, key_differentiators, evaluation, error, created_at`

// CreateEvaluation inserts a finished evaluation row. Evaluations are
// insert-only; a re-run of the objective produces new rows.
func (s *Store) CreateEvaluation(e Evaluation) error {
	strengths := e.CompetitiveStrengths
	if strengths == "" {
		strengths = "[]"
	}
	weaknesses := e.CompetitiveWeaknesses
	if weaknesses == "" {
		weaknesses = "[]"
	}
	differentiators := e.KeyDifferentiators
	if differentiators == "" {
		differentiators = "[]"
	}

	_, err := s.db.Exec(`
		INSERT INTO evaluations (`+evaluationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ObjectiveID, e.PartnerID, e.ProductID, e.LLMModel,
		e.Prompt, e.Response, e.Status, boolToInt(e.MentionFound),
		e.Score, e.Ranking, e.TotalCompetitors, e.RecommendationLikelihood,
		strengths, weaknesses, e.MarketPosition, differentiators,
		e.Evaluation, e.Error, e.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetEvaluation(id string) (Evaluation, error) {
	row := s.db.QueryRow(`SELECT `+evaluationColumns+` FROM evaluations WHERE id = ?`, id)
	e, err := scanEvaluation(row)
	if err == sql.ErrNoRows {
		return Evaluation{}, ErrNotFound
	}
	return e, err
}

func (s *Store) ListEvaluations(f EvaluationFilters, limit, offset int) ([]Evaluation, error) {
	where, args := evaluationWhere(f)
	args = append(args, limit, offset)

	rows, err := s.db.Query(`SELECT `+evaluationColumns+` FROM evaluations`+where+`
		ORDER BY created_at DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Evaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

func (s *Store) CountEvaluations(f EvaluationFilters) (int, error) {
	where, args := evaluationWhere(f)
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM evaluations`+where, args...).Scan(&n)
	return n, err
}

func evaluationWhere(f EvaluationFilters) (string, []any) {
	var conds []string
	var args []any
	if f.PartnerID != "" {
		conds = append(conds, "partner_id = ?")
		args = append(args, f.PartnerID)
	}
	if f.ProductID != "" {
		conds = append(conds, "product_id = ?")
		args = append(args, f.ProductID)
	}
	if f.ObjectiveID != "" {
		conds = append(conds, "objective_id = ?")
		args = append(args, f.ObjectiveID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanEvaluation(r rowScanner) (Evaluation, error) {
	var e Evaluation
	var mention int
	var createdAt string
	var score sql.NullFloat64
	var ranking, totalCompetitors, recommendation sql.NullInt64
	err := r.Scan(&e.ID, &e.ObjectiveID, &e.PartnerID, &e.ProductID, &e.LLMModel,
		&e.Prompt, &e.Response, &e.Status, &mention, &score, &ranking,
		&totalCompetitors, &recommendation, &e.CompetitiveStrengths,
		&e.CompetitiveWeaknesses, &e.MarketPosition, &e.KeyDifferentiators,
		&e.Evaluation, &e.Error, &createdAt)
	if err != nil {
		return Evaluation{}, err
	}
	e.MentionFound = mention != 0
	if score.Valid {
		v := score.Float64
		e.Score = &v
	}
	if ranking.Valid {
		v := int(ranking.Int64)
		e.Ranking = &v
	}
	if totalCompetitors.Valid {
		v := int(totalCompetitors.Int64)
		e.TotalCompetitors = &v
	}
	if recommendation.Valid {
		v := int(recommendation.Int64)
		e.RecommendationLikelihood = &v
	}
	if e.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Evaluation{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return e, nil
}
