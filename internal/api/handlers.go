// Package api exposes the REST surface consumed by the dashboard SPA
// and operator tooling, plus the MCP server for agent access.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kalambet/brandlens/internal/dashboard"
	"github.com/kalambet/brandlens/internal/evaluation"
	"github.com/kalambet/brandlens/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// ObjectiveRunner runs an objective synchronously. Implemented by
// evaluation.Runner.
type ObjectiveRunner interface {
	Run(ctx context.Context, objectiveID string) ([]storage.Evaluation, error)
}

type AppDeps struct {
	Store     *storage.Store
	Dashboard *dashboard.Service
	Runner    ObjectiveRunner
	Token     string
}

// NewAppHandler returns the full REST API. /health is open; everything
// under /api requires the bearer token.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Get("/partners", handleListPartners(deps))
		r.Post("/partners", handleCreatePartner(deps))
		r.Get("/partners/{id}", handleGetPartner(deps))
		r.Put("/partners/{id}", handleUpdatePartner(deps))
		r.Delete("/partners/{id}", handleDeletePartner(deps))

		r.Get("/products", handleListProducts(deps))
		r.Post("/products", handleCreateProduct(deps))
		r.Get("/products/{id}", handleGetProduct(deps))

		r.Get("/objectives", handleListObjectives(deps))
		r.Post("/objectives", handleCreateObjective(deps))

		r.Get("/evaluations", handleListEvaluations(deps))
		r.Post("/evaluation", handleRunEvaluation(deps))

		r.Get("/executions", handleListExecutions(deps))
		r.Post("/executions", handleCreateExecution(deps))
		r.Get("/executions/{id}", handleGetExecution(deps))

		r.Get("/dashboard/stats", handleDashboardStats(deps))
		r.Get("/dashboard/recent-evaluations", handleRecentEvaluations(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// respondList writes the {success, count, data} envelope used by all
// collection endpoints.
func respondList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"count":   len(items),
		"data":    items,
	})
}

func respondData(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    data,
	})
}

// httpError writes the flat {error, message} shape the dashboard
// expects.
func httpError(w http.ResponseWriter, code int, errLabel string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"error":   errLabel,
		"message": fmt.Sprintf(format, args...),
	})
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

// --- partners ---

type partnerRequest struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	PartnerType  *string `json:"partnerType"`
	Website      *string `json:"website"`
	AddressLine1 *string `json:"addressLine1"`
	City         *string `json:"city"`
	State        *string `json:"state"`
	Country      *string `json:"country"`
	PostalCode   *string `json:"postalCode"`
	Industry     *string `json:"industry"`
	IsActive     *bool   `json:"isActive"`
}

type partnerView struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	PartnerType  string    `json:"partnerType"`
	Website      string    `json:"website"`
	AddressLine1 string    `json:"addressLine1"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	Country      string    `json:"country"`
	PostalCode   string    `json:"postalCode"`
	Industry     string    `json:"industry"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toPartnerView(p storage.Partner) partnerView {
	return partnerView{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		PartnerType:  p.PartnerType,
		Website:      p.Website,
		AddressLine1: p.AddressLine1,
		City:         p.City,
		State:        p.State,
		Country:      p.Country,
		PostalCode:   p.PostalCode,
		Industry:     p.Industry,
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func handleListPartners(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 50, 200)
		offset := parseIntParam(r, "offset", 0, 0)
		filters := storage.PartnerFilters{
			Search:      r.URL.Query().Get("search"),
			PartnerType: r.URL.Query().Get("partnerType"),
			Industry:    r.URL.Query().Get("industry"),
			Country:     r.URL.Query().Get("country"),
			ActiveOnly:  r.URL.Query().Get("activeOnly") == "true",
		}

		partners, err := deps.Store.ListPartners(filters, limit, offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "Failed to fetch partners", "%v", err)
			return
		}

		views := make([]partnerView, 0, len(partners))
		for _, p := range partners {
			views = append(views, toPartnerView(p))
		}
		respondList(w, views)
	}
}

func handleGetPartner(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		p, err := deps.Store.GetPartner(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "Partner not found", "no partner found with ID: %s", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "Failed to fetch partner", "%v", err)
			return
		}
		respondData(w, http.StatusOK, toPartnerView(p))
	}
}

func handleCreatePartner(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req partnerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "Invalid request", "invalid request body: %v", err)
			return
		}
		if req.Name == nil || *req.Name == "" || req.PartnerType == nil || *req.PartnerType == "" || req.Country == nil || *req.Country == "" {
			httpError(w, http.StatusBadRequest, "Invalid request", "name, partnerType, and country are required")
			return
		}

		now := time.Now().UTC()
		p := storage.Partner{
			ID:          uuid.New().String(),
			Name:        *req.Name,
			PartnerType: *req.PartnerType,
			Country:     *req.Country,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		applyPartnerFields(&p, req)

		if err := deps.Store.CreatePartner(p); err != nil {
			httpError(w, http.StatusInternalServerError, "Failed to create partner", "%v", err)
			return
		}
		respondData(w, http.StatusCreated, toPartnerView(p))
	}
}

func handleUpdatePartner(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req partnerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "Invalid request", "invalid request body: %v", err)
			return
		}

		p, err := deps.Store.GetPartner(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "Partner not found", "no partner found with ID: %s", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "Failed to fetch partner", "%v", err)
			return
		}

		applyPartnerFields(&p, req)
		p.UpdatedAt = time.Now().UTC()

		if err := deps.Store.UpdatePartner(p); err != nil {
			httpError(w, http.StatusInternalServerError, "Failed to update partner", "%v", err)
			return
		}
		respondData(w, http.StatusOK, toPartnerView(p))
	}
}

// applyPartnerFields overlays the non-nil request fields onto p.
func applyPartnerFields(p *storage.Partner, req partnerRequest) {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.PartnerType != nil {
		p.PartnerType = *req.PartnerType
	}
	if req.Website != nil {
		p.Website = *req.Website
	}
	if req.AddressLine1 != nil {
		p.AddressLine1 = *req.AddressLine1
	}
	if req.City != nil {
		p.City = *req.City
	}
	if req.State != nil {
		p.State = *req.State
	}
	if req.Country != nil {
		p.Country = *req.Country
	}
	if req.PostalCode != nil {
		p.PostalCode = *req.PostalCode
	}
	if req.Industry != nil {
		p.Industry = *req.Industry
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
}

// handleDeletePartner soft-deletes: the partner stays for historical
// evaluations but drops out of active listings.
func handleDeletePartner(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := deps.Store.DeactivatePartner(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "Partner not found", "no partner found with ID: %s", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "Failed to delete partner", "%v", err)
			return
		}

		p, err := deps.Store.GetPartner(id)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "Failed to fetch partner", "%v", err)
			return
		}
		respondData(w, http.StatusOK, toPartnerView(p))
	}
}

// --- products ---

type productRequest struct {
	PartnerID   string  `json:"partnerId"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ProductType string  `json:"productType"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	City        string  `json:"city"`
	Country     string  `json:"country"`
}

type productView struct {
	ID          string    `json:"id"`
	PartnerID   string    `json:"partnerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ProductType string    `json:"productType"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency"`
	City        string    `json:"city"`
	Country     string    `json:"country"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toProductView(p storage.Product) productView {
	return productView{
		ID:          p.ID,
		PartnerID:   p.PartnerID,
		Name:        p.Name,
		Description: p.Description,
		ProductType: p.ProductType,
		Price:       p.Price,
		Currency:    p.Currency,
		City:        p.City,
		Country:     p.Country,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func handleListProducts(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 50, 200)
		offset := parseIntParam(r, "offset", 0, 0)
		partnerID := r.URL.Query().Get("partnerId")

		products, err := deps.Store.ListProducts(partnerID, limit, offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "Failed to fetch products", "%v", err)
			return
		}

		views := make([]productView, 0, len(products))
		for _, p := range products {
			views = append(views, toProductView(p))
		}
		respondList(w, views)
	}
}

func handleGetProduct(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		p, err := deps.Store.GetProduct(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "Product not found", "no product found with ID: %s", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "Failed to fetch product", "%v", err)
			return
		}
		respondData(w, http.StatusOK, toProductView(p))
	}
}

func handleCreateProduct(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req productRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "Invalid request", "invalid request body: %v", err)
			return
		}
		if req.PartnerID == "" || req.Name == "" || req.ProductType == "" {
			httpError(w, http.StatusBadRequest, "Invalid request", "partnerId, name, and productType are required")
			return
		}

		if _, err := deps.Store.GetPartner(req.PartnerID); errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "Partner not found", "no partner found with ID: %s", req.PartnerID)
			return
		} else if err != nil {
			httpError(w, http.StatusInternalServerError, "Failed to fetch partner", "%v", err)
			return
		}

		now := time.Now().UTC()
		p := storage.Product{
			ID:          uuid.New().String(),
			PartnerID:   req.PartnerID,
			Name:        req.Name,
			Description: req.Description,
			ProductType: req.ProductType,
			Price:       req.Price,
			Currency:    req.Currency,
			City:        req.City,
			Country:     req.Country,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := deps.Store.CreateProduct(p); err != nil {
			httpError(w, http.StatusInternalServerError, "Failed to create product", "%v", err)
			return
		}
		respondData(w, http.StatusCreated, toProductView(p))
	}
}

// --- objectives ---

type objectiveRequest struct {
	Title     string   `json:"title"`
	Question  string   `json:"question"`
	PartnerID string   `json:"partnerId"`
	ProductID string   `json:"productId"`
	LLMModels []string `json:"llmModels"`
}

type objectiveView struct {
	ID        string    `json:"id"`
	PartnerID string    `json:"partnerId"`
	ProductID string    `json:"productId"`
	Title     string    `json:"title"`
	Question  string    `json:"question"`
	LLMModels []string  `json:"llmModels"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toObjectiveView(o storage.Objective) objectiveView {
	var models []string
	if err := json.Unmarshal([]byte(o.LLMModels), &models); err != nil {
		models = []string{}
	}
	return objectiveView{
		ID:        o.ID,
		PartnerID: o.PartnerID,
		ProductID: o.ProductID,
		Title:     o.Title,
		Question:  o.Question,
		LLMModels: models,
		IsActive:  o.IsActive,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func handleListObjectives(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 50, 200)
		offset := parseIntParam(r, "offset", 0, 0)
		activeOnly := r.URL.Query().Get("activeOnly") == "true"

		objectives, err := deps.Store.ListObjectives(activeOnly, limit, offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "Failed to fetch objectives", "%v", err)
			return
		}

		views := make([]objectiveView, 0, len(objectives))
		for _, o := range objectives {
			views = append(views, toObjectiveView(o))
		}
		respondList(w, views)
	}
}

func handleCreateObjective(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req objectiveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "Invalid request", "invalid request body: %v", err)
			return
		}
		if req.Title == "" || req.Question == "" || req.PartnerID == "" || req.ProductID == "" || len(req.LLMModels) == 0 {
			httpError(w, http.StatusBadRequest, "Invalid request", "title, question, partnerId, productId, and llmModels are required")
			return
		}

		if _, err := deps.Store.GetPartner(req.PartnerID); errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "Partner not found", "no partner found with ID: %s", req.PartnerID)
			return
		} else if err != nil {
			httpError(w, http.StatusInternalServerError, "Failed to fetch partner", "%v", err)
			return
		}
		if _, err := deps.Store.GetProduct(req.ProductID); errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "Product not found", "no product found with ID: %s", req.ProductID)
			return
		} else if err != nil {
			httpError(w, http.StatusInternalServerError, "Failed to fetch product", "%v", err)
			return
		}

		// Unknown model ids are accepted: the gateway maps them to its
		// default backend at run time.
		modelsJSON, err := json.Marshal(req.LLMModels)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "Failed to create objective", "%v", err)
			return
		}

		now := time.Now().UTC()
		o := storage.Objective{
			ID:        uuid.New().String(),
			PartnerID: req.PartnerID,
			ProductID: req.ProductID,
			Title:     req.Title,
			Question:  req.Question,
			LLMModels: string(modelsJSON),
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := deps.Store.CreateObjective(o); err != nil {
			httpError(w, http.StatusInternalServerError, "Failed to create objective", "%v", err)
			return
		}
		respondData(w, http.StatusCreated, toObjectiveView(o))
	}
}

// --- evaluations ---

type evaluationView struct {
	ID                       string    `json:"id"`
	ObjectiveID              string    `json:"objectiveId"`
	PartnerID                string    `json:"partnerId"`
	ProductID                string    `json:"productId"`
	LLMModel                 string    `json:"llmModel"`
	Prompt                   string    `json:"prompt"`
	Response                 string    `json:"response"`
	Status                   string    `json:"status"`
	MentionFound             bool      `json:"mentionFound"`
	Score                    *float64  `json:"score"`
	Ranking                  *int      `json:"ranking"`
	TotalCompetitors         *int      `json:"totalCompetitors"`
	RecommendationLikelihood *int      `json:"recommendationLikelihood"`
	CompetitiveStrengths     []string  `json:"competitiveStrengths"`
	CompetitiveWeaknesses    []string  `json:"competitiveWeaknesses"`
	MarketPosition           string    `json:"marketPosition"`
	KeyDifferentiators       []string  `json:"keyDifferentiators"`
	Evaluation               string    `json:"evaluation"`
	Error                    string    `json:"error,omitempty"`
	CreatedAt                time.Time `json:"createdAt"`

	// Computed fields for the dashboard.
	HasScore        bool `json:"hasScore"`
	ScorePercentage *int `json:"scorePercentage"`
	IsSuccessful    bool `json:"isSuccessful"`
}

func toEvaluationView(e storage.Evaluation) evaluationView {
	v := evaluationView{
		ID:                       e.ID,
		ObjectiveID:              e.ObjectiveID,
		PartnerID:                e.PartnerID,
		ProductID:                e.ProductID,
		LLMModel:                 e.LLMModel,
		Prompt:                   e.Prompt,
		Response:                 e.Response,
		Status:                   e.Status,
		MentionFound:             e.MentionFound,
		Score:                    e.Score,
		Ranking:                  e.Ranking,
		TotalCompetitors:         e.TotalCompetitors,
		RecommendationLikelihood: e.RecommendationLikelihood,
		CompetitiveStrengths:     decodeStringList(e.CompetitiveStrengths),
		CompetitiveWeaknesses:    decodeStringList(e.CompetitiveWeaknesses),
		MarketPosition:           e.MarketPosition,
		KeyDifferentiators:       decodeStringList(e.KeyDifferentiators),
		Evaluation:               e.Evaluation,
		Error:                    e.Error,
		CreatedAt:                e.CreatedAt,
	}
	v.HasScore = e.Score != nil
	if e.Score != nil {
		pct := int(math.Round(*e.Score * 10))
		v.ScorePercentage = &pct
	}
	v.IsSuccessful = e.Status == storage.StatusCompleted && e.MentionFound
	return v
}

func decodeStringList(raw string) []string {
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil || list == nil {
		return []string{}
	}
	return list
}

func handleListEvaluations(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 50, 200)
		offset := parseIntParam(r, "offset", 0, 0)
		filters := storage.EvaluationFilters{
			PartnerID:   r.URL.Query().Get("partnerId"),
			ProductID:   r.URL.Query().Get("productId"),
			ObjectiveID: r.URL.Query().Get("objectiveId"),
		}

		evaluations, err := deps.Store.ListEvaluations(filters, limit, offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "Failed to fetch evaluations", "%v", err)
			return
		}

		views := make([]evaluationView, 0, len(evaluations))
		for _, e := range evaluations {
			views = append(views, toEvaluationView(e))
		}
		respondList(w, views)
	}
}

type runEvaluationRequest struct {
	ObjectiveID string `json:"objectiveId"`
}

// handleRunEvaluation runs the objective synchronously and returns all
// created rows. Individual model failures surface as FAILED rows in
// the response, not as an error status.
func handleRunEvaluation(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req runEvaluationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "Invalid request", "invalid request body: %v", err)
			return
		}
		if req.ObjectiveID == "" {
			httpError(w, http.StatusBadRequest, "Invalid request", "objectiveId is required")
			return
		}

		evaluations, err := deps.Runner.Run(r.Context(), req.ObjectiveID)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "Not found", "%v", err)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "Failed to run evaluation", "%v", err)
			return
		}

		views := make([]evaluationView, 0, len(evaluations))
		for _, e := range evaluations {
			views = append(views, toEvaluationView(e))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"count":   len(views),
			"data":    views,
		})
	}
}

// --- executions (async runs) ---

type executionView struct {
	ID          string    `json:"id"`
	ObjectiveID string    `json:"objectiveId"`
	Status      string    `json:"status"`
	Attempts    int       `json:"attempts"`
	LastError   string    `json:"lastError,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toExecutionView(j storage.Job) executionView {
	var payload evaluation.RunPayload
	_ = json.Unmarshal([]byte(j.PayloadJSON), &payload)
	return executionView{
		ID:          j.ID,
		ObjectiveID: payload.ObjectiveID,
		Status:      j.Status,
		Attempts:    j.Attempts,
		LastError:   j.LastError,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

func handleListExecutions(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 50, 200)
		offset := parseIntParam(r, "offset", 0, 0)

		jobs, err := deps.Store.ListJobs(evaluation.JobType, limit, offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "Failed to fetch executions", "%v", err)
			return
		}

		views := make([]executionView, 0, len(jobs))
		for _, j := range jobs {
			views = append(views, toExecutionView(j))
		}
		respondList(w, views)
	}
}

func handleGetExecution(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		job, err := deps.Store.GetJob(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "Execution not found", "no execution found with ID: %s", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "Failed to fetch execution", "%v", err)
			return
		}
		respondData(w, http.StatusOK, toExecutionView(job))
	}
}

func handleCreateExecution(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req runEvaluationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "Invalid request", "invalid request body: %v", err)
			return
		}
		if req.ObjectiveID == "" {
			httpError(w, http.StatusBadRequest, "Invalid request", "objectiveId is required")
			return
		}

		if _, err := deps.Store.GetObjective(req.ObjectiveID); errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "Objective not found", "no objective found with ID: %s", req.ObjectiveID)
			return
		} else if err != nil {
			httpError(w, http.StatusInternalServerError, "Failed to fetch objective", "%v", err)
			return
		}

		payload, err := json.Marshal(evaluation.RunPayload{ObjectiveID: req.ObjectiveID})
		if err != nil {
			httpError(w, http.StatusInternalServerError, "Failed to create execution", "%v", err)
			return
		}
		job := storage.Job{
			ID:          uuid.New().String(),
			Type:        evaluation.JobType,
			PayloadJSON: string(payload),
		}
		if err := deps.Store.EnqueueJob(job); err != nil {
			httpError(w, http.StatusInternalServerError, "Failed to create execution", "%v", err)
			return
		}

		respondData(w, http.StatusCreated, executionView{
			ID:          job.ID,
			ObjectiveID: req.ObjectiveID,
			Status:      "pending",
			CreatedAt:   time.Now().UTC(),
		})
	}
}

// --- dashboard ---

func handleDashboardStats(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := deps.Dashboard.Stats()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "Failed to fetch dashboard stats", "%v", err)
			return
		}
		respondData(w, http.StatusOK, stats)
	}
}

func handleRecentEvaluations(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 5, 50)
		recent, err := deps.Dashboard.RecentEvaluations(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "Failed to fetch recent evaluations", "%v", err)
			return
		}
		respondList(w, recent)
	}
}
