package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Evaluation lifecycle states. Status only moves forward: a COMPLETED
// or FAILED row is never rewritten; re-running an objective creates
// new rows.
const (
	StatusPending    = "PENDING"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
	StatusCancelled  = "CANCELLED"
	StatusTimeout    = "TIMEOUT"
)

type Partner struct {
	ID           string
	Name         string
	Description  string
	PartnerType  string // TECH, SERVICE, RETAIL, HOSPITALITY, OTHER
	Website      string
	AddressLine1 string
	City         string
	State        string
	Country      string
	PostalCode   string
	Industry     string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Product struct {
	ID          string
	PartnerID   string
	Name        string
	Description string
	ProductType string // PHYSICAL_PRODUCT, SERVICE_LOCATION, DIGITAL_SERVICE, OTHER
	Price       float64
	Currency    string
	City        string
	Country     string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Objective struct {
	ID        string
	PartnerID string
	ProductID string
	Title     string
	Question  string
	LLMModels string // JSON array stored as text, order-preserving
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Evaluation is one run of an objective against one model. Rows are
// insert-only; the analyzer's extracted fields use pointers so absent
// values survive the storage round-trip as NULL.
type Evaluation struct {
	ID                       string
	ObjectiveID              string
	PartnerID                string
	ProductID                string
	LLMModel                 string
	Prompt                   string
	Response                 string
	Status                   string
	MentionFound             bool
	Score                    *float64
	Ranking                  *int
	TotalCompetitors         *int
	RecommendationLikelihood *int
	CompetitiveStrengths     string // JSON array stored as text
	CompetitiveWeaknesses    string // JSON array stored as text
	MarketPosition           string
	KeyDifferentiators       string // JSON array stored as text
	Evaluation               string
	Error                    string
	CreatedAt                time.Time
}

type Job struct {
	ID          string
	Type        string
	PayloadJSON string
	Status      string // "pending", "running", "completed", "failed"
	Attempts    int
	MaxAttempts int
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastError   string
}

// PartnerFilters narrows partner listings. Zero values mean "no filter".
type PartnerFilters struct {
	Search      string // case-insensitive substring match on name
	PartnerType string
	Industry    string
	Country     string
	ActiveOnly  bool
}

// EvaluationFilters narrows evaluation listings.
type EvaluationFilters struct {
	PartnerID   string
	ProductID   string
	ObjectiveID string
}
