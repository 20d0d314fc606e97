// ABOUTME: Data models for pipeline entities
// ABOUTME: Defines Deal, its embedded Property and Contact, and append-only sub-records
package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Priority is the urgency assigned to a deal.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ValidPriorities lists every priority.
var ValidPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// IsValid reports whether p is a known priority.
func (p Priority) IsValid() bool {
	for _, v := range ValidPriorities {
		if p == v {
			return true
		}
	}
	return false
}

// Strategy is the investment approach behind a deal.
type Strategy string

const (
	StrategyWholesaling Strategy = "wholesaling"
	StrategyFlipping    Strategy = "flipping"
	StrategyRentals     Strategy = "rentals"
	StrategySubjectTo   Strategy = "subjectTo"
	StrategyBRRRR       Strategy = "brrrr"
	StrategyCommercial  Strategy = "commercial"
)

// ValidStrategies lists every strategy.
var ValidStrategies = []Strategy{
	StrategyWholesaling,
	StrategyFlipping,
	StrategyRentals,
	StrategySubjectTo,
	StrategyBRRRR,
	StrategyCommercial,
}

// IsValid reports whether s is a known strategy.
func (s Strategy) IsValid() bool {
	for _, v := range ValidStrategies {
		if s == v {
			return true
		}
	}
	return false
}

// Label returns a human-readable label for the strategy.
func (s Strategy) Label() string {
	switch s {
	case StrategyWholesaling:
		return "Wholesaling"
	case StrategyFlipping:
		return "Fix & Flip"
	case StrategyRentals:
		return "Buy & Hold Rentals"
	case StrategySubjectTo:
		return "Subject To"
	case StrategyBRRRR:
		return "BRRRR"
	case StrategyCommercial:
		return "Commercial"
	default:
		return string(s)
	}
}

type Property struct {
	Address        string           `json:"address"`
	City           string           `json:"city"`
	State          string           `json:"state"`
	Zip            string           `json:"zip"`
	Price          decimal.Decimal  `json:"price"`
	Type           string           `json:"type"`
	Bedrooms       *int             `json:"bedrooms,omitempty"`
	Bathrooms      *float64         `json:"bathrooms,omitempty"`
	SquareFeet     *int             `json:"sqft,omitempty"`
	YearBuilt      *int             `json:"year_built,omitempty"`
	ARV            *decimal.Decimal `json:"arv,omitempty"`
	RepairEstimate *decimal.Decimal `json:"repair_estimate,omitempty"`
}

// Contact is embedded by value in every deal; the same person may appear in
// several deals with independent copies.
type Contact struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Email             string  `json:"email,omitempty"`
	Phone             string  `json:"phone,omitempty"`
	Company           string  `json:"company,omitempty"`
	Role              string  `json:"role,omitempty"`
	ResponseRate      float64 `json:"response_rate"`
	RelationshipScore float64 `json:"relationship_score"`
}

type StageChange struct {
	Stage     Stage     `json:"stage"`
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Notes     string    `json:"notes,omitempty"`
}

// Message directions.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

type Message struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Direction string    `json:"direction"`
	Channel   string    `json:"channel,omitempty"`
	Author    string    `json:"author,omitempty"`
	Body      string    `json:"body"`
}

type Document struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Kind       string    `json:"kind,omitempty"`
	URL        string    `json:"url,omitempty"`
	SizeBytes  int64     `json:"size_bytes,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// ActivityKind constants.
const (
	ActivityCreated     = "created"
	ActivityStageChange = "stage_change"
	ActivityNote        = "note"
	ActivityMessage     = "message"
	ActivityDocument    = "document"
	ActivityUpdated     = "updated"
)

type Activity struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
	Actor       string    `json:"actor,omitempty"`
}

// LastActivityJustNow is the display value set whenever a deal changes stage.
const LastActivityJustNow = "just now"

type Deal struct {
	ID           uuid.UUID       `json:"id"`
	Property     Property        `json:"property"`
	Contact      Contact         `json:"contact"`
	Stage        Stage           `json:"stage"`
	Value        decimal.Decimal `json:"value"`
	Priority     Priority        `json:"priority"`
	Strategy     Strategy        `json:"strategy"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	StageHistory []StageChange   `json:"stage_history"`
	Messages     []Message       `json:"messages"`
	Documents    []Document      `json:"documents"`
	Activities   []Activity      `json:"activities"`
	Notes        string          `json:"notes,omitempty"`
	Tags         []string        `json:"tags"`
	DaysInStage  int             `json:"days_in_stage"`
	LastActivity string          `json:"last_activity"`
}

// Clone returns a deep copy so callers can hold a deal without sharing slices
// with the store.
func (d Deal) Clone() Deal {
	c := d
	c.Property = d.Property.Clone()
	c.StageHistory = slices.Clone(d.StageHistory)
	c.Messages = slices.Clone(d.Messages)
	c.Documents = slices.Clone(d.Documents)
	c.Activities = slices.Clone(d.Activities)
	c.Tags = slices.Clone(d.Tags)
	return c
}

// HasTag reports whether the deal carries tag.
func (d Deal) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Spread returns ARV minus price minus repairs, or false when ARV is unknown.
func (d Deal) Spread() (decimal.Decimal, bool) {
	if d.Property.ARV == nil {
		return decimal.Zero, false
	}
	spread := d.Property.ARV.Sub(d.Property.Price)
	if d.Property.RepairEstimate != nil {
		spread = spread.Sub(*d.Property.RepairEstimate)
	}
	return spread, true
}

// Clone copies the optional fields so the result shares no pointers with p.
func (p Property) Clone() Property {
	c := p
	if p.Bedrooms != nil {
		v := *p.Bedrooms
		c.Bedrooms = &v
	}
	if p.Bathrooms != nil {
		v := *p.Bathrooms
		c.Bathrooms = &v
	}
	if p.SquareFeet != nil {
		v := *p.SquareFeet
		c.SquareFeet = &v
	}
	if p.YearBuilt != nil {
		v := *p.YearBuilt
		c.YearBuilt = &v
	}
	if p.ARV != nil {
		v := *p.ARV
		c.ARV = &v
	}
	if p.RepairEstimate != nil {
		v := *p.RepairEstimate
		c.RepairEstimate = &v
	}
	return c
}

// DealInput is everything needed to create a deal; identity, timestamps and
// display fields are assigned by the store.
type DealInput struct {
	Property Property        `json:"property"`
	Contact  Contact         `json:"contact"`
	Stage    Stage           `json:"stage"`
	Value    decimal.Decimal `json:"value"`
	Priority Priority        `json:"priority"`
	Strategy Strategy        `json:"strategy"`
	Notes    string          `json:"notes,omitempty"`
	Tags     []string        `json:"tags,omitempty"`
}

// DealPatch is a shallow merge; nil fields are left alone and nested objects
// replace wholesale.
type DealPatch struct {
	Property *Property
	Contact  *Contact
	Value    *decimal.Decimal
	Priority *Priority
	Strategy *Strategy
	Notes    *string
	Tags     []string
}

type ValueRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DealFilters are combined with AND; a nil dimension matches everything.
type DealFilters struct {
	Stage      *Stage
	Priority   *Priority
	Strategy   *Strategy
	ValueRange *ValueRange
	DateRange  *DateRange
}

type StageStats struct {
	Stage      Stage           `json:"stage"`
	Count      int             `json:"count"`
	TotalValue decimal.Decimal `json:"total_value"`
}
