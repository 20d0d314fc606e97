// ABOUTME: Embedded sample pipeline used to initialize a session
// ABOUTME: Decodes seed.yaml into fully formed deals with stable ids
package pipeline

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/dealdesk/models"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

// seedNamespace derives deterministic deal ids from seed keys so reseeding
// does not duplicate deals.
var seedNamespace = uuid.MustParse("6f1c2a8e-3b7d-4e59-9a0c-2d5e8f4b1c73")

type seedFile struct {
	Deals []seedDeal `yaml:"deals"`
}

type seedDeal struct {
	Key            string          `yaml:"key"`
	CreatedDaysAgo int             `yaml:"created_days_ago"`
	Stage          models.Stage    `yaml:"stage"`
	Value          string          `yaml:"value"`
	Priority       models.Priority `yaml:"priority"`
	Strategy       models.Strategy `yaml:"strategy"`
	Notes          string          `yaml:"notes"`
	Tags           []string        `yaml:"tags"`
	History        []seedHistory   `yaml:"history"`
	Property       seedProperty    `yaml:"property"`
	Contact        seedContact     `yaml:"contact"`
}

type seedHistory struct {
	Stage   models.Stage `yaml:"stage"`
	DaysAgo int          `yaml:"days_ago"`
	Actor   string       `yaml:"actor"`
	Notes   string       `yaml:"notes"`
}

type seedProperty struct {
	Address        string   `yaml:"address"`
	City           string   `yaml:"city"`
	State          string   `yaml:"state"`
	Zip            string   `yaml:"zip"`
	Price          string   `yaml:"price"`
	Type           string   `yaml:"type"`
	Bedrooms       *int     `yaml:"bedrooms"`
	Bathrooms      *float64 `yaml:"bathrooms"`
	SquareFeet     *int     `yaml:"sqft"`
	YearBuilt      *int     `yaml:"year_built"`
	ARV            string   `yaml:"arv"`
	RepairEstimate string   `yaml:"repair_estimate"`
}

type seedContact struct {
	ID                string  `yaml:"id"`
	Name              string  `yaml:"name"`
	Email             string  `yaml:"email"`
	Phone             string  `yaml:"phone"`
	Company           string  `yaml:"company"`
	Role              string  `yaml:"role"`
	ResponseRate      float64 `yaml:"response_rate"`
	RelationshipScore float64 `yaml:"relationship_score"`
}

// SeedDeals returns the embedded sample pipeline with dates relative to now.
func SeedDeals(now time.Time) ([]models.Deal, error) {
	return ParseSeed(seedYAML, now)
}

// ParseSeed decodes a seed document.
func ParseSeed(data []byte, now time.Time) ([]models.Deal, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed data: %w", err)
	}

	deals := make([]models.Deal, 0, len(file.Deals))
	for _, sd := range file.Deals {
		deal, err := sd.toDeal(now)
		if err != nil {
			return nil, fmt.Errorf("seed deal %q: %w", sd.Key, err)
		}
		deals = append(deals, deal)
	}
	return deals, nil
}

func (sd seedDeal) toDeal(now time.Time) (models.Deal, error) {
	value, err := decimal.NewFromString(sd.Value)
	if err != nil {
		return models.Deal{}, fmt.Errorf("invalid value: %w", err)
	}
	property, err := sd.Property.toProperty()
	if err != nil {
		return models.Deal{}, err
	}

	created := now.AddDate(0, 0, -sd.CreatedDaysAgo)
	deal := models.Deal{
		ID:           uuid.NewSHA1(seedNamespace, []byte(sd.Key)),
		Property:     property,
		Contact:      models.Contact(sd.Contact),
		Stage:        sd.Stage,
		Value:        value,
		Priority:     sd.Priority,
		Strategy:     sd.Strategy,
		CreatedAt:    created,
		UpdatedAt:    created,
		Messages:     []models.Message{},
		Documents:    []models.Document{},
		Activities:   []models.Activity{},
		Notes:        sd.Notes,
		Tags:         uniqueTags(nil, sd.Tags...),
		LastActivity: models.LastActivityJustNow,
	}

	for i, h := range sd.History {
		ts := now.AddDate(0, 0, -h.DaysAgo)
		deal.StageHistory = append(deal.StageHistory, models.StageChange{
			Stage:     h.Stage,
			Timestamp: ts,
			Actor:     h.Actor,
			Notes:     h.Notes,
		})
		kind, desc := models.ActivityStageChange, fmt.Sprintf("Moved to %s", h.Stage.Label())
		if i == 0 {
			kind, desc = models.ActivityCreated, fmt.Sprintf("Deal created in %s", h.Stage.Label())
		}
		deal.Activities = append(deal.Activities, models.Activity{
			ID:          uuid.NewSHA1(seedNamespace, []byte(fmt.Sprintf("%s/%d", sd.Key, i))).String(),
			Timestamp:   ts,
			Kind:        kind,
			Description: desc,
			Actor:       h.Actor,
		})
		deal.UpdatedAt = ts
	}
	if len(deal.StageHistory) == 0 {
		deal.StageHistory = []models.StageChange{{Stage: sd.Stage, Timestamp: created, Actor: DefaultActor}}
	}

	deal.DaysInStage, deal.LastActivity = agingFor(deal, now)
	return deal, nil
}

func (sp seedProperty) toProperty() (models.Property, error) {
	price, err := decimal.NewFromString(sp.Price)
	if err != nil {
		return models.Property{}, fmt.Errorf("invalid price: %w", err)
	}

	p := models.Property{
		Address:    sp.Address,
		City:       sp.City,
		State:      sp.State,
		Zip:        sp.Zip,
		Price:      price,
		Type:       sp.Type,
		Bedrooms:   sp.Bedrooms,
		Bathrooms:  sp.Bathrooms,
		SquareFeet: sp.SquareFeet,
		YearBuilt:  sp.YearBuilt,
	}
	if sp.ARV != "" {
		arv, err := decimal.NewFromString(sp.ARV)
		if err != nil {
			return models.Property{}, fmt.Errorf("invalid arv: %w", err)
		}
		p.ARV = &arv
	}
	if sp.RepairEstimate != "" {
		repairs, err := decimal.NewFromString(sp.RepairEstimate)
		if err != nil {
			return models.Property{}, fmt.Errorf("invalid repair_estimate: %w", err)
		}
		p.RepairEstimate = &repairs
	}
	return p, nil
}
