// ABOUTME: Deal MCP tool handlers
// ABOUTME: Implements create, update, move, delete, and note tools over the pipeline store
package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/dealdesk/models"
	"github.com/harperreed/dealdesk/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrDealNotFound is returned by tools addressed at an unknown deal id.
var ErrDealNotFound = errors.New("deal not found")

type DealHandlers struct {
	store  *pipeline.Store
	logger *zap.Logger
}

func NewDealHandlers(store *pipeline.Store, logger *zap.Logger) *DealHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DealHandlers{store: store, logger: logger}
}

type PropertyInput struct {
	Address        string  `json:"address" jsonschema:"Street address" validate:"required"`
	City           string  `json:"city,omitempty" jsonschema:"City"`
	State          string  `json:"state,omitempty" jsonschema:"State code"`
	Zip            string  `json:"zip,omitempty" jsonschema:"ZIP code"`
	Type           string  `json:"type,omitempty" jsonschema:"Property type such as Single Family or Duplex"`
	Price          float64 `json:"price,omitempty" jsonschema:"Asking or purchase price in dollars" validate:"gte=0"`
	Bedrooms       int     `json:"bedrooms,omitempty" validate:"gte=0"`
	Bathrooms      float64 `json:"bathrooms,omitempty" validate:"gte=0"`
	SquareFeet     int     `json:"sqft,omitempty" validate:"gte=0"`
	YearBuilt      int     `json:"year_built,omitempty" validate:"gte=0"`
	ARV            float64 `json:"arv,omitempty" jsonschema:"After-repair value in dollars" validate:"gte=0"`
	RepairEstimate float64 `json:"repair_estimate,omitempty" jsonschema:"Estimated repair cost in dollars" validate:"gte=0"`
}

type ContactInput struct {
	ID                string  `json:"id,omitempty" jsonschema:"Contact id; generated when empty"`
	Name              string  `json:"name" jsonschema:"Contact name" validate:"required"`
	Email             string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone             string  `json:"phone,omitempty"`
	Company           string  `json:"company,omitempty"`
	Role              string  `json:"role,omitempty" jsonschema:"Role such as seller or agent"`
	ResponseRate      float64 `json:"response_rate,omitempty" jsonschema:"Response rate percentage (0-100)" validate:"gte=0,lte=100"`
	RelationshipScore float64 `json:"relationship_score,omitempty" validate:"gte=0"`
}

type CreateDealInput struct {
	Property PropertyInput `json:"property" jsonschema:"The property under contract or consideration" validate:"required"`
	Contact  *ContactInput `json:"contact,omitempty" jsonschema:"Seller or counterparty" validate:"omitempty"`
	Stage    string        `json:"stage,omitempty" jsonschema:"Pipeline stage (default lead)" validate:"omitempty,stage"`
	Value    float64       `json:"value" jsonschema:"Deal value in dollars" validate:"gte=0"`
	Priority string        `json:"priority,omitempty" jsonschema:"low, medium, or high (default medium)" validate:"omitempty,priority"`
	Strategy string        `json:"strategy,omitempty" jsonschema:"wholesaling, flipping, rentals, subjectTo, brrrr, or commercial (default wholesaling)" validate:"omitempty,strategy"`
	Notes    string        `json:"notes,omitempty"`
	Tags     []string      `json:"tags,omitempty"`
}

type UpdateDealInput struct {
	ID       string         `json:"id" jsonschema:"Deal id" validate:"required,uuid"`
	Property *PropertyInput `json:"property,omitempty" jsonschema:"Replaces the whole property when given" validate:"omitempty"`
	Contact  *ContactInput  `json:"contact,omitempty" jsonschema:"Replaces the whole contact when given" validate:"omitempty"`
	Value    *float64       `json:"value,omitempty" validate:"omitempty,gte=0"`
	Priority *string        `json:"priority,omitempty" validate:"omitempty,priority"`
	Strategy *string        `json:"strategy,omitempty" validate:"omitempty,strategy"`
	Notes    *string        `json:"notes,omitempty"`
	Tags     []string       `json:"tags,omitempty" jsonschema:"Replaces the tag list when given"`
}

type MoveDealInput struct {
	ID    string `json:"id" jsonschema:"Deal id" validate:"required,uuid"`
	Stage string `json:"stage" jsonschema:"Target stage" validate:"required,stage"`
	Notes string `json:"notes,omitempty" jsonschema:"Why the deal moved"`
	Actor string `json:"actor,omitempty" jsonschema:"Who moved the deal"`
}

type DealIDInput struct {
	ID string `json:"id" jsonschema:"Deal id" validate:"required,uuid"`
}

type AddDealNoteInput struct {
	ID    string `json:"id" jsonschema:"Deal id" validate:"required,uuid"`
	Note  string `json:"note" jsonschema:"Note text" validate:"required"`
	Actor string `json:"actor,omitempty"`
}

type AddDealMessageInput struct {
	ID        string `json:"id" jsonschema:"Deal id" validate:"required,uuid"`
	Direction string `json:"direction" jsonschema:"inbound or outbound" validate:"required,oneof=inbound outbound"`
	Channel   string `json:"channel,omitempty" jsonschema:"Channel such as sms, email, or call"`
	Author    string `json:"author,omitempty" jsonschema:"Who sent the message"`
	Body      string `json:"body" jsonschema:"Message text" validate:"required"`
}

type AttachDealDocumentInput struct {
	ID        string `json:"id" jsonschema:"Deal id" validate:"required,uuid"`
	Name      string `json:"name" jsonschema:"File name" validate:"required"`
	Kind      string `json:"kind,omitempty" jsonschema:"Document kind such as loi, contract, or inspection"`
	URL       string `json:"url,omitempty" jsonschema:"Where the document is stored" validate:"omitempty,url"`
	SizeBytes int64  `json:"size_bytes,omitempty" validate:"gte=0"`
}

type ContactOutput struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
	Role    string `json:"role,omitempty"`
}

type PropertyOutput struct {
	Address        string `json:"address"`
	City           string `json:"city,omitempty"`
	State          string `json:"state,omitempty"`
	Zip            string `json:"zip,omitempty"`
	Type           string `json:"type,omitempty"`
	Price          string `json:"price"`
	Bedrooms       int    `json:"bedrooms,omitempty"`
	Bathrooms      string `json:"bathrooms,omitempty"`
	SquareFeet     int    `json:"sqft,omitempty"`
	YearBuilt      int    `json:"year_built,omitempty"`
	ARV            string `json:"arv,omitempty"`
	RepairEstimate string `json:"repair_estimate,omitempty"`
}

type StageChangeOutput struct {
	Stage     string `json:"stage"`
	Timestamp string `json:"timestamp"`
	Actor     string `json:"actor"`
	Notes     string `json:"notes,omitempty"`
}

type ActivityOutput struct {
	Timestamp   string `json:"timestamp"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Actor       string `json:"actor,omitempty"`
}

type MessageOutput struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Direction string `json:"direction"`
	Channel   string `json:"channel,omitempty"`
	Author    string `json:"author,omitempty"`
	Body      string `json:"body"`
}

type DocumentOutput struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Kind       string `json:"kind,omitempty"`
	URL        string `json:"url,omitempty"`
	SizeBytes  int64  `json:"size_bytes,omitempty"`
	UploadedAt string `json:"uploaded_at"`
}

type DealOutput struct {
	ID           string              `json:"id"`
	Property     PropertyOutput      `json:"property"`
	Contact      ContactOutput       `json:"contact"`
	Stage        string              `json:"stage"`
	StageLabel   string              `json:"stage_label"`
	Value        string              `json:"value"`
	Priority     string              `json:"priority"`
	Strategy     string              `json:"strategy"`
	Notes        string              `json:"notes,omitempty"`
	Tags         []string            `json:"tags"`
	DaysInStage  int                 `json:"days_in_stage"`
	LastActivity string              `json:"last_activity"`
	CreatedAt    string              `json:"created_at"`
	UpdatedAt    string              `json:"updated_at"`
	StageHistory []StageChangeOutput `json:"stage_history"`
	Activities   []ActivityOutput    `json:"activities,omitempty"`
	Messages     []MessageOutput     `json:"messages,omitempty"`
	Documents    []DocumentOutput    `json:"documents,omitempty"`
}

type DeleteDealOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

func (h *DealHandlers) CreateDeal(_ context.Context, _ *mcp.CallToolRequest, input CreateDealInput) (*mcp.CallToolResult, DealOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, DealOutput{}, err
	}

	deal := h.store.AddDeal(input.toDealInput())
	h.logger.Info("deal created via mcp", zap.String("id", deal.ID.String()), zap.String("stage", string(deal.Stage)))
	return nil, dealToOutput(deal), nil
}

func (h *DealHandlers) UpdateDeal(_ context.Context, _ *mcp.CallToolRequest, input UpdateDealInput) (*mcp.CallToolResult, DealOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, DealOutput{}, err
	}
	id := uuid.MustParse(input.ID)

	var current models.Deal
	if input.Contact != nil {
		var ok bool
		if current, ok = h.store.GetDeal(id); !ok {
			return nil, DealOutput{}, notFound(input.ID)
		}
	}

	patch := models.DealPatch{Notes: input.Notes, Tags: input.Tags}
	if input.Property != nil {
		p := input.Property.toProperty()
		patch.Property = &p
	}
	if input.Contact != nil {
		// Keep the existing contact id so contact lookups still find the deal.
		c := input.Contact.toContact(current.Contact.ID)
		patch.Contact = &c
	}
	if input.Value != nil {
		v := decimal.NewFromFloat(*input.Value)
		patch.Value = &v
	}
	if input.Priority != nil {
		p := models.Priority(*input.Priority)
		patch.Priority = &p
	}
	if input.Strategy != nil {
		s := models.Strategy(*input.Strategy)
		patch.Strategy = &s
	}

	if !h.store.UpdateDeal(id, patch) {
		return nil, DealOutput{}, notFound(input.ID)
	}
	deal, ok := h.store.GetDeal(id)
	if !ok {
		return nil, DealOutput{}, notFound(input.ID)
	}
	return nil, dealToOutput(deal), nil
}

func (h *DealHandlers) MoveDeal(_ context.Context, _ *mcp.CallToolRequest, input MoveDealInput) (*mcp.CallToolResult, DealOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, DealOutput{}, err
	}
	id := uuid.MustParse(input.ID)

	var (
		deal models.Deal
		ok   bool
	)
	if input.Actor != "" {
		deal, ok = h.store.MoveDealAs(id, models.Stage(input.Stage), input.Actor, input.Notes)
	} else {
		deal, ok = h.store.MoveDeal(id, models.Stage(input.Stage), input.Notes)
	}
	if !ok {
		return nil, DealOutput{}, notFound(input.ID)
	}
	return nil, dealToOutput(deal), nil
}

func (h *DealHandlers) DeleteDeal(_ context.Context, _ *mcp.CallToolRequest, input DealIDInput) (*mcp.CallToolResult, DeleteDealOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, DeleteDealOutput{}, err
	}
	if !h.store.DeleteDeal(uuid.MustParse(input.ID)) {
		return nil, DeleteDealOutput{}, notFound(input.ID)
	}
	return nil, DeleteDealOutput{ID: input.ID, Deleted: true}, nil
}

func (h *DealHandlers) GetDeal(_ context.Context, _ *mcp.CallToolRequest, input DealIDInput) (*mcp.CallToolResult, DealOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, DealOutput{}, err
	}
	deal, ok := h.store.GetDeal(uuid.MustParse(input.ID))
	if !ok {
		return nil, DealOutput{}, notFound(input.ID)
	}
	return nil, dealToOutput(deal), nil
}

func (h *DealHandlers) AddDealNote(_ context.Context, _ *mcp.CallToolRequest, input AddDealNoteInput) (*mcp.CallToolResult, DealOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, DealOutput{}, err
	}
	id := uuid.MustParse(input.ID)
	if !h.store.AddNote(id, input.Actor, input.Note) {
		return nil, DealOutput{}, notFound(input.ID)
	}
	deal, ok := h.store.GetDeal(id)
	if !ok {
		return nil, DealOutput{}, notFound(input.ID)
	}
	return nil, dealToOutput(deal), nil
}

func (h *DealHandlers) AddDealMessage(_ context.Context, _ *mcp.CallToolRequest, input AddDealMessageInput) (*mcp.CallToolResult, DealOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, DealOutput{}, err
	}
	id := uuid.MustParse(input.ID)
	msg := models.Message{
		Direction: input.Direction,
		Channel:   input.Channel,
		Author:    input.Author,
		Body:      input.Body,
	}
	if !h.store.AddMessage(id, msg) {
		return nil, DealOutput{}, notFound(input.ID)
	}
	deal, ok := h.store.GetDeal(id)
	if !ok {
		return nil, DealOutput{}, notFound(input.ID)
	}
	return nil, dealToOutput(deal), nil
}

func (h *DealHandlers) AttachDealDocument(_ context.Context, _ *mcp.CallToolRequest, input AttachDealDocumentInput) (*mcp.CallToolResult, DealOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, DealOutput{}, err
	}
	id := uuid.MustParse(input.ID)
	doc := models.Document{
		Name:      input.Name,
		Kind:      input.Kind,
		URL:       input.URL,
		SizeBytes: input.SizeBytes,
	}
	if !h.store.AddDocument(id, doc) {
		return nil, DealOutput{}, notFound(input.ID)
	}
	deal, ok := h.store.GetDeal(id)
	if !ok {
		return nil, DealOutput{}, notFound(input.ID)
	}
	h.logger.Info("document attached via mcp", zap.String("id", input.ID), zap.String("name", input.Name))
	return nil, dealToOutput(deal), nil
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrDealNotFound, id)
}

func (in CreateDealInput) toDealInput() models.DealInput {
	out := models.DealInput{
		Property: in.Property.toProperty(),
		Stage:    models.StageLead,
		Value:    decimal.NewFromFloat(in.Value),
		Priority: models.PriorityMedium,
		Strategy: models.StrategyWholesaling,
		Notes:    in.Notes,
		Tags:     in.Tags,
	}
	if in.Contact != nil {
		out.Contact = in.Contact.toContact("")
	}
	if in.Stage != "" {
		out.Stage = models.Stage(in.Stage)
	}
	if in.Priority != "" {
		out.Priority = models.Priority(in.Priority)
	}
	if in.Strategy != "" {
		out.Strategy = models.Strategy(in.Strategy)
	}
	return out
}

func (in PropertyInput) toProperty() models.Property {
	p := models.Property{
		Address: in.Address,
		City:    in.City,
		State:   in.State,
		Zip:     in.Zip,
		Type:    in.Type,
		Price:   decimal.NewFromFloat(in.Price),
	}
	if in.Bedrooms > 0 {
		p.Bedrooms = &in.Bedrooms
	}
	if in.Bathrooms > 0 {
		p.Bathrooms = &in.Bathrooms
	}
	if in.SquareFeet > 0 {
		p.SquareFeet = &in.SquareFeet
	}
	if in.YearBuilt > 0 {
		p.YearBuilt = &in.YearBuilt
	}
	if in.ARV > 0 {
		arv := decimal.NewFromFloat(in.ARV)
		p.ARV = &arv
	}
	if in.RepairEstimate > 0 {
		repairs := decimal.NewFromFloat(in.RepairEstimate)
		p.RepairEstimate = &repairs
	}
	return p
}

// toContact converts the input, falling back to fallbackID and then to a
// fresh uuid when the caller supplies no id.
func (in ContactInput) toContact(fallbackID string) models.Contact {
	id := in.ID
	if id == "" {
		id = fallbackID
	}
	if id == "" {
		id = uuid.NewString()
	}
	return models.Contact{
		ID:                id,
		Name:              in.Name,
		Email:             in.Email,
		Phone:             in.Phone,
		Company:           in.Company,
		Role:              in.Role,
		ResponseRate:      in.ResponseRate,
		RelationshipScore: in.RelationshipScore,
	}
}

func dealToOutput(d models.Deal) DealOutput {
	out := DealOutput{
		ID: d.ID.String(),
		Property: PropertyOutput{
			Address: d.Property.Address,
			City:    d.Property.City,
			State:   d.Property.State,
			Zip:     d.Property.Zip,
			Type:    d.Property.Type,
			Price:   d.Property.Price.StringFixed(2),
		},
		Contact: ContactOutput{
			ID:      d.Contact.ID,
			Name:    d.Contact.Name,
			Email:   d.Contact.Email,
			Phone:   d.Contact.Phone,
			Company: d.Contact.Company,
			Role:    d.Contact.Role,
		},
		Stage:        string(d.Stage),
		StageLabel:   d.Stage.Label(),
		Value:        d.Value.StringFixed(2),
		Priority:     string(d.Priority),
		Strategy:     string(d.Strategy),
		Notes:        d.Notes,
		Tags:         d.Tags,
		DaysInStage:  d.DaysInStage,
		LastActivity: d.LastActivity,
		CreatedAt:    d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    d.UpdatedAt.Format(time.RFC3339),
		StageHistory: make([]StageChangeOutput, 0, len(d.StageHistory)),
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}

	p := d.Property
	if p.Bedrooms != nil {
		out.Property.Bedrooms = *p.Bedrooms
	}
	if p.Bathrooms != nil {
		out.Property.Bathrooms = decimal.NewFromFloat(*p.Bathrooms).String()
	}
	if p.SquareFeet != nil {
		out.Property.SquareFeet = *p.SquareFeet
	}
	if p.YearBuilt != nil {
		out.Property.YearBuilt = *p.YearBuilt
	}
	if p.ARV != nil {
		out.Property.ARV = p.ARV.StringFixed(2)
	}
	if p.RepairEstimate != nil {
		out.Property.RepairEstimate = p.RepairEstimate.StringFixed(2)
	}

	for _, h := range d.StageHistory {
		out.StageHistory = append(out.StageHistory, StageChangeOutput{
			Stage:     string(h.Stage),
			Timestamp: h.Timestamp.Format(time.RFC3339),
			Actor:     h.Actor,
			Notes:     h.Notes,
		})
	}
	for _, a := range d.Activities {
		out.Activities = append(out.Activities, ActivityOutput{
			Timestamp:   a.Timestamp.Format(time.RFC3339),
			Kind:        a.Kind,
			Description: a.Description,
			Actor:       a.Actor,
		})
	}
	for _, m := range d.Messages {
		out.Messages = append(out.Messages, MessageOutput{
			ID:        m.ID,
			Timestamp: m.Timestamp.Format(time.RFC3339),
			Direction: m.Direction,
			Channel:   m.Channel,
			Author:    m.Author,
			Body:      m.Body,
		})
	}
	for _, doc := range d.Documents {
		out.Documents = append(out.Documents, DocumentOutput{
			ID:         doc.ID,
			Name:       doc.Name,
			Kind:       doc.Kind,
			URL:        doc.URL,
			SizeBytes:  doc.SizeBytes,
			UploadedAt: doc.UploadedAt.Format(time.RFC3339),
		})
	}
	return out
}
