// ABOUTME: Charm KV deal repository for the pipeline store
// ABOUTME: Stores each deal as a JSON document under deal:<uuid>

package charm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	"github.com/harperreed/dealdesk/models"
)

// DealKeyPrefix namespaces deal documents in the KV store.
const DealKeyPrefix = "deal:"

// ErrDealNotFound is returned by GetDeal for an unknown id.
var ErrDealNotFound = errors.New("deal not found")

// DealRepository persists deals in charm KV.
type DealRepository struct {
	client *Client
}

func NewDealRepository(client *Client) *DealRepository {
	return &DealRepository{client: client}
}

func dealKey(id uuid.UUID) []byte {
	return []byte(DealKeyPrefix + id.String())
}

// LoadDeals returns every stored deal ordered by creation time. KV keys carry
// no insertion order, so CreatedAt (then id) stands in for it.
func (r *DealRepository) LoadDeals(ctx context.Context) ([]models.Deal, error) {
	keys, err := r.client.KeysWithPrefix([]byte(DealKeyPrefix))
	if err != nil {
		return nil, fmt.Errorf("failed to list deal keys: %w", err)
	}

	deals := make([]models.Deal, 0, len(keys))
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := r.client.Get(key)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		var d models.Deal
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", key, err)
		}
		deals = append(deals, d)
	}

	sort.SliceStable(deals, func(i, j int) bool {
		if !deals[i].CreatedAt.Equal(deals[j].CreatedAt) {
			return deals[i].CreatedAt.Before(deals[j].CreatedAt)
		}
		return deals[i].ID.String() < deals[j].ID.String()
	})
	return deals, nil
}

func (r *DealRepository) SaveDeal(ctx context.Context, deal models.Deal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(deal)
	if err != nil {
		return fmt.Errorf("failed to encode deal %s: %w", deal.ID, err)
	}
	if err := r.client.Set(dealKey(deal.ID), data); err != nil {
		return fmt.Errorf("failed to save deal %s: %w", deal.ID, err)
	}
	return nil
}

// DeleteDeal removes the deal document. Missing keys are not an error.
func (r *DealRepository) DeleteDeal(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.client.Delete(dealKey(id)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete deal %s: %w", id, err)
	}
	return nil
}

func (r *DealRepository) GetDeal(ctx context.Context, id uuid.UUID) (models.Deal, error) {
	if err := ctx.Err(); err != nil {
		return models.Deal{}, err
	}
	data, err := r.client.Get(dealKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.Deal{}, ErrDealNotFound
	}
	if err != nil {
		return models.Deal{}, fmt.Errorf("failed to read deal %s: %w", id, err)
	}

	var d models.Deal
	if err := json.Unmarshal(data, &d); err != nil {
		return models.Deal{}, fmt.Errorf("failed to decode deal %s: %w", id, err)
	}
	return d, nil
}

func (r *DealRepository) CountDeals(_ context.Context) (int, error) {
	keys, err := r.client.KeysWithPrefix([]byte(DealKeyPrefix))
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}
