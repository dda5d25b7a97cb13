package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/sells-group/reviews-cli/internal/model"
)

// mockStore implements store.Store in memory for command tests.
type mockStore struct {
	harvests map[string]*model.Harvest
	reviews  map[string][]model.Review // keyed by harvest id
	nextID   int

	failCreate bool
	failSave   bool
}

func newMockStore() *mockStore {
	return &mockStore{
		harvests: make(map[string]*model.Harvest),
		reviews:  make(map[string][]model.Review),
	}
}

func (m *mockStore) CreateHarvest(_ context.Context, asin string) (*model.Harvest, error) {
	if m.failCreate {
		return nil, errors.New("create failed")
	}
	m.nextID++
	h := &model.Harvest{
		ID:     fmt.Sprintf("h%d", m.nextID),
		ASIN:   asin,
		Status: model.HarvestStatusRunning,
	}
	m.harvests[h.ID] = h
	return h, nil
}

func (m *mockStore) CompleteHarvest(_ context.Context, id string, count int) error {
	h, ok := m.harvests[id]
	if !ok {
		return errors.New("not found")
	}
	h.Status = model.HarvestStatusComplete
	h.ReviewCount = count
	return nil
}

func (m *mockStore) FailHarvest(_ context.Context, id string) error {
	h, ok := m.harvests[id]
	if !ok {
		return errors.New("not found")
	}
	h.Status = model.HarvestStatusFailed
	return nil
}

func (m *mockStore) ListHarvests(_ context.Context, _ int) ([]model.Harvest, error) {
	var out []model.Harvest
	for i := 1; i <= m.nextID; i++ {
		if h, ok := m.harvests[fmt.Sprintf("h%d", i)]; ok {
			out = append(out, *h)
		}
	}
	return out, nil
}

func (m *mockStore) SaveReviews(_ context.Context, harvestID string, reviews []model.Review) error {
	if m.failSave {
		return errors.New("save failed")
	}
	m.reviews[harvestID] = reviews
	return nil
}

func (m *mockStore) GetReviews(_ context.Context, asin string) ([]model.Review, error) {
	// Latest completed harvest for the asin.
	for i := m.nextID; i >= 1; i-- {
		h, ok := m.harvests[fmt.Sprintf("h%d", i)]
		if !ok || h.ASIN != asin || h.Status != model.HarvestStatusComplete {
			continue
		}
		return m.reviews[h.ID], nil
	}
	return nil, nil
}

func (m *mockStore) Migrate(context.Context) error { return nil }
func (m *mockStore) Close() error                  { return nil }
