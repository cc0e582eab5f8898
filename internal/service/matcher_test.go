package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"core/internal/model"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func typePtr(v string) *string    { return &v }

// fakeProvider serves canned records and remembers which fetch ran
type fakeProvider struct {
	properties []model.Property
	agents     []model.Agent
	tasks      []model.Task
	stats      *model.PropertyStats
	agentStats *model.AgentStats
	taskStats  *model.TaskStats
	analytics  *model.PropertyAnalytics
	report     *model.AvailabilityReport
	err        error

	lastFetch string
}

func (f *fakeProvider) GetAllProperties(ctx context.Context) ([]model.Property, error) {
	f.lastFetch = "all"
	return f.properties, f.err
}

func (f *fakeProvider) GetPropertiesByLocation(ctx context.Context, location string) ([]model.Property, error) {
	f.lastFetch = "location"
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Property
	for _, p := range f.properties {
		if p.Location == location {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProvider) GetPropertiesByPriceRange(ctx context.Context, min, max float64) ([]model.Property, error) {
	f.lastFetch = "price"
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Property
	for _, p := range f.properties {
		if p.Price >= min && p.Price <= max {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProvider) GetPropertiesByBedrooms(ctx context.Context, bedrooms int) ([]model.Property, error) {
	f.lastFetch = "bedrooms"
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Property
	for _, p := range f.properties {
		if p.Bedrooms != nil && *p.Bedrooms == bedrooms {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProvider) GetPropertiesByStatus(ctx context.Context, status string) ([]model.Property, error) {
	f.lastFetch = "status"
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Property
	for _, p := range f.properties {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProvider) GetAllAgents(ctx context.Context) ([]model.Agent, error) {
	return f.agents, f.err
}

func (f *fakeProvider) GetAllTasks(ctx context.Context) ([]model.Task, error) {
	return f.tasks, f.err
}

func (f *fakeProvider) GetPropertyStats(ctx context.Context) (*model.PropertyStats, error) {
	return f.stats, f.err
}

func (f *fakeProvider) GetAgentStats(ctx context.Context) (*model.AgentStats, error) {
	return f.agentStats, f.err
}

func (f *fakeProvider) GetTaskStats(ctx context.Context) (*model.TaskStats, error) {
	return f.taskStats, f.err
}

func (f *fakeProvider) GetPropertyAnalytics(ctx context.Context) (*model.PropertyAnalytics, error) {
	return f.analytics, f.err
}

func (f *fakeProvider) GetAvailabilityReport(ctx context.Context) (*model.AvailabilityReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.report != nil {
		return f.report, nil
	}
	return &model.AvailabilityReport{GeneratedAt: time.Now()}, nil
}

func karenVilla(id int64, price float64, bedrooms int) model.Property {
	return model.Property{
		ID:       id,
		Title:    "House in Karen",
		Price:    price,
		Location: "Karen",
		Bedrooms: intPtr(bedrooms),
		Type:     typePtr("house"),
		Status:   model.StatusAvailable,
	}
}

func TestMatcher_LocationIsPrimaryDimension(t *testing.T) {
	provider := &fakeProvider{properties: []model.Property{
		karenVilla(1, 30_000_000, 4),
		{ID: 2, Title: "Flat in Westlands", Price: 9_000_000, Location: "Westlands", Bedrooms: intPtr(2), Type: typePtr("apartment"), Status: model.StatusAvailable},
	}}
	matcher := NewMatcher(provider, 5, 8)

	loc := "Karen"
	got, err := matcher.Match(context.Background(), model.Entities{Location: &loc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.lastFetch != "location" {
		t.Errorf("primary fetch = %s, want location", provider.lastFetch)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("got %d properties, want the Karen villa", len(got))
	}
}

func TestMatcher_CompoundConstraintsIntersect(t *testing.T) {
	provider := &fakeProvider{properties: []model.Property{
		karenVilla(1, 30_000_000, 4),
		karenVilla(2, 60_000_000, 4),
		karenVilla(3, 28_000_000, 3),
	}}
	matcher := NewMatcher(provider, 5, 8)

	loc := "Karen"
	entities := model.Entities{
		Location:   &loc,
		Bedrooms:   intPtr(4),
		PriceRange: &model.PriceRange{Max: floatPtr(40_000_000)},
	}

	got, err := matcher.Match(context.Background(), entities)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("want only the 4BR under 40M, got %+v", got)
	}
}

func TestMatcher_PriceDrivenResultsSortAscending(t *testing.T) {
	provider := &fakeProvider{properties: []model.Property{
		karenVilla(1, 35_000_000, 4),
		karenVilla(2, 12_000_000, 3),
		karenVilla(3, 20_000_000, 3),
	}}
	matcher := NewMatcher(provider, 5, 8)

	entities := model.Entities{PriceRange: &model.PriceRange{Max: floatPtr(50_000_000)}}
	got, err := matcher.Match(context.Background(), entities)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.lastFetch != "price" {
		t.Errorf("primary fetch = %s, want price", provider.lastFetch)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Price > got[i].Price {
			t.Fatalf("results not sorted by price: %v then %v", got[i-1].Price, got[i].Price)
		}
	}
}

func TestMatcher_ResultCapped(t *testing.T) {
	var properties []model.Property
	for i := int64(1); i <= 9; i++ {
		properties = append(properties, karenVilla(i, float64(i)*1_000_000, 3))
	}
	provider := &fakeProvider{properties: properties}
	matcher := NewMatcher(provider, 5, 8)

	loc := "Karen"
	got, err := matcher.Match(context.Background(), model.Entities{Location: &loc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 5 {
		t.Errorf("got %d properties, want cap of 5", len(got))
	}
}

func TestMatcher_NoEntitiesFetchesEverything(t *testing.T) {
	provider := &fakeProvider{properties: []model.Property{karenVilla(1, 30_000_000, 4)}}
	matcher := NewMatcher(provider, 5, 8)

	if _, err := matcher.Match(context.Background(), model.Entities{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.lastFetch != "all" {
		t.Errorf("primary fetch = %s, want all", provider.lastFetch)
	}
}

func TestMatcher_RecommendCapsAtRecommendLimit(t *testing.T) {
	var properties []model.Property
	for i := int64(1); i <= 12; i++ {
		properties = append(properties, karenVilla(i, float64(i)*1_000_000, 3))
	}
	provider := &fakeProvider{properties: properties}
	matcher := NewMatcher(provider, 5, 8)

	got, err := matcher.Recommend(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 8 {
		t.Errorf("got %d recommendations, want 8", len(got))
	}
}

func TestMatcher_ProviderErrorPropagates(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	matcher := NewMatcher(provider, 5, 8)

	if _, err := matcher.Match(context.Background(), model.Entities{}); err == nil {
		t.Fatal("expected an error")
	}
}
