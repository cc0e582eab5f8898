package service

import (
	"context"
	"sort"
	"strings"

	"core/internal/model"
	"core/internal/repository"
	"core/internal/utils"
)

// Matcher selects and ranks property records against extracted slots
type Matcher struct {
	provider       repository.Provider
	limit          int
	recommendLimit int
}

// NewMatcher creates a new matcher
func NewMatcher(provider repository.Provider, limit, recommendLimit int) *Matcher {
	return &Matcher{
		provider:       provider,
		limit:          limit,
		recommendLimit: recommendLimit,
	}
}

// Match fetches candidates by the first applicable dimension (location, then
// price range, then bedrooms, then everything), re-applies every specified
// constraint as a filter so compound queries are satisfied by intersection,
// and caps the result. Price-driven results are ordered by ascending price;
// otherwise provider order is kept.
func (m *Matcher) Match(ctx context.Context, entities model.Entities) ([]model.Property, error) {
	properties, priceDriven, err := m.primaryFetch(ctx, entities)
	if err != nil {
		return nil, err
	}

	filtered := make([]model.Property, 0, len(properties))
	for _, p := range properties {
		if !matchesEntities(p, entities) {
			continue
		}
		filtered = append(filtered, p)
	}

	if priceDriven {
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Price < filtered[j].Price
		})
	}

	if len(filtered) > m.limit {
		filtered = filtered[:m.limit]
	}
	return filtered, nil
}

// Recommend returns the head of the unfiltered collection for the zero-match
// fallback. Callers label these as recommendations, not matches.
func (m *Matcher) Recommend(ctx context.Context) ([]model.Property, error) {
	properties, err := m.provider.GetAllProperties(ctx)
	if err != nil {
		return nil, err
	}
	if len(properties) > m.recommendLimit {
		properties = properties[:m.recommendLimit]
	}
	return properties, nil
}

func (m *Matcher) primaryFetch(ctx context.Context, entities model.Entities) ([]model.Property, bool, error) {
	switch {
	case entities.Location != nil:
		props, err := m.provider.GetPropertiesByLocation(ctx, *entities.Location)
		return props, false, err

	case entities.PriceRange != nil:
		min, max := priceBounds(entities.PriceRange)
		props, err := m.provider.GetPropertiesByPriceRange(ctx, min, max)
		return props, true, err

	case entities.Bedrooms != nil:
		props, err := m.provider.GetPropertiesByBedrooms(ctx, *entities.Bedrooms)
		return props, false, err

	default:
		props, err := m.provider.GetAllProperties(ctx)
		return props, false, err
	}
}

// priceBounds turns an open-ended range into concrete query bounds
func priceBounds(pr *model.PriceRange) (float64, float64) {
	min := 0.0
	max := 1e12
	if pr.Min != nil {
		min = *pr.Min
	}
	if pr.Max != nil {
		max = *pr.Max
	}
	return min, max
}

// matchesEntities re-applies every specified constraint against one property
func matchesEntities(p model.Property, entities model.Entities) bool {
	if entities.Location != nil && !utils.MatchLocation(*entities.Location, p.Location) {
		return false
	}
	if entities.Bedrooms != nil {
		if p.Bedrooms == nil || *p.Bedrooms != *entities.Bedrooms {
			return false
		}
	}
	if entities.PriceRange != nil {
		min, max := priceBounds(entities.PriceRange)
		if p.Price < min || p.Price > max {
			return false
		}
	}
	if entities.PropertyType != nil {
		if p.Type == nil || !strings.Contains(strings.ToLower(*p.Type), strings.ToLower(*entities.PropertyType)) {
			return false
		}
	}
	return true
}
