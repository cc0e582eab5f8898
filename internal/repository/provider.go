package repository

import (
	"context"

	"core/internal/model"
)

// Provider is the read-only property/agent/task data source the orchestrator
// consumes. Implementations return already-shaped records; any error is
// treated by callers as "domain data unavailable".
type Provider interface {
	GetAllProperties(ctx context.Context) ([]model.Property, error)
	GetPropertiesByLocation(ctx context.Context, location string) ([]model.Property, error)
	GetPropertiesByPriceRange(ctx context.Context, min, max float64) ([]model.Property, error)
	GetPropertiesByBedrooms(ctx context.Context, bedrooms int) ([]model.Property, error)
	GetPropertiesByStatus(ctx context.Context, status string) ([]model.Property, error)

	GetAllAgents(ctx context.Context) ([]model.Agent, error)
	GetAllTasks(ctx context.Context) ([]model.Task, error)

	GetPropertyStats(ctx context.Context) (*model.PropertyStats, error)
	GetAgentStats(ctx context.Context) (*model.AgentStats, error)
	GetTaskStats(ctx context.Context) (*model.TaskStats, error)
	GetPropertyAnalytics(ctx context.Context) (*model.PropertyAnalytics, error)
	GetAvailabilityReport(ctx context.Context) (*model.AvailabilityReport, error)
}
