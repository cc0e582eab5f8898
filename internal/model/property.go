package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/pgvector/pgvector-go"
)

// Property represents a listed property
type Property struct {
	ID          int64           `json:"id" db:"id"`
	Title       string          `json:"title" db:"title"`
	Description *string         `json:"description,omitempty" db:"description"`
	Price       float64         `json:"price" db:"price"`
	Location    string          `json:"location" db:"location"`
	Bedrooms    *int            `json:"bedrooms,omitempty" db:"bedrooms"`
	Bathrooms   *int            `json:"bathrooms,omitempty" db:"bathrooms"`
	SizeSqft    *float64        `json:"size_sqft,omitempty" db:"size_sqft"`
	Type        *string         `json:"type,omitempty" db:"type"`
	Status      string          `json:"status" db:"status"`
	AgentID     *int64          `json:"agent_id,omitempty" db:"agent_id"`
	Images      JSONArray       `json:"images,omitempty" db:"images"`
	Embedding   pgvector.Vector `json:"-" db:"embedding"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Property status values
const (
	StatusAvailable = "available"
	StatusSold      = "sold"
	StatusRented    = "rented"
	StatusPending   = "pending"
)

// Agent represents a staff member handling properties
type Agent struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone" db:"phone"`
	Role      string    `json:"role" db:"role"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Task represents a unit of work assigned to an agent
type Task struct {
	ID          int64      `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description,omitempty" db:"description"`
	Status      string     `json:"status" db:"status"`
	Priority    string     `json:"priority" db:"priority"`
	AgentID     *int64     `json:"agent_id,omitempty" db:"agent_id"`
	DueDate     *time.Time `json:"due_date,omitempty" db:"due_date"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// PropertyStats aggregates the property portfolio
type PropertyStats struct {
	Total        int     `json:"total" db:"total"`
	Available    int     `json:"available" db:"available"`
	Sold         int     `json:"sold" db:"sold"`
	Rented       int     `json:"rented" db:"rented"`
	AveragePrice float64 `json:"average_price" db:"average_price"`
	MinPrice     float64 `json:"min_price" db:"min_price"`
	MaxPrice     float64 `json:"max_price" db:"max_price"`
}

// AgentStats aggregates the agent roster
type AgentStats struct {
	Total  int `json:"total" db:"total"`
	Active int `json:"active" db:"active"`
}

// TaskStats aggregates open work
type TaskStats struct {
	Total      int `json:"total" db:"total"`
	Pending    int `json:"pending" db:"pending"`
	InProgress int `json:"in_progress" db:"in_progress"`
	Completed  int `json:"completed" db:"completed"`
	Overdue    int `json:"overdue" db:"overdue"`
}

// LocationCount is a per-location property tally
type LocationCount struct {
	Location string `json:"location" db:"location"`
	Count    int    `json:"count" db:"count"`
}

// PropertyAnalytics carries the deeper portfolio breakdown
type PropertyAnalytics struct {
	Stats         PropertyStats   `json:"stats"`
	ByLocation    []LocationCount `json:"by_location"`
	NewThisMonth  int             `json:"new_this_month"`
	ViewingsTotal int             `json:"viewings_total"`
}

// AvailabilityReport summarizes what is currently on the market
type AvailabilityReport struct {
	Available    int        `json:"available"`
	Locations    []string   `json:"locations"`
	PriceFrom    float64    `json:"price_from"`
	PriceTo      float64    `json:"price_to"`
	SampleTitles []string   `json:"sample_titles"`
	GeneratedAt  time.Time  `json:"generated_at"`
	Properties   []Property `json:"-"`
}

// JSONArray represents a JSON array field
type JSONArray []string

// Value implements driver.Valuer interface
func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), j)
	}
	return json.Unmarshal(bytes, j)
}
