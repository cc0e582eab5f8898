package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"core/internal/model"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

const propertyColumns = `
	id, title, description, price, location, bedrooms, bathrooms,
	size_sqft, type, status, agent_id, images, created_at, updated_at`

// PostgresRepository handles database operations
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	// Disable prepared statement caching to avoid "unnamed prepared statement does not exist" errors
	if !strings.Contains(dsn, "?") {
		dsn += "?prefer_simple_protocol=true"
	} else {
		dsn += "&prefer_simple_protocol=true"
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// GetAllProperties returns every property, newest first
func (r *PostgresRepository) GetAllProperties(ctx context.Context) ([]model.Property, error) {
	query := fmt.Sprintf(`SELECT %s FROM properties ORDER BY created_at DESC`, propertyColumns)

	var properties []model.Property
	if err := r.db.SelectContext(ctx, &properties, query); err != nil {
		return nil, fmt.Errorf("failed to fetch properties: %w", err)
	}
	return properties, nil
}

// GetPropertiesByLocation returns properties whose location contains the given area
func (r *PostgresRepository) GetPropertiesByLocation(ctx context.Context, location string) ([]model.Property, error) {
	query := fmt.Sprintf(`SELECT %s FROM properties WHERE location ILIKE $1 ORDER BY created_at DESC`, propertyColumns)

	var properties []model.Property
	if err := r.db.SelectContext(ctx, &properties, query, "%"+location+"%"); err != nil {
		return nil, fmt.Errorf("failed to fetch properties by location: %w", err)
	}
	return properties, nil
}

// GetPropertiesByPriceRange returns properties within [min, max], cheapest first
func (r *PostgresRepository) GetPropertiesByPriceRange(ctx context.Context, min, max float64) ([]model.Property, error) {
	query := fmt.Sprintf(`SELECT %s FROM properties WHERE price >= $1 AND price <= $2 ORDER BY price ASC`, propertyColumns)

	var properties []model.Property
	if err := r.db.SelectContext(ctx, &properties, query, min, max); err != nil {
		return nil, fmt.Errorf("failed to fetch properties by price range: %w", err)
	}
	return properties, nil
}

// GetPropertiesByBedrooms returns properties with an exact bedroom count
func (r *PostgresRepository) GetPropertiesByBedrooms(ctx context.Context, bedrooms int) ([]model.Property, error) {
	query := fmt.Sprintf(`SELECT %s FROM properties WHERE bedrooms = $1 ORDER BY created_at DESC`, propertyColumns)

	var properties []model.Property
	if err := r.db.SelectContext(ctx, &properties, query, bedrooms); err != nil {
		return nil, fmt.Errorf("failed to fetch properties by bedrooms: %w", err)
	}
	return properties, nil
}

// GetPropertiesByStatus returns properties with the given status
func (r *PostgresRepository) GetPropertiesByStatus(ctx context.Context, status string) ([]model.Property, error) {
	query := fmt.Sprintf(`SELECT %s FROM properties WHERE status = $1 ORDER BY created_at DESC`, propertyColumns)

	var properties []model.Property
	if err := r.db.SelectContext(ctx, &properties, query, status); err != nil {
		return nil, fmt.Errorf("failed to fetch properties by status: %w", err)
	}
	return properties, nil
}

// GetAllAgents returns the agent roster
func (r *PostgresRepository) GetAllAgents(ctx context.Context) ([]model.Agent, error) {
	query := `SELECT id, name, email, phone, role, active, created_at FROM agents ORDER BY name ASC`

	var agents []model.Agent
	if err := r.db.SelectContext(ctx, &agents, query); err != nil {
		return nil, fmt.Errorf("failed to fetch agents: %w", err)
	}
	return agents, nil
}

// GetAllTasks returns all tasks
func (r *PostgresRepository) GetAllTasks(ctx context.Context) ([]model.Task, error) {
	query := `SELECT id, title, description, status, priority, agent_id, due_date, created_at FROM tasks ORDER BY created_at DESC`

	var tasks []model.Task
	if err := r.db.SelectContext(ctx, &tasks, query); err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}
	return tasks, nil
}

// GetPropertyStats aggregates the portfolio in one query
func (r *PostgresRepository) GetPropertyStats(ctx context.Context) (*model.PropertyStats, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'available') AS available,
			COUNT(*) FILTER (WHERE status = 'sold') AS sold,
			COUNT(*) FILTER (WHERE status = 'rented') AS rented,
			COALESCE(AVG(price), 0) AS average_price,
			COALESCE(MIN(price), 0) AS min_price,
			COALESCE(MAX(price), 0) AS max_price
		FROM properties
	`

	var stats model.PropertyStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to fetch property stats: %w", err)
	}
	return &stats, nil
}

// GetAgentStats aggregates the agent roster
func (r *PostgresRepository) GetAgentStats(ctx context.Context) (*model.AgentStats, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE active) AS active
		FROM agents
	`

	var stats model.AgentStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to fetch agent stats: %w", err)
	}
	return &stats, nil
}

// GetTaskStats aggregates open work
func (r *PostgresRepository) GetTaskStats(ctx context.Context) (*model.TaskStats, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'pending') AS pending,
			COUNT(*) FILTER (WHERE status = 'in_progress') AS in_progress,
			COUNT(*) FILTER (WHERE status = 'completed') AS completed,
			COUNT(*) FILTER (WHERE status != 'completed' AND due_date < NOW()) AS overdue
		FROM tasks
	`

	var stats model.TaskStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to fetch task stats: %w", err)
	}
	return &stats, nil
}

// GetPropertyAnalytics builds the deeper portfolio breakdown
func (r *PostgresRepository) GetPropertyAnalytics(ctx context.Context) (*model.PropertyAnalytics, error) {
	stats, err := r.GetPropertyStats(ctx)
	if err != nil {
		return nil, err
	}

	var byLocation []model.LocationCount
	locationQuery := `
		SELECT location, COUNT(*) AS count
		FROM properties
		GROUP BY location
		ORDER BY count DESC, location ASC
		LIMIT 10
	`
	if err := r.db.SelectContext(ctx, &byLocation, locationQuery); err != nil {
		return nil, fmt.Errorf("failed to fetch location breakdown: %w", err)
	}

	var newThisMonth int
	if err := r.db.GetContext(ctx, &newThisMonth,
		`SELECT COUNT(*) FROM properties WHERE created_at >= date_trunc('month', NOW())`); err != nil {
		return nil, fmt.Errorf("failed to count new properties: %w", err)
	}

	var viewingsTotal int
	if err := r.db.GetContext(ctx, &viewingsTotal, `SELECT COUNT(*) FROM viewing_requests`); err != nil {
		return nil, fmt.Errorf("failed to count viewing requests: %w", err)
	}

	return &model.PropertyAnalytics{
		Stats:         *stats,
		ByLocation:    byLocation,
		NewThisMonth:  newThisMonth,
		ViewingsTotal: viewingsTotal,
	}, nil
}

// GetAvailabilityReport summarizes what is currently on the market
func (r *PostgresRepository) GetAvailabilityReport(ctx context.Context) (*model.AvailabilityReport, error) {
	properties, err := r.GetPropertiesByStatus(ctx, model.StatusAvailable)
	if err != nil {
		return nil, err
	}

	report := &model.AvailabilityReport{
		Available:   len(properties),
		GeneratedAt: time.Now(),
		Properties:  properties,
	}

	seen := map[string]bool{}
	for i, p := range properties {
		if !seen[p.Location] {
			seen[p.Location] = true
			report.Locations = append(report.Locations, p.Location)
		}
		if report.PriceFrom == 0 || p.Price < report.PriceFrom {
			report.PriceFrom = p.Price
		}
		if p.Price > report.PriceTo {
			report.PriceTo = p.Price
		}
		if i < 3 {
			report.SampleTitles = append(report.SampleTitles, p.Title)
		}
	}

	return report, nil
}

// SaveViewingRequest persists a confirmed booking so an agent can pick it up
func (r *PostgresRepository) SaveViewingRequest(ctx context.Context, vr *model.ViewingRequest) error {
	query := `
		INSERT INTO viewing_requests
			(id, property_id, property_title, client_name, client_contact, preferred_date, preferred_time, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		vr.ID, vr.PropertyID, vr.PropertyTitle, vr.ClientName, vr.ClientContact,
		vr.PreferredDate, vr.PreferredTime, vr.Message, vr.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save viewing request: %w", err)
	}
	return nil
}

// SaveChatMessage appends one transcript entry
func (r *PostgresRepository) SaveChatMessage(ctx context.Context, msg *model.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO chat_messages (id, session_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, msg.ID, msg.SessionID, msg.Role, msg.Content, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save chat message: %w", err)
	}
	return nil
}

// GetRecentMessages returns the latest transcript entries for a session, newest first
func (r *PostgresRepository) GetRecentMessages(ctx context.Context, sessionID string, limit int) ([]model.ChatMessage, error) {
	query := `
		SELECT id, session_id, role, content, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	var messages []model.ChatMessage
	if err := r.db.SelectContext(ctx, &messages, query, sessionID, limit); err != nil {
		return nil, fmt.Errorf("failed to fetch chat messages: %w", err)
	}
	return messages, nil
}

// UpdateEmbedding updates the embedding vector for a property
func (r *PostgresRepository) UpdateEmbedding(ctx context.Context, propertyID int64, embedding []float32) error {
	vec := pgvector.NewVector(embedding)
	query := `UPDATE properties SET embedding = $1, updated_at = NOW() WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, vec, propertyID); err != nil {
		return fmt.Errorf("failed to update embedding: %w", err)
	}
	return nil
}

// BatchUpdateEmbeddings updates embeddings for multiple properties
func (r *PostgresRepository) BatchUpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string) {
	success := 0
	var errors []string

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		errors = append(errors, fmt.Sprintf("failed to start transaction: %v", err))
		return success, errors
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `UPDATE properties SET embedding = $1, updated_at = NOW() WHERE id = $2`)
	if err != nil {
		errors = append(errors, fmt.Sprintf("failed to prepare statement: %v", err))
		return success, errors
	}
	defer stmt.Close()

	for _, item := range items {
		vec := pgvector.NewVector(item.Embedding)
		if _, err := stmt.ExecContext(ctx, vec, item.PropertyID); err != nil {
			errors = append(errors, fmt.Sprintf("property_id %d: %v", item.PropertyID, err))
			continue
		}
		success++
	}

	if err := tx.Commit(); err != nil {
		errors = append(errors, fmt.Sprintf("failed to commit transaction: %v", err))
		return 0, errors
	}

	return success, errors
}

// LogFeedback records which suggested property a user acted on
func (r *PostgresRepository) LogFeedback(ctx context.Context, sessionID string, propertyID int64, action string) error {
	query := `
		INSERT INTO chat_feedback (session_id, property_id, action, created_at)
		VALUES ($1, $2, $3, NOW())
	`
	if _, err := r.db.ExecContext(ctx, query, sessionID, propertyID, action); err != nil {
		return fmt.Errorf("failed to log feedback: %w", err)
	}
	return nil
}

// GetPropertyByID retrieves a single property
func (r *PostgresRepository) GetPropertyByID(ctx context.Context, id int64) (*model.Property, error) {
	query := fmt.Sprintf(`SELECT %s FROM properties WHERE id = $1`, propertyColumns)

	var property model.Property
	if err := r.db.GetContext(ctx, &property, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return &property, nil
}
