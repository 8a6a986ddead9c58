package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/lumenstack/lumen-rag/internal/models"
)

// MessageStore reads raw customer messages from Postgres. It backs the
// direct lookup-by-customer shortcut and is strictly read-only.
type MessageStore struct {
	db *sql.DB
}

// MessageStoreConfig holds Postgres connection parameters.
type MessageStoreConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// NewMessageStore opens and pings the customer-message database.
func NewMessageStore(cfg MessageStoreConfig) (*MessageStore, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open message store: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping message store: %w", err)
	}

	return &MessageStore{db: db}, nil
}

// NewMessageStoreFromDB wraps an existing handle; used by tests.
func NewMessageStoreFromDB(db *sql.DB) *MessageStore {
	return &MessageStore{db: db}
}

// FetchByCustomer returns the customer's full message history ordered by
// timestamp ascending for conversational coherence. Passages are unscored.
func (s *MessageStore) FetchByCustomer(ctx context.Context, name string) ([]models.RetrievedPassage, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("message store not initialised")
	}
	if name == "" {
		return nil, fmt.Errorf("customer name is required")
	}

	const query = `
		SELECT id, body, created_at, customer_name, contact, COALESCE(sentiment, ''), COALESCE(tags, '{}')
		FROM customer_messages
		WHERE lower(customer_name) = lower($1)
		ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("fetch messages for customer: %w", err)
	}
	defer rows.Close()

	var passages []models.RetrievedPassage
	for rows.Next() {
		var (
			id        string
			body      string
			createdAt time.Time
			customer  string
			contact   string
			sentiment string
			tags      pq.StringArray
		)
		if err := rows.Scan(&id, &body, &createdAt, &customer, &contact, &sentiment, &tags); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		passages = append(passages, models.RetrievedPassage{
			Corpus:    models.CorpusMessaging,
			ID:        id,
			Text:      body,
			Timestamp: createdAt,
			Metadata: models.PassageMetadata{
				Author:    customer,
				Contact:   contact,
				Sentiment: sentiment,
				Tags:      []string(tags),
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate message rows: %w", err)
	}

	return passages, nil
}

// Close releases the database handle.
func (s *MessageStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
