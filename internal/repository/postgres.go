package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/sahistory/timeline/internal/models"
)

// Config holds database configuration
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:            "localhost",
		Port:            5432,
		User:            "postgres",
		Password:        "postgres",
		Database:        "timeline_content",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// Postgres reads content records out of the CMS PostgreSQL database.
type Postgres struct {
	db     *sql.DB
	config Config
}

// NewPostgres opens and verifies a database connection.
func NewPostgres(config Config) (*Postgres, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.Database, config.SSLMode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{db: db, config: config}, nil
}

// Close closes the database connection
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Migrate creates the content tables for local development. The production
// schema is owned by the CMS.
func (p *Postgres) Migrate(ctx context.Context) error {
	migrations := []string{
		migrationContentRecords,
		migrationContentIndexes,
	}

	for i, migration := range migrations {
		if _, err := p.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}

const selectColumns = `
	id, title, COALESCE(body, ''), COALESCE(url, ''), content_type,
	COALESCE(image_url, ''), locations, themes, categories,
	this_day_primary, this_day_secondary, start_date, end_date,
	birth_date, death_date, archive_date, event_date, created_at`

func (p *Postgres) ListTimelineEligibleRecords(ctx context.Context) ([]models.RawRecord, error) {
	query := `SELECT ` + selectColumns + `
		FROM content_records
		WHERE published = true AND content_type = ANY($1)
		ORDER BY id`

	rows, err := p.db.QueryContext(ctx, query, pq.Array(EligibleContentTypes))
	if err != nil {
		return nil, fmt.Errorf("failed to list timeline records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (p *Postgres) ListCandidateHTMLBodies(ctx context.Context) ([]models.RawRecord, error) {
	// Cheap textual heuristic; the extractor decides what actually counts.
	query := `SELECT ` + selectColumns + `
		FROM content_records
		WHERE published = true
		  AND (body ILIKE '%timeline-item%'
		    OR body ILIKE '%timeline-event%'
		    OR body ILIKE '%data-timeline-date%'
		    OR title ILIKE '%timeline%')
		ORDER BY id`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate bodies: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (p *Postgres) ChangeTag(ctx context.Context) (string, error) {
	var count int64
	var latest sql.NullTime

	query := `SELECT COUNT(*), MAX(updated_at) FROM content_records WHERE published = true`
	if err := p.db.QueryRowContext(ctx, query).Scan(&count, &latest); err != nil {
		return "", fmt.Errorf("failed to read change tag: %w", err)
	}

	tag := fmt.Sprintf("%d:", count)
	if latest.Valid {
		tag += latest.Time.UTC().Format(time.RFC3339Nano)
	}
	return tag, nil
}

func scanRecords(rows *sql.Rows) ([]models.RawRecord, error) {
	records := make([]models.RawRecord, 0)

	for rows.Next() {
		var r models.RawRecord
		var locations, themes, categories pq.StringArray
		var dateFields [8]sql.NullString

		err := rows.Scan(
			&r.ID, &r.Title, &r.Body, &r.URL, &r.ContentType,
			&r.ImageURL, &locations, &themes, &categories,
			&dateFields[0], &dateFields[1], &dateFields[2], &dateFields[3],
			&dateFields[4], &dateFields[5], &dateFields[6], &dateFields[7],
			&r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content record: %w", err)
		}

		r.Locations = locations
		r.Themes = themes
		r.Categories = categories
		r.DateFields = make(map[string]string, len(models.DateFieldPriority))
		for i, name := range models.DateFieldPriority {
			if dateFields[i].Valid {
				r.DateFields[name] = dateFields[i].String
			}
		}

		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate content records: %w", err)
	}
	return records, nil
}

var _ Repository = (*Postgres)(nil)

const migrationContentRecords = `
CREATE TABLE IF NOT EXISTS content_records (
    id VARCHAR(64) PRIMARY KEY,
    title VARCHAR(512) NOT NULL,
    body TEXT,
    url VARCHAR(1024),
    content_type VARCHAR(32) NOT NULL,
    published BOOLEAN NOT NULL DEFAULT false,
    image_url VARCHAR(1024),
    locations TEXT[] NOT NULL DEFAULT '{}',
    themes TEXT[] NOT NULL DEFAULT '{}',
    categories TEXT[] NOT NULL DEFAULT '{}',
    this_day_primary VARCHAR(32),
    this_day_secondary VARCHAR(32),
    start_date VARCHAR(32),
    end_date VARCHAR(32),
    birth_date VARCHAR(32),
    death_date VARCHAR(32),
    archive_date VARCHAR(32),
    event_date VARCHAR(32),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

const migrationContentIndexes = `
CREATE INDEX IF NOT EXISTS idx_content_published_type ON content_records(published, content_type);
CREATE INDEX IF NOT EXISTS idx_content_updated ON content_records(updated_at DESC);
`
