package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/rocket-training/ai-service/internal/storage/models"
	"github.com/rocket-training/ai-service/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS lead_scores (
		id TEXT PRIMARY KEY,
		lead_id TEXT NOT NULL,
		score REAL NOT NULL,
		quality TEXT NOT NULL,
		escalate INTEGER DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_lead_scores_lead ON lead_scores(lead_id);
	CREATE INDEX IF NOT EXISTS idx_lead_scores_created ON lead_scores(created_at);

	CREATE TABLE IF NOT EXISTS recommendations (
		id TEXT PRIMARY KEY,
		job_id TEXT NOT NULL,
		candidate_count INTEGER NOT NULL,
		top_candidate_id TEXT,
		top_score REAL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_recommendations_job ON recommendations(job_id);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Info("Database schema initialized")
	return nil
}

func (c *Client) InsertScore(record models.ScoreRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	escalate := 0
	if record.Escalate {
		escalate = 1
	}

	_, err := c.db.Exec(
		`INSERT INTO lead_scores (id, lead_id, score, quality, escalate, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID, record.LeadID, record.Score, record.Quality, escalate, record.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert lead score: %w", err)
	}

	return nil
}

// LatestScore returns the most recent score row for a lead. The boolean is
// false when the lead has never been scored.
func (c *Client) LatestScore(leadID string) (models.ScoreRecord, bool, error) {
	row := c.db.QueryRow(
		`SELECT id, lead_id, score, quality, escalate, created_at
		 FROM lead_scores WHERE lead_id = ?
		 ORDER BY created_at DESC LIMIT 1`,
		leadID,
	)

	var record models.ScoreRecord
	var escalate int
	var createdAt int64
	err := row.Scan(&record.ID, &record.LeadID, &record.Score, &record.Quality, &escalate, &createdAt)
	if err == sql.ErrNoRows {
		return models.ScoreRecord{}, false, nil
	}
	if err != nil {
		return models.ScoreRecord{}, false, fmt.Errorf("failed to query lead score: %w", err)
	}

	record.Escalate = escalate != 0
	record.CreatedAt = time.Unix(createdAt, 0)
	return record, true, nil
}

// QualityDistribution counts the latest score per lead, grouped by tier.
func (c *Client) QualityDistribution() (map[string]int, error) {
	rows, err := c.db.Query(
		`SELECT quality, COUNT(*) FROM lead_scores s
		 WHERE created_at = (
			SELECT MAX(created_at) FROM lead_scores WHERE lead_id = s.lead_id
		 )
		 GROUP BY quality`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query quality distribution: %w", err)
	}
	defer rows.Close()

	distribution := make(map[string]int)
	for rows.Next() {
		var quality string
		var count int
		if err := rows.Scan(&quality, &count); err != nil {
			return nil, fmt.Errorf("failed to scan distribution row: %w", err)
		}
		distribution[quality] = count
	}
	return distribution, rows.Err()
}

func (c *Client) InsertRecommendation(record models.RecommendationRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	_, err := c.db.Exec(
		`INSERT INTO recommendations (id, job_id, candidate_count, top_candidate_id, top_score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID, record.JobID, record.CandidateCount, record.TopCandidateID, record.TopScore, record.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert recommendation: %w", err)
	}

	return nil
}
