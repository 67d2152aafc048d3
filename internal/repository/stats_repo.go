package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"speechcheck/internal/database"
	"speechcheck/internal/models"
)

// StatsRepository runs the aggregate queries behind the statistics views.
// Accuracy and ordering are left to the caller.
type StatsRepository struct {
	db *database.DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *database.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// SessionOutcome is one session with its result, if any
type SessionOutcome struct {
	SessionDate time.Time
	HasResult   bool
	IsCorrect   bool
	Confidence  float64
}

// SentenceTotals aggregates attempts per target item, including items nobody
// has attempted, in id order
func (r *StatsRepository) SentenceTotals(ctx context.Context) ([]models.SentenceStats, error) {
	query := `
		SELECT
			ts.id, ts.content, ts.type, ts.level, ts.set_number, ts.expected_variations,
			COUNT(DISTINCT rs.id),
			COALESCE(SUM(CASE WHEN rr.is_correct THEN 1 ELSE 0 END), 0),
			AVG(rr.confidence_score),
			COUNT(DISTINCT rs.user_id)
		FROM target_sentences ts
		LEFT JOIN recognition_sessions rs ON ts.id = rs.target_sentence_id
		LEFT JOIN recognition_results rr ON rs.id = rr.session_id
		GROUP BY ts.id, ts.content, ts.type, ts.level, ts.set_number, ts.expected_variations
		ORDER BY ts.id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sentence stats: %w", err)
	}
	defer rows.Close()

	stats := []models.SentenceStats{}
	for rows.Next() {
		var s models.SentenceStats
		var variations string
		var avg sql.NullFloat64
		if err := rows.Scan(
			&s.ID,
			&s.Content,
			&s.Type,
			&s.Level,
			&s.SetNumber,
			&variations,
			&s.TotalAttempts,
			&s.CorrectCount,
			&avg,
			&s.UserCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sentence stats: %w", err)
		}
		s.ExpectedVariations = decodeVariations(variations)
		s.AvgConfidence = avg.Float64
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// UserTotals aggregates attempts per user, including users with no sessions,
// oldest user first
func (r *StatsRepository) UserTotals(ctx context.Context) ([]models.UserStats, error) {
	query := `
		SELECT
			u.id, u.username, u.age, u.gender,
			COUNT(DISTINCT rs.id),
			COALESCE(SUM(CASE WHEN rr.is_correct THEN 1 ELSE 0 END), 0),
			AVG(rr.confidence_score)
		FROM users u
		LEFT JOIN recognition_sessions rs ON u.id = rs.user_id
		LEFT JOIN recognition_results rr ON rs.id = rr.session_id
		GROUP BY u.id, u.username, u.age, u.gender, u.created_at
		ORDER BY u.created_at, u.id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query user stats: %w", err)
	}
	defer rows.Close()

	stats := []models.UserStats{}
	for rows.Next() {
		var s models.UserStats
		var avg sql.NullFloat64
		if err := rows.Scan(
			&s.ID,
			&s.Username,
			&s.Age,
			&s.Gender,
			&s.TotalAttempts,
			&s.CorrectCount,
			&avg,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user stats: %w", err)
		}
		s.AvgConfidence = avg.Float64
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// SessionOutcomes returns every session with its result fields. Hour
// bucketing happens in Go so it behaves the same on every dialect.
func (r *StatsRepository) SessionOutcomes(ctx context.Context) ([]SessionOutcome, error) {
	query := `
		SELECT rs.session_date, rr.id, rr.is_correct, rr.confidence_score
		FROM recognition_sessions rs
		LEFT JOIN recognition_results rr ON rs.id = rr.session_id
		ORDER BY rs.session_date
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query session outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []SessionOutcome
	for rows.Next() {
		var o SessionOutcome
		var resultID sql.NullInt64
		var correct sql.NullBool
		var confidence sql.NullFloat64
		if err := rows.Scan(&o.SessionDate, &resultID, &correct, &confidence); err != nil {
			return nil, fmt.Errorf("failed to scan session outcome: %w", err)
		}
		o.HasResult = resultID.Valid
		o.IsCorrect = correct.Bool
		o.Confidence = confidence.Float64
		outcomes = append(outcomes, o)
	}

	return outcomes, rows.Err()
}
