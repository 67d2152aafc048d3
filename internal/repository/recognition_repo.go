package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"speechcheck/internal/database"
	"speechcheck/internal/models"
)

// RecognitionRepository stores recognition sessions and their results.
// Both are write-once.
type RecognitionRepository struct {
	db *database.DB
}

// NewRecognitionRepository creates a new recognition repository
func NewRecognitionRepository(db *database.DB) *RecognitionRepository {
	return &RecognitionRepository{db: db}
}

// CreateSessionWithResult writes a session and its result in one transaction
// and fills in the result id
func (r *RecognitionRepository) CreateSessionWithResult(ctx context.Context, session *models.RecognitionSession, result *models.RecognitionResult) error {
	if result.Alternatives == nil {
		result.Alternatives = []models.Alternative{}
	}
	alternatives, err := json.Marshal(result.Alternatives)
	if err != nil {
		return fmt.Errorf("failed to encode alternatives: %w", err)
	}
	result.SessionID = session.ID

	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := insertSession(ctx, tx, session); err != nil {
			return err
		}

		query := `
			INSERT INTO recognition_results (session_id, target_text, recognized_text, confidence_score, is_correct, alternatives, processing_time, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`
		id, err := tx.ExecReturningID(ctx, query,
			result.SessionID,
			result.TargetText,
			result.RecognizedText,
			result.ConfidenceScore,
			result.IsCorrect,
			string(alternatives),
			result.ProcessingTime,
			result.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create recognition result: %w", err)
		}
		result.ID = id
		return nil
	})
}

// CreateSession writes a session without a result. The pipeline always goes
// through CreateSessionWithResult; this is for recording an orphaned session,
// which readers treat as failed or still in progress (tests use it to build
// that state).
func (r *RecognitionRepository) CreateSession(ctx context.Context, session *models.RecognitionSession) error {
	return insertSession(ctx, r.db, session)
}

func insertSession(ctx context.Context, q database.DBTX, session *models.RecognitionSession) error {
	query := `
		INSERT INTO recognition_sessions (id, user_id, target_sentence_id, audio_duration, stt_model, stt_language, session_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.TargetSentenceID,
		session.AudioDuration,
		session.Engine,
		session.Language,
		session.SessionDate,
	)
	if err != nil {
		return fmt.Errorf("failed to create recognition session: %w", err)
	}
	return nil
}

// GetSessionByID retrieves a session by id
func (r *RecognitionRepository) GetSessionByID(ctx context.Context, id string) (*models.RecognitionSession, error) {
	query := `
		SELECT id, user_id, target_sentence_id, audio_duration, stt_model, stt_language, session_date
		FROM recognition_sessions
		WHERE id = ?
	`
	var s models.RecognitionSession
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID,
		&s.UserID,
		&s.TargetSentenceID,
		&s.AudioDuration,
		&s.Engine,
		&s.Language,
		&s.SessionDate,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recognition session: %w", err)
	}
	return &s, nil
}

// ListResults returns results joined with their session, user and target
// item, newest first. A non-positive limit returns every row.
func (r *RecognitionRepository) ListResults(ctx context.Context, filter models.ResultFilter) ([]models.ResultRow, error) {
	query := `
		SELECT
			rr.id, rr.session_id, rr.target_text, rr.recognized_text, rr.confidence_score,
			rr.is_correct, rr.alternatives, rr.processing_time, rr.created_at,
			rs.user_id, rs.target_sentence_id, rs.session_date,
			u.username, u.age, u.gender,
			ts.content, ts.type
		FROM recognition_results rr
		JOIN recognition_sessions rs ON rr.session_id = rs.id
		LEFT JOIN users u ON rs.user_id = u.id
		LEFT JOIN target_sentences ts ON rs.target_sentence_id = ts.id
		WHERE 1=1
	`
	var args []any
	if filter.UserID != "" {
		query += " AND rs.user_id = ?"
		args = append(args, filter.UserID)
	}
	if filter.SentenceID != 0 {
		query += " AND rs.target_sentence_id = ?"
		args = append(args, filter.SentenceID)
	}
	query += " ORDER BY rr.created_at DESC, rr.id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	results := []models.ResultRow{}
	for rows.Next() {
		var row models.ResultRow
		var alternatives string
		var username, gender, content, itemType sql.NullString
		var age sql.NullInt64
		if err := rows.Scan(
			&row.ID,
			&row.SessionID,
			&row.TargetText,
			&row.RecognizedText,
			&row.ConfidenceScore,
			&row.IsCorrect,
			&alternatives,
			&row.ProcessingTime,
			&row.CreatedAt,
			&row.UserID,
			&row.TargetSentenceID,
			&row.SessionDate,
			&username,
			&age,
			&gender,
			&content,
			&itemType,
		); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}

		row.Alternatives = decodeAlternatives(alternatives)
		row.Username = nullString(username)
		row.Gender = nullString(gender)
		row.SentenceContent = nullString(content)
		row.SentenceType = nullString(itemType)
		if age.Valid {
			a := int(age.Int64)
			row.Age = &a
		}
		results = append(results, row)
	}

	return results, rows.Err()
}

// CountSessions returns the number of stored sessions
func (r *RecognitionRepository) CountSessions(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM recognition_sessions").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// CountResults returns the number of stored results
func (r *RecognitionRepository) CountResults(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM recognition_results").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count results: %w", err)
	}
	return count, nil
}

func decodeAlternatives(raw string) []models.Alternative {
	alternatives := []models.Alternative{}
	if raw == "" {
		return alternatives
	}
	if err := json.Unmarshal([]byte(raw), &alternatives); err != nil || alternatives == nil {
		return []models.Alternative{}
	}
	return alternatives
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
