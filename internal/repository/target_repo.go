package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"speechcheck/internal/database"
	"speechcheck/internal/models"
)

// TargetRepository handles database operations for the sentence/word bank
type TargetRepository struct {
	db *database.DB
}

// NewTargetRepository creates a new target item repository
func NewTargetRepository(db *database.DB) *TargetRepository {
	return &TargetRepository{db: db}
}

// CreateItem inserts a target item and fills in its id and creation time
func (r *TargetRepository) CreateItem(ctx context.Context, item *models.TargetItem) error {
	if item.ExpectedVariations == nil {
		item.ExpectedVariations = []string{}
	}
	variations, err := json.Marshal(item.ExpectedVariations)
	if err != nil {
		return fmt.Errorf("failed to encode expected variations: %w", err)
	}

	item.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO target_sentences (content, type, level, set_number, expected_variations, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		item.Content, item.Type, item.Level, item.SetNumber, string(variations), item.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create target item: %w", err)
	}
	item.ID = id

	return nil
}

// GetItemByID retrieves a target item by id
func (r *TargetRepository) GetItemByID(ctx context.Context, id int64) (*models.TargetItem, error) {
	query := `
		SELECT id, content, type, level, set_number, expected_variations, created_at
		FROM target_sentences
		WHERE id = ?
	`
	item, err := scanTargetItem(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get target item: %w", err)
	}

	return item, nil
}

// ListItems returns target items matching the filter, ordered by level,
// then set, then newest first
func (r *TargetRepository) ListItems(ctx context.Context, filter models.TargetItemFilter) ([]models.TargetItem, error) {
	query := `
		SELECT id, content, type, level, set_number, expected_variations, created_at
		FROM target_sentences
		WHERE 1=1
	`
	var args []any
	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, filter.Type)
	}
	if filter.Level != "" {
		query += " AND level = ?"
		args = append(args, filter.Level)
	}
	if filter.SetNumber != 0 {
		query += " AND set_number = ?"
		args = append(args, filter.SetNumber)
	}
	query += " ORDER BY level ASC, set_number ASC, created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list target items: %w", err)
	}
	defer rows.Close()

	items := []models.TargetItem{}
	for rows.Next() {
		item, err := scanTargetItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan target item: %w", err)
		}
		items = append(items, *item)
	}

	return items, rows.Err()
}

// CountItems returns the number of target items in the bank
func (r *TargetRepository) CountItems(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM target_sentences").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count target items: %w", err)
	}
	return count, nil
}

// DeleteItem removes a target item. Sessions that reference it are left in place.
func (r *TargetRepository) DeleteItem(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM target_sentences WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete target item: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTargetItem(row rowScanner) (*models.TargetItem, error) {
	var item models.TargetItem
	var variations string
	if err := row.Scan(
		&item.ID,
		&item.Content,
		&item.Type,
		&item.Level,
		&item.SetNumber,
		&variations,
		&item.CreatedAt,
	); err != nil {
		return nil, err
	}
	item.ExpectedVariations = decodeVariations(variations)
	return &item, nil
}

// decodeVariations parses the stored JSON list, treating malformed data as empty
func decodeVariations(raw string) []string {
	variations := []string{}
	if raw == "" {
		return variations
	}
	if err := json.Unmarshal([]byte(raw), &variations); err != nil || variations == nil {
		return []string{}
	}
	return variations
}
