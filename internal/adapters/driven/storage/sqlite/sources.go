package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
)

// SourceCatalog resolves source IDs to display names.
type SourceCatalog struct {
	db *sql.DB
}

var _ driven.SourceCatalog = (*SourceCatalog)(nil)

// SourceName returns the name of a source, or "" if it is unknown.
func (c *SourceCatalog) SourceName(ctx context.Context, sourceID string) (string, error) {
	var name string
	err := c.db.QueryRowContext(ctx, "SELECT name FROM sources WHERE id = ?", sourceID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("looking up source %s: %w", sourceID, err)
	}
	return name, nil
}

// SaveSource records a source and its display name.
func (c *SourceCatalog) SaveSource(ctx context.Context, id, sourceType, name string) error {
	now := time.Now().UTC()
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO sources (id, type, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			name = excluded.name,
			updated_at = excluded.updated_at
	`, id, sourceType, name, now, now)
	if err != nil {
		return fmt.Errorf("saving source %s: %w", id, err)
	}
	return nil
}
