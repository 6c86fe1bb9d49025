package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"airdrop-hunter-go/internal/models"
)

const commentColumns = `id, airdrop_id, parent_id, author_name, content, ip_address, created_at`

// foreign_key_violation
const pqForeignKeyViolation = "23503"

// CreateComment inserts c. A reply is only stored when its parent exists on
// the same airdrop; otherwise ErrParentNotFound is returned.
func (s *PostgresStore) CreateComment(ctx context.Context, c models.Comment) (models.Comment, error) {
	var out models.Comment
	err := s.db.GetContext(ctx, &out,
		`INSERT INTO comments (airdrop_id, parent_id, author_name, content, ip_address)
		 SELECT $1::TEXT, $2::BIGINT, $3::TEXT, $4::TEXT, $5::TEXT
		 WHERE $2::BIGINT IS NULL
		    OR EXISTS (SELECT 1 FROM comments p WHERE p.id = $2::BIGINT AND p.airdrop_id = $1::TEXT)
		 RETURNING `+commentColumns,
		c.AirdropID, c.ParentID, c.Author, c.Content, c.IPAddress,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.Is(err, sql.ErrNoRows) || (errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation) {
			return models.Comment{}, ErrParentNotFound
		}
		return models.Comment{}, fmt.Errorf("create comment: %w", err)
	}
	out.Replies = []*models.Comment{}
	return out, nil
}

// ListComments returns every comment of an airdrop, newest first.
func (s *PostgresStore) ListComments(ctx context.Context, airdropID string) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := s.db.SelectContext(ctx, &comments,
		`SELECT `+commentColumns+` FROM comments
		 WHERE airdrop_id = $1 ORDER BY created_at DESC, id DESC`,
		airdropID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}
