package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"airdrop-hunter-go/internal/models"
)

// ToggleReaction removes the client's reaction of type t when present and
// adds it otherwise. It reports whether the reaction now exists.
func (s *PostgresStore) ToggleReaction(ctx context.Context, commentID int64, clientKey string, t models.ReactionType) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM comment_reactions
		 WHERE comment_id = $1 AND ip_address = $2 AND reaction_type = $3`,
		commentID, clientKey, t)
	if err != nil {
		return false, fmt.Errorf("remove reaction: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO comment_reactions (comment_id, ip_address, reaction_type)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (comment_id, ip_address, reaction_type) DO NOTHING`,
		commentID, clientKey, t)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("add reaction: %w", err)
	}
	return true, nil
}

type reactionBucket struct {
	Type  models.ReactionType `db:"reaction_type"`
	Count int                 `db:"count"`
}

// ReactionCounts always carries every reaction type.
func (s *PostgresStore) ReactionCounts(ctx context.Context, commentID int64) (map[models.ReactionType]int, error) {
	var buckets []reactionBucket
	err := s.db.SelectContext(ctx, &buckets,
		`SELECT reaction_type, COUNT(*) AS count FROM comment_reactions
		 WHERE comment_id = $1 GROUP BY reaction_type`,
		commentID)
	if err != nil {
		return nil, fmt.Errorf("count reactions: %w", err)
	}

	counts := map[models.ReactionType]int{
		models.ReactionLike: 0,
		models.ReactionLove: 0,
		models.ReactionHaha: 0,
	}
	for _, b := range buckets {
		counts[b.Type] = b.Count
	}
	return counts, nil
}
