package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"airdrop-hunter-go/internal/models"
)

const ratingColumns = `id, airdrop_id, user_ip, user_agent, rating, created_at, updated_at`

// SubmitRating records one rating per (airdrop, client); a second submission
// replaces the first.
func (s *PostgresStore) SubmitRating(ctx context.Context, airdropID, clientKey string, rating int, userAgent string) (models.Rating, error) {
	if !models.ValidRating(rating) {
		return models.Rating{}, ErrInvalidRating
	}

	var out models.Rating
	err := s.db.GetContext(ctx, &out,
		`INSERT INTO user_ratings (airdrop_id, user_ip, user_agent, rating)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (airdrop_id, user_ip) DO UPDATE
		 SET rating = EXCLUDED.rating,
		     user_agent = EXCLUDED.user_agent,
		     updated_at = NOW()
		 RETURNING `+ratingColumns,
		airdropID, clientKey, userAgent, rating,
	)
	if err != nil {
		return models.Rating{}, fmt.Errorf("submit rating: %w", err)
	}
	return out, nil
}

// GetUserRating returns nil when the client has not rated the airdrop.
func (s *PostgresStore) GetUserRating(ctx context.Context, airdropID, clientKey string) (*models.Rating, error) {
	var r models.Rating
	err := s.db.GetContext(ctx, &r,
		`SELECT `+ratingColumns+` FROM user_ratings WHERE airdrop_id = $1 AND user_ip = $2`,
		airdropID, clientKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user rating: %w", err)
	}
	return &r, nil
}

type ratingBucket struct {
	Rating int `db:"rating"`
	Count  int `db:"count"`
}

func (s *PostgresStore) GetAirdropRatingStats(ctx context.Context, airdropID string) (models.RatingStats, error) {
	var buckets []ratingBucket
	err := s.db.SelectContext(ctx, &buckets,
		`SELECT rating, COUNT(*) AS count FROM user_ratings WHERE airdrop_id = $1 GROUP BY rating`,
		airdropID)
	if err != nil {
		return models.RatingStats{}, fmt.Errorf("rating stats: %w", err)
	}
	return summarize(buckets), nil
}

func summarize(buckets []ratingBucket) models.RatingStats {
	stats := models.RatingStats{Distribution: models.EmptyDistribution()}
	sum := 0
	for _, b := range buckets {
		if !models.ValidRating(b.Rating) {
			continue
		}
		stats.Distribution[b.Rating] += b.Count
		stats.TotalRatings += b.Count
		sum += b.Rating * b.Count
	}
	if stats.TotalRatings > 0 {
		avg := float64(sum) / float64(stats.TotalRatings)
		stats.AverageRating = math.Round(avg*10) / 10
	}
	return stats
}

// GetRatingHistory lists the most recent ratings first.
func (s *PostgresStore) GetRatingHistory(ctx context.Context, airdropID string, limit int) ([]models.Rating, error) {
	if limit <= 0 {
		limit = 50
	}
	ratings := []models.Rating{}
	err := s.db.SelectContext(ctx, &ratings,
		`SELECT `+ratingColumns+` FROM user_ratings
		 WHERE airdrop_id = $1 ORDER BY updated_at DESC LIMIT $2`,
		airdropID, limit)
	if err != nil {
		return nil, fmt.Errorf("rating history: %w", err)
	}
	return ratings, nil
}
