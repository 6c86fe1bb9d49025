package models

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type Rating struct {
	ID        int64     `json:"id" db:"id"`
	AirdropID string    `json:"airdrop_id" db:"airdrop_id"`
	UserIP    string    `json:"-" db:"user_ip"`
	UserAgent string    `json:"-" db:"user_agent"`
	Rating    int       `json:"rating" db:"rating"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RatingStats summarises every rating for one airdrop. Distribution always
// carries keys 1 through 5.
type RatingStats struct {
	AverageRating float64     `json:"averageRating"`
	TotalRatings  int         `json:"totalRatings"`
	Distribution  map[int]int `json:"distribution"`
}

func EmptyDistribution() map[int]int {
	d := make(map[int]int, MaxRating)
	for i := MinRating; i <= MaxRating; i++ {
		d[i] = 0
	}
	return d
}

func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
