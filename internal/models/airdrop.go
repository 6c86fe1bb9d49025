package models

import (
	"database/sql/driver"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/lib/pq"
)

type AirdropCategory string

const (
	CategoryLatest    AirdropCategory = "latest"
	CategoryHottest   AirdropCategory = "hottest"
	CategoryPotential AirdropCategory = "potential"
)

type AirdropStatus string

const (
	StatusActive    AirdropStatus = "active"
	StatusConfirmed AirdropStatus = "confirmed"
	StatusUpcoming  AirdropStatus = "upcoming"
	StatusEnded     AirdropStatus = "ended"
)

// Airdrop is a catalog entry. Rating and TotalRatings are derived from
// user_ratings on read and never written.
type Airdrop struct {
	ID           string          `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	Logo         string          `json:"logo" db:"logo"`
	Description  string          `json:"description" db:"description"`
	Action       string          `json:"action" db:"action"`
	Category     AirdropCategory `json:"category" db:"category"`
	Status       AirdropStatus   `json:"status" db:"status"`
	Difficulty   string          `json:"difficulty" db:"difficulty"`
	Reward       string          `json:"reward" db:"reward"`
	StartDate    string          `json:"startDate" db:"start_date"`
	SocialLinks  SocialLinks     `json:"socialLinks" db:"social_links"`
	About        AirdropAbout    `json:"about" db:"about"`
	Steps        pq.StringArray  `json:"steps" db:"steps"`
	Requirements pq.StringArray  `json:"requirements" db:"requirements"`
	Networks     pq.StringArray  `json:"networks" db:"networks"`
	IsHot        bool            `json:"isHot" db:"is_hot"`
	IsConfirmed  bool            `json:"isConfirmed" db:"is_confirmed"`
	Participants int             `json:"participants" db:"participants"`
	Rating       float64         `json:"rating" db:"rating"`
	TotalRatings int             `json:"totalRatings" db:"total_ratings"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time       `json:"updatedAt" db:"updated_at"`
}

// AirdropFilter narrows a catalog listing. Empty fields and "all" match
// everything.
type AirdropFilter struct {
	Category string
	Status   string
	Search   string
	Limit    int
	Offset   int
}

// SocialLinks maps a network name (website, telegram, twitter...) to a URL.
type SocialLinks map[string]string

func (l SocialLinks) Value() (driver.Value, error) {
	if l == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(l)
}

func (l *SocialLinks) Scan(src any) error {
	return scanJSON(src, l)
}

type AirdropAbout struct {
	Overview   string `json:"overview"`
	Tokenomics string `json:"tokenomics"`
	Roadmap    string `json:"roadmap"`
}

func (a AirdropAbout) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *AirdropAbout) Scan(src any) error {
	return scanJSON(src, a)
}

func scanJSON(src, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return errors.New("unsupported JSONB source type")
	}
}

type ReactionType string

const (
	ReactionLike ReactionType = "like"
	ReactionLove ReactionType = "love"
	ReactionHaha ReactionType = "haha"
)

func (t ReactionType) Valid() bool {
	switch t {
	case ReactionLike, ReactionLove, ReactionHaha:
		return true
	}
	return false
}
