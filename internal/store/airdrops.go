package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"airdrop-hunter-go/internal/models"
)

const (
	defaultAirdropLimit = 50
	maxAirdropLimit     = 100
)

// Bulk actions accepted by BulkAirdropAction.
const (
	BulkDelete   = "delete"
	BulkActivate = "activate"
	BulkMarkHot  = "mark-hot"
	BulkConfirm  = "confirm"
)

const airdropSelect = `SELECT a.id, a.name, a.logo, a.description, a.action, a.category, a.status,
	a.difficulty, a.reward, a.start_date, a.social_links, a.about, a.steps, a.requirements,
	a.networks, a.is_hot, a.is_confirmed, a.participants, a.created_at, a.updated_at,
	COALESCE(r.avg, 0) AS rating, r.n AS total_ratings
	FROM airdrops a
	LEFT JOIN LATERAL (
		SELECT ROUND(AVG(rating)::numeric, 1)::float8 AS avg, COUNT(*) AS n
		FROM user_ratings WHERE airdrop_id = a.id
	) r ON TRUE`

// ListAirdrops returns one page of the catalog, newest first, together with
// the number of airdrops matching f.
func (s *PostgresStore) ListAirdrops(ctx context.Context, f models.AirdropFilter) ([]models.Airdrop, int, error) {
	if f.Limit <= 0 {
		f.Limit = defaultAirdropLimit
	}
	f.Limit = min(f.Limit, maxAirdropLimit)
	f.Offset = max(f.Offset, 0)

	var (
		conds []string
		args  []any
	)
	bind := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if f.Category != "" && f.Category != "all" {
		conds = append(conds, "a.category = "+bind(f.Category))
	}
	if f.Status != "" && f.Status != "all" {
		conds = append(conds, "a.status = "+bind(f.Status))
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		p := bind("%" + escapeLike(q) + "%")
		conds = append(conds, "(a.name ILIKE "+p+" OR a.description ILIKE "+p+")")
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM airdrops a`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count airdrops: %w", err)
	}

	query := airdropSelect + where +
		` ORDER BY a.created_at DESC, a.id DESC LIMIT ` + bind(f.Limit) + ` OFFSET ` + bind(f.Offset)
	out := []models.Airdrop{}
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list airdrops: %w", err)
	}
	return out, total, nil
}

func (s *PostgresStore) GetAirdrop(ctx context.Context, id string) (models.Airdrop, error) {
	var a models.Airdrop
	err := s.db.GetContext(ctx, &a, airdropSelect+` WHERE a.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Airdrop{}, ErrNotFound
	}
	if err != nil {
		return models.Airdrop{}, fmt.Errorf("get airdrop %s: %w", id, err)
	}
	return a, nil
}

// CreateAirdrop assigns a fresh ID when a.ID is empty.
func (s *PostgresStore) CreateAirdrop(ctx context.Context, a models.Airdrop) (models.Airdrop, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	fillEmpty(&a)
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO airdrops (id, name, logo, description, action, category, status, difficulty,
		     reward, start_date, social_links, about, steps, requirements, networks,
		     is_hot, is_confirmed, participants)
		 VALUES (:id, :name, :logo, :description, :action, :category, :status, :difficulty,
		     :reward, :start_date, :social_links, :about, :steps, :requirements, :networks,
		     :is_hot, :is_confirmed, :participants)`, a)
	if err != nil {
		return models.Airdrop{}, fmt.Errorf("create airdrop: %w", err)
	}
	return s.GetAirdrop(ctx, a.ID)
}

// UpdateAirdrop replaces every editable field of the airdrop with a.ID.
func (s *PostgresStore) UpdateAirdrop(ctx context.Context, a models.Airdrop) (models.Airdrop, error) {
	fillEmpty(&a)
	res, err := s.db.NamedExecContext(ctx,
		`UPDATE airdrops SET name = :name, logo = :logo, description = :description,
		     action = :action, category = :category, status = :status, difficulty = :difficulty,
		     reward = :reward, start_date = :start_date, social_links = :social_links,
		     about = :about, steps = :steps, requirements = :requirements, networks = :networks,
		     is_hot = :is_hot, is_confirmed = :is_confirmed, updated_at = NOW()
		 WHERE id = :id`, a)
	if err != nil {
		return models.Airdrop{}, fmt.Errorf("update airdrop %s: %w", a.ID, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return models.Airdrop{}, err
	}
	if n == 0 {
		return models.Airdrop{}, ErrNotFound
	}
	return s.GetAirdrop(ctx, a.ID)
}

func (s *PostgresStore) DeleteAirdrop(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM airdrops WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete airdrop %s: %w", id, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// BulkAirdropAction applies action to every listed airdrop and reports how
// many rows changed.
func (s *PostgresStore) BulkAirdropAction(ctx context.Context, action string, ids []string) (int64, error) {
	var query string
	switch action {
	case BulkDelete:
		query = `DELETE FROM airdrops WHERE id = ANY($1)`
	case BulkActivate:
		query = `UPDATE airdrops SET status = 'active', updated_at = NOW() WHERE id = ANY($1)`
	case BulkMarkHot:
		query = `UPDATE airdrops SET is_hot = TRUE, updated_at = NOW() WHERE id = ANY($1)`
	case BulkConfirm:
		query = `UPDATE airdrops SET is_confirmed = TRUE, updated_at = NOW() WHERE id = ANY($1)`
	default:
		return 0, ErrInvalidBulkAction
	}

	res, err := s.db.ExecContext(ctx, query, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("bulk %s airdrops: %w", action, err)
	}
	return rowsAffected(res)
}

// fillEmpty swaps nil collections for empty ones; the columns are NOT NULL.
func fillEmpty(a *models.Airdrop) {
	if a.SocialLinks == nil {
		a.SocialLinks = models.SocialLinks{}
	}
	if a.Steps == nil {
		a.Steps = pq.StringArray{}
	}
	if a.Requirements == nil {
		a.Requirements = pq.StringArray{}
	}
	if a.Networks == nil {
		a.Networks = pq.StringArray{}
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
