package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/syoopie/money-collection-bot/internal/domain"
)

type Groups struct{ pool *pgxpool.Pool }

func NewGroups(p *pgxpool.Pool) *Groups { return &Groups{pool: p} }

func (r *Groups) UpsertGroup(ctx context.Context, g domain.Group) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO groups(group_id, group_name, group_type)
		VALUES($1,$2,$3)
		ON CONFLICT (group_id) DO UPDATE
		SET group_name=EXCLUDED.group_name,
			group_type=EXCLUDED.group_type
	`, g.ID, g.Name, g.Kind)
	return err
}

func (r *Groups) AddMember(ctx context.Context, userID, groupID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_groups(user_id, group_id)
		VALUES($1,$2)
		ON CONFLICT DO NOTHING
	`, userID, groupID)
	return err
}

func (r *Groups) GroupName(ctx context.Context, groupID int64) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx, `SELECT group_name FROM groups WHERE group_id=$1`, groupID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	return name, err
}
