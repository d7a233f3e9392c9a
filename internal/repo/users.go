package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/syoopie/money-collection-bot/internal/domain"
)

type Users struct{ pool *pgxpool.Pool }

func NewUsers(p *pgxpool.Pool) *Users { return &Users{pool: p} }

func (r *Users) UpsertUser(ctx context.Context, u domain.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users(user_id, username, first_name, last_name)
		VALUES($1,$2,$3,$4)
		ON CONFLICT (user_id) DO UPDATE
		SET username=EXCLUDED.username,
			first_name=EXCLUDED.first_name,
			last_name=EXCLUDED.last_name
	`, u.ID, u.Username, u.FirstName, u.LastName)
	return err
}

func (r *Users) UserGroups(ctx context.Context, userID int64) ([]domain.Group, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT g.group_id, g.group_name, g.group_type
		FROM user_groups ug
		JOIN groups g ON g.group_id = ug.group_id
		WHERE ug.user_id=$1
		ORDER BY g.group_name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Group
	for rows.Next() {
		var g domain.Group
		if e := rows.Scan(&g.ID, &g.Name, &g.Kind); e != nil {
			return nil, e
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *Users) InGroup(ctx context.Context, userID, groupID int64) (bool, error) {
	var in bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM user_groups WHERE user_id=$1 AND group_id=$2)
	`, userID, groupID).Scan(&in)
	return in, err
}
