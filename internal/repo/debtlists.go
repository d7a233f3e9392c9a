package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/syoopie/money-collection-bot/internal/domain"
)

type DebtLists struct{ pool *pgxpool.Pool }

func NewDebtLists(p *pgxpool.Pool) *DebtLists { return &DebtLists{pool: p} }

const listColumns = `list_id, owner_id, group_id, debt_name, phone_number, is_pending, chat_id, message_id, last_updated`

// CreateList inserts the list and its entries in one transaction. The unique
// (list_id, owed_by) constraint plus ON CONFLICT collapses duplicate
// identities in the draft, last amount winning.
func (r *DebtLists) CreateList(ctx context.Context, ownerID int64, draft domain.DebtListDraft) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO debt_lists(owner_id, debt_name, phone_number)
		VALUES($1,$2,$3)
		RETURNING list_id
	`, ownerID, draft.Name, draft.PhoneNumber).Scan(&id)
	if err != nil {
		return 0, err
	}

	for _, e := range draft.Entries {
		_, err = tx.Exec(ctx, `
			INSERT INTO debts(list_id, owed_by, amount)
			VALUES($1,$2,$3)
			ON CONFLICT (list_id, owed_by) DO UPDATE
			SET amount=EXCLUDED.amount, paid=FALSE
		`, id, e.OwedBy, e.Amount.String())
		if err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *DebtLists) List(ctx context.Context, listID int64) (domain.DebtList, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+listColumns+` FROM debt_lists WHERE list_id=$1`, listID)
	return scanList(row)
}

func (r *DebtLists) Entries(ctx context.Context, listID int64) ([]domain.Debt, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT debt_id, list_id, owed_by, amount::text, paid
		FROM debts
		WHERE list_id=$1
		ORDER BY debt_id
	`, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Debt
	for rows.Next() {
		var d domain.Debt
		var amount string
		if e := rows.Scan(&d.ID, &d.ListID, &d.OwedBy, &amount, &d.Paid); e != nil {
			return nil, e
		}
		if d.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DebtLists) ListsByOwner(ctx context.Context, ownerID int64) ([]domain.DebtList, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+listColumns+` FROM debt_lists WHERE owner_id=$1 ORDER BY list_id
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLists(rows)
}

// Confirm is the double-confirmation guard: the pending predicate makes the
// flip apply at most once, regardless of replays.
func (r *DebtLists) Confirm(ctx context.Context, listID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE debt_lists SET is_pending=FALSE WHERE list_id=$1 AND is_pending
	`, listID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNoPendingList
	}
	return nil
}

func (r *DebtLists) Route(ctx context.Context, listID, groupID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE debt_lists SET group_id=$2 WHERE list_id=$1
	`, listID, groupID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *DebtLists) SetMessage(ctx context.Context, listID int64, ref *domain.MessageRef) error {
	var chatID, messageID *int64
	if ref != nil {
		chatID = &ref.ChatID
		mid := int64(ref.MessageID)
		messageID = &mid
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE debt_lists SET chat_id=$2, message_id=$3 WHERE list_id=$1
	`, listID, chatID, messageID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *DebtLists) RoutedLists(ctx context.Context) ([]domain.DebtList, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+listColumns+`
		FROM debt_lists
		WHERE group_id IS NOT NULL
		ORDER BY list_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLists(rows)
}

// TogglePaid flips one entry inside a transaction. The paid<>$3 predicate
// makes the update and the already-in-state check a single atomic step, so
// two racing callbacks cannot both apply. The parent's last_updated is
// bumped in the same transaction.
func (r *DebtLists) TogglePaid(ctx context.Context, listID int64, identity string, paid bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE debts SET paid=$3
		WHERE list_id=$1 AND owed_by=$2 AND paid<>$3
	`, listID, identity, paid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var listExists, entryExists bool
		if e := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM debt_lists WHERE list_id=$1)`, listID).Scan(&listExists); e != nil {
			return e
		}
		if !listExists {
			return domain.ErrNotFound
		}
		if e := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM debts WHERE list_id=$1 AND owed_by=$2)`, listID, identity).Scan(&entryExists); e != nil {
			return e
		}
		if !entryExists {
			return domain.ErrNotParticipant
		}
		return domain.ErrAlreadyInState
	}

	if _, err := tx.Exec(ctx, `UPDATE debt_lists SET last_updated=now() WHERE list_id=$1`, listID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// DeleteByOwner removes every list the owner has; debts cascade via the
// foreign key.
func (r *DebtLists) DeleteByOwner(ctx context.Context, ownerID int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM debt_lists WHERE owner_id=$1`, ownerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanList(row pgx.Row) (domain.DebtList, error) {
	var l domain.DebtList
	var chatID, messageID *int64
	err := row.Scan(&l.ID, &l.OwnerID, &l.GroupID, &l.Name, &l.PhoneNumber, &l.Pending, &chatID, &messageID, &l.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DebtList{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.DebtList{}, err
	}
	if chatID != nil && messageID != nil {
		l.Message = &domain.MessageRef{ChatID: *chatID, MessageID: int(*messageID)}
	}
	return l, nil
}

func collectLists(rows pgx.Rows) ([]domain.DebtList, error) {
	var out []domain.DebtList
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
