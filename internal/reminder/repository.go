package reminder

import (
	"context"
	"fmt"

	"github.com/carrierdesk/carrierdesk/internal/platform/db"
)

// Repository reads balances and stores sent reminders.
type Repository interface {
	Outstanding(ctx context.Context) ([]Outstanding, error)
	OutstandingFor(ctx context.Context, partyID int64) (Outstanding, error)
	Record(ctx context.Context, r Reminder) error
	ListForParty(ctx context.Context, partyID int64, limit int) ([]Reminder, error)
}

type repository struct {
	db db.DBTX
}

// NewRepository constructs a pgx backed repository.
func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

const outstandingQuery = `SELECT b.consignee_id, p.name, COALESCE(p.phone, ''),
		SUM(b.freight + b.hamali + b.other_charges),
		array_agg(b.number::text || CASE WHEN b.scope_key <> '' THEN '/' || b.scope_key ELSE '' END
			ORDER BY b.bilty_date, b.number)
	FROM bilties b
	JOIN parties p ON p.id = b.consignee_id
	WHERE b.payment_mode = 'to_pay' %s
	GROUP BY b.consignee_id, p.name, p.phone
	ORDER BY 4 DESC`

func (r *repository) Outstanding(ctx context.Context) ([]Outstanding, error) {
	rows, err := r.db.Query(ctx, fmt.Sprintf(outstandingQuery, ""))
	if err != nil {
		return nil, fmt.Errorf("query outstanding: %w", err)
	}
	defer rows.Close()

	var out []Outstanding
	for rows.Next() {
		var o Outstanding
		if err := rows.Scan(&o.PartyID, &o.PartyName, &o.Phone, &o.Amount, &o.Bilties); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *repository) OutstandingFor(ctx context.Context, partyID int64) (Outstanding, error) {
	rows, err := r.db.Query(ctx, fmt.Sprintf(outstandingQuery, "AND b.consignee_id = $1"), partyID)
	if err != nil {
		return Outstanding{}, fmt.Errorf("query outstanding: %w", err)
	}
	defer rows.Close()

	o := Outstanding{PartyID: partyID}
	if rows.Next() {
		if err := rows.Scan(&o.PartyID, &o.PartyName, &o.Phone, &o.Amount, &o.Bilties); err != nil {
			return Outstanding{}, err
		}
	}
	return o, rows.Err()
}

func (r *repository) Record(ctx context.Context, rem Reminder) error {
	_, err := r.db.Exec(ctx, `INSERT INTO payment_reminders (id, party_id, amount, link, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rem.ID, rem.PartyID, rem.Amount, rem.Link, rem.Source, rem.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}
	return nil
}

func (r *repository) ListForParty(ctx context.Context, partyID int64, limit int) ([]Reminder, error) {
	rows, err := r.db.Query(ctx, `SELECT id, party_id, amount, link, source, created_at
		FROM payment_reminders WHERE party_id = $1 ORDER BY created_at DESC LIMIT $2`, partyID, limit)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var out []Reminder
	for rows.Next() {
		var rem Reminder
		if err := rows.Scan(&rem.ID, &rem.PartyID, &rem.Amount, &rem.Link, &rem.Source, &rem.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rem)
	}
	return out, rows.Err()
}
