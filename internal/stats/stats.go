// Package stats serves the dashboard counters.
package stats

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carrierdesk/carrierdesk/internal/platform/db"
)

// Summary is the dashboard widget payload.
type Summary struct {
	Parties           int64           `json:"parties"`
	Bilties           int64           `json:"bilties"`
	BiltiesThisMonth  int64           `json:"bilties_this_month"`
	Challans          int64           `json:"challans"`
	ChallansThisMonth int64           `json:"challans_this_month"`
	ToPayOutstanding  decimal.Decimal `json:"to_pay_outstanding"`
	Month             string          `json:"month"`
	GeneratedAt       time.Time       `json:"generated_at"`
}

// Repository computes the raw counts.
type Repository interface {
	Summary(ctx context.Context, monthStart, monthEnd time.Time) (Summary, error)
}

type repository struct {
	db db.DBTX
}

// NewRepository returns a pgx backed Repository.
func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

const summarySQL = `
SELECT
    (SELECT COUNT(*) FROM parties),
    (SELECT COUNT(*) FROM bilties),
    (SELECT COUNT(*) FROM bilties WHERE bilty_date >= $1 AND bilty_date < $2),
    (SELECT COUNT(*) FROM challans),
    (SELECT COUNT(*) FROM challans WHERE challan_date >= $1 AND challan_date < $2),
    (SELECT COALESCE(SUM(freight + hamali + other_charges), 0)::numeric FROM bilties WHERE payment_mode = 'to_pay')`

func (r *repository) Summary(ctx context.Context, monthStart, monthEnd time.Time) (Summary, error) {
	var s Summary
	err := r.db.QueryRow(ctx, summarySQL, monthStart, monthEnd).Scan(
		&s.Parties,
		&s.Bilties,
		&s.BiltiesThisMonth,
		&s.Challans,
		&s.ChallansThisMonth,
		&s.ToPayOutstanding,
	)
	return s, err
}
