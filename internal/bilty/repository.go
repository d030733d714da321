package bilty

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/carrierdesk/carrierdesk/internal/documents"
	"github.com/carrierdesk/carrierdesk/internal/platform/db"
)

// Repository persists bilties. Update never touches number, scope or created_at.
type Repository interface {
	Create(ctx context.Context, b Bilty) (int64, error)
	Get(ctx context.Context, id int64) (Bilty, error)
	GetByNumber(ctx context.Context, scope string, number int64) (Bilty, error)
	List(ctx context.Context, f ListFilter) ([]Bilty, int, error)
	Update(ctx context.Context, b Bilty) (Bilty, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db db.DBTX
}

// NewRepository constructs a pgx backed repository.
func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

const biltyColumns = `id, number, scope_key, bilty_date,
	consignor_id, consignor_name, COALESCE(consignor_gstin, ''),
	consignee_id, consignee_name, COALESCE(consignee_gstin, ''),
	from_city, to_city, goods, freight, hamali, other_charges, payment_mode,
	COALESCE(invoice_no, ''), COALESCE(invoice_value, 0), COALESCE(vehicle_no, ''), COALESCE(remarks, ''),
	created_at, updated_at`

func scanBilty(row pgx.Row) (Bilty, error) {
	var b Bilty
	err := row.Scan(&b.ID, &b.Number, &b.Scope, &b.Date,
		&b.Consignor.ID, &b.Consignor.Name, &b.Consignor.GSTIN,
		&b.Consignee.ID, &b.Consignee.Name, &b.Consignee.GSTIN,
		&b.From, &b.To, &b.Goods, &b.Freight, &b.Hamali, &b.OtherCharges, &b.PaymentMode,
		&b.InvoiceNo, &b.InvoiceValue, &b.VehicleNo, &b.Remarks,
		&b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Bilty{}, ErrNotFound
	}
	if err != nil {
		return Bilty{}, err
	}
	b.Total = b.ComputeTotal()
	return b, nil
}

func (r *repository) Create(ctx context.Context, b Bilty) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO bilties (
			number, scope_key, bilty_date,
			consignor_id, consignor_name, consignor_gstin,
			consignee_id, consignee_name, consignee_gstin,
			from_city, to_city, goods, freight, hamali, other_charges, payment_mode,
			invoice_no, invoice_value, vehicle_no, remarks, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, NULLIF($9, ''), $10, $11, $12, $13, $14, $15, $16,
			NULLIF($17, ''), NULLIF($18::numeric, 0), NULLIF($19, ''), NULLIF($20, ''), $21, $21)
		RETURNING id`,
		b.Number, b.Scope, b.Date,
		b.Consignor.ID, b.Consignor.Name, b.Consignor.GSTIN,
		b.Consignee.ID, b.Consignee.Name, b.Consignee.GSTIN,
		b.From, b.To, b.Goods, b.Freight, b.Hamali, b.OtherCharges, b.PaymentMode,
		b.InvoiceNo, b.InvoiceValue, b.VehicleNo, b.Remarks, b.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, documents.InsertError("bilty", b.Number, b.Scope, err)
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Bilty, error) {
	return scanBilty(r.db.QueryRow(ctx, `SELECT `+biltyColumns+` FROM bilties WHERE id = $1`, id))
}

func (r *repository) GetByNumber(ctx context.Context, scope string, number int64) (Bilty, error) {
	return scanBilty(r.db.QueryRow(ctx, `SELECT `+biltyColumns+` FROM bilties WHERE scope_key = $1 AND number = $2`, scope, number))
}

func (r *repository) List(ctx context.Context, f ListFilter) ([]Bilty, int, error) {
	var conditions []string
	var args []any
	argPos := 1
	add := func(cond string, arg any) {
		conditions = append(conditions, fmt.Sprintf(cond, argPos))
		args = append(args, arg)
		argPos++
	}

	if f.From != nil {
		add("bilty_date >= $%d", *f.From)
	}
	if f.To != nil {
		add("bilty_date <= $%d", *f.To)
	}
	if f.Scope != nil {
		add("scope_key = $%d", *f.Scope)
	}
	if f.PartyID > 0 {
		conditions = append(conditions, fmt.Sprintf("(consignor_id = $%d OR consignee_id = $%d)", argPos, argPos))
		args = append(args, f.PartyID)
		argPos++
	}
	if f.PaymentMode != "" {
		add("payment_mode = $%d", f.PaymentMode)
	}
	if f.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(number::text = $%d OR consignor_name ILIKE $%d OR consignee_name ILIKE $%d OR from_city ILIKE $%d OR to_city ILIKE $%d OR vehicle_no ILIKE $%d)",
			argPos, argPos+1, argPos+1, argPos+1, argPos+1, argPos+1))
		args = append(args, f.Search, "%"+f.Search+"%")
		argPos += 2
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM bilties "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bilties: %w", err)
	}

	query := "SELECT " + biltyColumns + " FROM bilties " + whereClause + " ORDER BY bilty_date DESC, number DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1)
		args = append(args, f.Limit, f.Offset)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bilties: %w", err)
	}
	defer rows.Close()

	var bilties []Bilty
	for rows.Next() {
		b, err := scanBilty(rows)
		if err != nil {
			return nil, 0, err
		}
		bilties = append(bilties, b)
	}
	return bilties, total, rows.Err()
}

func (r *repository) Update(ctx context.Context, b Bilty) (Bilty, error) {
	row := r.db.QueryRow(ctx, `UPDATE bilties SET
			bilty_date = $2,
			consignor_id = $3, consignor_name = $4, consignor_gstin = NULLIF($5, ''),
			consignee_id = $6, consignee_name = $7, consignee_gstin = NULLIF($8, ''),
			from_city = $9, to_city = $10, goods = $11, freight = $12, hamali = $13, other_charges = $14,
			payment_mode = $15, invoice_no = NULLIF($16, ''), invoice_value = NULLIF($17::numeric, 0),
			vehicle_no = NULLIF($18, ''), remarks = NULLIF($19, ''), updated_at = NOW()
		WHERE id = $1
		RETURNING `+biltyColumns,
		b.ID, b.Date,
		b.Consignor.ID, b.Consignor.Name, b.Consignor.GSTIN,
		b.Consignee.ID, b.Consignee.Name, b.Consignee.GSTIN,
		b.From, b.To, b.Goods, b.Freight, b.Hamali, b.OtherCharges,
		b.PaymentMode, b.InvoiceNo, b.InvoiceValue, b.VehicleNo, b.Remarks)
	return scanBilty(row)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM bilties WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete bilty: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
