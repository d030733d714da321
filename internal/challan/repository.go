package challan

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/carrierdesk/carrierdesk/internal/documents"
	"github.com/carrierdesk/carrierdesk/internal/platform/db"
)

// Repository persists challans. Update never touches number, scope or created_at.
type Repository interface {
	Create(ctx context.Context, c Challan) (int64, error)
	Get(ctx context.Context, id int64) (Challan, error)
	GetByNumber(ctx context.Context, scope string, number int64) (Challan, error)
	List(ctx context.Context, f ListFilter) ([]Challan, int, error)
	Update(ctx context.Context, c Challan) (Challan, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db db.DBTX
}

// NewRepository constructs a pgx backed repository.
func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

const challanColumns = `id, number, scope_key, challan_date, vehicle_no,
	COALESCE(driver_name, ''), COALESCE(driver_phone, ''), from_city, to_city, items, advance,
	COALESCE(remarks, ''), created_at, updated_at`

func scanChallan(row pgx.Row) (Challan, error) {
	var c Challan
	err := row.Scan(&c.ID, &c.Number, &c.Scope, &c.Date, &c.VehicleNo,
		&c.DriverName, &c.DriverPhone, &c.From, &c.To, &c.Items, &c.Advance,
		&c.Remarks, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Challan{}, ErrNotFound
	}
	if err != nil {
		return Challan{}, err
	}
	c.computeTotals()
	return c, nil
}

func (r *repository) Create(ctx context.Context, c Challan) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO challans (
			number, scope_key, challan_date, vehicle_no, driver_name, driver_phone,
			from_city, to_city, items, advance, remarks, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $10, NULLIF($11, ''), $12, $12)
		RETURNING id`,
		c.Number, c.Scope, c.Date, c.VehicleNo, c.DriverName, c.DriverPhone,
		c.From, c.To, c.Items, c.Advance, c.Remarks, c.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, documents.InsertError("challan", c.Number, c.Scope, err)
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Challan, error) {
	return scanChallan(r.db.QueryRow(ctx, `SELECT `+challanColumns+` FROM challans WHERE id = $1`, id))
}

func (r *repository) GetByNumber(ctx context.Context, scope string, number int64) (Challan, error) {
	return scanChallan(r.db.QueryRow(ctx, `SELECT `+challanColumns+` FROM challans WHERE scope_key = $1 AND number = $2`, scope, number))
}

func (r *repository) List(ctx context.Context, f ListFilter) ([]Challan, int, error) {
	var conditions []string
	var args []any
	argPos := 1
	add := func(cond string, arg any) {
		conditions = append(conditions, fmt.Sprintf(cond, argPos))
		args = append(args, arg)
		argPos++
	}

	if f.From != nil {
		add("challan_date >= $%d", *f.From)
	}
	if f.To != nil {
		add("challan_date <= $%d", *f.To)
	}
	if f.Scope != nil {
		add("scope_key = $%d", *f.Scope)
	}
	if f.VehicleNo != "" {
		add("vehicle_no = $%d", f.VehicleNo)
	}
	if f.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(number::text = $%d OR vehicle_no ILIKE $%d OR driver_name ILIKE $%d OR from_city ILIKE $%d OR to_city ILIKE $%d)",
			argPos, argPos+1, argPos+1, argPos+1, argPos+1))
		args = append(args, f.Search, "%"+f.Search+"%")
		argPos += 2
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM challans "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count challans: %w", err)
	}

	query := "SELECT " + challanColumns + " FROM challans " + whereClause + " ORDER BY challan_date DESC, number DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1)
		args = append(args, f.Limit, f.Offset)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list challans: %w", err)
	}
	defer rows.Close()

	var challans []Challan
	for rows.Next() {
		c, err := scanChallan(rows)
		if err != nil {
			return nil, 0, err
		}
		challans = append(challans, c)
	}
	return challans, total, rows.Err()
}

func (r *repository) Update(ctx context.Context, c Challan) (Challan, error) {
	row := r.db.QueryRow(ctx, `UPDATE challans SET
			challan_date = $2, vehicle_no = $3, driver_name = NULLIF($4, ''), driver_phone = NULLIF($5, ''),
			from_city = $6, to_city = $7, items = $8, advance = $9, remarks = NULLIF($10, ''), updated_at = NOW()
		WHERE id = $1
		RETURNING `+challanColumns,
		c.ID, c.Date, c.VehicleNo, c.DriverName, c.DriverPhone,
		c.From, c.To, c.Items, c.Advance, c.Remarks)
	return scanChallan(row)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM challans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete challan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
