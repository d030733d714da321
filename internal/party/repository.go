package party

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/carrierdesk/carrierdesk/internal/platform/db"
)

// Repository persists parties.
type Repository interface {
	Create(ctx context.Context, p Party) (Party, error)
	Get(ctx context.Context, id int64) (Party, error)
	List(ctx context.Context, f ListFilter) ([]Party, int, error)
	Update(ctx context.Context, p Party) (Party, error)
	Delete(ctx context.Context, id int64) error
	FindByGSTIN(ctx context.Context, gstin string, excludeID int64) ([]Party, error)
}

type repository struct {
	db db.DBTX
}

// NewRepository constructs a pgx backed repository.
func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

const partyColumns = `id, name, gstin, party_type, COALESCE(phone, ''), COALESCE(email, ''),
	COALESCE(address, ''), COALESCE(city, ''), COALESCE(state, ''), COALESCE(notes, ''), created_at, updated_at`

func scanParty(row pgx.Row) (Party, error) {
	var p Party
	err := row.Scan(&p.ID, &p.Name, &p.GSTIN, &p.Type, &p.Phone, &p.Email,
		&p.Address, &p.City, &p.State, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Party{}, ErrNotFound
	}
	return p, err
}

func (r *repository) Create(ctx context.Context, p Party) (Party, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO parties (name, gstin, party_type, phone, email, address, city, state, notes)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''))
		RETURNING `+partyColumns,
		p.Name, p.GSTIN, p.Type, p.Phone, p.Email, p.Address, p.City, p.State, p.Notes)
	created, err := scanParty(row)
	if err != nil {
		return Party{}, fmt.Errorf("insert party: %w", err)
	}
	return created, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Party, error) {
	return scanParty(r.db.QueryRow(ctx, `SELECT `+partyColumns+` FROM parties WHERE id = $1`, id))
}

func (r *repository) List(ctx context.Context, f ListFilter) ([]Party, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if f.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR gstin ILIKE $%d OR phone ILIKE $%d OR city ILIKE $%d)", argPos, argPos, argPos, argPos))
		args = append(args, "%"+f.Search+"%")
		argPos++
	}
	if f.Type != "" {
		conditions = append(conditions, fmt.Sprintf("(party_type = $%d OR party_type = 'both')", argPos))
		args = append(args, f.Type)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM parties "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count parties: %w", err)
	}

	query := "SELECT " + partyColumns + " FROM parties " + whereClause + " ORDER BY lower(name), id"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1)
		args = append(args, f.Limit, f.Offset)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list parties: %w", err)
	}
	defer rows.Close()

	var parties []Party
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, 0, err
		}
		parties = append(parties, p)
	}
	return parties, total, rows.Err()
}

func (r *repository) Update(ctx context.Context, p Party) (Party, error) {
	row := r.db.QueryRow(ctx, `UPDATE parties SET name = $2, gstin = $3, party_type = $4, phone = NULLIF($5, ''),
		email = NULLIF($6, ''), address = NULLIF($7, ''), city = NULLIF($8, ''), state = NULLIF($9, ''), notes = NULLIF($10, ''),
		updated_at = NOW()
		WHERE id = $1
		RETURNING `+partyColumns,
		p.ID, p.Name, p.GSTIN, p.Type, p.Phone, p.Email, p.Address, p.City, p.State, p.Notes)
	return scanParty(row)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM parties WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete party: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) FindByGSTIN(ctx context.Context, gstin string, excludeID int64) ([]Party, error) {
	rows, err := r.db.Query(ctx, `SELECT `+partyColumns+` FROM parties WHERE gstin = $1 AND id <> $2 ORDER BY id`, gstin, excludeID)
	if err != nil {
		return nil, fmt.Errorf("find parties by gstin: %w", err)
	}
	defer rows.Close()
	var parties []Party
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, err
		}
		parties = append(parties, p)
	}
	return parties, rows.Err()
}
