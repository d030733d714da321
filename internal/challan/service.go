package challan

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/carrierdesk/carrierdesk/internal/documents"
	"github.com/carrierdesk/carrierdesk/internal/export"
	"github.com/carrierdesk/carrierdesk/internal/numbering"
	"github.com/carrierdesk/carrierdesk/internal/shared"
)

// Service provides business logic for challans.
type Service struct {
	repo    Repository
	writer  *documents.Writer
	audit   *shared.AuditLogger
	changes shared.ChangeNotifier
	region  string
	logger  *slog.Logger
}

// NewService creates a new service. region is the default driver phone region.
func NewService(repo Repository, writer *documents.Writer, audit *shared.AuditLogger, region string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if region == "" {
		region = shared.DefaultRegion
	}
	return &Service{repo: repo, writer: writer, audit: audit, region: region, logger: logger}
}

// SetChangeNotifier registers n to hear about every stored change to challans.
func (s *Service) SetChangeNotifier(n shared.ChangeNotifier) {
	s.changes = n
}

// Create validates req, allocates the next challan number for its scope and stores it.
// A challan without items is rejected before any number is allocated.
func (s *Service) Create(ctx context.Context, req Request) (documents.Created, error) {
	req.normalize(s.region)
	res, err := s.writer.Create(ctx, numbering.DocChallan, req, func(ctx context.Context, stamp documents.Stamp) (int64, error) {
		c := Challan{Number: stamp.Number, Scope: stamp.Scope, CreatedAt: stamp.CreatedAt, UpdatedAt: stamp.CreatedAt}
		req.apply(&c)
		return s.repo.Create(ctx, c)
	})
	if err != nil {
		return documents.Created{}, err
	}
	s.record(ctx, "challan.created", res.ID, map[string]any{"number": res.Number, "scope": res.Scope})
	shared.NotifyChange(ctx, s.changes)
	return res, nil
}

// Update replaces the payload of challan id. Number, scope and id never change.
func (s *Service) Update(ctx context.Context, id int64, req Request) (Challan, error) {
	req.normalize(s.region)
	if err := req.Validate(); err != nil {
		return Challan{}, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Challan{}, err
	}
	req.apply(&existing)
	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return Challan{}, fmt.Errorf("update challan: %w", err)
	}
	s.record(ctx, "challan.updated", id, map[string]any{"number": updated.Number})
	shared.NotifyChange(ctx, s.changes)
	return updated, nil
}

// Get returns one challan.
func (s *Service) Get(ctx context.Context, id int64) (Challan, error) {
	return s.repo.Get(ctx, id)
}

// GetByNumber looks a challan up by its printed number.
func (s *Service) GetByNumber(ctx context.Context, scope string, number int64) (Challan, error) {
	return s.repo.GetByNumber(ctx, scope, number)
}

// List returns a page of challans and the total match count.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Challan, int, error) {
	return s.repo.List(ctx, f)
}

// Delete removes a challan. Its number is not reused.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "challan.deleted", id, nil)
	shared.NotifyChange(ctx, s.changes)
	return nil
}

// NextNumber previews the number a challan dated on date would receive.
func (s *Service) NextNumber(ctx context.Context, date time.Time) (int64, string, error) {
	return s.writer.PeekNumber(ctx, numbering.DocChallan, date)
}

// ExportCSV writes every challan matching f as CSV, one row per item.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer, f ListFilter) error {
	t, err := s.exportTable(ctx, f)
	if err != nil {
		return err
	}
	return export.WriteCSV(w, t)
}

// ExportXLSX writes every challan matching f as a workbook, one row per item.
func (s *Service) ExportXLSX(ctx context.Context, w io.Writer, f ListFilter) error {
	t, err := s.exportTable(ctx, f)
	if err != nil {
		return err
	}
	return export.WriteXLSX(w, t)
}

func (s *Service) exportTable(ctx context.Context, f ListFilter) (export.Table, error) {
	f.Limit, f.Offset = 0, 0
	challans, _, err := s.repo.List(ctx, f)
	if err != nil {
		return export.Table{}, err
	}
	return Table(challans), nil
}

// Table lays challans out for export with one row per item.
func Table(challans []Challan) export.Table {
	return export.Table{
		Sheet: "Challans",
		Header: []string{"Number", "Scope", "Date", "Vehicle", "Driver", "From", "To",
			"Bilty", "Consignor", "Consignee", "Packages", "Weight", "Freight", "Advance", "Balance"},
		Rows: lo.FlatMap(challans, func(c Challan, _ int) [][]any {
			return lo.Map(c.Items, func(it Item, _ int) []any {
				bilty := ""
				if it.BiltyNumber > 0 {
					bilty = strconv.FormatInt(it.BiltyNumber, 10)
				}
				return []any{c.Number, c.Scope, c.Date.Format(shared.DateLayout), c.VehicleNo, c.DriverName, c.From, c.To,
					bilty, it.Consignor, it.Consignee, it.Packages, it.Weight, it.Freight, c.Advance, c.Balance}
			})
		}),
	}
}

func (s *Service) record(ctx context.Context, action string, id int64, meta map[string]any) {
	err := s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "challan",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
