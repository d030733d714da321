package bilty

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/carrierdesk/carrierdesk/internal/documents"
	"github.com/carrierdesk/carrierdesk/internal/export"
	"github.com/carrierdesk/carrierdesk/internal/numbering"
	"github.com/carrierdesk/carrierdesk/internal/party"
	"github.com/carrierdesk/carrierdesk/internal/shared"
)

// PartyDirectory resolves directory ids on requests.
type PartyDirectory interface {
	Get(ctx context.Context, id int64) (party.Party, error)
}

// Service provides business logic for bilties.
type Service struct {
	repo    Repository
	writer  *documents.Writer
	parties PartyDirectory
	audit   *shared.AuditLogger
	changes shared.ChangeNotifier
	logger  *slog.Logger
}

// NewService creates a new service.
func NewService(repo Repository, writer *documents.Writer, parties PartyDirectory, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, writer: writer, parties: parties, audit: audit, logger: logger}
}

// SetChangeNotifier registers n to hear about every stored change to bilties.
func (s *Service) SetChangeNotifier(n shared.ChangeNotifier) {
	s.changes = n
}

// Create validates req, allocates the next bilty number for its scope and stores it.
func (s *Service) Create(ctx context.Context, req Request) (documents.Created, error) {
	req.normalize()
	if err := s.resolveParties(ctx, &req); err != nil {
		return documents.Created{}, err
	}

	res, err := s.writer.Create(ctx, numbering.DocBilty, req, func(ctx context.Context, stamp documents.Stamp) (int64, error) {
		b := Bilty{Number: stamp.Number, Scope: stamp.Scope, CreatedAt: stamp.CreatedAt, UpdatedAt: stamp.CreatedAt}
		req.apply(&b)
		return s.repo.Create(ctx, b)
	})
	if err != nil {
		return documents.Created{}, err
	}
	s.record(ctx, "bilty.created", res.ID, map[string]any{"number": res.Number, "scope": res.Scope})
	shared.NotifyChange(ctx, s.changes)
	return res, nil
}

// Update replaces the payload of bilty id. Number, scope and id never change.
func (s *Service) Update(ctx context.Context, id int64, req Request) (Bilty, error) {
	req.normalize()
	if err := s.resolveParties(ctx, &req); err != nil {
		return Bilty{}, err
	}
	if err := req.Validate(); err != nil {
		return Bilty{}, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Bilty{}, err
	}
	req.apply(&existing)
	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return Bilty{}, fmt.Errorf("update bilty: %w", err)
	}
	s.record(ctx, "bilty.updated", id, map[string]any{"number": updated.Number})
	shared.NotifyChange(ctx, s.changes)
	return updated, nil
}

// Get returns one bilty.
func (s *Service) Get(ctx context.Context, id int64) (Bilty, error) {
	return s.repo.Get(ctx, id)
}

// GetByNumber looks a bilty up by its printed number.
func (s *Service) GetByNumber(ctx context.Context, scope string, number int64) (Bilty, error) {
	return s.repo.GetByNumber(ctx, scope, number)
}

// List returns a page of bilties and the total match count.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Bilty, int, error) {
	return s.repo.List(ctx, f)
}

// Delete removes a bilty. Its number is not reused.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "bilty.deleted", id, nil)
	shared.NotifyChange(ctx, s.changes)
	return nil
}

// NextNumber previews the number a bilty dated on date would receive.
func (s *Service) NextNumber(ctx context.Context, date time.Time) (int64, string, error) {
	return s.writer.PeekNumber(ctx, numbering.DocBilty, date)
}

// ExportCSV writes every bilty matching f as CSV.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer, f ListFilter) error {
	t, err := s.exportTable(ctx, f)
	if err != nil {
		return err
	}
	return export.WriteCSV(w, t)
}

// ExportXLSX writes every bilty matching f as a workbook.
func (s *Service) ExportXLSX(ctx context.Context, w io.Writer, f ListFilter) error {
	t, err := s.exportTable(ctx, f)
	if err != nil {
		return err
	}
	return export.WriteXLSX(w, t)
}

func (s *Service) exportTable(ctx context.Context, f ListFilter) (export.Table, error) {
	f.Limit, f.Offset = 0, 0
	bilties, _, err := s.repo.List(ctx, f)
	if err != nil {
		return export.Table{}, err
	}
	return Table(bilties), nil
}

// Table lays bilties out for export.
func Table(bilties []Bilty) export.Table {
	return export.Table{
		Sheet: "Bilties",
		Header: []string{"Number", "Scope", "Date", "Consignor", "Consignor GSTIN", "Consignee", "Consignee GSTIN",
			"From", "To", "Packages", "Weight", "Freight", "Hamali", "Other", "Total", "Payment", "Invoice", "Vehicle"},
		Rows: lo.Map(bilties, func(b Bilty, _ int) []any {
			return []any{b.Number, b.Scope, b.Date.Format(shared.DateLayout),
				b.Consignor.Name, b.Consignor.GSTIN, b.Consignee.Name, b.Consignee.GSTIN,
				b.From, b.To, b.TotalPackages(), b.TotalWeight(),
				b.Freight, b.Hamali, b.OtherCharges, b.ComputeTotal(), string(b.PaymentMode), b.InvoiceNo, b.VehicleNo}
		}),
	}
}

// resolveParties fills name and GSTIN from the directory for parties given by id.
// Unknown ids are validation failures so they are caught before a number is allocated.
func (s *Service) resolveParties(ctx context.Context, req *Request) error {
	verr := documents.NewValidationError()
	for field, in := range map[string]*PartyInput{"consignor": &req.Consignor, "consignee": &req.Consignee} {
		if in.ID <= 0 || s.parties == nil {
			continue
		}
		p, err := s.parties.Get(ctx, in.ID)
		if errors.Is(err, party.ErrNotFound) {
			verr.Add(field+".id", "unknown party")
			continue
		}
		if err != nil {
			return fmt.Errorf("resolve %s: %w", field, err)
		}
		if in.Name == "" {
			in.Name = p.Name
		}
		if in.GSTIN == "" {
			in.GSTIN = p.GSTIN
		}
	}
	return verr.Err()
}

func (s *Service) record(ctx context.Context, action string, id int64, meta map[string]any) {
	err := s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "bilty",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
