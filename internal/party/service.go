package party

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/carrierdesk/carrierdesk/internal/documents"
	"github.com/carrierdesk/carrierdesk/internal/export"
	"github.com/carrierdesk/carrierdesk/internal/shared"
)

// Service provides business logic for the party directory.
type Service struct {
	repo    Repository
	audit   *shared.AuditLogger
	changes shared.ChangeNotifier
	region  string
	logger  *slog.Logger
}

// NewService creates a new service. region is the default phone region.
func NewService(repo Repository, audit *shared.AuditLogger, region string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if region == "" {
		region = shared.DefaultRegion
	}
	return &Service{repo: repo, audit: audit, region: region, logger: logger}
}

// SetChangeNotifier registers n to hear about every stored change to parties.
func (s *Service) SetChangeNotifier(n shared.ChangeNotifier) {
	s.changes = n
}

// Create validates and stores a new party.
func (s *Service) Create(ctx context.Context, req Request) (Result, error) {
	p, err := s.build(req)
	if err != nil {
		return Result{}, err
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return Result{}, fmt.Errorf("create party: %w", err)
	}
	s.record(ctx, "party.created", created)
	shared.NotifyChange(ctx, s.changes)
	warnings := s.gstinWarnings(ctx, created)
	return Result{Party: created, Warnings: warnings}, nil
}

// Update replaces every editable field of party id.
func (s *Service) Update(ctx context.Context, id int64, req Request) (Result, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return Result{}, err
	}
	p, err := s.build(req)
	if err != nil {
		return Result{}, err
	}
	p.ID = id
	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return Result{}, fmt.Errorf("update party: %w", err)
	}
	s.record(ctx, "party.updated", updated)
	shared.NotifyChange(ctx, s.changes)
	warnings := s.gstinWarnings(ctx, updated)
	return Result{Party: updated, Warnings: warnings}, nil
}

// Get returns one party.
func (s *Service) Get(ctx context.Context, id int64) (Party, error) {
	return s.repo.Get(ctx, id)
}

// List returns a page of parties and the total match count.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Party, int, error) {
	return s.repo.List(ctx, f)
}

// Delete removes a party. Documents keep their name and GSTIN snapshot.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "party.deleted", Party{ID: id})
	shared.NotifyChange(ctx, s.changes)
	return nil
}

// ExportXLSX writes every party matching f as a workbook.
func (s *Service) ExportXLSX(ctx context.Context, w io.Writer, f ListFilter) error {
	f.Limit, f.Offset = 0, 0
	parties, _, err := s.repo.List(ctx, f)
	if err != nil {
		return err
	}
	return export.WriteXLSX(w, Table(parties))
}

// Table lays parties out for export.
func Table(parties []Party) export.Table {
	return export.Table{
		Sheet:  "Parties",
		Header: []string{"ID", "Name", "GSTIN", "Type", "Phone", "Email", "City", "State", "Address"},
		Rows: lo.Map(parties, func(p Party, _ int) []any {
			return []any{p.ID, p.Name, p.GSTIN, string(p.Type), p.Phone, p.Email, p.City, p.State, p.Address}
		}),
	}
}

func (s *Service) build(req Request) (Party, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.GSTIN = documents.NormalizeGSTIN(req.GSTIN)

	verr := documents.NewValidationError()
	shared.ValidateInto(req, verr)

	phone := ""
	if strings.TrimSpace(req.Phone) != "" {
		normalized, err := shared.NormalizePhone(req.Phone, s.region)
		if err != nil {
			verr.Add("phone", "must be a valid phone number")
		}
		phone = normalized
	}
	if err := verr.Err(); err != nil {
		return Party{}, err
	}

	typ := req.Type
	if typ == "" {
		typ = TypeBoth
	}
	return Party{
		Name:    req.Name,
		GSTIN:   req.GSTIN,
		Type:    typ,
		Phone:   phone,
		Email:   strings.TrimSpace(req.Email),
		Address: strings.TrimSpace(req.Address),
		City:    strings.TrimSpace(req.City),
		State:   strings.TrimSpace(req.State),
		Notes:   strings.TrimSpace(req.Notes),
	}, nil
}

// gstinWarnings reports other parties sharing p's GSTIN. Duplicates are allowed,
// and the row is already stored, so a failed lookup only drops the warnings.
func (s *Service) gstinWarnings(ctx context.Context, p Party) []string {
	dups, err := s.repo.FindByGSTIN(ctx, p.GSTIN, p.ID)
	if err != nil {
		s.logger.Warn("gstin duplicate check failed",
			slog.Int64("party_id", p.ID), slog.String("gstin", p.GSTIN), slog.Any("error", err))
		return nil
	}
	return lo.Map(dups, func(d Party, _ int) string {
		return fmt.Sprintf("GSTIN %s is also used by party %d (%s)", p.GSTIN, d.ID, d.Name)
	})
}

func (s *Service) record(ctx context.Context, action string, p Party) {
	err := s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "party",
		EntityID: strconv.FormatInt(p.ID, 10),
		Meta:     map[string]any{"name": p.Name, "gstin": p.GSTIN},
	})
	if err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
