package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carrierdesk/carrierdesk/internal/documents"
	"github.com/carrierdesk/carrierdesk/internal/party"
)

// PartyDirectory loads the party a reminder is addressed to.
type PartyDirectory interface {
	Get(ctx context.Context, id int64) (party.Party, error)
}

// Service builds and records payment reminders.
type Service struct {
	repo    Repository
	parties PartyDirectory
	company string
	region  string
	now     func() time.Time
	logger  *slog.Logger
}

// NewService creates a new service. company signs every message.
func NewService(repo Repository, parties PartyDirectory, company, region string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, parties: parties, company: company, region: region, now: time.Now, logger: logger}
}

// Send builds a reminder link for partyID and records it.
func (s *Service) Send(ctx context.Context, partyID int64, req SendRequest) (Reminder, error) {
	p, err := s.parties.Get(ctx, partyID)
	if err != nil {
		return Reminder{}, err
	}

	verr := documents.NewValidationError()
	verr.Check(!req.Amount.IsNegative(), "amount", "must not be negative")
	if err := verr.Err(); err != nil {
		return Reminder{}, err
	}

	amount, refs := req.Amount, req.Bilties
	if amount.IsZero() {
		due, err := s.repo.OutstandingFor(ctx, partyID)
		if err != nil {
			return Reminder{}, err
		}
		amount = due.Amount
		if len(refs) == 0 {
			refs = due.Bilties
		}
	}
	if !amount.IsPositive() {
		verr.Add("amount", "party has no outstanding balance")
		return Reminder{}, verr
	}

	return s.create(ctx, SourceManual, p.ID, p.Name, p.Phone, Message{PartyName: p.Name, Company: s.company, Amount: amount, Bilties: refs})
}

// Outstanding lists consignees with unpaid to-pay bilties, largest balance first.
func (s *Service) Outstanding(ctx context.Context) ([]Outstanding, error) {
	return s.repo.Outstanding(ctx)
}

// History returns the latest reminders sent to partyID.
func (s *Service) History(ctx context.Context, partyID int64) ([]Reminder, error) {
	if _, err := s.parties.Get(ctx, partyID); err != nil {
		return nil, err
	}
	return s.repo.ListForParty(ctx, partyID, 50)
}

// Digest builds a reminder for every outstanding party that has a phone number.
// Parties without one are skipped.
func (s *Service) Digest(ctx context.Context) ([]Reminder, error) {
	dues, err := s.repo.Outstanding(ctx)
	if err != nil {
		return nil, err
	}
	var sent []Reminder
	for _, due := range dues {
		rem, err := s.create(ctx, SourceDigest, due.PartyID, due.PartyName, due.Phone,
			Message{PartyName: due.PartyName, Company: s.company, Amount: due.Amount, Bilties: due.Bilties})
		if errors.Is(err, ErrNoPhone) {
			s.logger.Debug("digest skipped party without phone", slog.Int64("party_id", due.PartyID))
			continue
		}
		if err != nil {
			return sent, err
		}
		sent = append(sent, rem)
	}
	return sent, nil
}

func (s *Service) create(ctx context.Context, source string, partyID int64, name, phone string, msg Message) (Reminder, error) {
	link, err := BuildLink(phone, s.region, msg)
	if err != nil {
		if source == SourceManual {
			verr := documents.NewValidationError()
			verr.Add("phone", fmt.Sprintf("party %q has no valid phone number", name))
			return Reminder{}, verr
		}
		return Reminder{}, err
	}
	rem := Reminder{
		ID:        uuid.New(),
		PartyID:   partyID,
		Amount:    msg.Amount,
		Link:      link,
		Source:    source,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Record(ctx, rem); err != nil {
		return Reminder{}, err
	}
	return rem, nil
}
