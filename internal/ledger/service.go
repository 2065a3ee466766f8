// Package ledger keeps the admin capital ledger: money put into the business,
// summed against revenue on the dashboard.
package ledger

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/VINCENT-bot354/safaribytes/internal/audit"
	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
	pkgerrors "github.com/VINCENT-bot354/safaribytes/pkg/errors"
	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
)

const (
	entityCapital    = "capital_entry"
	maxPurposeLength = 1000
)

var maxAmount = decimal.NewFromInt(100_000_000)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type auditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, entry audit.Entry) error
}

// EntryInput is an admin's capital line.
type EntryInput struct {
	Amount  decimal.Decimal
	Purpose string
}

// EntryView is one ledger line as returned to admins.
type EntryView struct {
	ID        uint64          `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Purpose   string          `json:"purpose"`
	IsEdited  bool            `json:"is_edited"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Summary is the whole ledger with its running total.
type Summary struct {
	Entries []EntryView     `json:"entries"`
	Total   decimal.Decimal `json:"total"`
}

type Service interface {
	Summary(ctx context.Context) (*Summary, error)
	Total(ctx context.Context) (decimal.Decimal, error)
	Record(ctx context.Context, adminID uint64, input EntryInput) (*EntryView, error)
	Edit(ctx context.Context, adminID, id uint64, input EntryInput) (*EntryView, error)
}

type service struct {
	repo  Repository
	tx    txRunner
	audit auditRecorder
	logg  *logger.Logger
	now   func() time.Time
}

func NewService(repo Repository, tx txRunner, recorder auditRecorder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("ledger repository required")
	}
	if tx == nil {
		return nil, errors.New("transaction runner required")
	}
	if recorder == nil {
		return nil, errors.New("audit recorder required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &service{repo: repo, tx: tx, audit: recorder, logg: logg, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) Summary(ctx context.Context) (*Summary, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list capital entries")
	}
	total, err := s.repo.Total(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum capital entries")
	}
	summary := &Summary{Entries: make([]EntryView, 0, len(rows)), Total: total.Round(2)}
	for _, row := range rows {
		summary.Entries = append(summary.Entries, newEntryView(row))
	}
	return summary, nil
}

func (s *service) Total(ctx context.Context) (decimal.Decimal, error) {
	total, err := s.repo.Total(ctx)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum capital entries")
	}
	return total.Round(2), nil
}

func (s *service) Record(ctx context.Context, adminID uint64, input EntryInput) (*EntryView, error) {
	if err := validateInput(&input); err != nil {
		return nil, err
	}
	entry := &models.CapitalEntry{Amount: input.Amount, Purpose: input.Purpose}
	if adminID != 0 {
		entry.CreatedBy = &adminID
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record capital entry")
		}
		return s.record(ctx, tx, enums.AuditActionCapitalRecorded, entry.ID, adminID, map[string]any{
			"amount": entry.Amount.StringFixed(2),
		})
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"capital_entry_id": entry.ID, "amount": entry.Amount.StringFixed(2)}), "ledger.record.success")
	view := newEntryView(*entry)
	return &view, nil
}

// Edit replaces amount and purpose and flags the entry as edited. The audit
// row keeps the previous values.
func (s *service) Edit(ctx context.Context, adminID, id uint64, input EntryInput) (*EntryView, error) {
	if id == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "entry id required")
	}
	if err := validateInput(&input); err != nil {
		return nil, err
	}
	var entry *models.CapitalEntry
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "capital entry not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load capital entry")
		}
		if current.Amount.Equal(input.Amount) && current.Purpose == input.Purpose {
			entry = current
			return nil
		}
		previous := *current
		current.Amount = input.Amount
		current.Purpose = input.Purpose
		current.IsEdited = true
		current.UpdatedAt = s.now()
		if err := repo.Update(ctx, current); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "edit capital entry")
		}
		entry = current
		return s.record(ctx, tx, enums.AuditActionCapitalEdited, id, adminID, map[string]any{
			"amount_before":  previous.Amount.StringFixed(2),
			"amount":         current.Amount.StringFixed(2),
			"purpose_before": previous.Purpose,
		})
	})
	if err != nil {
		return nil, err
	}
	view := newEntryView(*entry)
	return &view, nil
}

func (s *service) record(ctx context.Context, tx *gorm.DB, action enums.AuditAction, entryID, adminID uint64, details map[string]any) error {
	entry := audit.Entry{
		ActorRole: enums.ActorRoleAdmin,
		Action:    action,
		Entity:    entityCapital,
		EntityID:  strconv.FormatUint(entryID, 10),
		Details:   details,
	}
	if adminID != 0 {
		entry.ActorID = &adminID
	}
	if err := s.audit.Record(ctx, tx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record audit entry")
	}
	return nil
}

func validateInput(input *EntryInput) error {
	input.Purpose = strings.TrimSpace(input.Purpose)
	switch {
	case !input.Amount.IsPositive():
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	case input.Amount.GreaterThan(maxAmount):
		return pkgerrors.New(pkgerrors.CodeValidation, "amount is too large")
	case input.Purpose == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "purpose is required")
	case len(input.Purpose) > maxPurposeLength:
		return pkgerrors.New(pkgerrors.CodeValidation, "purpose is too long")
	}
	input.Amount = input.Amount.Round(2)
	return nil
}

func newEntryView(entry models.CapitalEntry) EntryView {
	return EntryView{
		ID:        entry.ID,
		Amount:    entry.Amount,
		Purpose:   entry.Purpose,
		IsEdited:  entry.IsEdited,
		CreatedAt: entry.CreatedAt,
		UpdatedAt: entry.UpdatedAt,
	}
}
