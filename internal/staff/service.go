package staff

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
	pkgerrors "github.com/VINCENT-bot354/safaribytes/pkg/errors"
	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
)

var trackingLinkPattern = regexp.MustCompile(`https://\S+`)

// ExtractTrackingLink returns the first https link in message, or "" when
// there is none. Staff paste whole share messages from their maps app.
func ExtractTrackingLink(message string) string {
	return trackingLinkPattern.FindString(message)
}

// TrackingView is what customers see for an order.
type TrackingView struct {
	TrackingAvailable bool    `json:"tracking_available"`
	TrackingLink      *string `json:"tracking_link,omitempty"`
}

// UpdateInput carries a staff member's shared location message.
type UpdateInput struct {
	StaffID uint64
	Name    string
	Message string
}

type Service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("staff repository required")
	}
	return &Service{repo: repo, logg: logg, now: func() time.Time { return time.Now().UTC() }}, nil
}

// UpdateTrackingLink stores the link found in the message as the staff
// member's single live link.
func (s *Service) UpdateTrackingLink(ctx context.Context, input UpdateInput) (*models.Staff, error) {
	if input.StaffID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "staff identity missing")
	}
	link := ExtractTrackingLink(input.Message)
	if link == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message does not contain an https link")
	}

	now := s.now()
	member := &models.Staff{
		ID:                input.StaffID,
		Name:              strings.TrimSpace(input.Name),
		TrackingLink:      &link,
		TrackingUpdatedAt: &now,
	}
	if err := s.repo.UpsertTrackingLink(ctx, member); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save tracking link")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "staff_id", input.StaffID), "staff.tracking.updated")
	}
	return member, nil
}

// ClearTrackingLink drops the staff member's link inside the delivery transaction.
func (s *Service) ClearTrackingLink(ctx context.Context, tx *gorm.DB, staffID uint64) error {
	if staffID == 0 {
		return nil
	}
	return s.repo.WithTx(tx).ClearTrackingLink(ctx, staffID, s.now())
}

// TrackingForOrder exposes the assigned staff member's link only while the
// order is out for delivery.
func (s *Service) TrackingForOrder(ctx context.Context, order *models.Order) (TrackingView, error) {
	if order == nil || order.Status != enums.OrderStatusOutForDelivery || order.StaffID == nil {
		return TrackingView{}, nil
	}
	member, err := s.repo.FindByID(ctx, *order.StaffID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return TrackingView{}, nil
	}
	if err != nil {
		return TrackingView{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load staff tracking")
	}
	if member.TrackingLink == nil || strings.TrimSpace(*member.TrackingLink) == "" {
		return TrackingView{}, nil
	}
	link := *member.TrackingLink
	return TrackingView{TrackingAvailable: true, TrackingLink: &link}, nil
}
