package notifications

import (
	"context"
	"time"

	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
	pkgerrors "github.com/VINCENT-bot354/safaribytes/pkg/errors"
	"github.com/VINCENT-bot354/safaribytes/pkg/pagination"
)

// Service is the signed-in customer's view of their notification feed.
// Every call is scoped to one customer; other customers' rows are invisible.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, customerID, notificationID uint64) error
	MarkAllRead(ctx context.Context, customerID uint64) (int64, error)
}

type ListParams struct {
	CustomerID uint64
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult is one page, newest first. UnreadCount covers the whole feed,
// not just the page.
type ListResult struct {
	Items       []models.CustomerNotification `json:"items"`
	Cursor      string                        `json:"cursor,omitempty"`
	UnreadCount int64                         `json:"unread_count"`
}

type feed struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &feed{repo: repo, clock: func() time.Time { return time.Now().UTC() }}, nil
}

func requireCustomer(customerID uint64) error {
	if customerID == 0 {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	return nil
}

func (f *feed) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if err := requireCustomer(params.CustomerID); err != nil {
		return nil, err
	}
	after, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	items, next, err := f.repo.List(ctx, listNotificationsParams{
		CustomerID: params.CustomerID,
		Limit:      params.Limit,
		Cursor:     after,
		UnreadOnly: params.UnreadOnly,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	unread, err := f.repo.CountUnread(ctx, params.CustomerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}

	page := &ListResult{Items: items, UnreadCount: unread}
	if next != nil {
		page.Cursor = pagination.EncodeCursor(*next)
	}
	return page, nil
}

// MarkRead is idempotent: marking an already read notification succeeds.
func (f *feed) MarkRead(ctx context.Context, customerID, notificationID uint64) error {
	if err := requireCustomer(customerID); err != nil {
		return err
	}
	if notificationID == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}
	mark, err := f.repo.MarkRead(ctx, customerID, notificationID, f.clock())
	switch {
	case err != nil:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	case !mark.Found:
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (f *feed) MarkAllRead(ctx context.Context, customerID uint64) (int64, error) {
	if err := requireCustomer(customerID); err != nil {
		return 0, err
	}
	n, err := f.repo.MarkAllRead(ctx, customerID, f.clock())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return n, nil
}
