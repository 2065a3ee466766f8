package products

import (
	"context"
	"errors"
	"fmt"
	"slices"
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
	entityProduct     = "product"
	maxComboQuantity  = 20
	maxComboComponent = 12
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type auditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, entry audit.Entry) error
}

// Service exposes the customer menu and admin catalog management.
type Service interface {
	Menu(ctx context.Context, filter MenuFilter) ([]ProductView, error)
	List(ctx context.Context, includeRemoved bool) ([]AdminProductView, error)
	Get(ctx context.Context, id uint64) (*AdminProductView, error)
	Create(ctx context.Context, adminID uint64, input ProductInput) (*AdminProductView, error)
	Update(ctx context.Context, adminID, id uint64, input ProductInput) (*AdminProductView, error)
	SetAvailability(ctx context.Context, adminID, id uint64, available bool) (*AdminProductView, error)
	Remove(ctx context.Context, adminID, id uint64) error
	CheckOrderable(ctx context.Context, productIDs []uint64) error
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
		return nil, errors.New("products repository required")
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
	return &service{
		repo:  repo,
		tx:    tx,
		audit: recorder,
		logg:  logg,
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

// Menu lists active products, sold-out ones included unless AvailableOnly.
func (s *service) Menu(ctx context.Context, filter MenuFilter) ([]ProductView, error) {
	rows, err := s.repo.List(ctx, ListFilter{Category: strings.TrimSpace(filter.Category)})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	index, err := s.componentIndex(ctx, rows)
	if err != nil {
		return nil, err
	}
	views := make([]ProductView, 0, len(rows))
	for _, row := range rows {
		view := newProductView(row, index)
		if filter.AvailableOnly && !view.IsAvailable {
			continue
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *service) List(ctx context.Context, includeRemoved bool) ([]AdminProductView, error) {
	rows, err := s.repo.List(ctx, ListFilter{IncludeRemoved: includeRemoved})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	index, err := s.componentIndex(ctx, rows)
	if err != nil {
		return nil, err
	}
	views := make([]AdminProductView, 0, len(rows))
	for _, row := range rows {
		views = append(views, newAdminProductView(row, index))
	}
	return views, nil
}

func (s *service) Get(ctx context.Context, id uint64) (*AdminProductView, error) {
	product, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	return s.adminView(ctx, *product)
}

func (s *service) Create(ctx context.Context, adminID uint64, input ProductInput) (*AdminProductView, error) {
	if err := normalizeInput(&input); err != nil {
		return nil, err
	}
	product := &models.Product{IsActive: true, IsAvailable: true}
	applyInput(product, input)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.checkComponents(ctx, repo, 0, input); err != nil {
			return err
		}
		if err := repo.Create(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
		}
		return s.record(ctx, tx, enums.AuditActionProductCreated, product.ID, adminID, map[string]any{
			"name":      product.Name,
			"price_now": product.PriceNow.StringFixed(2),
			"is_combo":  product.IsCombo,
		})
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.productContext(ctx, product), "products.create.success")
	return s.adminView(ctx, *product)
}

// Update replaces the editable fields of an active product.
func (s *service) Update(ctx context.Context, adminID, id uint64, input ProductInput) (*AdminProductView, error) {
	if err := normalizeInput(&input); err != nil {
		return nil, err
	}
	var product *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if !current.IsActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "product was removed")
		}
		if !current.IsCombo && input.IsCombo {
			if err := s.ensureNotBundled(ctx, repo, id); err != nil {
				return err
			}
		}
		if err := s.checkComponents(ctx, repo, id, input); err != nil {
			return err
		}
		before := current.PriceNow
		applyInput(current, input)
		if err := repo.Save(ctx, current); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
		}
		product = current
		return s.record(ctx, tx, enums.AuditActionProductUpdated, current.ID, adminID, map[string]any{
			"price_before": before.StringFixed(2),
			"price_now":    current.PriceNow.StringFixed(2),
			"is_available": current.IsAvailable,
		})
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.productContext(ctx, product), "products.update.success")
	return s.adminView(ctx, *product)
}

// SetAvailability flips the sold-out switch without touching anything else.
func (s *service) SetAvailability(ctx context.Context, adminID, id uint64, available bool) (*AdminProductView, error) {
	var product *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if !current.IsActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "product was removed")
		}
		product = current
		if current.IsAvailable == available {
			return nil
		}
		current.IsAvailable = available
		if err := repo.Save(ctx, current); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product availability")
		}
		return s.record(ctx, tx, enums.AuditActionProductUpdated, current.ID, adminID, map[string]any{
			"is_available": available,
		})
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"product_id": id, "is_available": available}), "products.availability.updated")
	return s.adminView(ctx, *product)
}

// Remove takes a product off the menu. Products still bundled into an active
// combo must be unbundled first.
func (s *service) Remove(ctx context.Context, adminID, id uint64) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if !current.IsActive {
			return nil
		}
		if err := s.ensureNotBundled(ctx, repo, id); err != nil {
			return err
		}
		changed, err := repo.Deactivate(ctx, id, s.now())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove product")
		}
		if !changed {
			return nil
		}
		return s.record(ctx, tx, enums.AuditActionProductRemoved, id, adminID, map[string]any{"name": current.Name})
	})
	if err != nil {
		return err
	}
	s.logg.Info(s.logg.WithField(ctx, "product_id", id), "products.remove.success")
	return nil
}

// CheckOrderable rejects an order naming a product that is unknown, removed,
// sold out, or a combo with such a component.
func (s *service) CheckOrderable(ctx context.Context, productIDs []uint64) error {
	ids := dedupe(productIDs)
	if len(ids) == 0 {
		return nil
	}
	rows, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ordered products")
	}
	found := make(map[uint64]models.Product, len(rows))
	for _, row := range rows {
		found[row.ID] = row
	}
	index, err := s.componentIndex(ctx, rows)
	if err != nil {
		return err
	}
	for _, id := range ids {
		product, ok := found[id]
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "product not found").
				WithDetails(map[string]any{"product_id": id})
		}
		if !effectiveAvailability(product, index) {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s is not available right now", product.Name)).
				WithDetails(map[string]any{"product_id": id})
		}
	}
	return nil
}

func (s *service) load(ctx context.Context, repo Repository, id uint64) (*models.Product, error) {
	if id == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

// checkComponents requires every combo component to be an existing active
// product that is not itself a combo.
func (s *service) checkComponents(ctx context.Context, repo Repository, selfID uint64, input ProductInput) error {
	if !input.IsCombo {
		return nil
	}
	ids := make([]uint64, 0, len(input.ComboItems))
	for _, component := range input.ComboItems {
		if selfID != 0 && component.ProductID == selfID {
			return pkgerrors.New(pkgerrors.CodeValidation, "a combo cannot contain itself")
		}
		ids = append(ids, component.ProductID)
	}
	rows, err := repo.FindByIDs(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load combo components")
	}
	found := make(map[uint64]models.Product, len(rows))
	for _, row := range rows {
		found[row.ID] = row
	}
	for _, id := range ids {
		component, ok := found[id]
		switch {
		case !ok || !component.IsActive:
			return pkgerrors.New(pkgerrors.CodeValidation, "combo component not found").
				WithDetails(map[string]any{"product_id": id})
		case component.IsCombo:
			return pkgerrors.New(pkgerrors.CodeValidation, "a combo cannot contain another combo").
				WithDetails(map[string]any{"product_id": id})
		}
	}
	return nil
}

func (s *service) ensureNotBundled(ctx context.Context, repo Repository, id uint64) error {
	combos, err := repo.List(ctx, ListFilter{CombosOnly: true})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list combos")
	}
	var bundledIn []uint64
	for _, combo := range combos {
		for _, component := range combo.ComboItems {
			if component.ProductID == id {
				bundledIn = append(bundledIn, combo.ID)
				break
			}
		}
	}
	if len(bundledIn) > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "product is part of an active combo").
			WithDetails(map[string]any{"combo_ids": bundledIn})
	}
	return nil
}

// componentIndex returns rows plus every product their combos reference.
func (s *service) componentIndex(ctx context.Context, rows []models.Product) (map[uint64]models.Product, error) {
	index := make(map[uint64]models.Product, len(rows))
	var missing []uint64
	for _, row := range rows {
		index[row.ID] = row
	}
	for _, row := range rows {
		for _, component := range row.ComboItems {
			if _, ok := index[component.ProductID]; !ok {
				missing = append(missing, component.ProductID)
			}
		}
	}
	missing = dedupe(missing)
	if len(missing) == 0 {
		return index, nil
	}
	extra, err := s.repo.FindByIDs(ctx, missing)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load combo components")
	}
	for _, row := range extra {
		index[row.ID] = row
	}
	return index, nil
}

func (s *service) adminView(ctx context.Context, product models.Product) (*AdminProductView, error) {
	index, err := s.componentIndex(ctx, []models.Product{product})
	if err != nil {
		return nil, err
	}
	view := newAdminProductView(product, index)
	return &view, nil
}

func (s *service) record(ctx context.Context, tx *gorm.DB, action enums.AuditAction, productID, adminID uint64, details map[string]any) error {
	entry := audit.Entry{
		ActorRole: enums.ActorRoleAdmin,
		Action:    action,
		Entity:    entityProduct,
		EntityID:  strconv.FormatUint(productID, 10),
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

func (s *service) productContext(ctx context.Context, product *models.Product) context.Context {
	return s.logg.WithFields(ctx, map[string]any{
		"product_id": product.ID,
		"is_combo":   product.IsCombo,
	})
}

func normalizeInput(input *ProductInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Category = strings.TrimSpace(input.Category)
	input.ImageURL = strings.TrimSpace(input.ImageURL)
	switch {
	case input.Name == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	case input.Category == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "product category is required")
	case input.ImageURL == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "product image is required")
	case !input.PriceNow.IsPositive():
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be greater than zero")
	case input.PriceOld != nil && !input.PriceOld.IsPositive():
		return pkgerrors.New(pkgerrors.CodeValidation, "previous price must be greater than zero")
	case input.CostOfGoods.IsNegative():
		return pkgerrors.New(pkgerrors.CodeValidation, "cost of goods cannot be negative")
	}
	input.PriceNow = input.PriceNow.Round(2)
	input.CostOfGoods = input.CostOfGoods.Round(2)

	if !input.IsCombo {
		if len(input.ComboItems) > 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "only combos can list combo items")
		}
		return nil
	}
	if len(input.ComboItems) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "a combo needs at least one item")
	}
	if len(input.ComboItems) > maxComboComponent {
		return pkgerrors.New(pkgerrors.CodeValidation, "too many combo items")
	}
	seen := make(map[uint64]struct{}, len(input.ComboItems))
	for _, component := range input.ComboItems {
		if component.ProductID == 0 || component.Quantity < 1 || component.Quantity > maxComboQuantity {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid combo item").
				WithDetails(map[string]any{"product_id": component.ProductID})
		}
		if _, dup := seen[component.ProductID]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "combo items must be distinct").
				WithDetails(map[string]any{"product_id": component.ProductID})
		}
		seen[component.ProductID] = struct{}{}
	}
	return nil
}

func applyInput(product *models.Product, input ProductInput) {
	product.ImageURL = input.ImageURL
	product.Name = input.Name
	product.Description = input.Description
	product.Category = input.Category
	product.PriceNow = input.PriceNow
	product.PriceOld = decimal.NullDecimal{}
	if input.PriceOld != nil {
		product.PriceOld = decimal.NewNullDecimal(input.PriceOld.Round(2))
	}
	product.CostOfGoods = input.CostOfGoods
	product.Stock = input.Stock
	product.IsCombo = input.IsCombo
	product.ComboItems = nil
	if input.IsCombo {
		product.ComboItems = slices.Clone(input.ComboItems)
	}
	if input.IsAvailable != nil {
		product.IsAvailable = *input.IsAvailable
	}
}

func dedupe(ids []uint64) []uint64 {
	out := make([]uint64, 0, len(ids))
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
