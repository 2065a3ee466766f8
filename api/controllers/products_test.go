package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VINCENT-bot354/safaribytes/api/middleware"
	"github.com/VINCENT-bot354/safaribytes/internal/products"
	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
	pkgerrors "github.com/VINCENT-bot354/safaribytes/pkg/errors"
)

type stubProducts struct {
	products.Service
	menuFilter   products.MenuFilter
	adminID      uint64
	productID    uint64
	input        products.ProductInput
	available    *bool
	removed      uint64
	removeErr    error
	listIncluded bool
}

func (s *stubProducts) Menu(_ context.Context, filter products.MenuFilter) ([]products.ProductView, error) {
	s.menuFilter = filter
	return []products.ProductView{{ID: 1, Name: "Pilau", PriceNow: decimal.NewFromInt(300), IsAvailable: true}}, nil
}

func (s *stubProducts) List(_ context.Context, includeRemoved bool) ([]products.AdminProductView, error) {
	s.listIncluded = includeRemoved
	return nil, nil
}

func (s *stubProducts) Create(_ context.Context, adminID uint64, input products.ProductInput) (*products.AdminProductView, error) {
	s.adminID, s.input = adminID, input
	return &products.AdminProductView{ProductView: products.ProductView{ID: 5, Name: input.Name}}, nil
}

func (s *stubProducts) Update(_ context.Context, adminID, id uint64, input products.ProductInput) (*products.AdminProductView, error) {
	s.adminID, s.productID, s.input = adminID, id, input
	return &products.AdminProductView{ProductView: products.ProductView{ID: id, Name: input.Name}}, nil
}

func (s *stubProducts) SetAvailability(_ context.Context, adminID, id uint64, available bool) (*products.AdminProductView, error) {
	s.adminID, s.productID, s.available = adminID, id, &available
	return &products.AdminProductView{ProductView: products.ProductView{ID: id, IsAvailable: available}}, nil
}

func (s *stubProducts) Remove(_ context.Context, _ uint64, id uint64) error {
	s.removed = id
	return s.removeErr
}

func productRouter(svc products.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithIdentity(req.Context(), 3, enums.ActorRoleAdmin, "Amina")))
		})
	})
	r.Get("/products", ProductMenu(svc, nil))
	r.Get("/admin/products", AdminListProducts(svc, nil))
	r.Post("/admin/products", CreateProduct(svc, nil))
	r.Put("/admin/products/{productId}", UpdateProduct(svc, nil))
	r.Patch("/admin/products/{productId}/availability", SetProductAvailability(svc, nil))
	r.Delete("/admin/products/{productId}", RemoveProduct(svc, nil))
	return r
}

func TestProductMenuParsesFilters(t *testing.T) {
	svc := &stubProducts{}
	rec := httptest.NewRecorder()
	productRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products?category=%20Combos%20&available=true", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, products.MenuFilter{Category: "Combos", AvailableOnly: true}, svc.menuFilter)
	assert.Contains(t, rec.Body.String(), `"name":"Pilau"`)
}

func TestCreateProductMapsComboPayload(t *testing.T) {
	svc := &stubProducts{}
	body := `{
		"image_url": "/static/img/meal.jpg",
		"name": "Chips  and Soda",
		"description": "   ",
		"category": "Combos",
		"price_now": 260,
		"price_old": null,
		"cost_of_goods": "120.50",
		"stock": "",
		"is_combo": true,
		"combo_items": [{"product_id": 1, "quantity": 1}, {"product_id": 2, "quantity": 2}]
	}`
	rec := httptest.NewRecorder()
	productRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/products", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, uint64(3), svc.adminID)
	assert.Equal(t, "Chips and Soda", svc.input.Name)
	assert.Nil(t, svc.input.Description)
	assert.Nil(t, svc.input.Stock)
	assert.Nil(t, svc.input.PriceOld)
	assert.True(t, svc.input.CostOfGoods.Equal(decimal.RequireFromString("120.50")))
	require.Len(t, svc.input.ComboItems, 2)
	assert.Equal(t, 2, svc.input.ComboItems[1].Quantity)
}

func TestCreateProductRejectsBadComboQuantity(t *testing.T) {
	svc := &stubProducts{}
	body := `{"image_url":"x.jpg","name":"Meal","category":"Combos","price_now":1,"is_combo":true,"combo_items":[{"product_id":1,"quantity":0}]}`
	rec := httptest.NewRecorder()
	productRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/products", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.input.Name, "service must not be called")
}

func TestSetProductAvailabilityRequiresFlag(t *testing.T) {
	svc := &stubProducts{}
	router := productRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/admin/products/4/availability", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.available)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/admin/products/4/availability", strings.NewReader(`{"is_available":false}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.available)
	assert.False(t, *svc.available)
	assert.Equal(t, uint64(4), svc.productID)
}

func TestRemoveProductSurfacesBundledConflict(t *testing.T) {
	svc := &stubProducts{removeErr: pkgerrors.New(pkgerrors.CodeStateConflict, "product is part of an active combo")}
	rec := httptest.NewRecorder()
	productRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/admin/products/9", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, uint64(9), svc.removed)
}

func TestAdminListProductsIncludeRemoved(t *testing.T) {
	svc := &stubProducts{}
	rec := httptest.NewRecorder()
	productRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/products?includeRemoved=true", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.listIncluded)
}
