package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/craft_store/internal/cart"
	"github.com/Skotchmaster/craft_store/internal/events"
	"github.com/Skotchmaster/craft_store/internal/models"
	"github.com/Skotchmaster/craft_store/internal/order"
	"github.com/Skotchmaster/craft_store/internal/repo"
	"github.com/Skotchmaster/craft_store/internal/repo/repotest"
	"github.com/Skotchmaster/craft_store/internal/transport"
	middleware "github.com/Skotchmaster/craft_store/pkg/middleware/auth"
	"github.com/Skotchmaster/craft_store/pkg/tokens"
)

var testSecret = []byte("test-secret")

type server struct {
	e    *echo.Echo
	repo *repo.GormRepo
	life *order.Lifecycle
}

func newServer(t *testing.T) *server {
	t.Helper()
	r := repotest.NewRepo(t)
	life := order.NewLifecycle(r, nil, order.Options{TaxPercent: 19, DepositPercent: 50, MinLeadDays: 3})
	life.Carts = cart.NewStore(r, life.Ledger, events.Nop{})

	e := echo.New()
	Register(e, &Deps{
		StockHandler: &StockHTTP{Ledger: life.Ledger, Scheduler: life.Scheduler, Clock: r, Catalog: r},
		CartHandler:  &CartHTTP{Carts: life.Carts, Orders: life},
		OrderHandler: &OrderHTTP{Svc: life},
		AdminHandler: &AdminHTTP{Svc: life},
		JWTSecret:    testSecret,
	})
	return &server{e: e, repo: r, life: life}
}

func (s *server) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, sub, role string) *http.Cookie {
	t.Helper()
	tok, err := tokens.NewAccessToken(sub, role, time.Now().Add(time.Hour), testSecret)
	require.NoError(t, err)
	return &http.Cookie{Name: middleware.AccessCookie, Value: tok}
}

func TestHealth(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/ready", nil).Code)
}

func TestGuestCart(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	p := repotest.SeedProduct(t, s.repo, "mug", 5, "12.00")

	rec := s.do(t, http.MethodPost, "/api/v1/cart/items", transport.AddItemRequest{ProductID: p.ID, Quantity: 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var guest *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.GuestCookie {
			guest = c
		}
	}
	require.NotNil(t, guest)

	var resp transport.CartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cart:guest:"+guest.Value, resp.Key)
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(24)))

	rec = s.do(t, http.MethodPost, "/api/v1/cart/items", transport.AddItemRequest{ProductID: p.ID, Quantity: 4}, guest)
	require.Equal(t, http.StatusConflict, rec.Code)
	var ise transport.InsufficientStockResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ise))
	assert.Equal(t, 5, ise.Available)

	path := "/api/v1/cart/items/" + itoa(p.ID) + "/predesigned"
	rec = s.do(t, http.MethodPost, path+"/decrement", nil, guest)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodPost, path+"/decrement", nil, guest)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Lines[0].Quantity)

	rec = s.do(t, http.MethodPost, path+"/increment", nil, guest)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/cart/items/"+itoa(p.ID)+"/gold/increment", nil, guest)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, path, nil, guest)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Lines)

	rec = s.do(t, http.MethodPost, "/api/v1/cart/checkout", map[string]any{"payment_method": "card"}, guest)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func cookiesNamed(rec *httptest.ResponseRecorder, name string) []*http.Cookie {
	var out []*http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

func TestCheckout_AnonymousGetsSingleGuestCookie(t *testing.T) {
	t.Parallel()
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/cart/checkout", map[string]any{"payment_method": "card"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Len(t, cookiesNamed(rec, middleware.GuestCookie), 1)
}

func TestCartSession_LoginAndLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newServer(t)
	p := repotest.SeedProduct(t, s.repo, "mug", 10, "5.00")
	customer := login(t, "cust-7", "user")

	rec := s.do(t, http.MethodPost, "/api/v1/cart/items", transport.AddItemRequest{ProductID: p.ID, Quantity: 3}, customer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/v1/cart/items", transport.AddItemRequest{ProductID: p.ID, Quantity: 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	guests := cookiesNamed(rec, middleware.GuestCookie)
	require.Len(t, guests, 1)
	guest := guests[0]

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/api/v1/cart/session", nil, guest).Code)

	rec = s.do(t, http.MethodPost, "/api/v1/cart/session", nil, customer, guest)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp transport.CartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cart:cust-7", resp.Key)
	require.Len(t, resp.Lines, 1)
	assert.Equal(t, 3, resp.Lines[0].Quantity)

	expired := cookiesNamed(rec, middleware.GuestCookie)
	require.Len(t, expired, 1)
	assert.Negative(t, expired[0].MaxAge)

	left, err := s.life.Carts.Get(ctx, cart.Guest(guest.Value))
	require.NoError(t, err)
	assert.Empty(t, left)

	rec = s.do(t, http.MethodDelete, "/api/v1/cart/session", nil, customer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Lines)

	fresh := cookiesNamed(rec, middleware.GuestCookie)
	require.Len(t, fresh, 1)
	assert.Equal(t, "cart:guest:"+fresh[0].Value, resp.Key)
	access := cookiesNamed(rec, middleware.AccessCookie)
	require.Len(t, access, 1)
	assert.Negative(t, access[0].MaxAge)

	kept, err := s.life.Carts.Get(ctx, cart.Customer("cust-7"))
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, 3, kept[0].Quantity)
}

func TestCheckoutAndAdminFlow(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	p := repotest.SeedProduct(t, s.repo, "vase", 5, "10.00")
	customer := login(t, "cust-1", "user")
	admin := login(t, "boss", tokens.RoleAdmin)

	rec := s.do(t, http.MethodPost, "/api/v1/cart/items", transport.AddItemRequest{ProductID: p.ID, Quantity: 3}, customer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/v1/cart/checkout", map[string]any{"payment_method": "card"}, customer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created order.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, models.OrderStatusFirstPayment, created.Status)
	assert.True(t, created.TotalAmount.Equal(decimal.RequireFromString("35.70")), created.TotalAmount.String())
	assert.Equal(t, order.AffordanceAdd, created.Affordance)

	stock, err := s.life.Ledger.CurrentStock(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stock)

	rec = s.do(t, http.MethodGet, "/api/v1/orders", nil, customer)
	require.Equal(t, http.StatusOK, rec.Code)
	var list transport.OrderListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.EqualValues(t, 1, list.Page.Total)

	orderPath := "/api/v1/orders/" + created.ID.String()
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, orderPath, nil, customer).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, orderPath, nil, login(t, "other", "user")).Code)

	adminPath := "/api/v1/admin/orders/" + created.ID.String()
	rec = s.do(t, http.MethodPost, adminPath+"/adjustment", map[string]any{"amount": "5"}, customer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, adminPath+"/adjustment", map[string]any{"amount": "5"}, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var adjusted order.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &adjusted))
	assert.Equal(t, order.AffordanceRevert, adjusted.Affordance)

	rec = s.do(t, http.MethodDelete, adminPath+"/adjustment", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPatch, adminPath+"/delivery-date", map[string]any{"delivery_date": "2000-01-03"}, admin)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodPatch, adminPath+"/status", map[string]any{"status": "in_production"}, admin)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPatch, adminPath+"/status", map[string]any{"status": "annulled"}, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stock, err = s.life.Ledger.CurrentStock(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stock)

	rec = s.do(t, http.MethodPut, adminPath+"/details", map[string]any{"adjustment": "3"}, admin)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/admin/orders?page=1&size=5", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/admin/orders/search?q=cust-1", nil, admin)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStockAndDelivery(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	p := repotest.SeedProduct(t, s.repo, "plate", 7, "3")

	rec := s.do(t, http.MethodGet, "/api/v1/stock/"+itoa(p.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var st transport.StockResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 7, st.Stock)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/stock/999", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/stock/abc", nil).Code)

	rec = s.do(t, http.MethodGet, "/api/v1/delivery/earliest", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var d transport.DeliveryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, 3, d.MinLead)
	assert.Greater(t, d.Earliest, d.Today)
}

func TestListProducts(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	repotest.SeedProduct(t, s.repo, "bowl", 2, "8.00")
	hidden := repotest.SeedProduct(t, s.repo, "retired", 1, "5.00")
	require.NoError(t, s.repo.DB.Model(hidden).Update("active", false).Error)
	repotest.SeedProduct(t, s.repo, "cup", 4, "6.50")

	rec := s.do(t, http.MethodGet, "/api/v1/products?page=1&size=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out transport.ProductListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, int64(2), out.Page.Total)
	require.Len(t, out.Products, 1)
	assert.Equal(t, "bowl", out.Products[0].Name)

	rec = s.do(t, http.MethodGet, "/api/v1/products?page=2&size=1", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Products, 1)
	assert.Equal(t, "cup", out.Products[0].Name)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
