package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/craft_store/internal/cart"
	"github.com/Skotchmaster/craft_store/internal/models"
	"github.com/Skotchmaster/craft_store/internal/order"
	"github.com/Skotchmaster/craft_store/internal/transport"
	"github.com/Skotchmaster/craft_store/pkg/logging"
	middleware "github.com/Skotchmaster/craft_store/pkg/middleware/auth"
)

type CartHTTP struct {
	Carts  *cart.Store
	Orders *order.Lifecycle
}

// Identity resolves the cart owner set by the identity middleware.
func (h *CartHTTP) Identity(c echo.Context) cart.Identity {
	if s, _ := c.Get("user_id").(string); s != "" {
		return cart.Customer(s)
	}
	g, _ := c.Get("guest_id").(string)
	return cart.Guest(g)
}

func lineKey(c echo.Context) (cart.LineKey, error) {
	id, err := strconv.ParseUint(c.Param("productID"), 10, 64)
	if err != nil || id == 0 {
		return cart.LineKey{}, errors.New("invalid product id")
	}
	v := models.Variant(c.Param("variant"))
	if !v.Valid() {
		return cart.LineKey{}, errors.New("invalid variant")
	}
	return cart.LineKey{ProductID: uint(id), Variant: v}, nil
}

func cartResponse(id cart.Identity, lines []models.CartLine) transport.CartResponse {
	if lines == nil {
		lines = []models.CartLine{}
	}
	return transport.CartResponse{Key: id.Key(), Lines: lines, Total: cart.Total(lines)}
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	id := h.Identity(c)
	lines, err := h.Carts.Get(ctx, id)
	if err != nil {
		return fail(l, "get_cart", err)
	}
	return c.JSON(http.StatusOK, cartResponse(id, lines))
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	var req transport.AddItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_item", "invalid body", err)
	}
	if req.Variant == "" {
		req.Variant = models.VariantPredesigned
	}

	id := h.Identity(c)
	lines, err := h.Carts.Add(ctx, id, models.CartLine{
		ProductID:         req.ProductID,
		Variant:           req.Variant,
		Quantity:          req.Quantity,
		CustomizationNote: req.CustomizationNote,
	})
	if err != nil {
		return fail(l, "add_item", err)
	}

	l.Info("add_item_success", "cart", id.Key(), "product_id", req.ProductID)
	return c.JSON(http.StatusOK, cartResponse(id, lines))
}

func (h *CartHTTP) Increment(c echo.Context) error {
	return h.step(c, "increment", h.Carts.Increment)
}

func (h *CartHTTP) Decrement(c echo.Context) error {
	return h.step(c, "decrement", h.Carts.Decrement)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	return h.step(c, "remove_item", h.Carts.Remove)
}

type lineOp func(ctx context.Context, id cart.Identity, key cart.LineKey) ([]models.CartLine, error)

func (h *CartHTTP) step(c echo.Context, op string, fn lineOp) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart."+op)

	key, err := lineKey(c)
	if err != nil {
		return badRequest(l, op, err.Error(), err)
	}

	id := h.Identity(c)
	lines, err := fn(ctx, id, key)
	if err != nil {
		return fail(l, op, err)
	}
	return c.JSON(http.StatusOK, cartResponse(id, lines))
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	id := h.Identity(c)
	if err := h.Carts.Clear(ctx, id); err != nil {
		return fail(l, "clear_cart", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.checkout")

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "checkout", "invalid body", err)
	}
	date, err := transport.ParseDate(req.DeliveryDate)
	if err != nil {
		return badRequest(l, "checkout", "delivery_date must be YYYY-MM-DD", err)
	}

	o, err := h.Orders.Checkout(ctx, h.Identity(c), order.CheckoutRequest{
		PaymentMethod:  req.PaymentMethod,
		InitialPayment: req.InitialPayment,
		DeliveryDate:   date,
	})
	if err != nil {
		return fail(l, "checkout", err)
	}

	l.Info("checkout_success", "order_id", o.ID, "total", o.TotalAmount.StringFixed(2))
	return c.JSON(http.StatusCreated, order.ViewOf(o))
}

// Login moves a freshly authenticated customer off their guest bucket: the
// guest cart is dropped, the guestID cookie expired and the customer's own
// snapshot returned.
func (h *CartHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.session_login")

	customer := h.Identity(c)
	from := customer
	guest, hasGuest := middleware.GuestFromCookie(c)
	if hasGuest {
		from = cart.Guest(guest)
	}

	sess, err := cart.NewSession(ctx, h.Carts, from)
	if err != nil {
		return fail(l, "session_login", err)
	}
	if err := sess.SwitchIdentity(ctx, customer); err != nil {
		return fail(l, "session_login", err)
	}
	if hasGuest {
		middleware.ExpireCookie(c, middleware.GuestCookie)
	}

	l.Info("session_login_success", "cart", customer.Key(), "dropped_guest", hasGuest)
	return c.JSON(http.StatusOK, cartResponse(sess.Identity(), sess.Lines()))
}

// Logout hands the caller a new, empty guest bucket and expires the access
// token cookie. The customer's snapshot stays for their next login.
func (h *CartHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.session_logout")

	sess, err := cart.NewSession(ctx, h.Carts, h.Identity(c))
	if err != nil {
		return fail(l, "session_logout", err)
	}
	next := cart.Guest(uuid.NewString())
	if err := sess.SwitchIdentity(ctx, next); err != nil {
		return fail(l, "session_logout", err)
	}

	middleware.ExpireCookie(c, middleware.AccessCookie)
	middleware.SetGuestCookie(c, next.GuestID)
	return c.JSON(http.StatusOK, cartResponse(sess.Identity(), sess.Lines()))
}
