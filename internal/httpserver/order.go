package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/craft_store/internal/order"
	"github.com/Skotchmaster/craft_store/internal/transport"
	"github.com/Skotchmaster/craft_store/internal/util"
	"github.com/Skotchmaster/craft_store/pkg/logging"
)

type OrderHTTP struct {
	Svc *order.Lifecycle
}

func customerID(c echo.Context) string {
	s, _ := c.Get("user_id").(string)
	return s
}

func orderID(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	p, orders, err := h.Svc.List(ctx, customerID(c), page, size)
	if err != nil {
		return fail(l, "list_orders", err)
	}

	views := make([]order.View, len(orders))
	for i := range orders {
		views[i] = order.ViewOf(&orders[i])
	}
	return c.JSON(http.StatusOK, transport.OrderListResponse{Page: p, Orders: views})
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	id, err := orderID(c)
	if err != nil {
		return badRequest(l, "get_order", "invalid order id", err)
	}

	o, err := h.Svc.GetForCustomer(ctx, id, customerID(c))
	if err != nil {
		return fail(l, "get_order", err)
	}
	return c.JSON(http.StatusOK, order.ViewOf(o))
}
