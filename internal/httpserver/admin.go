package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/craft_store/internal/models"
	"github.com/Skotchmaster/craft_store/internal/order"
	"github.com/Skotchmaster/craft_store/internal/search"
	"github.com/Skotchmaster/craft_store/internal/transport"
	"github.com/Skotchmaster/craft_store/internal/util"
	"github.com/Skotchmaster/craft_store/pkg/logging"
)

type OrderSearcher interface {
	Search(ctx context.Context, q search.Query) (int64, []search.OrderDoc, error)
}

// AdminHTTP serves the back-office order screens.
type AdminHTTP struct {
	Svc    *order.Lifecycle
	Search OrderSearcher
}

func (h *AdminHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_orders")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	p, orders, err := h.Svc.List(ctx, c.QueryParam("customer_id"), page, size)
	if err != nil {
		return fail(l, "admin_list_orders", err)
	}

	views := make([]order.View, len(orders))
	for i := range orders {
		views[i] = order.ViewOf(&orders[i])
	}
	return c.JSON(http.StatusOK, transport.OrderListResponse{Page: p, Orders: views})
}

func (h *AdminHTTP) SearchOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.search_orders")

	if h.Search == nil {
		l.Warn("search_orders_error", "status", 503, "reason", "search disabled")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not configured")
	}

	status := models.OrderStatus(c.QueryParam("status"))
	if status != "" && !order.ValidStatus(status) {
		return badRequest(l, "search_orders", "unknown status", errors.New(string(status)))
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	total, docs, err := h.Search.Search(ctx, search.Query{Text: c.QueryParam("q"), Status: status, From: from, Size: limit})
	if err != nil {
		l.Error("search_orders_error", "status", 502, "reason", "search backend", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "search error")
	}
	return c.JSON(http.StatusOK, transport.OrderSearchResponse{Page: util.PageOf(from, limit, total), Orders: docs})
}

func (h *AdminHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_status")

	id, err := orderID(c)
	if err != nil {
		return badRequest(l, "update_status", "invalid order id", err)
	}
	var req transport.StatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_status", "invalid body", err)
	}

	o, err := h.Svc.Transition(ctx, id, req.Status)
	if err != nil {
		return fail(l, "update_status", err)
	}

	l.Info("update_status_success", "order_id", o.ID, "status", o.Status)
	return c.JSON(http.StatusOK, order.ViewOf(o))
}

func (h *AdminHTTP) UpdateDeliveryDate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_delivery_date")

	id, err := orderID(c)
	if err != nil {
		return badRequest(l, "update_delivery_date", "invalid order id", err)
	}
	var req transport.DeliveryDateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_delivery_date", "invalid body", err)
	}
	date, err := transport.ParseDate(req.DeliveryDate)
	if err != nil || date == nil {
		return badRequest(l, "update_delivery_date", "delivery_date must be YYYY-MM-DD", err)
	}

	o, err := h.Svc.UpdateDeliveryDate(ctx, id, *date)
	if err != nil {
		return fail(l, "update_delivery_date", err)
	}
	return c.JSON(http.StatusOK, order.ViewOf(o))
}

func (h *AdminHTTP) ApplyAdjustment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.apply_adjustment")

	id, err := orderID(c)
	if err != nil {
		return badRequest(l, "apply_adjustment", "invalid order id", err)
	}
	var req transport.AdjustmentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "apply_adjustment", "invalid body", err)
	}

	o, err := h.Svc.ApplyAdjustment(ctx, id, req.Amount)
	if err != nil {
		return fail(l, "apply_adjustment", err)
	}
	return c.JSON(http.StatusOK, order.ViewOf(o))
}

func (h *AdminHTTP) RevertAdjustment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.revert_adjustment")

	id, err := orderID(c)
	if err != nil {
		return badRequest(l, "revert_adjustment", "invalid order id", err)
	}

	o, err := h.Svc.RevertAdjustment(ctx, id)
	if err != nil {
		return fail(l, "revert_adjustment", err)
	}
	return c.JSON(http.StatusOK, order.ViewOf(o))
}

func (h *AdminHTTP) SaveDetails(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.save_details")

	id, err := orderID(c)
	if err != nil {
		return badRequest(l, "save_details", "invalid order id", err)
	}
	var req transport.DetailsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "save_details", "invalid body", err)
	}
	date, err := transport.ParseDate(req.DeliveryDate)
	if err != nil {
		return badRequest(l, "save_details", "delivery_date must be YYYY-MM-DD", err)
	}

	o, err := h.Svc.SaveDetails(ctx, id, order.Details{DeliveryDate: date, Adjustment: req.Adjustment})
	if err != nil {
		return fail(l, "save_details", err)
	}
	return c.JSON(http.StatusOK, order.ViewOf(o))
}
