package httpserver

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/craft_store/internal/delivery"
	"github.com/Skotchmaster/craft_store/internal/models"
	"github.com/Skotchmaster/craft_store/internal/stock"
	"github.com/Skotchmaster/craft_store/internal/transport"
	"github.com/Skotchmaster/craft_store/internal/util"
	"github.com/Skotchmaster/craft_store/pkg/logging"
)

type Catalog interface {
	ListProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error)
}

type StockHTTP struct {
	Ledger    *stock.Ledger
	Scheduler *delivery.Scheduler
	Clock     delivery.Clock
	Catalog   Catalog
}

func (h *StockHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.list")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Catalog.ListProducts(ctx, offset, limit)
	if err != nil {
		return fail(l, "list_products", err)
	}
	return c.JSON(http.StatusOK, transport.ProductListResponse{Page: util.PageOf(offset, limit, total), Products: items})
}

func (h *StockHTTP) GetStock(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "stock.get")

	id, err := strconv.ParseUint(c.Param("productID"), 10, 64)
	if err != nil || id == 0 {
		return badRequest(l, "get_stock", "invalid product id", err)
	}

	n, err := h.Ledger.CurrentStock(ctx, uint(id))
	if err != nil {
		return fail(l, "get_stock", err)
	}
	return c.JSON(http.StatusOK, transport.StockResponse{ProductID: uint(id), Stock: n})
}

func (h *StockHTTP) EarliestDelivery(c echo.Context) error {
	ctx := c.Request().Context()

	today := delivery.Today(ctx, h.Clock)
	return c.JSON(http.StatusOK, transport.DeliveryResponse{
		Today:    today.Format(time.DateOnly),
		Earliest: h.Scheduler.EarliestDelivery(today).Format(time.DateOnly),
		MinLead:  h.Scheduler.MinLead,
	})
}
