package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/craft_store/internal/cart"
	"github.com/Skotchmaster/craft_store/internal/delivery"
	"github.com/Skotchmaster/craft_store/internal/order"
	"github.com/Skotchmaster/craft_store/internal/stock"
	"github.com/Skotchmaster/craft_store/internal/transport"
)

// fail logs err under op and converts it to the matching HTTP error.
func fail(l *slog.Logger, op string, err error) error {
	var ise *stock.InsufficientStockError
	switch {
	case errors.As(err, &ise):
		l.Warn(op+"_error", "status", 409, "reason", "insufficient stock", "error", err)
		return echo.NewHTTPError(http.StatusConflict, transport.InsufficientStockResponse{
			Message:   "insufficient stock",
			ProductID: ise.ProductID,
			Requested: ise.Requested,
			Available: ise.Available,
		})
	case errors.Is(err, delivery.ErrDeliveryTooEarly):
		l.Warn(op+"_error", "status", 422, "reason", "delivery date too early", "error", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, cart.ErrValidation), errors.Is(err, order.ErrValidation),
		errors.Is(err, stock.ErrValidation), errors.Is(err, cart.ErrEmptyCart):
		l.Warn(op+"_error", "status", 400, "reason", "validation", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, cart.ErrNotFound), errors.Is(err, order.ErrNotFound), errors.Is(err, stock.ErrNotFound):
		l.Warn(op+"_error", "status", 404, "reason", "not found", "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, order.ErrTransitionNotAllowed), errors.Is(err, order.ErrNotEditable):
		l.Warn(op+"_error", "status", 409, "reason", "status", "error", err)
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, stock.ErrConflict):
		l.Warn(op+"_error", "status", 409, "reason", "concurrent update", "error", err)
		return echo.NewHTTPError(http.StatusConflict, "concurrent update, retry")
	default:
		l.Error(op+"_error", "status", 500, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func badRequest(l *slog.Logger, op, reason string, err error) error {
	l.Warn(op+"_error", "status", 400, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}
