package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/craft_store/pkg/middleware/auth"
)

type Deps struct {
	StockHandler *StockHTTP
	CartHandler  *CartHTTP
	OrderHandler *OrderHTTP
	AdminHandler *AdminHTTP
	JWTSecret    []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authMW := middleware.NewIdentityMiddleware(d.JWTSecret)

	api := e.Group("/api/v1")
	api.GET("/products", d.StockHandler.ListProducts)
	api.GET("/stock/:productID", d.StockHandler.GetStock)
	api.GET("/delivery/earliest", d.StockHandler.EarliestDelivery)

	cart := api.Group("/cart", authMW.Identify)
	cart.GET("", d.CartHandler.GetCart)
	cart.DELETE("", d.CartHandler.Clear)
	cart.POST("/items", d.CartHandler.AddItem)
	cart.POST("/items/:productID/:variant/increment", d.CartHandler.Increment)
	cart.POST("/items/:productID/:variant/decrement", d.CartHandler.Decrement)
	cart.DELETE("/items/:productID/:variant", d.CartHandler.RemoveItem)
	cart.POST("/checkout", d.CartHandler.Checkout, authMW.Authenticated)
	cart.POST("/session", d.CartHandler.Login, authMW.Authenticated)
	cart.DELETE("/session", d.CartHandler.Logout, authMW.Authenticated)

	orders := api.Group("/orders", authMW.RequireAuth)
	orders.GET("", d.OrderHandler.ListOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)

	admin := api.Group("/admin/orders", authMW.RequireAdmin)
	admin.GET("", d.AdminHandler.ListOrders)
	admin.GET("/search", d.AdminHandler.SearchOrders)
	admin.PATCH("/:id/status", d.AdminHandler.UpdateStatus)
	admin.PATCH("/:id/delivery-date", d.AdminHandler.UpdateDeliveryDate)
	admin.POST("/:id/adjustment", d.AdminHandler.ApplyAdjustment)
	admin.DELETE("/:id/adjustment", d.AdminHandler.RevertAdjustment)
	admin.PUT("/:id/details", d.AdminHandler.SaveDetails)
}
