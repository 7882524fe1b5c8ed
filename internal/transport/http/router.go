package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/quickcart/quickcart-api/internal/handlers"
	"github.com/quickcart/quickcart-api/internal/middleware/auth"
)

type Deps struct {
	DB            *gorm.DB
	JWTSecret     []byte
	OrderHandler  *handlers.OrderHandler
	SearchHandler *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	order := e.Group("/api/order")

	// The webhook is signed by the gateway itself; no user token involved.
	order.POST("/web-hook", d.OrderHandler.Webhook)

	authed := order.Group("", auth.RequireLogin(d.JWTSecret))

	authed.POST("/cash-on-delivery", d.OrderHandler.CashOnDelivery)
	authed.POST("/create-razorpay-order", d.OrderHandler.CreateRazorpayOrder)
	authed.POST("/verify-razorpay-payment", d.OrderHandler.VerifyRazorpayPayment)
	authed.GET("/order-list", d.OrderHandler.OrderList)

	authed.GET("/all-orders", d.OrderHandler.AllOrders)
	authed.GET("/today-orders", d.OrderHandler.TodayOrders)
	authed.GET("/order-stats", d.OrderHandler.OrderStats)
	authed.GET("/search", d.SearchHandler.Search)
	authed.POST("/add-status-update", d.OrderHandler.AddStatusUpdate)
	authed.POST("/backfill-delivery-addresses", d.OrderHandler.BackfillDeliveryAddresses)
	authed.PUT("/update-status", d.OrderHandler.UpdateStatus)
	authed.PUT("/bulk-update-status", d.OrderHandler.BulkUpdateStatus)

	authed.GET("/:orderId", d.OrderHandler.GetOrderByID)
	authed.GET("/:orderId/invoice", d.OrderHandler.GenerateInvoice)
}
