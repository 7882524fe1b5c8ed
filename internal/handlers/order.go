package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/quickcart/quickcart-api/internal/es"
	authmw "github.com/quickcart/quickcart-api/internal/middleware/auth"
	"github.com/quickcart/quickcart-api/internal/models"
	"github.com/quickcart/quickcart-api/internal/mykafka"
	"github.com/quickcart/quickcart-api/internal/service"
	"github.com/quickcart/quickcart-api/internal/util"
)

const webhookSignatureHeader = "X-Razorpay-Signature"

type OrderHandler struct {
	Svc      *service.OrderService
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
}

// publish sends an order event, best effort. A nil producer (tests) or a
// broker hiccup only logs; the request already succeeded.
func (h *OrderHandler) publish(c echo.Context, key string, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, mykafka.OrderEventsTopic, key, event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

// index mirrors order records into the search index, best effort.
func (h *OrderHandler) index(c echo.Context, orders []models.Order) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	for _, order := range orders {
		if err := es.IndexOrder(ctx, h.ES, order); err != nil {
			c.Logger().Errorf("order index error: %v", err)
		}
	}
}

func (h *OrderHandler) CashOnDelivery(c echo.Context) error {
	callerID, err := authmw.CallerID(c)
	if err != nil {
		return err
	}

	var req service.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return envelopeError(c, http.StatusBadRequest, "invalid request body")
	}

	orders, err := h.Svc.CreateCODOrder(c.Request().Context(), callerID, req)
	if err != nil {
		return respondError(c, err)
	}

	h.publish(c, fmt.Sprint(callerID), map[string]any{
		"type":    "order_created",
		"userID":  callerID,
		"orderID": orders[0].OrderID,
		"mode":    models.PaymentStatusCOD,
	})
	h.index(c, orders)

	return respondOK(c, "Order successfully", orders)
}

func (h *OrderHandler) CreateRazorpayOrder(c echo.Context) error {
	callerID, err := authmw.CallerID(c)
	if err != nil {
		return err
	}

	var req service.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return envelopeError(c, http.StatusBadRequest, "invalid request body")
	}

	remote, orders, err := h.Svc.CreateGatewayOrder(c.Request().Context(), callerID, req)
	if err != nil {
		return respondError(c, err)
	}

	h.publish(c, fmt.Sprint(callerID), map[string]any{
		"type":    "order_created",
		"userID":  callerID,
		"orderID": remote.ID,
		"mode":    models.PaymentStatusGatewayCreated,
	})
	h.index(c, orders)

	return respondOK(c, "order created", remote)
}

func (h *OrderHandler) VerifyRazorpayPayment(c echo.Context) error {
	var req struct {
		OrderID   string `json:"razorpay_order_id"`
		PaymentID string `json:"razorpay_payment_id"`
		Signature string `json:"razorpay_signature"`
	}
	if err := c.Bind(&req); err != nil {
		return envelopeError(c, http.StatusBadRequest, "invalid request body")
	}

	orders, err := h.Svc.VerifyPayment(c.Request().Context(), req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		return respondError(c, err)
	}

	if len(orders) > 0 {
		h.publish(c, fmt.Sprint(orders[0].UserID), map[string]any{
			"type":      "payment_verified",
			"userID":    orders[0].UserID,
			"orderID":   req.OrderID,
			"paymentID": req.PaymentID,
		})
		h.index(c, orders)
	}

	return respondOK(c, "Payment verified successfully", nil)
}

func (h *OrderHandler) Webhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return envelopeError(c, http.StatusBadRequest, "unreadable body")
	}

	if err := h.Svc.HandleWebhook(body, c.Request().Header.Get(webhookSignatureHeader)); err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "ok", nil)
}

func (h *OrderHandler) OrderList(c echo.Context) error {
	callerID, err := authmw.CallerID(c)
	if err != nil {
		return err
	}
	orders, err := h.Svc.ListUserOrders(c.Request().Context(), callerID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "order list", orders)
}

func (h *OrderHandler) AllOrders(c echo.Context) error {
	callerID, err := authmw.CallerID(c)
	if err != nil {
		return err
	}
	offset, limit := pageParams(c)
	orders, err := h.Svc.ListAllOrders(c.Request().Context(), callerID, offset, limit)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "all orders", orders)
}

func (h *OrderHandler) TodayOrders(c echo.Context) error {
	callerID, err := authmw.CallerID(c)
	if err != nil {
		return err
	}
	offset, limit := pageParams(c)
	orders, err := h.Svc.ListTodayOrders(c.Request().Context(), callerID, offset, limit)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "today orders", orders)
}

func (h *OrderHandler) OrderStats(c echo.Context) error {
	callerID, err := authmw.CallerID(c)
	if err != nil {
		return err
	}
	stats, err := h.Svc.Stats(c.Request().Context(), callerID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "order stats", stats)
}

func (h *OrderHandler) AddStatusUpdate(c echo.Context) error {
	return h.appendStatus(c, "title")
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	return h.appendStatus(c, "status")
}

func (h *OrderHandler) appendStatus(c echo.Context, titleField string) error {
	callerID, err := authmw.CallerID(c)
	if err != nil {
		return err
	}

	var req struct {
		OrderID string          `json:"orderId"`
		Title   string          `json:"title"`
		Status  string          `json:"status"`
		Details json.RawMessage `json:"details"`
	}
	if err := c.Bind(&req); err != nil {
		return envelopeError(c, http.StatusBadRequest, "invalid request body")
	}

	title := req.Title
	if titleField == "status" {
		title = req.Status
	}

	order, err := h.Svc.AppendStatusUpdate(c.Request().Context(), callerID, req.OrderID, title, coerceDetails(req.Details))
	if err != nil {
		return respondError(c, err)
	}

	h.publish(c, fmt.Sprint(order.UserID), map[string]any{
		"type":    "order_status_updated",
		"userID":  order.UserID,
		"orderID": order.OrderID,
		"status":  title,
	})
	h.index(c, []models.Order{*order})

	return respondOK(c, "Order status updated successfully", order)
}

func (h *OrderHandler) BulkUpdateStatus(c echo.Context) error {
	callerID, err := authmw.CallerID(c)
	if err != nil {
		return err
	}

	var req struct {
		OrderIDs []string        `json:"orderIds"`
		Status   string          `json:"status"`
		Details  json.RawMessage `json:"details"`
	}
	if err := c.Bind(&req); err != nil {
		return envelopeError(c, http.StatusBadRequest, "invalid request body")
	}

	matched, modified, err := h.Svc.BulkAppendStatusUpdate(c.Request().Context(), callerID, req.OrderIDs, req.Status, coerceDetails(req.Details))
	if err != nil {
		return respondError(c, err)
	}

	return respondOK(c,
		fmt.Sprintf("%d orders updated successfully", modified),
		map[string]int64{"matchedCount": matched, "modifiedCount": modified},
	)
}

func (h *OrderHandler) GetOrderByID(c echo.Context) error {
	callerID, err := authmw.CallerID(c)
	if err != nil {
		return err
	}
	order, err := h.Svc.GetOrder(c.Request().Context(), c.Param("orderId"), callerID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "order", order)
}

func (h *OrderHandler) GenerateInvoice(c echo.Context) error {
	callerID, err := authmw.CallerID(c)
	if err != nil {
		return err
	}
	invoice, err := h.Svc.GenerateInvoice(c.Request().Context(), c.Param("orderId"), callerID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "invoice", invoice)
}

func (h *OrderHandler) BackfillDeliveryAddresses(c echo.Context) error {
	callerID, err := authmw.CallerID(c)
	if err != nil {
		return err
	}
	updated, err := h.Svc.BackfillAddressSnapshots(c.Request().Context(), callerID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "backfill complete", map[string]int{"updated": updated})
}

// coerceDetails accepts either a JSON string or an array of strings, the way
// clients historically sent the field.
func coerceDetails(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return []string{single}
	}
	return nil
}

func pageParams(c echo.Context) (offset, limit int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	return util.Calculate(page, size)
}
