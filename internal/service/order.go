package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quickcart/quickcart-api/internal/logging"
	"github.com/quickcart/quickcart-api/internal/models"
	"github.com/quickcart/quickcart-api/internal/payment"
	"github.com/quickcart/quickcart-api/internal/repo"
)

// Human-readable dates stored on status updates, e.g. "Tue, 3 Jun 25" and
// "Tue, 3 Jun 25 - 4:12pm".
const (
	dateLayout     = "Mon, 2 Jan 06"
	dateTimeLayout = "Mon, 2 Jan 06 - 3:04pm"
)

const defaultCurrency = "INR"

type CheckoutItem struct {
	ProductID uint `json:"productId"`
	Quantity  uint `json:"quantity"`
}

type CheckoutRequest struct {
	Items       []CheckoutItem    `json:"list_items"`
	AddressID   uint              `json:"addressId"`
	SubTotalAmt float64           `json:"subTotalAmt"`
	TotalAmt    float64           `json:"totalAmt"`
	Currency    string            `json:"currency,omitempty"`
	Receipt     string            `json:"receipt,omitempty"`
	Notes       map[string]string `json:"notes,omitempty"`
}

// OrderService orchestrates the order lifecycle: checkout in both payment
// modes, the payment-verification transition, status history and the admin
// projections. The gateway is an injected capability, never package state.
type OrderService struct {
	orders    *repo.OrderRepo
	users     *repo.UserRepo
	addresses *repo.AddressRepo
	products  *repo.ProductRepo
	carts     *repo.CartRepo
	gateway   payment.Gateway
	now       func() time.Time
}

func NewOrderService(db *gorm.DB, gw payment.Gateway) *OrderService {
	return &OrderService{
		orders:    &repo.OrderRepo{DB: db},
		users:     &repo.UserRepo{DB: db},
		addresses: &repo.AddressRepo{DB: db},
		products:  &repo.ProductRepo{DB: db},
		carts:     &repo.CartRepo{DB: db},
		gateway:   gw,
		now:       time.Now,
	}
}

// verifiedUser gates checkout: the caller must exist and have at least one
// verified contact channel.
func (s *OrderService) verifiedUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		// A checkout for an unknown user is a bad request, not a missing
		// order; keep ErrNotFound for order lookups only.
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %d not found", models.ErrValidation, userID)
		}
		return nil, err
	}
	if !user.HasVerifiedContact() {
		return nil, models.NewUnverifiedAccountError(user)
	}
	return user, nil
}

// buildRecords turns checkout line items into order records sharing one
// group id. The delivery address is snapshotted here; a missing address
// yields an empty snapshot, never a failed checkout.
func (s *OrderService) buildRecords(ctx context.Context, userID uint, groupID, status string, req CheckoutRequest) ([]models.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: list_items required", models.ErrValidation)
	}

	var addrSnap models.AddressSnapshot
	if addr, err := s.addresses.FindByID(ctx, req.AddressID); err == nil {
		addrSnap = models.SnapshotOf(addr)
	} else {
		logging.FromContext(ctx).Warn("delivery address not resolved, storing empty snapshot",
			"address_id", req.AddressID, "user_id", userID)
	}

	now := s.now()
	confirmed := models.StatusUpdate{
		Title: "Order Confirmed",
		Date:  now.Format(dateLayout),
		Details: []string{
			"Your Order has been placed.",
			now.Format(dateTimeLayout),
		},
	}

	records := make([]models.Order, 0, len(req.Items))
	for _, item := range req.Items {
		product, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: product %d not found", models.ErrValidation, item.ProductID)
		}
		records = append(records, models.Order{
			OrderID:           groupID,
			UserID:            userID,
			ProductID:         product.ID,
			ProductDetails:    models.ProductSnapshot{Name: product.Name, Image: product.Image},
			PaymentID:         "",
			PaymentStatus:     status,
			DeliveryAddressID: req.AddressID,
			DeliveryAddress:   addrSnap,
			SubTotalAmt:       req.SubTotalAmt,
			TotalAmt:          req.TotalAmt,
			StatusUpdates:     models.StatusUpdates{confirmed},
		})
	}
	return records, nil
}

// CreateCODOrder places a cash-on-delivery order. The record batch insert and
// the cart clear commit together or not at all.
func (s *OrderService) CreateCODOrder(ctx context.Context, userID uint, req CheckoutRequest) ([]models.Order, error) {
	if _, err := s.verifiedUser(ctx, userID); err != nil {
		return nil, err
	}

	groupID := "ORD-" + uuid.NewString()
	records, err := s.buildRecords(ctx, userID, groupID, models.PaymentStatusCOD, req)
	if err != nil {
		return nil, err
	}

	return s.orders.CreateBatch(ctx, records, userID, true)
}

// CreateGatewayOrder creates the remote payment order first, then persists
// the local batch under the gateway's order id. The cart survives until the
// payment is verified.
func (s *OrderService) CreateGatewayOrder(ctx context.Context, userID uint, req CheckoutRequest) (*payment.RemoteOrder, []models.Order, error) {
	if req.TotalAmt <= 0 || req.SubTotalAmt <= 0 {
		return nil, nil, fmt.Errorf("%w: missing required fields", models.ErrValidation)
	}
	if _, err := s.verifiedUser(ctx, userID); err != nil {
		return nil, nil, err
	}
	if len(req.Items) == 0 {
		return nil, nil, fmt.Errorf("%w: list_items required", models.ErrValidation)
	}

	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	// Round to the nearest paisa: float truncation would under-charge
	// fractional totals by one minor unit.
	remote, err := s.gateway.CreateRemoteOrder(ctx, payment.OrderSpec{
		Amount:   int64(math.Round(req.TotalAmt * 100)),
		Currency: currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", models.ErrUpstream, err)
	}

	records, err := s.buildRecords(ctx, userID, remote.ID, models.PaymentStatusGatewayCreated, req)
	if err != nil {
		return nil, nil, err
	}
	records, err = s.orders.CreateBatch(ctx, records, userID, false)
	if err != nil {
		return nil, nil, err
	}
	return remote, records, nil
}

// VerifyPayment checks the redirect signature and, only then, transitions the
// whole order group to PAID. The signature gate runs before any store read so
// unknown order ids cannot be probed with junk signatures.
func (s *OrderService) VerifyPayment(ctx context.Context, orderID, paymentID, signature string) ([]models.Order, error) {
	if orderID == "" || paymentID == "" || signature == "" {
		return nil, fmt.Errorf("%w: missing payment info", models.ErrValidation)
	}
	if !s.gateway.VerifySignature(orderID, paymentID, signature) {
		return nil, models.ErrInvalidSignature
	}

	group, err := s.orders.FindGroup(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(group) == 0 {
		return nil, models.ErrNotFound
	}

	if _, err := s.orders.MarkGroupPaid(ctx, orderID, paymentID); err != nil {
		return nil, err
	}

	// Cart clearing was deferred at gateway checkout; complete it now.
	// Best effort: a failed clear does not undo the payment transition.
	if err := s.carts.ClearForUser(ctx, group[0].UserID); err != nil {
		logging.FromContext(ctx).Warn("cart clear after payment failed",
			"user_id", group[0].UserID, "order_id", orderID)
	}

	return s.orders.FindGroup(ctx, orderID)
}

// HandleWebhook verifies the webhook digest over the raw body. It is an
// audit-only hook: no order state changes on this path.
func (s *OrderService) HandleWebhook(body []byte, signature string) error {
	if !s.gateway.VerifyWebhookSignature(body, signature) {
		return models.ErrInvalidSignature
	}
	return nil
}
