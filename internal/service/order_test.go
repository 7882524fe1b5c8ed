package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/quickcart/quickcart-api/internal/config"
	"github.com/quickcart/quickcart-api/internal/models"
	"github.com/quickcart/quickcart-api/internal/payment"
)

const testSecret = "s3cr3t"

type fakeGateway struct {
	nextID    string
	createErr error
	lastSpec  payment.OrderSpec
	calls     int
}

func (f *fakeGateway) CreateRemoteOrder(_ context.Context, spec payment.OrderSpec) (*payment.RemoteOrder, error) {
	f.calls++
	f.lastSpec = spec
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &payment.RemoteOrder{ID: f.nextID, Amount: spec.Amount, Currency: spec.Currency, Status: "created"}, nil
}

func (f *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return payment.VerifySignature(testSecret, orderID, paymentID, signature)
}

func (f *fakeGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	return payment.VerifyWebhookSignature("hook-"+testSecret, body, signature)
}

type testEnv struct {
	DB  *gorm.DB
	Svc *OrderService
	GW  *fakeGateway
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	gw := &fakeGateway{nextID: "order_abc"}
	return &testEnv{DB: db, Svc: NewOrderService(db, gw), GW: gw}
}

func (env *testEnv) seedVerifiedUser(t *testing.T) models.User {
	t.Helper()
	user := models.User{
		Name:        "Test Customer",
		Email:       "customer@test.local",
		Role:        "USER",
		VerifyEmail: true,
	}
	require.NoError(t, env.DB.Create(&user).Error)
	return user
}

func (env *testEnv) seedAdmin(t *testing.T) models.User {
	t.Helper()
	admin := models.User{
		Name:        "Admin",
		Email:       "admin@test.local",
		Role:        "ADMIN",
		VerifyEmail: true,
	}
	require.NoError(t, env.DB.Create(&admin).Error)
	return admin
}

func (env *testEnv) seedProduct(t *testing.T, name string) models.Product {
	t.Helper()
	p := models.Product{Name: name, Description: "d", Image: "https://img/" + name, Price: 500, Count: 5}
	require.NoError(t, env.DB.Create(&p).Error)
	return p
}

func (env *testEnv) seedAddress(t *testing.T, userID uint) models.Address {
	t.Helper()
	a := models.Address{
		UserID:      userID,
		AddressLine: "12 MG Road",
		City:        "Pune",
		State:       "Maharashtra",
		Pincode:     "411001",
		Country:     "India",
		Mobile:      "9876543210",
	}
	require.NoError(t, env.DB.Create(&a).Error)
	return a
}

func (env *testEnv) seedCartItem(t *testing.T, userID, productID uint) {
	t.Helper()
	require.NoError(t, env.DB.Create(&models.CartItem{UserID: userID, ProductID: productID, Quantity: 1}).Error)
}

func (env *testEnv) cartCount(t *testing.T, userID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.DB.Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&n).Error)
	return n
}

func (env *testEnv) orderCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.DB.Model(&models.Order{}).Count(&n).Error)
	return n
}

func TestCreateCODOrder(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedVerifiedUser(t)
	product := env.seedProduct(t, "P1")
	addr := env.seedAddress(t, user.ID)
	env.seedCartItem(t, user.ID, product.ID)

	orders, err := env.Svc.CreateCODOrder(context.Background(), user.ID, CheckoutRequest{
		Items:       []CheckoutItem{{ProductID: product.ID, Quantity: 1}},
		AddressID:   addr.ID,
		SubTotalAmt: 500,
		TotalAmt:    500,
	})
	require.NoError(t, err)
	require.Len(t, orders, 1)

	order := orders[0]
	require.Equal(t, models.PaymentStatusCOD, order.PaymentStatus)
	require.Equal(t, float64(500), order.TotalAmt)
	require.Equal(t, "", order.PaymentID)
	require.True(t, strings.HasPrefix(order.OrderID, "ORD-"))
	require.Equal(t, "P1", order.ProductDetails.Name)
	require.Equal(t, addr.AddressLine, order.DeliveryAddress.AddressLine)
	require.Equal(t, addr.Pincode, order.DeliveryAddress.Pincode)

	require.Len(t, order.StatusUpdates, 1)
	require.Equal(t, "Order Confirmed", order.StatusUpdates[0].Title)
	require.NotEmpty(t, order.StatusUpdates[0].Date)
	require.Len(t, order.StatusUpdates[0].Details, 2)

	// the cart clears in the same transaction as the insert
	require.Equal(t, int64(0), env.cartCount(t, user.ID))

	// the persisted record round-trips with the same history
	var stored models.Order
	require.NoError(t, env.DB.First(&stored, order.ID).Error)
	require.Len(t, stored.StatusUpdates, 1)
	require.Equal(t, "Order Confirmed", stored.StatusUpdates[0].Title)
}

func TestCreateCODOrderOnePerLineItem(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedVerifiedUser(t)
	p1 := env.seedProduct(t, "P1")
	p2 := env.seedProduct(t, "P2")
	addr := env.seedAddress(t, user.ID)

	orders, err := env.Svc.CreateCODOrder(context.Background(), user.ID, CheckoutRequest{
		Items:       []CheckoutItem{{ProductID: p1.ID, Quantity: 1}, {ProductID: p2.ID, Quantity: 2}},
		AddressID:   addr.ID,
		SubTotalAmt: 1000,
		TotalAmt:    1000,
	})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, orders[0].OrderID, orders[1].OrderID, "records of one checkout share the group id")
	require.Equal(t, "P1", orders[0].ProductDetails.Name)
	require.Equal(t, "P2", orders[1].ProductDetails.Name)
}

func TestCreateCODOrderUnverifiedAccount(t *testing.T) {
	env := newTestEnv(t)
	user := models.User{Name: "N", Email: "n@test.local", Role: "USER"}
	require.NoError(t, env.DB.Create(&user).Error)
	product := env.seedProduct(t, "P1")
	env.seedCartItem(t, user.ID, product.ID)

	_, err := env.Svc.CreateCODOrder(context.Background(), user.ID, CheckoutRequest{
		Items:       []CheckoutItem{{ProductID: product.ID, Quantity: 1}},
		SubTotalAmt: 500,
		TotalAmt:    500,
	})

	var unverified *models.UnverifiedAccountError
	require.ErrorAs(t, err, &unverified)
	require.Equal(t, "unverified", unverified.Status.Email)
	require.Equal(t, "not_provided", unverified.Status.Mobile)

	require.Equal(t, int64(0), env.orderCount(t), "no order record may exist after rejection")
	require.Equal(t, int64(1), env.cartCount(t, user.ID), "cart must survive a rejected checkout")
}

func TestCreateCODOrderValidation(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedVerifiedUser(t)

	_, err := env.Svc.CreateCODOrder(context.Background(), user.ID, CheckoutRequest{})
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = env.Svc.CreateCODOrder(context.Background(), user.ID, CheckoutRequest{
		Items: []CheckoutItem{{ProductID: 12345, Quantity: 1}},
	})
	require.ErrorIs(t, err, models.ErrValidation)
	require.Equal(t, int64(0), env.orderCount(t))
}

func TestCreateCODOrderMissingAddress(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedVerifiedUser(t)
	product := env.seedProduct(t, "P1")

	orders, err := env.Svc.CreateCODOrder(context.Background(), user.ID, CheckoutRequest{
		Items:       []CheckoutItem{{ProductID: product.ID, Quantity: 1}},
		AddressID:   9999,
		SubTotalAmt: 500,
		TotalAmt:    500,
	})
	require.NoError(t, err, "a missing address never fails the checkout")
	require.True(t, orders[0].DeliveryAddress.IsZero())
}

func TestCreateGatewayOrder(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedVerifiedUser(t)
	product := env.seedProduct(t, "P1")
	addr := env.seedAddress(t, user.ID)
	env.seedCartItem(t, user.ID, product.ID)

	remote, orders, err := env.Svc.CreateGatewayOrder(context.Background(), user.ID, CheckoutRequest{
		Items:       []CheckoutItem{{ProductID: product.ID, Quantity: 1}},
		AddressID:   addr.ID,
		SubTotalAmt: 500,
		TotalAmt:    500,
		Receipt:     "rcpt-1",
	})
	require.NoError(t, err)
	require.Equal(t, "order_abc", remote.ID)
	require.Len(t, orders, 1)
	require.Equal(t, "order_abc", orders[0].OrderID, "group id comes from the gateway")
	require.Equal(t, models.PaymentStatusGatewayCreated, orders[0].PaymentStatus)

	require.Equal(t, int64(50000), env.GW.lastSpec.Amount, "amount forwarded in minor units")
	require.Equal(t, "INR", env.GW.lastSpec.Currency)
	require.Equal(t, "rcpt-1", env.GW.lastSpec.Receipt)

	require.Equal(t, int64(1), env.cartCount(t, user.ID), "gateway checkout defers the cart clear")
}

func TestCreateGatewayOrderFractionalAmount(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedVerifiedUser(t)
	product := env.seedProduct(t, "P1")

	for _, tc := range []struct {
		total float64
		paise int64
	}{
		{499.99, 49999},
		{0.29, 29},
		{1234.56, 123456},
	} {
		_, _, err := env.Svc.CreateGatewayOrder(context.Background(), user.ID, CheckoutRequest{
			Items:       []CheckoutItem{{ProductID: product.ID, Quantity: 1}},
			SubTotalAmt: tc.total,
			TotalAmt:    tc.total,
		})
		require.NoError(t, err)
		require.Equal(t, tc.paise, env.GW.lastSpec.Amount,
			"total %v must round to the nearest paisa", tc.total)
	}
}

func TestCreateCODOrderUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, "P1")

	_, err := env.Svc.CreateCODOrder(context.Background(), 4242, CheckoutRequest{
		Items:       []CheckoutItem{{ProductID: product.ID, Quantity: 1}},
		SubTotalAmt: 500,
		TotalAmt:    500,
	})
	require.ErrorIs(t, err, models.ErrValidation, "an unknown caller is a bad request")
	require.NotErrorIs(t, err, models.ErrNotFound)
	require.Equal(t, int64(0), env.orderCount(t))
}

func TestCreateGatewayOrderMissingAmounts(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedVerifiedUser(t)

	_, _, err := env.Svc.CreateGatewayOrder(context.Background(), user.ID, CheckoutRequest{
		Items: []CheckoutItem{{ProductID: 1, Quantity: 1}},
	})
	require.ErrorIs(t, err, models.ErrValidation)
	require.Equal(t, 0, env.GW.calls, "no gateway call before validation passes")
}

func TestCreateGatewayOrderUpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedVerifiedUser(t)
	product := env.seedProduct(t, "P1")
	env.GW.createErr = errors.New("razorpay 5xx")

	_, _, err := env.Svc.CreateGatewayOrder(context.Background(), user.ID, CheckoutRequest{
		Items:       []CheckoutItem{{ProductID: product.ID, Quantity: 1}},
		SubTotalAmt: 500,
		TotalAmt:    500,
	})
	require.ErrorIs(t, err, models.ErrUpstream)
	require.Equal(t, int64(0), env.orderCount(t), "no local records without a gateway order")
}

func TestVerifyPayment(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedVerifiedUser(t)
	product := env.seedProduct(t, "P1")
	env.seedCartItem(t, user.ID, product.ID)

	_, _, err := env.Svc.CreateGatewayOrder(context.Background(), user.ID, CheckoutRequest{
		Items:       []CheckoutItem{{ProductID: product.ID, Quantity: 1}},
		SubTotalAmt: 500,
		TotalAmt:    500,
	})
	require.NoError(t, err)

	sig := payment.ComputeSignature(testSecret, "order_abc", "pay_123")
	orders, err := env.Svc.VerifyPayment(context.Background(), "order_abc", "pay_123", sig)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, models.PaymentStatusPaid, orders[0].PaymentStatus)
	require.Equal(t, "pay_123", orders[0].PaymentID)

	require.Equal(t, int64(0), env.cartCount(t, user.ID), "deferred cart clear completes on verification")
}

func TestVerifyPaymentInvalidSignature(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedVerifiedUser(t)
	product := env.seedProduct(t, "P1")

	_, _, err := env.Svc.CreateGatewayOrder(context.Background(), user.ID, CheckoutRequest{
		Items:       []CheckoutItem{{ProductID: product.ID, Quantity: 1}},
		SubTotalAmt: 500,
		TotalAmt:    500,
	})
	require.NoError(t, err)

	_, err = env.Svc.VerifyPayment(context.Background(), "order_abc", "pay_123", "not-a-signature")
	require.ErrorIs(t, err, models.ErrInvalidSignature)

	var stored models.Order
	require.NoError(t, env.DB.Where("order_id = ?", "order_abc").First(&stored).Error)
	require.Equal(t, models.PaymentStatusGatewayCreated, stored.PaymentStatus, "no mutation on signature mismatch")
	require.Equal(t, "", stored.PaymentID)
}

func TestVerifyPaymentUnknownOrder(t *testing.T) {
	env := newTestEnv(t)

	sig := payment.ComputeSignature(testSecret, "order_missing", "pay_123")
	_, err := env.Svc.VerifyPayment(context.Background(), "order_missing", "pay_123", sig)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestVerifyPaymentMissingFields(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Svc.VerifyPayment(context.Background(), "", "", "")
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestHandleWebhook(t *testing.T) {
	env := newTestEnv(t)
	body := []byte(`{"event":"payment.captured"}`)

	good := payment.ComputeWebhookSignature("hook-"+testSecret, body)
	require.NoError(t, env.Svc.HandleWebhook(body, good))
	require.ErrorIs(t, env.Svc.HandleWebhook(body, "bogus"), models.ErrInvalidSignature)
	require.ErrorIs(t, env.Svc.HandleWebhook([]byte(`{}`), good), models.ErrInvalidSignature)
}
