package repo

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/quickcart/quickcart-api/internal/config"
	"github.com/quickcart/quickcart-api/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, groupID string, userID uint) models.Order {
	t.Helper()
	order := models.Order{
		OrderID:       groupID,
		UserID:        userID,
		ProductID:     1,
		PaymentStatus: models.PaymentStatusGatewayCreated,
		TotalAmt:      500,
		StatusUpdates: models.StatusUpdates{{Title: "Order Confirmed", Date: "Mon, 1 Jan 24", Details: []string{"placed"}}},
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}

func TestCreateBatchClearsCartAtomically(t *testing.T) {
	db := newTestDB(t)
	r := &OrderRepo{DB: db}
	require.NoError(t, db.Create(&models.CartItem{UserID: 7, ProductID: 1, Quantity: 2}).Error)

	batch := []models.Order{
		{OrderID: "ORD-x", UserID: 7, ProductID: 1, PaymentStatus: models.PaymentStatusCOD,
			StatusUpdates: models.StatusUpdates{{Title: "Order Confirmed"}}},
	}
	created, err := r.CreateBatch(context.Background(), batch, 7, true)
	require.NoError(t, err)
	require.NotZero(t, created[0].ID)

	var n int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("user_id = ?", 7).Count(&n).Error)
	require.Equal(t, int64(0), n)
}

func TestFindByAnyID(t *testing.T) {
	db := newTestDB(t)
	r := &OrderRepo{DB: db}
	order := seedOrder(t, db, "order_abc", 1)

	byRecord, err := r.FindByAnyID(context.Background(), fmt.Sprint(order.ID))
	require.NoError(t, err)
	require.Equal(t, order.ID, byRecord.ID)

	byGroup, err := r.FindByAnyID(context.Background(), "order_abc")
	require.NoError(t, err)
	require.Equal(t, order.ID, byGroup.ID)

	_, err = r.FindByAnyID(context.Background(), "order_nope")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestMarkGroupPaid(t *testing.T) {
	db := newTestDB(t)
	r := &OrderRepo{DB: db}
	seedOrder(t, db, "order_abc", 1)
	seedOrder(t, db, "order_abc", 1)
	seedOrder(t, db, "order_other", 2)

	rows, err := r.MarkGroupPaid(context.Background(), "order_abc", "pay_123")
	require.NoError(t, err)
	require.Equal(t, int64(2), rows)

	group, err := r.FindGroup(context.Background(), "order_abc")
	require.NoError(t, err)
	for _, o := range group {
		require.Equal(t, models.PaymentStatusPaid, o.PaymentStatus)
		require.Equal(t, "pay_123", o.PaymentID)
	}

	other, err := r.FindByAnyID(context.Background(), "order_other")
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusGatewayCreated, other.PaymentStatus)
}

func TestPushStatusUpdateAppendsInOrder(t *testing.T) {
	db := newTestDB(t)
	r := &OrderRepo{DB: db}
	order := seedOrder(t, db, "order_abc", 1)

	for i := 0; i < 3; i++ {
		_, err := r.PushStatusUpdate(context.Background(), fmt.Sprint(order.ID),
			models.StatusUpdate{Title: fmt.Sprintf("u%d", i), Date: "Mon, 1 Jan 24", Details: []string{"d"}})
		require.NoError(t, err)
	}

	stored, err := r.FindByAnyID(context.Background(), fmt.Sprint(order.ID))
	require.NoError(t, err)
	require.Len(t, stored.StatusUpdates, 4)
	require.Equal(t, "Order Confirmed", stored.StatusUpdates[0].Title)
	require.Equal(t, "u2", stored.StatusUpdates[3].Title)

	_, err = r.PushStatusUpdate(context.Background(), "order_nope", models.StatusUpdate{Title: "x"})
	require.ErrorIs(t, err, models.ErrNotFound)
}
