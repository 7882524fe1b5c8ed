package repo

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quickcart/quickcart-api/internal/models"
)

type OrderRepo struct {
	DB *gorm.DB
}

// lockForUpdate row-locks the upcoming select on dialects that support it.
// sqlite has no FOR UPDATE; it serializes writers on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// CreateBatch persists all records of one checkout in a single transaction.
// When clearCart is set the caller's cart rows are removed in the same
// transaction, so a failed insert never empties the cart.
func (r *OrderRepo) CreateBatch(ctx context.Context, orders []models.Order, userID uint, clearCart bool) ([]models.Order, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range orders {
			if err := tx.Create(&orders[i]).Error; err != nil {
				return err
			}
		}
		if clearCart {
			if err := tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// FindByAnyID resolves an order by its record id or by its order-group id.
func (r *OrderRepo) FindByAnyID(ctx context.Context, id string) (*models.Order, error) {
	q := r.DB.WithContext(ctx)
	if n, convErr := strconv.ParseUint(id, 10, 64); convErr == nil {
		q = q.Where("id = ? OR order_id = ?", n, id)
	} else {
		q = q.Where("order_id = ?", id)
	}

	var order models.Order
	if err := q.First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindGroup returns every record sharing one order-group id.
func (r *OrderRepo) FindGroup(ctx context.Context, groupID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).Where("order_id = ?", groupID).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// MarkGroupPaid transitions every record of the group to PAID and stores the
// gateway payment id. Returns the number of rows touched.
func (r *OrderRepo) MarkGroupPaid(ctx context.Context, groupID, paymentID string) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("order_id = ?", groupID).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentStatusPaid,
			"payment_id":     paymentID,
			"updated_at":     time.Now(),
		})
	return res.RowsAffected, res.Error
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepo) ListAll(ctx context.Context, offset, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepo) ListBetween(ctx context.Context, start, end time.Time, offset, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", start, end).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// PushStatusUpdate appends one event to an order's history. The list lives in
// a JSON column, so the append is a read-modify-write inside a transaction.
func (r *OrderRepo) PushStatusUpdate(ctx context.Context, id string, update models.StatusUpdate) (*models.Order, error) {
	var out *models.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := lockForUpdate(tx)
		if n, convErr := strconv.ParseUint(id, 10, 64); convErr == nil {
			q = q.Where("id = ? OR order_id = ?", n, id)
		} else {
			q = q.Where("order_id = ?", id)
		}
		var order models.Order
		if err := q.First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrNotFound
			}
			return err
		}
		order.StatusUpdates = order.StatusUpdates.Append(update)
		order.UpdatedAt = time.Now()
		if err := tx.Save(&order).Error; err != nil {
			return err
		}
		out = &order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BulkPushStatusUpdate appends the same event to every listed order. Missing
// ids are skipped, not fatal; the counts tell the caller what happened.
func (r *OrderRepo) BulkPushStatusUpdate(ctx context.Context, ids []string, update models.StatusUpdate) (matched, modified int64, err error) {
	for _, id := range ids {
		if _, err := r.PushStatusUpdate(ctx, id, update); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				continue
			}
			return matched, modified, err
		}
		matched++
		modified++
	}
	return matched, modified, nil
}

// ListAddressBackfillCandidates returns orders that reference a stored
// address. The service decides which of them still miss their snapshot.
func (r *OrderRepo) ListAddressBackfillCandidates(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).
		Where("delivery_address_id > 0").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepo) UpdateAddressSnapshot(ctx context.Context, id uint, snap models.AddressSnapshot) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := lockForUpdate(tx).First(&order, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrNotFound
			}
			return err
		}
		order.DeliveryAddress = snap
		return tx.Save(&order).Error
	})
}

func (r *OrderRepo) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Order{}).Count(&n).Error
	return n, err
}

func (r *OrderRepo) CountBetween(ctx context.Context, start, end time.Time) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&n).Error
	return n, err
}

func (r *OrderRepo) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("payment_status IN ?", []string{models.PaymentStatusCOD, models.PaymentStatusGatewayCreated}).
		Count(&n).Error
	return n, err
}

func (r *OrderRepo) SumRevenue(ctx context.Context) (float64, error) {
	var total float64
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("COALESCE(SUM(total_amt), 0)").
		Scan(&total).Error
	return total, err
}

func (r *OrderRepo) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	var rows []models.StatusCount
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("payment_status AS status, COUNT(*) AS count").
		Group("payment_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// RevenueRow is the raw material for the monthly trend; bucketing by year and
// month happens in the service so the query stays portable across dialects.
type RevenueRow struct {
	CreatedAt time.Time
	TotalAmt  float64
}

func (r *OrderRepo) RevenueRowsSince(ctx context.Context, cutoff time.Time) ([]RevenueRow, error) {
	var rows []RevenueRow
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("created_at, total_amt").
		Where("created_at >= ?", cutoff).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
