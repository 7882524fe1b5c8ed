package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/quickcart/quickcart-api/internal/logging"
	"github.com/quickcart/quickcart-api/internal/models"
	"github.com/quickcart/quickcart-api/internal/repo"
)

// RequireAdmin loads the caller and checks the ADMIN role. The role comes
// from the user record, not from token claims.
func (s *OrderService) RequireAdmin(ctx context.Context, callerID uint) error {
	user, err := s.users.FindByID(ctx, callerID)
	if err != nil {
		return models.ErrAccessDenied
	}
	if !user.IsAdmin() {
		return models.ErrAccessDenied
	}
	return nil
}

// GetOrder resolves an order by record id or order-group id and enforces
// owner-or-admin access.
func (s *OrderService) GetOrder(ctx context.Context, orderID string, callerID uint) (*models.Order, error) {
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id required", models.ErrValidation)
	}
	order, err := s.orders.FindByAnyID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != callerID {
		if err := s.RequireAdmin(ctx, callerID); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// GenerateInvoice projects a read-only invoice view of one order record.
func (s *OrderService) GenerateInvoice(ctx context.Context, orderID string, callerID uint) (*models.Invoice, error) {
	order, err := s.GetOrder(ctx, orderID, callerID)
	if err != nil {
		return nil, err
	}

	var customer models.InvoiceCustomer
	if owner, err := s.users.FindByID(ctx, order.UserID); err == nil {
		customer = models.InvoiceCustomer{Name: owner.Name, Email: owner.Email, Mobile: owner.Mobile}
	}

	return &models.Invoice{
		OrderID:       order.OrderID,
		OrderDate:     order.CreatedAt,
		Customer:      customer,
		Product:       order.ProductDetails,
		Amount:        models.InvoiceAmount{Subtotal: order.SubTotalAmt, Total: order.TotalAmt},
		PaymentStatus: order.PaymentStatus,
		Address:       order.DeliveryAddress,
		StatusUpdates: order.StatusUpdates,
	}, nil
}

func (s *OrderService) ListUserOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

func (s *OrderService) ListAllOrders(ctx context.Context, callerID uint, offset, limit int) ([]models.Order, error) {
	if err := s.RequireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	return s.orders.ListAll(ctx, offset, limit)
}

func (s *OrderService) ListTodayOrders(ctx context.Context, callerID uint, offset, limit int) ([]models.Order, error) {
	if err := s.RequireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	start, end := dayWindow(s.now())
	return s.orders.ListBetween(ctx, start, end, offset, limit)
}

// AppendStatusUpdate appends one event to the order history. Calling it twice
// appends twice; there is no dedup, so callers must not retry blindly.
func (s *OrderService) AppendStatusUpdate(ctx context.Context, callerID uint, orderID, title string, details []string) (*models.Order, error) {
	if err := s.RequireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	if orderID == "" || title == "" {
		return nil, fmt.Errorf("%w: order id and status are required", models.ErrValidation)
	}
	return s.orders.PushStatusUpdate(ctx, orderID, s.statusUpdate(title, details))
}

// BulkAppendStatusUpdate appends the same event to many orders, reporting
// matched/modified counts instead of failing the batch on a missing id.
func (s *OrderService) BulkAppendStatusUpdate(ctx context.Context, callerID uint, orderIDs []string, title string, details []string) (matched, modified int64, err error) {
	if err := s.RequireAdmin(ctx, callerID); err != nil {
		return 0, 0, err
	}
	if len(orderIDs) == 0 || title == "" {
		return 0, 0, fmt.Errorf("%w: order ids array and status are required", models.ErrValidation)
	}
	return s.orders.BulkPushStatusUpdate(ctx, orderIDs, s.statusUpdate(title, details))
}

func (s *OrderService) statusUpdate(title string, details []string) models.StatusUpdate {
	if len(details) == 0 {
		details = []string{title}
	}
	return models.StatusUpdate{
		Title:   title,
		Date:    s.now().Format(dateLayout),
		Details: details,
	}
}

// BackfillAddressSnapshots re-resolves snapshots for orders that reference an
// address but never got its copy. Best effort: unresolvable addresses are
// skipped and the count of updated records is returned.
func (s *OrderService) BackfillAddressSnapshots(ctx context.Context, callerID uint) (int, error) {
	if err := s.RequireAdmin(ctx, callerID); err != nil {
		return 0, err
	}

	candidates, err := s.orders.ListAddressBackfillCandidates(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, order := range candidates {
		if !order.DeliveryAddress.IsZero() {
			continue
		}
		addr, err := s.addresses.FindByID(ctx, order.DeliveryAddressID)
		if err != nil {
			logging.FromContext(ctx).Warn("backfill: address not resolved",
				"order", order.ID, "address_id", order.DeliveryAddressID)
			continue
		}
		if err := s.orders.UpdateAddressSnapshot(ctx, order.ID, models.SnapshotOf(addr)); err != nil {
			logging.FromContext(ctx).Warn("backfill: snapshot write failed", "order", order.ID)
			continue
		}
		updated++
	}
	return updated, nil
}

// Stats builds the admin dashboard numbers, including a 6-month monthly
// revenue trend sorted chronologically ascending.
func (s *OrderService) Stats(ctx context.Context, callerID uint) (*models.OrderStats, error) {
	if err := s.RequireAdmin(ctx, callerID); err != nil {
		return nil, err
	}

	stats := &models.OrderStats{}
	var err error

	if stats.TotalOrders, err = s.orders.CountAll(ctx); err != nil {
		return nil, err
	}
	start, end := dayWindow(s.now())
	if stats.TodayOrders, err = s.orders.CountBetween(ctx, start, end); err != nil {
		return nil, err
	}
	if stats.TotalRevenue, err = s.orders.SumRevenue(ctx); err != nil {
		return nil, err
	}
	if stats.PendingOrders, err = s.orders.CountPending(ctx); err != nil {
		return nil, err
	}
	if stats.OrdersByStatus, err = s.orders.CountByStatus(ctx); err != nil {
		return nil, err
	}

	cutoff := s.now().AddDate(0, -6, 0)
	rows, err := s.orders.RevenueRowsSince(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	stats.MonthlyRevenue = bucketByMonth(rows)

	return stats, nil
}

func dayWindow(now time.Time) (start, end time.Time) {
	start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1)
}

func bucketByMonth(rows []repo.RevenueRow) []models.MonthlyRevenue {
	type key struct {
		year  int
		month int
	}
	buckets := map[key]*models.MonthlyRevenue{}
	for _, row := range rows {
		k := key{row.CreatedAt.Year(), int(row.CreatedAt.Month())}
		b, ok := buckets[k]
		if !ok {
			b = &models.MonthlyRevenue{Year: k.year, Month: k.month}
			buckets[k] = b
		}
		b.Revenue += row.TotalAmt
		b.Orders++
	}

	out := make([]models.MonthlyRevenue, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}
