package models

import (
	"time"
)

// Payment statuses an order moves through. COD orders stay on
// PaymentStatusCOD; gateway orders go gateway-created -> PAID once the
// redirect signature checks out.
const (
	PaymentStatusCOD            = "CASH ON DELIVERY"
	PaymentStatusGatewayCreated = "ORDER CREATED AT RAZORPAY"
	PaymentStatusPaid           = "PAID"
)

type Product struct {
	ID          uint    `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name        string  `gorm:"not null"                  json:"name"`
	Description string  `gorm:"not null"                  json:"description"`
	Image       string  `json:"image"`
	Price       float64 `gorm:"not null"                  json:"price"`
	Count       uint    `json:"count"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"not null"                 json:"name"`
	Email        string `gorm:"index"                    json:"email"`
	Mobile       string `gorm:"index"                    json:"mobile"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
	VerifyEmail  bool   `gorm:"default:false"            json:"verify_email"`
	VerifyMobile bool   `gorm:"default:false"            json:"verify_mobile"`
}

func (u *User) IsAdmin() bool { return u.Role == "ADMIN" }

// HasVerifiedContact reports whether at least one contact channel is
// confirmed. Orders may only be placed by callers for which this holds.
func (u *User) HasVerifiedContact() bool {
	return (u.Email != "" && u.VerifyEmail) || (u.Mobile != "" && u.VerifyMobile)
}

type Address struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint   `gorm:"index;not null"           json:"user_id"`
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	State       string `json:"state"`
	Pincode     string `json:"pincode"`
	Country     string `json:"country"`
	Mobile      string `json:"mobile"`
}

type CartItem struct {
	ID        uint `gorm:"primaryKey"                  json:"id"`
	UserID    uint `gorm:"index;not null"              json:"user_id"`
	ProductID uint `gorm:"not null"                    json:"product_id"`
	Quantity  uint `gorm:"default:1;check:quantity>0"  json:"quantity"`
}

// ProductSnapshot is the point-in-time copy of the ordered product. It is
// written once at checkout and never refreshed from the catalog.
type ProductSnapshot struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// AddressSnapshot is the point-in-time copy of the delivery address. Empty
// when the address could not be resolved at checkout.
type AddressSnapshot struct {
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	State       string `json:"state"`
	Pincode     string `json:"pincode"`
	Country     string `json:"country"`
	Mobile      string `json:"mobile"`
}

func SnapshotOf(a *Address) AddressSnapshot {
	if a == nil {
		return AddressSnapshot{}
	}
	return AddressSnapshot{
		AddressLine: a.AddressLine,
		City:        a.City,
		State:       a.State,
		Pincode:     a.Pincode,
		Country:     a.Country,
		Mobile:      a.Mobile,
	}
}

func (s AddressSnapshot) IsZero() bool { return s == AddressSnapshot{} }

// StatusUpdate is one human-visible entry of an order's history.
type StatusUpdate struct {
	Title   string   `json:"title"`
	Date    string   `json:"date"`
	Details []string `json:"details"`
}

// StatusUpdates is an append-only log: entries are added via Append and
// existing entries are never rewritten or dropped.
type StatusUpdates []StatusUpdate

func (s StatusUpdates) Append(u StatusUpdate) StatusUpdates {
	out := make(StatusUpdates, 0, len(s)+1)
	out = append(out, s...)
	return append(out, u)
}

type Order struct {
	ID                uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID           string          `gorm:"index;not null"           json:"orderId"`
	UserID            uint            `gorm:"index;not null"           json:"userId"`
	ProductID         uint            `gorm:"not null"                 json:"productId"`
	ProductDetails    ProductSnapshot `gorm:"serializer:json"          json:"product_details"`
	PaymentID         string          `json:"paymentId"`
	PaymentStatus     string          `gorm:"index;not null"           json:"payment_status"`
	DeliveryAddressID uint            `json:"delivery_address"`
	DeliveryAddress   AddressSnapshot `gorm:"serializer:json"          json:"delivery_address_details"`
	SubTotalAmt       float64         `json:"subTotalAmt"`
	TotalAmt          float64         `json:"totalAmt"`
	StatusUpdates     StatusUpdates   `gorm:"serializer:json"          json:"statusUpdates"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// Invoice is a read-only projection of a single order record. It is computed
// on demand and never stored.
type Invoice struct {
	OrderID       string          `json:"orderId"`
	OrderDate     time.Time       `json:"orderDate"`
	Customer      InvoiceCustomer `json:"customer"`
	Product       ProductSnapshot `json:"product"`
	Amount        InvoiceAmount   `json:"amount"`
	PaymentStatus string          `json:"paymentStatus"`
	Address       AddressSnapshot `json:"deliveryAddress"`
	StatusUpdates StatusUpdates   `json:"statusUpdates"`
}

type InvoiceCustomer struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Mobile string `json:"mobile"`
}

type InvoiceAmount struct {
	Subtotal float64 `json:"subtotal"`
	Total    float64 `json:"total"`
}

// OrderStats is the admin dashboard aggregation.
type OrderStats struct {
	TotalOrders    int64            `json:"totalOrders"`
	TodayOrders    int64            `json:"todayOrders"`
	TotalRevenue   float64          `json:"totalRevenue"`
	PendingOrders  int64            `json:"pendingOrders"`
	OrdersByStatus []StatusCount    `json:"ordersByStatus"`
	MonthlyRevenue []MonthlyRevenue `json:"monthlyRevenue"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type MonthlyRevenue struct {
	Year    int     `json:"year"`
	Month   int     `json:"month"`
	Revenue float64 `json:"revenue"`
	Orders  int64   `json:"orders"`
}
