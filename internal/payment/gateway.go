package payment

import "context"

// OrderSpec describes a remote payment order to create. Amount is in minor
// currency units (paise for INR).
type OrderSpec struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// RemoteOrder is the gateway's descriptor of a created payment order. Its ID
// becomes the order-group id of the local records.
type RemoteOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Gateway is the payment-provider capability the order service depends on.
// Any provider (or a test double) satisfying it is substitutable.
type Gateway interface {
	CreateRemoteOrder(ctx context.Context, spec OrderSpec) (*RemoteOrder, error)
	VerifySignature(orderID, paymentID, signature string) bool
	VerifyWebhookSignature(body []byte, signature string) bool
}
