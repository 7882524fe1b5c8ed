package payment

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

// RazorpayGateway implements Gateway against the Razorpay orders API.
// Signature checks are done locally with the account secrets, so they work
// without network access.
type RazorpayGateway struct {
	client        *razorpay.Client
	keySecret     string
	webhookSecret string
}

func NewRazorpayGateway(keyID, keySecret, webhookSecret string) *RazorpayGateway {
	return &RazorpayGateway{
		client:        razorpay.NewClient(keyID, keySecret),
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
	}
}

func (g *RazorpayGateway) CreateRemoteOrder(ctx context.Context, spec OrderSpec) (*RemoteOrder, error) {
	data := map[string]interface{}{
		"amount":   spec.Amount,
		"currency": spec.Currency,
		"receipt":  spec.Receipt,
	}
	if len(spec.Notes) > 0 {
		notes := make(map[string]interface{}, len(spec.Notes))
		for k, v := range spec.Notes {
			notes[k] = v
		}
		data["notes"] = notes
	}

	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay order create: %w", err)
	}

	id, ok := body["id"].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("razorpay order create: response missing id")
	}

	remote := &RemoteOrder{ID: id, Amount: spec.Amount, Currency: spec.Currency, Receipt: spec.Receipt}
	if st, ok := body["status"].(string); ok {
		remote.Status = st
	}
	return remote, nil
}

func (g *RazorpayGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifySignature(g.keySecret, orderID, paymentID, signature)
}

func (g *RazorpayGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	return VerifyWebhookSignature(g.webhookSecret, body, signature)
}
