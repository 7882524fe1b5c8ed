package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/quickcart/quickcart-api/internal/config"
	"github.com/quickcart/quickcart-api/internal/models"
)

const OrderIndex = "orders"

func NewClient(cfg *config.Config) (*elasticsearch.Client, error) {
	esCfg := elasticsearch.Config{
		Addresses: []string{cfg.ES_URL},
		Username:  cfg.ES_USER,
		Password:  cfg.ES_PASSWORD,
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch error: %s: %s", res.Status(), body)
	}

	return client, nil
}

// IndexOrder writes one order record into the orders index, keyed by its
// record id. Callers treat failures as non-fatal.
func IndexOrder(ctx context.Context, client *elasticsearch.Client, order models.Order) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(order); err != nil {
		return err
	}

	res, err := client.Index(
		OrderIndex,
		&buf,
		client.Index.WithDocumentID(fmt.Sprint(order.ID)),
		client.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index order %d: %s", order.ID, res.Status())
	}
	return nil
}
