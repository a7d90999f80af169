// Package productclient calls the product service from the user service.
package productclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rogerio-castellano/product-management/internal/apperr"
	"github.com/rogerio-castellano/product-management/internal/logger"
	"github.com/rogerio-castellano/product-management/internal/metrics"
	"github.com/rogerio-castellano/product-management/internal/models"
)

const (
	productsPath    = "/api/products"
	maxResponseSize = 10 << 20
	failureMessage  = "Failed to retrieve products from product service"
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// ListProducts fetches the product list. The body may be a bare array or a page object.
// Any transport failure or non-2xx status is reported as an upstream error.
func (c *Client) ListProducts(ctx context.Context) ([]models.ProductView, error) {
	log := logger.FromContext(ctx)
	url := c.BaseURL + productsPath
	log.Info("calling product service", zap.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, c.fail(log, err)
	}
	req.Header.Set("Accept", "application/json")
	if id := logger.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, c.fail(log, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, c.fail(log, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.fail(log, fmt.Errorf("product service returned %d", resp.StatusCode))
	}

	products, err := decodeProducts(body)
	if err != nil {
		return nil, c.fail(log, err)
	}

	metrics.RecordPeerCall("success")
	log.Info("retrieved products", zap.Int("count", len(products)))
	return products, nil
}

func (c *Client) fail(log *zap.Logger, err error) error {
	metrics.RecordPeerCall("failure")
	log.Error("error calling product service", zap.Error(err))
	return apperr.Upstream(failureMessage, err)
}

func decodeProducts(body []byte) ([]models.ProductView, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []models.ProductView{}, nil
	}

	if trimmed[0] == '[' {
		var products []models.ProductView
		if err := json.Unmarshal(trimmed, &products); err != nil {
			return nil, fmt.Errorf("decode product list: %w", err)
		}
		return products, nil
	}

	var page models.Page[models.ProductView]
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, fmt.Errorf("decode product page: %w", err)
	}
	if page.Content == nil {
		return []models.ProductView{}, nil
	}
	return page.Content, nil
}
