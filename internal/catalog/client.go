package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/graficaops/envelopamento-api/internal/models"
)

var (
	// ErrUnauthorized is returned when the catalog rejects our credentials
	ErrUnauthorized = errors.New("catálogo: acesso não autorizado")
	// ErrNotFound is returned when the requested record does not exist
	ErrNotFound = errors.New("catálogo: registro não encontrado")
)

// Client reads parts and products from the remote catalog service
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a catalog client. token is sent as a bearer token when set.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// ListParts returns every part definition
func (c *Client) ListParts(ctx context.Context) ([]models.Part, error) {
	var parts []models.Part
	if err := c.get(ctx, "/parts", &parts); err != nil {
		return nil, err
	}
	return parts, nil
}

// ListProducts returns every product
func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.get(ctx, "/products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct returns the current state of a product, including live stock
func (c *Client) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := c.get(ctx, fmt.Sprintf("/products/%d", id), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w (status %d)", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("catalog request %s returned status %d: %s", path, resp.StatusCode, string(body))
	}

	if err := decodeEnvelope(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode catalog response %s: %w", path, err)
	}
	return nil
}

// decodeEnvelope accepts both bare payloads and {"data": ...} envelopes.
func decodeEnvelope(r io.Reader, out any) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if data, ok := envelope["data"]; ok {
			return json.Unmarshal(data, out)
		}
	}
	return json.Unmarshal(raw, out)
}
