package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"

	"marketplace-migrator/internal/config"
	"marketplace-migrator/internal/domain/model"
	"marketplace-migrator/internal/domain/ports/adapter"
)

const pageSize = 50

// Client reads the seller's catalog from the source marketplace REST API.
// Auth is a bearer token; the oauth2 transport injects it on every request.
type Client struct {
	baseURL string
	client  *http.Client
}

var _ adapter.SourceCatalog = (*Client)(nil)

func NewClient(cfg config.SourceConfig) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken})
	c := oauth2.NewClient(context.Background(), ts)
	c.Timeout = 30 * time.Second
	return &Client{baseURL: cfg.BaseURL, client: c}
}

// apiProduct mirrors the source API's product representation. Price comes
// back as a string; timestamps are RFC 3339.
type apiProduct struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Currency    string `json:"currency"`
	FileURL     string `json:"file_url"`
	PreviewURL  string `json:"preview_url"`
	Permalink   string `json:"permalink"`
	ProductType string `json:"product_type"`
	UserEmail   string `json:"user_email"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type listResponse struct {
	Products []apiProduct `json:"products"`
	HasMore  bool         `json:"has_more"`
}

func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	var out []model.Product
	for page := 1; ; page++ {
		resp, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		for _, ap := range resp.Products {
			p, err := normalize(ap)
			if err != nil {
				return nil, fmt.Errorf("product %s: %w", ap.ID, err)
			}
			out = append(out, p)
		}
		if !resp.HasMore {
			return out, nil
		}
	}
}

func (c *Client) fetchPage(ctx context.Context, page int) (*listResponse, error) {
	u := c.baseURL + "/v2/products?" + url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(pageSize)},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source api: status %d, body: %s", resp.StatusCode, string(body))
	}

	var lr listResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &lr, nil
}

func normalize(ap apiProduct) (model.Product, error) {
	price := decimal.Zero
	if ap.Price != "" {
		var err error
		price, err = decimal.NewFromString(ap.Price)
		if err != nil {
			return model.Product{}, fmt.Errorf("parse price %q: %w", ap.Price, err)
		}
	}
	p := model.Product{
		SourceID:    ap.ID,
		Title:       ap.Name,
		Description: ap.Description,
		Price:       price,
		Currency:    ap.Currency,
		FileRef:     ap.FileURL,
		ImageRef:    ap.PreviewURL,
		Permalink:   ap.Permalink,
		Type:        ap.ProductType,
		UserEmail:   ap.UserEmail,
	}
	// The source omits timestamps on legacy listings; zero times are fine.
	if ap.CreatedAt != "" {
		t, err := time.Parse(time.RFC3339, ap.CreatedAt)
		if err != nil {
			return model.Product{}, fmt.Errorf("parse created_at: %w", err)
		}
		p.CreatedAt = t
	}
	if ap.UpdatedAt != "" {
		t, err := time.Parse(time.RFC3339, ap.UpdatedAt)
		if err != nil {
			return model.Product{}, fmt.Errorf("parse updated_at: %w", err)
		}
		p.UpdatedAt = t
	}
	return p, nil
}
