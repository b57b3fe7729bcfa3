package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"marketplace-migrator/internal/domain/model"
	"marketplace-migrator/internal/domain/ports/adapter"
	"marketplace-migrator/internal/infra/metrics"
)

const maxResponseBytes = 1 << 20 // a trigger response has no business being larger

// HTTPDeliverer posts payloads to an external automation trigger. It does
// not classify status codes; the webhook runner owns that policy and only
// needs the code and whatever refreshed cookies the trigger returned.
type HTTPDeliverer struct {
	url    string
	client *http.Client
}

var _ adapter.WebhookDeliverer = (*HTTPDeliverer)(nil)

func NewHTTPDeliverer(url string, timeout time.Duration) *HTTPDeliverer {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &HTTPDeliverer{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// triggerResponse is the optional body a trigger may return on success.
type triggerResponse struct {
	Cookies []model.Cookie `json:"cookies"`
}

func (d *HTTPDeliverer) Deliver(ctx context.Context, payload adapter.WebhookPayload) (adapter.WebhookResult, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return adapter.WebhookResult{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", d.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return adapter.WebhookResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		metrics.IncWebhookDelivery("error")
		return adapter.WebhookResult{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	metrics.IncWebhookDelivery(codeClass(resp.StatusCode))

	result := adapter.WebhookResult{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		// The status code already arrived; a broken body only costs us
		// the optional cookie refresh.
		return result, nil
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 && len(body) > 0 {
		var tr triggerResponse
		if jsonErr := json.Unmarshal(body, &tr); jsonErr == nil {
			result.Cookies = tr.Cookies
		}
	}
	return result, nil
}

func codeClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "other"
	}
}
