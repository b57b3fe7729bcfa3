package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketplace-migrator/internal/domain/ports/adapter"
)

func TestHTTPDeliverer_Deliver(t *testing.T) {
	payload := adapter.WebhookPayload{
		Title:   "Icon Pack",
		Price:   "12.50",
		FileURL: "/srv/assets/icon-pack.zip",
	}

	t.Run("posts JSON and surfaces the status code", func(t *testing.T) {
		// Arrange
		var got adapter.WebhookPayload
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("method = %s, want POST", r.Method)
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("content type = %s", ct)
			}
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("decode body: %v", err)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()
		d := NewHTTPDeliverer(srv.URL, time.Second)

		// Act
		res, err := d.Deliver(context.Background(), payload)

		// Assert
		if err != nil {
			t.Fatalf("Deliver: %v", err)
		}
		if res.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", res.StatusCode)
		}
		if got.Title != payload.Title || got.Price != payload.Price {
			t.Errorf("server saw %+v", got)
		}
	})

	t.Run("parses refreshed cookies from a 2xx body", func(t *testing.T) {
		// Arrange
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"cookies":[{"name":"_session","value":"rotated","domain":"shop.test","path":"/"}]}`))
		}))
		defer srv.Close()
		d := NewHTTPDeliverer(srv.URL, time.Second)

		// Act
		res, err := d.Deliver(context.Background(), payload)

		// Assert
		if err != nil {
			t.Fatalf("Deliver: %v", err)
		}
		if len(res.Cookies) != 1 || res.Cookies[0].Value != "rotated" {
			t.Errorf("cookies = %+v", res.Cookies)
		}
	})

	t.Run("non-2xx returns the code without error", func(t *testing.T) {
		// Arrange
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusUnprocessableEntity)
		}))
		defer srv.Close()
		d := NewHTTPDeliverer(srv.URL, time.Second)

		// Act
		res, err := d.Deliver(context.Background(), payload)

		// Assert
		if err != nil {
			t.Fatalf("Deliver: %v", err)
		}
		if res.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", res.StatusCode)
		}
		if res.Cookies != nil {
			t.Errorf("cookies = %+v, want none", res.Cookies)
		}
	})

	t.Run("unreachable trigger returns an error", func(t *testing.T) {
		// Arrange
		d := NewHTTPDeliverer("http://127.0.0.1:1", 200*time.Millisecond)

		// Act
		_, err := d.Deliver(context.Background(), payload)

		// Assert
		if err == nil {
			t.Fatal("expected a transport error")
		}
	})
}
