package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"marketplace-migrator/internal/domain"
	"marketplace-migrator/internal/domain/model"
)

type productRequest struct {
	SourceID    string `json:"source_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Currency    string `json:"currency"`
	FileRef     string `json:"file_ref"`
	ImageRef    string `json:"image_ref"`
	Permalink   string `json:"permalink"`
	Type        string `json:"type"`
	UserEmail   string `json:"user_email"`
}

type migrationCreateRequest struct {
	Mode       string           `json:"mode"` // "browser" (default) or "webhook"
	AccountKey string           `json:"account_key"`
	FromSource bool             `json:"from_source"` // pull the catalog instead of inlining products
	Products   []productRequest `json:"products"`
}

func (s *Server) tokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			APIKey string `json:"api_key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if s.apiKey == "" || req.APIKey != s.apiKey {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		token, err := s.auth.Mint(w)
		if err != nil {
			http.Error(w, "Failed to mint token", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"token": token})
	}
}

// createMigrationHandler persists a queued batch plus its units and returns
// immediately; a background worker claims and runs it.
func (s *Server) createMigrationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req migrationCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.AccountKey == "" {
			http.Error(w, "account_key is required", http.StatusBadRequest)
			return
		}
		mode := model.BatchMode(req.Mode)
		if mode == "" {
			mode = model.BatchModeBrowser
		}
		if mode != model.BatchModeBrowser && mode != model.BatchModeWebhook {
			http.Error(w, "mode must be 'browser' or 'webhook'", http.StatusBadRequest)
			return
		}

		products, err := s.resolveProducts(r, &req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if len(products) == 0 {
			http.Error(w, domain.ErrEmptyBatch.Error(), http.StatusBadRequest)
			return
		}

		batch := &model.MigrationBatch{
			ID:         uuid.NewString(),
			AccountKey: req.AccountKey,
			Mode:       mode,
			Status:     model.BatchStatusQueued,
			Total:      len(products),
		}
		if err := s.batches.Save(ctx, nil, batch); err != nil {
			s.log.Error().Err(err).Msg("failed to save batch")
			http.Error(w, "Failed to enqueue migration", http.StatusInternalServerError)
			return
		}
		base := time.Now()
		for i, p := range products {
			unit := &model.MigrationUnit{
				ID:      uuid.NewString(),
				BatchID: batch.ID,
				Product: p,
				Status:  model.UnitStatusQueued,
				// Distinct created_at keeps list order equal to input order.
				CreatedAt: base.Add(time.Duration(i) * time.Microsecond),
			}
			if err := s.units.Save(ctx, nil, unit); err != nil {
				s.log.Error().Err(err).Str("batch_id", batch.ID).Msg("failed to save unit")
				http.Error(w, "Failed to enqueue migration", http.StatusInternalServerError)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(struct {
			BatchID string `json:"batch_id"`
			Status  string `json:"status"`
			Total   int    `json:"total"`
		}{batch.ID, string(batch.Status), batch.Total})
	}
}

func (s *Server) resolveProducts(r *http.Request, req *migrationCreateRequest) ([]model.Product, error) {
	if req.FromSource {
		if s.catalog == nil {
			return nil, errors.New("no source catalog is configured")
		}
		return s.catalog.ListProducts(r.Context())
	}
	products := make([]model.Product, 0, len(req.Products))
	for _, pr := range req.Products {
		price := decimal.Zero
		if pr.Price != "" {
			var err error
			price, err = decimal.NewFromString(pr.Price)
			if err != nil {
				return nil, errors.New("invalid price for product " + pr.SourceID)
			}
		}
		products = append(products, model.Product{
			SourceID:    pr.SourceID,
			Title:       pr.Title,
			Description: pr.Description,
			Price:       price,
			Currency:    pr.Currency,
			FileRef:     pr.FileRef,
			ImageRef:    pr.ImageRef,
			Permalink:   pr.Permalink,
			Type:        pr.Type,
			UserEmail:   pr.UserEmail,
		})
	}
	return products, nil
}

func (s *Server) getMigrationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := chi.URLParam(r, "id")

		batch, err := s.batches.FindByID(ctx, nil, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "Failed to get migration", http.StatusInternalServerError)
			return
		}
		units, err := s.units.ListByBatch(ctx, nil, id)
		if err != nil {
			http.Error(w, "Failed to list units", http.StatusInternalServerError)
			return
		}

		results := make([]model.UnitResult, 0, len(units))
		for _, u := range units {
			results = append(results, model.UnitResult{
				UnitID:   u.ID,
				SourceID: u.Product.SourceID,
				Title:    u.Product.Title,
				Status:   u.Status,
				Attempts: u.Attempts,
				Reason:   u.LastError,
			})
		}

		response := struct {
			BatchID    string             `json:"batch_id"`
			AccountKey string             `json:"account_key"`
			Mode       model.BatchMode    `json:"mode"`
			Status     model.BatchStatus  `json:"status"`
			Total      int                `json:"total"`
			Succeeded  int                `json:"succeeded"`
			Failed     int                `json:"failed"`
			LastError  string             `json:"last_error,omitempty"`
			Units      []model.UnitResult `json:"units"`
		}{
			BatchID:    batch.ID,
			AccountKey: batch.AccountKey,
			Mode:       batch.Mode,
			Status:     batch.Status,
			Total:      batch.Total,
			Succeeded:  batch.Succeeded,
			Failed:     batch.Failed,
			LastError:  batch.LastError,
			Units:      results,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}

func (s *Server) listEventsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := chi.URLParam(r, "id")

		if _, err := s.batches.FindByID(ctx, nil, id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "Failed to get migration", http.StatusInternalServerError)
			return
		}
		events, err := s.progress.ListByBatch(ctx, nil, id)
		if err != nil {
			http.Error(w, "Failed to list events", http.StatusInternalServerError)
			return
		}

		response := struct {
			Data []model.ProgressEvent `json:"data"`
		}{Data: events}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}
