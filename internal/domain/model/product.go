package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"marketplace-migrator/internal/domain"
)

// Product is one listing read from the source marketplace. It is immutable
// once handed to the orchestrator for a given run.
type Product struct {
	SourceID    string          // identifier on the source marketplace
	Title       string
	Description string          // may contain HTML from the source editor
	Price       decimal.Decimal // non-negative
	Currency    string          // ISO-ish code, e.g. "USD"
	FileRef     string          // local file path or remote URL of the product asset
	ImageRef    string          // optional cover image
	Permalink   string
	Type        string // e.g. "digital", "course"
	UserEmail   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Product) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return domain.ErrInvalidArgument
	}
	if p.Price.IsNegative() {
		return domain.ErrInvalidArgument
	}
	return nil
}

// HasLocalAsset reports whether FileRef points at a file on disk rather than
// a remote URL. Remote assets are skipped at upload time, see the asset step.
func (p *Product) HasLocalAsset() bool {
	if p.FileRef == "" {
		return false
	}
	return !strings.HasPrefix(p.FileRef, "http://") && !strings.HasPrefix(p.FileRef, "https://")
}

// PriceString renders the price the way the destination form input expects it
// (plain decimal, two fraction digits, no currency symbol).
func (p *Product) PriceString() string {
	return p.Price.StringFixed(2)
}
