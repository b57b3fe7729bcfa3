package adapter

import (
	"context"
	"time"

	"marketplace-migrator/internal/domain/model"
)

// PageController is the hex port over the browser engine. Implementations
// (chromedp in infra) own the page handle; callers describe intent only.
// Every method honors ctx cancellation and returns a plain error; the step
// runner classifies failures.
type PageController interface {
	// Navigate loads url and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error
	// Fill types value into the element addressed by selector.
	Fill(ctx context.Context, selector, value string) error
	// Click clicks the element addressed by selector.
	Click(ctx context.Context, selector string) error
	// WaitVisible blocks until selector is visible or timeout elapses.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// IsPresent probes for selector without waiting beyond timeout.
	IsPresent(ctx context.Context, selector string, timeout time.Duration) (bool, error)
	// Cookies returns the full cookie set of the current browser context.
	Cookies(ctx context.Context) ([]model.Cookie, error)
	// SetCookies installs cookies before navigation.
	SetCookies(ctx context.Context, cookies []model.Cookie) error
	// SetInputFile attaches a local file to a file input element.
	SetInputFile(ctx context.Context, selector, path string) error
	// CurrentURL returns the page's current location.
	CurrentURL(ctx context.Context) (string, error)
}
