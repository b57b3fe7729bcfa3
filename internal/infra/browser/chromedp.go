package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"marketplace-migrator/internal/config"
	"marketplace-migrator/internal/domain/model"
	"marketplace-migrator/internal/domain/ports/adapter"
)

const engineStartTimeout = 30 * time.Second

// Engine owns one Chrome process (or an attachment to a remote one) and
// hands out tabs. Tabs are cheap; the process is not, so the engine lives
// for the lifetime of the app and every unit attempt gets its own Page.
type Engine struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	browserStop context.CancelFunc
	log         *zerolog.Logger
}

func NewEngine(cfg config.BrowserConfig, log *zerolog.Logger) (*Engine, error) {
	e := &Engine{log: log}

	if cfg.RemoteURL != "" {
		e.allocCtx, e.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", cfg.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-first-run", true),
			chromedp.Flag("disable-default-apps", true),
			chromedp.Flag("disable-extensions", true),
			chromedp.Flag("disable-dev-shm-usage", true), // Important for Docker
			chromedp.Flag("disable-background-networking", true),
			chromedp.Flag("disable-sync", true),
		)
		if cfg.NoSandbox {
			opts = append(opts, chromedp.Flag("no-sandbox", true))
		}
		e.allocCtx, e.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	}

	e.browserCtx, e.browserStop = chromedp.NewContext(e.allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			log.Debug().Msgf(format, args...)
		}),
	)

	// An empty Run spawns the browser; fail fast if Chrome is missing.
	startCtx, cancel := context.WithTimeout(e.browserCtx, engineStartTimeout)
	defer cancel()
	if err := chromedp.Run(startCtx); err != nil {
		e.Close()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	return e, nil
}

// NewPage opens a tab inside its own incognito browser context. Cookies are
// per browser context in Chrome, so without this isolation two parallel
// attempts for different accounts would read and write one shared jar and a
// submit could land under the wrong account. The caller must Close it.
func (e *Engine) NewPage() (*Page, error) {
	c := chromedp.FromContext(e.browserCtx)
	execCtx := cdp.WithExecutor(e.browserCtx, c.Browser)

	bctx, err := target.CreateBrowserContext().Do(execCtx)
	if err != nil {
		return nil, fmt.Errorf("create browser context: %w", err)
	}
	tid, err := target.CreateTarget("about:blank").WithBrowserContextID(bctx).Do(execCtx)
	if err != nil {
		_ = target.DisposeBrowserContext(bctx).Do(execCtx)
		return nil, fmt.Errorf("create target: %w", err)
	}

	tabCtx, cancel := chromedp.NewContext(e.browserCtx, chromedp.WithTargetID(tid))
	return &Page{
		ctx:            tabCtx,
		cancel:         cancel,
		disposeCtx:     execCtx,
		browserContext: bctx,
		log:            e.log,
	}, nil
}

func (e *Engine) Close() error {
	if e.browserStop != nil {
		e.browserStop()
	}
	if e.allocCancel != nil {
		e.allocCancel()
	}
	return nil
}

// Page is one Chrome tab in its own browser context, implementing
// adapter.PageController.
type Page struct {
	ctx            context.Context
	cancel         context.CancelFunc
	disposeCtx     context.Context
	browserContext cdp.BrowserContextID
	log            *zerolog.Logger
}

var _ adapter.PageController = (*Page)(nil)

// Close tears down the tab and its browser context, discarding the private
// cookie jar with it.
func (p *Page) Close() error {
	p.cancel()
	if p.browserContext != "" {
		if err := target.DisposeBrowserContext(p.browserContext).Do(p.disposeCtx); err != nil {
			p.log.Debug().Err(err).Msg("dispose browser context")
		}
	}
	return nil
}

// run executes actions on the tab's own context while honoring the
// caller's cancellation. chromedp actions cannot take a foreign context
// directly, so the caller's Done is bridged onto a derived one.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	return p.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (p *Page) Fill(ctx context.Context, selector, value string) error {
	return p.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
}

func (p *Page) Click(ctx context.Context, selector string) error {
	return p.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

func (p *Page) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.run(waitCtx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

// IsPresent distinguishes "not there" from a real failure: an expired probe
// timeout means absent, anything else is an error.
func (p *Page) IsPresent(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := p.run(probeCtx, chromedp.WaitVisible(selector, chromedp.ByQuery))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return false, nil
	}
	return false, err
}

func (p *Page) Cookies(ctx context.Context) ([]model.Cookie, error) {
	var raw []*network.Cookie
	err := p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}

	out := make([]model.Cookie, 0, len(raw))
	for _, c := range raw {
		mc := model.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		}
		if c.Expires > 0 {
			mc.Expires = time.Unix(int64(c.Expires), 0).UTC()
		}
		out = append(out, mc)
	}
	return out, nil
}

func (p *Page) SetCookies(ctx context.Context, cookies []model.Cookie) error {
	return p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range cookies {
			set := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(c.Path).
				WithHTTPOnly(c.HTTPOnly).
				WithSecure(c.Secure)
			if !c.Expires.IsZero() {
				exp := cdp.TimeSinceEpoch(c.Expires)
				set = set.WithExpires(&exp)
			}
			if c.SameSite != "" {
				set = set.WithSameSite(network.CookieSameSite(c.SameSite))
			}
			if err := set.Do(ctx); err != nil {
				return fmt.Errorf("set cookie %q: %w", c.Name, err)
			}
		}
		return nil
	}))
}

func (p *Page) SetInputFile(ctx context.Context, selector, path string) error {
	return p.run(ctx, chromedp.SetUploadFiles(selector, []string{path}, chromedp.ByQuery))
}

func (p *Page) CurrentURL(ctx context.Context) (string, error) {
	var loc string
	if err := p.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}
