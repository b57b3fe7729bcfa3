package usecase

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"marketplace-migrator/internal/domain/model"
	"marketplace-migrator/internal/domain/ports/adapter"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	return &l
}

// fakePage is a scriptable in-memory PageController. Unset hooks behave as
// immediate success; Present decides what probes see.
type fakePage struct {
	mu sync.Mutex

	NavigateFunc func(ctx context.Context, url string) error
	FillFunc     func(ctx context.Context, selector, value string) error
	ClickFunc    func(ctx context.Context, selector string) error
	WaitFunc     func(ctx context.Context, selector string, timeout time.Duration) error
	Present      map[string]bool // selector -> probe result
	CookieSet    []model.Cookie

	Navigations []string
	Fills       map[string]string // selector -> last filled value
	Clicks      []string
	FilesSet    map[string]string
}

func newFakePage() *fakePage {
	return &fakePage{
		Present:  map[string]bool{},
		Fills:    map[string]string{},
		FilesSet: map[string]string{},
	}
}

func (f *fakePage) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	f.Navigations = append(f.Navigations, url)
	f.mu.Unlock()
	if f.NavigateFunc != nil {
		return f.NavigateFunc(ctx, url)
	}
	return nil
}

func (f *fakePage) Fill(ctx context.Context, selector, value string) error {
	if f.FillFunc != nil {
		if err := f.FillFunc(ctx, selector, value); err != nil {
			return err
		}
	}
	f.mu.Lock()
	f.Fills[selector] = value
	f.mu.Unlock()
	return nil
}

func (f *fakePage) Click(ctx context.Context, selector string) error {
	f.mu.Lock()
	f.Clicks = append(f.Clicks, selector)
	f.mu.Unlock()
	if f.ClickFunc != nil {
		return f.ClickFunc(ctx, selector)
	}
	return nil
}

func (f *fakePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if f.WaitFunc != nil {
		return f.WaitFunc(ctx, selector, timeout)
	}
	// Composite selectors succeed when any part is present.
	for _, part := range strings.Split(selector, ",") {
		if f.present(part) {
			return nil
		}
	}
	return context.DeadlineExceeded
}

func (f *fakePage) IsPresent(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	return f.present(selector), nil
}

func (f *fakePage) present(selector string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Present[selector]
}

func (f *fakePage) setPresent(selector string, v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Present[selector] = v
}

func (f *fakePage) clickCount(selector string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Clicks {
		if c == selector {
			n++
		}
	}
	return n
}

func (f *fakePage) Cookies(ctx context.Context) ([]model.Cookie, error) {
	return f.CookieSet, nil
}

func (f *fakePage) SetCookies(ctx context.Context, cookies []model.Cookie) error {
	f.CookieSet = cookies
	return nil
}

func (f *fakePage) SetInputFile(ctx context.Context, selector, path string) error {
	f.mu.Lock()
	f.FilesSet[selector] = path
	f.mu.Unlock()
	return nil
}

func (f *fakePage) CurrentURL(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Navigations) == 0 {
		return "about:blank", nil
	}
	return f.Navigations[len(f.Navigations)-1], nil
}

// memSessionStore is an in-memory SessionStore counting Save calls.
type memSessionStore struct {
	mu        sync.Mutex
	store     map[string]*model.SessionToken
	SaveCalls int
	LastSaved *model.SessionToken
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{store: map[string]*model.SessionToken{}}
}

func (m *memSessionStore) Load(ctx context.Context, accountKey string) (*model.SessionToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.store[accountKey]
	if !ok {
		return nil, nil
	}
	cp := *tok
	return &cp, nil
}

func (m *memSessionStore) Save(ctx context.Context, token *model.SessionToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *token
	m.store[token.AccountKey] = &cp
	m.SaveCalls++
	m.LastSaved = &cp
	return nil
}

func (m *memSessionStore) Invalidate(ctx context.Context, accountKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, accountKey)
	return nil
}

// memLocker grants every acquisition and records hold counts.
type memLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	Acquired int
}

func newMemLocker() *memLocker { return &memLocker{held: map[string]bool{}} }

func (l *memLocker) Acquire(ctx context.Context, accountKey string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Acquired++
	l.held[accountKey] = true
	return "tok", nil
}

func (l *memLocker) Release(ctx context.Context, accountKey, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held[accountKey] = false
	return nil
}

// fakeDeliverer is a scriptable WebhookDeliverer.
type fakeDeliverer struct {
	mu          sync.Mutex
	Calls       int
	DeliverFunc func(ctx context.Context, call int, payload adapter.WebhookPayload) (adapter.WebhookResult, error)
	Last        adapter.WebhookPayload
}

func (f *fakeDeliverer) Deliver(ctx context.Context, payload adapter.WebhookPayload) (adapter.WebhookResult, error) {
	f.mu.Lock()
	f.Calls++
	call := f.Calls
	f.Last = payload
	f.mu.Unlock()
	return f.DeliverFunc(ctx, call, payload)
}

// recordSink collects events for assertions.
type recordSink struct {
	mu     sync.Mutex
	events []model.ProgressEvent
}

func (s *recordSink) Emit(ev model.ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordSink) all() []model.ProgressEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ProgressEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *recordSink) byUnit(unitID string) []model.ProgressEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ProgressEvent
	for _, ev := range s.events {
		if ev.UnitID == unitID {
			out = append(out, ev)
		}
	}
	return out
}

// testSite is the selector profile the fake page is scripted against.
func testSite() adapter.SiteProfile {
	return adapter.SiteProfile{
		LoginURL:      "https://dest.example/login",
		CreateFormURL: "https://dest.example/product/new",
		Selectors: adapter.SiteSelectors{
			LoginForm:        "#login-form",
			LoginEmail:       "#login-email",
			LoginPassword:    "#login-password",
			LoginSubmit:      "#login-submit",
			LoginError:       ".login-error",
			BotChallenge:     "#challenge-frame",
			TitleField:       "#product-title",
			DescriptionField: "#product-description",
			PriceField:       "#product-price",
			FileInput:        "#product-file",
			SubmitButton:     "#product-submit",
			SuccessIndicator: ".listing-created",
		},
	}
}
