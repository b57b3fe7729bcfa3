package usecase

import (
	"context"
	"testing"
	"time"

	"marketplace-migrator/internal/domain/model"

	"github.com/shopspring/decimal"
)

func testCreds() Credentials {
	return Credentials{AccountKey: "acct-1", Email: "seller@example.com", Password: "hunter2"}
}

func testUnit() *model.MigrationUnit {
	return &model.MigrationUnit{
		ID:      "unit-1",
		BatchID: "batch-1",
		Product: model.Product{
			SourceID:    "src-1",
			Title:       "Icon Pack",
			Description: "<b>Bold</b> text",
			Price:       decimal.RequireFromString("12.50"),
			FileRef:     "/tmp/assets/icons.zip",
		},
	}
}

// happyPage scripts a page where the stored session is still valid and the
// upload succeeds: no login form, create form renders, success indicator
// appears after submit.
func happyPage() *fakePage {
	page := newFakePage()
	site := testSite()
	page.setPresent(site.Selectors.LoginForm, false)
	page.setPresent(site.Selectors.TitleField, true)
	page.setPresent(site.Selectors.SuccessIndicator, true)
	return page
}

func newTestRunner(page *fakePage, sessions *memSessionStore) *StepRunner {
	return NewStepRunner(page, sessions, newMemLocker(), testSite(),
		200*time.Millisecond, time.Millisecond, newTestLogger())
}

func TestStepRunner(t *testing.T) {
	ctx := context.Background()
	site := testSite()

	t.Run("should skip login when no login form renders", func(t *testing.T) {
		// --- Arrange ---
		page := happyPage()
		sessions := newMemSessionStore()
		runner := newTestRunner(page, sessions)

		// --- Act ---
		out := runner.RunAttempt(ctx, testUnit(), testCreds())

		// --- Assert ---
		if out.Class != model.OutcomeOK {
			t.Fatalf("expected ok outcome, got %s (%s)", out.Class, out.Detail)
		}
		if page.clickCount(site.Selectors.LoginSubmit) != 0 {
			t.Error("login submit must not be clicked when the form is absent")
		}
		if got := page.Fills[site.Selectors.DescriptionField]; got != "Bold text" {
			t.Errorf("description fill = %q, want markup stripped %q", got, "Bold text")
		}
		if got := page.Fills[site.Selectors.PriceField]; got != "12.50" {
			t.Errorf("price fill = %q, want %q", got, "12.50")
		}
		if got := page.FilesSet[site.Selectors.FileInput]; got != "/tmp/assets/icons.zip" {
			t.Errorf("file attach = %q, want local asset path", got)
		}
	})

	t.Run("should login, save fresh cookies and invalidate the stale token", func(t *testing.T) {
		page := newFakePage()
		page.setPresent(site.Selectors.LoginForm, true)
		page.setPresent(site.Selectors.TitleField, true)
		page.setPresent(site.Selectors.SuccessIndicator, true)
		page.CookieSet = []model.Cookie{{Name: "sess", Value: "fresh", Domain: "dest.example"}}
		// The login form disappears once the submit click lands.
		page.ClickFunc = func(ctx context.Context, selector string) error {
			if selector == site.Selectors.LoginSubmit {
				page.setPresent(site.Selectors.LoginForm, false)
			}
			return nil
		}

		sessions := newMemSessionStore()
		stale := &model.SessionToken{AccountKey: "acct-1", Cookies: []model.Cookie{{Name: "sess", Value: "old"}}}
		if err := sessions.Save(ctx, stale); err != nil {
			t.Fatal(err)
		}
		sessions.SaveCalls = 0
		runner := newTestRunner(page, sessions)

		out := runner.RunAttempt(ctx, testUnit(), testCreds())

		if out.Class != model.OutcomeOK {
			t.Fatalf("expected ok outcome, got %s (%s)", out.Class, out.Detail)
		}
		if page.Fills[site.Selectors.LoginEmail] != "seller@example.com" {
			t.Error("login email was not filled")
		}
		if sessions.SaveCalls != 1 {
			t.Fatalf("expected exactly one session save, got %d", sessions.SaveCalls)
		}
		if sessions.LastSaved.Cookies[0].Value != "fresh" {
			t.Error("saved token must carry the freshly captured cookies")
		}
	})

	t.Run("should fail terminally on a login error banner", func(t *testing.T) {
		page := newFakePage()
		page.setPresent(site.Selectors.LoginForm, true)
		page.ClickFunc = func(ctx context.Context, selector string) error {
			if selector == site.Selectors.LoginSubmit {
				page.setPresent(site.Selectors.LoginError, true)
			}
			return nil
		}
		runner := newTestRunner(page, newMemSessionStore())

		out := runner.RunAttempt(ctx, testUnit(), testCreds())

		if out.Class != model.OutcomeTerminal {
			t.Fatalf("bad credentials must be terminal, got %s", out.Class)
		}
		if out.Step != model.StepAuthenticate {
			t.Errorf("expected failure at authenticate, got %s", out.Step)
		}
	})

	t.Run("should fail terminally on a bot challenge at navigation", func(t *testing.T) {
		page := newFakePage()
		page.setPresent(site.Selectors.BotChallenge, true)
		runner := newTestRunner(page, newMemSessionStore())

		out := runner.RunAttempt(ctx, testUnit(), testCreds())

		if out.Class != model.OutcomeTerminal {
			t.Fatalf("bot challenge must be terminal, got %s", out.Class)
		}
	})

	t.Run("should proceed without a file for a remote asset reference", func(t *testing.T) {
		page := happyPage()
		runner := newTestRunner(page, newMemSessionStore())
		unit := testUnit()
		unit.Product.FileRef = "https://cdn.example.com/icons.zip"

		out := runner.RunAttempt(ctx, unit, testCreds())

		if out.Class != model.OutcomeOK {
			t.Fatalf("expected ok outcome, got %s (%s)", out.Class, out.Detail)
		}
		if len(page.FilesSet) != 0 {
			t.Error("remote asset must not be attached")
		}
	})

	t.Run("should classify a missing confirmation as transient", func(t *testing.T) {
		page := happyPage()
		page.setPresent(site.Selectors.SuccessIndicator, false)
		runner := newTestRunner(page, newMemSessionStore())

		out := runner.RunAttempt(ctx, testUnit(), testCreds())

		if out.Class != model.OutcomeTransient {
			t.Fatalf("expected transient outcome, got %s", out.Class)
		}
		if out.Step != model.StepVerify {
			t.Errorf("expected failure at verify, got %s", out.Step)
		}
	})

	t.Run("should resolve a submit in flight even when cancelled mid-click", func(t *testing.T) {
		// Cancellation fires while the submit click is being processed; the
		// runner must still observe the outcome of that submission and must
		// never issue a second click.
		page := happyPage()
		cctx, cancel := context.WithCancel(ctx)
		page.ClickFunc = func(clickCtx context.Context, selector string) error {
			if selector == site.Selectors.SubmitButton {
				cancel()
				time.Sleep(20 * time.Millisecond) // delayed destination response
			}
			return nil
		}
		runner := newTestRunner(page, newMemSessionStore())

		out := runner.RunAttempt(cctx, testUnit(), testCreds())

		if out.Class != model.OutcomeOK {
			t.Fatalf("submit outcome must be resolved despite cancellation, got %s (%s)", out.Class, out.Detail)
		}
		if n := page.clickCount(site.Selectors.SubmitButton); n != 1 {
			t.Errorf("expected exactly one submit click, got %d", n)
		}
	})

	t.Run("should not submit at all when cancelled before the click", func(t *testing.T) {
		page := happyPage()
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		runner := newTestRunner(page, newMemSessionStore())
		out := runner.RunAttempt(cctx, testUnit(), testCreds())

		if out.Class != model.OutcomeTransient {
			t.Fatalf("expected transient outcome, got %s", out.Class)
		}
		if n := page.clickCount(site.Selectors.SubmitButton); n != 0 {
			t.Errorf("expected no submit click after cancellation, got %d", n)
		}
	})
}
