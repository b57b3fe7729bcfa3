package browser

import (
	"marketplace-migrator/internal/config"
	"marketplace-migrator/internal/domain/ports/adapter"
)

// DefaultProfile is the selector map for the current destination build.
// Selectors break when the destination redesigns; keep them here, in one
// place, and out of the orchestration layer.
func DefaultProfile(cfg config.DestinationConfig) adapter.SiteProfile {
	return adapter.SiteProfile{
		LoginURL:      cfg.LoginURL,
		CreateFormURL: cfg.CreateFormURL,
		Selectors: adapter.SiteSelectors{
			LoginForm:     "form[action*='login']",
			LoginEmail:    "input[name='user[email]']",
			LoginPassword: "input[name='user[password]']",
			LoginSubmit:   "form[action*='login'] button[type='submit']",
			LoginError:    ".flash-error,.alert-danger",

			BotChallenge: "#challenge-form,iframe[src*='captcha']",

			TitleField:       "input[name='product[name]']",
			DescriptionField: "textarea[name='product[description]']",
			PriceField:       "input[name='product[price]']",
			FileInput:        "input[type='file'][name='product[file]']",
			SubmitButton:     "button[name='commit']",
			SuccessIndicator: ".product-published,[data-listing-state='published']",
		},
	}
}
