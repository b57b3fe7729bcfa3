package adapter

// SiteSelectors is the DOM addressing for one destination marketplace.
// Selector strings are content, maintained alongside the site adapter in
// infra; orchestration logic never inspects them.
type SiteSelectors struct {
	LoginForm     string
	LoginEmail    string
	LoginPassword string
	LoginSubmit   string
	LoginError    string // banner shown after a rejected login

	BotChallenge string // challenge/interstitial indicator, any page

	TitleField       string
	DescriptionField string
	PriceField       string
	FileInput        string
	SubmitButton     string
	SuccessIndicator string // present once the listing was created
}

// SiteProfile bundles the entry URLs and selectors of one destination.
// Swapping destinations means supplying a different profile, not touching
// the step runner.
type SiteProfile struct {
	LoginURL      string
	CreateFormURL string
	Selectors     SiteSelectors
}
