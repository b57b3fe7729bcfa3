package model

// Step names the atomic actions of one upload attempt, in execution order.
type Step string

const (
	StepNavigateLogin  Step = "navigate_login"
	StepRestoreSession Step = "restore_session"
	StepAuthenticate   Step = "authenticate"
	StepNavigateCreate Step = "navigate_create_form"
	StepFillFields     Step = "fill_fields"
	StepAttachAsset    Step = "attach_asset"
	StepSubmit         Step = "submit"
	StepVerify         Step = "verify"
	StepWebhookPost    Step = "webhook_post" // webhook mode collapses to this single step
)

type OutcomeClass string

const (
	OutcomeOK OutcomeClass = "ok"
	// OutcomeTransient is plausibly fixed by retrying: timeout, network blip,
	// UI not yet ready.
	OutcomeTransient OutcomeClass = "transient"
	// OutcomeTerminal cannot be fixed by retrying: bad credentials,
	// bot challenge, destination validation rejection.
	OutcomeTerminal OutcomeClass = "terminal"
)

// StepOutcome is the result of one step. It is consumed immediately by the
// runner and the retry coordinator, never persisted.
type StepOutcome struct {
	Step   Step
	Class  OutcomeClass
	Detail string
}

func OK(step Step) StepOutcome {
	return StepOutcome{Step: step, Class: OutcomeOK}
}

func Transient(step Step, detail string) StepOutcome {
	return StepOutcome{Step: step, Class: OutcomeTransient, Detail: detail}
}

func Terminal(step Step, detail string) StepOutcome {
	return StepOutcome{Step: step, Class: OutcomeTerminal, Detail: detail}
}
