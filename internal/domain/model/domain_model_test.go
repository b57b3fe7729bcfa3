package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestProduct(t *testing.T) {
	t.Run("validate rejects blank titles and negative prices", func(t *testing.T) {
		p := Product{Title: "  ", Price: decimal.NewFromInt(5)}
		if err := p.Validate(); err == nil {
			t.Error("blank title must not validate")
		}
		p = Product{Title: "ok", Price: decimal.NewFromInt(-1)}
		if err := p.Validate(); err == nil {
			t.Error("negative price must not validate")
		}
		p = Product{Title: "ok", Price: decimal.Zero}
		if err := p.Validate(); err != nil {
			t.Errorf("free product must validate, got %v", err)
		}
	})

	t.Run("local asset detection", func(t *testing.T) {
		cases := map[string]bool{
			"/var/data/pack.zip":           true,
			"assets/pack.zip":              true,
			"https://cdn.example/pack.zip": false,
			"http://cdn.example/pack.zip":  false,
			"":                             false,
		}
		for ref, want := range cases {
			p := Product{FileRef: ref}
			if got := p.HasLocalAsset(); got != want {
				t.Errorf("HasLocalAsset(%q) = %v, want %v", ref, got, want)
			}
		}
	})

	t.Run("price renders with two fraction digits", func(t *testing.T) {
		p := Product{Price: decimal.RequireFromString("12.5")}
		if got := p.PriceString(); got != "12.50" {
			t.Errorf("PriceString() = %q, want %q", got, "12.50")
		}
	})
}

func TestSessionTokenEqual(t *testing.T) {
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	mk := func() *SessionToken {
		return &SessionToken{
			AccountKey: "acct",
			CapturedAt: at,
			Cookies: []Cookie{
				{Name: "sess", Value: "v1", Domain: ".dest.example", Path: "/", HTTPOnly: true, Secure: true, SameSite: "Lax"},
				{Name: "csrf", Value: "v2", Domain: "dest.example", Path: "/"},
			},
		}
	}

	a, b := mk(), mk()
	if !a.Equal(b) {
		t.Fatal("identical tokens must compare equal")
	}
	b.Cookies[1].Value = "other"
	if a.Equal(b) {
		t.Error("cookie value change must break equality")
	}
	b = mk()
	b.Cookies[0].HTTPOnly = false
	if a.Equal(b) {
		t.Error("cookie attribute change must break equality")
	}
}

func TestUnitStatusTerminal(t *testing.T) {
	for status, want := range map[UnitStatus]bool{
		UnitStatusQueued:    false,
		UnitStatusRunning:   false,
		UnitStatusSucceeded: true,
		UnitStatusFailed:    true,
	} {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}
