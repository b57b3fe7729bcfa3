package model

import "time"

// Cookie carries every attribute we need to restore a destination session.
// The set must round-trip through the store without loss.
type Cookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain"`
	Path     string    `json:"path"`
	Expires  time.Time `json:"expires,omitempty"`
	HTTPOnly bool      `json:"http_only"`
	Secure   bool      `json:"secure"`
	SameSite string    `json:"same_site,omitempty"`
}

// SessionToken is the opaque credential material for one destination account.
// The destination gives no TTL; staleness is discovered empirically when a
// login form renders despite restored cookies.
type SessionToken struct {
	AccountKey string    `json:"account_key"`
	Cookies    []Cookie  `json:"cookies"`
	CapturedAt time.Time `json:"captured_at"`
}

// Equal compares two tokens field by field, cookie order included.
func (t *SessionToken) Equal(o *SessionToken) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.AccountKey != o.AccountKey || !t.CapturedAt.Equal(o.CapturedAt) || len(t.Cookies) != len(o.Cookies) {
		return false
	}
	for i := range t.Cookies {
		a, b := t.Cookies[i], o.Cookies[i]
		if a.Name != b.Name || a.Value != b.Value || a.Domain != b.Domain || a.Path != b.Path {
			return false
		}
		if !a.Expires.Equal(b.Expires) || a.HTTPOnly != b.HTTPOnly || a.Secure != b.Secure || a.SameSite != b.SameSite {
			return false
		}
	}
	return true
}
