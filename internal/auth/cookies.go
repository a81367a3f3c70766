package auth

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// NewState builds a State from the cookies of a live browser. ExpiresAt is
// the latest cookie expiry; session cookies do not count.
func NewState(cookies []*network.Cookie, now time.Time) *State {
	state := &State{
		Cookies: make([]Cookie, 0, len(cookies)),
		SavedAt: now,
	}

	maxExpires := 0.0
	for _, c := range cookies {
		state.Cookies = append(state.Cookies, Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		})
		if !c.Session && c.Expires > maxExpires {
			maxExpires = c.Expires
		}
	}
	if maxExpires > 0 {
		state.ExpiresAt = time.Unix(int64(maxExpires), 0)
	}
	return state
}

// CookieParams converts the saved cookies into the form the browser accepts
func (s *State) CookieParams() []*network.CookieParam {
	params := make([]*network.CookieParam, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		cookie := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}
		if c.Expires > 0 {
			expires := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
			cookie.Expires = &expires
		}
		switch c.SameSite {
		case "Strict":
			cookie.SameSite = network.CookieSameSiteStrict
		case "Lax":
			cookie.SameSite = network.CookieSameSiteLax
		case "None":
			cookie.SameSite = network.CookieSameSiteNone
		}
		params = append(params, cookie)
	}
	return params
}

// Restore returns an action that installs the saved cookies
func (s *State) Restore() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if len(s.Cookies) == 0 {
			return nil
		}
		return network.SetCookies(s.CookieParams()).Do(ctx)
	})
}

// Capture returns an action that reads every cookie of the browser into *state
func Capture(state **State) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := network.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		*state = NewState(cookies, time.Now())
		return nil
	})
}
