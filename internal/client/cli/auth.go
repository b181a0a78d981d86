package cli

import (
	"context"
	"fmt"
)

// getSimpleText and getPin are indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPin        = GetPin
)

// Login shows the login form. Entering it from the main surface clears the
// session first.
func (a *App) Login(ctx context.Context) error {
	if a.onMainSurface() {
		a.enterLogin(ctx)
	}

	username, err := getSimpleText(a.reader, "USERNAME", a.out)
	if err != nil {
		return err
	}
	pin, err := getPin(a.reader, "PIN", a.out)
	if err != nil {
		return err
	}

	if username == "" || pin == "" {
		a.banner.Show(MsgFillAllFields, KindError)
		return nil
	}

	s, err := a.sessions.Login(ctx, username, pin)
	if err != nil {
		a.banner.Show(MessageFor(err, FormLogin), KindError)
		return err
	}

	a.banner.Show(MsgAccessGranted, KindSuccess)
	a.redirect(s)
	return nil
}

// Signup shows the account creation form.
func (a *App) Signup(ctx context.Context) error {
	if a.onMainSurface() {
		a.enterLogin(ctx)
	}

	username, err := getSimpleText(a.reader, "NEW_USERNAME", a.out)
	if err != nil {
		return err
	}
	pin, err := getPin(a.reader, "NEW_PIN", a.out)
	if err != nil {
		return err
	}
	confirm, err := getPin(a.reader, "CONFIRM_PIN", a.out)
	if err != nil {
		return err
	}

	if username == "" || pin == "" || confirm == "" {
		a.banner.Show(MsgFillAllFields, KindError)
		return nil
	}

	s, err := a.sessions.Signup(ctx, username, pin, confirm)
	if err != nil {
		a.banner.Show(MessageFor(err, FormSignup), KindError)
		return err
	}

	a.banner.Show(MsgAccountCreated, KindSuccess)
	a.redirect(s)
	return nil
}

// Logout ends the session and returns to the login surface.
func (a *App) Logout(ctx context.Context) error {
	if err := a.sessions.Logout(ctx); err != nil {
		return err
	}
	a.banner.Show(MsgLoggedOut, KindSuccess)
	a.enterLogin(ctx)
	return nil
}

// WhoAmI is a protected command: without a session it sends the user back
// to the login surface.
func (a *App) WhoAmI(ctx context.Context) error {
	s, err := a.sessions.RequireSession(ctx)
	if err != nil {
		a.banner.Show(MessageFor(err, FormLogin), KindError)
		a.enterLogin(ctx)
		return err
	}
	fmt.Fprintf(a.out, "%s (%s)\n", s.Username, s.Provider)
	return nil
}

// Status prints the backend mode, the surface and the session, if any.
func (a *App) Status(ctx context.Context) error {
	fmt.Fprintf(a.out, "mode:    %s\n", a.sessions.Mode())
	fmt.Fprintf(a.out, "surface: %s\n", a.surface)
	fmt.Fprintf(a.out, "state:   %s\n", a.sessions.State())

	if s := a.sessions.CurrentSession(); s != nil {
		fmt.Fprintf(a.out, "user:    %s\n", s.Username)
		fmt.Fprintf(a.out, "since:   %s via %s\n", s.LoginTime.Format("2006-01-02 15:04:05Z07:00"), s.Provider)
	} else {
		fmt.Fprintln(a.out, "user:    -")
	}

	if msg, kind, ok := a.banner.Current(); ok {
		fmt.Fprintln(a.out, render(msg, kind))
	}
	return nil
}
