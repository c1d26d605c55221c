package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/libcat/internal/client/models"
	"github.com/dmitrijs2005/libcat/internal/common"
)

// getSimpleText, getPassword and confirm are indirections used to facilitate
// testing. They point to interactive input helpers and can be swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	confirm       = Confirm
)

var errPasswordMismatch = errors.New("passwords do not match")

// login prompts for credentials and signs in off the loop. The username
// defaults to the remembered one, whose password may be reused.
//
// loggingIn is held from the first prompt until the outcome is printed, so
// a second login is refused instead of queued.
func (a *App) login(ctx context.Context) error {
	if !a.loggingIn.TryAcquire() {
		return errors.New("login already in progress")
	}
	a.gate.Invalidate()
	release := func() {
		a.loggingIn.Release()
		a.gate.Invalidate()
	}

	username, password, remember, err := a.readLogin(ctx)
	if err != nil {
		release()
		return err
	}

	a.background(ctx, func(ctx context.Context) error {
		return a.auth.Login(ctx, username, password, remember)
	}, func(err error) {
		release()
		a.refreshRemembered(ctx)
		if err != nil {
			a.fail(err)
			return
		}
		a.println("Logged in as", a.cell.Session().Subject)
	})
	return nil
}

func (a *App) readLogin(ctx context.Context) (username, password string, remember bool, err error) {
	saved, hasSaved := a.auth.Remembered(ctx)

	prompt := "Username"
	if hasSaved {
		prompt = fmt.Sprintf("Username [%s]", saved.Username)
	}
	username, err = getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return "", "", false, err
	}
	if username == "" && hasSaved {
		username = saved.Username
	}
	if username == "" {
		return "", "", false, common.ErrEmptyInput
	}

	if hasSaved && username == saved.Username {
		reuse, err := confirm(a.reader, "Use remembered password?", true, a.out)
		if err != nil {
			return "", "", false, err
		}
		if reuse {
			password = saved.Password
		}
	}
	if password == "" {
		pw, err := getPassword(a.reader, "Password", a.out)
		if err != nil {
			return "", "", false, err
		}
		password = string(pw)
		common.WipeByteArray(pw)
	}
	if password == "" {
		return "", "", false, common.ErrEmptyInput
	}

	remember, err = confirm(a.reader, "Remember me on this computer?", hasSaved, a.out)
	if err != nil {
		return "", "", false, err
	}
	return username, password, remember, nil
}

// register creates an account. It does not sign in.
func (a *App) register(ctx context.Context) error {
	if !a.registering.TryAcquire() {
		return errors.New("registration already in progress")
	}
	release := func() {
		a.registering.Release()
		a.gate.Invalidate()
	}

	username, password, err := a.readRegistration()
	if err != nil {
		release()
		return err
	}
	a.gate.Invalidate()

	var user models.User
	a.background(ctx, func(ctx context.Context) error {
		var err error
		user, err = a.auth.Register(ctx, username, password)
		return err
	}, func(err error) {
		release()
		if err != nil {
			a.fail(err)
			return
		}
		a.println(fmt.Sprintf("Account %q created, type 'login' to sign in", user.Username))
	})
	return nil
}

func (a *App) readRegistration() (string, string, error) {
	username, err := getSimpleText(a.reader, "Choose a username", a.out)
	if err != nil {
		return "", "", err
	}
	if username == "" {
		return "", "", common.ErrEmptyInput
	}

	pw, err := getPassword(a.reader, "Password", a.out)
	if err != nil {
		return "", "", err
	}
	defer common.WipeByteArray(pw)
	again, err := getPassword(a.reader, "Repeat password", a.out)
	if err != nil {
		return "", "", err
	}
	defer common.WipeByteArray(again)

	if len(pw) == 0 {
		return "", "", common.ErrEmptyInput
	}
	if string(pw) != string(again) {
		return "", "", errPasswordMismatch
	}
	return username, string(pw), nil
}

// logout ends the session. Remembered credentials stay; see forget.
func (a *App) logout(ctx context.Context) error {
	a.auth.Logout(ctx)
	a.println("Logged out")
	return nil
}

func (a *App) forget(ctx context.Context) error {
	a.auth.Forget(ctx)
	a.refreshRemembered(ctx)
	a.println("Remembered credentials removed")
	return nil
}

func (a *App) whoami(context.Context) error {
	s := a.cell.Session()
	line := "Logged in as " + s.Subject
	if !s.ExpiresAt.IsZero() {
		line += ", token valid until " + s.ExpiresAt.Local().Format(time.DateTime)
	}
	a.println(line)
	return nil
}
