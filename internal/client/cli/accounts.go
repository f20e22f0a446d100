package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/postboard/internal/client/session"
	"github.com/dmitrijs2005/postboard/internal/common"
)

var errLoginRequired = errors.New("login required")

// getSimpleText and getPassword are indirections swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) readCredentials() (string, []byte, error) {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return email, password, nil
}

// Signup prompts for an email and password and creates an account.
func (a *App) Signup(ctx context.Context) error {
	email, password, err := a.readCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	acc, err := a.api.Signup(ctx, email, string(password))
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Account %s created, you can login now.\n", acc.Email)
	return nil
}

// Login authenticates and persists the session.
func (a *App) Login(ctx context.Context) error {
	email, password, err := a.readCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res, err := a.api.Login(ctx, email, string(password))
	if err != nil {
		return err
	}

	s := &session.Session{
		Token:     res.Token,
		AccountID: res.AccountID,
		Email:     email,
		ExpiresAt: res.ExpiresAt,
	}
	a.setSession(s)

	if err := a.sessions.Save(s); err != nil {
		fmt.Fprintln(a.out, "Warning: session could not be saved:", err)
	}

	fmt.Fprintf(a.out, "Login successful, session valid for %s\n", res.ExpiresIn)
	return nil
}

// Logout drops the in-memory and the saved session.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errLoginRequired
	}
	a.setSession(nil)
	if err := a.sessions.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}
