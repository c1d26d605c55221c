package services

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/libcat/internal/client/vault"
)

// ---- fake gateway ----

type doCall struct {
	Method string
	Path   string
	Body   any
}

// fakeGateway implements Authenticator for unit tests.
type fakeGateway struct {
	// results
	Resp   string
	DoErr  error
	Logins error

	// captured arguments
	Calls       []doCall
	LoginUser   string
	LoginPass   string
	LogoutCalls int
}

func (f *fakeGateway) Do(_ context.Context, method, path string, body, out any) (bool, error) {
	f.Calls = append(f.Calls, doCall{Method: method, Path: path, Body: body})
	if f.DoErr != nil {
		return false, f.DoErr
	}
	if f.Resp == "" {
		return false, nil
	}
	if out != nil {
		if err := json.Unmarshal([]byte(f.Resp), out); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (f *fakeGateway) Login(_ context.Context, username, password string) error {
	f.LoginUser, f.LoginPass = username, password
	return f.Logins
}

func (f *fakeGateway) Logout(context.Context) { f.LogoutCalls++ }

func (f *fakeGateway) last() doCall {
	return f.Calls[len(f.Calls)-1]
}

// ---- fake vault ----

type saveCall struct {
	Username string
	Secret   string
	Remember bool
}

type fakeVault struct {
	Stored     *vault.Secret
	Saves      []saveCall
	ClearCalls int
}

func (f *fakeVault) Save(_ context.Context, u, s string, remember bool) {
	f.Saves = append(f.Saves, saveCall{u, s, remember})
	if !remember {
		f.Stored = nil
		return
	}
	f.Stored = &vault.Secret{Username: u, Password: s, Remember: true}
}

func (f *fakeVault) Load(context.Context) (vault.Secret, bool) {
	if f.Stored == nil {
		return vault.Secret{}, false
	}
	return *f.Stored, true
}

func (f *fakeVault) Clear(context.Context) {
	f.ClearCalls++
	f.Stored = nil
}
