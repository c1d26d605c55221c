package gateway

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/libcat/internal/client/session"
	"golang.org/x/oauth2"
)

const opLogin = "login"

// Login exchanges username and password for a bearer credential at
// POST {base}/token (OAuth2 password grant, form encoded). On success the
// credential is installed in the session before Login returns.
func (g *Gateway) Login(ctx context.Context, username, password string) error {
	conf := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  g.BaseURL() + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	tok, err := conf.PasswordCredentialsToken(context.WithValue(ctx, oauth2.HTTPClient, g.client), username, password)
	if err != nil {
		err = mapLoginError(err)
		g.log.Warn(ctx, "login failed", "username", username, "error", err)
		return err
	}

	if _, err := session.Decode(tok.AccessToken); err != nil {
		return &MalformedResponseError{Op: opLogin, Status: http.StatusOK, Err: err}
	}

	s := g.creds.SetCredential(ctx, tok.AccessToken)
	g.log.Info(ctx, "logged in", "subject", s.Subject)
	return nil
}

func mapLoginError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		detail, ok := parseDetail(re.Body)
		if !ok {
			detail = "login failed: " + genericDetail(status)
		}
		return &RejectedError{Op: opLogin, Status: status, Detail: detail}
	}

	var ue *url.Error
	var ne net.Error
	if errors.As(err, &ue) || errors.As(err, &ne) {
		return &NetworkError{Op: opLogin, Err: err}
	}

	// what is left are token responses oauth2 could not use
	return &MalformedResponseError{Op: opLogin, Status: http.StatusOK, Err: err}
}
