package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/libcat/internal/common"
)

// maxBody caps how much of a response is read.
const maxBody = 4 << 20

// Doer is implemented by *Gateway.
type Doer interface {
	Do(ctx context.Context, method, path string, body, out any) (bool, error)
}

// Send performs method on path (relative to the base URL, starting with
// "/") with body encoded as JSON when non-nil, and decodes a success body
// into T. ok is false when the server answered 204 or with an empty body.
func Send[T any](ctx context.Context, d Doer, method, path string, body any) (v T, ok bool, err error) {
	ok, err = d.Do(ctx, method, path, body, &v)
	return v, ok, err
}

var _ Doer = (*Gateway)(nil)

// Do is the untyped form of Send. out may be nil to discard the body.
func (g *Gateway) Do(ctx context.Context, method, path string, body, out any) (bool, error) {
	op := method + " " + path

	req, err := g.newRequest(ctx, method, path, body)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Warn(ctx, "request failed", "op", op, "error", err)
		return false, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return false, &NetworkError{Op: op, Err: err}
	}

	g.log.Debug(ctx, "response", "op", op, "status", resp.StatusCode, "bytes", len(data))

	if success(resp.StatusCode) {
		if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
			return false, nil
		}
		if out != nil {
			if err := json.Unmarshal(data, out); err != nil {
				return false, &MalformedResponseError{Op: op, Status: resp.StatusCode, Err: err}
			}
		}
		return true, nil
	}

	detail, found := parseDetail(data)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		g.creds.SetCredential(ctx, "")
		g.log.Warn(ctx, "credential rejected, logged out", "op", op, "status", resp.StatusCode)
		return false, &AuthExpiredError{Op: op, Status: resp.StatusCode, Detail: detail}
	}

	if !found {
		detail = genericDetail(resp.StatusCode)
	}
	return false, &RejectedError{Op: op, Status: resp.StatusCode, Detail: detail}
}

func (g *Gateway) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.BaseURL()+path, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok, ok := g.creds.Credential(); ok {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+tok)
	}
	return req, nil
}

func success(code int) bool { return code >= 200 && code < 300 }

// parseDetail pulls a human readable message out of an error body. The
// service answers {"detail": "..."}; validation failures carry a list of
// {"msg": "..."} objects instead. Anything else is used verbatim.
func parseDetail(body []byte) (string, bool) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return "", false
	}

	var env struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &env); err != nil || len(env.Detail) == 0 {
		return string(body), true
	}

	var s string
	if err := json.Unmarshal(env.Detail, &s); err == nil {
		if s == "" {
			return "", false
		}
		return s, true
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(env.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; "), true
		}
	}

	return string(env.Detail), true
}
