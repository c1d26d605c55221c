package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/libcat/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is what the client learns from a credential without verifying it.
type Claims struct {
	Subject   string
	ExpiresAt time.Time // zero when the token carries no exp claim
}

var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// Decode validates the shape of token and extracts its claims. Every parse
// or alphabet error is reported as common.ErrInvalidToken; Decode never
// panics on hostile input.
func Decode(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, fmt.Errorf("%w: empty", common.ErrInvalidToken)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Claims{}, fmt.Errorf("%w: %d segments", common.ErrInvalidToken, len(parts))
	}

	payload, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return Claims{}, fmt.Errorf("%w: payload encoding: %v", common.ErrInvalidToken, err)
	}

	var mc jwt.MapClaims
	if err := json.Unmarshal(payload, &mc); err != nil {
		return Claims{}, fmt.Errorf("%w: payload json: %v", common.ErrInvalidToken, err)
	}

	sub, err := mc.GetSubject()
	if err != nil {
		return Claims{}, fmt.Errorf("%w: sub: %v", common.ErrInvalidToken, err)
	}
	if strings.TrimSpace(sub) == "" {
		return Claims{}, fmt.Errorf("%w: no subject", common.ErrInvalidToken)
	}

	c := Claims{Subject: sub}
	// exp is informational only; a malformed one does not invalidate the shape.
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}
