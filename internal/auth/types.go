package auth

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type contextKey string

// CTXKeyMemberClaims stores the verified claims of the calling member.
const CTXKeyMemberClaims contextKey = "member_claims"

// ErrNoClaims means the request carries no verified member identity, i.e.
// the auth middleware did not run for this route.
var ErrNoClaims = errors.New("no member claims in context")

// WithMemberClaims injects verified claims into the context.
func WithMemberClaims(ctx context.Context, claims *MemberClaims) context.Context {
	return context.WithValue(ctx, CTXKeyMemberClaims, claims)
}

// MemberClaimsFromContext returns the verified claims of the caller.
func MemberClaimsFromContext(ctx context.Context) (*MemberClaims, error) {
	claims, ok := ctx.Value(CTXKeyMemberClaims).(*MemberClaims)
	if !ok || claims == nil {
		return nil, errors.WithStack(ErrNoClaims)
	}
	return claims, nil
}

// MemberFromEchoContext returns the caller's member address.
func MemberFromEchoContext(c echo.Context) (string, error) {
	claims, err := MemberClaimsFromContext(c.Request().Context())
	if err != nil {
		return "", err
	}
	return claims.MemberAddress, nil
}
