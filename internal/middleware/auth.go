package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/questx-lab/lottery/internal/model"
	"github.com/questx-lab/lottery/pkg/authenticator"
	"github.com/questx-lab/lottery/pkg/errorx"
	"github.com/questx-lab/lottery/pkg/router"
	"github.com/questx-lab/lottery/pkg/xcontext"
	"golang.org/x/crypto/bcrypt"
)

const TriggerKeyHeader = "X-Trigger-Key"

// AuthVerifier identifies the caller of a request. A caller is either a user
// holding an access token or an external scheduler holding the trigger key.
type AuthVerifier struct {
	tokenEngine    authenticator.TokenEngine[model.AccessToken]
	triggerKeyHash []byte
	optional       bool
}

func NewAuthVerifier() *AuthVerifier {
	return &AuthVerifier{}
}

func (a *AuthVerifier) WithAccessToken(engine authenticator.TokenEngine[model.AccessToken]) *AuthVerifier {
	a.tokenEngine = engine
	return a
}

func (a *AuthVerifier) WithTriggerKey(hash string) *AuthVerifier {
	if hash != "" {
		a.triggerKeyHash = []byte(hash)
	}
	return a
}

// WithOptional lets anonymous requests through.
func (a *AuthVerifier) WithOptional() *AuthVerifier {
	a.optional = true
	return a
}

func (a *AuthVerifier) Middleware() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		req := xcontext.HTTPRequest(ctx)

		if a.triggerKeyHash != nil {
			if key := req.Header.Get(TriggerKeyHeader); key != "" {
				if err := bcrypt.CompareHashAndPassword(a.triggerKeyHash, []byte(key)); err != nil {
					return nil, errorx.New(errorx.Unauthenticated, "Invalid trigger key")
				}

				return xcontext.WithTrustedCaller(ctx), nil
			}
		}

		if a.tokenEngine != nil {
			if token := getAccessToken(ctx, req); token != "" {
				info, err := a.tokenEngine.Verify(token)
				if err != nil {
					xcontext.Logger(ctx).Debugf("Cannot verify access token: %v", err)
					return nil, errorx.New(errorx.Unauthenticated, "Invalid access token")
				}

				return xcontext.WithRequestUserID(ctx, info.ID), nil
			}
		}

		if a.optional {
			return nil, nil
		}

		return nil, errorx.New(errorx.Unauthenticated, "You need to authenticate before")
	}
}

func getAccessToken(ctx context.Context, req *http.Request) string {
	authorization := req.Header.Get("Authorization")
	auth, token, found := strings.Cut(authorization, " ")
	if found {
		if auth == "Bearer" {
			return token
		}
		return ""
	}

	cookie, err := req.Cookie(xcontext.Configs(ctx).Auth.AccessToken.Name)
	if err != nil {
		return ""
	}

	return cookie.Value
}
