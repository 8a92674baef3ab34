package auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-globalseller/internal/common"
	"github.com/ovaphlow/pitchfork/service-globalseller/internal/user/entity"
)

// CookieName is the cookie carrying the session token.
const CookieName = "session"

type ctxKey struct{}

// TokenFromRequest returns the session token from the cookie, falling back
// to an Authorization: Bearer header.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// WithAccount stores the resolved account on ctx.
func WithAccount(ctx context.Context, u *entity.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// AccountFromContext returns the account placed by RequireSession.
func AccountFromContext(ctx context.Context) (*entity.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*entity.User)
	return u, ok && u != nil
}

// RequireSession rejects requests without a live session with
// common.ErrUnauthorized and exposes the account to next.
func RequireSession(svc *Service, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok, err := svc.ResolveSession(r.Context(), TokenFromRequest(r))
			if err != nil {
				common.WriteError(logger, w, r, err)
				return
			}
			if !ok {
				common.WriteError(logger, w, r, common.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), u)))
		})
	}
}
