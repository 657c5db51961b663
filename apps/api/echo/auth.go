package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/session"
	"github.com/trezcool/shule/core/user"
)

var contextSessionKey = "session"

// sessionGuardMiddleware gates protected routes on the session store's guard
// state: while the store is loading nothing is served; unauthenticated access
// is redirected to the login entry point; authenticated requests pass through
// with the Session snapshot stashed in the echo.Context.
func sessionGuardMiddleware(store *session.Store, conf *core.Config) echo.MiddlewareFunc {
	loginURL := conf.FrontendBaseURL + conf.FrontendLoginPath
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			switch store.State() {
			case session.StateLoading:
				ctx.Response().Header().Set("Retry-After", "1")
				return errStoreLoading
			case session.StateAuthenticated:
				ctx.Set(contextSessionKey, *store.Current())
				return next(ctx)
			}
			return ctx.Redirect(http.StatusFound, loginURL)
		}
	}
}

// roleMiddleware additionally requires the current session to hold a role.
func roleMiddleware(store *session.Store, role user.NormalizedRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if store.HasRole(role) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func getContextSession(ctx echo.Context) (session.Session, error) {
	if sess, ok := ctx.Get(contextSessionKey).(session.Session); ok {
		return sess, nil
	}
	return session.Session{}, errUnauthenticated
}
