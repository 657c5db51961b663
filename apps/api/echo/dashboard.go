package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/shule/core/navigation"
)

type dashboardApi struct {
	deps ServerDeps
}

func registerDashboardAPI(g *echo.Group, guard echo.MiddlewareFunc, deps ServerDeps) {
	api := dashboardApi{deps: deps}
	g.GET("/dashboard", api.dispatch, guard)
}

// dispatch resolves the dashboard view owed to the session's roles.
func (api *dashboardApi) dispatch(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, navigation.DispatchFor(sess.Roles))
}
