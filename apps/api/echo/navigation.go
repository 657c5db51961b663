package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/navigation"
	"github.com/trezcool/shule/core/user"
)

type navigationApi struct {
	deps ServerDeps
}

func registerNavigationAPI(g *echo.Group, guard echo.MiddlewareFunc, deps ServerDeps) {
	api := navigationApi{deps: deps}

	ng := g.Group("/navigation", guard)
	ng.GET("", api.table)
	ng.POST("", api.merged)
}

// Handlers

// table returns the default navigation entries for the session's primary role.
func (api *navigationApi) table(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, NavigationResponse{
		Role:    sess.PrimaryRole(),
		Entries: navigation.DefaultTableFor(sess.PrimaryRole()),
	})
}

// merged returns the role defaults merged with caller-provided overrides.
func (api *navigationApi) merged(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	var data MergeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MergeRequest")
	}

	return ctx.JSON(http.StatusOK, NavigationResponse{
		Role:    sess.PrimaryRole(),
		Entries: navigation.TableFor(sess.PrimaryRole(), data.Overrides...),
	})
}

type (
	MergeRequest struct {
		Overrides []navigation.Entry `json:"overrides"`
	}

	NavigationResponse struct {
		Role    user.NormalizedRole `json:"role"`
		Entries navigation.Table    `json:"entries"`
	}
)
