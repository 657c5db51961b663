package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/theme"
)

type themeApi struct {
	deps ServerDeps
}

func registerThemeAPI(g *echo.Group, guard echo.MiddlewareFunc, deps ServerDeps) {
	api := themeApi{deps: deps}

	tg := g.Group("/theme", guard)
	tg.GET("", api.current)
	tg.PUT("", api.update)
	tg.POST("/toggle", api.toggle)
}

// Handlers

func (api *themeApi) current(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.state())
}

func (api *themeApi) update(ctx echo.Context) error {
	var data ThemeUpdateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ThemeUpdateRequest")
	}

	store := api.deps.ThemeStore
	if data.Mode != "" {
		if err := store.SetMode(ctx.Request().Context(), data.Mode); err != nil {
			return core.NewValidationError(err)
		}
	}
	if data.ColorScheme != "" {
		if err := store.SetColorScheme(ctx.Request().Context(), data.ColorScheme); err != nil {
			return core.NewValidationError(err)
		}
	}
	return ctx.JSON(http.StatusOK, api.state())
}

func (api *themeApi) toggle(ctx echo.Context) error {
	api.deps.ThemeStore.Toggle(ctx.Request().Context())
	return ctx.JSON(http.StatusOK, api.state())
}

func (api *themeApi) state() ThemeResponse {
	store := api.deps.ThemeStore
	return ThemeResponse{
		Mode:          store.Mode(),
		ColorScheme:   store.ColorScheme(),
		EffectiveMode: store.EffectiveMode(),
	}
}

type (
	ThemeUpdateRequest struct {
		Mode        theme.Mode   `json:"mode"`
		ColorScheme theme.Scheme `json:"color_scheme"`
	}

	ThemeResponse struct {
		Mode          theme.Mode   `json:"mode"`
		ColorScheme   theme.Scheme `json:"color_scheme"`
		EffectiveMode theme.Mode   `json:"effective_mode"`
	}
)
