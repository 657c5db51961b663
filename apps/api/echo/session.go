package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/session"
)

type sessionApi struct {
	deps ServerDeps
}

func registerSessionAPI(g *echo.Group, guard echo.MiddlewareFunc, deps ServerDeps) {
	api := sessionApi{deps: deps}

	sg := g.Group("/session")

	// un-authed endpoints
	sg.POST("/login", api.login)

	// authed endpoints
	ag := sg.Group("", guard)
	ag.GET("", api.current)
	ag.DELETE("", api.logout)
}

// Handlers

func (api *sessionApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	sess, err := api.deps.SessionStore.Login(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		if errors.Cause(err) == session.ErrAuthenticationFailed {
			return errAuthenticationFailed
		}
		return errors.Wrap(err, "logging in")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{
		Session:    sess,
		Credential: api.deps.SessionStore.Credential(),
	})
}

func (api *sessionApi) current(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *sessionApi) logout(ctx echo.Context) error {
	api.deps.SessionStore.Logout(ctx.Request().Context())
	return ctx.NoContent(http.StatusNoContent)
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Session    session.Session `json:"session"`
		Credential string          `json:"credential"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}
