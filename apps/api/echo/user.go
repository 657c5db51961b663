package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

type userApi struct {
	deps ServerDeps
}

func registerUserAPI(g *echo.Group, guard echo.MiddlewareFunc, deps ServerDeps) {
	api := userApi{deps: deps}

	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("/password-reset", api.passwordReset)
	ug.POST("/password-reset-confirm", api.passwordResetConfirm)

	// admin endpoints
	admin := roleMiddleware(deps.SessionStore, user.RoleAdmin)
	ag := ug.Group("", guard, admin)
	ag.POST("", api.create)
	ag.GET("", api.queryAll)
	ag.GET("/roles", api.roles)
	ag.GET("/:id", api.get)
	ag.DELETE("/:id", api.delete)
}

// Handlers

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.deps.Validate, api.deps.UserSvc); err != nil {
		return err
	}

	// an admin cannot grant a role above their own
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	if user.MaxRolePriority(data.Roles) > user.MaxRolePriority(sess.Roles) {
		return errHttpForbidden
	}

	usr, err := api.deps.UserSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) queryAll(ctx echo.Context) error {
	usrs, err := api.deps.UserSvc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying all users")
	}
	return ctx.JSON(http.StatusOK, usrs)
}

func (api *userApi) roles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, user.Roles)
}

func (api *userApi) get(ctx echo.Context) error {
	usr, err := api.deps.UserSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding user by ID")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) delete(ctx echo.Context) error {
	if err := api.deps.UserSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) passwordReset(ctx echo.Context) error {
	var data passwordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to passwordResetRequest")
	}
	data.Email = core.CleanString(data.Email, true /* lower */)
	if err := api.deps.Validate.Struct(&data); err != nil {
		return err
	}

	// do not leak account existence
	if err := api.deps.UserSvc.RequestPasswordReset(ctx.Request().Context(), data.Email); err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return errors.Wrap(err, "requesting password reset")
		}
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"message": "If the email address supplied is known, a password reset email has been sent.",
	})
}

func (api *userApi) passwordResetConfirm(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}
	if err := api.deps.UserSvc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Password has been reset."})
}

type passwordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}
