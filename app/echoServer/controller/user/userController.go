package user

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	usersvc "labreserve/service/user"
)

type Controller struct {
	Svc usersvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

type updateRoleReq struct {
	Role string `json:"role" validate:"required"`
}

type updateEmailReq struct {
	Email string `json:"email" validate:"required,email"`
}

func parseID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// GET /api/users
func (ct *Controller) List(c echo.Context) error {
	users, err := ct.Svc.List(c.Request().Context())
	if err != nil {
		ct.Log.Error("user list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, users)
}

// GET /api/users/:id
func (ct *Controller) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	u, err := ct.Svc.Get(c.Request().Context(), id)
	if err != nil {
		if usersvc.Code(err) == usersvc.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		ct.Log.Error("user get", "err", err, "id", id)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, u)
}

// PATCH /api/users/:id/role
func (ct *Controller) UpdateRole(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateRoleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := ct.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation error"})
	}

	u, err := ct.Svc.UpdateRole(c.Request().Context(), id, req.Role)
	if err != nil {
		switch usersvc.Code(err) {
		case usersvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case usersvc.ErrValidation:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		default:
			ct.Log.Error("user role update", "err", err, "id", id)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, u)
}

// PATCH /api/users/:id/email
func (ct *Controller) UpdateEmail(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateEmailReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := ct.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation error"})
	}

	u, err := ct.Svc.UpdateEmail(c.Request().Context(), id, req.Email)
	if err != nil {
		switch usersvc.Code(err) {
		case usersvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case usersvc.ErrValidation:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case usersvc.ErrDuplicate:
			return c.JSON(http.StatusConflict, echo.Map{"error": "email is already in use"})
		default:
			ct.Log.Error("user email update", "err", err, "id", id)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, u)
}

// DELETE /api/users/:id
func (ct *Controller) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	if err := ct.Svc.Delete(c.Request().Context(), id); err != nil {
		if usersvc.Code(err) == usersvc.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		ct.Log.Error("user delete", "err", err, "id", id)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.NoContent(http.StatusNoContent)
}
