package reservation

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"labreserve/app/echoServer/jwtx"
	ressvc "labreserve/service/reservation"
)

type Controller struct {
	Svc ressvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

func parseID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func (ct *Controller) fail(c echo.Context, op string, err error) error {
	switch ressvc.Code(err) {
	case ressvc.ErrValidation, ressvc.ErrInvalidStatus:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case ressvc.ErrPermission:
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case ressvc.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case ressvc.ErrDuplicate, ressvc.ErrNoStock:
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	default:
		ct.Log.Error(op, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// Create a reservation
// @Summary      Create reservation
// @Description  Reserve an item for a user, optionally in a non-default status
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Success      201  {object}  model.ReservationView
// @Failure      400  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Failure      409  {object}  map[string]any "duplicate reservation or out of stock"
// @Router       /api/reservations [post]
func (ct *Controller) Create(c echo.Context) error {
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := ct.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation error"})
	}

	role, err := jwtx.RoleFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}

	view, err := ct.Svc.Create(c.Request().Context(), ressvc.CreateInput{
		Email:      req.Email,
		ItemID:     req.Item,
		Start:      time.UnixMilli(req.StartDateTime),
		End:        time.UnixMilli(req.EndDateTime),
		Status:     req.Status,
		AdminID:    req.AdminID,
		CallerRole: role,
	})
	if err != nil {
		return ct.fail(c, "reservation create", err)
	}
	return c.JSON(http.StatusCreated, view)
}

// PATCH /api/reservations/:id
func (ct *Controller) UpdateStatus(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := ct.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation error"})
	}

	callerID, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	role, err := jwtx.RoleFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}

	in := ressvc.UpdateInput{
		ReservationID: id,
		Status:        req.Status,
		CallerID:      callerID,
		CallerRole:    role,
		AdminID:       req.AdminID,
	}
	if req.StartDateTime != nil {
		t := time.UnixMilli(*req.StartDateTime)
		in.Start = &t
	}
	if req.EndDateTime != nil {
		t := time.UnixMilli(*req.EndDateTime)
		in.End = &t
	}

	view, err := ct.Svc.UpdateStatus(c.Request().Context(), in)
	if err != nil {
		return ct.fail(c, "reservation update", err)
	}
	return c.JSON(http.StatusOK, view)
}

// DELETE /api/reservations/:id
func (ct *Controller) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	role, err := jwtx.RoleFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}

	if err := ct.Svc.Delete(c.Request().Context(), id, role); err != nil {
		return ct.fail(c, "reservation delete", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GET /api/reservations?status=pending
func (ct *Controller) List(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		views any
		err   error
	)
	if status := c.QueryParam("status"); status != "" {
		views, err = ct.Svc.ListByStatus(ctx, status)
	} else {
		views, err = ct.Svc.List(ctx)
	}
	if err != nil {
		return ct.fail(c, "reservation list", err)
	}
	return c.JSON(http.StatusOK, views)
}

// GET /api/reservations/:id
func (ct *Controller) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	view, err := ct.Svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return ct.fail(c, "reservation get", err)
	}
	return c.JSON(http.StatusOK, view)
}

// GET /api/users/:id/reservations
func (ct *Controller) ListByUser(c echo.Context) error {
	userID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	callerID, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	role, err := jwtx.RoleFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}

	views, err := ct.Svc.ListByUser(c.Request().Context(), userID, callerID, role)
	if err != nil {
		return ct.fail(c, "reservation list by user", err)
	}
	return c.JSON(http.StatusOK, views)
}

// GET /api/inventory/:id/reservations
func (ct *Controller) ListByItem(c echo.Context) error {
	itemID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	role, err := jwtx.RoleFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}

	views, err := ct.Svc.ListByItem(c.Request().Context(), itemID, role)
	if err != nil {
		return ct.fail(c, "reservation list by item", err)
	}
	return c.JSON(http.StatusOK, views)
}
