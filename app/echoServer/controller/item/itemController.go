package item

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"labreserve/model"
	itemsvc "labreserve/service/item"
)

type Controller struct {
	Svc itemsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

func parseID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func (ct *Controller) fail(c echo.Context, op string, err error) error {
	switch itemsvc.Code(err) {
	case itemsvc.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case itemsvc.ErrValidation:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case itemsvc.ErrInvalidState:
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	default:
		ct.Log.Error(op, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// List inventory
// @Summary      List items
// @Tags         inventory
// @Produce      json
// @Success      200  {array}  model.ItemDetail
// @Router       /api/inventory [get]
func (ct *Controller) List(c echo.Context) error {
	items, err := ct.Svc.List(c.Request().Context())
	if err != nil {
		return ct.fail(c, "item list", err)
	}
	return c.JSON(http.StatusOK, items)
}

// GET /api/inventory/:id
func (ct *Controller) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	d, err := ct.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return ct.fail(c, "item get", err)
	}
	return c.JSON(http.StatusOK, d)
}

// POST /api/inventory
func (ct *Controller) Create(c echo.Context) error {
	var req createItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := ct.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation error"})
	}

	d, err := ct.Svc.Create(c.Request().Context(), itemsvc.CreateInput{
		Barcode:     req.Barcode,
		Location:    req.Location,
		Moveable:    req.Moveable,
		Quantity:    req.Quantity,
		Name:        req.Name,
		Description: req.Description,
		Vendor:      req.Vendor,
		Serial:      req.Serial,
	})
	if err != nil {
		return ct.fail(c, "item create", err)
	}
	return c.JSON(http.StatusCreated, d)
}

// POST /api/inventory/:id/children
func (ct *Controller) AddChild(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req addChildReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := ct.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation error"})
	}

	child, err := ct.Svc.AddChild(c.Request().Context(), id, model.ItemChild{
		Name:        req.Name,
		Description: req.Description,
		Vendor:      req.Vendor,
		Serial:      req.Serial,
	})
	if err != nil {
		return ct.fail(c, "item add child", err)
	}
	return c.JSON(http.StatusCreated, child)
}

// POST /api/inventory/:id/retire
func (ct *Controller) Retire(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	d, err := ct.Svc.Retire(c.Request().Context(), id)
	if err != nil {
		return ct.fail(c, "item retire", err)
	}
	return c.JSON(http.StatusOK, d)
}

// PATCH /api/inventory/:id/quantity
func (ct *Controller) AdjustQuantity(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req adjustQuantityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := ct.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation error"})
	}

	it, err := ct.Svc.AdjustQuantity(c.Request().Context(), id, req.Delta)
	if err != nil {
		return ct.fail(c, "item adjust quantity", err)
	}
	return c.JSON(http.StatusOK, it)
}

// PATCH /api/inventory/:id/availability
func (ct *Controller) SetAvailability(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req setAvailabilityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := ct.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation error"})
	}

	if err := ct.Svc.SetAvailability(c.Request().Context(), id, *req.Available); err != nil {
		return ct.fail(c, "item set availability", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// POST /api/inventory/children/:childId/images
// Accepts a multipart upload under the "image" field.
func (ct *Controller) AttachImage(c echo.Context) error {
	childID, ok := parseID(c, "childId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "image file is required"})
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "can't read upload"})
	}
	defer src.Close()

	img, err := ct.Svc.AttachImage(c.Request().Context(), childID, src)
	if err != nil {
		return ct.fail(c, "item attach image", err)
	}
	return c.JSON(http.StatusCreated, img)
}
