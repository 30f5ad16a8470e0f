package item

import (
	"log/slog"
	"net/http"
	"strconv"

	catalogsvc "github.com/drstrox/Decentralised-Book-Rental-System/service/catalog"
	rs "github.com/drstrox/Decentralised-Book-Rental-System/service/rental"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Rental  rs.Service
	Catalog catalogsvc.Service
	V       *validator.Validate
	Log     *slog.Logger
}

// POST /v1/items
// @Summary List a new item for rent
func (h *Controller) Create(c echo.Context) error {
	var req ListItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	owner, _ := c.Get("identity").(string)

	id, err := h.Rental.List(c.Request().Context(), req.Title, req.DailyPrice, req.Deposit, owner, req.MetadataURI)
	if err != nil {
		switch rs.Code(err) {
		case rs.ErrInvalidAmount:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "price and deposit must be positive"})
		default:
			h.Log.Error("item create", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// GET /v1/items
func (h *Controller) List(c echo.Context) error {
	rows, err := h.Catalog.ListAll(c.Request().Context())
	if err != nil {
		h.Log.Error("item list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/items/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	row, err := h.Catalog.Detail(c.Request().Context(), id)
	if err != nil {
		h.Log.Error("item detail", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	if row == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
	}
	return c.JSON(http.StatusOK, row)
}

// GET /v1/items/mine
func (h *Controller) Mine(c echo.Context) error {
	identity, _ := c.Get("identity").(string)
	rows, err := h.Catalog.HeldBy(c.Request().Context(), identity)
	if err != nil {
		h.Log.Error("items held", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
