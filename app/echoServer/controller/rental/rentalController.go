package rental

import (
	"log/slog"
	"net/http"
	"strconv"

	rs "github.com/drstrox/Decentralised-Book-Rental-System/service/rental"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc rs.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/items/:id/rent
// @Summary Rent an available item; payment must cover deposit + one day
func (h *Controller) Rent(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req RentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	renter, _ := c.Get("identity").(string)

	receipt, err := h.Svc.Rent(c.Request().Context(), id, renter, req.Payment)
	if err != nil {
		switch rs.Code(err) {
		case rs.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "item not found"})
		case rs.ErrNotAvailable:
			return c.JSON(http.StatusConflict, echo.Map{"message": "item not available"})
		case rs.ErrSelfRental:
			return c.JSON(http.StatusForbidden, echo.Map{"message": "cannot rent your own item"})
		case rs.ErrInsufficientPayment:
			return c.JSON(http.StatusPaymentRequired, echo.Map{"message": "payment below deposit + daily price"})
		case rs.ErrTransferFailed:
			return c.JSON(http.StatusPaymentRequired, echo.Map{"message": "payment transfer failed"})
		default:
			h.Log.Error("rent", "err", err, "item_id", id)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, receipt)
}

// POST /v1/items/:id/return
// @Summary Return a rented item and settle fees against the deposit
func (h *Controller) Return(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	renter, _ := c.Get("identity").(string)

	receipt, err := h.Svc.Return(c.Request().Context(), id, renter)
	if err != nil {
		switch rs.Code(err) {
		case rs.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "item not found"})
		case rs.ErrNotAvailable:
			return c.JSON(http.StatusConflict, echo.Map{"message": "item is not rented"})
		case rs.ErrNotHolder:
			return c.JSON(http.StatusForbidden, echo.Map{"message": "not the current renter"})
		case rs.ErrTransferFailed:
			return c.JSON(http.StatusConflict, echo.Map{"message": "settlement transfer failed"})
		default:
			h.Log.Error("return", "err", err, "item_id", id)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, receipt)
}
