package wallet

import (
	"log/slog"
	"net/http"

	walletsvc "github.com/drstrox/Decentralised-Book-Rental-System/service/wallet"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc walletsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

type TopupReq struct {
	Amount uint64 `json:"amount" validate:"required,gt=0"`
}

// POST /v1/wallet/topups
// @Summary Credit the caller's wallet
func (h *Controller) Topup(c echo.Context) error {
	var req TopupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  map[string]string{"amount": "required, gt 0"},
		})
	}
	identity, _ := c.Get("identity").(string)

	balance, err := h.Svc.Topup(c.Request().Context(), identity, req.Amount)
	if err != nil {
		h.Log.Error("topup failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"balance": balance})
}

// GET /v1/wallet/balance
func (h *Controller) Balance(c echo.Context) error {
	identity, _ := c.Get("identity").(string)
	balance, err := h.Svc.Balance(c.Request().Context(), identity)
	if err != nil {
		h.Log.Error("balance failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"balance": balance})
}

// GET /v1/wallet/ledger
func (h *Controller) Ledger(c echo.Context) error {
	identity, _ := c.Get("identity").(string)
	rows, err := h.Svc.Ledger(c.Request().Context(), identity)
	if err != nil {
		h.Log.Error("ledger failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
