package user

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/samdani91/Smart-Library-System/model"
	us "github.com/samdani91/Smart-Library-System/service/user"
)

type Controller struct {
	Svc us.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /api/users
func (h *Controller) Create(c echo.Context) error {
	var req CreateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	u, err := h.Svc.Create(c.Request().Context(), req.Name, req.Email, model.UserRole(req.Role))
	if err != nil {
		h.Log.Error("user create", "err", err)
		switch us.Code(err) {
		case us.ErrDuplicateEmail:
			return c.JSON(http.StatusConflict, echo.Map{"message": "Email already registered"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, u)
}

// GET /api/users/:id
func (h *Controller) Detail(c echo.Context) error {
	u, err := h.Svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		switch us.Code(err) {
		case us.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found"})
		default:
			h.Log.Error("user detail", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, u)
}

// PUT /api/users/:id
func (h *Controller) Update(c echo.Context) error {
	var req UpdateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	u, err := h.Svc.Update(c.Request().Context(), c.Param("id"), req.Name, req.Email)
	if err != nil {
		switch us.Code(err) {
		case us.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found"})
		case us.ErrDuplicateEmail:
			return c.JSON(http.StatusConflict, echo.Map{"message": "Email already registered"})
		default:
			h.Log.Error("user update", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, u)
}

// GET /api/users/count
func (h *Controller) Count(c echo.Context) error {
	n, err := h.Svc.Count(c.Request().Context())
	if err != nil {
		h.Log.Error("user count", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"count": n})
}

// GET /api/users/stats/active
func (h *Controller) ActiveUsers(c echo.Context) error {
	rows, err := h.Svc.ActiveUsers(c.Request().Context())
	if err != nil {
		h.Log.Error("active users", "err", err)
		switch us.Code(err) {
		case us.ErrUnavailable:
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "loan service unavailable"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, rows)
}
