package book

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	bs "github.com/samdani91/Smart-Library-System/service/book"
)

type Controller struct {
	Svc bs.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /api/books
func (h *Controller) Create(c echo.Context) error {
	var req CreateBookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	b, err := h.Svc.Create(c.Request().Context(), req.Title, req.Author, req.ISBN, req.Copies)
	if err != nil {
		h.Log.Error("book create", "err", err)
		switch bs.Code(err) {
		case bs.ErrDuplicateISBN:
			return c.JSON(http.StatusConflict, echo.Map{"message": "ISBN already registered"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, b)
}

// GET /api/books/:id
func (h *Controller) Detail(c echo.Context) error {
	b, err := h.Svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		switch bs.Code(err) {
		case bs.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Book not found"})
		default:
			h.Log.Error("book detail", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, b)
}

// GET /api/books?search=...
func (h *Controller) List(c echo.Context) error {
	rows, err := h.Svc.Search(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		h.Log.Error("book search", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"books": rows, "total": len(rows)})
}

// PUT /api/books/:id
func (h *Controller) Update(c echo.Context) error {
	var req UpdateBookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	b, err := h.Svc.Update(c.Request().Context(), c.Param("id"), req.Title, req.Author, req.ISBN, req.Copies)
	if err != nil {
		switch bs.Code(err) {
		case bs.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Book not found"})
		case bs.ErrDuplicateISBN:
			return c.JSON(http.StatusConflict, echo.Map{"message": "ISBN already registered"})
		default:
			h.Log.Error("book update", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, b)
}

// DELETE /api/books/:id
func (h *Controller) Delete(c echo.Context) error {
	if err := h.Svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		switch bs.Code(err) {
		case bs.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Book not found"})
		default:
			h.Log.Error("book delete", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// PATCH /api/books/:id/availability
func (h *Controller) AdjustAvailability(c echo.Context) error {
	var req AdjustAvailabilityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	b, err := h.Svc.AdjustAvailability(c.Request().Context(), c.Param("id"), req.Operation)
	if err != nil {
		switch bs.Code(err) {
		case bs.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Book not found"})
		case bs.ErrNoCopies:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "No available copies"})
		case bs.ErrBadOperation:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "operation must be increment or decrement"})
		default:
			h.Log.Error("book adjust availability", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":               b.ID,
		"available_copies": b.AvailableCopies,
		"updated_at":       b.UpdatedAt,
	})
}

// GET /api/books/count
func (h *Controller) Count(c echo.Context) error {
	n, err := h.Svc.Count(c.Request().Context())
	if err != nil {
		h.Log.Error("book count", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"count": n})
}

// GET /api/books/available-count
func (h *Controller) CountAvailable(c echo.Context) error {
	n, err := h.Svc.CountAvailable(c.Request().Context())
	if err != nil {
		h.Log.Error("book available count", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"count": n})
}

// GET /api/books/stats/popular
func (h *Controller) Popular(c echo.Context) error {
	rows, err := h.Svc.PopularBooks(c.Request().Context())
	if err != nil {
		h.Log.Error("popular books", "err", err)
		switch bs.Code(err) {
		case bs.ErrUnavailable:
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "loan service unavailable"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, rows)
}
