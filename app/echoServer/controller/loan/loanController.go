package loan

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	ls "github.com/samdani91/Smart-Library-System/service/loan"
)

type Controller struct {
	Svc ls.Service
	V   *validator.Validate
	Log *slog.Logger
}

func iso(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func isoPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return iso(*t)
}

// POST /api/loans
func (h *Controller) Issue(c echo.Context) error {
	var req IssueLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	loan, err := h.Svc.Issue(c.Request().Context(), req.UserID, req.BookID, req.DueDate)
	if err != nil {
		h.Log.Error("loan issue", "err", err)
		switch ls.Code(err) {
		case ls.ErrUserNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found"})
		case ls.ErrBookNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Book not found"})
		case ls.ErrNoCopies:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Book is not available"})
		case ls.ErrUnavailable:
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "Error issuing book", "error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error issuing book"})
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"id":         loan.ID,
		"user_id":    loan.UserID,
		"book_id":    loan.BookID,
		"issue_date": iso(loan.IssueDate),
		"due_date":   iso(loan.DueDate),
		"status":     loan.Status,
	})
}

// POST /api/returns
func (h *Controller) Return(c echo.Context) error {
	var req ReturnLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	loan, err := h.Svc.Return(c.Request().Context(), req.LoanID)
	if err != nil {
		h.Log.Error("loan return", "err", err)
		switch ls.Code(err) {
		case ls.ErrLoanNotFound, ls.ErrAlreadyReturned:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Loan not found or already returned"})
		case ls.ErrUnavailable:
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "Error returning book", "error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error returning book"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":          loan.ID,
		"user_id":     loan.UserID,
		"book_id":     loan.BookID,
		"issue_date":  iso(loan.IssueDate),
		"due_date":    iso(loan.DueDate),
		"return_date": isoPtr(loan.ReturnDate),
		"status":      loan.Status,
	})
}

// PUT /api/loans/:id/extend
func (h *Controller) Extend(c echo.Context) error {
	var req ExtendLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	ext, err := h.Svc.Extend(c.Request().Context(), c.Param("id"), req.ExtensionDays)
	if err != nil {
		h.Log.Error("loan extend", "err", err)
		switch ls.Code(err) {
		case ls.ErrLoanNotFound, ls.ErrAlreadyReturned:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Loan not found or already returned"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error extending loan"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":                ext.Loan.ID,
		"user_id":           ext.Loan.UserID,
		"book_id":           ext.Loan.BookID,
		"issue_date":        iso(ext.Loan.IssueDate),
		"original_due_date": iso(ext.OriginalDueDate),
		"extended_due_date": iso(ext.Loan.DueDate),
		"status":            ext.Loan.Status,
		"extensions_count":  ext.Loan.ExtensionsCount,
	})
}

// GET /api/loans/:id
func (h *Controller) Detail(c echo.Context) error {
	d, err := h.Svc.LoanByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		switch ls.Code(err) {
		case ls.ErrLoanNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Loan not found"})
		case ls.ErrUnavailable:
			h.Log.Error("loan detail", "err", err)
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "Error fetching loan", "error": err.Error()})
		default:
			h.Log.Error("loan detail", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error fetching loan"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":          d.Loan.ID,
		"user":        d.User,
		"book":        d.Book,
		"issue_date":  iso(d.Loan.IssueDate),
		"due_date":    iso(d.Loan.DueDate),
		"return_date": isoPtr(d.Loan.ReturnDate),
		"status":      d.Loan.Status,
	})
}

// GET /api/loans/user/:user_id
func (h *Controller) ByUser(c echo.Context) error {
	rows, err := h.Svc.LoansByUser(c.Request().Context(), c.Param("user_id"))
	if err != nil {
		h.Log.Error("loans by user", "err", err)
		switch ls.Code(err) {
		case ls.ErrUnavailable:
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "Error fetching loans", "error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error fetching loans"})
		}
	}

	out := make([]echo.Map, 0, len(rows))
	for _, r := range rows {
		out = append(out, echo.Map{
			"id":          r.Loan.ID,
			"book":        r.Book,
			"issue_date":  iso(r.Loan.IssueDate),
			"due_date":    iso(r.Loan.DueDate),
			"return_date": isoPtr(r.Loan.ReturnDate),
			"status":      r.Loan.Status,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"loans": out, "total": len(out)})
}

// GET /api/loans/overdue
func (h *Controller) Overdue(c echo.Context) error {
	rows, err := h.Svc.Overdue(c.Request().Context())
	if err != nil {
		h.Log.Error("overdue loans", "err", err)
		switch ls.Code(err) {
		case ls.ErrUnavailable:
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "Error fetching overdue loans", "error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error fetching overdue loans"})
		}
	}

	out := make([]echo.Map, 0, len(rows))
	for _, r := range rows {
		out = append(out, echo.Map{
			"id":           r.Loan.ID,
			"user":         r.User,
			"book":         r.Book,
			"issue_date":   iso(r.Loan.IssueDate),
			"due_date":     iso(r.Loan.DueDate),
			"days_overdue": r.DaysOverdue,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// GET /api/loans/book-stats
func (h *Controller) BookStats(c echo.Context) error {
	rows, err := h.Svc.BookStats(c.Request().Context())
	if err != nil {
		h.Log.Error("loan book stats", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error fetching loan counts by book"})
	}
	return c.JSON(http.StatusOK, rows)
}

// GET /api/loans/active-users
func (h *Controller) ActiveUsers(c echo.Context) error {
	rows, err := h.Svc.ActiveUserStats(c.Request().Context())
	if err != nil {
		h.Log.Error("loan active users", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error fetching active loans by user"})
	}
	return c.JSON(http.StatusOK, rows)
}
