package stats

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	ss "github.com/samdani91/Smart-Library-System/service/stats"
)

type Controller struct {
	Svc ss.Service
	Log *slog.Logger
}

// GET /api/stats/overview
func (h *Controller) Overview(c echo.Context) error {
	o, err := h.Svc.Overview(c.Request().Context())
	if err != nil {
		h.Log.Error("stats overview", "err", err)
		switch ss.Code(err) {
		case ss.ErrUnavailable:
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "Error fetching stats overview", "error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error fetching stats overview"})
		}
	}
	return c.JSON(http.StatusOK, o)
}
