package echoServer

import (
	"github.com/labstack/echo/v4"

	bookctrl "github.com/samdani91/Smart-Library-System/app/echoServer/controller/book"
	loanctrl "github.com/samdani91/Smart-Library-System/app/echoServer/controller/loan"
	statsctrl "github.com/samdani91/Smart-Library-System/app/echoServer/controller/stats"
	userctrl "github.com/samdani91/Smart-Library-System/app/echoServer/controller/user"
)

func RegisterUserRoutes(e *echo.Echo, c *userctrl.Controller) {
	g := e.Group("/api")

	g.POST("/users", c.Create)
	// Static segments before the :id match.
	g.GET("/users/count", c.Count)
	g.GET("/users/stats/active", c.ActiveUsers)
	g.GET("/users/:id", c.Detail)
	g.PUT("/users/:id", c.Update)
}

func RegisterBookRoutes(e *echo.Echo, c *bookctrl.Controller) {
	g := e.Group("/api")

	g.POST("/books", c.Create)
	g.GET("/books", c.List)
	g.GET("/books/count", c.Count)
	g.GET("/books/available-count", c.CountAvailable)
	g.GET("/books/stats/popular", c.Popular)
	g.GET("/books/:id", c.Detail)
	g.PUT("/books/:id", c.Update)
	g.DELETE("/books/:id", c.Delete)
	g.PATCH("/books/:id/availability", c.AdjustAvailability)
}

func RegisterLoanRoutes(e *echo.Echo, loan *loanctrl.Controller, stats *statsctrl.Controller) {
	g := e.Group("/api")

	g.POST("/loans", loan.Issue)
	g.POST("/returns", loan.Return)
	g.GET("/loans/overdue", loan.Overdue)
	g.GET("/loans/book-stats", loan.BookStats)
	g.GET("/loans/active-users", loan.ActiveUsers)
	g.GET("/loans/user/:user_id", loan.ByUser)
	g.GET("/loans/:id", loan.Detail)
	g.PUT("/loans/:id/extend", loan.Extend)

	g.GET("/stats/overview", stats.Overview)
}
