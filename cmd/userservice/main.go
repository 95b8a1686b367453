// Package main user service API.
//
// @title           Smart Library User Service
// @version         1.0
// @description     User registration, profiles and borrower statistics.
// @BasePath        /
// @schemes         http
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-playground/validator/v10"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/samdani91/Smart-Library-System/app/echoServer"
	userctrl "github.com/samdani91/Smart-Library-System/app/echoServer/controller/user"
	"github.com/samdani91/Smart-Library-System/app/echoServer/validation"
	"github.com/samdani91/Smart-Library-System/breaker"
	"github.com/samdani91/Smart-Library-System/config"
	"github.com/samdani91/Smart-Library-System/remote"
	userrepo "github.com/samdani91/Smart-Library-System/repository/user"
	usersvc "github.com/samdani91/Smart-Library-System/service/user"
	"github.com/samdani91/Smart-Library-System/util/database"
	"github.com/samdani91/Smart-Library-System/util/httpx"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB: *sql.DB
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// outbound calls to the loan service
	breakers := breaker.NewRegistry(breaker.Config{
		FailureThreshold: cfg.BreakerFailureThreshold,
		ResetAfter:       cfg.BreakerResetAfter,
	}, log, breaker.NewMetrics())
	rm := remote.NewMetrics()
	loanClient := remote.NewLoanClient(cfg.LoanServiceURL, cfg.RemoteTimeout, breakers, httpx.Client(), rm)

	// repos + services
	ur := userrepo.New(db)
	us := usersvc.New(ur, loanClient)

	// controllers
	v := validator.New()
	userC := &userctrl.Controller{Svc: us, V: v, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"service": "user-service",
		})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.RegisterUserRoutes(e, userC)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8081"
	}

	log.Info("starting user service", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}
