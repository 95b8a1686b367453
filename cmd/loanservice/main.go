// Package main loan service API.
//
// @title           Smart Library Loan Service
// @version         1.0
// @description     Loan workflows (issue, return, extend) and cross-service statistics.
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
	loanctrl "github.com/samdani91/Smart-Library-System/app/echoServer/controller/loan"
	statsctrl "github.com/samdani91/Smart-Library-System/app/echoServer/controller/stats"
	"github.com/samdani91/Smart-Library-System/app/echoServer/validation"
	"github.com/samdani91/Smart-Library-System/breaker"
	"github.com/samdani91/Smart-Library-System/config"
	"github.com/samdani91/Smart-Library-System/remote"
	loanrepo "github.com/samdani91/Smart-Library-System/repository/loan"
	loansvc "github.com/samdani91/Smart-Library-System/service/loan"
	statssvc "github.com/samdani91/Smart-Library-System/service/stats"
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

	// one breaker registry shared by both upstream dependencies
	breakers := breaker.NewRegistry(breaker.Config{
		FailureThreshold: cfg.BreakerFailureThreshold,
		ResetAfter:       cfg.BreakerResetAfter,
	}, log, breaker.NewMetrics())
	rm := remote.NewMetrics()
	userClient := remote.NewUserClient(cfg.UserServiceURL, cfg.RemoteTimeout, breakers, httpx.Client(), rm)
	bookClient := remote.NewBookClient(cfg.BookServiceURL, cfg.RemoteTimeout, breakers, httpx.Client(), rm)

	// repos + services
	lr := loanrepo.New(db)
	ls := loansvc.New(lr, userClient, bookClient)
	ss := statssvc.New(lr, userClient, bookClient)

	// controllers
	v := validator.New()
	loanC := &loanctrl.Controller{Svc: ls, V: v, Log: log}
	statsC := &statsctrl.Controller{Svc: ss, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"service": "loan-service",
		})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.RegisterLoanRoutes(e, loanC, statsC)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8083"
	}

	log.Info("starting loan service", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}
