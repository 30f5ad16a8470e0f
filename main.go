// Package main rental ledger API.
//
// @title           Book Rental Ledger API
// @version         1.0
// @description     Rental ledger (items, deposits, prorated fees, wallets).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/drstrox/Decentralised-Book-Rental-System/app/echoServer"
	authctrl "github.com/drstrox/Decentralised-Book-Rental-System/app/echoServer/controller/auth"
	itemctrl "github.com/drstrox/Decentralised-Book-Rental-System/app/echoServer/controller/item"
	rentalctrl "github.com/drstrox/Decentralised-Book-Rental-System/app/echoServer/controller/rental"
	walletctrl "github.com/drstrox/Decentralised-Book-Rental-System/app/echoServer/controller/wallet"
	"github.com/drstrox/Decentralised-Book-Rental-System/app/echoServer/validation"
	"github.com/drstrox/Decentralised-Book-Rental-System/config"
	eventsink "github.com/drstrox/Decentralised-Book-Rental-System/repository/events"
	itemrepo "github.com/drstrox/Decentralised-Book-Rental-System/repository/item"
	userrepo "github.com/drstrox/Decentralised-Book-Rental-System/repository/user"
	walletrepo "github.com/drstrox/Decentralised-Book-Rental-System/repository/wallet"
	authsvc "github.com/drstrox/Decentralised-Book-Rental-System/service/auth"
	catalogsvc "github.com/drstrox/Decentralised-Book-Rental-System/service/catalog"
	rentalsvc "github.com/drstrox/Decentralised-Book-Rental-System/service/rental"
	walletsvc "github.com/drstrox/Decentralised-Book-Rental-System/service/wallet"
	"github.com/drstrox/Decentralised-Book-Rental-System/util/database"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// stores
	items := itemrepo.New()
	users := userrepo.New()
	bank := walletrepo.NewBank()

	// event sink: Postgres indexer when configured, structured log otherwise
	var sink rentalsvc.EventSink = eventsink.NewLog(log)
	if cfg.DatabaseURL != "" {
		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		sink = eventsink.NewPG(db.Pool, log)
	}

	// services
	as := authsvc.New(users, cfg.JWTSecret)
	rs := rentalsvc.New(items, bank, rentalsvc.SystemClock{}, sink, cfg.EscrowAccount)
	cs := catalogsvc.New(items)
	ws := walletsvc.New(bank)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	itemC := &itemctrl.Controller{Rental: rs, Catalog: cs, V: v, Log: log}
	rentalC := &rentalctrl.Controller{Svc: rs, V: v, Log: log}
	walletC := &walletctrl.Controller{Svc: ws, V: v, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:   authC,
		Item:   itemC,
		Rental: rentalC,
		Wallet: walletC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	slog.Info("starting server", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}
