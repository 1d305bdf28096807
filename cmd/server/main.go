package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/budgetguard/app/gateway"
	"github.com/dmitrymomot/budgetguard/core/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, err := gateway.NewApp()
	if err != nil {
		logger.New().Error("failed to initialize app", logger.Error(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		app.Logger().Error("app stopped with error", logger.Error(err))
		cancel()
		os.Exit(1)
	}
}
