package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/go-chi/httplog/v2"
	"github.com/rubiojr/fuelbot/internal/config"
	"github.com/rubiojr/fuelbot/internal/lambdaadapter"
	"github.com/rubiojr/fuelbot/internal/server"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := httplog.NewLogger("fuelbot", httplog.Options{
		JSON:            true,
		LogLevel:        cfg.Level(),
		Concise:         true,
		QuietDownPeriod: 10 * time.Second,
	})

	srv, closeStore, err := server.Open(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Error starting", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	lambda.Start(lambdaadapter.New(srv.Handler()).Handle)
}
