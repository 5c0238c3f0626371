// Command presigner is the Lambda function issuing presigned GET URLs.
package main

import (
	"context"

	"alcyxob/file-grants/internal/api"
	"alcyxob/file-grants/internal/bootstrap"
	"alcyxob/file-grants/internal/config"
	"alcyxob/file-grants/internal/logger"

	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		fallback, _ := logger.New(logger.Config{})
		fallback.Fatal("could not load config", logger.Error(err))
	}

	log, err := bootstrap.Logger(cfg.Log)
	if err != nil {
		panic(err)
	}
	log = log.WithField("function", "presigner")
	defer log.Sync()

	grants, cleanup, err := bootstrap.NewGrantService(ctx, cfg, log)
	if err != nil {
		log.Fatal("could not initialize grant service", logger.Error(err))
	}
	defer cleanup()

	handler := api.NewDownloadGrantHandler(grants)
	lambda.Start(handler.Handle)
}
