package main

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/soapbridge/proxy/internal/adapter/awslambda"
	"github.com/soapbridge/proxy/internal/appconfig"
	"github.com/soapbridge/proxy/internal/catalog"
	"github.com/soapbridge/proxy/internal/gateway"
	"github.com/soapbridge/proxy/internal/httpapi"
	"github.com/soapbridge/proxy/internal/logger"
	"github.com/soapbridge/proxy/internal/runtime"
)

func main() {
	cfg := appconfig.Load()
	logger.SetLevel(cfg.LogLevel)

	store, err := openStore(cfg)
	if err != nil {
		logger.Errorf("opening catalog store: %v", err)
		panic(err)
	}

	client := gateway.New(cfg.GatewayURL, cfg.GatewayToken, cfg.GatewayRequestTimeout)
	registrar := gateway.NewRegistrar(store, client, cfg.ProxyBaseURL)
	translator := runtime.New(store, cfg.WSDLRequestTimeout, cfg.GatewayRequestTimeout, cfg.RedisAddr, cfg.RedisPassword)
	handler := httpapi.New(cfg, store, translator, registrar)

	lambda.Start(func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		return awslambda.HandleLambdaRequest(handler, raw)
	})
}

func openStore(cfg *appconfig.Config) (catalog.Store, error) {
	switch cfg.CatalogStoreDriver {
	case "dynamodb":
		return catalog.OpenDynamoDB()
	default:
		return catalog.OpenPostgres(cfg.DatabaseURL)
	}
}
