// Package main is the tracker API: one Lambda behind the HTTP API gateway,
// routing every endpoint through a shared envelope.
package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"github.com/jobdeck/backend/internal/awsutil"
	"github.com/jobdeck/backend/internal/cards"
	"github.com/jobdeck/backend/internal/config"
	"github.com/jobdeck/backend/internal/httpx"
	"github.com/jobdeck/backend/internal/logging"
	"github.com/jobdeck/backend/internal/profile"
	"github.com/jobdeck/backend/internal/stages"
	"github.com/jobdeck/backend/internal/storage"
	"github.com/jobdeck/backend/internal/views"
)

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

func health(_ context.Context, _ *httpx.Request) events.APIGatewayV2HTTPResponse {
	return httpx.JSON(http.StatusOK, map[string]any{
		"ok":      true,
		"service": "jobdeck-api",
		"time":    time.Now().UTC().Format(isoMillis),
	})
}

func newRouter(env config.Env, store storage.Store, logger *zap.Logger) *httpx.Router {
	cardsH := &cards.Handler{Store: store, Table: env.CardsTable, Log: logger}
	stagesH := &stages.Handler{Store: store, Table: env.CardsTable, Log: logger}
	profileH := &profile.Handler{Store: store, Table: env.ProfilesTable, Log: logger}
	viewsH := &views.Handler{Store: store, Table: env.CardsTable, Log: logger, DefaultDays: env.ReminderDays}

	r := httpx.NewRouter(env.AllowDevHeader, logger)
	r.HandlePublic(http.MethodGet, "/health", health)

	r.Handle(http.MethodGet, "/cards", cardsH.List)
	r.Handle(http.MethodPost, "/cards", cardsH.Create)
	r.Handle(http.MethodPut, "/cards/{cardId}", cardsH.Update)
	r.Handle(http.MethodDelete, "/cards/{cardId}", cardsH.Delete)

	r.Handle(http.MethodGet, "/settings/stages", stagesH.Get)
	r.Handle(http.MethodPut, "/settings/stages", stagesH.Put)

	r.Handle(http.MethodGet, "/profile", profileH.Get)
	r.Handle(http.MethodPut, "/profile", profileH.Put)

	r.Handle(http.MethodGet, "/stats", viewsH.Stats)
	r.Handle(http.MethodGet, "/reminders", viewsH.Reminders)
	return r
}

func main() {
	env := config.Load()
	logger, err := logging.New(env.LogLevel)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := awsutil.Load(context.Background(), env.Region)
	if err != nil {
		logger.Fatal("aws config load failed", zap.Error(err))
	}
	store := storage.NewDynamo(dynamodb.NewFromConfig(cfg), logger)

	lambda.Start(newRouter(env, store, logger).Dispatch)
}
