package stages

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"go.uber.org/zap"

	"github.com/jobdeck/backend/internal/httpx"
	"github.com/jobdeck/backend/internal/storage"
)

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Handler serves the /settings/stages routes.
type Handler struct {
	Store storage.Store
	Table string
	Log   *zap.Logger
	Now   func() time.Time
}

func (h *Handler) nowISO() string {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	return now().UTC().Format(isoMillis)
}

// Get handles GET /settings/stages. A user with no stored config receives
// the defaults and a `defaulted: true` marker; nothing is persisted.
func (h *Handler) Get(ctx context.Context, r *httpx.Request) events.APIGatewayV2HTTPResponse {
	if h.Table == "" {
		return httpx.Fail(http.StatusInternalServerError, "CARDS_TABLE env var is not set")
	}
	item, err := h.Store.Get(ctx, h.Table, storage.CardKey(r.UserID, SortKey))
	if err != nil {
		h.Log.Error("stage config read failed", zap.String("userId", r.UserID), zap.Error(err))
		return httpx.ServerError()
	}
	if item == nil {
		return httpx.JSON(http.StatusOK, map[string]any{
			"ok":        true,
			"stages":    Defaults(),
			"defaulted": true,
		})
	}

	var cfg Config
	if err := attributevalue.UnmarshalMap(item, &cfg); err != nil {
		h.Log.Error("stage config unmarshal failed", zap.String("userId", r.UserID), zap.Error(err))
		return httpx.ServerError()
	}
	return httpx.JSON(http.StatusOK, map[string]any{
		"ok":        true,
		"stages":    cfg.Stages,
		"updatedAt": cfg.UpdatedAt,
	})
}

// Put handles PUT /settings/stages: validate, then replace the whole config
// item. Card statuses referencing removed keys are left alone; the client
// owns any rewriting.
func (h *Handler) Put(ctx context.Context, r *httpx.Request) events.APIGatewayV2HTTPResponse {
	if h.Table == "" {
		return httpx.Fail(http.StatusInternalServerError, "CARDS_TABLE env var is not set")
	}
	list, err := Parse(r.Body)
	if err != nil {
		return httpx.Fail(http.StatusBadRequest, err.Error())
	}

	cfg := Config{
		UserID:    r.UserID,
		CardID:    SortKey,
		Stages:    list,
		UpdatedAt: h.nowISO(),
	}
	item, err := attributevalue.MarshalMap(cfg)
	if err != nil {
		h.Log.Error("stage config marshal failed", zap.Error(err))
		return httpx.ServerError()
	}
	if err := h.Store.Put(ctx, h.Table, item); err != nil {
		h.Log.Error("stage config write failed", zap.String("userId", r.UserID), zap.Error(err))
		return httpx.ServerError()
	}
	return httpx.JSON(http.StatusOK, map[string]any{"ok": true, "stages": list})
}
