package profile

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

// Handler serves GET and PUT /profile.
type Handler struct {
	Store storage.Store
	Table string
	Log   *zap.Logger
	Now   func() time.Time
}

func (h *Handler) clock() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) configured() bool { return h.Table != "" }

func configError() events.APIGatewayV2HTTPResponse {
	return httpx.Fail(http.StatusInternalServerError, "PROFILES_TABLE env var is not set")
}

// Get handles GET /profile. A missing record is not an error; the client
// uses `profile: null` to route the user into onboarding.
func (h *Handler) Get(ctx context.Context, r *httpx.Request) events.APIGatewayV2HTTPResponse {
	if !h.configured() {
		return configError()
	}
	item, err := h.Store.Get(ctx, h.Table, storage.UserKey(r.UserID))
	if err != nil {
		h.Log.Error("profile read failed", zap.String("userId", r.UserID), zap.Error(err))
		return httpx.ServerError()
	}
	if item == nil {
		return httpx.JSON(http.StatusOK, map[string]any{"ok": true, "profile": nil})
	}
	var p Profile
	if err := attributevalue.UnmarshalMap(item, &p); err != nil {
		h.Log.Error("profile unmarshal failed", zap.String("userId", r.UserID), zap.Error(err))
		return httpx.ServerError()
	}
	return httpx.JSON(http.StatusOK, map[string]any{"ok": true, "profile": p})
}

// Put handles PUT /profile. The first write is a create with every required
// field validated; later writes are patches validated over the merge of
// patch and existing record.
func (h *Handler) Put(ctx context.Context, r *httpx.Request) events.APIGatewayV2HTTPResponse {
	if !h.configured() {
		return configError()
	}
	patch, ok := ParsePatch(r.Body)
	if !ok {
		return httpx.Fail(http.StatusBadRequest, "Invalid JSON")
	}

	existingItem, err := h.Store.Get(ctx, h.Table, storage.UserKey(r.UserID))
	if err != nil {
		h.Log.Error("profile read failed", zap.String("userId", r.UserID), zap.Error(err))
		return httpx.ServerError()
	}

	var existing *Profile
	if existingItem != nil {
		var p Profile
		if err := attributevalue.UnmarshalMap(existingItem, &p); err != nil {
			h.Log.Error("profile unmarshal failed", zap.String("userId", r.UserID), zap.Error(err))
			return httpx.ServerError()
		}
		existing = &p
	}

	base := Profile{UserID: r.UserID}
	if existing != nil {
		base = *existing
	}
	merged := patch.Apply(base)
	merged.UserID = r.UserID
	if r.TokenEmail != "" {
		// a verified token email always wins over the body
		merged.Email = r.TokenEmail
	}

	now := h.clock()
	var errs []httpx.FieldError
	if existing == nil {
		errs = ValidateCreate(merged, patch, now)
	} else {
		errs = ValidateUpdate(merged, patch, now)
	}
	if len(errs) > 0 {
		return httpx.FailFields(http.StatusBadRequest, errs)
	}

	nowISO := now.UTC().Format(isoMillis)
	merged.UpdatedAt = nowISO
	if existing == nil || existing.CreatedAt == "" {
		merged.CreatedAt = nowISO
	} else {
		merged.CreatedAt = existing.CreatedAt
	}

	item, err := attributevalue.MarshalMap(merged)
	if err != nil {
		h.Log.Error("profile marshal failed", zap.Error(err))
		return httpx.ServerError()
	}
	if err := h.Store.Put(ctx, h.Table, item); err != nil {
		h.Log.Error("profile write failed", zap.String("userId", r.UserID), zap.Error(err))
		return httpx.ServerError()
	}
	return httpx.JSON(http.StatusOK, map[string]any{"ok": true, "profile": merged})
}
