package cards

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/jobdeck/backend/internal/httpx"
	"github.com/jobdeck/backend/internal/storage"
)

const (
	defaultLimit = 500
	maxLimit     = 1000

	// isoMillis matches the timestamp shape the web client already stores.
	isoMillis = "2006-01-02T15:04:05.000Z07:00"
)

// Handler serves the /cards routes. Every operation keys on the principal
// carried in the request envelope; no card outside that partition is
// reachable.
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

func (h *Handler) configured() bool { return h.Table != "" }

func configError() events.APIGatewayV2HTTPResponse {
	return httpx.Fail(http.StatusInternalServerError, "CARDS_TABLE env var is not set")
}

// pageToken is the opaque continuation token echoed to clients.
type pageToken struct {
	UserID string `json:"userId"`
	CardID string `json:"cardId"`
}

func encodeToken(last storage.Item) *string {
	if last == nil {
		return nil
	}
	var tok pageToken
	if err := attributevalue.UnmarshalMap(last, &tok); err != nil {
		return nil
	}
	b, _ := json.Marshal(tok)
	s := base64.StdEncoding.EncodeToString(b)
	return &s
}

func decodeToken(s, userID string) (storage.Item, bool) {
	if s == "" {
		return nil, true
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, false
	}
	var tok pageToken
	if err := json.Unmarshal(b, &tok); err != nil || tok.CardID == "" {
		return nil, false
	}
	// the token's partition is forced back to the caller's
	return storage.CardKey(userID, tok.CardID), true
}

func clampLimit(raw string) int32 {
	n, err := strconv.Atoi(raw)
	if err != nil || raw == "" {
		n = defaultLimit
	}
	if n < 1 {
		n = 1
	}
	if n > maxLimit {
		n = maxLimit
	}
	return int32(n)
}

// List handles GET /cards.
func (h *Handler) List(ctx context.Context, r *httpx.Request) events.APIGatewayV2HTTPResponse {
	if !h.configured() {
		return configError()
	}
	limit := clampLimit(r.Query["limit"])
	start, ok := decodeToken(r.Query["nextKey"], r.UserID)
	if !ok {
		return httpx.Fail(http.StatusBadRequest, "Invalid nextKey")
	}
	filter := FilterFromQuery(r.Query)

	page, err := h.Store.Query(ctx, h.Table, r.UserID, limit, start)
	if err != nil {
		h.Log.Error("card list query failed", zap.String("userId", r.UserID), zap.Error(err))
		return httpx.ServerError()
	}

	items := []Card{}
	for _, it := range page.Items {
		var c Card
		if err := attributevalue.UnmarshalMap(it, &c); err != nil {
			h.Log.Warn("skipping unreadable card item", zap.String("userId", r.UserID), zap.Error(err))
			continue
		}
		if IsReserved(c.CardID) {
			continue
		}
		if filter.Match(c) {
			items = append(items, c)
		}
	}

	return httpx.JSON(http.StatusOK, map[string]any{
		"ok":      true,
		"items":   items,
		"nextKey": encodeToken(page.LastKey),
	})
}

// Create handles POST /cards.
func (h *Handler) Create(ctx context.Context, r *httpx.Request) events.APIGatewayV2HTTPResponse {
	if !h.configured() {
		return configError()
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal([]byte(r.Body), &body); err != nil || body == nil {
		return httpx.Fail(http.StatusBadRequest, "Invalid JSON")
	}

	cardID := jsonString(body["cardId"])
	if cardID == "" {
		cardID = ulid.Make().String()
	}
	if IsReserved(cardID) {
		return httpx.Fail(http.StatusBadRequest, "Invalid card id")
	}

	now := h.nowISO()
	createdAt := jsonString(body["createdAt"])
	if createdAt == "" {
		createdAt = now
	}

	card := Card{
		UserID:       r.UserID,
		CardID:       cardID,
		Title:        trimmed(body["title"]),
		Company:      jsonString(body["company"]),
		Location:     jsonString(body["location"]),
		Link:         jsonString(body["link"]),
		Status:       statusFrom(body),
		DueDate:      jsonString(body["dueDate"]),
		Notes:        jsonString(body["notes"]),
		Tags:         normalizeTags(body["tags"]),
		ContactName:  jsonString(body["contactName"]),
		ContactEmail: jsonString(body["contactEmail"]),
		ContactPhone: jsonString(body["contactPhone"]),
		Salary:       normalizeSalary(body["salary"]),
		ReferredBy:   jsonString(body["referredBy"]),
		Source:       jsonString(body["source"]),
		Flagged:      jsonBool(body["flagged"]),
		CreatedAt:    createdAt,
		UpdatedAt:    now,
	}

	item, err := attributevalue.MarshalMap(card)
	if err != nil {
		h.Log.Error("card marshal failed", zap.Error(err))
		return httpx.ServerError()
	}
	if err := h.Store.Put(ctx, h.Table, item); err != nil {
		h.Log.Error("card put failed", zap.String("userId", r.UserID), zap.Error(err))
		return httpx.ServerError()
	}
	return httpx.JSON(http.StatusCreated, map[string]any{"ok": true, "card": card})
}

// Update handles PUT /cards/{cardId}: a whitelist merge. userId, cardId and
// createdAt are never overwritten; updatedAt always advances, even when the
// patch carries no writable field.
func (h *Handler) Update(ctx context.Context, r *httpx.Request) events.APIGatewayV2HTTPResponse {
	if !h.configured() {
		return configError()
	}
	cardID := r.Params["cardId"]
	if cardID == "" || IsReserved(cardID) {
		return httpx.Fail(http.StatusBadRequest, "Invalid card id")
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal([]byte(r.Body), &body); err != nil || body == nil {
		return httpx.Fail(http.StatusBadRequest, "Invalid JSON")
	}
	if _, ok := body["status"]; !ok {
		if raw, ok := body["stage"]; ok {
			body["status"] = raw
		}
	}

	patch := storage.Item{}
	for _, k := range writable {
		raw, present := body[k]
		if !present {
			continue
		}
		av, err := patchValue(k, raw, body)
		if err != nil {
			h.Log.Error("card patch marshal failed", zap.String("field", k), zap.Error(err))
			return httpx.ServerError()
		}
		patch[k] = av
	}
	patch["updatedAt"] = &types.AttributeValueMemberS{Value: h.nowISO()}

	merged, err := h.Store.Update(ctx, h.Table, storage.CardKey(r.UserID, cardID), patch)
	if err != nil {
		h.Log.Error("card update failed",
			zap.String("userId", r.UserID), zap.String("cardId", cardID), zap.Error(err))
		return httpx.ServerError()
	}

	var card Card
	if err := attributevalue.UnmarshalMap(merged, &card); err != nil {
		h.Log.Error("merged card unmarshal failed", zap.Error(err))
		return httpx.ServerError()
	}
	return httpx.JSON(http.StatusOK, map[string]any{"ok": true, "card": card})
}

// patchValue normalizes one whitelisted attribute into storage form.
func patchValue(key string, raw json.RawMessage, body map[string]json.RawMessage) (types.AttributeValue, error) {
	switch key {
	case "tags":
		return attributevalue.Marshal(normalizeTags(raw))
	case "salary":
		return attributevalue.Marshal(normalizeSalary(raw))
	case "flagged":
		return attributevalue.Marshal(jsonBool(raw))
	case "status":
		return attributevalue.Marshal(statusValue(body))
	default:
		return attributevalue.Marshal(jsonString(raw))
	}
}

// Delete handles DELETE /cards/{cardId}. Deleting an absent card succeeds.
func (h *Handler) Delete(ctx context.Context, r *httpx.Request) events.APIGatewayV2HTTPResponse {
	if !h.configured() {
		return configError()
	}
	cardID := r.Params["cardId"]
	if cardID == "" || IsReserved(cardID) {
		return httpx.Fail(http.StatusBadRequest, "Invalid card id")
	}
	if err := h.Store.Delete(ctx, h.Table, storage.CardKey(r.UserID, cardID)); err != nil {
		h.Log.Error("card delete failed",
			zap.String("userId", r.UserID), zap.String("cardId", cardID), zap.Error(err))
		return httpx.ServerError()
	}
	return httpx.JSON(http.StatusOK, map[string]any{"ok": true, "cardId": cardID})
}

func trimmed(raw json.RawMessage) string {
	return strings.TrimSpace(jsonString(raw))
}
