// Package views serves the stateless projections over a user's cards:
// faceted totals and the upcoming-reminders window. Both read the whole
// partition in one pass; partitions are expected to stay O(hundreds).
package views

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"go.uber.org/zap"

	"github.com/jobdeck/backend/internal/cards"
	"github.com/jobdeck/backend/internal/httpx"
	"github.com/jobdeck/backend/internal/storage"
)

// Handler serves GET /stats and GET /reminders.
type Handler struct {
	Store storage.Store
	Table string
	Log   *zap.Logger
	Now   func() time.Time

	// DefaultDays is the reminder window when the request names none.
	DefaultDays int
}

func (h *Handler) clock() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// loadCards reads the caller's full partition, dropping reserved items.
func (h *Handler) loadCards(ctx context.Context, userID string) ([]cards.Card, error) {
	items, err := h.Store.QueryAll(ctx, h.Table, userID)
	if err != nil {
		return nil, err
	}
	out := make([]cards.Card, 0, len(items))
	for _, it := range items {
		var c cards.Card
		if err := attributevalue.UnmarshalMap(it, &c); err != nil {
			h.Log.Warn("skipping unreadable item in aggregation", zap.String("userId", userID), zap.Error(err))
			continue
		}
		if cards.IsReserved(c.CardID) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func configError() events.APIGatewayV2HTTPResponse {
	return httpx.Fail(http.StatusInternalServerError, "CARDS_TABLE env var is not set")
}
