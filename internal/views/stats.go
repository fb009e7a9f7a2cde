package views

import (
	"context"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/jobdeck/backend/internal/cards"
	"github.com/jobdeck/backend/internal/httpx"
)

// emptyBucket is the facet key for cards with no value in that dimension.
const emptyBucket = "—"

func bump(m map[string]int, key string) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		key = emptyBucket
	}
	m[key]++
}

// Stats handles GET /stats: faceted counts over the caller's cards after
// applying the same filter predicates as the list endpoint. A card with
// three tags contributes three increments to byTag.
func (h *Handler) Stats(ctx context.Context, r *httpx.Request) events.APIGatewayV2HTTPResponse {
	if h.Table == "" {
		return configError()
	}
	all, err := h.loadCards(ctx, r.UserID)
	if err != nil {
		h.Log.Error("stats load failed", zap.String("userId", r.UserID), zap.Error(err))
		return httpx.ServerError()
	}

	filter := cards.FilterFromQuery(r.Query)
	byStatus := map[string]int{}
	byCompany := map[string]int{}
	byTitle := map[string]int{}
	byLocation := map[string]int{}
	byTag := map[string]int{}

	count := 0
	for _, c := range all {
		if !filter.Match(c) {
			continue
		}
		count++
		bump(byStatus, c.Status)
		bump(byCompany, c.Company)
		bump(byTitle, c.Title)
		bump(byLocation, c.Location)
		for _, t := range c.Tags {
			bump(byTag, t)
		}
	}

	return httpx.JSON(http.StatusOK, map[string]any{
		"ok":    true,
		"count": count,
		"totals": map[string]any{
			"byStatus":   byStatus,
			"byCompany":  byCompany,
			"byTitle":    byTitle,
			"byLocation": byLocation,
			"byTag":      byTag,
		},
	})
}
